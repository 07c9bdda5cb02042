package backend

import (
	"context"

	"fintool/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// SourceResult contains the record source and optional cleanup function.
// Store is set when the source also accepts writes.
type SourceResult struct {
	Source  sheets.RecordSource
	Store   sheets.RecordStore
	Cleanup CleanupFunc
}

// WriterResult contains the report writer and optional cleanup function.
type WriterResult struct {
	Writer  sheets.ReportWriter
	Cleanup CleanupFunc
}

// Factory creates record sources and report writers based on configuration
type Factory interface {
	CreateSource(ctx context.Context, config Config) (*SourceResult, error)
	CreateWriter(ctx context.Context, config Config) (*WriterResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Source SourceType
	Export ExportType

	// JSON specific
	DataDirectory string

	// SQLite specific
	SQLiteDBPath string

	// Excel specific
	ExcelOutputPath string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// SourceType names where records are read from.
type SourceType string

const (
	JSONSource   SourceType = "json"
	SQLiteSource SourceType = "sqlite"
)

func (st SourceType) String() string {
	return string(st)
}

func (st SourceType) IsValid() bool {
	switch st {
	case JSONSource, SQLiteSource:
		return true
	default:
		return false
	}
}

// ExportType names where reports are exported to.
type ExportType string

const (
	MemoryExport ExportType = "memory"
	SheetsExport ExportType = "sheets"
	ExcelExport  ExportType = "excel"
)

func (et ExportType) String() string {
	return string(et)
}

func (et ExportType) IsValid() bool {
	switch et {
	case MemoryExport, SheetsExport, ExcelExport:
		return true
	default:
		return false
	}
}
