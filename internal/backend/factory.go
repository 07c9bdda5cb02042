package backend

import (
	"context"
	"fmt"

	"fintool/internal/core"
	"fintool/internal/loader"
	"fintool/internal/log"
	"fintool/internal/sheets/excel"
	gsheet "fintool/internal/sheets/google"
	"fintool/internal/sheets/memory"
	"fintool/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger}
}

// CreateSource implements Factory.CreateSource
func (f *DefaultFactory) CreateSource(_ context.Context, config Config) (*SourceResult, error) {
	switch config.Source {
	case JSONSource:
		dir := config.DataDirectory
		if dir == "" {
			dir = "finance_data"
		}
		f.logger.Info("Initialized JSON record source", "data_directory", dir)
		return &SourceResult{Source: loader.New(dir, f.logger)}, nil

	case SQLiteSource:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite record source", "db_path", config.SQLiteDBPath)
		return &SourceResult{Source: repo, Store: repo, Cleanup: repo.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported record source: %s", config.Source)
	}
}

// CreateWriter implements Factory.CreateWriter
func (f *DefaultFactory) CreateWriter(ctx context.Context, config Config) (*WriterResult, error) {
	switch config.Export {
	case MemoryExport:
		f.logger.Info("Initialized in-memory report export")
		return &WriterResult{Writer: memory.New(core.Records{})}, nil

	case ExcelExport:
		f.logger.Info("Initialized Excel report export", "path", config.ExcelOutputPath)
		return &WriterResult{Writer: excel.New(config.ExcelOutputPath, f.logger)}, nil

	case SheetsExport:
		cli, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			CredentialsJSON: config.GoogleServiceAccountJSON,
			CredentialsFile: config.GoogleServiceAccountFile,
		}, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.Info("Initialized Google Sheets report export", "spreadsheet_id", config.GoogleSpreadsheetID)
		return &WriterResult{Writer: cli}, nil

	default:
		return nil, fmt.Errorf("unsupported export backend: %s", config.Export)
	}
}
