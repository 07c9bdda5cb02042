// Package excel writes reports to an .xlsx workbook, one sheet per report.
package excel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode"

	"github.com/xuri/excelize/v2"

	"fintool/internal/log"
	"fintool/internal/reports"
	ports "fintool/internal/sheets"
)

const defaultSheet = "Sheet1"

// Writer keeps a workbook on disk and replaces a report's sheet on every write.
type Writer struct {
	path   string
	logger *log.Logger

	// excelize files are not safe for concurrent use and writes share one file
	mu sync.Mutex
}

var _ ports.ReportWriter = (*Writer)(nil)

func New(path string, logger *log.Logger) *Writer {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Writer{path: path, logger: logger.WithComponent(log.ComponentSheets)}
}

// WriteReport implements sheets.ReportWriter. The returned ref is
// "<path>#<sheet>!A1:<last cell>".
func (w *Writer) WriteReport(ctx context.Context, t reports.Tabular) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	lastCell, err := writeSheet(f, t)
	if err != nil {
		return "", err
	}
	if err := dropDefaultSheet(f); err != nil {
		return "", err
	}
	if err := f.SaveAs(w.path); err != nil {
		return "", fmt.Errorf("save workbook %s: %w", w.path, err)
	}

	ref := fmt.Sprintf("%s#%s!A1:%s", w.path, SheetName(t.Title()), lastCell)
	w.logger.InfoContext(ctx, "Report written to workbook",
		log.FieldReport, t.Title(),
		log.FieldRows, len(t.Records()),
		log.FieldSheetsRef, ref)
	return ref, nil
}

func (w *Writer) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(w.path)
	if err == nil {
		return f, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return excelize.NewFile(), nil
	}
	return nil, fmt.Errorf("open workbook %s: %w", w.path, err)
}

// Workbook renders the given reports into a new in-memory workbook.
func Workbook(tables ...reports.Tabular) (*excelize.File, error) {
	f := excelize.NewFile()
	for _, t := range tables {
		if _, err := writeSheet(f, t); err != nil {
			f.Close()
			return nil, err
		}
	}
	if err := dropDefaultSheet(f); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// writeSheet recreates the report's sheet and returns the bottom-right cell.
func writeSheet(f *excelize.File, t reports.Tabular) (string, error) {
	sheet := SheetName(t.Title())
	if idx, _ := f.GetSheetIndex(sheet); idx >= 0 {
		if err := clearSheet(f, sheet); err != nil {
			return "", err
		}
	} else if _, err := f.NewSheet(sheet); err != nil {
		return "", fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	header := t.Header()
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}

	records := t.Records()
	for i, rec := range records {
		row := make([]any, len(rec))
		for j, v := range rec {
			row[j] = reports.CellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return "", fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cols := max(len(header), 1)
	lastCell, err := excelize.CoordinatesToCellName(cols, len(records)+1)
	if err != nil {
		return "", err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("create header style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(cols, 1)
	if err := f.SetCellStyle(sheet, "A1", lastHeader, style); err != nil {
		return "", fmt.Errorf("style header: %w", err)
	}
	if len(records) > 0 {
		// The last row of a non-empty report is its total
		first, _ := excelize.CoordinatesToCellName(1, len(records)+1)
		if err := f.SetCellStyle(sheet, first, lastCell, style); err != nil {
			return "", fmt.Errorf("style total: %w", err)
		}
	}
	return lastCell, nil
}

// clearSheet removes every row of an existing sheet, bottom up.
func clearSheet(f *excelize.File, sheet string) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	for i := len(rows); i >= 1; i-- {
		if err := f.RemoveRow(sheet, i); err != nil {
			return fmt.Errorf("reset sheet %s: %w", sheet, err)
		}
	}
	return nil
}

// dropDefaultSheet removes the blank sheet excelize creates with a new file
// once a report sheet exists.
func dropDefaultSheet(f *excelize.File) error {
	if len(f.GetSheetList()) < 2 {
		return nil
	}
	if idx, _ := f.GetSheetIndex(defaultSheet); idx < 0 {
		return nil
	}
	if err := f.DeleteSheet(defaultSheet); err != nil {
		return fmt.Errorf("remove default sheet: %w", err)
	}
	return nil
}

// SheetName turns a report name into a sheet name ("cashflow" -> "Cashflow").
func SheetName(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return defaultSheet
	}
	r := []rune(title)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
