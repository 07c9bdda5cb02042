package excel

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"fintool/internal/core"
	"fintool/internal/reports"
)

func assetsTable(values ...int64) reports.Table[reports.AssetRow] {
	var accounts []core.MasterAccount
	for i, v := range values {
		accounts = append(accounts, core.MasterAccount{
			AccountID:     string(rune('a' + i)),
			AccountName:   "Account " + string(rune('A'+i)),
			FinancialType: core.Asset,
			Value:         decimal.NewFromInt(v),
		})
	}
	return reports.Assets(accounts)
}

func TestWriteReportCreatesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.xlsx")
	w := New(path, nil)

	ref, err := w.WriteReport(context.Background(), assetsTable(100, 200))
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if want := path + "#Assets!A1:E4"; ref != want {
		t.Errorf("ref = %q, want %q", ref, want)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != "Assets" {
		t.Errorf("sheets = %v, want [Assets]", sheets)
	}
	rows, err := f.GetRows("Assets")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}
	if rows[0][0] != "account_name" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[3][0] != reports.TotalAssetsLabel || rows[3][1] != "300" {
		t.Errorf("total row = %v, want %s 300", rows[3], reports.TotalAssetsLabel)
	}
}

func TestWriteReportReplacesSheet(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reports.xlsx")
	w := New(path, nil)

	if _, err := w.WriteReport(ctx, assetsTable(1, 2, 3, 4)); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if _, err := w.WriteReport(ctx, assetsTable(10)); err != nil {
		t.Fatalf("second write: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows("Assets")
	if len(rows) != 3 {
		t.Errorf("rows = %d, want header + 1 + total (stale rows left behind?)", len(rows))
	}
}

func TestWriteReportConcurrentSheets(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reports.xlsx")
	w := New(path, nil)

	savings := reports.Savings(core.SavingsData{
		BaseContribution: &core.Contribution{Name: "Base", MonthlyAmount: decimal.NewFromInt(400)},
	})
	tables := []reports.Tabular{assetsTable(5), savings, reports.Projection(nil)}

	var wg sync.WaitGroup
	errs := make(chan error, len(tables))
	for _, tbl := range tables {
		wg.Add(1)
		go func(tbl reports.Tabular) {
			defer wg.Done()
			_, err := w.WriteReport(ctx, tbl)
			errs <- err
		}(tbl)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("WriteReport: %v", err)
		}
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()
	got := strings.Join(f.GetSheetList(), ",")
	for _, want := range []string{"Assets", "Savings", "Projection"} {
		if !strings.Contains(got, want) {
			t.Errorf("sheets %q missing %s", got, want)
		}
	}
	if strings.Contains(got, defaultSheet) {
		t.Errorf("default sheet left in workbook: %q", got)
	}
}

func TestWorkbook(t *testing.T) {
	f, err := Workbook(assetsTable(7), reports.Savings(core.SavingsData{}))
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 2 {
		t.Fatalf("sheets = %v, want Assets and Savings", sheets)
	}
	rows, _ := f.GetRows("Savings")
	if len(rows) != 1 {
		t.Errorf("empty savings report should only hold its header, got %d rows", len(rows))
	}
}

func TestWriteReportCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := New(filepath.Join(t.TempDir(), "reports.xlsx"), nil)
	if _, err := w.WriteReport(ctx, assetsTable(1)); err == nil {
		t.Error("expected context error")
	}
}

func TestSheetName(t *testing.T) {
	if got := SheetName("cashflow"); got != "Cashflow" {
		t.Errorf("SheetName = %q", got)
	}
	if got := SheetName(" "); got != defaultSheet {
		t.Errorf("SheetName(blank) = %q", got)
	}
}
