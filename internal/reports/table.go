// Package reports folds finance records into summary tables.
//
// Every report function is a pure transform of its arguments. Reports are
// returned as typed tables whose last row is a synthetic total; empty input
// gives a table with its columns and no rows.
package reports

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind names a report.
type Kind string

const (
	KindAssets      Kind = "assets"
	KindLiabilities Kind = "liabilities"
	KindBudget      Kind = "budget"
	KindSavings     Kind = "savings"
	KindCashflow    Kind = "cashflow"
	KindProjection  Kind = "projection"
)

// Kinds lists every report in display order.
var Kinds = []Kind{KindAssets, KindLiabilities, KindBudget, KindSavings, KindCashflow, KindProjection}

// ParseKind resolves a report name, ignoring case and surrounding spaces.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown report %q", s)
}

// Row is one report line.
type Row interface {
	// Cells returns the row's values in column order. Absent values are nil.
	Cells() []any
}

// Tabular is the exporter's view of a report.
type Tabular interface {
	Title() string
	Header() []string
	Records() [][]any
}

// Table is a report with fixed columns.
type Table[R Row] struct {
	Name    Kind     `json:"name"`
	Columns []string `json:"columns"`
	Rows    []R      `json:"rows"`
}

var _ Tabular = Table[AssetRow]{}

func (t Table[R]) Empty() bool { return len(t.Rows) == 0 }

// Total returns the last row, which is the total row of a non-empty report.
func (t Table[R]) Total() (R, bool) {
	var zero R
	if len(t.Rows) == 0 {
		return zero, false
	}
	return t.Rows[len(t.Rows)-1], true
}

func (t Table[R]) Title() string { return string(t.Name) }

func (t Table[R]) Header() []string {
	return append([]string(nil), t.Columns...)
}

func (t Table[R]) Records() [][]any {
	out := make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Cells()
	}
	return out
}

// CellValue converts a cell to a plain spreadsheet value: decimals become
// float64, nil stays nil.
func CellValue(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.InexactFloat64()
	case *int:
		if x == nil {
			return nil
		}
		return *x
	case *string:
		if x == nil {
			return nil
		}
		return *x
	default:
		return v
	}
}

func nullCell(n decimal.NullDecimal) any {
	if !n.Valid {
		return nil
	}
	return n.Decimal
}

func intCell(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func strCell(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
