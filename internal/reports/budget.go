package reports

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"fintool/internal/core"
)

const TotalBillsLabel = "Total Bills"

var BudgetColumns = []string{"item_name", "due_day", "monthly_cost", "per_paycheck_cost"}

type BudgetRow struct {
	ItemName        string          `json:"item_name"`
	DueDay          *int            `json:"due_day"`
	MonthlyCost     decimal.Decimal `json:"monthly_cost"`
	PerPaycheckCost decimal.Decimal `json:"per_paycheck_cost"`
	IsTotal         bool            `json:"is_total,omitempty"`
}

func (r BudgetRow) Cells() []any {
	return []any{r.ItemName, intCell(r.DueDay), r.MonthlyCost, r.PerPaycheckCost}
}

// Budget spreads every item over a month and over two paychecks, sorts the
// items by due day (items without one last, ties kept in input order) and
// appends a total row. An item with a non-positive period fails the whole
// report with an ArithmeticPreconditionError.
func Budget(items []core.BudgetItem) (Table[BudgetRow], error) {
	t := Table[BudgetRow]{Name: KindBudget, Columns: BudgetColumns, Rows: []BudgetRow{}}

	totalMonthly := decimal.Zero
	totalPaycheck := decimal.Zero
	for _, item := range items {
		monthly, err := core.MonthlyCost(item.ItemName, item.Amount, item.PeriodMonths)
		if err != nil {
			return Table[BudgetRow]{}, err
		}
		paycheck := core.Half(monthly)
		t.Rows = append(t.Rows, BudgetRow{
			ItemName:        item.ItemName,
			DueDay:          item.DueDay,
			MonthlyCost:     monthly,
			PerPaycheckCost: paycheck,
		})
		totalMonthly = totalMonthly.Add(monthly)
		totalPaycheck = totalPaycheck.Add(paycheck)
	}
	if len(t.Rows) == 0 {
		return t, nil
	}

	slices.SortStableFunc(t.Rows, compareDueDay)
	t.Rows = append(t.Rows, BudgetRow{
		ItemName:        TotalBillsLabel,
		MonthlyCost:     totalMonthly,
		PerPaycheckCost: totalPaycheck,
		IsTotal:         true,
	})
	return t, nil
}

// compareDueDay orders rows by due day with missing days last.
func compareDueDay(a, b BudgetRow) int {
	switch {
	case a.DueDay == nil && b.DueDay == nil:
		return 0
	case a.DueDay == nil:
		return 1
	case b.DueDay == nil:
		return -1
	default:
		return cmp.Compare(*a.DueDay, *b.DueDay)
	}
}
