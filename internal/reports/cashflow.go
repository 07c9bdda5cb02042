package reports

import (
	"github.com/shopspring/decimal"

	"fintool/internal/core"
)

const (
	TotalIncomeLabel   = "Total Income"
	TotalExpensesLabel = "Total Expenses"
	TotalSavingsLabel  = "Total Savings"
	RemainderLabel     = "Remainder"
)

var CashflowColumns = []string{"label", "Monthly", "Half"}

type CashflowRow struct {
	Label   string          `json:"label"`
	Monthly decimal.Decimal `json:"monthly"`
	Half    decimal.Decimal `json:"half"`
}

func (r CashflowRow) Cells() []any {
	return []any{r.Label, r.Monthly, r.Half}
}

// CashflowTotals are the monthly figures behind the cashflow summary.
type CashflowTotals struct {
	Income    decimal.Decimal `json:"income"`
	Expenses  decimal.Decimal `json:"expenses"`
	Savings   decimal.Decimal `json:"savings"`
	Remainder decimal.Decimal `json:"remainder"`
}

// ComputeCashflow sums asset income, monthly budget costs and savings
// contributions. Missing values count as zero; a budget item with a
// non-positive period is an error.
func ComputeCashflow(accounts []core.MasterAccount, items []core.BudgetItem, savings core.SavingsData) (CashflowTotals, error) {
	var c CashflowTotals

	for _, a := range accounts {
		if a.IsAsset() {
			c.Income = c.Income.Add(core.OrZero(a.MonthlyIncome))
		}
	}

	for _, item := range items {
		monthly, err := core.MonthlyCost(item.ItemName, item.Amount, item.PeriodMonths)
		if err != nil {
			return CashflowTotals{}, err
		}
		c.Expenses = c.Expenses.Add(monthly)
	}

	if base, ok := savings.Base(); ok {
		c.Savings = c.Savings.Add(base.MonthlyAmount)
	}
	for _, debt := range savings.PaidOffDebtContributions {
		c.Savings = c.Savings.Add(debt.MonthlyAmount)
	}

	c.Remainder = c.Income.Sub(c.Expenses).Sub(c.Savings)
	return c, nil
}

// Cashflow renders the totals as four rows with monthly and half-month
// (per paycheck) columns. The remainder row comes last.
func Cashflow(accounts []core.MasterAccount, items []core.BudgetItem, savings core.SavingsData) (Table[CashflowRow], error) {
	c, err := ComputeCashflow(accounts, items, savings)
	if err != nil {
		return Table[CashflowRow]{}, err
	}
	row := func(label string, v decimal.Decimal) CashflowRow {
		return CashflowRow{Label: label, Monthly: v, Half: core.Half(v)}
	}
	return Table[CashflowRow]{
		Name:    KindCashflow,
		Columns: CashflowColumns,
		Rows: []CashflowRow{
			row(TotalIncomeLabel, c.Income),
			row(TotalExpensesLabel, c.Expenses),
			row(TotalSavingsLabel, c.Savings),
			row(RemainderLabel, c.Remainder),
		},
	}, nil
}
