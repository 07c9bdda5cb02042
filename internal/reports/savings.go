package reports

import (
	"github.com/shopspring/decimal"

	"fintool/internal/core"
)

const TotalContributionsLabel = "Total Savings Contributions"

var SavingsColumns = []string{"contribution_name", "monthly_amount", "per_paycheck_contribution"}

type SavingsRow struct {
	ContributionName        string          `json:"contribution_name"`
	MonthlyAmount           decimal.Decimal `json:"monthly_amount"`
	PerPaycheckContribution decimal.Decimal `json:"per_paycheck_contribution"`
	IsTotal                 bool            `json:"is_total,omitempty"`
}

func (r SavingsRow) Cells() []any {
	return []any{r.ContributionName, r.MonthlyAmount, r.PerPaycheckContribution}
}

// Savings lists the base contribution and each paid-off debt contribution,
// in that order, then a total row. The total per-paycheck figure is the sum
// of the rows' per-paycheck values.
func Savings(data core.SavingsData) Table[SavingsRow] {
	t := Table[SavingsRow]{Name: KindSavings, Columns: SavingsColumns, Rows: []SavingsRow{}}
	if data.IsEmpty() {
		return t
	}

	sources := make([]core.Contribution, 0, len(data.PaidOffDebtContributions)+1)
	if base, ok := data.Base(); ok {
		sources = append(sources, base)
	}
	sources = append(sources, data.PaidOffDebtContributions...)

	totalMonthly := decimal.Zero
	totalPaycheck := decimal.Zero
	for _, c := range sources {
		paycheck := core.Half(c.MonthlyAmount)
		t.Rows = append(t.Rows, SavingsRow{
			ContributionName:        c.Name,
			MonthlyAmount:           c.MonthlyAmount,
			PerPaycheckContribution: paycheck,
		})
		totalMonthly = totalMonthly.Add(c.MonthlyAmount)
		totalPaycheck = totalPaycheck.Add(paycheck)
	}

	t.Rows = append(t.Rows, SavingsRow{
		ContributionName:        TotalContributionsLabel,
		MonthlyAmount:           totalMonthly,
		PerPaycheckContribution: totalPaycheck,
		IsTotal:                 true,
	})
	return t
}
