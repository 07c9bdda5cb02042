package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"fintool/internal/core"
)

const TotalLiabilitiesLabel = "Total Liabilities"

var LiabilityColumns = []string{
	"account_name", "value", "monthly_payment", "current_apr", "due_day",
	"status", "credit_limit", "available_credit", "notes",
}

type LiabilityRow struct {
	AccountName     string              `json:"account_name"`
	Value           decimal.Decimal     `json:"value"`
	MonthlyPayment  decimal.NullDecimal `json:"monthly_payment"`
	CurrentAPR      decimal.NullDecimal `json:"current_apr"`
	DueDay          *int                `json:"due_day"`
	Status          *string             `json:"status"`
	CreditLimit     decimal.NullDecimal `json:"credit_limit"`
	AvailableCredit decimal.Decimal     `json:"available_credit"`
	Notes           *string             `json:"notes"`
	IsTotal         bool                `json:"is_total,omitempty"`
}

func (r LiabilityRow) Cells() []any {
	return []any{
		r.AccountName, r.Value, nullCell(r.MonthlyPayment), nullCell(r.CurrentAPR), intCell(r.DueDay),
		strCell(r.Status), nullCell(r.CreditLimit), r.AvailableCredit, strCell(r.Notes),
	}
}

// CurrentAPR is the intro APR while the intro deadline is strictly after
// today, and the standard APR otherwise. A missing intro APR falls back to
// the standard one; an unparseable deadline counts as expired.
func CurrentAPR(a core.MasterAccount, today time.Time) decimal.NullDecimal {
	if a.IntroAPRDeadline == nil || *a.IntroAPRDeadline == "" {
		return a.APR
	}
	deadline, err := core.ParseDate("intro_apr_deadline", *a.IntroAPRDeadline)
	if err != nil || !core.DateOf(today).Before(deadline.Time) {
		return a.APR
	}
	if a.IntroAPR.Valid {
		return a.IntroAPR
	}
	return a.APR
}

// Liabilities lists the liability accounts with their current APR and
// available credit, followed by a total row. The total APR is the
// value-weighted average of the current APRs.
func Liabilities(accounts []core.MasterAccount, today time.Time) Table[LiabilityRow] {
	t := Table[LiabilityRow]{Name: KindLiabilities, Columns: LiabilityColumns, Rows: []LiabilityRow{}}

	var (
		values, aprs   []decimal.Decimal
		totalValue     = decimal.Zero
		totalPayment   = decimal.Zero
		totalLimit     = decimal.Zero
		totalAvailable = decimal.Zero
	)
	for _, a := range accounts {
		if !a.IsLiability() {
			continue
		}
		apr := CurrentAPR(a, today)
		available := core.OrZero(a.CreditLimit).Sub(a.Value)

		t.Rows = append(t.Rows, LiabilityRow{
			AccountName:     a.AccountName,
			Value:           a.Value,
			MonthlyPayment:  a.MonthlyPayment,
			CurrentAPR:      apr,
			DueDay:          a.DueDay,
			Status:          a.Status,
			CreditLimit:     a.CreditLimit,
			AvailableCredit: available,
			Notes:           a.Notes,
		})
		values = append(values, a.Value)
		aprs = append(aprs, core.OrZero(apr))
		totalValue = totalValue.Add(a.Value)
		totalPayment = totalPayment.Add(core.OrZero(a.MonthlyPayment))
		totalLimit = totalLimit.Add(core.OrZero(a.CreditLimit))
		totalAvailable = totalAvailable.Add(available)
	}
	if len(t.Rows) == 0 {
		return t
	}

	t.Rows = append(t.Rows, LiabilityRow{
		AccountName:     TotalLiabilitiesLabel,
		Value:           totalValue,
		MonthlyPayment:  core.Some(totalPayment),
		CurrentAPR:      core.Some(core.WeightedAverage(aprs, values)),
		CreditLimit:     core.Some(totalLimit),
		AvailableCredit: totalAvailable,
		IsTotal:         true,
	})
	return t
}
