package reports

import (
	"github.com/shopspring/decimal"

	"fintool/internal/core"
)

const TotalProjectedLabel = "Total Projected"

var ProjectionColumns = []string{"date", "description", "amount", "account_id", "category", "status", "id"}

type TransactionRow struct {
	core.Transaction
	IsTotal bool `json:"is_total,omitempty"`
}

func (r TransactionRow) Cells() []any {
	if r.IsTotal {
		return []any{nil, r.Description, r.Amount, nil, nil, nil, nil}
	}
	return []any{r.Date, r.Description, r.Amount, r.AccountID, r.Category, string(r.Status), r.ID}
}

// Projection tabulates projected transactions with a total row holding
// their net amount.
func Projection(txs []core.Transaction) Table[TransactionRow] {
	t := Table[TransactionRow]{Name: KindProjection, Columns: ProjectionColumns, Rows: []TransactionRow{}}
	if len(txs) == 0 {
		return t
	}
	net := decimal.Zero
	for _, tx := range txs {
		t.Rows = append(t.Rows, TransactionRow{Transaction: tx})
		net = net.Add(tx.Amount)
	}
	t.Rows = append(t.Rows, TransactionRow{
		Transaction: core.Transaction{Description: TotalProjectedLabel, Amount: net},
		IsTotal:     true,
	})
	return t
}
