package reports

import (
	"github.com/shopspring/decimal"

	"fintool/internal/core"
)

const TotalAssetsLabel = "Total Assets"

var AssetColumns = []string{"account_name", "value", "monthly_income", "apy", "asset_class"}

type AssetRow struct {
	AccountName   string              `json:"account_name"`
	Value         decimal.Decimal     `json:"value"`
	MonthlyIncome decimal.NullDecimal `json:"monthly_income"`
	APY           decimal.NullDecimal `json:"apy"`
	AssetClass    *string             `json:"asset_class"`
	IsTotal       bool                `json:"is_total,omitempty"`
}

func (r AssetRow) Cells() []any {
	return []any{r.AccountName, r.Value, nullCell(r.MonthlyIncome), nullCell(r.APY), strCell(r.AssetClass)}
}

// Assets lists the asset accounts followed by a total row holding the
// summed value and monthly income and the value-weighted average APY.
func Assets(accounts []core.MasterAccount) Table[AssetRow] {
	t := Table[AssetRow]{Name: KindAssets, Columns: AssetColumns, Rows: []AssetRow{}}

	var (
		values, apys []decimal.Decimal
		totalValue   = decimal.Zero
		totalIncome  = decimal.Zero
	)
	for _, a := range accounts {
		if !a.IsAsset() {
			continue
		}
		t.Rows = append(t.Rows, AssetRow{
			AccountName:   a.AccountName,
			Value:         a.Value,
			MonthlyIncome: a.MonthlyIncome,
			APY:           a.APY,
			AssetClass:    a.AssetClass,
		})
		values = append(values, a.Value)
		apys = append(apys, core.OrZero(a.APY))
		totalValue = totalValue.Add(a.Value)
		totalIncome = totalIncome.Add(core.OrZero(a.MonthlyIncome))
	}
	if len(t.Rows) == 0 {
		return t
	}

	t.Rows = append(t.Rows, AssetRow{
		AccountName:   TotalAssetsLabel,
		Value:         totalValue,
		MonthlyIncome: core.Some(totalIncome),
		APY:           core.Some(core.WeightedAverage(apys, values)),
		IsTotal:       true,
	})
	return t
}
