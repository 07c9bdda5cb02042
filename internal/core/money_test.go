package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestWeightedAverage(t *testing.T) {
	cases := []struct {
		name    string
		values  []decimal.Decimal
		weights []decimal.Decimal
		want    decimal.Decimal
	}{
		{"apy example", []decimal.Decimal{d("0.05"), d("0.10")}, []decimal.Decimal{d("100"), d("300")}, d("0.0875")},
		{"zero weights", []decimal.Decimal{d("0.05")}, []decimal.Decimal{d("0")}, decimal.Zero},
		{"empty", nil, nil, decimal.Zero},
		{"weights cancel out", []decimal.Decimal{d("1"), d("2")}, []decimal.Decimal{d("5"), d("-5")}, decimal.Zero},
		{"length mismatch", []decimal.Decimal{d("0.2"), d("0.9")}, []decimal.Decimal{d("10")}, d("0.2")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := WeightedAverage(tc.values, tc.weights)
			if !got.Equal(tc.want) {
				t.Fatalf("WeightedAverage() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestMonthlyCost(t *testing.T) {
	got, err := MonthlyCost("Insurance", d("120"), d("2"))
	if err != nil || !got.Equal(d("60")) {
		t.Fatalf("expected 60, got %s (err=%v)", got, err)
	}
	got, err = MonthlyCost("Groceries", d("200"), d("0.5"))
	if err != nil || !got.Equal(d("400")) {
		t.Fatalf("expected 400, got %s (err=%v)", got, err)
	}

	for _, p := range []string{"0", "-1"} {
		_, err := MonthlyCost("Broken", d("10"), d(p))
		var pe *ArithmeticPreconditionError
		if !errors.As(err, &pe) {
			t.Fatalf("period %s: expected ArithmeticPreconditionError, got %v", p, err)
		}
		if pe.Item != "Broken" || pe.Field != "period_months" {
			t.Fatalf("unexpected error fields: %+v", pe)
		}
	}
}

func TestHalfAndOrZero(t *testing.T) {
	if !Half(d("1500")).Equal(d("750")) {
		t.Fatalf("Half(1500) != 750")
	}
	if !OrZero(decimal.NullDecimal{}).IsZero() {
		t.Fatalf("absent should be zero")
	}
	if !OrZero(Some(d("3.5"))).Equal(d("3.5")) {
		t.Fatalf("present value lost")
	}
}
