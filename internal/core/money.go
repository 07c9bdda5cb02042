// Package core holds the finance records shared by the projector, the
// report engine and the adapters around them.
//
// This file contains the decimal helpers used by the reports.
package core

import "github.com/shopspring/decimal"

var two = decimal.NewFromInt(2)

// WeightedAverage returns Σ(values·weights)/Σweights, or zero when the
// weights sum to zero. Extra entries in the longer slice are ignored.
func WeightedAverage(values, weights []decimal.Decimal) decimal.Decimal {
	n := min(len(values), len(weights))
	total := decimal.Zero
	weighted := decimal.Zero
	for i := 0; i < n; i++ {
		total = total.Add(weights[i])
		weighted = weighted.Add(values[i].Mul(weights[i]))
	}
	if total.IsZero() {
		return decimal.Zero
	}
	return weighted.Div(total)
}

// Half splits a monthly amount into a per-paycheck amount (two paychecks a month).
func Half(d decimal.Decimal) decimal.Decimal {
	return d.Div(two)
}

// OrZero returns the value of an optional decimal, treating absence as zero.
func OrZero(n decimal.NullDecimal) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	return n.Decimal
}

// Some wraps d as a present optional value.
func Some(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// MonthlyCost spreads amount over periodMonths. A non-positive period is an
// ArithmeticPreconditionError naming item.
func MonthlyCost(item string, amount, periodMonths decimal.Decimal) (decimal.Decimal, error) {
	if !periodMonths.IsPositive() {
		return decimal.Zero, &ArithmeticPreconditionError{Item: item, Field: "period_months", Value: periodMonths}
	}
	return amount.Div(periodMonths), nil
}
