package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRecord     = errors.New("invalid record")
	ErrInvalidHorizon    = errors.New("days ahead must be positive")
	ErrInvalidDayOfMonth = errors.New("day of month must be between 1 and 31")
	ErrDataUnavailable   = errors.New("data unavailable")
)

// ParseError reports a malformed date or number in an input record.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnsupportedFrequencyError is returned for a recurring item whose
// frequency has no generation rule.
type UnsupportedFrequencyError struct {
	ItemID    string
	Frequency Frequency
}

func (e *UnsupportedFrequencyError) Error() string {
	return fmt.Sprintf("recurring item %s: unsupported frequency %q", e.ItemID, e.Frequency)
}

// ArithmeticPreconditionError is returned when a computation would divide
// by a non-positive period.
type ArithmeticPreconditionError struct {
	Item  string
	Field string
	Value decimal.Decimal
}

func (e *ArithmeticPreconditionError) Error() string {
	return fmt.Sprintf("%s: %s must be greater than zero, got %s", e.Item, e.Field, e.Value)
}

// DataUnavailableError wraps a missing or unreadable input source.
// Loaders log it and continue with an empty collection.
type DataUnavailableError struct {
	Source string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("data unavailable from %s: %v", e.Source, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

func (e *DataUnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}
