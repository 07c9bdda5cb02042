package core

import (
	"errors"
	"time"
)

// DateLayout is the ISO calendar date format used by every record.
const DateLayout = "2006-01-02"

// Date is a calendar date at midnight UTC.
type Date struct {
	time.Time
}

// NewDate creates a Date, normalizing overflowing days and months the way
// time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part of t, keeping its calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses an ISO date. The field name ends up in the ParseError.
func ParseDate(field, value string) (Date, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return Date{}, &ParseError{Field: field, Value: value, Err: err}
	}
	return Date{Time: t}, nil
}

// ClampedDate returns day of the given month, or the month's last day when
// the month is shorter. Month overflow (13, 0, ...) rolls the year.
func ClampedDate(year int, month time.Month, day int) Date {
	first := NewDate(year, month, 1)
	y, m := first.Year(), first.Month()
	if last := DaysIn(y, m); day > last {
		day = last
	}
	return NewDate(y, m, day)
}

// DaysIn returns the number of days in month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}
