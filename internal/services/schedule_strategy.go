// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for recurring transaction
// schedules. Each frequency (monthly, biweekly, annual) has its own strategy
// that lists the dates an item falls on inside a projection window.

package services

import (
	"fmt"

	"fintool/internal/core"
)

// ScheduleStrategy lists the occurrence dates of a recurring item.
type ScheduleStrategy interface {
	// Occurrences returns, in ascending order, the dates in [from, to] on
	// which the item occurs and that are not before start.
	Occurrences(item core.RecurringItem, start, from, to core.Date) ([]core.Date, error)
}

// MonthlySchedule implements ScheduleStrategy for monthly items.
type MonthlySchedule struct{}

// Occurrences walks calendar months from the month of from, keeping the
// item's day of month. Months shorter than that day use their last day.
func (MonthlySchedule) Occurrences(item core.RecurringItem, start, from, to core.Date) ([]core.Date, error) {
	if item.DayOfMonth == nil || *item.DayOfMonth < 1 || *item.DayOfMonth > 31 {
		return nil, fmt.Errorf("recurring item %s: %w", item.ID, core.ErrInvalidDayOfMonth)
	}
	day := *item.DayOfMonth

	year, month := from.Year(), from.Month()
	anchor := core.ClampedDate(year, month, day)
	if anchor.Before(from.Time) {
		month++
		anchor = core.ClampedDate(year, month, day)
	}

	var out []core.Date
	for !anchor.After(to.Time) {
		if !anchor.Before(start.Time) {
			out = append(out, anchor)
		}
		month++
		anchor = core.ClampedDate(year, month, day)
	}
	return out, nil
}

// BiweeklySchedule implements ScheduleStrategy for items every 14 days.
type BiweeklySchedule struct{}

// Occurrences steps from start in 14 day increments. Steps before from are
// skipped but still taken so the phase stays anchored on start.
func (BiweeklySchedule) Occurrences(_ core.RecurringItem, start, from, to core.Date) ([]core.Date, error) {
	var out []core.Date
	for cursor := start; !cursor.After(to.Time); cursor = cursor.AddDays(14) {
		if !cursor.Before(from.Time) {
			out = append(out, cursor)
		}
	}
	return out, nil
}

// AnnualSchedule implements ScheduleStrategy for yearly items. The item
// recurs on the month and day of its start date; Feb 29 falls back to
// Feb 28 in common years.
type AnnualSchedule struct{}

func (AnnualSchedule) Occurrences(_ core.RecurringItem, start, from, to core.Date) ([]core.Date, error) {
	month, day := start.Month(), start.Day()

	year := from.Year()
	anchor := core.ClampedDate(year, month, day)
	if anchor.Before(from.Time) {
		year++
		anchor = core.ClampedDate(year, month, day)
	}

	var out []core.Date
	for !anchor.After(to.Time) {
		if !anchor.Before(start.Time) {
			out = append(out, anchor)
		}
		year++
		anchor = core.ClampedDate(year, month, day)
	}
	return out, nil
}

// defaultSchedules maps frequencies to their strategies. Projectors copy it,
// so registering a strategy on one projector does not affect others.
func defaultSchedules() map[core.Frequency]ScheduleStrategy {
	return map[core.Frequency]ScheduleStrategy{
		core.Monthly:  MonthlySchedule{},
		core.Biweekly: BiweeklySchedule{},
		core.Annual:   AnnualSchedule{},
	}
}
