package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintool/internal/core"
)

// Projector turns recurring item rules into pending transactions.
// It holds no mutable state once built and is safe for concurrent use as
// long as its id generator is.
type Projector struct {
	newID      func() string
	strategies map[core.Frequency]ScheduleStrategy
}

// ProjectorOption configures a Projector.
type ProjectorOption func(*Projector)

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(fn func() string) ProjectorOption {
	return func(p *Projector) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// WithSchedule registers or overrides the strategy for a frequency.
func WithSchedule(frequency core.Frequency, s ScheduleStrategy) ProjectorOption {
	return func(p *Projector) {
		p.strategies[frequency] = s
	}
}

// NewProjector creates a projector with the monthly, biweekly and annual schedules.
func NewProjector(opts ...ProjectorOption) *Projector {
	p := &Projector{
		newID:      uuid.NewString,
		strategies: defaultSchedules(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Project generates the transactions the items produce between today and
// today+daysAhead, both inclusive. Only the calendar date of today is used.
// Results follow the order of items, and each item's dates ascend.
func (p *Projector) Project(items []core.RecurringItem, daysAhead int, today time.Time) ([]core.Transaction, error) {
	if daysAhead <= 0 {
		return nil, fmt.Errorf("%w: got %d", core.ErrInvalidHorizon, daysAhead)
	}
	from := core.DateOf(today)
	to := from.AddDays(daysAhead)

	projected := make([]core.Transaction, 0)
	seen := make(map[string]struct{})
	for _, item := range items {
		start, err := core.ParseDate("start_date", item.StartDate)
		if err != nil {
			return nil, fmt.Errorf("recurring item %s: %w", item.ID, err)
		}

		strategy, ok := p.strategies[item.Frequency]
		if !ok {
			return nil, &core.UnsupportedFrequencyError{ItemID: item.ID, Frequency: item.Frequency}
		}

		dates, err := strategy.Occurrences(item, start, from, to)
		if err != nil {
			return nil, err
		}

		for _, date := range dates {
			id := p.newID()
			if _, dup := seen[id]; dup {
				return nil, fmt.Errorf("id generator returned duplicate id %q", id)
			}
			seen[id] = struct{}{}

			projected = append(projected, core.Transaction{
				ID:          id,
				Date:        date.String(),
				Description: item.Description,
				Amount:      item.Amount,
				AccountID:   item.AccountID,
				Category:    item.Category,
				Status:      core.StatusPending,
			})
		}
	}
	return projected, nil
}
