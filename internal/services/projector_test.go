package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintool/internal/core"
)

func intPtr(v int) *int { return &v }

func day(s string) time.Time {
	t, err := time.Parse(core.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func counterIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func dates(txs []core.Transaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.Date
	}
	return out
}

func equalDates(t *testing.T, got []core.Transaction, want []string) {
	t.Helper()
	g := dates(got)
	if len(g) != len(want) {
		t.Fatalf("dates = %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("dates = %v, want %v", g, want)
		}
	}
}

func monthly(dom int, start string) core.RecurringItem {
	return core.RecurringItem{
		ID:          "rent",
		Description: "Rent",
		Amount:      decimal.NewFromInt(-1500),
		Category:    "Housing",
		AccountID:   "chk",
		Frequency:   core.Monthly,
		StartDate:   start,
		DayOfMonth:  intPtr(dom),
	}
}

func TestProjectMonthly(t *testing.T) {
	tests := []struct {
		name  string
		item  core.RecurringItem
		today string
		days  int
		want  []string
	}{
		{
			name:  "anchor this month",
			item:  monthly(15, "2024-01-01"),
			today: "2025-03-10",
			days:  60,
			want:  []string{"2025-03-15", "2025-04-15"},
		},
		{
			name:  "anchor already passed moves to next month",
			item:  monthly(15, "2024-01-01"),
			today: "2025-03-20",
			days:  60,
			want:  []string{"2025-04-15", "2025-05-15"},
		},
		{
			name:  "anchor equal to today is included",
			item:  monthly(15, "2024-01-01"),
			today: "2025-03-15",
			days:  31,
			want:  []string{"2025-03-15", "2025-04-15"},
		},
		{
			name:  "occurrences before start date are skipped",
			item:  monthly(15, "2025-04-01"),
			today: "2025-03-10",
			days:  60,
			want:  []string{"2025-04-15"},
		},
		{
			name:  "day 31 clamps to month end and recovers",
			item:  monthly(31, "2024-01-01"),
			today: "2025-01-31",
			days:  90,
			want:  []string{"2025-01-31", "2025-02-28", "2025-03-31", "2025-04-30"},
		},
		{
			name:  "crosses year boundary",
			item:  monthly(5, "2024-01-01"),
			today: "2025-12-01",
			days:  40,
			want:  []string{"2025-12-05", "2026-01-05"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProjector(WithIDGenerator(counterIDs("id")))
			got, err := p.Project([]core.RecurringItem{tt.item}, tt.days, day(tt.today))
			if err != nil {
				t.Fatalf("Project() error = %v", err)
			}
			equalDates(t, got, tt.want)
		})
	}
}

func TestProjectMonthlyCountsFifteenths(t *testing.T) {
	item := monthly(15, "2024-06-20")
	p := NewProjector()

	for today := day("2024-05-01"); today.Before(day("2025-05-01")); today = today.AddDate(0, 0, 3) {
		end := today.AddDate(0, 0, 60)
		want := 0
		for d := today; !d.After(end); d = d.AddDate(0, 0, 1) {
			if d.Day() == 15 && !d.Before(day(item.StartDate)) {
				want++
			}
		}

		got, err := p.Project([]core.RecurringItem{item}, 60, today)
		if err != nil {
			t.Fatalf("Project(%s) error = %v", today.Format(core.DateLayout), err)
		}
		if len(got) != want {
			t.Fatalf("today %s: got %d transactions %v, want %d", today.Format(core.DateLayout), len(got), dates(got), want)
		}
		ids := map[string]bool{}
		for _, tx := range got {
			if tx.Status != core.StatusPending {
				t.Fatalf("status = %q, want pending", tx.Status)
			}
			if tx.ID == "" || ids[tx.ID] {
				t.Fatalf("id %q is empty or duplicated", tx.ID)
			}
			ids[tx.ID] = true
		}
	}
}

func TestProjectBiweekly(t *testing.T) {
	paycheck := core.RecurringItem{
		ID:          "pay",
		Description: "Paycheck",
		Amount:      decimal.NewFromInt(2500),
		Category:    "Income",
		AccountID:   "chk",
		Frequency:   core.Biweekly,
		StartDate:   "2025-01-03",
	}

	tests := []struct {
		name  string
		start string
		today string
		days  int
		want  []string
	}{
		{"past start keeps phase", "2025-01-03", "2025-03-01", 30, []string{"2025-03-14", "2025-03-28"}},
		{"future start", "2025-03-10", "2025-03-01", 30, []string{"2025-03-10", "2025-03-24"}},
		{"start after horizon", "2025-06-01", "2025-03-01", 30, nil},
		{"occurrence on today and on horizon end", "2025-02-15", "2025-03-01", 28, []string{"2025-03-01", "2025-03-15", "2025-03-29"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := paycheck
			item.StartDate = tt.start
			got, err := NewProjector().Project([]core.RecurringItem{item}, tt.days, day(tt.today))
			if err != nil {
				t.Fatalf("Project() error = %v", err)
			}
			equalDates(t, got, tt.want)
		})
	}
}

func TestProjectBiweeklySpacingAndWindow(t *testing.T) {
	item := core.RecurringItem{ID: "pay", AccountID: "chk", Frequency: core.Biweekly, StartDate: "2023-11-17"}
	today := day("2025-02-11")
	const horizon = 200

	got, err := NewProjector().Project([]core.RecurringItem{item}, horizon, today)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if len(got) == 0 {
		t.Fatalf("expected occurrences")
	}
	end := today.AddDate(0, 0, horizon)
	var prev time.Time
	for i, tx := range got {
		d := day(tx.Date)
		if d.Before(today) || d.After(end) {
			t.Fatalf("%s outside [%s, %s]", tx.Date, today.Format(core.DateLayout), end.Format(core.DateLayout))
		}
		if int(d.Sub(day(item.StartDate)).Hours()/24)%14 != 0 {
			t.Fatalf("%s is out of phase with start date", tx.Date)
		}
		if i > 0 && d.Sub(prev) != 14*24*time.Hour {
			t.Fatalf("gap between %s and %s is not 14 days", prev.Format(core.DateLayout), tx.Date)
		}
		prev = d
	}
}

func TestProjectAnnual(t *testing.T) {
	tests := []struct {
		name  string
		start string
		today string
		days  int
		want  []string
	}{
		{"leap day falls back to feb 28", "2020-02-29", "2025-01-15", 800, []string{"2025-02-28", "2026-02-28", "2027-02-28"}},
		{"anniversary already passed this year", "2023-06-10", "2025-07-01", 400, []string{"2026-06-10"}},
		{"start in the future", "2026-01-01", "2025-07-01", 400, []string{"2026-01-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := core.RecurringItem{ID: "ins", AccountID: "chk", Frequency: core.Annual, StartDate: tt.start}
			got, err := NewProjector().Project([]core.RecurringItem{item}, tt.days, day(tt.today))
			if err != nil {
				t.Fatalf("Project() error = %v", err)
			}
			equalDates(t, got, tt.want)
		})
	}
}

func TestProjectCopiesRuleFields(t *testing.T) {
	item := monthly(1, "2024-01-01")
	got, err := NewProjector(WithIDGenerator(counterIDs("x"))).Project([]core.RecurringItem{item}, 10, day("2025-05-01"))
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one transaction, got %v", dates(got))
	}
	tx := got[0]
	if tx.ID != "x-1" || tx.Date != "2025-05-01" || tx.Description != "Rent" || tx.Category != "Housing" ||
		tx.AccountID != "chk" || !tx.Amount.Equal(decimal.NewFromInt(-1500)) || tx.Status != core.StatusPending {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
}

func TestProjectIsDeterministicExceptIDs(t *testing.T) {
	items := []core.RecurringItem{
		monthly(28, "2024-01-01"),
		{ID: "pay", Description: "Paycheck", AccountID: "chk", Frequency: core.Biweekly, StartDate: "2025-01-03", Amount: decimal.NewFromInt(2000)},
		{ID: "ins", Description: "Insurance", AccountID: "chk", Frequency: core.Annual, StartDate: "2024-04-04", Amount: decimal.NewFromInt(-900)},
	}
	today := day("2025-03-01")

	first, err := NewProjector(WithIDGenerator(counterIDs("a"))).Project(items, 365, today)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := NewProjector(WithIDGenerator(counterIDs("b"))).Project(items, 365, today)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("runs differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if a.ID == b.ID {
			t.Fatalf("ids should come from the injected generators")
		}
		a.ID, b.ID = "", ""
		if a.Date != b.Date || a.Description != b.Description || !a.Amount.Equal(b.Amount) ||
			a.AccountID != b.AccountID || a.Category != b.Category || a.Status != b.Status {
			t.Fatalf("row %d differs: %+v vs %+v", i, a, b)
		}
	}
}

func TestProjectErrors(t *testing.T) {
	today := day("2025-03-01")

	t.Run("malformed start date", func(t *testing.T) {
		item := monthly(1, "2025/01/01")
		_, err := NewProjector().Project([]core.RecurringItem{item}, 30, today)
		var pe *core.ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("expected ParseError, got %v", err)
		}
	})

	t.Run("unsupported frequency", func(t *testing.T) {
		item := core.RecurringItem{ID: "gym", Frequency: "weekly", StartDate: "2025-01-01"}
		_, err := NewProjector().Project([]core.RecurringItem{item}, 30, today)
		var fe *core.UnsupportedFrequencyError
		if !errors.As(err, &fe) || fe.ItemID != "gym" || fe.Frequency != "weekly" {
			t.Fatalf("expected UnsupportedFrequencyError for gym, got %v", err)
		}
	})

	t.Run("monthly without day of month", func(t *testing.T) {
		item := monthly(1, "2025-01-01")
		item.DayOfMonth = nil
		_, err := NewProjector().Project([]core.RecurringItem{item}, 30, today)
		if !errors.Is(err, core.ErrInvalidDayOfMonth) {
			t.Fatalf("expected ErrInvalidDayOfMonth, got %v", err)
		}
	})

	t.Run("non-positive horizon", func(t *testing.T) {
		for _, days := range []int{0, -5} {
			_, err := NewProjector().Project(nil, days, today)
			if !errors.Is(err, core.ErrInvalidHorizon) {
				t.Fatalf("days=%d: expected ErrInvalidHorizon, got %v", days, err)
			}
		}
	})

	t.Run("duplicate ids", func(t *testing.T) {
		item := monthly(1, "2024-01-01")
		_, err := NewProjector(WithIDGenerator(func() string { return "same" })).Project([]core.RecurringItem{item}, 90, today)
		if err == nil {
			t.Fatalf("expected duplicate id error")
		}
	})
}

func TestProjectEmptyAndCustomSchedule(t *testing.T) {
	got, err := NewProjector().Project(nil, 30, day("2025-03-01"))
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result, got %v (err=%v)", got, err)
	}

	weekly := scheduleFunc(func(_ core.RecurringItem, start, from, to core.Date) ([]core.Date, error) {
		var out []core.Date
		for d := start; !d.After(to.Time); d = d.AddDays(7) {
			if !d.Before(from.Time) {
				out = append(out, d)
			}
		}
		return out, nil
	})
	item := core.RecurringItem{ID: "gym", Frequency: "weekly", StartDate: "2025-03-01"}
	got, err = NewProjector(WithSchedule("weekly", weekly)).Project([]core.RecurringItem{item}, 14, day("2025-03-01"))
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	equalDates(t, got, []string{"2025-03-01", "2025-03-08", "2025-03-15"})
}

type scheduleFunc func(item core.RecurringItem, start, from, to core.Date) ([]core.Date, error)

func (f scheduleFunc) Occurrences(item core.RecurringItem, start, from, to core.Date) ([]core.Date, error) {
	return f(item, start, from, to)
}
