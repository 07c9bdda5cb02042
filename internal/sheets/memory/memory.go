package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"fintool/internal/core"
	"fintool/internal/reports"
)

// Snapshot is a report as it was written, with cells already converted to
// plain spreadsheet values.
type Snapshot struct {
	Header []string
	Rows   [][]any
}

type Store struct {
	mu      sync.Mutex
	records core.Records
	reports map[string]Snapshot
	writes  int
}

func New(records core.Records) *Store {
	return &Store{records: records, reports: map[string]Snapshot{}}
}

// Load returns a copy of the stored records.
func (s *Store) Load(_ context.Context) (core.Records, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecords(s.records), nil
}

// SaveRecords replaces the stored records.
func (s *Store) SaveRecords(_ context.Context, r core.Records) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = cloneRecords(r)
	return nil
}

// UpsertAccounts replaces accounts with a matching id and appends the rest.
func (s *Store) UpsertAccounts(_ context.Context, accounts []core.Account) error {
	for _, a := range accounts {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("account %s: %w", a.AccountID, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range accounts {
		i := slices.IndexFunc(s.records.Accounts, func(x core.Account) bool { return x.AccountID == a.AccountID })
		if i >= 0 {
			s.records.Accounts[i] = a
			continue
		}
		s.records.Accounts = append(s.records.Accounts, a)
	}
	return nil
}

// UpsertTransactions replaces transactions with a matching id and appends the rest.
func (s *Store) UpsertTransactions(_ context.Context, txs []core.Transaction) error {
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range txs {
		i := slices.IndexFunc(s.records.Transactions, func(x core.Transaction) bool { return x.ID == tx.ID })
		if i >= 0 {
			s.records.Transactions[i] = tx
			continue
		}
		s.records.Transactions = append(s.records.Transactions, tx)
	}
	return nil
}

// WriteReport stores the report under its title and returns a synthetic reference.
func (s *Store) WriteReport(_ context.Context, t reports.Tabular) (string, error) {
	snap := Snapshot{Header: t.Header()}
	for _, rec := range t.Records() {
		row := make([]any, len(rec))
		for i, v := range rec {
			row[i] = reports.CellValue(v)
		}
		snap.Rows = append(snap.Rows, row)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[t.Title()] = snap
	s.writes++
	return fmt.Sprintf("mem:%s:%d", t.Title(), s.writes), nil
}

// Report returns the last snapshot written under title.
func (s *Store) Report(title string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.reports[title]
	return snap, ok
}

func cloneRecords(r core.Records) core.Records {
	return core.Records{
		Transactions:   slices.Clone(r.Transactions),
		MasterAccounts: slices.Clone(r.MasterAccounts),
		BudgetItems:    slices.Clone(r.BudgetItems),
		Savings: core.SavingsData{
			BaseContribution:         r.Savings.BaseContribution,
			PaidOffDebtContributions: slices.Clone(r.Savings.PaidOffDebtContributions),
		},
		RecurringItems: slices.Clone(r.RecurringItems),
		Accounts:       slices.Clone(r.Accounts),
	}
}
