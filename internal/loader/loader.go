// Package loader reads the ledger files of a data directory.
//
// Loading fails open: a missing or malformed file is logged as a warning
// and yields an empty collection, and records that do not validate are
// dropped one by one.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"fintool/internal/core"
	"fintool/internal/log"
)

const (
	TransactionsFile   = "transactions.json"
	MasterAccountsFile = "master_accounts.json"
	BudgetItemsFile    = "budget_items.json"
	SavingsFile        = "savings.json"
	RecurringItemsFile = "recurring_items.json"
)

type validatable interface {
	Validate() error
}

type Loader struct {
	dir    string
	logger *log.Logger
}

func New(dir string, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Loader{dir: dir, logger: logger.WithComponent(log.ComponentLoader)}
}

// Load implements sheets.RecordSource. It never returns an error.
func (l *Loader) Load(ctx context.Context) (core.Records, error) {
	recs := core.Records{
		Transactions:   l.Transactions(ctx),
		MasterAccounts: loadList[core.MasterAccount](ctx, l, MasterAccountsFile),
		BudgetItems:    loadList[core.BudgetItem](ctx, l, BudgetItemsFile),
		Savings:        l.Savings(ctx),
		RecurringItems: loadList[core.RecurringItem](ctx, l, RecurringItemsFile),
		Accounts:       []core.Account{},
	}
	l.logger.InfoContext(ctx, "Ledger loaded",
		log.FieldSource, l.dir,
		"transactions", len(recs.Transactions),
		"master_accounts", len(recs.MasterAccounts),
		"budget_items", len(recs.BudgetItems),
		"recurring_items", len(recs.RecurringItems))
	return recs, nil
}

// Transactions returns the transaction history, or an empty slice when the
// file cannot be read.
func (l *Loader) Transactions(ctx context.Context) []core.Transaction {
	return loadList[core.Transaction](ctx, l, TransactionsFile)
}

// Savings returns the savings rules, or empty rules when the file cannot be read.
func (l *Loader) Savings(ctx context.Context) core.SavingsData {
	var data core.SavingsData
	if err := l.readJSON(SavingsFile, &data); err != nil {
		l.warnUnavailable(ctx, err)
		return core.SavingsData{PaidOffDebtContributions: []core.Contribution{}}
	}
	if data.PaidOffDebtContributions == nil {
		data.PaidOffDebtContributions = []core.Contribution{}
	}
	if _, ok := data.Base(); !ok {
		data.BaseContribution = nil
	}
	return data
}

func loadList[T validatable](ctx context.Context, l *Loader, name string) []T {
	var items []T
	if err := l.readJSON(name, &items); err != nil {
		l.warnUnavailable(ctx, err)
		return []T{}
	}

	valid := make([]T, 0, len(items))
	for i, item := range items {
		if err := item.Validate(); err != nil {
			l.logger.WarnContext(ctx, "Dropping invalid record",
				log.FieldSource, name,
				"index", i,
				log.FieldError, err)
			continue
		}
		valid = append(valid, item)
	}
	return valid
}

func (l *Loader) readJSON(name string, v any) error {
	path := filepath.Join(l.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return &core.DataUnavailableError{Source: path, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &core.DataUnavailableError{Source: path, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func (l *Loader) warnUnavailable(ctx context.Context, err error) {
	l.logger.WarnContext(ctx, "Ledger file unavailable, using empty collection",
		log.FieldError, err)
}
