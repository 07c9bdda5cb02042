package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fintool/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite schema ready", "path", dbPath, "version", version)

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Load implements sheets.RecordSource
func (r *SQLiteRepository) Load(ctx context.Context) (core.Records, error) {
	var (
		recs core.Records
		err  error
	)
	if recs.Transactions, err = r.queries.ListTransactions(ctx); err != nil {
		return core.Records{}, fmt.Errorf("list transactions: %w", err)
	}
	if recs.MasterAccounts, err = r.queries.ListMasterAccounts(ctx); err != nil {
		return core.Records{}, fmt.Errorf("list master accounts: %w", err)
	}
	if recs.BudgetItems, err = r.queries.ListBudgetItems(ctx); err != nil {
		return core.Records{}, fmt.Errorf("list budget items: %w", err)
	}
	if recs.RecurringItems, err = r.queries.ListRecurringItems(ctx); err != nil {
		return core.Records{}, fmt.Errorf("list recurring items: %w", err)
	}
	if recs.Accounts, err = r.queries.ListAccounts(ctx); err != nil {
		return core.Records{}, fmt.Errorf("list accounts: %w", err)
	}

	contributions, err := r.queries.ListContributions(ctx)
	if err != nil {
		return core.Records{}, fmt.Errorf("list savings contributions: %w", err)
	}
	recs.Savings.PaidOffDebtContributions = []core.Contribution{}
	for _, c := range contributions {
		if c.IsBase {
			base := c.Contribution
			recs.Savings.BaseContribution = &base
			continue
		}
		recs.Savings.PaidOffDebtContributions = append(recs.Savings.PaidOffDebtContributions, c.Contribution)
	}

	slog.DebugContext(ctx, "Records loaded from SQLite",
		"transactions", len(recs.Transactions),
		"master_accounts", len(recs.MasterAccounts),
		"budget_items", len(recs.BudgetItems),
		"recurring_items", len(recs.RecurringItems))
	return recs, nil
}

// SaveRecords implements sheets.RecordStore. Master accounts, budget items,
// recurring items and savings are replaced; transactions and accounts are
// upserted so data pulled from the banking provider is kept.
func (r *SQLiteRepository) SaveRecords(ctx context.Context, recs core.Records) error {
	return r.inTx(ctx, func(q *Queries) error {
		if err := q.ClearLedgerRules(ctx); err != nil {
			return fmt.Errorf("clear ledger rules: %w", err)
		}
		for i, a := range recs.MasterAccounts {
			if err := q.InsertMasterAccount(ctx, i, a); err != nil {
				return fmt.Errorf("insert master account %s: %w", a.AccountID, err)
			}
		}
		for i, b := range recs.BudgetItems {
			if err := q.InsertBudgetItem(ctx, i, b); err != nil {
				return fmt.Errorf("insert budget item %s: %w", b.ItemID, err)
			}
		}
		for i, item := range recs.RecurringItems {
			if err := q.InsertRecurringItem(ctx, i, item); err != nil {
				return fmt.Errorf("insert recurring item %s: %w", item.ID, err)
			}
		}
		pos := 0
		if base, ok := recs.Savings.Base(); ok {
			if err := q.InsertContribution(ctx, pos, base, true); err != nil {
				return fmt.Errorf("insert base contribution: %w", err)
			}
			pos++
		}
		for _, c := range recs.Savings.PaidOffDebtContributions {
			if err := q.InsertContribution(ctx, pos, c, false); err != nil {
				return fmt.Errorf("insert contribution %s: %w", c.Name, err)
			}
			pos++
		}
		for _, tx := range recs.Transactions {
			if err := q.UpsertTransaction(ctx, tx); err != nil {
				return fmt.Errorf("upsert transaction %s: %w", tx.ID, err)
			}
		}
		for _, a := range recs.Accounts {
			if err := q.UpsertAccount(ctx, a); err != nil {
				return fmt.Errorf("upsert account %s: %w", a.AccountID, err)
			}
		}
		return nil
	})
}

// UpsertAccounts implements sheets.RecordStore
func (r *SQLiteRepository) UpsertAccounts(ctx context.Context, accounts []core.Account) error {
	return r.inTx(ctx, func(q *Queries) error {
		for _, a := range accounts {
			if err := q.UpsertAccount(ctx, a); err != nil {
				return fmt.Errorf("upsert account %s: %w", a.AccountID, err)
			}
		}
		return nil
	})
}

// UpsertTransactions implements sheets.RecordStore
func (r *SQLiteRepository) UpsertTransactions(ctx context.Context, txs []core.Transaction) error {
	err := r.inTx(ctx, func(q *Queries) error {
		for _, tx := range txs {
			if err := q.UpsertTransaction(ctx, tx); err != nil {
				return fmt.Errorf("upsert transaction %s: %w", tx.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transactions saved to SQLite", "count", len(txs))
	return nil
}

// CountTransactions returns the number of stored transactions.
func (r *SQLiteRepository) CountTransactions(ctx context.Context) (int64, error) {
	n, err := r.queries.CountTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
