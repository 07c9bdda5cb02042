package storage

import (
	"context"
	"database/sql"

	"fintool/internal/core"
)

const listTransactions = `
SELECT id, date, description, amount, account_id, category, status
FROM transactions
ORDER BY date, id`

func (q *Queries) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []core.Transaction{}
	for rows.Next() {
		var i core.Transaction
		if err := rows.Scan(&i.ID, &i.Date, &i.Description, &i.Amount, &i.AccountID, &i.Category, &i.Status); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const upsertTransaction = `
INSERT INTO transactions (id, date, description, amount, account_id, category, status)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    date = excluded.date,
    description = excluded.description,
    amount = excluded.amount,
    account_id = excluded.account_id,
    category = excluded.category,
    status = excluded.status,
    updated_at = CURRENT_TIMESTAMP`

func (q *Queries) UpsertTransaction(ctx context.Context, t core.Transaction) error {
	_, err := q.db.ExecContext(ctx, upsertTransaction,
		t.ID, t.Date, t.Description, t.Amount, t.AccountID, t.Category, string(t.Status))
	return err
}

const countTransactions = `SELECT COUNT(*) FROM transactions`

func (q *Queries) CountTransactions(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countTransactions).Scan(&n)
	return n, err
}

const listMasterAccounts = `
SELECT account_id, account_name, financial_type, value, status, notes,
       asset_class, monthly_income, apy,
       liability_class, monthly_payment, apr, due_day, paying_account_id,
       credit_limit, intro_apr, intro_apr_deadline
FROM master_accounts
ORDER BY position`

func (q *Queries) ListMasterAccounts(ctx context.Context) ([]core.MasterAccount, error) {
	rows, err := q.db.QueryContext(ctx, listMasterAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []core.MasterAccount{}
	for rows.Next() {
		var i core.MasterAccount
		if err := rows.Scan(
			&i.AccountID, &i.AccountName, &i.FinancialType, &i.Value, &i.Status, &i.Notes,
			&i.AssetClass, &i.MonthlyIncome, &i.APY,
			&i.LiabilityClass, &i.MonthlyPayment, &i.APR, &i.DueDay, &i.PayingAccountID,
			&i.CreditLimit, &i.IntroAPR, &i.IntroAPRDeadline,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const insertMasterAccount = `
INSERT INTO master_accounts (
    position, account_id, account_name, financial_type, value, status, notes,
    asset_class, monthly_income, apy,
    liability_class, monthly_payment, apr, due_day, paying_account_id,
    credit_limit, intro_apr, intro_apr_deadline
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertMasterAccount(ctx context.Context, position int, a core.MasterAccount) error {
	_, err := q.db.ExecContext(ctx, insertMasterAccount,
		position, a.AccountID, a.AccountName, string(a.FinancialType), a.Value, a.Status, a.Notes,
		a.AssetClass, a.MonthlyIncome, a.APY,
		a.LiabilityClass, a.MonthlyPayment, a.APR, a.DueDay, a.PayingAccountID,
		a.CreditLimit, a.IntroAPR, a.IntroAPRDeadline,
	)
	return err
}

const listBudgetItems = `
SELECT item_id, item_name, expense_type, amount, period_months, due_day
FROM budget_items
ORDER BY position`

func (q *Queries) ListBudgetItems(ctx context.Context) ([]core.BudgetItem, error) {
	rows, err := q.db.QueryContext(ctx, listBudgetItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []core.BudgetItem{}
	for rows.Next() {
		var i core.BudgetItem
		if err := rows.Scan(&i.ItemID, &i.ItemName, &i.ExpenseType, &i.Amount, &i.PeriodMonths, &i.DueDay); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const insertBudgetItem = `
INSERT INTO budget_items (position, item_id, item_name, expense_type, amount, period_months, due_day)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertBudgetItem(ctx context.Context, position int, b core.BudgetItem) error {
	_, err := q.db.ExecContext(ctx, insertBudgetItem,
		position, b.ItemID, b.ItemName, string(b.ExpenseType), b.Amount, b.PeriodMonths, b.DueDay)
	return err
}

const listRecurringItems = `
SELECT recurring_id, description, amount, category, account_id, frequency, start_date, day_of_month
FROM recurring_items
ORDER BY position`

func (q *Queries) ListRecurringItems(ctx context.Context) ([]core.RecurringItem, error) {
	rows, err := q.db.QueryContext(ctx, listRecurringItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []core.RecurringItem{}
	for rows.Next() {
		var i core.RecurringItem
		if err := rows.Scan(&i.ID, &i.Description, &i.Amount, &i.Category, &i.AccountID, &i.Frequency, &i.StartDate, &i.DayOfMonth); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const insertRecurringItem = `
INSERT INTO recurring_items (position, recurring_id, description, amount, category, account_id, frequency, start_date, day_of_month)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertRecurringItem(ctx context.Context, position int, r core.RecurringItem) error {
	_, err := q.db.ExecContext(ctx, insertRecurringItem,
		position, r.ID, r.Description, r.Amount, r.Category, r.AccountID, string(r.Frequency), r.StartDate, r.DayOfMonth)
	return err
}

type contributionRow struct {
	core.Contribution
	IsBase bool
}

const listContributions = `
SELECT name, monthly_amount, is_base
FROM savings_contributions
ORDER BY position`

func (q *Queries) ListContributions(ctx context.Context) ([]contributionRow, error) {
	rows, err := q.db.QueryContext(ctx, listContributions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []contributionRow{}
	for rows.Next() {
		var i contributionRow
		if err := rows.Scan(&i.Name, &i.MonthlyAmount, &i.IsBase); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const insertContribution = `
INSERT INTO savings_contributions (position, name, monthly_amount, is_base)
VALUES (?, ?, ?, ?)`

func (q *Queries) InsertContribution(ctx context.Context, position int, c core.Contribution, isBase bool) error {
	_, err := q.db.ExecContext(ctx, insertContribution, position, c.Name, c.MonthlyAmount, isBase)
	return err
}

const listAccounts = `
SELECT account_id, account_name, account_type, current_balance, last_updated
FROM accounts
ORDER BY rowid`

func (q *Queries) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := q.db.QueryContext(ctx, listAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []core.Account{}
	for rows.Next() {
		var i core.Account
		if err := rows.Scan(&i.AccountID, &i.AccountName, &i.AccountType, &i.CurrentBalance, &i.LastUpdated); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const upsertAccount = `
INSERT INTO accounts (account_id, account_name, account_type, current_balance, last_updated)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(account_id) DO UPDATE SET
    account_name = excluded.account_name,
    account_type = excluded.account_type,
    current_balance = excluded.current_balance,
    last_updated = excluded.last_updated`

func (q *Queries) UpsertAccount(ctx context.Context, a core.Account) error {
	_, err := q.db.ExecContext(ctx, upsertAccount,
		a.AccountID, a.AccountName, string(a.AccountType), a.CurrentBalance, a.LastUpdated)
	return err
}

// ClearLedgerRules empties the tables that SaveRecords rewrites wholesale.
func (q *Queries) ClearLedgerRules(ctx context.Context) error {
	for _, stmt := range []string{
		`DELETE FROM master_accounts`,
		`DELETE FROM budget_items`,
		`DELETE FROM recurring_items`,
		`DELETE FROM savings_contributions`,
	} {
		if _, err := q.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

var _ DBTX = (*sql.DB)(nil)
