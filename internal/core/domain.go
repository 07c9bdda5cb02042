package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	Monthly  Frequency = "monthly"
	Biweekly Frequency = "biweekly"
	Annual   Frequency = "annual"
)

const (
	StatusPosted  TransactionStatus = "posted"
	StatusPending TransactionStatus = "pending"
)

const (
	Asset     FinancialType = "asset"
	Liability FinancialType = "liability"
)

const (
	Fixed    ExpenseType = "fixed"
	Variable ExpenseType = "variable"
)

const (
	Checking   AccountType = "checking"
	CreditCard AccountType = "credit_card"
	Investment AccountType = "investment"
	Savings    AccountType = "savings"
)

type (
	Frequency         string
	TransactionStatus string
	FinancialType     string
	ExpenseType       string
	AccountType       string

	// Transaction is a ledger entry. Projected transactions are always pending.
	Transaction struct {
		ID          string            `json:"id" validate:"required"`
		Date        string            `json:"date" validate:"required,datetime=2006-01-02"`
		Description string            `json:"description"`
		Amount      decimal.Decimal   `json:"amount"`
		AccountID   string            `json:"account_id" validate:"required"`
		Category    string            `json:"category"`
		Status      TransactionStatus `json:"status" validate:"oneof=posted pending"`
	}

	// RecurringItem is a rule that produces periodic transactions.
	// DayOfMonth is only meaningful for monthly items.
	RecurringItem struct {
		ID          string          `json:"recurring_id" validate:"required"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		AccountID   string          `json:"account_id" validate:"required"`
		Frequency   Frequency       `json:"frequency" validate:"required"`
		StartDate   string          `json:"start_date" validate:"required"`
		DayOfMonth  *int            `json:"day_of_month,omitempty"`
	}

	// MasterAccount is a consolidated asset or liability record.
	MasterAccount struct {
		AccountID     string          `json:"account_id" validate:"required"`
		AccountName   string          `json:"account_name" validate:"required"`
		FinancialType FinancialType   `json:"financial_type" validate:"oneof=asset liability"`
		Value         decimal.Decimal `json:"value"`
		Status        *string         `json:"status,omitempty"`
		Notes         *string         `json:"notes,omitempty"`

		AssetClass    *string             `json:"asset_class,omitempty"`
		MonthlyIncome decimal.NullDecimal `json:"monthly_income"`
		APY           decimal.NullDecimal `json:"apy"`

		LiabilityClass  *string             `json:"liability_class,omitempty"`
		MonthlyPayment  decimal.NullDecimal `json:"monthly_payment"`
		APR             decimal.NullDecimal `json:"apr"`
		DueDay          *int                `json:"due_day,omitempty" validate:"omitempty,min=1,max=31"`
		PayingAccountID *string             `json:"paying_account_id,omitempty"`

		CreditLimit      decimal.NullDecimal `json:"credit_limit"`
		IntroAPR         decimal.NullDecimal `json:"intro_apr"`
		IntroAPRDeadline *string             `json:"intro_apr_deadline,omitempty"`
	}

	// BudgetItem is a bill or estimated expense. PeriodMonths is how many
	// months one occurrence of Amount covers (0.5 = twice a month).
	BudgetItem struct {
		ItemID       string          `json:"item_id" validate:"required"`
		ItemName     string          `json:"item_name" validate:"required"`
		ExpenseType  ExpenseType     `json:"expense_type" validate:"omitempty,oneof=fixed variable"`
		Amount       decimal.Decimal `json:"amount"`
		PeriodMonths decimal.Decimal `json:"period_months"`
		DueDay       *int            `json:"due_day,omitempty" validate:"omitempty,min=1,max=31"`
	}

	Contribution struct {
		Name          string          `json:"name"`
		MonthlyAmount decimal.Decimal `json:"monthly_amount"`
	}

	// SavingsData holds the savings rules: an optional base contribution and
	// the payments freed up by paid-off debts, in the order they were added.
	SavingsData struct {
		BaseContribution         *Contribution  `json:"base_contribution,omitempty"`
		PaidOffDebtContributions []Contribution `json:"paid_off_debt_contributions"`
	}

	// Account is a day-to-day account as reported by the banking provider.
	Account struct {
		AccountID      string          `json:"account_id" validate:"required"`
		AccountName    string          `json:"account_name"`
		AccountType    AccountType     `json:"account_type" validate:"oneof=checking credit_card investment savings"`
		CurrentBalance decimal.Decimal `json:"current_balance"`
		LastUpdated    string          `json:"last_updated"`
	}

	ExpenseBudget struct {
		Category       string          `json:"category" validate:"required"`
		BudgetedAmount decimal.Decimal `json:"budgeted_amount"`
	}
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Description)) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	return structErr(validate.Struct(t))
}

// Validate checks the rule's shape. The frequency and start date are
// checked by the projector, which reports them with typed errors.
func (r RecurringItem) Validate() error {
	if err := structErr(validate.Struct(r)); err != nil {
		return err
	}
	if r.Frequency == Monthly {
		if r.DayOfMonth == nil || *r.DayOfMonth < 1 || *r.DayOfMonth > 31 {
			return ErrInvalidDayOfMonth
		}
	}
	return nil
}

func (a MasterAccount) Validate() error {
	return structErr(validate.Struct(a))
}

// Validate does not look at PeriodMonths: a zero period must reach the
// report so that it fails there instead of being dropped.
func (b BudgetItem) Validate() error {
	return structErr(validate.Struct(b))
}

func (a Account) Validate() error {
	return structErr(validate.Struct(a))
}

// Base returns the base contribution. A base with no name and a zero
// amount, as decoded from `{}`, counts as absent.
func (s SavingsData) Base() (Contribution, bool) {
	if s.BaseContribution == nil {
		return Contribution{}, false
	}
	b := *s.BaseContribution
	if b.Name == "" && b.MonthlyAmount.IsZero() {
		return Contribution{}, false
	}
	return b, true
}

// IsEmpty reports whether there is no contribution source at all.
func (s SavingsData) IsEmpty() bool {
	_, hasBase := s.Base()
	return !hasBase && len(s.PaidOffDebtContributions) == 0
}

func (a MasterAccount) IsAsset() bool {
	return a.FinancialType == Asset
}

func (a MasterAccount) IsLiability() bool {
	return a.FinancialType == Liability
}

// structErr flattens validator errors into a single readable message.
func structErr(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidRecord, strings.Join(msgs, "; "))
}
