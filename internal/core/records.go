package core

// Records is the full set of inputs the reports and the projector read.
type Records struct {
	Transactions   []Transaction
	MasterAccounts []MasterAccount
	BudgetItems    []BudgetItem
	Savings        SavingsData
	RecurringItems []RecurringItem
	Accounts       []Account
}
