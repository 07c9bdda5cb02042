// Package plaid pulls accounts and transactions from the Plaid API and maps
// them onto ledger records.
package plaid

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	plaidapi "github.com/plaid/plaid-go/v29/plaid"
	"github.com/shopspring/decimal"

	"fintool/internal/core"
	"fintool/internal/log"
)

// PageSize is the number of transactions requested per page.
const PageSize = 100

type Config struct {
	ClientID string
	Secret   string
	// Env is "sandbox" or "production".
	Env string
	// BaseURL overrides the environment host.
	BaseURL string
}

type Client struct {
	api    *plaidapi.APIClient
	logger *log.Logger
}

func New(cfg Config, logger *log.Logger) (*Client, error) {
	if cfg.ClientID == "" || cfg.Secret == "" {
		return nil, errors.New("missing Plaid client id or secret")
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	configuration := plaidapi.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)
	switch {
	case cfg.BaseURL != "":
		configuration.UseEnvironment(plaidapi.Environment(cfg.BaseURL))
	case cfg.Env == "production":
		configuration.UseEnvironment(plaidapi.Production)
	default:
		configuration.UseEnvironment(plaidapi.Sandbox)
	}

	return &Client{
		api:    plaidapi.NewAPIClient(configuration),
		logger: logger.WithComponent(log.ComponentBanking),
	}, nil
}

// ExchangeToken swaps a Link public token for a long-lived access token.
func (c *Client) ExchangeToken(ctx context.Context, publicToken string) (string, error) {
	req := plaidapi.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := c.api.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*req).Execute()
	if err != nil {
		return "", apiError("exchange public token", err)
	}
	c.logger.InfoContext(ctx, "Exchanged public token", "item_id", resp.GetItemId())
	return resp.GetAccessToken(), nil
}

// GetAccounts returns the linked accounts. Loans and other account types the
// ledger does not model are skipped.
func (c *Client) GetAccounts(ctx context.Context, accessToken string) ([]core.Account, error) {
	req := plaidapi.NewAccountsGetRequest(accessToken)
	resp, _, err := c.api.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*req).Execute()
	if err != nil {
		return nil, apiError("get accounts", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	out := make([]core.Account, 0, len(resp.GetAccounts()))
	for _, a := range resp.GetAccounts() {
		acct, ok := toAccount(a, now)
		if !ok {
			c.logger.DebugContext(ctx, "Skipping unsupported account type",
				"account_id", a.GetAccountId(),
				"type", string(a.GetType()))
			continue
		}
		out = append(out, acct)
	}
	return out, nil
}

// GetTransactions returns one page of transactions between start and end
// (inclusive) together with the total number available. Pages are 0-based.
func (c *Client) GetTransactions(ctx context.Context, accessToken string, start, end time.Time, page int) ([]core.Transaction, int, error) {
	if page < 0 {
		return nil, 0, fmt.Errorf("invalid page %d", page)
	}
	req := plaidapi.NewTransactionsGetRequest(accessToken, start.Format(core.DateLayout), end.Format(core.DateLayout))
	req.SetOptions(plaidapi.TransactionsGetRequestOptions{
		Count:  plaidapi.PtrInt32(PageSize),
		Offset: plaidapi.PtrInt32(int32(page * PageSize)),
	})

	resp, _, err := c.api.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*req).Execute()
	if err != nil {
		return nil, 0, apiError("get transactions", err)
	}

	out := make([]core.Transaction, 0, len(resp.GetTransactions()))
	for _, tx := range resp.GetTransactions() {
		out = append(out, toTransaction(tx))
	}
	c.logger.DebugContext(ctx, "Fetched transactions page",
		"page", page,
		log.FieldRecords, len(out),
		"total", resp.GetTotalTransactions())
	return out, int(resp.GetTotalTransactions()), nil
}

func toAccount(a plaidapi.AccountBase, updated string) (core.Account, bool) {
	var kind core.AccountType
	switch a.GetType() {
	case plaidapi.ACCOUNTTYPE_CREDIT:
		kind = core.CreditCard
	case plaidapi.ACCOUNTTYPE_INVESTMENT, plaidapi.ACCOUNTTYPE_BROKERAGE:
		kind = core.Investment
	case plaidapi.ACCOUNTTYPE_DEPOSITORY:
		kind = core.Checking
		if a.GetSubtype() == plaidapi.ACCOUNTSUBTYPE_SAVINGS {
			kind = core.Savings
		}
	default:
		return core.Account{}, false
	}

	balances := a.GetBalances()
	balance, ok := balances.GetCurrentOk()
	if !ok || balance == nil {
		balance, _ = balances.GetAvailableOk()
	}
	current := decimal.Zero
	if balance != nil {
		current = decimal.NewFromFloat(*balance)
	}

	return core.Account{
		AccountID:      a.GetAccountId(),
		AccountName:    a.GetName(),
		AccountType:    kind,
		CurrentBalance: current,
		LastUpdated:    updated,
	}, true
}

// toTransaction maps a Plaid transaction. Plaid reports money leaving the
// account as positive; the ledger records it as negative.
func toTransaction(tx plaidapi.Transaction) core.Transaction {
	status := core.StatusPosted
	if tx.GetPending() {
		status = core.StatusPending
	}
	return core.Transaction{
		ID:          tx.GetTransactionId(),
		Date:        tx.GetDate(),
		Description: tx.GetName(),
		Amount:      decimal.NewFromFloat(tx.GetAmount()).Neg(),
		AccountID:   tx.GetAccountId(),
		Category:    category(tx),
		Status:      status,
	}
}

func category(tx plaidapi.Transaction) string {
	pfc := tx.GetPersonalFinanceCategory()
	if primary := pfc.GetPrimary(); primary != "" {
		return strings.ToLower(primary)
	}
	if cats := tx.GetCategory(); len(cats) > 0 {
		return strings.ToLower(cats[0])
	}
	return ""
}

func apiError(op string, err error) error {
	if pe, convErr := plaidapi.ToPlaidError(err); convErr == nil && pe.GetErrorCode() != "" {
		return fmt.Errorf("%s: %s: %s", op, pe.GetErrorCode(), pe.GetErrorMessage())
	}
	return fmt.Errorf("%s: %w", op, err)
}
