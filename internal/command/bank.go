package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"fintool/internal/services"
)

// Syncer runs one bank sync.
type Syncer interface {
	Run(ctx context.Context) (services.SyncResult, error)
}

// RunSync pulls accounts and transactions from the banking provider.
func RunSync(ctx context.Context, s Syncer, out io.Writer) error {
	res, err := s.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "synced %d accounts and %d transactions (%s to %s)\n", res.Accounts, res.Transactions, res.From, res.To)
	return nil
}

// TokenExchanger swaps a Link public token for an access token.
type TokenExchanger interface {
	ExchangeToken(ctx context.Context, publicToken string) (string, error)
}

// LinkOptions holds link command configuration.
type LinkOptions struct {
	PublicToken string
}

// ParseLinkFlags parses `link -public-token TOKEN`.
func ParseLinkFlags(fs *flag.FlagSet, args []string) (LinkOptions, error) {
	var opts LinkOptions
	fs.StringVar(&opts.PublicToken, "public-token", "", "public token returned by Plaid Link")
	if err := fs.Parse(args); err != nil {
		return LinkOptions{}, err
	}
	opts.PublicToken = strings.TrimSpace(opts.PublicToken)
	if opts.PublicToken == "" {
		return LinkOptions{}, fmt.Errorf("-public-token is required")
	}
	return opts, nil
}

// RunLink prints the access token to store in PLAID_ACCESS_TOKEN.
func RunLink(ctx context.Context, ex TokenExchanger, opts LinkOptions, out io.Writer) error {
	token, err := ex.ExchangeToken(ctx, opts.PublicToken)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "PLAID_ACCESS_TOKEN=%s\n", token)
	return nil
}
