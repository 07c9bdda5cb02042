package command

import (
	"context"
	"flag"
	"fmt"
	"io"

	"fintool/internal/core"
	"fintool/internal/sheets"
)

// ImportOptions holds import command configuration.
type ImportOptions struct {
	Dir string
}

// ParseImportFlags parses `import [-dir path]`.
func ParseImportFlags(fs *flag.FlagSet, defaultDir string, args []string) (ImportOptions, error) {
	var opts ImportOptions
	fs.StringVar(&opts.Dir, "dir", defaultDir, "directory holding the JSON record files")
	if err := fs.Parse(args); err != nil {
		return ImportOptions{}, err
	}
	if opts.Dir == "" {
		return ImportOptions{}, fmt.Errorf("-dir must not be empty")
	}
	return opts, nil
}

// RunImport copies every record from src into store, replacing the stored
// rules and upserting ledger entries.
func RunImport(ctx context.Context, src sheets.RecordSource, store sheets.RecordStore, out io.Writer) error {
	recs, err := src.Load(ctx)
	if err != nil {
		return err
	}
	if err := store.SaveRecords(ctx, recs); err != nil {
		return fmt.Errorf("save records: %w", err)
	}
	fmt.Fprintf(out, "imported %d transactions, %d accounts, %d master accounts, %d budget items, %d recurring items, %d savings contributions\n",
		len(recs.Transactions), len(recs.Accounts), len(recs.MasterAccounts), len(recs.BudgetItems),
		len(recs.RecurringItems), contributionCount(hasBase(recs.Savings), len(recs.Savings.PaidOffDebtContributions)))
	return nil
}

func hasBase(s core.SavingsData) bool {
	_, ok := s.Base()
	return ok
}

func contributionCount(hasBase bool, debts int) int {
	if hasBase {
		return debts + 1
	}
	return debts
}
