package sheets

import (
	"context"

	"fintool/internal/core"
	"fintool/internal/reports"
)

// Ports for inbound record sources and outbound report adapters.
type (
	// RecordSource provides the finance records the reports are built from.
	RecordSource interface {
		Load(ctx context.Context) (core.Records, error)
	}

	// RecordStore persists records pulled from a file import or the banking provider.
	RecordStore interface {
		RecordSource
		SaveRecords(ctx context.Context, r core.Records) error
		UpsertAccounts(ctx context.Context, accounts []core.Account) error
		UpsertTransactions(ctx context.Context, txs []core.Transaction) error
	}

	// ReportWriter exports one report; the returned ref identifies where it landed.
	ReportWriter interface {
		WriteReport(ctx context.Context, t reports.Tabular) (ref string, err error)
	}
)
