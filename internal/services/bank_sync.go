package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fintool/internal/core"
	"fintool/internal/log"
	"fintool/internal/sheets"
)

// BankingProvider is the read side of a bank aggregation API.
type BankingProvider interface {
	GetAccounts(ctx context.Context, accessToken string) ([]core.Account, error)
	// GetTransactions returns one page of the transactions between start and
	// end along with the total number available.
	GetTransactions(ctx context.Context, accessToken string, start, end time.Time, page int) ([]core.Transaction, int, error)
}

var ErrNoAccessToken = errors.New("banking access token is not configured")

// maxSyncPages stops runaway paging when a provider keeps reporting more
// transactions than it returns.
const maxSyncPages = 100

// SyncResult summarizes one bank sync.
type SyncResult struct {
	Accounts     int       `json:"accounts"`
	Transactions int       `json:"transactions"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	FinishedAt   time.Time `json:"finished_at"`
}

// BankSyncConfig holds the sync window and the polling interval.
type BankSyncConfig struct {
	// LookbackDays is how far back transactions are fetched (default: 90)
	LookbackDays int

	// Interval is how often Start re-runs the sync (default: 6h)
	Interval time.Duration
}

func DefaultBankSyncConfig() BankSyncConfig {
	return BankSyncConfig{
		LookbackDays: 90,
		Interval:     6 * time.Hour,
	}
}

// BankSync pulls accounts and transactions from a banking provider into a
// record store.
type BankSync struct {
	provider    BankingProvider
	store       sheets.RecordStore
	accessToken string
	config      BankSyncConfig
	logger      *log.Logger
	now         func() time.Time
	onSynced    []func(SyncResult)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewBankSync(provider BankingProvider, store sheets.RecordStore, accessToken string, config BankSyncConfig, logger *log.Logger) *BankSync {
	def := DefaultBankSyncConfig()
	if config.LookbackDays <= 0 {
		config.LookbackDays = def.LookbackDays
	}
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &BankSync{
		provider:    provider,
		store:       store,
		accessToken: accessToken,
		config:      config,
		logger:      logger.WithComponent(log.ComponentBanking),
		now:         time.Now,
	}
}

// OnSynced registers fn to run after every successful sync. Call it before
// Start.
func (b *BankSync) OnSynced(fn func(SyncResult)) {
	b.onSynced = append(b.onSynced, fn)
}

// Run fetches accounts and every transaction page in the lookback window,
// then upserts them. Nothing is written when any fetch fails.
func (b *BankSync) Run(ctx context.Context) (SyncResult, error) {
	if b.accessToken == "" {
		return SyncResult{}, ErrNoAccessToken
	}

	end := core.DateOf(b.now())
	start := end.AddDays(-b.config.LookbackDays)

	var (
		accounts []core.Account
		txs      []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = b.provider.GetAccounts(gctx, b.accessToken)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = b.fetchTransactions(gctx, start.Time, end.Time)
		return err
	})
	if err := g.Wait(); err != nil {
		b.logger.LogError(ctx, "Bank fetch failed", err, log.OpSync, nil)
		return SyncResult{}, err
	}

	if err := b.store.UpsertAccounts(ctx, accounts); err != nil {
		return SyncResult{}, fmt.Errorf("store accounts: %w", err)
	}
	if err := b.store.UpsertTransactions(ctx, txs); err != nil {
		return SyncResult{}, fmt.Errorf("store transactions: %w", err)
	}

	res := SyncResult{
		Accounts:     len(accounts),
		Transactions: len(txs),
		From:         start.String(),
		To:           end.String(),
		FinishedAt:   b.now(),
	}
	b.logger.InfoContext(ctx, "Bank sync complete",
		"accounts", res.Accounts,
		"transactions", res.Transactions,
		"from", res.From,
		"to", res.To)
	for _, fn := range b.onSynced {
		fn(res)
	}
	return res, nil
}

func (b *BankSync) fetchTransactions(ctx context.Context, start, end time.Time) ([]core.Transaction, error) {
	var all []core.Transaction
	for page := 0; page < maxSyncPages; page++ {
		txs, total, err := b.provider.GetTransactions(ctx, b.accessToken, start, end, page)
		if err != nil {
			return nil, err
		}
		all = append(all, txs...)
		b.logger.DebugContext(ctx, "Fetched transaction page", "page", page, "count", len(txs), "total", total)
		if len(txs) == 0 || len(all) >= total {
			return all, nil
		}
	}
	return nil, fmt.Errorf("transaction paging did not finish after %d pages", maxSyncPages)
}

// Start runs the sync immediately and then on every interval until Stop is
// called or ctx ends. Returns an error if already running.
func (b *BankSync) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return fmt.Errorf("bank sync is already running")
	}
	b.running = true
	b.stopCh = make(chan struct{})
	b.doneCh = make(chan struct{})
	b.mu.Unlock()

	go b.runLoop(ctx)

	b.logger.InfoContext(ctx, "Bank sync started", "interval", b.config.Interval)
	return nil
}

// Stop signals the loop and waits for the current run to finish.
func (b *BankSync) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	close(b.stopCh)

	select {
	case <-b.doneCh:
		b.logger.InfoContext(ctx, "Bank sync stopped gracefully")
	case <-ctx.Done():
		b.logger.WarnContext(ctx, "Bank sync stop timed out")
		return ctx.Err()
	}

	b.mu.Lock()
	b.running = false
	b.mu.Unlock()
	return nil
}

func (b *BankSync) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

func (b *BankSync) runLoop(ctx context.Context) {
	defer close(b.doneCh)

	ticker := time.NewTicker(b.config.Interval)
	defer ticker.Stop()

	b.runOnce(ctx)
	for {
		select {
		case <-b.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.runOnce(ctx)
		}
	}
}

// runOnce logs failures; the next tick retries.
func (b *BankSync) runOnce(ctx context.Context) {
	if _, err := b.Run(ctx); err != nil {
		b.logger.WarnContext(ctx, "Scheduled bank sync failed", log.FieldError, err)
	}
}
