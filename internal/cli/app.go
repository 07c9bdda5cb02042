package cli

import (
	"context"
	"errors"
	"fmt"

	"fintool/internal/backend"
	"fintool/internal/cache"
	"fintool/internal/config"
	"fintool/internal/log"
	"fintool/internal/plaid"
	"fintool/internal/reports"
	"fintool/internal/services"
	"fintool/internal/sheets"
	"fintool/internal/storage"
)

// App bundles the components every binary builds from the configuration.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Source  sheets.RecordSource
	Store   sheets.RecordStore
	Writer  sheets.ReportWriter
	Reports *services.ReportService

	cleanups []backend.CleanupFunc
}

// NewApp opens the configured record source and report writer and builds the
// report service on top of them.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	factory := backend.NewFactory(logger)

	a := &App{Config: cfg, Logger: logger}

	src, err := factory.CreateSource(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	a.Source, a.Store = src.Source, src.Store
	a.addCleanup(src.Cleanup)

	w, err := factory.CreateWriter(ctx, bcfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Writer = w.Writer
	a.addCleanup(w.Cleanup)

	opts := []services.ReportServiceOption{
		services.WithWriter(a.Writer),
		services.WithDefaultHorizon(cfg.ProjectionDays),
	}
	if cfg.ReportCacheTTL > 0 {
		opts = append(opts, services.WithReportCache(cache.NewLRU[reports.Tabular](cfg.ReportCacheSize, cfg.ReportCacheTTL)))
	}
	a.Reports = services.NewReportService(a.Source, logger, opts...)
	return a, nil
}

// SQLiteStore returns the writable store, opening the SQLite database when
// records are read from JSON files.
func (a *App) SQLiteStore() (*storage.SQLiteRepository, error) {
	if repo, ok := a.Store.(*storage.SQLiteRepository); ok {
		return repo, nil
	}
	repo, err := storage.NewSQLiteRepository(a.Config.SQLiteDBPath)
	if err != nil {
		return nil, err
	}
	a.addCleanup(repo.Close)
	return repo, nil
}

// Banking returns a Plaid client from the configuration.
func (a *App) Banking() (*plaid.Client, error) {
	return plaid.New(plaid.Config{
		ClientID: a.Config.PlaidClientID,
		Secret:   a.Config.PlaidSecret,
		Env:      a.Config.PlaidEnv,
	}, a.Logger)
}

// BankSync wires the banking provider to the SQLite store.
func (a *App) BankSync() (*services.BankSync, error) {
	if err := a.Config.ValidateBanking(); err != nil {
		return nil, err
	}
	client, err := a.Banking()
	if err != nil {
		return nil, err
	}
	store, err := a.SQLiteStore()
	if err != nil {
		return nil, fmt.Errorf("open sync store: %w", err)
	}
	bs := services.NewBankSync(client, store, a.Config.PlaidAccessToken, services.BankSyncConfig{
		LookbackDays: a.Config.SyncLookbackDays,
		Interval:     a.Config.SyncInterval,
	}, a.Logger)
	bs.OnSynced(func(services.SyncResult) { a.Reports.Invalidate() })
	return bs, nil
}

func (a *App) addCleanup(fn backend.CleanupFunc) {
	if fn != nil {
		a.cleanups = append(a.cleanups, fn)
	}
}

// Close releases everything the app opened, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		if err := a.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.cleanups = nil
	return errors.Join(errs...)
}
