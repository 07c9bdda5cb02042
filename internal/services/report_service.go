package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"fintool/internal/cache"
	"fintool/internal/core"
	"fintool/internal/log"
	"fintool/internal/reports"
	"fintool/internal/sheets"
)

// DefaultHorizonDays is the projection window used when none is requested.
const DefaultHorizonDays = 60

// maxConcurrentExports bounds parallel calls to the report writer.
const maxConcurrentExports = 3

var ErrNoWriter = errors.New("no report writer configured")

// ExportResult describes one exported report.
type ExportResult struct {
	Report reports.Kind `json:"report"`
	Ref    string       `json:"ref"`
	Rows   int          `json:"rows"`
}

// ReportService loads records from a source and turns them into reports,
// optionally exporting them through a writer.
type ReportService struct {
	source    sheets.RecordSource
	writer    sheets.ReportWriter
	projector *Projector
	cache     cache.Cache[reports.Tabular]
	horizon   int
	now       func() time.Time
	logger    *log.Logger
}

type ReportServiceOption func(*ReportService)

func WithWriter(w sheets.ReportWriter) ReportServiceOption {
	return func(s *ReportService) { s.writer = w }
}

func WithProjector(p *Projector) ReportServiceOption {
	return func(s *ReportService) {
		if p != nil {
			s.projector = p
		}
	}
}

// WithReportCache memoizes built reports per kind, horizon and day.
func WithReportCache(c cache.Cache[reports.Tabular]) ReportServiceOption {
	return func(s *ReportService) { s.cache = c }
}

func WithDefaultHorizon(days int) ReportServiceOption {
	return func(s *ReportService) {
		if days > 0 {
			s.horizon = days
		}
	}
}

func WithClock(now func() time.Time) ReportServiceOption {
	return func(s *ReportService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewReportService(source sheets.RecordSource, logger *log.Logger, opts ...ReportServiceOption) *ReportService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s := &ReportService{
		source:    source,
		projector: NewProjector(),
		horizon:   DefaultHorizonDays,
		now:       time.Now,
		logger:    logger.WithComponent(log.ComponentReports),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build returns one report. horizonDays only applies to the projection;
// zero selects the default horizon.
func (s *ReportService) Build(ctx context.Context, kind reports.Kind, horizonDays int) (reports.Tabular, error) {
	out, err := s.BuildMany(ctx, []reports.Kind{kind}, horizonDays)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// BuildMany returns the requested reports in order, reading the records at
// most once.
func (s *ReportService) BuildMany(ctx context.Context, kinds []reports.Kind, horizonDays int) ([]reports.Tabular, error) {
	if horizonDays == 0 {
		horizonDays = s.horizon
	}
	today := core.DateOf(s.now())

	out := make([]reports.Tabular, len(kinds))
	var (
		recs   core.Records
		loaded bool
	)
	for i, kind := range kinds {
		key := cacheKey(kind, horizonDays, today)
		if s.cache != nil {
			if t, ok := s.cache.Get(key); ok {
				out[i] = t
				continue
			}
		}
		if !loaded {
			var err error
			if recs, err = s.load(ctx); err != nil {
				return nil, err
			}
			loaded = true
		}
		t, err := s.buildFrom(recs, kind, horizonDays, today)
		if err != nil {
			s.logger.LogError(ctx, "Report failed", err, log.OpReport, log.NewFields().WithReport(string(kind), 0))
			return nil, fmt.Errorf("build %s report: %w", kind, err)
		}
		if s.cache != nil {
			s.cache.Set(key, t)
		}
		s.logger.DebugContext(ctx, "Report built", log.FieldReport, string(kind), log.FieldRows, len(t.Records()))
		out[i] = t
	}
	return out, nil
}

// Project returns the pending transactions the recurring items produce over
// the next horizonDays days.
func (s *ReportService) Project(ctx context.Context, horizonDays int) ([]core.Transaction, error) {
	recs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if horizonDays == 0 {
		horizonDays = s.horizon
	}
	txs, err := s.projector.Project(recs.RecurringItems, horizonDays, s.now())
	if err != nil {
		return nil, fmt.Errorf("project recurring items: %w", err)
	}
	s.logger.InfoContext(ctx, "Projection complete",
		log.FieldHorizon, horizonDays,
		log.FieldRecords, len(txs))
	return txs, nil
}

// Cashflow returns the monthly cashflow totals.
func (s *ReportService) Cashflow(ctx context.Context) (reports.CashflowTotals, error) {
	recs, err := s.load(ctx)
	if err != nil {
		return reports.CashflowTotals{}, err
	}
	return reports.ComputeCashflow(recs.MasterAccounts, recs.BudgetItems, recs.Savings)
}

// Export builds the requested reports and hands them to the writer
// concurrently. Results follow the order of kinds. The first writer error
// cancels the remaining exports.
func (s *ReportService) Export(ctx context.Context, kinds []reports.Kind, horizonDays int) ([]ExportResult, error) {
	if s.writer == nil {
		return nil, ErrNoWriter
	}
	tables, err := s.BuildMany(ctx, kinds, horizonDays)
	if err != nil {
		return nil, err
	}

	results := make([]ExportResult, len(tables))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentExports)
	for i, t := range tables {
		g.Go(func() error {
			ref, err := s.writer.WriteReport(gctx, t)
			if err != nil {
				return fmt.Errorf("export %s: %w", kinds[i], err)
			}
			results[i] = ExportResult{Report: kinds[i], Ref: ref, Rows: len(t.Records())}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.LogError(ctx, "Export failed", err, log.OpExport, nil)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Reports exported", log.FieldOperation, log.OpExport, "count", len(results))
	return results, nil
}

func (s *ReportService) buildFrom(recs core.Records, kind reports.Kind, horizonDays int, today core.Date) (reports.Tabular, error) {
	switch kind {
	case reports.KindAssets:
		return reports.Assets(recs.MasterAccounts), nil
	case reports.KindLiabilities:
		return reports.Liabilities(recs.MasterAccounts, today.Time), nil
	case reports.KindBudget:
		return reports.Budget(recs.BudgetItems)
	case reports.KindSavings:
		return reports.Savings(recs.Savings), nil
	case reports.KindCashflow:
		return reports.Cashflow(recs.MasterAccounts, recs.BudgetItems, recs.Savings)
	case reports.KindProjection:
		txs, err := s.projector.Project(recs.RecurringItems, horizonDays, today.Time)
		if err != nil {
			return nil, err
		}
		return reports.Projection(txs), nil
	default:
		return nil, fmt.Errorf("unknown report %q", kind)
	}
}

func (s *ReportService) load(ctx context.Context) (core.Records, error) {
	recs, err := s.source.Load(ctx)
	if err != nil {
		s.logger.LogError(ctx, "Failed to load records", err, log.OpLoad, nil)
		return core.Records{}, fmt.Errorf("load records: %w", err)
	}
	return recs, nil
}

// Invalidate drops every cached table. Call it after the records behind the
// source change.
func (s *ReportService) Invalidate() {
	if s.cache == nil {
		return
	}
	s.cache.Purge()
	s.logger.Debug("Report cache invalidated")
}

func cacheKey(kind reports.Kind, horizonDays int, today core.Date) string {
	if kind != reports.KindProjection {
		horizonDays = 0
	}
	return fmt.Sprintf("%s|%d|%s", kind, horizonDays, today)
}
