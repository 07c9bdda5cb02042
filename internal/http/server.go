package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintool/internal/amqp"
	"fintool/internal/core"
	"fintool/internal/log"
	"fintool/internal/middleware/ratelimit"
	"fintool/internal/middleware/security"
	"fintool/internal/middleware/trace"
	"fintool/internal/reports"
	"fintool/internal/services"
)

// ReportService builds reports from the current records.
type ReportService interface {
	Build(ctx context.Context, kind reports.Kind, horizonDays int) (reports.Tabular, error)
	BuildMany(ctx context.Context, kinds []reports.Kind, horizonDays int) ([]reports.Tabular, error)
	Project(ctx context.Context, horizonDays int) ([]core.Transaction, error)
	Cashflow(ctx context.Context) (reports.CashflowTotals, error)
}

// ExportPublisher queues export requests for the worker.
type ExportPublisher interface {
	PublishExport(ctx context.Context, req *amqp.ExportRequest) error
}

// Exporter runs an export in-process when no queue is configured.
type Exporter interface {
	Export(ctx context.Context, kinds []reports.Kind, horizonDays int) ([]services.ExportResult, error)
}

// BankSyncer pulls from the banking provider.
type BankSyncer interface {
	Run(ctx context.Context) (services.SyncResult, error)
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Server struct {
	http.Server
	reports   ReportService
	publisher ExportPublisher
	exporter  Exporter
	syncer    BankSyncer
	checks    []ReadinessCheck
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware
	logger    *log.Logger

	shutdownOnce sync.Once
}

type Option func(*Server)

// WithPublisher queues POST /api/exports on the message broker.
func WithPublisher(p ExportPublisher) Option {
	return func(s *Server) { s.publisher = p }
}

// WithExporter runs POST /api/exports synchronously when no publisher is set.
func WithExporter(e Exporter) Option {
	return func(s *Server) { s.exporter = e }
}

// WithBankSync enables POST /api/sync.
func WithBankSync(b BankSyncer) Option {
	return func(s *Server) { s.syncer = b }
}

func WithReadinessCheck(name string, check func(ctx context.Context) error) Option {
	return func(s *Server) { s.checks = append(s.checks, ReadinessCheck{Name: name, Check: check}) }
}

// WithRateLimit overrides the limit on write endpoints.
func WithRateLimit(cfg ratelimit.Config) Option {
	return func(s *Server) {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		s.limiter = ratelimit.NewLimiter(cfg)
	}
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, svc ReportService, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      2 * time.Minute,
			IdleTimeout:       2 * time.Minute,
		},
		reports:  svc,
		detector: security.NewDetector(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter == nil {
		s.limiter = ratelimit.NewLimiter(ratelimit.DefaultConfig())
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded", log.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/reports", s.handleListReports)
	mux.HandleFunc("GET /api/reports/{kind}", s.handleReport)
	mux.HandleFunc("GET /api/projection", s.handleProjection)
	mux.HandleFunc("GET /api/cashflow", s.handleCashflow)
	mux.Handle("POST /api/exports", limited(http.HandlerFunc(s.handleCreateExport)))
	mux.Handle("POST /api/sync", limited(http.HandlerFunc(s.handleSync)))

	s.Handler = s.tracer.Middleware(
		security.Headers(security.DefaultHeadersConfig())(
			s.withProbeDetection(mux)))
	return s
}

// withProbeDetection logs requests that look like scans; they still reach
// the mux, which has no route for them.
func (s *Server) withProbeDetection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.Suspicious(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				log.FieldPath, r.URL.Path,
				"client_ip", s.detector.ExtractClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and its rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// Metrics returns the request counters.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}
