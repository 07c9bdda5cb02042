package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fintool/internal/amqp"
	"fintool/internal/core"
	"fintool/internal/log"
	"fintool/internal/reports"
	"fintool/internal/services"
	"fintool/internal/sheets/excel"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const readinessTimeout = 2 * time.Second

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady runs every readiness check and reports the failing ones.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	failed := map[string]string{}
	for _, c := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		if err := c.Check(ctx); err != nil {
			failed[c.Name] = err.Error()
		}
		cancel()
	}
	if len(failed) > 0 {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", "failed", failed)
		NewResponse().Status(http.StatusServiceUnavailable).JSON(map[string]any{"status": "unavailable", "failed": failed}).Write(w)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleListReports builds every report from one load of the records.
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	days, err := ParseDays(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	tables, err := s.reports.BuildMany(r.Context(), reports.Kinds, days)
	if err != nil {
		s.serviceError(r, err).Write(w)
		return
	}
	NewResponse().JSON(map[string]any{"reports": tables}).Write(w)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	kind, err := reports.ParseKind(r.PathValue("kind"))
	if err != nil {
		NotFoundError(err.Error()).Write(w)
		return
	}
	days, err := ParseDays(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	format, err := ParseFormat(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	t, err := s.reports.Build(r.Context(), kind, days)
	if err != nil {
		s.serviceError(r, err).Write(w)
		return
	}

	if format == FormatXLSX {
		s.workbookResponse(r, t).Write(w)
		return
	}
	NewResponse().JSON(t).Write(w)
}

func (s *Server) workbookResponse(r *http.Request, t reports.Tabular) *ResponseBuilder {
	f, err := excel.Workbook(t)
	if err != nil {
		return s.serviceError(r, err)
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return s.serviceError(r, err)
	}
	return NewResponse().
		Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", t.Title()+".xlsx")).
		Body(xlsxContentType, buf.Bytes())
}

type projectionResponse struct {
	Count        int                `json:"count"`
	Transactions []core.Transaction `json:"transactions"`
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	days, err := ParseDays(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	txs, err := s.reports.Project(r.Context(), days)
	if err != nil {
		s.serviceError(r, err).Write(w)
		return
	}
	NewResponse().JSON(projectionResponse{Count: len(txs), Transactions: txs}).Write(w)
}

func (s *Server) handleCashflow(w http.ResponseWriter, r *http.Request) {
	totals, err := s.reports.Cashflow(r.Context())
	if err != nil {
		s.serviceError(r, err).Write(w)
		return
	}
	NewResponse().JSON(totals).Write(w)
}

type exportQueuedResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type exportDoneResponse struct {
	Status  string                  `json:"status"`
	Results []services.ExportResult `json:"results"`
}

// handleCreateExport queues an export when a publisher is configured and
// otherwise runs it in-process.
func (s *Server) handleCreateExport(w http.ResponseWriter, r *http.Request) {
	var body ExportBody
	if err := DecodeJSON(r, &body); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	req := amqp.NewExportRequest(body.Report, body.HorizonDays)
	if err := req.Validate(); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	switch {
	case s.publisher != nil:
		if err := s.publisher.PublishExport(r.Context(), req); err != nil {
			s.serviceError(r, err).Write(w)
			return
		}
		log.FromContext(r.Context()).InfoContext(r.Context(), "Export queued", "id", req.ID, log.FieldReport, req.Report)
		NewResponse().Status(http.StatusAccepted).JSON(exportQueuedResponse{ID: req.ID, Status: "queued"}).Write(w)

	case s.exporter != nil:
		kinds, _ := req.Kinds()
		results, err := s.exporter.Export(r.Context(), kinds, req.HorizonDays)
		if err != nil {
			s.serviceError(r, err).Write(w)
			return
		}
		NewResponse().JSON(exportDoneResponse{Status: "exported", Results: results}).Write(w)

	default:
		ServiceUnavailableError("report export is not configured").Write(w)
	}
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		ServiceUnavailableError("banking sync is not configured").Write(w)
		return
	}
	res, err := s.syncer.Run(r.Context())
	if err != nil {
		s.serviceError(r, err).Write(w)
		return
	}
	NewResponse().JSON(res).Write(w)
}

// serviceError maps domain failures to status codes: bad input records are
// 422, missing or failing dependencies 503, anything else 500.
func (s *Server) serviceError(r *http.Request, err error) *ResponseBuilder {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	var (
		parseErr *core.ParseError
		freqErr  *core.UnsupportedFrequencyError
		arithErr *core.ArithmeticPreconditionError
	)
	switch {
	case errors.As(err, &parseErr), errors.As(err, &freqErr), errors.As(err, &arithErr),
		errors.Is(err, core.ErrInvalidHorizon), errors.Is(err, core.ErrInvalidRecord):
		logger.WarnContext(ctx, "Records cannot produce report", log.FieldError, err)
		return UnprocessableEntityError(err.Error())

	case errors.Is(err, services.ErrNoWriter), errors.Is(err, services.ErrNoAccessToken),
		errors.Is(err, amqp.ErrCircuitOpen), errors.Is(err, context.DeadlineExceeded):
		logger.WarnContext(ctx, "Dependency unavailable", log.FieldError, err)
		return ServiceUnavailableError(err.Error())

	default:
		logger.LogError(ctx, "Request failed", err, log.OpReport, nil)
		return InternalServerError("internal error")
	}
}
