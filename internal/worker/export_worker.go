// Package worker runs queued report exports.
package worker

import (
	"context"
	"fmt"
	"time"

	"fintool/internal/amqp"
	"fintool/internal/cache"
	"fintool/internal/log"
	"fintool/internal/reports"
	"fintool/internal/services"
)

// Exporter builds and exports reports.
type Exporter interface {
	Export(ctx context.Context, kinds []reports.Kind, horizonDays int) ([]services.ExportResult, error)
}

// Consumer delivers export requests to a handler until ctx ends.
type Consumer interface {
	ConsumeExports(ctx context.Context, handler func(context.Context, *amqp.ExportRequest) error) error
}

// handledTTL is how long a finished request id is remembered, so a
// redelivered message is not exported twice.
const handledTTL = time.Hour

// ExportWorker handles export requests from the queue.
type ExportWorker struct {
	exporter Exporter
	handled  cache.Cache[[]services.ExportResult]
	logger   *log.Logger
}

func NewExportWorker(exporter Exporter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExportWorker{
		exporter: exporter,
		handled:  cache.NewLRU[[]services.ExportResult](1024, handledTTL),
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleExportMessage processes a single export request from AMQP
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.ExportRequest) error {
	if prev, ok := w.handled.Get(msg.ID); ok {
		w.logger.InfoContext(ctx, "Export already handled, skipping",
			"id", msg.ID,
			"reports", len(prev))
		return nil
	}

	kinds, err := msg.Kinds()
	if err != nil {
		return fmt.Errorf("resolve reports: %w", err)
	}

	w.logger.InfoContext(ctx, "Processing export request",
		"id", msg.ID,
		log.FieldReport, msg.Report,
		log.FieldHorizon, msg.HorizonDays,
		"queued_for", time.Since(msg.RequestedAt).Round(time.Millisecond))

	results, err := w.exporter.Export(ctx, kinds, msg.HorizonDays)
	if err != nil {
		w.logger.LogError(ctx, "Export request failed", err, log.OpExport, log.NewFields().WithReport(msg.Report, 0))
		return fmt.Errorf("export %s: %w", msg.Report, err)
	}
	w.handled.Set(msg.ID, results)

	for _, r := range results {
		w.logger.InfoContext(ctx, "Exported report",
			"id", msg.ID,
			log.FieldReport, string(r.Report),
			log.FieldRows, r.Rows,
			log.FieldSheetsRef, r.Ref)
	}
	return nil
}

// Run consumes export requests until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context, consumer Consumer) error {
	w.logger.InfoContext(ctx, "Export worker started")
	err := consumer.ConsumeExports(ctx, w.HandleExportMessage)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("consume exports: %w", err)
	}
	w.logger.InfoContext(ctx, "Export worker stopped")
	return nil
}

// ExportOnStartup exports every report once, so a fresh deployment has
// current figures before the first request arrives.
func (w *ExportWorker) ExportOnStartup(ctx context.Context) error {
	results, err := w.exporter.Export(ctx, reports.Kinds, 0)
	if err != nil {
		return fmt.Errorf("startup export: %w", err)
	}
	w.logger.InfoContext(ctx, "Startup export completed", "reports", len(results))
	return nil
}
