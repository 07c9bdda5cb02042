package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"fintool/internal/amqp"
	"fintool/internal/reports"
	"fintool/internal/services"
)

// Exporter writes reports to the configured export backend.
type Exporter interface {
	Export(ctx context.Context, kinds []reports.Kind, horizonDays int) ([]services.ExportResult, error)
}

// Publisher queues export requests for the worker.
type Publisher interface {
	PublishExport(ctx context.Context, req *amqp.ExportRequest) error
}

// ExportOptions holds export command configuration.
type ExportOptions struct {
	Report string
	Days   int
	Queue  bool
}

// ParseExportFlags parses `export [-days N] [-queue] [kind|all]`.
func ParseExportFlags(fs *flag.FlagSet, args []string) (ExportOptions, error) {
	var opts ExportOptions
	fs.IntVar(&opts.Days, "days", 0, "projection horizon in days (default from PROJECTION_DAYS)")
	fs.BoolVar(&opts.Queue, "queue", false, "queue the export for fintool-worker instead of running it here")
	if err := fs.Parse(args); err != nil {
		return ExportOptions{}, err
	}
	if err := validateDays(opts.Days); err != nil {
		return ExportOptions{}, err
	}
	opts.Report = strings.ToLower(strings.TrimSpace(fs.Arg(0)))
	if opts.Report == "" {
		opts.Report = amqp.AllReports
	}
	if _, err := parseKinds(opts.Report); err != nil {
		return ExportOptions{}, err
	}
	return opts, nil
}

// RunExport exports in-process or, with -queue, publishes a request.
func RunExport(ctx context.Context, exp Exporter, pub Publisher, opts ExportOptions, out io.Writer) error {
	if opts.Queue {
		if pub == nil {
			return errors.New("-queue needs AMQP_URL")
		}
		req := amqp.NewExportRequest(opts.Report, opts.Days)
		if err := pub.PublishExport(ctx, req); err != nil {
			return err
		}
		fmt.Fprintf(out, "queued export %s (%s)\n", req.ID, req.Report)
		return nil
	}

	kinds, err := parseKinds(opts.Report)
	if err != nil {
		return err
	}
	results, err := exp.Export(ctx, kinds, opts.Days)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Fprintf(out, "%-12s %4d rows  %s\n", r.Report, r.Rows, r.Ref)
	}
	return nil
}
