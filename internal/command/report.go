package command

import (
	"context"
	"flag"
	"fmt"
	"io"

	"fintool/internal/core"
	"fintool/internal/reports"
)

// Reporter builds reports and projections.
type Reporter interface {
	BuildMany(ctx context.Context, kinds []reports.Kind, horizonDays int) ([]reports.Tabular, error)
	Project(ctx context.Context, horizonDays int) ([]core.Transaction, error)
}

// ReportOptions holds report command configuration.
type ReportOptions struct {
	Kinds []reports.Kind
	Days  int
	JSON  bool
}

// ParseReportFlags parses `report [-days N] [-json] [kind[,kind...]|all]`.
func ParseReportFlags(fs *flag.FlagSet, args []string) (ReportOptions, error) {
	var opts ReportOptions
	fs.IntVar(&opts.Days, "days", 0, "projection horizon in days (default from PROJECTION_DAYS)")
	fs.BoolVar(&opts.JSON, "json", false, "print JSON instead of tables")
	if err := fs.Parse(args); err != nil {
		return ReportOptions{}, err
	}
	if err := validateDays(opts.Days); err != nil {
		return ReportOptions{}, err
	}
	kinds, err := parseKinds(fs.Arg(0))
	if err != nil {
		return ReportOptions{}, err
	}
	opts.Kinds = kinds
	return opts, nil
}

// RunReport prints the requested reports.
func RunReport(ctx context.Context, r Reporter, opts ReportOptions, out io.Writer) error {
	tables, err := r.BuildMany(ctx, opts.Kinds, opts.Days)
	if err != nil {
		return err
	}
	if opts.JSON {
		return writeJSON(out, tables)
	}
	for i, t := range tables {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if err := writeTable(out, t); err != nil {
			return err
		}
	}
	return nil
}

// ProjectOptions holds project command configuration.
type ProjectOptions struct {
	Days int
	JSON bool
}

// ParseProjectFlags parses `project [-days N] [-json]`.
func ParseProjectFlags(fs *flag.FlagSet, args []string) (ProjectOptions, error) {
	var opts ProjectOptions
	fs.IntVar(&opts.Days, "days", 0, "horizon in days (default from PROJECTION_DAYS)")
	fs.BoolVar(&opts.JSON, "json", false, "print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return ProjectOptions{}, err
	}
	if err := validateDays(opts.Days); err != nil {
		return ProjectOptions{}, err
	}
	return opts, nil
}

// RunProject prints the transactions recurring items will produce.
func RunProject(ctx context.Context, r Reporter, opts ProjectOptions, out io.Writer) error {
	txs, err := r.Project(ctx, opts.Days)
	if err != nil {
		return err
	}
	if opts.JSON {
		return writeJSON(out, txs)
	}
	return writeTable(out, reports.Projection(txs))
}
