// Package command parses fintool subcommand flags and runs them.
package command

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"fintool/internal/amqp"
	"fintool/internal/reports"
)

// parseKinds resolves a report argument; empty and "all" mean every report.
func parseKinds(arg string) ([]reports.Kind, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" || arg == amqp.AllReports {
		return reports.Kinds, nil
	}
	var kinds []reports.Kind
	for _, name := range strings.Split(arg, ",") {
		k, err := reports.ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func validateDays(days int) error {
	if days < 0 || days > 3660 {
		return fmt.Errorf("days must be between 0 and 3660, got %d", days)
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeTable prints a report as aligned columns under its title.
func writeTable(out io.Writer, t reports.Tabular) error {
	fmt.Fprintf(out, "== %s ==\n", t.Title())
	if len(t.Records()) == 0 {
		fmt.Fprintln(out, "(no rows)")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Header(), "\t")+"\t")
	for _, rec := range t.Records() {
		cells := make([]string, len(rec))
		for i, v := range rec {
			cells[i] = formatCell(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	return tw.Flush()
}

func formatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		return c.StringFixed(2)
	default:
		return fmt.Sprint(c)
	}
}
