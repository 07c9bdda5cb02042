package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"fintool/internal/assistant"
	"fintool/internal/reports"
)

// CashflowSource computes the monthly cashflow totals.
type CashflowSource interface {
	Cashflow(ctx context.Context) (reports.CashflowTotals, error)
}

// Asker sends prompts to a language model.
type Asker interface {
	Ask(ctx context.Context, prompt, systemMessage string) (string, error)
	AskJSON(ctx context.Context, prompt, systemMessage string) (any, error)
}

const defaultSystemMessage = "You are a careful personal finance assistant. Answer in plain language and keep to the figures given."

// AskOptions holds ask command configuration.
type AskOptions struct {
	Question string
	System   string
	JSON     bool
}

// ParseAskFlags parses `ask [-json] [-system MSG] question...`.
func ParseAskFlags(fs *flag.FlagSet, args []string) (AskOptions, error) {
	var opts AskOptions
	fs.BoolVar(&opts.JSON, "json", false, "ask for and print a JSON answer")
	fs.StringVar(&opts.System, "system", defaultSystemMessage, "system message sent with the prompt")
	if err := fs.Parse(args); err != nil {
		return AskOptions{}, err
	}
	opts.Question = strings.Join(fs.Args(), " ")
	return opts, nil
}

// RunAsk asks the model about the current cashflow.
func RunAsk(ctx context.Context, src CashflowSource, a Asker, opts AskOptions, out io.Writer) error {
	totals, err := src.Cashflow(ctx)
	if err != nil {
		return err
	}
	prompt := assistant.CashflowPrompt(totals, opts.Question)

	if opts.JSON {
		answer, err := a.AskJSON(ctx, prompt+"\n\nReply with JSON only.", opts.System)
		if err != nil {
			return err
		}
		return writeJSON(out, answer)
	}
	answer, err := a.Ask(ctx, prompt, opts.System)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, answer)
	return nil
}
