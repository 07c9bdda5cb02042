package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"fintool/internal/amqp"
	"fintool/internal/assistant"
	"fintool/internal/cli"
	"fintool/internal/command"
	"fintool/internal/config"
	"fintool/internal/loader"
	"fintool/internal/log"
)

const usage = `usage: fintool <command> [flags]

commands:
  report   [-days N] [-json] [kind|all]   print reports
  project  [-days N] [-json]              print projected transactions
  export   [-days N] [-queue] [kind|all]  write reports to the export backend
  import   [-dir path]                    copy JSON records into SQLite
  migrate                                 apply SQLite schema migrations
  sync                                    pull accounts and transactions from Plaid
  link     -public-token TOKEN            exchange a Plaid Link token
  ask      [-json] [-system MSG] question ask the assistant about your cashflow
`

var commands = map[string]bool{
	"report": true, "project": true, "export": true, "import": true,
	"migrate": true, "sync": true, "link": true, "ask": true,
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	name, args := os.Args[1], os.Args[2:]
	if name == "help" || name == "-h" || name == "--help" {
		fmt.Fprint(os.Stdout, usage)
		return
	}

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	// Output goes to stdout, so logs go to stderr.
	logger := log.New(log.Config{Level: level, Component: log.ComponentApp, JSON: cfg.LogJSON, Writer: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, name, args, cfg, logger, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "fintool %s: %v\n", name, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, name string, args []string, cfg *config.Config, logger *log.Logger, out io.Writer) error {
	if !commands[name] {
		return fmt.Errorf("unknown command %q\n\n%s", name, usage)
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	switch name {
	case "migrate":
		return command.RunMigrate(cfg.SQLiteDBPath, out)
	case "link":
		opts, err := command.ParseLinkFlags(fs, args)
		if err != nil {
			return err
		}
		app := &cli.App{Config: cfg, Logger: logger}
		client, err := app.Banking()
		if err != nil {
			return err
		}
		return command.RunLink(ctx, client, opts, out)
	}

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	switch name {
	case "report":
		opts, err := command.ParseReportFlags(fs, args)
		if err != nil {
			return err
		}
		return command.RunReport(ctx, app.Reports, opts, out)

	case "project":
		opts, err := command.ParseProjectFlags(fs, args)
		if err != nil {
			return err
		}
		return command.RunProject(ctx, app.Reports, opts, out)

	case "export":
		opts, err := command.ParseExportFlags(fs, args)
		if err != nil {
			return err
		}
		var pub command.Publisher
		if opts.Queue && cfg.AMQPURL != "" {
			client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
			if err != nil {
				return err
			}
			defer client.Close()
			pub = client
		}
		return command.RunExport(ctx, app.Reports, pub, opts, out)

	case "import":
		opts, err := command.ParseImportFlags(fs, cfg.DataDir, args)
		if err != nil {
			return err
		}
		store, err := app.SQLiteStore()
		if err != nil {
			return err
		}
		return command.RunImport(ctx, loader.New(opts.Dir, logger), store, out)

	case "sync":
		if err := fs.Parse(args); err != nil {
			return err
		}
		syncer, err := app.BankSync()
		if err != nil {
			return err
		}
		return command.RunSync(ctx, syncer, out)

	case "ask":
		opts, err := command.ParseAskFlags(fs, args)
		if err != nil {
			return err
		}
		a, err := assistant.New(ctx, cfg.GoogleAPIKey, cfg.GenAIModel, logger)
		if err != nil {
			return err
		}
		return command.RunAsk(ctx, app.Reports, a, opts, out)
	}

	return nil
}
