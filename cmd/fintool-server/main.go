package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintool/internal/amqp"
	"fintool/internal/cli"
	apphttp "fintool/internal/http"
	"fintool/internal/log"
	"fintool/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentHTTP)

	app, err := cli.NewApp(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backends", log.FieldError, err)
		os.Exit(1)
	}
	defer app.Close()

	opts := []apphttp.Option{apphttp.WithExporter(app.Reports)}
	if pinger, ok := app.Store.(interface{ Ping(context.Context) error }); ok {
		opts = append(opts, apphttp.WithReadinessCheck("sqlite", pinger.Ping))
	}

	// Exports go through the queue when a broker is configured.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, exporting in-process", log.FieldError, err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			opts = append(opts, apphttp.WithPublisher(amqpClient))
			logger.Info("AMQP client initialized - exports are queued for fintool-worker")
		}
	}

	var bankSync *services.BankSync
	if cfg.PlaidAccessToken != "" {
		bankSync, err = app.BankSync()
		if err != nil {
			logger.Warn("Banking sync disabled", log.FieldError, err)
		} else {
			opts = append(opts, apphttp.WithBankSync(bankSync))
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, app.Reports, logger, opts...)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if bankSync != nil {
			if err := bankSync.Stop(ctx); err != nil {
				logger.Warn("Bank sync stop error", log.FieldError, err)
			}
		}
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		m := srv.Metrics()
		logger.Info("Request totals", "requests", m.TotalRequests, "failed", m.FailedRequests)
	})

	if bankSync != nil && cfg.SyncInterval > 0 {
		if err := bankSync.Start(ctx); err != nil {
			logger.Warn("Failed to start periodic bank sync", log.FieldError, err)
		}
	}

	logger.Info("Starting fintool server",
		"port", cfg.Port,
		"records", cfg.RecordSource,
		"export", cfg.ExportBackend,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
