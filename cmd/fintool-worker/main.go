package main

import (
	"context"
	"os"
	"time"

	"fintool/internal/amqp"
	"fintool/internal/cli"
	"fintool/internal/log"
	"fintool/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting fintool-worker", log.FieldOperation, log.OpStartup)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	app, err := cli.NewApp(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backends", log.FieldError, err)
		os.Exit(1)
	}
	defer app.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(app.Reports, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// A failed startup export is logged; queued requests still get served.
	if err := exportWorker.ExportOnStartup(ctx); err != nil {
		logger.Error("Startup export failed", log.FieldError, err)
	}

	if err := exportWorker.Run(ctx, amqpClient); err != nil {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}
