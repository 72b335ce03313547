package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"costeo/internal/amqp"
	"costeo/internal/backend"
	"costeo/internal/config"
	"costeo/internal/export"
	applog "costeo/internal/log"
	"costeo/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentWorker})
	applog.SetDefault(logger)

	logger.Info("Starting costeo-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the export worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}()
	}

	exporter, err := export.NewSheetsExporter(ctx, export.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		CredentialsFile: cfg.GoogleCredentialsFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Sheets exporter", "error", err)
		os.Exit(1)
	}
	logger.Info("Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	w := worker.NewExportWorker(result.Backend, exporter, cfg.ExportBatchSize)

	// Drain whatever accumulated while the worker was down.
	if err := w.StartupCheck(ctx); err != nil {
		logger.Error("Startup export check failed", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	// Hold the group open until a signal arrives, whatever mix of
	// consumers and sweeps is configured.
	g.Go(func() error {
		<-ctx.Done()
		return nil
	})

	// Near-real-time path: consume export messages when AMQP is
	// configured. Without it the scheduled sweep carries the load alone.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			err := amqpClient.ConsumeTransactionExport(ctx, func(msg *amqp.TransactionExportMessage) error {
				return w.HandleExportMessage(ctx, msg)
			})
			if err != nil && err != context.Canceled {
				return err
			}
			return nil
		})
		logger.Info("Consuming export messages", "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled, running on the scheduled sweep only")
	}

	// Backup path: sweep pending rows on a cron expression when set,
	// otherwise on a fixed interval.
	if cfg.ExportCron != "" {
		c := cron.New()
		if _, err := c.AddFunc(cfg.ExportCron, func() {
			if err := w.ProcessPending(ctx); err != nil {
				logger.Error("Scheduled export sweep failed", "error", err)
			}
		}); err != nil {
			logger.Error("Invalid EXPORT_CRON expression", "error", err, "cron", cfg.ExportCron)
			os.Exit(1)
		}
		c.Start()
		defer c.Stop()
		logger.Info("Export sweep scheduled", "cron", cfg.ExportCron)
	} else {
		g.Go(func() error {
			ticker := time.NewTicker(cfg.ExportInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if err := w.ProcessPending(ctx); err != nil {
						logger.Error("Export sweep failed", "error", err)
					}
				}
			}
		})
		logger.Info("Export sweep scheduled", "interval", cfg.ExportInterval)
	}

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
