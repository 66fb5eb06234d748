package main

import (
	"context"
	"errors"
	"os"
	"time"

	"finsight/internal/amqp"
	"finsight/internal/cli"
	applog "finsight/internal/log"
	gsheet "finsight/internal/sheets/google"
	"finsight/internal/worker"
)

const mirrorConcurrency = 4

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting sheets-mirror")

	source, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, gsheet.Credentials{
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}

	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer sqliteRepo.Close()

	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
	} else {
		logger.Info("AMQP disabled - mirroring on SYNC_INTERVAL only")
	}

	mirror := worker.NewMirrorWorker(source, sqliteRepo, cfg.Catalog(), mirrorConcurrency)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	if amqpClient != nil {
		go func() {
			if err := amqpClient.ConsumeRefresh(ctx, mirror.HandleRefreshMessage); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Refresh consumption failed", applog.FieldError, err)
			}
		}()
	}

	logger.Info("Mirroring spreadsheet ranges",
		"interval", cfg.SyncInterval,
		"db_path", cfg.SQLiteDBPath)
	if err := mirror.Run(ctx, cfg.SyncInterval); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Mirror worker stopped", applog.FieldError, err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("sheets-mirror stopped")
}
