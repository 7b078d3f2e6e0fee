package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	infraBQ "github.com/adjovi/momo-tracker/internal/infra/bigquery"
	"github.com/adjovi/momo-tracker/internal/ingest"
	"github.com/adjovi/momo-tracker/internal/jobs"
	"github.com/adjovi/momo-tracker/internal/jobs/inmemory"
	"github.com/adjovi/momo-tracker/internal/ledger"
	"github.com/adjovi/momo-tracker/internal/logger"
	"github.com/adjovi/momo-tracker/internal/notify"
)

func main() {
	var (
		ledgerPath = flag.String("ledger", envOr("MOMO_LEDGER_PATH", "data/ledger.json"), "Path to the ledger file (or set MOMO_LEDGER_PATH)")
		mirror     = flag.Bool("mirror", os.Getenv("MOMO_BQ_MIRROR") == "true", "Enable the BigQuery mirror for sync jobs")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	svc := ledger.NewService(ledger.NewFileStore(*ledgerPath), notify.NewLogSink())

	// Initialize job store and queue
	// In production, this would be replaced with Cloud Tasks or Pub/Sub
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	log.Info().Str("ledger", *ledgerPath).Msg("Starting worker service")

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	var bqMirror jobs.Mirror
	if *mirror {
		m, err := infraBQ.NewBigQueryTransactionMirror(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery mirror")
		}
		defer m.Close()
		bqMirror = m
	}

	handler := jobs.NewSyncHandler(svc, ingest.DownloadBackup, bqMirror)

	// Start consuming jobs
	if err := jobQueue.Start(ctx, handler.Handle); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	// Cancel context to stop workers
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Msg("Worker service exited")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
