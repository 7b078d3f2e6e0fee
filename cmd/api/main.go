package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adjovi/momo-tracker/internal/api/handlers"
	infraBQ "github.com/adjovi/momo-tracker/internal/infra/bigquery"
	"github.com/adjovi/momo-tracker/internal/ingest"
	"github.com/adjovi/momo-tracker/internal/jobs"
	"github.com/adjovi/momo-tracker/internal/jobs/inmemory"
	"github.com/adjovi/momo-tracker/internal/ledger"
	"github.com/adjovi/momo-tracker/internal/logger"
	"github.com/adjovi/momo-tracker/internal/notify"
)

func main() {
	// Parse command-line flags
	var (
		port       = flag.String("port", "8080", "HTTP server port")
		ledgerPath = flag.String("ledger", envOr("MOMO_LEDGER_PATH", "data/ledger.json"), "Path to the ledger file (or set MOMO_LEDGER_PATH)")
		bucket     = flag.String("bucket", os.Getenv("MOMO_BACKUP_BUCKET"), "Cloud Storage bucket holding SMS backups (or set MOMO_BACKUP_BUCKET)")
		mirror     = flag.Bool("mirror", os.Getenv("MOMO_BQ_MIRROR") == "true", "Enable the BigQuery mirror for sync jobs")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	if *bucket == "" {
		log.Warn().Msg("No backup bucket configured - sync jobs will be disabled")
	}

	ctx := context.Background()

	// Initialize notification sinks
	sinks := []ledger.Sink{notify.NewLogSink()}
	if token, dbID := os.Getenv("MOMO_NOTION_TOKEN"), os.Getenv("MOMO_NOTION_DB"); token != "" && dbID != "" {
		sinks = append(sinks, notify.NewNotionSink(notify.NewNotionClient(token), dbID))
		log.Info().Msg("Notion sink enabled")
	}

	svc := ledger.NewService(ledger.NewFileStore(*ledgerPath), sinks...)

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	// Start worker in background to process sync jobs
	workerCtx, cancelWorker := context.WithCancel(logger.WithContext(ctx, log))
	defer cancelWorker()

	var bqMirror jobs.Mirror
	if *mirror {
		m, err := infraBQ.NewBigQueryTransactionMirror(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery mirror")
		}
		defer m.Close()
		bqMirror = m
		log.Info().Msg("BigQuery mirror enabled")
	}

	syncHandler := jobs.NewSyncHandler(svc, ingest.DownloadBackup, bqMirror)

	go func() {
		log.Info().Msg("Starting sync job worker")
		if err := jobQueue.Start(workerCtx, syncHandler.Handle); err != nil {
			log.Error().Err(err).Msg("Sync job worker stopped with error")
		}
	}()

	// Create router with the standard middleware chain
	handler := handlers.NewRouter(svc, jobQueue, jobStore, *bucket, log)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Str("ledger", *ledgerPath).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Cancel worker context
	cancelWorker()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
