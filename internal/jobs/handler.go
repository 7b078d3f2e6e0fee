package jobs

import (
	"context"
	"fmt"

	"github.com/adjovi/momo-tracker/internal/domain"
	"github.com/adjovi/momo-tracker/internal/ledger"
	"github.com/adjovi/momo-tracker/internal/logger"
)

// BackupFetcher downloads an SMS backup object and returns the provider
// messages it contains.
type BackupFetcher func(ctx context.Context, bucket, object string) ([]ledger.RawMessage, error)

// Mirror appends transactions to the warehouse, skipping ids already present.
type Mirror interface {
	Mirror(ctx context.Context, transactions []domain.Transaction) (int, error)
}

// SyncHandler processes SyncBackupJob: fetch the backup, merge its messages
// into the ledger and optionally mirror the result to the warehouse.
type SyncHandler struct {
	svc    *ledger.Service
	fetch  BackupFetcher
	mirror Mirror
}

// NewSyncHandler creates a SyncHandler. mirror may be nil when no warehouse
// is configured; jobs requesting a mirror then fail.
func NewSyncHandler(svc *ledger.Service, fetch BackupFetcher, mirror Mirror) *SyncHandler {
	return &SyncHandler{svc: svc, fetch: fetch, mirror: mirror}
}

// Handle implements JobHandler.
func (h *SyncHandler) Handle(ctx context.Context, job Job) error {
	syncJob, ok := job.(*SyncBackupJob)
	if !ok {
		return fmt.Errorf("unexpected job type %s", job.GetType())
	}

	log := logger.FromContext(ctx).With().Str("job_id", syncJob.JobID).Logger()
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("bucket", syncJob.Bucket).
		Str("object", syncJob.Object).
		Msg("Starting backup sync")

	msgs, err := h.fetch(ctx, syncJob.Bucket, syncJob.Object)
	if err != nil {
		return fmt.Errorf("failed to fetch backup: %w", err)
	}

	parsed, added, err := h.svc.IngestBatch(ctx, msgs)
	if err != nil {
		return fmt.Errorf("failed to ingest backup: %w", err)
	}
	syncJob.Parsed = parsed
	syncJob.Added = added

	log.Info().
		Int("messages", len(msgs)).
		Int("parsed", parsed).
		Int("added", added).
		Msg("Backup merged into ledger")

	if syncJob.MirrorToWarehouse {
		if h.mirror == nil {
			return fmt.Errorf("mirror requested but no warehouse configured")
		}
		transactions, err := h.svc.List(ctx, ledger.Filter{})
		if err != nil {
			return fmt.Errorf("failed to load ledger for mirroring: %w", err)
		}
		mirrored, err := h.mirror.Mirror(ctx, transactions)
		if err != nil {
			return fmt.Errorf("failed to mirror transactions: %w", err)
		}
		log.Info().Int("mirrored", mirrored).Msg("Ledger mirrored to warehouse")
	}

	return nil
}
