package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/adjovi/momo-tracker/internal/api/middleware"
	"github.com/adjovi/momo-tracker/internal/domain"
	"github.com/adjovi/momo-tracker/internal/jobs"
	"github.com/adjovi/momo-tracker/internal/ledger"
	"github.com/adjovi/momo-tracker/internal/parser"
)

const dateFormat = "2006-01-02"

// MessagesHandler handles incoming provider SMS endpoints.
type MessagesHandler struct {
	svc *ledger.Service
	log zerolog.Logger
}

// NewMessagesHandler creates a new messages handler.
func NewMessagesHandler(svc *ledger.Service, log zerolog.Logger) *MessagesHandler {
	return &MessagesHandler{svc: svc, log: log}
}

type messageRequest struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// Ingest handles POST /api/messages
func (h *MessagesHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Message == "" {
		middleware.WriteError(w, http.StatusBadRequest, "message is required")
		return
	}

	tx, added, err := h.svc.Ingest(r.Context(), ledger.RawMessage{Body: req.Message, Timestamp: req.Timestamp})
	if err != nil {
		if errors.Is(err, parser.ErrUnrecognizedType) {
			middleware.WriteError(w, http.StatusUnprocessableEntity, "Message is not a recognized transaction notification")
			return
		}
		h.log.Error().Err(err).Msg("Failed to ingest message")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to ingest message")
		return
	}

	status := http.StatusCreated
	if !added {
		status = http.StatusOK
	}
	middleware.WriteJSON(w, status, map[string]interface{}{
		"transaction": tx,
		"added":       added,
	})
}

type batchRequest struct {
	Messages []messageRequest `json:"messages"`
}

// IngestBatch handles POST /api/messages/batch
func (h *MessagesHandler) IngestBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "messages is required")
		return
	}

	msgs := make([]ledger.RawMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, ledger.RawMessage{Body: m.Message, Timestamp: m.Timestamp})
	}

	parsed, added, err := h.svc.IngestBatch(r.Context(), msgs)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to ingest batch")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to ingest batch")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]int{
		"received": len(req.Messages),
		"parsed":   parsed,
		"added":    added,
	})
}

// TransactionsHandler handles ledger read and delete endpoints.
type TransactionsHandler struct {
	svc *ledger.Service
	log zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(svc *ledger.Service, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{svc: svc, log: log}
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var filter ledger.Filter
	if typeStr := query.Get("type"); typeStr != "" {
		t := domain.TransactionType(typeStr)
		if !t.Valid() {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid type")
			return
		}
		filter.Type = t
	}
	if startStr := query.Get("start_date"); startStr != "" {
		start, err := time.ParseInLocation(dateFormat, startStr, time.Local)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return
		}
		filter.From = start
	}
	if endStr := query.Get("end_date"); endStr != "" {
		end, err := time.ParseInLocation(dateFormat, endStr, time.Local)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
			return
		}
		// Inclusive end date
		filter.To = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	transactions, err := h.svc.List(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	// Return array directly for frontend compatibility
	middleware.WriteJSON(w, http.StatusOK, transactions)
}

// GetStats handles GET /api/stats
func (h *TransactionsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute stats")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, stats)
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		h.log.Error().Err(err).Str("transaction_id", id).Msg("Failed to delete transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete transaction")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearTransactions handles DELETE /api/transactions
func (h *TransactionsHandler) ClearTransactions(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Clear(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Failed to clear transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to clear transactions")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SyncHandler handles backup sync endpoints.
type SyncHandler struct {
	publisher jobs.Publisher
	bucket    string
	log       zerolog.Logger
}

// NewSyncHandler creates a new sync handler. bucket is the default Cloud
// Storage bucket for backups.
func NewSyncHandler(publisher jobs.Publisher, bucket string, log zerolog.Logger) *SyncHandler {
	return &SyncHandler{publisher: publisher, bucket: bucket, log: log}
}

// EnqueueSync handles POST /api/sync
func (h *SyncHandler) EnqueueSync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Bucket string `json:"bucket,omitempty"`
		Object string `json:"object"`
		Mirror bool   `json:"mirror,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Object == "" {
		middleware.WriteError(w, http.StatusBadRequest, "object is required")
		return
	}

	bucket := req.Bucket
	if bucket == "" {
		bucket = h.bucket
	}
	if bucket == "" {
		middleware.WriteError(w, http.StatusBadRequest, "No bucket configured")
		return
	}

	job := &jobs.SyncBackupJob{
		Bucket:            bucket,
		Object:            req.Object,
		MirrorToWarehouse: req.Mirror,
	}

	if err := h.publisher.PublishSyncBackup(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue sync job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue sync job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("object", req.Object).Msg("Sync job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Object: query.Get("object"),
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
