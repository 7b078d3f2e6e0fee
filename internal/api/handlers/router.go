package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/adjovi/momo-tracker/internal/api/middleware"
	"github.com/adjovi/momo-tracker/internal/jobs"
	"github.com/adjovi/momo-tracker/internal/ledger"
)

// NewRouter wires every API endpoint and the standard middleware chain.
// bucket is the default Cloud Storage bucket for backup syncs, may be empty.
func NewRouter(svc *ledger.Service, publisher jobs.Publisher, jobStore jobs.JobStore, bucket string, log zerolog.Logger) http.Handler {
	messagesHandler := NewMessagesHandler(svc, log)
	transactionsHandler := NewTransactionsHandler(svc, log)
	syncHandler := NewSyncHandler(publisher, bucket, log)
	jobsHandler := NewJobsHandler(jobStore, log)

	r := mux.NewRouter()

	r.HandleFunc("/api/messages", messagesHandler.Ingest).Methods(http.MethodPost)
	r.HandleFunc("/api/messages/batch", messagesHandler.IngestBatch).Methods(http.MethodPost)

	r.HandleFunc("/api/transactions", transactionsHandler.ListTransactions).Methods(http.MethodGet)
	r.HandleFunc("/api/transactions", transactionsHandler.ClearTransactions).Methods(http.MethodDelete)
	r.HandleFunc("/api/transactions/{id}", transactionsHandler.DeleteTransaction).Methods(http.MethodDelete)
	r.HandleFunc("/api/stats", transactionsHandler.GetStats).Methods(http.MethodGet)

	r.HandleFunc("/api/sync", syncHandler.EnqueueSync).Methods(http.MethodPost)
	r.HandleFunc("/api/jobs", jobsHandler.ListJobs).Methods(http.MethodGet)
	r.HandleFunc("/api/jobs/{id}", jobsHandler.GetJob).Methods(http.MethodGet)

	r.HandleFunc("/health", Health).Methods(http.MethodGet)

	return middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(r),
			),
		),
	)
}
