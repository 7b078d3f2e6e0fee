// Package notify delivers new-transaction notifications. Sinks are fanned out
// by the ledger service; a failing sink never blocks the ledger write.
package notify

import (
	"context"

	"github.com/adjovi/momo-tracker/internal/domain"
	"github.com/adjovi/momo-tracker/internal/logger"
)

// LogSink writes one structured log line per recorded transaction.
type LogSink struct{}

func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) Notify(ctx context.Context, tx domain.Transaction) error {
	log := logger.FromContext(ctx)
	log.Info().
		Str("transaction_id", tx.ID).
		Str("type", string(tx.Type)).
		Float64("amount", tx.Amount).
		Float64("fee", tx.Fee).
		Float64("balance", tx.Balance).
		Str("counterparty", tx.Counterparty).
		Time("date", tx.Date).
		Msg("Transaction recorded")
	return nil
}
