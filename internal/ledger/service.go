package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/adjovi/momo-tracker/internal/domain"
	"github.com/adjovi/momo-tracker/internal/logger"
	"github.com/adjovi/momo-tracker/internal/parser"
)

// ErrNotFound is returned when an operation targets a transaction id the
// ledger does not contain.
var ErrNotFound = errors.New("transaction not found")

// Sink receives each transaction newly added to the ledger. Sink failures are
// logged and never roll back the write.
type Sink interface {
	Notify(ctx context.Context, tx domain.Transaction) error
}

// RawMessage is one provider SMS awaiting ingestion. Timestamp is the
// delivery time in Unix milliseconds, used when the text carries no date.
type RawMessage struct {
	Body      string
	Timestamp int64
}

// Filter narrows a ledger listing. Zero values mean no constraint.
type Filter struct {
	Type domain.TransactionType
	From time.Time
	To   time.Time
}

// Service owns the ledger: it parses incoming messages, deduplicates them
// against the stored history and fans newly added transactions out to sinks.
// All operations are serialized by an internal mutex.
type Service struct {
	mu    sync.Mutex
	store Store
	sinks []Sink
}

func NewService(store Store, sinks ...Sink) *Service {
	return &Service{store: store, sinks: sinks}
}

// Ingest parses a single message and adds it to the ledger. The returned bool
// reports whether the transaction was new; a re-sent message parses to the
// same id and is absorbed without a write.
func (s *Service) Ingest(ctx context.Context, msg RawMessage) (*domain.Transaction, bool, error) {
	tx, err := parser.Parse(msg.Body, msg.Timestamp)
	if err != nil {
		return nil, false, err
	}

	added, err := s.append(ctx, []domain.Transaction{*tx})
	if err != nil {
		return nil, false, err
	}
	return tx, added == 1, nil
}

// IngestBatch parses every message, silently dropping the unrecognized ones,
// and merges the result into the ledger in a single write. It returns how
// many transactions were parsed and how many were actually new.
func (s *Service) IngestBatch(ctx context.Context, msgs []RawMessage) (parsed, added int, err error) {
	log := logger.FromContext(ctx)

	incoming := make([]domain.Transaction, 0, len(msgs))
	for _, msg := range msgs {
		tx, perr := parser.Parse(msg.Body, msg.Timestamp)
		if perr != nil {
			log.Debug().Str("body", msg.Body).Msg("Skipping unrecognized message")
			continue
		}
		incoming = append(incoming, *tx)
	}

	added, err = s.append(ctx, incoming)
	if err != nil {
		return 0, 0, err
	}
	return len(incoming), added, nil
}

func (s *Service) append(ctx context.Context, incoming []domain.Transaction) (int, error) {
	fresh, added, err := s.appendLocked(incoming)
	if err != nil {
		return 0, err
	}

	// Sinks run outside the mutex so a slow notification delivery never
	// blocks other ledger operations.
	for _, tx := range fresh {
		s.notify(ctx, tx)
	}
	return added, nil
}

// appendLocked merges incoming into the stored ledger and returns the
// transactions that were genuinely new, in incoming order.
func (s *Service) appendLocked(incoming []domain.Transaction) ([]domain.Transaction, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.Load()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load ledger: %w", err)
	}

	merged, added := MergeNew(existing, incoming)
	if added == 0 {
		return nil, 0, nil
	}
	if err := s.store.Save(merged); err != nil {
		return nil, 0, fmt.Errorf("failed to save ledger: %w", err)
	}

	existingIDs := make(map[string]struct{}, len(existing))
	for _, tx := range existing {
		existingIDs[tx.ID] = struct{}{}
	}
	fresh := make([]domain.Transaction, 0, added)
	for _, tx := range incoming {
		if _, old := existingIDs[tx.ID]; old {
			continue
		}
		existingIDs[tx.ID] = struct{}{}
		fresh = append(fresh, tx)
	}
	return fresh, added, nil
}

func (s *Service) notify(ctx context.Context, tx domain.Transaction) {
	log := logger.FromContext(ctx)
	for _, sink := range s.sinks {
		if err := sink.Notify(ctx, tx); err != nil {
			log.Error().Err(err).Str("transaction_id", tx.ID).Msg("Notification sink failed")
		}
	}
}

// List returns the ledger, newest first, narrowed by filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	transactions, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	out := make([]domain.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if filter.Type != "" && tx.Type != filter.Type {
			continue
		}
		if !filter.From.IsZero() && tx.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && tx.Date.After(filter.To) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

// Stats aggregates the full ledger.
func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	transactions, err := s.store.Load()
	if err != nil {
		return domain.Stats{}, fmt.Errorf("failed to load ledger: %w", err)
	}
	return ComputeStats(transactions), nil
}

// Delete removes one transaction by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	transactions, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	kept := make([]domain.Transaction, 0, len(transactions))
	found := false
	for _, tx := range transactions {
		if tx.ID == id {
			found = true
			continue
		}
		kept = append(kept, tx)
	}
	if !found {
		return ErrNotFound
	}
	if err := s.store.Save(kept); err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	return nil
}

// Clear removes every transaction.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save([]domain.Transaction{}); err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	return nil
}
