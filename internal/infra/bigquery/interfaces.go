package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/adjovi/momo-tracker/internal/domain"
)

// TransactionMirror archives ledger transactions into the warehouse. The
// interface enables mocking in handler and job tests.
type TransactionMirror interface {
	Mirror(ctx context.Context, transactions []domain.Transaction) (int, error)
	QueryByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*TransactionRow, error)
	Close() error
}

// BigQueryTransactionMirror is the concrete implementation of
// TransactionMirror. It holds a shared BigQuery client to avoid creating a
// new connection for each operation.
type BigQueryTransactionMirror struct {
	client *bigquery.Client
}

// NewBigQueryTransactionMirror creates a new instance of
// BigQueryTransactionMirror with a shared BigQuery client.
func NewBigQueryTransactionMirror(ctx context.Context) (*BigQueryTransactionMirror, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryTransactionMirror: creating client: %w", err)
	}
	return &BigQueryTransactionMirror{
		client: client,
	}, nil
}

// Close closes the BigQuery client connection.
func (m *BigQueryTransactionMirror) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}

// Mirror delegates to MirrorTransactionsWithClient with the shared client.
func (m *BigQueryTransactionMirror) Mirror(ctx context.Context, transactions []domain.Transaction) (int, error) {
	return MirrorTransactionsWithClient(ctx, m.client, transactions)
}

// QueryByDateRange delegates to QueryTransactionsByDateRangeWithClient with
// the shared client.
func (m *BigQueryTransactionMirror) QueryByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*TransactionRow, error) {
	return QueryTransactionsByDateRangeWithClient(ctx, m.client, startDate, endDate)
}
