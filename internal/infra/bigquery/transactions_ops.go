package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/adjovi/momo-tracker/internal/domain"
)

const (
	projectID         = "adjovi-momo-tracker"
	datasetID         = "momo"
	transactionsTable = "transactions"
	dateFormat        = "2006-01-02"
)

// InsertTransactions inserts a batch of TransactionRow into momo.transactions.
func InsertTransactions(ctx context.Context, rows []*TransactionRow) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("InsertTransactions: bigquery client: %w", err)
	}
	defer client.Close()

	return InsertTransactionsWithClient(ctx, client, rows)
}

// InsertTransactionsWithClient inserts a batch of TransactionRow into
// momo.transactions using the provided BigQuery client.
func InsertTransactionsWithClient(ctx context.Context, client *bigquery.Client, rows []*TransactionRow) error {
	if len(rows) == 0 {
		return nil
	}

	// Use the fully qualified table name to avoid project ID issues
	table := client.DatasetInProject(projectID, datasetID).Table(transactionsTable)
	inserter := table.Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}

	return nil
}

// ListTransactionIDs returns the ids of every mirrored transaction. The sync
// job uses the set to skip rows that already exist.
func ListTransactionIDs(ctx context.Context) (map[string]struct{}, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("ListTransactionIDs: bigquery client: %w", err)
	}
	defer client.Close()

	return ListTransactionIDsWithClient(ctx, client)
}

// ListTransactionIDsWithClient returns the ids of every mirrored transaction
// using the provided BigQuery client.
func ListTransactionIDsWithClient(ctx context.Context, client *bigquery.Client) (map[string]struct{}, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT transaction_id
		FROM %s.%s
	`, datasetID, transactionsTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactionIDs: query read: %w", err)
	}

	ids := make(map[string]struct{})
	for {
		var r struct {
			TransactionID string `bigquery:"transaction_id"`
		}
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactionIDs: iter next: %w", err)
		}
		ids[r.TransactionID] = struct{}{}
	}

	return ids, nil
}

// QueryTransactionsByDateRange queries mirrored transactions within the
// specified date range, oldest first.
func QueryTransactionsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*TransactionRow, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionsByDateRange: bigquery client: %w", err)
	}
	defer client.Close()

	return QueryTransactionsByDateRangeWithClient(ctx, client, startDate, endDate)
}

// QueryTransactionsByDateRangeWithClient queries mirrored transactions within
// the specified date range using the provided BigQuery client.
func QueryTransactionsByDateRangeWithClient(ctx context.Context, client *bigquery.Client, startDate, endDate time.Time) ([]*TransactionRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			tx_type,
			tx_date,
			tx_datetime,
			amount,
			fee,
			balance,
			counterparty,
			counterparty_phone,
			reference,
			provider_tx_id,
			raw_message,
			created_ts
		FROM %s.%s
		WHERE tx_date >= @start_date
		  AND tx_date <= @end_date
		ORDER BY tx_datetime, created_ts
	`, datasetID, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "start_date", Value: startDate.Format(dateFormat)},
		{Name: "end_date", Value: endDate.Format(dateFormat)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionsByDateRange: query read: %w", err)
	}

	var rows []*TransactionRow
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactionsByDateRange: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

// MirrorTransactionsWithClient inserts the subset of transactions whose ids
// are not yet mirrored and returns how many rows were written.
func MirrorTransactionsWithClient(ctx context.Context, client *bigquery.Client, transactions []domain.Transaction) (int, error) {
	existing, err := ListTransactionIDsWithClient(ctx, client)
	if err != nil {
		return 0, err
	}

	var rows []*TransactionRow
	for _, tx := range transactions {
		if _, mirrored := existing[tx.ID]; mirrored {
			continue
		}
		rows = append(rows, RowFromTransaction(tx))
	}
	if err := InsertTransactionsWithClient(ctx, client, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}
