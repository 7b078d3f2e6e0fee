package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/adjovi/momo-tracker/internal/domain"
)

// TransactionRow is the momo.transactions schema. The mirror is append-only:
// rows are inserted once per ledger transaction and never updated.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	TxType string `bigquery:"tx_type"` // REQUIRED

	TxDate     civil.Date     `bigquery:"tx_date"`     // REQUIRED, partition column
	TxDatetime civil.DateTime `bigquery:"tx_datetime"` // REQUIRED

	Amount  *big.Rat `bigquery:"amount"`  // REQUIRED NUMERIC
	Fee     *big.Rat `bigquery:"fee"`     // REQUIRED NUMERIC
	Balance *big.Rat `bigquery:"balance"` // REQUIRED NUMERIC

	Counterparty      string              `bigquery:"counterparty"`       // REQUIRED
	CounterpartyPhone bigquery.NullString `bigquery:"counterparty_phone"` // NULLABLE

	Reference    bigquery.NullString `bigquery:"reference"`      // NULLABLE
	ProviderTxID string              `bigquery:"provider_tx_id"` // REQUIRED, UNKNOWN sentinel allowed

	RawMessage string `bigquery:"raw_message"` // REQUIRED

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED (default CURRENT_TIMESTAMP)
}

// RowFromTransaction maps a ledger transaction onto the mirror schema.
func RowFromTransaction(tx domain.Transaction) *TransactionRow {
	row := &TransactionRow{
		TransactionID: tx.ID,
		TxType:        string(tx.Type),
		TxDate:        civil.DateOf(tx.Date),
		TxDatetime:    civil.DateTimeOf(tx.Date),
		Amount:        new(big.Rat).SetFloat64(tx.Amount),
		Fee:           new(big.Rat).SetFloat64(tx.Fee),
		Balance:       new(big.Rat).SetFloat64(tx.Balance),
		Counterparty:  tx.Counterparty,
		ProviderTxID:  tx.TransactionID,
		RawMessage:    tx.RawMessage,
		CreatedTS:     time.Now().UTC(),
	}
	if tx.CounterpartyPhone != "" {
		row.CounterpartyPhone = bigquery.NullString{StringVal: tx.CounterpartyPhone, Valid: true}
	}
	if tx.Reference != "" {
		row.Reference = bigquery.NullString{StringVal: tx.Reference, Valid: true}
	}
	return row
}
