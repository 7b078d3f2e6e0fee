// Package export renders the ledger into flat files for spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/adjovi/momo-tracker/internal/domain"
)

var csvHeader = []string{
	"id",
	"type",
	"label",
	"amount",
	"fee",
	"balance",
	"counterparty",
	"counterparty_phone",
	"date",
	"reference",
	"transaction_id",
}

// WriteCSV writes transactions to w as CSV, header first, preserving the
// input order.
func WriteCSV(w io.Writer, transactions []domain.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, tx := range transactions {
		record := []string{
			tx.ID,
			string(tx.Type),
			tx.Type.Label(),
			formatAmount(tx.Amount),
			formatAmount(tx.Fee),
			formatAmount(tx.Balance),
			tx.Counterparty,
			tx.CounterpartyPhone,
			tx.Date.Format("2006-01-02 15:04:05"),
			tx.Reference,
			tx.TransactionID,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
