// Package ingest reads provider SMS out of phone backup exports. Backups are
// the standard Android "SMS Backup & Restore" XML format, fetched either from
// a local file or from a Cloud Storage bucket.
package ingest

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/adjovi/momo-tracker/internal/ledger"
	"github.com/adjovi/momo-tracker/internal/parser"
)

// SMS is a single message element from the XML backup. Date is the delivery
// time in Unix milliseconds, stored as a string attribute by the backup app.
type SMS struct {
	Address string `xml:"address,attr"`
	Body    string `xml:"body,attr"`
	Date    string `xml:"date,attr"`
}

// SMSBackup is the root of the XML document.
type SMSBackup struct {
	XMLName xml.Name `xml:"smses"`
	SMS     []SMS    `xml:"sms"`
}

// MobileMoneySender matches the provider's SMS sender addresses.
const MobileMoneySender = "MobileMoney"

// ReadBackup decodes an XML backup and returns the provider messages it
// contains, pre-filtered so only texts that look like transaction
// notifications survive. Messages from other senders and promotional texts
// are dropped here, before parsing.
func ReadBackup(data []byte) ([]ledger.RawMessage, error) {
	var backup SMSBackup
	if err := xml.Unmarshal(data, &backup); err != nil {
		return nil, fmt.Errorf("failed to decode SMS backup: %w", err)
	}

	msgs := make([]ledger.RawMessage, 0, len(backup.SMS))
	for _, sms := range backup.SMS {
		if !strings.EqualFold(strings.TrimSpace(sms.Address), MobileMoneySender) {
			continue
		}
		if !parser.IsProviderMessage(sms.Body) {
			continue
		}
		ts, err := strconv.ParseInt(sms.Date, 10, 64)
		if err != nil {
			ts = 0
		}
		msgs = append(msgs, ledger.RawMessage{Body: sms.Body, Timestamp: ts})
	}
	return msgs, nil
}

// ReadBackupFile reads and decodes a backup from the local filesystem.
func ReadBackupFile(path string) ([]ledger.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup file: %w", err)
	}
	return ReadBackup(data)
}
