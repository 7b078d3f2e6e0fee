// Package parser converts MTN Mobile Money notification SMS text into
// structured ledger transactions. Parsing is a pure function of the message
// text plus an optional delivery timestamp: no I/O, no shared state, safe for
// concurrent callers.
package parser

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/adjovi/momo-tracker/internal/domain"
)

// ErrUnrecognizedType is returned for text that matches no known notification
// phrasing. It is the only first-class parse failure; missing fields degrade
// to defaults instead.
var ErrUnrecognizedType = errors.New("unrecognized transaction type")

// Parse converts one raw notification into a Transaction. deliveryTS is the
// delivery time in unix-epoch milliseconds and is only consulted when the
// text embeds no date literal; pass 0 when unknown, in which case the
// processing time applies.
func Parse(message string, deliveryTS int64) (*domain.Transaction, error) {
	typ, ok := Classify(message)
	if !ok {
		return nil, ErrUnrecognizedType
	}

	// Extractors run against the raw text: casing and punctuation matter for
	// the parenthesis and colon patterns, so lower-casing stays local to the
	// classifier.
	date, ok := extractDate(message)
	if !ok {
		if deliveryTS > 0 {
			date = time.UnixMilli(deliveryTS)
		} else {
			date = time.Now()
		}
	}

	providerID, hasProviderID := extractTransactionID(message)

	tx := &domain.Transaction{
		ID:                deriveID(message, date, providerID, hasProviderID),
		Type:              typ,
		Amount:            extractAmount(message),
		Fee:               extractFee(message),
		Balance:           extractBalance(message),
		Counterparty:      extractCounterparty(message, typ),
		CounterpartyPhone: extractPhone(message),
		Date:              date,
		Reference:         extractReference(message),
		TransactionID:     domain.UnknownTransactionID,
		RawMessage:        message,
	}
	if hasProviderID {
		tx.TransactionID = providerID
	}

	return tx, nil
}

// ParseAll parses a batch of raw messages, dropping unrecognized ones, and
// returns the survivors sorted by date descending.
func ParseAll(messages []string) []domain.Transaction {
	txs := make([]domain.Transaction, 0, len(messages))
	for _, m := range messages {
		tx, err := Parse(m, 0)
		if err != nil {
			continue
		}
		txs = append(txs, *tx)
	}

	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.After(txs[j].Date)
	})
	return txs
}

// deriveID produces the stable record identifier. Provider transaction ids
// are globally unique, so an extracted one is used directly; otherwise the id
// is a composite of the message hash and the resolved date, which makes
// re-parsing identical text idempotent. Never derived from randomness or
// call order: an early revision of this tracker salted ids with a per-call
// random suffix and duplicated the whole ledger on every sync.
func deriveID(message string, date time.Time, providerID string, hasProviderID bool) string {
	if hasProviderID && providerID != strconv.FormatInt(time.Now().UnixMilli(), 10) {
		return providerID
	}

	h := int64(messageHash(message))
	if h < 0 {
		h = -h
	}
	return fmt.Sprintf("hash-%d-%d", h, date.UnixMilli())
}

// messageHash is a 31x rolling hash over the message runes with int32
// wraparound.
func messageHash(message string) int32 {
	var h int32
	for _, r := range message {
		h = h*31 + int32(r)
	}
	return h
}
