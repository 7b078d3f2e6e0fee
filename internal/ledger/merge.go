package ledger

import (
	"sort"

	"github.com/adjovi/momo-tracker/internal/domain"
)

// MergeNew returns existing extended with the members of incoming whose ids are
// not already present, sorted by date descending. Neither input slice is
// mutated. The second return value is the number of transactions actually
// added.
func MergeNew(existing, incoming []domain.Transaction) ([]domain.Transaction, int) {
	seen := make(map[string]struct{}, len(existing))
	for _, tx := range existing {
		seen[tx.ID] = struct{}{}
	}

	merged := make([]domain.Transaction, 0, len(existing)+len(incoming))
	added := 0
	for _, tx := range incoming {
		if _, dup := seen[tx.ID]; dup {
			continue
		}
		seen[tx.ID] = struct{}{}
		merged = append(merged, tx)
		added++
	}
	merged = append(merged, existing...)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.After(merged[j].Date)
	})

	return merged, added
}

// ComputeStats aggregates transactions for the dashboard. The current balance
// is taken from the most recent transaction, so transactions must already be
// sorted date descending (the order MergeNew and the store maintain).
func ComputeStats(transactions []domain.Transaction) domain.Stats {
	var s domain.Stats
	s.TransactionCount = len(transactions)

	for _, tx := range transactions {
		s.TotalFees += tx.Fee
		switch {
		case tx.Type.IsOutgoing():
			s.TotalSent += tx.Amount
			s.SentCount++
		case tx.Type.IsIncoming():
			s.TotalReceived += tx.Amount
			s.ReceivedCount++
		}
	}

	if len(transactions) > 0 {
		s.CurrentBalance = transactions[0].Balance
	}
	return s
}
