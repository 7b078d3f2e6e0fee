package domain

import "time"

// TransactionType is the closed set of transaction categories the provider's
// notification dialects describe. A Transaction never carries an unknown type;
// unrecognized messages produce no record at all.
type TransactionType string

const (
	TypeTransferSent     TransactionType = "transfer_sent"
	TypeTransferReceived TransactionType = "transfer_received"
	TypeWithdrawal       TransactionType = "withdrawal"
	TypeDeposit          TransactionType = "deposit"
	TypePayment          TransactionType = "payment"
	TypePaymentBundle    TransactionType = "payment_bundle"
	TypePaymentBill      TransactionType = "payment_bill"
	TypePaymentP2M       TransactionType = "payment_p2m"
	TypeUEMOASent        TransactionType = "uemoa_sent"
	TypeUEMOAReceived    TransactionType = "uemoa_received"
)

// Sentinel values substituted when a field cannot be extracted from the text.
const (
	UnknownTransactionID = "UNKNOWN"
	UnknownCounterparty  = "Inconnu"
)

// Transaction is one ledger entry reconstructed from a single provider SMS.
// Records are immutable after creation; the ledger only ever adds, deletes or
// re-sorts them.
type Transaction struct {
	// ID is stable across re-parses of the same message text: the provider's
	// transaction id when one was extracted, else a deterministic composite of
	// the message hash and the resolved date.
	ID string `json:"id"`

	Type    TransactionType `json:"type"`
	Amount  float64         `json:"amount"`
	Fee     float64         `json:"fee"`
	Balance float64         `json:"balance"`

	// Counterparty is the display name of the other party, falling back to a
	// type-specific default or UnknownCounterparty.
	Counterparty      string `json:"counterparty"`
	CounterpartyPhone string `json:"counterpartyPhone,omitempty"`

	Date      time.Time `json:"date"`
	Reference string    `json:"reference,omitempty"`

	// TransactionID is the provider-assigned identifier, or
	// UnknownTransactionID when the text carried none.
	TransactionID string `json:"transactionId"`

	// RawMessage preserves the source text byte-for-byte for audit.
	RawMessage string `json:"rawMessage"`
}

// IsOutgoing reports whether the transaction moves money out of the account.
func (t TransactionType) IsOutgoing() bool {
	switch t {
	case TypeTransferSent, TypeWithdrawal, TypePayment, TypePaymentBundle,
		TypePaymentBill, TypePaymentP2M, TypeUEMOASent:
		return true
	}
	return false
}

// IsIncoming reports whether the transaction moves money into the account.
func (t TransactionType) IsIncoming() bool {
	switch t {
	case TypeTransferReceived, TypeDeposit, TypeUEMOAReceived:
		return true
	}
	return false
}

// Valid reports whether t is one of the enumerated types.
func (t TransactionType) Valid() bool {
	return t.IsOutgoing() || t.IsIncoming()
}

// TypeLabels maps each type to its French display label, as shown to the user.
var TypeLabels = map[TransactionType]string{
	TypeTransferSent:     "Transfert envoyé",
	TypeTransferReceived: "Transfert reçu",
	TypeWithdrawal:       "Retrait",
	TypeDeposit:          "Dépôt",
	TypePayment:          "Paiement",
	TypePaymentBundle:    "Forfait MTN",
	TypePaymentBill:      "Facture",
	TypePaymentP2M:       "Paiement P2M",
	TypeUEMOASent:        "Envoi UEMOA",
	TypeUEMOAReceived:    "Reçu UEMOA",
}

// Label returns the French display label for t, or the raw value for an
// unmapped type.
func (t TransactionType) Label() string {
	if l, ok := TypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// Stats aggregates a ledger for the dashboard.
type Stats struct {
	TotalSent        float64 `json:"totalSent"`
	TotalReceived    float64 `json:"totalReceived"`
	TotalFees        float64 `json:"totalFees"`
	CurrentBalance   float64 `json:"currentBalance"`
	TransactionCount int     `json:"transactionCount"`
	SentCount        int     `json:"sentCount"`
	ReceivedCount    int     `json:"receivedCount"`
}
