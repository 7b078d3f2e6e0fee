package parser

import (
	"strings"

	"github.com/adjovi/momo-tracker/internal/domain"
)

// Literal prefixes a notification must start with to be considered at all.
// The prefix gate is the primary defense against promotional messages that
// merely mention these words mid-sentence ("Grace à ton paiement via
// MoMopay..." must not classify).
const (
	prefixWithdrawal       = "retrait "
	prefixDeposit          = "depot recu "
	prefixTransferReceived = "vous avez recu un transfert"
	prefixTransfer         = "transfert "
	prefixPayment          = "paiement "
)

// IsProviderMessage reports whether the text starts with one of the provider
// prefixes. Ingestion adapters use it to pre-filter inboxes and backups
// without running the full classifier.
func IsProviderMessage(message string) bool {
	msg := strings.ToLower(strings.TrimSpace(message))
	return strings.HasPrefix(msg, prefixWithdrawal) ||
		strings.HasPrefix(msg, prefixDeposit) ||
		strings.HasPrefix(msg, prefixTransferReceived) ||
		strings.HasPrefix(msg, prefixTransfer) ||
		strings.HasPrefix(msg, prefixPayment)
}

// Classify inspects a raw notification and returns its transaction type.
// The decision tree is evaluated top to bottom, first match wins; ok is false
// when the message matches no known phrasing. Classification works on a
// lower-cased, trimmed view and never mutates the original text, which the
// field extractors need with its original casing.
func Classify(message string) (domain.TransactionType, bool) {
	msg := strings.ToLower(strings.TrimSpace(message))

	switch {
	case strings.HasPrefix(msg, prefixWithdrawal):
		return domain.TypeWithdrawal, true

	case strings.HasPrefix(msg, prefixDeposit):
		return domain.TypeDeposit, true

	case strings.HasPrefix(msg, prefixTransferReceived):
		// "Vous avez recu un transfert ..." is either a regional UEMOA
		// transfer (ONAFRIQ operator) or an ordinary bank transfer in.
		if strings.Contains(msg, "onafriq regional") ||
			(strings.Contains(msg, "onafriq") && strings.Contains(msg, "reference:")) {
			return domain.TypeUEMOAReceived, true
		}
		return domain.TypeTransferReceived, true

	case strings.HasPrefix(msg, prefixTransfer):
		return classifyTransfer(msg)

	case strings.HasPrefix(msg, prefixPayment):
		return classifyPayment(msg), true
	}

	return "", false
}

func classifyTransfer(msg string) (domain.TransactionType, bool) {
	switch {
	// "Transfert effectue pour ..." / "Transfert ... a ..." = sent.
	case strings.Contains(msg, "transfert effectue pour"),
		strings.Contains(msg, " a "),
		strings.Contains(msg, "transfert effectue"):
		return domain.TypeTransferSent, true

	// "Transfert ... de ..." = received, possibly via the UEMOA operator.
	case strings.Contains(msg, " de "):
		if strings.Contains(msg, "onafriq") || strings.Contains(msg, "uemoa") {
			return domain.TypeUEMOAReceived, true
		}
		return domain.TypeTransferReceived, true
	}

	// A "transfert " prefix with neither direction marker is rejected rather
	// than guessed at. Deliberate: ambiguous transfer phrasing gets the strict
	// treatment, unlike "paiement " which has a generic catch-all.
	return "", false
}

func classifyPayment(msg string) domain.TransactionType {
	switch {
	// "Paiement ... a ONAFRIQ UEMOA OUT" = outbound regional transfer.
	case strings.Contains(msg, "onafriq") && strings.Contains(msg, "out"),
		strings.Contains(msg, "onafriq uemoa") && strings.Contains(msg, " a "):
		return domain.TypeUEMOASent

	// Data bundle purchase from the operator.
	case strings.Contains(msg, "mtn bundle"):
		return domain.TypePaymentBundle

	// Utility bill via the MFS DIRECT SBEE biller.
	case strings.Contains(msg, "sbee"),
		strings.Contains(msg, "mfs") && strings.Contains(msg, "direct"):
		return domain.TypePaymentBill

	// Merchant payment (P2M / LVC tags).
	case strings.Contains(msg, "p2m"), strings.Contains(msg, "lvc"):
		return domain.TypePaymentP2M
	}

	return domain.TypePayment
}
