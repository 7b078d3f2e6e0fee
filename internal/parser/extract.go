package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/adjovi/momo-tracker/internal/domain"
)

// Field extraction runs ordered pattern chains against the raw text: each
// field tries the format dialects the provider has used over time, oldest
// quirks last, and falls back to a documented default when nothing matches.
// Extractors are total; they never fail the overall parse.

var (
	phoneRe = regexp.MustCompile(`\((\d{10,13})\)`)

	// Amount dialects: "4000F", "5000 FCFA", "XOF 60000".
	amountSuffixRe = regexp.MustCompile(`(\d+(?:,\d+)?(?:\.\d+)?)F`)
	amountFCFARe   = regexp.MustCompile(`(?i)(\d+(?:,\d+)?(?:\.\d+)?)\s*FCFA`)
	amountXOFRe    = regexp.MustCompile(`(?i)XOF\s*(\d+(?:,\d+)?(?:\.\d+)?)`)

	feeRe = regexp.MustCompile(`(?i)Frais:\s*(\d+(?:,\d+)?(?:\.\d+)?)F`)

	// Balance dialects: "Solde:10482F", "Nouveau solde: 10557",
	// "SOLDE DISPO 48635" (ATM receipts).
	balanceSoldeRe   = regexp.MustCompile(`(?i)Solde:\s*(\d+(?:,\d+)?(?:\.\d+)?)F`)
	balanceNouveauRe = regexp.MustCompile(`(?i)Nouveau solde:\s*(\d+(?:,\d+)?(?:\.\d+)?)`)
	balanceDispoRe   = regexp.MustCompile(`(?i)SOLDE(?:\s+DISPO)?\s*(\d+(?:,\d+)?(?:\.\d+)?)`)

	dateTimeRe   = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2})`)
	dateAfterLe  = regexp.MustCompile(`le\s+(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2})`)

	// "ID de la transaction : 10994319400" vs "ID:11013738601".
	txIDLongRe  = regexp.MustCompile(`(?i)ID de la transaction\s*[:\s]\s*(\d+)`)
	txIDShortRe = regexp.MustCompile(`(?i)ID[:\s]*(\d+)`)

	referenceRe = regexp.MustCompile(`(?i)Ref(?:erence)?[:\s]+([^\s.]+)`)
)

const dateTimeLayout = "2006-01-02 15:04:05"

func extractAmount(text string) float64 {
	for _, re := range []*regexp.Regexp{amountSuffixRe, amountFCFARe, amountXOFRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			return parseNumber(m[1])
		}
	}
	return 0
}

func extractFee(text string) float64 {
	// Absent fees are the normal case, not an error.
	if m := feeRe.FindStringSubmatch(text); m != nil {
		return parseNumber(m[1])
	}
	return 0
}

func extractBalance(text string) float64 {
	for _, re := range []*regexp.Regexp{balanceSoldeRe, balanceNouveauRe, balanceDispoRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			return parseNumber(m[1])
		}
	}
	return 0
}

// extractDate finds an embedded "YYYY-MM-DD HH:MM:SS" literal. The zone is
// not carried in the text; the host's local zone applies.
func extractDate(text string) (time.Time, bool) {
	m := dateTimeRe.FindStringSubmatch(text)
	if m == nil {
		m = dateAfterLe.FindStringSubmatch(text)
	}
	if m == nil {
		return time.Time{}, false
	}

	normalized := strings.Join(strings.Fields(m[1]), " ")
	t, err := time.ParseInLocation(dateTimeLayout, normalized, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func extractTransactionID(text string) (string, bool) {
	if m := txIDLongRe.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	if m := txIDShortRe.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	return "", false
}

func extractReference(text string) string {
	if m := referenceRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func extractPhone(text string) string {
	if m := phoneRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

var (
	// ATM receipts: "... EFFECTUE A ST MICHEL .SOLDE DISPO ..." with the
	// provider's own "EFECTUE" misspelling in circulation.
	gabLocationRe = regexp.MustCompile(`(?i)EF{1,2}ECTUE A\s+(.+?)(?:\s+LE|\.|\s+SOLDE|$)`)

	// "recu un transfert de 10500FCFA de ONAFRIQ REGIONAL TRANSFER SP (...":
	// the sender name sits after the second "de".
	transferSenderRe = regexp.MustCompile(`(?i)transfert de\s+\d+(?:[.,]\d+)?\s*(?:F|FCFA|XOF)?\s+de\s+([^(.]+)`)

	counterpartyChain = []*regexp.Regexp{
		// Name between a directional marker and the phone parenthesis.
		regexp.MustCompile(`(?i)(?:de|a|à)\s+([^(]+?)\s*\(`),
		// No parenthesis: name runs up to the date literal or the fee field.
		regexp.MustCompile(`(?i)(?:de|a|à)\s+([^(\d]+?)(?:\s+\d{4}-|\s+Frais:)`),
		// Last resort for "Transfert effectue ... a ..." phrasings.
		regexp.MustCompile(`(?i)\b(?:a|à)\s+([^.]+?)(?:\.|\s+ID:)`),
	}

	// Cleanup for captures that swallowed "<amount>F de " ahead of the name.
	amountArtifactRe = regexp.MustCompile(`(?i)^\d+(?:[.,]\d+)?\s*(?:F|FCFA|XOF)?\s+de\s+`)
)

// extractCounterparty pulls the other party's display name. The chain depends
// on the classified type for the ATM dialect; when every pattern fails it
// returns a type-specific default.
func extractCounterparty(text string, typ domain.TransactionType) string {
	if typ == domain.TypeWithdrawal && strings.Contains(strings.ToUpper(text), "RETRAIT GAB") {
		if m := gabLocationRe.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}

	if m := transferSenderRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	for _, re := range counterpartyChain {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		// The generic markers can capture "1000FCFA de NAME"; keep NAME only.
		if amountArtifactRe.MatchString(name) {
			return amountArtifactRe.ReplaceAllString(name, "")
		}
		return name
	}

	switch typ {
	case domain.TypePaymentBundle:
		return "MTN BUNDLES"
	case domain.TypePaymentBill:
		return "Facture"
	case domain.TypeUEMOASent, domain.TypeUEMOAReceived:
		return "ONAFRIQ UEMOA"
	}
	return domain.UnknownCounterparty
}

// parseNumber strips thousands commas and parses the remainder; extraction
// patterns only capture digit/comma/point runs so failures map to zero.
func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}
