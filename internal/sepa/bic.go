package sepa

import "strings"

// FallbackBIC is used for debtor agents whose BIC cannot be derived.
// Since the 2016 SEPA regulation the debtor BIC is optional for Dutch
// collections, but some banks still reject files without one.
const FallbackBIC = "INGBNL2A"

// nlBankBICs maps Dutch bank codes to their primary BIC.
var nlBankBICs = map[string]string{
	"ABNA": "ABNANL2A",
	"ASNB": "ASNBNL21",
	"BUNQ": "BUNQNL2A",
	"INGB": "INGBNL2A",
	"KNAB": "KNABNL2H",
	"RABO": "RABONL2U",
	"RBRB": "RBRBNL21",
	"SNSB": "SNSBNL2A",
	"TRIO": "TRIONL2U",
}

// DeriveBIC resolves the BIC from a Dutch IBAN's bank code. Returns
// an empty string when unknown so callers can fall back or ask.
func DeriveBIC(iban string) string {
	return nlBankBICs[BankCode(iban)]
}

// ValidBIC performs a structural BIC/SWIFT check (8 or 11 characters).
func ValidBIC(bic string) bool {
	s := strings.ToUpper(strings.TrimSpace(bic))
	if len(s) != 8 && len(s) != 11 {
		return false
	}
	for i := 0; i < 6; i++ {
		if !isUpperAlpha(s[i]) {
			return false
		}
	}
	for i := 6; i < len(s); i++ {
		if !isUpperAlpha(s[i]) && !isDigit(s[i]) {
			return false
		}
	}
	return true
}
