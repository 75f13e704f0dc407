package sepa

import (
	"fmt"
	"strings"

	"ledenbeheer/internal/domain"
)

// ibanLengths maps country codes to their fixed IBAN length.
var ibanLengths = map[string]int{
	"AT": 20, "BE": 16, "CH": 21, "DE": 22, "DK": 18, "ES": 24,
	"FI": 18, "FR": 27, "GB": 22, "IE": 22, "IT": 27, "LU": 20,
	"NL": 18, "NO": 15, "PL": 28, "PT": 25, "SE": 24,
}

// NormalizeIBAN uppercases and strips spaces.
func NormalizeIBAN(iban string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(iban), " ", ""))
}

// ValidateIBAN checks structure and the ISO 13616 mod-97 checksum and
// returns the normalized form.
func ValidateIBAN(iban string) (string, error) {
	s := NormalizeIBAN(iban)
	if len(s) < 15 || len(s) > 34 {
		return "", fmt.Errorf("%w: length %d", domain.ErrInvalidIBAN, len(s))
	}
	if !isUpperAlpha(s[0]) || !isUpperAlpha(s[1]) {
		return "", fmt.Errorf("%w: missing country prefix", domain.ErrInvalidIBAN)
	}
	if !isDigit(s[2]) || !isDigit(s[3]) {
		return "", fmt.Errorf("%w: malformed check digits", domain.ErrInvalidIBAN)
	}
	country := s[:2]
	if want, ok := ibanLengths[country]; ok && len(s) != want {
		return "", fmt.Errorf("%w: %s IBAN must be %d characters", domain.ErrInvalidIBAN, country, want)
	}
	for i := 4; i < len(s); i++ {
		if !isUpperAlpha(s[i]) && !isDigit(s[i]) {
			return "", fmt.Errorf("%w: invalid character %q", domain.ErrInvalidIBAN, s[i])
		}
	}
	if mod97(s[4:]+s[:4]) != 1 {
		return "", fmt.Errorf("%w: checksum failed", domain.ErrInvalidIBAN)
	}
	return s, nil
}

// mod97 computes the rearranged IBAN remainder without big integers.
func mod97(s string) int {
	rem := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isDigit(c) {
			rem = (rem*10 + int(c-'0')) % 97
		} else {
			v := int(c-'A') + 10
			rem = (rem*100 + v) % 97
		}
	}
	return rem
}

func isUpperAlpha(c byte) bool { return c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool      { return c >= '0' && c <= '9' }

// BankCode extracts the four-letter bank identifier from a Dutch IBAN.
func BankCode(iban string) string {
	s := NormalizeIBAN(iban)
	if len(s) < 8 || !strings.HasPrefix(s, "NL") {
		return ""
	}
	return s[4:8]
}
