package anbi

import (
	"fmt"
	"strings"

	"ledenbeheer/internal/domain"
)

// ElevenProof runs the Dutch "elfproef" over a nine digit number: the
// first eight digits weigh 9 down to 2 and the last weighs -1; the
// weighted sum must divide by 11. All-zero numbers are not issued.
func ElevenProof(digits string) bool {
	if len(digits) != 9 {
		return false
	}
	sum := 0
	nonzero := false
	for i := 0; i < 9; i++ {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if d != 0 {
			nonzero = true
		}
		weight := 9 - i
		if i == 8 {
			weight = -1
		}
		sum += d * weight
	}
	return nonzero && sum%11 == 0
}

// NormalizeTaxID strips spaces and dots and left-pads BSNs that were
// recorded with eight digits.
func NormalizeTaxID(s string) string {
	s = strings.NewReplacer(" ", "", ".", "", "-", "").Replace(strings.TrimSpace(s))
	if len(s) == 8 {
		s = "0" + s
	}
	return s
}

// ValidateBSN checks a citizen service number.
func ValidateBSN(s string) (string, error) {
	n := NormalizeTaxID(s)
	if len(n) != 9 {
		return "", fmt.Errorf("%w: BSN must have nine digits", domain.ErrInvalidInput)
	}
	if !ElevenProof(n) {
		return "", fmt.Errorf("%w: BSN failed the eleven proof", domain.ErrInvalidInput)
	}
	return n, nil
}

// ValidateRSIN checks an organisation's legal entity number, which
// uses the same proof as a BSN.
func ValidateRSIN(s string) (string, error) {
	n := NormalizeTaxID(s)
	if len(n) != 9 {
		return "", fmt.Errorf("%w: RSIN must have nine digits", domain.ErrInvalidInput)
	}
	if !ElevenProof(n) {
		return "", fmt.Errorf("%w: RSIN failed the eleven proof", domain.ErrInvalidInput)
	}
	return n, nil
}

// Mask hides all but the last four characters of a tax id.
func Mask(s string) string {
	if len(s) <= 4 {
		return s
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
