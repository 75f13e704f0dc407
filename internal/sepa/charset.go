package sepa

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deaccent decomposes characters and drops combining marks, so that
// "Müller-Lüdenscheidt" survives as "Muller-Ludenscheidt".
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// allowedPunct is the EPC best-practice character set beyond
// alphanumerics.
const allowedPunct = "/-?:().,'+ "

// SanitizeText reduces s to the SEPA character set and truncates to
// max bytes. Disallowed runes become spaces; runs of spaces collapse.
func SanitizeText(s string, max int) string {
	flat, _, err := transform.String(deaccent, s)
	if err != nil {
		flat = s
	}
	var b strings.Builder
	lastSpace := false
	for _, r := range flat {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		case r == '&':
			b.WriteString("+")
			lastSpace = false
		case strings.ContainsRune(allowedPunct, r):
			if r == ' ' {
				if lastSpace {
					continue
				}
				lastSpace = true
			} else {
				lastSpace = false
			}
			b.WriteRune(r)
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	out := strings.TrimSpace(b.String())
	if max > 0 && len(out) > max {
		out = strings.TrimSpace(out[:max])
	}
	return out
}
