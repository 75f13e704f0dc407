package sepa

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ledenbeheer/internal/domain"
)

// Field limits from the pain.008 schema.
const (
	MaxNameLen       = 70
	MaxRemittanceLen = 140
	MaxMsgIDLen      = 35
	MaxBatchRows     = 10000
)

// Collection scheduling bounds relative to submission day.
const (
	MinCollectionLeadDays = 1
	MaxCollectionLeadDays = 30
)

// Amount bounds per transaction.
var (
	MinAmount = decimal.RequireFromString("0.01")
	MaxAmount = decimal.RequireFromString("999999999.99")
)

// RowIssue describes why a batch row fails validation.
type RowIssue struct {
	Invoice string
	Field   string
	Detail  string
}

func (i RowIssue) String() string {
	return fmt.Sprintf("%s: %s %s", i.Invoice, i.Field, i.Detail)
}

// ValidateRow checks one debit row against the schema limits.
func ValidateRow(row domain.BatchRow) []RowIssue {
	var issues []RowIssue
	add := func(field, detail string) {
		issues = append(issues, RowIssue{Invoice: row.InvoiceNumber, Field: field, Detail: detail})
	}
	if _, err := ValidateIBAN(row.IBAN); err != nil {
		add("iban", err.Error())
	}
	if row.BIC != "" && !ValidBIC(row.BIC) {
		add("bic", "not a valid BIC")
	}
	if row.MandateReference == "" {
		add("mandate", "missing mandate reference")
	} else if !ValidMandateReference(row.MandateReference) {
		add("mandate", "reference must be 1-35 characters of A-Z a-z 0-9 _ . -")
	}
	if row.MandateSignDate.IsZero() {
		add("mandate", "missing signature date")
	}
	if strings.TrimSpace(row.DebtorName) == "" {
		add("debtor", "missing account holder name")
	} else if len(SanitizeText(row.DebtorName, 0)) > MaxNameLen {
		add("debtor", "name exceeds 70 characters after charset filtering")
	}
	if len(SanitizeText(remittanceText(row), 0)) > MaxRemittanceLen {
		add("remittance", "description exceeds 140 characters")
	}
	if row.Amount.LessThan(MinAmount) {
		add("amount", "below minimum of 0.01")
	}
	if row.Amount.GreaterThan(MaxAmount) {
		add("amount", "exceeds scheme maximum")
	}
	switch row.SequenceType {
	case domain.SequenceFirst, domain.SequenceRecurring, domain.SequenceOneOff, domain.SequenceFinal:
	default:
		add("sequence", fmt.Sprintf("unknown sequence type %q", row.SequenceType))
	}
	return issues
}

// ValidMandateReference reports whether ref fits the scheme's mandate
// identifier shape.
func ValidMandateReference(ref string) bool {
	if ref == "" || len(ref) > MaxMsgIDLen {
		return false
	}
	for _, r := range ref {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '.', r == '-':
		default:
			return false
		}
	}
	return true
}

// ValidateCollectionDate enforces the T+1..T+30 window and rejects
// weekends. TARGET2 closing days beyond weekends are the bank's
// problem and roll server-side.
func ValidateCollectionDate(submission, collection time.Time) error {
	s := truncateDay(submission)
	c := truncateDay(collection)
	days := int(c.Sub(s).Hours() / 24)
	if days < MinCollectionLeadDays {
		return fmt.Errorf("%w: collection date must be at least %d day after submission", domain.ErrInvalidInput, MinCollectionLeadDays)
	}
	if days > MaxCollectionLeadDays {
		return fmt.Errorf("%w: collection date more than %d days out", domain.ErrInvalidInput, MaxCollectionLeadDays)
	}
	if wd := c.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return fmt.Errorf("%w: collection date falls on a weekend", domain.ErrInvalidInput)
	}
	return nil
}

// NextCollectionDate returns the first valid collection date at least
// leadDays after the given submission day, rolled past weekends.
func NextCollectionDate(submission time.Time, leadDays int) time.Time {
	if leadDays < MinCollectionLeadDays {
		leadDays = MinCollectionLeadDays
	}
	d := truncateDay(submission).AddDate(0, 0, leadDays)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// ValidateCreditorID checks a Dutch creditor identifier ("incassant
// ID"), e.g. NL98ZZZ999999990000. The mod-97 check skips the business
// code at positions 5-7.
func ValidateCreditorID(id string) error {
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(id), " ", ""))
	if len(s) < 8 {
		return fmt.Errorf("%w: creditor id too short", domain.ErrInvalidInput)
	}
	if !isUpperAlpha(s[0]) || !isUpperAlpha(s[1]) || !isDigit(s[2]) || !isDigit(s[3]) {
		return fmt.Errorf("%w: creditor id must start with country and check digits", domain.ErrInvalidInput)
	}
	national := s[7:]
	if mod97(national+s[:4]) != 1 {
		return fmt.Errorf("%w: creditor id checksum failed", domain.ErrInvalidInput)
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
