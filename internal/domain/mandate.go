package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MandateStatus enumerates SEPA mandate states.
type MandateStatus string

const (
	MandateDraft     MandateStatus = "Draft"
	MandateActive    MandateStatus = "Active"
	MandateSuspended MandateStatus = "Suspended"
	MandateCancelled MandateStatus = "Cancelled"
	MandateExpired   MandateStatus = "Expired"
)

// SequenceType enumerates SEPA direct debit sequence types.
type SequenceType string

const (
	SequenceFirst     SequenceType = "FRST"
	SequenceRecurring SequenceType = "RCUR"
	SequenceOneOff    SequenceType = "OOFF"
	SequenceFinal     SequenceType = "FNAL"
)

// MandateLapseMonths is the SEPA rule after which an unused mandate lapses.
const MandateLapseMonths = 36

// Mandate is a bank authorisation for direct debit collection.
type Mandate struct {
	ID            string
	Reference     string // M-<memberNo>-<YYYYMMDD>-<seq3>
	Member        string
	IBAN          string
	BIC           string
	AccountHolder string
	SignDate      time.Time
	ExpiryDate    *time.Time
	Status        MandateStatus
	UsageCount    int
	LastUsedAt    *time.Time
	CancelReason  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MandateReference builds the canonical mandate reference for a member's
// n-th mandate signed on the given date.
func MandateReference(memberNumber int, signDate time.Time, seq int) string {
	return fmt.Sprintf("M-%d-%s-%03d", memberNumber, signDate.Format("20060102"), seq)
}

// NextSequenceType returns the sequence type the mandate's next collection
// must carry.
func (m Mandate) NextSequenceType() SequenceType {
	if m.UsageCount == 0 {
		return SequenceFirst
	}
	return SequenceRecurring
}

// Lapsed reports whether the mandate has gone unused beyond the SEPA
// lapse window.
func (m Mandate) Lapsed(at time.Time) bool {
	last := m.SignDate
	if m.LastUsedAt != nil {
		last = *m.LastUsedAt
	}
	return last.AddDate(0, MandateLapseMonths, 0).Before(at)
}

// MandateUsage records one collection attempt against a mandate.
type MandateUsage struct {
	ID           string
	Mandate      string
	Invoice      string
	Batch        string
	Amount       decimal.Decimal
	SequenceType SequenceType
	CreatedAt    time.Time
}
