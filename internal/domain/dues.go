package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingFrequency enumerates dues schedule collection rhythms.
type BillingFrequency string

const (
	FrequencyDaily     BillingFrequency = "Daily"
	FrequencyWeekly    BillingFrequency = "Weekly"
	FrequencyMonthly   BillingFrequency = "Monthly"
	FrequencyQuarterly BillingFrequency = "Quarterly"
	FrequencyAnnual    BillingFrequency = "Annual"
)

// DuesStatus enumerates dues schedule states.
type DuesStatus string

const (
	DuesActive    DuesStatus = "Active"
	DuesGrace     DuesStatus = "Grace"
	DuesSuspended DuesStatus = "Suspended"
	DuesPaused    DuesStatus = "Paused"
	DuesCancelled DuesStatus = "Cancelled"
)

const (
	// DefaultInvoiceLeadDays is how far ahead of the next invoice date
	// invoices are generated.
	DefaultInvoiceLeadDays = 30
	// MaxUnpaidInvoices caps how many open invoices a member may
	// accumulate before generation is skipped.
	MaxUnpaidInvoices = 5
	// SuspendAfterFailures is the consecutive collection failure count
	// that suspends a schedule.
	SuspendAfterFailures = 3
	// FailureGraceDays is the grace window granted on a non-final
	// collection failure.
	FailureGraceDays = 14
)

// DuesSchedule is the recurring billing record for one member.
type DuesSchedule struct {
	ID                  string
	Member              string
	Membership          string
	MembershipType      string
	BillingFrequency    BillingFrequency
	DuesRate            decimal.Decimal
	NextInvoiceDate     time.Time
	InvoiceLeadDays     int
	CoverageStart       time.Time // of the last generated invoice
	CoverageEnd         time.Time
	LastInvoiceDate     *time.Time
	ConsecutiveFailures int
	GraceUntil          *time.Time
	Status              DuesStatus
	PaymentMethod       PaymentMethod
	ActiveMandate       string
	AutoGenerate        bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// DueForGeneration reports whether an invoice should be generated at the
// given date, honouring the lead window.
func (s DuesSchedule) DueForGeneration(at time.Time) bool {
	if !s.AutoGenerate || s.Status != DuesActive {
		return false
	}
	lead := s.InvoiceLeadDays
	if lead <= 0 {
		lead = DefaultInvoiceLeadDays
	}
	generateFrom := s.NextInvoiceDate.AddDate(0, 0, -lead)
	return !at.Before(generateFrom)
}

// NextPeriod returns the coverage window starting at from for the
// schedule's frequency. The end date is inclusive.
func (s DuesSchedule) NextPeriod(from time.Time) (time.Time, time.Time) {
	switch s.BillingFrequency {
	case FrequencyDaily:
		return from, from
	case FrequencyWeekly:
		return from, from.AddDate(0, 0, 6)
	case FrequencyQuarterly:
		return from, from.AddDate(0, 3, -1)
	case FrequencyAnnual:
		return from, from.AddDate(1, 0, -1)
	default:
		return from, from.AddDate(0, 1, -1)
	}
}
