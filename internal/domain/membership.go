package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingPeriod enumerates membership type commitment periods.
type BillingPeriod string

const (
	BillingDaily     BillingPeriod = "Daily"
	BillingMonthly   BillingPeriod = "Monthly"
	BillingQuarterly BillingPeriod = "Quarterly"
	BillingBiannual  BillingPeriod = "Biannual"
	BillingAnnual    BillingPeriod = "Annual"
	BillingLifetime  BillingPeriod = "Lifetime"
	BillingCustom    BillingPeriod = "Custom"
)

// Months returns the period length in months, 0 for Daily and Lifetime.
// Custom periods carry their length on the membership type.
func (p BillingPeriod) Months() int {
	switch p {
	case BillingMonthly:
		return 1
	case BillingQuarterly:
		return 3
	case BillingBiannual:
		return 6
	case BillingAnnual:
		return 12
	}
	return 0
}

// MembershipType defines a joinable membership category and its billing terms.
type MembershipType struct {
	ID                 string
	Name               string
	BillingPeriod      BillingPeriod
	CustomPeriodMonths int
	MinimumAmount      decimal.Decimal
	SuggestedAmount    decimal.Decimal
	EnforceMinimumTerm bool // one-year minimum commitment
	Active             bool
}

// MembershipStatus enumerates membership states.
type MembershipStatus string

const (
	MembershipDraft     MembershipStatus = "Draft"
	MembershipActive    MembershipStatus = "Active"
	MembershipInactive  MembershipStatus = "Inactive"
	MembershipExpired   MembershipStatus = "Expired"
	MembershipCancelled MembershipStatus = "Cancelled"
)

// CancellationType distinguishes immediate from end-of-period cancellation.
type CancellationType string

const (
	CancelImmediate   CancellationType = "Immediate"
	CancelEndOfPeriod CancellationType = "End of Period"
)

// DefaultGracePeriodDays is applied when a membership lapses into arrears.
const DefaultGracePeriodDays = 30

// RenewalReminderDays is how far ahead of the renewal date the
// reminder goes out.
const RenewalReminderDays = 30

// Membership binds a member to a membership type for a period.
type Membership struct {
	ID                 string
	Member             string
	MembershipType     string
	StartDate          time.Time
	RenewalDate        time.Time
	Status             MembershipStatus
	AutoRenew          bool
	GraceUntil         *time.Time
	GraceReason        string
	CancellationDate   *time.Time
	CancellationType   CancellationType
	CancellationReason string
	UnpaidAmount       decimal.Decimal
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// DeriveStatus computes the status a membership should carry at the given
// date. Cancellation wins, then expiry, then arrears.
func (m Membership) DeriveStatus(at time.Time) MembershipStatus {
	if m.CancellationDate != nil && !m.CancellationDate.After(at) {
		return MembershipCancelled
	}
	if !m.RenewalDate.IsZero() && m.RenewalDate.Before(at) {
		if m.GraceUntil != nil && !m.GraceUntil.Before(at) {
			return MembershipActive
		}
		return MembershipExpired
	}
	if m.UnpaidAmount.IsPositive() {
		if m.GraceUntil != nil && !m.GraceUntil.Before(at) {
			return MembershipActive
		}
		return MembershipInactive
	}
	return MembershipActive
}

// TermEnd returns the renewal date for a membership of the given type
// starting at start. The one-year minimum commitment stretches shorter
// periods unless overridden; Lifetime memberships run practically forever.
func TermEnd(mt MembershipType, start time.Time, minimumOverridden bool) time.Time {
	enforce := mt.EnforceMinimumTerm && !minimumOverridden
	switch mt.BillingPeriod {
	case BillingLifetime:
		return start.AddDate(50, 0, 0)
	case BillingDaily:
		if enforce {
			return start.AddDate(1, 0, 0)
		}
		return start.AddDate(0, 0, 1)
	case BillingCustom:
		months := mt.CustomPeriodMonths
		if months <= 0 {
			months = 12
		}
		end := start.AddDate(0, months, 0)
		if enforce && end.Before(start.AddDate(1, 0, 0)) {
			return start.AddDate(1, 0, 0)
		}
		return end
	default:
		months := mt.BillingPeriod.Months()
		if months == 0 {
			months = 12
		}
		end := start.AddDate(0, months, 0)
		if enforce && end.Before(start.AddDate(1, 0, 0)) {
			return start.AddDate(1, 0, 0)
		}
		return end
	}
}
