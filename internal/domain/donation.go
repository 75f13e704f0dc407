package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DonorType distinguishes individual from organisational donors.
type DonorType string

const (
	DonorIndividual   DonorType = "Individual"
	DonorOrganization DonorType = "Organization"
)

// Donor is a (potential) giver, member or not.
type Donor struct {
	ID                 string
	Name               string
	Type               DonorType
	Email              string
	BSN                string // encrypted at rest; repositories return it masked
	RSIN               string
	IdentityVerified   bool
	VerificationMethod string
	VerifiedAt         *time.Time
	ANBIConsent        bool
	ANBIConsentAt      *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TaxID returns the identifier relevant for the donor type.
func (d Donor) TaxID() string {
	if d.Type == DonorOrganization {
		return d.RSIN
	}
	return d.BSN
}

// DonationStatus enumerates giving patterns.
type DonationStatus string

const (
	DonationOneTime   DonationStatus = "One-time"
	DonationRecurring DonationStatus = "Recurring"
	DonationPromised  DonationStatus = "Promised"
)

// DonationPurpose enumerates earmarking categories.
type DonationPurpose string

const (
	PurposeGeneral      DonationPurpose = "General"
	PurposeCampaign     DonationPurpose = "Campaign"
	PurposeChapter      DonationPurpose = "Chapter"
	PurposeSpecificGoal DonationPurpose = "Specific Goal"
)

// ANBIMinimumReportableAmount is the default threshold above which
// agreement-backed donations are reported to the Belastingdienst.
var ANBIMinimumReportableAmount = decimal.NewFromInt(500)

// Donation is a single gift.
type Donation struct {
	ID                  string
	Donor               string
	Date                time.Time
	Amount              decimal.Decimal
	PaymentMethod       PaymentMethod
	Status              DonationStatus
	Purpose             DonationPurpose
	CampaignRef         string
	ChapterRef          string
	GoalDescription     string
	PeriodicAgreement   string
	ANBIAgreementNumber string
	ANBIAgreementDate   *time.Time
	Reportable          bool
	SEPAMandate         string
	BankReference       string
	CountryCode         string
	Paid                bool
	PaidAt              *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// DonationSum pairs a count with a decimal total for aggregates.
type DonationSum struct {
	Count int
	Total decimal.Decimal
}

// EarmarkingSummary describes where the donation is destined.
func (d Donation) EarmarkingSummary() string {
	switch d.Purpose {
	case PurposeCampaign:
		return "Campaign: " + d.CampaignRef
	case PurposeChapter:
		return "Chapter: " + d.ChapterRef
	case PurposeSpecificGoal:
		goal := d.GoalDescription
		if len(goal) > 50 {
			goal = goal[:50] + "..."
		}
		return "Specific Goal: " + goal
	default:
		return "General Fund"
	}
}
