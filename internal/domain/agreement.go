package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AgreementStatus enumerates periodic donation agreement states.
type AgreementStatus string

const (
	AgreementDraft     AgreementStatus = "Draft"
	AgreementActive    AgreementStatus = "Active"
	AgreementCompleted AgreementStatus = "Completed"
	AgreementCancelled AgreementStatus = "Cancelled"
)

// AgreementType distinguishes how the agreement was concluded.
type AgreementType string

const (
	AgreementNotarial AgreementType = "Notarial"
	AgreementPrivate  AgreementType = "Private Written"
)

// PaymentFrequency enumerates agreement payment rhythms.
type PaymentFrequency string

const (
	PayMonthly   PaymentFrequency = "Monthly"
	PayQuarterly PaymentFrequency = "Quarterly"
	PayAnnually  PaymentFrequency = "Annually"
)

// Divisor returns how many payments make up one year.
func (f PaymentFrequency) Divisor() int {
	switch f {
	case PayMonthly:
		return 12
	case PayQuarterly:
		return 4
	default:
		return 1
	}
}

// ANBIMinimumAgreementYears is the duration a periodic agreement must
// run to qualify for full deductibility.
const ANBIMinimumAgreementYears = 5

// PeriodicAgreement is a multi-year donation commitment.
type PeriodicAgreement struct {
	ID               string
	Number           string // PDA-<year>-<seq>
	Donor            string
	DonorName        string
	AnnualAmount     decimal.Decimal
	PaymentFrequency PaymentFrequency
	PaymentAmount    decimal.Decimal
	PaymentMethod    PaymentMethod
	SEPAMandate      string
	AgreementType    AgreementType
	AgreementDate    time.Time
	StartDate        time.Time
	EndDate          time.Time
	DurationYears    int
	Status           AgreementStatus
	TotalDonated     decimal.Decimal
	DonationsCount   int
	CancelReason     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ANBIQualifying reports whether the agreement runs long enough for
// full deductibility.
func (a PeriodicAgreement) ANBIQualifying() bool {
	return a.DurationYears >= ANBIMinimumAgreementYears
}

// ExpectedTotal is the committed amount over the agreement duration.
func (a PeriodicAgreement) ExpectedTotal() decimal.Decimal {
	return a.AnnualAmount.Mul(decimal.NewFromInt(int64(a.DurationYears)))
}

// PerPaymentAmount splits the annual amount across the frequency,
// rounded to two decimals.
func (a PeriodicAgreement) PerPaymentAmount() decimal.Decimal {
	return a.AnnualAmount.Div(decimal.NewFromInt(int64(a.PaymentFrequency.Divisor()))).Round(2)
}

// DaysUntilExpiry returns whole days between at and the end date.
func (a PeriodicAgreement) DaysUntilExpiry(at time.Time) int {
	return int(a.EndDate.Sub(at).Hours() / 24)
}

// AgreementNumber builds the canonical number for the year's n-th
// agreement.
func AgreementNumber(year, seq int) string {
	return fmt.Sprintf("PDA-%d-%03d", year, seq)
}

// AgreementStats aggregates the agreement book per status, type and
// payment frequency. AnnualTotal counts active agreements only.
type AgreementStats struct {
	Count       int
	ByStatus    map[AgreementStatus]int
	ByType      map[AgreementType]int
	ByFrequency map[PaymentFrequency]int
	AnnualTotal decimal.Decimal
}
