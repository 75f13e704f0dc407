package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MemberStatus enumerates member lifecycle states.
type MemberStatus string

const (
	MemberStatusPending    MemberStatus = "Pending"
	MemberStatusActive     MemberStatus = "Active"
	MemberStatusSuspended  MemberStatus = "Suspended"
	MemberStatusTerminated MemberStatus = "Terminated"
	MemberStatusBanned     MemberStatus = "Banned"
	MemberStatusDeceased   MemberStatus = "Deceased"
	MemberStatusExpired    MemberStatus = "Expired"
)

// ApplicationStatus tracks the review state of a membership application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "Pending"
	ApplicationApproved ApplicationStatus = "Approved"
	ApplicationRejected ApplicationStatus = "Rejected"
)

// PaymentMethod enumerates how a member settles dues.
type PaymentMethod string

const (
	PaymentMethodDirectDebit  PaymentMethod = "SEPA Direct Debit"
	PaymentMethodBankTransfer PaymentMethod = "Bank Transfer"
	PaymentMethodCash         PaymentMethod = "Cash"
)

const (
	// MinMembershipAge is the youngest age an applicant may join without
	// guardian consent.
	MinMembershipAge = 16
	// MinVolunteerAge is the youngest age a member may volunteer.
	MinVolunteerAge = 12
	// MaxPlausibleAge guards against birth date typos.
	MaxPlausibleAge = 120
)

// Member represents a (prospective) association member.
type Member struct {
	ID            string
	MemberNumber  int // assigned from the settings counter on approval, 0 while pending
	ApplicationID string
	FirstName     string
	LastName      string
	Email         string
	BirthDate     time.Time
	PostalCode    string
	City          string
	Street        string
	CountryCode   string // ISO 3166-1 alpha-2, tagged from the submitting connection when known
	Status        MemberStatus
	AppStatus     ApplicationStatus
	PaymentMethod PaymentMethod
	IBAN          string
	BIC           string
	AccountHolder string
	Chapter       string
	FeeOverride   *FeeOverride
	ReviewedBy    string
	ReviewedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FeeOverride records a manager-set deviation from the membership type rate.
type FeeOverride struct {
	Amount decimal.Decimal
	Reason string
	SetBy  string
	SetAt  time.Time
}

// Application is a portal submission awaiting review. Approval creates
// the member, membership, dues schedule and mandate in one step.
type Application struct {
	ID             string
	Number         int // sequential, assigned on submission
	FirstName      string
	LastName       string
	Email          string
	BirthDate      time.Time
	PostalCode     string
	City           string
	Street         string
	CountryCode    string
	MembershipType string
	PaymentMethod  PaymentMethod
	IBAN           string
	BIC            string
	AccountHolder  string
	CustomAmount   decimal.Decimal // zero means the type's suggested amount
	Chapter        string          // suggested from postal code, review may override
	Status         ApplicationStatus
	RejectReason   string
	ReviewedBy     string
	ReviewedAt     *time.Time
	MemberID       string // set once approved
	SubmittedAt    time.Time
}

// FullName joins first and last name for display and SEPA debtor fields.
func (m Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// DisplayID renders the public application reference, APP-00042 style.
func (a Application) DisplayID() string {
	return fmt.Sprintf("APP-%05d", a.Number)
}

// Age returns the member's age in whole years at the given date.
func (m Member) Age(at time.Time) int {
	if m.BirthDate.IsZero() {
		return 0
	}
	years := at.Year() - m.BirthDate.Year()
	anniversary := m.BirthDate.AddDate(years, 0, 0)
	if anniversary.After(at) {
		years--
	}
	return years
}

// IsTerminalStatus reports whether the status is one that derived-status
// synchronisation must never overwrite.
func (s MemberStatus) IsTerminalStatus() bool {
	switch s {
	case MemberStatusSuspended, MemberStatusTerminated, MemberStatusBanned, MemberStatusDeceased, MemberStatusExpired:
		return true
	}
	return false
}
