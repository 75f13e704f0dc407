package domain

import "time"

// MemberNumberStart seeds the member counter for fresh installs.
const MemberNumberStart = 10000

// Settings holds the singleton organisation configuration.
type Settings struct {
	ID                   string
	OrganizationName     string
	LastMemberNumber     int
	CompanyIBAN          string
	CompanyBIC           string
	CompanyAccountHolder string
	CreditorID           string
	BatchCreationDays    []int // days of month on which dues batches are cut
	CollectionLeadDays   int   // T+n between submission and collection
	BatchAutoSubmit      bool  // scheduled batches go straight to the bank
	InvoiceDueDays       int
	EnableChapters       bool
	EnablePortal         bool
	AnbiRSIN             string
	AnbiPublishedName    string
	UpdatedAt            time.Time
}

// SEPAConfigured reports whether direct debit batches can be built.
func (s Settings) SEPAConfigured() bool {
	return s.CompanyIBAN != "" && s.CreditorID != "" && s.CompanyAccountHolder != ""
}

// NextMemberNumber returns the number a new member would receive.
func (s Settings) NextMemberNumber() int {
	if s.LastMemberNumber < MemberNumberStart {
		return MemberNumberStart
	}
	return s.LastMemberNumber + 1
}
