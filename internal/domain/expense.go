package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseOrganization scopes an expense claim to a chapter or team.
type ExpenseOrganization string

const (
	ExpenseOrgChapter ExpenseOrganization = "Chapter"
	ExpenseOrgTeam    ExpenseOrganization = "Team"
)

// ExpenseStatus enumerates expense claim states.
type ExpenseStatus string

const (
	ExpenseDraft      ExpenseStatus = "Draft"
	ExpenseSubmitted  ExpenseStatus = "Submitted"
	ExpenseApproved   ExpenseStatus = "Approved"
	ExpenseRejected   ExpenseStatus = "Rejected"
	ExpenseReimbursed ExpenseStatus = "Reimbursed"
)

// Expense is a volunteer reimbursement claim.
type Expense struct {
	ID           string
	Volunteer    string
	OrgType      ExpenseOrganization
	OrgRef       string // chapter or team id
	Category     string
	Description  string
	Amount       decimal.Decimal
	ExpenseDate  time.Time
	Status       ExpenseStatus
	ApprovedBy   string
	ApprovedAt   *time.Time
	RejectReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
