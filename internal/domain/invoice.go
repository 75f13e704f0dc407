package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus enumerates invoice states.
type InvoiceStatus string

const (
	InvoiceUnpaid    InvoiceStatus = "Unpaid"
	InvoiceOverdue   InvoiceStatus = "Overdue"
	InvoicePaid      InvoiceStatus = "Paid"
	InvoiceCancelled InvoiceStatus = "Cancelled"
)

// Invoice is a dues or donation receivable for one member.
type Invoice struct {
	ID            string
	Number        string // INV-<year>-<seq>
	Member        string
	MemberName    string
	DuesSchedule  string
	Description   string
	Amount        decimal.Decimal
	Outstanding   decimal.Decimal
	Currency      string
	CoverageStart time.Time
	CoverageEnd   time.Time
	PostingDate   time.Time
	DueDate       time.Time
	PaymentMethod PaymentMethod
	Status        InvoiceStatus
	PaidAt        *time.Time
	CancelReason  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Open reports whether the invoice can still be collected.
func (i Invoice) Open() bool {
	return i.Status == InvoiceUnpaid || i.Status == InvoiceOverdue
}
