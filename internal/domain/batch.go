package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchStatus enumerates direct debit batch states.
type BatchStatus string

const (
	BatchDraft              BatchStatus = "Draft"
	BatchValidated          BatchStatus = "Validated"
	BatchGenerated          BatchStatus = "Generated"
	BatchSubmitted          BatchStatus = "Submitted"
	BatchProcessed          BatchStatus = "Processed"
	BatchPartiallyProcessed BatchStatus = "Partially Processed"
	BatchFailed             BatchStatus = "Failed"
	BatchCancelled          BatchStatus = "Cancelled"
)

// Editable reports whether batch rows may still change.
func (s BatchStatus) Editable() bool {
	return s == BatchDraft || s == BatchValidated
}

// RowStatus enumerates per-collection outcomes inside a batch.
type RowStatus string

const (
	RowPending   RowStatus = "Pending"
	RowCollected RowStatus = "Collected"
	RowFailed    RowStatus = "Failed"
)

// Batch groups direct debit collections for one collection date.
type Batch struct {
	ID           string
	Name         string // DD-<date>-<seq>
	BatchDate    time.Time
	Description  string
	SequenceType SequenceType
	Currency     string
	Status       BatchStatus
	TotalAmount  decimal.Decimal
	EntryCount   int
	XMLKey       string // file store key of the generated pain.008 document
	SubmittedAt  *time.Time
	Rows         []BatchRow
	Log          []BatchLogEntry
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BatchRow is one invoice collection inside a batch.
type BatchRow struct {
	ID               string
	Batch            string
	Invoice          string
	InvoiceNumber    string
	Member           string
	MemberName       string
	Amount           decimal.Decimal
	Currency         string
	IBAN             string
	BIC              string
	DebtorName       string // account holder, not necessarily the member name
	MandateReference string
	MandateSignDate  time.Time
	SequenceType     SequenceType
	Status           RowStatus
	ResultCode       string
	ResultMessage    string
}

// BatchLogEntry is one timestamped processing note.
type BatchLogEntry struct {
	Timestamp time.Time
	Message   string
}

// Totals recomputes the control sum and entry count from the rows,
// rounded to two decimals.
func (b *Batch) Totals() {
	sum := decimal.Zero
	for _, row := range b.Rows {
		sum = sum.Add(row.Amount)
	}
	b.TotalAmount = sum.Round(2)
	b.EntryCount = len(b.Rows)
}
