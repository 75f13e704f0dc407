package domain

import "time"

// SyncDocType names the document kinds pushed to the bookkeeping system.
type SyncDocType string

const (
	SyncDocInvoice  SyncDocType = "invoice"
	SyncDocPayment  SyncDocType = "payment"
	SyncDocDonation SyncDocType = "donation"
)

// SyncStatus enumerates bookkeeping sync states per document.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncError   SyncStatus = "error"
)

// SyncRecord tracks one document's journey into e-Boekhouden.
type SyncRecord struct {
	ID         string
	DocType    SyncDocType
	DocID      string
	MutationID int64 // remote mutation id once posted
	Status     SyncStatus
	Attempts   int
	LastError  string
	SyncedAt   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
