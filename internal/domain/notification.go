package domain

import "time"

// NotificationKind enumerates outbox message categories.
type NotificationKind string

const (
	NotifyWelcome          NotificationKind = "welcome"
	NotifyApplicationState NotificationKind = "application_state"
	NotifyInvoiceCreated   NotificationKind = "invoice_created"
	NotifyPaymentFailed    NotificationKind = "payment_failed"
	NotifyPrenotification  NotificationKind = "prenotification"
	NotifyTermination      NotificationKind = "termination"
	NotifyAgreementExpiry  NotificationKind = "agreement_expiry"
	NotifyMandateLapsed    NotificationKind = "mandate_lapsed"
	NotifyAmendmentState   NotificationKind = "amendment_state"
	NotifyReconcileAlert   NotificationKind = "reconcile_alert"
	NotifyRenewalReminder  NotificationKind = "renewal_reminder"
	NotifyConsentRequest   NotificationKind = "consent_request"
)

// NotificationStatus enumerates delivery states.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "Pending"
	NotificationSent    NotificationStatus = "Sent"
	NotificationFailed  NotificationStatus = "Failed"
)

// Notification is an outbox row picked up by the worker. RefType and
// RefID point back at the document that triggered the message.
type Notification struct {
	ID          string
	Kind        NotificationKind
	Member      string
	RefType     string
	RefID       string
	Recipient   string
	Subject     string
	Body        string
	Status      NotificationStatus
	Attempts    int
	LastError   string
	DedupeKey   string
	ScheduledAt time.Time
	SentAt      *time.Time
	CreatedAt   time.Time
}

// AgreementExpiryOffsets are the days-before-expiry marks at which a
// notice goes out.
var AgreementExpiryOffsets = []int{90, 60, 30}
