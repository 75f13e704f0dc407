package domain

import "time"

// JobType enumerates supported background job categories.
type JobType string

const (
	JobTypeInvoiceRun       JobType = "invoice_run"
	JobTypeOverdueSweep     JobType = "overdue_sweep"
	JobTypeMemberStatusRun  JobType = "member_status_run"
	JobTypeAmendmentApply   JobType = "amendment_apply"
	JobTypeMandateScan      JobType = "mandate_scan"
	JobTypeAgreementSweep   JobType = "agreement_sweep"
	JobTypeBatchDraft       JobType = "batch_draft"
	JobTypeBatchGenerate    JobType = "batch_generate"
	JobTypeTerminationRun   JobType = "termination_run"
	JobTypeAccountingSync   JobType = "accounting_sync"
	JobTypeReconcile        JobType = "reconcile"
	JobTypePaymentCheck     JobType = "payment_check"
	JobTypeNotifyDispatch   JobType = "notify_dispatch"
	JobTypeStatsRefresh     JobType = "stats_refresh"
	JobTypeComplianceReport JobType = "compliance_report"
	JobTypeAnbiExport       JobType = "anbi_export"
	JobTypeRenewalReminders JobType = "renewal_reminders"
	JobTypeConsentRequests  JobType = "consent_requests"
	JobTypeCleanup          JobType = "cleanup"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Job encapsulates one unit of asynchronous work claimed by the worker.
type Job struct {
	ID           string
	Type         JobType
	Status       JobStatus
	PayloadJSON  []byte
	ResultJSON   []byte
	Attempts     int
	MaxAttempts  int
	RunAfter     time.Time
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Retryable reports whether a failed attempt may be claimed again.
func (j Job) Retryable() bool {
	max := j.MaxAttempts
	if max <= 0 {
		max = 3
	}
	return j.Attempts < max
}
