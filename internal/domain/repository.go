package domain

import (
	"context"
	"time"
)

// MemberRepository defines access methods for members and applications.
type MemberRepository interface {
	Create(ctx context.Context, m *Member) error
	GetByID(ctx context.Context, id string) (*Member, error)
	GetByNumber(ctx context.Context, number int) (*Member, error)
	GetByEmail(ctx context.Context, email string) (*Member, error)
	Update(ctx context.Context, m *Member) error
	UpdateStatus(ctx context.Context, id string, status MemberStatus) error
	List(ctx context.Context, f MemberFilter) ([]Member, error)
	ListByChapter(ctx context.Context, chapter string) ([]Member, error)
	NextMemberNumber(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context) (map[MemberStatus]int, error)
	ListDirectDebitWithoutMandate(ctx context.Context, limit int) ([]Member, error)
}

// MemberFilter narrows member listings.
type MemberFilter struct {
	Status  MemberStatus
	Chapter string
	Search  string
	Limit   int
	Offset  int
}

// ApplicationRepository persists membership applications prior to
// approval.
type ApplicationRepository interface {
	Create(ctx context.Context, a *Application) error
	GetByID(ctx context.Context, id string) (*Application, error)
	Update(ctx context.Context, a *Application) error
	ListByStatus(ctx context.Context, status ApplicationStatus, limit int) ([]Application, error)
}

// MembershipRepository persists membership records and types.
type MembershipRepository interface {
	Create(ctx context.Context, m *Membership) error
	GetByID(ctx context.Context, id string) (*Membership, error)
	GetActiveByMember(ctx context.Context, memberID string) (*Membership, error)
	ListByMember(ctx context.Context, memberID string) ([]Membership, error)
	Update(ctx context.Context, m *Membership) error
	ListExpiring(ctx context.Context, before time.Time, limit int) ([]Membership, error)
	ListRenewingBetween(ctx context.Context, from, to time.Time, limit int) ([]Membership, error)
	GetType(ctx context.Context, name string) (*MembershipType, error)
	ListTypes(ctx context.Context) ([]MembershipType, error)
	SaveType(ctx context.Context, t *MembershipType) error
}

// DuesScheduleRepository persists dues schedules.
type DuesScheduleRepository interface {
	Create(ctx context.Context, s *DuesSchedule) error
	GetByID(ctx context.Context, id string) (*DuesSchedule, error)
	GetActiveByMember(ctx context.Context, memberID string) (*DuesSchedule, error)
	Update(ctx context.Context, s *DuesSchedule) error
	ListDue(ctx context.Context, at time.Time, limit int) ([]DuesSchedule, error)
	ListByStatus(ctx context.Context, status DuesStatus, limit int) ([]DuesSchedule, error)
}

// InvoiceRepository persists invoices.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id string) (*Invoice, error)
	GetByNumber(ctx context.Context, number string) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	ListByMember(ctx context.Context, memberID string, limit int) ([]Invoice, error)
	ListByStatus(ctx context.Context, status InvoiceStatus, limit int) ([]Invoice, error)
	ListOpenForCollection(ctx context.Context, limit int) ([]Invoice, error)
	CountOpenByMember(ctx context.Context, memberID string) (int, error)
	ListCoverage(ctx context.Context, scheduleID string, from, to time.Time) ([]Invoice, error)
	NextSequence(ctx context.Context, year int) (int, error)
	MarkOverdue(ctx context.Context, before time.Time) (int, error)
}

// MandateRepository persists SEPA mandates and their usage trail.
type MandateRepository interface {
	Create(ctx context.Context, m *Mandate) error
	GetByID(ctx context.Context, id string) (*Mandate, error)
	GetByReference(ctx context.Context, ref string) (*Mandate, error)
	GetActiveByMember(ctx context.Context, memberID string) (*Mandate, error)
	ListByMember(ctx context.Context, memberID string) ([]Mandate, error)
	Update(ctx context.Context, m *Mandate) error
	RecordUsage(ctx context.Context, u *MandateUsage) error
	NextSequenceForDay(ctx context.Context, memberID string, day time.Time) (int, error)
	ListActive(ctx context.Context, limit int, offset int) ([]Mandate, error)
}

// BatchRepository persists direct debit batches and rows.
type BatchRepository interface {
	Create(ctx context.Context, b *Batch) error
	GetByID(ctx context.Context, id string) (*Batch, error)
	Update(ctx context.Context, b *Batch) error
	UpdateStatus(ctx context.Context, id string, status BatchStatus) error
	List(ctx context.Context, status BatchStatus, limit int) ([]Batch, error)
	AddRows(ctx context.Context, batchID string, rows []BatchRow) error
	ListRows(ctx context.Context, batchID string) ([]BatchRow, error)
	UpdateRow(ctx context.Context, row *BatchRow) error
	AppendLog(ctx context.Context, batchID string, entry BatchLogEntry) error
	ListLog(ctx context.Context, batchID string) ([]BatchLogEntry, error)
	InvoicesInOpenBatches(ctx context.Context, invoiceIDs []string) (map[string]string, error)
	NextSequenceForDay(ctx context.Context, day time.Time) (int, error)
	DeleteStaleDraftsBefore(ctx context.Context, before time.Time) (int, error)
}

// ChapterRepository persists chapters, roles and board assignments.
type ChapterRepository interface {
	Create(ctx context.Context, c *Chapter) error
	GetByID(ctx context.Context, id string) (*Chapter, error)
	GetByName(ctx context.Context, name string) (*Chapter, error)
	Update(ctx context.Context, c *Chapter) error
	List(ctx context.Context, publishedOnly bool) ([]Chapter, error)
	AddBoardMember(ctx context.Context, bm *BoardMember) error
	EndBoardMember(ctx context.Context, id string, endDate time.Time) error
	ListBoard(ctx context.Context, chapterID string, activeOnly bool) ([]BoardMember, error)
	ListBoardByMember(ctx context.Context, memberID string, activeOnly bool) ([]BoardMember, error)
	AddChapterMember(ctx context.Context, cm *ChapterMember) error
	ListChapterMembers(ctx context.Context, chapterID string, limit int) ([]ChapterMember, error)
	GetRole(ctx context.Context, name string) (*ChapterRole, error)
	ListRoles(ctx context.Context) ([]ChapterRole, error)
}

// VolunteerRepository persists volunteers, teams and assignments.
type VolunteerRepository interface {
	Create(ctx context.Context, v *Volunteer) error
	GetByID(ctx context.Context, id string) (*Volunteer, error)
	GetByMember(ctx context.Context, memberID string) (*Volunteer, error)
	Update(ctx context.Context, v *Volunteer) error
	List(ctx context.Context, status VolunteerStatus, limit int) ([]Volunteer, error)
	ListAssignments(ctx context.Context, volunteerID string, activeOnly bool) ([]Assignment, error)
	CreateTeam(ctx context.Context, t *Team) error
	GetTeam(ctx context.Context, id string) (*Team, error)
	UpdateTeam(ctx context.Context, t *Team) error
	ListTeams(ctx context.Context, activeOnly bool) ([]Team, error)
	AddTeamMember(ctx context.Context, tm *TeamMember) error
	EndTeamMember(ctx context.Context, id string, endDate time.Time) error
	ListTeamMembers(ctx context.Context, teamID string, activeOnly bool) ([]TeamMember, error)
	ListTeamsByMember(ctx context.Context, memberID string, activeOnly bool) ([]TeamMember, error)
	CreateActivity(ctx context.Context, a *Activity) error
	ListActivities(ctx context.Context, volunteerID string) ([]Activity, error)
	EndActivity(ctx context.Context, id string, endDate time.Time) error
}

// ExpenseRepository persists volunteer expense claims.
type ExpenseRepository interface {
	Create(ctx context.Context, e *Expense) error
	GetByID(ctx context.Context, id string) (*Expense, error)
	Update(ctx context.Context, e *Expense) error
	ListByVolunteer(ctx context.Context, volunteerID string, limit int) ([]Expense, error)
	ListByStatus(ctx context.Context, status ExpenseStatus, limit int) ([]Expense, error)
}

// DonorRepository persists donors. BSNs are encrypted at rest and come
// back masked on every read; SetTaxID is the only write path for them.
type DonorRepository interface {
	Create(ctx context.Context, d *Donor) error
	GetByID(ctx context.Context, id string) (*Donor, error)
	GetByEmail(ctx context.Context, email string) (*Donor, error)
	Update(ctx context.Context, d *Donor) error
	SetTaxID(ctx context.Context, id, bsn, rsin string) error
	// RevealTaxID returns the decrypted identifiers. Callers gate this
	// behind elevated permissions and log the access.
	RevealTaxID(ctx context.Context, id string) (bsn, rsin string, err error)
	List(ctx context.Context, limit, offset int) ([]Donor, error)
	ListMissingConsent(ctx context.Context, limit int) ([]Donor, error)
	ConsentCoverage(ctx context.Context) (consented, total int, err error)
}

// DonationRepository persists donations.
type DonationRepository interface {
	Create(ctx context.Context, d *Donation) error
	GetByID(ctx context.Context, id string) (*Donation, error)
	Update(ctx context.Context, d *Donation) error
	ListByDonor(ctx context.Context, donorID string, limit int) ([]Donation, error)
	ListByAgreement(ctx context.Context, agreementID string) ([]Donation, error)
	ListReportable(ctx context.Context, from, to time.Time) ([]Donation, error)
	ListRecent(ctx context.Context, limit int) ([]Donation, error)
	SumByDonor(ctx context.Context, donorID string, from, to time.Time) (DonationSum, error)
}

// AgreementRepository persists periodic donation agreements.
type AgreementRepository interface {
	Create(ctx context.Context, a *PeriodicAgreement) error
	GetByID(ctx context.Context, id string) (*PeriodicAgreement, error)
	GetByNumber(ctx context.Context, number string) (*PeriodicAgreement, error)
	Update(ctx context.Context, a *PeriodicAgreement) error
	ListByDonor(ctx context.Context, donorID string) ([]PeriodicAgreement, error)
	ListExpiring(ctx context.Context, from, to time.Time) ([]PeriodicAgreement, error)
	ListActive(ctx context.Context, limit, offset int) ([]PeriodicAgreement, error)
	NextSequence(ctx context.Context, year int) (int, error)
	Stats(ctx context.Context) (AgreementStats, error)
}

// TerminationRepository persists termination requests.
type TerminationRepository interface {
	Create(ctx context.Context, r *TerminationRequest) error
	GetByID(ctx context.Context, id string) (*TerminationRequest, error)
	Update(ctx context.Context, r *TerminationRequest) error
	ListByMember(ctx context.Context, memberID string) ([]TerminationRequest, error)
	ListByStatus(ctx context.Context, status TerminationStatus, limit int) ([]TerminationRequest, error)
	ListDueForExecution(ctx context.Context, at time.Time, limit int) ([]TerminationRequest, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]TerminationRequest, error)
}

// AmendmentRepository persists contribution amendments.
type AmendmentRepository interface {
	Create(ctx context.Context, a *ContributionAmendment) error
	GetByID(ctx context.Context, id string) (*ContributionAmendment, error)
	Update(ctx context.Context, a *ContributionAmendment) error
	ListBySchedule(ctx context.Context, scheduleID string) ([]ContributionAmendment, error)
	ListByStatus(ctx context.Context, status AmendmentStatus, limit int) ([]ContributionAmendment, error)
	ListDueForApply(ctx context.Context, at time.Time, limit int) ([]ContributionAmendment, error)
	HasOpenForMember(ctx context.Context, memberID string) (bool, error)
}

// NotificationRepository persists the outbox.
type NotificationRepository interface {
	Enqueue(ctx context.Context, n *Notification) error
	ClaimPending(ctx context.Context, limit int) ([]Notification, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	ExistsDedupe(ctx context.Context, key string) (bool, error)
	DeleteSentBefore(ctx context.Context, before time.Time) (int, error)
}

// JobRepository defines persistence for queued jobs.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	ClaimNext(ctx context.Context) (*Job, error)
	UpdateStatus(ctx context.Context, jobID string, status JobStatus, errMsg *string, resultJSON []byte) error
	GetByID(ctx context.Context, jobID string) (*Job, error)
	Requeue(ctx context.Context, jobID string, runAfter time.Time) error
	DeleteFinishedBefore(ctx context.Context, before time.Time) (int, error)
}

// SettingsRepository persists the singleton configuration row.
type SettingsRepository interface {
	Get(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, s *Settings) error
	BumpMemberNumber(ctx context.Context) (int, error)
}

// SyncRepository persists bookkeeping sync state.
type SyncRepository interface {
	Upsert(ctx context.Context, r *SyncRecord) error
	Get(ctx context.Context, docType SyncDocType, docID string) (*SyncRecord, error)
	EnqueueMissing(ctx context.Context, docType SyncDocType, limit int) (int, error)
	ListPending(ctx context.Context, limit int) ([]SyncRecord, error)
	HasMutation(ctx context.Context, mutationID int64) (bool, error)
	Cursor(ctx context.Context, name string) (int64, error)
	SetCursor(ctx context.Context, name string, value int64) error
}

// StatsRepository aggregates reporting queries.
type StatsRepository interface {
	MemberCounts(ctx context.Context) (map[MemberStatus]int, error)
	RevenueByMonth(ctx context.Context, year int) (map[string]DonationSum, error)
	ChapterSizes(ctx context.Context) (map[string]int, error)
	OverdueInvoiceTotals(ctx context.Context) (int, DonationSum, error)
}

// AccountRepository persists portal and staff logins.
type AccountRepository interface {
	Create(ctx context.Context, a *Account) error
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByMember(ctx context.Context, memberID string) (*Account, error)
	Update(ctx context.Context, a *Account) error
	TouchLogin(ctx context.Context, id string, at time.Time) error
}
