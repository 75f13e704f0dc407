package domain

import "time"

// TerminationType enumerates why a membership ends.
type TerminationType string

const (
	TerminationVoluntary  TerminationType = "Voluntary"
	TerminationNonPayment TerminationType = "Non-payment"
	TerminationDeceased   TerminationType = "Deceased"
	TerminationExpulsion  TerminationType = "Policy Violation"
	TerminationDisc       TerminationType = "Disciplinary Action"
	TerminationExpelled   TerminationType = "Expulsion"
)

// Disciplinary reports whether the type requires secondary approval
// and documentation before execution.
func (t TerminationType) Disciplinary() bool {
	switch t {
	case TerminationExpulsion, TerminationDisc, TerminationExpelled:
		return true
	}
	return false
}

// GraceDays returns the notice period applied before the termination
// takes effect. Disciplinary terminations are immediate.
func (t TerminationType) GraceDays() int {
	if t.Disciplinary() {
		return 0
	}
	return DefaultGracePeriodDays
}

// TerminationStatus enumerates request workflow states.
type TerminationStatus string

const (
	TerminationDraft     TerminationStatus = "Draft"
	TerminationPending   TerminationStatus = "Pending Approval"
	TerminationApproved  TerminationStatus = "Approved"
	TerminationRejected  TerminationStatus = "Rejected"
	TerminationExecuted  TerminationStatus = "Executed"
	TerminationCancelled TerminationStatus = "Cancelled"
)

// TerminationRequest tracks a membership termination through approval
// and execution.
type TerminationRequest struct {
	ID                string
	Member            string
	MemberName        string
	Type              TerminationType
	Reason            string
	RequestDate       time.Time
	RequestedBy       string
	Status            TerminationStatus
	SecondaryApprover string
	ApprovedAt        *time.Time
	DisciplinaryDocs  string
	EffectiveDate     time.Time
	ExecutedAt        *time.Time
	Cascade           TerminationCascade
	Audit             []TerminationAudit
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TerminationAudit is one row of the request's audit trail.
type TerminationAudit struct {
	At     time.Time `json:"at"`
	Actor  string    `json:"actor,omitempty"`
	Event  string    `json:"event"`
	Detail string    `json:"detail,omitempty"`
}

// Audited appends an audit trail row.
func (r *TerminationRequest) Audited(at time.Time, actor, event, detail string) {
	r.Audit = append(r.Audit, TerminationAudit{At: at, Actor: actor, Event: event, Detail: detail})
}

// TerminationCascade records what the execution touched.
type TerminationCascade struct {
	MembershipsEnded   int  `json:"memberships_ended"`
	SchedulesCancelled int  `json:"schedules_cancelled"`
	MandatesCancelled  int  `json:"mandates_cancelled"`
	InvoicesCancelled  int  `json:"invoices_cancelled"`
	BoardRolesEnded    int  `json:"board_roles_ended"`
	TeamRolesEnded     int  `json:"team_roles_ended"`
	ActivitiesEnded    int  `json:"activities_ended"`
	ExpensesCancelled  int  `json:"expenses_cancelled"`
	VolunteerRetired   bool `json:"volunteer_retired"`
	PortalDisabled     bool `json:"portal_disabled"`
}

// EffectiveFrom computes the execution date for a request approved at
// the given time.
func (r TerminationRequest) EffectiveFrom(at time.Time) time.Time {
	return at.AddDate(0, 0, r.Type.GraceDays())
}
