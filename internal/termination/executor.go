package termination

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ledenbeheer/internal/domain"
)

// Executor drives termination requests through approval and performs
// the member-wide cascade on execution.
type Executor struct {
	requests    domain.TerminationRepository
	members     domain.MemberRepository
	memberships domain.MembershipRepository
	schedules   domain.DuesScheduleRepository
	mandates    domain.MandateRepository
	invoices    domain.InvoiceRepository
	chapters    domain.ChapterRepository
	volunteers  domain.VolunteerRepository
	expenses    domain.ExpenseRepository
	accounts    domain.AccountRepository
	notify      domain.NotificationRepository
	logger      zerolog.Logger
}

// NewExecutor wires the termination executor.
func NewExecutor(
	requests domain.TerminationRepository,
	members domain.MemberRepository,
	memberships domain.MembershipRepository,
	schedules domain.DuesScheduleRepository,
	mandates domain.MandateRepository,
	invoices domain.InvoiceRepository,
	chapters domain.ChapterRepository,
	volunteers domain.VolunteerRepository,
	expenses domain.ExpenseRepository,
	accounts domain.AccountRepository,
	notify domain.NotificationRepository,
	logger zerolog.Logger,
) *Executor {
	return &Executor{
		requests:    requests,
		members:     members,
		memberships: memberships,
		schedules:   schedules,
		mandates:    mandates,
		invoices:    invoices,
		chapters:    chapters,
		volunteers:  volunteers,
		expenses:    expenses,
		accounts:    accounts,
		notify:      notify,
		logger:      logger.With().Str("component", "termination").Logger(),
	}
}

// Submit validates and files a new termination request. Disciplinary
// types start in Pending Approval, the rest are approved on entry.
func (e *Executor) Submit(ctx context.Context, req *domain.TerminationRequest, now time.Time) error {
	member, err := e.members.GetByID(ctx, req.Member)
	if err != nil {
		return fmt.Errorf("load member: %w", err)
	}
	if member.Status.IsTerminalStatus() {
		return fmt.Errorf("%w: member is already %s", domain.ErrConflict, member.Status)
	}
	existing, err := e.requests.ListByMember(ctx, req.Member)
	if err != nil {
		return fmt.Errorf("check existing requests: %w", err)
	}
	for _, r := range existing {
		switch r.Status {
		case domain.TerminationDraft, domain.TerminationPending, domain.TerminationApproved:
			return fmt.Errorf("%w: open termination request %s exists", domain.ErrConflict, r.ID)
		}
	}

	req.MemberName = member.FullName()
	req.RequestDate = now
	req.Audited(now, req.RequestedBy, "requested", string(req.Type))
	if req.Type.Disciplinary() {
		if req.DisciplinaryDocs == "" {
			return fmt.Errorf("%w: disciplinary termination requires documentation", domain.ErrInvalidInput)
		}
		req.Status = domain.TerminationPending
	} else {
		req.Status = domain.TerminationApproved
		at := now
		req.ApprovedAt = &at
		req.EffectiveDate = req.EffectiveFrom(now)
		req.Audited(now, "", "approved", "standard type, approved on entry")
	}
	if err := e.requests.Create(ctx, req); err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	e.logger.Info().Str("member", req.Member).Str("type", string(req.Type)).Str("status", string(req.Status)).Msg("termination requested")
	return nil
}

// Approve records the secondary approval a disciplinary request needs.
// The approver must differ from the requester.
func (e *Executor) Approve(ctx context.Context, req *domain.TerminationRequest, approver string, now time.Time) error {
	if req.Status != domain.TerminationPending {
		return fmt.Errorf("%w: request is %s", domain.ErrConflict, req.Status)
	}
	if approver == "" || approver == req.RequestedBy {
		return fmt.Errorf("%w: disciplinary termination needs a second approver", domain.ErrForbidden)
	}
	req.SecondaryApprover = approver
	req.Status = domain.TerminationApproved
	at := now
	req.ApprovedAt = &at
	req.EffectiveDate = req.EffectiveFrom(now)
	req.Audited(now, approver, "approved", "")
	if req.Type == domain.TerminationExpelled {
		// Expulsions go on the agenda of the next general assembly.
		req.Audited(now, approver, "expulsion_reported", "entered in the expulsion register")
	}
	if err := e.requests.Update(ctx, req); err != nil {
		return fmt.Errorf("approve request: %w", err)
	}
	return nil
}

// Reject closes a pending request without touching the member.
func (e *Executor) Reject(ctx context.Context, req *domain.TerminationRequest, approver, reason string) error {
	if req.Status != domain.TerminationPending && req.Status != domain.TerminationDraft {
		return fmt.Errorf("%w: request is %s", domain.ErrConflict, req.Status)
	}
	req.Status = domain.TerminationRejected
	req.SecondaryApprover = approver
	if reason != "" {
		req.Reason = req.Reason + " [rejected: " + reason + "]"
	}
	req.Audited(time.Now(), approver, "rejected", reason)
	if err := e.requests.Update(ctx, req); err != nil {
		return fmt.Errorf("reject request: %w", err)
	}
	return nil
}

// Execute runs the cascade for an approved request whose effective
// date has arrived. Executed requests are immutable afterwards.
func (e *Executor) Execute(ctx context.Context, req *domain.TerminationRequest, now time.Time) error {
	if req.Status == domain.TerminationExecuted {
		return fmt.Errorf("%w: request already executed", domain.ErrTerminationImmutable)
	}
	if req.Status != domain.TerminationApproved {
		return fmt.Errorf("%w: request is %s", domain.ErrConflict, req.Status)
	}
	if req.EffectiveDate.After(now) {
		return fmt.Errorf("%w: effective date %s not reached", domain.ErrConflict, req.EffectiveDate.Format("2006-01-02"))
	}

	member, err := e.members.GetByID(ctx, req.Member)
	if err != nil {
		return fmt.Errorf("load member: %w", err)
	}

	cascade, err := e.cascade(ctx, req, now)
	if err != nil {
		e.failExecution(ctx, req, now, err)
		return err
	}

	if err := e.members.UpdateStatus(ctx, req.Member, memberStatusFor(req.Type)); err != nil {
		err = fmt.Errorf("update member status: %w", err)
		e.failExecution(ctx, req, now, err)
		return err
	}

	req.Cascade = cascade
	req.Status = domain.TerminationExecuted
	at := now
	req.ExecutedAt = &at
	req.Audited(now, "", "executed", "")
	if err := e.requests.Update(ctx, req); err != nil {
		return fmt.Errorf("mark executed: %w", err)
	}

	e.queueNotice(ctx, member, req)
	e.logger.Info().
		Str("member", req.Member).
		Str("type", string(req.Type)).
		Int("memberships", cascade.MembershipsEnded).
		Int("schedules", cascade.SchedulesCancelled).
		Int("mandates", cascade.MandatesCancelled).
		Int("invoices", cascade.InvoicesCancelled).
		Msg("termination executed")
	return nil
}

// failExecution records a failed cascade in the audit trail. The
// request stays Approved so the next sweep retries it.
func (e *Executor) failExecution(ctx context.Context, req *domain.TerminationRequest, now time.Time, cause error) {
	req.Status = domain.TerminationApproved
	req.Audited(now, "", "execution_failed", cause.Error())
	if err := e.requests.Update(ctx, req); err != nil {
		e.logger.Warn().Err(err).Str("request", req.ID).Msg("record execution failure failed")
	}
}

func (e *Executor) cascade(ctx context.Context, req *domain.TerminationRequest, now time.Time) (domain.TerminationCascade, error) {
	var c domain.TerminationCascade

	memberships, err := e.memberships.ListByMember(ctx, req.Member)
	if err != nil {
		return c, fmt.Errorf("list memberships: %w", err)
	}
	for i := range memberships {
		m := memberships[i]
		if m.Status == domain.MembershipCancelled || m.Status == domain.MembershipExpired {
			continue
		}
		m.Status = domain.MembershipCancelled
		m.CancellationDate = &now
		m.CancellationType = domain.CancelImmediate
		m.CancellationReason = "termination: " + string(req.Type)
		if err := e.memberships.Update(ctx, &m); err != nil {
			return c, fmt.Errorf("end membership %s: %w", m.ID, err)
		}
		c.MembershipsEnded++
	}

	if s, err := e.schedules.GetActiveByMember(ctx, req.Member); err == nil {
		s.Status = domain.DuesCancelled
		if err := e.schedules.Update(ctx, s); err != nil {
			return c, fmt.Errorf("cancel schedule: %w", err)
		}
		c.SchedulesCancelled++
	}

	mandates, err := e.mandates.ListByMember(ctx, req.Member)
	if err != nil {
		return c, fmt.Errorf("list mandates: %w", err)
	}
	for i := range mandates {
		m := mandates[i]
		if m.Status != domain.MandateActive && m.Status != domain.MandateSuspended {
			continue
		}
		m.Status = domain.MandateCancelled
		m.CancelReason = "membership terminated"
		if err := e.mandates.Update(ctx, &m); err != nil {
			return c, fmt.Errorf("cancel mandate %s: %w", m.Reference, err)
		}
		c.MandatesCancelled++
	}

	invoices, err := e.invoices.ListByMember(ctx, req.Member, 0)
	if err != nil {
		return c, fmt.Errorf("list invoices: %w", err)
	}
	for i := range invoices {
		inv := invoices[i]
		if !inv.Open() {
			continue
		}
		inv.Status = domain.InvoiceCancelled
		inv.CancelReason = "membership terminated"
		if err := e.invoices.Update(ctx, &inv); err != nil {
			return c, fmt.Errorf("cancel invoice %s: %w", inv.Number, err)
		}
		c.InvoicesCancelled++
	}

	boardRoles, err := e.chapters.ListBoardByMember(ctx, req.Member, true)
	if err != nil {
		return c, fmt.Errorf("list board roles: %w", err)
	}
	for _, br := range boardRoles {
		if err := e.chapters.EndBoardMember(ctx, br.ID, now); err != nil {
			return c, fmt.Errorf("end board role %s: %w", br.ID, err)
		}
		c.BoardRolesEnded++
	}

	teamRoles, err := e.volunteers.ListTeamsByMember(ctx, req.Member, true)
	if err != nil {
		return c, fmt.Errorf("list team roles: %w", err)
	}
	for _, tr := range teamRoles {
		if err := e.volunteers.EndTeamMember(ctx, tr.ID, now); err != nil {
			return c, fmt.Errorf("end team role %s: %w", tr.ID, err)
		}
		c.TeamRolesEnded++
	}

	if v, err := e.volunteers.GetByMember(ctx, req.Member); err == nil {
		activities, err := e.volunteers.ListActivities(ctx, v.ID)
		if err != nil {
			return c, fmt.Errorf("list activities: %w", err)
		}
		for _, act := range activities {
			if act.Status != "Active" {
				continue
			}
			if err := e.volunteers.EndActivity(ctx, act.ID, now); err != nil {
				return c, fmt.Errorf("end activity %s: %w", act.ID, err)
			}
			c.ActivitiesEnded++
		}

		expenses, err := e.expenses.ListByVolunteer(ctx, v.ID, 0)
		if err != nil {
			return c, fmt.Errorf("list expenses: %w", err)
		}
		for i := range expenses {
			exp := expenses[i]
			if exp.Status != domain.ExpenseDraft && exp.Status != domain.ExpenseSubmitted {
				continue
			}
			exp.Status = domain.ExpenseRejected
			exp.RejectReason = "membership terminated"
			if err := e.expenses.Update(ctx, &exp); err != nil {
				return c, fmt.Errorf("cancel expense %s: %w", exp.ID, err)
			}
			c.ExpensesCancelled++
		}

		if v.Status != domain.VolunteerRetired {
			v.Status = domain.VolunteerRetired
			v.EndDate = &now
			if err := e.volunteers.Update(ctx, v); err != nil {
				return c, fmt.Errorf("retire volunteer: %w", err)
			}
			c.VolunteerRetired = true
		}
	}

	if req.Type.Disciplinary() {
		if acct, err := e.accounts.GetByMember(ctx, req.Member); err == nil && acct.Active {
			acct.Active = false
			if err := e.accounts.Update(ctx, acct); err != nil {
				return c, fmt.Errorf("disable portal account: %w", err)
			}
			c.PortalDisabled = true
		}
	}

	return c, nil
}

func memberStatusFor(t domain.TerminationType) domain.MemberStatus {
	switch {
	case t == domain.TerminationDeceased:
		return domain.MemberStatusDeceased
	case t.Disciplinary():
		return domain.MemberStatusBanned
	default:
		return domain.MemberStatusTerminated
	}
}

func (e *Executor) queueNotice(ctx context.Context, member *domain.Member, req *domain.TerminationRequest) {
	// No automated mail for the deceased or for disciplinary cases,
	// the board writes those letters itself.
	if member.Email == "" || req.Type == domain.TerminationDeceased || req.Type.Disciplinary() {
		return
	}
	n := &domain.Notification{
		Kind:        domain.NotifyTermination,
		Member:      member.ID,
		RefType:     "termination",
		RefID:       req.ID,
		Recipient:   member.Email,
		Subject:     "Your membership has ended",
		Body:        fmt.Sprintf("Beste %s,\n\nYour membership ended on %s. Outstanding invoices were cancelled and no further dues will be collected.\n", member.FirstName, req.EffectiveDate.Format("2006-01-02")),
		Status:      domain.NotificationPending,
		DedupeKey:   "termination:" + req.ID,
		ScheduledAt: time.Now(),
	}
	if err := e.notify.Enqueue(ctx, n); err != nil {
		e.logger.Warn().Err(err).Str("member", member.ID).Msg("enqueue termination notice failed")
	}
}
