package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ledenbeheer/internal/domain"
)

// Amendments runs the contribution amendment workflow: request,
// approval, and the dated rollover onto a fresh schedule.
type Amendments struct {
	amendments domain.AmendmentRepository
	schedules  domain.DuesScheduleRepository
	members    domain.MemberRepository
	notify     domain.NotificationRepository
	logger     zerolog.Logger
}

func NewAmendments(
	amendments domain.AmendmentRepository,
	schedules domain.DuesScheduleRepository,
	members domain.MemberRepository,
	notify domain.NotificationRepository,
	logger zerolog.Logger,
) *Amendments {
	return &Amendments{
		amendments: amendments,
		schedules:  schedules,
		members:    members,
		notify:     notify,
		logger:     logger.With().Str("component", "amendments").Logger(),
	}
}

// AmendmentRequest is the input for filing an amendment.
type AmendmentRequest struct {
	ScheduleID    string
	Type          domain.AmendmentType
	NewAmount     decimal.Decimal
	NewFreq       domain.BillingFrequency
	Reason        string
	RequestedBy   string
	SelfService   bool
	EffectiveDate time.Time
}

// Request files an amendment against a schedule. Small fee changes and
// self-service increases within the cap approve immediately, the rest
// waits for a board decision. A member carries at most one open
// amendment.
func (a *Amendments) Request(ctx context.Context, req AmendmentRequest) (*domain.ContributionAmendment, error) {
	s, err := a.schedules.GetByID(ctx, req.ScheduleID)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	if s.Status == domain.DuesCancelled {
		return nil, fmt.Errorf("%w: schedule %s is cancelled", domain.ErrConflict, s.ID)
	}
	open, err := a.amendments.HasOpenForMember(ctx, s.Member)
	if err != nil {
		return nil, fmt.Errorf("check open amendments: %w", err)
	}
	if open {
		return nil, domain.ErrAmendmentOpen
	}

	switch req.Type {
	case domain.AmendmentFeeChange:
		if !req.NewAmount.IsPositive() {
			return nil, fmt.Errorf("%w: new amount must be positive", domain.ErrInvalidInput)
		}
		if req.NewAmount.Equal(s.DuesRate) {
			return nil, fmt.Errorf("%w: new amount equals current rate", domain.ErrInvalidInput)
		}
	case domain.AmendmentIntervalChange:
		if !validFrequency(req.NewFreq) {
			return nil, fmt.Errorf("%w: unknown billing frequency %q", domain.ErrInvalidInput, req.NewFreq)
		}
		if req.NewFreq == s.BillingFrequency {
			return nil, fmt.Errorf("%w: new frequency equals current frequency", domain.ErrInvalidInput)
		}
	default:
		return nil, fmt.Errorf("%w: unknown amendment type %q", domain.ErrInvalidInput, req.Type)
	}

	member, err := a.members.GetByID(ctx, s.Member)
	if err != nil {
		return nil, fmt.Errorf("load member: %w", err)
	}

	effective := truncateDay(req.EffectiveDate)
	if req.EffectiveDate.IsZero() {
		// default to the next billing boundary so the running period
		// keeps its invoiced rate
		effective = truncateDay(s.NextInvoiceDate)
		if effective.IsZero() {
			effective = truncateDay(time.Now()).AddDate(0, 0, 30)
		}
	} else if effective.Before(truncateDay(time.Now())) {
		return nil, fmt.Errorf("%w: effective date %s is in the past", domain.ErrInvalidInput, effective.Format("2006-01-02"))
	}

	am := &domain.ContributionAmendment{
		Schedule:      s.ID,
		Member:        s.Member,
		MemberName:    member.FullName(),
		Type:          req.Type,
		Status:        domain.AmendmentPending,
		CurrentAmount: s.DuesRate,
		NewAmount:     req.NewAmount,
		CurrentFreq:   s.BillingFrequency,
		NewFreq:       req.NewFreq,
		Reason:        req.Reason,
		RequestedBy:   req.RequestedBy,
		SelfService:   req.SelfService,
		EffectiveDate: effective,
	}
	if am.Type == domain.AmendmentIntervalChange {
		am.NewAmount = s.DuesRate
	}
	if am.AutoApprovable() {
		now := time.Now()
		am.Status = domain.AmendmentApproved
		am.ApprovedBy = "auto"
		am.ApprovedAt = &now
	} else {
		am.Notes = "pending review: " + strings.Join(am.PendingReasons(), "; ")
	}

	if err := a.amendments.Create(ctx, am); err != nil {
		return nil, fmt.Errorf("create amendment: %w", err)
	}
	if am.Status == domain.AmendmentApproved {
		a.notifyState(ctx, member, am, "approved automatically")
	}
	a.logger.Info().
		Str("amendment", am.ID).
		Str("schedule", s.ID).
		Str("status", string(am.Status)).
		Msg("amendment filed")
	return am, nil
}

// Approve moves a pending amendment to approved.
func (a *Amendments) Approve(ctx context.Context, id, approver string) (*domain.ContributionAmendment, error) {
	am, err := a.amendments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if am.Status != domain.AmendmentPending && am.Status != domain.AmendmentDraft {
		return nil, fmt.Errorf("%w: amendment is %s", domain.ErrConflict, am.Status)
	}
	now := time.Now()
	am.Status = domain.AmendmentApproved
	am.ApprovedBy = approver
	am.ApprovedAt = &now
	if err := a.amendments.Update(ctx, am); err != nil {
		return nil, fmt.Errorf("update amendment: %w", err)
	}
	a.notifyByMemberID(ctx, am, "approved")
	return am, nil
}

// Reject closes a pending amendment. The note only reaches the member
// notification, the original request reason stays intact.
func (a *Amendments) Reject(ctx context.Context, id, approver, note string) (*domain.ContributionAmendment, error) {
	am, err := a.amendments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if am.Status != domain.AmendmentPending && am.Status != domain.AmendmentDraft {
		return nil, fmt.Errorf("%w: amendment is %s", domain.ErrConflict, am.Status)
	}
	now := time.Now()
	am.Status = domain.AmendmentRejected
	am.ApprovedBy = approver
	am.ApprovedAt = &now
	if err := a.amendments.Update(ctx, am); err != nil {
		return nil, fmt.Errorf("update amendment: %w", err)
	}
	detail := "rejected"
	if note != "" {
		detail = "rejected: " + note
	}
	a.notifyByMemberID(ctx, am, detail)
	return am, nil
}

// Cancel withdraws an open amendment. A reason is mandatory.
func (a *Amendments) Cancel(ctx context.Context, id, reason string) (*domain.ContributionAmendment, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: cancellation reason is required", domain.ErrInvalidInput)
	}
	am, err := a.amendments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !am.Status.Open() {
		return nil, fmt.Errorf("%w: amendment is %s", domain.ErrConflict, am.Status)
	}
	am.Status = domain.AmendmentCancel
	if am.Notes != "" {
		am.Notes += "; "
	}
	am.Notes += "cancelled: " + reason
	if err := a.amendments.Update(ctx, am); err != nil {
		return nil, fmt.Errorf("update amendment: %w", err)
	}
	return am, nil
}

// ApplyReport summarises one apply sweep.
type ApplyReport struct {
	Examined int
	Applied  int
	Skipped  int
	Failed   int
}

// ApplyDue rolls over every approved amendment whose effective date has
// arrived. Individual failures are logged and counted, not fatal.
func (a *Amendments) ApplyDue(ctx context.Context, now time.Time, limit int) (ApplyReport, error) {
	var report ApplyReport
	if limit <= 0 {
		limit = 200
	}
	due, err := a.amendments.ListDueForApply(ctx, now, limit)
	if err != nil {
		return report, fmt.Errorf("list due amendments: %w", err)
	}
	report.Examined = len(due)
	for i := range due {
		am := due[i]
		applied, err := a.Apply(ctx, &am, now)
		switch {
		case err != nil:
			report.Failed++
			a.logger.Error().Err(err).Str("amendment", am.ID).Msg("amendment apply failed")
		case applied == nil:
			report.Skipped++
		default:
			report.Applied++
		}
	}
	a.logger.Info().
		Int("examined", report.Examined).
		Int("applied", report.Applied).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("amendment apply run complete")
	return report, nil
}

// Apply executes one approved amendment: the old schedule is cancelled
// and a successor starts at the effective date with the amended terms.
// Already invoiced periods keep their old rate. Returns the successor,
// or nil when the amendment was skipped.
func (a *Amendments) Apply(ctx context.Context, am *domain.ContributionAmendment, now time.Time) (*domain.DuesSchedule, error) {
	if am.Status != domain.AmendmentApproved {
		return nil, fmt.Errorf("%w: amendment is %s", domain.ErrConflict, am.Status)
	}
	if am.EffectiveDate.After(now) {
		return nil, nil
	}
	old, err := a.schedules.GetByID(ctx, am.Schedule)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	if old.Status == domain.DuesCancelled {
		// schedule went away between approval and apply
		am.Status = domain.AmendmentCancel
		if err := a.amendments.Update(ctx, am); err != nil {
			return nil, fmt.Errorf("cancel orphaned amendment: %w", err)
		}
		a.logger.Warn().Str("amendment", am.ID).Str("schedule", old.ID).Msg("amendment cancelled, schedule no longer active")
		return nil, nil
	}

	successor := &domain.DuesSchedule{
		Member:           old.Member,
		Membership:       old.Membership,
		MembershipType:   old.MembershipType,
		BillingFrequency: old.BillingFrequency,
		DuesRate:         old.DuesRate,
		NextInvoiceDate:  old.NextInvoiceDate,
		InvoiceLeadDays:  old.InvoiceLeadDays,
		Status:           domain.DuesActive,
		PaymentMethod:    old.PaymentMethod,
		ActiveMandate:    old.ActiveMandate,
		AutoGenerate:     old.AutoGenerate,
	}
	switch am.Type {
	case domain.AmendmentFeeChange:
		successor.DuesRate = am.NewAmount
	case domain.AmendmentIntervalChange:
		successor.BillingFrequency = am.NewFreq
	}
	if eff := truncateDay(am.EffectiveDate); eff.After(successor.NextInvoiceDate) {
		successor.NextInvoiceDate = eff
	}

	if err := a.schedules.Create(ctx, successor); err != nil {
		return nil, fmt.Errorf("create successor schedule: %w", err)
	}

	old.Status = domain.DuesCancelled
	old.AutoGenerate = false
	if err := a.schedules.Update(ctx, old); err != nil {
		return nil, fmt.Errorf("cancel old schedule: %w", err)
	}

	applied := time.Now()
	am.Status = domain.AmendmentApplied
	am.AppliedAt = &applied
	if err := a.amendments.Update(ctx, am); err != nil {
		return nil, fmt.Errorf("mark amendment applied: %w", err)
	}

	a.notifyByMemberID(ctx, am, "applied")
	a.logger.Info().
		Str("amendment", am.ID).
		Str("old_schedule", old.ID).
		Str("new_schedule", successor.ID).
		Msg("amendment applied")
	return successor, nil
}

func (a *Amendments) notifyByMemberID(ctx context.Context, am *domain.ContributionAmendment, state string) {
	member, err := a.members.GetByID(ctx, am.Member)
	if err != nil {
		a.logger.Warn().Err(err).Str("amendment", am.ID).Msg("load member for amendment notice failed")
		return
	}
	a.notifyState(ctx, member, am, state)
}

func (a *Amendments) notifyState(ctx context.Context, m *domain.Member, am *domain.ContributionAmendment, state string) {
	if m.Email == "" {
		return
	}
	n := &domain.Notification{
		Kind:        domain.NotifyAmendmentState,
		Member:      m.ID,
		RefType:     "amendment",
		RefID:       am.ID,
		Recipient:   m.Email,
		Subject:     fmt.Sprintf("Contribution change %s", state),
		Body:        amendmentNoticeBody(m, am, state),
		Status:      domain.NotificationPending,
		DedupeKey:   fmt.Sprintf("amendment:%s:%s", am.ID, string(am.Status)),
		ScheduledAt: time.Now(),
	}
	if err := a.notify.Enqueue(ctx, n); err != nil {
		a.logger.Warn().Err(err).Str("amendment", am.ID).Msg("enqueue amendment notice failed")
	}
}

func validFrequency(f domain.BillingFrequency) bool {
	switch f {
	case domain.FrequencyDaily, domain.FrequencyWeekly, domain.FrequencyMonthly,
		domain.FrequencyQuarterly, domain.FrequencyAnnual:
		return true
	}
	return false
}
