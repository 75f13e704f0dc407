package member

import (
	"context"
	"fmt"
	"time"

	"ledenbeheer/internal/domain"
)

// StartMembership opens a new membership of the given type for an
// existing member. Overlapping active memberships are refused.
func (s *Service) StartMembership(ctx context.Context, memberID, typeName string, start time.Time, minimumOverridden bool) (*domain.Membership, error) {
	m, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("load member: %w", err)
	}
	if m.Status.IsTerminalStatus() {
		return nil, fmt.Errorf("%w: member is %s", domain.ErrConflict, m.Status)
	}
	mt, err := s.memberships.GetType(ctx, typeName)
	if err != nil {
		return nil, fmt.Errorf("load membership type %q: %w", typeName, err)
	}
	if existing, err := s.memberships.GetActiveByMember(ctx, memberID); err == nil {
		return nil, fmt.Errorf("%w: active membership %s runs until %s", domain.ErrMembershipOverlap, existing.ID, existing.RenewalDate.Format("2006-01-02"))
	}
	if start.IsZero() {
		start = time.Now()
	}
	start = truncateDay(start)
	ms := &domain.Membership{
		Member:         memberID,
		MembershipType: mt.Name,
		StartDate:      start,
		RenewalDate:    domain.TermEnd(*mt, start, minimumOverridden),
		Status:         domain.MembershipActive,
		AutoRenew:      true,
	}
	if err := s.memberships.Create(ctx, ms); err != nil {
		return nil, fmt.Errorf("create membership: %w", err)
	}
	return ms, nil
}

// CancelMembership records a cancellation. Immediate cancellation ends
// the membership today; end-of-period schedules it at the renewal
// date.
func (s *Service) CancelMembership(ctx context.Context, membershipID string, ctype domain.CancellationType, reason string, now time.Time) (*domain.Membership, error) {
	ms, err := s.memberships.GetByID(ctx, membershipID)
	if err != nil {
		return nil, fmt.Errorf("load membership: %w", err)
	}
	switch ms.Status {
	case domain.MembershipCancelled, domain.MembershipExpired:
		return nil, fmt.Errorf("%w: membership is %s", domain.ErrConflict, ms.Status)
	}
	var when time.Time
	switch ctype {
	case domain.CancelImmediate:
		when = truncateDay(now)
	case domain.CancelEndOfPeriod:
		when = ms.RenewalDate
	default:
		return nil, fmt.Errorf("%w: unknown cancellation type %q", domain.ErrInvalidInput, ctype)
	}
	ms.CancellationDate = &when
	ms.CancellationType = ctype
	ms.CancellationReason = reason
	ms.AutoRenew = false
	ms.Status = ms.DeriveStatus(now)
	if err := s.memberships.Update(ctx, ms); err != nil {
		return nil, fmt.Errorf("cancel membership: %w", err)
	}
	if ms.Status == domain.MembershipCancelled {
		s.deactivateDues(ctx, ms.Member)
	}
	s.logger.Info().Str("membership", ms.ID).Str("type", string(ctype)).Str("until", when.Format("2006-01-02")).Msg("membership cancelled")
	return ms, nil
}

// StatusReport summarises a membership status processing sweep.
type StatusReport struct {
	Examined  int
	Renewed   int
	Expired   int
	Cancelled int
}

// ProcessMemberships is the daily status job: it applies scheduled
// cancellations, renews auto-renew memberships at their renewal date
// and expires the rest. Member statuses follow unless terminal.
func (s *Service) ProcessMemberships(ctx context.Context, now time.Time, limit int) (StatusReport, error) {
	var report StatusReport
	if limit <= 0 {
		limit = 500
	}
	due, err := s.memberships.ListExpiring(ctx, now, limit)
	if err != nil {
		return report, fmt.Errorf("list expiring memberships: %w", err)
	}
	report.Examined = len(due)
	for i := range due {
		ms := due[i]
		derived := ms.DeriveStatus(now)
		switch {
		case derived == domain.MembershipCancelled:
			if ms.Status != domain.MembershipCancelled {
				ms.Status = domain.MembershipCancelled
				if err := s.memberships.Update(ctx, &ms); err != nil {
					return report, fmt.Errorf("apply cancellation %s: %w", ms.ID, err)
				}
				s.deactivateDues(ctx, ms.Member)
				report.Cancelled++
			}
		case derived == domain.MembershipExpired && ms.AutoRenew:
			if err := s.renew(ctx, &ms, now); err != nil {
				s.logger.Error().Err(err).Str("membership", ms.ID).Msg("auto-renew failed")
				continue
			}
			report.Renewed++
		case derived == domain.MembershipExpired:
			ms.Status = domain.MembershipExpired
			if err := s.memberships.Update(ctx, &ms); err != nil {
				return report, fmt.Errorf("expire membership %s: %w", ms.ID, err)
			}
			s.deactivateDues(ctx, ms.Member)
			s.markExpired(ctx, ms.Member)
			report.Expired++
		}
	}
	s.logger.Info().
		Int("examined", report.Examined).
		Int("renewed", report.Renewed).
		Int("expired", report.Expired).
		Int("cancelled", report.Cancelled).
		Msg("membership status run complete")
	return report, nil
}

// SendRenewalReminders mails members whose membership reaches its
// renewal date within the reminder window. Auto-renew members are told
// how to opt out in time, the rest how to stay on. The dedupe key
// keeps it at one reminder per renewal date.
func (s *Service) SendRenewalReminders(ctx context.Context, now time.Time, limit int) (int, error) {
	from := truncateDay(now)
	to := from.AddDate(0, 0, domain.RenewalReminderDays)
	due, err := s.memberships.ListRenewingBetween(ctx, from, to, limit)
	if err != nil {
		return 0, fmt.Errorf("list renewing memberships: %w", err)
	}
	sent := 0
	for i := range due {
		ms := due[i]
		m, err := s.members.GetByID(ctx, ms.Member)
		if err != nil {
			s.logger.Warn().Err(err).Str("membership", ms.ID).Msg("load member for renewal reminder failed")
			continue
		}
		if m.Email == "" {
			continue
		}
		date := ms.RenewalDate.Format("2006-01-02")
		var subject, body string
		if ms.AutoRenew {
			subject = fmt.Sprintf("Your membership renews on %s", date)
			body = fmt.Sprintf(
				"Beste %s,\n\nYour %s membership renews automatically on %s. No action is needed to stay a member. If you do not want to continue, cancel before that date.\n",
				m.FirstName, ms.MembershipType, date,
			)
		} else {
			subject = fmt.Sprintf("Your membership ends on %s", date)
			body = fmt.Sprintf(
				"Beste %s,\n\nYour %s membership ends on %s. Contact us before that date if you want to stay a member.\n",
				m.FirstName, ms.MembershipType, date,
			)
		}
		n := &domain.Notification{
			Kind:        domain.NotifyRenewalReminder,
			Member:      m.ID,
			RefType:     "membership",
			RefID:       ms.ID,
			Recipient:   m.Email,
			Subject:     subject,
			Body:        body,
			Status:      domain.NotificationPending,
			DedupeKey:   fmt.Sprintf("renewal:%s:%s", ms.ID, date),
			ScheduledAt: now,
		}
		if err := s.notify.Enqueue(ctx, n); err != nil {
			s.logger.Warn().Err(err).Str("membership", ms.ID).Msg("enqueue renewal reminder failed")
			continue
		}
		if n.ID != "" {
			sent++
		}
	}
	if sent > 0 {
		s.logger.Info().Int("sent", sent).Msg("renewal reminders queued")
	}
	return sent, nil
}

func (s *Service) renew(ctx context.Context, ms *domain.Membership, now time.Time) error {
	mt, err := s.memberships.GetType(ctx, ms.MembershipType)
	if err != nil {
		return fmt.Errorf("load type: %w", err)
	}
	start := ms.RenewalDate
	if start.Before(truncateDay(now).AddDate(0, -1, 0)) {
		start = truncateDay(now)
	}
	ms.StartDate = start
	ms.RenewalDate = domain.TermEnd(*mt, start, true)
	ms.Status = domain.MembershipActive
	ms.GraceUntil = nil
	ms.GraceReason = ""
	if err := s.memberships.Update(ctx, ms); err != nil {
		return fmt.Errorf("renew membership: %w", err)
	}
	s.logger.Info().Str("membership", ms.ID).Str("until", ms.RenewalDate.Format("2006-01-02")).Msg("membership renewed")
	return nil
}

// markExpired follows the membership expiry onto the member record.
// Termination-class statuses set by staff stay as they are.
func (s *Service) markExpired(ctx context.Context, memberID string) {
	m, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		s.logger.Warn().Err(err).Str("member", memberID).Msg("load member for expiry failed")
		return
	}
	if m.Status.IsTerminalStatus() {
		return
	}
	if err := s.members.UpdateStatus(ctx, memberID, domain.MemberStatusExpired); err != nil {
		s.logger.Warn().Err(err).Str("member", memberID).Msg("expire member failed")
	}
}

func (s *Service) deactivateDues(ctx context.Context, memberID string) {
	sched, err := s.schedules.GetActiveByMember(ctx, memberID)
	if err != nil {
		return
	}
	sched.Status = domain.DuesCancelled
	sched.AutoGenerate = false
	if err := s.schedules.Update(ctx, sched); err != nil {
		s.logger.Warn().Err(err).Str("member", memberID).Msg("cancel dues schedule failed")
	}
}
