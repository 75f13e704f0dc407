package anbi

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ledenbeheer/internal/billing"
	"ledenbeheer/internal/domain"
)

// Sweeper walks periodic agreements for expiry notices and closes
// agreements that ran out.
type Sweeper struct {
	agreements domain.AgreementRepository
	donors     domain.DonorRepository
	notify     domain.NotificationRepository
	logger     zerolog.Logger
}

// NewSweeper wires the agreement sweeper.
func NewSweeper(agreements domain.AgreementRepository, donors domain.DonorRepository, notify domain.NotificationRepository, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		agreements: agreements,
		donors:     donors,
		notify:     notify,
		logger:     logger.With().Str("component", "agreement_sweep").Logger(),
	}
}

// SweepReport counts one sweep's actions.
type SweepReport struct {
	Notified  int
	Completed int
}

// Run checks agreements expiring inside the largest notice window and
// completes the ones past their end date. Notices fire once per
// window, deduplicated through the outbox.
func (s *Sweeper) Run(ctx context.Context, now time.Time) (SweepReport, error) {
	var report SweepReport
	maxOffset := domain.AgreementExpiryOffsets[0]
	horizon := now.AddDate(0, 0, maxOffset+1)
	// Look a month back so completions missed by a skipped run self-heal.
	expiring, err := s.agreements.ListExpiring(ctx, now.AddDate(0, -1, 0), horizon)
	if err != nil {
		return report, fmt.Errorf("list expiring agreements: %w", err)
	}

	for i := range expiring {
		a := expiring[i]
		if a.Status != domain.AgreementActive {
			continue
		}
		days := a.DaysUntilExpiry(now)
		if days < 0 {
			a.Status = domain.AgreementCompleted
			if err := s.agreements.Update(ctx, &a); err != nil {
				s.logger.Warn().Err(err).Str("agreement", a.Number).Msg("complete agreement failed")
				continue
			}
			report.Completed++
			continue
		}
		offset, ok := noticeWindow(days)
		if !ok {
			continue
		}
		sent, err := s.notifyExpiry(ctx, &a, offset, days)
		if err != nil {
			s.logger.Warn().Err(err).Str("agreement", a.Number).Msg("expiry notice failed")
			continue
		}
		if sent {
			report.Notified++
		}
	}
	s.logger.Info().Int("notified", report.Notified).Int("completed", report.Completed).Msg("agreement sweep complete")
	return report, nil
}

// noticeWindow buckets days-until-expiry into exactly one notice
// offset: 61..90 to the 90 mark, 31..60 to 60, 0..30 to 30.
func noticeWindow(days int) (int, bool) {
	offsets := domain.AgreementExpiryOffsets
	for i, offset := range offsets {
		lower := 0
		if i+1 < len(offsets) {
			lower = offsets[i+1]
		}
		if days <= offset && days > lower {
			return offset, true
		}
	}
	if days >= 0 && days <= offsets[len(offsets)-1] {
		return offsets[len(offsets)-1], true
	}
	return 0, false
}

// RequestConsent mails donors who have paid donations on record but
// never consented to publication in the annual ANBI report. One chase
// per donor per calendar year.
func (s *Sweeper) RequestConsent(ctx context.Context, now time.Time, limit int) (int, error) {
	missing, err := s.donors.ListMissingConsent(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list donors missing consent: %w", err)
	}
	sent := 0
	for i := range missing {
		d := missing[i]
		if d.Email == "" {
			continue
		}
		n := &domain.Notification{
			Kind:      domain.NotifyConsentRequest,
			RefType:   "donor",
			RefID:     d.ID,
			Recipient: d.Email,
			Subject:   "May we name you in our annual donor report?",
			Body: fmt.Sprintf(
				"Beste %s,\n\nThank you for supporting us. Our annual transparency report lists donors by name, but only with their consent. Please let us know whether we may include yours; without a reply you stay anonymous.\n",
				d.Name,
			),
			Status:      domain.NotificationPending,
			DedupeKey:   fmt.Sprintf("consent:%s:%d", d.ID, now.Year()),
			ScheduledAt: now,
		}
		if err := s.notify.Enqueue(ctx, n); err != nil {
			s.logger.Warn().Err(err).Str("donor", d.ID).Msg("enqueue consent request failed")
			continue
		}
		if n.ID != "" {
			sent++
		}
	}
	if sent > 0 {
		s.logger.Info().Int("sent", sent).Msg("consent requests queued")
	}
	return sent, nil
}

func (s *Sweeper) notifyExpiry(ctx context.Context, a *domain.PeriodicAgreement, offset, days int) (bool, error) {
	key := fmt.Sprintf("agreement:%s:%d", a.Number, offset)
	exists, err := s.notify.ExistsDedupe(ctx, key)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	donor, err := s.donors.GetByID(ctx, a.Donor)
	if err != nil {
		return false, fmt.Errorf("load donor: %w", err)
	}
	if donor.Email == "" {
		return false, nil
	}
	n := &domain.Notification{
		Kind:      domain.NotifyAgreementExpiry,
		RefType:   "agreement",
		RefID:     a.ID,
		Recipient: donor.Email,
		Subject:   fmt.Sprintf("Periodic donation agreement %s expires in %d days", a.Number, days),
		Body: fmt.Sprintf(
			"Beste %s,\n\nYour periodic donation agreement %s of %s per year ends on %s. Contact us to renew it and keep your donations fully deductible.\n",
			donor.Name, a.Number, billing.FormatEUR(a.AnnualAmount), a.EndDate.Format("2006-01-02"),
		),
		Status:      domain.NotificationPending,
		DedupeKey:   key,
		ScheduledAt: time.Now(),
	}
	if err := s.notify.Enqueue(ctx, n); err != nil {
		return false, err
	}
	return true, nil
}
