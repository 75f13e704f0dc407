package member

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/sepa"
)

// Service owns the member lifecycle: portal applications, review, and
// the membership, dues schedule and mandate records an approval fans
// out into.
type Service struct {
	apps        domain.ApplicationRepository
	members     domain.MemberRepository
	memberships domain.MembershipRepository
	schedules   domain.DuesScheduleRepository
	mandates    domain.MandateRepository
	chapters    domain.ChapterRepository
	notify      domain.NotificationRepository
	logger      zerolog.Logger
}

// NewService wires the member lifecycle service.
func NewService(
	apps domain.ApplicationRepository,
	members domain.MemberRepository,
	memberships domain.MembershipRepository,
	schedules domain.DuesScheduleRepository,
	mandates domain.MandateRepository,
	chapters domain.ChapterRepository,
	notify domain.NotificationRepository,
	logger zerolog.Logger,
) *Service {
	return &Service{
		apps:        apps,
		members:     members,
		memberships: memberships,
		schedules:   schedules,
		mandates:    mandates,
		chapters:    chapters,
		notify:      notify,
		logger:      logger.With().Str("component", "member").Logger(),
	}
}

// Apply validates and files a portal application. The chapter is
// suggested from the postal code; review may override it.
func (s *Service) Apply(ctx context.Context, app *domain.Application, now time.Time) error {
	if err := s.validateApplication(ctx, app, now); err != nil {
		return err
	}
	if app.IBAN != "" {
		normalized, err := sepa.ValidateIBAN(app.IBAN)
		if err != nil {
			return err
		}
		app.IBAN = normalized
		if app.BIC == "" {
			app.BIC = sepa.DeriveBIC(normalized)
		}
	}
	if chapter, err := s.SuggestChapter(ctx, app.PostalCode); err == nil && chapter != "" {
		app.Chapter = chapter
	}
	app.Status = domain.ApplicationPending
	if err := s.apps.Create(ctx, app); err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	s.queueApplicationNotice(ctx, app, "received",
		fmt.Sprintf("Beste %s,\n\nWe received your membership application and will review it shortly.\n", app.FirstName))
	s.logger.Info().Str("application", app.ID).Str("email", app.Email).Msg("application submitted")
	return nil
}

// Approve turns a pending application into an active member with a
// member number, an initial membership, a dues schedule and, for
// direct debit payers, a signed mandate.
func (s *Service) Approve(ctx context.Context, appID, reviewer, chapterOverride string, now time.Time) (*domain.Member, error) {
	app, err := s.apps.GetByID(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("load application: %w", err)
	}
	if app.Status != domain.ApplicationPending {
		return nil, fmt.Errorf("%w: application is %s", domain.ErrConflict, app.Status)
	}
	mt, err := s.memberships.GetType(ctx, app.MembershipType)
	if err != nil {
		return nil, fmt.Errorf("load membership type %q: %w", app.MembershipType, err)
	}

	number, err := s.members.NextMemberNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate member number: %w", err)
	}
	at := now
	chapter := app.Chapter
	if chapterOverride != "" {
		chapter = chapterOverride
	}
	m := &domain.Member{
		MemberNumber:  number,
		ApplicationID: app.ID,
		FirstName:     app.FirstName,
		LastName:      app.LastName,
		Email:         app.Email,
		BirthDate:     app.BirthDate,
		PostalCode:    app.PostalCode,
		City:          app.City,
		Street:        app.Street,
		CountryCode:   app.CountryCode,
		Status:        domain.MemberStatusActive,
		AppStatus:     domain.ApplicationApproved,
		PaymentMethod: app.PaymentMethod,
		IBAN:          app.IBAN,
		BIC:           app.BIC,
		AccountHolder: app.AccountHolder,
		Chapter:       chapter,
		ReviewedBy:    reviewer,
		ReviewedAt:    &at,
	}
	if err := s.members.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}

	start := truncateDay(now)
	ms := &domain.Membership{
		Member:         m.ID,
		MembershipType: mt.Name,
		StartDate:      start,
		RenewalDate:    domain.TermEnd(*mt, start, false),
		Status:         domain.MembershipActive,
		AutoRenew:      true,
	}
	if err := s.memberships.Create(ctx, ms); err != nil {
		return nil, fmt.Errorf("create membership: %w", err)
	}

	rate := app.CustomAmount
	if rate.IsZero() {
		rate = mt.SuggestedAmount
	}
	if rate.LessThan(mt.MinimumAmount) {
		rate = mt.MinimumAmount
	}
	sched := &domain.DuesSchedule{
		Member:           m.ID,
		Membership:       ms.ID,
		MembershipType:   mt.Name,
		BillingFrequency: frequencyFor(mt.BillingPeriod),
		DuesRate:         rate,
		NextInvoiceDate:  start,
		InvoiceLeadDays:  domain.DefaultInvoiceLeadDays,
		Status:           domain.DuesActive,
		PaymentMethod:    app.PaymentMethod,
		AutoGenerate:     mt.BillingPeriod != domain.BillingLifetime,
	}

	if app.PaymentMethod == domain.PaymentMethodDirectDebit && app.IBAN != "" {
		mandate, err := s.createMandate(ctx, m, now)
		if err != nil {
			return nil, err
		}
		sched.ActiveMandate = mandate.ID
	}
	if err := s.schedules.Create(ctx, sched); err != nil {
		return nil, fmt.Errorf("create dues schedule: %w", err)
	}

	app.Status = domain.ApplicationApproved
	app.MemberID = m.ID
	app.ReviewedBy = reviewer
	app.ReviewedAt = &at
	app.Chapter = chapter
	if err := s.apps.Update(ctx, app); err != nil {
		return nil, fmt.Errorf("close application: %w", err)
	}

	s.queueWelcome(ctx, m)
	s.logger.Info().
		Str("member", m.ID).
		Int("number", m.MemberNumber).
		Str("type", mt.Name).
		Str("reviewer", reviewer).
		Msg("application approved")
	return m, nil
}

// Reject closes a pending application and informs the applicant.
func (s *Service) Reject(ctx context.Context, appID, reviewer, reason string, now time.Time) error {
	app, err := s.apps.GetByID(ctx, appID)
	if err != nil {
		return fmt.Errorf("load application: %w", err)
	}
	if app.Status != domain.ApplicationPending {
		return fmt.Errorf("%w: application is %s", domain.ErrConflict, app.Status)
	}
	at := now
	app.Status = domain.ApplicationRejected
	app.RejectReason = reason
	app.ReviewedBy = reviewer
	app.ReviewedAt = &at
	if err := s.apps.Update(ctx, app); err != nil {
		return fmt.Errorf("reject application: %w", err)
	}
	body := fmt.Sprintf("Beste %s,\n\nYour membership application was not accepted.\n", app.FirstName)
	if reason != "" {
		body = fmt.Sprintf("Beste %s,\n\nYour membership application was not accepted: %s\n", app.FirstName, reason)
	}
	s.queueApplicationNotice(ctx, app, "rejected", body)
	return nil
}

// UpdateBankDetails validates and stores new account data on the
// member record. Existing mandates are left alone; the discrepancy
// scan flags the mismatch so a new mandate can be arranged.
func (s *Service) UpdateBankDetails(ctx context.Context, memberID, iban, bic, holder string) (*domain.Member, error) {
	m, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("load member: %w", err)
	}
	normalized, err := sepa.ValidateIBAN(iban)
	if err != nil {
		return nil, err
	}
	if bic == "" {
		bic = sepa.DeriveBIC(normalized)
	}
	m.IBAN = normalized
	m.BIC = bic
	if holder != "" {
		m.AccountHolder = holder
	}
	if err := s.members.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	if mandate, err := s.mandates.GetActiveByMember(ctx, memberID); err == nil && sepa.NormalizeIBAN(mandate.IBAN) != normalized {
		s.logger.Warn().
			Str("member", memberID).
			Str("mandate", mandate.Reference).
			Msg("bank details changed, active mandate now differs")
	}
	return m, nil
}

// IssueMandate signs a fresh mandate on the member's current bank
// account, superseding any active one, and points the active dues
// schedule at it.
func (s *Service) IssueMandate(ctx context.Context, memberID string, now time.Time) (*domain.Mandate, error) {
	m, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("load member: %w", err)
	}
	if m.IBAN == "" {
		return nil, fmt.Errorf("%w: member has no bank account on file", domain.ErrInvalidInput)
	}
	if m.MemberNumber == 0 {
		return nil, fmt.Errorf("%w: member has no number yet", domain.ErrConflict)
	}
	mandate, err := s.createMandate(ctx, m, now)
	if err != nil {
		return nil, err
	}
	if sched, err := s.schedules.GetActiveByMember(ctx, memberID); err == nil {
		sched.ActiveMandate = mandate.ID
		sched.PaymentMethod = domain.PaymentMethodDirectDebit
		if err := s.schedules.Update(ctx, sched); err != nil {
			return nil, fmt.Errorf("link mandate to schedule: %w", err)
		}
	}
	s.logger.Info().
		Str("member", memberID).
		Str("mandate", mandate.Reference).
		Msg("mandate issued")
	return mandate, nil
}

// SetFeeOverride records a manager-set deviation from the type rate
// and pushes it into the active dues schedule. Every change is logged
// with old and new amount, reason and actor.
func (s *Service) SetFeeOverride(ctx context.Context, memberID string, amount decimal.Decimal, reason, actor string) (*domain.Member, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: override amount must be positive", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: override reason required", domain.ErrInvalidInput)
	}
	m, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("load member: %w", err)
	}
	old := decimal.Zero
	if m.FeeOverride != nil {
		old = m.FeeOverride.Amount
	}
	m.FeeOverride = &domain.FeeOverride{Amount: amount, Reason: reason, SetBy: actor, SetAt: time.Now()}
	if err := s.members.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	if sched, err := s.schedules.GetActiveByMember(ctx, memberID); err == nil {
		if old.IsZero() {
			old = sched.DuesRate
		}
		sched.DuesRate = amount
		if err := s.schedules.Update(ctx, sched); err != nil {
			return nil, fmt.Errorf("update schedule rate: %w", err)
		}
	}
	s.logger.Info().
		Str("member", memberID).
		Str("old", old.StringFixed(2)).
		Str("new", amount.StringFixed(2)).
		Str("reason", reason).
		Str("actor", actor).
		Msg("fee override set")
	return m, nil
}

// SuggestChapter returns the id of the first published chapter whose
// postal patterns match, or empty when none do.
func (s *Service) SuggestChapter(ctx context.Context, postalCode string) (string, error) {
	if strings.TrimSpace(postalCode) == "" {
		return "", nil
	}
	chapters, err := s.chapters.List(ctx, true)
	if err != nil {
		return "", fmt.Errorf("list chapters: %w", err)
	}
	for _, c := range chapters {
		if c.MatchesPostalCode(postalCode) {
			return c.ID, nil
		}
	}
	return "", nil
}

func (s *Service) validateApplication(ctx context.Context, app *domain.Application, now time.Time) error {
	app.FirstName = strings.TrimSpace(app.FirstName)
	app.LastName = strings.TrimSpace(app.LastName)
	if app.FirstName == "" || app.LastName == "" {
		return fmt.Errorf("%w: first and last name required", domain.ErrInvalidInput)
	}
	if !validName(app.FirstName) || !validName(app.LastName) {
		return fmt.Errorf("%w: name contains invalid characters", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(app.Email); err != nil {
		return fmt.Errorf("%w: invalid email address", domain.ErrInvalidInput)
	}
	if app.BirthDate.IsZero() {
		return fmt.Errorf("%w: birth date required", domain.ErrInvalidInput)
	}
	age := domain.Member{BirthDate: app.BirthDate}.Age(now)
	if age > domain.MaxPlausibleAge {
		return fmt.Errorf("%w: birth date implausible", domain.ErrInvalidInput)
	}
	if age < domain.MinMembershipAge {
		return fmt.Errorf("%w: applicants younger than %d need guardian consent, please contact the office", domain.ErrInvalidInput, domain.MinMembershipAge)
	}
	switch app.PaymentMethod {
	case domain.PaymentMethodDirectDebit:
		if app.IBAN == "" {
			return fmt.Errorf("%w: direct debit requires an IBAN", domain.ErrInvalidInput)
		}
	case domain.PaymentMethodBankTransfer, domain.PaymentMethodCash:
	case "":
		app.PaymentMethod = domain.PaymentMethodBankTransfer
	default:
		return fmt.Errorf("%w: unknown payment method %q", domain.ErrInvalidInput, app.PaymentMethod)
	}
	mt, err := s.memberships.GetType(ctx, app.MembershipType)
	if err != nil {
		return fmt.Errorf("%w: unknown membership type %q", domain.ErrInvalidInput, app.MembershipType)
	}
	if !mt.Active {
		return fmt.Errorf("%w: membership type %q is closed for new members", domain.ErrInvalidInput, mt.Name)
	}
	if !app.CustomAmount.IsZero() && app.CustomAmount.LessThan(mt.MinimumAmount) {
		return fmt.Errorf("%w: contribution below the %s minimum of %s", domain.ErrInvalidInput, mt.Name, mt.MinimumAmount.StringFixed(2))
	}
	return nil
}

func (s *Service) createMandate(ctx context.Context, m *domain.Member, now time.Time) (*domain.Mandate, error) {
	// A fresh active mandate supersedes whatever was active before.
	if prev, err := s.mandates.GetActiveByMember(ctx, m.ID); err == nil {
		prev.Status = domain.MandateCancelled
		prev.CancelReason = "superseded by new mandate"
		if err := s.mandates.Update(ctx, prev); err != nil {
			return nil, fmt.Errorf("supersede mandate %s: %w", prev.Reference, err)
		}
	}
	seq, err := s.mandates.NextSequenceForDay(ctx, m.ID, now)
	if err != nil {
		return nil, fmt.Errorf("mandate sequence: %w", err)
	}
	holder := m.AccountHolder
	if holder == "" {
		holder = m.FullName()
	}
	mandate := &domain.Mandate{
		Reference:     domain.MandateReference(m.MemberNumber, now, seq),
		Member:        m.ID,
		IBAN:          m.IBAN,
		BIC:           m.BIC,
		AccountHolder: holder,
		SignDate:      truncateDay(now),
		Status:        domain.MandateActive,
	}
	if err := s.mandates.Create(ctx, mandate); err != nil {
		return nil, fmt.Errorf("create mandate: %w", err)
	}
	return mandate, nil
}

func (s *Service) queueWelcome(ctx context.Context, m *domain.Member) {
	if m.Email == "" {
		return
	}
	n := &domain.Notification{
		Kind:        domain.NotifyWelcome,
		Member:      m.ID,
		RefType:     "member",
		RefID:       m.ID,
		Recipient:   m.Email,
		Subject:     "Welcome! Your membership is active",
		Body:        fmt.Sprintf("Beste %s,\n\nYour application was approved. Your member number is %d.\n", m.FirstName, m.MemberNumber),
		Status:      domain.NotificationPending,
		DedupeKey:   "welcome:" + m.ID,
		ScheduledAt: time.Now(),
	}
	if err := s.notify.Enqueue(ctx, n); err != nil {
		s.logger.Warn().Err(err).Str("member", m.ID).Msg("enqueue welcome failed")
	}
}

func (s *Service) queueApplicationNotice(ctx context.Context, app *domain.Application, state, body string) {
	if app.Email == "" {
		return
	}
	n := &domain.Notification{
		Kind:        domain.NotifyApplicationState,
		RefType:     "application",
		RefID:       app.ID,
		Recipient:   app.Email,
		Subject:     "Your membership application was " + state,
		Body:        body,
		Status:      domain.NotificationPending,
		DedupeKey:   fmt.Sprintf("application:%s:%s", app.ID, state),
		ScheduledAt: time.Now(),
	}
	if err := s.notify.Enqueue(ctx, n); err != nil {
		s.logger.Warn().Err(err).Str("application", app.ID).Msg("enqueue application notice failed")
	}
}

// frequencyFor maps a membership type period to the closest supported
// dues collection rhythm. Biannual and custom periods bill annually;
// the type's amounts are understood per collection interval.
func frequencyFor(p domain.BillingPeriod) domain.BillingFrequency {
	switch p {
	case domain.BillingDaily:
		return domain.FrequencyDaily
	case domain.BillingMonthly:
		return domain.FrequencyMonthly
	case domain.BillingQuarterly:
		return domain.FrequencyQuarterly
	default:
		return domain.FrequencyAnnual
	}
}

func validName(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			continue
		}
		switch r {
		case '-', '\'', '.':
			continue
		}
		return false
	}
	return true
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
