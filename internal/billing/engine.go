package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ledenbeheer/internal/domain"
)

// Engine generates dues invoices from schedules that entered their
// lead window.
type Engine struct {
	schedules domain.DuesScheduleRepository
	invoices  domain.InvoiceRepository
	members   domain.MemberRepository
	settings  domain.SettingsRepository
	notify    domain.NotificationRepository
	logger    zerolog.Logger
	onInvoice func() // metrics hook, may be nil
}

// NewEngine wires the invoice generation engine.
func NewEngine(
	schedules domain.DuesScheduleRepository,
	invoices domain.InvoiceRepository,
	members domain.MemberRepository,
	settings domain.SettingsRepository,
	notify domain.NotificationRepository,
	logger zerolog.Logger,
) *Engine {
	return &Engine{
		schedules: schedules,
		invoices:  invoices,
		members:   members,
		settings:  settings,
		notify:    notify,
		logger:    logger.With().Str("component", "billing").Logger(),
	}
}

// OnInvoiceGenerated registers a counter hook fired per invoice.
func (e *Engine) OnInvoiceGenerated(fn func()) { e.onInvoice = fn }

// RunReport summarises one generation sweep.
type RunReport struct {
	Examined  int
	Generated int
	Skipped   int
	Failed    int
}

// Run generates invoices for every schedule due at now. Individual
// schedule failures are logged and counted, not fatal.
func (e *Engine) Run(ctx context.Context, now time.Time, limit int) (RunReport, error) {
	var report RunReport
	if limit <= 0 {
		limit = 500
	}
	due, err := e.schedules.ListDue(ctx, now, limit)
	if err != nil {
		return report, fmt.Errorf("list due schedules: %w", err)
	}
	report.Examined = len(due)
	for i := range due {
		s := due[i]
		generated, err := e.GenerateNext(ctx, &s, now)
		switch {
		case err != nil:
			report.Failed++
			e.logger.Error().Err(err).Str("schedule", s.ID).Msg("invoice generation failed")
		case generated == nil:
			report.Skipped++
		default:
			report.Generated++
		}
	}
	e.logger.Info().
		Int("examined", report.Examined).
		Int("generated", report.Generated).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("invoice run complete")
	return report, nil
}

// GenerateNext creates the next invoice for one schedule and advances
// its coverage. Returns nil without error when generation is skipped.
func (e *Engine) GenerateNext(ctx context.Context, s *domain.DuesSchedule, now time.Time) (*domain.Invoice, error) {
	if !s.DueForGeneration(now) {
		return nil, nil
	}
	member, err := e.members.GetByID(ctx, s.Member)
	if err != nil {
		return nil, fmt.Errorf("load member %s: %w", s.Member, err)
	}
	if member.Status.IsTerminalStatus() {
		e.logger.Debug().Str("schedule", s.ID).Str("status", string(member.Status)).Msg("skip: member in terminal status")
		return nil, nil
	}
	open, err := e.invoices.CountOpenByMember(ctx, s.Member)
	if err != nil {
		return nil, fmt.Errorf("count open invoices: %w", err)
	}
	if open >= domain.MaxUnpaidInvoices {
		e.logger.Warn().Str("schedule", s.ID).Int("open", open).Msg("skip: unpaid invoice cap reached")
		return nil, nil
	}

	cfg, err := e.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	start, end := s.NextPeriod(s.NextInvoiceDate)
	seq, err := e.invoices.NextSequence(ctx, now.Year())
	if err != nil {
		return nil, fmt.Errorf("invoice sequence: %w", err)
	}
	dueDays := cfg.InvoiceDueDays
	if dueDays <= 0 {
		dueDays = 30
	}

	inv := &domain.Invoice{
		Number:        fmt.Sprintf("INV-%d-%04d", now.Year(), seq),
		Member:        s.Member,
		MemberName:    member.FullName(),
		DuesSchedule:  s.ID,
		Description:   fmt.Sprintf("Membership dues %s to %s", start.Format("2006-01-02"), end.Format("2006-01-02")),
		Amount:        s.DuesRate,
		Outstanding:   s.DuesRate,
		Currency:      "EUR",
		Status:        domain.InvoiceUnpaid,
		PostingDate:   truncateDay(now),
		DueDate:       truncateDay(now).AddDate(0, 0, dueDays),
		CoverageStart: start,
		CoverageEnd:   end,
		PaymentMethod: s.PaymentMethod,
	}
	if err := e.invoices.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	last := truncateDay(now)
	s.LastInvoiceDate = &last
	s.CoverageStart = start
	s.CoverageEnd = end
	s.NextInvoiceDate = end.AddDate(0, 0, 1)
	if err := e.schedules.Update(ctx, s); err != nil {
		return nil, fmt.Errorf("advance schedule: %w", err)
	}

	e.enqueueInvoiceNotice(ctx, member, inv)
	if e.onInvoice != nil {
		e.onInvoice()
	}
	e.logger.Info().
		Str("invoice", inv.Number).
		Str("member", s.Member).
		Str("period", fmt.Sprintf("%s..%s", start.Format("2006-01-02"), end.Format("2006-01-02"))).
		Msg("invoice generated")
	return inv, nil
}

func (e *Engine) enqueueInvoiceNotice(ctx context.Context, m *domain.Member, inv *domain.Invoice) {
	if m.Email == "" {
		return
	}
	n := &domain.Notification{
		Kind:        domain.NotifyInvoiceCreated,
		Member:      m.ID,
		RefType:     "invoice",
		RefID:       inv.ID,
		Recipient:   m.Email,
		Subject:     fmt.Sprintf("Invoice %s", inv.Number),
		Body:        invoiceNoticeBody(m, inv),
		Status:      domain.NotificationPending,
		DedupeKey:   "invoice:" + inv.Number,
		ScheduledAt: time.Now(),
	}
	if err := e.notify.Enqueue(ctx, n); err != nil {
		e.logger.Warn().Err(err).Str("invoice", inv.Number).Msg("enqueue invoice notice failed")
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
