package billing

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ledenbeheer/internal/domain"
)

type fakeSchedules struct {
	domain.DuesScheduleRepository
	due     []domain.DuesSchedule
	updated []domain.DuesSchedule
}

func (f *fakeSchedules) ListDue(_ context.Context, _ time.Time, _ int) ([]domain.DuesSchedule, error) {
	return f.due, nil
}

func (f *fakeSchedules) Update(_ context.Context, s *domain.DuesSchedule) error {
	f.updated = append(f.updated, *s)
	return nil
}

type fakeInvoices struct {
	domain.InvoiceRepository
	openCount int
	seq       int
	created   []domain.Invoice
}

func (f *fakeInvoices) CountOpenByMember(context.Context, string) (int, error) {
	return f.openCount, nil
}

func (f *fakeInvoices) NextSequence(context.Context, int) (int, error) {
	f.seq++
	return f.seq, nil
}

func (f *fakeInvoices) Create(_ context.Context, inv *domain.Invoice) error {
	f.created = append(f.created, *inv)
	return nil
}

type fakeMembers struct {
	domain.MemberRepository
	member domain.Member
}

func (f *fakeMembers) GetByID(context.Context, string) (*domain.Member, error) {
	m := f.member
	return &m, nil
}

type fakeSettings struct {
	domain.SettingsRepository
	cfg domain.Settings
}

func (f *fakeSettings) Get(context.Context) (*domain.Settings, error) {
	c := f.cfg
	return &c, nil
}

type fakeNotify struct {
	domain.NotificationRepository
	enqueued []domain.Notification
}

func (f *fakeNotify) Enqueue(_ context.Context, n *domain.Notification) error {
	f.enqueued = append(f.enqueued, *n)
	return nil
}

func monthlySchedule() domain.DuesSchedule {
	return domain.DuesSchedule{
		ID:               "sched-1",
		Member:           "member-1",
		BillingFrequency: domain.FrequencyMonthly,
		DuesRate:         decimal.RequireFromString("12.50"),
		NextInvoiceDate:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		InvoiceLeadDays:  30,
		Status:           domain.DuesActive,
		AutoGenerate:     true,
		PaymentMethod:    domain.PaymentMethodDirectDebit,
	}
}

func newTestEngine(sch *fakeSchedules, inv *fakeInvoices, mem *fakeMembers, not *fakeNotify) *Engine {
	set := &fakeSettings{cfg: domain.Settings{InvoiceDueDays: 14}}
	return NewEngine(sch, inv, mem, set, not, zerolog.Nop())
}

func TestGenerateNextCreatesInvoiceAndAdvances(t *testing.T) {
	sch := &fakeSchedules{}
	inv := &fakeInvoices{seq: 6}
	mem := &fakeMembers{member: domain.Member{ID: "member-1", FirstName: "Jan", LastName: "Jansen", Email: "jan@example.org", Status: domain.MemberStatusActive}}
	not := &fakeNotify{}
	e := newTestEngine(sch, inv, mem, not)

	s := monthlySchedule()
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	created, err := e.GenerateNext(context.Background(), &s, now)
	if err != nil {
		t.Fatalf("GenerateNext: %v", err)
	}
	if created == nil {
		t.Fatal("expected an invoice")
	}
	if created.Number != "INV-2026-0007" {
		t.Fatalf("invoice number = %s", created.Number)
	}
	wantStart := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	if !created.CoverageStart.Equal(wantStart) || !created.CoverageEnd.Equal(wantEnd) {
		t.Fatalf("coverage = %v..%v", created.CoverageStart, created.CoverageEnd)
	}
	if !created.DueDate.Equal(time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("due date = %v", created.DueDate)
	}
	if !s.NextInvoiceDate.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("schedule not advanced: %v", s.NextInvoiceDate)
	}
	if len(sch.updated) != 1 {
		t.Fatalf("schedule update calls = %d", len(sch.updated))
	}
	if len(not.enqueued) != 1 || not.enqueued[0].DedupeKey != "invoice:INV-2026-0007" {
		t.Fatalf("notification = %+v", not.enqueued)
	}
}

func TestGenerateNextSkipsAtUnpaidCap(t *testing.T) {
	sch := &fakeSchedules{}
	inv := &fakeInvoices{openCount: domain.MaxUnpaidInvoices}
	mem := &fakeMembers{member: domain.Member{ID: "member-1", Status: domain.MemberStatusActive}}
	e := newTestEngine(sch, inv, mem, &fakeNotify{})

	s := monthlySchedule()
	created, err := e.GenerateNext(context.Background(), &s, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GenerateNext: %v", err)
	}
	if created != nil || len(inv.created) != 0 {
		t.Fatal("generation should be skipped at the unpaid cap")
	}
}

func TestGenerateNextSkipsTerminalMember(t *testing.T) {
	mem := &fakeMembers{member: domain.Member{ID: "member-1", Status: domain.MemberStatusTerminated}}
	inv := &fakeInvoices{}
	e := newTestEngine(&fakeSchedules{}, inv, mem, &fakeNotify{})

	s := monthlySchedule()
	created, err := e.GenerateNext(context.Background(), &s, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GenerateNext: %v", err)
	}
	if created != nil || len(inv.created) != 0 {
		t.Fatal("terminated member should not be invoiced")
	}
}

func TestGenerateNextOutsideLeadWindow(t *testing.T) {
	mem := &fakeMembers{member: domain.Member{ID: "member-1", Status: domain.MemberStatusActive}}
	e := newTestEngine(&fakeSchedules{}, &fakeInvoices{}, mem, &fakeNotify{})

	s := monthlySchedule() // next invoice 2026-02-01, lead 30
	created, err := e.GenerateNext(context.Background(), &s, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GenerateNext: %v", err)
	}
	if created != nil {
		t.Fatal("invoice generated before the lead window opened")
	}
}

func TestRunCountsOutcomes(t *testing.T) {
	active := monthlySchedule()
	capped := monthlySchedule()
	capped.ID = "sched-2"
	capped.Member = "member-2"

	sch := &fakeSchedules{due: []domain.DuesSchedule{active, capped}}
	inv := &fakeInvoices{}
	mem := &fakeMembers{member: domain.Member{ID: "member-1", Status: domain.MemberStatusActive}}
	not := &fakeNotify{}
	e := newTestEngine(sch, inv, mem, not)

	// Second schedule hits the cap via openCount flip after first create.
	firstDone := false
	e.OnInvoiceGenerated(func() {
		if !firstDone {
			firstDone = true
			inv.openCount = domain.MaxUnpaidInvoices
		}
	})

	report, err := e.Run(context.Background(), time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Examined != 2 || report.Generated != 1 || report.Skipped != 1 || report.Failed != 0 {
		t.Fatalf("report = %+v", report)
	}
}
