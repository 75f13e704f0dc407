package termination

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ledenbeheer/internal/domain"
)

type fakeRequests struct {
	domain.TerminationRepository
	existing []domain.TerminationRequest
	created  []domain.TerminationRequest
	updated  []domain.TerminationRequest
}

func (f *fakeRequests) ListByMember(context.Context, string) ([]domain.TerminationRequest, error) {
	return f.existing, nil
}

func (f *fakeRequests) Create(_ context.Context, r *domain.TerminationRequest) error {
	r.ID = "term-1"
	f.created = append(f.created, *r)
	return nil
}

func (f *fakeRequests) Update(_ context.Context, r *domain.TerminationRequest) error {
	f.updated = append(f.updated, *r)
	return nil
}

type fakeMembers struct {
	domain.MemberRepository
	member   *domain.Member
	statuses []domain.MemberStatus
}

func (f *fakeMembers) GetByID(context.Context, string) (*domain.Member, error) {
	if f.member == nil {
		return nil, domain.ErrNotFound
	}
	cp := *f.member
	return &cp, nil
}

func (f *fakeMembers) UpdateStatus(_ context.Context, _ string, status domain.MemberStatus) error {
	f.statuses = append(f.statuses, status)
	return nil
}

type fakeMemberships struct {
	domain.MembershipRepository
	list      []domain.Membership
	updated   []domain.Membership
	updateErr error
}

func (f *fakeMemberships) ListByMember(context.Context, string) ([]domain.Membership, error) {
	return f.list, nil
}

func (f *fakeMemberships) Update(_ context.Context, m *domain.Membership) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, *m)
	return nil
}

type fakeSchedules struct {
	domain.DuesScheduleRepository
	active  *domain.DuesSchedule
	updated []domain.DuesSchedule
}

func (f *fakeSchedules) GetActiveByMember(context.Context, string) (*domain.DuesSchedule, error) {
	if f.active == nil {
		return nil, domain.ErrNotFound
	}
	return f.active, nil
}

func (f *fakeSchedules) Update(_ context.Context, s *domain.DuesSchedule) error {
	f.updated = append(f.updated, *s)
	return nil
}

type fakeMandates struct {
	domain.MandateRepository
	list    []domain.Mandate
	updated []domain.Mandate
}

func (f *fakeMandates) ListByMember(context.Context, string) ([]domain.Mandate, error) {
	return f.list, nil
}

func (f *fakeMandates) Update(_ context.Context, m *domain.Mandate) error {
	f.updated = append(f.updated, *m)
	return nil
}

type fakeInvoices struct {
	domain.InvoiceRepository
	list    []domain.Invoice
	updated []domain.Invoice
}

func (f *fakeInvoices) ListByMember(context.Context, string, int) ([]domain.Invoice, error) {
	return f.list, nil
}

func (f *fakeInvoices) Update(_ context.Context, inv *domain.Invoice) error {
	f.updated = append(f.updated, *inv)
	return nil
}

type fakeChapters struct {
	domain.ChapterRepository
	board []domain.BoardMember
	ended []string
}

func (f *fakeChapters) ListBoardByMember(context.Context, string, bool) ([]domain.BoardMember, error) {
	return f.board, nil
}

func (f *fakeChapters) EndBoardMember(_ context.Context, id string, _ time.Time) error {
	f.ended = append(f.ended, id)
	return nil
}

type fakeVolunteers struct {
	domain.VolunteerRepository
	teams         []domain.TeamMember
	volunteer     *domain.Volunteer
	activities    []domain.Activity
	ended         []string
	endedActivity []string
	updated       []domain.Volunteer
}

func (f *fakeVolunteers) ListTeamsByMember(context.Context, string, bool) ([]domain.TeamMember, error) {
	return f.teams, nil
}

func (f *fakeVolunteers) EndTeamMember(_ context.Context, id string, _ time.Time) error {
	f.ended = append(f.ended, id)
	return nil
}

func (f *fakeVolunteers) GetByMember(context.Context, string) (*domain.Volunteer, error) {
	if f.volunteer == nil {
		return nil, domain.ErrNotFound
	}
	return f.volunteer, nil
}

func (f *fakeVolunteers) ListActivities(context.Context, string) ([]domain.Activity, error) {
	return f.activities, nil
}

func (f *fakeVolunteers) EndActivity(_ context.Context, id string, _ time.Time) error {
	f.endedActivity = append(f.endedActivity, id)
	return nil
}

func (f *fakeVolunteers) Update(_ context.Context, v *domain.Volunteer) error {
	f.updated = append(f.updated, *v)
	return nil
}

type fakeExpenses struct {
	domain.ExpenseRepository
	list    []domain.Expense
	updated []domain.Expense
}

func (f *fakeExpenses) ListByVolunteer(context.Context, string, int) ([]domain.Expense, error) {
	return f.list, nil
}

func (f *fakeExpenses) Update(_ context.Context, e *domain.Expense) error {
	f.updated = append(f.updated, *e)
	return nil
}

type fakeAccounts struct {
	domain.AccountRepository
	account *domain.Account
	updated []domain.Account
}

func (f *fakeAccounts) GetByMember(context.Context, string) (*domain.Account, error) {
	if f.account == nil {
		return nil, domain.ErrNotFound
	}
	return f.account, nil
}

func (f *fakeAccounts) Update(_ context.Context, a *domain.Account) error {
	f.updated = append(f.updated, *a)
	return nil
}

type fakeNotify struct {
	domain.NotificationRepository
	enqueued []domain.Notification
}

func (f *fakeNotify) Enqueue(_ context.Context, n *domain.Notification) error {
	f.enqueued = append(f.enqueued, *n)
	return nil
}

type executorFakes struct {
	requests    *fakeRequests
	members     *fakeMembers
	memberships *fakeMemberships
	schedules   *fakeSchedules
	mandates    *fakeMandates
	invoices    *fakeInvoices
	chapters    *fakeChapters
	volunteers  *fakeVolunteers
	expenses    *fakeExpenses
	accounts    *fakeAccounts
	notify      *fakeNotify
}

func newFakes() *executorFakes {
	return &executorFakes{
		requests:    &fakeRequests{},
		members:     &fakeMembers{member: &domain.Member{ID: "member-1", FirstName: "Jan", LastName: "Jansen", Email: "jan@example.org", Status: domain.MemberStatusActive}},
		memberships: &fakeMemberships{},
		schedules:   &fakeSchedules{},
		mandates:    &fakeMandates{},
		invoices:    &fakeInvoices{},
		chapters:    &fakeChapters{},
		volunteers:  &fakeVolunteers{},
		expenses:    &fakeExpenses{},
		accounts:    &fakeAccounts{},
		notify:      &fakeNotify{},
	}
}

func (f *executorFakes) executor() *Executor {
	return NewExecutor(f.requests, f.members, f.memberships, f.schedules, f.mandates, f.invoices, f.chapters, f.volunteers, f.expenses, f.accounts, f.notify, zerolog.Nop())
}

func TestSubmitVoluntaryAutoApproves(t *testing.T) {
	f := newFakes()
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	req := &domain.TerminationRequest{Member: "member-1", Type: domain.TerminationVoluntary, RequestedBy: "member-1"}

	if err := f.executor().Submit(context.Background(), req, now); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if req.Status != domain.TerminationApproved {
		t.Fatalf("status = %s", req.Status)
	}
	want := now.AddDate(0, 0, domain.DefaultGracePeriodDays)
	if !req.EffectiveDate.Equal(want) {
		t.Fatalf("effective = %v, want %v", req.EffectiveDate, want)
	}
	if len(req.Audit) != 2 || req.Audit[0].Event != "requested" || req.Audit[1].Event != "approved" {
		t.Fatalf("audit = %+v", req.Audit)
	}
}

func TestSubmitDisciplinaryNeedsDocs(t *testing.T) {
	f := newFakes()
	req := &domain.TerminationRequest{Member: "member-1", Type: domain.TerminationExpulsion, RequestedBy: "chair"}
	err := f.executor().Submit(context.Background(), req, time.Now())
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}

	req.DisciplinaryDocs = "board minutes 2026-01"
	if err := f.executor().Submit(context.Background(), req, time.Now()); err != nil {
		t.Fatalf("Submit with docs: %v", err)
	}
	if req.Status != domain.TerminationPending {
		t.Fatalf("status = %s", req.Status)
	}
}

func TestSubmitBlockedByOpenRequest(t *testing.T) {
	f := newFakes()
	f.requests.existing = []domain.TerminationRequest{{ID: "term-0", Status: domain.TerminationPending}}
	req := &domain.TerminationRequest{Member: "member-1", Type: domain.TerminationVoluntary}
	if err := f.executor().Submit(context.Background(), req, time.Now()); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestApproveRequiresSecondPerson(t *testing.T) {
	f := newFakes()
	req := &domain.TerminationRequest{
		Member: "member-1", Type: domain.TerminationExpulsion,
		RequestedBy: "chair", Status: domain.TerminationPending,
	}
	e := f.executor()
	if err := e.Approve(context.Background(), req, "chair", time.Now()); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("self-approval: err = %v, want ErrForbidden", err)
	}

	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	if err := e.Approve(context.Background(), req, "secretary", now); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if req.Status != domain.TerminationApproved || req.SecondaryApprover != "secretary" {
		t.Fatalf("request = %+v", req)
	}
	// Disciplinary terminations take effect immediately.
	if !req.EffectiveDate.Equal(now) {
		t.Fatalf("effective = %v, want %v", req.EffectiveDate, now)
	}
}

func TestApproveExpulsionRecordsReportEntry(t *testing.T) {
	f := newFakes()
	req := &domain.TerminationRequest{
		Member: "member-1", Type: domain.TerminationExpelled,
		RequestedBy: "chair", Status: domain.TerminationPending,
	}
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	if err := f.executor().Approve(context.Background(), req, "secretary", now); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	var reported bool
	for _, row := range req.Audit {
		if row.Event == "expulsion_reported" {
			reported = true
		}
	}
	if !reported {
		t.Fatalf("audit = %+v, want an expulsion register entry", req.Audit)
	}
}

func TestExecuteRunsCascade(t *testing.T) {
	f := newFakes()
	now := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	f.memberships.list = []domain.Membership{
		{ID: "ms-1", Status: domain.MembershipActive},
		{ID: "ms-2", Status: domain.MembershipExpired}, // untouched
	}
	f.schedules.active = &domain.DuesSchedule{ID: "sched-1", Status: domain.DuesActive}
	f.mandates.list = []domain.Mandate{
		{ID: "mnd-1", Reference: "M-10001-20250601-001", Status: domain.MandateActive},
		{ID: "mnd-2", Reference: "M-10001-20200101-001", Status: domain.MandateExpired}, // untouched
	}
	f.invoices.list = []domain.Invoice{
		{ID: "inv-1", Number: "INV-2026-0001", Status: domain.InvoiceUnpaid, Outstanding: decimal.RequireFromString("12.50")},
		{ID: "inv-2", Number: "INV-2025-0090", Status: domain.InvoicePaid},
	}
	f.chapters.board = []domain.BoardMember{{ID: "bm-1"}}
	f.volunteers.teams = []domain.TeamMember{{ID: "tm-1"}, {ID: "tm-2"}}
	f.volunteers.volunteer = &domain.Volunteer{ID: "vol-1", Status: domain.VolunteerActive}
	f.volunteers.activities = []domain.Activity{
		{ID: "act-1", Status: "Active"},
		{ID: "act-2", Status: "Ended"}, // untouched
	}
	f.expenses.list = []domain.Expense{
		{ID: "exp-1", Status: domain.ExpenseSubmitted, Amount: decimal.RequireFromString("15.00")},
		{ID: "exp-2", Status: domain.ExpenseReimbursed},
	}

	req := &domain.TerminationRequest{
		ID: "term-1", Member: "member-1", Type: domain.TerminationVoluntary,
		Status: domain.TerminationApproved, EffectiveDate: now.AddDate(0, 0, -1),
	}
	if err := f.executor().Execute(context.Background(), req, now); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	c := req.Cascade
	if c.MembershipsEnded != 1 || c.SchedulesCancelled != 1 || c.MandatesCancelled != 1 || c.InvoicesCancelled != 1 {
		t.Fatalf("cascade = %+v", c)
	}
	if c.BoardRolesEnded != 1 || c.TeamRolesEnded != 2 || !c.VolunteerRetired {
		t.Fatalf("cascade roles = %+v", c)
	}
	if c.ActivitiesEnded != 1 || c.ExpensesCancelled != 1 {
		t.Fatalf("cascade volunteer work = %+v", c)
	}
	if len(f.expenses.updated) != 1 || f.expenses.updated[0].Status != domain.ExpenseRejected {
		t.Fatalf("expenses updated = %+v", f.expenses.updated)
	}
	if req.Status != domain.TerminationExecuted || req.ExecutedAt == nil {
		t.Fatalf("request = %+v", req)
	}
	if len(f.members.statuses) != 1 || f.members.statuses[0] != domain.MemberStatusTerminated {
		t.Fatalf("member statuses = %v", f.members.statuses)
	}
	if len(f.notify.enqueued) != 1 || f.notify.enqueued[0].Kind != domain.NotifyTermination {
		t.Fatalf("notifications = %+v", f.notify.enqueued)
	}
}

func TestExecuteDisciplinaryDisablesPortal(t *testing.T) {
	f := newFakes()
	now := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	f.accounts.account = &domain.Account{ID: "acct-1", MemberID: "member-1", Active: true}

	req := &domain.TerminationRequest{
		ID: "term-2", Member: "member-1", Type: domain.TerminationExpulsion,
		Status: domain.TerminationApproved, EffectiveDate: now,
	}
	if err := f.executor().Execute(context.Background(), req, now); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !req.Cascade.PortalDisabled {
		t.Fatalf("cascade = %+v", req.Cascade)
	}
	if len(f.accounts.updated) != 1 || f.accounts.updated[0].Active {
		t.Fatalf("accounts updated = %+v", f.accounts.updated)
	}
	if f.members.statuses[0] != domain.MemberStatusBanned {
		t.Fatalf("member status = %v", f.members.statuses)
	}
	// Expulsions are not followed by a courtesy mail.
	if len(f.notify.enqueued) != 0 {
		t.Fatalf("notifications = %+v", f.notify.enqueued)
	}
}

func TestExecuteFailureRevertsToApproved(t *testing.T) {
	f := newFakes()
	now := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	f.memberships.list = []domain.Membership{{ID: "ms-1", Status: domain.MembershipActive}}
	f.memberships.updateErr = errors.New("connection reset")

	req := &domain.TerminationRequest{
		ID: "term-3", Member: "member-1", Type: domain.TerminationVoluntary,
		Status: domain.TerminationApproved, EffectiveDate: now,
	}
	if err := f.executor().Execute(context.Background(), req, now); err == nil {
		t.Fatal("Execute should fail")
	}
	if req.Status != domain.TerminationApproved || req.ExecutedAt != nil {
		t.Fatalf("request = %+v", req)
	}
	last := req.Audit[len(req.Audit)-1]
	if last.Event != "execution_failed" || !strings.Contains(last.Detail, "connection reset") {
		t.Fatalf("audit = %+v", req.Audit)
	}
	// The failure is persisted so the next sweep sees the trail.
	if len(f.requests.updated) != 1 {
		t.Fatalf("updates = %d", len(f.requests.updated))
	}
	if len(f.members.statuses) != 0 {
		t.Fatalf("member statuses = %v, want untouched", f.members.statuses)
	}
}

func TestExecuteStatusMapping(t *testing.T) {
	cases := []struct {
		typ  domain.TerminationType
		want domain.MemberStatus
	}{
		{domain.TerminationVoluntary, domain.MemberStatusTerminated},
		{domain.TerminationNonPayment, domain.MemberStatusTerminated},
		{domain.TerminationDeceased, domain.MemberStatusDeceased},
		{domain.TerminationExpulsion, domain.MemberStatusBanned},
		{domain.TerminationDisc, domain.MemberStatusBanned},
	}
	for _, c := range cases {
		if got := memberStatusFor(c.typ); got != c.want {
			t.Fatalf("memberStatusFor(%s) = %s, want %s", c.typ, got, c.want)
		}
	}
}

func TestExecuteGuards(t *testing.T) {
	f := newFakes()
	now := time.Now()
	e := f.executor()

	executed := &domain.TerminationRequest{Status: domain.TerminationExecuted}
	if err := e.Execute(context.Background(), executed, now); !errors.Is(err, domain.ErrTerminationImmutable) {
		t.Fatalf("executed: err = %v", err)
	}

	early := &domain.TerminationRequest{Status: domain.TerminationApproved, EffectiveDate: now.AddDate(0, 0, 10)}
	if err := e.Execute(context.Background(), early, now); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("early: err = %v", err)
	}

	pending := &domain.TerminationRequest{Status: domain.TerminationPending}
	if err := e.Execute(context.Background(), pending, now); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("pending: err = %v", err)
	}
}
