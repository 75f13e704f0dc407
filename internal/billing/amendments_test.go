package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ledenbeheer/internal/domain"
)

type fakeAmendments struct {
	domain.AmendmentRepository
	open    bool
	created []domain.ContributionAmendment
	updated []domain.ContributionAmendment
	byID    map[string]*domain.ContributionAmendment
	due     []domain.ContributionAmendment
}

func (f *fakeAmendments) HasOpenForMember(context.Context, string) (bool, error) {
	return f.open, nil
}

func (f *fakeAmendments) Create(_ context.Context, a *domain.ContributionAmendment) error {
	a.ID = fmt.Sprintf("am-%d", len(f.created)+1)
	f.created = append(f.created, *a)
	return nil
}

func (f *fakeAmendments) GetByID(_ context.Context, id string) (*domain.ContributionAmendment, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAmendments) Update(_ context.Context, a *domain.ContributionAmendment) error {
	f.updated = append(f.updated, *a)
	if cur, ok := f.byID[a.ID]; ok {
		*cur = *a
	}
	return nil
}

func (f *fakeAmendments) ListDueForApply(context.Context, time.Time, int) ([]domain.ContributionAmendment, error) {
	return f.due, nil
}

type fakeScheduleStore struct {
	domain.DuesScheduleRepository
	byID    map[string]*domain.DuesSchedule
	created []*domain.DuesSchedule
	updated []domain.DuesSchedule
}

func (f *fakeScheduleStore) GetByID(_ context.Context, id string) (*domain.DuesSchedule, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeScheduleStore) Create(_ context.Context, s *domain.DuesSchedule) error {
	s.ID = fmt.Sprintf("sched-new-%d", len(f.created)+1)
	f.created = append(f.created, s)
	return nil
}

func (f *fakeScheduleStore) Update(_ context.Context, s *domain.DuesSchedule) error {
	f.updated = append(f.updated, *s)
	if cur, ok := f.byID[s.ID]; ok {
		*cur = *s
	}
	return nil
}

func amendmentFixtures() (*fakeAmendments, *fakeScheduleStore, *fakeMembers, *fakeNotify, *Amendments) {
	s := monthlySchedule()
	sch := &fakeScheduleStore{byID: map[string]*domain.DuesSchedule{s.ID: &s}}
	ams := &fakeAmendments{byID: map[string]*domain.ContributionAmendment{}}
	mem := &fakeMembers{member: domain.Member{ID: "member-1", FirstName: "Jan", LastName: "Jansen", Email: "jan@example.org", Status: domain.MemberStatusActive}}
	not := &fakeNotify{}
	svc := NewAmendments(ams, sch, mem, not, zerolog.Nop())
	return ams, sch, mem, not, svc
}

func TestRequestSmallFeeChangeAutoApproves(t *testing.T) {
	ams, _, _, not, svc := amendmentFixtures()

	am, err := svc.Request(context.Background(), AmendmentRequest{
		ScheduleID:  "sched-1",
		Type:        domain.AmendmentFeeChange,
		NewAmount:   decimal.RequireFromString("12.00"), // 4% below current 12.50
		Reason:      "student discount",
		RequestedBy: "board@example.org",
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if am.Status != domain.AmendmentApproved || am.ApprovedBy != "auto" {
		t.Fatalf("status = %s approved_by = %s", am.Status, am.ApprovedBy)
	}
	if !am.CurrentAmount.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("current amount snapshot = %s", am.CurrentAmount)
	}
	if !am.EffectiveDate.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("effective date should default to next invoice date, got %v", am.EffectiveDate)
	}
	if len(ams.created) != 1 {
		t.Fatalf("created = %d", len(ams.created))
	}
	if len(not.enqueued) != 1 || not.enqueued[0].Kind != domain.NotifyAmendmentState {
		t.Fatalf("notifications = %+v", not.enqueued)
	}
}

func TestRequestLargeFeeChangeNeedsApproval(t *testing.T) {
	_, _, _, not, svc := amendmentFixtures()

	am, err := svc.Request(context.Background(), AmendmentRequest{
		ScheduleID: "sched-1",
		Type:       domain.AmendmentFeeChange,
		NewAmount:  decimal.NewFromInt(20),
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if am.Status != domain.AmendmentPending {
		t.Fatalf("status = %s, want pending", am.Status)
	}
	if !strings.HasPrefix(am.Notes, "pending review:") || !strings.Contains(am.Notes, "third-party request") {
		t.Fatalf("notes = %q, want the review reasons recorded", am.Notes)
	}
	if len(not.enqueued) != 0 {
		t.Fatal("no notification until a decision is made")
	}
}

func TestRequestPastEffectiveDateRejected(t *testing.T) {
	_, _, _, _, svc := amendmentFixtures()

	_, err := svc.Request(context.Background(), AmendmentRequest{
		ScheduleID:    "sched-1",
		Type:          domain.AmendmentFeeChange,
		NewAmount:     decimal.NewFromInt(20),
		EffectiveDate: time.Now().AddDate(0, 0, -2),
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestRequestSelfServiceIncreaseAutoApproves(t *testing.T) {
	_, _, _, _, svc := amendmentFixtures()

	am, err := svc.Request(context.Background(), AmendmentRequest{
		ScheduleID:  "sched-1",
		Type:        domain.AmendmentFeeChange,
		NewAmount:   decimal.NewFromInt(25), // double, but a voluntary increase
		SelfService: true,
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if am.Status != domain.AmendmentApproved {
		t.Fatalf("status = %s, want approved", am.Status)
	}
}

func TestRequestBlockedByOpenAmendment(t *testing.T) {
	ams, _, _, _, svc := amendmentFixtures()
	ams.open = true

	_, err := svc.Request(context.Background(), AmendmentRequest{
		ScheduleID: "sched-1",
		Type:       domain.AmendmentFeeChange,
		NewAmount:  decimal.NewFromInt(20),
	})
	if !errors.Is(err, domain.ErrAmendmentOpen) {
		t.Fatalf("err = %v, want ErrAmendmentOpen", err)
	}
}

func TestRequestValidation(t *testing.T) {
	_, _, _, _, svc := amendmentFixtures()

	cases := []AmendmentRequest{
		{ScheduleID: "sched-1", Type: domain.AmendmentFeeChange, NewAmount: decimal.Zero},
		{ScheduleID: "sched-1", Type: domain.AmendmentFeeChange, NewAmount: decimal.RequireFromString("12.50")},
		{ScheduleID: "sched-1", Type: domain.AmendmentIntervalChange, NewFreq: domain.FrequencyMonthly},
		{ScheduleID: "sched-1", Type: domain.AmendmentIntervalChange, NewFreq: "Fortnightly"},
		{ScheduleID: "sched-1", Type: "Name Change"},
	}
	for i, req := range cases {
		if _, err := svc.Request(context.Background(), req); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("case %d: err = %v, want ErrInvalidInput", i, err)
		}
	}
}

func TestApproveThenApplyRollsOverSchedule(t *testing.T) {
	ams, sch, _, not, svc := amendmentFixtures()
	eff := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	ams.byID["am-7"] = &domain.ContributionAmendment{
		ID:            "am-7",
		Schedule:      "sched-1",
		Member:        "member-1",
		Type:          domain.AmendmentFeeChange,
		Status:        domain.AmendmentPending,
		CurrentAmount: decimal.RequireFromString("12.50"),
		NewAmount:     decimal.NewFromInt(20),
		EffectiveDate: eff,
	}

	am, err := svc.Approve(context.Background(), "am-7", "penningmeester")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if am.Status != domain.AmendmentApproved || am.ApprovedBy != "penningmeester" || am.ApprovedAt == nil {
		t.Fatalf("after approve: %+v", am)
	}

	successor, err := svc.Apply(context.Background(), am, time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if successor == nil {
		t.Fatal("expected a successor schedule")
	}
	if !successor.DuesRate.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("successor rate = %s", successor.DuesRate)
	}
	if successor.BillingFrequency != domain.FrequencyMonthly {
		t.Fatalf("successor frequency = %s", successor.BillingFrequency)
	}
	if !successor.NextInvoiceDate.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("successor next invoice = %v", successor.NextInvoiceDate)
	}

	old := sch.byID["sched-1"]
	if old.Status != domain.DuesCancelled || old.AutoGenerate {
		t.Fatalf("old schedule not retired: %+v", old)
	}
	final := ams.byID["am-7"]
	if final.Status != domain.AmendmentApplied || final.AppliedAt == nil {
		t.Fatalf("amendment not marked applied: %+v", final)
	}
	if len(not.enqueued) != 2 { // approval + applied
		t.Fatalf("notifications = %d", len(not.enqueued))
	}
}

func TestApplyIntervalChangeKeepsRate(t *testing.T) {
	ams, sch, _, _, svc := amendmentFixtures()
	ams.byID["am-1"] = &domain.ContributionAmendment{
		ID:            "am-1",
		Schedule:      "sched-1",
		Member:        "member-1",
		Type:          domain.AmendmentIntervalChange,
		Status:        domain.AmendmentApproved,
		CurrentFreq:   domain.FrequencyMonthly,
		NewFreq:       domain.FrequencyAnnual,
		EffectiveDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	successor, err := svc.Apply(context.Background(), ams.byID["am-1"], time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if successor.BillingFrequency != domain.FrequencyAnnual {
		t.Fatalf("frequency = %s", successor.BillingFrequency)
	}
	if !successor.DuesRate.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("rate should carry over, got %s", successor.DuesRate)
	}
	// effective before the next boundary keeps the later boundary
	if !successor.NextInvoiceDate.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("next invoice = %v", successor.NextInvoiceDate)
	}
	if len(sch.created) != 1 {
		t.Fatalf("created schedules = %d", len(sch.created))
	}
}

func TestApplyBeforeEffectiveDateSkips(t *testing.T) {
	ams, sch, _, _, svc := amendmentFixtures()
	am := &domain.ContributionAmendment{
		ID:            "am-1",
		Schedule:      "sched-1",
		Status:        domain.AmendmentApproved,
		Type:          domain.AmendmentFeeChange,
		NewAmount:     decimal.NewFromInt(20),
		EffectiveDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	ams.byID["am-1"] = am

	successor, err := svc.Apply(context.Background(), am, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if successor != nil || len(sch.created) != 0 {
		t.Fatal("amendment applied before its effective date")
	}
}

func TestApplyOrphanedAmendmentCancels(t *testing.T) {
	ams, sch, _, _, svc := amendmentFixtures()
	sch.byID["sched-1"].Status = domain.DuesCancelled
	am := &domain.ContributionAmendment{
		ID:            "am-1",
		Schedule:      "sched-1",
		Member:        "member-1",
		Status:        domain.AmendmentApproved,
		Type:          domain.AmendmentFeeChange,
		NewAmount:     decimal.NewFromInt(20),
		EffectiveDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	ams.byID["am-1"] = am

	successor, err := svc.Apply(context.Background(), am, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if successor != nil {
		t.Fatal("no successor expected for a cancelled schedule")
	}
	if ams.byID["am-1"].Status != domain.AmendmentCancel {
		t.Fatalf("amendment status = %s, want cancelled", ams.byID["am-1"].Status)
	}
}

func TestApplyDueCounts(t *testing.T) {
	ams, sch, _, _, svc := amendmentFixtures()
	ready := domain.ContributionAmendment{
		ID:            "am-1",
		Schedule:      "sched-1",
		Member:        "member-1",
		Status:        domain.AmendmentApproved,
		Type:          domain.AmendmentFeeChange,
		NewAmount:     decimal.NewFromInt(20),
		EffectiveDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	missing := ready
	missing.ID = "am-2"
	missing.Schedule = "sched-missing"
	ams.due = []domain.ContributionAmendment{ready, missing}
	ams.byID["am-1"] = &ready

	report, err := svc.ApplyDue(context.Background(), time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), 0)
	if err != nil {
		t.Fatalf("ApplyDue: %v", err)
	}
	if report.Examined != 2 || report.Applied != 1 || report.Failed != 1 {
		t.Fatalf("report = %+v", report)
	}
	if len(sch.created) != 1 {
		t.Fatalf("created schedules = %d", len(sch.created))
	}
}

func TestRejectKeepsReason(t *testing.T) {
	ams, _, _, not, svc := amendmentFixtures()
	ams.byID["am-1"] = &domain.ContributionAmendment{
		ID:       "am-1",
		Schedule: "sched-1",
		Member:   "member-1",
		Type:     domain.AmendmentFeeChange,
		Status:   domain.AmendmentPending,
		Reason:   "can no longer afford",
	}

	am, err := svc.Reject(context.Background(), "am-1", "penningmeester", "please contact us first")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if am.Status != domain.AmendmentRejected {
		t.Fatalf("status = %s", am.Status)
	}
	if am.Reason != "can no longer afford" {
		t.Fatalf("request reason was overwritten: %q", am.Reason)
	}
	if len(not.enqueued) != 1 {
		t.Fatalf("notifications = %d", len(not.enqueued))
	}
}

func TestCancelRequiresReason(t *testing.T) {
	ams, _, _, _, svc := amendmentFixtures()
	ams.byID["am-1"] = &domain.ContributionAmendment{
		ID:       "am-1",
		Schedule: "sched-1",
		Member:   "member-1",
		Type:     domain.AmendmentFeeChange,
		Status:   domain.AmendmentPending,
	}

	if _, err := svc.Cancel(context.Background(), "am-1", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}

	am, err := svc.Cancel(context.Background(), "am-1", "member withdrew the request")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if am.Status != domain.AmendmentCancel {
		t.Fatalf("status = %s", am.Status)
	}
	if !strings.Contains(am.Notes, "cancelled: member withdrew the request") {
		t.Fatalf("notes = %q", am.Notes)
	}

	// a second cancel hits a closed amendment
	if _, err := svc.Cancel(context.Background(), "am-1", "again"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}
