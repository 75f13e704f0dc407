package anbi

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ledenbeheer/internal/domain"
)

type fakeNotify struct {
	domain.NotificationRepository
	enqueued []domain.Notification
	seen     map[string]bool
}

func (f *fakeNotify) Enqueue(_ context.Context, n *domain.Notification) error {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[n.DedupeKey] {
		n.ID = ""
		return nil
	}
	f.seen[n.DedupeKey] = true
	n.ID = fmt.Sprintf("n-%d", len(f.enqueued)+1)
	f.enqueued = append(f.enqueued, *n)
	return nil
}

func (f *fakeNotify) ExistsDedupe(_ context.Context, key string) (bool, error) {
	return f.seen[key], nil
}

func agreementEnding(number string, end time.Time) domain.PeriodicAgreement {
	return domain.PeriodicAgreement{
		ID:           "id-" + number,
		Number:       number,
		Donor:        "donor-1",
		DonorName:    "A. de Boer",
		AnnualAmount: decimal.NewFromInt(600),
		Status:       domain.AgreementActive,
		EndDate:      end,
	}
}

func TestNoticeWindow(t *testing.T) {
	cases := []struct {
		days   int
		offset int
		ok     bool
	}{
		{90, 90, true},
		{75, 90, true},
		{61, 90, true},
		{60, 60, true},
		{31, 60, true},
		{30, 30, true},
		{5, 30, true},
		{0, 30, true},
		{91, 0, false},
		{120, 0, false},
	}
	for _, c := range cases {
		offset, ok := noticeWindow(c.days)
		if ok != c.ok || offset != c.offset {
			t.Fatalf("noticeWindow(%d) = %d,%t want %d,%t", c.days, offset, ok, c.offset, c.ok)
		}
	}
}

func TestSweepNotifiesOncePerWindow(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	agreements := &fakeAgreements{expiring: []domain.PeriodicAgreement{
		agreementEnding("PDA-2021-003", now.AddDate(0, 0, 45)),
	}}
	donors := &fakeDonors{byID: map[string]*domain.Donor{
		"donor-1": {ID: "donor-1", Name: "A. de Boer", Email: "a@example.org"},
	}}
	notify := &fakeNotify{}
	s := NewSweeper(agreements, donors, notify, zerolog.Nop())

	report, err := s.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Notified != 1 {
		t.Fatalf("report = %+v", report)
	}
	if notify.enqueued[0].DedupeKey != "agreement:PDA-2021-003:60" {
		t.Fatalf("dedupe key = %s", notify.enqueued[0].DedupeKey)
	}

	// A second sweep in the same window stays quiet.
	report, err = s.Run(context.Background(), now.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if report.Notified != 0 {
		t.Fatalf("second report = %+v", report)
	}
}

func (f *fakeDonors) ListMissingConsent(_ context.Context, limit int) ([]domain.Donor, error) {
	if limit > 0 && limit < len(f.missing) {
		return f.missing[:limit], nil
	}
	return f.missing, nil
}

func TestRequestConsentChasesDonorsOncePerYear(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	donors := &fakeDonors{missing: []domain.Donor{
		{ID: "donor-1", Name: "A. de Boer", Email: "a@example.org"},
		{ID: "donor-2", Name: "Stichting Zonder Mail"},
	}}
	notify := &fakeNotify{}
	s := NewSweeper(&fakeAgreements{}, donors, notify, zerolog.Nop())

	sent, err := s.RequestConsent(context.Background(), now, 100)
	if err != nil {
		t.Fatalf("RequestConsent: %v", err)
	}
	if sent != 1 {
		t.Fatalf("sent = %d, want 1 (no mail without an address)", sent)
	}
	n := notify.enqueued[0]
	if n.Kind != domain.NotifyConsentRequest || n.RefID != "donor-1" {
		t.Fatalf("notification = %+v", n)
	}
	if n.DedupeKey != "consent:donor-1:2026" {
		t.Fatalf("dedupe key = %s", n.DedupeKey)
	}

	// The same year never chases the same donor twice.
	sent, err = s.RequestConsent(context.Background(), now.AddDate(0, 1, 0), 100)
	if err != nil {
		t.Fatalf("second RequestConsent: %v", err)
	}
	if sent != 0 {
		t.Fatalf("second sent = %d", sent)
	}
}

func TestSweepCompletesExpired(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	agreements := &fakeAgreements{expiring: []domain.PeriodicAgreement{
		agreementEnding("PDA-2021-001", now.AddDate(0, 0, -3)),
	}}
	s := NewSweeper(agreements, &fakeDonors{}, &fakeNotify{}, zerolog.Nop())

	report, err := s.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Completed != 1 || report.Notified != 0 {
		t.Fatalf("report = %+v", report)
	}
	if len(agreements.updated) != 1 || agreements.updated[0].Status != domain.AgreementCompleted {
		t.Fatalf("updated = %+v", agreements.updated)
	}
}
