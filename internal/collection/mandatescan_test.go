package collection

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ledenbeheer/internal/domain"
)

type scanMandates struct {
	domain.MandateRepository
	active  []domain.Mandate
	updated []domain.Mandate
}

func (f *scanMandates) ListActive(_ context.Context, limit, offset int) ([]domain.Mandate, error) {
	if offset >= len(f.active) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.active) {
		end = len(f.active)
	}
	return f.active[offset:end], nil
}

func (f *scanMandates) Update(_ context.Context, m *domain.Mandate) error {
	f.updated = append(f.updated, *m)
	return nil
}

func scanMember(id, iban, holder string) *domain.Member {
	return &domain.Member{ID: id, FirstName: "Jan", Email: id + "@example.org", IBAN: iban, AccountHolder: holder, Status: domain.MemberStatusActive}
}

func TestScanFlagsTypoVsAccountChange(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	mandates := []domain.Mandate{
		{ID: "m1", Reference: "M-10001-20250601-001", Member: "member-1", IBAN: "NL91ABNA0417164300", Status: domain.MandateActive, SignDate: recent, LastUsedAt: &recent},
		{ID: "m2", Reference: "M-10002-20250601-001", Member: "member-2", IBAN: "NL91ABNA0417164300", Status: domain.MandateActive, SignDate: recent, LastUsedAt: &recent},
	}
	mnd := &scanMandates{active: mandates}
	mem := &fakeMembers{byID: map[string]*domain.Member{
		// one character off: a corrected typo, not a new account
		"member-1": scanMember("member-1", "NL91ABNA0417164301", ""),
		// different bank entirely
		"member-2": scanMember("member-2", "NL00RABO0123456789", ""),
	}}
	s := NewScanner(mnd, mem, &fakeNotify{}, zerolog.Nop())

	findings, err := s.Scan(context.Background(), now, false)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(findings) != 2 {
		t.Fatalf("findings = %+v", findings)
	}
	kinds := map[string]string{}
	for _, f := range findings {
		kinds[f.Member] = f.Kind
	}
	if kinds["member-1"] != DiscrepancyLikelyTypo {
		t.Fatalf("member-1 kind = %s", kinds["member-1"])
	}
	if kinds["member-2"] != DiscrepancyAccountChanged {
		t.Fatalf("member-2 kind = %s", kinds["member-2"])
	}
}

func TestScanExpiresLapsedMandateWhenApplied(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	old := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	mnd := &scanMandates{active: []domain.Mandate{
		{ID: "m1", Reference: "M-10001-20220101-001", Member: "member-1", IBAN: "NL91ABNA0417164300", Status: domain.MandateActive, SignDate: old},
	}}
	mem := &fakeMembers{byID: map[string]*domain.Member{"member-1": scanMember("member-1", "NL91ABNA0417164300", "")}}
	not := &fakeNotify{}
	s := NewScanner(mnd, mem, not, zerolog.Nop())

	findings, err := s.Scan(context.Background(), now, true)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(findings) != 1 || findings[0].Kind != DiscrepancyLapsed {
		t.Fatalf("findings = %+v", findings)
	}
	if len(mnd.updated) != 1 || mnd.updated[0].Status != domain.MandateExpired {
		t.Fatalf("updated = %+v", mnd.updated)
	}
	if len(not.enqueued) != 1 || not.enqueued[0].Kind != domain.NotifyMandateLapsed {
		t.Fatalf("notifications = %+v", not.enqueued)
	}
}

func TestScanReportsHolderMismatch(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	mnd := &scanMandates{active: []domain.Mandate{
		{ID: "m1", Reference: "M-10001-20250601-001", Member: "member-1", IBAN: "NL91ABNA0417164300", AccountHolder: "J. Jansen", Status: domain.MandateActive, SignDate: recent, LastUsedAt: &recent},
	}}
	mem := &fakeMembers{byID: map[string]*domain.Member{"member-1": scanMember("member-1", "NL91ABNA0417164300", "P. Jansen-de Wit")}}
	s := NewScanner(mnd, mem, &fakeNotify{}, zerolog.Nop())

	findings, err := s.Scan(context.Background(), now, false)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(findings) != 1 || findings[0].Kind != DiscrepancyNameMismatch {
		t.Fatalf("findings = %+v", findings)
	}
}

func TestScanAlignsCosmeticHolderName(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	mnd := &scanMandates{active: []domain.Mandate{
		{ID: "m1", Reference: "M-10001-20250601-001", Member: "member-1", IBAN: "NL91ABNA0417164300", AccountHolder: "j.p. jansen", Status: domain.MandateActive, SignDate: recent, LastUsedAt: &recent},
	}}
	mem := &fakeMembers{byID: map[string]*domain.Member{"member-1": scanMember("member-1", "NL91ABNA0417164300", "J P Jansen")}}
	s := NewScanner(mnd, mem, &fakeNotify{}, zerolog.Nop())

	findings, err := s.Scan(context.Background(), now, false)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(findings) != 0 {
		t.Fatalf("findings = %+v, spelling-only difference is not a discrepancy", findings)
	}
	if len(mnd.updated) != 0 {
		t.Fatalf("report-only run wrote %d updates", len(mnd.updated))
	}

	if _, err := s.Scan(context.Background(), now, true); err != nil {
		t.Fatalf("Scan apply: %v", err)
	}
	if len(mnd.updated) != 1 || mnd.updated[0].AccountHolder != "J P Jansen" {
		t.Fatalf("updated = %+v, want holder aligned with the member record", mnd.updated)
	}
}

func TestScanRetiresChangedAccountWhenApplied(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	mnd := &scanMandates{active: []domain.Mandate{
		{ID: "m1", Reference: "M-10001-20250601-001", Member: "member-1", IBAN: "NL91ABNA0417164300", Status: domain.MandateActive, SignDate: recent, LastUsedAt: &recent},
	}}
	mem := &fakeMembers{byID: map[string]*domain.Member{"member-1": scanMember("member-1", "NL00RABO0123456789", "")}}
	not := &fakeNotify{}
	s := NewScanner(mnd, mem, not, zerolog.Nop())

	findings, err := s.Scan(context.Background(), now, true)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(findings) != 1 || findings[0].Kind != DiscrepancyAccountChanged {
		t.Fatalf("findings = %+v", findings)
	}
	if len(mnd.updated) != 1 || mnd.updated[0].Status != domain.MandateCancelled || mnd.updated[0].CancelReason != "bank account changed" {
		t.Fatalf("updated = %+v", mnd.updated)
	}
	if len(not.enqueued) != 1 || not.enqueued[0].Kind != domain.NotifyMandateLapsed {
		t.Fatalf("notifications = %+v", not.enqueued)
	}
}

func TestScanReportsUncoveredMembers(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	mnd := &scanMandates{}
	mem := &fakeMembers{uncovered: []domain.Member{
		{ID: "member-9", IBAN: "NL91ABNA0417164300", PaymentMethod: domain.PaymentMethodDirectDebit, Status: domain.MemberStatusActive},
	}}
	s := NewScanner(mnd, mem, &fakeNotify{}, zerolog.Nop())

	findings, err := s.Scan(context.Background(), now, false)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(findings) != 1 || findings[0].Kind != DiscrepancyMissingMandate || findings[0].Member != "member-9" {
		t.Fatalf("findings = %+v", findings)
	}
}

func TestCharDiff(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"NL91ABNA0417164300", "NL91ABNA0417164300", 0},
		{"NL91ABNA0417164300", "NL91ABNA0417164301", 1},
		{"NL91ABNA0417164300", "NL19ABNA0417164300", 2},
		{"NL91ABNA0417164300", "NL91ABNA04171643", 2},
		{"ABC", "XYZ", 3},
	}
	for _, c := range cases {
		if got := charDiff(c.a, c.b); got != c.want {
			t.Fatalf("charDiff(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
