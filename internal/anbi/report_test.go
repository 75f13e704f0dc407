package anbi

import (
	archivezip "archive/zip"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/storage"
)

type fakeDonations struct {
	domain.DonationRepository
	reportable []domain.Donation
}

func (f *fakeDonations) ListReportable(context.Context, time.Time, time.Time) ([]domain.Donation, error) {
	return f.reportable, nil
}

type fakeDonors struct {
	domain.DonorRepository
	byID    map[string]*domain.Donor
	missing []domain.Donor
}

func (f *fakeDonors) GetByID(_ context.Context, id string) (*domain.Donor, error) {
	d, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

type fakeAgreements struct {
	domain.AgreementRepository
	byID     map[string]*domain.PeriodicAgreement
	expiring []domain.PeriodicAgreement
	active   []domain.PeriodicAgreement
	updated  []domain.PeriodicAgreement
}

func (f *fakeAgreements) GetByID(_ context.Context, id string) (*domain.PeriodicAgreement, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAgreements) ListExpiring(context.Context, time.Time, time.Time) ([]domain.PeriodicAgreement, error) {
	return f.expiring, nil
}

func (f *fakeAgreements) ListActive(_ context.Context, limit, offset int) ([]domain.PeriodicAgreement, error) {
	if offset >= len(f.active) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.active) {
		end = len(f.active)
	}
	return f.active[offset:end], nil
}

func (f *fakeAgreements) Update(_ context.Context, a *domain.PeriodicAgreement) error {
	f.updated = append(f.updated, *a)
	return nil
}

func TestReportable(t *testing.T) {
	small := domain.Donation{Amount: decimal.NewFromInt(50)}
	if Reportable(small) {
		t.Fatal("small loose gift should not be reportable")
	}
	big := domain.Donation{Amount: decimal.NewFromInt(500)}
	if !Reportable(big) {
		t.Fatal("threshold gift should be reportable")
	}
	underAgreement := domain.Donation{Amount: decimal.NewFromInt(10), PeriodicAgreement: "pda-1"}
	if !Reportable(underAgreement) {
		t.Fatal("agreement gift should be reportable")
	}
}

func TestGenerateAnnualAggregatesPerDonor(t *testing.T) {
	agreement := &domain.PeriodicAgreement{
		ID:            "pda-1",
		Number:        "PDA-2026-001",
		AgreementDate: time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC),
		DurationYears: 5,
	}
	donations := &fakeDonations{reportable: []domain.Donation{
		{Donor: "donor-1", Amount: decimal.NewFromInt(100), Date: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), PeriodicAgreement: "pda-1"},
		{Donor: "donor-1", Amount: decimal.NewFromInt(100), Date: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), PeriodicAgreement: "pda-1"},
		{Donor: "donor-2", Amount: decimal.NewFromInt(750), Date: time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)},
	}}
	donors := &fakeDonors{byID: map[string]*domain.Donor{
		"donor-1": {ID: "donor-1", Name: "A. de Boer", Type: domain.DonorIndividual, BSN: "111222333", ANBIConsent: true},
		"donor-2": {ID: "donor-2", Name: "Stichting Zon", Type: domain.DonorOrganization, RSIN: "123456782"},
	}}
	agreements := &fakeAgreements{byID: map[string]*domain.PeriodicAgreement{"pda-1": agreement}}
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	r := NewReporter(donations, donors, agreements, store, zerolog.Nop())

	result, err := r.GenerateAnnual(context.Background(), 2026)
	if err != nil {
		t.Fatalf("GenerateAnnual: %v", err)
	}
	if len(result.Lines) != 2 {
		t.Fatalf("lines = %+v", result.Lines)
	}
	if result.Total.StringFixed(2) != "950.00" {
		t.Fatalf("total = %s", result.Total.StringFixed(2))
	}

	// Sorted by donor name: A. de Boer first.
	first := result.Lines[0]
	if first.DonationCount != 2 || first.Total.StringFixed(2) != "200.00" {
		t.Fatalf("first line = %+v", first)
	}
	if first.FirstDonation.Format("2006-01-02") != "2026-02-01" || first.LastDonation.Format("2006-01-02") != "2026-09-01" {
		t.Fatalf("donation range = %s .. %s", first.FirstDonation, first.LastDonation)
	}
	if first.TaxID != "*****2333" {
		t.Fatalf("tax id not masked: %q", first.TaxID)
	}
	if first.AgreementNumber != "PDA-2026-001" || !first.Qualifying {
		t.Fatalf("agreement fields = %+v", first)
	}

	raw, err := store.Read(context.Background(), result.ArchiveKey)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	zr, err := archivezip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("zip entries = %d", len(zr.File))
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer rc.Close()
	content, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if !strings.Contains(string(content), "A. de Boer") || !strings.Contains(string(content), "*****2333") {
		t.Fatalf("csv content:\n%s", content)
	}
}
