package anbi

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/storage"
	"ledenbeheer/pkg/zip"
)

// Reportable decides whether a donation must appear in the annual
// Belastingdienst report: everything under a periodic agreement, plus
// loose gifts at or above the reporting threshold.
func Reportable(d domain.Donation) bool {
	if d.PeriodicAgreement != "" || d.ANBIAgreementNumber != "" {
		return true
	}
	return d.Amount.GreaterThanOrEqual(domain.ANBIMinimumReportableAmount)
}

// Reporter builds the annual ANBI export.
type Reporter struct {
	donations  domain.DonationRepository
	donors     domain.DonorRepository
	agreements domain.AgreementRepository
	store      *storage.FileStore
	logger     zerolog.Logger
}

// NewReporter wires the ANBI reporter.
func NewReporter(
	donations domain.DonationRepository,
	donors domain.DonorRepository,
	agreements domain.AgreementRepository,
	store *storage.FileStore,
	logger zerolog.Logger,
) *Reporter {
	return &Reporter{
		donations:  donations,
		donors:     donors,
		agreements: agreements,
		store:      store,
		logger:     logger.With().Str("component", "anbi").Logger(),
	}
}

// DonorLine is one aggregated row of the annual report.
type DonorLine struct {
	DonorID         string
	DonorName       string
	DonorType       domain.DonorType
	TaxID           string // masked
	Consent         bool
	DonationCount   int
	Total           decimal.Decimal
	FirstDonation   time.Time
	LastDonation    time.Time
	AgreementNumber string
	AgreementDate   string
	Qualifying      bool
}

// ReportResult summarises a generated report.
type ReportResult struct {
	Year       int
	Lines      []DonorLine
	Total      decimal.Decimal
	ArchiveKey string
}

// GenerateAnnual aggregates reportable donations per donor for the
// year and stores a zip with the donor and agreement CSVs.
func (r *Reporter) GenerateAnnual(ctx context.Context, year int) (*ReportResult, error) {
	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year+1, 1, 1, 0, 0, 0, 0, time.UTC)
	donations, err := r.donations.ListReportable(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list reportable donations: %w", err)
	}

	type agg struct {
		count int
		total decimal.Decimal
		first time.Time
		last  time.Time
		agrmt string
	}
	perDonor := map[string]*agg{}
	for _, d := range donations {
		a, ok := perDonor[d.Donor]
		if !ok {
			a = &agg{total: decimal.Zero}
			perDonor[d.Donor] = a
		}
		a.count++
		a.total = a.total.Add(d.Amount)
		if a.first.IsZero() || d.Date.Before(a.first) {
			a.first = d.Date
		}
		if d.Date.After(a.last) {
			a.last = d.Date
		}
		if d.PeriodicAgreement != "" {
			a.agrmt = d.PeriodicAgreement
		}
	}

	result := &ReportResult{Year: year, Total: decimal.Zero}
	for donorID, a := range perDonor {
		donor, err := r.donors.GetByID(ctx, donorID)
		if err != nil {
			r.logger.Warn().Err(err).Str("donor", donorID).Msg("donor lookup failed, reporting bare id")
			donor = &domain.Donor{ID: donorID, Name: "unknown"}
		}
		line := DonorLine{
			DonorID:       donorID,
			DonorName:     donor.Name,
			DonorType:     donor.Type,
			TaxID:         Mask(donor.TaxID()),
			Consent:       donor.ANBIConsent,
			DonationCount: a.count,
			Total:         a.total.Round(2),
			FirstDonation: a.first,
			LastDonation:  a.last,
		}
		if a.agrmt != "" {
			if agreement, err := r.agreements.GetByID(ctx, a.agrmt); err == nil {
				line.AgreementNumber = agreement.Number
				line.AgreementDate = agreement.AgreementDate.Format("2006-01-02")
				line.Qualifying = agreement.ANBIQualifying()
			}
		}
		result.Lines = append(result.Lines, line)
		result.Total = result.Total.Add(a.total)
	}
	sort.Slice(result.Lines, func(i, j int) bool { return result.Lines[i].DonorName < result.Lines[j].DonorName })
	result.Total = result.Total.Round(2)

	donorCSV, err := donorLinesCSV(result.Lines)
	if err != nil {
		return nil, err
	}
	agreementCSV, err := r.agreementsCSV(ctx)
	if err != nil {
		return nil, err
	}
	archive, err := zip.Archive([]zip.File{
		{Filename: fmt.Sprintf("anbi-donors-%d.csv", year), Data: donorCSV},
		{Filename: fmt.Sprintf("anbi-agreements-%d.csv", year), Data: agreementCSV},
	})
	if err != nil {
		return nil, fmt.Errorf("pack report: %w", err)
	}
	key := fmt.Sprintf("anbi/%d/report.zip", year)
	storedKey, err := r.store.Write(ctx, key, archive)
	if err != nil {
		return nil, fmt.Errorf("store report: %w", err)
	}
	result.ArchiveKey = storedKey
	r.logger.Info().Int("year", year).Int("donors", len(result.Lines)).Str("total", result.Total.StringFixed(2)).Msg("annual report generated")
	return result, nil
}

func donorLinesCSV(lines []DonorLine) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"donor_id", "donor_name", "donor_type", "tax_id", "consent", "donations", "total_eur", "first_donation", "last_donation", "agreement", "agreement_date", "qualifying"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, l := range lines {
		rec := []string{
			l.DonorID,
			l.DonorName,
			string(l.DonorType),
			l.TaxID,
			fmt.Sprintf("%t", l.Consent),
			fmt.Sprintf("%d", l.DonationCount),
			l.Total.StringFixed(2),
			l.FirstDonation.Format("2006-01-02"),
			l.LastDonation.Format("2006-01-02"),
			l.AgreementNumber,
			l.AgreementDate,
			fmt.Sprintf("%t", l.Qualifying),
		}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (r *Reporter) agreementsCSV(ctx context.Context) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"number", "donor", "annual_eur", "frequency", "start", "end", "years", "type", "status", "qualifying"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	const pageSize = 200
	for offset := 0; ; offset += pageSize {
		page, err := r.agreements.ListActive(ctx, pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("list agreements: %w", err)
		}
		if len(page) == 0 {
			break
		}
		for _, a := range page {
			rec := []string{
				a.Number,
				a.DonorName,
				a.AnnualAmount.StringFixed(2),
				string(a.PaymentFrequency),
				a.StartDate.Format("2006-01-02"),
				a.EndDate.Format("2006-01-02"),
				fmt.Sprintf("%d", a.DurationYears),
				string(a.AgreementType),
				string(a.Status),
				fmt.Sprintf("%t", a.ANBIQualifying()),
			}
			if err := w.Write(rec); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
		if len(page) < pageSize {
			break
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
