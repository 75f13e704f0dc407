package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/infra"
	"ledenbeheer/internal/sqlinline"
)

// DonationRepositoryPG implements domain.DonationRepository.
type DonationRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewDonationRepository creates a new DonationRepositoryPG.
func NewDonationRepository(sql infra.SQLExecutor) *DonationRepositoryPG {
	return &DonationRepositoryPG{sql: sql}
}

// Create inserts a donation and fills in the generated id.
func (r *DonationRepositoryPG) Create(ctx context.Context, d *domain.Donation) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertDonation,
		d.Donor, d.Date, num(d.Amount), string(d.PaymentMethod), string(d.Status), string(d.Purpose), d.CampaignRef,
		d.ChapterRef, d.GoalDescription, d.PeriodicAgreement, d.ANBIAgreementNumber,
		d.ANBIAgreementDate, d.Reportable, d.SEPAMandate, d.BankReference,
		d.CountryCode, d.Paid, d.PaidAt,
	)
	return row.Scan(&d.ID)
}

// GetByID fetches a donation by UUID.
func (r *DonationRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Donation, error) {
	d, err := scanDonation(r.sql.QueryRow(ctx, sqlinline.QSelectDonationByID, id))
	if err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

// Update persists the mutable donation columns.
func (r *DonationRepositoryPG) Update(ctx context.Context, d *domain.Donation) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateDonation,
		d.ID, num(d.Amount), string(d.PaymentMethod), string(d.Status), string(d.Purpose), d.CampaignRef,
		d.ChapterRef, d.GoalDescription, d.PeriodicAgreement, d.ANBIAgreementNumber,
		d.ANBIAgreementDate, d.Reportable, d.SEPAMandate, d.BankReference, d.Paid, d.PaidAt,
	)
	return err
}

// ListByDonor returns a donor's donations, newest first.
func (r *DonationRepositoryPG) ListByDonor(ctx context.Context, donorID string, limit int) ([]domain.Donation, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListDonationsByDonor, donorID, limit)
	if err != nil {
		return nil, err
	}
	return collectDonations(rows)
}

// ListByAgreement returns the donations booked against an agreement.
func (r *DonationRepositoryPG) ListByAgreement(ctx context.Context, agreementID string) ([]domain.Donation, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListDonationsByAgreement, agreementID)
	if err != nil {
		return nil, err
	}
	return collectDonations(rows)
}

// ListReportable returns reportable donations inside a date window.
func (r *DonationRepositoryPG) ListReportable(ctx context.Context, from, to time.Time) ([]domain.Donation, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListReportableDonations, from, to)
	if err != nil {
		return nil, err
	}
	return collectDonations(rows)
}

// ListRecent returns the newest donations across all donors.
func (r *DonationRepositoryPG) ListRecent(ctx context.Context, limit int) ([]domain.Donation, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListRecentDonations, limit)
	if err != nil {
		return nil, err
	}
	return collectDonations(rows)
}

// SumByDonor totals a donor's donations inside a date window.
func (r *DonationRepositoryPG) SumByDonor(ctx context.Context, donorID string, from, to time.Time) (domain.DonationSum, error) {
	var sum domain.DonationSum
	var total pgtype.Numeric
	err := r.sql.QueryRow(ctx, sqlinline.QSumDonationsByDonor, donorID, from, to).Scan(&sum.Count, &total)
	if err != nil {
		return domain.DonationSum{}, err
	}
	sum.Total = dec(total)
	return sum, nil
}

func collectDonations(rows pgx.Rows) ([]domain.Donation, error) {
	defer rows.Close()
	var items []domain.Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

func scanDonation(row pgx.Row) (*domain.Donation, error) {
	var d domain.Donation
	var amount pgtype.Numeric
	if err := row.Scan(
		&d.ID, &d.Donor, &d.Date, &amount, &d.PaymentMethod, &d.Status, &d.Purpose, &d.CampaignRef,
		&d.ChapterRef, &d.GoalDescription, &d.PeriodicAgreement,
		&d.ANBIAgreementNumber, &d.ANBIAgreementDate, &d.Reportable,
		&d.SEPAMandate, &d.BankReference, &d.CountryCode, &d.Paid, &d.PaidAt,
		&d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d.Amount = dec(amount)
	return &d, nil
}
