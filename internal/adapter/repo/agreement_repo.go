package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/infra"
	"ledenbeheer/internal/sqlinline"
)

// AgreementRepositoryPG implements domain.AgreementRepository.
type AgreementRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewAgreementRepository creates a new AgreementRepositoryPG.
func NewAgreementRepository(sql infra.SQLExecutor) *AgreementRepositoryPG {
	return &AgreementRepositoryPG{sql: sql}
}

// Create inserts a periodic agreement and fills in the generated id.
func (r *AgreementRepositoryPG) Create(ctx context.Context, a *domain.PeriodicAgreement) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertAgreement,
		a.Number, a.Donor, a.DonorName, num(a.AnnualAmount), string(a.PaymentFrequency),
		num(a.PaymentAmount), string(a.PaymentMethod), a.SEPAMandate, string(a.AgreementType),
		a.AgreementDate, a.StartDate, a.EndDate, a.DurationYears, string(a.Status),
		num(a.TotalDonated), a.DonationsCount,
	)
	return row.Scan(&a.ID)
}

// GetByID fetches an agreement by UUID.
func (r *AgreementRepositoryPG) GetByID(ctx context.Context, id string) (*domain.PeriodicAgreement, error) {
	a, err := scanAgreement(r.sql.QueryRow(ctx, sqlinline.QSelectAgreementByID, id))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// GetByNumber fetches an agreement by its public number.
func (r *AgreementRepositoryPG) GetByNumber(ctx context.Context, number string) (*domain.PeriodicAgreement, error) {
	a, err := scanAgreement(r.sql.QueryRow(ctx, sqlinline.QSelectAgreementByNumber, number))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// Update persists the mutable agreement columns. Type and term are
// fixed at signing; renewals create a fresh agreement.
func (r *AgreementRepositoryPG) Update(ctx context.Context, a *domain.PeriodicAgreement) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateAgreement,
		a.ID, a.DonorName, num(a.AnnualAmount), string(a.PaymentFrequency),
		num(a.PaymentAmount), string(a.PaymentMethod), a.SEPAMandate,
		string(a.Status), num(a.TotalDonated), a.DonationsCount, a.CancelReason,
	)
	return err
}

// ListByDonor returns a donor's agreements.
func (r *AgreementRepositoryPG) ListByDonor(ctx context.Context, donorID string) ([]domain.PeriodicAgreement, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListAgreementsByDonor, donorID)
	if err != nil {
		return nil, err
	}
	return collectAgreements(rows)
}

// ListExpiring returns active agreements ending inside the window.
func (r *AgreementRepositoryPG) ListExpiring(ctx context.Context, from, to time.Time) ([]domain.PeriodicAgreement, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListExpiringAgreements, from, to)
	if err != nil {
		return nil, err
	}
	return collectAgreements(rows)
}

// ListActive pages through active agreements.
func (r *AgreementRepositoryPG) ListActive(ctx context.Context, limit, offset int) ([]domain.PeriodicAgreement, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListActiveAgreements, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectAgreements(rows)
}

// NextSequence draws the next agreement number for the year.
func (r *AgreementRepositoryPG) NextSequence(ctx context.Context, year int) (int, error) {
	var n int
	err := r.sql.QueryRow(ctx, sqlinline.QNextCounterValue, fmt.Sprintf("agreement:%d", year)).Scan(&n)
	return n, err
}

// Stats aggregates the agreement book. Every group-by row lands in all
// three maps; the annual total only counts Active agreements.
func (r *AgreementRepositoryPG) Stats(ctx context.Context) (domain.AgreementStats, error) {
	stats := domain.AgreementStats{
		ByStatus:    map[domain.AgreementStatus]int{},
		ByType:      map[domain.AgreementType]int{},
		ByFrequency: map[domain.PaymentFrequency]int{},
	}
	rows, err := r.sql.Query(ctx, sqlinline.QAgreementStats)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status domain.AgreementStatus
			typ    domain.AgreementType
			freq   domain.PaymentFrequency
			count  int
			annual pgtype.Numeric
		)
		if err := rows.Scan(&status, &typ, &freq, &count, &annual); err != nil {
			return stats, err
		}
		stats.Count += count
		stats.ByStatus[status] += count
		stats.ByType[typ] += count
		stats.ByFrequency[freq] += count
		if status == domain.AgreementActive {
			stats.AnnualTotal = stats.AnnualTotal.Add(dec(annual))
		}
	}
	return stats, rows.Err()
}

func collectAgreements(rows pgx.Rows) ([]domain.PeriodicAgreement, error) {
	defer rows.Close()
	var items []domain.PeriodicAgreement
	for rows.Next() {
		a, err := scanAgreement(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

func scanAgreement(row pgx.Row) (*domain.PeriodicAgreement, error) {
	var a domain.PeriodicAgreement
	var annual, payment, total pgtype.Numeric
	if err := row.Scan(
		&a.ID, &a.Number, &a.Donor, &a.DonorName, &annual, &a.PaymentFrequency,
		&payment, &a.PaymentMethod, &a.SEPAMandate, &a.AgreementType,
		&a.AgreementDate, &a.StartDate, &a.EndDate, &a.DurationYears, &a.Status,
		&total, &a.DonationsCount, &a.CancelReason, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.AnnualAmount = dec(annual)
	a.PaymentAmount = dec(payment)
	a.TotalDonated = dec(total)
	return &a, nil
}
