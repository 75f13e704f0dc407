package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/infra"
	"ledenbeheer/internal/sqlinline"
)

// StatsRepositoryPG implements domain.StatsRepository.
type StatsRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewStatsRepository creates a new stats repository backed by PostgreSQL.
func NewStatsRepository(sql infra.SQLExecutor) *StatsRepositoryPG {
	return &StatsRepositoryPG{sql: sql}
}

// MemberCounts returns the number of members per status.
func (r *StatsRepositoryPG) MemberCounts(ctx context.Context) (map[domain.MemberStatus]int, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QStatsMemberCounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.MemberStatus]int)
	for rows.Next() {
		var (
			status domain.MemberStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[status] = count
	}
	return out, rows.Err()
}

// RevenueByMonth returns paid invoice and donation totals keyed by
// YYYY-MM for the given year.
func (r *StatsRepositoryPG) RevenueByMonth(ctx context.Context, year int) (map[string]domain.DonationSum, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QStatsRevenueByMonth, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]domain.DonationSum)
	for rows.Next() {
		var (
			month string
			count int
			total pgtype.Numeric
		)
		if err := rows.Scan(&month, &count, &total); err != nil {
			return nil, err
		}
		out[month] = domain.DonationSum{Count: count, Total: dec(total)}
	}
	return out, rows.Err()
}

// ChapterSizes returns active member counts per chapter name.
func (r *StatsRepositoryPG) ChapterSizes(ctx context.Context) (map[string]int, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QStatsChapterSizes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			name  string
			count int
		)
		if err := rows.Scan(&name, &count); err != nil {
			return nil, err
		}
		out[name] = count
	}
	return out, rows.Err()
}

// OverdueInvoiceTotals returns how many invoices are overdue and the
// summed outstanding amount.
func (r *StatsRepositoryPG) OverdueInvoiceTotals(ctx context.Context) (int, domain.DonationSum, error) {
	var (
		count int
		total pgtype.Numeric
	)
	err := r.sql.QueryRow(ctx, sqlinline.QStatsOverdueInvoices).Scan(&count, &total)
	if err != nil {
		return 0, domain.DonationSum{}, err
	}
	return count, domain.DonationSum{Count: count, Total: dec(total)}, nil
}
