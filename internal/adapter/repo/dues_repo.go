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

// DuesScheduleRepositoryPG implements domain.DuesScheduleRepository.
type DuesScheduleRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewDuesScheduleRepository creates a new DuesScheduleRepositoryPG.
func NewDuesScheduleRepository(sql infra.SQLExecutor) *DuesScheduleRepositoryPG {
	return &DuesScheduleRepositoryPG{sql: sql}
}

// Create inserts a dues schedule and fills in the generated id.
func (r *DuesScheduleRepositoryPG) Create(ctx context.Context, s *domain.DuesSchedule) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertDuesSchedule,
		s.Member, s.Membership, s.MembershipType, string(s.BillingFrequency), num(s.DuesRate),
		s.NextInvoiceDate, s.InvoiceLeadDays, s.CoverageStart, s.CoverageEnd,
		s.LastInvoiceDate, s.ConsecutiveFailures, s.GraceUntil, string(s.Status),
		string(s.PaymentMethod), s.ActiveMandate, s.AutoGenerate,
	)
	return row.Scan(&s.ID)
}

// GetByID fetches a schedule by UUID.
func (r *DuesScheduleRepositoryPG) GetByID(ctx context.Context, id string) (*domain.DuesSchedule, error) {
	s, err := scanDuesSchedule(r.sql.QueryRow(ctx, sqlinline.QSelectDuesScheduleByID, id))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// GetActiveByMember returns the member's current schedule, including
// paused and grace states.
func (r *DuesScheduleRepositoryPG) GetActiveByMember(ctx context.Context, memberID string) (*domain.DuesSchedule, error) {
	s, err := scanDuesSchedule(r.sql.QueryRow(ctx, sqlinline.QSelectActiveDuesScheduleByMember, memberID))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// Update persists every mutable schedule column.
func (r *DuesScheduleRepositoryPG) Update(ctx context.Context, s *domain.DuesSchedule) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateDuesSchedule,
		s.ID, s.Membership, s.MembershipType, string(s.BillingFrequency), num(s.DuesRate),
		s.NextInvoiceDate, s.InvoiceLeadDays, s.CoverageStart, s.CoverageEnd,
		s.LastInvoiceDate, s.ConsecutiveFailures, s.GraceUntil, string(s.Status),
		string(s.PaymentMethod), s.ActiveMandate, s.AutoGenerate,
	)
	return err
}

// ListDue returns schedules whose next invoice falls inside the lead
// window at the given date.
func (r *DuesScheduleRepositoryPG) ListDue(ctx context.Context, at time.Time, limit int) ([]domain.DuesSchedule, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListDueSchedules, at, limit)
	if err != nil {
		return nil, err
	}
	return collectDuesSchedules(rows)
}

// ListByStatus returns schedules in the given state.
func (r *DuesScheduleRepositoryPG) ListByStatus(ctx context.Context, status domain.DuesStatus, limit int) ([]domain.DuesSchedule, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListDuesSchedulesByStatus, string(status), limit)
	if err != nil {
		return nil, err
	}
	return collectDuesSchedules(rows)
}

func collectDuesSchedules(rows pgx.Rows) ([]domain.DuesSchedule, error) {
	defer rows.Close()
	var items []domain.DuesSchedule
	for rows.Next() {
		s, err := scanDuesSchedule(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	return items, rows.Err()
}

func scanDuesSchedule(row pgx.Row) (*domain.DuesSchedule, error) {
	var s domain.DuesSchedule
	var rate pgtype.Numeric
	if err := row.Scan(
		&s.ID, &s.Member, &s.Membership, &s.MembershipType, &s.BillingFrequency, &rate,
		&s.NextInvoiceDate, &s.InvoiceLeadDays, &s.CoverageStart, &s.CoverageEnd,
		&s.LastInvoiceDate, &s.ConsecutiveFailures, &s.GraceUntil, &s.Status,
		&s.PaymentMethod, &s.ActiveMandate, &s.AutoGenerate, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.DuesRate = dec(rate)
	return &s, nil
}
