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

// AmendmentRepositoryPG implements domain.AmendmentRepository.
type AmendmentRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewAmendmentRepository creates a new AmendmentRepositoryPG.
func NewAmendmentRepository(sql infra.SQLExecutor) *AmendmentRepositoryPG {
	return &AmendmentRepositoryPG{sql: sql}
}

// Create inserts an amendment and fills in the generated id.
func (r *AmendmentRepositoryPG) Create(ctx context.Context, a *domain.ContributionAmendment) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertAmendment,
		a.Schedule, a.Member, a.MemberName, string(a.Type), string(a.Status),
		num(a.CurrentAmount), num(a.NewAmount),
		string(a.CurrentFreq), string(a.NewFreq), a.Reason, a.RequestedBy, a.SelfService, a.EffectiveDate,
		a.ApprovedBy, a.ApprovedAt, a.AppliedAt, a.Notes,
	)
	return row.Scan(&a.ID)
}

// GetByID fetches an amendment by UUID.
func (r *AmendmentRepositoryPG) GetByID(ctx context.Context, id string) (*domain.ContributionAmendment, error) {
	a, err := scanAmendment(r.sql.QueryRow(ctx, sqlinline.QSelectAmendmentByID, id))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// Update persists the workflow state.
func (r *AmendmentRepositoryPG) Update(ctx context.Context, a *domain.ContributionAmendment) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateAmendment,
		a.ID, string(a.Status), num(a.NewAmount), string(a.NewFreq), a.Reason,
		a.EffectiveDate, a.ApprovedBy, a.ApprovedAt, a.AppliedAt, a.Notes,
	)
	return err
}

// ListBySchedule returns a schedule's amendments, newest first.
func (r *AmendmentRepositoryPG) ListBySchedule(ctx context.Context, scheduleID string) ([]domain.ContributionAmendment, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListAmendmentsBySchedule, scheduleID)
	if err != nil {
		return nil, err
	}
	return collectAmendments(rows)
}

// ListByStatus returns amendments in the given workflow state.
func (r *AmendmentRepositoryPG) ListByStatus(ctx context.Context, status domain.AmendmentStatus, limit int) ([]domain.ContributionAmendment, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListAmendmentsByStatus, string(status), limit)
	if err != nil {
		return nil, err
	}
	return collectAmendments(rows)
}

// ListDueForApply returns approved amendments whose effective date has
// arrived.
func (r *AmendmentRepositoryPG) ListDueForApply(ctx context.Context, at time.Time, limit int) ([]domain.ContributionAmendment, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListAmendmentsDueForApply, at, limit)
	if err != nil {
		return nil, err
	}
	return collectAmendments(rows)
}

// HasOpenForMember reports whether the member already has an
// amendment in flight.
func (r *AmendmentRepositoryPG) HasOpenForMember(ctx context.Context, memberID string) (bool, error) {
	_, err := scanAmendment(r.sql.QueryRow(ctx, sqlinline.QSelectOpenAmendmentByMember, memberID))
	if err != nil {
		if notFound(err) == domain.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func collectAmendments(rows pgx.Rows) ([]domain.ContributionAmendment, error) {
	defer rows.Close()
	var items []domain.ContributionAmendment
	for rows.Next() {
		a, err := scanAmendment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

func scanAmendment(row pgx.Row) (*domain.ContributionAmendment, error) {
	var a domain.ContributionAmendment
	var current, next pgtype.Numeric
	if err := row.Scan(
		&a.ID, &a.Schedule, &a.Member, &a.MemberName, &a.Type, &a.Status, &current, &next,
		&a.CurrentFreq, &a.NewFreq, &a.Reason, &a.RequestedBy, &a.SelfService, &a.EffectiveDate,
		&a.ApprovedBy, &a.ApprovedAt, &a.AppliedAt, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.CurrentAmount = dec(current)
	a.NewAmount = dec(next)
	return &a, nil
}
