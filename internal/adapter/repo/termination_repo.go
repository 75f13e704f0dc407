package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/infra"
	"ledenbeheer/internal/sqlinline"
)

// TerminationRepositoryPG implements domain.TerminationRepository.
type TerminationRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewTerminationRepository creates a new TerminationRepositoryPG.
func NewTerminationRepository(sql infra.SQLExecutor) *TerminationRepositoryPG {
	return &TerminationRepositoryPG{sql: sql}
}

// Create inserts a termination request and fills in the generated id.
func (r *TerminationRepositoryPG) Create(ctx context.Context, t *domain.TerminationRequest) error {
	cascade, audit, err := terminationJSON(t)
	if err != nil {
		return err
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertTermination,
		t.Member, t.MemberName, string(t.Type), t.Reason, t.RequestDate, t.RequestedBy, string(t.Status),
		t.SecondaryApprover, t.ApprovedAt, t.DisciplinaryDocs, dateOrNil(t.EffectiveDate),
		t.ExecutedAt, cascade, audit,
	)
	return row.Scan(&t.ID)
}

// GetByID fetches a termination request by UUID.
func (r *TerminationRepositoryPG) GetByID(ctx context.Context, id string) (*domain.TerminationRequest, error) {
	t, err := scanTermination(r.sql.QueryRow(ctx, sqlinline.QSelectTerminationByID, id))
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

// Update persists the workflow state, cascade and audit trail.
func (r *TerminationRepositoryPG) Update(ctx context.Context, t *domain.TerminationRequest) error {
	cascade, audit, err := terminationJSON(t)
	if err != nil {
		return err
	}
	_, err = r.sql.Exec(ctx, sqlinline.QUpdateTermination,
		t.ID, t.MemberName, string(t.Type), t.Reason, string(t.Status),
		t.SecondaryApprover, t.ApprovedAt, t.DisciplinaryDocs, dateOrNil(t.EffectiveDate),
		t.ExecutedAt, cascade, audit,
	)
	return err
}

func terminationJSON(t *domain.TerminationRequest) (cascade, audit []byte, err error) {
	if cascade, err = json.Marshal(t.Cascade); err != nil {
		return nil, nil, err
	}
	if len(t.Audit) == 0 {
		return cascade, []byte("[]"), nil
	}
	if audit, err = json.Marshal(t.Audit); err != nil {
		return nil, nil, err
	}
	return cascade, audit, nil
}

// ListByMember returns a member's termination requests, newest first.
func (r *TerminationRepositoryPG) ListByMember(ctx context.Context, memberID string) ([]domain.TerminationRequest, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListTerminationsByMember, memberID)
	if err != nil {
		return nil, err
	}
	return collectTerminations(rows)
}

// ListByStatus returns requests in the given workflow state.
func (r *TerminationRepositoryPG) ListByStatus(ctx context.Context, status domain.TerminationStatus, limit int) ([]domain.TerminationRequest, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListTerminationsByStatus, string(status), limit)
	if err != nil {
		return nil, err
	}
	return collectTerminations(rows)
}

// ListDueForExecution returns approved requests whose effective date
// has passed.
func (r *TerminationRepositoryPG) ListDueForExecution(ctx context.Context, at time.Time, limit int) ([]domain.TerminationRequest, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListTerminationsDue, at, limit)
	if err != nil {
		return nil, err
	}
	return collectTerminations(rows)
}

// ListBetween returns requests filed in the date window, oldest first.
func (r *TerminationRepositoryPG) ListBetween(ctx context.Context, from, to time.Time) ([]domain.TerminationRequest, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListTerminationsBetween, from, to)
	if err != nil {
		return nil, err
	}
	return collectTerminations(rows)
}

func collectTerminations(rows pgx.Rows) ([]domain.TerminationRequest, error) {
	defer rows.Close()
	var items []domain.TerminationRequest
	for rows.Next() {
		t, err := scanTermination(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

func scanTermination(row pgx.Row) (*domain.TerminationRequest, error) {
	var t domain.TerminationRequest
	var effective *time.Time
	var cascade, audit []byte
	if err := row.Scan(
		&t.ID, &t.Member, &t.MemberName, &t.Type, &t.Reason, &t.RequestDate, &t.RequestedBy, &t.Status,
		&t.SecondaryApprover, &t.ApprovedAt, &t.DisciplinaryDocs, &effective,
		&t.ExecutedAt, &cascade, &audit, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if effective != nil {
		t.EffectiveDate = *effective
	}
	if len(cascade) > 0 {
		if err := json.Unmarshal(cascade, &t.Cascade); err != nil {
			return nil, err
		}
	}
	if len(audit) > 0 {
		if err := json.Unmarshal(audit, &t.Audit); err != nil {
			return nil, err
		}
	}
	return &t, nil
}
