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

// MembershipRepositoryPG implements domain.MembershipRepository.
type MembershipRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewMembershipRepository creates a new MembershipRepositoryPG.
func NewMembershipRepository(sql infra.SQLExecutor) *MembershipRepositoryPG {
	return &MembershipRepositoryPG{sql: sql}
}

// Create inserts a membership and fills in the generated id.
func (r *MembershipRepositoryPG) Create(ctx context.Context, m *domain.Membership) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertMembership,
		m.Member, m.MembershipType, m.StartDate, m.RenewalDate, string(m.Status), m.AutoRenew,
		m.GraceUntil, m.GraceReason, m.CancellationDate, string(m.CancellationType),
		m.CancellationReason, num(m.UnpaidAmount),
	)
	return row.Scan(&m.ID)
}

// GetByID fetches a membership by UUID.
func (r *MembershipRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Membership, error) {
	m, err := scanMembership(r.sql.QueryRow(ctx, sqlinline.QSelectMembershipByID, id))
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

// GetActiveByMember returns the member's current active membership.
func (r *MembershipRepositoryPG) GetActiveByMember(ctx context.Context, memberID string) (*domain.Membership, error) {
	m, err := scanMembership(r.sql.QueryRow(ctx, sqlinline.QSelectActiveMembershipByMember, memberID))
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

// ListByMember returns all memberships a member ever held.
func (r *MembershipRepositoryPG) ListByMember(ctx context.Context, memberID string) ([]domain.Membership, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListMembershipsByMember, memberID)
	if err != nil {
		return nil, err
	}
	return collectMemberships(rows)
}

// Update persists every mutable membership column.
func (r *MembershipRepositoryPG) Update(ctx context.Context, m *domain.Membership) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateMembership,
		m.ID, m.MembershipType, m.StartDate, m.RenewalDate, string(m.Status), m.AutoRenew,
		m.GraceUntil, m.GraceReason, m.CancellationDate, string(m.CancellationType),
		m.CancellationReason, num(m.UnpaidAmount),
	)
	return err
}

// ListExpiring returns active memberships whose renewal date falls on
// or before the given date.
func (r *MembershipRepositoryPG) ListExpiring(ctx context.Context, before time.Time, limit int) ([]domain.Membership, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListExpiringMemberships, before, limit)
	if err != nil {
		return nil, err
	}
	return collectMemberships(rows)
}

// GetType fetches a membership type by name.
// ListRenewingBetween returns active memberships whose renewal date
// falls inside the window and that have no cancellation scheduled.
func (r *MembershipRepositoryPG) ListRenewingBetween(ctx context.Context, from, to time.Time, limit int) ([]domain.Membership, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListMembershipsRenewingBetween, from, to, limit)
	if err != nil {
		return nil, err
	}
	return collectMemberships(rows)
}

func (r *MembershipRepositoryPG) GetType(ctx context.Context, name string) (*domain.MembershipType, error) {
	t, err := scanMembershipType(r.sql.QueryRow(ctx, sqlinline.QSelectMembershipType, name))
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

// ListTypes returns all configured membership types.
func (r *MembershipRepositoryPG) ListTypes(ctx context.Context) ([]domain.MembershipType, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListMembershipTypes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.MembershipType
	for rows.Next() {
		t, err := scanMembershipType(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// SaveType upserts a membership type by name.
func (r *MembershipRepositoryPG) SaveType(ctx context.Context, t *domain.MembershipType) error {
	row := r.sql.QueryRow(ctx, sqlinline.QUpsertMembershipType,
		t.Name, string(t.BillingPeriod), t.CustomPeriodMonths,
		num(t.MinimumAmount), num(t.SuggestedAmount), t.EnforceMinimumTerm, t.Active,
	)
	return row.Scan(&t.ID)
}

func collectMemberships(rows pgx.Rows) ([]domain.Membership, error) {
	defer rows.Close()
	var items []domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

func scanMembership(row pgx.Row) (*domain.Membership, error) {
	var m domain.Membership
	var unpaid pgtype.Numeric
	if err := row.Scan(
		&m.ID, &m.Member, &m.MembershipType, &m.StartDate, &m.RenewalDate, &m.Status, &m.AutoRenew,
		&m.GraceUntil, &m.GraceReason, &m.CancellationDate, &m.CancellationType,
		&m.CancellationReason, &unpaid, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	m.UnpaidAmount = dec(unpaid)
	return &m, nil
}

func scanMembershipType(row pgx.Row) (*domain.MembershipType, error) {
	var t domain.MembershipType
	var minAmount, suggested pgtype.Numeric
	if err := row.Scan(
		&t.ID, &t.Name, &t.BillingPeriod, &t.CustomPeriodMonths, &minAmount,
		&suggested, &t.EnforceMinimumTerm, &t.Active,
	); err != nil {
		return nil, err
	}
	t.MinimumAmount = dec(minAmount)
	t.SuggestedAmount = dec(suggested)
	return &t, nil
}
