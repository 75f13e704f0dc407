package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/infra"
	"ledenbeheer/internal/sqlinline"
)

// MandateRepositoryPG implements domain.MandateRepository.
type MandateRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewMandateRepository creates a new MandateRepositoryPG.
func NewMandateRepository(sql infra.SQLExecutor) *MandateRepositoryPG {
	return &MandateRepositoryPG{sql: sql}
}

// Create inserts a mandate and fills in the generated id.
func (r *MandateRepositoryPG) Create(ctx context.Context, m *domain.Mandate) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertMandate,
		m.Reference, m.Member, m.IBAN, m.BIC, m.AccountHolder, m.SignDate, m.ExpiryDate,
		string(m.Status), m.UsageCount, m.LastUsedAt, m.CancelReason,
	)
	return row.Scan(&m.ID)
}

// GetByID fetches a mandate by UUID.
func (r *MandateRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Mandate, error) {
	m, err := scanMandate(r.sql.QueryRow(ctx, sqlinline.QSelectMandateByID, id))
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

// GetByReference fetches a mandate by its SEPA reference.
func (r *MandateRepositoryPG) GetByReference(ctx context.Context, ref string) (*domain.Mandate, error) {
	m, err := scanMandate(r.sql.QueryRow(ctx, sqlinline.QSelectMandateByReference, ref))
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

// GetActiveByMember returns the member's newest active mandate.
func (r *MandateRepositoryPG) GetActiveByMember(ctx context.Context, memberID string) (*domain.Mandate, error) {
	m, err := scanMandate(r.sql.QueryRow(ctx, sqlinline.QSelectActiveMandateByMember, memberID))
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

// ListByMember returns all mandates a member ever signed.
func (r *MandateRepositoryPG) ListByMember(ctx context.Context, memberID string) ([]domain.Mandate, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListMandatesByMember, memberID)
	if err != nil {
		return nil, err
	}
	return collectMandates(rows)
}

// Update persists the mutable mandate columns.
func (r *MandateRepositoryPG) Update(ctx context.Context, m *domain.Mandate) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateMandate,
		m.ID, m.IBAN, m.BIC, m.AccountHolder, m.ExpiryDate,
		string(m.Status), m.UsageCount, m.LastUsedAt, m.CancelReason,
	)
	return err
}

// RecordUsage appends a usage trail entry.
func (r *MandateRepositoryPG) RecordUsage(ctx context.Context, u *domain.MandateUsage) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertMandateUsage,
		u.Mandate, u.Invoice, u.Batch, num(u.Amount), string(u.SequenceType))
	return row.Scan(&u.ID)
}

// NextSequenceForDay returns the sequence a mandate signed by this
// member on this day would get.
func (r *MandateRepositoryPG) NextSequenceForDay(ctx context.Context, memberID string, day time.Time) (int, error) {
	var n int
	if err := r.sql.QueryRow(ctx, sqlinline.QCountMandatesForMemberDay, memberID, day).Scan(&n); err != nil {
		return 0, err
	}
	return n + 1, nil
}

// ListActive pages through all active mandates.
func (r *MandateRepositoryPG) ListActive(ctx context.Context, limit int, offset int) ([]domain.Mandate, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListActiveMandates, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectMandates(rows)
}

func collectMandates(rows pgx.Rows) ([]domain.Mandate, error) {
	defer rows.Close()
	var items []domain.Mandate
	for rows.Next() {
		m, err := scanMandate(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

func scanMandate(row pgx.Row) (*domain.Mandate, error) {
	var m domain.Mandate
	if err := row.Scan(
		&m.ID, &m.Reference, &m.Member, &m.IBAN, &m.BIC, &m.AccountHolder, &m.SignDate, &m.ExpiryDate,
		&m.Status, &m.UsageCount, &m.LastUsedAt, &m.CancelReason, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}
