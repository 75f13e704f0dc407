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

// MemberRepositoryPG implements domain.MemberRepository backed by
// PostgreSQL.
type MemberRepositoryPG struct {
	sql      infra.SQLExecutor
	settings domain.SettingsRepository
}

// NewMemberRepository creates a new MemberRepositoryPG. The settings
// repository hands out member numbers.
func NewMemberRepository(sql infra.SQLExecutor, settings domain.SettingsRepository) *MemberRepositoryPG {
	return &MemberRepositoryPG{sql: sql, settings: settings}
}

// Create inserts a new member row and fills in the generated id.
func (r *MemberRepositoryPG) Create(ctx context.Context, m *domain.Member) error {
	var feeAmount, feeReason, feeBy, feeAt any
	if m.FeeOverride != nil {
		feeAmount = num(m.FeeOverride.Amount)
		feeReason = m.FeeOverride.Reason
		feeBy = m.FeeOverride.SetBy
		feeAt = m.FeeOverride.SetAt
	} else {
		feeReason = ""
		feeBy = ""
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertMember,
		m.MemberNumber, m.ApplicationID, m.FirstName, m.LastName, m.Email, m.BirthDate,
		m.PostalCode, m.City, m.Street, m.CountryCode, string(m.Status), string(m.AppStatus), string(m.PaymentMethod),
		m.IBAN, m.BIC, m.AccountHolder, m.Chapter,
		feeAmount, feeReason, feeBy, feeAt,
		m.ReviewedBy, m.ReviewedAt,
	)
	return row.Scan(&m.ID)
}

// GetByID fetches a member by UUID.
func (r *MemberRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	return scanMember(r.sql.QueryRow(ctx, sqlinline.QSelectMemberByID, id))
}

// GetByNumber fetches a member by the public member number.
func (r *MemberRepositoryPG) GetByNumber(ctx context.Context, number int) (*domain.Member, error) {
	return scanMember(r.sql.QueryRow(ctx, sqlinline.QSelectMemberByNumber, number))
}

// GetByEmail fetches a member by email, case-insensitive.
func (r *MemberRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	return scanMember(r.sql.QueryRow(ctx, sqlinline.QSelectMemberByEmail, email))
}

// Update persists every mutable member column.
func (r *MemberRepositoryPG) Update(ctx context.Context, m *domain.Member) error {
	var feeAmount, feeReason, feeBy, feeAt any
	if m.FeeOverride != nil {
		feeAmount = num(m.FeeOverride.Amount)
		feeReason = m.FeeOverride.Reason
		feeBy = m.FeeOverride.SetBy
		feeAt = m.FeeOverride.SetAt
	} else {
		feeReason = ""
		feeBy = ""
	}
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateMember,
		m.ID, m.MemberNumber, m.FirstName, m.LastName, m.Email, m.BirthDate,
		m.PostalCode, m.City, m.Street, m.CountryCode, string(m.Status), string(m.AppStatus), string(m.PaymentMethod),
		m.IBAN, m.BIC, m.AccountHolder, m.Chapter,
		feeAmount, feeReason, feeBy, feeAt,
		m.ReviewedBy, m.ReviewedAt,
	)
	return err
}

// UpdateStatus flips the lifecycle status without touching the rest.
func (r *MemberRepositoryPG) UpdateStatus(ctx context.Context, id string, status domain.MemberStatus) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateMemberStatus, id, string(status))
	return err
}

// List returns members matching the filter.
func (r *MemberRepositoryPG) List(ctx context.Context, f domain.MemberFilter) ([]domain.Member, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListMembers,
		string(f.Status), f.Chapter, f.Search, limit, f.Offset)
	if err != nil {
		return nil, err
	}
	return collectMembers(rows)
}

// ListByChapter returns the members assigned to a chapter.
func (r *MemberRepositoryPG) ListByChapter(ctx context.Context, chapter string) ([]domain.Member, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListMembersByChapter, chapter)
	if err != nil {
		return nil, err
	}
	return collectMembers(rows)
}

// NextMemberNumber draws the next number from the settings counter.
func (r *MemberRepositoryPG) NextMemberNumber(ctx context.Context) (int, error) {
	return r.settings.BumpMemberNumber(ctx)
}

// ListDirectDebitWithoutMandate returns active direct debit payers who
// have no active mandate to collect on.
func (r *MemberRepositoryPG) ListDirectDebitWithoutMandate(ctx context.Context, limit int) ([]domain.Member, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListDirectDebitWithoutMandate, limit)
	if err != nil {
		return nil, err
	}
	return collectMembers(rows)
}

// CountByStatus returns a member count per lifecycle status.
func (r *MemberRepositoryPG) CountByStatus(ctx context.Context) (map[domain.MemberStatus]int, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QCountMembersByStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.MemberStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[domain.MemberStatus(status)] = n
	}
	return counts, rows.Err()
}

func collectMembers(rows pgx.Rows) ([]domain.Member, error) {
	defer rows.Close()
	var items []domain.Member
	for rows.Next() {
		m, err := scanMemberFrom(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

func scanMember(row pgx.Row) (*domain.Member, error) {
	m, err := scanMemberFrom(row)
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

func scanMemberFrom(row pgx.Row) (*domain.Member, error) {
	var m domain.Member
	var feeAmount pgtype.Numeric
	var feeReason, feeBy string
	var feeAt *time.Time
	if err := row.Scan(
		&m.ID, &m.MemberNumber, &m.ApplicationID, &m.FirstName, &m.LastName, &m.Email, &m.BirthDate,
		&m.PostalCode, &m.City, &m.Street, &m.CountryCode, &m.Status, &m.AppStatus, &m.PaymentMethod,
		&m.IBAN, &m.BIC, &m.AccountHolder, &m.Chapter,
		&feeAmount, &feeReason, &feeBy, &feeAt,
		&m.ReviewedBy, &m.ReviewedAt, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if feeAmount.Valid {
		m.FeeOverride = &domain.FeeOverride{Amount: dec(feeAmount), Reason: feeReason, SetBy: feeBy}
		if feeAt != nil {
			m.FeeOverride.SetAt = *feeAt
		}
	}
	return &m, nil
}

// ApplicationRepositoryPG implements domain.ApplicationRepository.
type ApplicationRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewApplicationRepository creates a new ApplicationRepositoryPG.
func NewApplicationRepository(sql infra.SQLExecutor) *ApplicationRepositoryPG {
	return &ApplicationRepositoryPG{sql: sql}
}

// Create stores a portal submission, drawing the sequential
// application number before the insert.
func (r *ApplicationRepositoryPG) Create(ctx context.Context, a *domain.Application) error {
	if a.Number == 0 {
		if err := r.sql.QueryRow(ctx, sqlinline.QNextCounterValue, "application").Scan(&a.Number); err != nil {
			return err
		}
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertApplication,
		a.Number, a.FirstName, a.LastName, a.Email, a.BirthDate, a.PostalCode, a.City, a.Street,
		a.CountryCode, a.MembershipType, string(a.PaymentMethod), a.IBAN, a.BIC, a.AccountHolder,
		num(a.CustomAmount), a.Chapter, string(a.Status),
	)
	return row.Scan(&a.ID, &a.SubmittedAt)
}

// GetByID fetches an application by UUID.
func (r *ApplicationRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	a, err := scanApplication(r.sql.QueryRow(ctx, sqlinline.QSelectApplicationByID, id))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// Update persists the review outcome.
func (r *ApplicationRepositoryPG) Update(ctx context.Context, a *domain.Application) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateApplication,
		a.ID, string(a.Status), a.RejectReason, a.ReviewedBy, a.ReviewedAt, a.MemberID, a.Chapter)
	return err
}

// ListByStatus returns applications in a given review state.
func (r *ApplicationRepositoryPG) ListByStatus(ctx context.Context, status domain.ApplicationStatus, limit int) ([]domain.Application, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListApplicationsByStatus, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

func scanApplication(row pgx.Row) (*domain.Application, error) {
	var a domain.Application
	var amount pgtype.Numeric
	if err := row.Scan(
		&a.ID, &a.Number, &a.FirstName, &a.LastName, &a.Email, &a.BirthDate, &a.PostalCode, &a.City, &a.Street,
		&a.CountryCode, &a.MembershipType, &a.PaymentMethod, &a.IBAN, &a.BIC, &a.AccountHolder,
		&amount, &a.Chapter, &a.Status, &a.RejectReason,
		&a.ReviewedBy, &a.ReviewedAt, &a.MemberID, &a.SubmittedAt,
	); err != nil {
		return nil, err
	}
	a.CustomAmount = dec(amount)
	return &a, nil
}
