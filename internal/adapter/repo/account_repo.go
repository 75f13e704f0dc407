package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/infra"
	"ledenbeheer/internal/sqlinline"
)

// AccountRepositoryPG implements domain.AccountRepository.
type AccountRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewAccountRepository creates a new account repository backed by PostgreSQL.
func NewAccountRepository(sql infra.SQLExecutor) *AccountRepositoryPG {
	return &AccountRepositoryPG{sql: sql}
}

// Create inserts an account and fills in the generated id.
func (r *AccountRepositoryPG) Create(ctx context.Context, a *domain.Account) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertAccount,
		a.Email, a.Name, a.PasswordHash, string(a.Role), a.MemberID, a.Active)
	return row.Scan(&a.ID)
}

// GetByEmail fetches an account by email, case insensitively.
func (r *AccountRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.one(r.sql.QueryRow(ctx, sqlinline.QSelectAccountByEmail, email))
}

// GetByID fetches an account by its identifier.
func (r *AccountRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.one(r.sql.QueryRow(ctx, sqlinline.QSelectAccountByID, id))
}

// GetByMember fetches the account linked to a member, if any.
func (r *AccountRepositoryPG) GetByMember(ctx context.Context, memberID string) (*domain.Account, error) {
	return r.one(r.sql.QueryRow(ctx, sqlinline.QSelectAccountByMember, memberID))
}

// Update persists mutable account fields.
func (r *AccountRepositoryPG) Update(ctx context.Context, a *domain.Account) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateAccount,
		a.ID, a.Email, a.Name, a.PasswordHash, string(a.Role), a.MemberID, a.Active)
	return err
}

// TouchLogin records a successful login timestamp.
func (r *AccountRepositoryPG) TouchLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.sql.Exec(ctx, sqlinline.QTouchAccountLogin, id, at)
	return err
}

func (r *AccountRepositoryPG) one(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	if err := row.Scan(
		&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.Role, &a.MemberID, &a.Active,
		&a.LastLoginAt, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}
