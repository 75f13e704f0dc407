package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/infra"
	"ledenbeheer/internal/sqlinline"
)

// ExpenseRepositoryPG implements domain.ExpenseRepository.
type ExpenseRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewExpenseRepository creates a new ExpenseRepositoryPG.
func NewExpenseRepository(sql infra.SQLExecutor) *ExpenseRepositoryPG {
	return &ExpenseRepositoryPG{sql: sql}
}

// Create inserts an expense claim and fills in the generated id.
func (r *ExpenseRepositoryPG) Create(ctx context.Context, e *domain.Expense) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertExpense,
		e.Volunteer, string(e.OrgType), e.OrgRef, e.Category, e.Description, num(e.Amount),
		e.ExpenseDate, string(e.Status),
	)
	return row.Scan(&e.ID)
}

// GetByID fetches an expense by UUID.
func (r *ExpenseRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Expense, error) {
	e, err := scanExpense(r.sql.QueryRow(ctx, sqlinline.QSelectExpenseByID, id))
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

// Update persists the approval outcome.
func (r *ExpenseRepositoryPG) Update(ctx context.Context, e *domain.Expense) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateExpense,
		e.ID, string(e.Status), e.ApprovedBy, e.ApprovedAt, e.RejectReason)
	return err
}

// ListByVolunteer returns a volunteer's claims, newest first.
func (r *ExpenseRepositoryPG) ListByVolunteer(ctx context.Context, volunteerID string, limit int) ([]domain.Expense, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListExpensesByVolunteer, volunteerID, limit)
	if err != nil {
		return nil, err
	}
	return collectExpenses(rows)
}

// ListByStatus returns claims awaiting the given state.
func (r *ExpenseRepositoryPG) ListByStatus(ctx context.Context, status domain.ExpenseStatus, limit int) ([]domain.Expense, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListExpensesByStatus, string(status), limit)
	if err != nil {
		return nil, err
	}
	return collectExpenses(rows)
}

func collectExpenses(rows pgx.Rows) ([]domain.Expense, error) {
	defer rows.Close()
	var items []domain.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *e)
	}
	return items, rows.Err()
}

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var e domain.Expense
	var amount pgtype.Numeric
	if err := row.Scan(
		&e.ID, &e.Volunteer, &e.OrgType, &e.OrgRef, &e.Category, &e.Description, &amount,
		&e.ExpenseDate, &e.Status, &e.ApprovedBy, &e.ApprovedAt, &e.RejectReason, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.Amount = dec(amount)
	return &e, nil
}
