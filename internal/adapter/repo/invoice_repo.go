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

// InvoiceRepositoryPG implements domain.InvoiceRepository.
type InvoiceRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewInvoiceRepository creates a new InvoiceRepositoryPG.
func NewInvoiceRepository(sql infra.SQLExecutor) *InvoiceRepositoryPG {
	return &InvoiceRepositoryPG{sql: sql}
}

// Create inserts an invoice and fills in the generated id.
func (r *InvoiceRepositoryPG) Create(ctx context.Context, inv *domain.Invoice) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertInvoice,
		inv.Number, inv.Member, inv.MemberName, inv.DuesSchedule, inv.Description, num(inv.Amount),
		num(inv.Outstanding), inv.Currency, inv.CoverageStart, inv.CoverageEnd, inv.PostingDate,
		inv.DueDate, string(inv.PaymentMethod), string(inv.Status),
	)
	return row.Scan(&inv.ID)
}

// GetByID fetches an invoice by UUID.
func (r *InvoiceRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	inv, err := scanInvoice(r.sql.QueryRow(ctx, sqlinline.QSelectInvoiceByID, id))
	if err != nil {
		return nil, notFound(err)
	}
	return inv, nil
}

// GetByNumber fetches an invoice by its public number.
func (r *InvoiceRepositoryPG) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	inv, err := scanInvoice(r.sql.QueryRow(ctx, sqlinline.QSelectInvoiceByNumber, number))
	if err != nil {
		return nil, notFound(err)
	}
	return inv, nil
}

// Update persists the mutable invoice columns.
func (r *InvoiceRepositoryPG) Update(ctx context.Context, inv *domain.Invoice) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateInvoice,
		inv.ID, inv.MemberName, inv.Description, num(inv.Amount), num(inv.Outstanding),
		inv.DueDate, string(inv.PaymentMethod), string(inv.Status), inv.PaidAt, inv.CancelReason,
	)
	return err
}

// ListByMember returns the member's invoices, newest first.
func (r *InvoiceRepositoryPG) ListByMember(ctx context.Context, memberID string, limit int) ([]domain.Invoice, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListInvoicesByMember, memberID, limit)
	if err != nil {
		return nil, err
	}
	return collectInvoices(rows)
}

// ListByStatus returns invoices in one state ordered by due date.
func (r *InvoiceRepositoryPG) ListByStatus(ctx context.Context, status domain.InvoiceStatus, limit int) ([]domain.Invoice, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListInvoicesByStatus, string(status), limit)
	if err != nil {
		return nil, err
	}
	return collectInvoices(rows)
}

// ListOpenForCollection returns open direct debit invoices with an
// outstanding amount, ordered by due date.
func (r *InvoiceRepositoryPG) ListOpenForCollection(ctx context.Context, limit int) ([]domain.Invoice, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListInvoicesOpenForCollection, limit)
	if err != nil {
		return nil, err
	}
	return collectInvoices(rows)
}

// CountOpenByMember counts a member's unpaid and overdue invoices.
func (r *InvoiceRepositoryPG) CountOpenByMember(ctx context.Context, memberID string) (int, error) {
	var n int
	err := r.sql.QueryRow(ctx, sqlinline.QCountOpenInvoicesByMember, memberID).Scan(&n)
	return n, err
}

// ListCoverage returns non-cancelled invoices whose coverage overlaps
// the given window for a schedule.
func (r *InvoiceRepositoryPG) ListCoverage(ctx context.Context, scheduleID string, from, to time.Time) ([]domain.Invoice, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListInvoicesCoverage, scheduleID, from, to)
	if err != nil {
		return nil, err
	}
	return collectInvoices(rows)
}

// NextSequence draws the next invoice number for the year.
func (r *InvoiceRepositoryPG) NextSequence(ctx context.Context, year int) (int, error) {
	var n int
	err := r.sql.QueryRow(ctx, sqlinline.QNextCounterValue, fmt.Sprintf("invoice:%d", year)).Scan(&n)
	return n, err
}

// MarkOverdue flips unpaid invoices past their due date to Overdue and
// reports how many changed.
func (r *InvoiceRepositoryPG) MarkOverdue(ctx context.Context, before time.Time) (int, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QMarkInvoicesOverdue, before)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func collectInvoices(rows pgx.Rows) ([]domain.Invoice, error) {
	defer rows.Close()
	var items []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *inv)
	}
	return items, rows.Err()
}

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var inv domain.Invoice
	var amount, outstanding pgtype.Numeric
	if err := row.Scan(
		&inv.ID, &inv.Number, &inv.Member, &inv.MemberName, &inv.DuesSchedule, &inv.Description, &amount,
		&outstanding, &inv.Currency, &inv.CoverageStart, &inv.CoverageEnd, &inv.PostingDate,
		&inv.DueDate, &inv.PaymentMethod, &inv.Status, &inv.PaidAt, &inv.CancelReason, &inv.CreatedAt, &inv.UpdatedAt,
	); err != nil {
		return nil, err
	}
	inv.Amount = dec(amount)
	inv.Outstanding = dec(outstanding)
	return &inv, nil
}
