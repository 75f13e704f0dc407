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

// BatchRepositoryPG implements domain.BatchRepository.
type BatchRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewBatchRepository creates a new BatchRepositoryPG.
func NewBatchRepository(sql infra.SQLExecutor) *BatchRepositoryPG {
	return &BatchRepositoryPG{sql: sql}
}

// Create inserts the batch header and fills in the generated id. Rows
// and log entries are stored separately.
func (r *BatchRepositoryPG) Create(ctx context.Context, b *domain.Batch) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertBatch,
		b.Name, b.BatchDate, b.Description, string(b.SequenceType), b.Currency, string(b.Status),
		num(b.TotalAmount), b.EntryCount, b.XMLKey, b.SubmittedAt,
	)
	return row.Scan(&b.ID)
}

// GetByID fetches a batch with its rows and log.
func (r *BatchRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Batch, error) {
	b, err := scanBatch(r.sql.QueryRow(ctx, sqlinline.QSelectBatchByID, id))
	if err != nil {
		return nil, notFound(err)
	}
	if b.Rows, err = r.ListRows(ctx, id); err != nil {
		return nil, err
	}
	if b.Log, err = r.ListLog(ctx, id); err != nil {
		return nil, err
	}
	return b, nil
}

// Update persists the mutable batch header columns.
func (r *BatchRepositoryPG) Update(ctx context.Context, b *domain.Batch) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateBatch,
		b.ID, b.Description, string(b.SequenceType), string(b.Status),
		num(b.TotalAmount), b.EntryCount, b.XMLKey, b.SubmittedAt,
	)
	return err
}

// UpdateStatus flips the workflow status without touching the rest.
func (r *BatchRepositoryPG) UpdateStatus(ctx context.Context, id string, status domain.BatchStatus) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateBatchStatus, id, string(status))
	return err
}

// List returns batch headers, optionally filtered by status.
func (r *BatchRepositoryPG) List(ctx context.Context, status domain.BatchStatus, limit int) ([]domain.Batch, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListBatches, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *b)
	}
	return items, rows.Err()
}

// AddRows appends collection rows to a batch.
func (r *BatchRepositoryPG) AddRows(ctx context.Context, batchID string, rows []domain.BatchRow) error {
	for i := range rows {
		row := &rows[i]
		res := r.sql.QueryRow(ctx, sqlinline.QInsertBatchRow,
			batchID, row.Invoice, row.InvoiceNumber, row.Member, row.MemberName, num(row.Amount), row.Currency,
			row.IBAN, row.BIC, row.DebtorName, row.MandateReference, row.MandateSignDate,
			string(row.SequenceType), string(row.Status), row.ResultCode, row.ResultMessage,
		)
		if err := res.Scan(&row.ID); err != nil {
			return err
		}
		row.Batch = batchID
	}
	return nil
}

// ListRows returns the batch's rows ordered by invoice number.
func (r *BatchRepositoryPG) ListRows(ctx context.Context, batchID string) ([]domain.BatchRow, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListBatchRows, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.BatchRow
	for rows.Next() {
		var br domain.BatchRow
		var amount pgtype.Numeric
		if err := rows.Scan(
			&br.ID, &br.Batch, &br.Invoice, &br.InvoiceNumber, &br.Member, &br.MemberName, &amount, &br.Currency,
			&br.IBAN, &br.BIC, &br.DebtorName, &br.MandateReference, &br.MandateSignDate,
			&br.SequenceType, &br.Status, &br.ResultCode, &br.ResultMessage,
		); err != nil {
			return nil, err
		}
		br.Amount = dec(amount)
		items = append(items, br)
	}
	return items, rows.Err()
}

// UpdateRow persists a row's processing outcome.
func (r *BatchRepositoryPG) UpdateRow(ctx context.Context, row *domain.BatchRow) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateBatchRow,
		row.ID, string(row.Status), row.ResultCode, row.ResultMessage)
	return err
}

// AppendLog adds a timestamped processing note.
func (r *BatchRepositoryPG) AppendLog(ctx context.Context, batchID string, entry domain.BatchLogEntry) error {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.sql.Exec(ctx, sqlinline.QInsertBatchLog, batchID, ts, entry.Message)
	return err
}

// ListLog returns the batch's processing log in order.
func (r *BatchRepositoryPG) ListLog(ctx context.Context, batchID string) ([]domain.BatchLogEntry, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListBatchLog, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.BatchLogEntry
	for rows.Next() {
		var e domain.BatchLogEntry
		if err := rows.Scan(&e.Timestamp, &e.Message); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// InvoicesInOpenBatches maps invoice ids already sitting in an open
// batch to that batch's name.
func (r *BatchRepositoryPG) InvoicesInOpenBatches(ctx context.Context, invoiceIDs []string) (map[string]string, error) {
	if len(invoiceIDs) == 0 {
		return map[string]string{}, nil
	}
	rows, err := r.sql.Query(ctx, sqlinline.QSelectInvoicesInOpenBatches, invoiceIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	taken := make(map[string]string)
	for rows.Next() {
		var invoice, batchName string
		if err := rows.Scan(&invoice, &batchName); err != nil {
			return nil, err
		}
		taken[invoice] = batchName
	}
	return taken, rows.Err()
}

// DeleteStaleDraftsBefore removes draft batches created before the
// cutoff that never made it to validation, rows and log included.
func (r *BatchRepositoryPG) DeleteStaleDraftsBefore(ctx context.Context, before time.Time) (int, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteStaleDraftBatches, before)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// NextSequenceForDay returns the sequence number a batch cut on this
// day would get.
func (r *BatchRepositoryPG) NextSequenceForDay(ctx context.Context, day time.Time) (int, error) {
	var n int
	if err := r.sql.QueryRow(ctx, sqlinline.QCountBatchesForDay, day).Scan(&n); err != nil {
		return 0, err
	}
	return n + 1, nil
}

func scanBatch(row pgx.Row) (*domain.Batch, error) {
	var b domain.Batch
	var total pgtype.Numeric
	if err := row.Scan(
		&b.ID, &b.Name, &b.BatchDate, &b.Description, &b.SequenceType, &b.Currency, &b.Status,
		&total, &b.EntryCount, &b.XMLKey, &b.SubmittedAt, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	b.TotalAmount = dec(total)
	return &b, nil
}
