package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/infra"
	"ledenbeheer/internal/sqlinline"
)

// SyncRepositoryPG implements domain.SyncRepository.
type SyncRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewSyncRepository creates a new sync repository backed by PostgreSQL.
func NewSyncRepository(sql infra.SQLExecutor) *SyncRepositoryPG {
	return &SyncRepositoryPG{sql: sql}
}

// Upsert inserts or refreshes the sync state for one document.
func (r *SyncRepositoryPG) Upsert(ctx context.Context, rec *domain.SyncRecord) error {
	return r.sql.QueryRow(ctx, sqlinline.QUpsertSyncRecord,
		string(rec.DocType), rec.DocID, rec.MutationID, string(rec.Status),
		rec.Attempts, rec.LastError, rec.SyncedAt,
	).Scan(&rec.ID)
}

// Get fetches the sync state for one document.
func (r *SyncRepositoryPG) Get(ctx context.Context, docType domain.SyncDocType, docID string) (*domain.SyncRecord, error) {
	rec, err := scanSyncRecord(r.sql.QueryRow(ctx, sqlinline.QSelectSyncRecord, string(docType), docID))
	if err != nil {
		return nil, notFound(err)
	}
	return rec, nil
}

// EnqueueMissing backfills pending sync records for documents of the
// given type that have none yet and reports how many were added.
func (r *SyncRepositoryPG) EnqueueMissing(ctx context.Context, docType domain.SyncDocType, limit int) (int, error) {
	if limit <= 0 {
		limit = 200
	}
	var query string
	switch docType {
	case domain.SyncDocInvoice:
		query = sqlinline.QEnqueueMissingInvoices
	case domain.SyncDocPayment:
		query = sqlinline.QEnqueueMissingPayments
	case domain.SyncDocDonation:
		query = sqlinline.QEnqueueMissingDonations
	default:
		return 0, fmt.Errorf("%w: unknown sync doc type %q", domain.ErrInvalidInput, docType)
	}
	tag, err := r.sql.Exec(ctx, query, limit)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// ListPending returns sync records still waiting for a bookkeeping post.
func (r *SyncRepositoryPG) ListPending(ctx context.Context, limit int) ([]domain.SyncRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListPendingSyncRecords, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SyncRecord
	for rows.Next() {
		rec, err := scanSyncRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// HasMutation reports whether a remote mutation id was already recorded.
func (r *SyncRepositoryPG) HasMutation(ctx context.Context, mutationID int64) (bool, error) {
	var exists bool
	if err := r.sql.QueryRow(ctx, sqlinline.QExistsSyncMutation, mutationID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Cursor returns the stored sync cursor, zero when the name is unknown.
func (r *SyncRepositoryPG) Cursor(ctx context.Context, name string) (int64, error) {
	var value int64
	err := r.sql.QueryRow(ctx, sqlinline.QSelectSyncCursor, name).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return value, nil
}

// SetCursor stores the sync cursor under the given name.
func (r *SyncRepositoryPG) SetCursor(ctx context.Context, name string, value int64) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpsertSyncCursor, name, value)
	return err
}

func scanSyncRecord(row pgx.Row) (*domain.SyncRecord, error) {
	var rec domain.SyncRecord
	if err := row.Scan(
		&rec.ID, &rec.DocType, &rec.DocID, &rec.MutationID, &rec.Status, &rec.Attempts,
		&rec.LastError, &rec.SyncedAt, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}
