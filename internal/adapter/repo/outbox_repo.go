package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/infra"
	"ledenbeheer/internal/sqlinline"
)

// NotificationRepositoryPG implements domain.NotificationRepository.
type NotificationRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewNotificationRepository creates a new NotificationRepositoryPG.
func NewNotificationRepository(sql infra.SQLExecutor) *NotificationRepositoryPG {
	return &NotificationRepositoryPG{sql: sql}
}

// Enqueue inserts an outbox row. A duplicate dedupe key is silently
// dropped and leaves n.ID empty.
func (r *NotificationRepositoryPG) Enqueue(ctx context.Context, n *domain.Notification) error {
	scheduled := n.ScheduledAt
	if scheduled.IsZero() {
		scheduled = time.Now()
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertNotification,
		string(n.Kind), n.Member, n.RefType, n.RefID, n.Recipient, n.Subject, n.Body, string(n.Status),
		n.DedupeKey, scheduled,
	)
	if err := row.Scan(&n.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	return nil
}

// ClaimPending returns due pending notifications. Claimed rows are
// pushed ten minutes into the future so a concurrent drain skips them;
// MarkSent or MarkFailed settles them for good.
func (r *NotificationRepositoryPG) ClaimPending(ctx context.Context, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.sql.Query(ctx, sqlinline.QClaimPendingNotifications, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID, &n.Kind, &n.Member, &n.RefType, &n.RefID, &n.Recipient, &n.Subject, &n.Body,
			&n.Status, &n.Attempts, &n.LastError, &n.DedupeKey,
			&n.ScheduledAt, &n.SentAt, &n.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

// MarkSent records successful delivery.
func (r *NotificationRepositoryPG) MarkSent(ctx context.Context, id string, at time.Time) error {
	_, err := r.sql.Exec(ctx, sqlinline.QMarkNotificationSent, id, at)
	return err
}

// MarkFailed records a delivery failure; after five attempts the row
// stays Failed, otherwise it is rescheduled.
func (r *NotificationRepositoryPG) MarkFailed(ctx context.Context, id string, errMsg string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QMarkNotificationFailed, id, errMsg)
	return err
}

// ExistsDedupe reports whether a notification with this dedupe key was
// ever enqueued.
func (r *NotificationRepositoryPG) ExistsDedupe(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.sql.QueryRow(ctx, sqlinline.QExistsNotificationDedupe, key).Scan(&exists)
	return exists, err
}

// DeleteSentBefore removes delivered rows older than the cutoff,
// returning how many went.
func (r *NotificationRepositoryPG) DeleteSentBefore(ctx context.Context, before time.Time) (int, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteSentNotifications, before)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
