package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/campus-api/internal/models"
)

// NotificationRepository manages the append-only notification store. Rows
// are never updated except for the read flag, and never deleted.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs a NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// ListRecent returns the owner's newest notifications, most recent first,
// capped at limit.
func (r *NotificationRepository) ListRecent(ctx context.Context, ownerID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const query = `SELECT id, owner_id, title, message, type, read, metadata, created_at
        FROM notifications WHERE owner_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`
	var notifications []models.Notification
	err := readWithRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &notifications, query, ownerID, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// Create appends a notification row.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, owner_id, title, message, type, read, metadata, created_at)
        VALUES (:id, :owner_id, :title, :message, :type, :read, :metadata, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// MarkRead flips the read flag, keyed by id and owner. Already-read rows
// still count as touched, which keeps the operation idempotent; zero rows
// means the notification does not exist for this owner.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, ownerID string) (int64, error) {
	const query = `UPDATE notifications SET read = TRUE WHERE id = $1 AND owner_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return 0, fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark notification read rows: %w", err)
	}
	return affected, nil
}

// MarkAllRead flips every unread notification of the owner and returns how
// many were flipped.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, ownerID string) (int64, error) {
	const query = `UPDATE notifications SET read = TRUE WHERE owner_id = $1 AND read = FALSE`
	res, err := r.db.ExecContext(ctx, query, ownerID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read rows: %w", err)
	}
	return affected, nil
}

// UnreadCount returns the owner's number of unread notifications.
func (r *NotificationRepository) UnreadCount(ctx context.Context, ownerID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE owner_id = $1 AND read = FALSE`
	var count int
	err := readWithRetry(ctx, func() error {
		return r.db.GetContext(ctx, &count, query, ownerID)
	})
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}
