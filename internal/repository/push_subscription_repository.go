package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/campus-api/internal/models"
)

// PushSubscriptionRepository manages stored push delivery channels.
type PushSubscriptionRepository struct {
	db *sqlx.DB
}

// NewPushSubscriptionRepository constructs a PushSubscriptionRepository.
func NewPushSubscriptionRepository(db *sqlx.DB) *PushSubscriptionRepository {
	return &PushSubscriptionRepository{db: db}
}

// ListByOwner returns every subscription registered by a user.
func (r *PushSubscriptionRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.PushSubscription, error) {
	const query = `SELECT id, owner_id, endpoint, p256dh, auth, created_at
        FROM push_subscriptions WHERE owner_id = $1 ORDER BY created_at ASC`
	var subs []models.PushSubscription
	err := readWithRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &subs, query, ownerID)
	})
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	return subs, nil
}

// Upsert stores a subscription, replacing any existing row for the same
// endpoint so re-registering a device is idempotent.
func (r *PushSubscriptionRepository) Upsert(ctx context.Context, sub *models.PushSubscription) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO push_subscriptions (id, owner_id, endpoint, p256dh, auth, created_at)
        VALUES (:id, :owner_id, :endpoint, :p256dh, :auth, :created_at)
        ON CONFLICT (owner_id, endpoint) DO UPDATE SET p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("upsert push subscription: %w", err)
	}
	return nil
}

// Delete removes a subscription by endpoint, keyed by owner.
func (r *PushSubscriptionRepository) Delete(ctx context.Context, ownerID, endpoint string) (int64, error) {
	const query = `DELETE FROM push_subscriptions WHERE owner_id = $1 AND endpoint = $2`
	res, err := r.db.ExecContext(ctx, query, ownerID, endpoint)
	if err != nil {
		return 0, fmt.Errorf("delete push subscription: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete push subscription rows: %w", err)
	}
	return affected, nil
}
