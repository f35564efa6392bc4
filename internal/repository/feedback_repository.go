package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/campus-api/internal/models"
)

// FeedbackRepository manages persistence for feedback entries. Owner-scoped
// except for the administrator response path, which is role-gated in the
// service layer.
type FeedbackRepository struct {
	db *sqlx.DB
}

// NewFeedbackRepository constructs a FeedbackRepository.
func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// ListByOwner returns the owner's feedback entries, newest first.
func (r *FeedbackRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Feedback, error) {
	const query = `SELECT id, owner_id, type, subject, description, priority, rating, status, response, created_at, updated_at
        FROM feedback WHERE owner_id = $1 ORDER BY created_at DESC`
	var entries []models.Feedback
	err := readWithRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &entries, query, ownerID)
	})
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return entries, nil
}

// ListAll returns every feedback entry, newest first. Administrator use only.
func (r *FeedbackRepository) ListAll(ctx context.Context) ([]models.Feedback, error) {
	const query = `SELECT id, owner_id, type, subject, description, priority, rating, status, response, created_at, updated_at
        FROM feedback ORDER BY created_at DESC`
	var entries []models.Feedback
	err := readWithRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &entries, query)
	})
	if err != nil {
		return nil, fmt.Errorf("list all feedback: %w", err)
	}
	return entries, nil
}

// FindByID fetches one feedback entry scoped to its owner.
func (r *FeedbackRepository) FindByID(ctx context.Context, id, ownerID string) (*models.Feedback, error) {
	const query = `SELECT id, owner_id, type, subject, description, priority, rating, status, response, created_at, updated_at
        FROM feedback WHERE id = $1 AND owner_id = $2`
	var entry models.Feedback
	err := readWithRetry(ctx, func() error {
		return r.db.GetContext(ctx, &entry, query, id, ownerID)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Create inserts a feedback row.
func (r *FeedbackRepository) Create(ctx context.Context, entry *models.Feedback) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	const query = `INSERT INTO feedback (id, owner_id, type, subject, description, priority, rating, status, response, created_at, updated_at)
        VALUES (:id, :owner_id, :type, :subject, :description, :priority, :rating, :status, :response, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// Respond writes the administrator response and status without owner
// scoping; the service layer gates this behind the admin role.
func (r *FeedbackRepository) Respond(ctx context.Context, id string, status models.FeedbackStatus, response string) (int64, error) {
	const query = `UPDATE feedback SET status = $2, response = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, response, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("respond to feedback: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("respond to feedback rows: %w", err)
	}
	return affected, nil
}

// Delete removes a feedback entry, keyed by id and owner.
func (r *FeedbackRepository) Delete(ctx context.Context, id, ownerID string) (int64, error) {
	const query = `DELETE FROM feedback WHERE id = $1 AND owner_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete feedback: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete feedback rows: %w", err)
	}
	return affected, nil
}
