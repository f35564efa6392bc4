package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/campus-api/internal/models"
)

// UpdateRepository manages lecturer announcements.
type UpdateRepository struct {
	db *sqlx.DB
}

// NewUpdateRepository constructs an UpdateRepository.
func NewUpdateRepository(db *sqlx.DB) *UpdateRepository {
	return &UpdateRepository{db: db}
}

// ListByLecturer returns every announcement owned by a lecturer.
func (r *UpdateRepository) ListByLecturer(ctx context.Context, lecturerID string) ([]models.Update, error) {
	const query = `SELECT id, lecturer_id, title, content, target_class_id, created_at, updated_at
        FROM updates WHERE lecturer_id = $1 ORDER BY created_at DESC`
	var updates []models.Update
	err := readWithRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &updates, query, lecturerID)
	})
	if err != nil {
		return nil, fmt.Errorf("list updates: %w", err)
	}
	return updates, nil
}

// ListVisibleToClass returns announcements a class member may read: rows
// broadcast to everyone plus rows targeting exactly that class.
func (r *UpdateRepository) ListVisibleToClass(ctx context.Context, classID string) ([]models.Update, error) {
	const query = `SELECT id, lecturer_id, title, content, target_class_id, created_at, updated_at
        FROM updates WHERE target_class_id IS NULL OR target_class_id = '' OR target_class_id = $1 OR target_class_id = $2
        ORDER BY created_at DESC`
	var updates []models.Update
	err := readWithRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &updates, query, models.UpdateBroadcastTarget, classID)
	})
	if err != nil {
		return nil, fmt.Errorf("list visible updates: %w", err)
	}
	return updates, nil
}

// FindByID fetches one announcement; visibility is decided by the policy
// evaluator.
func (r *UpdateRepository) FindByID(ctx context.Context, id string) (*models.Update, error) {
	const query = `SELECT id, lecturer_id, title, content, target_class_id, created_at, updated_at
        FROM updates WHERE id = $1`
	var update models.Update
	err := readWithRetry(ctx, func() error {
		return r.db.GetContext(ctx, &update, query, id)
	})
	if err != nil {
		return nil, err
	}
	return &update, nil
}

// Create inserts an announcement row.
func (r *UpdateRepository) Create(ctx context.Context, update *models.Update) error {
	if update.ID == "" {
		update.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if update.CreatedAt.IsZero() {
		update.CreatedAt = now
	}
	update.UpdatedAt = now
	const query = `INSERT INTO updates (id, lecturer_id, title, content, target_class_id, created_at, updated_at)
        VALUES (:id, :lecturer_id, :title, :content, :target_class_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, update); err != nil {
		return fmt.Errorf("create update: %w", err)
	}
	return nil
}

// Update modifies an announcement, keyed by id and owning lecturer.
func (r *UpdateRepository) Update(ctx context.Context, update *models.Update) (int64, error) {
	update.UpdatedAt = time.Now().UTC()
	const query = `UPDATE updates SET title = :title, content = :content, target_class_id = :target_class_id, updated_at = :updated_at
        WHERE id = :id AND lecturer_id = :lecturer_id`
	res, err := r.db.NamedExecContext(ctx, query, update)
	if err != nil {
		return 0, fmt.Errorf("update announcement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update announcement rows: %w", err)
	}
	return affected, nil
}

// Delete removes an announcement, keyed by id and owning lecturer.
func (r *UpdateRepository) Delete(ctx context.Context, id, lecturerID string) (int64, error) {
	const query = `DELETE FROM updates WHERE id = $1 AND lecturer_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, lecturerID)
	if err != nil {
		return 0, fmt.Errorf("delete announcement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete announcement rows: %w", err)
	}
	return affected, nil
}
