package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/campus-api/internal/models"
)

// AssignmentRepository manages lecturer assignments, readable class-wide.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListByLecturer returns every assignment owned by a lecturer.
func (r *AssignmentRepository) ListByLecturer(ctx context.Context, lecturerID string) ([]models.Assignment, error) {
	const query = `SELECT id, lecturer_id, title, class_id, submission_date, portal_open, created_at, updated_at
        FROM assignments WHERE lecturer_id = $1 ORDER BY created_at ASC`
	var assignments []models.Assignment
	err := readWithRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &assignments, query, lecturerID)
	})
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// ListByClass returns a class's assignments for student reads.
func (r *AssignmentRepository) ListByClass(ctx context.Context, classID string) ([]models.Assignment, error) {
	const query = `SELECT id, lecturer_id, title, class_id, submission_date, portal_open, created_at, updated_at
        FROM assignments WHERE class_id = $1 ORDER BY created_at ASC`
	var assignments []models.Assignment
	err := readWithRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &assignments, query, classID)
	})
	if err != nil {
		return nil, fmt.Errorf("list assignments by class: %w", err)
	}
	return assignments, nil
}

// FindByID fetches one assignment; visibility is decided by the policy
// evaluator since assignments are class-readable.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	const query = `SELECT id, lecturer_id, title, class_id, submission_date, portal_open, created_at, updated_at
        FROM assignments WHERE id = $1`
	var assignment models.Assignment
	err := readWithRetry(ctx, func() error {
		return r.db.GetContext(ctx, &assignment, query, id)
	})
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Create inserts an assignment row.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now
	const query = `INSERT INTO assignments (id, lecturer_id, title, class_id, submission_date, portal_open, created_at, updated_at)
        VALUES (:id, :lecturer_id, :title, :class_id, :submission_date, :portal_open, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Update modifies an assignment, keyed by id and owning lecturer.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) (int64, error) {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assignments SET title = :title, class_id = :class_id, submission_date = :submission_date, portal_open = :portal_open, updated_at = :updated_at
        WHERE id = :id AND lecturer_id = :lecturer_id`
	res, err := r.db.NamedExecContext(ctx, query, assignment)
	if err != nil {
		return 0, fmt.Errorf("update assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update assignment rows: %w", err)
	}
	return affected, nil
}

// Delete removes an assignment, keyed by id and owning lecturer.
func (r *AssignmentRepository) Delete(ctx context.Context, id, lecturerID string) (int64, error) {
	const query = `DELETE FROM assignments WHERE id = $1 AND lecturer_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, lecturerID)
	if err != nil {
		return 0, fmt.Errorf("delete assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete assignment rows: %w", err)
	}
	return affected, nil
}
