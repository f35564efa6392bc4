package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/campus-api/internal/models"
)

// RosterRepository manages lecturer class rosters.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs a RosterRepository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// ListByLecturer returns a lecturer's roster in insertion order.
func (r *RosterRepository) ListByLecturer(ctx context.Context, lecturerID string) ([]models.RosterStudent, error) {
	const query = `SELECT id, lecturer_id, student_name, student_id, class_id, created_at, updated_at
        FROM roster_students WHERE lecturer_id = $1 ORDER BY created_at ASC`
	var students []models.RosterStudent
	err := readWithRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &students, query, lecturerID)
	})
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return students, nil
}

// ExistsByStudentID reports whether a matriculation number is already on the
// lecturer's roster, optionally excluding one row (for updates).
func (r *RosterRepository) ExistsByStudentID(ctx context.Context, lecturerID, studentID, excludeID string) (bool, error) {
	query := "SELECT 1 FROM roster_students WHERE lecturer_id = $1 AND student_id = $2"
	args := []interface{}{lecturerID, studentID}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	err := readWithRetry(ctx, func() error {
		return r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...)
	})
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student id: %w", err)
	}
	return true, nil
}

// Create inserts a roster entry.
func (r *RosterRepository) Create(ctx context.Context, student *models.RosterStudent) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO roster_students (id, lecturer_id, student_name, student_id, class_id, created_at, updated_at)
        VALUES (:id, :lecturer_id, :student_name, :student_id, :class_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create roster student: %w", err)
	}
	return nil
}

// Update modifies a roster entry, keyed by id and owning lecturer.
func (r *RosterRepository) Update(ctx context.Context, student *models.RosterStudent) (int64, error) {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE roster_students SET student_name = :student_name, student_id = :student_id, class_id = :class_id, updated_at = :updated_at
        WHERE id = :id AND lecturer_id = :lecturer_id`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return 0, fmt.Errorf("update roster student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update roster student rows: %w", err)
	}
	return affected, nil
}

// Delete removes a roster entry, keyed by id and owning lecturer.
func (r *RosterRepository) Delete(ctx context.Context, id, lecturerID string) (int64, error) {
	const query = `DELETE FROM roster_students WHERE id = $1 AND lecturer_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, lecturerID)
	if err != nil {
		return 0, fmt.Errorf("delete roster student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete roster student rows: %w", err)
	}
	return affected, nil
}
