package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/campus-api/internal/models"
)

// TimetableRepository manages class timetable slots. Slots are written by
// their owning lecturer and read class-wide.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs a TimetableRepository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// ListByLecturer returns every slot owned by a lecturer.
func (r *TimetableRepository) ListByLecturer(ctx context.Context, lecturerID string) ([]models.TimetableEntry, error) {
	const query = `SELECT id, lecturer_id, day_of_week, start_time, end_time, subject, class_id, room, created_at, updated_at
        FROM timetable_entries WHERE lecturer_id = $1 ORDER BY created_at ASC`
	var entries []models.TimetableEntry
	err := readWithRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &entries, query, lecturerID)
	})
	if err != nil {
		return nil, fmt.Errorf("list timetable: %w", err)
	}
	return entries, nil
}

// ListByClassAndDay returns a class's slots for one day, in insertion order.
// Feeds the merged day view.
func (r *TimetableRepository) ListByClassAndDay(ctx context.Context, classID, dayOfWeek string) ([]models.TimetableEntry, error) {
	const query = `SELECT id, lecturer_id, day_of_week, start_time, end_time, subject, class_id, room, created_at, updated_at
        FROM timetable_entries WHERE class_id = $1 AND day_of_week = $2 ORDER BY created_at ASC`
	var entries []models.TimetableEntry
	err := readWithRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &entries, query, classID, strings.ToUpper(dayOfWeek))
	})
	if err != nil {
		return nil, fmt.Errorf("list timetable by class: %w", err)
	}
	return entries, nil
}

// FindByID fetches one slot without owner scoping; visibility is decided by
// the policy evaluator since slots are class-readable.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.TimetableEntry, error) {
	const query = `SELECT id, lecturer_id, day_of_week, start_time, end_time, subject, class_id, room, created_at, updated_at
        FROM timetable_entries WHERE id = $1`
	var entry models.TimetableEntry
	err := readWithRetry(ctx, func() error {
		return r.db.GetContext(ctx, &entry, query, id)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Create inserts a slot.
func (r *TimetableRepository) Create(ctx context.Context, entry *models.TimetableEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	entry.DayOfWeek = strings.ToUpper(entry.DayOfWeek)
	const query = `INSERT INTO timetable_entries (id, lecturer_id, day_of_week, start_time, end_time, subject, class_id, room, created_at, updated_at)
        VALUES (:id, :lecturer_id, :day_of_week, :start_time, :end_time, :subject, :class_id, :room, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create timetable entry: %w", err)
	}
	return nil
}

// Update modifies a slot, keyed by id and owning lecturer.
func (r *TimetableRepository) Update(ctx context.Context, entry *models.TimetableEntry) (int64, error) {
	entry.UpdatedAt = time.Now().UTC()
	entry.DayOfWeek = strings.ToUpper(entry.DayOfWeek)
	const query = `UPDATE timetable_entries SET day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, subject = :subject, class_id = :class_id, room = :room, updated_at = :updated_at
        WHERE id = :id AND lecturer_id = :lecturer_id`
	res, err := r.db.NamedExecContext(ctx, query, entry)
	if err != nil {
		return 0, fmt.Errorf("update timetable entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update timetable entry rows: %w", err)
	}
	return affected, nil
}

// Delete removes a slot, keyed by id and owning lecturer.
func (r *TimetableRepository) Delete(ctx context.Context, id, lecturerID string) (int64, error) {
	const query = `DELETE FROM timetable_entries WHERE id = $1 AND lecturer_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, lecturerID)
	if err != nil {
		return 0, fmt.Errorf("delete timetable entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete timetable entry rows: %w", err)
	}
	return affected, nil
}
