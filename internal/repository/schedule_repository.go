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

// ScheduleRepository manages persistence for personal schedules. Every query
// is keyed by owner: rows outside the caller's ownership are invisible at
// the SQL level, so a failed lookup and a missing row are the same outcome.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns the owner's schedules matching the filter, in insertion order.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	conditions := []string{"owner_id = $1"}
	args := []interface{}{filter.OwnerID}

	if filter.DayOfWeek != "" {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, strings.ToUpper(filter.DayOfWeek))
	}

	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, owner_id, course, time, location, instructor, type, day_of_week, created_at, updated_at
        FROM schedules WHERE %s ORDER BY created_at ASC LIMIT %d OFFSET %d`, where, size, offset)

	var schedules []models.Schedule
	err := readWithRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &schedules, query, args...)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM schedules WHERE %s", where)
	var total int
	err = readWithRetry(ctx, func() error {
		return r.db.GetContext(ctx, &total, countQuery, args...)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}
	return schedules, total, nil
}

// FindByID fetches one schedule scoped to its owner.
func (r *ScheduleRepository) FindByID(ctx context.Context, id, ownerID string) (*models.Schedule, error) {
	const query = `SELECT id, owner_id, course, time, location, instructor, type, day_of_week, created_at, updated_at
        FROM schedules WHERE id = $1 AND owner_id = $2`
	var schedule models.Schedule
	err := readWithRetry(ctx, func() error {
		return r.db.GetContext(ctx, &schedule, query, id, ownerID)
	})
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// Create inserts a schedule row.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now
	const query = `INSERT INTO schedules (id, owner_id, course, time, location, instructor, type, day_of_week, created_at, updated_at)
        VALUES (:id, :owner_id, :course, :time, :location, :instructor, :type, :day_of_week, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update modifies a schedule, keyed by id and owner. Returns the number of
// rows touched; zero means the row does not exist for this owner.
func (r *ScheduleRepository) Update(ctx context.Context, schedule *models.Schedule) (int64, error) {
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedules SET course = :course, time = :time, location = :location, instructor = :instructor, type = :type, day_of_week = :day_of_week, updated_at = :updated_at
        WHERE id = :id AND owner_id = :owner_id`
	res, err := r.db.NamedExecContext(ctx, query, schedule)
	if err != nil {
		return 0, fmt.Errorf("update schedule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update schedule rows: %w", err)
	}
	return affected, nil
}

// Delete removes a schedule, keyed by id and owner.
func (r *ScheduleRepository) Delete(ctx context.Context, id, ownerID string) (int64, error) {
	const query = `DELETE FROM schedules WHERE id = $1 AND owner_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete schedule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete schedule rows: %w", err)
	}
	return affected, nil
}
