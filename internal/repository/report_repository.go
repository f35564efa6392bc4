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

// ReportRepository manages lecturer student reports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs a ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// ListByLecturer returns a lecturer's reports, newest first, optionally
// filtered by type.
func (r *ReportRepository) ListByLecturer(ctx context.Context, lecturerID string, reportType models.ReportType) ([]models.Report, error) {
	conditions := []string{"lecturer_id = $1"}
	args := []interface{}{lecturerID}
	if reportType != "" {
		conditions = append(conditions, fmt.Sprintf("report_type = $%d", len(args)+1))
		args = append(args, reportType)
	}
	query := fmt.Sprintf(`SELECT id, lecturer_id, report_type, student_name, title, content, created_at, updated_at
        FROM reports WHERE %s ORDER BY created_at DESC`, strings.Join(conditions, " AND "))

	var reports []models.Report
	err := readWithRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &reports, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// FindByID fetches one report scoped to its owning lecturer.
func (r *ReportRepository) FindByID(ctx context.Context, id, lecturerID string) (*models.Report, error) {
	const query = `SELECT id, lecturer_id, report_type, student_name, title, content, created_at, updated_at
        FROM reports WHERE id = $1 AND lecturer_id = $2`
	var report models.Report
	err := readWithRetry(ctx, func() error {
		return r.db.GetContext(ctx, &report, query, id, lecturerID)
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// Create inserts a report row.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now
	const query = `INSERT INTO reports (id, lecturer_id, report_type, student_name, title, content, created_at, updated_at)
        VALUES (:id, :lecturer_id, :report_type, :student_name, :title, :content, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// Update modifies a report, keyed by id and owning lecturer.
func (r *ReportRepository) Update(ctx context.Context, report *models.Report) (int64, error) {
	report.UpdatedAt = time.Now().UTC()
	const query = `UPDATE reports SET report_type = :report_type, student_name = :student_name, title = :title, content = :content, updated_at = :updated_at
        WHERE id = :id AND lecturer_id = :lecturer_id`
	res, err := r.db.NamedExecContext(ctx, query, report)
	if err != nil {
		return 0, fmt.Errorf("update report: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update report rows: %w", err)
	}
	return affected, nil
}

// Delete removes a report, keyed by id and owning lecturer.
func (r *ReportRepository) Delete(ctx context.Context, id, lecturerID string) (int64, error) {
	const query = `DELETE FROM reports WHERE id = $1 AND lecturer_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, lecturerID)
	if err != nil {
		return 0, fmt.Errorf("delete report: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete report rows: %w", err)
	}
	return affected, nil
}
