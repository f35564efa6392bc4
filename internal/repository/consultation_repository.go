package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/campus-api/internal/models"
)

// ConsultationRepository manages lecturer consultation requests.
type ConsultationRepository struct {
	db *sqlx.DB
}

// NewConsultationRepository constructs a ConsultationRepository.
func NewConsultationRepository(db *sqlx.DB) *ConsultationRepository {
	return &ConsultationRepository{db: db}
}

// ListByLecturer returns a lecturer's consultations, newest first.
func (r *ConsultationRepository) ListByLecturer(ctx context.Context, lecturerID string) ([]models.Consultation, error) {
	const query = `SELECT id, lecturer_id, student_name, date, reason, status, created_at, updated_at
        FROM consultations WHERE lecturer_id = $1 ORDER BY created_at DESC`
	var consultations []models.Consultation
	err := readWithRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &consultations, query, lecturerID)
	})
	if err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}
	return consultations, nil
}

// FindByID fetches one consultation scoped to its owning lecturer.
func (r *ConsultationRepository) FindByID(ctx context.Context, id, lecturerID string) (*models.Consultation, error) {
	const query = `SELECT id, lecturer_id, student_name, date, reason, status, created_at, updated_at
        FROM consultations WHERE id = $1 AND lecturer_id = $2`
	var consultation models.Consultation
	err := readWithRetry(ctx, func() error {
		return r.db.GetContext(ctx, &consultation, query, id, lecturerID)
	})
	if err != nil {
		return nil, err
	}
	return &consultation, nil
}

// Create inserts a consultation row.
func (r *ConsultationRepository) Create(ctx context.Context, consultation *models.Consultation) error {
	if consultation.ID == "" {
		consultation.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if consultation.CreatedAt.IsZero() {
		consultation.CreatedAt = now
	}
	consultation.UpdatedAt = now
	const query = `INSERT INTO consultations (id, lecturer_id, student_name, date, reason, status, created_at, updated_at)
        VALUES (:id, :lecturer_id, :student_name, :date, :reason, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, consultation); err != nil {
		return fmt.Errorf("create consultation: %w", err)
	}
	return nil
}

// UpdateStatus moves a consultation through its lifecycle, keyed by owner.
func (r *ConsultationRepository) UpdateStatus(ctx context.Context, id, lecturerID string, status models.ConsultationStatus) (int64, error) {
	const query = `UPDATE consultations SET status = $3, updated_at = $4 WHERE id = $1 AND lecturer_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, lecturerID, status, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("update consultation status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update consultation status rows: %w", err)
	}
	return affected, nil
}

// Delete removes a consultation, keyed by id and owning lecturer.
func (r *ConsultationRepository) Delete(ctx context.Context, id, lecturerID string) (int64, error) {
	const query = `DELETE FROM consultations WHERE id = $1 AND lecturer_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, lecturerID)
	if err != nil {
		return 0, fmt.Errorf("delete consultation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete consultation rows: %w", err)
	}
	return affected, nil
}
