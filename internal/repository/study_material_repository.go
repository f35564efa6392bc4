package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/campus-api/internal/models"
)

// StudyMaterialRepository manages lecturer course materials, readable
// class-wide.
type StudyMaterialRepository struct {
	db *sqlx.DB
}

// NewStudyMaterialRepository constructs a StudyMaterialRepository.
func NewStudyMaterialRepository(db *sqlx.DB) *StudyMaterialRepository {
	return &StudyMaterialRepository{db: db}
}

// ListByLecturer returns every material owned by a lecturer.
func (r *StudyMaterialRepository) ListByLecturer(ctx context.Context, lecturerID string) ([]models.StudyMaterial, error) {
	const query = `SELECT id, lecturer_id, title, file_url, class_id, subject, created_at, updated_at
        FROM study_materials WHERE lecturer_id = $1 ORDER BY created_at ASC`
	var materials []models.StudyMaterial
	err := readWithRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &materials, query, lecturerID)
	})
	if err != nil {
		return nil, fmt.Errorf("list study materials: %w", err)
	}
	return materials, nil
}

// ListByClass returns a class's materials for student reads.
func (r *StudyMaterialRepository) ListByClass(ctx context.Context, classID string) ([]models.StudyMaterial, error) {
	const query = `SELECT id, lecturer_id, title, file_url, class_id, subject, created_at, updated_at
        FROM study_materials WHERE class_id = $1 ORDER BY created_at ASC`
	var materials []models.StudyMaterial
	err := readWithRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &materials, query, classID)
	})
	if err != nil {
		return nil, fmt.Errorf("list study materials by class: %w", err)
	}
	return materials, nil
}

// FindByID fetches one material; visibility is decided by the policy
// evaluator since materials are class-readable.
func (r *StudyMaterialRepository) FindByID(ctx context.Context, id string) (*models.StudyMaterial, error) {
	const query = `SELECT id, lecturer_id, title, file_url, class_id, subject, created_at, updated_at
        FROM study_materials WHERE id = $1`
	var material models.StudyMaterial
	err := readWithRetry(ctx, func() error {
		return r.db.GetContext(ctx, &material, query, id)
	})
	if err != nil {
		return nil, err
	}
	return &material, nil
}

// Create inserts a material row.
func (r *StudyMaterialRepository) Create(ctx context.Context, material *models.StudyMaterial) error {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if material.CreatedAt.IsZero() {
		material.CreatedAt = now
	}
	material.UpdatedAt = now
	const query = `INSERT INTO study_materials (id, lecturer_id, title, file_url, class_id, subject, created_at, updated_at)
        VALUES (:id, :lecturer_id, :title, :file_url, :class_id, :subject, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("create study material: %w", err)
	}
	return nil
}

// Update modifies a material, keyed by id and owning lecturer.
func (r *StudyMaterialRepository) Update(ctx context.Context, material *models.StudyMaterial) (int64, error) {
	material.UpdatedAt = time.Now().UTC()
	const query = `UPDATE study_materials SET title = :title, file_url = :file_url, class_id = :class_id, subject = :subject, updated_at = :updated_at
        WHERE id = :id AND lecturer_id = :lecturer_id`
	res, err := r.db.NamedExecContext(ctx, query, material)
	if err != nil {
		return 0, fmt.Errorf("update study material: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update study material rows: %w", err)
	}
	return affected, nil
}

// Delete removes a material, keyed by id and owning lecturer.
func (r *StudyMaterialRepository) Delete(ctx context.Context, id, lecturerID string) (int64, error) {
	const query = `DELETE FROM study_materials WHERE id = $1 AND lecturer_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, lecturerID)
	if err != nil {
		return 0, fmt.Errorf("delete study material: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete study material rows: %w", err)
	}
	return affected, nil
}
