package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/campus-api/internal/models"
)

// AppointmentRepository manages persistence for appointments, always scoped
// to the owning user.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs an AppointmentRepository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// ListByOwner returns the owner's appointments in insertion order.
func (r *AppointmentRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Appointment, error) {
	const query = `SELECT id, owner_id, service_type, date, time, status, with_person, created_at, updated_at
        FROM appointments WHERE owner_id = $1 ORDER BY created_at ASC`
	var appointments []models.Appointment
	err := readWithRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &appointments, query, ownerID)
	})
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appointments, nil
}

// FindByID fetches one appointment scoped to its owner.
func (r *AppointmentRepository) FindByID(ctx context.Context, id, ownerID string) (*models.Appointment, error) {
	const query = `SELECT id, owner_id, service_type, date, time, status, with_person, created_at, updated_at
        FROM appointments WHERE id = $1 AND owner_id = $2`
	var appointment models.Appointment
	err := readWithRetry(ctx, func() error {
		return r.db.GetContext(ctx, &appointment, query, id, ownerID)
	})
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

// Create inserts an appointment row.
func (r *AppointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	if appointment.ID == "" {
		appointment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = now
	}
	appointment.UpdatedAt = now
	const query = `INSERT INTO appointments (id, owner_id, service_type, date, time, status, with_person, created_at, updated_at)
        VALUES (:id, :owner_id, :service_type, :date, :time, :status, :with_person, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, appointment); err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

// UpdateStatus moves an appointment through its lifecycle, keyed by owner.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id, ownerID string, status models.AppointmentStatus) (int64, error) {
	const query = `UPDATE appointments SET status = $3, updated_at = $4 WHERE id = $1 AND owner_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, ownerID, status, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("update appointment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update appointment status rows: %w", err)
	}
	return affected, nil
}

// Delete removes an appointment, keyed by id and owner.
func (r *AppointmentRepository) Delete(ctx context.Context, id, ownerID string) (int64, error) {
	const query = `DELETE FROM appointments WHERE id = $1 AND owner_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete appointment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete appointment rows: %w", err)
	}
	return affected, nil
}
