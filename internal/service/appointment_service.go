package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/campus-api/internal/authz"
	"github.com/campushub/campus-api/internal/feed"
	"github.com/campushub/campus-api/internal/models"
	appErrors "github.com/campushub/campus-api/pkg/errors"
)

type appointmentRepository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Appointment, error)
	FindByID(ctx context.Context, id, ownerID string) (*models.Appointment, error)
	Create(ctx context.Context, appointment *models.Appointment) error
	UpdateStatus(ctx context.Context, id, ownerID string, status models.AppointmentStatus) (int64, error)
	Delete(ctx context.Context, id, ownerID string) (int64, error)
}

// CreateAppointmentRequest describes a new booking.
type CreateAppointmentRequest struct {
	ServiceType string `json:"service_type" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Time        string `json:"time" validate:"required"`
	WithPerson  string `json:"with_person"`
}

// AppointmentService handles owner-scoped appointment bookings.
type AppointmentService struct {
	repo      appointmentRepository
	publisher feed.Publisher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAppointmentService constructs the service.
func NewAppointmentService(repo appointmentRepository, publisher feed.Publisher, validate *validator.Validate, logger *zap.Logger) *AppointmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppointmentService{repo: repo, publisher: publisher, validator: validate, logger: logger}
}

// List returns the caller's appointments.
func (s *AppointmentService) List(ctx context.Context, caller authz.Caller) ([]models.Appointment, error) {
	appointments, err := s.repo.ListByOwner(ctx, caller.ID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return appointments, nil
}

// Get returns one of the caller's appointments.
func (s *AppointmentService) Get(ctx context.Context, caller authz.Caller, id string) (*models.Appointment, error) {
	appointment, err := s.repo.FindByID(ctx, id, caller.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, appErrors.FromError(err)
	}
	return appointment, nil
}

// Create books an appointment for the caller, starting as PENDING.
func (s *AppointmentService) Create(ctx context.Context, caller authz.Caller, req CreateAppointmentRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	appointment := &models.Appointment{
		OwnerID:     caller.ID,
		ServiceType: req.ServiceType,
		Date:        req.Date,
		Time:        req.Time,
		Status:      models.AppointmentPending,
		WithPerson:  req.WithPerson,
	}
	if err := s.repo.Create(ctx, appointment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create appointment")
	}
	if s.publisher != nil {
		if ev, err := feed.NewEvent(authz.CollectionAppointments, *appointment); err == nil {
			s.publisher.Publish(ev)
		} else {
			s.logger.Warn("failed to build appointment feed event", zap.Error(err))
		}
	}
	return appointment, nil
}

// UpdateStatus moves one of the caller's appointments through its lifecycle.
func (s *AppointmentService) UpdateStatus(ctx context.Context, caller authz.Caller, id, status string) (*models.Appointment, error) {
	next := models.AppointmentStatus(strings.ToUpper(status))
	switch next {
	case models.AppointmentPending, models.AppointmentApproved, models.AppointmentDeclined, models.AppointmentCancelled, models.AppointmentCompleted:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown appointment status")
	}
	affected, err := s.repo.UpdateStatus(ctx, id, caller.ID, next)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update appointment")
	}
	if affected == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
	}
	return s.Get(ctx, caller, id)
}

// Delete removes one of the caller's appointments.
func (s *AppointmentService) Delete(ctx context.Context, caller authz.Caller, id string) error {
	affected, err := s.repo.Delete(ctx, id, caller.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete appointment")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
	}
	return nil
}
