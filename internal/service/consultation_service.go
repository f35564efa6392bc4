package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/campus-api/internal/authz"
	"github.com/campushub/campus-api/internal/models"
	appErrors "github.com/campushub/campus-api/pkg/errors"
)

type consultationRepository interface {
	ListByLecturer(ctx context.Context, lecturerID string) ([]models.Consultation, error)
	FindByID(ctx context.Context, id, lecturerID string) (*models.Consultation, error)
	Create(ctx context.Context, consultation *models.Consultation) error
	UpdateStatus(ctx context.Context, id, lecturerID string, status models.ConsultationStatus) (int64, error)
	Delete(ctx context.Context, id, lecturerID string) (int64, error)
}

// CreateConsultationRequest describes a tracked consultation request.
type CreateConsultationRequest struct {
	StudentName string `json:"student_name" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Reason      string `json:"reason" validate:"required"`
}

// ConsultationService handles lecturer consultation tracking.
type ConsultationService struct {
	repo      consultationRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewConsultationService constructs the service.
func NewConsultationService(repo consultationRepository, validate *validator.Validate, logger *zap.Logger) *ConsultationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsultationService{repo: repo, validator: validate, logger: logger}
}

// List returns the calling lecturer's consultations.
func (s *ConsultationService) List(ctx context.Context, caller authz.Caller) ([]models.Consultation, error) {
	consultations, err := s.repo.ListByLecturer(ctx, caller.ID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return consultations, nil
}

// Get returns one of the lecturer's consultations.
func (s *ConsultationService) Get(ctx context.Context, caller authz.Caller, id string) (*models.Consultation, error) {
	consultation, err := s.repo.FindByID(ctx, id, caller.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "consultation not found")
		}
		return nil, appErrors.FromError(err)
	}
	return consultation, nil
}

// Create records a consultation request for the calling lecturer.
func (s *ConsultationService) Create(ctx context.Context, caller authz.Caller, req CreateConsultationRequest) (*models.Consultation, error) {
	if caller.Role != models.RoleLecturer {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only lecturers can track consultations")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	consultation := &models.Consultation{
		LecturerID:  caller.ID,
		StudentName: req.StudentName,
		Date:        req.Date,
		Reason:      req.Reason,
		Status:      models.ConsultationPending,
	}
	if err := s.repo.Create(ctx, consultation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create consultation")
	}
	return consultation, nil
}

// UpdateStatus approves or declines a consultation.
func (s *ConsultationService) UpdateStatus(ctx context.Context, caller authz.Caller, id, status string) (*models.Consultation, error) {
	next := models.ConsultationStatus(strings.ToUpper(status))
	switch next {
	case models.ConsultationPending, models.ConsultationApproved, models.ConsultationDeclined:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown consultation status")
	}
	affected, err := s.repo.UpdateStatus(ctx, id, caller.ID, next)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update consultation")
	}
	if affected == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "consultation not found")
	}
	return s.Get(ctx, caller, id)
}

// Delete removes one of the lecturer's consultations.
func (s *ConsultationService) Delete(ctx context.Context, caller authz.Caller, id string) error {
	affected, err := s.repo.Delete(ctx, id, caller.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete consultation")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "consultation not found")
	}
	return nil
}
