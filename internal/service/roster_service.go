package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/campus-api/internal/authz"
	"github.com/campushub/campus-api/internal/models"
	appErrors "github.com/campushub/campus-api/pkg/errors"
)

type rosterRepository interface {
	ListByLecturer(ctx context.Context, lecturerID string) ([]models.RosterStudent, error)
	ExistsByStudentID(ctx context.Context, lecturerID, studentID, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.RosterStudent) error
	Update(ctx context.Context, student *models.RosterStudent) (int64, error)
	Delete(ctx context.Context, id, lecturerID string) (int64, error)
}

// CreateRosterStudentRequest adds a student to the roster.
type CreateRosterStudentRequest struct {
	StudentName string `json:"student_name" validate:"required"`
	StudentID   string `json:"student_id" validate:"required"`
	ClassID     string `json:"class_id" validate:"required"`
}

// UpdateRosterStudentRequest describes roster entry modifications.
type UpdateRosterStudentRequest struct {
	StudentName string `json:"student_name" validate:"required"`
	StudentID   string `json:"student_id" validate:"required"`
	ClassID     string `json:"class_id" validate:"required"`
}

// RosterService handles lecturer class rosters. The matriculation number is
// unique within one lecturer's roster.
type RosterService struct {
	repo      rosterRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRosterService constructs the service.
func NewRosterService(repo rosterRepository, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{repo: repo, validator: validate, logger: logger}
}

// List returns the calling lecturer's roster.
func (s *RosterService) List(ctx context.Context, caller authz.Caller) ([]models.RosterStudent, error) {
	students, err := s.repo.ListByLecturer(ctx, caller.ID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return students, nil
}

// Create adds a student to the roster.
func (s *RosterService) Create(ctx context.Context, caller authz.Caller, req CreateRosterStudentRequest) (*models.RosterStudent, error) {
	if caller.Role != models.RoleLecturer {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only lecturers can manage rosters")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	exists, err := s.repo.ExistsByStudentID(ctx, caller.ID, req.StudentID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student id already on roster")
	}
	student := &models.RosterStudent{
		LecturerID:  caller.ID,
		StudentName: req.StudentName,
		StudentID:   req.StudentID,
		ClassID:     req.ClassID,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create roster student")
	}
	return student, nil
}

// Update modifies a roster entry.
func (s *RosterService) Update(ctx context.Context, caller authz.Caller, id string, req UpdateRosterStudentRequest) (*models.RosterStudent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	exists, err := s.repo.ExistsByStudentID(ctx, caller.ID, req.StudentID, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student id already on roster")
	}
	student := &models.RosterStudent{
		ID:          id,
		LecturerID:  caller.ID,
		StudentName: req.StudentName,
		StudentID:   req.StudentID,
		ClassID:     req.ClassID,
	}
	affected, err := s.repo.Update(ctx, student)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update roster student")
	}
	if affected == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "roster student not found")
	}
	return student, nil
}

// Delete removes a roster entry.
func (s *RosterService) Delete(ctx context.Context, caller authz.Caller, id string) error {
	affected, err := s.repo.Delete(ctx, id, caller.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete roster student")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "roster student not found")
	}
	return nil
}
