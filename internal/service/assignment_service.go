package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/campus-api/internal/authz"
	"github.com/campushub/campus-api/internal/feed"
	"github.com/campushub/campus-api/internal/models"
	appErrors "github.com/campushub/campus-api/pkg/errors"
)

type assignmentRepository interface {
	ListByLecturer(ctx context.Context, lecturerID string) ([]models.Assignment, error)
	ListByClass(ctx context.Context, classID string) ([]models.Assignment, error)
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) (int64, error)
	Delete(ctx context.Context, id, lecturerID string) (int64, error)
}

// CreateAssignmentRequest describes a new assignment.
type CreateAssignmentRequest struct {
	Title          string `json:"title" validate:"required"`
	ClassID        string `json:"class_id" validate:"required"`
	SubmissionDate string `json:"submission_date" validate:"required"`
	PortalOpen     bool   `json:"portal_open"`
}

// UpdateAssignmentRequest describes assignment modifications.
type UpdateAssignmentRequest struct {
	Title          string `json:"title" validate:"required"`
	ClassID        string `json:"class_id" validate:"required"`
	SubmissionDate string `json:"submission_date" validate:"required"`
	PortalOpen     bool   `json:"portal_open"`
}

// AssignmentService handles lecturer assignments, readable by the targeted
// class.
type AssignmentService struct {
	repo      assignmentRepository
	publisher feed.Publisher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs the service.
func NewAssignmentService(repo assignmentRepository, publisher feed.Publisher, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, publisher: publisher, validator: validate, logger: logger}
}

// ListVisible returns the assignments the caller may read.
func (s *AssignmentService) ListVisible(ctx context.Context, caller authz.Caller) ([]models.Assignment, error) {
	if caller.Role == models.RoleLecturer {
		rows, err := s.repo.ListByLecturer(ctx, caller.ID)
		if err != nil {
			return nil, appErrors.FromError(err)
		}
		return rows, nil
	}
	if caller.ClassID == "" {
		return []models.Assignment{}, nil
	}
	rows, err := s.repo.ListByClass(ctx, caller.ClassID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return rows, nil
}

// Get returns one assignment if the caller may read it.
func (s *AssignmentService) Get(ctx context.Context, caller authz.Caller, id string) (*models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.FromError(err)
	}
	if !authz.CanRead(authz.CollectionAssignments, caller, assignment) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	return assignment, nil
}

// Create inserts an assignment owned by the calling lecturer.
func (s *AssignmentService) Create(ctx context.Context, caller authz.Caller, req CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	assignment := &models.Assignment{
		LecturerID:     caller.ID,
		Title:          req.Title,
		ClassID:        req.ClassID,
		SubmissionDate: req.SubmissionDate,
		PortalOpen:     req.PortalOpen,
	}
	if !authz.Authorize(authz.OpCreate, authz.CollectionAssignments, caller, assignment) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only lecturers can manage assignments")
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	s.publishEvent(*assignment)
	return assignment, nil
}

// Update modifies one of the lecturer's assignments.
func (s *AssignmentService) Update(ctx context.Context, caller authz.Caller, id string, req UpdateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.FromError(err)
	}
	if !authz.Authorize(authz.OpUpdate, authz.CollectionAssignments, caller, existing) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	existing.Title = req.Title
	existing.ClassID = req.ClassID
	existing.SubmissionDate = req.SubmissionDate
	existing.PortalOpen = req.PortalOpen

	affected, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	if affected == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	return existing, nil
}

// Delete removes one of the lecturer's assignments.
func (s *AssignmentService) Delete(ctx context.Context, caller authz.Caller, id string) error {
	affected, err := s.repo.Delete(ctx, id, caller.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	return nil
}

func (s *AssignmentService) publishEvent(assignment models.Assignment) {
	if s.publisher == nil {
		return
	}
	ev, err := feed.NewEvent(authz.CollectionAssignments, assignment)
	if err != nil {
		s.logger.Warn("failed to build assignment feed event", zap.Error(err))
		return
	}
	s.publisher.Publish(ev)
}
