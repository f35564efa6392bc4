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

type feedbackRepository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Feedback, error)
	ListAll(ctx context.Context) ([]models.Feedback, error)
	FindByID(ctx context.Context, id, ownerID string) (*models.Feedback, error)
	Create(ctx context.Context, entry *models.Feedback) error
	Respond(ctx context.Context, id string, status models.FeedbackStatus, response string) (int64, error)
	Delete(ctx context.Context, id, ownerID string) (int64, error)
}

// CreateFeedbackRequest describes a new feedback entry.
type CreateFeedbackRequest struct {
	Type        string `json:"type" validate:"required"`
	Subject     string `json:"subject" validate:"required"`
	Description string `json:"description" validate:"required"`
	Priority    string `json:"priority"`
	Rating      *int   `json:"rating" validate:"omitempty,min=1,max=5"`
}

// RespondFeedbackRequest is the administrator response payload.
type RespondFeedbackRequest struct {
	Status   string `json:"status" validate:"required"`
	Response string `json:"response" validate:"required"`
}

// FeedbackService handles feedback submission and the administrator
// response workflow. Entries are owner-scoped; only the status and response
// fields are writable by an administrator.
type FeedbackService struct {
	repo      feedbackRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeedbackService constructs the service.
func NewFeedbackService(repo feedbackRepository, validate *validator.Validate, logger *zap.Logger) *FeedbackService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackService{repo: repo, validator: validate, logger: logger}
}

// List returns the caller's feedback, or everything for administrators.
func (s *FeedbackService) List(ctx context.Context, caller authz.Caller) ([]models.Feedback, error) {
	if caller.Role == models.RoleAdmin {
		entries, err := s.repo.ListAll(ctx)
		if err != nil {
			return nil, appErrors.FromError(err)
		}
		return entries, nil
	}
	entries, err := s.repo.ListByOwner(ctx, caller.ID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return entries, nil
}

// Get returns one of the caller's feedback entries.
func (s *FeedbackService) Get(ctx context.Context, caller authz.Caller, id string) (*models.Feedback, error) {
	entry, err := s.repo.FindByID(ctx, id, caller.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
		}
		return nil, appErrors.FromError(err)
	}
	return entry, nil
}

// Create submits feedback owned by the caller.
func (s *FeedbackService) Create(ctx context.Context, caller authz.Caller, req CreateFeedbackRequest) (*models.Feedback, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	priority := models.FeedbackPriority(strings.ToUpper(req.Priority))
	switch priority {
	case models.FeedbackPriorityLow, models.FeedbackPriorityMedium, models.FeedbackPriorityHigh:
	case "":
		priority = models.FeedbackPriorityMedium
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown priority")
	}
	entry := &models.Feedback{
		OwnerID:     caller.ID,
		Type:        req.Type,
		Subject:     req.Subject,
		Description: req.Description,
		Priority:    priority,
		Rating:      req.Rating,
		Status:      models.FeedbackUnderReview,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create feedback")
	}
	return entry, nil
}

// Respond records the administrator response and status transition.
func (s *FeedbackService) Respond(ctx context.Context, caller authz.Caller, id string, req RespondFeedbackRequest) error {
	if caller.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only administrators can respond to feedback")
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	status := models.FeedbackStatus(strings.ToUpper(req.Status))
	switch status {
	case models.FeedbackUnderReview, models.FeedbackInProgress, models.FeedbackResolved, models.FeedbackClosed:
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown feedback status")
	}
	affected, err := s.repo.Respond(ctx, id, status, req.Response)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to respond to feedback")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
	}
	return nil
}

// Delete removes one of the caller's feedback entries.
func (s *FeedbackService) Delete(ctx context.Context, caller authz.Caller, id string) error {
	affected, err := s.repo.Delete(ctx, id, caller.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete feedback")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
	}
	return nil
}
