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

type updateRepository interface {
	ListByLecturer(ctx context.Context, lecturerID string) ([]models.Update, error)
	ListVisibleToClass(ctx context.Context, classID string) ([]models.Update, error)
	FindByID(ctx context.Context, id string) (*models.Update, error)
	Create(ctx context.Context, update *models.Update) error
	Update(ctx context.Context, update *models.Update) (int64, error)
	Delete(ctx context.Context, id, lecturerID string) (int64, error)
}

// CreateUpdateRequest describes a new announcement. An empty or "all"
// target broadcasts to every class.
type CreateUpdateRequest struct {
	Title         string  `json:"title" validate:"required"`
	Content       string  `json:"content" validate:"required"`
	TargetClassID *string `json:"target_class_id"`
}

// UpdateUpdateRequest describes announcement modifications.
type UpdateUpdateRequest struct {
	Title         string  `json:"title" validate:"required"`
	Content       string  `json:"content" validate:"required"`
	TargetClassID *string `json:"target_class_id"`
}

// UpdateService handles lecturer announcements: lecturer-owned writes,
// class- or broadcast-scoped reads, and live fan-out on publish.
type UpdateService struct {
	repo      updateRepository
	publisher feed.Publisher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUpdateService constructs the service.
func NewUpdateService(repo updateRepository, publisher feed.Publisher, validate *validator.Validate, logger *zap.Logger) *UpdateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UpdateService{repo: repo, publisher: publisher, validator: validate, logger: logger}
}

// ListVisible returns the announcements the caller may read: their own when
// a lecturer, plus broadcast and class-targeted ones.
func (s *UpdateService) ListVisible(ctx context.Context, caller authz.Caller) ([]models.Update, error) {
	if caller.Role == models.RoleLecturer {
		rows, err := s.repo.ListByLecturer(ctx, caller.ID)
		if err != nil {
			return nil, appErrors.FromError(err)
		}
		return rows, nil
	}
	rows, err := s.repo.ListVisibleToClass(ctx, caller.ClassID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	// The SQL filter matches the policy; re-check each row so a drifted
	// query can only narrow results, never widen them.
	visible := rows[:0]
	for _, row := range rows {
		if authz.CanRead(authz.CollectionUpdates, caller, row) {
			visible = append(visible, row)
		}
	}
	return visible, nil
}

// Get returns one announcement if the caller may read it.
func (s *UpdateService) Get(ctx context.Context, caller authz.Caller, id string) (*models.Update, error) {
	update, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "update not found")
		}
		return nil, appErrors.FromError(err)
	}
	if !authz.CanRead(authz.CollectionUpdates, caller, update) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "update not found")
	}
	return update, nil
}

// Create publishes an announcement owned by the calling lecturer.
func (s *UpdateService) Create(ctx context.Context, caller authz.Caller, req CreateUpdateRequest) (*models.Update, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	update := &models.Update{
		LecturerID:    caller.ID,
		Title:         req.Title,
		Content:       req.Content,
		TargetClassID: req.TargetClassID,
	}
	if !authz.Authorize(authz.OpCreate, authz.CollectionUpdates, caller, update) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only lecturers can publish updates")
	}
	if err := s.repo.Create(ctx, update); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create update")
	}
	s.publishEvent(*update)
	return update, nil
}

// Update modifies one of the lecturer's announcements.
func (s *UpdateService) Update(ctx context.Context, caller authz.Caller, id string, req UpdateUpdateRequest) (*models.Update, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "update not found")
		}
		return nil, appErrors.FromError(err)
	}
	if !authz.Authorize(authz.OpUpdate, authz.CollectionUpdates, caller, existing) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "update not found")
	}
	existing.Title = req.Title
	existing.Content = req.Content
	existing.TargetClassID = req.TargetClassID

	affected, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update announcement")
	}
	if affected == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "update not found")
	}
	return existing, nil
}

// Delete removes one of the lecturer's announcements.
func (s *UpdateService) Delete(ctx context.Context, caller authz.Caller, id string) error {
	affected, err := s.repo.Delete(ctx, id, caller.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete update")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "update not found")
	}
	return nil
}

func (s *UpdateService) publishEvent(update models.Update) {
	if s.publisher == nil {
		return
	}
	ev, err := feed.NewEvent(authz.CollectionUpdates, update)
	if err != nil {
		s.logger.Warn("failed to build update feed event", zap.Error(err))
		return
	}
	s.publisher.Publish(ev)
}
