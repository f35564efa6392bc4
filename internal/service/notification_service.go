package service

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/campus-api/internal/authz"
	"github.com/campushub/campus-api/internal/feed"
	"github.com/campushub/campus-api/internal/models"
	appErrors "github.com/campushub/campus-api/pkg/errors"
)

type notificationRepository interface {
	ListRecent(ctx context.Context, ownerID string, limit int) ([]models.Notification, error)
	Create(ctx context.Context, notification *models.Notification) error
	MarkRead(ctx context.Context, id, ownerID string) (int64, error)
	MarkAllRead(ctx context.Context, ownerID string) (int64, error)
	UnreadCount(ctx context.Context, ownerID string) (int, error)
}

// PushDispatcher fans a notification out to the owner's registered push
// channels. Delivery is best effort and asynchronous.
type PushDispatcher interface {
	Dispatch(ownerID, title, message string)
}

// CreateNotificationRequest is the producer-side payload. Metadata is opaque
// and stored byte-for-byte.
type CreateNotificationRequest struct {
	OwnerID  string          `json:"owner_id" validate:"required"`
	Title    string          `json:"title" validate:"required"`
	Message  string          `json:"message" validate:"required"`
	Type     string          `json:"type"`
	Metadata json.RawMessage `json:"metadata"`
}

// NotificationService is the notification aggregator: append-only inserts
// fanned out over the change feed and push channels, plus the owner-scoped
// read and mark-read surface. MarkRead is idempotent; marking an already
// read notification succeeds without effect.
type NotificationService struct {
	repo      notificationRepository
	publisher feed.Publisher
	push      PushDispatcher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNotificationService constructs the service. publisher and push may be
// nil to disable the respective side effects.
func NewNotificationService(repo notificationRepository, publisher feed.Publisher, push PushDispatcher, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, publisher: publisher, push: push, validator: validate, logger: logger}
}

// Create appends a notification, publishes it to the owner's live feed, and
// dispatches push delivery.
func (s *NotificationService) Create(ctx context.Context, req CreateNotificationRequest) (*models.Notification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	notification := &models.Notification{
		OwnerID:  req.OwnerID,
		Title:    req.Title,
		Message:  req.Message,
		Type:     req.Type,
		Metadata: req.Metadata,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}

	if s.publisher != nil {
		if ev, err := feed.NewEvent(authz.CollectionNotifications, *notification); err != nil {
			s.logger.Warn("failed to build notification feed event", zap.Error(err))
		} else {
			s.publisher.Publish(ev)
		}
	}
	if s.push != nil {
		s.push.Dispatch(req.OwnerID, req.Title, req.Message)
	}
	return notification, nil
}

// ListRecent returns the caller's newest notifications.
func (s *NotificationService) ListRecent(ctx context.Context, caller authz.Caller, limit int) ([]models.Notification, error) {
	notifications, err := s.repo.ListRecent(ctx, caller.ID, limit)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return notifications, nil
}

// MarkRead marks one notification as read. Repeating the call is a no-op
// success; a notification owned by someone else surfaces as not found.
func (s *NotificationService) MarkRead(ctx context.Context, caller authz.Caller, id string) error {
	affected, err := s.repo.MarkRead(ctx, id, caller.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}
	return nil
}

// MarkAllRead marks every unread notification of the caller and returns the
// number flipped.
func (s *NotificationService) MarkAllRead(ctx context.Context, caller authz.Caller) (int64, error) {
	affected, err := s.repo.MarkAllRead(ctx, caller.ID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return affected, nil
}

// UnreadCount returns the caller's unread total. The count is a live SQL
// COUNT on every call; a read immediately after MarkAllRead sees zero.
func (s *NotificationService) UnreadCount(ctx context.Context, caller authz.Caller) (int, error) {
	count, err := s.repo.UnreadCount(ctx, caller.ID)
	if err != nil {
		return 0, appErrors.FromError(err)
	}
	return count, nil
}
