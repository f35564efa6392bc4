package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushub/campus-api/internal/authz"
	"github.com/campushub/campus-api/internal/models"
	appErrors "github.com/campushub/campus-api/pkg/errors"
	"github.com/campushub/campus-api/pkg/jobs"
)

type pushSubscriptionRepository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.PushSubscription, error)
	Upsert(ctx context.Context, sub *models.PushSubscription) error
	Delete(ctx context.Context, ownerID, endpoint string) (int64, error)
}

// DeliveryClient sends one push message to one registered channel. The
// concrete transport lives outside this service.
type DeliveryClient interface {
	Send(ctx context.Context, sub models.PushSubscription, title, message string) error
}

// LogDeliveryClient is the default delivery client: it records the would-be
// delivery and succeeds. Used when no push provider is configured.
type LogDeliveryClient struct {
	Logger *zap.Logger
}

// Send logs the delivery.
func (c LogDeliveryClient) Send(_ context.Context, sub models.PushSubscription, title, _ string) error {
	if c.Logger != nil {
		c.Logger.Debug("push delivery",
			zap.String("owner_id", sub.OwnerID),
			zap.String("endpoint", sub.Endpoint),
			zap.String("title", title),
		)
	}
	return nil
}

// SubscribePushRequest registers a delivery channel.
type SubscribePushRequest struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	P256DH   string `json:"p256dh" validate:"required"`
	Auth     string `json:"auth" validate:"required"`
}

type pushJobPayload struct {
	OwnerID string
	Title   string
	Message string
}

// PushService manages push subscriptions and fans notification deliveries
// out through a background worker queue.
type PushService struct {
	repo      pushSubscriptionRepository
	client    DeliveryClient
	queue     *jobs.Queue
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPushService constructs the service and its dispatch queue. Call Start
// before dispatching and Stop on shutdown.
func NewPushService(repo pushSubscriptionRepository, client DeliveryClient, validate *validator.Validate, logger *zap.Logger, cfg jobs.QueueConfig) *PushService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		client = LogDeliveryClient{Logger: logger}
	}
	svc := &PushService{repo: repo, client: client, validator: validate, logger: logger}
	cfg.Logger = logger
	svc.queue = jobs.NewQueue("push-dispatch", svc.handleDispatch, cfg)
	return svc
}

// Start launches the dispatch workers.
func (s *PushService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the dispatch workers.
func (s *PushService) Stop() {
	s.queue.Stop()
}

// Subscribe registers (or refreshes) a delivery channel for the caller.
func (s *PushService) Subscribe(ctx context.Context, caller authz.Caller, req SubscribePushRequest) (*models.PushSubscription, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	sub := &models.PushSubscription{
		OwnerID:  caller.ID,
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}
	if err := s.repo.Upsert(ctx, sub); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store subscription")
	}
	return sub, nil
}

// Unsubscribe removes the caller's channel for an endpoint.
func (s *PushService) Unsubscribe(ctx context.Context, caller authz.Caller, endpoint string) error {
	if endpoint == "" {
		return appErrors.Clone(appErrors.ErrValidation, "endpoint is required")
	}
	affected, err := s.repo.Delete(ctx, caller.ID, endpoint)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subscription")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "subscription not found")
	}
	return nil
}

// List returns the caller's registered channels.
func (s *PushService) List(ctx context.Context, caller authz.Caller) ([]models.PushSubscription, error) {
	subs, err := s.repo.ListByOwner(ctx, caller.ID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return subs, nil
}

// Dispatch enqueues a delivery fan-out for every channel the owner has
// registered. Failures are retried by the queue and never surface to the
// producer.
func (s *PushService) Dispatch(ownerID, title, message string) {
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    "push.notification",
		Payload: pushJobPayload{OwnerID: ownerID, Title: title, Message: message},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue push dispatch", zap.Error(err), zap.String("owner_id", ownerID))
	}
}

func (s *PushService) handleDispatch(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(pushJobPayload)
	if !ok {
		s.logger.Error("unexpected push job payload", zap.String("job_id", job.ID))
		return nil
	}
	subs, err := s.repo.ListByOwner(ctx, payload.OwnerID)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		if err := s.client.Send(ctx, sub, payload.Title, payload.Message); err != nil {
			s.logger.Warn("push delivery failed",
				zap.Error(err),
				zap.String("owner_id", sub.OwnerID),
				zap.String("endpoint", sub.Endpoint),
			)
		}
	}
	return nil
}
