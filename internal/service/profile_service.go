package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/campus-api/internal/models"
	appErrors "github.com/campushub/campus-api/pkg/errors"
)

type profileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) (int64, error)
}

// UpdateProfileRequest describes the mutable profile fields.
type UpdateProfileRequest struct {
	FullName   string `json:"full_name" validate:"required"`
	Department string `json:"department"`
	ClassID    string `json:"class_id"`
}

// ProfileService handles profile reads and owner-scoped updates.
type ProfileService struct {
	repo      profileRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService constructs the service.
func NewProfileService(repo profileRepository, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{repo: repo, validator: validate, logger: logger}
}

// Get returns the caller's own profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.FromError(err)
	}
	return profile, nil
}

// Update modifies the caller's own profile. ClassID is self-asserted, here
// and at registration; there is no membership registry to verify it against,
// so class-readable collections treat it as a declared attribute.
func (s *ProfileService) Update(ctx context.Context, userID string, req UpdateProfileRequest) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	existing, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	existing.FullName = req.FullName
	existing.Department = req.Department
	existing.ClassID = req.ClassID

	affected, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	if affected == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
	}
	return existing, nil
}
