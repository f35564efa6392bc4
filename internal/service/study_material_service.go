package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/campus-api/internal/authz"
	"github.com/campushub/campus-api/internal/feed"
	"github.com/campushub/campus-api/internal/models"
	appErrors "github.com/campushub/campus-api/pkg/errors"
	"github.com/campushub/campus-api/pkg/storage"
)

type studyMaterialRepository interface {
	ListByLecturer(ctx context.Context, lecturerID string) ([]models.StudyMaterial, error)
	ListByClass(ctx context.Context, classID string) ([]models.StudyMaterial, error)
	FindByID(ctx context.Context, id string) (*models.StudyMaterial, error)
	Create(ctx context.Context, material *models.StudyMaterial) error
	Update(ctx context.Context, material *models.StudyMaterial) (int64, error)
	Delete(ctx context.Context, id, lecturerID string) (int64, error)
}

// CreateStudyMaterialRequest describes new course material.
type CreateStudyMaterialRequest struct {
	Title   string  `json:"title" validate:"required"`
	FileURL *string `json:"file_url"`
	ClassID string  `json:"class_id" validate:"required"`
	Subject string  `json:"subject"`
}

// UpdateStudyMaterialRequest describes material modifications.
type UpdateStudyMaterialRequest struct {
	Title   string  `json:"title" validate:"required"`
	FileURL *string `json:"file_url"`
	ClassID string  `json:"class_id" validate:"required"`
	Subject string  `json:"subject"`
}

// StudyMaterialService handles lecturer course materials, readable by the
// targeted class, with signed download tokens for attached files.
type StudyMaterialService struct {
	repo      studyMaterialRepository
	publisher feed.Publisher
	signer    *storage.SignedURLSigner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudyMaterialService constructs the service. signer may be nil to
// disable download tokens.
func NewStudyMaterialService(repo studyMaterialRepository, publisher feed.Publisher, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger) *StudyMaterialService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudyMaterialService{repo: repo, publisher: publisher, signer: signer, validator: validate, logger: logger}
}

// ListVisible returns the materials the caller may read.
func (s *StudyMaterialService) ListVisible(ctx context.Context, caller authz.Caller) ([]models.StudyMaterial, error) {
	if caller.Role == models.RoleLecturer {
		rows, err := s.repo.ListByLecturer(ctx, caller.ID)
		if err != nil {
			return nil, appErrors.FromError(err)
		}
		return rows, nil
	}
	if caller.ClassID == "" {
		return []models.StudyMaterial{}, nil
	}
	rows, err := s.repo.ListByClass(ctx, caller.ClassID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return rows, nil
}

// Get returns one material if the caller may read it.
func (s *StudyMaterialService) Get(ctx context.Context, caller authz.Caller, id string) (*models.StudyMaterial, error) {
	material, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "study material not found")
		}
		return nil, appErrors.FromError(err)
	}
	if !authz.CanRead(authz.CollectionStudyMaterials, caller, material) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "study material not found")
	}
	return material, nil
}

// DownloadToken returns a signed, time-limited token for the material's
// file, exchanged at the download endpoint.
func (s *StudyMaterialService) DownloadToken(ctx context.Context, caller authz.Caller, id string) (string, time.Time, error) {
	material, err := s.Get(ctx, caller, id)
	if err != nil {
		return "", time.Time{}, err
	}
	if material.FileURL == nil || *material.FileURL == "" {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "study material has no file")
	}
	if s.signer == nil {
		return *material.FileURL, time.Time{}, nil
	}
	token, expiresAt, err := s.signer.Generate(material.ID, *material.FileURL)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}
	return token, expiresAt, nil
}

// Create inserts material owned by the calling lecturer.
func (s *StudyMaterialService) Create(ctx context.Context, caller authz.Caller, req CreateStudyMaterialRequest) (*models.StudyMaterial, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	material := &models.StudyMaterial{
		LecturerID: caller.ID,
		Title:      req.Title,
		FileURL:    req.FileURL,
		ClassID:    req.ClassID,
		Subject:    req.Subject,
	}
	if !authz.Authorize(authz.OpCreate, authz.CollectionStudyMaterials, caller, material) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only lecturers can manage study materials")
	}
	if err := s.repo.Create(ctx, material); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create study material")
	}
	s.publishEvent(*material)
	return material, nil
}

// Update modifies one of the lecturer's materials.
func (s *StudyMaterialService) Update(ctx context.Context, caller authz.Caller, id string, req UpdateStudyMaterialRequest) (*models.StudyMaterial, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "study material not found")
		}
		return nil, appErrors.FromError(err)
	}
	if !authz.Authorize(authz.OpUpdate, authz.CollectionStudyMaterials, caller, existing) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "study material not found")
	}
	existing.Title = req.Title
	existing.FileURL = req.FileURL
	existing.ClassID = req.ClassID
	existing.Subject = req.Subject

	affected, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update study material")
	}
	if affected == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "study material not found")
	}
	return existing, nil
}

// Delete removes one of the lecturer's materials.
func (s *StudyMaterialService) Delete(ctx context.Context, caller authz.Caller, id string) error {
	affected, err := s.repo.Delete(ctx, id, caller.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete study material")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "study material not found")
	}
	return nil
}

func (s *StudyMaterialService) publishEvent(material models.StudyMaterial) {
	if s.publisher == nil {
		return
	}
	ev, err := feed.NewEvent(authz.CollectionStudyMaterials, material)
	if err != nil {
		s.logger.Warn("failed to build study material feed event", zap.Error(err))
		return
	}
	s.publisher.Publish(ev)
}
