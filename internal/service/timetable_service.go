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

type timetableRepository interface {
	ListByLecturer(ctx context.Context, lecturerID string) ([]models.TimetableEntry, error)
	ListByClassAndDay(ctx context.Context, classID, dayOfWeek string) ([]models.TimetableEntry, error)
	FindByID(ctx context.Context, id string) (*models.TimetableEntry, error)
	Create(ctx context.Context, entry *models.TimetableEntry) error
	Update(ctx context.Context, entry *models.TimetableEntry) (int64, error)
	Delete(ctx context.Context, id, lecturerID string) (int64, error)
}

// CreateTimetableEntryRequest describes a new lesson slot.
type CreateTimetableEntryRequest struct {
	DayOfWeek string `json:"day_of_week" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time"`
	Subject   string `json:"subject" validate:"required"`
	ClassID   string `json:"class_id" validate:"required"`
	Room      string `json:"room"`
}

// UpdateTimetableEntryRequest describes slot modifications.
type UpdateTimetableEntryRequest struct {
	DayOfWeek string `json:"day_of_week" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time"`
	Subject   string `json:"subject" validate:"required"`
	ClassID   string `json:"class_id" validate:"required"`
	Room      string `json:"room"`
}

// TimetableService handles class timetable slots: lecturer-owned writes,
// class-wide reads.
type TimetableService struct {
	repo      timetableRepository
	publisher feed.Publisher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableService constructs the service.
func NewTimetableService(repo timetableRepository, publisher feed.Publisher, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{repo: repo, publisher: publisher, validator: validate, logger: logger}
}

// ListMine returns the calling lecturer's slots.
func (s *TimetableService) ListMine(ctx context.Context, caller authz.Caller) ([]models.TimetableEntry, error) {
	entries, err := s.repo.ListByLecturer(ctx, caller.ID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return entries, nil
}

// ListForClass returns the slots of the caller's own class for one day.
func (s *TimetableService) ListForClass(ctx context.Context, caller authz.Caller, dayOfWeek string) ([]models.TimetableEntry, error) {
	if caller.ClassID == "" {
		return []models.TimetableEntry{}, nil
	}
	entries, err := s.repo.ListByClassAndDay(ctx, caller.ClassID, dayOfWeek)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return entries, nil
}

// Get returns one slot if the caller may read it.
func (s *TimetableService) Get(ctx context.Context, caller authz.Caller, id string) (*models.TimetableEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
		}
		return nil, appErrors.FromError(err)
	}
	if !authz.CanRead(authz.CollectionTimetable, caller, entry) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
	}
	return entry, nil
}

// Create inserts a slot owned by the calling lecturer.
func (s *TimetableService) Create(ctx context.Context, caller authz.Caller, req CreateTimetableEntryRequest) (*models.TimetableEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	entry := &models.TimetableEntry{
		LecturerID: caller.ID,
		DayOfWeek:  strings.ToUpper(req.DayOfWeek),
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Subject:    req.Subject,
		ClassID:    req.ClassID,
		Room:       req.Room,
	}
	if !authz.Authorize(authz.OpCreate, authz.CollectionTimetable, caller, entry) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only lecturers can manage the timetable")
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable entry")
	}
	s.publishEvent(*entry)
	return entry, nil
}

// Update modifies one of the lecturer's slots.
func (s *TimetableService) Update(ctx context.Context, caller authz.Caller, id string, req UpdateTimetableEntryRequest) (*models.TimetableEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
		}
		return nil, appErrors.FromError(err)
	}
	if !authz.Authorize(authz.OpUpdate, authz.CollectionTimetable, caller, existing) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
	}
	existing.DayOfWeek = strings.ToUpper(req.DayOfWeek)
	existing.StartTime = req.StartTime
	existing.EndTime = req.EndTime
	existing.Subject = req.Subject
	existing.ClassID = req.ClassID
	existing.Room = req.Room

	affected, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timetable entry")
	}
	if affected == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
	}
	return existing, nil
}

// Delete removes one of the lecturer's slots.
func (s *TimetableService) Delete(ctx context.Context, caller authz.Caller, id string) error {
	affected, err := s.repo.Delete(ctx, id, caller.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable entry")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
	}
	return nil
}

func (s *TimetableService) publishEvent(entry models.TimetableEntry) {
	if s.publisher == nil {
		return
	}
	ev, err := feed.NewEvent(authz.CollectionTimetable, entry)
	if err != nil {
		s.logger.Warn("failed to build timetable feed event", zap.Error(err))
		return
	}
	s.publisher.Publish(ev)
}
