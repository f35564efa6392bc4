package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/campus-api/internal/authz"
	"github.com/campushub/campus-api/internal/feed"
	"github.com/campushub/campus-api/internal/models"
	appErrors "github.com/campushub/campus-api/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error)
	FindByID(ctx context.Context, id, ownerID string) (*models.Schedule, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	Update(ctx context.Context, schedule *models.Schedule) (int64, error)
	Delete(ctx context.Context, id, ownerID string) (int64, error)
}

type dayViewTimetableRepository interface {
	ListByClassAndDay(ctx context.Context, classID, dayOfWeek string) ([]models.TimetableEntry, error)
}

type dayViewCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// classSlotsTTL bounds how stale a cached timetable input may be. Only the
// class-slot input of the day view is cached; the merge itself runs live.
const classSlotsTTL = 30 * time.Second

// CreateScheduleRequest describes a new personal schedule entry.
type CreateScheduleRequest struct {
	Course     string `json:"course" validate:"required"`
	Time       string `json:"time" validate:"required"`
	Location   string `json:"location"`
	Instructor string `json:"instructor"`
	Type       string `json:"type"`
	DayOfWeek  string `json:"day_of_week" validate:"required"`
}

// UpdateScheduleRequest describes schedule modifications.
type UpdateScheduleRequest struct {
	Course     string `json:"course" validate:"required"`
	Time       string `json:"time" validate:"required"`
	Location   string `json:"location"`
	Instructor string `json:"instructor"`
	Type       string `json:"type"`
	DayOfWeek  string `json:"day_of_week" validate:"required"`
}

// ScheduleService handles personal schedules and the merged day view. All
// operations are scoped to the calling owner; a row belonging to someone
// else is indistinguishable from a missing one.
type ScheduleService struct {
	repo      scheduleRepository
	timetable dayViewTimetableRepository
	cache     dayViewCache
	publisher feed.Publisher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs the service. cache may be nil to disable
// day-view input caching.
func NewScheduleService(repo scheduleRepository, timetable dayViewTimetableRepository, cache dayViewCache, publisher feed.Publisher, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, timetable: timetable, cache: cache, publisher: publisher, validator: validate, logger: logger}
}

// List returns the caller's schedules with pagination.
func (s *ScheduleService) List(ctx context.Context, caller authz.Caller, dayOfWeek string, page, pageSize int) ([]models.Schedule, *models.Pagination, error) {
	filter := models.ScheduleFilter{OwnerID: caller.ID, DayOfWeek: dayOfWeek, Page: page, PageSize: pageSize}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.FromError(err)
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rows, pagination, nil
}

// Get returns one of the caller's schedules.
func (s *ScheduleService) Get(ctx context.Context, caller authz.Caller, id string) (*models.Schedule, error) {
	schedule, err := s.repo.FindByID(ctx, id, caller.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.FromError(err)
	}
	return schedule, nil
}

// Create inserts a schedule owned by the caller and publishes it to the
// change feed.
func (s *ScheduleService) Create(ctx context.Context, caller authz.Caller, req CreateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	schedule := &models.Schedule{
		OwnerID:    caller.ID,
		Course:     req.Course,
		Time:       req.Time,
		Location:   req.Location,
		Instructor: req.Instructor,
		Type:       req.Type,
		DayOfWeek:  strings.ToUpper(req.DayOfWeek),
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	s.publishEvent(*schedule)
	return schedule, nil
}

// Update modifies one of the caller's schedules.
func (s *ScheduleService) Update(ctx context.Context, caller authz.Caller, id string, req UpdateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	existing, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	existing.Course = req.Course
	existing.Time = req.Time
	existing.Location = req.Location
	existing.Instructor = req.Instructor
	existing.Type = req.Type
	existing.DayOfWeek = strings.ToUpper(req.DayOfWeek)

	affected, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}
	if affected == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
	}
	return existing, nil
}

// Delete removes one of the caller's schedules.
func (s *ScheduleService) Delete(ctx context.Context, caller authz.Caller, id string) error {
	affected, err := s.repo.Delete(ctx, id, caller.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
	}
	return nil
}

// DayView merges the caller's personal schedules for a day with their
// class's timetable slots, ordered by start time. The sort is stable:
// entries with equal times keep source order, personal before class.
func (s *ScheduleService) DayView(ctx context.Context, caller authz.Caller, dayOfWeek string) ([]models.DayViewItem, error) {
	if dayOfWeek == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "day_of_week is required")
	}
	day := strings.ToUpper(dayOfWeek)

	personal, err := s.listAllForDay(ctx, caller.ID, day)
	if err != nil {
		return nil, appErrors.FromError(err)
	}

	var classSlots []models.TimetableEntry
	if caller.ClassID != "" {
		classSlots, err = s.classSlots(ctx, caller.ClassID, day)
		if err != nil {
			return nil, appErrors.FromError(err)
		}
	}

	items := make([]models.DayViewItem, 0, len(personal)+len(classSlots))
	for _, row := range personal {
		items = append(items, models.DayViewItem{
			Source:   models.DayViewSourcePersonal,
			Time:     row.Time,
			Title:    row.Course,
			Location: row.Location,
			With:     row.Instructor,
		})
	}
	for _, slot := range classSlots {
		items = append(items, models.DayViewItem{
			Source:   models.DayViewSourceClass,
			Time:     slot.DisplayTime(),
			Title:    slot.Subject,
			Location: slot.Room,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return startTimeKey(items[i].Time) < startTimeKey(items[j].Time)
	})
	return items, nil
}

// listAllForDay pages through every personal schedule for the day. The day
// view merges the complete set, however many pages the store holds.
func (s *ScheduleService) listAllForDay(ctx context.Context, ownerID, day string) ([]models.Schedule, error) {
	filter := models.ScheduleFilter{OwnerID: ownerID, DayOfWeek: day, Page: 1, PageSize: 200}
	var all []models.Schedule
	for {
		rows, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
		if len(rows) < filter.PageSize || len(all) >= total {
			return all, nil
		}
		filter.Page++
	}
}

// classSlots fetches the class timetable input, serving it from cache within
// classSlotsTTL. Cache failures fall through to the store.
func (s *ScheduleService) classSlots(ctx context.Context, classID, day string) ([]models.TimetableEntry, error) {
	key := fmt.Sprintf("dayview:slots:%s:%s", classID, day)
	if s.cache != nil {
		var cached []models.TimetableEntry
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !appErrors.HasCode(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("day view cache read failed", zap.Error(err))
		}
	}
	slots, err := s.timetable.ListByClassAndDay(ctx, classID, day)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, slots, classSlotsTTL); err != nil {
			s.logger.Warn("day view cache write failed", zap.Error(err))
		}
	}
	return slots, nil
}

func (s *ScheduleService) publishEvent(schedule models.Schedule) {
	if s.publisher == nil {
		return
	}
	ev, err := feed.NewEvent(authz.CollectionSchedules, schedule)
	if err != nil {
		s.logger.Warn("failed to build schedule feed event", zap.Error(err))
		return
	}
	s.publisher.Publish(ev)
}

// startTimeKey extracts the comparable start of a display time, dropping an
// "-end" suffix so "08:00-10:00" sorts with "08:00".
func startTimeKey(t string) string {
	if idx := strings.IndexByte(t, '-'); idx > 0 {
		return strings.TrimSpace(t[:idx])
	}
	return strings.TrimSpace(t)
}
