package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campus-api/internal/authz"
	"github.com/campushub/campus-api/internal/models"
	appErrors "github.com/campushub/campus-api/pkg/errors"
)

type scheduleRepoStub struct {
	rows []models.Schedule
	err  error
}

func (s *scheduleRepoStub) List(_ context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	var matching []models.Schedule
	for _, row := range s.rows {
		if row.OwnerID != filter.OwnerID {
			continue
		}
		if filter.DayOfWeek != "" && row.DayOfWeek != filter.DayOfWeek {
			continue
		}
		matching = append(matching, row)
	}
	total := len(matching)
	if filter.PageSize > 0 {
		start := (filter.Page - 1) * filter.PageSize
		if start > total {
			start = total
		}
		end := start + filter.PageSize
		if end > total {
			end = total
		}
		matching = matching[start:end]
	}
	return matching, total, nil
}

func (s *scheduleRepoStub) FindByID(_ context.Context, id, ownerID string) (*models.Schedule, error) {
	if s.err != nil {
		return nil, s.err
	}
	for i := range s.rows {
		if s.rows[i].ID == id && s.rows[i].OwnerID == ownerID {
			row := s.rows[i]
			return &row, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *scheduleRepoStub) Create(_ context.Context, schedule *models.Schedule) error {
	if s.err != nil {
		return s.err
	}
	if schedule.ID == "" {
		schedule.ID = "s-gen"
	}
	s.rows = append(s.rows, *schedule)
	return nil
}

func (s *scheduleRepoStub) Update(_ context.Context, schedule *models.Schedule) (int64, error) {
	for i := range s.rows {
		if s.rows[i].ID == schedule.ID && s.rows[i].OwnerID == schedule.OwnerID {
			s.rows[i] = *schedule
			return 1, nil
		}
	}
	return 0, nil
}

func (s *scheduleRepoStub) Delete(_ context.Context, id, ownerID string) (int64, error) {
	for i := range s.rows {
		if s.rows[i].ID == id && s.rows[i].OwnerID == ownerID {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type timetableRepoStub struct {
	entries []models.TimetableEntry
	calls   int
}

func (s *timetableRepoStub) ListByClassAndDay(_ context.Context, classID, dayOfWeek string) ([]models.TimetableEntry, error) {
	s.calls++
	var out []models.TimetableEntry
	for _, entry := range s.entries {
		if entry.ClassID == classID && entry.DayOfWeek == dayOfWeek {
			out = append(out, entry)
		}
	}
	return out, nil
}

func TestScheduleServiceGetForeignOwnerNotFound(t *testing.T) {
	repo := &scheduleRepoStub{rows: []models.Schedule{{ID: "s-1", OwnerID: "u-1", Course: "Algorithms"}}}
	svc := NewScheduleService(repo, &timetableRepoStub{}, nil, nil, validator.New(), nil)

	_, err := svc.Get(context.Background(), authz.Caller{ID: "u-2", Role: models.RoleStudent}, "s-1")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestScheduleServiceCreatePublishesEvent(t *testing.T) {
	repo := &scheduleRepoStub{}
	publisher := &publisherStub{}
	svc := NewScheduleService(repo, &timetableRepoStub{}, nil, publisher, validator.New(), nil)
	caller := authz.Caller{ID: "u-1", Role: models.RoleStudent}

	schedule, err := svc.Create(context.Background(), caller, CreateScheduleRequest{
		Course:    "Algorithms",
		Time:      "08:00",
		DayOfWeek: "monday",
	})
	require.NoError(t, err)
	assert.Equal(t, "u-1", schedule.OwnerID)
	assert.Equal(t, "MONDAY", schedule.DayOfWeek)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, authz.CollectionSchedules, publisher.events[0].Collection)
}

func TestScheduleServiceDayViewMergesByStartTime(t *testing.T) {
	repo := &scheduleRepoStub{rows: []models.Schedule{
		{ID: "s-1", OwnerID: "u-1", Course: "Thesis consult", Time: "10:00", Location: "D401", Instructor: "Dr. Ade", DayOfWeek: "MONDAY"},
		{ID: "s-2", OwnerID: "u-1", Course: "Study group", Time: "08:00", Location: "Library", DayOfWeek: "MONDAY"},
	}}
	timetable := &timetableRepoStub{entries: []models.TimetableEntry{
		{ID: "t-1", LecturerID: "l-1", ClassID: "CS-Y2", DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:30", Subject: "Databases", Room: "B201"},
		{ID: "t-2", LecturerID: "l-1", ClassID: "CS-Y2", DayOfWeek: "MONDAY", StartTime: "07:00", EndTime: "08:30", Subject: "Calculus", Room: "B202"},
	}}
	svc := NewScheduleService(repo, timetable, nil, nil, validator.New(), nil)
	caller := authz.Caller{ID: "u-1", Role: models.RoleStudent, ClassID: "CS-Y2"}

	items, err := svc.DayView(context.Background(), caller, "Monday")
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, "Calculus", items[0].Title)
	assert.Equal(t, models.DayViewSourceClass, items[0].Source)
	assert.Equal(t, "Study group", items[1].Title)
	assert.Equal(t, models.DayViewSourcePersonal, items[1].Source)
	assert.Equal(t, "Databases", items[2].Title)
	assert.Equal(t, "Thesis consult", items[3].Title)
	assert.Equal(t, "Dr. Ade", items[3].With)
}

func TestScheduleServiceDayViewEqualTimesKeepPersonalFirst(t *testing.T) {
	repo := &scheduleRepoStub{rows: []models.Schedule{
		{ID: "s-1", OwnerID: "u-1", Course: "Personal slot", Time: "08:00", DayOfWeek: "MONDAY"},
	}}
	timetable := &timetableRepoStub{entries: []models.TimetableEntry{
		{ID: "t-1", LecturerID: "l-1", ClassID: "CS-Y2", DayOfWeek: "MONDAY", StartTime: "08:00", EndTime: "09:30", Subject: "Class slot"},
	}}
	svc := NewScheduleService(repo, timetable, nil, nil, validator.New(), nil)

	items, err := svc.DayView(context.Background(), authz.Caller{ID: "u-1", Role: models.RoleStudent, ClassID: "CS-Y2"}, "MONDAY")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, models.DayViewSourcePersonal, items[0].Source)
	assert.Equal(t, models.DayViewSourceClass, items[1].Source)
}

func TestScheduleServiceDayViewWithoutClassOnlyPersonal(t *testing.T) {
	repo := &scheduleRepoStub{rows: []models.Schedule{
		{ID: "s-1", OwnerID: "u-1", Course: "Study group", Time: "08:00", DayOfWeek: "MONDAY"},
	}}
	timetable := &timetableRepoStub{entries: []models.TimetableEntry{
		{ID: "t-1", LecturerID: "l-1", ClassID: "CS-Y2", DayOfWeek: "MONDAY", StartTime: "09:00", Subject: "Databases"},
	}}
	svc := NewScheduleService(repo, timetable, nil, nil, validator.New(), nil)

	items, err := svc.DayView(context.Background(), authz.Caller{ID: "u-1", Role: models.RoleStudent}, "MONDAY")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.DayViewSourcePersonal, items[0].Source)
}

func TestScheduleServiceDayViewRequiresDay(t *testing.T) {
	svc := NewScheduleService(&scheduleRepoStub{}, &timetableRepoStub{}, nil, nil, validator.New(), nil)
	_, err := svc.DayView(context.Background(), authz.Caller{ID: "u-1", Role: models.RoleStudent}, "")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestScheduleServiceDayViewIncludesEveryPersonalRow(t *testing.T) {
	// More rows than one repository page; the day view must still merge
	// all of them.
	var rows []models.Schedule
	for i := 0; i < 450; i++ {
		rows = append(rows, models.Schedule{
			ID:        fmt.Sprintf("s-%d", i),
			OwnerID:   "u-1",
			Course:    fmt.Sprintf("Course %d", i),
			Time:      "08:00",
			DayOfWeek: "MONDAY",
		})
	}
	repo := &scheduleRepoStub{rows: rows}
	svc := NewScheduleService(repo, &timetableRepoStub{}, nil, nil, validator.New(), nil)

	items, err := svc.DayView(context.Background(), authz.Caller{ID: "u-1", Role: models.RoleStudent}, "MONDAY")
	require.NoError(t, err)
	assert.Len(t, items, 450)
}

type dayViewCacheStub struct {
	values map[string][]models.TimetableEntry
	hits   int
}

func (c *dayViewCacheStub) Get(_ context.Context, key string, dest interface{}) error {
	slots, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	c.hits++
	*dest.(*[]models.TimetableEntry) = slots
	return nil
}

func (c *dayViewCacheStub) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if c.values == nil {
		c.values = make(map[string][]models.TimetableEntry)
	}
	c.values[key] = value.([]models.TimetableEntry)
	return nil
}

func TestScheduleServiceDayViewCachesClassSlots(t *testing.T) {
	timetable := &timetableRepoStub{entries: []models.TimetableEntry{
		{ID: "t-1", LecturerID: "l-1", ClassID: "CS-Y2", DayOfWeek: "MONDAY", StartTime: "09:00", Subject: "Databases"},
	}}
	cache := &dayViewCacheStub{}
	svc := NewScheduleService(&scheduleRepoStub{}, timetable, cache, nil, validator.New(), nil)
	caller := authz.Caller{ID: "u-1", Role: models.RoleStudent, ClassID: "CS-Y2"}

	_, err := svc.DayView(context.Background(), caller, "MONDAY")
	require.NoError(t, err)
	assert.Equal(t, 1, timetable.calls)
	assert.Zero(t, cache.hits)

	// Second view within the TTL serves the class slots from cache.
	items, err := svc.DayView(context.Background(), caller, "MONDAY")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Databases", items[0].Title)
	assert.Equal(t, 1, timetable.calls)
	assert.Equal(t, 1, cache.hits)
}

func TestScheduleServiceDeleteForeignOwnerNotFound(t *testing.T) {
	repo := &scheduleRepoStub{rows: []models.Schedule{{ID: "s-1", OwnerID: "u-1"}}}
	svc := NewScheduleService(repo, &timetableRepoStub{}, nil, nil, validator.New(), nil)

	err := svc.Delete(context.Background(), authz.Caller{ID: "u-2", Role: models.RoleStudent}, "s-1")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
	require.Len(t, repo.rows, 1)
}
