package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campus-api/internal/authz"
	"github.com/campushub/campus-api/internal/models"
	appErrors "github.com/campushub/campus-api/pkg/errors"
)

type updateRepoStub struct {
	rows []models.Update
}

func (s *updateRepoStub) ListByLecturer(_ context.Context, lecturerID string) ([]models.Update, error) {
	var out []models.Update
	for _, row := range s.rows {
		if row.LecturerID == lecturerID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *updateRepoStub) ListVisibleToClass(_ context.Context, classID string) ([]models.Update, error) {
	var out []models.Update
	for _, row := range s.rows {
		if row.TargetClassID == nil || *row.TargetClassID == "" || *row.TargetClassID == models.UpdateBroadcastTarget || *row.TargetClassID == classID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *updateRepoStub) FindByID(_ context.Context, id string) (*models.Update, error) {
	for i := range s.rows {
		if s.rows[i].ID == id {
			row := s.rows[i]
			return &row, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *updateRepoStub) Create(_ context.Context, update *models.Update) error {
	if update.ID == "" {
		update.ID = "a-gen"
	}
	s.rows = append(s.rows, *update)
	return nil
}

func (s *updateRepoStub) Update(_ context.Context, update *models.Update) (int64, error) {
	for i := range s.rows {
		if s.rows[i].ID == update.ID && s.rows[i].LecturerID == update.LecturerID {
			s.rows[i] = *update
			return 1, nil
		}
	}
	return 0, nil
}

func (s *updateRepoStub) Delete(_ context.Context, id, lecturerID string) (int64, error) {
	for i := range s.rows {
		if s.rows[i].ID == id && s.rows[i].LecturerID == lecturerID {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func strptr(s string) *string { return &s }

func TestUpdateServiceCreateRequiresLecturer(t *testing.T) {
	svc := NewUpdateService(&updateRepoStub{}, nil, validator.New(), nil)

	_, err := svc.Create(context.Background(), authz.Caller{ID: "u-1", Role: models.RoleStudent}, CreateUpdateRequest{
		Title:   "Exam moved",
		Content: "Final exam moved to Friday",
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden))
}

func TestUpdateServiceCreateBroadcastPublishes(t *testing.T) {
	publisher := &publisherStub{}
	svc := NewUpdateService(&updateRepoStub{}, publisher, validator.New(), nil)

	update, err := svc.Create(context.Background(), authz.Caller{ID: "l-1", Role: models.RoleLecturer}, CreateUpdateRequest{
		Title:   "Exam moved",
		Content: "Final exam moved to Friday",
	})
	require.NoError(t, err)
	assert.Equal(t, "l-1", update.LecturerID)

	require.Len(t, publisher.events, 1)
	assert.True(t, publisher.events[0].Meta.Broadcast)
}

func TestUpdateServiceListVisibleFiltersByClass(t *testing.T) {
	repo := &updateRepoStub{rows: []models.Update{
		{ID: "a-1", LecturerID: "l-1", Title: "broadcast"},
		{ID: "a-2", LecturerID: "l-1", Title: "for CS-Y2", TargetClassID: strptr("CS-Y2")},
		{ID: "a-3", LecturerID: "l-1", Title: "for EE-Y1", TargetClassID: strptr("EE-Y1")},
	}}
	svc := NewUpdateService(repo, nil, validator.New(), nil)

	updates, err := svc.ListVisible(context.Background(), authz.Caller{ID: "u-1", Role: models.RoleStudent, ClassID: "CS-Y2"})
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, "a-1", updates[0].ID)
	assert.Equal(t, "a-2", updates[1].ID)
}

func TestUpdateServiceGetTargetedUpdateHiddenFromOutsider(t *testing.T) {
	repo := &updateRepoStub{rows: []models.Update{
		{ID: "a-1", LecturerID: "l-1", TargetClassID: strptr("CS-Y2")},
	}}
	svc := NewUpdateService(repo, nil, validator.New(), nil)

	_, err := svc.Get(context.Background(), authz.Caller{ID: "u-1", Role: models.RoleStudent, ClassID: "EE-Y1"}, "a-1")
	require.Error(t, err)
	// Hidden rows look exactly like missing ones.
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))

	update, err := svc.Get(context.Background(), authz.Caller{ID: "u-2", Role: models.RoleStudent, ClassID: "CS-Y2"}, "a-1")
	require.NoError(t, err)
	assert.Equal(t, "a-1", update.ID)
}

func TestUpdateServiceUpdateForeignLecturerNotFound(t *testing.T) {
	repo := &updateRepoStub{rows: []models.Update{
		{ID: "a-1", LecturerID: "l-1", Title: "original"},
	}}
	svc := NewUpdateService(repo, nil, validator.New(), nil)

	_, err := svc.Update(context.Background(), authz.Caller{ID: "l-2", Role: models.RoleLecturer}, "a-1", UpdateUpdateRequest{
		Title:   "hijacked",
		Content: "nope",
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
	assert.Equal(t, "original", repo.rows[0].Title)
}
