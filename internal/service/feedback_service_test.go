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

type feedbackRepoStub struct {
	rows map[string]*models.Feedback
}

func (s *feedbackRepoStub) ListByOwner(_ context.Context, ownerID string) ([]models.Feedback, error) {
	var out []models.Feedback
	for _, row := range s.rows {
		if row.OwnerID == ownerID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *feedbackRepoStub) ListAll(_ context.Context) ([]models.Feedback, error) {
	var out []models.Feedback
	for _, row := range s.rows {
		out = append(out, *row)
	}
	return out, nil
}

func (s *feedbackRepoStub) FindByID(_ context.Context, id, ownerID string) (*models.Feedback, error) {
	if row, ok := s.rows[id]; ok && row.OwnerID == ownerID {
		copy := *row
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *feedbackRepoStub) Create(_ context.Context, entry *models.Feedback) error {
	if s.rows == nil {
		s.rows = make(map[string]*models.Feedback)
	}
	if entry.ID == "" {
		entry.ID = "f-gen"
	}
	s.rows[entry.ID] = entry
	return nil
}

func (s *feedbackRepoStub) Respond(_ context.Context, id string, status models.FeedbackStatus, response string) (int64, error) {
	row, ok := s.rows[id]
	if !ok {
		return 0, nil
	}
	row.Status = status
	row.Response = &response
	return 1, nil
}

func (s *feedbackRepoStub) Delete(_ context.Context, id, ownerID string) (int64, error) {
	if row, ok := s.rows[id]; ok && row.OwnerID == ownerID {
		delete(s.rows, id)
		return 1, nil
	}
	return 0, nil
}

func TestFeedbackServiceCreateDefaultsMediumPriority(t *testing.T) {
	repo := &feedbackRepoStub{}
	svc := NewFeedbackService(repo, validator.New(), nil)

	entry, err := svc.Create(context.Background(), authz.Caller{ID: "u-1", Role: models.RoleStudent}, CreateFeedbackRequest{
		Type:        "facility",
		Subject:     "Broken projector",
		Description: "Projector in B201 does not turn on",
	})
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackPriorityMedium, entry.Priority)
	assert.Equal(t, models.FeedbackUnderReview, entry.Status)
}

func TestFeedbackServiceRespondRequiresAdmin(t *testing.T) {
	repo := &feedbackRepoStub{rows: map[string]*models.Feedback{
		"f-1": {ID: "f-1", OwnerID: "u-1", Status: models.FeedbackUnderReview},
	}}
	svc := NewFeedbackService(repo, validator.New(), nil)

	err := svc.Respond(context.Background(), authz.Caller{ID: "u-2", Role: models.RoleStudent}, "f-1", RespondFeedbackRequest{
		Status:   "RESOLVED",
		Response: "Fixed",
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden))

	err = svc.Respond(context.Background(), authz.Caller{ID: "adm-1", Role: models.RoleAdmin}, "f-1", RespondFeedbackRequest{
		Status:   "RESOLVED",
		Response: "Fixed",
	})
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackResolved, repo.rows["f-1"].Status)
}

func TestFeedbackServiceListAdminSeesEverything(t *testing.T) {
	repo := &feedbackRepoStub{rows: map[string]*models.Feedback{
		"f-1": {ID: "f-1", OwnerID: "u-1"},
		"f-2": {ID: "f-2", OwnerID: "u-2"},
	}}
	svc := NewFeedbackService(repo, validator.New(), nil)

	mine, err := svc.List(context.Background(), authz.Caller{ID: "u-1", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := svc.List(context.Background(), authz.Caller{ID: "adm-1", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFeedbackServiceGetForeignOwnerNotFound(t *testing.T) {
	repo := &feedbackRepoStub{rows: map[string]*models.Feedback{
		"f-1": {ID: "f-1", OwnerID: "u-1"},
	}}
	svc := NewFeedbackService(repo, validator.New(), nil)

	_, err := svc.Get(context.Background(), authz.Caller{ID: "u-2", Role: models.RoleStudent}, "f-1")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}
