package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campus-api/internal/authz"
	"github.com/campushub/campus-api/internal/feed"
	"github.com/campushub/campus-api/internal/models"
	appErrors "github.com/campushub/campus-api/pkg/errors"
)

type notificationRepoStub struct {
	rows        map[string]*models.Notification
	err         error
	unreadCalls int
}

func (s *notificationRepoStub) ListRecent(_ context.Context, ownerID string, _ int) ([]models.Notification, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Notification
	for _, row := range s.rows {
		if row.OwnerID == ownerID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *notificationRepoStub) Create(_ context.Context, notification *models.Notification) error {
	if s.err != nil {
		return s.err
	}
	if s.rows == nil {
		s.rows = make(map[string]*models.Notification)
	}
	if notification.ID == "" {
		notification.ID = "n-gen"
	}
	s.rows[notification.ID] = notification
	return nil
}

func (s *notificationRepoStub) MarkRead(_ context.Context, id, ownerID string) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	row, ok := s.rows[id]
	if !ok || row.OwnerID != ownerID {
		return 0, nil
	}
	row.Read = true
	return 1, nil
}

func (s *notificationRepoStub) MarkAllRead(_ context.Context, ownerID string) (int64, error) {
	var flipped int64
	for _, row := range s.rows {
		if row.OwnerID == ownerID && !row.Read {
			row.Read = true
			flipped++
		}
	}
	return flipped, nil
}

func (s *notificationRepoStub) UnreadCount(_ context.Context, ownerID string) (int, error) {
	s.unreadCalls++
	if s.err != nil {
		return 0, s.err
	}
	count := 0
	for _, row := range s.rows {
		if row.OwnerID == ownerID && !row.Read {
			count++
		}
	}
	return count, nil
}

type publisherStub struct {
	events []feed.Event
}

func (p *publisherStub) Publish(ev feed.Event) {
	p.events = append(p.events, ev)
}

type dispatcherStub struct {
	calls []string
}

func (d *dispatcherStub) Dispatch(ownerID, _, _ string) {
	d.calls = append(d.calls, ownerID)
}

func TestNotificationServiceCreatePublishesAndDispatches(t *testing.T) {
	repo := &notificationRepoStub{}
	publisher := &publisherStub{}
	dispatcher := &dispatcherStub{}
	svc := NewNotificationService(repo, publisher, dispatcher, validator.New(), nil)

	notification, err := svc.Create(context.Background(), CreateNotificationRequest{
		OwnerID: "u-1",
		Title:   "Assignment graded",
		Message: "Your submission was graded",
		Type:    "academic",
	})
	require.NoError(t, err)
	require.NotEmpty(t, notification.ID)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, authz.CollectionNotifications, publisher.events[0].Collection)
	assert.Equal(t, "u-1", publisher.events[0].Meta.OwnerID)
	assert.Equal(t, []string{"u-1"}, dispatcher.calls)
}

func TestNotificationServiceMarkReadIdempotent(t *testing.T) {
	repo := &notificationRepoStub{rows: map[string]*models.Notification{
		"n-1": {ID: "n-1", OwnerID: "u-1"},
	}}
	svc := NewNotificationService(repo, nil, nil, validator.New(), nil)
	caller := authz.Caller{ID: "u-1", Role: models.RoleStudent}

	require.NoError(t, svc.MarkRead(context.Background(), caller, "n-1"))
	// Second call succeeds without changing anything.
	require.NoError(t, svc.MarkRead(context.Background(), caller, "n-1"))
	assert.True(t, repo.rows["n-1"].Read)
}

func TestNotificationServiceMarkReadForeignOwnerNotFound(t *testing.T) {
	repo := &notificationRepoStub{rows: map[string]*models.Notification{
		"n-1": {ID: "n-1", OwnerID: "u-1"},
	}}
	svc := NewNotificationService(repo, nil, nil, validator.New(), nil)

	err := svc.MarkRead(context.Background(), authz.Caller{ID: "u-2", Role: models.RoleStudent}, "n-1")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
	assert.False(t, repo.rows["n-1"].Read)
}

func TestNotificationServiceMarkAllReadZeroesUnread(t *testing.T) {
	repo := &notificationRepoStub{rows: map[string]*models.Notification{
		"n-1": {ID: "n-1", OwnerID: "u-1"},
		"n-2": {ID: "n-2", OwnerID: "u-1"},
		"n-3": {ID: "n-3", OwnerID: "u-2"},
	}}
	svc := NewNotificationService(repo, nil, nil, validator.New(), nil)
	caller := authz.Caller{ID: "u-1", Role: models.RoleStudent}

	flipped, err := svc.MarkAllRead(context.Background(), caller)
	require.NoError(t, err)
	assert.EqualValues(t, 2, flipped)

	count, err := svc.UnreadCount(context.Background(), caller)
	require.NoError(t, err)
	assert.Zero(t, count)

	// Other owners are untouched.
	other, err := svc.UnreadCount(context.Background(), authz.Caller{ID: "u-2", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, 1, other)
}

func TestNotificationServiceUnreadCountIsAlwaysLive(t *testing.T) {
	repo := &notificationRepoStub{rows: map[string]*models.Notification{
		"n-1": {ID: "n-1", OwnerID: "u-1"},
		"n-2": {ID: "n-2", OwnerID: "u-1"},
	}}
	svc := NewNotificationService(repo, nil, nil, validator.New(), nil)
	caller := authz.Caller{ID: "u-1", Role: models.RoleStudent}

	count, err := svc.UnreadCount(context.Background(), caller)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Every call counts the live rows; nothing is memoized between reads.
	count, err = svc.UnreadCount(context.Background(), caller)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, repo.unreadCalls)

	// A count read immediately after MarkAllRead reflects the flip.
	_, err = svc.MarkAllRead(context.Background(), caller)
	require.NoError(t, err)
	count, err = svc.UnreadCount(context.Background(), caller)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Equal(t, 3, repo.unreadCalls)
}

func TestNotificationServiceCreateValidatesPayload(t *testing.T) {
	svc := NewNotificationService(&notificationRepoStub{}, nil, nil, validator.New(), nil)
	_, err := svc.Create(context.Background(), CreateNotificationRequest{OwnerID: "u-1"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}
