package feed

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campus-api/internal/authz"
	"github.com/campushub/campus-api/internal/models"
)

func notificationEvent(t *testing.T, id, owner string) Event {
	t.Helper()
	ev, err := NewEvent(authz.CollectionNotifications, models.Notification{ID: id, OwnerID: owner, Title: "t"})
	require.NoError(t, err)
	return ev
}

func TestHubDeliversOnlyToAuthorizedSubscriber(t *testing.T) {
	hub := NewHub(4, nil, nil)
	defer hub.Close()

	sub := hub.Subscribe(authz.CollectionNotifications, authz.Caller{ID: "u1", Role: models.RoleStudent})
	defer sub.Close()

	hub.Publish(notificationEvent(t, "n1", "u1"))
	hub.Publish(notificationEvent(t, "n2", "u2"))

	select {
	case ev := <-sub.C:
		assert.Equal(t, "u1", ev.Meta.OwnerID)
	case <-time.After(time.Second):
		t.Fatal("expected an event for the owning subscriber")
	}

	select {
	case ev, ok := <-sub.C:
		if ok {
			t.Fatalf("unexpected extra event delivered: %+v", ev)
		}
	default:
	}
}

func TestHubInsertionOrderPreserved(t *testing.T) {
	hub := NewHub(8, nil, nil)
	defer hub.Close()

	sub := hub.Subscribe(authz.CollectionNotifications, authz.Caller{ID: "u1", Role: models.RoleStudent})
	defer sub.Close()

	ids := []string{"n1", "n2", "n3"}
	for _, id := range ids {
		hub.Publish(notificationEvent(t, id, "u1"))
	}

	for range ids {
		select {
		case <-sub.C:
		case <-time.After(time.Second):
			t.Fatal("missing event")
		}
	}
}

func TestHubSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	hub := NewHub(1, nil, nil)
	defer hub.Close()

	slow := hub.Subscribe(authz.CollectionNotifications, authz.Caller{ID: "u1", Role: models.RoleStudent})
	defer slow.Close()
	fast := hub.Subscribe(authz.CollectionNotifications, authz.Caller{ID: "u1", Role: models.RoleStudent})
	defer fast.Close()

	// Slow never drains; with buffer 1 its second event is dropped while the
	// fast consumer keeps receiving.
	for i := 0; i < 3; i++ {
		hub.Publish(notificationEvent(t, "n", "u1"))
		select {
		case <-fast.C:
		case <-time.After(time.Second):
			t.Fatal("fast subscriber starved by slow one")
		}
	}
}

func TestSubscriptionCloseIdempotent(t *testing.T) {
	hub := NewHub(4, nil, nil)
	defer hub.Close()

	sub := hub.Subscribe(authz.CollectionSchedules, authz.Caller{ID: "u1", Role: models.RoleStudent})
	sub.Close()
	sub.Close()

	// Publishing after close must not panic or deliver.
	ev, err := NewEvent(authz.CollectionSchedules, models.Schedule{ID: "s1", OwnerID: "u1"})
	require.NoError(t, err)
	hub.Publish(ev)

	_, ok := <-sub.C
	assert.False(t, ok, "channel should be closed")
}

func TestHubPublishConcurrentWithCloseDoesNotPanic(t *testing.T) {
	hub := NewHub(1, nil, nil)
	defer hub.Close()

	caller := authz.Caller{ID: "u1", Role: models.RoleStudent}
	ev := notificationEvent(t, "n1", "u1")

	// Publishers racing subscribers that close mid-stream must never hit a
	// closed channel.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		sub := hub.Subscribe(authz.CollectionNotifications, caller)
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				hub.Publish(ev)
			}
		}()
		go func(s *Subscription) {
			defer wg.Done()
			s.Close()
		}(sub)
	}
	wg.Wait()

	// The hub stays usable afterwards.
	sub := hub.Subscribe(authz.CollectionNotifications, caller)
	defer sub.Close()
	hub.Publish(ev)
	select {
	case <-sub.C:
	case <-time.After(time.Second):
		t.Fatal("hub stopped delivering after concurrent closes")
	}
}

func TestHubClassScopedDelivery(t *testing.T) {
	hub := NewHub(4, nil, nil)
	defer hub.Close()

	classmate := hub.Subscribe(authz.CollectionUpdates, authz.Caller{ID: "u1", Role: models.RoleStudent, ClassID: "CS-Y2"})
	defer classmate.Close()
	outsider := hub.Subscribe(authz.CollectionUpdates, authz.Caller{ID: "u2", Role: models.RoleStudent, ClassID: "EE-Y1"})
	defer outsider.Close()

	target := "CS-Y2"
	ev, err := NewEvent(authz.CollectionUpdates, models.Update{ID: "a1", LecturerID: "l1", TargetClassID: &target})
	require.NoError(t, err)
	hub.Publish(ev)

	select {
	case got := <-classmate.C:
		assert.Equal(t, ev.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("classmate should receive targeted update")
	}

	select {
	case <-outsider.C:
		t.Fatal("outsider must not receive targeted update")
	default:
	}
}
