package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campushub/campus-api/internal/models"
)

func strptr(s string) *string { return &s }

func TestAuthorizeOwnership(t *testing.T) {
	owner := Caller{ID: "u1", Role: models.RoleStudent}
	stranger := Caller{ID: "u2", Role: models.RoleStudent}
	schedule := models.Schedule{ID: "s1", OwnerID: "u1"}

	assert.True(t, Authorize(OpRead, CollectionSchedules, owner, schedule))
	assert.True(t, Authorize(OpUpdate, CollectionSchedules, owner, schedule))
	assert.True(t, Authorize(OpDelete, CollectionSchedules, owner, schedule))
	assert.False(t, Authorize(OpRead, CollectionSchedules, stranger, schedule))
	assert.False(t, Authorize(OpUpdate, CollectionSchedules, stranger, schedule))
}

func TestAuthorizeClassScopedRead(t *testing.T) {
	lecturer := Caller{ID: "l1", Role: models.RoleLecturer, ClassID: ""}
	classmate := Caller{ID: "u1", Role: models.RoleStudent, ClassID: "CS-Y2"}
	outsider := Caller{ID: "u2", Role: models.RoleStudent, ClassID: "EE-Y1"}
	entry := models.TimetableEntry{ID: "t1", LecturerID: "l1", ClassID: "CS-Y2"}

	assert.True(t, Authorize(OpRead, CollectionTimetable, lecturer, entry))
	assert.True(t, Authorize(OpRead, CollectionTimetable, classmate, entry))
	assert.False(t, Authorize(OpRead, CollectionTimetable, outsider, entry))

	// Class scope never grants writes.
	assert.False(t, Authorize(OpUpdate, CollectionTimetable, classmate, entry))
	assert.False(t, Authorize(OpDelete, CollectionTimetable, classmate, entry))
	assert.True(t, Authorize(OpUpdate, CollectionTimetable, lecturer, entry))
}

func TestAuthorizeLecturerWriteRequiresRole(t *testing.T) {
	// A student who somehow owns a lecturer-scoped row still cannot write it.
	impostor := Caller{ID: "l1", Role: models.RoleStudent}
	entry := models.TimetableEntry{ID: "t1", LecturerID: "l1", ClassID: "CS-Y2"}

	assert.True(t, Authorize(OpRead, CollectionTimetable, impostor, entry))
	assert.False(t, Authorize(OpCreate, CollectionTimetable, impostor, entry))
	assert.False(t, Authorize(OpUpdate, CollectionTimetable, impostor, entry))
}

func TestAuthorizeBroadcastUpdates(t *testing.T) {
	anyone := Caller{ID: "u9", Role: models.RoleStudent, ClassID: "ME-Y3"}

	broadcast := models.Update{ID: "a1", LecturerID: "l1"}
	assert.True(t, Authorize(OpRead, CollectionUpdates, anyone, broadcast))

	all := models.Update{ID: "a2", LecturerID: "l1", TargetClassID: strptr(models.UpdateBroadcastTarget)}
	assert.True(t, Authorize(OpRead, CollectionUpdates, anyone, all))

	targeted := models.Update{ID: "a3", LecturerID: "l1", TargetClassID: strptr("CS-Y2")}
	assert.False(t, Authorize(OpRead, CollectionUpdates, anyone, targeted))
	assert.True(t, Authorize(OpRead, CollectionUpdates, Caller{ID: "u1", Role: models.RoleStudent, ClassID: "CS-Y2"}, targeted))
}

func TestAuthorizePersonalCollectionsNeverClassReadable(t *testing.T) {
	classmate := Caller{ID: "u2", Role: models.RoleStudent, ClassID: "CS-Y2"}
	notification := models.Notification{ID: "n1", OwnerID: "u1"}

	assert.False(t, Authorize(OpRead, CollectionNotifications, classmate, notification))
}

func TestAuthorizeAnonymousDenied(t *testing.T) {
	assert.False(t, Authorize(OpRead, CollectionUpdates, Caller{}, models.Update{ID: "a1", LecturerID: "l1"}))
}
