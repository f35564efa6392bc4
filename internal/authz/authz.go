package authz

import (
	"github.com/campushub/campus-api/internal/models"
)

// Operation is the kind of access being evaluated.
type Operation string

const (
	OpRead   Operation = "read"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Collection names the entity collections guarded by ownership policies.
type Collection string

const (
	CollectionProfiles          Collection = "profiles"
	CollectionSchedules         Collection = "schedules"
	CollectionAppointments      Collection = "appointments"
	CollectionFeedback          Collection = "feedback"
	CollectionNotifications     Collection = "notifications"
	CollectionPushSubscriptions Collection = "push_subscriptions"
	CollectionRosterStudents    Collection = "roster_students"
	CollectionTimetable         Collection = "timetable_entries"
	CollectionAssignments       Collection = "assignments"
	CollectionConsultations     Collection = "consultations"
	CollectionReports           Collection = "reports"
	CollectionStudyMaterials    Collection = "study_materials"
	CollectionUpdates           Collection = "updates"
)

// Caller is the authenticated identity every store and feed call receives
// explicitly. There is no ambient current-user state anywhere in the core.
type Caller struct {
	ID      string
	Role    models.Role
	ClassID string
}

// Row is any entity row that exposes its access attributes.
type Row interface {
	Access() models.AccessMeta
}

// classReadable lists collections where read access is additionally granted
// to callers whose class matches the row's class scope.
var classReadable = map[Collection]bool{
	CollectionTimetable:      true,
	CollectionAssignments:    true,
	CollectionStudyMaterials: true,
	CollectionUpdates:        true,
}

// lecturerOwned lists collections whose rows may only be written by a
// caller holding the lecturer role.
var lecturerOwned = map[Collection]bool{
	CollectionRosterStudents: true,
	CollectionTimetable:      true,
	CollectionAssignments:    true,
	CollectionConsultations:  true,
	CollectionReports:        true,
	CollectionStudyMaterials: true,
	CollectionUpdates:        true,
}

// Authorize is the pure ownership predicate: it decides whether caller may
// perform op against row in collection. It is evaluated on every operation
// and on every change-feed event before delivery; ownership is per-row,
// never per-session.
func Authorize(op Operation, collection Collection, caller Caller, row Row) bool {
	if caller.ID == "" {
		return false
	}
	meta := row.Access()

	if meta.OwnerID == caller.ID {
		if lecturerOwned[collection] && op != OpRead && caller.Role != models.RoleLecturer {
			return false
		}
		return true
	}

	// Non-owners only ever get read access, and only through class scope.
	if op != OpRead || !classReadable[collection] {
		return false
	}
	if meta.Broadcast {
		return true
	}
	return meta.ClassID != "" && meta.ClassID == caller.ClassID
}

// CanRead is shorthand used by list filters and the change feed.
func CanRead(collection Collection, caller Caller, row Row) bool {
	return Authorize(OpRead, collection, caller, row)
}
