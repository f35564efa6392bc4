package models

import "time"

// Schedule is a personal calendar entry owned by a single user.
type Schedule struct {
	ID         string    `db:"id" json:"id"`
	OwnerID    string    `db:"owner_id" json:"owner_id"`
	Course     string    `db:"course" json:"course"`
	Time       string    `db:"time" json:"time"`
	Location   string    `db:"location" json:"location"`
	Instructor string    `db:"instructor" json:"instructor"`
	Type       string    `db:"type" json:"type"`
	DayOfWeek  string    `db:"day_of_week" json:"day_of_week"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Access implements the row contract for the policy evaluator.
func (s Schedule) Access() AccessMeta {
	return AccessMeta{OwnerID: s.OwnerID}
}

// ScheduleFilter captures list criteria for personal schedules.
type ScheduleFilter struct {
	OwnerID   string
	DayOfWeek string
	Page      int
	PageSize  int
}

// DayViewSource tags where a merged day-view item came from.
type DayViewSource string

const (
	DayViewSourcePersonal DayViewSource = "personal"
	DayViewSourceClass    DayViewSource = "class"
)

// DayViewItem is one entry in the merged day view: either a personal
// schedule row or a class timetable row, normalized for display.
type DayViewItem struct {
	Source   DayViewSource `json:"source"`
	Time     string        `json:"time"`
	Title    string        `json:"title"`
	Location string        `json:"location"`
	With     string        `json:"with,omitempty"`
}
