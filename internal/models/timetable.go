package models

import "time"

// TimetableEntry is a class-wide lesson slot owned by a lecturer and
// readable by every student in ClassID.
type TimetableEntry struct {
	ID         string    `db:"id" json:"id"`
	LecturerID string    `db:"lecturer_id" json:"lecturer_id"`
	DayOfWeek  string    `db:"day_of_week" json:"day_of_week"`
	StartTime  string    `db:"start_time" json:"start_time"`
	EndTime    string    `db:"end_time" json:"end_time"`
	Subject    string    `db:"subject" json:"subject"`
	ClassID    string    `db:"class_id" json:"class_id"`
	Room       string    `db:"room" json:"room"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Access implements the row contract for the policy evaluator.
func (t TimetableEntry) Access() AccessMeta {
	return AccessMeta{OwnerID: t.LecturerID, ClassID: t.ClassID}
}

// DisplayTime renders the slot as a single display string.
func (t TimetableEntry) DisplayTime() string {
	if t.EndTime == "" {
		return t.StartTime
	}
	return t.StartTime + "-" + t.EndTime
}
