package models

import "time"

// RosterStudent is a student entry in a lecturer's class roster. StudentID
// is the human-facing matriculation number and is unique per roster.
type RosterStudent struct {
	ID          string    `db:"id" json:"id"`
	LecturerID  string    `db:"lecturer_id" json:"lecturer_id"`
	StudentName string    `db:"student_name" json:"student_name"`
	StudentID   string    `db:"student_id" json:"student_id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Access implements the row contract for the policy evaluator.
func (r RosterStudent) Access() AccessMeta {
	return AccessMeta{OwnerID: r.LecturerID}
}
