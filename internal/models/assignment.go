package models

import "time"

// Assignment is lecturer-owned and readable by every student in ClassID.
type Assignment struct {
	ID             string    `db:"id" json:"id"`
	LecturerID     string    `db:"lecturer_id" json:"lecturer_id"`
	Title          string    `db:"title" json:"title"`
	ClassID        string    `db:"class_id" json:"class_id"`
	SubmissionDate string    `db:"submission_date" json:"submission_date"`
	PortalOpen     bool      `db:"portal_open" json:"portal_open"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Access implements the row contract for the policy evaluator.
func (a Assignment) Access() AccessMeta {
	return AccessMeta{OwnerID: a.LecturerID, ClassID: a.ClassID}
}
