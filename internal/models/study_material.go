package models

import "time"

// StudyMaterial is lecturer-owned course material readable by ClassID.
// FileURL, when set, points at an uploaded document served through signed
// download links.
type StudyMaterial struct {
	ID         string    `db:"id" json:"id"`
	LecturerID string    `db:"lecturer_id" json:"lecturer_id"`
	Title      string    `db:"title" json:"title"`
	FileURL    *string   `db:"file_url" json:"file_url,omitempty"`
	ClassID    string    `db:"class_id" json:"class_id"`
	Subject    string    `db:"subject" json:"subject"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Access implements the row contract for the policy evaluator.
func (m StudyMaterial) Access() AccessMeta {
	return AccessMeta{OwnerID: m.LecturerID, ClassID: m.ClassID}
}
