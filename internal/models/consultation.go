package models

import "time"

// ConsultationStatus enumerates the consultation request lifecycle.
type ConsultationStatus string

const (
	ConsultationPending  ConsultationStatus = "PENDING"
	ConsultationApproved ConsultationStatus = "APPROVED"
	ConsultationDeclined ConsultationStatus = "DECLINED"
)

// Consultation is a student consultation request tracked by a lecturer.
type Consultation struct {
	ID          string             `db:"id" json:"id"`
	LecturerID  string             `db:"lecturer_id" json:"lecturer_id"`
	StudentName string             `db:"student_name" json:"student_name"`
	Date        string             `db:"date" json:"date"`
	Reason      string             `db:"reason" json:"reason"`
	Status      ConsultationStatus `db:"status" json:"status"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `db:"updated_at" json:"updated_at"`
}

// Access implements the row contract for the policy evaluator.
func (c Consultation) Access() AccessMeta {
	return AccessMeta{OwnerID: c.LecturerID}
}
