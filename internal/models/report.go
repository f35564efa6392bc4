package models

import "time"

// ReportType distinguishes reports a lecturer sent from ones received.
type ReportType string

const (
	ReportSent     ReportType = "SENT"
	ReportReceived ReportType = "RECEIVED"
)

// Report is a lecturer-owned student report.
type Report struct {
	ID          string     `db:"id" json:"id"`
	LecturerID  string     `db:"lecturer_id" json:"lecturer_id"`
	ReportType  ReportType `db:"report_type" json:"report_type"`
	StudentName string     `db:"student_name" json:"student_name"`
	Title       string     `db:"title" json:"title"`
	Content     string     `db:"content" json:"content"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Access implements the row contract for the policy evaluator.
func (r Report) Access() AccessMeta {
	return AccessMeta{OwnerID: r.LecturerID}
}
