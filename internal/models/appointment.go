package models

import "time"

// AppointmentStatus enumerates the appointment lifecycle.
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "PENDING"
	AppointmentApproved  AppointmentStatus = "APPROVED"
	AppointmentDeclined  AppointmentStatus = "DECLINED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
)

// Appointment is a service booking owned by a single user.
type Appointment struct {
	ID          string            `db:"id" json:"id"`
	OwnerID     string            `db:"owner_id" json:"owner_id"`
	ServiceType string            `db:"service_type" json:"service_type"`
	Date        string            `db:"date" json:"date"`
	Time        string            `db:"time" json:"time"`
	Status      AppointmentStatus `db:"status" json:"status"`
	WithPerson  string            `db:"with_person" json:"with_person"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

// Access implements the row contract for the policy evaluator.
func (a Appointment) Access() AccessMeta {
	return AccessMeta{OwnerID: a.OwnerID}
}
