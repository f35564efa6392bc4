package models

import "time"

// PushSubscription stores the opaque delivery-channel descriptor registered
// by a client device. Actual message delivery is an external collaborator's
// responsibility; this row is only stored and retrieved.
type PushSubscription struct {
	ID        string    `db:"id" json:"id"`
	OwnerID   string    `db:"owner_id" json:"owner_id"`
	Endpoint  string    `db:"endpoint" json:"endpoint"`
	P256DH    string    `db:"p256dh" json:"p256dh"`
	Auth      string    `db:"auth" json:"auth"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Access implements the row contract for the policy evaluator.
func (p PushSubscription) Access() AccessMeta {
	return AccessMeta{OwnerID: p.OwnerID}
}
