package models

import "time"

// UpdateBroadcastTarget is the TargetClassID value meaning "every class".
const UpdateBroadcastTarget = "all"

// Update is a lecturer announcement. A nil or "all" TargetClassID makes the
// update visible to everyone; otherwise only the targeted class reads it.
type Update struct {
	ID            string    `db:"id" json:"id"`
	LecturerID    string    `db:"lecturer_id" json:"lecturer_id"`
	Title         string    `db:"title" json:"title"`
	Content       string    `db:"content" json:"content"`
	TargetClassID *string   `db:"target_class_id" json:"target_class_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Access implements the row contract for the policy evaluator.
func (u Update) Access() AccessMeta {
	meta := AccessMeta{OwnerID: u.LecturerID}
	if u.TargetClassID == nil || *u.TargetClassID == "" || *u.TargetClassID == UpdateBroadcastTarget {
		meta.Broadcast = true
	} else {
		meta.ClassID = *u.TargetClassID
	}
	return meta
}
