package models

import (
	"encoding/json"
	"time"
)

// Notification is an append-only row owned by a user. The read flag is the
// only mutable field and moves false -> true exactly once. Metadata is an
// opaque side-channel attached by producers; the server never inspects it.
type Notification struct {
	ID        string          `db:"id" json:"id"`
	OwnerID   string          `db:"owner_id" json:"owner_id"`
	Title     string          `db:"title" json:"title"`
	Message   string          `db:"message" json:"message"`
	Type      string          `db:"type" json:"type"`
	Read      bool            `db:"read" json:"read"`
	Metadata  json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// Access implements the row contract for the policy evaluator.
func (n Notification) Access() AccessMeta {
	return AccessMeta{OwnerID: n.OwnerID}
}
