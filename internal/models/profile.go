package models

import "time"

// Profile holds the public identity attributes of an account, created
// automatically on registration. ClassID is the canonical scoping attribute
// used for class-wide read grants.
type Profile struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	FullName   string    `db:"full_name" json:"full_name"`
	Email      string    `db:"email" json:"email"`
	Role       Role      `db:"role" json:"role"`
	Department string    `db:"department" json:"department"`
	ClassID    string    `db:"class_id" json:"class_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Access implements the row contract for the policy evaluator.
func (p Profile) Access() AccessMeta {
	return AccessMeta{OwnerID: p.UserID}
}
