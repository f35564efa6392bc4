package models

import "time"

// FeedbackPriority enumerates feedback priority levels.
type FeedbackPriority string

const (
	FeedbackPriorityLow    FeedbackPriority = "LOW"
	FeedbackPriorityMedium FeedbackPriority = "MEDIUM"
	FeedbackPriorityHigh   FeedbackPriority = "HIGH"
)

// FeedbackStatus enumerates the feedback resolution lifecycle.
type FeedbackStatus string

const (
	FeedbackUnderReview FeedbackStatus = "UNDER_REVIEW"
	FeedbackInProgress  FeedbackStatus = "IN_PROGRESS"
	FeedbackResolved    FeedbackStatus = "RESOLVED"
	FeedbackClosed      FeedbackStatus = "CLOSED"
)

// Feedback is a report or suggestion owned by a user. Response and status
// transitions are written by an administrator collaborator; everything else
// only by the owner.
type Feedback struct {
	ID          string           `db:"id" json:"id"`
	OwnerID     string           `db:"owner_id" json:"owner_id"`
	Type        string           `db:"type" json:"type"`
	Subject     string           `db:"subject" json:"subject"`
	Description string           `db:"description" json:"description"`
	Priority    FeedbackPriority `db:"priority" json:"priority"`
	Rating      *int             `db:"rating" json:"rating,omitempty"`
	Status      FeedbackStatus   `db:"status" json:"status"`
	Response    *string          `db:"response" json:"response,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// Access implements the row contract for the policy evaluator.
func (f Feedback) Access() AccessMeta {
	return AccessMeta{OwnerID: f.OwnerID}
}
