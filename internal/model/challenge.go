package model

import "time"

const (
	ChallengeStatusPending   = "pending"
	ChallengeStatusActive    = "active"
	ChallengeStatusCompleted = "completed"
	ChallengeStatusRejected  = "rejected"
)

type Challenge struct {
	ID          int64     `json:"id"`
	GroupID     int64     `json:"group_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	Points      int       `json:"points"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Submission is a user's proof of completion for a challenge. Approved is nil
// until the submission has been reviewed.
type Submission struct {
	ID           int64      `json:"id"`
	ChallengeID  int64      `json:"challenge_id"`
	UserID       string     `json:"user_id"`
	ProofURL     string     `json:"proof_url"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	Approved     *bool      `json:"approved"`
	ApprovedAt   *time.Time `json:"approved_at"`
	PointsEarned int        `json:"points_earned"`
}

// Award is the persisted record of points credited for a challenge. There is
// at most one per (user, challenge).
type Award struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	GroupID     int64     `json:"group_id"`
	ChallengeID int64     `json:"challenge_id"`
	Points      int       `json:"points"`
	AwardedAt   time.Time `json:"awarded_at"`
}
