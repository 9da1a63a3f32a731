package model

import "time"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Group struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	AdminID     string    `json:"admin_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Membership is a user's participation in a group. Points is the spendable
// balance and is never negative.
type Membership struct {
	UserID   string    `json:"user_id"`
	GroupID  int64     `json:"group_id"`
	Role     string    `json:"role"`
	Points   int       `json:"points"`
	JoinedAt time.Time `json:"joined_at"`
}

func (m Membership) IsAdmin() bool {
	return m.Role == RoleAdmin
}
