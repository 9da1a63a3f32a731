package model

import "time"

type Reward struct {
	ID             int64     `json:"id"`
	GroupID        int64     `json:"group_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	PointsRequired int       `json:"points_required"`
	IsActive       bool      `json:"is_active"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Redemption is an append-only record of a point spend. PointsSpent is the
// reward price at the time of redemption. GroupID and RewardName are joined
// from the reward when read.
type Redemption struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	RewardID    int64     `json:"reward_id"`
	PointsSpent int       `json:"points_spent"`
	RedeemedAt  time.Time `json:"redeemed_at"`
	GroupID     int64     `json:"group_id"`
	RewardName  string    `json:"reward_name"`
}

type AvailableReward struct {
	Reward
	CanAfford  bool `json:"can_afford"`
	UserPoints int  `json:"user_points"`
}

type RedeemCheck struct {
	CanRedeem      bool `json:"can_redeem"`
	UserPoints     int  `json:"user_points"`
	RequiredPoints int  `json:"required_points"`
	Active         bool `json:"active"`
}

type GroupStats struct {
	GroupID             int64          `json:"group_id"`
	TotalRedemptions    int            `json:"total_redemptions"`
	TotalPointsSpent    int            `json:"total_points_spent"`
	UniqueRedeemers     int            `json:"unique_redeemers"`
	RedemptionsByReward map[string]int `json:"redemptions_by_reward"`
}

// PointSummary separates the spendable balance from the lifetime figures,
// which are read-only aggregates over awards and redemptions.
type PointSummary struct {
	UserID         string `json:"user_id"`
	GroupID        int64  `json:"group_id"`
	Balance        int    `json:"balance"`
	LifetimeEarned int    `json:"lifetime_earned"`
	TotalSpent     int    `json:"total_spent"`
}
