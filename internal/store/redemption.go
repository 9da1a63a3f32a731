package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/desafiados/internal/model"
)

// RedemptionStore appends and reads reward_redemptions. Rows are never
// updated or deleted; triggers in the schema reject both.
type RedemptionStore struct {
	db *sql.DB
}

func NewRedemptionStore(db *sql.DB) *RedemptionStore {
	return &RedemptionStore{db: db}
}

func scanRedemption(scanner interface{ Scan(...any) error }) (*model.Redemption, error) {
	var r model.Redemption
	err := scanner.Scan(&r.ID, &r.UserID, &r.RewardID, &r.PointsSpent, &r.RedeemedAt, &r.GroupID, &r.RewardName)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const redemptionSelect = `SELECT rr.id, rr.user_id, rr.reward_id, rr.points_spent, rr.redeemed_at, r.group_id, r.name
	FROM reward_redemptions rr
	JOIN rewards r ON r.id = rr.reward_id`

// Create appends a redemption. The insert is the last statement so that a
// returned error always means no row was written.
func (s *RedemptionStore) Create(ctx context.Context, userID string, rewardID int64, pointsSpent int) (*model.Redemption, error) {
	r := model.Redemption{
		UserID:      userID,
		RewardID:    rewardID,
		PointsSpent: pointsSpent,
		RedeemedAt:  time.Now().UTC(),
	}
	err := s.db.QueryRowContext(ctx,
		`SELECT group_id, name FROM rewards WHERE id = ?`, rewardID,
	).Scan(&r.GroupID, &r.RewardName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("insert redemption: reward %d: %w", rewardID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("insert redemption: %w", classify(err))
	}

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO reward_redemptions (user_id, reward_id, points_spent, redeemed_at) VALUES (?, ?, ?, ?)
		 RETURNING id`,
		userID, rewardID, pointsSpent, r.RedeemedAt,
	).Scan(&r.ID)
	if err != nil {
		return nil, fmt.Errorf("insert redemption: %w", classify(err))
	}
	return &r, nil
}

func (s *RedemptionStore) list(ctx context.Context, where string, args ...any) ([]model.Redemption, error) {
	rows, err := s.db.QueryContext(ctx,
		redemptionSelect+` WHERE `+where+` ORDER BY rr.redeemed_at DESC, rr.id DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list redemptions: %w", classify(err))
	}
	defer rows.Close()

	var redemptions []model.Redemption
	for rows.Next() {
		r, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}
		redemptions = append(redemptions, *r)
	}
	return redemptions, rows.Err()
}

// ListByUser returns a user's redemptions, most recent first, optionally
// limited to rewards of one group.
func (s *RedemptionStore) ListByUser(ctx context.Context, userID string, groupID *int64) ([]model.Redemption, error) {
	if groupID != nil {
		return s.list(ctx, `rr.user_id = ? AND r.group_id = ?`, userID, *groupID)
	}
	return s.list(ctx, `rr.user_id = ?`, userID)
}

// ListByReward returns every redemption of a reward, most recent first.
func (s *RedemptionStore) ListByReward(ctx context.Context, rewardID int64) ([]model.Redemption, error) {
	return s.list(ctx, `rr.reward_id = ?`, rewardID)
}

// GroupStats aggregates all redemptions of rewards owned by the group.
func (s *RedemptionStore) GroupStats(ctx context.Context, groupID int64) (*model.GroupStats, error) {
	stats := &model.GroupStats{
		GroupID:             groupID,
		RedemptionsByReward: map[string]int{},
	}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(rr.points_spent), 0), COUNT(DISTINCT rr.user_id)
		 FROM reward_redemptions rr
		 JOIN rewards r ON r.id = rr.reward_id
		 WHERE r.group_id = ?`,
		groupID,
	).Scan(&stats.TotalRedemptions, &stats.TotalPointsSpent, &stats.UniqueRedeemers)
	if err != nil {
		return nil, fmt.Errorf("group redemption totals: %w", classify(err))
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.name, COUNT(*)
		 FROM reward_redemptions rr
		 JOIN rewards r ON r.id = rr.reward_id
		 WHERE r.group_id = ?
		 GROUP BY r.name`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("group redemptions by reward: %w", classify(err))
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("scan reward count: %w", err)
		}
		stats.RedemptionsByReward[name] = count
	}
	return stats, rows.Err()
}

// SumSpentByMember returns the total points a user has spent on rewards of a
// group.
func (s *RedemptionStore) SumSpentByMember(ctx context.Context, userID string, groupID int64) (int, error) {
	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(rr.points_spent), 0)
		 FROM reward_redemptions rr
		 JOIN rewards r ON r.id = rr.reward_id
		 WHERE rr.user_id = ? AND r.group_id = ?`,
		userID, groupID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum points spent: %w", classify(err))
	}
	return int(total.Int64), nil
}
