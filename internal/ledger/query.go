package ledger

import (
	"context"

	"github.com/dukerupert/desafiados/internal/model"
)

// GetAvailableRewards lists the group's active rewards, newest first, each
// flagged with whether the user can currently afford it.
func (s *Service) GetAvailableRewards(ctx context.Context, userID string, groupID int64) ([]model.AvailableReward, error) {
	balance, err := s.balance(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	var rewards []model.Reward
	err = s.call(ctx, func(ctx context.Context) error {
		var err error
		rewards, err = s.rewards.ListByGroup(ctx, groupID, true)
		return err
	})
	if err != nil {
		return nil, s.translate("list rewards", err, "")
	}

	available := make([]model.AvailableReward, 0, len(rewards))
	for _, r := range rewards {
		available = append(available, model.AvailableReward{
			Reward:     r,
			CanAfford:  balance >= r.PointsRequired,
			UserPoints: balance,
		})
	}
	return available, nil
}

// GetRedemptionHistory returns the user's redemptions, newest first. A nil
// groupID returns history across all groups.
func (s *Service) GetRedemptionHistory(ctx context.Context, userID string, groupID *int64) ([]model.Redemption, error) {
	var history []model.Redemption
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		history, err = s.redemptions.ListByUser(ctx, userID, groupID)
		return err
	})
	if err != nil {
		return nil, s.translate("redemption history", err, "")
	}
	if history == nil {
		history = []model.Redemption{}
	}
	return history, nil
}

// GetRewardRedemptions returns every redemption of one reward, newest first.
func (s *Service) GetRewardRedemptions(ctx context.Context, rewardID int64) ([]model.Redemption, error) {
	if _, err := s.reward(ctx, rewardID); err != nil {
		return nil, err
	}
	var list []model.Redemption
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		list, err = s.redemptions.ListByReward(ctx, rewardID)
		return err
	})
	if err != nil {
		return nil, s.translate("reward redemptions", err, "")
	}
	if list == nil {
		list = []model.Redemption{}
	}
	return list, nil
}

// GetGroupStatistics aggregates redemption activity for a group. A group with
// no redemptions yields zeros.
func (s *Service) GetGroupStatistics(ctx context.Context, groupID int64) (*model.GroupStats, error) {
	var stats *model.GroupStats
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		stats, err = s.redemptions.GroupStats(ctx, groupID)
		return err
	})
	if err != nil {
		return nil, s.translate("group statistics", err, "")
	}
	if stats.RedemptionsByReward == nil {
		stats.RedemptionsByReward = map[string]int{}
	}
	return stats, nil
}

// GetLeaderboard returns the group's members ordered by balance.
func (s *Service) GetLeaderboard(ctx context.Context, groupID int64) ([]model.Membership, error) {
	var members []model.Membership
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		members, err = s.members.ListMembers(ctx, groupID)
		return err
	})
	if err != nil {
		return nil, s.translate("leaderboard", err, "")
	}
	if members == nil {
		members = []model.Membership{}
	}
	return members, nil
}

// GetPointSummary reports the spendable balance alongside lifetime earned
// and spent totals for a membership.
func (s *Service) GetPointSummary(ctx context.Context, userID string, groupID int64) (*model.PointSummary, error) {
	balance, err := s.balance(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	var earned, spent int
	err = s.call(ctx, func(ctx context.Context) error {
		var err error
		if earned, err = s.awards.SumByMember(ctx, userID, groupID); err != nil {
			return err
		}
		spent, err = s.redemptions.SumSpentByMember(ctx, userID, groupID)
		return err
	})
	if err != nil {
		return nil, s.translate("point summary", err, "")
	}

	return &model.PointSummary{
		UserID:         userID,
		GroupID:        groupID,
		Balance:        balance,
		LifetimeEarned: earned,
		TotalSpent:     spent,
	}, nil
}
