package ledger

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dukerupert/desafiados/internal/metrics"
	"github.com/dukerupert/desafiados/internal/model"
)

// Redeem spends the reward's current price from the user's balance in the
// reward's group and records the redemption. The debit is a single
// conditional update, so concurrent redemptions can never take the balance
// below zero. If recording fails after the debit, the debit is reversed and
// a *PersistenceError is returned.
func (s *Service) Redeem(ctx context.Context, userID string, rewardID int64) (red *model.Redemption, err error) {
	start := time.Now()
	price := 0
	ctx, span := s.tracer.Start(ctx, "ledger.Redeem", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.Int64("reward.id", rewardID),
	))
	defer func() {
		s.metrics.ObserveRedemption(outcome(err, metrics.OutcomeRedeemed), price)
		s.metrics.ObserveDuration("redeem", time.Since(start))
		endSpan(span, err)
	}()

	reward, err := s.reward(ctx, rewardID)
	if err != nil {
		return nil, err
	}
	if !reward.IsActive {
		return nil, &RewardInactiveError{RewardID: rewardID}
	}
	price = reward.PointsRequired
	groupID := reward.GroupID
	span.SetAttributes(attribute.Int64("group.id", groupID), attribute.Int("points", price))

	balance, err := s.balance(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	if balance < price {
		return nil, &InsufficientBalanceError{Current: balance, Required: price}
	}

	// The pre-check above is advisory; the conditional debit is authoritative.
	remaining, err := s.AdjustBalance(ctx, userID, groupID, -price)
	if err != nil {
		var ib *InsufficientBalanceError
		if errors.As(err, &ib) {
			ib.Required = price
		}
		return nil, err
	}

	err = s.call(ctx, func(ctx context.Context) error {
		var err error
		red, err = s.redemptions.Create(ctx, userID, rewardID, price)
		return err
	})
	if err != nil {
		cause := s.translate("record redemption", err, "")
		return nil, s.compensate(ctx, "redeem", cause, func(ctx context.Context) error {
			_, err := s.balances.AdjustBalance(ctx, userID, groupID, price)
			return err
		})
	}

	s.logger.Info("reward redeemed",
		"user_id", userID,
		"group_id", groupID,
		"reward_id", rewardID,
		"redemption_id", red.ID,
		"points_spent", price,
		"balance", remaining,
	)
	return red, nil
}

// CanRedeem reports whether the user could redeem the reward right now. It
// is advisory only and does not reserve anything.
func (s *Service) CanRedeem(ctx context.Context, userID string, rewardID int64) (*model.RedeemCheck, error) {
	reward, err := s.reward(ctx, rewardID)
	if err != nil {
		return nil, err
	}
	balance, err := s.balance(ctx, userID, reward.GroupID)
	if err != nil {
		return nil, err
	}
	return &model.RedeemCheck{
		CanRedeem:      reward.IsActive && balance >= reward.PointsRequired,
		UserPoints:     balance,
		RequiredPoints: reward.PointsRequired,
		Active:         reward.IsActive,
	}, nil
}
