package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dukerupert/desafiados/internal/metrics"
	"github.com/dukerupert/desafiados/internal/model"
	"github.com/dukerupert/desafiados/internal/store"
)

// AwardReason identifies what the points are for. Each (user, challenge)
// pair is credited at most once.
type AwardReason struct {
	ChallengeID int64
}

// AwardPoints credits amount points to the user's balance in groupID. A
// repeat for the same reason returns *DuplicateAwardError carrying the
// original award and leaves the balance unchanged.
func (s *Service) AwardPoints(ctx context.Context, userID string, groupID int64, amount int, reason AwardReason) (award *model.Award, err error) {
	challengeID := reason.ChallengeID
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "ledger.AwardPoints", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.Int64("group.id", groupID),
		attribute.Int64("challenge.id", challengeID),
		attribute.Int("points", amount),
	))
	defer func() {
		s.metrics.ObserveAward(outcome(err, metrics.OutcomeGranted), amount)
		s.metrics.ObserveDuration("award", time.Since(start))
		endSpan(span, err)
	}()

	if amount <= 0 || amount > MaxAwardPoints {
		return nil, fmt.Errorf("award points: %w", ErrInvalidAmount)
	}

	existing, err := s.existingAward(ctx, userID, challengeID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, s.duplicate(existing)
	}

	if _, err := s.balance(ctx, userID, groupID); err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return nil, &MembershipRequiredError{UserID: userID, GroupID: groupID}
		}
		return nil, err
	}

	err = s.call(ctx, func(ctx context.Context) error {
		var err error
		award, err = s.awards.Create(ctx, userID, groupID, challengeID, amount)
		return err
	})
	if errors.Is(err, store.ErrDuplicate) {
		// Lost a race with a concurrent award for the same challenge.
		existing, lookupErr := s.existingAward(ctx, userID, challengeID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if existing != nil {
			return nil, s.duplicate(existing)
		}
	}
	if err != nil {
		return nil, s.translate("record award", err, "")
	}

	balance, err := s.AdjustBalance(ctx, userID, groupID, amount)
	if err != nil {
		awardID := award.ID
		pe := s.compensate(ctx, "award points", err, func(ctx context.Context) error {
			return s.awards.Delete(ctx, awardID)
		})
		var nf *NotFoundError
		if pe.Restored && errors.As(err, &nf) {
			return nil, &MembershipRequiredError{UserID: userID, GroupID: groupID}
		}
		if pe.Restored && errors.Is(err, ErrBalanceLimit) {
			return nil, fmt.Errorf("award points: %w", err)
		}
		return nil, pe
	}

	s.logger.Info("points awarded",
		"user_id", userID,
		"group_id", groupID,
		"challenge_id", challengeID,
		"points", amount,
		"balance", balance,
	)
	return award, nil
}

func (s *Service) existingAward(ctx context.Context, userID string, challengeID int64) (*model.Award, error) {
	var award *model.Award
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		award, err = s.awards.GetByUserChallenge(ctx, userID, challengeID)
		return err
	})
	if err != nil {
		return nil, s.translate("get award", err, "")
	}
	return award, nil
}

func (s *Service) duplicate(existing *model.Award) error {
	s.logger.Info("award already granted",
		"user_id", existing.UserID,
		"challenge_id", existing.ChallengeID,
		"award_id", existing.ID,
	)
	return &DuplicateAwardError{UserID: existing.UserID, ChallengeID: existing.ChallengeID, Award: existing}
}
