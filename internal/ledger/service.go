// Package ledger implements the points ledger: awarding points for approved
// challenges, redeeming rewards without double-spending, and the read-side
// queries built on top of the balances.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dukerupert/desafiados/internal/metrics"
	"github.com/dukerupert/desafiados/internal/model"
	"github.com/dukerupert/desafiados/internal/store"
)

const tracerName = "github.com/dukerupert/desafiados/internal/ledger"

// DefaultStoreTimeout bounds every individual storage call.
const DefaultStoreTimeout = 3 * time.Second

// compensationAttempts is the number of retries for a compensating write.
const compensationAttempts = 3

// Balances is the atomic balance primitive. AdjustBalance must refuse any
// delta that would leave the balance negative.
type Balances interface {
	GetBalance(ctx context.Context, userID string, groupID int64) (int, error)
	AdjustBalance(ctx context.Context, userID string, groupID int64, delta int) (int, error)
}

type Rewards interface {
	GetByID(ctx context.Context, id int64) (*model.Reward, error)
	ListByGroup(ctx context.Context, groupID int64, activeOnly bool) ([]model.Reward, error)
}

type Redemptions interface {
	Create(ctx context.Context, userID string, rewardID int64, pointsSpent int) (*model.Redemption, error)
	ListByUser(ctx context.Context, userID string, groupID *int64) ([]model.Redemption, error)
	ListByReward(ctx context.Context, rewardID int64) ([]model.Redemption, error)
	GroupStats(ctx context.Context, groupID int64) (*model.GroupStats, error)
	SumSpentByMember(ctx context.Context, userID string, groupID int64) (int, error)
}

type Awards interface {
	Create(ctx context.Context, userID string, groupID, challengeID int64, points int) (*model.Award, error)
	GetByUserChallenge(ctx context.Context, userID string, challengeID int64) (*model.Award, error)
	Delete(ctx context.Context, id int64) error
	SumByMember(ctx context.Context, userID string, groupID int64) (int, error)
}

type Members interface {
	ListMembers(ctx context.Context, groupID int64) ([]model.Membership, error)
}

// Stores groups the storage dependencies of a Service.
type Stores struct {
	Balances    Balances
	Rewards     Rewards
	Redemptions Redemptions
	Awards      Awards
	Members     Members
}

// NewStores wires the SQLite stores for db.
func NewStores(db *sql.DB) Stores {
	return Stores{
		Balances:    store.NewBalanceStore(db),
		Rewards:     store.NewRewardStore(db),
		Redemptions: store.NewRedemptionStore(db),
		Awards:      store.NewAwardStore(db),
		Members:     store.NewGroupStore(db),
	}
}

type Service struct {
	balances     Balances
	rewards      Rewards
	redemptions  Redemptions
	awards       Awards
	members      Members
	storeTimeout time.Duration
	logger       *slog.Logger
	metrics      *metrics.Ledger
	tracer       trace.Tracer
}

type Option func(*Service)

// WithStoreTimeout sets the deadline applied to each storage call. A call
// that exceeds it fails with a TransientError.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m *metrics.Ledger) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func New(stores Stores, opts ...Option) *Service {
	s := &Service{
		balances:     stores.Balances,
		rewards:      stores.Rewards,
		redemptions:  stores.Redemptions,
		awards:       stores.Awards,
		members:      stores.Members,
		storeTimeout: DefaultStoreTimeout,
		logger:       slog.Default(),
		tracer:       otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetBalance returns the spendable balance of a membership.
func (s *Service) GetBalance(ctx context.Context, userID string, groupID int64) (int, error) {
	points, err := s.balance(ctx, userID, groupID)
	if err != nil {
		return 0, err
	}
	return points, nil
}

// AdjustBalance applies delta atomically and returns the new balance. A
// debit larger than the balance fails with *InsufficientBalanceError.
func (s *Service) AdjustBalance(ctx context.Context, userID string, groupID int64, delta int) (int, error) {
	var points int
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		points, err = s.balances.AdjustBalance(ctx, userID, groupID, delta)
		return err
	})
	if err != nil {
		var be *store.BalanceError
		if errors.As(err, &be) {
			return 0, &InsufficientBalanceError{Current: be.Current, Required: -delta}
		}
		if errors.Is(err, store.ErrBalanceLimit) {
			return 0, fmt.Errorf("adjust balance %s: %w", membershipID(userID, groupID), ErrBalanceLimit)
		}
		return 0, s.translate("adjust balance", err, membershipID(userID, groupID))
	}
	return points, nil
}

func (s *Service) balance(ctx context.Context, userID string, groupID int64) (int, error) {
	var points int
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		points, err = s.balances.GetBalance(ctx, userID, groupID)
		return err
	})
	if err != nil {
		return 0, s.translate("get balance", err, membershipID(userID, groupID))
	}
	return points, nil
}

func (s *Service) reward(ctx context.Context, rewardID int64) (*model.Reward, error) {
	var reward *model.Reward
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		reward, err = s.rewards.GetByID(ctx, rewardID)
		return err
	})
	if err != nil {
		return nil, s.translate("get reward", err, "")
	}
	if reward == nil {
		return nil, &NotFoundError{Entity: "reward", ID: fmt.Sprint(rewardID)}
	}
	return reward, nil
}

// call runs fn under the per-call storage deadline.
func (s *Service) call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return fn(ctx)
}

// translate maps store sentinels onto the ledger error types. membership
// names the membership for not-found errors; empty leaves ErrNotFound
// wrapped as is.
func (s *Service) translate(op string, err error, membership string) error {
	switch {
	case errors.Is(err, store.ErrTransient), errors.Is(err, context.DeadlineExceeded):
		return &TransientError{Op: op, Err: err}
	case errors.Is(err, store.ErrNotFound) && membership != "":
		return &NotFoundError{Entity: "membership", ID: membership}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// compensate undoes an applied step after a later step failed. It runs on a
// context detached from the caller so a cancelled request cannot leave the
// ledger half-applied.
func (s *Service) compensate(ctx context.Context, op string, cause error, undo func(ctx context.Context) error) *PersistenceError {
	ctx = context.WithoutCancel(ctx)
	err := Retry(ctx, compensationAttempts, func(ctx context.Context) error {
		if err := s.call(ctx, undo); err != nil {
			return s.translate(op+" rollback", err, "")
		}
		return nil
	})
	if err != nil {
		s.logger.Error("ledger inconsistent, manual reconciliation required",
			"op", op, "error", cause, "rollback_error", err)
		return &PersistenceError{Op: op, Err: cause, CompensationErr: err}
	}
	s.logger.Warn("ledger operation rolled back", "op", op, "error", cause)
	return &PersistenceError{Op: op, Err: cause, Restored: true}
}

func endSpan(span trace.Span, err error) {
	if err != nil && !IsDuplicateAward(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func membershipID(userID string, groupID int64) string {
	return fmt.Sprintf("%s/%d", userID, groupID)
}

// outcome labels err for the ledger metrics.
func outcome(err error, success string) string {
	var (
		ib *InsufficientBalanceError
		ri *RewardInactiveError
		nf *NotFoundError
		mr *MembershipRequiredError
		te *TransientError
		pe *PersistenceError
	)
	switch {
	case err == nil:
		return success
	case IsDuplicateAward(err):
		return metrics.OutcomeDuplicate
	case errors.As(err, &pe):
		if pe.Restored {
			return metrics.OutcomeRolledBack
		}
		return metrics.OutcomeInconsistent
	case errors.As(err, &ib):
		return metrics.OutcomeInsufficient
	case errors.As(err, &ri):
		return metrics.OutcomeInactive
	case errors.As(err, &nf), errors.As(err, &mr):
		return metrics.OutcomeNotFound
	case errors.As(err, &te):
		return metrics.OutcomeTransient
	}
	return metrics.OutcomeError
}
