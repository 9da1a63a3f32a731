package ledger

import (
	"errors"
	"fmt"

	"github.com/dukerupert/desafiados/internal/model"
)

// MaxAwardPoints bounds a single award.
const MaxAwardPoints = 1_000_000

var (
	// ErrInvalidAmount is returned when an award amount is not within
	// 1..MaxAwardPoints.
	ErrInvalidAmount = fmt.Errorf("amount must be between 1 and %d", MaxAwardPoints)
	// ErrBalanceLimit is returned when a credit would push a balance past
	// the store ceiling. It is permanent.
	ErrBalanceLimit = errors.New("balance limit exceeded")
)

// NotFoundError reports a missing reward or membership. It is permanent.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// RewardInactiveError reports a redemption attempt on a deactivated reward.
type RewardInactiveError struct {
	RewardID int64
}

func (e *RewardInactiveError) Error() string {
	return fmt.Sprintf("reward %d is not active", e.RewardID)
}

// InsufficientBalanceError carries the exact balance and price so callers can
// show both.
type InsufficientBalanceError struct {
	Current  int
	Required int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient points: you have %d points but need %d points", e.Current, e.Required)
}

// DuplicateAwardError is returned when a challenge was already credited to
// the user. Callers treat it as a successful no-op; Award is the original
// record.
type DuplicateAwardError struct {
	UserID      string
	ChallengeID int64
	Award       *model.Award
}

func (e *DuplicateAwardError) Error() string {
	return fmt.Sprintf("points for challenge %d already awarded to %s", e.ChallengeID, e.UserID)
}

// MembershipRequiredError is returned when points are awarded to a user who
// is not a member of the group.
type MembershipRequiredError struct {
	UserID  string
	GroupID int64
}

func (e *MembershipRequiredError) Error() string {
	return fmt.Sprintf("user %s is not a member of group %d", e.UserID, e.GroupID)
}

// TransientError wraps a storage failure that is safe to retry from scratch.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: temporary storage failure: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PersistenceError is returned when a later step of a multi-step mutation
// failed after an earlier step was applied. Restored reports whether the
// compensating step put the balance back. When it is false the ledger needs
// manual reconciliation.
type PersistenceError struct {
	Op              string
	Err             error
	CompensationErr error
	Restored        bool
}

func (e *PersistenceError) Error() string {
	if e.Restored {
		return fmt.Sprintf("%s: %v (changes rolled back)", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v; rollback failed: %v", e.Op, e.Err, e.CompensationErr)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the whole operation may be attempted again.
// A PersistenceError whose rollback failed is never retryable.
func IsRetryable(err error) bool {
	var pe *PersistenceError
	if errors.As(err, &pe) && !pe.Restored {
		return false
	}
	var te *TransientError
	return errors.As(err, &te)
}

// IsDuplicateAward reports whether err means the award already existed.
func IsDuplicateAward(err error) bool {
	var de *DuplicateAwardError
	return errors.As(err, &de)
}
