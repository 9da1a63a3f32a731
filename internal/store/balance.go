package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// BalanceStore owns the spendable point totals on memberships. Balances only
// change through AdjustBalance, which applies the delta and the
// non-negativity check in one statement.
type BalanceStore struct {
	db *sql.DB
}

func NewBalanceStore(db *sql.DB) *BalanceStore {
	return &BalanceStore{db: db}
}

// GetBalance returns the current points for a membership, or ErrNotFound.
func (s *BalanceStore) GetBalance(ctx context.Context, userID string, groupID int64) (int, error) {
	var points int
	err := s.db.QueryRowContext(ctx,
		`SELECT points FROM memberships WHERE user_id = ? AND group_id = ?`,
		userID, groupID,
	).Scan(&points)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("get balance: %w", ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", classify(err))
	}
	return points, nil
}

// MaxBalance is the largest balance a membership may hold.
const MaxBalance = 1_000_000_000

// AdjustBalance atomically adds delta to the balance and returns the new
// value. A delta that would take the balance below zero is refused with a
// *BalanceError, one that would take it above MaxBalance with
// ErrBalanceLimit. Refused deltas leave the row untouched.
func (s *BalanceStore) AdjustBalance(ctx context.Context, userID string, groupID int64, delta int) (int, error) {
	if delta > MaxBalance || delta < -MaxBalance {
		return s.refused(ctx, userID, groupID, delta)
	}

	// Both bounds are computed in Go so the comparison never overflows in SQL.
	var points int
	err := s.db.QueryRowContext(ctx,
		`UPDATE memberships SET points = points + ?
		 WHERE user_id = ? AND group_id = ? AND points >= ? AND points <= ?
		 RETURNING points`,
		delta, userID, groupID, -delta, MaxBalance-delta,
	).Scan(&points)
	if err == nil {
		return points, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("adjust balance: %w", classify(err))
	}

	// No row matched: either there is no membership or the guard refused it.
	return s.refused(ctx, userID, groupID, delta)
}

func (s *BalanceStore) refused(ctx context.Context, userID string, groupID int64, delta int) (int, error) {
	current, err := s.GetBalance(ctx, userID, groupID)
	if err != nil {
		return 0, fmt.Errorf("adjust balance: %w", err)
	}
	if delta > 0 {
		return 0, fmt.Errorf("adjust balance: %w: current %d, delta %d", ErrBalanceLimit, current, delta)
	}
	return 0, fmt.Errorf("adjust balance: %w", &BalanceError{Current: current, Delta: delta})
}
