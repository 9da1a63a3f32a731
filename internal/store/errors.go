package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned by operations that require an existing row.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientBalance is returned when a balance change would leave
	// the membership below zero.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrBalanceLimit is returned when a credit would take the membership
	// above MaxBalance.
	ErrBalanceLimit = errors.New("balance limit exceeded")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate")
	// ErrTransient marks failures that are safe to retry: a busy or locked
	// database, or a storage call that ran out of time.
	ErrTransient = errors.New("transient storage failure")
)

// BalanceError reports a rejected balance adjustment together with the
// balance observed when the adjustment was refused.
type BalanceError struct {
	Current int
	Delta   int
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: current %d, delta %d", e.Current, e.Delta)
}

func (e *BalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// classify maps driver and context errors onto the store sentinels while
// keeping the original error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), isBusy(err):
		return fmt.Errorf("%w: %w", ErrTransient, err)
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	case isBalanceCheckViolation(err):
		return fmt.Errorf("%w: %w", ErrInsufficientBalance, err)
	}
	return err
}

func sqliteCode(err error) (int, bool) {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return 0, false
	}
	return sqliteErr.Code(), true
}

func isBusy(err error) bool {
	code, ok := sqliteCode(err)
	if !ok {
		return false
	}
	primary := code & 0xff
	return primary == sqlite3.SQLITE_BUSY || primary == sqlite3.SQLITE_LOCKED
}

func isUniqueViolation(err error) bool {
	code, ok := sqliteCode(err)
	if !ok {
		return false
	}
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// isBalanceCheckViolation matches the memberships CHECK (points >= 0).
func isBalanceCheckViolation(err error) bool {
	code, ok := sqliteCode(err)
	if !ok || code != sqlite3.SQLITE_CONSTRAINT_CHECK {
		return false
	}
	return strings.Contains(err.Error(), "points >= 0")
}
