package store

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
)

func TestBalanceAdjust(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)
	seedMember(t, db, g.ID, "bob", 0)
	bs := NewBalanceStore(db)
	ctx := context.Background()

	got, err := bs.AdjustBalance(ctx, "bob", g.ID, 25)
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if got != 25 {
		t.Errorf("balance = %d, want 25", got)
	}

	got, err = bs.AdjustBalance(ctx, "bob", g.ID, -25)
	if err != nil {
		t.Fatalf("debit to zero: %v", err)
	}
	if got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}

	balance, err := bs.GetBalance(ctx, "bob", g.ID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance != 0 {
		t.Errorf("balance = %d, want 0", balance)
	}
}

func TestBalanceAdjustRefusesOverdraft(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)
	seedMember(t, db, g.ID, "bob", 40)
	bs := NewBalanceStore(db)
	ctx := context.Background()

	_, err := bs.AdjustBalance(ctx, "bob", g.ID, -60)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	var balErr *BalanceError
	if !errors.As(err, &balErr) {
		t.Fatalf("expected *BalanceError, got %T", err)
	}
	if balErr.Current != 40 {
		t.Errorf("current = %d, want 40", balErr.Current)
	}

	balance, _ := bs.GetBalance(ctx, "bob", g.ID)
	if balance != 40 {
		t.Errorf("balance = %d, want 40 after refused debit", balance)
	}
}

func TestBalanceAdjustRefusesCeiling(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)
	seedMember(t, db, g.ID, "bob", 10)
	bs := NewBalanceStore(db)
	ctx := context.Background()

	for _, delta := range []int{math.MaxInt, MaxBalance - 5} {
		if _, err := bs.AdjustBalance(ctx, "bob", g.ID, delta); !errors.Is(err, ErrBalanceLimit) {
			t.Errorf("credit %d: err = %v, want ErrBalanceLimit", delta, err)
		}
	}
	if _, err := bs.AdjustBalance(ctx, "bob", g.ID, math.MinInt); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("debit MinInt: err = %v, want ErrInsufficientBalance", err)
	}

	balance, err := bs.GetBalance(ctx, "bob", g.ID)
	if err != nil {
		t.Fatalf("get balance after refused credits: %v", err)
	}
	if balance != 10 {
		t.Errorf("balance = %d, want 10", balance)
	}

	got, err := bs.AdjustBalance(ctx, "bob", g.ID, MaxBalance-10)
	if err != nil {
		t.Fatalf("credit up to ceiling: %v", err)
	}
	if got != MaxBalance {
		t.Errorf("balance = %d, want %d", got, MaxBalance)
	}
}

func TestBalanceRejectsNonIntegerPoints(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)
	seedMember(t, db, g.ID, "bob", 5)

	for _, expr := range []string{"1.5", "9223372036854775807 + 1"} {
		if _, err := db.Exec(`UPDATE memberships SET points = `+expr+` WHERE user_id = ?`, "bob"); err == nil {
			t.Errorf("points = %s should violate the integer CHECK", expr)
		}
	}
	if _, err := NewBalanceStore(db).GetBalance(context.Background(), "bob", g.ID); err != nil {
		t.Errorf("get balance: %v", err)
	}
}

func TestBalanceNotFound(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)
	bs := NewBalanceStore(db)
	ctx := context.Background()

	if _, err := bs.GetBalance(ctx, "nobody", g.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get balance err = %v, want ErrNotFound", err)
	}
	if _, err := bs.AdjustBalance(ctx, "nobody", g.ID, 10); !errors.Is(err, ErrNotFound) {
		t.Errorf("adjust balance err = %v, want ErrNotFound", err)
	}
}

func TestBalanceCheckConstraint(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)
	seedMember(t, db, g.ID, "bob", 5)

	_, err := db.Exec(`UPDATE memberships SET points = -1 WHERE user_id = ?`, "bob")
	if err == nil {
		t.Fatal("expected CHECK constraint to reject negative points")
	}
	if !errors.Is(classify(err), ErrInsufficientBalance) {
		t.Errorf("classify(%v) should map to ErrInsufficientBalance", err)
	}
}

func TestBalanceConcurrentDebits(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)
	seedMember(t, db, g.ID, "bob", 100)
	bs := NewBalanceStore(db)

	const workers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := bs.AdjustBalance(context.Background(), "bob", g.ID, -30)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrInsufficientBalance) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 3 {
		t.Errorf("succeeded = %d, want 3", succeeded)
	}
	balance, _ := bs.GetBalance(context.Background(), "bob", g.ID)
	if balance != 10 {
		t.Errorf("balance = %d, want 10", balance)
	}
}
