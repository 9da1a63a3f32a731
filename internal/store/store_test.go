package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dukerupert/desafiados/internal/database"
	"github.com/dukerupert/desafiados/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedGroup creates a group administered by "admin" and returns it.
func seedGroup(t *testing.T, db *sql.DB) *model.Group {
	t.Helper()
	g, err := NewGroupStore(db).Create(context.Background(), "Climbers", "", "admin")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	return g
}

func seedMember(t *testing.T, db *sql.DB, groupID int64, userID string, points int) {
	t.Helper()
	ctx := context.Background()
	if _, err := NewGroupStore(db).AddMember(ctx, groupID, userID, model.RoleMember); err != nil {
		t.Fatalf("add member %s: %v", userID, err)
	}
	if points > 0 {
		if _, err := NewBalanceStore(db).AdjustBalance(ctx, userID, groupID, points); err != nil {
			t.Fatalf("seed balance %s: %v", userID, err)
		}
	}
}
