package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dukerupert/desafiados/internal/model"
)

func TestGroupCreateAddsAdminMembership(t *testing.T) {
	db := setupTestDB(t)
	gs := NewGroupStore(db)
	ctx := context.Background()

	g, err := gs.Create(ctx, "Runners", "Morning runs", "alice")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if g.Name != "Runners" {
		t.Errorf("name = %q, want %q", g.Name, "Runners")
	}
	if g.AdminID != "alice" {
		t.Errorf("admin_id = %q, want %q", g.AdminID, "alice")
	}

	m, err := gs.GetMember(ctx, g.ID, "alice")
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if m == nil {
		t.Fatal("expected admin membership, got nil")
	}
	if !m.IsAdmin() {
		t.Errorf("role = %q, want %q", m.Role, model.RoleAdmin)
	}
	if m.Points != 0 {
		t.Errorf("points = %d, want 0", m.Points)
	}
}

func TestGroupGetNotFound(t *testing.T) {
	gs := NewGroupStore(setupTestDB(t))

	g, err := gs.GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("get group: %v", err)
	}
	if g != nil {
		t.Error("expected nil for non-existent group")
	}
}

func TestAddMemberTwiceIsDuplicate(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)
	gs := NewGroupStore(db)
	ctx := context.Background()

	if _, err := gs.AddMember(ctx, g.ID, "bob", model.RoleMember); err != nil {
		t.Fatalf("add member: %v", err)
	}
	_, err := gs.AddMember(ctx, g.ID, "bob", model.RoleMember)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
}

func TestListMembersOrderedByPoints(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)
	seedMember(t, db, g.ID, "bob", 10)
	seedMember(t, db, g.ID, "carol", 30)

	members, err := NewGroupStore(db).ListMembers(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(members))
	}
	if members[0].UserID != "carol" {
		t.Errorf("members[0] = %q, want %q", members[0].UserID, "carol")
	}
	if members[1].UserID != "bob" {
		t.Errorf("members[1] = %q, want %q", members[1].UserID, "bob")
	}
	if members[2].UserID != "admin" {
		t.Errorf("members[2] = %q, want %q", members[2].UserID, "admin")
	}
}
