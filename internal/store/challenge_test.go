package store

import (
	"context"
	"testing"
)

func TestSubmissionApproval(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)
	cs := NewChallengeStore(db)
	ctx := context.Background()

	ch, err := cs.Create(ctx, g.ID, "Cold shower", "Every day for a week", "admin", 25)
	if err != nil {
		t.Fatalf("create challenge: %v", err)
	}
	if ch.Status != "pending" {
		t.Errorf("status = %q, want %q", ch.Status, "pending")
	}

	sub, err := cs.CreateSubmission(ctx, ch.ID, "bob", "https://example.com/proof.jpg")
	if err != nil {
		t.Fatalf("create submission: %v", err)
	}
	if sub.Approved != nil {
		t.Error("expected unreviewed submission")
	}

	sub, err = cs.SetApproval(ctx, sub.ID, true, ch.Points)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if sub.Approved == nil || !*sub.Approved {
		t.Fatal("expected approved submission")
	}
	if sub.ApprovedAt == nil {
		t.Error("expected approved_at to be set")
	}
	if sub.PointsEarned != 25 {
		t.Errorf("points_earned = %d, want 25", sub.PointsEarned)
	}

	sub, err = cs.SetApproval(ctx, sub.ID, false, ch.Points)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if sub.Approved == nil || *sub.Approved {
		t.Fatal("expected rejected submission")
	}
	if sub.ApprovedAt != nil {
		t.Error("expected approved_at to be cleared")
	}
	if sub.PointsEarned != 0 {
		t.Errorf("points_earned = %d, want 0", sub.PointsEarned)
	}
}

func TestListSubmissions(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)
	cs := NewChallengeStore(db)
	ctx := context.Background()

	ch, _ := cs.Create(ctx, g.ID, "Pushups", "", "admin", 5)
	cs.CreateSubmission(ctx, ch.ID, "bob", "")
	last, _ := cs.CreateSubmission(ctx, ch.ID, "carol", "")

	subs, err := cs.ListSubmissions(ctx, ch.ID)
	if err != nil {
		t.Fatalf("list submissions: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(subs))
	}
	if subs[0].ID != last.ID {
		t.Errorf("subs[0].ID = %d, want %d", subs[0].ID, last.ID)
	}
}
