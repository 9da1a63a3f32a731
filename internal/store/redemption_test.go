package store

import (
	"context"
	"testing"
)

func TestRedemptionCreateSnapshotsPrice(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)
	rs := NewRewardStore(db)
	ds := NewRedemptionStore(db)
	ctx := context.Background()

	reward, _ := rs.Create(ctx, g.ID, "Treat", "", 25, true, "admin")

	redemption, err := ds.Create(ctx, "bob", reward.ID, reward.PointsRequired)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if redemption.RewardID != reward.ID {
		t.Errorf("reward_id = %d, want %d", redemption.RewardID, reward.ID)
	}
	if redemption.GroupID != g.ID {
		t.Errorf("group_id = %d, want %d", redemption.GroupID, g.ID)
	}
	if redemption.RewardName != "Treat" {
		t.Errorf("reward_name = %q, want %q", redemption.RewardName, "Treat")
	}

	if _, err := rs.Update(ctx, reward.ID, "Treat", "", 99, true); err != nil {
		t.Fatalf("update price: %v", err)
	}

	history, err := ds.ListByUser(ctx, "bob", nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 redemption, got %d", len(history))
	}
	if history[0].PointsSpent != 25 {
		t.Errorf("points_spent = %d, want 25 after price change", history[0].PointsSpent)
	}
}

func TestRedemptionsAreAppendOnly(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)
	reward, _ := NewRewardStore(db).Create(context.Background(), g.ID, "Treat", "", 25, true, "admin")
	redemption, _ := NewRedemptionStore(db).Create(context.Background(), "bob", reward.ID, 25)

	if _, err := db.Exec(`UPDATE reward_redemptions SET points_spent = 1 WHERE id = ?`, redemption.ID); err == nil {
		t.Error("expected update to be rejected")
	}
	if _, err := db.Exec(`DELETE FROM reward_redemptions WHERE id = ?`, redemption.ID); err == nil {
		t.Error("expected delete to be rejected")
	}
}

func TestRedemptionListByUserFiltersGroup(t *testing.T) {
	db := setupTestDB(t)
	g1 := seedGroup(t, db)
	g2 := seedGroup(t, db)
	rs := NewRewardStore(db)
	ds := NewRedemptionStore(db)
	ctx := context.Background()

	r1, _ := rs.Create(ctx, g1.ID, "One", "", 10, true, "admin")
	r2, _ := rs.Create(ctx, g2.ID, "Two", "", 10, true, "admin")
	first, _ := ds.Create(ctx, "bob", r1.ID, 10)
	second, _ := ds.Create(ctx, "bob", r2.ID, 10)
	third, _ := ds.Create(ctx, "bob", r1.ID, 10)
	ds.Create(ctx, "carol", r1.ID, 10)

	all, err := ds.ListByUser(ctx, "bob", nil)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 redemptions, got %d", len(all))
	}
	if all[0].ID != third.ID || all[1].ID != second.ID || all[2].ID != first.ID {
		t.Errorf("order = [%d %d %d], want most recent first", all[0].ID, all[1].ID, all[2].ID)
	}

	onlyG1, err := ds.ListByUser(ctx, "bob", &g1.ID)
	if err != nil {
		t.Fatalf("list group: %v", err)
	}
	if len(onlyG1) != 2 {
		t.Fatalf("expected 2 redemptions in group, got %d", len(onlyG1))
	}

	byReward, err := ds.ListByReward(ctx, r1.ID)
	if err != nil {
		t.Fatalf("list by reward: %v", err)
	}
	if len(byReward) != 3 {
		t.Errorf("expected 3 redemptions of reward, got %d", len(byReward))
	}
}

func TestRedemptionGroupStats(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)
	other := seedGroup(t, db)
	rs := NewRewardStore(db)
	ds := NewRedemptionStore(db)
	ctx := context.Background()

	pizza, _ := rs.Create(ctx, g.ID, "Pizza", "", 60, true, "admin")
	movie, _ := rs.Create(ctx, g.ID, "Movie", "", 20, true, "admin")
	elsewhere, _ := rs.Create(ctx, other.ID, "Elsewhere", "", 5, true, "admin")
	ds.Create(ctx, "bob", pizza.ID, 60)
	ds.Create(ctx, "bob", movie.ID, 20)
	ds.Create(ctx, "carol", movie.ID, 20)
	ds.Create(ctx, "dave", elsewhere.ID, 5)

	stats, err := ds.GroupStats(ctx, g.ID)
	if err != nil {
		t.Fatalf("group stats: %v", err)
	}
	if stats.TotalRedemptions != 3 {
		t.Errorf("total_redemptions = %d, want 3", stats.TotalRedemptions)
	}
	if stats.TotalPointsSpent != 100 {
		t.Errorf("total_points_spent = %d, want 100", stats.TotalPointsSpent)
	}
	if stats.UniqueRedeemers != 2 {
		t.Errorf("unique_redeemers = %d, want 2", stats.UniqueRedeemers)
	}
	if stats.RedemptionsByReward["Movie"] != 2 {
		t.Errorf("redemptions_by_reward[Movie] = %d, want 2", stats.RedemptionsByReward["Movie"])
	}

	spent, err := ds.SumSpentByMember(ctx, "bob", g.ID)
	if err != nil {
		t.Fatalf("sum spent: %v", err)
	}
	if spent != 80 {
		t.Errorf("spent = %d, want 80", spent)
	}
}

func TestRedemptionGroupStatsEmpty(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)

	stats, err := NewRedemptionStore(db).GroupStats(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("group stats: %v", err)
	}
	if stats.TotalRedemptions != 0 || stats.TotalPointsSpent != 0 || stats.UniqueRedeemers != 0 {
		t.Errorf("stats = %+v, want zeros", stats)
	}
}
