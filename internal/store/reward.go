package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/desafiados/internal/model"
)

// RewardStore is the reward catalog. Rewards are deactivated, never deleted,
// so redemptions always keep their reward.
type RewardStore struct {
	db *sql.DB
}

func NewRewardStore(db *sql.DB) *RewardStore {
	return &RewardStore{db: db}
}

func scanReward(scanner interface{ Scan(...any) error }) (*model.Reward, error) {
	var r model.Reward
	var active int

	err := scanner.Scan(&r.ID, &r.GroupID, &r.Name, &r.Description, &r.PointsRequired, &active, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	r.IsActive = active != 0
	return &r, nil
}

const rewardCols = `id, group_id, name, description, points_required, is_active, created_by, created_at, updated_at`

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *RewardStore) Create(ctx context.Context, groupID int64, name, description string, pointsRequired int, active bool, createdBy string) (*model.Reward, error) {
	if pointsRequired <= 0 {
		return nil, fmt.Errorf("points required must be greater than zero")
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO rewards (group_id, name, description, points_required, is_active, created_by) VALUES (?, ?, ?, ?, ?, ?)`,
		groupID, name, description, pointsRequired, boolInt(active), createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", classify(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *RewardStore) GetByID(ctx context.Context, id int64) (*model.Reward, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+rewardCols+` FROM rewards WHERE id = ?`, id)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", classify(err))
	}
	return r, nil
}

// ListByGroup returns a group's rewards, newest first. With activeOnly set,
// deactivated rewards are left out.
func (s *RewardStore) ListByGroup(ctx context.Context, groupID int64, activeOnly bool) ([]model.Reward, error) {
	query := `SELECT ` + rewardCols + ` FROM rewards WHERE group_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", classify(err))
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

// Update edits a reward. Price changes apply to future redemptions only.
func (s *RewardStore) Update(ctx context.Context, id int64, name, description string, pointsRequired int, active bool) (*model.Reward, error) {
	if pointsRequired <= 0 {
		return nil, fmt.Errorf("points required must be greater than zero")
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE rewards SET name = ?, description = ?, points_required = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, description, pointsRequired, boolInt(active), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update reward: %w", classify(err))
	}
	return s.GetByID(ctx, id)
}

func (s *RewardStore) SetActive(ctx context.Context, id int64, active bool) (*model.Reward, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE rewards SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		boolInt(active), id,
	)
	if err != nil {
		return nil, fmt.Errorf("set reward active: %w", classify(err))
	}
	return s.GetByID(ctx, id)
}
