package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/desafiados/internal/model"
)

type GroupStore struct {
	db *sql.DB
}

func NewGroupStore(db *sql.DB) *GroupStore {
	return &GroupStore{db: db}
}

func scanGroup(scanner interface{ Scan(...any) error }) (*model.Group, error) {
	var g model.Group
	err := scanner.Scan(&g.ID, &g.Name, &g.Description, &g.AdminID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func scanMembership(scanner interface{ Scan(...any) error }) (*model.Membership, error) {
	var m model.Membership
	err := scanner.Scan(&m.UserID, &m.GroupID, &m.Role, &m.Points, &m.JoinedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const groupCols = `id, name, description, admin_id, created_at, updated_at`
const membershipCols = `user_id, group_id, role, points, joined_at`

// Create inserts a group and its admin membership in a single transaction.
func (s *GroupStore) Create(ctx context.Context, name, description, adminID string) (*model.Group, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", classify(err))
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO friend_groups (name, description, admin_id) VALUES (?, ?, ?)`,
		name, description, adminID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert group: %w", classify(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO memberships (user_id, group_id, role) VALUES (?, ?, ?)`,
		adminID, id, model.RoleAdmin,
	); err != nil {
		return nil, fmt.Errorf("insert admin membership: %w", classify(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit group: %w", classify(err))
	}
	return s.GetByID(ctx, id)
}

func (s *GroupStore) GetByID(ctx context.Context, id int64) (*model.Group, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+groupCols+` FROM friend_groups WHERE id = ?`, id)
	g, err := scanGroup(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", classify(err))
	}
	return g, nil
}

// AddMember creates a membership with a zero balance. Adding the same user
// twice returns ErrDuplicate.
func (s *GroupStore) AddMember(ctx context.Context, groupID int64, userID, role string) (*model.Membership, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO memberships (user_id, group_id, role) VALUES (?, ?, ?)`,
		userID, groupID, role,
	); err != nil {
		return nil, fmt.Errorf("add member: %w", classify(err))
	}
	return s.GetMember(ctx, groupID, userID)
}

func (s *GroupStore) GetMember(ctx context.Context, groupID int64, userID string) (*model.Membership, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+membershipCols+` FROM memberships WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	)
	m, err := scanMembership(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", classify(err))
	}
	return m, nil
}

// ListMembers returns the members of a group ordered by balance, highest
// first, then by join time.
func (s *GroupStore) ListMembers(ctx context.Context, groupID int64) ([]model.Membership, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+membershipCols+` FROM memberships WHERE group_id = ? ORDER BY points DESC, joined_at ASC, user_id ASC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", classify(err))
	}
	defer rows.Close()

	var members []model.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}
