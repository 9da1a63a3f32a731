package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dukerupert/desafiados/internal/model"
)

// AwardStore persists point_awards, one row per (user, challenge).
type AwardStore struct {
	db *sql.DB
}

func NewAwardStore(db *sql.DB) *AwardStore {
	return &AwardStore{db: db}
}

func scanAward(scanner interface{ Scan(...any) error }) (*model.Award, error) {
	var a model.Award
	err := scanner.Scan(&a.ID, &a.UserID, &a.GroupID, &a.ChallengeID, &a.Points, &a.AwardedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const awardCols = `id, user_id, group_id, challenge_id, points, awarded_at`

// Create records an award. A second award for the same (user, challenge)
// returns ErrDuplicate.
func (s *AwardStore) Create(ctx context.Context, userID string, groupID, challengeID int64, points int) (*model.Award, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO point_awards (user_id, group_id, challenge_id, points) VALUES (?, ?, ?, ?)`,
		userID, groupID, challengeID, points,
	)
	if err != nil {
		return nil, fmt.Errorf("insert award: %w", classify(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+awardCols+` FROM point_awards WHERE id = ?`, id)
	a, err := scanAward(row)
	if err != nil {
		return nil, fmt.Errorf("get award: %w", classify(err))
	}
	return a, nil
}

func (s *AwardStore) GetByUserChallenge(ctx context.Context, userID string, challengeID int64) (*model.Award, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+awardCols+` FROM point_awards WHERE user_id = ? AND challenge_id = ?`,
		userID, challengeID,
	)
	a, err := scanAward(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get award: %w", classify(err))
	}
	return a, nil
}

// Delete removes an award record. It exists for compensating a credit that
// could not be applied.
func (s *AwardStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM point_awards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete award: %w", classify(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete award: %w", ErrNotFound)
	}
	return nil
}

// SumByMember returns the lifetime points awarded to a user in a group.
func (s *AwardStore) SumByMember(ctx context.Context, userID string, groupID int64) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(points), 0) FROM point_awards WHERE user_id = ? AND group_id = ?`,
		userID, groupID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum points awarded: %w", classify(err))
	}
	return total, nil
}
