package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/desafiados/internal/model"
)

type ChallengeStore struct {
	db *sql.DB
}

func NewChallengeStore(db *sql.DB) *ChallengeStore {
	return &ChallengeStore{db: db}
}

// --- Challenge methods ---

func scanChallenge(scanner interface{ Scan(...any) error }) (*model.Challenge, error) {
	var c model.Challenge
	err := scanner.Scan(&c.ID, &c.GroupID, &c.Title, &c.Description, &c.CreatedBy, &c.Points, &c.Status, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const challengeCols = `id, group_id, title, description, created_by, points, status, created_at`

func (s *ChallengeStore) Create(ctx context.Context, groupID int64, title, description, createdBy string, points int) (*model.Challenge, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO challenges (group_id, title, description, created_by, points) VALUES (?, ?, ?, ?, ?)`,
		groupID, title, description, createdBy, points,
	)
	if err != nil {
		return nil, fmt.Errorf("insert challenge: %w", classify(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ChallengeStore) GetByID(ctx context.Context, id int64) (*model.Challenge, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+challengeCols+` FROM challenges WHERE id = ?`, id)
	c, err := scanChallenge(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get challenge: %w", classify(err))
	}
	return c, nil
}

func (s *ChallengeStore) UpdateStatus(ctx context.Context, id int64, status string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE challenges SET status = ? WHERE id = ?`, status, id); err != nil {
		return fmt.Errorf("update challenge status: %w", classify(err))
	}
	return nil
}

// --- Submission methods ---

func scanSubmission(scanner interface{ Scan(...any) error }) (*model.Submission, error) {
	var sub model.Submission
	var approved sql.NullBool
	var approvedAt sql.NullTime

	err := scanner.Scan(&sub.ID, &sub.ChallengeID, &sub.UserID, &sub.ProofURL, &sub.SubmittedAt, &approved, &approvedAt, &sub.PointsEarned)
	if err != nil {
		return nil, err
	}

	if approved.Valid {
		sub.Approved = &approved.Bool
	}
	if approvedAt.Valid {
		sub.ApprovedAt = &approvedAt.Time
	}
	return &sub, nil
}

const submissionCols = `id, challenge_id, user_id, proof_url, submitted_at, approved, approved_at, points_earned`

func (s *ChallengeStore) CreateSubmission(ctx context.Context, challengeID int64, userID, proofURL string) (*model.Submission, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO challenge_submissions (challenge_id, user_id, proof_url) VALUES (?, ?, ?)`,
		challengeID, userID, proofURL,
	)
	if err != nil {
		return nil, fmt.Errorf("insert submission: %w", classify(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetSubmission(ctx, id)
}

func (s *ChallengeStore) GetSubmission(ctx context.Context, id int64) (*model.Submission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+submissionCols+` FROM challenge_submissions WHERE id = ?`, id)
	sub, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", classify(err))
	}
	return sub, nil
}

// SetApproval records the review outcome. Rejected submissions earn nothing.
// It does not touch balances; crediting is the ledger's job.
func (s *ChallengeStore) SetApproval(ctx context.Context, id int64, approved bool, pointsEarned int) (*model.Submission, error) {
	if !approved {
		pointsEarned = 0
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE challenge_submissions
		 SET approved = ?,
		     approved_at = CASE WHEN ? THEN CURRENT_TIMESTAMP ELSE NULL END,
		     points_earned = ?
		 WHERE id = ?`,
		approved, approved, pointsEarned, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set submission approval: %w", classify(err))
	}
	return s.GetSubmission(ctx, id)
}

func (s *ChallengeStore) ListSubmissions(ctx context.Context, challengeID int64) ([]model.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+submissionCols+` FROM challenge_submissions WHERE challenge_id = ? ORDER BY submitted_at DESC, id DESC`,
		challengeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", classify(err))
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}
