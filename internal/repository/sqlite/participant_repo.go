package sqlite

import (
	"alcyxob/fitness-challenges/internal/domain"
	"alcyxob/fitness-challenges/internal/repository"
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

const participantColumns = `challenge_id, user_id, accepted, completed, completed_parts, invited_at, updated_at`

type participantRepository struct {
	db *DB
}

// NewParticipantRepository creates a roster repository backed by SQLite.
func NewParticipantRepository(db *DB) repository.ParticipantRepository {
	return &participantRepository{db: db}
}

func (r *participantRepository) AddInvitees(ctx context.Context, challengeID string, userIDs []string) error {
	conn := r.db.conn(ctx)
	now := time.Now().UTC()
	for _, userID := range userIDs {
		if userID == "" {
			continue
		}
		_, err := conn.ExecContext(ctx, `INSERT OR IGNORE INTO participants
			(challenge_id, user_id, accepted, completed, completed_parts, invited_at, updated_at)
			VALUES (?, ?, FALSE, FALSE, 0, ?, ?)`, challengeID, userID, now, now)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *participantRepository) Get(ctx context.Context, challengeID, userID string) (*domain.Participant, error) {
	var participant domain.Participant
	err := sqlx.GetContext(ctx, r.db.conn(ctx), &participant,
		`SELECT `+participantColumns+` FROM participants WHERE challenge_id = ? AND user_id = ?`, challengeID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &participant, nil
}

func (r *participantRepository) ListByChallenge(ctx context.Context, challengeID string) ([]domain.Participant, error) {
	participants := []domain.Participant{}
	err := sqlx.SelectContext(ctx, r.db.conn(ctx), &participants,
		`SELECT `+participantColumns+` FROM participants WHERE challenge_id = ? ORDER BY invited_at, rowid`, challengeID)
	if err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *participantRepository) ListAcceptedChallengeIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := sqlx.SelectContext(ctx, r.db.conn(ctx), &ids,
		`SELECT challenge_id FROM participants WHERE user_id = ? AND accepted = TRUE`, userID)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *participantRepository) Accept(ctx context.Context, challengeID, userID string) error {
	result, err := r.db.conn(ctx).ExecContext(ctx,
		`UPDATE participants SET accepted = TRUE, updated_at = ? WHERE challenge_id = ? AND user_id = ?`,
		time.Now().UTC(), challengeID, userID)
	return affectedOrNotFound(result, err)
}

func (r *participantRepository) Remove(ctx context.Context, challengeID, userID string) error {
	result, err := r.db.conn(ctx).ExecContext(ctx,
		`DELETE FROM participants WHERE challenge_id = ? AND user_id = ?`, challengeID, userID)
	return affectedOrNotFound(result, err)
}

func (r *participantRepository) IncrementProgress(ctx context.Context, challengeID, userID string) (int, error) {
	var completedParts int
	err := r.db.conn(ctx).QueryRowxContext(ctx,
		`UPDATE participants SET completed_parts = completed_parts + 1, updated_at = ?
		WHERE challenge_id = ? AND user_id = ? RETURNING completed_parts`,
		time.Now().UTC(), challengeID, userID).Scan(&completedParts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, err
	}
	return completedParts, nil
}

func (r *participantRepository) MarkCompleted(ctx context.Context, challengeID, userID string, totalParts int) (bool, error) {
	result, err := r.db.conn(ctx).ExecContext(ctx,
		`UPDATE participants SET completed = TRUE, updated_at = ?
		WHERE challenge_id = ? AND user_id = ? AND accepted = TRUE AND completed = FALSE AND completed_parts >= ?`,
		time.Now().UTC(), challengeID, userID, totalParts)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *participantRepository) DeleteByChallenge(ctx context.Context, challengeID string) error {
	_, err := r.db.conn(ctx).ExecContext(ctx, `DELETE FROM participants WHERE challenge_id = ?`, challengeID)
	return err
}
