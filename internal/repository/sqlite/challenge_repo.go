package sqlite

import (
	"alcyxob/fitness-challenges/internal/domain"
	"alcyxob/fitness-challenges/internal/repository"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const challengeColumns = `id, creator_type, creator, exercise, reps, sets, weight, minutes,
	frequency, duration, level, points, bonus_points, open, created_at, updated_at`

type challengeRepository struct {
	db *DB
}

// NewChallengeRepository creates a Challenge repository backed by SQLite.
func NewChallengeRepository(db *DB) repository.ChallengeRepository {
	return &challengeRepository{db: db}
}

func (r *challengeRepository) Create(ctx context.Context, challenge *domain.Challenge) (string, error) {
	if challenge.Creator == "" || challenge.Exercise == "" {
		return "", errors.New("challenge requires creator and exercise")
	}
	if challenge.ID == "" {
		challenge.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	challenge.CreatedAt = now
	challenge.UpdatedAt = now

	query := `INSERT INTO challenges (` + challengeColumns + `)
		VALUES (:id, :creator_type, :creator, :exercise, :reps, :sets, :weight, :minutes,
			:frequency, :duration, :level, :points, :bonus_points, :open, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db.conn(ctx), query, challenge); err != nil {
		return "", fmt.Errorf("failed to insert challenge: %w", err)
	}
	return challenge.ID, nil
}

func (r *challengeRepository) GetByID(ctx context.Context, id string) (*domain.Challenge, error) {
	var challenge domain.Challenge
	err := sqlx.GetContext(ctx, r.db.conn(ctx), &challenge, `SELECT `+challengeColumns+` FROM challenges WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &challenge, nil
}

func (r *challengeRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Challenge, error) {
	challenges := []domain.Challenge{}
	if len(ids) == 0 {
		return challenges, nil
	}
	conn := r.db.conn(ctx)
	query, args, err := sqlx.In(`SELECT `+challengeColumns+` FROM challenges WHERE id IN (?) ORDER BY created_at DESC`, ids)
	if err != nil {
		return nil, err
	}
	if err := sqlx.SelectContext(ctx, conn, &challenges, conn.Rebind(query), args...); err != nil {
		return nil, err
	}
	return challenges, nil
}

func (r *challengeRepository) SetOpen(ctx context.Context, id string, open bool) error {
	result, err := r.db.conn(ctx).ExecContext(ctx,
		`UPDATE challenges SET open = ?, updated_at = ? WHERE id = ?`, open, time.Now().UTC(), id)
	return affectedOrNotFound(result, err)
}

func (r *challengeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.conn(ctx).ExecContext(ctx, `DELETE FROM challenges WHERE id = ?`, id)
	return affectedOrNotFound(result, err)
}

// affectedOrNotFound maps "no row touched" to repository.ErrNotFound.
func affectedOrNotFound(result sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
