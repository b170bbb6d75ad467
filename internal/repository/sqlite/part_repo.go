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

// partRow is the parts table; completers live in part_completers.
type partRow struct {
	ID          string `db:"id"`
	ChallengeID string `db:"challenge_id"`
	Week        int    `db:"week"`
	Day         int    `db:"day"`
}

type completerRow struct {
	PartID string `db:"part_id"`
	UserID string `db:"user_id"`
}

type partRepository struct {
	db *DB
}

// NewPartRepository creates a Part repository backed by SQLite.
func NewPartRepository(db *DB) repository.PartRepository {
	return &partRepository{db: db}
}

func (r *partRepository) CreateMany(ctx context.Context, parts []domain.Part) error {
	conn := r.db.conn(ctx)
	for i := range parts {
		if parts[i].ChallengeID == "" {
			return errors.New("part requires challengeId")
		}
		if parts[i].ID == "" {
			parts[i].ID = uuid.NewString()
		}
		if parts[i].Completers == nil {
			parts[i].Completers = []string{}
		}
		_, err := conn.ExecContext(ctx, `INSERT INTO parts (id, challenge_id, week, day) VALUES (?, ?, ?, ?)`,
			parts[i].ID, parts[i].ChallengeID, parts[i].Week, parts[i].Day)
		if err != nil {
			return fmt.Errorf("failed to insert part (week %d, day %d): %w", parts[i].Week, parts[i].Day, err)
		}
	}
	return nil
}

func (r *partRepository) GetByID(ctx context.Context, id string) (*domain.Part, error) {
	conn := r.db.conn(ctx)
	var row partRow
	err := sqlx.GetContext(ctx, conn, &row, `SELECT id, challenge_id, week, day FROM parts WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	completers := []string{}
	err = sqlx.SelectContext(ctx, conn, &completers,
		`SELECT user_id FROM part_completers WHERE part_id = ? ORDER BY completed_at, rowid`, id)
	if err != nil {
		return nil, err
	}
	return &domain.Part{ID: row.ID, ChallengeID: row.ChallengeID, Week: row.Week, Day: row.Day, Completers: completers}, nil
}

func (r *partRepository) ListByChallenge(ctx context.Context, challengeID string) ([]domain.Part, error) {
	conn := r.db.conn(ctx)
	var rows []partRow
	err := sqlx.SelectContext(ctx, conn, &rows,
		`SELECT id, challenge_id, week, day FROM parts WHERE challenge_id = ? ORDER BY week, day`, challengeID)
	if err != nil {
		return nil, err
	}

	var completers []completerRow
	err = sqlx.SelectContext(ctx, conn, &completers,
		`SELECT pc.part_id, pc.user_id FROM part_completers pc
		JOIN parts p ON p.id = pc.part_id
		WHERE p.challenge_id = ? ORDER BY pc.completed_at, pc.rowid`, challengeID)
	if err != nil {
		return nil, err
	}
	byPart := make(map[string][]string, len(rows))
	for _, c := range completers {
		byPart[c.PartID] = append(byPart[c.PartID], c.UserID)
	}

	parts := make([]domain.Part, len(rows))
	for i, row := range rows {
		users := byPart[row.ID]
		if users == nil {
			users = []string{}
		}
		parts[i] = domain.Part{ID: row.ID, ChallengeID: row.ChallengeID, Week: row.Week, Day: row.Day, Completers: users}
	}
	return parts, nil
}

func (r *partRepository) AddCompleter(ctx context.Context, partID, userID string) (bool, error) {
	result, err := r.db.conn(ctx).ExecContext(ctx,
		`INSERT OR IGNORE INTO part_completers (part_id, user_id, completed_at) VALUES (?, ?, ?)`,
		partID, userID, time.Now().UTC())
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *partRepository) RemoveCompleterFromChallenge(ctx context.Context, challengeID, userID string) error {
	_, err := r.db.conn(ctx).ExecContext(ctx,
		`DELETE FROM part_completers WHERE user_id = ?
		AND part_id IN (SELECT id FROM parts WHERE challenge_id = ?)`, userID, challengeID)
	return err
}

func (r *partRepository) DeleteByChallenge(ctx context.Context, challengeID string) error {
	conn := r.db.conn(ctx)
	_, err := conn.ExecContext(ctx,
		`DELETE FROM part_completers WHERE part_id IN (SELECT id FROM parts WHERE challenge_id = ?)`, challengeID)
	if err != nil {
		return err
	}
	_, err = conn.ExecContext(ctx, `DELETE FROM parts WHERE challenge_id = ?`, challengeID)
	return err
}
