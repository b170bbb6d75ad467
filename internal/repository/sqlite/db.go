package sqlite

import (
	"alcyxob/fitness-challenges/internal/repository"
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the sqlx handle shared by the SQLite repositories.
type DB struct {
	*sqlx.DB
}

type txKey struct{}

// NewDB opens (or creates) the SQLite database at path and initializes the schema.
// Use ":memory:" for a throwaway database.
func NewDB(path string) (*DB, error) {
	if path == "" {
		path = "challenges.db"
	}

	db, err := sqlx.Connect("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// SQLite serializes writers; one connection also keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	dbWrapper := &DB{DB: db}
	if err := dbWrapper.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("INFO: SQLite database ready at %s", path)
	return dbWrapper, nil
}

func (db *DB) createTables() error {
	challengesTable := `
	CREATE TABLE IF NOT EXISTS challenges (
		id TEXT PRIMARY KEY,
		creator_type TEXT NOT NULL,
		creator TEXT NOT NULL,
		exercise TEXT NOT NULL,
		reps INTEGER,
		sets INTEGER,
		weight REAL,
		minutes REAL,
		frequency INTEGER NOT NULL,
		duration INTEGER NOT NULL,
		level INTEGER NOT NULL,
		points INTEGER NOT NULL,
		bonus_points INTEGER NOT NULL,
		open BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);`

	participantsTable := `
	CREATE TABLE IF NOT EXISTS participants (
		challenge_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		accepted BOOLEAN NOT NULL DEFAULT FALSE,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		completed_parts INTEGER NOT NULL DEFAULT 0,
		invited_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (challenge_id, user_id),
		FOREIGN KEY (challenge_id) REFERENCES challenges(id) ON DELETE CASCADE
	);`

	partsTable := `
	CREATE TABLE IF NOT EXISTS parts (
		id TEXT PRIMARY KEY,
		challenge_id TEXT NOT NULL,
		week INTEGER NOT NULL,
		day INTEGER NOT NULL,
		UNIQUE (challenge_id, week, day),
		FOREIGN KEY (challenge_id) REFERENCES challenges(id) ON DELETE CASCADE
	);`

	completersTable := `
	CREATE TABLE IF NOT EXISTS part_completers (
		part_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		completed_at DATETIME NOT NULL,
		PRIMARY KEY (part_id, user_id),
		FOREIGN KEY (part_id) REFERENCES parts(id) ON DELETE CASCADE
	);`

	verificationsTable := `
	CREATE TABLE IF NOT EXISTS verification_requests (
		id TEXT PRIMARY KEY,
		requester TEXT NOT NULL,
		approver TEXT NOT NULL,
		challenge_id TEXT NOT NULL,
		part_id TEXT NOT NULL,
		evidence TEXT NOT NULL,
		approved BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL,
		approved_at DATETIME,
		FOREIGN KEY (part_id) REFERENCES parts(id) ON DELETE CASCADE
	);`

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_challenges_creator ON challenges(creator_type, creator);`,
		`CREATE INDEX IF NOT EXISTS idx_participants_user ON participants(user_id, accepted);`,
		`CREATE INDEX IF NOT EXISTS idx_part_completers_user ON part_completers(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_verifications_pending ON verification_requests(part_id, requester, approved);`,
		`CREATE INDEX IF NOT EXISTS idx_verifications_approver ON verification_requests(approver, approved);`,
		`CREATE INDEX IF NOT EXISTS idx_verifications_challenge ON verification_requests(challenge_id);`,
	}

	for _, query := range []string{challengesTable, participantsTable, partsTable, completersTable, verificationsTable} {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	for _, index := range indexes {
		if _, err := db.Exec(index); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// conn returns the transaction bound to ctx, if any, or the shared handle.
func (db *DB) conn(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db.DB
}

// WithinTransaction implements repository.Transactor.
func (db *DB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("ERROR: Rollback failed: %v", rbErr)
		}
		return err
	}
	return tx.Commit()
}

// NewStore wires every SQLite-backed repository against db.
func NewStore(db *DB) *repository.Store {
	return &repository.Store{
		Challenges:    NewChallengeRepository(db),
		Participants:  NewParticipantRepository(db),
		Parts:         NewPartRepository(db),
		Verifications: NewVerificationRepository(db),
		Tx:            db,
		Close: func(ctx context.Context) error {
			return db.Close()
		},
	}
}
