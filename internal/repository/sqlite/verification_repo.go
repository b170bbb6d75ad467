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

const verificationColumns = `id, requester, approver, challenge_id, part_id, evidence, approved, created_at, approved_at`

type verificationRepository struct {
	db *DB
}

// NewVerificationRepository creates a VerificationRequest repository backed by SQLite.
func NewVerificationRepository(db *DB) repository.VerificationRepository {
	return &verificationRepository{db: db}
}

func (r *verificationRepository) Create(ctx context.Context, req *domain.VerificationRequest) (string, error) {
	if req.PartID == "" || req.ChallengeID == "" || req.RequesterID == "" || req.ApproverID == "" {
		return "", errors.New("verification request requires partId, challengeId, requester and approver")
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.Approved = false
	req.ApprovedAt = nil
	req.CreatedAt = time.Now().UTC()

	query := `INSERT INTO verification_requests (` + verificationColumns + `)
		VALUES (:id, :requester, :approver, :challenge_id, :part_id, :evidence, :approved, :created_at, :approved_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db.conn(ctx), query, req); err != nil {
		return "", fmt.Errorf("failed to insert verification request: %w", err)
	}
	return req.ID, nil
}

func (r *verificationRepository) GetByID(ctx context.Context, id string) (*domain.VerificationRequest, error) {
	return r.getOne(ctx, `SELECT `+verificationColumns+` FROM verification_requests WHERE id = ?`, id)
}

func (r *verificationRepository) FindPending(ctx context.Context, partID, requesterID string) (*domain.VerificationRequest, error) {
	return r.getOne(ctx, `SELECT `+verificationColumns+` FROM verification_requests
		WHERE part_id = ? AND requester = ? AND approved = FALSE
		ORDER BY created_at, rowid LIMIT 1`, partID, requesterID)
}

func (r *verificationRepository) getOne(ctx context.Context, query string, args ...interface{}) (*domain.VerificationRequest, error) {
	var req domain.VerificationRequest
	if err := sqlx.GetContext(ctx, r.db.conn(ctx), &req, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *verificationRepository) ListPendingByApprover(ctx context.Context, approverID string) ([]domain.VerificationRequest, error) {
	requests := []domain.VerificationRequest{}
	err := sqlx.SelectContext(ctx, r.db.conn(ctx), &requests, `SELECT `+verificationColumns+` FROM verification_requests
		WHERE approver = ? AND approved = FALSE ORDER BY created_at, rowid`, approverID)
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *verificationRepository) Approve(ctx context.Context, id string) error {
	result, err := r.db.conn(ctx).ExecContext(ctx,
		`UPDATE verification_requests SET approved = TRUE, approved_at = ? WHERE id = ? AND approved = FALSE`,
		time.Now().UTC(), id)
	return affectedOrNotFound(result, err)
}

func (r *verificationRepository) DeleteByChallenge(ctx context.Context, challengeID string) error {
	_, err := r.db.conn(ctx).ExecContext(ctx, `DELETE FROM verification_requests WHERE challenge_id = ?`, challengeID)
	return err
}
