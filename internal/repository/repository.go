package repository

import (
	"alcyxob/fitness-challenges/internal/domain"
	"context"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// ChallengeRepository stores challenge definitions and their open flag.
type ChallengeRepository interface {
	Create(ctx context.Context, challenge *domain.Challenge) (string, error)
	GetByID(ctx context.Context, id string) (*domain.Challenge, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Challenge, error)
	SetOpen(ctx context.Context, id string, open bool) error
	Delete(ctx context.Context, id string) error
}

// ParticipantRepository stores roster entries keyed by (challenge, user).
type ParticipantRepository interface {
	// AddInvitees inserts users that are not on the roster yet; existing entries are left untouched.
	AddInvitees(ctx context.Context, challengeID string, userIDs []string) error
	Get(ctx context.Context, challengeID, userID string) (*domain.Participant, error)
	ListByChallenge(ctx context.Context, challengeID string) ([]domain.Participant, error)
	ListAcceptedChallengeIDs(ctx context.Context, userID string) ([]string, error)
	Accept(ctx context.Context, challengeID, userID string) error
	Remove(ctx context.Context, challengeID, userID string) error
	// IncrementProgress atomically bumps the completed-parts counter and returns the new value.
	IncrementProgress(ctx context.Context, challengeID, userID string) (int, error)
	// MarkCompleted sets completed=true only if it is still false and the counter
	// reached totalParts. It reports whether this call flipped the flag.
	MarkCompleted(ctx context.Context, challengeID, userID string, totalParts int) (bool, error)
	DeleteByChallenge(ctx context.Context, challengeID string) error
}

// PartRepository stores the schedule of a challenge and who completed each part.
type PartRepository interface {
	CreateMany(ctx context.Context, parts []domain.Part) error
	GetByID(ctx context.Context, id string) (*domain.Part, error)
	ListByChallenge(ctx context.Context, challengeID string) ([]domain.Part, error)
	// AddCompleter reports whether the user was newly added to the completer set.
	AddCompleter(ctx context.Context, partID, userID string) (bool, error)
	RemoveCompleterFromChallenge(ctx context.Context, challengeID, userID string) error
	DeleteByChallenge(ctx context.Context, challengeID string) error
}

// VerificationRepository stores peer-verification requests.
type VerificationRepository interface {
	Create(ctx context.Context, req *domain.VerificationRequest) (string, error)
	GetByID(ctx context.Context, id string) (*domain.VerificationRequest, error)
	// FindPending returns the unapproved request for (part, requester).
	FindPending(ctx context.Context, partID, requesterID string) (*domain.VerificationRequest, error)
	ListPendingByApprover(ctx context.Context, approverID string) ([]domain.VerificationRequest, error)
	// Approve flips approved to true; ErrNotFound if the request is missing or already approved.
	Approve(ctx context.Context, id string) error
	DeleteByChallenge(ctx context.Context, challengeID string) error
}

// Transactor runs fn so that every repository call made with the passed context
// commits or rolls back together, when the backing store supports it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles the repositories of one backend.
type Store struct {
	Challenges    ChallengeRepository
	Participants  ParticipantRepository
	Parts         PartRepository
	Verifications VerificationRepository
	Tx            Transactor
	Close         func(ctx context.Context) error
}
