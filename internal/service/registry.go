package service

import (
	"alcyxob/fitness-challenges/internal/domain"
	"alcyxob/fitness-challenges/internal/repository"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

// CreateChallengeInput carries the raw numeric fields of a new challenge.
// Numbers arrive as float64 so that non-integral values can be rejected with
// the same messages regardless of the transport.
type CreateChallengeInput struct {
	Creator     string
	CreatorType domain.CreatorType
	Level       float64
	Exercise    string
	Reps        *float64
	Sets        *float64
	Weight      *float64
	Minutes     *float64
	Frequency   float64
	Duration    float64
}

// ChallengeRegistry owns challenge definitions, the open flag and the roster.
type ChallengeRegistry struct {
	challenges   repository.ChallengeRepository
	participants repository.ParticipantRepository
}

// NewChallengeRegistry creates a ChallengeRegistry.
func NewChallengeRegistry(challenges repository.ChallengeRepository, participants repository.ParticipantRepository) *ChallengeRegistry {
	return &ChallengeRegistry{challenges: challenges, participants: participants}
}

// MaxChallengeParts bounds frequency * duration of a single challenge.
const MaxChallengeParts = 1000

// isInteger reports whether v is integral and fits in an int32.
func isInteger(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v == math.Trunc(v) &&
		v >= math.MinInt32 && v <= math.MaxInt32
}

func isPositiveNumber(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0 && v <= math.MaxInt32
}

func optionalInt(v *float64) *int {
	if v == nil {
		return nil
	}
	i := int(*v)
	return &i
}

// Build validates in and derives the challenge it describes without persisting it.
// The first failing rule wins.
func (r *ChallengeRegistry) Build(in CreateChallengeInput) (*domain.Challenge, error) {
	if !isInteger(in.Level) || in.Level < 1 || in.Level > 3 {
		return nil, ErrInvalidLevel
	}
	if in.Reps != nil && (!isInteger(*in.Reps) || *in.Reps <= 0) {
		return nil, ErrInvalidReps
	}
	if in.Sets != nil && (!isInteger(*in.Sets) || *in.Sets <= 0) {
		return nil, ErrInvalidSets
	}
	if in.Weight != nil && !isPositiveNumber(*in.Weight) {
		return nil, ErrInvalidWeight
	}
	if in.Minutes != nil && !isPositiveNumber(*in.Minutes) {
		return nil, ErrInvalidMinutes
	}
	if !isInteger(in.Frequency) || in.Frequency <= 0 {
		return nil, ErrInvalidFrequency
	}
	if !isInteger(in.Duration) || in.Duration <= 0 {
		return nil, ErrInvalidDuration
	}
	if in.Frequency*in.Duration > MaxChallengeParts {
		return nil, ErrTooManyParts
	}
	if strings.TrimSpace(in.Exercise) == "" {
		return nil, ErrInvalidExercise
	}
	if !in.CreatorType.Valid() {
		return nil, ErrInvalidCreatorType
	}
	if in.Creator == "" {
		return nil, ErrCreatorRequired
	}

	level := int(in.Level)
	frequency := int(in.Frequency)
	duration := int(in.Duration)
	reps := optionalInt(in.Reps)
	sets := optionalInt(in.Sets)

	return &domain.Challenge{
		CreatorType: in.CreatorType,
		Creator:     in.Creator,
		Exercise:    in.Exercise,
		Reps:        reps,
		Sets:        sets,
		Weight:      in.Weight,
		Minutes:     in.Minutes,
		Frequency:   frequency,
		Duration:    duration,
		Level:       level,
		Points:      CalculatePoints(level, reps, sets, in.Weight, in.Minutes),
		BonusPoints: CalculateBonusPoints(level, frequency, duration),
		Open:        false,
	}, nil
}

// Insert persists a challenge produced by Build.
func (r *ChallengeRegistry) Insert(ctx context.Context, challenge *domain.Challenge) (string, error) {
	id, err := r.challenges.Create(ctx, challenge)
	if err != nil {
		return "", fmt.Errorf("insert challenge: %w", err)
	}
	return id, nil
}

// Get returns the challenge or ErrChallengeNotFound.
func (r *ChallengeRegistry) Get(ctx context.Context, challengeID string) (*domain.Challenge, error) {
	challenge, err := r.challenges.GetByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}
	return challenge, nil
}

// SetOpen opens or closes a challenge. Setting the current value is a no-op that still succeeds.
func (r *ChallengeRegistry) SetOpen(ctx context.Context, challengeID string, open bool) error {
	challenge, err := r.Get(ctx, challengeID)
	if err != nil {
		return err
	}
	if challenge.Open == open {
		return nil
	}
	if err := r.challenges.SetOpen(ctx, challengeID, open); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrChallengeNotFound
		}
		return err
	}
	return nil
}

// Remove deletes the challenge and its roster. Parts and verification
// requests are removed by their owners before this is called.
func (r *ChallengeRegistry) Remove(ctx context.Context, challengeID string) error {
	if err := r.participants.DeleteByChallenge(ctx, challengeID); err != nil {
		return fmt.Errorf("delete roster: %w", err)
	}
	if err := r.challenges.Delete(ctx, challengeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrChallengeNotFound
		}
		return err
	}
	return nil
}

// Invite adds every user not yet on the roster.
func (r *ChallengeRegistry) Invite(ctx context.Context, challengeID string, users []string) error {
	if _, err := r.Get(ctx, challengeID); err != nil {
		return err
	}
	if err := r.participants.AddInvitees(ctx, challengeID, users); err != nil {
		return fmt.Errorf("add invitees: %w", err)
	}
	return nil
}

// Accept marks an invited user as accepted.
func (r *ChallengeRegistry) Accept(ctx context.Context, challengeID, user string) error {
	if _, err := r.Get(ctx, challengeID); err != nil {
		return err
	}
	participant, err := r.Participant(ctx, challengeID, user)
	if err != nil {
		return err
	}
	if participant == nil {
		return ErrUserNotInvited
	}
	if participant.Accepted {
		return nil
	}
	if err := r.participants.Accept(ctx, challengeID, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotInvited
		}
		return err
	}
	return nil
}

// RemoveParticipant drops the roster entry of user.
func (r *ChallengeRegistry) RemoveParticipant(ctx context.Context, challengeID, user string) error {
	if err := r.participants.Remove(ctx, challengeID, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotParticipant
		}
		return err
	}
	return nil
}

// Participant returns the roster entry, or nil when the user is not on the roster.
func (r *ChallengeRegistry) Participant(ctx context.Context, challengeID, user string) (*domain.Participant, error) {
	participant, err := r.participants.Get(ctx, challengeID, user)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return participant, nil
}

// Roster returns every roster entry of the challenge.
func (r *ChallengeRegistry) Roster(ctx context.Context, challengeID string) ([]domain.Participant, error) {
	return r.participants.ListByChallenge(ctx, challengeID)
}

// RecordProgress counts one more completed part for user and flips the
// completed flag once every part is done. It reports whether the flag flipped.
func (r *ChallengeRegistry) RecordProgress(ctx context.Context, challenge *domain.Challenge, user string, newPart bool) (bool, error) {
	if newPart {
		if _, err := r.participants.IncrementProgress(ctx, challenge.ID, user); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return false, ErrUserNotAccepted
			}
			return false, fmt.Errorf("increment progress: %w", err)
		}
	}
	flipped, err := r.participants.MarkCompleted(ctx, challenge.ID, user, challenge.TotalParts())
	if err != nil {
		return false, fmt.Errorf("mark completed: %w", err)
	}
	return flipped, nil
}

// AcceptedChallengeIDs lists the challenges user has accepted.
func (r *ChallengeRegistry) AcceptedChallengeIDs(ctx context.Context, user string) ([]string, error) {
	return r.participants.ListAcceptedChallengeIDs(ctx, user)
}

// GetMany loads the challenges with the given IDs, skipping missing ones.
func (r *ChallengeRegistry) GetMany(ctx context.Context, ids []string) ([]domain.Challenge, error) {
	return r.challenges.GetByIDs(ctx, ids)
}
