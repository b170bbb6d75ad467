package service

import (
	"alcyxob/fitness-challenges/internal/domain"
	"alcyxob/fitness-challenges/internal/repository"
	"context"
	"errors"
	"fmt"
)

// PartScheduler owns the parts of every challenge and who completed them.
type PartScheduler struct {
	parts repository.PartRepository
}

// NewPartScheduler creates a PartScheduler.
func NewPartScheduler(parts repository.PartRepository) *PartScheduler {
	return &PartScheduler{parts: parts}
}

// Schedule persists one part per (week, day) of the challenge.
func (s *PartScheduler) Schedule(ctx context.Context, challenge *domain.Challenge) ([]domain.Part, error) {
	parts := domain.NewSchedule(challenge.ID, challenge.Frequency, challenge.Duration)
	if err := s.parts.CreateMany(ctx, parts); err != nil {
		return nil, fmt.Errorf("schedule parts: %w", err)
	}
	return parts, nil
}

// Get returns the part or ErrPartNotFound.
func (s *PartScheduler) Get(ctx context.Context, partID string) (*domain.Part, error) {
	part, err := s.parts.GetByID(ctx, partID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPartNotFound
		}
		return nil, err
	}
	return part, nil
}

// Find returns the part, or nil when it does not exist.
func (s *PartScheduler) Find(ctx context.Context, partID string) (*domain.Part, error) {
	part, err := s.parts.GetByID(ctx, partID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return part, nil
}

// List returns the parts of a challenge ordered by week then day.
func (s *PartScheduler) List(ctx context.Context, challengeID string) ([]domain.Part, error) {
	return s.parts.ListByChallenge(ctx, challengeID)
}

// MarkDone adds user to the completer set of the part and reports whether
// this call added it. Repeated calls are no-ops.
func (s *PartScheduler) MarkDone(ctx context.Context, partID, user string) (bool, error) {
	added, err := s.parts.AddCompleter(ctx, partID, user)
	if err != nil {
		return false, fmt.Errorf("add completer: %w", err)
	}
	return added, nil
}

// ForgetUser removes user from every completer set of the challenge.
func (s *PartScheduler) ForgetUser(ctx context.Context, challengeID, user string) error {
	if err := s.parts.RemoveCompleterFromChallenge(ctx, challengeID, user); err != nil {
		return fmt.Errorf("remove completer: %w", err)
	}
	return nil
}

// Remove deletes the schedule of a challenge.
func (s *PartScheduler) Remove(ctx context.Context, challengeID string) error {
	if err := s.parts.DeleteByChallenge(ctx, challengeID); err != nil {
		return fmt.Errorf("delete parts: %w", err)
	}
	return nil
}
