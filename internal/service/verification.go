package service

import (
	"alcyxob/fitness-challenges/internal/domain"
	"alcyxob/fitness-challenges/internal/repository"
	"context"
	"errors"
	"fmt"
)

// VerificationWorkflow owns peer-verification requests.
type VerificationWorkflow struct {
	requests repository.VerificationRepository
}

// NewVerificationWorkflow creates a VerificationWorkflow.
func NewVerificationWorkflow(requests repository.VerificationRepository) *VerificationWorkflow {
	return &VerificationWorkflow{requests: requests}
}

// Request stores a new pending request for part, denormalizing its challenge.
func (w *VerificationWorkflow) Request(ctx context.Context, part *domain.Part, requester, approver, evidence string) (string, error) {
	if requester == approver {
		return "", ErrRequesterIsApprover
	}
	req := &domain.VerificationRequest{
		RequesterID: requester,
		ApproverID:  approver,
		ChallengeID: part.ChallengeID,
		PartID:      part.ID,
		Evidence:    evidence,
	}
	id, err := w.requests.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create verification request: %w", err)
	}
	return id, nil
}

// Pending returns the unapproved request for (part, requester).
func (w *VerificationWorkflow) Pending(ctx context.Context, partID, requester string) (*domain.VerificationRequest, error) {
	req, err := w.requests.FindPending(ctx, partID, requester)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPendingRequestNotFound
		}
		return nil, err
	}
	return req, nil
}

// Approve flips the request to approved. A request approved concurrently is
// reported as no longer pending.
func (w *VerificationWorkflow) Approve(ctx context.Context, req *domain.VerificationRequest, approver string) error {
	if approver != "" && approver != req.ApproverID {
		return ErrNotDesignatedApprover
	}
	if err := w.requests.Approve(ctx, req.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPendingRequestNotFound
		}
		return fmt.Errorf("approve verification request: %w", err)
	}
	return nil
}

// Get returns a request by ID or ErrVerificationRequestNotFound.
func (w *VerificationWorkflow) Get(ctx context.Context, id string) (*domain.VerificationRequest, error) {
	req, err := w.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVerificationRequestNotFound
		}
		return nil, err
	}
	return req, nil
}

// PendingFor lists the requests waiting on approver.
func (w *VerificationWorkflow) PendingFor(ctx context.Context, approver string) ([]domain.VerificationRequest, error) {
	return w.requests.ListPendingByApprover(ctx, approver)
}

// Remove deletes every request of a challenge.
func (w *VerificationWorkflow) Remove(ctx context.Context, challengeID string) error {
	if err := w.requests.DeleteByChallenge(ctx, challengeID); err != nil {
		return fmt.Errorf("delete verification requests: %w", err)
	}
	return nil
}
