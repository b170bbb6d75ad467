package service

import (
	"alcyxob/fitness-challenges/internal/domain"
	"alcyxob/fitness-challenges/internal/metrics"
	"alcyxob/fitness-challenges/internal/repository"
	"context"
	"errors"
	"log"
)

// ChallengeDetails is the public description of a challenge.
type ChallengeDetails struct {
	Exercise  string   `json:"exercise"`
	Level     int      `json:"level"`
	Frequency int      `json:"frequency"`
	Duration  int      `json:"duration"`
	Reps      *int     `json:"reps,omitempty"`
	Sets      *int     `json:"sets,omitempty"`
	Minutes   *float64 `json:"minutes,omitempty"`
	Weight    *float64 `json:"weight,omitempty"`
}

// Creator identifies who issued a challenge.
type Creator struct {
	Creator     string             `json:"creator"`
	CreatorType domain.CreatorType `json:"creatorType"`
}

// ChallengeService is the only operation surface of the challenge engine.
// Actions return a *ChallengeError for domain failures. Queries never fail
// on missing entities; they return false, empty or not-found results instead.
type ChallengeService interface {
	// Actions
	CreateChallenge(ctx context.Context, in CreateChallengeInput) (string, error)
	OpenChallenge(ctx context.Context, challengeID string) error
	CloseChallenge(ctx context.Context, challengeID string) error
	DeleteChallenge(ctx context.Context, challengeID string) error
	InviteToChallenge(ctx context.Context, challengeID string, users []string) error
	AcceptChallenge(ctx context.Context, challengeID, user string) error
	LeaveChallenge(ctx context.Context, challengeID, user string) error
	CompletePart(ctx context.Context, partID, user string) error
	CreateVerificationRequest(ctx context.Context, partID, requester, approver, evidence string) (string, error)
	// Verify approves the pending request of requester for the part. A non-empty
	// approver must match the approver named on the request.
	Verify(ctx context.Context, partID, requester, approver string) error

	// Queries
	IsUserCreator(ctx context.Context, challengeID, user string) (bool, error)
	IsGroupCreator(ctx context.Context, challengeID, group string) (bool, error)
	IsParticipant(ctx context.Context, challengeID, user string) (bool, error)
	IsInvited(ctx context.Context, challengeID, user string) (bool, error)
	IsOpen(ctx context.Context, challengeID string) (bool, error)
	IsCompletedPart(ctx context.Context, partID, user string) (bool, error)
	IsCompletedChallenge(ctx context.Context, challengeID, user string) (bool, error)
	GetParticipants(ctx context.Context, challengeID string) ([]string, error)
	GetInvitees(ctx context.Context, challengeID string) ([]string, error)
	GetCompleters(ctx context.Context, challengeID string) ([]string, error)
	GetChallengeDetails(ctx context.Context, challengeID string) (*ChallengeDetails, error)
	GetCreator(ctx context.Context, challengeID string) (*Creator, error)
	GetPartPoints(ctx context.Context, partID string) (int, bool, error)
	GetChallengePoints(ctx context.Context, challengeID string) (int, bool, error)
	GetChallengesForUser(ctx context.Context, user string) ([]string, error)
	ListChallengesForUser(ctx context.Context, user string) ([]domain.Challenge, error)
	GetAssociatedChallenge(ctx context.Context, partID string) (string, bool, error)
	GetParts(ctx context.Context, challengeID string) ([]domain.Part, error)
	GetPendingVerifications(ctx context.Context, approver string) ([]domain.VerificationRequest, error)
	GetVerificationRequest(ctx context.Context, id string) (*domain.VerificationRequest, error)
}

// challengeService implements ChallengeService.
type challengeService struct {
	registry      *ChallengeRegistry
	scheduler     *PartScheduler
	verifications *VerificationWorkflow
	tx            repository.Transactor
}

// NewChallengeService wires the registry, scheduler and verification workflow over store.
func NewChallengeService(store *repository.Store) ChallengeService {
	return &challengeService{
		registry:      NewChallengeRegistry(store.Challenges, store.Participants),
		scheduler:     NewPartScheduler(store.Parts),
		verifications: NewVerificationWorkflow(store.Verifications),
		tx:            store.Tx,
	}
}

// === Actions ===

// CreateChallenge validates the input, then stores the challenge and its full schedule.
func (s *challengeService) CreateChallenge(ctx context.Context, in CreateChallengeInput) (string, error) {
	// 1. Validate before touching storage
	challenge, err := s.registry.Build(in)
	if err != nil {
		return "", err
	}

	// 2. Insert challenge and parts as a unit
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.registry.Insert(ctx, challenge); err != nil {
			return err
		}
		_, err := s.scheduler.Schedule(ctx, challenge)
		return err
	})
	if err != nil {
		// Without transactions a half-written challenge may remain.
		if challenge.ID != "" {
			s.cleanup(ctx, challenge.ID)
		}
		log.Printf("ERROR: Failed to create challenge: %v", err)
		return "", err
	}

	metrics.ChallengesCreated.Inc()
	log.Printf("INFO: Challenge %s created by %s %s (%d parts)", challenge.ID, challenge.CreatorType, challenge.Creator, challenge.TotalParts())
	return challenge.ID, nil
}

func (s *challengeService) cleanup(ctx context.Context, challengeID string) {
	if err := s.scheduler.Remove(ctx, challengeID); err != nil {
		log.Printf("WARN: Cleanup of parts for challenge %s failed: %v", challengeID, err)
	}
	if err := s.registry.Remove(ctx, challengeID); err != nil && !errors.Is(err, ErrChallengeNotFound) {
		log.Printf("WARN: Cleanup of challenge %s failed: %v", challengeID, err)
	}
}

func (s *challengeService) OpenChallenge(ctx context.Context, challengeID string) error {
	return s.registry.SetOpen(ctx, challengeID, true)
}

func (s *challengeService) CloseChallenge(ctx context.Context, challengeID string) error {
	return s.registry.SetOpen(ctx, challengeID, false)
}

// DeleteChallenge removes the challenge with its roster, parts and verification
// requests. Children go first, so a retry finishes an interrupted delete.
func (s *challengeService) DeleteChallenge(ctx context.Context, challengeID string) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.registry.Get(ctx, challengeID); err != nil {
			return err
		}
		if err := s.verifications.Remove(ctx, challengeID); err != nil {
			return err
		}
		if err := s.scheduler.Remove(ctx, challengeID); err != nil {
			return err
		}
		return s.registry.Remove(ctx, challengeID)
	})
	if err != nil {
		return err
	}

	metrics.ChallengesDeleted.Inc()
	log.Printf("INFO: Challenge %s deleted", challengeID)
	return nil
}

func (s *challengeService) InviteToChallenge(ctx context.Context, challengeID string, users []string) error {
	return s.registry.Invite(ctx, challengeID, users)
}

func (s *challengeService) AcceptChallenge(ctx context.Context, challengeID, user string) error {
	return s.registry.Accept(ctx, challengeID, user)
}

// LeaveChallenge drops the user from the roster and from every completer set.
func (s *challengeService) LeaveChallenge(ctx context.Context, challengeID, user string) error {
	if _, err := s.registry.Get(ctx, challengeID); err != nil {
		return err
	}
	participant, err := s.registry.Participant(ctx, challengeID, user)
	if err != nil {
		return err
	}
	if participant == nil {
		return ErrUserNotParticipant
	}

	// Completers are pulled before the roster entry so that a failed leave can be retried.
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.scheduler.ForgetUser(ctx, challengeID, user); err != nil {
			return err
		}
		return s.registry.RemoveParticipant(ctx, challengeID, user)
	})
}

// CompletePart records that user did the part and completes the challenge
// for them once every part is done.
func (s *challengeService) CompletePart(ctx context.Context, partID, user string) error {
	// 1. Resolve part and challenge
	part, err := s.scheduler.Get(ctx, partID)
	if err != nil {
		return err
	}
	challenge, err := s.associatedChallenge(ctx, part)
	if err != nil {
		return err
	}
	if !challenge.Open {
		return ErrChallengeNotOpen
	}

	// 2. Only accepted participants may complete parts
	participant, err := s.registry.Participant(ctx, challenge.ID, user)
	if err != nil {
		return err
	}
	if participant == nil || !participant.Accepted {
		return ErrUserNotAccepted
	}

	// 3. Conditional completer insert, counter bump, conditional completed flip
	var added, completed bool
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		added, err = s.scheduler.MarkDone(ctx, part.ID, user)
		if err != nil {
			return err
		}
		completed, err = s.registry.RecordProgress(ctx, challenge, user, added)
		return err
	})
	if err != nil {
		return err
	}

	if added {
		metrics.PartsCompleted.Inc()
	}
	if completed {
		metrics.ChallengesCompleted.Inc()
		log.Printf("INFO: User %s completed challenge %s", user, challenge.ID)
	}
	return nil
}

func (s *challengeService) associatedChallenge(ctx context.Context, part *domain.Part) (*domain.Challenge, error) {
	challenge, err := s.registry.Get(ctx, part.ChallengeID)
	if err != nil {
		if errors.Is(err, ErrChallengeNotFound) {
			return nil, ErrAssociatedChallengeNotFound
		}
		return nil, err
	}
	return challenge, nil
}

// CreateVerificationRequest asks approver to confirm that requester did the part.
// Completing the part first is not required.
func (s *challengeService) CreateVerificationRequest(ctx context.Context, partID, requester, approver, evidence string) (string, error) {
	part, err := s.scheduler.Get(ctx, partID)
	if err != nil {
		return "", err
	}
	challenge, err := s.associatedChallenge(ctx, part)
	if err != nil {
		return "", err
	}
	if !challenge.Open {
		return "", ErrChallengeNotOpen
	}

	id, err := s.verifications.Request(ctx, part, requester, approver, evidence)
	if err != nil {
		return "", err
	}

	metrics.VerificationRequests.Inc()
	log.Printf("INFO: Verification request %s created for part %s by %s", id, partID, requester)
	return id, nil
}

func (s *challengeService) Verify(ctx context.Context, partID, requester, approver string) error {
	req, err := s.verifications.Pending(ctx, partID, requester)
	if err != nil {
		return err
	}

	challenge, err := s.registry.Get(ctx, req.ChallengeID)
	if err != nil {
		if errors.Is(err, ErrChallengeNotFound) {
			return ErrAssociatedChallengeNotFound
		}
		return err
	}
	if !challenge.Open {
		return ErrChallengeNotOpen
	}

	if err := s.verifications.Approve(ctx, req, approver); err != nil {
		return err
	}

	metrics.VerificationsApproved.Inc()
	log.Printf("INFO: Verification request %s approved", req.ID)
	return nil
}

// === Queries ===

// findChallenge returns nil when the challenge does not exist.
func (s *challengeService) findChallenge(ctx context.Context, challengeID string) (*domain.Challenge, error) {
	challenge, err := s.registry.Get(ctx, challengeID)
	if err != nil {
		if errors.Is(err, ErrChallengeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return challenge, nil
}

func (s *challengeService) isCreator(ctx context.Context, challengeID string, kind domain.CreatorType, id string) (bool, error) {
	challenge, err := s.findChallenge(ctx, challengeID)
	if err != nil || challenge == nil {
		return false, err
	}
	return challenge.IsCreatedBy(kind, id), nil
}

func (s *challengeService) IsUserCreator(ctx context.Context, challengeID, user string) (bool, error) {
	return s.isCreator(ctx, challengeID, domain.CreatorUser, user)
}

func (s *challengeService) IsGroupCreator(ctx context.Context, challengeID, group string) (bool, error) {
	return s.isCreator(ctx, challengeID, domain.CreatorGroup, group)
}

func (s *challengeService) IsParticipant(ctx context.Context, challengeID, user string) (bool, error) {
	participant, err := s.registry.Participant(ctx, challengeID, user)
	if err != nil || participant == nil {
		return false, err
	}
	return participant.Accepted, nil
}

func (s *challengeService) IsInvited(ctx context.Context, challengeID, user string) (bool, error) {
	participant, err := s.registry.Participant(ctx, challengeID, user)
	if err != nil {
		return false, err
	}
	return participant != nil, nil
}

func (s *challengeService) IsOpen(ctx context.Context, challengeID string) (bool, error) {
	challenge, err := s.findChallenge(ctx, challengeID)
	if err != nil || challenge == nil {
		return false, err
	}
	return challenge.Open, nil
}

func (s *challengeService) IsCompletedPart(ctx context.Context, partID, user string) (bool, error) {
	part, err := s.scheduler.Find(ctx, partID)
	if err != nil || part == nil {
		return false, err
	}
	return part.HasCompleter(user), nil
}

func (s *challengeService) IsCompletedChallenge(ctx context.Context, challengeID, user string) (bool, error) {
	participant, err := s.registry.Participant(ctx, challengeID, user)
	if err != nil || participant == nil {
		return false, err
	}
	return participant.Completed, nil
}

// rosterUsers lists the users of the roster that satisfy keep.
func (s *challengeService) rosterUsers(ctx context.Context, challengeID string, keep func(p domain.Participant) bool) ([]string, error) {
	roster, err := s.registry.Roster(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	users := []string{}
	for _, p := range roster {
		if keep(p) {
			users = append(users, p.UserID)
		}
	}
	return users, nil
}

func (s *challengeService) GetParticipants(ctx context.Context, challengeID string) ([]string, error) {
	return s.rosterUsers(ctx, challengeID, func(p domain.Participant) bool { return p.Accepted })
}

func (s *challengeService) GetInvitees(ctx context.Context, challengeID string) ([]string, error) {
	return s.rosterUsers(ctx, challengeID, func(domain.Participant) bool { return true })
}

func (s *challengeService) GetCompleters(ctx context.Context, challengeID string) ([]string, error) {
	return s.rosterUsers(ctx, challengeID, func(p domain.Participant) bool { return p.Completed })
}

func (s *challengeService) GetChallengeDetails(ctx context.Context, challengeID string) (*ChallengeDetails, error) {
	challenge, err := s.findChallenge(ctx, challengeID)
	if err != nil || challenge == nil {
		return nil, err
	}
	return &ChallengeDetails{
		Exercise:  challenge.Exercise,
		Level:     challenge.Level,
		Frequency: challenge.Frequency,
		Duration:  challenge.Duration,
		Reps:      challenge.Reps,
		Sets:      challenge.Sets,
		Minutes:   challenge.Minutes,
		Weight:    challenge.Weight,
	}, nil
}

func (s *challengeService) GetCreator(ctx context.Context, challengeID string) (*Creator, error) {
	challenge, err := s.findChallenge(ctx, challengeID)
	if err != nil || challenge == nil {
		return nil, err
	}
	return &Creator{Creator: challenge.Creator, CreatorType: challenge.CreatorType}, nil
}

func (s *challengeService) GetPartPoints(ctx context.Context, partID string) (int, bool, error) {
	part, err := s.scheduler.Find(ctx, partID)
	if err != nil || part == nil {
		return 0, false, err
	}
	challenge, err := s.findChallenge(ctx, part.ChallengeID)
	if err != nil || challenge == nil {
		return 0, false, err
	}
	return challenge.Points, true, nil
}

func (s *challengeService) GetChallengePoints(ctx context.Context, challengeID string) (int, bool, error) {
	challenge, err := s.findChallenge(ctx, challengeID)
	if err != nil || challenge == nil {
		return 0, false, err
	}
	return challenge.BonusPoints, true, nil
}

// GetChallengesForUser lists the IDs of the challenges user has accepted.
func (s *challengeService) GetChallengesForUser(ctx context.Context, user string) ([]string, error) {
	ids, err := s.registry.AcceptedChallengeIDs(ctx, user)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// ListChallengesForUser loads the challenges user has accepted.
func (s *challengeService) ListChallengesForUser(ctx context.Context, user string) ([]domain.Challenge, error) {
	ids, err := s.GetChallengesForUser(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Challenge{}, nil
	}
	return s.registry.GetMany(ctx, ids)
}

func (s *challengeService) GetAssociatedChallenge(ctx context.Context, partID string) (string, bool, error) {
	part, err := s.scheduler.Find(ctx, partID)
	if err != nil || part == nil {
		return "", false, err
	}
	return part.ChallengeID, true, nil
}

// GetParts returns the schedule of a challenge with its completers, ordered by week then day.
func (s *challengeService) GetParts(ctx context.Context, challengeID string) ([]domain.Part, error) {
	parts, err := s.scheduler.List(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if parts == nil {
		parts = []domain.Part{}
	}
	return parts, nil
}

func (s *challengeService) GetPendingVerifications(ctx context.Context, approver string) ([]domain.VerificationRequest, error) {
	requests, err := s.verifications.PendingFor(ctx, approver)
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []domain.VerificationRequest{}
	}
	return requests, nil
}

// GetVerificationRequest returns the request or ErrVerificationRequestNotFound.
func (s *challengeService) GetVerificationRequest(ctx context.Context, id string) (*domain.VerificationRequest, error) {
	return s.verifications.Get(ctx, id)
}
