package service

import (
	"alcyxob/fitness-challenges/internal/domain"
	"alcyxob/fitness-challenges/internal/repository/sqlite"
	"context"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	userA = "user-a"
	userB = "user-b"
	userC = "user-c"
)

func newTestService(t *testing.T) ChallengeService {
	t.Helper()
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "challenges.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewChallengeService(sqlite.NewStore(db))
}

func basicInput() CreateChallengeInput {
	return CreateChallengeInput{
		Creator:     userA,
		CreatorType: domain.CreatorUser,
		Level:       2,
		Exercise:    "Push-ups",
		Frequency:   3,
		Duration:    2,
	}
}

// openChallenge creates an open challenge with userB as accepted participant.
func openChallenge(t *testing.T, svc ChallengeService, in CreateChallengeInput) (string, []domain.Part) {
	t.Helper()
	ctx := context.Background()
	id, err := svc.CreateChallenge(ctx, in)
	require.NoError(t, err)
	require.NoError(t, svc.InviteToChallenge(ctx, id, []string{userB, userC}))
	require.NoError(t, svc.AcceptChallenge(ctx, id, userB))
	require.NoError(t, svc.OpenChallenge(ctx, id))
	parts, err := svc.GetParts(ctx, id)
	require.NoError(t, err)
	return id, parts
}

func assertChallengeError(t *testing.T, err error, want *ChallengeError) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want.Message, err.Error())
	assert.ErrorIs(t, err, want)
}

func TestCreateChallengeSchedulesPartsAndScores(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateChallenge(ctx, basicInput())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	parts, err := svc.GetParts(ctx, id)
	require.NoError(t, err)
	assert.Len(t, parts, 6)
	seen := map[[2]int]bool{}
	for _, p := range parts {
		seen[[2]int{p.Week, p.Day}] = true
		assert.Empty(t, p.Completers)
	}
	assert.Len(t, seen, 6)

	points, found, err := svc.GetPartPoints(ctx, parts[0].ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 20, points)

	bonus, found, err := svc.GetChallengePoints(ctx, id)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 42, bonus)

	open, err := svc.IsOpen(ctx, id)
	require.NoError(t, err)
	assert.False(t, open)

	invitees, err := svc.GetInvitees(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, invitees)

	creator, err := svc.GetCreator(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, creator)
	assert.Equal(t, userA, creator.Creator)
	assert.Equal(t, domain.CreatorUser, creator.CreatorType)

	details, err := svc.GetChallengeDetails(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, "Push-ups", details.Exercise)
	assert.Equal(t, 2, details.Level)
	assert.Nil(t, details.Reps)
}

func TestCreateChallengeValidationOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(in *CreateChallengeInput)
		want   *ChallengeError
	}{
		{"level out of range", func(in *CreateChallengeInput) { in.Level = 4 }, ErrInvalidLevel},
		{"level fractional", func(in *CreateChallengeInput) { in.Level = 1.5 }, ErrInvalidLevel},
		{"level wins over frequency", func(in *CreateChallengeInput) { in.Level = 0; in.Frequency = 0 }, ErrInvalidLevel},
		{"reps fractional", func(in *CreateChallengeInput) { in.Reps = floatPtr(2.5) }, ErrInvalidReps},
		{"sets zero", func(in *CreateChallengeInput) { in.Sets = floatPtr(0) }, ErrInvalidSets},
		{"weight negative", func(in *CreateChallengeInput) { in.Weight = floatPtr(-1) }, ErrInvalidWeight},
		{"minutes zero", func(in *CreateChallengeInput) { in.Minutes = floatPtr(0) }, ErrInvalidMinutes},
		{"frequency fractional", func(in *CreateChallengeInput) { in.Frequency = 2.2 }, ErrInvalidFrequency},
		{"duration zero", func(in *CreateChallengeInput) { in.Duration = 0 }, ErrInvalidDuration},
		{"frequency overflows int", func(in *CreateChallengeInput) { in.Frequency = 1e19 }, ErrInvalidFrequency},
		{"duration above int32", func(in *CreateChallengeInput) { in.Duration = math.MaxInt32 + 1 }, ErrInvalidDuration},
		{"reps overflows int", func(in *CreateChallengeInput) { in.Reps = floatPtr(1e19) }, ErrInvalidReps},
		{"sets overflows int", func(in *CreateChallengeInput) { in.Sets = floatPtr(1e19) }, ErrInvalidSets},
		{"weight too large", func(in *CreateChallengeInput) { in.Weight = floatPtr(1e300) }, ErrInvalidWeight},
		{"minutes too large", func(in *CreateChallengeInput) { in.Minutes = floatPtr(1e300) }, ErrInvalidMinutes},
		{"too many parts", func(in *CreateChallengeInput) { in.Frequency = 100000; in.Duration = 100000 }, ErrTooManyParts},
		{"one part over the cap", func(in *CreateChallengeInput) { in.Frequency = 7; in.Duration = 143 }, ErrTooManyParts},
		{"parts cap wins over exercise", func(in *CreateChallengeInput) { in.Frequency = 1001; in.Exercise = "" }, ErrTooManyParts},
		{"exercise blank", func(in *CreateChallengeInput) { in.Exercise = "  " }, ErrInvalidExercise},
		{"creator type unknown", func(in *CreateChallengeInput) { in.CreatorType = "Team" }, ErrInvalidCreatorType},
		{"creator missing", func(in *CreateChallengeInput) { in.Creator = "" }, ErrCreatorRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := basicInput()
			tt.mutate(&in)
			id, err := svc.CreateChallenge(ctx, in)
			assertChallengeError(t, err, tt.want)
			assert.Empty(t, id)
		})
	}
}

func TestOpenCloseIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id, err := svc.CreateChallenge(ctx, basicInput())
	require.NoError(t, err)

	require.NoError(t, svc.OpenChallenge(ctx, id))
	require.NoError(t, svc.OpenChallenge(ctx, id))
	open, err := svc.IsOpen(ctx, id)
	require.NoError(t, err)
	assert.True(t, open)

	require.NoError(t, svc.CloseChallenge(ctx, id))
	require.NoError(t, svc.CloseChallenge(ctx, id))
	open, err = svc.IsOpen(ctx, id)
	require.NoError(t, err)
	assert.False(t, open)

	assertChallengeError(t, svc.OpenChallenge(ctx, "missing"), ErrChallengeNotFound)
	assertChallengeError(t, svc.CloseChallenge(ctx, "missing"), ErrChallengeNotFound)
}

func TestInviteAndAccept(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id, err := svc.CreateChallenge(ctx, basicInput())
	require.NoError(t, err)

	require.NoError(t, svc.InviteToChallenge(ctx, id, []string{userB, userC}))
	require.NoError(t, svc.InviteToChallenge(ctx, id, []string{userB, userC}))
	invitees, err := svc.GetInvitees(ctx, id)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{userB, userC}, invitees)

	isParticipant, err := svc.IsParticipant(ctx, id, userB)
	require.NoError(t, err)
	assert.False(t, isParticipant)

	require.NoError(t, svc.AcceptChallenge(ctx, id, userB))
	require.NoError(t, svc.AcceptChallenge(ctx, id, userB))

	participants, err := svc.GetParticipants(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{userB}, participants)

	isParticipant, err = svc.IsParticipant(ctx, id, userC)
	require.NoError(t, err)
	assert.False(t, isParticipant)
	invited, err := svc.IsInvited(ctx, id, userC)
	require.NoError(t, err)
	assert.True(t, invited)

	// re-inviting an accepted user does not reset them
	require.NoError(t, svc.InviteToChallenge(ctx, id, []string{userB}))
	isParticipant, err = svc.IsParticipant(ctx, id, userB)
	require.NoError(t, err)
	assert.True(t, isParticipant)

	ids, err := svc.GetChallengesForUser(ctx, userB)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)

	assertChallengeError(t, svc.AcceptChallenge(ctx, id, "stranger"), ErrUserNotInvited)
	assertChallengeError(t, svc.AcceptChallenge(ctx, "missing", userB), ErrChallengeNotFound)
	assertChallengeError(t, svc.InviteToChallenge(ctx, "missing", []string{userB}), ErrChallengeNotFound)
}

func TestCompletePartCompletesChallenge(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	in := basicInput()
	in.Frequency = 2
	in.Duration = 1
	id, parts := openChallenge(t, svc, in)
	require.Len(t, parts, 2)

	require.NoError(t, svc.CompletePart(ctx, parts[0].ID, userB))
	done, err := svc.IsCompletedPart(ctx, parts[0].ID, userB)
	require.NoError(t, err)
	assert.True(t, done)

	completed, err := svc.IsCompletedChallenge(ctx, id, userB)
	require.NoError(t, err)
	assert.False(t, completed)

	// repeating a part does not count twice
	require.NoError(t, svc.CompletePart(ctx, parts[0].ID, userB))
	completed, err = svc.IsCompletedChallenge(ctx, id, userB)
	require.NoError(t, err)
	assert.False(t, completed)

	require.NoError(t, svc.CompletePart(ctx, parts[1].ID, userB))
	completed, err = svc.IsCompletedChallenge(ctx, id, userB)
	require.NoError(t, err)
	assert.True(t, completed)

	completers, err := svc.GetCompleters(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{userB}, completers)

	// completion is monotonic
	require.NoError(t, svc.CompletePart(ctx, parts[1].ID, userB))
	completed, err = svc.IsCompletedChallenge(ctx, id, userB)
	require.NoError(t, err)
	assert.True(t, completed)
}

func TestBuildAcceptsPartsCap(t *testing.T) {
	registry := NewChallengeRegistry(nil, nil)
	in := basicInput()
	in.Frequency = 10
	in.Duration = 100

	challenge, err := registry.Build(in)
	require.NoError(t, err)
	assert.Equal(t, MaxChallengeParts, challenge.TotalParts())
	assert.Positive(t, challenge.BonusPoints)
}

func TestCompletePartConcurrent(t *testing.T) {
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "challenges.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := sqlite.NewStore(db)
	svc := NewChallengeService(store)
	ctx := context.Background()

	in := basicInput()
	in.Frequency = 4
	in.Duration = 3
	id, parts := openChallenge(t, svc, in)
	require.Len(t, parts, 12)

	var wg sync.WaitGroup
	errs := make(chan error, len(parts)*3)
	for round := 0; round < 3; round++ {
		for _, p := range parts {
			wg.Add(1)
			go func(partID string) {
				defer wg.Done()
				errs <- svc.CompletePart(ctx, partID, userB)
			}(p.ID)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	completed, err := svc.IsCompletedChallenge(ctx, id, userB)
	require.NoError(t, err)
	assert.True(t, completed)

	participant, err := store.Participants.Get(ctx, id, userB)
	require.NoError(t, err)
	assert.Equal(t, len(parts), participant.CompletedParts)
	assert.True(t, participant.Completed)

	for _, p := range parts {
		done, err := svc.IsCompletedPart(ctx, p.ID, userB)
		require.NoError(t, err)
		assert.True(t, done)
	}
}

func TestCompletePartPreconditions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id, parts := openChallenge(t, svc, basicInput())

	assertChallengeError(t, svc.CompletePart(ctx, "missing", userB), ErrPartNotFound)
	assertChallengeError(t, svc.CompletePart(ctx, parts[0].ID, userC), ErrUserNotAccepted)
	assertChallengeError(t, svc.CompletePart(ctx, parts[0].ID, "stranger"), ErrUserNotAccepted)

	require.NoError(t, svc.CloseChallenge(ctx, id))
	assertChallengeError(t, svc.CompletePart(ctx, parts[0].ID, userB), ErrChallengeNotOpen)

	done, err := svc.IsCompletedPart(ctx, parts[0].ID, userB)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestLeaveChallengeClearsProgress(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	in := basicInput()
	in.Frequency = 1
	in.Duration = 2
	id, parts := openChallenge(t, svc, in)

	require.NoError(t, svc.CompletePart(ctx, parts[0].ID, userB))
	require.NoError(t, svc.LeaveChallenge(ctx, id, userB))

	invited, err := svc.IsInvited(ctx, id, userB)
	require.NoError(t, err)
	assert.False(t, invited)
	done, err := svc.IsCompletedPart(ctx, parts[0].ID, userB)
	require.NoError(t, err)
	assert.False(t, done)

	assertChallengeError(t, svc.LeaveChallenge(ctx, id, userB), ErrUserNotParticipant)
	assertChallengeError(t, svc.LeaveChallenge(ctx, "missing", userB), ErrChallengeNotFound)

	// rejoining starts from zero
	require.NoError(t, svc.InviteToChallenge(ctx, id, []string{userB}))
	require.NoError(t, svc.AcceptChallenge(ctx, id, userB))
	require.NoError(t, svc.CompletePart(ctx, parts[1].ID, userB))
	completed, err := svc.IsCompletedChallenge(ctx, id, userB)
	require.NoError(t, err)
	assert.False(t, completed)

	require.NoError(t, svc.CompletePart(ctx, parts[0].ID, userB))
	completed, err = svc.IsCompletedChallenge(ctx, id, userB)
	require.NoError(t, err)
	assert.True(t, completed)
}

func TestVerificationRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id, parts := openChallenge(t, svc, basicInput())

	// no completion precondition
	reqID, err := svc.CreateVerificationRequest(ctx, parts[0].ID, userB, userC, "evidence/key.jpg")
	require.NoError(t, err)
	require.NotEmpty(t, reqID)

	pending, err := svc.GetPendingVerifications(ctx, userC)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, reqID, pending[0].ID)
	assert.Equal(t, id, pending[0].ChallengeID)
	assert.False(t, pending[0].Approved)

	assertChallengeError(t, svc.Verify(ctx, parts[0].ID, userB, userA), ErrNotDesignatedApprover)
	require.NoError(t, svc.Verify(ctx, parts[0].ID, userB, userC))

	req, err := svc.GetVerificationRequest(ctx, reqID)
	require.NoError(t, err)
	assert.True(t, req.Approved)
	assert.NotNil(t, req.ApprovedAt)

	pending, err = svc.GetPendingVerifications(ctx, userC)
	require.NoError(t, err)
	assert.Empty(t, pending)

	assertChallengeError(t, svc.Verify(ctx, parts[0].ID, userB, ""), ErrPendingRequestNotFound)
}

func TestVerificationPreconditions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id, parts := openChallenge(t, svc, basicInput())

	_, err := svc.CreateVerificationRequest(ctx, "missing", userB, userC, "e")
	assertChallengeError(t, err, ErrPartNotFound)

	_, err = svc.CreateVerificationRequest(ctx, parts[0].ID, userB, userB, "e")
	assertChallengeError(t, err, ErrRequesterIsApprover)

	_, err = svc.CreateVerificationRequest(ctx, parts[0].ID, userB, userC, "e")
	require.NoError(t, err)

	require.NoError(t, svc.CloseChallenge(ctx, id))
	_, err = svc.CreateVerificationRequest(ctx, parts[1].ID, userB, userC, "e")
	assertChallengeError(t, err, ErrChallengeNotOpen)
	assertChallengeError(t, svc.Verify(ctx, parts[0].ID, userB, ""), ErrChallengeNotOpen)

	// trusted callers may omit the approver
	require.NoError(t, svc.OpenChallenge(ctx, id))
	require.NoError(t, svc.Verify(ctx, parts[0].ID, userB, ""))
}

func TestDeleteChallengeCascades(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id, parts := openChallenge(t, svc, basicInput())

	require.NoError(t, svc.CompletePart(ctx, parts[0].ID, userB))
	reqID, err := svc.CreateVerificationRequest(ctx, parts[0].ID, userB, userC, "e")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteChallenge(ctx, id))

	assertChallengeError(t, svc.DeleteChallenge(ctx, id), ErrChallengeNotFound)
	assertChallengeError(t, svc.OpenChallenge(ctx, id), ErrChallengeNotFound)

	remaining, err := svc.GetParts(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, remaining)
	invitees, err := svc.GetInvitees(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, invitees)
	_, err = svc.GetVerificationRequest(ctx, reqID)
	assertChallengeError(t, err, ErrVerificationRequestNotFound)

	_, found, err := svc.GetAssociatedChallenge(ctx, parts[0].ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestQueriesOnMissingEntities(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, check := range []func() (bool, error){
		func() (bool, error) { return svc.IsOpen(ctx, "missing") },
		func() (bool, error) { return svc.IsParticipant(ctx, "missing", userA) },
		func() (bool, error) { return svc.IsInvited(ctx, "missing", userA) },
		func() (bool, error) { return svc.IsCompletedChallenge(ctx, "missing", userA) },
		func() (bool, error) { return svc.IsCompletedPart(ctx, "missing", userA) },
		func() (bool, error) { return svc.IsUserCreator(ctx, "missing", userA) },
		func() (bool, error) { return svc.IsGroupCreator(ctx, "missing", "g1") },
	} {
		result, err := check()
		require.NoError(t, err)
		assert.False(t, result)
	}

	details, err := svc.GetChallengeDetails(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, details)
	creator, err := svc.GetCreator(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, creator)
	_, found, err := svc.GetPartPoints(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = svc.GetChallengePoints(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	users, err := svc.GetParticipants(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, users)
	challenges, err := svc.ListChallengesForUser(ctx, userA)
	require.NoError(t, err)
	assert.Empty(t, challenges)
}

func TestCreatorQueries(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	in := basicInput()
	in.CreatorType = domain.CreatorGroup
	in.Creator = "group-1"
	id, err := svc.CreateChallenge(ctx, in)
	require.NoError(t, err)

	isGroup, err := svc.IsGroupCreator(ctx, id, "group-1")
	require.NoError(t, err)
	assert.True(t, isGroup)

	// the same identifier as a user is not the creator
	isUser, err := svc.IsUserCreator(ctx, id, "group-1")
	require.NoError(t, err)
	assert.False(t, isUser)
}

func TestListChallengesForUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	first, _ := openChallenge(t, svc, basicInput())
	second, _ := openChallenge(t, svc, basicInput())

	challenges, err := svc.ListChallengesForUser(ctx, userB)
	require.NoError(t, err)
	ids := []string{}
	for _, c := range challenges {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []string{first, second}, ids)
}
