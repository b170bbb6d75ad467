package mongo

import (
	"alcyxob/fitness-challenges/internal/domain"
	"alcyxob/fitness-challenges/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const participantCollectionName = "participants"

// mongoParticipantRepository implements repository.ParticipantRepository.
// Uniqueness of (challengeId, userId) is enforced by a unique index.
type mongoParticipantRepository struct {
	collection *mongo.Collection
}

// NewMongoParticipantRepository creates a new roster repository backed by MongoDB.
func NewMongoParticipantRepository(db *mongo.Database) repository.ParticipantRepository {
	return &mongoParticipantRepository{
		collection: db.Collection(participantCollectionName),
	}
}

func participantKey(challengeID, userID string) bson.M {
	return bson.M{"challengeId": challengeID, "userId": userID}
}

// AddInvitees upserts a cold roster entry per user; existing entries are untouched.
func (r *mongoParticipantRepository) AddInvitees(ctx context.Context, challengeID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	seen := make(map[string]bool, len(userIDs))
	models := make([]mongo.WriteModel, 0, len(userIDs))
	for _, userID := range userIDs {
		if userID == "" || seen[userID] {
			continue
		}
		seen[userID] = true
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(participantKey(challengeID, userID)).
			SetUpdate(bson.M{"$setOnInsert": bson.M{
				"accepted":       false,
				"completed":      false,
				"completedParts": 0,
				"invitedAt":      now,
				"updatedAt":      now,
			}}).
			SetUpsert(true))
	}
	if len(models) == 0 {
		return nil
	}
	_, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	return err
}

// Get retrieves the roster entry of userID in challengeID.
func (r *mongoParticipantRepository) Get(ctx context.Context, challengeID, userID string) (*domain.Participant, error) {
	var participant domain.Participant
	err := r.collection.FindOne(ctx, participantKey(challengeID, userID)).Decode(&participant)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &participant, nil
}

// ListByChallenge returns the whole roster in invitation order.
func (r *mongoParticipantRepository) ListByChallenge(ctx context.Context, challengeID string) ([]domain.Participant, error) {
	participants := []domain.Participant{}
	findOptions := options.Find().SetSort(bson.D{{Key: "invitedAt", Value: 1}, {Key: "userId", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"challengeId": challengeID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}

// ListAcceptedChallengeIDs returns the challenges userID has accepted.
func (r *mongoParticipantRepository) ListAcceptedChallengeIDs(ctx context.Context, userID string) ([]string, error) {
	filter := bson.M{"userId": userID, "accepted": true}
	findOptions := options.Find().SetProjection(bson.M{"challengeId": 1})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ChallengeID string `bson:"challengeId"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ChallengeID
	}
	return ids, nil
}

// Accept sets accepted=true. Accepting twice is a no-op.
func (r *mongoParticipantRepository) Accept(ctx context.Context, challengeID, userID string) error {
	update := bson.M{"$set": bson.M{"accepted": true, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, participantKey(challengeID, userID), update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Remove deletes the roster entry.
func (r *mongoParticipantRepository) Remove(ctx context.Context, challengeID, userID string) error {
	result, err := r.collection.DeleteOne(ctx, participantKey(challengeID, userID))
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// IncrementProgress atomically bumps completedParts and returns the new value.
func (r *mongoParticipantRepository) IncrementProgress(ctx context.Context, challengeID, userID string) (int, error) {
	update := bson.M{
		"$inc": bson.M{"completedParts": 1},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var participant domain.Participant
	err := r.collection.FindOneAndUpdate(ctx, participantKey(challengeID, userID), update, opts).Decode(&participant)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, repository.ErrNotFound
		}
		return 0, err
	}
	return participant.CompletedParts, nil
}

// MarkCompleted flips completed only while it is still false and progress is complete.
func (r *mongoParticipantRepository) MarkCompleted(ctx context.Context, challengeID, userID string, totalParts int) (bool, error) {
	filter := bson.M{
		"challengeId":    challengeID,
		"userId":         userID,
		"accepted":       true,
		"completed":      false,
		"completedParts": bson.M{"$gte": totalParts},
	}
	update := bson.M{"$set": bson.M{"completed": true, "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount == 1, nil
}

// DeleteByChallenge drops the whole roster of a challenge.
func (r *mongoParticipantRepository) DeleteByChallenge(ctx context.Context, challengeID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"challengeId": challengeID})
	return err
}

// EnsureParticipantIndexes creates necessary indexes for the participants collection.
func EnsureParticipantIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// One roster entry per user and challenge
			Keys:    bson.D{{Key: "challengeId", Value: 1}, {Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// getChallengesForUser
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "accepted", Value: 1}},
			Options: options.Index(),
		},
	})
}
