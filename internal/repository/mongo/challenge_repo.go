package mongo

import (
	"alcyxob/fitness-challenges/internal/domain"
	"alcyxob/fitness-challenges/internal/repository"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const challengeCollectionName = "challenges"

// mongoChallengeRepository implements repository.ChallengeRepository
type mongoChallengeRepository struct {
	collection *mongo.Collection
}

// NewMongoChallengeRepository creates a new Challenge repository backed by MongoDB.
func NewMongoChallengeRepository(db *mongo.Database) repository.ChallengeRepository {
	return &mongoChallengeRepository{
		collection: db.Collection(challengeCollectionName),
	}
}

// Create inserts a new challenge. An ID is allocated if the caller did not set one.
func (r *mongoChallengeRepository) Create(ctx context.Context, challenge *domain.Challenge) (string, error) {
	if challenge.Creator == "" || challenge.Exercise == "" {
		return "", errors.New("challenge requires creator and exercise")
	}

	if challenge.ID == "" {
		challenge.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	challenge.CreatedAt = now
	challenge.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, challenge); err != nil {
		return "", err
	}
	return challenge.ID, nil
}

// GetByID retrieves a challenge by its ID.
func (r *mongoChallengeRepository) GetByID(ctx context.Context, id string) (*domain.Challenge, error) {
	var challenge domain.Challenge
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&challenge)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &challenge, nil
}

// GetByIDs retrieves every existing challenge out of ids, newest first.
func (r *mongoChallengeRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Challenge, error) {
	challenges := []domain.Challenge{}
	if len(ids) == 0 {
		return challenges, nil
	}
	filter := bson.M{"_id": bson.M{"$in": ids}}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &challenges); err != nil {
		return nil, err
	}
	return challenges, nil
}

// SetOpen sets the open flag. Setting the current value still succeeds.
func (r *mongoChallengeRepository) SetOpen(ctx context.Context, id string, open bool) error {
	update := bson.M{"$set": bson.M{"open": open, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes only the challenge document; children are handled by their repositories.
func (r *mongoChallengeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureChallengeIndexes creates necessary indexes for the challenges collection.
func EnsureChallengeIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// isUserCreator / isGroupCreator lookups and "my challenges" listings
			Keys:    bson.D{{Key: "creatorType", Value: 1}, {Key: "creator", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	})
}
