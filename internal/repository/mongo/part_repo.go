package mongo

import (
	"alcyxob/fitness-challenges/internal/domain"
	"alcyxob/fitness-challenges/internal/repository"
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const partCollectionName = "parts"

// mongoPartRepository implements repository.PartRepository
type mongoPartRepository struct {
	collection *mongo.Collection
}

// NewMongoPartRepository creates a new Part repository backed by MongoDB.
func NewMongoPartRepository(db *mongo.Database) repository.PartRepository {
	return &mongoPartRepository{
		collection: db.Collection(partCollectionName),
	}
}

// CreateMany inserts a whole schedule. Missing IDs are allocated in place.
func (r *mongoPartRepository) CreateMany(ctx context.Context, parts []domain.Part) error {
	if len(parts) == 0 {
		return nil
	}
	docs := make([]interface{}, len(parts))
	for i := range parts {
		if parts[i].ChallengeID == "" {
			return errors.New("part requires challengeId")
		}
		if parts[i].ID == "" {
			parts[i].ID = uuid.NewString()
		}
		if parts[i].Completers == nil {
			parts[i].Completers = []string{}
		}
		docs[i] = parts[i]
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// GetByID retrieves a part by its ID.
func (r *mongoPartRepository) GetByID(ctx context.Context, id string) (*domain.Part, error) {
	var part domain.Part
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&part)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &part, nil
}

// ListByChallenge returns the schedule ordered by week then day.
func (r *mongoPartRepository) ListByChallenge(ctx context.Context, challengeID string) ([]domain.Part, error) {
	parts := []domain.Part{}
	findOptions := options.Find().SetSort(bson.D{{Key: "week", Value: 1}, {Key: "day", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"challengeId": challengeID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &parts); err != nil {
		return nil, err
	}
	return parts, nil
}

// AddCompleter adds userID to the completer set. The $ne filter makes the
// insert conditional, so only one concurrent caller observes added=true.
func (r *mongoPartRepository) AddCompleter(ctx context.Context, partID, userID string) (bool, error) {
	filter := bson.M{"_id": partID, "completers": bson.M{"$ne": userID}}
	update := bson.M{"$addToSet": bson.M{"completers": userID}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount == 1, nil
}

// RemoveCompleterFromChallenge pulls userID out of every completer set of the challenge.
func (r *mongoPartRepository) RemoveCompleterFromChallenge(ctx context.Context, challengeID, userID string) error {
	filter := bson.M{"challengeId": challengeID, "completers": userID}
	update := bson.M{"$pull": bson.M{"completers": userID}}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}

// DeleteByChallenge removes the schedule of a challenge.
func (r *mongoPartRepository) DeleteByChallenge(ctx context.Context, challengeID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"challengeId": challengeID})
	return err
}

// EnsurePartIndexes creates necessary indexes for the parts collection.
func EnsurePartIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// Exactly one part per (week, day) of a challenge
			Keys:    bson.D{{Key: "challengeId", Value: 1}, {Key: "week", Value: 1}, {Key: "day", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "challengeId", Value: 1}, {Key: "completers", Value: 1}},
			Options: options.Index(),
		},
	})
}
