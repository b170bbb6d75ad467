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

const verificationCollectionName = "verification_requests"

// mongoVerificationRepository implements repository.VerificationRepository
type mongoVerificationRepository struct {
	collection *mongo.Collection
}

// NewMongoVerificationRepository creates a new VerificationRequest repository backed by MongoDB.
func NewMongoVerificationRepository(db *mongo.Database) repository.VerificationRepository {
	return &mongoVerificationRepository{
		collection: db.Collection(verificationCollectionName),
	}
}

// Create inserts a new, unapproved verification request.
func (r *mongoVerificationRepository) Create(ctx context.Context, req *domain.VerificationRequest) (string, error) {
	if req.PartID == "" || req.ChallengeID == "" || req.RequesterID == "" || req.ApproverID == "" {
		return "", errors.New("verification request requires partId, challengeId, requester and approver")
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.Approved = false
	req.ApprovedAt = nil
	req.CreatedAt = time.Now().UTC()

	if _, err := r.collection.InsertOne(ctx, req); err != nil {
		return "", err
	}
	return req.ID, nil
}

// GetByID retrieves a verification request by its ID.
func (r *mongoVerificationRepository) GetByID(ctx context.Context, id string) (*domain.VerificationRequest, error) {
	var req domain.VerificationRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// FindPending returns the oldest unapproved request for (part, requester).
func (r *mongoVerificationRepository) FindPending(ctx context.Context, partID, requesterID string) (*domain.VerificationRequest, error) {
	filter := bson.M{"partId": partID, "requester": requesterID, "approved": false}
	findOneOptions := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	var req domain.VerificationRequest
	err := r.collection.FindOne(ctx, filter, findOneOptions).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// ListPendingByApprover returns the requests waiting on approverID.
func (r *mongoVerificationRepository) ListPendingByApprover(ctx context.Context, approverID string) ([]domain.VerificationRequest, error) {
	requests := []domain.VerificationRequest{}
	filter := bson.M{"approver": approverID, "approved": false}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// Approve flips approved, conditional on it still being false.
func (r *mongoVerificationRepository) Approve(ctx context.Context, id string) error {
	now := time.Now().UTC()
	filter := bson.M{"_id": id, "approved": false}
	update := bson.M{"$set": bson.M{"approved": true, "approvedAt": now}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByChallenge removes every request that references the challenge.
func (r *mongoVerificationRepository) DeleteByChallenge(ctx context.Context, challengeID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"challengeId": challengeID})
	return err
}

// EnsureVerificationIndexes creates necessary indexes for the verification_requests collection.
func EnsureVerificationIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// verify() lookup key
			Keys:    bson.D{{Key: "partId", Value: 1}, {Key: "requester", Value: 1}, {Key: "approved", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "approver", Value: 1}, {Key: "approved", Value: 1}},
			Options: options.Index(),
		},
		{
			// Cascade delete
			Keys:    bson.D{{Key: "challengeId", Value: 1}},
			Options: options.Index(),
		},
	})
}
