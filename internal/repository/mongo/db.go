package mongo

import (
	"alcyxob/fitness-challenges/internal/repository"
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI.
// It returns the mongo.Client which can be used to access databases and collections.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the primary node separately; Connect succeeds even if the server is unresponsive.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	err = client.Ping(pingCtx, readpref.Primary())
	if err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}

	return client, nil
}

// EnsureIndexes creates the indexes of every challenge collection.
func EnsureIndexes(ctx context.Context, db *mongo.Database) {
	EnsureChallengeIndexes(ctx, db.Collection(challengeCollectionName))
	EnsureParticipantIndexes(ctx, db.Collection(participantCollectionName))
	EnsurePartIndexes(ctx, db.Collection(partCollectionName))
	EnsureVerificationIndexes(ctx, db.Collection(verificationCollectionName))
}

func createIndexes(ctx context.Context, collection *mongo.Collection, indexes []mongo.IndexModel) {
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}

// mongoTransactor runs callbacks inside a MongoDB session transaction.
// Transactions need a replica set, so they can be switched off for standalone servers.
type mongoTransactor struct {
	client  *mongo.Client
	enabled bool
}

// NewTransactor creates a Transactor for the given client.
func NewTransactor(client *mongo.Client, enabled bool) repository.Transactor {
	return &mongoTransactor{client: client, enabled: enabled}
}

// WithinTransaction runs fn in a transaction, or directly when transactions are disabled.
func (t *mongoTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.enabled || t.client == nil {
		return fn(ctx)
	}

	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// NewStore wires every Mongo-backed repository against db.
func NewStore(client *mongo.Client, db *mongo.Database, transactions bool) *repository.Store {
	return &repository.Store{
		Challenges:    NewMongoChallengeRepository(db),
		Participants:  NewMongoParticipantRepository(db),
		Parts:         NewMongoPartRepository(db),
		Verifications: NewMongoVerificationRepository(db),
		Tx:            NewTransactor(client, transactions),
		Close: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	}
}
