package mongo

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"alcyxob/fitness-log/internal/repository"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI.
// It returns the mongo.Client which can be used to access databases and collections.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Connect succeeds lazily; ping the primary to make sure the server is really there.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// NewStore wires the MongoDB repositories around db. Closing the store disconnects client.
func NewStore(client *mongo.Client, db *mongo.Database) *repository.Store {
	return &repository.Store{
		Members:   NewMongoMemberRepository(db),
		Exercises: NewMongoExerciseRepository(db),
		Workouts:  NewMongoWorkoutRepository(db),
		Close: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	}
}

// EnsureIndexes creates the indexes every collection relies on.
// The unique ones are what make the insert-or-get operations atomic, so failures are returned.
func EnsureIndexes(ctx context.Context, db *mongo.Database, log *logrus.Logger) error {
	ensure := []struct {
		collection string
		fn         func(context.Context, *mongo.Collection) error
	}{
		{memberCollectionName, EnsureMemberIndexes},
		{exerciseCollectionName, EnsureExerciseIndexes},
		{workoutCollectionName, EnsureWorkoutIndexes},
		{workoutExerciseCollectionName, EnsureWorkoutExerciseIndexes},
	}
	for _, e := range ensure {
		if err := e.fn(ctx, db.Collection(e.collection)); err != nil {
			log.WithError(err).WithField("collection", e.collection).Error("Failed to create indexes")
			return err
		}
	}
	log.Info("Index creation process completed.")
	return nil
}
