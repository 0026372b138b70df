package mongo

import (
	"context"
	"errors"
	"alcyxob/fitness-log/internal/domain"
	"alcyxob/fitness-log/internal/repository"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	workoutCollectionName         = "workouts"
	workoutExerciseCollectionName = "workout_exercises"
)

// mongoWorkoutRepository implements repository.WorkoutRepository
type mongoWorkoutRepository struct {
	workouts  *mongo.Collection
	links     *mongo.Collection
	members   *mongo.Collection
	exercises *mongo.Collection
}

// NewMongoWorkoutRepository creates a new Workout repository backed by MongoDB.
func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		workouts:  db.Collection(workoutCollectionName),
		links:     db.Collection(workoutExerciseCollectionName),
		members:   db.Collection(memberCollectionName),
		exercises: db.Collection(exerciseCollectionName),
	}
}

// InsertOrGet returns the member's workout for the given day, creating it on first use.
// MongoDB has no foreign keys, so the member is checked explicitly.
func (r *mongoWorkoutRepository) InsertOrGet(ctx context.Context, memberID, workoutDate string) (*domain.Workout, error) {
	if memberID == "" || workoutDate == "" {
		return nil, errors.New("workout requires memberId and workoutDate")
	}
	if err := exists(ctx, r.members, memberID); err != nil {
		return nil, err
	}

	filter := bson.M{"memberId": memberID, "workoutDate": workoutDate}
	update := bson.M{"$setOnInsert": bson.M{
		"_id":       uuid.NewString(),
		"createdAt": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var workout domain.Workout
	err := r.workouts.FindOneAndUpdate(ctx, filter, update, opts).Decode(&workout)
	if err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			return nil, err
		}
		// Lost the race against a concurrent upsert; the winner's document is there now.
		if err = r.workouts.FindOne(ctx, filter).Decode(&workout); err != nil {
			return nil, err
		}
	}
	return &workout, nil
}

// GetByID retrieves a workout by its ID.
func (r *mongoWorkoutRepository) GetByID(ctx context.Context, id string) (*domain.Workout, error) {
	var workout domain.Workout
	err := r.workouts.FindOne(ctx, bson.M{"_id": id}).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// ListByMember retrieves a member's workouts, newest date first.
func (r *mongoWorkoutRepository) ListByMember(ctx context.Context, memberID string) ([]domain.Workout, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "workoutDate", Value: -1}})
	cursor, err := r.workouts.Find(ctx, bson.M{"memberId": memberID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	workouts := []domain.Workout{}
	if err = cursor.All(ctx, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

// AddExercise upserts the (workout, exercise) link. UpsertedCount tells whether it was new.
func (r *mongoWorkoutRepository) AddExercise(ctx context.Context, link *domain.WorkoutExercise) (bool, error) {
	if link.WorkoutID == "" || link.ExerciseID == "" {
		return false, errors.New("workout link requires workoutId and exerciseId")
	}
	if err := exists(ctx, r.workouts, link.WorkoutID); err != nil {
		return false, err
	}
	if err := exists(ctx, r.exercises, link.ExerciseID); err != nil {
		return false, err
	}
	if link.AddedAt.IsZero() {
		link.AddedAt = time.Now().UTC()
	}

	filter := bson.M{"workoutId": link.WorkoutID, "exerciseId": link.ExerciseID}
	update := bson.M{"$setOnInsert": bson.M{
		"workoutDate": link.WorkoutDate,
		"addedAt":     link.AddedAt,
	}}
	result, err := r.links.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return result.UpsertedCount > 0, nil
}

// ListExercises returns the workout's exercises in link order.
func (r *mongoWorkoutRepository) ListExercises(ctx context.Context, workoutID string) ([]domain.Exercise, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "addedAt", Value: 1}})
	cursor, err := r.links.Find(ctx, bson.M{"workoutId": workoutID}, findOptions)
	if err != nil {
		return nil, err
	}
	var links []domain.WorkoutExercise
	if err = cursor.All(ctx, &links); err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return []domain.Exercise{}, nil
	}

	ids := make([]string, len(links))
	for i, l := range links {
		ids[i] = l.ExerciseID
	}
	cursor, err = r.exercises.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var found []domain.Exercise
	if err = cursor.All(ctx, &found); err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Exercise, len(found))
	for _, e := range found {
		byID[e.ID] = e
	}
	type entry struct {
		addedAt  time.Time
		exercise domain.Exercise
	}
	entries := make([]entry, 0, len(links))
	for _, l := range links {
		if e, ok := byID[l.ExerciseID]; ok {
			entries = append(entries, entry{addedAt: l.AddedAt, exercise: e})
		}
	}
	// Links added in the same instant fall back to name order.
	slices.SortStableFunc(entries, func(a, b entry) int {
		if c := a.addedAt.Compare(b.addedAt); c != 0 {
			return c
		}
		return strings.Compare(a.exercise.Name, b.exercise.Name)
	})
	exercises := make([]domain.Exercise, len(entries))
	for i, e := range entries {
		exercises[i] = e.exercise
	}
	return exercises, nil
}

// exists returns repository.ErrNotFound unless a document with the given _id is present.
func exists(ctx context.Context, collection *mongo.Collection, id string) error {
	n, err := collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureWorkoutIndexes makes (memberId, workoutDate) unique; it also serves the newest-first listing.
func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "memberId", Value: 1}, {Key: "workoutDate", Value: -1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// EnsureWorkoutExerciseIndexes makes each (workoutId, exerciseId) pair unique.
func EnsureWorkoutExerciseIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "workoutId", Value: 1}, {Key: "exerciseId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
