package mongo_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"alcyxob/fitness-log/internal/domain"
	"alcyxob/fitness-log/internal/logging"
	"alcyxob/fitness-log/internal/repository"
	mongostore "alcyxob/fitness-log/internal/repository/mongo"
)

// newStore connects to MONGO_URI and returns a store over a throwaway database.
func newStore(t *testing.T) (*repository.Store, *mongo.Database) {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	client, err := mongostore.ConnectDB(uri)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	name := "fitness_log_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	db := client.Database(name)
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = mongostore.DisconnectDB(client)
	})

	if err := mongostore.EnsureIndexes(context.Background(), db, logging.Discard()); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	return mongostore.NewStore(client, db), db
}

func countDocs(t *testing.T, db *mongo.Database, collection string) int64 {
	t.Helper()
	n, err := db.Collection(collection).CountDocuments(context.Background(), bson.M{})
	if err != nil {
		t.Fatalf("count %s: %v", collection, err)
	}
	return n
}

func newMember(username, email string) *domain.Member {
	return &domain.Member{
		Username:     username,
		FirstName:    "Test",
		LastName:     "Member",
		Email:        email,
		ImageURL:     domain.DefaultImageURL,
		PasswordHash: "$2a$04$notarealhash",
	}
}

func TestMemberRepo_DuplicateUsername(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	if err := store.Members.Create(ctx, newMember("alice", "alice@x.com")); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := store.Members.Create(ctx, newMember("alice", "other@x.com"))
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestMemberRepo_DeleteCascadesToWorkoutsNotExercises(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()

	m := newMember("alice", "alice@x.com")
	if err := store.Members.Create(ctx, m); err != nil {
		t.Fatalf("create: %v", err)
	}
	ex, err := store.Exercises.InsertOrGet(ctx, &domain.Exercise{Name: "Squat", Type: "strength"})
	if err != nil {
		t.Fatalf("exercise: %v", err)
	}
	w, err := store.Workouts.InsertOrGet(ctx, m.ID, "2026-10-18")
	if err != nil {
		t.Fatalf("workout: %v", err)
	}
	if _, err := store.Workouts.AddExercise(ctx, &domain.WorkoutExercise{WorkoutID: w.ID, ExerciseID: ex.ID, WorkoutDate: w.WorkoutDate}); err != nil {
		t.Fatalf("link: %v", err)
	}

	if err := store.Members.Delete(ctx, m.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := countDocs(t, db, "workouts"); n != 0 {
		t.Errorf("workouts left: %d", n)
	}
	if n := countDocs(t, db, "workout_exercises"); n != 0 {
		t.Errorf("links left: %d", n)
	}
	if n := countDocs(t, db, "exercises"); n != 1 {
		t.Errorf("exercises = %d, want 1", n)
	}
	if err := store.Members.Delete(ctx, m.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestExerciseRepo_InsertOrGetIsIdempotent(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	first, err := store.Exercises.InsertOrGet(ctx, &domain.Exercise{Name: "Push-up", Type: "strength", Muscle: "chest"})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := store.Exercises.InsertOrGet(ctx, &domain.Exercise{Name: "Push-up", Type: "cardio", Muscle: "triceps"})
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("ids differ: %s vs %s", first.ID, second.ID)
	}
	if second.Muscle != "chest" {
		t.Fatalf("stored document must not change, muscle = %q", second.Muscle)
	}
	if n, _ := store.Exercises.Count(ctx); n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}

func TestExerciseRepo_ConcurrentInsertOrGetConverges(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	const workers = 8
	ids := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ex, err := store.Exercises.InsertOrGet(ctx, &domain.Exercise{Name: "Deadlift", Type: "powerlifting"})
			errs[i] = err
			if ex != nil {
				ids[i] = ex.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range ids {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("worker %d got id %s, want %s", i, ids[i], ids[0])
		}
	}
	if n, _ := store.Exercises.Count(ctx); n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}

func TestWorkoutRepo_InsertOrGetPerMemberPerDay(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	m := newMember("alice", "alice@x.com")
	if err := store.Members.Create(ctx, m); err != nil {
		t.Fatalf("create: %v", err)
	}

	a, err := store.Workouts.InsertOrGet(ctx, m.ID, "2026-10-18")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	b, err := store.Workouts.InsertOrGet(ctx, m.ID, "2026-10-18")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if a.ID != b.ID {
		t.Fatalf("same day should give the same workout: %s vs %s", a.ID, b.ID)
	}
	c, err := store.Workouts.InsertOrGet(ctx, m.ID, "2026-10-19")
	if err != nil {
		t.Fatalf("next day: %v", err)
	}
	if c.ID == a.ID {
		t.Fatal("different days must give different workouts")
	}

	if _, err := store.Workouts.InsertOrGet(ctx, "nobody", "2026-10-18"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("unknown member: expected ErrNotFound, got %v", err)
	}
}

func TestWorkoutRepo_AddExerciseHasSetSemantics(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()

	m := newMember("alice", "alice@x.com")
	if err := store.Members.Create(ctx, m); err != nil {
		t.Fatalf("create: %v", err)
	}
	w, _ := store.Workouts.InsertOrGet(ctx, m.ID, "2026-10-18")
	squat, _ := store.Exercises.InsertOrGet(ctx, &domain.Exercise{Name: "Squat", Type: "strength"})

	link := func() bool {
		t.Helper()
		added, err := store.Workouts.AddExercise(ctx, &domain.WorkoutExercise{WorkoutID: w.ID, ExerciseID: squat.ID, WorkoutDate: w.WorkoutDate})
		if err != nil {
			t.Fatalf("link: %v", err)
		}
		return added
	}
	if !link() {
		t.Fatal("first link should be written")
	}
	if link() {
		t.Fatal("second link of the same exercise should be a no-op")
	}
	if n := countDocs(t, db, "workout_exercises"); n != 1 {
		t.Fatalf("links = %d, want 1", n)
	}

	_, err := store.Workouts.AddExercise(ctx, &domain.WorkoutExercise{WorkoutID: w.ID, ExerciseID: "missing", WorkoutDate: w.WorkoutDate})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("unknown exercise: expected ErrNotFound, got %v", err)
	}
}

func TestWorkoutRepo_ListExercisesOrder(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	m := newMember("alice", "alice@x.com")
	if err := store.Members.Create(ctx, m); err != nil {
		t.Fatalf("create: %v", err)
	}
	w, _ := store.Workouts.InsertOrGet(ctx, m.ID, "2026-10-18")

	at := time.Date(2026, 10, 18, 7, 0, 0, 0, time.UTC)
	add := func(name string, addedAt time.Time) {
		t.Helper()
		ex, err := store.Exercises.InsertOrGet(ctx, &domain.Exercise{Name: name, Type: "strength"})
		if err != nil {
			t.Fatalf("exercise %s: %v", name, err)
		}
		link := &domain.WorkoutExercise{WorkoutID: w.ID, ExerciseID: ex.ID, WorkoutDate: w.WorkoutDate, AddedAt: addedAt}
		if _, err := store.Workouts.AddExercise(ctx, link); err != nil {
			t.Fatalf("link %s: %v", name, err)
		}
	}
	// Squat and Lunge share a timestamp; Bench Press came earlier.
	add("Squat", at)
	add("Lunge", at)
	add("Bench Press", at.Add(-time.Minute))

	got, err := store.Workouts.ListExercises(ctx, w.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var names []string
	for _, e := range got {
		names = append(names, e.Name)
	}
	if strings.Join(names, ",") != "Bench Press,Lunge,Squat" {
		t.Fatalf("order = %v", names)
	}
}
