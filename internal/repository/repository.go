package repository

import (
	"alcyxob/fitness-log/internal/domain"
	"context"
)

// Error constants for the repository layer.
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// MemberRepository defines the interface for interacting with member data.
type MemberRepository interface {
	// Create inserts a member. A taken username or email yields ErrDuplicate.
	Create(ctx context.Context, member *domain.Member) error
	GetByID(ctx context.Context, id string) (*domain.Member, error)
	GetByUsername(ctx context.Context, username string) (*domain.Member, error)
	// Update writes the profile fields and password hash of an existing member.
	Update(ctx context.Context, member *domain.Member) error
	// Delete removes the member together with its workouts and their exercise links.
	// Exercises themselves are left alone.
	Delete(ctx context.Context, id string) error
}

// ExerciseRepository defines the interface for the local exercise cache.
type ExerciseRepository interface {
	// InsertOrGet stores the exercise unless one with the same name exists,
	// and returns whichever row the store holds for that name.
	InsertOrGet(ctx context.Context, exercise *domain.Exercise) (*domain.Exercise, error)
	GetByID(ctx context.Context, id string) (*domain.Exercise, error)
	GetByName(ctx context.Context, name string) (*domain.Exercise, error)
	ListByType(ctx context.Context, typ string) ([]domain.Exercise, error)
	Count(ctx context.Context) (int64, error)
}

// WorkoutRepository defines the interface for workouts and their exercise links.
type WorkoutRepository interface {
	// InsertOrGet returns the workout for (memberID, date), creating it if needed.
	InsertOrGet(ctx context.Context, memberID, workoutDate string) (*domain.Workout, error)
	GetByID(ctx context.Context, id string) (*domain.Workout, error)
	// ListByMember returns the member's workouts, newest date first.
	ListByMember(ctx context.Context, memberID string) ([]domain.Workout, error)
	// AddExercise links an exercise to a workout. Linking the same pair twice is a no-op;
	// the returned bool reports whether a new link was written.
	AddExercise(ctx context.Context, link *domain.WorkoutExercise) (bool, error)
	// ListExercises returns the workout's exercises in the order they were added.
	ListExercises(ctx context.Context, workoutID string) ([]domain.Exercise, error)
}

// Store bundles the repositories of one backend.
type Store struct {
	Members   MemberRepository
	Exercises ExerciseRepository
	Workouts  WorkoutRepository
	// Close releases the backend's connections.
	Close func(ctx context.Context) error
}
