package sqlstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"alcyxob/fitness-log/internal/domain"
	"alcyxob/fitness-log/internal/repository"
)

const workoutColumns = `id, member_id, workout_date, created_at`

// sqlWorkoutRepository implements repository.WorkoutRepository.
type sqlWorkoutRepository struct {
	db *sqlx.DB
}

// NewWorkoutRepository creates a workout repository backed by db.
func NewWorkoutRepository(db *sqlx.DB) repository.WorkoutRepository {
	return &sqlWorkoutRepository{db: db}
}

// InsertOrGet creates the (member, date) workout unless it exists and returns the stored row.
// An unknown member surfaces as ErrNotFound through the foreign key.
func (r *sqlWorkoutRepository) InsertOrGet(ctx context.Context, memberID, workoutDate string) (*domain.Workout, error) {
	if memberID == "" || workoutDate == "" {
		return nil, errors.New("workout requires memberId and workoutDate")
	}
	candidate := domain.Workout{
		ID:          uuid.NewString(),
		MemberID:    memberID,
		WorkoutDate: workoutDate,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO workouts (`+workoutColumns+`)
		VALUES (:id, :member_id, :workout_date, :created_at)
		ON CONFLICT (member_id, workout_date) DO NOTHING`, &candidate)
	if err != nil {
		return nil, mapError(err)
	}

	var workout domain.Workout
	err = r.db.GetContext(ctx, &workout,
		r.db.Rebind(`SELECT `+workoutColumns+` FROM workouts WHERE member_id = ? AND workout_date = ?`),
		memberID, workoutDate)
	if err != nil {
		return nil, mapError(err)
	}
	return &workout, nil
}

// GetByID retrieves a workout by id.
func (r *sqlWorkoutRepository) GetByID(ctx context.Context, id string) (*domain.Workout, error) {
	var workout domain.Workout
	err := r.db.GetContext(ctx, &workout, r.db.Rebind(`SELECT `+workoutColumns+` FROM workouts WHERE id = ?`), id)
	if err != nil {
		return nil, mapError(err)
	}
	return &workout, nil
}

// ListByMember returns a member's workouts, newest first.
func (r *sqlWorkoutRepository) ListByMember(ctx context.Context, memberID string) ([]domain.Workout, error) {
	workouts := []domain.Workout{}
	err := r.db.SelectContext(ctx, &workouts,
		r.db.Rebind(`SELECT `+workoutColumns+` FROM workouts WHERE member_id = ? ORDER BY workout_date DESC`), memberID)
	if err != nil {
		return nil, mapError(err)
	}
	return workouts, nil
}

// AddExercise links an exercise to a workout; an existing link is left untouched.
func (r *sqlWorkoutRepository) AddExercise(ctx context.Context, link *domain.WorkoutExercise) (bool, error) {
	if link.WorkoutID == "" || link.ExerciseID == "" {
		return false, errors.New("workout link requires workoutId and exerciseId")
	}
	if link.AddedAt.IsZero() {
		link.AddedAt = time.Now().UTC()
	}
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO workout_exercises (workout_id, exercise_id, workout_date, added_at)
		VALUES (:workout_id, :exercise_id, :workout_date, :added_at)
		ON CONFLICT (workout_id, exercise_id) DO NOTHING`, link)
	if err != nil {
		return false, mapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListExercises returns the exercises linked to a workout in the order they were added.
func (r *sqlWorkoutRepository) ListExercises(ctx context.Context, workoutID string) ([]domain.Exercise, error) {
	exercises := []domain.Exercise{}
	err := r.db.SelectContext(ctx, &exercises, r.db.Rebind(`
		SELECT e.id, e.name, e.type, e.muscle, e.equipment, e.difficulty, e.instructions, e.created_at
		FROM workout_exercises we
		JOIN exercises e ON e.id = we.exercise_id
		WHERE we.workout_id = ?
		ORDER BY we.added_at, e.name`), workoutID)
	if err != nil {
		return nil, mapError(err)
	}
	return exercises, nil
}
