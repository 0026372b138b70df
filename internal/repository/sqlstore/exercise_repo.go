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

const exerciseColumns = `id, name, type, muscle, equipment, difficulty, instructions, created_at`

// sqlExerciseRepository implements repository.ExerciseRepository.
type sqlExerciseRepository struct {
	db *sqlx.DB
}

// NewExerciseRepository creates an exercise repository backed by db.
func NewExerciseRepository(db *sqlx.DB) repository.ExerciseRepository {
	return &sqlExerciseRepository{db: db}
}

// InsertOrGet inserts the exercise unless its name is taken, then reads back the stored row.
// The unique constraint on name makes concurrent calls converge on one row.
func (r *sqlExerciseRepository) InsertOrGet(ctx context.Context, exercise *domain.Exercise) (*domain.Exercise, error) {
	if exercise.Name == "" {
		return nil, errors.New("exercise name is required")
	}
	candidate := *exercise
	candidate.ID = uuid.NewString()
	candidate.CreatedAt = time.Now().UTC()

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO exercises (`+exerciseColumns+`)
		VALUES (:id, :name, :type, :muscle, :equipment, :difficulty, :instructions, :created_at)
		ON CONFLICT (name) DO NOTHING`, &candidate)
	if err != nil {
		return nil, mapError(err)
	}
	return r.GetByName(ctx, exercise.Name)
}

// GetByID retrieves an exercise by id.
func (r *sqlExerciseRepository) GetByID(ctx context.Context, id string) (*domain.Exercise, error) {
	var exercise domain.Exercise
	err := r.db.GetContext(ctx, &exercise, r.db.Rebind(`SELECT `+exerciseColumns+` FROM exercises WHERE id = ?`), id)
	if err != nil {
		return nil, mapError(err)
	}
	return &exercise, nil
}

// GetByName retrieves an exercise by exact name.
func (r *sqlExerciseRepository) GetByName(ctx context.Context, name string) (*domain.Exercise, error) {
	var exercise domain.Exercise
	err := r.db.GetContext(ctx, &exercise, r.db.Rebind(`SELECT `+exerciseColumns+` FROM exercises WHERE name = ?`), name)
	if err != nil {
		return nil, mapError(err)
	}
	return &exercise, nil
}

// ListByType returns cached exercises of one type ordered by name.
func (r *sqlExerciseRepository) ListByType(ctx context.Context, typ string) ([]domain.Exercise, error) {
	exercises := []domain.Exercise{}
	err := r.db.SelectContext(ctx, &exercises,
		r.db.Rebind(`SELECT `+exerciseColumns+` FROM exercises WHERE type = ? ORDER BY name`), typ)
	if err != nil {
		return nil, mapError(err)
	}
	return exercises, nil
}

// Count returns the number of cached exercises.
func (r *sqlExerciseRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM exercises`); err != nil {
		return 0, mapError(err)
	}
	return n, nil
}
