package service

import (
	"alcyxob/fitness-log/internal/domain"
	"alcyxob/fitness-log/internal/repository"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// AttachResult reports what an attach call did.
type AttachResult struct {
	// Attached holds the exercises newly linked by this call.
	Attached []domain.Exercise `json:"attached"`
	// Skipped holds requested names with no cached exercise.
	Skipped []string `json:"skipped"`
}

// --- Service Interface ---
type WorkoutService interface {
	// FindOrCreateToday returns the member's workout for the current day.
	FindOrCreateToday(ctx context.Context, member *domain.Member) (*domain.Workout, error)
	// AttachExercises links cached exercises to the workout by name.
	AttachExercises(ctx context.Context, workout *domain.Workout, names []string) (*AttachResult, error)
	AddToToday(ctx context.Context, member *domain.Member, names []string) (*domain.Workout, *AttachResult, error)
	// Get returns one of the member's own workouts with its exercises.
	Get(ctx context.Context, member *domain.Member, workoutID string) (*domain.WorkoutDetail, error)
	ListForMember(ctx context.Context, member *domain.Member) ([]domain.Workout, error)
}

// --- Service Implementation ---

type workoutService struct {
	workoutRepo  repository.WorkoutRepository
	exerciseRepo repository.ExerciseRepository
	loc          *time.Location
	now          func() time.Time
	log          *logrus.Logger
}

// NewWorkoutService creates a workout service. Workout days are counted in loc;
// now defaults to time.Now.
func NewWorkoutService(workoutRepo repository.WorkoutRepository, exerciseRepo repository.ExerciseRepository, loc *time.Location, now func() time.Time, log *logrus.Logger) WorkoutService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &workoutService{
		workoutRepo:  workoutRepo,
		exerciseRepo: exerciseRepo,
		loc:          loc,
		now:          now,
		log:          log,
	}
}

func (s *workoutService) FindOrCreateToday(ctx context.Context, member *domain.Member) (*domain.Workout, error) {
	today := domain.DayOf(s.now(), s.loc)
	workout, err := s.workoutRepo.InsertOrGet(ctx, member.ID, today)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return workout, nil
}

// AttachExercises has set semantics: repeated names and exercises already on
// the workout are stored once. Names are matched exactly against cached exercises.
func (s *workoutService) AttachExercises(ctx context.Context, workout *domain.Workout, names []string) (*AttachResult, error) {
	result := &AttachResult{
		Attached: []domain.Exercise{},
		Skipped:  []string{},
	}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		exercise, err := s.exerciseRepo.GetByName(ctx, name)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				result.Skipped = append(result.Skipped, name)
				continue
			}
			return nil, err
		}

		added, err := s.workoutRepo.AddExercise(ctx, &domain.WorkoutExercise{
			WorkoutID:   workout.ID,
			ExerciseID:  exercise.ID,
			WorkoutDate: workout.WorkoutDate,
			AddedAt:     time.Now().UTC(),
		})
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if added {
			result.Attached = append(result.Attached, *exercise)
		}
	}

	if len(result.Skipped) > 0 {
		s.log.WithFields(logrus.Fields{"workout_id": workout.ID, "skipped": result.Skipped}).Info("Unknown exercises skipped")
	}
	return result, nil
}

// AddToToday attaches the named exercises to today's workout, creating it if needed.
func (s *workoutService) AddToToday(ctx context.Context, member *domain.Member, names []string) (*domain.Workout, *AttachResult, error) {
	workout, err := s.FindOrCreateToday(ctx, member)
	if err != nil {
		return nil, nil, err
	}
	result, err := s.AttachExercises(ctx, workout, names)
	if err != nil {
		return nil, nil, err
	}
	return workout, result, nil
}

func (s *workoutService) Get(ctx context.Context, member *domain.Member, workoutID string) (*domain.WorkoutDetail, error) {
	workout, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// Other members' workouts are reported as missing.
	if workout.MemberID != member.ID {
		return nil, ErrNotFound
	}
	exercises, err := s.workoutRepo.ListExercises(ctx, workout.ID)
	if err != nil {
		return nil, err
	}
	return &domain.WorkoutDetail{Workout: *workout, Exercises: exercises}, nil
}

func (s *workoutService) ListForMember(ctx context.Context, member *domain.Member) ([]domain.Workout, error) {
	return s.workoutRepo.ListByMember(ctx, member.ID)
}
