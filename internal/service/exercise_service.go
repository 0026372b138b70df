package service

import (
	"alcyxob/fitness-log/internal/domain"
	"alcyxob/fitness-log/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Catalog is the remote exercise source. *catalog.Client satisfies it.
type Catalog interface {
	LookupByType(ctx context.Context, typ string) ([]domain.RawExercise, error)
	LookupByName(ctx context.Context, name string) ([]domain.RawExercise, error)
}

// --- Service Interface ---
type ExerciseService interface {
	// Sync stores any records not cached yet and returns the stored exercises in
	// catalog order, one per name. Calling it again with the same input changes nothing.
	Sync(ctx context.Context, raws []domain.RawExercise) ([]domain.Exercise, error)
	Browse(ctx context.Context, typ string) ([]domain.Exercise, error)
	Search(ctx context.Context, name string) ([]domain.Exercise, error)
	Categories() []domain.Category
	ListCached(ctx context.Context, typ string) ([]domain.Exercise, error)
	Get(ctx context.Context, id string) (*domain.Exercise, error)
}

// --- Service Implementation ---

// exerciseService implements the ExerciseService interface.
type exerciseService struct {
	exerciseRepo repository.ExerciseRepository
	catalog      Catalog
	log          *logrus.Logger
}

// NewExerciseService creates a new instance of exerciseService.
func NewExerciseService(exerciseRepo repository.ExerciseRepository, catalog Catalog, log *logrus.Logger) ExerciseService {
	return &exerciseService{
		exerciseRepo: exerciseRepo,
		catalog:      catalog,
		log:          log,
	}
}

func (s *exerciseService) Sync(ctx context.Context, raws []domain.RawExercise) ([]domain.Exercise, error) {
	exercises := make([]domain.Exercise, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))
	for _, raw := range raws {
		if raw.Name == "" {
			continue
		}
		// The first record seen for a name wins, both here and in the store.
		if _, ok := seen[raw.Name]; ok {
			continue
		}
		seen[raw.Name] = struct{}{}

		stored, err := s.exerciseRepo.InsertOrGet(ctx, raw.ToExercise())
		if err != nil {
			return nil, fmt.Errorf("sync exercise %q: %w", raw.Name, err)
		}
		exercises = append(exercises, *stored)
	}
	return exercises, nil
}

// Browse fetches one category from the catalog and caches it.
func (s *exerciseService) Browse(ctx context.Context, typ string) ([]domain.Exercise, error) {
	if _, ok := domain.LookupCategory(typ); !ok {
		return nil, ErrUnknownCategory
	}
	raws, err := s.catalog.LookupByType(ctx, typ)
	if err != nil {
		s.log.WithError(err).WithField("type", typ).Warn("Catalog browse failed")
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	return s.Sync(ctx, raws)
}

// Search looks exercises up by name in the catalog and caches the results.
func (s *exerciseService) Search(ctx context.Context, name string) ([]domain.Exercise, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidationFailed)
	}
	raws, err := s.catalog.LookupByName(ctx, name)
	if err != nil {
		s.log.WithError(err).WithField("name", name).Warn("Catalog search failed")
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	return s.Sync(ctx, raws)
}

func (s *exerciseService) Categories() []domain.Category {
	return append([]domain.Category(nil), domain.Categories...)
}

// ListCached returns what is stored locally for a category, without calling the catalog.
func (s *exerciseService) ListCached(ctx context.Context, typ string) ([]domain.Exercise, error) {
	if _, ok := domain.LookupCategory(typ); !ok {
		return nil, ErrUnknownCategory
	}
	return s.exerciseRepo.ListByType(ctx, typ)
}

func (s *exerciseService) Get(ctx context.Context, id string) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return exercise, nil
}
