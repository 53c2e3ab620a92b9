package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/pkg/util/validation"
)

const (
	categoriesLoadKey = "categories"
	// bounds the shared load, which outlives any single caller's context
	categoriesLoadTimeout = 5 * time.Second
)

// CategoryCache is a read-through store for the full category listing.
type CategoryCache interface {
	Get(ctx context.Context) ([]domain.Category, bool, error)
	Set(ctx context.Context, categories []domain.Category) error
	Invalidate(ctx context.Context) error
}

// CategoryService manages ticket categories.
type CategoryService struct {
	categories repository.CategoryRepository
	cache      CategoryCache
	loads      singleflight.Group
	logger     *zap.Logger
}

// NewCategoryService constructs the service. cache may be nil.
func NewCategoryService(categories repository.CategoryRepository, cache CategoryCache, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{categories: categories, cache: cache, logger: logger}
}

// CategoryInput is the payload for creating a category.
type CategoryInput struct {
	Title string `json:"title" validate:"required,min=2,max=50,nohtml"`
}

// List returns categories. Admins page through the table directly; users
// get the whole listing from the cache in a single page.
func (s *CategoryService) List(ctx context.Context, caller domain.Caller, page, perPage int) (repository.Page[domain.Category], error) {
	if caller.IsAdmin() {
		result, err := s.categories.List(ctx, page, perPage)
		if err != nil {
			return result, mapError(err, "category")
		}
		return result, nil
	}

	all, err := s.cachedAll(ctx)
	if err != nil {
		return repository.Page[domain.Category]{}, mapError(err, "category")
	}
	return repository.Page[domain.Category]{Items: all, Total: int64(len(all)), Page: 1, PerPage: len(all)}, nil
}

// Create adds a category and drops the cached listing.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	in.Title = validation.Text(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	category := &domain.Category{Title: in.Title}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, mapError(err, "category")
	}
	s.logger.Info("category created", zap.Int64("category_id", category.ID))

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("category cache invalidation failed", zap.Error(err))
		}
	}
	return category, nil
}

// Find returns one category.
func (s *CategoryService) Find(ctx context.Context, id int64) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err, "category")
	}
	return category, nil
}

func (s *CategoryService) cachedAll(ctx context.Context) ([]domain.Category, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			s.logger.Warn("category cache read failed", zap.Error(err))
		case ok:
			return cached, nil
		}
	}

	// Concurrent misses share one database read and one cache fill. The
	// read is detached from the caller that started it so a cancelled
	// request does not fail everyone waiting on the same load.
	loaded, err, _ := s.loads.Do(categoriesLoadKey, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), categoriesLoadTimeout)
		defer cancel()

		all, err := s.categories.ListAll(loadCtx)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(loadCtx, all); err != nil {
				s.logger.Warn("category cache write failed", zap.Error(err))
			}
		}
		return all, nil
	})
	if err != nil {
		return nil, err
	}
	return loaded.([]domain.Category), nil
}
