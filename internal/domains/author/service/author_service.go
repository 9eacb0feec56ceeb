package service

import (
	"context"

	"golang.org/x/sync/singleflight"

	"bookreview-backend/internal/domains/author/model"
	"bookreview-backend/internal/domains/author/repository"
	"bookreview-backend/internal/domains/author/source"
	"bookreview-backend/pkg/cache"
)

// authorService implements ServiceInterface
type authorService struct {
	repo    repository.RepositoryInterface
	cache   cache.Cache
	sources []source.Searcher // priority order: source A, then source B
	cfg     Config

	locks        *keyedMutex
	group        singleflight.Group
	ranker       *Ranker
	popularNames []string
}

// NewAuthorService creates a new author service instance.
// Store, cache and sources are injected; nothing is global.
func NewAuthorService(
	repo repository.RepositoryInterface,
	cache cache.Cache,
	sources []source.Searcher,
	cfg Config,
) ServiceInterface {
	defaults := DefaultConfig()
	if cfg.LocalLimit <= 0 {
		cfg.LocalLimit = defaults.LocalLimit
	}
	if cfg.LocalSufficient <= 0 {
		cfg.LocalSufficient = defaults.LocalSufficient
	}
	if cfg.ExternalMaxResults <= 0 {
		cfg.ExternalMaxResults = defaults.ExternalMaxResults
	}
	if cfg.SearchTTL <= 0 {
		cfg.SearchTTL = defaults.SearchTTL
	}
	if cfg.PopularTTL <= 0 {
		cfg.PopularTTL = defaults.PopularTTL
	}

	return &authorService{
		repo:         repo,
		cache:        cache,
		sources:      sources,
		cfg:          cfg,
		locks:        newKeyedMutex(),
		ranker:       NewRanker(PopularAuthorNames),
		popularNames: PopularAuthorNames,
	}
}

func (s *authorService) GetByID(ctx context.Context, id int64) (*model.Author, error) {
	if id <= 0 {
		return nil, model.ErrAuthorNotFound
	}

	// Repository handles cache + DB
	return s.repo.GetByID(ctx, id)
}
