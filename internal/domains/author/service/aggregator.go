package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"bookreview-backend/internal/domains/author/model"
	"bookreview-backend/internal/domains/author/source"
	"bookreview-backend/internal/infrastructure/metrics"
)

// Cache key constants
const (
	searchCacheKeyPrefix  = "autores:search:"
	searchCachePattern    = searchCacheKeyPrefix + "*"
	popularCacheKeyPrefix = "autores:popular:"
)

// SearchCacheKey builds the cache key for a normalized query
func SearchCacheKey(normalizedQuery string, includeExternal bool) string {
	return searchCacheKeyPrefix + normalizedQuery + ":external:" + strconv.FormatBool(includeExternal)
}

// PopularCacheKey builds the cache key for a popular snapshot
func PopularCacheKey(limit int) string {
	return popularCacheKeyPrefix + strconv.Itoa(limit)
}

// =====================================================
// SEARCH
// =====================================================

func (s *authorService) SearchAuthors(ctx context.Context, rawQuery any, includeExternal bool, mode Mode) (model.AuthorViews, error) {
	v := ValidateQuery(rawQuery)
	if !v.Valid {
		return nil, v.Err
	}
	query := v.NormalizedQuery

	start := time.Now()
	defer metrics.RecordSearch(mode.String(), includeExternal, start)

	cacheKey := SearchCacheKey(query, includeExternal)

	var cached model.AuthorViews
	hit, err := s.cache.Get(ctx, cacheKey, &cached)
	metrics.RecordCache("search", hit, err)
	if err != nil {
		log.Debug().Err(err).Str("key", cacheKey).Msg("search cache read failed")
	} else if hit && (mode == ModeReadOnly || !hasExternal(cached)) {
		return cached, nil
	}

	local, err := s.repo.SearchByNameSubstring(ctx, query, s.cfg.LocalLimit)
	if err != nil {
		return nil, fmt.Errorf("search local authors: %w", err)
	}

	views := make(model.AuthorViews, 0, len(local))
	for _, a := range local {
		views = append(views, a.ToView())
	}

	if includeExternal && len(local) < s.cfg.LocalSufficient {
		views = append(views, s.searchExternal(ctx, query, mode)...)
	}

	if err := s.cache.Set(ctx, cacheKey, views, s.cfg.SearchTTL); err != nil {
		log.Warn().Err(err).Str("key", cacheKey).Msg("search cache write failed")
	}

	log.Debug().
		Str("query", query).
		Bool("external", includeExternal).
		Str("mode", mode.String()).
		Int("local", len(local)).
		Int("total", len(views)).
		Msg("author search completed")

	return views, nil
}

// searchExternal queries every source concurrently and concatenates their
// views in source order. Any failure of the step as a whole yields nil.
func (s *authorService) searchExternal(ctx context.Context, query string, mode Mode) (views model.AuthorViews) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("query", query).Msg("external search panicked, returning local results")
			views = nil
		}
	}()

	perSource := make([]model.AuthorViews, len(s.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range s.sources {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic in %s search: %v", src.Source(), r)
				}
			}()

			res := src.Search(gctx, query, s.cfg.ExternalMaxResults)
			if !res.OK() {
				return nil
			}
			perSource[i] = s.toViews(gctx, res, mode)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Str("query", query).Msg("external search failed, returning local results")
		return nil
	}

	for _, part := range perSource {
		views = append(views, part...)
	}
	return views
}

func (s *authorService) toViews(ctx context.Context, res source.Result, mode Mode) model.AuthorViews {
	views := make(model.AuthorViews, 0, len(res.Records))

	if mode == ModeReadOnly {
		for _, rec := range res.Records {
			views = append(views, rec.ToView())
		}
		return views
	}

	authors, err := s.ReconcileAll(ctx, res.Records)
	if err != nil {
		log.Warn().Err(err).Str("source", string(res.Source)).Msg("some external authors could not be reconciled")
	}
	for i, a := range authors {
		if a == nil {
			views = append(views, res.Records[i].ToView())
			continue
		}
		views = append(views, a.ToView())
	}
	return views
}

// hasExternal reports whether a cached result still holds unreconciled previews
func hasExternal(views model.AuthorViews) bool {
	for _, v := range views {
		if v.Kind() == model.KindExternal {
			return true
		}
	}
	return false
}

// InvalidateSearchCache drops all cached search result sets
func (s *authorService) InvalidateSearchCache(ctx context.Context) error {
	if err := s.cache.DeletePattern(ctx, searchCachePattern); err != nil {
		return fmt.Errorf("invalidate search cache: %w", err)
	}
	log.Info().Msg("author search cache invalidated")
	return nil
}
