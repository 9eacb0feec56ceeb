package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"bookreview-backend/internal/domains/author/model"
	"bookreview-backend/internal/infrastructure/metrics"
)

const (
	defaultPopularLimit = 10
	popularBuildTimeout = time.Minute
)

// GetPopularAuthors serves the curated snapshot cache-aside. Concurrent
// misses for the same limit share one rebuild.
func (s *authorService) GetPopularAuthors(ctx context.Context, limit int) ([]model.ExternalAuthorRecord, error) {
	limit = s.normalizePopularLimit(limit)
	cacheKey := PopularCacheKey(limit)

	var cached []model.ExternalAuthorRecord
	hit, err := s.cache.Get(ctx, cacheKey, &cached)
	metrics.RecordCache("popular", hit, err)
	if err != nil {
		log.Debug().Err(err).Str("key", cacheKey).Msg("popular cache read failed")
	} else if hit {
		return cached, nil
	}

	v, err, shared := s.group.Do(cacheKey, func() (interface{}, error) {
		buildCtx, cancel := popularBuildContext(ctx)
		defer cancel()

		records := s.buildPopular(buildCtx, s.popularNames[:limit])

		// An empty snapshot means every source failed; retry on next request
		if len(records) > 0 {
			if err := s.cache.Set(buildCtx, cacheKey, records, s.cfg.PopularTTL); err != nil {
				log.Warn().Err(err).Str("key", cacheKey).Msg("popular cache write failed")
			}
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}

	records := v.([]model.ExternalAuthorRecord)
	log.Debug().Int("limit", limit).Int("found", len(records)).Bool("shared", shared).Msg("popular authors built")

	// Callers must not share the backing array of a collapsed call
	out := make([]model.ExternalAuthorRecord, len(records))
	copy(out, records)
	return out, nil
}

// RefreshPopularAuthors rebuilds the snapshot for limit and overwrites the
// cached copy. A failed rebuild (no hits at all) keeps the previous snapshot.
func (s *authorService) RefreshPopularAuthors(ctx context.Context, limit int) (int, error) {
	limit = s.normalizePopularLimit(limit)
	cacheKey := PopularCacheKey(limit)

	v, err, _ := s.group.Do(cacheKey, func() (interface{}, error) {
		buildCtx, cancel := popularBuildContext(ctx)
		defer cancel()

		records := s.buildPopular(buildCtx, s.popularNames[:limit])
		if len(records) == 0 {
			return records, nil
		}
		if err := s.cache.Set(buildCtx, cacheKey, records, s.cfg.PopularTTL); err != nil {
			return nil, fmt.Errorf("store popular snapshot: %w", err)
		}
		return records, nil
	})
	if err != nil {
		return 0, err
	}

	n := len(v.([]model.ExternalAuthorRecord))
	log.Info().Int("limit", limit).Int("found", n).Msg("popular authors refreshed")
	return n, nil
}

// popularBuildContext detaches a shared rebuild from the caller that started
// it, so one cancelled request does not empty the snapshot for the others.
func popularBuildContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), popularBuildTimeout)
}

func (s *authorService) normalizePopularLimit(limit int) int {
	if limit <= 0 {
		limit = defaultPopularLimit
	}
	if limit > len(s.popularNames) {
		limit = len(s.popularNames)
	}
	return limit
}

// buildPopular looks up each name independently, preferring earlier
// sources. Names with no hit are skipped; order follows names.
func (s *authorService) buildPopular(ctx context.Context, names []string) []model.ExternalAuthorRecord {
	found := make([]*model.ExternalAuthorRecord, len(names))

	var g errgroup.Group
	if s.cfg.PopularConcurrency > 0 {
		g.SetLimit(s.cfg.PopularConcurrency)
	}

	for i, name := range names {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Str("name", name).Msg("popular author lookup panicked")
				}
			}()

			for _, src := range s.sources {
				res := src.Search(ctx, name, 1)
				if res.OK() {
					rec := res.Records[0]
					found[i] = &rec
					return nil
				}
			}
			log.Debug().Str("name", name).Msg("no source returned popular author")
			return nil
		})
	}
	_ = g.Wait()

	records := make([]model.ExternalAuthorRecord, 0, len(names))
	for _, rec := range found {
		if rec != nil {
			records = append(records, *rec)
		}
	}
	return records
}
