package service

import (
	"context"
	"time"

	"bookreview-backend/internal/domains/author/model"
)

// Mode selects whether a search may write to the author store.
type Mode int

const (
	// ModeReadOnly returns external hits as previews, never writes
	ModeReadOnly Mode = iota
	// ModePersist reconciles every external hit into the store
	ModePersist
)

func (m Mode) String() string {
	if m == ModePersist {
		return "persist"
	}
	return "read_only"
}

// ServiceInterface defines business operations for author resolution
type ServiceInterface interface {
	// SearchAuthors validates the query, then returns local matches followed
	// by source A and source B hits. External failures degrade to local
	// results; only validation and local store errors are returned.
	SearchAuthors(ctx context.Context, rawQuery any, includeExternal bool, mode Mode) (model.AuthorViews, error)

	// InvalidateSearchCache drops every cached search result set
	InvalidateSearchCache(ctx context.Context) error

	// Reconcile finds or creates the canonical author for rec and backfills
	// fields that are still missing
	Reconcile(ctx context.Context, rec model.ExternalAuthorRecord) (*model.Author, error)

	// ReconcileAll reconciles each record independently. The result is
	// aligned with recs; a failed record leaves a nil entry and is reported
	// through the joined error.
	ReconcileAll(ctx context.Context, recs []model.ExternalAuthorRecord) ([]*model.Author, error)

	// GetByID retrieves a canonical author
	GetByID(ctx context.Context, id int64) (*model.Author, error)

	// GetPopularAuthors returns one external record per curated name, in
	// curated order. Never writes to the store.
	GetPopularAuthors(ctx context.Context, limit int) ([]model.ExternalAuthorRecord, error)

	// RefreshPopularAuthors rebuilds and re-caches the snapshot for limit,
	// returning how many names resolved
	RefreshPopularAuthors(ctx context.Context, limit int) (int, error)

	// Score ranks an author against the reference list of well-known names
	Score(author *model.Author) int
}

// Config tunes search and caching behavior
type Config struct {
	LocalLimit         int           // max rows read from the store per search
	LocalSufficient    int           // skip external sources once this many local rows match
	ExternalMaxResults int           // per-source result cap
	SearchTTL          time.Duration // search result set freshness
	PopularTTL         time.Duration // popular snapshot freshness
	PopularConcurrency int           // parallel lookups while building the snapshot
}

// DefaultConfig returns production defaults
func DefaultConfig() Config {
	return Config{
		LocalLimit:         20,
		LocalSufficient:    5,
		ExternalMaxResults: 10,
		SearchTTL:          5 * time.Minute,
		PopularTTL:         24 * time.Hour,
		PopularConcurrency: 5,
	}
}
