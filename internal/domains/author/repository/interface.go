package repository

import (
	"context"

	"bookreview-backend/internal/domains/author/model"
)

// RepositoryInterface defines data access for canonical authors.
// Rows are never deleted through this interface.
type RepositoryInterface interface {
	// GetByID retrieves author by its store-assigned ID
	// Returns: ErrAuthorNotFound if not exists
	GetByID(ctx context.Context, id int64) (*model.Author, error)

	// FindByExternalID looks up the author carrying id for the given source.
	// Returns: nil, nil when no row matches
	FindByExternalID(ctx context.Context, source model.Source, id string) (*model.Author, error)

	// FindByName matches given and family name exactly.
	// Returns: nil, nil when no row matches
	FindByName(ctx context.Context, givenName, familyName string) (*model.Author, error)

	// SearchByNameSubstring returns authors whose given or family name
	// contains term, case-insensitive, in store order, at most limit rows.
	SearchByNameSubstring(ctx context.Context, term string, limit int) ([]*model.Author, error)

	// Create inserts a new author. If another writer already created a row
	// with the same name or external id, that row is returned instead.
	Create(ctx context.Context, author *model.Author) (*model.Author, error)

	// Update backfills external ids, bio and photo. Fields already set in
	// the store are never overwritten.
	// Errors: ErrAuthorNotFound, ErrDuplicateExtID
	Update(ctx context.Context, author *model.Author) (*model.Author, error)
}
