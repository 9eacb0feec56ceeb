package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"bookreview-backend/internal/domains/author/model"
	"bookreview-backend/pkg/cache"
	"bookreview-backend/pkg/database"
)

// postgresRepository implements RepositoryInterface
// Uses pgxpool for PostgreSQL and the cache layer for single-row lookups
type postgresRepository struct {
	pool  *pgxpool.Pool
	cache cache.Cache
}

// NewPostgresRepository creates a new author repository instance
func NewPostgresRepository(pool *pgxpool.Pool, cache cache.Cache) RepositoryInterface {
	return &postgresRepository{
		pool:  pool,
		cache: cache,
	}
}

// Cache key constants
const (
	authorCacheKeyPrefix = "author:"
	cacheTTL             = 15 * time.Minute
)

const authorColumns = `id, given_name, family_name, openlibrary_id, googlebooks_id, bio, photo_url, created_at, updated_at`

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation
const uniqueViolation = "23505"

func authorCacheKey(id int64) string {
	return authorCacheKeyPrefix + strconv.FormatInt(id, 10)
}

func scanAuthor(row pgx.Row) (*model.Author, error) {
	var a model.Author
	err := row.Scan(
		&a.ID,
		&a.GivenName,
		&a.FamilyName,
		&a.OpenLibraryID,
		&a.GoogleBooksID,
		&a.Bio,
		&a.PhotoURL,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// externalIDColumn maps a source to its column. Never built from user input.
func externalIDColumn(source model.Source) (string, error) {
	switch source {
	case model.SourceOpenLibrary:
		return "openlibrary_id", nil
	case model.SourceGoogleBooks:
		return "googlebooks_id", nil
	default:
		return "", fmt.Errorf("%w: %q", model.ErrUnknownSource, source)
	}
}

// GetByID retrieves author by ID with caching
func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*model.Author, error) {
	cacheKey := authorCacheKey(id)

	var cached model.Author
	if hit, err := r.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	query := `SELECT ` + authorColumns + ` FROM authors WHERE id = $1`

	a, err := scanAuthor(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrAuthorNotFound
		}
		return nil, fmt.Errorf("failed to get author by id: %w", err)
	}

	if err := r.cache.Set(ctx, cacheKey, a, cacheTTL); err != nil {
		log.Debug().Err(err).Int64("author_id", id).Msg("failed to cache author")
	}

	return a, nil
}

// FindByExternalID looks up an author by the id a source assigned it
func (r *postgresRepository) FindByExternalID(ctx context.Context, source model.Source, id string) (*model.Author, error) {
	return findByExternalID(ctx, r.pool, source, id)
}

// FindByName matches an author on the exact (given, family) pair
func (r *postgresRepository) FindByName(ctx context.Context, givenName, familyName string) (*model.Author, error) {
	return findByName(ctx, r.pool, givenName, familyName)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func findByExternalID(ctx context.Context, q querier, source model.Source, id string) (*model.Author, error) {
	column, err := externalIDColumn(source)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + authorColumns + ` FROM authors WHERE ` + column + ` = $1`

	a, err := scanAuthor(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find author by %s: %w", column, err)
	}
	return a, nil
}

func findByName(ctx context.Context, q querier, givenName, familyName string) (*model.Author, error) {
	query := `SELECT ` + authorColumns + ` FROM authors WHERE given_name = $1 AND family_name = $2`

	a, err := scanAuthor(q.QueryRow(ctx, query, givenName, familyName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find author by name: %w", err)
	}
	return a, nil
}

// SearchByNameSubstring performs a case-insensitive substring match on
// given and family name
func (r *postgresRepository) SearchByNameSubstring(ctx context.Context, term string, limit int) ([]*model.Author, error) {
	query := `
        SELECT ` + authorColumns + `
        FROM authors
        WHERE given_name ILIKE $1 ESCAPE '\' OR family_name ILIKE $1 ESCAPE '\'
        ORDER BY id
        LIMIT $2
    `

	rows, err := r.pool.Query(ctx, query, "%"+escapeLike(term)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search authors: %w", err)
	}
	defer rows.Close()

	authors := make([]*model.Author, 0)
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan author: %w", err)
		}
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate authors: %w", err)
	}

	return authors, nil
}

// escapeLike neutralizes LIKE wildcards so term matches literally
func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

// Create inserts the author or returns the row that won a concurrent insert.
// Runs in a transaction so the re-fetch sees a consistent snapshot of the
// conflicting row.
func (r *postgresRepository) Create(ctx context.Context, a *model.Author) (*model.Author, error) {
	return database.WithTransactionResult(ctx, r.pool, func(tx pgx.Tx) (*model.Author, error) {
		query := `
            INSERT INTO authors (given_name, family_name, openlibrary_id, googlebooks_id, bio, photo_url)
            VALUES ($1, $2, $3, $4, $5, $6)
            ON CONFLICT DO NOTHING
            RETURNING ` + authorColumns

		created, err := scanAuthor(tx.QueryRow(ctx, query,
			a.GivenName,
			a.FamilyName,
			a.OpenLibraryID,
			a.GoogleBooksID,
			a.Bio,
			a.PhotoURL,
		))
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to create author: %w", err)
		}

		// Conflict: some other writer owns the name or one of the ids
		existing, err := r.findConflicting(ctx, tx, a)
		if err != nil {
			return nil, err
		}
		log.Debug().
			Int64("author_id", existing.ID).
			Str("name", a.FullName()).
			Msg("author create resolved to existing row")
		return existing, nil
	})
}

func (r *postgresRepository) findConflicting(ctx context.Context, tx pgx.Tx, a *model.Author) (*model.Author, error) {
	for _, source := range []model.Source{model.SourceOpenLibrary, model.SourceGoogleBooks} {
		id := a.ExternalID(source)
		if id == nil {
			continue
		}
		existing, err := findByExternalID(ctx, tx, source, *id)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	existing, err := findByName(ctx, tx, a.GivenName, a.FamilyName)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("failed to create author: %w", model.ErrDuplicateName)
	}
	return existing, nil
}

// Update backfills nullable fields only. COALESCE keeps the stored value
// whenever one is already present.
func (r *postgresRepository) Update(ctx context.Context, a *model.Author) (*model.Author, error) {
	query := `
        UPDATE authors
        SET openlibrary_id = COALESCE(openlibrary_id, $2),
            googlebooks_id = COALESCE(googlebooks_id, $3),
            bio            = COALESCE(bio, $4),
            photo_url      = COALESCE(photo_url, $5),
            updated_at     = NOW()
        WHERE id = $1
        RETURNING ` + authorColumns

	updated, err := scanAuthor(r.pool.QueryRow(ctx, query,
		a.ID,
		a.OpenLibraryID,
		a.GoogleBooksID,
		a.Bio,
		a.PhotoURL,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrAuthorNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, model.ErrDuplicateExtID
		}
		return nil, fmt.Errorf("failed to update author: %w", err)
	}

	if err := r.cache.Delete(ctx, authorCacheKey(a.ID)); err != nil {
		log.Debug().Err(err).Int64("author_id", a.ID).Msg("failed to invalidate author cache")
	}

	return updated, nil
}
