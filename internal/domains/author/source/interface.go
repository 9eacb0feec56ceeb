package source

import (
	"context"
	"errors"

	"bookreview-backend/internal/domains/author/model"
)

var (
	ErrNoResults        = errors.New("source returned no authors")
	ErrUnexpectedStatus = errors.New("source returned unexpected status")
)

// Client is a single external bibliographic API.
type Client interface {
	// Source identifies which API this client talks to
	Source() model.Source

	// Search performs one outbound request for authors matching query.
	// Returns at most maxResults records, deduplicated by name.
	Search(ctx context.Context, query string, maxResults int) ([]model.ExternalAuthorRecord, error)
}

// Searcher is the fail-soft view of a source consumed by the service layer.
type Searcher interface {
	Source() model.Source
	Search(ctx context.Context, query string, maxResults int) Result
}

// Result is the outcome of one external search. Records is empty whenever
// Err is set; Err is informational and never aborts the caller.
type Result struct {
	Source  model.Source
	Records []model.ExternalAuthorRecord
	Err     error
}

// OK reports whether the source produced usable records.
func (r Result) OK() bool {
	return r.Err == nil && len(r.Records) > 0
}
