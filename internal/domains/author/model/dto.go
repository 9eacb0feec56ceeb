package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SearchRequest - POST /v1/authors/search
// Query is untyped on purpose: non-string payloads must be reported as
// INVALID_TYPE rather than as a JSON binding failure.
type SearchRequest struct {
	Query           any  `json:"query"`
	IncludeExternal bool `json:"include_external"`
}

// SearchResponse - GET/POST /v1/authors/search
type SearchResponse struct {
	Query   string      `json:"query"`
	Authors AuthorViews `json:"authors"`
	Total   int         `json:"total"`
}

// ReconcileRequest - POST /v1/authors/reconcile
type ReconcileRequest struct {
	Name     string  `json:"name"`
	Source   Source  `json:"source"`
	SourceID string  `json:"source_id"`
	Bio      *string `json:"bio,omitempty"`
	PhotoURL *string `json:"photo_url,omitempty"`
}

func (r ReconcileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			validation.Length(1, 255),
		),
		validation.Field(&r.Source,
			validation.Required.Error("source is required"),
			validation.In(SourceOpenLibrary, SourceGoogleBooks).Error("source must be openlibrary or googlebooks"),
		),
		validation.Field(&r.SourceID, validation.Length(0, 255)),
	)
}

// ToRecord converts the request into an external record.
func (r ReconcileRequest) ToRecord() ExternalAuthorRecord {
	rec := NewExternalRecord(r.Source, r.SourceID, r.Name)
	rec.Bio = r.Bio
	rec.PhotoURL = r.PhotoURL
	return rec
}

// AuthorResponse - Author detail with popularity information
type AuthorResponse struct {
	ID            int64     `json:"id"`
	GivenName     string    `json:"given_name"`
	FamilyName    string    `json:"family_name"`
	FullName      string    `json:"full_name"`
	OpenLibraryID *string   `json:"openlibrary_id,omitempty"`
	GoogleBooksID *string   `json:"googlebooks_id,omitempty"`
	Bio           *string   `json:"bio,omitempty"`
	PhotoURL      *string   `json:"photo_url,omitempty"`
	Popularity    int       `json:"popularity"`
	IsPopular     bool      `json:"is_popular"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ToResponse converts Author to AuthorResponse
func (a *Author) ToResponse(popularity int) *AuthorResponse {
	return &AuthorResponse{
		ID:            a.ID,
		GivenName:     a.GivenName,
		FamilyName:    a.FamilyName,
		FullName:      a.FullName(),
		OpenLibraryID: a.OpenLibraryID,
		GoogleBooksID: a.GoogleBooksID,
		Bio:           a.Bio,
		PhotoURL:      a.PhotoURL,
		Popularity:    popularity,
		IsPopular:     popularity > 0,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// PopularAuthorsResponse - GET /v1/authors/popular
type PopularAuthorsResponse struct {
	Authors []ExternalAuthorRecord `json:"authors"`
	Total   int                    `json:"total"`
}
