package model

import (
	"strings"
	"time"
)

// =====================================================
// CANONICAL AUTHOR
// =====================================================

// Author is the single authoritative local record for a real-world author.
// External ids, Bio and PhotoURL are backfilled by reconciliation and are
// never overwritten once populated.
type Author struct {
	ID         int64  `json:"id" db:"id"`
	GivenName  string `json:"given_name" db:"given_name"`
	FamilyName string `json:"family_name" db:"family_name"` // empty when the name could not be split

	// External identifiers, at most one per source
	OpenLibraryID *string `json:"openlibrary_id,omitempty" db:"openlibrary_id"`
	GoogleBooksID *string `json:"googlebooks_id,omitempty" db:"googlebooks_id"`

	Bio      *string `json:"bio,omitempty" db:"bio"`
	PhotoURL *string `json:"photo_url,omitempty" db:"photo_url"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FullName joins given and family name with a single space.
func (a *Author) FullName() string {
	if a.FamilyName == "" {
		return a.GivenName
	}
	return a.GivenName + " " + a.FamilyName
}

// HasBio checks if author has biography
func (a *Author) HasBio() bool {
	return a.Bio != nil && *a.Bio != ""
}

// HasPhoto checks if author has photo
func (a *Author) HasPhoto() bool {
	return a.PhotoURL != nil && *a.PhotoURL != ""
}

// ExternalID returns the identifier stored for source, or nil.
func (a *Author) ExternalID(source Source) *string {
	switch source {
	case SourceOpenLibrary:
		return a.OpenLibraryID
	case SourceGoogleBooks:
		return a.GoogleBooksID
	default:
		return nil
	}
}

// SetExternalID stores id for source when the field is still empty.
// Returns true if the author changed.
func (a *Author) SetExternalID(source Source, id string) bool {
	if id == "" || a.ExternalID(source) != nil {
		return false
	}
	switch source {
	case SourceOpenLibrary:
		a.OpenLibraryID = &id
	case SourceGoogleBooks:
		a.GoogleBooksID = &id
	default:
		return false
	}
	return true
}

// =====================================================
// EXTERNAL SOURCES
// =====================================================

// Source identifies an external bibliographic API.
type Source string

const (
	SourceOpenLibrary Source = "openlibrary"
	SourceGoogleBooks Source = "googlebooks"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	return s == SourceOpenLibrary || s == SourceGoogleBooks
}

// ExternalAuthorRecord is an author mention produced by an external source
// for a single query. It is never persisted verbatim.
type ExternalAuthorRecord struct {
	GivenName  string  `json:"given_name"`
	FamilyName string  `json:"family_name"`
	Source     Source  `json:"source"`
	SourceID   string  `json:"source_id,omitempty"`
	Bio        *string `json:"bio,omitempty"`
	PhotoURL   *string `json:"photo_url,omitempty"`
}

// DisplayName is the full name as the source reported it.
func (r ExternalAuthorRecord) DisplayName() string {
	return strings.TrimSpace(r.GivenName + " " + r.FamilyName)
}

// NewExternalRecord builds a record from a full display name, splitting it
// the same way reconciliation does.
func NewExternalRecord(source Source, sourceID, fullName string) ExternalAuthorRecord {
	given, family := SplitName(fullName)
	return ExternalAuthorRecord{
		GivenName:  given,
		FamilyName: family,
		Source:     source,
		SourceID:   sourceID,
	}
}

// SplitName splits a display name on whitespace: the first token is the
// given name, the remaining tokens joined by one space are the family name.
func SplitName(fullName string) (given, family string) {
	tokens := strings.Fields(fullName)
	if len(tokens) == 0 {
		return "", ""
	}
	return tokens[0], strings.Join(tokens[1:], " ")
}
