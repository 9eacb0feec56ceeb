package model

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// =====================================================
// AUTHOR VIEWS (search result items)
// =====================================================

// ViewKind discriminates the two author view variants on the wire.
type ViewKind string

const (
	KindLocal    ViewKind = "local"
	KindExternal ViewKind = "external"
)

// AuthorView is one item of an aggregated search. It is either a
// *LocalAuthor (persisted, has an ID) or an *ExternalAuthor (preview, has a
// source id and no ID).
type AuthorView interface {
	Kind() ViewKind
	DisplayName() string
	authorView()
}

// LocalAuthor is a view of a canonical author row.
type LocalAuthor struct {
	ID            int64   `json:"id"`
	GivenName     string  `json:"given_name"`
	FamilyName    string  `json:"family_name"`
	OpenLibraryID *string `json:"openlibrary_id,omitempty"`
	GoogleBooksID *string `json:"googlebooks_id,omitempty"`
	Bio           *string `json:"bio,omitempty"`
	PhotoURL      *string `json:"photo_url,omitempty"`
}

func (*LocalAuthor) Kind() ViewKind { return KindLocal }
func (*LocalAuthor) authorView()    {}

func (l *LocalAuthor) DisplayName() string {
	return (&Author{GivenName: l.GivenName, FamilyName: l.FamilyName}).FullName()
}

// ExternalAuthor is a read-only preview of an external record.
type ExternalAuthor struct {
	Source     Source  `json:"source"`
	SourceID   string  `json:"source_id,omitempty"`
	GivenName  string  `json:"given_name"`
	FamilyName string  `json:"family_name"`
	Bio        *string `json:"bio,omitempty"`
	PhotoURL   *string `json:"photo_url,omitempty"`
}

func (*ExternalAuthor) Kind() ViewKind { return KindExternal }
func (*ExternalAuthor) authorView()    {}

func (e *ExternalAuthor) DisplayName() string {
	return (&Author{GivenName: e.GivenName, FamilyName: e.FamilyName}).FullName()
}

// ToView converts a canonical author into its local view.
func (a *Author) ToView() *LocalAuthor {
	return &LocalAuthor{
		ID:            a.ID,
		GivenName:     a.GivenName,
		FamilyName:    a.FamilyName,
		OpenLibraryID: a.OpenLibraryID,
		GoogleBooksID: a.GoogleBooksID,
		Bio:           a.Bio,
		PhotoURL:      a.PhotoURL,
	}
}

// ToView converts an external record into its preview view.
func (r ExternalAuthorRecord) ToView() *ExternalAuthor {
	return &ExternalAuthor{
		Source:     r.Source,
		SourceID:   r.SourceID,
		GivenName:  r.GivenName,
		FamilyName: r.FamilyName,
		Bio:        r.Bio,
		PhotoURL:   r.PhotoURL,
	}
}

// AuthorViews is an ordered list of views. Position is a priority signal:
// local items come first, then source A, then source B.
type AuthorViews []AuthorView

type viewEnvelope struct {
	Kind ViewKind        `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON encodes each view with its kind so the list survives a
// round trip through the cache.
func (v AuthorViews) MarshalJSON() ([]byte, error) {
	out := make([]viewEnvelope, 0, len(v))
	for _, item := range v {
		data, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		out = append(out, viewEnvelope{Kind: item.Kind(), Data: data})
	}
	return json.Marshal(out)
}

func (v *AuthorViews) UnmarshalJSON(b []byte) error {
	var raw []viewEnvelope
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	views := make(AuthorViews, 0, len(raw))
	for _, env := range raw {
		switch env.Kind {
		case KindLocal:
			var l LocalAuthor
			if err := json.Unmarshal(env.Data, &l); err != nil {
				return err
			}
			views = append(views, &l)
		case KindExternal:
			var e ExternalAuthor
			if err := json.Unmarshal(env.Data, &e); err != nil {
				return err
			}
			views = append(views, &e)
		default:
			return fmt.Errorf("unknown author view kind %q", env.Kind)
		}
	}
	*v = views
	return nil
}
