package service

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"bookreview-backend/internal/domains/author/model"
)

// Popularity scores, first matching rule wins
const (
	ScoreExactName   = 1000
	ScoreFamilyMatch = 500
	ScoreGivenMatch  = 250

	// Name parts this short are too ambiguous to match as substrings
	minPartialMatchLength = 4
)

// PopularAuthorNames is the curated list of well-known authors. It is the
// reference list for scoring and the seed list for the popular snapshot.
var PopularAuthorNames = []string{
	"Gabriel García Márquez",
	"Isabel Allende",
	"Jorge Luis Borges",
	"Julio Cortázar",
	"Mario Vargas Llosa",
	"Carlos Ruiz Zafón",
	"Arturo Pérez-Reverte",
	"Miguel de Cervantes",
	"Stephen King",
	"J.K. Rowling",
	"George Orwell",
	"Jane Austen",
	"Agatha Christie",
	"Haruki Murakami",
	"Paulo Coelho",
}

// Ranker scores authors against a case-folded reference list
type Ranker struct {
	fold    cases.Caser
	entries []string
	exact   map[string]struct{}
}

// NewRanker builds a ranker over names
func NewRanker(names []string) *Ranker {
	r := &Ranker{
		fold:  cases.Fold(),
		exact: make(map[string]struct{}, len(names)),
	}
	for _, n := range names {
		folded := r.normalize(n)
		r.entries = append(r.entries, folded)
		r.exact[folded] = struct{}{}
	}
	return r
}

func (r *Ranker) normalize(s string) string {
	return r.fold.String(strings.Join(strings.Fields(s), " "))
}

// Score returns 1000 for an exact full-name match, 500 when the family
// name occurs inside a reference entry, 250 when only the given name can be
// checked and occurs inside an entry, and 0 otherwise. The given name is
// consulted only when the family name is too short to decide on its own.
func (r *Ranker) Score(a *model.Author) int {
	if a == nil {
		return 0
	}

	if _, ok := r.exact[r.normalize(a.FullName())]; ok {
		return ScoreExactName
	}

	family := r.normalize(a.FamilyName)
	if utf8.RuneCountInString(family) >= minPartialMatchLength {
		if r.containedInEntry(family) {
			return ScoreFamilyMatch
		}
		return 0
	}

	given := r.normalize(a.GivenName)
	if utf8.RuneCountInString(given) >= minPartialMatchLength && r.containedInEntry(given) {
		return ScoreGivenMatch
	}

	return 0
}

// IsPopular reports whether the author matches the reference list at all
func (r *Ranker) IsPopular(a *model.Author) bool {
	return r.Score(a) > 0
}

func (r *Ranker) containedInEntry(part string) bool {
	for _, e := range r.entries {
		if strings.Contains(e, part) {
			return true
		}
	}
	return false
}

func (s *authorService) Score(a *model.Author) int {
	return s.ranker.Score(a)
}
