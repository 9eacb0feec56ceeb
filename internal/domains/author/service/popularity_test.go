package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bookreview-backend/internal/domains/author/model"
)

func TestRanker_Score(t *testing.T) {
	r := NewRanker([]string{"Stephen King", "Gabriel García Márquez"})

	tests := []struct {
		name   string
		author model.Author
		want   int
	}{
		{"exact full name", model.Author{GivenName: "Stephen", FamilyName: "King"}, 1000},
		{"exact ignores case", model.Author{GivenName: "STEPHEN", FamilyName: "king"}, 1000},
		{"family not in list", model.Author{GivenName: "Stephen", FamilyName: "Smith"}, 0},
		{"family substring, short given", model.Author{GivenName: "Ste", FamilyName: "King"}, 500},
		{"compound family substring", model.Author{GivenName: "G.", FamilyName: "García Márquez"}, 500},
		{"folded accents", model.Author{GivenName: "G.", FamilyName: "GARCÍA"}, 500},
		{"given only when family too short", model.Author{GivenName: "Gabriel", FamilyName: ""}, 250},
		{"given too short", model.Author{GivenName: "Gab", FamilyName: ""}, 0},
		{"no match", model.Author{GivenName: "Ursula", FamilyName: "Le Guin"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.author
			assert.Equal(t, tt.want, r.Score(&a))
			assert.Equal(t, tt.want > 0, r.IsPopular(&a))
		})
	}
}

func TestRanker_NilAuthor(t *testing.T) {
	assert.Zero(t, NewRanker(PopularAuthorNames).Score(nil))
}

func TestPopularAuthorNames_StephenKingScores1000(t *testing.T) {
	f := newFixture(newFakeStore())
	assert.Equal(t, ScoreExactName, f.svc.Score(&model.Author{GivenName: "Stephen", FamilyName: "King"}))
	assert.Equal(t, 0, f.svc.Score(&model.Author{GivenName: "Stephen", FamilyName: "Smith"}))
	assert.Equal(t, ScoreFamilyMatch, f.svc.Score(&model.Author{GivenName: "Ste", FamilyName: "King"}))
}
