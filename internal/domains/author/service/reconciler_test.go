package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookreview-backend/internal/domains/author/model"
)

func TestReconcile_SameIDTwiceCreatesOneRow(t *testing.T) {
	f := newFixture(newFakeStore())
	ctx := context.Background()

	r := rec(model.SourceOpenLibrary, "OL2162284A", "Stephen King")

	first, err := f.svc.Reconcile(ctx, r)
	require.NoError(t, err)
	second, err := f.svc.Reconcile(ctx, r)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.store.count())
	assert.Equal(t, "Stephen", first.GivenName)
	assert.Equal(t, "King", first.FamilyName)
	require.NotNil(t, first.OpenLibraryID)
	assert.Equal(t, "OL2162284A", *first.OpenLibraryID)
}

func TestReconcile_BioFirstWriterWins(t *testing.T) {
	f := newFixture(newFakeStore(model.Author{GivenName: "Ursula", FamilyName: "K. Le Guin"}))
	ctx := context.Background()

	withBio := rec(model.SourceOpenLibrary, "OL1A", "Ursula K. Le Guin")
	withBio.Bio = strPtr("X")
	a, err := f.svc.Reconcile(ctx, withBio)
	require.NoError(t, err)
	require.NotNil(t, a.Bio)
	assert.Equal(t, "X", *a.Bio)

	laterBio := rec(model.SourceGoogleBooks, "ursula k. le guin", "Ursula K. Le Guin")
	laterBio.Bio = strPtr("Y")
	a, err = f.svc.Reconcile(ctx, laterBio)
	require.NoError(t, err)
	require.NotNil(t, a.Bio)
	assert.Equal(t, "X", *a.Bio)

	// the name match still backfilled the second source's id
	require.NotNil(t, a.GoogleBooksID)
	assert.Equal(t, "ursula k. le guin", *a.GoogleBooksID)
	assert.Equal(t, 1, f.store.count())
}

func TestReconcile_NameMatchNeverOverwritesExternalID(t *testing.T) {
	f := newFixture(newFakeStore(model.Author{GivenName: "Jane", FamilyName: "Austen", OpenLibraryID: strPtr("OL21594A")}))

	a, err := f.svc.Reconcile(context.Background(), rec(model.SourceOpenLibrary, "OL_OTHER", "Jane Austen"))
	require.NoError(t, err)
	require.NotNil(t, a.OpenLibraryID)
	assert.Equal(t, "OL21594A", *a.OpenLibraryID)
	assert.Equal(t, 1, f.store.count())
}

func TestReconcile_ExternalIDMatchWinsOverName(t *testing.T) {
	f := newFixture(newFakeStore(
		model.Author{GivenName: "Owen", FamilyName: "King", OpenLibraryID: strPtr("OL1A")},
		model.Author{GivenName: "O.", FamilyName: "King"},
	))

	a, err := f.svc.Reconcile(context.Background(), rec(model.SourceOpenLibrary, "OL1A", "O. King"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ID)
}

func TestReconcile_SplitsDisplayName(t *testing.T) {
	f := newFixture(newFakeStore())

	r := model.ExternalAuthorRecord{GivenName: "Gabriel García", FamilyName: "Márquez", Source: model.SourceGoogleBooks}
	a, err := f.svc.Reconcile(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "Gabriel", a.GivenName)
	assert.Equal(t, "García Márquez", a.FamilyName)

	single, err := f.svc.Reconcile(context.Background(), rec(model.SourceOpenLibrary, "OL9A", "Homer"))
	require.NoError(t, err)
	assert.Equal(t, "Homer", single.GivenName)
	assert.Empty(t, single.FamilyName)
}

func TestReconcile_InvalidInput(t *testing.T) {
	f := newFixture(newFakeStore())

	_, err := f.svc.Reconcile(context.Background(), rec(model.SourceOpenLibrary, "OL1A", "   "))
	assert.ErrorIs(t, err, model.ErrEmptyAuthorName)

	_, err = f.svc.Reconcile(context.Background(), rec("goodreads", "1", "Stephen King"))
	assert.ErrorIs(t, err, model.ErrUnknownSource)

	assert.Equal(t, 0, f.store.count())
}

func TestReconcile_ConcurrentSameNameCreatesOneRow(t *testing.T) {
	f := newFixture(newFakeStore())

	var wg sync.WaitGroup
	ids := make([]int64, 20)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := f.svc.Reconcile(context.Background(), rec(model.SourceGoogleBooks, "", "Isabel Allende"))
			if err == nil {
				ids[i] = a.ID
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.store.count())
	assert.Equal(t, int32(1), f.store.creates.Load())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Equal(t, 0, f.svc.locks.size())
}

func TestReconcileAll_CollectsFailures(t *testing.T) {
	f := newFixture(newFakeStore())

	authors, err := f.svc.ReconcileAll(context.Background(), []model.ExternalAuthorRecord{
		rec(model.SourceOpenLibrary, "OL1A", "Julio Cortázar"),
		rec(model.SourceOpenLibrary, "OL2A", ""),
		rec(model.SourceOpenLibrary, "OL3A", "Jorge Luis Borges"),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrEmptyAuthorName))
	require.Len(t, authors, 3)
	assert.Equal(t, "Julio", authors[0].GivenName)
	assert.Nil(t, authors[1])
	assert.Equal(t, "Jorge", authors[2].GivenName)
}
