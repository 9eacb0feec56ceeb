package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"bookreview-backend/internal/domains/author/model"
)

func displayNames(views model.AuthorViews) []string {
	names := make([]string, 0, len(views))
	for _, v := range views {
		names = append(names, v.DisplayName())
	}
	return names
}

func TestSearchAuthors_LocalOnlyScenario(t *testing.T) {
	f := newFixture(newFakeStore(
		model.Author{GivenName: "Gabriel", FamilyName: "García Márquez"},
		model.Author{GivenName: "Federico", FamilyName: "García Lorca"},
	))
	ctx := context.Background()

	views, err := f.svc.SearchAuthors(ctx, "García", false, ModeReadOnly)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, []string{"Gabriel García Márquez", "Federico García Lorca"}, displayNames(views))
	for _, v := range views {
		assert.Equal(t, model.KindLocal, v.Kind())
	}

	var cached model.AuthorViews
	hit, err := f.cache.Get(ctx, "autores:search:García:external:false", &cached)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Len(t, cached, 2)

	assert.Zero(t, f.a.calls.Load())
	assert.Zero(t, f.b.calls.Load())
}

func TestSearchAuthors_OrderLocalThenAThenB(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(newFakeStore(model.Author{GivenName: "Stephen", FamilyName: "King"}))
	f.a.records = []model.ExternalAuthorRecord{rec(model.SourceOpenLibrary, "OL1A", "Owen King")}
	f.b.records = []model.ExternalAuthorRecord{
		rec(model.SourceGoogleBooks, "tabitha king", "Tabitha King"),
		rec(model.SourceGoogleBooks, "joe hill king", "Joe Hill King"),
	}

	views, err := f.svc.SearchAuthors(context.Background(), "King", true, ModeReadOnly)
	require.NoError(t, err)

	assert.Equal(t, []string{"Stephen King", "Owen King", "Tabitha King", "Joe Hill King"}, displayNames(views))
	assert.Equal(t, model.KindLocal, views[0].Kind())

	ext, ok := views[1].(*model.ExternalAuthor)
	require.True(t, ok)
	assert.Equal(t, model.SourceOpenLibrary, ext.Source)
	assert.Equal(t, model.SourceGoogleBooks, views[2].(*model.ExternalAuthor).Source)

	// read-only mode never writes
	assert.Equal(t, 1, f.store.count())
}

func TestSearchAuthors_FailSoftWhenSourceAFails(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(newFakeStore(model.Author{GivenName: "Stephen", FamilyName: "King"}))
	f.a.err = errors.New("timeout")
	f.b.records = []model.ExternalAuthorRecord{
		rec(model.SourceGoogleBooks, "owen king", "Owen King"),
		rec(model.SourceGoogleBooks, "tabitha king", "Tabitha King"),
	}

	views, err := f.svc.SearchAuthors(context.Background(), "King", true, ModeReadOnly)
	require.NoError(t, err)
	assert.Equal(t, []string{"Stephen King", "Owen King", "Tabitha King"}, displayNames(views))
}

func TestSearchAuthors_PanicInFanOutDegradesToLocal(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(newFakeStore(model.Author{GivenName: "Stephen", FamilyName: "King"}))
	f.a.panics = true
	f.b.records = []model.ExternalAuthorRecord{rec(model.SourceGoogleBooks, "owen king", "Owen King")}

	views, err := f.svc.SearchAuthors(context.Background(), "King", true, ModeReadOnly)
	require.NoError(t, err)
	assert.Equal(t, []string{"Stephen King"}, displayNames(views))
}

func TestSearchAuthors_BothSourcesFail(t *testing.T) {
	f := newFixture(newFakeStore())
	f.a.err = errors.New("down")
	f.b.err = errors.New("down")

	views, err := f.svc.SearchAuthors(context.Background(), "King", true, ModeReadOnly)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestSearchAuthors_CacheHitSkipsSources(t *testing.T) {
	f := newFixture(newFakeStore())
	f.a.records = []model.ExternalAuthorRecord{rec(model.SourceOpenLibrary, "OL1A", "Stephen King")}
	f.b.records = []model.ExternalAuthorRecord{rec(model.SourceGoogleBooks, "stephen king", "Stephen King")}
	ctx := context.Background()

	first, err := f.svc.SearchAuthors(ctx, "King", true, ModeReadOnly)
	require.NoError(t, err)
	second, err := f.svc.SearchAuthors(ctx, "  King ", true, ModeReadOnly)
	require.NoError(t, err)

	assert.Equal(t, displayNames(first), displayNames(second))
	assert.Equal(t, int32(1), f.a.calls.Load())
	assert.Equal(t, int32(1), f.b.calls.Load())
	assert.Equal(t, int32(1), f.store.searchCalls.Load())

	// cached external views keep their variant
	ext, ok := second[0].(*model.ExternalAuthor)
	require.True(t, ok)
	assert.Equal(t, "OL1A", ext.SourceID)
}

func TestSearchAuthors_EnoughLocalResultsSkipsSources(t *testing.T) {
	f := newFixture(newFakeStore(
		model.Author{GivenName: "Stephen", FamilyName: "King"},
		model.Author{GivenName: "Owen", FamilyName: "King"},
		model.Author{GivenName: "Tabitha", FamilyName: "King"},
		model.Author{GivenName: "Joe", FamilyName: "King"},
		model.Author{GivenName: "Laurie", FamilyName: "King"},
	))
	f.a.records = []model.ExternalAuthorRecord{rec(model.SourceOpenLibrary, "OL1A", "Ross King")}

	views, err := f.svc.SearchAuthors(context.Background(), "king", true, ModeReadOnly)
	require.NoError(t, err)
	assert.Len(t, views, 5)
	assert.Zero(t, f.a.calls.Load())
}

func TestSearchAuthors_InvalidQueryTouchesNothing(t *testing.T) {
	f := newFixture(newFakeStore())

	_, err := f.svc.SearchAuthors(context.Background(), 12, true, ModeReadOnly)
	var vErr *model.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, model.ErrCodeInvalidType, vErr.Code)

	_, err = f.svc.SearchAuthors(context.Background(), "x", true, ModeReadOnly)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, model.ErrCodeTooShort, vErr.Code)

	assert.Zero(t, f.store.searchCalls.Load())
	assert.Zero(t, f.cache.Len())
}

func TestSearchAuthors_StoreErrorIsSurfaced(t *testing.T) {
	store := newFakeStore()
	store.searchErr = errors.New("connection reset")
	f := newFixture(store)

	_, err := f.svc.SearchAuthors(context.Background(), "King", true, ModeReadOnly)
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrInvalidQuery)
	assert.Zero(t, f.a.calls.Load())
}

func TestSearchAuthors_PersistModeReconciles(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(newFakeStore())
	bio := "American author"
	withBio := rec(model.SourceOpenLibrary, "OL2162284A", "Stephen King")
	withBio.Bio = &bio
	f.a.records = []model.ExternalAuthorRecord{withBio}
	f.b.records = []model.ExternalAuthorRecord{
		rec(model.SourceGoogleBooks, "stephen king", "Stephen King"),
		rec(model.SourceGoogleBooks, "owen king", "Owen King"),
	}

	views, err := f.svc.SearchAuthors(context.Background(), "King", true, ModePersist)
	require.NoError(t, err)
	require.Len(t, views, 3)
	for _, v := range views {
		assert.Equal(t, model.KindLocal, v.Kind())
	}

	// Stephen King from both sources resolved to one row carrying both ids
	assert.Equal(t, 2, f.store.count())
	stephen, err := f.store.FindByName(context.Background(), "Stephen", "King")
	require.NoError(t, err)
	require.NotNil(t, stephen.OpenLibraryID)
	require.NotNil(t, stephen.GoogleBooksID)
	require.NotNil(t, stephen.Bio)
	assert.Equal(t, "American author", *stephen.Bio)
}

func TestSearchAuthors_PersistAfterReadOnlyReconciles(t *testing.T) {
	f := newFixture(newFakeStore())
	f.a.records = []model.ExternalAuthorRecord{rec(model.SourceOpenLibrary, "OL1A", "Edgar Poe")}
	ctx := context.Background()

	preview, err := f.svc.SearchAuthors(ctx, "poe", true, ModeReadOnly)
	require.NoError(t, err)
	require.Len(t, preview, 1)
	assert.Equal(t, model.KindExternal, preview[0].Kind())
	assert.Zero(t, f.store.count())

	persisted, err := f.svc.SearchAuthors(ctx, "poe", true, ModePersist)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, model.KindLocal, persisted[0].Kind())
	assert.Equal(t, 1, f.store.count())

	// the persisted result replaced the previews, so read-only now hits it
	again, err := f.svc.SearchAuthors(ctx, "poe", true, ModeReadOnly)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, model.KindLocal, again[0].Kind())
	assert.Equal(t, int32(2), f.a.calls.Load())
}

func TestSearchAuthors_PersistKeepsPreviewWhenReconcileFails(t *testing.T) {
	store := newFakeStore()
	store.createErr = map[string]error{"Bad Author": errors.New("disk full")}
	f := newFixture(store)
	f.a.records = []model.ExternalAuthorRecord{
		rec(model.SourceOpenLibrary, "OL1A", "Bad Author"),
		rec(model.SourceOpenLibrary, "OL2A", "Good Author"),
	}

	views, err := f.svc.SearchAuthors(context.Background(), "author", true, ModePersist)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, []string{"Bad Author", "Good Author"}, displayNames(views))
	assert.Equal(t, model.KindExternal, views[0].Kind())
	assert.Equal(t, model.KindLocal, views[1].Kind())
	assert.Equal(t, 1, f.store.count())
}

func TestInvalidateSearchCache(t *testing.T) {
	f := newFixture(newFakeStore(model.Author{GivenName: "Stephen", FamilyName: "King"}))
	ctx := context.Background()

	_, err := f.svc.SearchAuthors(ctx, "King", false, ModeReadOnly)
	require.NoError(t, err)
	require.NoError(t, f.cache.Set(ctx, PopularCacheKey(10), []model.ExternalAuthorRecord{}, 0))

	require.NoError(t, f.svc.InvalidateSearchCache(ctx))

	_, err = f.svc.SearchAuthors(ctx, "King", false, ModeReadOnly)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.store.searchCalls.Load())
	assert.Equal(t, 2, f.cache.Len(), "popular snapshot must survive")
}

func TestSearchCacheKey(t *testing.T) {
	assert.Equal(t, "autores:search:García:external:false", SearchCacheKey("García", false))
	assert.Equal(t, "autores:search:Stephen King:external:true", SearchCacheKey("Stephen King", true))
}
