package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"bookreview-backend/internal/domains/author/model"
	"bookreview-backend/internal/domains/author/source"
	"bookreview-backend/internal/infrastructure/cache"
)

// =====================================================
// FAKE STORE
// =====================================================

type fakeStore struct {
	mu     sync.Mutex
	rows   []*model.Author
	nextID int64

	searchErr   error
	searchCalls atomic.Int32
	creates     atomic.Int32

	// createErr fails Create for the listed "given family" names
	createErr map[string]error
}

func newFakeStore(seed ...model.Author) *fakeStore {
	s := &fakeStore{}
	for _, a := range seed {
		a := a
		s.nextID++
		a.ID = s.nextID
		a.CreatedAt = time.Now()
		a.UpdatedAt = a.CreatedAt
		s.rows = append(s.rows, &a)
	}
	return s
}

func clone(a *model.Author) *model.Author {
	c := *a
	return &c
}

func (s *fakeStore) GetByID(_ context.Context, id int64) (*model.Author, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.ID == id {
			return clone(r), nil
		}
	}
	return nil, model.ErrAuthorNotFound
}

func (s *fakeStore) findByExternalID(source model.Source, id string) *model.Author {
	for _, r := range s.rows {
		if ext := r.ExternalID(source); ext != nil && *ext == id {
			return r
		}
	}
	return nil
}

func (s *fakeStore) findByName(given, family string) *model.Author {
	for _, r := range s.rows {
		if r.GivenName == given && r.FamilyName == family {
			return r
		}
	}
	return nil
}

func (s *fakeStore) FindByExternalID(_ context.Context, source model.Source, id string) (*model.Author, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.findByExternalID(source, id); r != nil {
		return clone(r), nil
	}
	return nil, nil
}

func (s *fakeStore) FindByName(_ context.Context, given, family string) (*model.Author, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.findByName(given, family); r != nil {
		return clone(r), nil
	}
	return nil, nil
}

func (s *fakeStore) SearchByNameSubstring(_ context.Context, term string, limit int) ([]*model.Author, error) {
	s.searchCalls.Add(1)
	if s.searchErr != nil {
		return nil, s.searchErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	term = strings.ToLower(term)
	out := make([]*model.Author, 0)
	for _, r := range s.rows {
		if len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(r.GivenName), term) || strings.Contains(strings.ToLower(r.FamilyName), term) {
			out = append(out, clone(r))
		}
	}
	return out, nil
}

func (s *fakeStore) Create(_ context.Context, a *model.Author) (*model.Author, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.createErr[a.FullName()]; err != nil {
		return nil, err
	}

	for _, src := range []model.Source{model.SourceOpenLibrary, model.SourceGoogleBooks} {
		if id := a.ExternalID(src); id != nil {
			if r := s.findByExternalID(src, *id); r != nil {
				return clone(r), nil
			}
		}
	}
	if r := s.findByName(a.GivenName, a.FamilyName); r != nil {
		return clone(r), nil
	}

	s.creates.Add(1)
	s.nextID++
	row := clone(a)
	row.ID = s.nextID
	row.CreatedAt = time.Now()
	row.UpdatedAt = row.CreatedAt
	s.rows = append(s.rows, row)
	return clone(row), nil
}

func (s *fakeStore) Update(_ context.Context, a *model.Author) (*model.Author, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.rows {
		if r.ID != a.ID {
			continue
		}
		for _, src := range []model.Source{model.SourceOpenLibrary, model.SourceGoogleBooks} {
			if id := a.ExternalID(src); id != nil && r.ExternalID(src) == nil {
				if other := s.findByExternalID(src, *id); other != nil && other.ID != r.ID {
					return nil, model.ErrDuplicateExtID
				}
				r.SetExternalID(src, *id)
			}
		}
		if r.Bio == nil {
			r.Bio = a.Bio
		}
		if r.PhotoURL == nil {
			r.PhotoURL = a.PhotoURL
		}
		r.UpdatedAt = time.Now()
		return clone(r), nil
	}
	return nil, model.ErrAuthorNotFound
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// =====================================================
// FAKE SOURCE
// =====================================================

type fakeSource struct {
	src     model.Source
	records []model.ExternalAuthorRecord
	err     error
	panics  bool
	byQuery map[string][]model.ExternalAuthorRecord
	calls   atomic.Int32

	// honorCtx makes Search fail once ctx is done, like the real adapter
	honorCtx bool
}

func (f *fakeSource) Source() model.Source { return f.src }

func (f *fakeSource) Search(ctx context.Context, query string, maxResults int) source.Result {
	f.calls.Add(1)
	if f.panics {
		panic("source exploded")
	}
	if f.honorCtx && ctx.Err() != nil {
		return source.Result{Source: f.src, Err: ctx.Err()}
	}
	if f.err != nil {
		return source.Result{Source: f.src, Err: f.err}
	}

	recs := f.records
	if f.byQuery != nil {
		recs = f.byQuery[query]
	}
	if len(recs) == 0 {
		return source.Result{Source: f.src, Err: source.ErrNoResults}
	}
	if maxResults > 0 && len(recs) > maxResults {
		recs = recs[:maxResults]
	}
	return source.Result{Source: f.src, Records: recs}
}

func rec(src model.Source, id, name string) model.ExternalAuthorRecord {
	return model.NewExternalRecord(src, id, name)
}

func strPtr(s string) *string { return &s }

type fixture struct {
	store *fakeStore
	cache *cache.MemoryCache
	a, b  *fakeSource
	svc   *authorService
}

func newFixture(store *fakeStore) *fixture {
	f := &fixture{
		store: store,
		// no janitor goroutine, keeps goleak quiet
		cache: cache.NewMemoryCache(0),
		a:     &fakeSource{src: model.SourceOpenLibrary},
		b:     &fakeSource{src: model.SourceGoogleBooks},
	}
	f.svc = NewAuthorService(f.store, f.cache, []source.Searcher{f.a, f.b}, DefaultConfig()).(*authorService)
	return f
}
