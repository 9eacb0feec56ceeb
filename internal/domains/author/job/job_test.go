package job

import (
	"context"
	"errors"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookreview-backend/internal/domains/author/model"
	"bookreview-backend/internal/domains/author/service"
	"bookreview-backend/internal/shared"
)

type stubService struct {
	service.ServiceInterface

	reconciled []model.ExternalAuthorRecord
	reconErr   error
	refreshed  []int
	found      int
	refreshErr error
}

func (s *stubService) Reconcile(_ context.Context, rec model.ExternalAuthorRecord) (*model.Author, error) {
	s.reconciled = append(s.reconciled, rec)
	if s.reconErr != nil {
		return nil, s.reconErr
	}
	return &model.Author{ID: 1, GivenName: rec.GivenName, FamilyName: rec.FamilyName}, nil
}

func (s *stubService) RefreshPopularAuthors(_ context.Context, limit int) (int, error) {
	s.refreshed = append(s.refreshed, limit)
	return s.found, s.refreshErr
}

type fakeClient struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (f *fakeClient) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)
	return &asynq.TaskInfo{ID: "task-1", Queue: shared.QueueAuthor, Type: task.Type()}, nil
}

func TestReconcileAuthorHandler(t *testing.T) {
	svc := &stubService{}
	h := NewReconcileAuthorHandler(svc)

	rec := model.NewExternalRecord(model.SourceOpenLibrary, "OL1A", "Stephen King")
	data, err := json.Marshal(ReconcileAuthorPayload{Record: rec})
	require.NoError(t, err)

	require.NoError(t, h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeReconcileAuthor, data)))
	require.Len(t, svc.reconciled, 1)
	assert.Equal(t, "King", svc.reconciled[0].FamilyName)
	assert.Equal(t, "OL1A", svc.reconciled[0].SourceID)
}

func TestReconcileAuthorHandler_Errors(t *testing.T) {
	ctx := context.Background()

	err := NewReconcileAuthorHandler(&stubService{}).ProcessTask(ctx, asynq.NewTask(shared.TypeReconcileAuthor, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	data, _ := json.Marshal(ReconcileAuthorPayload{Record: model.ExternalAuthorRecord{Source: "goodreads"}})

	svc := &stubService{reconErr: model.ErrUnknownSource}
	err = NewReconcileAuthorHandler(svc).ProcessTask(ctx, asynq.NewTask(shared.TypeReconcileAuthor, data))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	svc = &stubService{reconErr: errors.New("connection reset")}
	err = NewReconcileAuthorHandler(svc).ProcessTask(ctx, asynq.NewTask(shared.TypeReconcileAuthor, data))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestRefreshPopularHandler(t *testing.T) {
	ctx := context.Background()

	svc := &stubService{found: 10}
	h := NewRefreshPopularHandler(svc)
	require.NoError(t, h.ProcessTask(ctx, asynq.NewTask(shared.TypeRefreshPopularAuthors, nil)))

	data, _ := json.Marshal(RefreshPopularPayload{Limit: 5})
	require.NoError(t, h.ProcessTask(ctx, asynq.NewTask(shared.TypeRefreshPopularAuthors, data)))
	assert.Equal(t, []int{0, 5}, svc.refreshed)

	svc.found = 0
	assert.Error(t, h.ProcessTask(ctx, asynq.NewTask(shared.TypeRefreshPopularAuthors, nil)))
}

func TestEnqueuer(t *testing.T) {
	client := &fakeClient{}
	e := NewEnqueuer(client)
	ctx := context.Background()

	rec := model.NewExternalRecord(model.SourceGoogleBooks, "isabel allende", "Isabel Allende")
	id, err := e.EnqueueReconcile(ctx, rec, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "task-1", id)

	require.Len(t, client.tasks, 1)
	assert.Equal(t, shared.TypeReconcileAuthor, client.tasks[0].Type())

	var payload ReconcileAuthorPayload
	require.NoError(t, json.Unmarshal(client.tasks[0].Payload(), &payload))
	assert.Equal(t, "req-1", payload.RequestID)
	assert.Equal(t, "Isabel", payload.Record.GivenName)

	_, err = e.EnqueueRefreshPopular(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, shared.TypeRefreshPopularAuthors, client.tasks[1].Type())
}

func TestEnqueuer_DuplicateReconcile(t *testing.T) {
	rec := model.NewExternalRecord(model.SourceOpenLibrary, "OL1A", "Stephen King")
	e := NewEnqueuer(&fakeClient{err: asynq.ErrTaskIDConflict})

	id, err := e.EnqueueReconcile(context.Background(), rec, "")
	require.NoError(t, err)
	assert.Equal(t, ReconcileTaskID(rec), id)

	e = NewEnqueuer(&fakeClient{err: errors.New("redis down")})
	_, err = e.EnqueueReconcile(context.Background(), rec, "")
	assert.Error(t, err)
}

func TestReconcileTaskID(t *testing.T) {
	a := model.NewExternalRecord(model.SourceOpenLibrary, "OL1A", "Stephen King")
	b := model.NewExternalRecord(model.SourceOpenLibrary, "OL9A", "STEPHEN  KING")
	c := model.NewExternalRecord(model.SourceGoogleBooks, "stephen king", "Stephen King")

	assert.Equal(t, ReconcileTaskID(a), ReconcileTaskID(b))
	assert.NotEqual(t, ReconcileTaskID(a), ReconcileTaskID(c))
}
