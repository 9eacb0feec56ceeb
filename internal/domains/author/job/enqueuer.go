package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/hibiken/asynq"

	"bookreview-backend/internal/domains/author/model"
	"bookreview-backend/internal/domains/author/source"
	"bookreview-backend/internal/shared"
)

// taskEnqueuer is the part of *asynq.Client the enqueuer needs
type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer schedules author tasks for the worker
type Enqueuer struct {
	client taskEnqueuer
}

func NewEnqueuer(client taskEnqueuer) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueReconcile queues rec for reconciliation. Records sharing source and
// folded name collapse into one pending task; a duplicate returns the
// pending task's id.
func (e *Enqueuer) EnqueueReconcile(ctx context.Context, rec model.ExternalAuthorRecord, requestID string) (string, error) {
	data, err := json.Marshal(ReconcileAuthorPayload{Record: rec, RequestID: requestID})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	taskID := ReconcileTaskID(rec)
	info, err := e.client.EnqueueContext(ctx,
		asynq.NewTask(shared.TypeReconcileAuthor, data),
		asynq.Queue(shared.QueueAuthor),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
		asynq.TaskID(taskID),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return taskID, nil
	}
	if err != nil {
		return "", fmt.Errorf("enqueue reconcile: %w", err)
	}
	return info.ID, nil
}

// EnqueueRefreshPopular queues an immediate rebuild of the popular snapshot
func (e *Enqueuer) EnqueueRefreshPopular(ctx context.Context, limit int) (string, error) {
	data, err := json.Marshal(RefreshPopularPayload{Limit: limit})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	info, err := e.client.EnqueueContext(ctx,
		asynq.NewTask(shared.TypeRefreshPopularAuthors, data),
		asynq.Queue(shared.QueueAuthor),
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
	)
	if err != nil {
		return "", fmt.Errorf("enqueue refresh popular: %w", err)
	}
	return info.ID, nil
}

// ReconcileTaskID derives a stable id from the record's source and folded name
func ReconcileTaskID(rec model.ExternalAuthorRecord) string {
	return "reconcile:" + string(rec.Source) + ":" + source.FoldName(rec.DisplayName())
}
