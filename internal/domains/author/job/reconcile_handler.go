package job

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"bookreview-backend/internal/domains/author/model"
	"bookreview-backend/internal/domains/author/service"
)

type ReconcileAuthorHandler struct {
	authorService service.ServiceInterface
}

func NewReconcileAuthorHandler(authorService service.ServiceInterface) *ReconcileAuthorHandler {
	return &ReconcileAuthorHandler{
		authorService: authorService,
	}
}

func (h *ReconcileAuthorHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ReconcileAuthorPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	author, err := h.authorService.Reconcile(ctx, payload.Record)
	if err != nil {
		// bad records never succeed on retry
		if errors.Is(err, model.ErrEmptyAuthorName) || errors.Is(err, model.ErrUnknownSource) {
			log.Warn().
				Err(err).
				Str("request_id", payload.RequestID).
				Str("source", string(payload.Record.Source)).
				Msg("Dropping unreconcilable author record")
			return fmt.Errorf("reconcile author: %w: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("reconcile author: %w", err)
	}

	log.Info().
		Int64("author_id", author.ID).
		Str("request_id", payload.RequestID).
		Str("source", string(payload.Record.Source)).
		Msg("Reconciled author")
	return nil
}
