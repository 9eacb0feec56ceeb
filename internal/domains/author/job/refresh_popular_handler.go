package job

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/hibiken/asynq"

	"bookreview-backend/internal/domains/author/service"
)

type RefreshPopularHandler struct {
	authorService service.ServiceInterface
}

func NewRefreshPopularHandler(authorService service.ServiceInterface) *RefreshPopularHandler {
	return &RefreshPopularHandler{
		authorService: authorService,
	}
}

func (h *RefreshPopularHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload RefreshPopularPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
		}
	}

	n, err := h.authorService.RefreshPopularAuthors(ctx, payload.Limit)
	if err != nil {
		return fmt.Errorf("refresh popular authors: %w", err)
	}
	if n == 0 {
		// every source failed; let asynq retry with backoff
		return fmt.Errorf("refresh popular authors: no source returned results")
	}
	return nil
}
