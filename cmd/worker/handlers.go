package main

import (
	"github.com/hibiken/asynq"

	authorJob "bookreview-backend/internal/domains/author/job"
	"bookreview-backend/internal/shared"
	"bookreview-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	reconcileAuthor *authorJob.ReconcileAuthorHandler
	refreshPopular  *authorJob.RefreshPopularHandler
}

func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		reconcileAuthor: authorJob.NewReconcileAuthorHandler(c.AuthorService),
		refreshPopular:  authorJob.NewRefreshPopularHandler(c.AuthorService),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeReconcileAuthor, h.reconcileAuthor.ProcessTask)
	mux.HandleFunc(shared.TypeRefreshPopularAuthors, h.refreshPopular.ProcessTask)
}
