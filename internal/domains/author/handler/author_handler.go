package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"bookreview-backend/internal/domains/author/model"
	"bookreview-backend/internal/domains/author/service"
	"bookreview-backend/internal/shared/response"
)

// ReconcileEnqueuer hands reconciliation to the background worker
type ReconcileEnqueuer interface {
	EnqueueReconcile(ctx context.Context, rec model.ExternalAuthorRecord, requestID string) (string, error)
}

type AuthorHandler struct {
	service  service.ServiceInterface
	enqueuer ReconcileEnqueuer
}

func NewAuthorHandler(svc service.ServiceInterface) *AuthorHandler {
	return &AuthorHandler{
		service: svc,
	}
}

// WithEnqueuer enables POST /authors/reconcile/async
func (h *AuthorHandler) WithEnqueuer(e ReconcileEnqueuer) *AuthorHandler {
	h.enqueuer = e
	return h
}

// ════════════════════════════════════════════════════════════════
// SEARCH (read-only): GET /v1/authors/search?q=&external=true
// ════════════════════════════════════════════════════════════════

func (h *AuthorHandler) Search(c *gin.Context) {
	includeExternal, err := strconv.ParseBool(c.DefaultQuery("external", "false"))
	if err != nil {
		response.BadRequest(c, "external must be true or false")
		return
	}

	// a missing q reaches the validator as "" and fails with TOO_SHORT
	h.search(c, c.Query("q"), includeExternal, service.ModeReadOnly)
}

// ════════════════════════════════════════════════════════════════
// SEARCH (persist): POST /v1/authors/search
// ════════════════════════════════════════════════════════════════

func (h *AuthorHandler) SearchAndPersist(c *gin.Context) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	h.search(c, req.Query, req.IncludeExternal, service.ModePersist)
}

func (h *AuthorHandler) search(c *gin.Context, query any, includeExternal bool, mode service.Mode) {
	views, err := h.service.SearchAuthors(c.Request.Context(), query, includeExternal, mode)
	if err != nil {
		h.fail(c, err)
		return
	}

	q, _ := query.(string)
	response.Success(c, http.StatusOK, model.SearchResponse{
		Query:   strings.TrimSpace(q),
		Authors: views,
		Total:   len(views),
	})
}

// ════════════════════════════════════════════════════════════════
// RECONCILE: POST /v1/authors/reconcile
// ════════════════════════════════════════════════════════════════

func (h *AuthorHandler) Reconcile(c *gin.Context) {
	var req model.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, model.ErrCodeInvalidRecord, "invalid author record", err)
		return
	}

	author, err := h.service.Reconcile(c.Request.Context(), req.ToRecord())
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, author.ToResponse(h.service.Score(author)))
}

// ════════════════════════════════════════════════════════════════
// RECONCILE (async): POST /v1/authors/reconcile/async
// ════════════════════════════════════════════════════════════════

func (h *AuthorHandler) ReconcileAsync(c *gin.Context) {
	if h.enqueuer == nil {
		response.ErrorResponse(c, http.StatusServiceUnavailable, model.ErrCodeInternal, "async reconciliation is disabled")
		return
	}

	var req model.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, model.ErrCodeInvalidRecord, "invalid author record", err)
		return
	}

	taskID, err := h.enqueuer.EnqueueReconcile(c.Request.Context(), req.ToRecord(), c.GetString("request_id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"task_id": taskID})
}

// ════════════════════════════════════════════════════════════════
// POPULAR: GET /v1/authors/popular?limit=10
// ════════════════════════════════════════════════════════════════

func (h *AuthorHandler) Popular(c *gin.Context) {
	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil {
			response.BadRequest(c, "limit must be an integer")
			return
		}
		limit = l
	}

	authors, err := h.service.GetPopularAuthors(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, model.PopularAuthorsResponse{
		Authors: authors,
		Total:   len(authors),
	})
}

// ════════════════════════════════════════════════════════════════
// READ: GET /v1/authors/:id
// ════════════════════════════════════════════════════════════════

func (h *AuthorHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid author id")
		return
	}

	author, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, author.ToResponse(h.service.Score(author)))
}

// ════════════════════════════════════════════════════════════════
// ADMIN: DELETE /v1/admin/authors/search-cache
// ════════════════════════════════════════════════════════════════

func (h *AuthorHandler) InvalidateSearchCache(c *gin.Context) {
	if err := h.service.InvalidateSearchCache(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AuthorHandler) fail(c *gin.Context, err error) {
	status := model.ToHTTPStatus(err)
	code := model.ToErrorCode(err)

	message := err.Error()
	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("path", c.FullPath()).
			Msg("author request failed")
		message = "internal server error"
	}

	response.ErrorResponse(c, status, code, message)
}
