package job

import (
	"bookreview-backend/internal/domains/author/model"
)

// ReconcileAuthorPayload carries one external record to reconcile off the request path
type ReconcileAuthorPayload struct {
	Record    model.ExternalAuthorRecord `json:"record"`
	RequestID string                     `json:"request_id,omitempty"`
}

// RefreshPopularPayload selects which popular snapshot to rebuild. Zero means the default limit.
type RefreshPopularPayload struct {
	Limit int `json:"limit"`
}
