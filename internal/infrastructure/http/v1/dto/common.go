// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"tombstone/internal/core/entity"
	"tombstone/internal/metadata"
)

// --- List Response ---

// ListResponse wraps list results with the paging that produced them.
type ListResponse struct {
	Items  []entity.Record `json:"items"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// NewListResponse never renders a null item list.
func NewListResponse(items []entity.Record, limit, offset int) ListResponse {
	if items == nil {
		items = []entity.Record{}
	}
	return ListResponse{Items: items, Limit: limit, Offset: offset}
}

// --- Count Response ---

// CountResponse reports how many records a count or bulk operation touched.
type CountResponse struct {
	Count int64 `json:"count"`
}

// --- Model Response ---

// ModelResponse describes a registered model.
type ModelResponse struct {
	Name       string              `json:"name"`
	IDField    string              `json:"idField"`
	SoftDelete bool                `json:"softDelete"`
	Fields     []metadata.FieldDef `json:"fields"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
