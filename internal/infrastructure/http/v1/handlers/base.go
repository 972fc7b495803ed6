package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"tombstone/internal/core/apperror"
	"tombstone/internal/domain/filter"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindRecord reads the request body as a JSON object.
func (h *BaseHandler) BindRecord(c *gin.Context) (map[string]any, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return nil, false
	}
	rec, err := filter.DecodeRecord(body)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return rec, true
}

// BindQuery decodes the optional ?filter= parameter.
func (h *BaseHandler) BindQuery(c *gin.Context) (*filter.Query, bool) {
	raw := c.Query("filter")
	if raw == "" {
		return &filter.Query{}, true
	}
	q, err := filter.ParseQuery([]byte(raw))
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return q, true
}

// BindWhere decodes the ?where= parameter. A missing parameter is an error;
// "{}" selects every record.
func (h *BaseHandler) BindWhere(c *gin.Context) (*filter.Where, bool) {
	raw, ok := c.GetQuery("where")
	if !ok || raw == "" {
		h.Error(c, apperror.NewValidation("where parameter is required").WithDetail("hint", `use where={} to match all records`))
		return nil, false
	}
	w, err := filter.ParseWhere([]byte(raw))
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return w, true
}

// Error processes error and sends appropriate response.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	h.HandleError(c, err)
}

// HandleError registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// Created sends 201 response with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}
