package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tombstone/internal/core/apperror"
	"tombstone/internal/domain/model"
	"tombstone/internal/infrastructure/http/v1/dto"
)

type MetadataHandler struct {
	*BaseHandler
	models     *model.Registry
	softDelete func(name string) bool
}

func NewMetadataHandler(base *BaseHandler, models *model.Registry, softDelete func(name string) bool) *MetadataHandler {
	return &MetadataHandler{
		BaseHandler: base,
		models:      models,
		softDelete:  softDelete,
	}
}

// ListModels returns the definitions of all registered models.
// GET /api/v1/meta
func (h *MetadataHandler) ListModels(c *gin.Context) {
	names := h.models.Names()
	out := make([]dto.ModelResponse, 0, len(names))
	for _, name := range names {
		m, _ := h.models.Get(name)
		out = append(out, h.describe(m))
	}
	c.JSON(http.StatusOK, out)
}

// GetModel returns the definition of one model.
// GET /api/v1/meta/:name
func (h *MetadataHandler) GetModel(c *gin.Context) {
	name := c.Param("name")
	m, ok := h.models.Get(name)
	if !ok {
		h.Error(c, apperror.NewNotFound("model", name))
		return
	}
	c.JSON(http.StatusOK, h.describe(m))
}

func (h *MetadataHandler) describe(m *model.Model) dto.ModelResponse {
	def := m.Def()
	return dto.ModelResponse{
		Name:       def.Name,
		IDField:    def.IDName(),
		SoftDelete: h.softDelete != nil && h.softDelete(def.Name),
		Fields:     def.Fields,
	}
}
