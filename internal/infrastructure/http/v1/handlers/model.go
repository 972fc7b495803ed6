package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"tombstone/internal/core/apperror"
	"tombstone/internal/core/entity"
	"tombstone/internal/domain/filter"
	"tombstone/internal/domain/model"
	"tombstone/internal/domain/softdelete"
	"tombstone/internal/infrastructure/http/v1/dto"
)

// ModelHandler serves the REST surface of every registered model.
// The model is taken from the :model path parameter.
type ModelHandler struct {
	*BaseHandler
	models   *model.Registry
	deleters map[string]*softdelete.SoftDeleter
}

// NewModelHandler creates a model handler. deleters holds the soft-delete
// entry points of the models that carry the mixin.
func NewModelHandler(base *BaseHandler, models *model.Registry, deleters map[string]*softdelete.SoftDeleter) *ModelHandler {
	if deleters == nil {
		deleters = map[string]*softdelete.SoftDeleter{}
	}
	return &ModelHandler{BaseHandler: base, models: models, deleters: deleters}
}

// SoftDelete reports whether the named model has soft delete attached.
func (h *ModelHandler) SoftDelete(name string) bool {
	_, ok := h.deleters[name]
	return ok
}

func (h *ModelHandler) model(c *gin.Context) (*model.Model, bool) {
	name := c.Param("model")
	m, ok := h.models.Get(name)
	if !ok {
		h.Error(c, apperror.NewNotFound("model", name))
		return nil, false
	}
	return m, true
}

// List returns matching records.
// GET /api/v1/:model?filter=
func (h *ModelHandler) List(c *gin.Context) {
	m, ok := h.model(c)
	if !ok {
		return
	}
	q, ok := h.BindQuery(c)
	if !ok {
		return
	}

	recs, err := m.Find(c.Request.Context(), q)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(recs, q.Limit, q.Offset))
}

// Count returns the number of matching records.
// GET /api/v1/:model/count?filter=
func (h *ModelHandler) Count(c *gin.Context) {
	m, ok := h.model(c)
	if !ok {
		return
	}
	q, ok := h.BindQuery(c)
	if !ok {
		return
	}

	n, err := m.Count(c.Request.Context(), q)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.CountResponse{Count: n})
}

// Get returns one record by identifier.
// GET /api/v1/:model/:id?filter=
func (h *ModelHandler) Get(c *gin.Context) {
	m, ok := h.model(c)
	if !ok {
		return
	}
	q, ok := h.BindQuery(c)
	if !ok {
		return
	}

	rec, err := m.FindByID(c.Request.Context(), c.Param("id"), q)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rec)
}

// Create inserts a record.
// POST /api/v1/:model
func (h *ModelHandler) Create(c *gin.Context) {
	m, ok := h.model(c)
	if !ok {
		return
	}
	body, ok := h.BindRecord(c)
	if !ok {
		return
	}

	rec, err := m.Create(c.Request.Context(), entity.Record(body))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, rec)
}

// Update patches one record and returns its new state.
// PATCH /api/v1/:model/:id
func (h *ModelHandler) Update(c *gin.Context) {
	m, ok := h.model(c)
	if !ok {
		return
	}
	body, ok := h.BindRecord(c)
	if !ok {
		return
	}

	var rec entity.Record
	err := m.RunInTransaction(c.Request.Context(), func(ctx context.Context) error {
		n, err := m.UpdateAll(ctx, filter.Eq(m.IDField(), c.Param("id")), entity.Record(body))
		if err != nil {
			return err
		}
		if n == 0 {
			return apperror.NewNotFound(m.Name(), c.Param("id"))
		}
		rec, err = m.FindByID(ctx, c.Param("id"), nil)
		return err
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rec)
}

// Delete deletes one record by identifier. On soft-delete models the record
// is stamped, not removed.
// DELETE /api/v1/:model/:id
func (h *ModelHandler) Delete(c *gin.Context) {
	m, ok := h.model(c)
	if !ok {
		return
	}

	n, err := m.DeleteByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.CountResponse{Count: n})
}

// DeleteAll deletes matching records.
// DELETE /api/v1/:model?where=
func (h *ModelHandler) DeleteAll(c *gin.Context) {
	m, ok := h.model(c)
	if !ok {
		return
	}
	where, ok := h.BindWhere(c)
	if !ok {
		return
	}

	n, err := m.DeleteAll(c.Request.Context(), where)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.CountResponse{Count: n})
}

// Restore clears the soft-delete mark of one record and returns it.
// POST /api/v1/:model/:id/restore
func (h *ModelHandler) Restore(c *gin.Context) {
	m, ok := h.model(c)
	if !ok {
		return
	}
	sd, ok := h.deleters[m.Name()]
	if !ok {
		h.Error(c, apperror.NewValidation("model has no soft delete").WithDetail("model", m.Name()))
		return
	}

	var rec entity.Record
	err := m.RunInTransaction(c.Request.Context(), func(ctx context.Context) error {
		n, err := sd.RestoreByID(ctx, c.Param("id"))
		if err != nil {
			return err
		}
		if n == 0 {
			return apperror.NewNotFound(m.Name(), c.Param("id")).WithDetail("reason", "no deleted record with this id")
		}
		rec, err = m.FindByID(ctx, c.Param("id"), nil)
		return err
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rec)
}
