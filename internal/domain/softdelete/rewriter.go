package softdelete

import (
	"context"
	"fmt"

	"tombstone/internal/core/entity"
	"tombstone/internal/domain/filter"
	"tombstone/internal/domain/model"
	"tombstone/pkg/logger"
)

// rewriteDelete substitutes the update for the physical delete and marks the
// delete as handled so the store never sees it.
func (mx *Mixin) rewriteDelete(ctx context.Context, dc *model.DeleteContext) error {
	n, err := mx.markDeleted(ctx, dc.Model, dc.Where)
	if err != nil {
		return err
	}
	dc.Handled = true
	dc.Result = n
	return nil
}

// markDeleted stamps every record matched by selector. With GuardAlreadyDeleted
// the update target is "selector AND isDeleted = false".
func (mx *Mixin) markDeleted(ctx context.Context, m *model.Model, selector *filter.Where) (int64, error) {
	target := selector
	if mx.opts.GuardAlreadyDeleted {
		target = filter.All(selector, filter.Eq(mx.opts.IsDeletedField, false))
	}

	patch := entity.Deleted(mx.opts.Now().UTC(), mx.opts.DeletedAtField, mx.opts.IsDeletedField)
	n, err := m.RawUpdateAll(ctx, target, patch)
	if err != nil {
		return 0, fmt.Errorf("soft delete %s: %w", m.Name(), err)
	}

	logger.Debug(ctx, "soft delete rewrite", "affected", n, "guarded", mx.opts.GuardAlreadyDeleted)
	return n, nil
}

// SoftDeleter exposes the named entry points of a model. They perform the same
// substitution as the delete hook without going through the interceptor chain.
type SoftDeleter struct {
	mixin *Mixin
	model *model.Model
}

// DeleteByID soft-deletes the record with the given identifier.
func (s *SoftDeleter) DeleteByID(ctx context.Context, recID any) (int64, error) {
	return s.mixin.markDeleted(ctx, s.model, filter.Eq(s.model.IDField(), recID))
}

// DestroyByID is an alias of DeleteByID.
func (s *SoftDeleter) DestroyByID(ctx context.Context, recID any) (int64, error) {
	return s.DeleteByID(ctx, recID)
}

// Restore clears the soft-delete pair on matching deleted records.
func (s *SoftDeleter) Restore(ctx context.Context, where *filter.Where) (int64, error) {
	opts := s.mixin.opts
	target := filter.All(where, filter.Eq(opts.IsDeletedField, true))

	n, err := s.model.RawUpdateAll(ctx, target, entity.Restored(opts.DeletedAtField, opts.IsDeletedField))
	if err != nil {
		return 0, fmt.Errorf("restore %s: %w", s.model.Name(), err)
	}

	logger.Debug(ctx, "soft delete restore", "affected", n)
	return n, nil
}

// RestoreByID restores the record with the given identifier.
func (s *SoftDeleter) RestoreByID(ctx context.Context, recID any) (int64, error) {
	return s.Restore(ctx, filter.Eq(s.model.IDField(), recID))
}
