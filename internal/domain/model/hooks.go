package model

import (
	"context"

	"tombstone/internal/core/entity"
	"tombstone/internal/domain/filter"
)

// Operation identifies the model call an interceptor is running for.
type Operation string

const (
	// read family
	OpFind     Operation = "find"
	OpFindOne  Operation = "find_one"
	OpFindByID Operation = "find_by_id"
	OpCount    Operation = "count"
	OpExists   Operation = "exists"

	// save family
	OpCreate Operation = "create"
	OpUpdate Operation = "update"

	// delete family
	OpDeleteAll  Operation = "delete_all"
	OpDeleteByID Operation = "delete_by_id"
	OpDestroy    Operation = "destroy"
)

// IsRead reports whether op belongs to the read family.
func (op Operation) IsRead() bool {
	switch op {
	case OpFind, OpFindOne, OpFindByID, OpCount, OpExists:
		return true
	}
	return false
}

// IsDelete reports whether op belongs to the delete family.
func (op Operation) IsDelete() bool {
	switch op {
	case OpDeleteAll, OpDeleteByID, OpDestroy:
		return true
	}
	return false
}

// AccessContext is handed to access hooks before a read reaches the store.
// Hooks may mutate Query in place.
type AccessContext struct {
	Model *Model
	Op    Operation
	Query *filter.Query
}

// DeleteContext is handed to delete hooks before a delete reaches the store.
// A hook that performs the delete itself sets Handled and Result; the
// remaining hooks and the physical delete are then skipped.
type DeleteContext struct {
	Model *Model
	Op    Operation
	Where *filter.Where

	Handled bool
	Result  int64
}

// SaveContext is handed to save hooks before a create or update.
// For OpCreate Where is nil and Data is the full record; for OpUpdate Data is the patch.
type SaveContext struct {
	Model *Model
	Op    Operation
	Where *filter.Where
	Data  entity.Record
}

// AccessHook runs before every read-family operation.
type AccessHook func(ctx context.Context, ac *AccessContext) error

// DeleteHook runs before every delete-family operation.
type DeleteHook func(ctx context.Context, dc *DeleteContext) error

// SaveHook runs before every save-family operation.
type SaveHook func(ctx context.Context, sc *SaveContext) error

// chain holds the ordered interceptors of one model.
// It is populated by options during New and never modified afterwards.
type chain struct {
	access []AccessHook
	delete []DeleteHook
	save   []SaveHook
}

func (c *chain) runAccess(ctx context.Context, ac *AccessContext) error {
	for _, hook := range c.access {
		if err := hook(ctx, ac); err != nil {
			return err
		}
	}
	return nil
}

func (c *chain) runDelete(ctx context.Context, dc *DeleteContext) error {
	for _, hook := range c.delete {
		if err := hook(ctx, dc); err != nil {
			return err
		}
		if dc.Handled {
			return nil
		}
	}
	return nil
}

func (c *chain) runSave(ctx context.Context, sc *SaveContext) error {
	for _, hook := range c.save {
		if err := hook(ctx, sc); err != nil {
			return err
		}
	}
	return nil
}
