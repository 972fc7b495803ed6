// Package softdelete turns deletes into updates that mark records as deleted and
// hides marked records from reads unless the caller opts in.
//
// A Mixin is attached to a model at construction time:
//
//	mx := softdelete.New(softdelete.DefaultOptions())
//	books, err := model.New(def, store, mx.Option())
//
// After that every delete-family call on books stamps deletedAt/isDeleted
// instead of removing rows, and every read-family call excludes stamped
// records unless the query sets IncludeDeleted, mentions isDeleted itself or
// (with IdentifierBypass) targets an identifier directly.
package softdelete

import (
	"context"
	"fmt"

	"tombstone/internal/core/apperror"
	"tombstone/internal/domain/model"
	"tombstone/internal/metadata"
)

// Mixin holds the soft-delete configuration shared by the interceptors.
// It has no mutable state and may be attached to any number of models.
type Mixin struct {
	opts Options
}

// New creates a mixin. Empty names and a nil clock take their defaults.
func New(opts Options) *Mixin {
	return &Mixin{opts: opts.withDefaults()}
}

// Options returns the effective configuration.
func (mx *Mixin) Options() Options {
	return mx.opts
}

// Fields returns the two fields layered onto the model schema.
func (mx *Mixin) Fields() []metadata.FieldDef {
	return []metadata.FieldDef{
		{
			Name:     mx.opts.DeletedAtField,
			Column:   mx.opts.DeletedAtColumn,
			Type:     metadata.TypeDateTime,
			Nullable: true,
		},
		{
			Name:     mx.opts.IsDeletedField,
			Column:   mx.opts.IsDeletedColumn,
			Type:     metadata.TypeBoolean,
			Required: true,
			Default:  false,
			Indexed:  true,
		},
	}
}

// Option declares the fields and installs the interceptors, in this order:
// field guard (save), read filter (access), delete rewriter (delete).
func (mx *Mixin) Option() model.Option {
	return model.WithOptions(
		model.WithFields(mx.Fields()...),
		model.WithSaveHook(mx.guardFields),
		model.WithAccessHook(mx.filterReads),
		model.WithDeleteHook(mx.rewriteDelete),
	)
}

// guardFields keeps callers from writing the soft-delete pair through normal
// creates and updates.
func (mx *Mixin) guardFields(_ context.Context, sc *model.SaveContext) error {
	switch sc.Op {
	case model.OpCreate:
		if v, ok := sc.Data[mx.opts.IsDeletedField]; ok && v != false {
			return apperror.NewManagedField(sc.Model.Name(), mx.opts.IsDeletedField).WithDetail("operation", string(sc.Op))
		}
		if sc.Data[mx.opts.DeletedAtField] != nil {
			return apperror.NewManagedField(sc.Model.Name(), mx.opts.DeletedAtField).WithDetail("operation", string(sc.Op))
		}
		sc.Data[mx.opts.IsDeletedField] = false
		sc.Data[mx.opts.DeletedAtField] = nil
	case model.OpUpdate:
		for _, f := range []string{mx.opts.IsDeletedField, mx.opts.DeletedAtField} {
			if sc.Data.Has(f) {
				return apperror.NewManagedField(sc.Model.Name(), f).WithDetail("operation", string(sc.Op))
			}
		}
	}
	return nil
}

// For binds the named entry points to a model carrying the soft-delete fields.
func (mx *Mixin) For(m *model.Model) (*SoftDeleter, error) {
	def := m.Def()
	for _, name := range []string{mx.opts.DeletedAtField, mx.opts.IsDeletedField} {
		if _, ok := def.Field(name); !ok {
			return nil, fmt.Errorf("model %s has no %s field; attach the soft-delete option first", m.Name(), name)
		}
	}
	return &SoftDeleter{mixin: mx, model: m}, nil
}
