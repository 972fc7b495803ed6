// Package bootstrap assembles governed models and their storage from
// configuration. It is shared by the server and the migration CLI.
package bootstrap

import (
	"fmt"

	"tombstone/internal/config"
	"tombstone/internal/core/id"
	"tombstone/internal/domain/model"
	"tombstone/internal/domain/softdelete"
	"tombstone/internal/metadata"
)

// Book is the model served when no models file is configured.
type Book struct {
	ID     id.ID   `json:"id" db:"id"`
	Title  string  `json:"title" db:"title" binding:"required"`
	Author *string `json:"author" db:"author"`
	Pages  int64   `json:"pages" db:"pages"`
}

// DefaultModels returns the built-in book model with default soft delete.
func DefaultModels() []config.ModelSpec {
	return []config.ModelSpec{{EntityDef: metadata.Inspect(Book{}, "book")}}
}

// LoadModels reads path, or returns DefaultModels when path is empty.
func LoadModels(path string) ([]config.ModelSpec, error) {
	if path == "" {
		return DefaultModels(), nil
	}
	return config.LoadModels(path)
}

// Models is the assembled model set.
type Models struct {
	Registry     *model.Registry
	SoftDeleters map[string]*softdelete.SoftDeleter
}

// BuildModels creates one model per ModelSpec on store, attaching the soft-delete
// mixin where enabled.
func BuildModels(specs []config.ModelSpec, store model.Store) (*Models, error) {
	out := &Models{
		Registry:     model.NewRegistry(),
		SoftDeleters: make(map[string]*softdelete.SoftDeleter),
	}

	for _, spec := range specs {
		opts, enabled := spec.SoftDeleteOptions()

		var mx *softdelete.Mixin
		var modelOpts []model.Option
		if enabled {
			mx = softdelete.New(opts)
			modelOpts = append(modelOpts, mx.Option())
		}

		m, err := model.New(spec.EntityDef, store, modelOpts...)
		if err != nil {
			return nil, err
		}
		if err := out.Registry.Register(m); err != nil {
			return nil, err
		}

		if mx != nil {
			sd, err := mx.For(m)
			if err != nil {
				return nil, fmt.Errorf("bind soft delete: %w", err)
			}
			out.SoftDeleters[m.Name()] = sd
		}
	}
	return out, nil
}

// Defs returns the effective definitions, soft-delete fields included, in
// model name order.
func (m *Models) Defs() []*metadata.EntityDef {
	names := m.Registry.Names()
	defs := make([]*metadata.EntityDef, 0, len(names))
	for _, name := range names {
		mod, _ := m.Registry.Get(name)
		def := mod.Def()
		defs = append(defs, &def)
	}
	return defs
}
