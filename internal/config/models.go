package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tombstone/internal/domain/softdelete"
	"tombstone/internal/metadata"
)

// ModelsFile is the document stored in MODELS_FILE:
//
//	models:
//	  - name: book
//	    table: books
//	    fields:
//	      - {name: title, type: string, required: true}
//	    softDelete:
//	      enabled: true
//	      identifierBypass: false
type ModelsFile struct {
	Models []ModelSpec `yaml:"models"`
}

// ModelSpec is one model definition with its soft-delete settings.
type ModelSpec struct {
	metadata.EntityDef `yaml:",inline"`

	SoftDelete *SoftDeleteSpec `yaml:"softDelete,omitempty"`
}

// SoftDeleteSpec overrides softdelete.DefaultOptions. Unset switches keep the default.
type SoftDeleteSpec struct {
	Enabled             *bool  `yaml:"enabled,omitempty"`
	DeletedAtField      string `yaml:"deletedAtField,omitempty"`
	IsDeletedField      string `yaml:"isDeletedField,omitempty"`
	DeletedAtColumn     string `yaml:"deletedAtColumn,omitempty"`
	IsDeletedColumn     string `yaml:"isDeletedColumn,omitempty"`
	GuardAlreadyDeleted *bool  `yaml:"guardAlreadyDeleted,omitempty"`
	IdentifierBypass    *bool  `yaml:"identifierBypass,omitempty"`
}

// SoftDeleteOptions returns the effective options and whether soft delete is
// enabled. A model without a softDelete section is soft-deletable with defaults.
func (s ModelSpec) SoftDeleteOptions() (softdelete.Options, bool) {
	opts := softdelete.DefaultOptions()
	sd := s.SoftDelete
	if sd == nil {
		return opts, true
	}
	if sd.Enabled != nil && !*sd.Enabled {
		return opts, false
	}

	if sd.DeletedAtField != "" {
		opts.DeletedAtField = sd.DeletedAtField
	}
	if sd.IsDeletedField != "" {
		opts.IsDeletedField = sd.IsDeletedField
	}
	if sd.DeletedAtColumn != "" {
		opts.DeletedAtColumn = sd.DeletedAtColumn
	}
	if sd.IsDeletedColumn != "" {
		opts.IsDeletedColumn = sd.IsDeletedColumn
	}
	if sd.GuardAlreadyDeleted != nil {
		opts.GuardAlreadyDeleted = *sd.GuardAlreadyDeleted
	}
	if sd.IdentifierBypass != nil {
		opts.IdentifierBypass = *sd.IdentifierBypass
	}
	return opts, true
}

// LoadModels reads and validates a models file.
func LoadModels(path string) ([]ModelSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read models file: %w", err)
	}
	return ParseModels(data)
}

// ParseModels decodes and validates a models document. Fields without a type
// are strings.
func ParseModels(data []byte) ([]ModelSpec, error) {
	var file ModelsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse models file: %w", err)
	}
	if len(file.Models) == 0 {
		return nil, fmt.Errorf("models file declares no models")
	}

	seen := make(map[string]struct{}, len(file.Models))
	for i := range file.Models {
		spec := &file.Models[i]
		if spec.Name == "" {
			return nil, fmt.Errorf("model #%d: name is required", i+1)
		}
		if _, dup := seen[spec.Name]; dup {
			return nil, fmt.Errorf("model %s declared twice", spec.Name)
		}
		seen[spec.Name] = struct{}{}

		for j := range spec.Fields {
			f := &spec.Fields[j]
			if f.Type == "" {
				f.Type = metadata.TypeString
			}
			if !f.Type.Valid() {
				return nil, fmt.Errorf("model %s: field %s has unknown type %q", spec.Name, f.Name, f.Type)
			}
		}
	}
	return file.Models, nil
}
