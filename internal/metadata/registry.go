// Package metadata describes governed models: their fields, storage columns and
// nullability. Interceptors extend a definition with extra fields at setup time.
package metadata

import (
	"fmt"
)

// FieldType defines the data type of a field.
type FieldType string

const (
	TypeString   FieldType = "string"
	TypeInteger  FieldType = "integer"
	TypeNumber   FieldType = "number"
	TypeBoolean  FieldType = "boolean"
	TypeDateTime FieldType = "datetime"
	TypeUUID     FieldType = "uuid"
)

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool {
	switch t {
	case TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeDateTime, TypeUUID:
		return true
	}
	return false
}

// DefaultIDField is the identifier field name used when EntityDef.IDField is empty.
const DefaultIDField = "id"

// FieldDef describes a field and its storage column.
type FieldDef struct {
	Name     string    `json:"name" yaml:"name"`
	Column   string    `json:"column,omitempty" yaml:"column,omitempty"`
	Type     FieldType `json:"type" yaml:"type"`
	SQLType  string    `json:"sqlType,omitempty" yaml:"sqlType,omitempty"` // overrides the dialect mapping
	Nullable bool      `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Required bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Indexed  bool      `json:"indexed,omitempty" yaml:"indexed,omitempty"`
	Default  any       `json:"default,omitempty" yaml:"default,omitempty"`
}

// ColumnName returns the storage column, falling back to the field name.
func (f FieldDef) ColumnName() string {
	if f.Column != "" {
		return f.Column
	}
	return f.Name
}

// EntityDef describes a governed model.
type EntityDef struct {
	Name    string     `json:"name" yaml:"name"`
	Table   string     `json:"table,omitempty" yaml:"table,omitempty"`
	IDField string     `json:"idField,omitempty" yaml:"idField,omitempty"`
	Fields  []FieldDef `json:"fields" yaml:"fields"`
}

// TableName returns the storage table, falling back to the model name.
func (d *EntityDef) TableName() string {
	if d.Table != "" {
		return d.Table
	}
	return d.Name
}

// IDName returns the identifier field name.
func (d *EntityDef) IDName() string {
	if d.IDField != "" {
		return d.IDField
	}
	return DefaultIDField
}

// AddField declares a field; a field with the same name is replaced.
func (d *EntityDef) AddField(f FieldDef) {
	for i := range d.Fields {
		if d.Fields[i].Name == f.Name {
			d.Fields[i] = f
			return
		}
	}
	d.Fields = append(d.Fields, f)
}

// EnsureID declares the identifier field as a UUID primary key if missing.
func (d *EntityDef) EnsureID() {
	if _, ok := d.Field(d.IDName()); ok {
		return
	}
	idField := FieldDef{Name: d.IDName(), Type: TypeUUID, Required: true}
	d.Fields = append([]FieldDef{idField}, d.Fields...)
}

// Field looks up a field by name.
func (d *EntityDef) Field(name string) (FieldDef, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// FieldByColumn looks up a field by storage column.
func (d *EntityDef) FieldByColumn(column string) (FieldDef, bool) {
	for _, f := range d.Fields {
		if f.ColumnName() == column {
			return f, true
		}
	}
	return FieldDef{}, false
}

// ColumnFor maps a field name to its column. Unknown fields are an error so
// callers never build SQL from unchecked identifiers.
func (d *EntityDef) ColumnFor(field string) (string, error) {
	f, ok := d.Field(field)
	if !ok {
		return "", fmt.Errorf("unknown field %q on %s", field, d.Name)
	}
	return f.ColumnName(), nil
}

// Columns lists storage columns in declaration order.
func (d *EntityDef) Columns() []string {
	cols := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		cols = append(cols, f.ColumnName())
	}
	return cols
}

// Validate checks that the definition can be used by a store.
func (d *EntityDef) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("model name is required")
	}
	seenFields := make(map[string]struct{}, len(d.Fields))
	seenCols := make(map[string]struct{}, len(d.Fields))
	for _, f := range d.Fields {
		if f.Name == "" {
			return fmt.Errorf("%s: field name is required", d.Name)
		}
		if _, dup := seenFields[f.Name]; dup {
			return fmt.Errorf("%s: duplicate field %q", d.Name, f.Name)
		}
		if _, dup := seenCols[f.ColumnName()]; dup {
			return fmt.Errorf("%s: duplicate column %q", d.Name, f.ColumnName())
		}
		seenFields[f.Name] = struct{}{}
		seenCols[f.ColumnName()] = struct{}{}
	}
	if _, ok := d.Field(d.IDName()); !ok {
		return fmt.Errorf("%s: identifier field %q is not declared", d.Name, d.IDName())
	}
	return nil
}
