package metadata

import (
	"reflect"
	"strings"
	"time"
	"unicode"

	"tombstone/internal/core/id"
)

// Inspect analyzes a struct and returns its EntityDef.
// Field names come from json tags, columns from db tags.
func Inspect(entity interface{}, name string) EntityDef {
	t := reflect.TypeOf(entity)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if name == "" {
		name = strings.ToLower(t.Name())
	}

	def := EntityDef{
		Name:   name,
		Table:  name,
		Fields: make([]FieldDef, 0),
	}

	inspectStruct(t, &def)

	return def
}

func inspectStruct(t reflect.Type, def *EntityDef) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.PkgPath != "" { // unexported
			continue
		}

		// Handle embedded structs (flattening)
		if field.Anonymous {
			inspectStruct(field.Type, def)
			continue
		}

		fDef := FieldDef{
			Name:     jsonName(field),
			Column:   dbName(field),
			Required: isRequired(field),
		}
		if fDef.Name == "-" || fDef.Column == "-" {
			continue
		}

		mapFieldType(&fDef, field)
		def.AddField(fDef)
	}
}

func mapFieldType(def *FieldDef, field reflect.StructField) {
	t := field.Type
	if t.Kind() == reflect.Ptr {
		def.Nullable = true
		t = t.Elem()
	}

	if t == reflect.TypeOf(id.ID{}) {
		def.Type = TypeUUID
		return
	}

	if t == reflect.TypeOf(time.Time{}) {
		def.Type = TypeDateTime
		return
	}

	switch t.Kind() {
	case reflect.String:
		def.Type = TypeString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		def.Type = TypeInteger
	case reflect.Float32, reflect.Float64:
		def.Type = TypeNumber
	case reflect.Bool:
		def.Type = TypeBoolean
	default:
		def.Type = TypeString // fallback
	}
}

func jsonName(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("json"); ok {
		parts := strings.Split(tag, ",")
		if parts[0] != "" {
			return parts[0]
		}
	}
	// Fallback: camelCase
	runes := []rune(field.Name)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func dbName(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("db"); ok && tag != "" {
		return strings.Split(tag, ",")[0]
	}
	return ""
}

func isRequired(field reflect.StructField) bool {
	if tag, ok := field.Tag.Lookup("binding"); ok {
		return strings.Contains(tag, "required")
	}
	return false
}
