package sqlbuild

import (
	"time"

	"tombstone/internal/core/entity"
	"tombstone/internal/core/id"
	"tombstone/internal/metadata"
)

// sqliteTimeFormats are the layouts go-sqlite3 writes for time.Time values.
var sqliteTimeFormats = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
}

// Record converts a scanned row keyed by column into a record keyed by field.
// Columns that are not declared on the model are dropped.
func Record(def *metadata.EntityDef, row map[string]any) entity.Record {
	rec := make(entity.Record, len(row))
	for col, v := range row {
		f, ok := def.FieldByColumn(col)
		if !ok {
			continue
		}
		rec[f.Name] = Decode(f, v)
	}
	return rec
}

// Decode converts a driver value into the representation used in records:
// id.ID for uuid fields, bool for booleans, UTC time.Time for datetimes,
// int64 for integers and string for text.
func Decode(f metadata.FieldDef, v any) any {
	if v == nil {
		return nil
	}

	switch f.Type {
	case metadata.TypeUUID:
		if parsed, err := id.FromAny(v); err == nil {
			return parsed
		}
	case metadata.TypeBoolean:
		switch x := v.(type) {
		case int64:
			return x != 0
		case int:
			return x != 0
		}
	case metadata.TypeDateTime:
		switch x := v.(type) {
		case time.Time:
			return x.UTC()
		case string:
			for _, layout := range sqliteTimeFormats {
				if t, err := time.Parse(layout, x); err == nil {
					return t.UTC()
				}
			}
		case []byte:
			return Decode(f, string(x))
		}
	case metadata.TypeInteger:
		switch x := v.(type) {
		case int32:
			return int64(x)
		case int:
			return int64(x)
		case int16:
			return int64(x)
		}
	case metadata.TypeNumber:
		switch x := v.(type) {
		case float32:
			return float64(x)
		case int64:
			return float64(x)
		}
	case metadata.TypeString:
		if b, ok := v.([]byte); ok {
			return string(b)
		}
	}
	return v
}
