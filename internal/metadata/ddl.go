package metadata

import (
	"fmt"
	"strings"
)

// Dialect selects SQL type names and DDL features.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect validates a dialect name.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(strings.ToLower(s)) {
	case Postgres, "postgresql", "pgx":
		return Postgres, nil
	case SQLite, "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported dialect %q", s)
	}
}

var sqlTypes = map[Dialect]map[FieldType]string{
	Postgres: {
		TypeString:   "text",
		TypeInteger:  "bigint",
		TypeNumber:   "double precision",
		TypeBoolean:  "boolean",
		TypeDateTime: "timestamptz",
		TypeUUID:     "uuid",
	},
	SQLite: {
		TypeString:   "TEXT",
		TypeInteger:  "INTEGER",
		TypeNumber:   "REAL",
		TypeBoolean:  "BOOLEAN",
		TypeDateTime: "TIMESTAMP",
		TypeUUID:     "TEXT",
	},
}

// SQLTypeFor returns the column type of f in dialect d.
func SQLTypeFor(f FieldDef, d Dialect) string {
	if f.SQLType != "" {
		return f.SQLType
	}
	if t, ok := sqlTypes[d][f.Type]; ok {
		return t
	}
	return sqlTypes[d][TypeString]
}

// columnSQL renders one column definition.
func columnSQL(def *EntityDef, f FieldDef, d Dialect) string {
	var b strings.Builder
	b.WriteString(f.ColumnName())
	b.WriteString(" ")
	b.WriteString(SQLTypeFor(f, d))

	switch {
	case f.Name == def.IDName():
		b.WriteString(" PRIMARY KEY")
		return b.String()
	case f.Nullable:
		b.WriteString(" NULL")
	case f.Required || f.Default != nil:
		b.WriteString(" NOT NULL")
	}

	if f.Default != nil {
		b.WriteString(" DEFAULT ")
		b.WriteString(literal(f.Default, d))
	}
	return b.String()
}

func literal(v any, d Dialect) string {
	switch x := v.(type) {
	case bool:
		if d == SQLite {
			if x {
				return "1"
			}
			return "0"
		}
		if x {
			return "true"
		}
		return "false"
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	default:
		return fmt.Sprintf("%v", x)
	}
}

// CreateTableSQL renders CREATE TABLE IF NOT EXISTS for the whole definition.
func CreateTableSQL(def *EntityDef, d Dialect) string {
	cols := make([]string, 0, len(def.Fields))
	for _, f := range def.Fields {
		cols = append(cols, "\t"+columnSQL(def, f, d))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)", def.TableName(), strings.Join(cols, ",\n"))
}

// AddColumnSQL renders ALTER TABLE ... ADD COLUMN for a field added to an existing table.
// SQLite has no IF NOT EXISTS here; callers check the existing columns first.
func AddColumnSQL(def *EntityDef, f FieldDef, d Dialect) string {
	if d == Postgres {
		return fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s", def.TableName(), columnSQL(def, f, d))
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", def.TableName(), columnSQL(def, f, d))
}

// IndexSQL renders CREATE INDEX IF NOT EXISTS for every indexed field.
func IndexSQL(def *EntityDef) []string {
	var stmts []string
	for _, f := range def.Fields {
		if !f.Indexed {
			continue
		}
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)",
			def.TableName(), f.ColumnName(), def.TableName(), f.ColumnName()))
	}
	return stmts
}

// MigrationSQL returns the statements that bring a table in line with def:
// table creation, column additions for every non-identifier field, and indexes.
// Column additions are only emitted for Postgres, where they are idempotent.
func MigrationSQL(def *EntityDef, d Dialect) []string {
	stmts := []string{CreateTableSQL(def, d)}
	if d == Postgres {
		for _, f := range def.Fields {
			if f.Name == def.IDName() {
				continue
			}
			stmts = append(stmts, AddColumnSQL(def, f, d))
		}
	}
	return append(stmts, IndexSQL(def)...)
}
