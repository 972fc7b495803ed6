package metadata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tombstone/internal/core/id"
)

type book struct {
	ID        id.ID      `db:"id" json:"id"`
	Name      string     `db:"name" json:"name" binding:"required"`
	Type      string     `db:"type" json:"type"`
	Pages     int        `db:"pages" json:"pages"`
	Published *time.Time `db:"published_at" json:"publishedAt"`
	internal  string
	Ignored   string `db:"-" json:"-"`
}

func softDeleteFields() []FieldDef {
	return []FieldDef{
		{Name: "deletedAt", Column: "deleted_at", Type: TypeDateTime, Nullable: true},
		{Name: "isDeleted", Column: "is_deleted", Type: TypeBoolean, Default: false, Indexed: true},
	}
}

func TestInspect(t *testing.T) {
	def := Inspect(book{}, "books")

	assert.Equal(t, "books", def.Name)
	assert.Equal(t, []string{"id", "name", "type", "pages", "published_at"}, def.Columns())

	f, ok := def.Field("publishedAt")
	require.True(t, ok)
	assert.Equal(t, TypeDateTime, f.Type)
	assert.True(t, f.Nullable)

	f, ok = def.Field("id")
	require.True(t, ok)
	assert.Equal(t, TypeUUID, f.Type)

	f, _ = def.Field("name")
	assert.True(t, f.Required)
	assert.NoError(t, def.Validate())
}

func TestEntityDef_AddFieldReplaces(t *testing.T) {
	def := EntityDef{Name: "books"}
	def.EnsureID()
	def.AddField(FieldDef{Name: "isDeleted", Type: TypeString})
	def.AddField(FieldDef{Name: "isDeleted", Column: "is_deleted", Type: TypeBoolean})

	assert.Len(t, def.Fields, 2)
	col, err := def.ColumnFor("isDeleted")
	require.NoError(t, err)
	assert.Equal(t, "is_deleted", col)

	f, ok := def.FieldByColumn("is_deleted")
	assert.True(t, ok)
	assert.Equal(t, TypeBoolean, f.Type)

	_, err = def.ColumnFor("nope")
	assert.Error(t, err)
}

func TestEntityDef_Validate(t *testing.T) {
	assert.Error(t, (&EntityDef{}).Validate())
	assert.Error(t, (&EntityDef{Name: "x"}).Validate(), "missing id field")

	dup := EntityDef{Name: "x", Fields: []FieldDef{
		{Name: "id", Type: TypeUUID},
		{Name: "a", Column: "c"},
		{Name: "b", Column: "c"},
	}}
	assert.Error(t, dup.Validate())
}

func TestCreateTableSQL_Postgres(t *testing.T) {
	def := EntityDef{Name: "books", Fields: []FieldDef{{Name: "name", Type: TypeString}}}
	def.EnsureID()
	for _, f := range softDeleteFields() {
		def.AddField(f)
	}

	want := "CREATE TABLE IF NOT EXISTS books (\n" +
		"\tid uuid PRIMARY KEY,\n" +
		"\tname text,\n" +
		"\tdeleted_at timestamptz NULL,\n" +
		"\tis_deleted boolean NOT NULL DEFAULT false\n" +
		")"
	assert.Equal(t, want, CreateTableSQL(&def, Postgres))

	stmts := MigrationSQL(&def, Postgres)
	assert.Equal(t, []string{
		want,
		"ALTER TABLE books ADD COLUMN IF NOT EXISTS name text",
		"ALTER TABLE books ADD COLUMN IF NOT EXISTS deleted_at timestamptz NULL",
		"ALTER TABLE books ADD COLUMN IF NOT EXISTS is_deleted boolean NOT NULL DEFAULT false",
		"CREATE INDEX IF NOT EXISTS idx_books_is_deleted ON books (is_deleted)",
	}, stmts)
}

func TestCreateTableSQL_SQLite(t *testing.T) {
	def := EntityDef{Name: "books", Table: "library_books"}
	def.EnsureID()
	for _, f := range softDeleteFields() {
		def.AddField(f)
	}

	want := "CREATE TABLE IF NOT EXISTS library_books (\n" +
		"\tid TEXT PRIMARY KEY,\n" +
		"\tdeleted_at TIMESTAMP NULL,\n" +
		"\tis_deleted BOOLEAN NOT NULL DEFAULT 0\n" +
		")"
	assert.Equal(t, want, CreateTableSQL(&def, SQLite))
	assert.Len(t, MigrationSQL(&def, SQLite), 2)

	f, _ := def.Field("isDeleted")
	assert.Equal(t, "ALTER TABLE library_books ADD COLUMN is_deleted BOOLEAN NOT NULL DEFAULT 0", AddColumnSQL(&def, f, SQLite))
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("PostgreSQL")
	require.NoError(t, err)
	assert.Equal(t, Postgres, d)

	d, err = ParseDialect("sqlite3")
	require.NoError(t, err)
	assert.Equal(t, SQLite, d)

	_, err = ParseDialect("oracle")
	assert.Error(t, err)
}
