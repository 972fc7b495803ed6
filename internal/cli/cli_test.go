package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPrint_Postgres(t *testing.T) {
	out, err := execute(t, "print")
	require.NoError(t, err)

	assert.Contains(t, out, "-- book (book)")
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS book")
	assert.Contains(t, out, "deleted_at timestamptz NULL")
	assert.Contains(t, out, "is_deleted boolean NOT NULL DEFAULT false")
	assert.Contains(t, out, "CREATE INDEX IF NOT EXISTS idx_book_is_deleted ON book (is_deleted)")
}

func TestPrint_SQLiteJSON(t *testing.T) {
	out, err := execute(t, "print", "--dialect", "sqlite", "--format", "json")
	require.NoError(t, err)

	var tables []TableDDL
	require.NoError(t, jsoniter.Unmarshal([]byte(out), &tables))
	require.Len(t, tables, 1)
	assert.Equal(t, "book", tables[0].Model)
	assert.Contains(t, tables[0].Statements[0], "is_deleted BOOLEAN NOT NULL DEFAULT 0")
}

func TestPrint_ModelsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
models:
  - name: note
    table: notes
    fields:
      - {name: body}
    softDelete:
      isDeletedColumn: removed
`), 0o600))

	out, err := execute(t, "print", "--models", path)
	require.NoError(t, err)
	assert.Contains(t, out, "-- note (notes)")
	assert.Contains(t, out, "removed boolean NOT NULL DEFAULT false")
}

func TestPrint_Errors(t *testing.T) {
	_, err := execute(t, "print", "--dialect", "oracle")
	assert.ErrorContains(t, err, "unsupported dialect")

	_, err = execute(t, "print", "--format", "xml")
	assert.ErrorContains(t, err, "invalid format")
}

func TestApply_SQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "apply.db")

	out, err := execute(t, "apply", "--driver", "sqlite", "--dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "migrated book (book)")

	// a second run finds nothing to add
	_, err = execute(t, "apply", "--driver", "sqlite", "--dsn", dsn)
	require.NoError(t, err)
}

func TestApply_Errors(t *testing.T) {
	_, err := execute(t, "apply", "--driver", "memory", "--dsn", "x")
	assert.Error(t, err)

	_, err = execute(t, "apply", "--driver", "sqlite")
	assert.Error(t, err)
}
