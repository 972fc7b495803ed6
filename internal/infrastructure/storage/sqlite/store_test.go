package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tombstone/internal/core/apperror"
	"tombstone/internal/core/entity"
	"tombstone/internal/core/id"
	"tombstone/internal/domain/filter"
	"tombstone/internal/domain/model"
	"tombstone/internal/domain/softdelete"
	"tombstone/internal/infrastructure/storage/sqlite"
	"tombstone/internal/metadata"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func bookDef() metadata.EntityDef {
	return metadata.EntityDef{
		Name:  "book",
		Table: "books",
		Fields: []metadata.FieldDef{
			{Name: "title", Type: metadata.TypeString, Required: true},
			{Name: "pages", Type: metadata.TypeInteger, Default: 0},
		},
	}
}

func newBooks(t *testing.T, store *sqlite.Store, opts softdelete.Options) (*model.Model, *softdelete.SoftDeleter) {
	t.Helper()
	mx := softdelete.New(opts)
	m, err := model.New(bookDef(), store, mx.Option())
	require.NoError(t, err)

	def := m.Def()
	require.NoError(t, store.Migrate(context.Background(), &def))

	sd, err := mx.For(m)
	require.NoError(t, err)
	return m, sd
}

func TestSoftDelete_EndToEnd(t *testing.T) {
	store := openStore(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	opts := softdelete.DefaultOptions()
	opts.Now = func() time.Time { return now }
	books, sd := newBooks(t, store, opts)
	ctx := context.Background()

	dune, err := books.Create(ctx, entity.Record{"title": "Dune", "pages": 412})
	require.NoError(t, err)
	_, err = books.Create(ctx, entity.Record{"title": "Emma"})
	require.NoError(t, err)

	n, err := books.DeleteAll(ctx, filter.Eq("title", "Dune"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	visible, err := books.Find(ctx, nil)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "Emma", visible[0]["title"])
	assert.Equal(t, false, visible[0]["isDeleted"])
	assert.Nil(t, visible[0]["deletedAt"])

	all, err := books.Count(ctx, &filter.Query{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all)

	rec, err := books.FindByID(ctx, dune["id"], nil)
	require.NoError(t, err)
	assert.Equal(t, true, rec["isDeleted"])
	assert.Equal(t, now, rec["deletedAt"])
	assert.Equal(t, int64(412), rec["pages"])
	assert.Equal(t, dune["id"], rec["id"])
	assert.True(t, entity.StateOf(rec, "deletedAt", "isDeleted").Consistent())

	deleted, err := books.Find(ctx, &filter.Query{Where: filter.Eq("isDeleted", true)})
	require.NoError(t, err)
	require.Len(t, deleted, 1)

	// guarded: a second delete does not move the timestamp
	now = now.Add(time.Hour)
	n, err = books.DeleteByID(ctx, dune["id"])
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	rec, err = books.FindByID(ctx, dune["id"].(id.ID).String(), nil)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-time.Hour), rec["deletedAt"])

	n, err = sd.RestoreByID(ctx, dune["id"])
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	visibleCount, err := books.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), visibleCount)
}

func TestSoftDelete_TimeFilter(t *testing.T) {
	store := openStore(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	opts := softdelete.DefaultOptions()
	opts.Now = func() time.Time { return now }
	books, _ := newBooks(t, store, opts)
	ctx := context.Background()

	dune, err := books.Create(ctx, entity.Record{"title": "Dune"})
	require.NoError(t, err)
	_, err = books.DeleteByID(ctx, dune["id"])
	require.NoError(t, err)

	recs, err := books.Find(ctx, &filter.Query{
		Where: filter.Cond("deletedAt", filter.Greater, "2024-05-01T00:00:00Z"),
	})
	require.NoError(t, err)
	assert.Len(t, recs, 0, "deletedAt alone does not opt in")

	recs, err = books.Find(ctx, &filter.Query{
		IncludeDeleted: true,
		Where:          filter.Cond("deletedAt", filter.Greater, "2024-05-01T00:00:00Z"),
	})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestStore_Duplicate(t *testing.T) {
	store := openStore(t)
	books, _ := newBooks(t, store, softdelete.DefaultOptions())
	ctx := context.Background()

	rec, err := books.Create(ctx, entity.Record{"title": "Dune"})
	require.NoError(t, err)

	_, err = books.Create(ctx, entity.Record{"id": rec["id"], "title": "Copy"})
	assert.True(t, apperror.IsDuplicate(err))
}

func TestStore_Transaction(t *testing.T) {
	store := openStore(t)
	books, _ := newBooks(t, store, softdelete.DefaultOptions())
	ctx := context.Background()

	err := books.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := books.Create(ctx, entity.Record{"title": "Dune"}); err != nil {
			return err
		}
		return apperror.NewConflict("abort")
	})
	require.Error(t, err)

	n, err := books.Count(ctx, &filter.Query{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMigrate_AddsSoftDeleteColumns(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	plain := bookDef()
	plain.EnsureID()
	require.NoError(t, store.Migrate(ctx, &plain))

	legacy, err := model.New(bookDef(), store)
	require.NoError(t, err)
	_, err = legacy.Create(ctx, entity.Record{"title": "Old"})
	require.NoError(t, err)

	books, _ := newBooks(t, store, softdelete.DefaultOptions())

	recs, err := books.Find(ctx, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, false, recs[0]["isDeleted"])

	// running again is a no-op
	def := books.Def()
	require.NoError(t, store.Migrate(ctx, &def))
}
