package softdelete_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tombstone/internal/core/apperror"
	"tombstone/internal/core/entity"
	"tombstone/internal/domain/filter"
	"tombstone/internal/domain/model"
	"tombstone/internal/domain/softdelete"
	"tombstone/internal/infrastructure/storage/memory"
	"tombstone/internal/metadata"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func (c *clock) advance(d time.Duration) { c.now = c.now.Add(d) }

func bookDef() metadata.EntityDef {
	return metadata.EntityDef{
		Name: "book",
		Fields: []metadata.FieldDef{
			{Name: "title", Type: metadata.TypeString, Required: true},
		},
	}
}

type fixture struct {
	model *model.Model
	sd    *softdelete.SoftDeleter
	store *memory.Store
	clock *clock
}

func setup(t *testing.T, mutate func(*softdelete.Options)) fixture {
	t.Helper()

	clk := &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	opts := softdelete.DefaultOptions()
	opts.Now = clk.Now
	if mutate != nil {
		mutate(&opts)
	}

	mx := softdelete.New(opts)
	store := memory.New()
	m, err := model.New(bookDef(), store, mx.Option())
	require.NoError(t, err)

	sd, err := mx.For(m)
	require.NoError(t, err)

	return fixture{model: m, sd: sd, store: store, clock: clk}
}

func (f fixture) create(t *testing.T, title string) entity.Record {
	t.Helper()
	rec, err := f.model.Create(context.Background(), entity.Record{"title": title})
	require.NoError(t, err)
	return rec
}

// raw reads straight from the store, bypassing every interceptor.
func (f fixture) raw(t *testing.T, recID any) entity.Record {
	t.Helper()
	def := f.model.Def()
	recs, err := f.store.Find(context.Background(), &def, filter.Query{Where: filter.Eq("id", recID)})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	return recs[0]
}

func TestCreate_InitialState(t *testing.T) {
	f := setup(t, nil)
	rec := f.create(t, "Dune")

	assert.Equal(t, false, rec["isDeleted"])
	assert.Nil(t, rec["deletedAt"])
	assert.True(t, entity.StateOf(f.raw(t, rec["id"]), "deletedAt", "isDeleted").Consistent())
}

func TestDeleteAll_SoftDeletes(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	f.create(t, "Dune")

	n, err := f.model.DeleteAll(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	visible, err := f.model.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), visible)

	all, err := f.model.Count(ctx, &filter.Query{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), all)

	deleted, err := f.model.Find(ctx, &filter.Query{Where: filter.Eq("isDeleted", true)})
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, "Dune", deleted[0]["title"])
	assert.Equal(t, f.clock.now, deleted[0]["deletedAt"])

	state := entity.StateOf(deleted[0], "deletedAt", "isDeleted")
	assert.True(t, state.IsDeleted)
	assert.True(t, state.Consistent())
}

func TestDeleteByID_OnlyTarget(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	dune := f.create(t, "Dune")
	f.create(t, "Emma")

	n, err := f.model.DeleteByID(ctx, dune["id"])
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	recs, err := f.model.Find(ctx, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Emma", recs[0]["title"])
}

func TestDestroy_SoftDeletes(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	dune := f.create(t, "Dune")

	n, err := f.model.Destroy(ctx, dune)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, true, f.raw(t, dune["id"])["isDeleted"])
}

func TestFindByID(t *testing.T) {
	t.Run("identifier bypass sees deleted", func(t *testing.T) {
		f := setup(t, nil)
		ctx := context.Background()
		dune := f.create(t, "Dune")
		_, err := f.model.DeleteByID(ctx, dune["id"])
		require.NoError(t, err)

		rec, err := f.model.FindByID(ctx, dune["id"], nil)
		require.NoError(t, err)
		assert.Equal(t, true, rec["isDeleted"])

		exists, err := f.model.Exists(ctx, dune["id"])
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("strict hides deleted", func(t *testing.T) {
		f := setup(t, func(o *softdelete.Options) { o.IdentifierBypass = false })
		ctx := context.Background()
		dune := f.create(t, "Dune")
		_, err := f.model.DeleteByID(ctx, dune["id"])
		require.NoError(t, err)

		_, err = f.model.FindByID(ctx, dune["id"], nil)
		assert.True(t, apperror.IsNotFound(err))

		exists, err := f.model.Exists(ctx, dune["id"])
		require.NoError(t, err)
		assert.False(t, exists)

		rec, err := f.model.FindByID(ctx, dune["id"], &filter.Query{IncludeDeleted: true})
		require.NoError(t, err)
		assert.Equal(t, "Dune", rec["title"])
	})
}

func TestFindOne_ExcludesDeleted(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	dune := f.create(t, "Dune")
	_, err := f.model.DeleteByID(ctx, dune["id"])
	require.NoError(t, err)

	_, err = f.model.FindOne(ctx, &filter.Query{Where: filter.Eq("title", "Dune")})
	assert.True(t, apperror.IsNotFound(err))
}

func TestRepeatDelete(t *testing.T) {
	t.Run("guarded keeps first timestamp", func(t *testing.T) {
		f := setup(t, nil)
		ctx := context.Background()
		dune := f.create(t, "Dune")
		first := f.clock.now

		_, err := f.model.DeleteByID(ctx, dune["id"])
		require.NoError(t, err)

		f.clock.advance(time.Hour)
		n, err := f.model.DeleteByID(ctx, dune["id"])
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
		assert.Equal(t, first, f.raw(t, dune["id"])["deletedAt"])
	})

	t.Run("unguarded re-stamps", func(t *testing.T) {
		f := setup(t, func(o *softdelete.Options) { o.GuardAlreadyDeleted = false })
		ctx := context.Background()
		dune := f.create(t, "Dune")

		_, err := f.model.DeleteByID(ctx, dune["id"])
		require.NoError(t, err)

		f.clock.advance(time.Hour)
		n, err := f.model.DeleteByID(ctx, dune["id"])
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.Equal(t, f.clock.now, f.raw(t, dune["id"])["deletedAt"])
	})
}

func TestSoftDeleter(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	dune := f.create(t, "Dune")
	emma := f.create(t, "Emma")

	n, err := f.sd.DeleteByID(ctx, dune["id"])
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = f.sd.DestroyByID(ctx, emma["id"])
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	visible, err := f.model.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), visible)

	n, err = f.sd.RestoreByID(ctx, dune["id"])
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	restored := f.raw(t, dune["id"])
	assert.Equal(t, false, restored["isDeleted"])
	assert.Nil(t, restored["deletedAt"])

	n, err = f.sd.Restore(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "only emma is still deleted")

	visible, err = f.model.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), visible)
}

func TestDeleteAll_FilterErrorDeletesNothing(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	a := f.create(t, "a")
	f.create(t, "b")
	c := f.create(t, "c")

	where := filter.Any(
		filter.Eq("title", "a"),
		filter.All(filter.Eq("id", c["id"]), filter.Cond("title", filter.Greater, 5)),
	)
	_, err := f.model.DeleteAll(ctx, where)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidFilter))

	visible, err := f.model.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), visible)
	assert.Equal(t, false, f.raw(t, a["id"])["isDeleted"])
	assert.Nil(t, f.raw(t, a["id"])["deletedAt"])
}

func TestFieldGuard(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	_, err := f.model.Create(ctx, entity.Record{"title": "Dune", "isDeleted": true})
	assert.True(t, apperror.HasCode(err, apperror.CodeManagedField))

	_, err = f.model.Create(ctx, entity.Record{"title": "Dune", "deletedAt": time.Now()})
	assert.True(t, apperror.HasCode(err, apperror.CodeManagedField))

	rec, err := f.model.Create(ctx, entity.Record{"title": "Dune", "isDeleted": false})
	require.NoError(t, err)

	_, err = f.model.UpdateAll(ctx, filter.Eq("id", rec["id"]), entity.Record{"isDeleted": true})
	assert.True(t, apperror.HasCode(err, apperror.CodeManagedField))

	n, err := f.model.UpdateAll(ctx, filter.Eq("id", rec["id"]), entity.Record{"title": "Dune Messiah"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestFor_RequiresFields(t *testing.T) {
	mx := softdelete.New(softdelete.DefaultOptions())
	m, err := model.New(bookDef(), memory.New())
	require.NoError(t, err)

	_, err = mx.For(m)
	assert.Error(t, err)
}

type failingStore struct {
	*memory.Store
	err error
}

func (s failingStore) UpdateAll(context.Context, *metadata.EntityDef, *filter.Where, entity.Record) (int64, error) {
	return 0, s.err
}

func TestDelete_PropagatesStoreError(t *testing.T) {
	boom := errors.New("connection reset")
	mx := softdelete.New(softdelete.DefaultOptions())
	m, err := model.New(bookDef(), failingStore{Store: memory.New(), err: boom}, mx.Option())
	require.NoError(t, err)

	_, err = m.DeleteAll(context.Background(), filter.Eq("title", "Dune"))
	assert.ErrorIs(t, err, boom)
}
