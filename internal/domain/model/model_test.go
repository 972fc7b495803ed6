package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tombstone/internal/core/apperror"
	"tombstone/internal/core/entity"
	"tombstone/internal/core/id"
	"tombstone/internal/domain/filter"
	"tombstone/internal/metadata"
)

// recordingStore remembers the last call of each kind.
type recordingStore struct {
	created   []entity.Record
	query     filter.Query
	where     *filter.Where
	patch     entity.Record
	deletes   int
	rows      []entity.Record
	updated   int64
	deleteErr error
}

func (s *recordingStore) Create(_ context.Context, _ *metadata.EntityDef, rec entity.Record) error {
	s.created = append(s.created, rec)
	return nil
}

func (s *recordingStore) Find(_ context.Context, _ *metadata.EntityDef, q filter.Query) ([]entity.Record, error) {
	s.query = q
	return s.rows, nil
}

func (s *recordingStore) Count(_ context.Context, _ *metadata.EntityDef, where *filter.Where) (int64, error) {
	s.where = where
	return int64(len(s.rows)), nil
}

func (s *recordingStore) UpdateAll(_ context.Context, _ *metadata.EntityDef, where *filter.Where, patch entity.Record) (int64, error) {
	s.where = where
	s.patch = patch
	return s.updated, nil
}

func (s *recordingStore) DeleteAll(_ context.Context, _ *metadata.EntityDef, where *filter.Where) (int64, error) {
	s.deletes++
	s.where = where
	return 3, s.deleteErr
}

func testDef() metadata.EntityDef {
	return metadata.EntityDef{
		Name: "book",
		Fields: []metadata.FieldDef{
			{Name: "title", Type: metadata.TypeString, Required: true},
			{Name: "pages", Type: metadata.TypeInteger, Default: 0},
			{Name: "note", Type: metadata.TypeString, Nullable: true},
		},
	}
}

func TestNew(t *testing.T) {
	_, err := New(testDef(), nil)
	assert.Error(t, err)

	m, err := New(testDef(), &recordingStore{}, WithFields(metadata.FieldDef{Name: "archived", Type: metadata.TypeBoolean}))
	require.NoError(t, err)

	def := m.Def()
	assert.Equal(t, "book", m.Name())
	assert.Equal(t, "id", m.IDField())
	assert.Equal(t, "id", def.Fields[0].Name)
	_, ok := def.Field("archived")
	assert.True(t, ok)

	_, err = New(metadata.EntityDef{Name: "bad", Fields: []metadata.FieldDef{{Name: "a"}, {Name: "b", Column: "a"}}}, &recordingStore{})
	assert.Error(t, err)
}

func TestNew_DoesNotShareFields(t *testing.T) {
	def := testDef()
	_, err := New(def, &recordingStore{}, WithFields(metadata.FieldDef{Name: "extra"}))
	require.NoError(t, err)

	_, ok := def.Field("extra")
	assert.False(t, ok)
	_, ok = def.Field("id")
	assert.False(t, ok)
}

func TestCreate_PreparesRecord(t *testing.T) {
	store := &recordingStore{}
	m, err := New(testDef(), store)
	require.NoError(t, err)

	rec, err := m.Create(context.Background(), entity.Record{"title": "Dune", "unknown": 1})
	require.NoError(t, err)

	require.Len(t, store.created, 1)
	saved := store.created[0]
	assert.Equal(t, "Dune", saved["title"])
	assert.Equal(t, 0, saved["pages"])
	assert.True(t, saved.Has("note"))
	assert.Nil(t, saved["note"])
	assert.False(t, saved.Has("unknown"))

	recID, ok := rec.ID("id")
	require.True(t, ok)
	assert.False(t, id.IsNil(recID))
}

func TestCreate_KeepsGivenID(t *testing.T) {
	store := &recordingStore{}
	m, err := New(testDef(), store)
	require.NoError(t, err)

	given := id.New()
	rec, err := m.Create(context.Background(), entity.Record{"id": given, "title": "Dune"})
	require.NoError(t, err)
	assert.Equal(t, given, rec["id"])
}

func TestHooks_RunInOrder(t *testing.T) {
	var calls []string
	hook := func(name string) AccessHook {
		return func(_ context.Context, ac *AccessContext) error {
			calls = append(calls, name+":"+string(ac.Op))
			return nil
		}
	}

	store := &recordingStore{rows: []entity.Record{{"title": "Dune"}}}
	m, err := New(testDef(), store, WithAccessHook(hook("first")), WithAccessHook(hook("second")))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = m.Find(ctx, nil)
	require.NoError(t, err)
	_, err = m.Count(ctx, nil)
	require.NoError(t, err)
	_, err = m.FindOne(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"first:find", "second:find",
		"first:count", "second:count",
		"first:find_one", "second:find_one",
	}, calls)
	assert.Equal(t, 1, store.query.Limit)
}

func TestAccessHook_MutatesQuery(t *testing.T) {
	store := &recordingStore{}
	m, err := New(testDef(), store, WithAccessHook(func(_ context.Context, ac *AccessContext) error {
		ac.Query.EnsureWhere().Add("pages", filter.Greater, 10)
		return nil
	}))
	require.NoError(t, err)

	_, err = m.Find(context.Background(), &filter.Query{Where: filter.Eq("title", "Dune")})
	require.NoError(t, err)
	assert.Equal(t, filter.Eq("title", "Dune").Add("pages", filter.Greater, 10), store.query.Where)
}

func TestAccessHook_ErrorStopsRead(t *testing.T) {
	denied := errors.New("denied")
	store := &recordingStore{rows: []entity.Record{{}}}
	m, err := New(testDef(), store, WithAccessHook(func(context.Context, *AccessContext) error { return denied }))
	require.NoError(t, err)

	_, err = m.Count(context.Background(), nil)
	assert.ErrorIs(t, err, denied)
	assert.Nil(t, store.where)
}

func TestFindByID(t *testing.T) {
	store := &recordingStore{}
	m, err := New(testDef(), store)
	require.NoError(t, err)

	recID := id.New()
	_, err = m.FindByID(context.Background(), recID, &filter.Query{Where: filter.Eq("id", "other").Add("title", filter.Equal, "Dune")})
	assert.True(t, apperror.IsNotFound(err))

	assert.Equal(t, filter.Eq("title", "Dune").Add("id", filter.Equal, recID), store.query.Where)
}

func TestDeleteHook_Handled(t *testing.T) {
	store := &recordingStore{}
	var secondCalled bool
	m, err := New(testDef(), store,
		WithDeleteHook(func(_ context.Context, dc *DeleteContext) error {
			dc.Handled = true
			dc.Result = 7
			return nil
		}),
		WithDeleteHook(func(context.Context, *DeleteContext) error {
			secondCalled = true
			return nil
		}),
	)
	require.NoError(t, err)

	n, err := m.DeleteAll(context.Background(), filter.Eq("title", "Dune"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Zero(t, store.deletes)
	assert.False(t, secondCalled)
}

func TestDelete_Physical(t *testing.T) {
	store := &recordingStore{}
	var ops []Operation
	m, err := New(testDef(), store, WithDeleteHook(func(_ context.Context, dc *DeleteContext) error {
		ops = append(ops, dc.Op)
		return nil
	}))
	require.NoError(t, err)
	ctx := context.Background()

	n, err := m.DeleteAll(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	recID := id.New()
	_, err = m.DeleteByID(ctx, recID)
	require.NoError(t, err)
	assert.Equal(t, filter.Eq("id", recID), store.where)

	_, err = m.Destroy(ctx, entity.Record{"id": recID})
	require.NoError(t, err)

	_, err = m.Destroy(ctx, entity.Record{"title": "no id"})
	assert.True(t, apperror.IsValidation(err))

	assert.Equal(t, []Operation{OpDeleteAll, OpDeleteByID, OpDestroy}, ops)
	assert.Equal(t, 3, store.deletes)
}

func TestDelete_StoreError(t *testing.T) {
	boom := errors.New("boom")
	m, err := New(testDef(), &recordingStore{deleteErr: boom})
	require.NoError(t, err)

	_, err = m.DeleteAll(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
}

func TestUpdateAll(t *testing.T) {
	store := &recordingStore{updated: 2}
	var seen *SaveContext
	m, err := New(testDef(), store, WithSaveHook(func(_ context.Context, sc *SaveContext) error {
		seen = sc
		return nil
	}))
	require.NoError(t, err)
	ctx := context.Background()

	n, err := m.UpdateAll(ctx, filter.Eq("title", "Dune"), entity.Record{"id": id.New(), "pages": 5, "unknown": true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, entity.Record{"pages": 5}, store.patch)
	require.NotNil(t, seen)
	assert.Equal(t, OpUpdate, seen.Op)

	_, err = m.UpdateAll(ctx, nil, entity.Record{"id": id.New()})
	assert.True(t, apperror.IsValidation(err))
}

func TestRawUpdateAll_SkipsSaveHooks(t *testing.T) {
	store := &recordingStore{updated: 1}
	m, err := New(testDef(), store, WithSaveHook(func(context.Context, *SaveContext) error {
		return errors.New("should not run")
	}))
	require.NoError(t, err)

	n, err := m.RawUpdateAll(context.Background(), nil, entity.Record{"pages": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestOperation_Families(t *testing.T) {
	for _, op := range []Operation{OpFind, OpFindOne, OpFindByID, OpCount, OpExists} {
		assert.True(t, op.IsRead(), op)
		assert.False(t, op.IsDelete(), op)
	}
	for _, op := range []Operation{OpDeleteAll, OpDeleteByID, OpDestroy} {
		assert.True(t, op.IsDelete(), op)
		assert.False(t, op.IsRead(), op)
	}
	assert.False(t, OpCreate.IsRead())
	assert.False(t, OpUpdate.IsDelete())
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	books, err := New(testDef(), &recordingStore{})
	require.NoError(t, err)
	authors, err := New(metadata.EntityDef{Name: "author"}, &recordingStore{})
	require.NoError(t, err)

	require.NoError(t, reg.Register(books))
	require.NoError(t, reg.Register(authors))
	assert.Error(t, reg.Register(books))

	got, ok := reg.Get("book")
	assert.True(t, ok)
	assert.Same(t, books, got)

	_, ok = reg.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"author", "book"}, reg.Names())
}

type txStore struct {
	recordingStore
	began int
}

func (s *txStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.began++
	return fn(ctx)
}

func TestRunInTransaction(t *testing.T) {
	plain, err := New(testDef(), &recordingStore{})
	require.NoError(t, err)
	ran := false
	require.NoError(t, plain.RunInTransaction(context.Background(), func(context.Context) error {
		ran = true
		return nil
	}))
	assert.True(t, ran)

	store := &txStore{}
	m, err := New(testDef(), store)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = m.RunInTransaction(context.Background(), func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, store.began)
}
