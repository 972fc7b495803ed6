// Package model provides the entity-type descriptor that owns a governed
// model's schema, its store and its ordered interceptor chain.
package model

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tombstone/internal/core/apperror"
	appctx "tombstone/internal/core/context"
	"tombstone/internal/core/entity"
	"tombstone/internal/core/id"
	"tombstone/internal/core/tx"
	"tombstone/internal/domain/filter"
	"tombstone/internal/metadata"
	"tombstone/pkg/logger"
)

var tracer = otel.Tracer("tombstone/model")

// Model is configured once by New and is safe for concurrent use afterwards.
type Model struct {
	def   metadata.EntityDef
	store Store
	hooks chain
}

// Option configures a model during New.
type Option func(*Model)

// WithFields declares additional fields on the model definition.
func WithFields(fields ...metadata.FieldDef) Option {
	return func(m *Model) {
		for _, f := range fields {
			m.def.AddField(f)
		}
	}
}

// WithAccessHook appends a hook run before every read.
func WithAccessHook(h AccessHook) Option {
	return func(m *Model) { m.hooks.access = append(m.hooks.access, h) }
}

// WithDeleteHook appends a hook run before every delete.
func WithDeleteHook(h DeleteHook) Option {
	return func(m *Model) { m.hooks.delete = append(m.hooks.delete, h) }
}

// WithSaveHook appends a hook run before every create and update.
func WithSaveHook(h SaveHook) Option {
	return func(m *Model) { m.hooks.save = append(m.hooks.save, h) }
}

// WithOptions bundles several options into one, applied in order.
func WithOptions(opts ...Option) Option {
	return func(m *Model) {
		for _, opt := range opts {
			opt(m)
		}
	}
}

// New builds a model descriptor. The definition is copied; options are applied
// in order and determine the order of the interceptor chain.
func New(def metadata.EntityDef, store Store, opts ...Option) (*Model, error) {
	if store == nil {
		return nil, fmt.Errorf("model %s: store is required", def.Name)
	}

	def.Fields = append([]metadata.FieldDef(nil), def.Fields...)
	def.EnsureID()

	m := &Model{def: def, store: store}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.def.Validate(); err != nil {
		return nil, fmt.Errorf("model %s: %w", def.Name, err)
	}
	return m, nil
}

// Name returns the model name.
func (m *Model) Name() string {
	return m.def.Name
}

// Def returns a copy of the model definition.
func (m *Model) Def() metadata.EntityDef {
	def := m.def
	def.Fields = append([]metadata.FieldDef(nil), m.def.Fields...)
	return def
}

// IDField returns the identifier field name.
func (m *Model) IDField() string {
	return m.def.IDName()
}

// Create inserts a record. Missing identifiers are generated, missing fields
// receive their declared default (or null when nullable) and undeclared
// fields are dropped.
func (m *Model) Create(ctx context.Context, rec entity.Record) (entity.Record, error) {
	ctx, span := m.startSpan(ctx, OpCreate)
	defer span.End()

	data := m.prepare(rec)
	sc := &SaveContext{Model: m, Op: OpCreate, Data: data}
	if err := m.hooks.runSave(ctx, sc); err != nil {
		return nil, fail(span, err)
	}

	if err := m.store.Create(ctx, &m.def, sc.Data); err != nil {
		return nil, fail(span, fmt.Errorf("create %s: %w", m.def.Name, err))
	}
	return sc.Data.Clone(), nil
}

func (m *Model) prepare(rec entity.Record) entity.Record {
	out := make(entity.Record, len(m.def.Fields))
	for _, f := range m.def.Fields {
		if v, ok := rec[f.Name]; ok {
			out[f.Name] = v
			continue
		}
		switch {
		case f.Name == m.def.IDName():
			out[f.Name] = id.New()
		case f.Default != nil:
			out[f.Name] = f.Default
		case f.Nullable:
			out[f.Name] = nil
		}
	}
	return out
}

// Find returns matching records. q is mutated in place by access hooks.
func (m *Model) Find(ctx context.Context, q *filter.Query) ([]entity.Record, error) {
	if q == nil {
		q = &filter.Query{}
	}
	return m.find(ctx, OpFind, q)
}

// FindOne returns the first matching record or a not-found error.
func (m *Model) FindOne(ctx context.Context, q *filter.Query) (entity.Record, error) {
	if q == nil {
		q = &filter.Query{}
	}
	q.Limit = 1

	recs, err := m.find(ctx, OpFindOne, q)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, apperror.NewNotFound(m.def.Name, "matching query")
	}
	return recs[0], nil
}

// FindByID returns the record with the given identifier. q may carry extra
// conditions and options; its identifier condition is replaced.
func (m *Model) FindByID(ctx context.Context, recID any, q *filter.Query) (entity.Record, error) {
	if q == nil {
		q = &filter.Query{}
	}
	q.EnsureWhere().Set(m.def.IDName(), filter.Equal, recID)
	q.Limit = 1

	recs, err := m.find(ctx, OpFindByID, q)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, apperror.NewNotFound(m.def.Name, fmt.Sprint(recID))
	}
	return recs[0], nil
}

func (m *Model) find(ctx context.Context, op Operation, q *filter.Query) ([]entity.Record, error) {
	ctx, span := m.startSpan(ctx, op)
	defer span.End()

	if err := m.hooks.runAccess(ctx, &AccessContext{Model: m, Op: op, Query: q}); err != nil {
		return nil, fail(span, err)
	}

	recs, err := m.store.Find(ctx, &m.def, *q)
	if err != nil {
		return nil, fail(span, fmt.Errorf("find %s: %w", m.def.Name, err))
	}
	span.SetAttributes(attribute.Int("model.rows", len(recs)))
	return recs, nil
}

// Count returns the number of matching records.
func (m *Model) Count(ctx context.Context, q *filter.Query) (int64, error) {
	if q == nil {
		q = &filter.Query{}
	}
	return m.count(ctx, OpCount, q)
}

// Exists reports whether a record with the given identifier is visible.
func (m *Model) Exists(ctx context.Context, recID any) (bool, error) {
	n, err := m.count(ctx, OpExists, &filter.Query{Where: filter.Eq(m.def.IDName(), recID)})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (m *Model) count(ctx context.Context, op Operation, q *filter.Query) (int64, error) {
	ctx, span := m.startSpan(ctx, op)
	defer span.End()

	if err := m.hooks.runAccess(ctx, &AccessContext{Model: m, Op: op, Query: q}); err != nil {
		return 0, fail(span, err)
	}

	n, err := m.store.Count(ctx, &m.def, q.Where)
	if err != nil {
		return 0, fail(span, fmt.Errorf("count %s: %w", m.def.Name, err))
	}
	return n, nil
}

// UpdateAll applies patch to matching records. The identifier and undeclared
// fields are never updated.
func (m *Model) UpdateAll(ctx context.Context, where *filter.Where, patch entity.Record) (int64, error) {
	ctx, span := m.startSpan(ctx, OpUpdate)
	defer span.End()

	data := make(entity.Record, len(patch))
	for k, v := range patch {
		if k == m.def.IDName() {
			continue
		}
		if _, ok := m.def.Field(k); ok {
			data[k] = v
		}
	}
	if len(data) == 0 {
		return 0, fail(span, apperror.NewValidation("nothing to update").WithDetail("entity", m.def.Name))
	}

	sc := &SaveContext{Model: m, Op: OpUpdate, Where: where, Data: data}
	if err := m.hooks.runSave(ctx, sc); err != nil {
		return 0, fail(span, err)
	}

	n, err := m.store.UpdateAll(ctx, &m.def, sc.Where, sc.Data)
	if err != nil {
		return 0, fail(span, fmt.Errorf("update %s: %w", m.def.Name, err))
	}
	return n, nil
}

// RawUpdateAll sends an update straight to the store, skipping save hooks.
// It is meant for interceptors that own the fields they write.
func (m *Model) RawUpdateAll(ctx context.Context, where *filter.Where, patch entity.Record) (int64, error) {
	return m.store.UpdateAll(ctx, &m.def, where, patch)
}

// DeleteAll deletes matching records; a nil where matches every record.
func (m *Model) DeleteAll(ctx context.Context, where *filter.Where) (int64, error) {
	return m.delete(ctx, OpDeleteAll, where)
}

// DeleteByID deletes the record with the given identifier.
func (m *Model) DeleteByID(ctx context.Context, recID any) (int64, error) {
	return m.delete(ctx, OpDeleteByID, filter.Eq(m.def.IDName(), recID))
}

// Destroy deletes the given record by its identifier.
func (m *Model) Destroy(ctx context.Context, rec entity.Record) (int64, error) {
	recID, ok := rec[m.def.IDName()]
	if !ok || recID == nil {
		return 0, apperror.NewValidation("record has no identifier").WithDetail("entity", m.def.Name)
	}
	return m.delete(ctx, OpDestroy, filter.Eq(m.def.IDName(), recID))
}

func (m *Model) delete(ctx context.Context, op Operation, where *filter.Where) (int64, error) {
	ctx, span := m.startSpan(ctx, op)
	defer span.End()

	dc := &DeleteContext{Model: m, Op: op, Where: where}
	if err := m.hooks.runDelete(ctx, dc); err != nil {
		return 0, fail(span, err)
	}
	if dc.Handled {
		span.SetAttributes(attribute.Bool("model.delete_substituted", true))
		return dc.Result, nil
	}

	logger.Debug(ctx, "physical delete")
	n, err := m.store.DeleteAll(ctx, &m.def, dc.Where)
	if err != nil {
		return 0, fail(span, fmt.Errorf("delete %s: %w", m.def.Name, err))
	}
	return n, nil
}

// RunInTransaction runs fn in a store transaction when the store supports
// them; otherwise fn runs directly.
func (m *Model) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txm, ok := m.store.(tx.Manager); ok {
		return txm.RunInTransaction(ctx, fn)
	}
	return fn(ctx)
}

func (m *Model) startSpan(ctx context.Context, op Operation) (context.Context, trace.Span) {
	ctx = appctx.WithOperation(ctx, &appctx.Operation{Model: m.def.Name, Name: string(op)})
	return tracer.Start(ctx, "model."+string(op),
		trace.WithAttributes(
			attribute.String("model.name", m.def.Name),
		))
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
