// Package sqlbuild compiles model queries into SQL with squirrel. Field names
// are resolved to columns through the model definition, so only declared
// columns ever reach the generated statements.
package sqlbuild

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"tombstone/internal/core/apperror"
	"tombstone/internal/core/entity"
	"tombstone/internal/domain/filter"
	"tombstone/internal/metadata"
)

// Builder produces statements for one SQL dialect.
type Builder struct {
	dialect metadata.Dialect
}

// New creates a builder for the dialect.
func New(d metadata.Dialect) *Builder {
	return &Builder{dialect: d}
}

// Dialect returns the target dialect.
func (b *Builder) Dialect() metadata.Dialect {
	return b.dialect
}

// statement returns a squirrel builder with the dialect's placeholder format.
func (b *Builder) statement() squirrel.StatementBuilderType {
	if b.dialect == metadata.Postgres {
		return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	}
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

// Select builds the query for q.
func (b *Builder) Select(def *metadata.EntityDef, q filter.Query) (string, []any, error) {
	sel := b.statement().Select(def.Columns()...).From(def.TableName())

	cond, err := b.Where(def, q.Where)
	if err != nil {
		return "", nil, err
	}
	if cond != nil {
		sel = sel.Where(cond)
	}

	for _, ob := range q.Order {
		col, err := def.ColumnFor(ob.Field)
		if err != nil {
			return "", nil, apperror.NewInvalidFilter("invalid order field").WithDetail("field", ob.Field)
		}
		if ob.Desc {
			col += " DESC"
		} else {
			col += " ASC"
		}
		sel = sel.OrderBy(col)
	}

	if q.Limit > 0 {
		sel = sel.Limit(uint64(q.Limit))
	}
	if q.Offset > 0 {
		// SQLite rejects OFFSET without LIMIT
		if q.Limit <= 0 && b.dialect == metadata.SQLite {
			sel = sel.Limit(math.MaxInt64)
		}
		sel = sel.Offset(uint64(q.Offset))
	}

	return sel.ToSql()
}

// Count builds a COUNT(*) query.
func (b *Builder) Count(def *metadata.EntityDef, where *filter.Where) (string, []any, error) {
	sel := b.statement().Select("COUNT(*)").From(def.TableName())

	cond, err := b.Where(def, where)
	if err != nil {
		return "", nil, err
	}
	if cond != nil {
		sel = sel.Where(cond)
	}
	return sel.ToSql()
}

// Insert builds an INSERT for the declared fields present in rec.
func (b *Builder) Insert(def *metadata.EntityDef, rec entity.Record) (string, []any, error) {
	cols := make([]string, 0, len(rec))
	vals := make([]any, 0, len(rec))
	for _, f := range def.Fields {
		v, ok := rec[f.Name]
		if !ok {
			continue
		}
		cols = append(cols, f.ColumnName())
		vals = append(vals, b.arg(f, v))
	}
	if len(cols) == 0 {
		return "", nil, apperror.NewValidation("nothing to insert").WithDetail("entity", def.Name)
	}

	return b.statement().Insert(def.TableName()).Columns(cols...).Values(vals...).ToSql()
}

// Update builds an UPDATE applying patch to matching rows.
func (b *Builder) Update(def *metadata.EntityDef, where *filter.Where, patch entity.Record) (string, []any, error) {
	upd := b.statement().Update(def.TableName())

	n := 0
	for _, f := range def.Fields {
		v, ok := patch[f.Name]
		if !ok {
			continue
		}
		upd = upd.Set(f.ColumnName(), b.arg(f, v))
		n++
	}
	if n != len(patch) {
		for k := range patch {
			if _, ok := def.Field(k); !ok {
				return "", nil, apperror.NewValidation("unknown field in update").WithDetail("field", k)
			}
		}
	}
	if n == 0 {
		return "", nil, apperror.NewValidation("nothing to update").WithDetail("entity", def.Name)
	}

	cond, err := b.Where(def, where)
	if err != nil {
		return "", nil, err
	}
	if cond != nil {
		upd = upd.Where(cond)
	}
	return upd.ToSql()
}

// Delete builds a DELETE for matching rows.
func (b *Builder) Delete(def *metadata.EntityDef, where *filter.Where) (string, []any, error) {
	del := b.statement().Delete(def.TableName())

	cond, err := b.Where(def, where)
	if err != nil {
		return "", nil, err
	}
	if cond != nil {
		del = del.Where(cond)
	}
	return del.ToSql()
}

// Where compiles a condition tree. It returns nil for an empty tree.
func (b *Builder) Where(def *metadata.EntityDef, w *filter.Where) (squirrel.Sqlizer, error) {
	if w.IsEmpty() {
		return nil, nil
	}

	parts := squirrel.And{}
	for _, it := range w.Items {
		part, err := b.item(def, it)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}

	for _, child := range w.And {
		part, err := b.Where(def, child)
		if err != nil {
			return nil, err
		}
		if part != nil {
			parts = append(parts, part)
		}
	}

	if len(w.Or) > 0 {
		or := squirrel.Or{}
		for _, child := range w.Or {
			part, err := b.Where(def, child)
			if err != nil {
				return nil, err
			}
			if part != nil {
				or = append(or, part)
			}
		}
		switch len(or) {
		case 0:
		case 1:
			parts = append(parts, or[0])
		default:
			parts = append(parts, or)
		}
	}

	if w.Not != nil {
		part, err := b.Where(def, w.Not)
		if err != nil {
			return nil, err
		}
		if part != nil {
			parts = append(parts, not{part})
		}
	}

	switch len(parts) {
	case 0:
		return nil, nil
	case 1:
		return parts[0], nil
	default:
		return parts, nil
	}
}

func (b *Builder) item(def *metadata.EntityDef, it filter.Item) (squirrel.Sqlizer, error) {
	f, ok := def.Field(it.Field)
	if !ok {
		return nil, apperror.NewInvalidFilter("invalid filter field").WithDetail("field", it.Field)
	}
	col := f.ColumnName()

	switch it.Operator {
	case filter.IsNull:
		return squirrel.Eq{col: nil}, nil
	case filter.IsNotNull:
		return squirrel.NotEq{col: nil}, nil
	case filter.Equal:
		return squirrel.Eq{col: b.arg(f, it.Value)}, nil
	case filter.NotEqual:
		return squirrel.NotEq{col: b.arg(f, it.Value)}, nil
	case filter.Less:
		return squirrel.Lt{col: b.arg(f, it.Value)}, nil
	case filter.LessOrEqual:
		return squirrel.LtOrEq{col: b.arg(f, it.Value)}, nil
	case filter.Greater:
		return squirrel.Gt{col: b.arg(f, it.Value)}, nil
	case filter.GreaterOrEqual:
		return squirrel.GtOrEq{col: b.arg(f, it.Value)}, nil
	case filter.InList, filter.NotInList:
		list, ok := it.Value.([]any)
		if !ok {
			var err error
			if list, err = asList(it.Value); err != nil {
				return nil, apperror.NewInvalidFilter("list operator requires an array").WithDetail("field", it.Field)
			}
		}
		args := make([]any, len(list))
		for i, v := range list {
			args[i] = b.arg(f, v)
		}
		if it.Operator == filter.InList {
			return squirrel.Eq{col: args}, nil
		}
		return squirrel.NotEq{col: args}, nil
	case filter.Like:
		return squirrel.Like{col: fmt.Sprint(it.Value)}, nil
	case filter.NotLike:
		return squirrel.NotLike{col: fmt.Sprint(it.Value)}, nil
	case filter.Contains, filter.NotContains:
		pattern := "%" + fmt.Sprint(it.Value) + "%"
		// SQLite LIKE is already case-insensitive for ASCII
		switch {
		case b.dialect == metadata.SQLite && it.Operator == filter.Contains:
			return squirrel.Like{col: pattern}, nil
		case b.dialect == metadata.SQLite:
			return squirrel.NotLike{col: pattern}, nil
		case it.Operator == filter.Contains:
			return squirrel.ILike{col: pattern}, nil
		default:
			return squirrel.NotILike{col: pattern}, nil
		}
	}

	return nil, apperror.NewInvalidFilter("unsupported operator").
		WithDetail("field", it.Field).
		WithDetail("operator", string(it.Operator))
}

// arg converts a filter or record value to the form stored in the column.
func (b *Builder) arg(f metadata.FieldDef, v any) any {
	switch x := v.(type) {
	case uuid.UUID:
		return x.String()
	case *uuid.UUID:
		if x == nil {
			return nil
		}
		return x.String()
	case time.Time:
		return x.UTC()
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.UTC()
	case string:
		if f.Type == metadata.TypeDateTime {
			if t, err := time.Parse(time.RFC3339Nano, x); err == nil {
				return t.UTC()
			}
		}
	}
	return v
}

func asList(v any) ([]any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%T is not a list", v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// not negates a compiled condition.
type not struct {
	pred squirrel.Sqlizer
}

func (n not) ToSql() (string, []any, error) {
	sql, args, err := n.pred.ToSql()
	if err != nil {
		return "", nil, err
	}
	return "NOT (" + sql + ")", args, nil
}
