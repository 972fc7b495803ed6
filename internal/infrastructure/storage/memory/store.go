// Package memory provides an in-process Store used by default and in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"tombstone/internal/core/apperror"
	"tombstone/internal/core/entity"
	"tombstone/internal/domain/filter"
	"tombstone/internal/domain/model"
	"tombstone/internal/metadata"
)

var _ model.Store = (*Store)(nil)

// Store keeps records per table in insertion order. Returned records are copies.
type Store struct {
	mu     sync.RWMutex
	tables map[string][]entity.Record
}

// New creates an empty store.
func New() *Store {
	return &Store{tables: make(map[string][]entity.Record)}
}

// Create inserts a record; identifiers must be unique per table.
func (s *Store) Create(ctx context.Context, def *metadata.EntityDef, rec entity.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idField := def.IDName()
	newID := normalize(rec[idField])
	for _, existing := range s.tables[def.TableName()] {
		if equal(normalize(existing[idField]), newID) {
			return apperror.NewDuplicate(def.Name, idField, rec[idField])
		}
	}
	s.tables[def.TableName()] = append(s.tables[def.TableName()], rec.Clone())
	return nil
}

// Find returns matching records ordered and paginated by q.
func (s *Store) Find(ctx context.Context, def *metadata.EntityDef, q filter.Query) ([]entity.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkFields(def, q.Where); err != nil {
		return nil, err
	}
	for _, ob := range q.Order {
		if _, ok := def.Field(ob.Field); !ok {
			return nil, apperror.NewInvalidFilter("invalid order field").WithDetail("field", ob.Field)
		}
	}

	s.mu.RLock()
	out := make([]entity.Record, 0)
	for _, rec := range s.tables[def.TableName()] {
		ok, err := matches(rec, q.Where)
		if err != nil {
			s.mu.RUnlock()
			return nil, err
		}
		if ok {
			out = append(out, rec.Clone())
		}
	}
	s.mu.RUnlock()

	if len(q.Order) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, ob := range q.Order {
				c := order(normalize(out[i][ob.Field]), normalize(out[j][ob.Field]))
				if c == 0 {
					continue
				}
				if ob.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return []entity.Record{}, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out, nil
}

// Count returns the number of matching records.
func (s *Store) Count(ctx context.Context, def *metadata.EntityDef, where *filter.Where) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := checkFields(def, where); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, rec := range s.tables[def.TableName()] {
		ok, err := matches(rec, where)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// UpdateAll applies patch to matching records under one lock. Every record is
// matched first; a filter error leaves all records unchanged.
func (s *Store) UpdateAll(ctx context.Context, def *metadata.EntityDef, where *filter.Where, patch entity.Record) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := checkFields(def, where); err != nil {
		return 0, err
	}
	for k := range patch {
		if _, ok := def.Field(k); !ok {
			return 0, apperror.NewValidation("unknown field in update").WithDetail("field", k)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	hits, err := matching(s.tables[def.TableName()], where)
	if err != nil {
		return 0, err
	}
	for _, rec := range hits {
		for k, v := range patch {
			rec[k] = v
		}
	}
	return int64(len(hits)), nil
}

// DeleteAll removes matching records. The table is replaced only on success.
func (s *Store) DeleteAll(ctx context.Context, def *metadata.EntityDef, where *filter.Where) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := checkFields(def, where); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.tables[def.TableName()]
	kept := make([]entity.Record, 0, len(rows))
	var n int64
	for _, rec := range rows {
		ok, err := matches(rec, where)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
			continue
		}
		kept = append(kept, rec)
	}
	s.tables[def.TableName()] = kept
	return n, nil
}

// matching evaluates where against every row before anything is written, so
// a filter error leaves the table untouched.
func matching(rows []entity.Record, where *filter.Where) ([]entity.Record, error) {
	var hits []entity.Record
	for _, rec := range rows {
		ok, err := matches(rec, where)
		if err != nil {
			return nil, err
		}
		if ok {
			hits = append(hits, rec)
		}
	}
	return hits, nil
}

func checkFields(def *metadata.EntityDef, where *filter.Where) error {
	for _, f := range where.Fields() {
		if _, ok := def.Field(f); !ok {
			return apperror.NewInvalidFilter("invalid filter field").WithDetail("field", f)
		}
	}
	return nil
}
