package model

import (
	"context"

	"tombstone/internal/core/entity"
	"tombstone/internal/domain/filter"
	"tombstone/internal/metadata"
)

// Store is the persistence engine behind a model. Field names in records,
// filters and patches are model field names; implementations map them to columns.
type Store interface {
	// Create inserts a record.
	Create(ctx context.Context, def *metadata.EntityDef, rec entity.Record) error

	// Find returns records matching q.Where, ordered and paginated by q.
	Find(ctx context.Context, def *metadata.EntityDef, q filter.Query) ([]entity.Record, error)

	// Count returns the number of records matching where.
	Count(ctx context.Context, def *metadata.EntityDef, where *filter.Where) (int64, error)

	// UpdateAll applies patch to every record matching where and returns the affected count.
	UpdateAll(ctx context.Context, def *metadata.EntityDef, where *filter.Where, patch entity.Record) (int64, error)

	// DeleteAll physically removes matching records and returns the affected count.
	DeleteAll(ctx context.Context, def *metadata.EntityDef, where *filter.Where) (int64, error)
}
