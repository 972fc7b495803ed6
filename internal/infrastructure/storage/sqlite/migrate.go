package sqlite

import (
	"context"
	"fmt"

	"tombstone/internal/metadata"
	"tombstone/pkg/logger"
)

// Migrate creates missing tables, adds columns declared on the model but
// absent from an existing table, and creates indexes, in one transaction.
func (s *Store) Migrate(ctx context.Context, defs ...*metadata.EntityDef) error {
	return s.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, def := range defs {
			stmts, err := s.plan(ctx, def)
			if err != nil {
				return err
			}
			for _, stmt := range stmts {
				if _, err := s.conn(ctx).ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("migrate %s: %w", def.Name, err)
				}
			}
			logger.Info(ctx, "model migrated", "model", def.Name, "table", def.TableName(), "statements", len(stmts))
		}
		return nil
	})
}

// plan returns the statements needed for def against the current schema.
func (s *Store) plan(ctx context.Context, def *metadata.EntityDef) ([]string, error) {
	existing, err := s.columns(ctx, def.TableName())
	if err != nil {
		return nil, err
	}

	var stmts []string
	if len(existing) == 0 {
		stmts = append(stmts, metadata.CreateTableSQL(def, metadata.SQLite))
	} else {
		for _, f := range def.Fields {
			if _, ok := existing[f.ColumnName()]; !ok {
				stmts = append(stmts, metadata.AddColumnSQL(def, f, metadata.SQLite))
			}
		}
	}
	return append(stmts, metadata.IndexSQL(def)...), nil
}

// columns lists the columns of table; an empty set means the table does not exist.
func (s *Store) columns(ctx context.Context, table string) (map[string]struct{}, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("table info %s: %w", table, err)
		}
		cols[name] = struct{}{}
	}
	return cols, rows.Err()
}
