// Package sqlite stores governed models in a SQLite file through go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"tombstone/internal/core/apperror"
	"tombstone/internal/core/entity"
	"tombstone/internal/core/tx"
	"tombstone/internal/domain/filter"
	"tombstone/internal/domain/model"
	"tombstone/internal/infrastructure/storage/sqlbuild"
	"tombstone/internal/metadata"
	"tombstone/pkg/logger"
)

var (
	_ model.Store = (*Store)(nil)
	_ tx.Manager  = (*Store)(nil)
)

// Store implements model.Store on SQLite.
type Store struct {
	db  *sql.DB
	sql *sqlbuild.Builder
}

// Open creates or opens the database at path and applies the connection pragmas:
// WAL journal, NORMAL synchronous, a 5s busy timeout and foreign keys.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// single writer avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return &Store{db: db, sql: sqlbuild.New(metadata.SQLite)}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type txKey struct{}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) conn(ctx context.Context) querier {
	if t, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return t
	}
	return s.db
}

// RunInTransaction implements tx.Manager. Nested calls join the outer transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, sqlTx)); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			logger.Error(ctx, "rollback failed", "error", rbErr, "original_error", err)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, def *metadata.EntityDef, rec entity.Record) error {
	query, args, err := s.sql.Insert(def, rec)
	if err != nil {
		return err
	}
	if _, err := s.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		return mapError(def, "insert", err)
	}
	return nil
}

func (s *Store) Find(ctx context.Context, def *metadata.EntityDef, q filter.Query) ([]entity.Record, error) {
	query, args, err := s.sql.Select(def, q)
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "select", "sql", query)

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(def, "select", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, mapError(def, "select", err)
	}

	out := make([]entity.Record, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, mapError(def, "select", err)
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		out = append(out, sqlbuild.Record(def, row))
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(def, "select", err)
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, def *metadata.EntityDef, where *filter.Where) (int64, error) {
	query, args, err := s.sql.Count(def, where)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := s.conn(ctx).QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapError(def, "count", err)
	}
	return n, nil
}

func (s *Store) UpdateAll(ctx context.Context, def *metadata.EntityDef, where *filter.Where, patch entity.Record) (int64, error) {
	query, args, err := s.sql.Update(def, where, patch)
	if err != nil {
		return 0, err
	}
	logger.Debug(ctx, "update", "sql", query)
	return s.exec(ctx, def, "update", query, args)
}

func (s *Store) DeleteAll(ctx context.Context, def *metadata.EntityDef, where *filter.Where) (int64, error) {
	query, args, err := s.sql.Delete(def, where)
	if err != nil {
		return 0, err
	}
	logger.Debug(ctx, "delete", "sql", query)
	return s.exec(ctx, def, "delete", query, args)
}

func (s *Store) exec(ctx context.Context, def *metadata.EntityDef, op, query string, args []any) (int64, error) {
	res, err := s.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapError(def, op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, mapError(def, op, err)
	}
	return n, nil
}

// mapError converts driver errors into AppError.
func mapError(def *metadata.EntityDef, op string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return apperror.NewDuplicate(def.Name, def.IDName(), nil).WithCause(err)
		}
	}
	return apperror.NewDatabase(op, err)
}
