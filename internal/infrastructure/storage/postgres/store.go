package postgres

import (
	"context"
	"errors"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"tombstone/internal/core/apperror"
	"tombstone/internal/core/entity"
	"tombstone/internal/domain/filter"
	"tombstone/internal/domain/model"
	"tombstone/internal/infrastructure/storage/sqlbuild"
	"tombstone/internal/metadata"
	"tombstone/pkg/logger"
)

var _ model.Store = (*Store)(nil)

// PostgreSQL error codes mapped to AppError.
const (
	codeUniqueViolation    = "23505"
	codeInvalidTextRepr    = "22P02"
	codeUndefinedColumn    = "42703"
	codeUndefinedTable     = "42P01"
	codeInvalidDatetime    = "22007"
	codeDatetimeOutOfRange = "22008"
)

// Store implements model.Store on PostgreSQL. Statements run inside the
// transaction carried by ctx when there is one.
type Store struct {
	txm *TxManager
	sql *sqlbuild.Builder
}

// NewStore creates a store using the transaction manager's pool.
func NewStore(txm *TxManager) *Store {
	return &Store{txm: txm, sql: sqlbuild.New(metadata.Postgres)}
}

// RunInTransaction implements tx.Manager.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.txm.RunInTransaction(ctx, fn)
}

func (s *Store) Create(ctx context.Context, def *metadata.EntityDef, rec entity.Record) error {
	query, args, err := s.sql.Insert(def, rec)
	if err != nil {
		return err
	}
	if _, err := s.txm.GetQuerier(ctx).Exec(ctx, query, args...); err != nil {
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

	var rows []map[string]any
	if err := pgxscan.Select(ctx, s.txm.GetQuerier(ctx), &rows, query, args...); err != nil {
		return nil, mapError(def, "select", err)
	}

	out := make([]entity.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, sqlbuild.Record(def, row))
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, def *metadata.EntityDef, where *filter.Where) (int64, error) {
	query, args, err := s.sql.Count(def, where)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := s.txm.GetQuerier(ctx).QueryRow(ctx, query, args...).Scan(&n); err != nil {
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

	tag, err := s.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return 0, mapError(def, "update", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) DeleteAll(ctx context.Context, def *metadata.EntityDef, where *filter.Where) (int64, error) {
	query, args, err := s.sql.Delete(def, where)
	if err != nil {
		return 0, err
	}
	logger.Debug(ctx, "delete", "sql", query)

	tag, err := s.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return 0, mapError(def, "delete", err)
	}
	return tag.RowsAffected(), nil
}

// Migrate creates tables, missing columns and indexes for the definitions in
// one transaction. Statements are sent as a single batch per model.
func (s *Store) Migrate(ctx context.Context, defs ...*metadata.EntityDef) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		pgTx := s.txm.GetTx(ctx)
		for _, def := range defs {
			stmts := metadata.MigrationSQL(def, metadata.Postgres)

			batch := &pgx.Batch{}
			for _, stmt := range stmts {
				batch.Queue(stmt)
			}

			results := pgTx.SendBatch(ctx, batch)
			for range stmts {
				if _, err := results.Exec(); err != nil {
					_ = results.Close()
					return mapError(def, "migrate", err)
				}
			}
			if err := results.Close(); err != nil {
				return mapError(def, "migrate", err)
			}
			logger.Info(ctx, "model migrated", "model", def.Name, "table", def.TableName(), "statements", len(stmts))
		}
		return nil
	})
}

// mapError converts driver errors into AppError.
func mapError(def *metadata.EntityDef, op string, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return apperror.NewDatabase(op, err)
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		field := def.IDName()
		if f, ok := def.FieldByColumn(pgErr.ColumnName); ok {
			field = f.Name
		}
		return apperror.NewDuplicate(def.Name, field, nil).
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case codeInvalidTextRepr, codeInvalidDatetime, codeDatetimeOutOfRange:
		return apperror.NewInvalidFilter("invalid value for column type").WithCause(err)
	case codeUndefinedColumn, codeUndefinedTable:
		return apperror.NewDatabase(op, err).WithDetail("hint", "run migrations for "+def.TableName())
	}
	return apperror.NewDatabase(op, err)
}
