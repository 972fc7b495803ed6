package bootstrap

import (
	"context"
	"fmt"

	"tombstone/internal/config"
	"tombstone/internal/domain/model"
	"tombstone/internal/infrastructure/storage/memory"
	"tombstone/internal/infrastructure/storage/postgres"
	"tombstone/internal/infrastructure/storage/sqlite"
	"tombstone/internal/metadata"
	"tombstone/pkg/logger"
)

// Storage is an opened store with its lifecycle hooks.
type Storage struct {
	Driver string
	Store  model.Store

	// Ping is nil for the memory driver.
	Ping func(ctx context.Context) error

	// Migrate is nil for the memory driver.
	Migrate func(ctx context.Context, defs ...*metadata.EntityDef) error

	Close func()
}

// OpenStorage opens the store selected by cfg.StorageDriver.
func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		return &Storage{
			Driver: cfg.StorageDriver,
			Store:  memory.New(),
			Close:  func() {},
		}, nil

	case config.DriverPostgres:
		poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
		poolCfg.MaxConns = cfg.DBMaxConns
		poolCfg.MinConns = cfg.DBMinConns

		pool, err := postgres.NewPool(ctx, poolCfg)
		if err != nil {
			return nil, err
		}
		store := postgres.NewStore(postgres.NewTxManager(pool))
		return &Storage{
			Driver:  cfg.StorageDriver,
			Store:   store,
			Ping:    pool.Ping,
			Migrate: store.Migrate,
			Close:   pool.Close,
		}, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info(ctx, "sqlite database opened", "path", cfg.SQLitePath)
		return &Storage{
			Driver:  cfg.StorageDriver,
			Store:   store,
			Ping:    store.Ping,
			Migrate: store.Migrate,
			Close: func() {
				if err := store.Close(); err != nil {
					logger.Warn(ctx, "failed to close sqlite database", "error", err)
				}
			},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

// Dialect returns the SQL dialect of the driver; memory has none.
func (s *Storage) Dialect() (metadata.Dialect, bool) {
	switch s.Driver {
	case config.DriverPostgres:
		return metadata.Postgres, true
	case config.DriverSQLite:
		return metadata.SQLite, true
	}
	return "", false
}
