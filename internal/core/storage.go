package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"perfusioncore/internal/blob"
	"perfusioncore/internal/infra/persistence/memory"
	"perfusioncore/internal/infra/persistence/objectstore"
	"perfusioncore/internal/infra/persistence/postgres"
	"perfusioncore/internal/infra/persistence/slots"
	"perfusioncore/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageBlob     StorageDriver = "blob"     // one object per slot in a blob store
)

// StorageConfig selects and configures the persistent store.
type StorageConfig struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
	Blob        blob.Config
	BlobPrefix  string
}

// OpenPersistentStore builds the store selected by cfg, defaulting to sqlite.
// Stores holding a connection implement io.Closer.
func OpenPersistentStore(ctx context.Context, cfg StorageConfig, engine *RulesEngine, log zerolog.Logger) (PersistentStore, error) {
	opts := []slots.Option{slots.WithLogger(log)}
	switch cfg.Driver {
	case StorageSQLite, "":
		store, err := sqlite.NewStore(cfg.SQLitePath, engine, opts...)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StoragePostgres:
		dsn := cfg.PostgresDSN
		if dsn == "" {
			dsn = postgres.DefaultDSN
		}
		store, err := postgres.NewStore(ctx, dsn, engine, opts...)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StorageBlob:
		blobs, err := blob.Open(ctx, cfg.Blob)
		if err != nil {
			return nil, fmt.Errorf("open blob store: %w", err)
		}
		store, err := objectstore.NewStore(ctx, blobs, cfg.BlobPrefix, engine, opts...)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}
