// Package sqlite persists the patient repository to a single SQLite table,
// one row per slot.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"perfusioncore/internal/infra/persistence/memory"
	"perfusioncore/internal/infra/persistence/slots"
	"perfusioncore/pkg/domain"
)

var _ domain.PersistentStore = (*Store)(nil)

// DefaultPath is used when no database path is configured.
const DefaultPath = "perfusioncore.db"

// Store wraps the in-memory store and writes the slots a transaction touched
// to SQLite before the transaction becomes visible.
type Store struct {
	*memory.Store
	db    *sql.DB
	codec slots.Codec
	path  string
}

// NewStore opens (creating if needed) the database at path and loads both slots.
func NewStore(path string, engine *domain.RulesEngine, opts ...slots.Option) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	raw, err := loadSlots(context.Background(), db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	o := slots.ApplyOptions(opts)
	o.Logger = o.Logger.With().Str("store", "sqlite").Str("path", path).Logger()
	return &Store{
		Store: slots.Hydrate(raw, engine, o),
		db:    db,
		codec: slots.NewCodec(o.Logger),
		path:  path,
	}, nil
}

func loadSlots(ctx context.Context, db *sql.DB) (map[domain.Slot][]byte, error) {
	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return nil, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	raw := make(map[domain.Slot][]byte)
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		raw[domain.Slot(bucket)] = payload
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate state: %w", err)
	}
	return raw, nil
}

func (s *Store) persist(ctx context.Context, candidate memory.Snapshot, dirty []domain.Slot) (retErr error) {
	payloads, err := s.codec.EncodeSlots(candidate, dirty)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.PersistError{Err: fmt.Errorf("begin: %w", err)}
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, p := range payloads {
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, string(p.Slot), p.Data); err != nil {
			return &domain.PersistError{Slot: p.Slot, Err: fmt.Errorf("upsert: %w", err)}
		}
	}
	if err := tx.Commit(); err != nil {
		return &domain.PersistError{Err: fmt.Errorf("commit: %w", err)}
	}
	return nil
}

// RunInTransaction applies fn, persists the touched slots and only then
// publishes the new state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	return s.Store.RunInTransactionWithHook(ctx, fn, s.persist)
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
