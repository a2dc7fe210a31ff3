// Package objectstore persists the patient repository as one JSON object per
// slot in a blob store (filesystem, S3 or memory).
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/rs/zerolog"

	"perfusioncore/internal/blob"
	"perfusioncore/internal/infra/persistence/memory"
	"perfusioncore/internal/infra/persistence/slots"
	"perfusioncore/pkg/domain"
)

var _ domain.PersistentStore = (*Store)(nil)

// DefaultPrefix is the key prefix used when none is configured.
const DefaultPrefix = "perfusioncore"

const contentType = "application/json"

// Store wraps the in-memory store and writes touched slots to blobs before
// the transaction becomes visible. Slots are separate objects, so a failure
// part-way through restores the objects already written to their previous
// bytes.
type Store struct {
	*memory.Store
	blobs  blob.Store
	prefix string
	codec  slots.Codec
	log    zerolog.Logger
	last   map[domain.Slot][]byte
}

// NewStore loads every slot from blobs under prefix and returns the store.
func NewStore(ctx context.Context, blobs blob.Store, prefix string, engine *domain.RulesEngine, opts ...slots.Option) (*Store, error) {
	if blobs == nil {
		return nil, errors.New("objectstore: nil blob store")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	o := slots.ApplyOptions(opts)
	o.Logger = o.Logger.With().Str("store", "blob").Str("driver", string(blobs.Driver())).Str("prefix", prefix).Logger()
	s := &Store{
		blobs:  blobs,
		prefix: prefix,
		codec:  slots.NewCodec(o.Logger),
		log:    o.Logger,
		last:   make(map[domain.Slot][]byte, len(domain.Slots)),
	}
	raw, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for slot, data := range raw {
		s.last[slot] = data
	}
	s.Store = slots.Hydrate(raw, engine, o)
	return s, nil
}

// Key returns the blob key holding slot.
func (s *Store) Key(slot domain.Slot) string {
	return path.Join(s.prefix, string(slot)+".json")
}

func (s *Store) load(ctx context.Context) (map[domain.Slot][]byte, error) {
	raw := make(map[domain.Slot][]byte, len(domain.Slots))
	for _, slot := range domain.Slots {
		_, rc, err := s.blobs.Get(ctx, s.Key(slot))
		if errors.Is(err, blob.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load slot %s: %w", slot, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read slot %s: %w", slot, err)
		}
		raw[slot] = data
	}
	return raw, nil
}

func (s *Store) persist(ctx context.Context, candidate memory.Snapshot, dirty []domain.Slot) error {
	payloads, err := s.codec.EncodeSlots(candidate, dirty)
	if err != nil {
		return err
	}
	written := make([]domain.Slot, 0, len(payloads))
	for _, p := range payloads {
		if err := s.put(ctx, p.Slot, p.Data); err != nil {
			s.restore(ctx, written)
			return &domain.PersistError{Slot: p.Slot, Err: fmt.Errorf("put: %w", err)}
		}
		written = append(written, p.Slot)
	}
	for _, p := range payloads {
		s.last[p.Slot] = p.Data
	}
	return nil
}

func (s *Store) put(ctx context.Context, slot domain.Slot, data []byte) error {
	_, err := s.blobs.Put(ctx, s.Key(slot), bytes.NewReader(data), blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"slot": string(slot)},
	})
	return err
}

// restore puts back the previously persisted bytes of slots written by a
// failed persist. Slots that were never persisted are deleted.
func (s *Store) restore(ctx context.Context, written []domain.Slot) {
	for _, slot := range written {
		prev, ok := s.last[slot]
		var err error
		if ok {
			err = s.put(ctx, slot, prev)
		} else {
			_, err = s.blobs.Delete(ctx, s.Key(slot))
		}
		if err != nil {
			s.log.Error().Err(err).Str("slot", string(slot)).Msg("failed to restore slot after partial write")
		}
	}
}

// RunInTransaction applies fn, persists the touched slots and only then
// publishes the new state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	return s.Store.RunInTransactionWithHook(ctx, fn, s.persist)
}

// Blobs exposes the underlying blob store.
func (s *Store) Blobs() blob.Store { return s.blobs }
