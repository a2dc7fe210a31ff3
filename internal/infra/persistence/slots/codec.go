// Package slots encodes and decodes the persisted patient and calculation
// collections. Each slot holds one whole collection as a JSON array; the
// durable stores only move the bytes.
package slots

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"perfusioncore/internal/infra/persistence/memory"
	"perfusioncore/pkg/domain"
)

// Payload is the encoded form of one slot.
type Payload struct {
	Slot domain.Slot
	Data []byte
}

// Codec converts between store snapshots and slot payloads.
type Codec struct {
	log zerolog.Logger
}

// NewCodec returns a codec that reports degraded slots through log.
func NewCodec(log zerolog.Logger) Codec {
	return Codec{log: log}
}

// Encode serialises one slot of s. Empty collections encode as [].
func (c Codec) Encode(s memory.Snapshot, slot domain.Slot) ([]byte, error) {
	switch slot {
	case domain.SlotPatients:
		patients := s.Patients
		if patients == nil {
			patients = []domain.Patient{}
		}
		return json.Marshal(patients)
	case domain.SlotCalculations:
		calcs := s.Calculations
		if calcs == nil {
			calcs = []domain.CalculationResult{}
		}
		return json.Marshal(calcs)
	}
	return nil, fmt.Errorf("unknown slot %q", slot)
}

// EncodeSlots serialises the listed slots in order. Encoding failures are
// reported as *domain.PersistError.
func (c Codec) EncodeSlots(s memory.Snapshot, slots []domain.Slot) ([]Payload, error) {
	out := make([]Payload, 0, len(slots))
	for _, slot := range slots {
		data, err := c.Encode(s, slot)
		if err != nil {
			return nil, &domain.PersistError{Slot: slot, Err: fmt.Errorf("encode: %w", err)}
		}
		out = append(out, Payload{Slot: slot, Data: data})
	}
	return out, nil
}

// DecodeStrict parses a slot payload and returns the decoding error, if any.
func DecodeStrict(slot domain.Slot, data []byte, s *memory.Snapshot) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch slot {
	case domain.SlotPatients:
		var patients []domain.Patient
		if err := json.Unmarshal(data, &patients); err != nil {
			return fmt.Errorf("decode %s: %w", slot, err)
		}
		s.Patients = patients
	case domain.SlotCalculations:
		var calcs []domain.CalculationResult
		if err := json.Unmarshal(data, &calcs); err != nil {
			return fmt.Errorf("decode %s: %w", slot, err)
		}
		s.Calculations = calcs
	default:
		return fmt.Errorf("unknown slot %q", slot)
	}
	return nil
}

// Decode builds a snapshot from raw slot payloads. A missing slot yields an
// empty collection. Records that fail to decode are skipped and logged; a
// payload that is not an array at all yields an empty collection so that the
// other slot still loads.
func (c Codec) Decode(raw map[domain.Slot][]byte) memory.Snapshot {
	var s memory.Snapshot
	for _, slot := range domain.Slots {
		data, ok := raw[slot]
		if !ok {
			c.log.Debug().Str("slot", string(slot)).Msg("slot not found, starting empty")
			continue
		}
		if err := DecodeStrict(slot, data, &s); err != nil {
			c.decodeRecords(slot, data, &s, err)
		}
	}
	for key := range raw {
		if !known(key) {
			c.log.Debug().Str("slot", string(key)).Msg("ignoring unknown slot")
		}
	}
	return s
}

// decodeRecords salvages a slot whose array decodes but some of whose
// records do not. Undecodable records are skipped with a warning; a payload
// that is not a JSON array is discarded whole.
func (c Codec) decodeRecords(slot domain.Slot, data []byte, s *memory.Snapshot, cause error) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		c.log.Warn().Err(cause).Str("slot", string(slot)).Int("bytes", len(data)).Msg("discarding unreadable slot")
		return
	}
	skipped := 0
	for i, rec := range records {
		var err error
		switch slot {
		case domain.SlotPatients:
			var p domain.Patient
			if err = json.Unmarshal(rec, &p); err == nil {
				s.Patients = append(s.Patients, p)
			}
		case domain.SlotCalculations:
			var calc domain.CalculationResult
			if err = json.Unmarshal(rec, &calc); err == nil {
				s.Calculations = append(s.Calculations, calc)
			}
		default:
			c.log.Warn().Err(cause).Str("slot", string(slot)).Msg("discarding unreadable slot")
			return
		}
		if err != nil {
			skipped++
			c.log.Warn().Err(err).Str("slot", string(slot)).Int("index", i).Msg("skipping unreadable record")
		}
	}
	c.log.Warn().Str("slot", string(slot)).Int("skipped", skipped).Int("loaded", len(records)-skipped).Msg("slot partially loaded")
}

func known(slot domain.Slot) bool {
	for _, s := range domain.Slots {
		if s == slot {
			return true
		}
	}
	return false
}

// Options carries the settings shared by the durable slot stores.
type Options struct {
	Logger        zerolog.Logger
	MemoryOptions []memory.Option
}

// Option configures a durable slot store.
type Option func(*Options)

// WithLogger sets the logger used for load diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(o *Options) { o.Logger = log }
}

// WithMemoryOptions forwards options to the wrapped in-memory store.
func WithMemoryOptions(opts ...memory.Option) Option {
	return func(o *Options) { o.MemoryOptions = append(o.MemoryOptions, opts...) }
}

// ApplyOptions resolves opts over the defaults.
func ApplyOptions(opts []Option) Options {
	o := Options{Logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Hydrate builds an in-memory store holding the decoded slots.
func Hydrate(raw map[domain.Slot][]byte, engine *domain.RulesEngine, o Options) *memory.Store {
	mem := memory.NewStore(engine, o.MemoryOptions...)
	mem.ImportState(NewCodec(o.Logger).Decode(raw))
	return mem
}
