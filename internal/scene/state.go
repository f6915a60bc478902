package scene

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/radiance-go/visibility/internal/rerr"
)

var errMalformedBatch = errors.New("scene: wire batch length not a multiple of the record size")

// slotStatus tracks, within a single batch validation pass, what kind
// of update a slot has already seen.
type slotStatus int

const (
	statusUntouched slotStatus = iota
	statusAdded
	statusOther
)

// State is the host-side mirror of the instance/light tables. It never
// holds the authoritative copy — that lives entirely on the GPU — and
// exists only to validate batches before they are submitted, and to
// track each slot's occupancy for the host's own bookkeeping (e.g.
// picking a free slot for the next Add).
type State struct {
	instanceOccupied map[uint32]bool
	lightOccupied    map[uint32]bool

	invalidBatches uint64
}

// NewState constructs an empty host mirror.
func NewState() *State {
	return &State{
		instanceOccupied: make(map[uint32]bool),
		lightOccupied:    make(map[uint32]bool),
	}
}

// InvalidBatches returns the running count of batches rejected by
// Validate, the telemetry counter incremented whenever a batch is
// silently dropped with respect to GPU state.
func (s *State) InvalidBatches() uint64 { return s.invalidBatches }

// Validate checks a batch against the scene state manager's
// invariants without mutating GPU state:
//
//   - the host must not submit an Add and a later ChangeMesh update to
//     the same slot in the same batch (only ChangeTransform or Move
//     may follow an Add to the same slot: ChangeTransform because it
//     only ever mutates the transform fields Add already initialized,
//     Move because it fully overwrites the target slot's contents
//     rather than depending on anything Add wrote, so a compacting
//     batch like Add(5, …), Add(7, …), Move(5, 7) is valid and must
//     not be rejected — this is spec's own worked compaction example);
//   - a Move (or MoveLight) is rejected when a later update in the
//     same batch writes its source slot: every in-batch write of a
//     Move's source must precede the Move in dispatch-index order (a
//     source the batch never writes is not checked).
//
// On violation, Validate returns an error wrapping
// rerr.ErrInvalidUpdate, increments the InvalidBatches count and
// leaves the instance/light occupancy unchanged; the caller must not
// submit the batch, and
// should increment whatever telemetry counter it exposes alongside
// this package's own InvalidBatches count.
func (s *State) Validate(b *Batch) error {
	instance := make(map[uint32]slotStatus, len(b.Updates))
	light := make(map[uint32]slotStatus, len(b.Updates))
	// Last dispatch index at which each slot is written in this batch.
	instanceWritten := make(map[uint32]int)
	lightWritten := make(map[uint32]int)
	for i, u := range b.Updates {
		if u.Kind == KindAddLight || u.Kind == KindMoveLight {
			lightWritten[u.Slot] = i
		} else {
			instanceWritten[u.Slot] = i
		}
	}

	for i, u := range b.Updates {
		switch u.Kind {
		case KindAdd:
			if st := instance[u.Slot]; st != statusUntouched {
				s.invalidBatches++
				return fmt.Errorf("scene: slot %d: Add after an earlier update in the same batch: %w", u.Slot, rerr.ErrInvalidUpdate)
			}
			instance[u.Slot] = statusAdded
		case KindChangeTransform:
			// ChangeTransform is always permitted to follow an Add.
		case KindChangeMesh:
			if st := instance[u.Slot]; st == statusAdded {
				s.invalidBatches++
				return fmt.Errorf("scene: slot %d: ChangeMesh after Add in the same batch (only ChangeTransform may follow): %w", u.Slot, rerr.ErrInvalidUpdate)
			}
			instance[u.Slot] = statusOther
		case KindMove:
			// Move is exempt from the "Add then later update to the
			// same slot" restriction that applies to ChangeMesh: Move
			// fully overwrites its target slot's contents from src
			// rather than mutating what Add wrote, so an Add followed
			// by a Move targeting the same slot in one batch is valid
			// compaction (e.g. Add(5, …), Add(7, …), Move(5, 7)) and
			// leaves no partially-applied Add state behind.
			src := binary.LittleEndian.Uint32(u.Payload[0:])
			if wroteAt, ok := instanceWritten[src]; ok && wroteAt > i {
				s.invalidBatches++
				return fmt.Errorf("scene: slot %d: Move source %d written out of order in the same batch: %w", u.Slot, src, rerr.ErrInvalidUpdate)
			}
			instance[u.Slot] = statusOther
		case KindAddLight:
			if st := light[u.Slot]; st != statusUntouched {
				s.invalidBatches++
				return fmt.Errorf("scene: light slot %d: AddLight after an earlier update in the same batch: %w", u.Slot, rerr.ErrInvalidUpdate)
			}
			light[u.Slot] = statusAdded
		case KindMoveLight:
			src := binary.LittleEndian.Uint32(u.Payload[0:])
			if wroteAt, ok := lightWritten[src]; ok && wroteAt > i {
				s.invalidBatches++
				return fmt.Errorf("scene: light slot %d: MoveLight source %d written out of order in the same batch: %w", u.Slot, src, rerr.ErrInvalidUpdate)
			}
			light[u.Slot] = statusOther
		default:
			s.invalidBatches++
			return fmt.Errorf("scene: slot %d: unknown update kind %d: %w", u.Slot, u.Kind, rerr.ErrInvalidUpdate)
		}
	}
	return nil
}

// Apply mirrors a validated batch's occupancy effects into the host
// state. Callers must call Validate first; Apply does not re-check the
// invariants.
func (s *State) Apply(b *Batch) {
	for _, u := range b.Updates {
		switch u.Kind {
		case KindAdd:
			s.instanceOccupied[u.Slot] = true
		case KindMove:
			src := binary.LittleEndian.Uint32(u.Payload[0:])
			s.instanceOccupied[u.Slot] = s.instanceOccupied[src]
			delete(s.instanceOccupied, src)
		case KindAddLight:
			s.lightOccupied[u.Slot] = true
		case KindMoveLight:
			src := binary.LittleEndian.Uint32(u.Payload[0:])
			s.lightOccupied[u.Slot] = s.lightOccupied[src]
			delete(s.lightOccupied, src)
		}
	}
}

// InstanceOccupied reports whether the host mirror believes slot holds
// a live instance.
func (s *State) InstanceOccupied(slot uint32) bool { return s.instanceOccupied[slot] }

// LightOccupied reports whether the host mirror believes slot holds a
// live light.
func (s *State) LightOccupied(slot uint32) bool { return s.lightOccupied[slot] }
