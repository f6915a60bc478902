package scene

import (
	"errors"
	"testing"

	"github.com/radiance-go/visibility/internal/rerr"
)

func TestValidateAcceptsAddThenChangeTransform(t *testing.T) {
	s := NewState()
	var b Batch
	b.Add(EncodeAdd(5, AddPayload{}))
	b.Add(EncodeChangeTransform(5, [16]float32{}))
	if err := s.Validate(&b); err != nil {
		t.Fatalf("Validate: unexpected error %v", err)
	}
}

func TestValidateRejectsAddThenChangeMesh(t *testing.T) {
	s := NewState()
	var b Batch
	b.Add(EncodeAdd(5, AddPayload{}))
	b.Add(EncodeChangeMesh(5, 0, 0))
	err := s.Validate(&b)
	if !errors.Is(err, rerr.ErrInvalidUpdate) {
		t.Fatalf("Validate: have %v, want rerr.ErrInvalidUpdate", err)
	}
	if s.InvalidBatches() != 1 {
		t.Fatalf("InvalidBatches: have %d, want 1", s.InvalidBatches())
	}
}

func TestValidateRejectsMoveSourceWrittenLater(t *testing.T) {
	s := NewState()
	var b Batch
	b.Add(EncodeMove(1, 2)) // references slot 2, not yet written
	b.Add(EncodeAdd(2, AddPayload{}))
	err := s.Validate(&b)
	if !errors.Is(err, rerr.ErrInvalidUpdate) {
		t.Fatalf("Validate: have %v, want rerr.ErrInvalidUpdate for out-of-order Move source", err)
	}
}

func TestValidateAcceptsMoveSourceWrittenEarlier(t *testing.T) {
	s := NewState()
	var b Batch
	b.Add(EncodeAdd(2, AddPayload{}))
	b.Add(EncodeMove(1, 2))
	if err := s.Validate(&b); err != nil {
		t.Fatalf("Validate: unexpected error %v", err)
	}
}

func TestValidateLeavesStateUnchangedOnRejection(t *testing.T) {
	s := NewState()
	var good Batch
	good.Add(EncodeAdd(3, AddPayload{}))
	if err := s.Validate(&good); err != nil {
		t.Fatalf("Validate(good): unexpected error %v", err)
	}
	s.Apply(&good)

	var bad Batch
	bad.Add(EncodeAdd(3, AddPayload{}))
	bad.Add(EncodeChangeMesh(3, 0, 0))
	_ = s.Validate(&bad)

	if !s.InstanceOccupied(3) {
		t.Fatalf("InstanceOccupied(3): expected the prior Apply to still hold after a rejected batch")
	}
}

// TestValidateAcceptsAddAddMoveCompactionScenario is spec's own worked
// compaction example: Add(5, …), Add(7, …), Move(5, 7). Slot 5 was
// Added earlier in the batch, but Move fully overwrites a slot rather
// than mutating what Add wrote, so this must validate and apply
// cleanly rather than being rejected as an Add-then-non-ChangeTransform
// update to the same slot.
func TestValidateAcceptsAddAddMoveCompactionScenario(t *testing.T) {
	s := NewState()
	var b Batch
	b.Add(EncodeAdd(5, AddPayload{}))
	b.Add(EncodeAdd(7, AddPayload{}))
	b.Add(EncodeMove(5, 7))
	if err := s.Validate(&b); err != nil {
		t.Fatalf("Validate: unexpected error %v", err)
	}
	s.Apply(&b)
	if !s.InstanceOccupied(5) {
		t.Fatalf("InstanceOccupied(5): expected slot 5 to hold slot 7's prior contents")
	}
	if s.InstanceOccupied(7) {
		t.Fatalf("InstanceOccupied(7): expected slot 7 vacated and free for reuse after the Move")
	}
}

func TestApplyMoveUpdatesOccupancy(t *testing.T) {
	s := NewState()
	var b Batch
	b.Add(EncodeAdd(2, AddPayload{}))
	b.Add(EncodeMove(1, 2))
	if err := s.Validate(&b); err != nil {
		t.Fatalf("Validate: unexpected error %v", err)
	}
	s.Apply(&b)
	if s.InstanceOccupied(2) {
		t.Fatalf("InstanceOccupied(2): expected slot 2 vacated after Move")
	}
	if !s.InstanceOccupied(1) {
		t.Fatalf("InstanceOccupied(1): expected slot 1 occupied after Move")
	}
}
