// Package scene implements the instance update stream consumed by the
// scene state manager's compute dispatch: the host never writes GPU
// instance or light state directly, only a packed batch of typed
// update records which a single compute shader applies at the start of
// the frame.
package scene

import (
	"encoding/binary"
	"math"
)

// Kind identifies what an Update does to the instance or light table.
type Kind uint32

const (
	KindAdd Kind = iota
	KindMove
	KindChangeMesh
	KindChangeTransform
	KindAddLight
	KindMoveLight
)

// PayloadSize is the fixed payload width of every wire record,
// regardless of Kind: 96 bytes, enough for a 4x4 transform plus mesh
// and material pointers.
const PayloadSize = 96

// Update is the Go-side representation of one instance/light table
// record: a target slot, what to do to it, and a fixed 96-byte
// payload whose interpretation depends on Kind.
type Update struct {
	Slot    uint32
	Kind    Kind
	Payload [PayloadSize]byte
}

// AddPayload lays out the payload of a KindAdd update: transform (16
// float32, column-major), mesh pointer, material index, BLAS
// reference.
type AddPayload struct {
	Transform  [16]float32
	MeshPtr    uint64
	Material   uint32
	BlasRef    uint64
}

// EncodeAdd builds an Add update for slot targeting a mesh/material/BLAS.
func EncodeAdd(slot uint32, p AddPayload) Update {
	var u Update
	u.Slot = slot
	u.Kind = KindAdd
	off := 0
	for _, f := range p.Transform {
		binary.LittleEndian.PutUint32(u.Payload[off:], math.Float32bits(f))
		off += 4
	}
	binary.LittleEndian.PutUint64(u.Payload[off:], p.MeshPtr)
	off += 8
	binary.LittleEndian.PutUint32(u.Payload[off:], p.Material)
	off += 4
	binary.LittleEndian.PutUint64(u.Payload[off:], p.BlasRef)
	return u
}

// EncodeMove builds a Move update: copy slot src's table entry into
// slot dst, used for table compaction when entities are removed.
func EncodeMove(dst, src uint32) Update {
	var u Update
	u.Slot = dst
	u.Kind = KindMove
	binary.LittleEndian.PutUint32(u.Payload[0:], src)
	return u
}

// EncodeChangeMesh builds a ChangeMesh update rewriting slot's mesh and
// BLAS pointers.
func EncodeChangeMesh(slot uint32, meshPtr, blasRef uint64) Update {
	var u Update
	u.Slot = slot
	u.Kind = KindChangeMesh
	binary.LittleEndian.PutUint64(u.Payload[0:], meshPtr)
	binary.LittleEndian.PutUint64(u.Payload[8:], blasRef)
	return u
}

// EncodeChangeTransform builds a ChangeTransform update: the compute
// shader sets last_updated_transform := transform, transform := T,
// update_frame := current_frame.
func EncodeChangeTransform(slot uint32, t [16]float32) Update {
	var u Update
	u.Slot = slot
	u.Kind = KindChangeTransform
	off := 0
	for _, f := range t {
		binary.LittleEndian.PutUint32(u.Payload[off:], math.Float32bits(f))
		off += 4
	}
	return u
}

// EncodeAddLight and EncodeMoveLight mirror EncodeAdd/EncodeMove on the
// light table.
func EncodeAddLight(slot uint32, p AddPayload) Update {
	u := EncodeAdd(slot, p)
	u.Kind = KindAddLight
	return u
}

func EncodeMoveLight(dst, src uint32) Update {
	u := EncodeMove(dst, src)
	u.Kind = KindMoveLight
	return u
}
