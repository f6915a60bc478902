package scene

import "encoding/binary"

// wireRecordSize is slot(4) + kind(4) + PayloadSize.
const wireRecordSize = 4 + 4 + PayloadSize

// Batch is an ordered sequence of updates awaiting encode into the
// staging buffer the scene-state compute dispatch reads.
type Batch struct {
	Updates []Update
}

// Add appends u to the batch in dispatch-index order.
func (b *Batch) Add(u Update) {
	b.Updates = append(b.Updates, u)
}

// Encode packs the batch into the wire format the compute dispatch
// consumes: a packed sequence of (u32 slot, u32 kind, 96-byte payload)
// records, one ceil(n/64)-workgroup dispatch applying all of them.
func (b *Batch) Encode() []byte {
	out := make([]byte, len(b.Updates)*wireRecordSize)
	for i, u := range b.Updates {
		off := i * wireRecordSize
		binary.LittleEndian.PutUint32(out[off:], u.Slot)
		binary.LittleEndian.PutUint32(out[off+4:], uint32(u.Kind))
		copy(out[off+8:off+8+PayloadSize], u.Payload[:])
	}
	return out
}

// DispatchWorkgroups returns the ceil(n/64) workgroup count the batch's
// apply dispatch must use.
func (b *Batch) DispatchWorkgroups() uint32 {
	n := len(b.Updates)
	return uint32((n + 63) / 64)
}

// Decode reverses Encode, for tests and for the host mirror's replay
// path.
func Decode(wire []byte) ([]Update, error) {
	if len(wire)%wireRecordSize != 0 {
		return nil, errMalformedBatch
	}
	n := len(wire) / wireRecordSize
	out := make([]Update, n)
	for i := 0; i < n; i++ {
		off := i * wireRecordSize
		out[i].Slot = binary.LittleEndian.Uint32(wire[off:])
		out[i].Kind = Kind(binary.LittleEndian.Uint32(wire[off+4:]))
		copy(out[i].Payload[:], wire[off+8:off+8+PayloadSize])
	}
	return out, nil
}
