package scene

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var b Batch
	b.Add(EncodeAdd(1, AddPayload{Material: 7}))
	b.Add(EncodeChangeTransform(1, [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}))

	wire := b.Encode()
	if len(wire) != 2*wireRecordSize {
		t.Fatalf("Encode: have %d bytes, want %d", len(wire), 2*wireRecordSize)
	}

	decoded, err := Decode(wire)
	if err != nil {
		t.Fatalf("Decode: unexpected error %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("Decode: have %d updates, want 2", len(decoded))
	}
	if decoded[0].Slot != 1 || decoded[0].Kind != KindAdd {
		t.Fatalf("Decode[0]: have (slot=%d kind=%d), want (1, KindAdd)", decoded[0].Slot, decoded[0].Kind)
	}
	if decoded[1].Kind != KindChangeTransform {
		t.Fatalf("Decode[1]: have kind=%d, want KindChangeTransform", decoded[1].Kind)
	}
}

func TestDecodeMalformedLength(t *testing.T) {
	if _, err := Decode([]byte{1, 2, 3}); err == nil {
		t.Fatalf("Decode: expected an error for a length not a multiple of the record size")
	}
}

func TestDispatchWorkgroupsRoundsUp(t *testing.T) {
	var b Batch
	for i := 0; i < 65; i++ {
		b.Add(EncodeAdd(uint32(i), AddPayload{}))
	}
	if got := b.DispatchWorkgroups(); got != 2 {
		t.Fatalf("DispatchWorkgroups: have %d, want 2 for 65 updates", got)
	}
}
