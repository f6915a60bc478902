package respool

import (
	"errors"
	"testing"

	"github.com/radiance-go/visibility/internal/gputypes"
	"github.com/radiance-go/visibility/internal/rerr"
)

type fakeBackend struct {
	nextID    uint32
	failNext  bool
	freedBuf  int
	freedImg  int
}

func (f *fakeBackend) AllocBuffer(size uint64, hostVisible bool) (gputypes.GpuBuffer, error) {
	if f.failNext {
		f.failNext = false
		return gputypes.GpuBuffer{}, errors.New("fake: out of device memory")
	}
	f.nextID++
	return gputypes.GpuBuffer{Handle: gputypes.Handle(f.nextID), Size: size, HostVisible: hostVisible}, nil
}

func (f *fakeBackend) AllocImage(img gputypes.GpuImage) (gputypes.GpuImage, error) {
	if f.failNext {
		f.failNext = false
		return gputypes.GpuImage{}, errors.New("fake: out of device memory")
	}
	f.nextID++
	img.Handle = gputypes.Handle(f.nextID)
	return img, nil
}

func (f *fakeBackend) FreeBuffer(gputypes.GpuBuffer) { f.freedBuf++ }
func (f *fakeBackend) FreeImage(gputypes.GpuImage)   { f.freedImg++ }

func TestCreateBufferSucceeds(t *testing.T) {
	p := New(&fakeBackend{})
	buf, err := p.CreateBuffer(1024, false, Transient)
	if err != nil {
		t.Fatalf("CreateBuffer: unexpected error %v", err)
	}
	if buf.Size != 1024 {
		t.Fatalf("CreateBuffer: have size %d, want 1024", buf.Size)
	}
	if p.Live() != 1 {
		t.Fatalf("Pool.Live: have %d, want 1", p.Live())
	}
}

func TestTransientOOMSetsAliasingDisabled(t *testing.T) {
	p := New(&fakeBackend{failNext: true})
	_, err := p.CreateBuffer(1024, false, Transient)
	if !errors.Is(err, rerr.ErrTransientOOM) {
		t.Fatalf("CreateBuffer: have err %v, want wrapping ErrTransientOOM", err)
	}
	if !p.AliasingDisabled() {
		t.Fatalf("AliasingDisabled: want true after a transient OOM")
	}
}

func TestPersistentOOMIsFatalClass(t *testing.T) {
	p := New(&fakeBackend{failNext: true})
	_, err := p.CreateBuffer(1024, false, Persistent)
	if !errors.Is(err, rerr.ErrPersistentOOM) {
		t.Fatalf("CreateBuffer: have err %v, want wrapping ErrPersistentOOM", err)
	}
	if p.AliasingDisabled() {
		t.Fatalf("AliasingDisabled: persistent OOM must not set the transient retry flag")
	}
}

func TestRetirementGatedOnCompletedFrame(t *testing.T) {
	backend := &fakeBackend{}
	p := New(backend)
	buf, _ := p.CreateBuffer(256, true, Transient)

	p.MarkRetiring(buf.Handle, 5)
	p.Retire(4) // frame 5 hasn't completed yet
	if p.Live() != 1 {
		t.Fatalf("Retire(4): resource retired early, Live()=%d want 1", p.Live())
	}

	p.Retire(5)
	if p.Live() != 0 {
		t.Fatalf("Retire(5): resource not retired, Live()=%d want 0", p.Live())
	}
	if backend.freedBuf != 1 {
		t.Fatalf("FreeBuffer: called %d times, want 1", backend.freedBuf)
	}
}
