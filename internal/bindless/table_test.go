package bindless

import (
	"testing"

	"github.com/radiance-go/visibility/internal/gputypes"
)

func TestNullHandleBoundToDefaultTexture(t *testing.T) {
	tab := New()
	img, _, ok := tab.ResolveSampled(gputypes.NullHandle)
	if !ok {
		t.Fatalf("ResolveSampled(NullHandle): expected ok=true")
	}
	if img.Width != 1 || img.Height != 1 {
		t.Fatalf("ResolveSampled(NullHandle): have %dx%d, want 1x1", img.Width, img.Height)
	}
}

func TestBindResolveBijection(t *testing.T) {
	tab := New()
	img := gputypes.GpuImage{Width: 512, Height: 512, Format: gputypes.FormatR8G8B8A8Unorm}
	h, gen := tab.BindSampled(img)

	got, gotGen, ok := tab.ResolveSampled(h)
	if !ok || got.Width != 512 || gotGen != gen {
		t.Fatalf("ResolveSampled: have (%+v, %d, %v), want (%+v, %d, true)", got, gotGen, ok, img, gen)
	}
}

func TestUnbindThenRebindChangesGeneration(t *testing.T) {
	tab := New()
	imgA := gputypes.GpuImage{Width: 64, Height: 64}
	h, genA := tab.BindSampled(imgA)

	tab.UnbindSampled(h)
	if _, _, ok := tab.ResolveSampled(h); ok {
		t.Fatalf("ResolveSampled after Unbind: expected ok=false")
	}

	imgB := gputypes.GpuImage{Width: 128, Height: 128}
	h2, genB := tab.BindSampled(imgB)
	if h2 != h {
		t.Fatalf("BindSampled: expected freed handle %d to be reused, got %d", h, h2)
	}
	if genB == genA {
		t.Fatalf("BindSampled: expected generation to change on rebind, still %d", genB)
	}

	got, gotGen, ok := tab.ResolveSampled(h)
	if !ok || got.Width != 128 || gotGen != genB {
		t.Fatalf("ResolveSampled after rebind: have (%+v, %d, %v), want width=128 gen=%d", got, gotGen, ok, genB)
	}
}

func TestNullHandleCannotBeUnbound(t *testing.T) {
	tab := New()
	tab.UnbindSampled(gputypes.NullHandle)
	if _, _, ok := tab.ResolveSampled(gputypes.NullHandle); !ok {
		t.Fatalf("UnbindSampled(NullHandle) must be a no-op")
	}
}
