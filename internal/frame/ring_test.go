package frame

import "testing"

type fakeSubmitter struct {
	resets       []int
	submits      []int
	waits        []uint64
	nextValue    uint64
	staleOnce    bool
	rebuildCalls int
	presents     []uint32
}

func (f *fakeSubmitter) ResetCommandPool(idx int) error {
	f.resets = append(f.resets, idx)
	return nil
}

func (f *fakeSubmitter) Submit(idx int, compiled CompiledGraph) (uint64, error) {
	f.submits = append(f.submits, idx)
	f.nextValue++
	return f.nextValue, nil
}

func (f *fakeSubmitter) WaitTimeline(value uint64) error {
	f.waits = append(f.waits, value)
	return nil
}

func (f *fakeSubmitter) AcquireSwapchainImage() (uint32, bool, error) {
	if f.staleOnce {
		f.staleOnce = false
		return 0, true, nil
	}
	return 0, false, nil
}

func (f *fakeSubmitter) RebuildSwapchain() error {
	f.rebuildCalls++
	return nil
}

func (f *fakeSubmitter) Present(imageIndex uint32, waitValue uint64) error {
	f.presents = append(f.presents, imageIndex)
	return nil
}

type fakeCompiled struct{ n int }

func (c fakeCompiled) PassCount() int { return c.n }

func TestRingAcquireDoesNotWaitOnFirstUseOfASlot(t *testing.T) {
	sub := &fakeSubmitter{}
	r := NewRing(2, sub)

	if _, err := r.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if len(sub.waits) != 0 {
		t.Fatalf("expected no timeline wait on a slot's first use, got %d waits", len(sub.waits))
	}
	if len(sub.resets) != 1 {
		t.Fatalf("expected one command pool reset, got %d", len(sub.resets))
	}
}

func TestRingAcquireWaitsOnReuseAfterSubmit(t *testing.T) {
	sub := &fakeSubmitter{}
	r := NewRing(2, sub)

	fc0, _ := r.Acquire()
	if err := r.Submit(fc0, fakeCompiled{3}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := r.Acquire(); err != nil { // slot 1, still first use
		t.Fatalf("Acquire slot 1: %v", err)
	}
	if _, err := r.Acquire(); err != nil { // wraps back to slot 0
		t.Fatalf("Acquire slot 0 again: %v", err)
	}
	if len(sub.waits) != 1 || sub.waits[0] != fc0.SubmittedValue {
		t.Fatalf("expected exactly one wait on slot 0's submitted value %d, got %v", fc0.SubmittedValue, sub.waits)
	}
}

func TestAcquireSwapchainImageSkipsAndRebuildsOnStale(t *testing.T) {
	sub := &fakeSubmitter{staleOnce: true}
	r := NewRing(2, sub)

	_, skip, err := r.AcquireSwapchainImage()
	if err != nil {
		t.Fatalf("AcquireSwapchainImage: %v", err)
	}
	if !skip {
		t.Fatalf("expected skip=true on a stale acquire")
	}
	if sub.rebuildCalls != 1 {
		t.Fatalf("expected exactly one swapchain rebuild, got %d", sub.rebuildCalls)
	}

	_, skip, err = r.AcquireSwapchainImage()
	if err != nil {
		t.Fatalf("AcquireSwapchainImage after rebuild: %v", err)
	}
	if skip {
		t.Fatalf("expected skip=false once the swapchain has been rebuilt")
	}
}
