//go:build headless

package submit

import (
	"testing"

	"github.com/radiance-go/visibility/internal/frame"
)

type fakeSurface struct {
	acquireCalls int
	staleOnce    bool
	rebuilds     int
	presents     []uint32
}

func (s *fakeSurface) AcquireNextImage() (uint32, bool, error) {
	s.acquireCalls++
	if s.staleOnce {
		s.staleOnce = false
		return 0, true, nil
	}
	return uint32(s.acquireCalls - 1), false, nil
}

func (s *fakeSurface) Recreate() error {
	s.rebuilds++
	return nil
}

func (s *fakeSurface) Present(imageIndex uint32) error {
	s.presents = append(s.presents, imageIndex)
	return nil
}

type fakeCompiled struct{}

func (fakeCompiled) PassCount() int { return 0 }

func TestHeadlessSubmitterSatisfiesFrameSubmitter(t *testing.T) {
	surface := &fakeSurface{}
	sub, err := New(nil, surface, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Drive it the same way frame.Ring does: acquire, submit, wait,
	// present, across a slot wraparound.
	ring := frame.NewRing(2, sub)

	fc0, err := ring.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := ring.Submit(fc0, fakeCompiled{}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if fc0.SubmittedValue != 1 {
		t.Fatalf("expected first submit to signal timeline value 1, got %d", fc0.SubmittedValue)
	}

	imageIdx, skip, err := ring.AcquireSwapchainImage()
	if err != nil {
		t.Fatalf("AcquireSwapchainImage: %v", err)
	}
	if skip {
		t.Fatalf("expected no skip on a fresh surface")
	}
	if err := ring.Present(imageIdx, fc0.SubmittedValue); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if len(surface.presents) != 1 || surface.presents[0] != imageIdx {
		t.Fatalf("expected one present of image %d, got %v", imageIdx, surface.presents)
	}
}

func TestHeadlessSubmitterPropagatesStaleSwapchain(t *testing.T) {
	surface := &fakeSurface{staleOnce: true}
	sub, err := New(nil, surface, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ring := frame.NewRing(1, sub)

	_, skip, err := ring.AcquireSwapchainImage()
	if err != nil {
		t.Fatalf("AcquireSwapchainImage: %v", err)
	}
	if !skip {
		t.Fatalf("expected skip=true on a stale acquire")
	}
	if surface.rebuilds != 1 {
		t.Fatalf("expected exactly one swapchain rebuild, got %d", surface.rebuilds)
	}
}
