//go:build headless

package submit

import (
	"github.com/radiance-go/visibility/internal/frame"
	"github.com/radiance-go/visibility/internal/vkutil"
)

// Surface mirrors the non-headless package's swapchain contract.
type Surface interface {
	AcquireNextImage() (imageIndex uint32, stale bool, err error)
	Recreate() error
	Present(imageIndex uint32) error
}

// Submitter is the headless stand-in used by tests and CI that cannot
// link against a real Vulkan loader: every call succeeds trivially and
// the timeline value is tracked in plain Go memory.
type Submitter struct {
	surface Surface
	value   uint64
}

var _ frame.Submitter = (*Submitter)(nil)

// New returns a headless Submitter; dev and slotCount are accepted to
// match the production constructor's shape but unused.
func New(dev *vkutil.Device, surface Surface, slotCount int) (*Submitter, error) {
	return &Submitter{surface: surface}, nil
}

func (s *Submitter) ResetCommandPool(idx int) error { return nil }

func (s *Submitter) Submit(idx int, compiled frame.CompiledGraph) (uint64, error) {
	s.value++
	return s.value, nil
}

func (s *Submitter) WaitTimeline(value uint64) error { return nil }

func (s *Submitter) AcquireSwapchainImage() (uint32, bool, error) {
	if s.surface == nil {
		return 0, false, nil
	}
	return s.surface.AcquireNextImage()
}

func (s *Submitter) RebuildSwapchain() error {
	if s.surface == nil {
		return nil
	}
	return s.surface.Recreate()
}

func (s *Submitter) Present(imageIndex uint32, waitValue uint64) error {
	if s.surface == nil {
		return nil
	}
	return s.surface.Present(imageIndex)
}
