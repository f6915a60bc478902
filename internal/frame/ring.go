// Package frame owns the per-frame ring of command recording contexts
// and wires one frame's full dataflow into a single render-graph
// invocation. The ring generalizes the teacher's per-call
// create-command-pool-then-buffer-then-fence sequence in initVulkan
// from one persistent context to N ring slots, and keeps exactly one
// host wait per frame.
package frame

import (
	"fmt"
	"sync"

	"github.com/radiance-go/visibility/internal/rerr"
)

// Submitter performs the actual device-side work a Ring needs: pool
// reset, command recording/submission against a compiled graph, and
// swapchain acquire/present. Splitting this out keeps Ring testable
// without a real GPU, the same Backend-interface split respool draws
// between Pool's bookkeeping and its Backend implementations.
type Submitter interface {
	// ResetCommandPool reclaims frame slot idx's command pool for
	// re-recording; called once the slot's prior submission has
	// retired.
	ResetCommandPool(idx int) error

	// Submit records and submits the compiled graph against frame slot
	// idx's command buffer, returning the timeline semaphore value the
	// host (or a future Acquire) can wait on for this submission's
	// completion.
	Submit(idx int, compiled CompiledGraph) (timelineValue uint64, err error)

	// WaitTimeline blocks the host until the timeline semaphore has
	// reached at least value. Exactly one call per Acquire.
	WaitTimeline(value uint64) error

	// AcquireSwapchainImage returns the next presentable image index,
	// or stale=true when the swapchain is out of date/suboptimal and
	// must be skipped this frame and rebuilt before the next one.
	AcquireSwapchainImage() (imageIndex uint32, stale bool, err error)

	// RebuildSwapchain recreates the swapchain after a stale acquire.
	RebuildSwapchain() error

	// Present schedules imageIndex for presentation once waitValue has
	// signaled.
	Present(imageIndex uint32, waitValue uint64) error
}

// CompiledGraph is the render-graph compilation output a Submitter
// records; frame depends only on this narrow view (PassCount) so it
// never needs to import internal/graph's Compile internals, just the
// shape graph.Compiled already exposes.
type CompiledGraph interface {
	PassCount() int
}

// FrameContext is one ring slot's host-side bookkeeping: which
// timeline value its last submission must reach before the slot is
// safe to reuse, and the staging arena cursor reset on every Acquire.
type FrameContext struct {
	Index           int
	SubmittedValue  uint64 // 0 until this slot has submitted once
	StagingArenaPos uint64
}

// Ring owns FramesInFlight FrameContexts and the single Submitter they
// share.
type Ring struct {
	mu        sync.Mutex
	frames    []FrameContext
	submitter Submitter
	nextValue uint64
	cursor    int
}

// NewRing allocates a ring of framesInFlight slots. framesInFlight must
// be >= 2 (config.Config.Validate already enforces this upstream).
func NewRing(framesInFlight int, submitter Submitter) *Ring {
	frames := make([]FrameContext, framesInFlight)
	for i := range frames {
		frames[i].Index = i
	}
	return &Ring{frames: frames, submitter: submitter}
}

// Acquire advances the ring to the next slot, blocking on exactly one
// host wait: the slot's last submission (framesInFlight frames ago)
// must have retired before its command pool can be safely reset and
// reused.
func (r *Ring) Acquire() (*FrameContext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.cursor
	r.cursor = (r.cursor + 1) % len(r.frames)
	fc := &r.frames[idx]

	if fc.SubmittedValue > 0 {
		if err := r.submitter.WaitTimeline(fc.SubmittedValue); err != nil {
			return nil, fmt.Errorf("frame: waiting on slot %d's timeline value %d: %w", idx, fc.SubmittedValue, err)
		}
	}
	if err := r.submitter.ResetCommandPool(idx); err != nil {
		return nil, fmt.Errorf("frame: resetting slot %d's command pool: %w", idx, err)
	}
	fc.StagingArenaPos = 0
	return fc, nil
}

// Submit records and submits compiled against fc's slot, recording the
// returned timeline value so a future Acquire of this slot waits on
// it.
func (r *Ring) Submit(fc *FrameContext, compiled CompiledGraph) error {
	value, err := r.submitter.Submit(fc.Index, compiled)
	if err != nil {
		return fmt.Errorf("frame: submitting slot %d: %w", fc.Index, err)
	}
	fc.SubmittedValue = value
	return nil
}

// AcquireSwapchainImage implements the transient "skip frame, rebuild
// next frame" policy: a stale acquire is not an error the caller must
// react to beyond dropping this frame's draw and rebuilding before the
// next Acquire.
func (r *Ring) AcquireSwapchainImage() (imageIndex uint32, skip bool, err error) {
	idx, stale, err := r.submitter.AcquireSwapchainImage()
	if err != nil {
		return 0, false, fmt.Errorf("frame: acquiring swapchain image: %w", err)
	}
	if stale {
		if rebuildErr := r.submitter.RebuildSwapchain(); rebuildErr != nil {
			return 0, false, fmt.Errorf("frame: rebuilding swapchain after %v: %w", rerr.ErrSwapchainStale, rebuildErr)
		}
		return 0, true, nil
	}
	return idx, false, nil
}

// Present schedules the given swapchain image once waitValue's
// submission has signaled.
func (r *Ring) Present(imageIndex uint32, waitValue uint64) error {
	if err := r.submitter.Present(imageIndex, waitValue); err != nil {
		return fmt.Errorf("frame: presenting image %d: %w", imageIndex, err)
	}
	return nil
}
