// Package respool implements the resource pool: it owns Vulkan
// buffers/images backed by a sub-allocator and hands out handles
// registered with the bindless table.
//
// Allocation itself (vkCreateBuffer/vkCreateImage, vkAllocateMemory,
// vkBind*Memory) is delegated to a Backend so the sub-allocation
// bookkeeping — retirement tracking, the transient-resource
// aliasing/OOM retry policy — can be tested without a real GPU, the
// same split drawn between VulkanBackend and VoodooSoftwareBackend in
// voodoo_vulkan.go / voodoo_software.go.
package respool

import (
	"fmt"
	"sync"

	"github.com/radiance-go/visibility/internal/gputypes"
	"github.com/radiance-go/visibility/internal/rerr"
)

// Backend performs the actual device allocation a Pool requests.
type Backend interface {
	AllocBuffer(size uint64, hostVisible bool) (gputypes.GpuBuffer, error)
	AllocImage(img gputypes.GpuImage) (gputypes.GpuImage, error)
	FreeBuffer(gputypes.GpuBuffer)
	FreeImage(gputypes.GpuImage)
}

// Lifetime classifies how long an allocation is expected to live.
type Lifetime int

const (
	// Persistent resources (the instance table, acceleration
	// structures) live until explicitly destroyed; OOM on one is
	// fatal.
	Persistent Lifetime = iota
	// Transient resources are arena-scoped to a single render-graph
	// invocation; OOM on one is recoverable via the retry policy.
	Transient
)

type entry struct {
	buf         gputypes.GpuBuffer
	img         gputypes.GpuImage
	isImage     bool
	lifetime    Lifetime
	retireAfter uint64 // frame index; 0 means "not yet retiring"
	retiring    bool
}

// Pool owns allocations and tracks their retirement against the frame
// ring's completed-frame counter.
type Pool struct {
	mu      sync.Mutex
	backend Backend

	entries map[gputypes.Handle]*entry
	nextID  uint32

	// aliasingDisabled is set when a transient allocation fails and
	// cleared by ResetAliasing. graph.Compile does not read it, and
	// nothing in this module reduces the in-flight frame count.
	aliasingDisabled bool
}

// New constructs a Pool over the given Backend.
func New(backend Backend) *Pool {
	return &Pool{backend: backend, entries: make(map[gputypes.Handle]*entry)}
}

// AliasingDisabled reports whether a transient allocation has failed
// since the flag was last cleared by ResetAliasing.
func (p *Pool) AliasingDisabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.aliasingDisabled
}

// CreateBuffer allocates a buffer of the given size and lifetime. A
// failure on a Transient buffer is wrapped in rerr.ErrTransientOOM and
// flips AliasingDisabled for the caller's retry; a failure on a
// Persistent buffer is wrapped in rerr.ErrPersistentOOM and is fatal.
func (p *Pool) CreateBuffer(size uint64, hostVisible bool, lifetime Lifetime) (gputypes.GpuBuffer, error) {
	buf, err := p.backend.AllocBuffer(size, hostVisible)
	if err != nil {
		return gputypes.GpuBuffer{}, p.classifyAllocErr(err, lifetime)
	}
	p.mu.Lock()
	p.entries[buf.Handle] = &entry{buf: buf, lifetime: lifetime}
	p.mu.Unlock()
	return buf, nil
}

// CreateImage allocates an image of the given lifetime.
func (p *Pool) CreateImage(desc gputypes.GpuImage, lifetime Lifetime) (gputypes.GpuImage, error) {
	img, err := p.backend.AllocImage(desc)
	if err != nil {
		return gputypes.GpuImage{}, p.classifyAllocErr(err, lifetime)
	}
	p.mu.Lock()
	p.entries[img.Handle] = &entry{img: img, isImage: true, lifetime: lifetime}
	p.mu.Unlock()
	return img, nil
}

func (p *Pool) classifyAllocErr(err error, lifetime Lifetime) error {
	if lifetime == Persistent {
		return fmt.Errorf("respool: persistent allocation failed: %w: %v", rerr.ErrPersistentOOM, err)
	}
	p.mu.Lock()
	p.aliasingDisabled = true
	p.mu.Unlock()
	return fmt.Errorf("respool: transient allocation failed: %w: %v", rerr.ErrTransientOOM, err)
}

// ResetAliasing clears the aliasing-disabled flag once a retry has
// succeeded.
func (p *Pool) ResetAliasing() {
	p.mu.Lock()
	p.aliasingDisabled = false
	p.mu.Unlock()
}

// MarkRetiring flags a resource for release once frameIdx has
// completed — the frame index of the last frame that might still
// reference it. A resource is only actually freed once the GPU is
// proven idle on every frame that might reference it.
func (p *Pool) MarkRetiring(h gputypes.Handle, frameIdx uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.entries[h]; ok {
		e.retiring = true
		e.retireAfter = frameIdx
	}
}

// Retire frees every resource whose retireAfter frame has completed,
// given completedFrame (the highest frame index the frame ring's
// timeline semaphore has signalled).
func (p *Pool) Retire(completedFrame uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for h, e := range p.entries {
		if !e.retiring || e.retireAfter > completedFrame {
			continue
		}
		if e.isImage {
			p.backend.FreeImage(e.img)
		} else {
			p.backend.FreeBuffer(e.buf)
		}
		delete(p.entries, h)
	}
}

// Live reports the number of allocations not yet retired, for tests
// and telemetry.
func (p *Pool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
