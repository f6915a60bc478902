// Package bindless implements the process-wide bindless descriptor
// table: fixed arrays of sampled images, storage images, and samplers,
// indexed by 32-bit Handle from shader code (descriptor set 0, bindings
// 0/1/2). Raw buffers are not stored here; they are addressed via
// device addresses in push constants.
package bindless

import (
	"sync"

	"github.com/radiance-go/visibility/internal/gputypes"
)

// slot holds one bound resource plus a generation counter. Generation
// is bumped on every Bind/Unbind so a Handle captured before a rebind
// can never be mistaken for referring to the new resource: Resolve
// always returns the resource most recently bound to a handle, and a
// caller holding a stale (handle, generation) pair can detect the
// mismatch.
type slot struct {
	bound      bool
	image      gputypes.GpuImage
	sampler    SamplerDesc
	generation uint32
}

// SamplerDesc is the (small) set of sampler parameters the table
// tracks; actual VkSampler object lifetime is owned by respool.
type SamplerDesc struct {
	MinFilter, MagFilter int
	AddressMode          int
}

// Table is the bindless descriptor table. Zero value is not usable;
// construct with New.
type Table struct {
	mu        sync.Mutex
	sampled   []slot
	storage   []slot
	samplers  []slot
	freeSmp   []gputypes.Handle
	freeStor  []gputypes.Handle
	freeSamp  []gputypes.Handle
}

// New creates a Table and pre-binds Handle 0 (in the sampled-image
// array) to a 1x1 default-valued texture: a null texture handle is
// bound to a default texture so shader code can sample without
// branching.
func New() *Table {
	t := &Table{
		sampled:  make([]slot, 1, 256),
		storage:  make([]slot, 1, 256),
		samplers: make([]slot, 1, 256),
	}
	t.sampled[0] = slot{
		bound: true,
		image: gputypes.GpuImage{
			Handle:  gputypes.NullHandle,
			Format:  gputypes.FormatR8G8B8A8Unorm,
			Width:   1,
			Height:  1,
			Sampled: true,
		},
	}
	t.storage[0] = slot{bound: true}
	t.samplers[0] = slot{bound: true}
	return t
}

// BindSampled registers img in the sampled-image array and returns its
// handle plus the generation it was bound at.
func (t *Table) BindSampled(img gputypes.GpuImage) (gputypes.Handle, uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return bind(&t.sampled, &t.freeSmp, img, SamplerDesc{})
}

// BindStorage registers img in the storage-image array.
func (t *Table) BindStorage(img gputypes.GpuImage) (gputypes.Handle, uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return bind(&t.storage, &t.freeStor, img, SamplerDesc{})
}

// BindSampler registers a sampler descriptor.
func (t *Table) BindSampler(desc SamplerDesc) (gputypes.Handle, uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return bind(&t.samplers, &t.freeSamp, gputypes.GpuImage{}, desc)
}

func bind(arr *[]slot, free *[]gputypes.Handle, img gputypes.GpuImage, smp SamplerDesc) (gputypes.Handle, uint32) {
	if n := len(*free); n > 0 {
		h := (*free)[n-1]
		*free = (*free)[:n-1]
		s := &(*arr)[h]
		s.bound = true
		s.image = img
		s.sampler = smp
		s.generation++
		return h, s.generation
	}
	h := gputypes.Handle(len(*arr))
	*arr = append(*arr, slot{bound: true, image: img, sampler: smp})
	return h, 0
}

// UnbindSampled releases a sampled-image handle back to the free list.
// Handle 0 can never be unbound.
func (t *Table) UnbindSampled(h gputypes.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	unbind(t.sampled, &t.freeSmp, h)
}

// UnbindStorage releases a storage-image handle.
func (t *Table) UnbindStorage(h gputypes.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	unbind(t.storage, &t.freeStor, h)
}

func unbind(arr []slot, free *[]gputypes.Handle, h gputypes.Handle) {
	if h == gputypes.NullHandle || int(h) >= len(arr) || !arr[h].bound {
		return
	}
	arr[h].bound = false
	arr[h].generation++
	*free = append(*free, h)
}

// ResolveSampled returns the image currently bound at h and the
// generation it was bound at, or ok == false if h is unbound.
func (t *Table) ResolveSampled(h gputypes.Handle) (img gputypes.GpuImage, generation uint32, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if int(h) >= len(t.sampled) || !t.sampled[h].bound {
		return gputypes.GpuImage{}, 0, false
	}
	s := t.sampled[h]
	return s.image, s.generation, true
}

// ResolveStorage returns the image currently bound at h.
func (t *Table) ResolveStorage(h gputypes.Handle) (img gputypes.GpuImage, generation uint32, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if int(h) >= len(t.storage) || !t.storage[h].bound {
		return gputypes.GpuImage{}, 0, false
	}
	s := t.storage[h]
	return s.image, s.generation, true
}

// SampledCount and StorageCount report the current backing-array
// lengths, the sizes a variable-count UPDATE_AFTER_BIND descriptor
// array needs; no other package in this module calls them.
func (t *Table) SampledCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sampled)
}

func (t *Table) StorageCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.storage)
}
