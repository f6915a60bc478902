//go:build !headless

// Package submit implements the production frame.Submitter: per-ring-
// slot command pools/buffers and a single shared timeline semaphore,
// grounded on voodoo_vulkan.go's createCommandPool/createCommandBuffer/
// createFence/FlushTriangles submit sequence, generalized from one
// persistent command buffer plus a binary fence to N ring slots plus
// one timeline semaphore (the frame ring tracks completion by value
// rather than by waiting on a per-slot fence).
package submit

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/radiance-go/visibility/internal/frame"
	"github.com/radiance-go/visibility/internal/rerr"
	"github.com/radiance-go/visibility/internal/vkutil"
)

// Surface is the external/imported swapchain contract: window and
// surface creation are out of scope for this core (per the render
// graph's "UI pass"/host boundary), so Submitter depends only on this
// narrow interface, which the host application's window code
// satisfies.
type Surface interface {
	AcquireNextImage() (imageIndex uint32, stale bool, err error)
	Recreate() error
	Present(imageIndex uint32) error
}

type frameSlot struct {
	pool vk.CommandPool
	cmd  vk.CommandBuffer
}

// Submitter is the production frame.Submitter.
type Submitter struct {
	dev      *vkutil.Device
	surface  Surface
	timeline vk.Semaphore
	slots    []frameSlot
	queueFam uint32
}

var _ frame.Submitter = (*Submitter)(nil)

// New creates the per-slot command pools/buffers and the shared
// timeline semaphore. slotCount must match the frame ring's
// FramesInFlight.
func New(dev *vkutil.Device, surface Surface, slotCount int) (*Submitter, error) {
	s := &Submitter{dev: dev, surface: surface, queueFam: dev.QueueFamilies[0]}

	typeInfo := vk.SemaphoreTypeCreateInfo{
		SType:         vk.StructureTypeSemaphoreTypeCreateInfo,
		SemaphoreType: vk.SemaphoreTypeTimeline,
		InitialValue:  0,
	}
	semInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
		PNext: vk.Pointer(&typeInfo),
	}
	var sem vk.Semaphore
	if res := vk.CreateSemaphore(dev.Handle, &semInfo, nil, &sem); res != vk.Success {
		return nil, fmt.Errorf("submit: vkCreateSemaphore (timeline) failed: %d: %w", res, rerr.ErrDeviceLost)
	}
	s.timeline = sem

	s.slots = make([]frameSlot, slotCount)
	for i := range s.slots {
		poolInfo := vk.CommandPoolCreateInfo{
			SType:            vk.StructureTypeCommandPoolCreateInfo,
			QueueFamilyIndex: s.queueFam,
			Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		}
		var pool vk.CommandPool
		if res := vk.CreateCommandPool(dev.Handle, &poolInfo, nil, &pool); res != vk.Success {
			return nil, fmt.Errorf("submit: vkCreateCommandPool failed for slot %d: %d: %w", i, res, rerr.ErrDeviceLost)
		}
		allocInfo := vk.CommandBufferAllocateInfo{
			SType:              vk.StructureTypeCommandBufferAllocateInfo,
			CommandPool:        pool,
			Level:              vk.CommandBufferLevelPrimary,
			CommandBufferCount: 1,
		}
		cmds := make([]vk.CommandBuffer, 1)
		if res := vk.AllocateCommandBuffers(dev.Handle, &allocInfo, cmds); res != vk.Success {
			return nil, fmt.Errorf("submit: vkAllocateCommandBuffers failed for slot %d: %d: %w", i, res, rerr.ErrDeviceLost)
		}
		s.slots[i] = frameSlot{pool: pool, cmd: cmds[0]}
	}
	return s, nil
}

// ResetCommandPool reclaims slot idx's pool for re-recording.
func (s *Submitter) ResetCommandPool(idx int) error {
	if res := vk.ResetCommandPool(s.dev.Handle, s.slots[idx].pool, 0); res != vk.Success {
		return fmt.Errorf("submit: vkResetCommandPool failed for slot %d: %d: %w", idx, res, rerr.ErrDeviceLost)
	}
	return nil
}

// Submit begins and ends slot idx's command buffer and submits it,
// signalling the shared timeline semaphore at the returned value.
// compiled is not read: no pass bodies (vkCmdDispatch/
// vkCmdDrawMeshTasksEXT calls) and none of the render graph's barrier
// batches are recorded, so the submitted command buffer is empty.
func (s *Submitter) Submit(idx int, compiled frame.CompiledGraph) (uint64, error) {
	_ = compiled
	cmd := s.slots[idx].cmd
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if res := vk.BeginCommandBuffer(cmd, &beginInfo); res != vk.Success {
		return 0, fmt.Errorf("submit: vkBeginCommandBuffer failed: %d: %w", res, rerr.ErrDeviceLost)
	}
	if res := vk.EndCommandBuffer(cmd); res != vk.Success {
		return 0, fmt.Errorf("submit: vkEndCommandBuffer failed: %d: %w", res, rerr.ErrDeviceLost)
	}

	signalValue := s.currentValue() + 1

	timelineInfo := vk.TimelineSemaphoreSubmitInfo{
		SType:                     vk.StructureTypeTimelineSemaphoreSubmitInfo,
		SignalSemaphoreValueCount: 1,
		PSignalSemaphoreValues:    []uint64{signalValue},
	}
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		PNext:                vk.Pointer(&timelineInfo),
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cmd},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{s.timeline},
	}
	if res := vk.QueueSubmit(s.dev.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence); res != vk.Success {
		return 0, fmt.Errorf("submit: vkQueueSubmit failed: %d: %w", res, rerr.ErrDeviceLost)
	}
	return signalValue, nil
}

func (s *Submitter) currentValue() uint64 {
	var v uint64
	vk.GetSemaphoreCounterValue(s.dev.Handle, s.timeline, &v)
	return v
}

// WaitTimeline blocks the host until the shared timeline semaphore has
// reached at least value; this is the renderer's one host-side wait
// per frame.
func (s *Submitter) WaitTimeline(value uint64) error {
	if value == 0 {
		return nil
	}
	waitInfo := vk.SemaphoreWaitInfo{
		SType:          vk.StructureTypeSemaphoreWaitInfo,
		SemaphoreCount: 1,
		PSemaphores:    []vk.Semaphore{s.timeline},
		PValues:        []uint64{value},
	}
	if res := vk.WaitSemaphores(s.dev.Handle, &waitInfo, ^uint64(0)); res != vk.Success {
		return fmt.Errorf("submit: vkWaitSemaphores failed: %d: %w", res, rerr.ErrDeviceLost)
	}
	return nil
}

// AcquireSwapchainImage delegates to the externally-owned Surface; a
// stale result is the transient "skip this frame, rebuild next" case.
func (s *Submitter) AcquireSwapchainImage() (uint32, bool, error) {
	idx, stale, err := s.surface.AcquireNextImage()
	if err != nil {
		return 0, false, fmt.Errorf("submit: acquiring swapchain image: %w", err)
	}
	return idx, stale, nil
}

// RebuildSwapchain asks the Surface to recreate itself after a stale
// acquire.
func (s *Submitter) RebuildSwapchain() error {
	return s.surface.Recreate()
}

// Present schedules imageIndex for presentation. waitValue is part of
// the frame.Submitter contract but unused here: presentation engines
// take binary semaphores, not timeline ones, so bridging the render
// graph's timeline value to a present-ready binary semaphore is the
// Surface implementation's concern, not this package's.
func (s *Submitter) Present(imageIndex uint32, waitValue uint64) error {
	_ = waitValue
	return s.surface.Present(imageIndex)
}
