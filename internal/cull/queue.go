// Package cull implements the ping-pong BVH traversal queue and the
// dual-cursor candidate-meshlet queue the cull engine's two dispatches
// (instance/BVH cull, per-meshlet cull) consume and produce, plus the
// graph pass declarations for the early and late cull passes. The
// actual frustum/occlusion/LOD decision math used by the GPU kernels
// has a CPU reference implementation in internal/cull/refsim, used by
// tests.
package cull

import (
	"sync/atomic"

	"github.com/radiance-go/visibility/internal/graph"
)

// BvhNode is one 8-wide BVH node as the traversal queue stores it.
type BvhNode struct {
	AABBMin, AABBMax [3]float32
	LodBounds        [4]float32 // centre (3) + radius (1)
	ParentError      float32
	ChildOffset      uint32
	ChildCount       uint8 // 255 marks a nested BVH node
}

// BvhQueue is the ping-pong traversal queue: per the data model, a
// single backing buffer logically split into a front half that grows
// from index 0 upward and a back half that grows from the tail
// downward, each with its own atomic push cursor — this is what lets
// one dispatch consume one side while another produces into the other
// without contention, and what makes the combined capacity (not twice
// it) the overflow budget the host sizes via
// config.Config.BvhQueueCapacity.
type BvhQueue struct {
	capacity int
	buf      []BvhNode
	frontLen atomic.Int32
	backLen  atomic.Int32

	// ping is the host-driven flag spec §9's open question describes:
	// it picks which half is this traversal iteration's consumed
	// input versus produced-into output, without needing a device-side
	// iteration counter.
	ping bool

	overflow atomic.Bool
}

// NewBvhQueue allocates a ping-pong queue with room for capacity nodes
// shared between the front and back halves.
func NewBvhQueue(capacity int) *BvhQueue {
	return &BvhQueue{capacity: capacity, buf: make([]BvhNode, capacity)}
}

// PushFront and PushBack append a node to the named half using the
// subgroup-aggregated-atomic-add push protocol: each call reserves one
// slot via atomic increment, and sets the overflow flag (without
// panicking or dropping in-flight work) once the front and back
// halves' combined footprint would collide.
func (q *BvhQueue) PushFront(n BvhNode) {
	idx := q.frontLen.Add(1) - 1
	if int(idx)+int(q.backLen.Load()) >= q.capacity {
		q.overflow.Store(true)
		return
	}
	q.buf[idx] = n
}

func (q *BvhQueue) PushBack(n BvhNode) {
	idx := q.backLen.Add(1) - 1
	if int(idx)+int(q.frontLen.Load()) >= q.capacity {
		q.overflow.Store(true)
		return
	}
	q.buf[q.capacity-1-int(idx)] = n
}

// Overflow reports whether any push since the last Reset exceeded the
// queue's combined capacity; the frame is still recorded when this is
// set, but the host should enlarge the queue's backing buffer next
// frame.
func (q *BvhQueue) Overflow() bool { return q.overflow.Load() }

// FrontLen and BackLen report how many entries are live on each half,
// clamped to capacity (entries beyond capacity were dropped and
// counted only in Overflow).
func (q *BvhQueue) FrontLen() int { return clampLen(q.frontLen.Load(), q.capacity) }
func (q *BvhQueue) BackLen() int  { return clampLen(q.backLen.Load(), q.capacity) }

func clampLen(n int32, capacity int) int {
	if int(n) > capacity {
		return capacity
	}
	if n < 0 {
		return 0
	}
	return int(n)
}

// ResetBack clears the back half's cursor so it can become the output
// half of the next traversal iteration (the drained side's counter is
// reset to zero by whichever workgroup observes it fall to zero,
// preventing the next iteration from spuriously skipping work).
func (q *BvhQueue) ResetBack() { q.backLen.Store(0) }

// ResetFront is ResetBack's counterpart for the front half.
func (q *BvhQueue) ResetFront() { q.frontLen.Store(0) }

// Front and Back expose the live entries of each half for a dispatch
// to read (tests and the CPU reference simulation only — the real
// kernel addresses these via a storage buffer device address).
func (q *BvhQueue) Front() []BvhNode { return q.buf[:q.FrontLen()] }
func (q *BvhQueue) Back() []BvhNode {
	n := q.BackLen()
	return q.buf[q.capacity-n : q.capacity]
}

// Ping reports the current host-driven side-selection flag.
func (q *BvhQueue) Ping() bool { return q.ping }

// TogglePing flips which half the traversal loop treats as this
// iteration's input, alternating producer/consumer roles across
// iterations without shader-side recursion.
func (q *BvhQueue) TogglePing() { q.ping = !q.ping }

// InputSide and OutputReset follow Ping: InputSide returns the half to
// consume this iteration, OutputReset clears the other half so the
// traversal can produce fresh entries into it.
func (q *BvhQueue) InputSide() []BvhNode {
	if q.ping {
		return q.Back()
	}
	return q.Front()
}

func (q *BvhQueue) OutputReset() {
	if q.ping {
		q.ResetFront()
	} else {
		q.ResetBack()
	}
}

// MeshletRef is one candidate-meshlet queue entry.
type MeshletRef struct {
	MeshletPointerID uint32
	HardwarePath     bool // routed to the hardware (mesh-shader) queue rather than the software compute queue
}

// MeshletQueue is the dual-cursor candidate-meshlet queue: per the
// data model, a single backing buffer that stores hardware pointers
// growing from the front and software pointers growing from the back,
// the same shared-buffer shape BvhQueue uses, so the hardware/software
// split shares one combined capacity rather than doubling it.
type MeshletQueue struct {
	capacity int
	buf      []MeshletRef
	hwLen    atomic.Int32
	swLen    atomic.Int32
	overflow atomic.Bool
}

// NewMeshletQueue allocates a dual-cursor queue with room for capacity
// entries shared between the hardware and software cursors.
func NewMeshletQueue(capacity int) *MeshletQueue {
	return &MeshletQueue{capacity: capacity, buf: make([]MeshletRef, capacity)}
}

// Push routes ref to the hardware or software cursor per
// ref.HardwarePath.
func (q *MeshletQueue) Push(ref MeshletRef) {
	if ref.HardwarePath {
		idx := q.hwLen.Add(1) - 1
		if int(idx)+int(q.swLen.Load()) >= q.capacity {
			q.overflow.Store(true)
			return
		}
		q.buf[idx] = ref
		return
	}
	idx := q.swLen.Add(1) - 1
	if int(idx)+int(q.hwLen.Load()) >= q.capacity {
		q.overflow.Store(true)
		return
	}
	q.buf[q.capacity-1-int(idx)] = ref
}

// Overflow reports whether either cursor's combined footprint exceeded
// capacity.
func (q *MeshletQueue) Overflow() bool { return q.overflow.Load() }

// Hardware and Software expose the live entries of each cursor.
func (q *MeshletQueue) Hardware() []MeshletRef {
	return q.buf[:clampLen(q.hwLen.Load(), q.capacity)]
}
func (q *MeshletQueue) Software() []MeshletRef {
	n := clampLen(q.swLen.Load(), q.capacity)
	return q.buf[q.capacity-n : q.capacity]
}

// EarlyPass and LatePass declare the render-graph passes for the two
// cull dispatches: instance cull + BVH traversal + per-meshlet cull,
// run once against the previous frame's HZB (early) and once more
// against the current frame's freshly built HZB to catch
// disocclusions (late).
func EarlyPass(instanceTable, prevHZB, hwQueue, swQueue graph.ResourceID) graph.Pass {
	return cullPass("cull-early", instanceTable, prevHZB, hwQueue, swQueue)
}

func LatePass(instanceTable, curHZB, hwQueue, swQueue graph.ResourceID) graph.Pass {
	return cullPass("cull-late", instanceTable, curHZB, hwQueue, swQueue)
}

func cullPass(name string, instanceTable, hzb, hwQueue, swQueue graph.ResourceID) graph.Pass {
	return graph.Pass{
		Name: name,
		Kind: graph.KindCompute,
		Uses: []graph.ResourceUse{
			{Resource: instanceTable, Access: graph.AccessRead, Stage: graph.StageComputeShader},
			{Resource: hzb, Access: graph.AccessRead, Stage: graph.StageComputeShader, Layout: graph.LayoutShaderReadOnly},
			{Resource: hwQueue, Access: graph.AccessWrite, Stage: graph.StageComputeShader},
			{Resource: swQueue, Access: graph.AccessWrite, Stage: graph.StageComputeShader},
		},
	}
}
