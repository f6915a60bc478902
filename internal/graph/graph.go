// Package graph implements the render graph: a per-frame DAG of passes
// over virtual resources that compiles into a minimal-barrier Vulkan
// submission.
//
// The compilation algorithm:
//  1. linearize passes in declared order, drop unreached ones;
//  2. per resource, walk usages and synthesize at most one barrier
//     between each successive pair, collapsing consecutive reads;
//  3. assign concrete allocations to internal resources by greedy
//     interval colouring;
//  4. record into a command buffer, interleaving barrier batches.
package graph

// Kind is a pass's execution kind.
type Kind int

const (
	KindGraphics Kind = iota
	KindCompute
	KindRayTracing
	KindHost
	KindExternal
)

// AccessMode is how a pass touches a resource.
type AccessMode int

const (
	AccessRead AccessMode = iota
	AccessWrite
	AccessReadWrite
)

// ResourceID names a virtual resource within one graph invocation.
type ResourceID int

// ResourceKind distinguishes internal (arena-scoped, aliasable)
// resources from external/imported ones.
type ResourceKind int

const (
	ResourceInternal ResourceKind = iota
	ResourceExternal
)

// Resource is a virtual resource declaration.
type Resource struct {
	ID       ResourceID
	Name     string
	Kind     ResourceKind
	IsImage  bool
	Size     uint64 // byte size for buffers; ignored for images
	// ByteExtent is the size in bytes used by the allocator's interval
	// colouring for images (approximated from format/width/height by
	// the caller; graph itself is allocator-agnostic about format).
	ByteExtent uint64

	// External-only: caller-provided layout constraints.
	PreLayout, PostLayout Layout
}

// Layout mirrors the VkImageLayout values the graph cares about; kept
// as a small local enum rather than importing goki/vulkan's full
// constant set into a package with no direct Vulkan calls of its own.
type Layout int

const (
	LayoutUndefined Layout = iota
	LayoutGeneral
	LayoutColorAttachment
	LayoutDepthStencilAttachment
	LayoutShaderReadOnly
	LayoutTransferSrc
	LayoutTransferDst
	LayoutPresent
)

// Stage is a pipeline stage mask bit-set, narrowed to the stages this
// renderer's passes actually use.
type Stage uint32

const (
	StageTransfer Stage = 1 << iota
	StageComputeShader
	StageVertexShader
	StageMeshShader
	StageFragmentShader
	StageColorAttachmentOutput
	StageEarlyFragmentTests
	StageLateFragmentTests
	StageHost
	StageAllCommands
)

// ResourceUse declares how one pass touches one resource.
type ResourceUse struct {
	Resource ResourceID
	Access   AccessMode
	Stage    Stage
	Layout   Layout // ignored for buffers
}

// Pass is one node of the graph.
type Pass struct {
	Name  string
	Kind  Kind
	Uses  []ResourceUse
	// InlineBarrier marks a pass that requires a barrier inside its own
	// body before work begins, e.g. an indirect-draw argument readback.
	InlineBarrier bool
}

// Barrier is one synthesized pipeline barrier.
type Barrier struct {
	Resource              ResourceID
	SrcStage, DstStage    Stage
	SrcAccess, DstAccess  AccessMode
	OldLayout, NewLayout  Layout
	IsImage               bool
}

// Graph accumulates passes and resources for one frame's invocation.
type Graph struct {
	resources map[ResourceID]*Resource
	passes    []Pass
	sinks     map[ResourceID]bool
}

// New creates an empty per-frame Graph.
func New() *Graph {
	return &Graph{resources: make(map[ResourceID]*Resource), sinks: make(map[ResourceID]bool)}
}

// AddResource declares a virtual resource.
func (g *Graph) AddResource(r Resource) {
	g.resources[r.ID] = &r
}

// AddPass appends a pass in declaration order.
func (g *Graph) AddPass(p Pass) {
	g.passes = append(g.passes, p)
}

// MarkSink declares that resource r must be preserved: Compile prunes
// any pass whose outputs are not transitively reached by a sink.
func (g *Graph) MarkSink(r ResourceID) {
	g.sinks[r] = true
}
