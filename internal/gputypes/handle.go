// Package gputypes holds the handful of types shared by every GPU-facing
// package in this module: the bindless Handle, and the GpuBuffer/GpuImage
// resource records the resource pool hands out and the bindless table
// indexes. Splitting these into their own package (rather than letting
// bindless or respool own them) is what lets both packages, plus the
// render graph and cull engine, reference the same resource identity
// without an import cycle — the same role github.com/gogpu/gputypes
// plays for the WebGPU-based renderer elsewhere in this pack.
package gputypes

// Handle is a 32-bit opaque key into the bindless descriptor table.
// Handle 0 is reserved as "null" and is bound at table construction to
// a default-valued 1x1 texture so shader code can sample an optional
// slot without branching.
type Handle uint32

// NullHandle is the reserved "no resource" handle.
const NullHandle Handle = 0

// Format mirrors the subset of VkFormat this module's images and
// buffers care about; kept as a small renderer-local enum rather than
// importing the full goki/vulkan constant set everywhere a format is
// named in a doc comment or test.
type Format int

const (
	FormatUnknown Format = iota
	FormatR8G8B8A8Unorm
	FormatR32Sfloat   // HZB mip texel format
	FormatR64Uint     // visibility buffer atomic-max target
	FormatR32Uint     // overdraw / classifier alias of the r64u image
	FormatD32Sfloat
)

// GpuBuffer is an allocation of Size bytes with a stable device
// address: immutable size, lifetime owned by the resource pool,
// released only once every frame that might reference it has
// completed.
type GpuBuffer struct {
	Handle        Handle
	Size          uint64
	DeviceAddress uint64
	// HostVisible marks a buffer mapped for CPU writes (staging
	// arenas, the instance update stream); device-local buffers have
	// HostVisible == false.
	HostVisible bool
}

// MipView describes one mip level's image view plus an optional
// alternate-format alias, e.g. the visibility image's r64u/r32u pair.
type MipView struct {
	Width, Height uint32
	AliasFormat   Format // FormatUnknown if this mip has no alias
}

// GpuImage is a 2D/3D image with a format, usage, and an array of
// per-mip views.
type GpuImage struct {
	Handle  Handle
	Format  Format
	Width   uint32
	Height  uint32
	Depth   uint32
	Mips    []MipView
	Storage bool // true for storage-image usage (compute read/write)
	Sampled bool // true for sampled-image usage (shader read)
}
