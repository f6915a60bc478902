// Package hzb declares the render-graph pass for the hierarchical
// Z-buffer builder: a single persistent-thread compute dispatch that
// reduces the visibility buffer's depth channel into a depth-min mip
// pyramid, using the SPD (single-pass-downsample) pattern with a
// last-workgroup handoff instead of a second dispatch.
package hzb

import "github.com/radiance-go/visibility/internal/graph"

// MipCount returns how many mip levels an HZB covering a
// power-of-two-rounded width×height pyramid has: one mip per halving
// down to a 1x1 texel.
func MipCount(width, height uint32) int {
	extent := width
	if height > extent {
		extent = height
	}
	n := 1
	for extent > 1 {
		extent >>= 1
		n++
	}
	return n
}

// Plan describes the single compute dispatch phase 1/2 split: phase 1
// (mips 0..5, per-tile, one workgroup per 64x64 source tile) and phase
// 2 (mips 6.., run only by the last workgroup to arrive, reading the
// mid-pyramid image phase 1 wrote). The two phases are separated by a
// shader-level device-scope image barrier, not a render-graph pass
// boundary — from the graph's perspective this is one pass.
type Plan struct {
	VisImage   graph.ResourceID
	MidImage   graph.ResourceID // phase-1 output, phase-2 input
	HzbImage   graph.ResourceID
	TileSize   int // 64
}

// DefaultPlan returns the mandated tile size.
func DefaultPlan(vis, mid, out graph.ResourceID) Plan {
	return Plan{VisImage: vis, MidImage: mid, HzbImage: out, TileSize: 64}
}

// Pass builds the render-graph pass declaration: a compute pass reading
// the visibility image, read-writing the mid-pyramid scratch image
// (internal, transient — candidate for aliasing against other
// single-frame scratch resources), and writing the final HZB pyramid.
// InlineBarrier is set because the shader issues its own device-scope
// barrier between the tile-reduction and last-workgroup phases; the
// graph does not need to (and cannot, since it is inside one dispatch)
// synthesize a barrier for that internal hand-off.
func (p Plan) Pass() graph.Pass {
	return graph.Pass{
		Name: "hzb-build",
		Kind: graph.KindCompute,
		Uses: []graph.ResourceUse{
			{Resource: p.VisImage, Access: graph.AccessRead, Stage: graph.StageComputeShader, Layout: graph.LayoutShaderReadOnly},
			{Resource: p.MidImage, Access: graph.AccessReadWrite, Stage: graph.StageComputeShader, Layout: graph.LayoutGeneral},
			{Resource: p.HzbImage, Access: graph.AccessWrite, Stage: graph.StageComputeShader, Layout: graph.LayoutGeneral},
		},
		InlineBarrier: true,
	}
}
