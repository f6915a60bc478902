// Package refsim is a CPU reference implementation of the per-node
// cull decision: frustum test, Mara-McGuire projected-error LOD
// selection, Zeux AABB occlusion against an HZB mip array, and the
// hardware/software rasterizer routing decision. It exists to make the
// cull engine's testable properties (soundness, not-too-lossy, LOD
// crossover) checkable without a GPU; the production traversal
// dispatch contract lives in internal/cull.
package refsim

import "github.com/radiance-go/visibility/internal/mathutil"

// Node is everything the cull decision needs about one BVH node or
// meshlet.
type Node struct {
	Box          mathutil.AABB
	LodSphere    mathutil.Sphere
	GroupError   float32
	LongestEdgePx float32 // projected longest edge in pixels, meshlets only
}

// Decision is the outcome of running a node through the cull pipeline.
type Decision struct {
	InFrustum    bool
	Perceptible  bool // projected error exceeds the one-pixel threshold; must be traversed/drawn rather than dropped in favour of its parent
	Occluded     bool
	HardwarePath bool // only meaningful when the node is a leaf meshlet being routed
}

// EdgeThresholdPixels is the default hardware/software routing
// threshold: meshlets whose projected longest edge exceeds this many
// pixels go to the hardware (mesh-shader) queue.
const EdgeThresholdPixels = 8

// Frustum is the six view-space frustum planes, stored as (normal,
// distance) pairs with the convention that a point p is inside when
// normal.Dot(p) + distance >= 0 for all six.
type Frustum struct {
	Planes [6]Plane
}

type Plane struct {
	Normal mathutil.V3
	Dist   float32
}

// InFrustum reports whether box (already in the space the frustum
// planes are expressed in) intersects or lies inside every plane,
// using the standard AABB-vs-plane positive-vertex test.
func (f *Frustum) InFrustum(box *mathutil.AABB) bool {
	for _, p := range f.Planes {
		var positive mathutil.V3
		for i := 0; i < 3; i++ {
			if p.Normal[i] >= 0 {
				positive[i] = box.Max[i]
			} else {
				positive[i] = box.Min[i]
			}
		}
		if positive.Dot(&p.Normal)+p.Dist < 0 {
			return false
		}
	}
	return true
}

// Evaluate runs the frustum test, the LOD perceptibility test, and
// (when hzb is non-nil) the occlusion test for one node, against the
// camera described by mvp/view/vHalf/screenHeight. viewSphereScale is
// the conservative uniform-scale inflation factor applied to the LOD
// bounding sphere before it is transformed into view space.
func Evaluate(n *Node, mvp, view *mathutil.M4, near, vHalf, screenHeight, viewSphereScale float32, frustum *Frustum, hzb *HZBSampler) Decision {
	var d Decision

	box := n.Box
	d.InFrustum = frustum.InFrustum(&box)
	if !d.InFrustum {
		return d
	}

	inflated := mathutil.InflateUniformScale(n.LodSphere, viewSphereScale)
	var viewCentre mathutil.V4
	view.MulV4(&viewCentre, &mathutil.V4{inflated.Center[0], inflated.Center[1], inflated.Center[2], 1})
	viewSphere := mathutil.Sphere{Center: mathutil.V3{viewCentre[0], viewCentre[1], viewCentre[2]}, Radius: inflated.Radius}

	projErr := mathutil.ProjectedError(n.GroupError, &viewSphere, vHalf, screenHeight)
	d.Perceptible = projErr >= 1.0

	if hzb != nil {
		rect := mathutil.ProjectAABB(&box, mvp, near)
		if rect.Behind {
			d.Occluded = false
		} else {
			d.Occluded = hzb.Occludes(rect)
		}
	}

	d.HardwarePath = n.LongestEdgePx > EdgeThresholdPixels
	return d
}

// HZBSampler is a minimal read-only view over an HZB mip pyramid
// (depth-min per texel), used only by Evaluate's occlusion test.
type HZBSampler struct {
	Mips         [][]float32 // per-mip depth-min texel grid, row-major
	Widths       []int
	Heights      []int
}

// Occludes reports whether the AABB's screen-space footprint rect,
// whose nearest corner has post-projective depth rect.NearestDepth, is
// hidden behind the stored HZB value at the mip level whose texel(s)
// cover rect. Each HZB texel already holds a depth-min reduction over
// the mip-0 region it covers (spec's HZB monotonicity property), so
// when a footprint spans more than one texel at the chosen mip the
// conservative combined value is the min across them, not the max;
// reversed-Z means a smaller stored depth is farther, so the box is
// occluded only when even the farthest occluder recorded anywhere in
// the footprint (the min) is still nearer than the box's own nearest
// point could ever be.
func (h *HZBSampler) Occludes(rect mathutil.ScreenRect) bool {
	mip := h.mipForFootprint(rect)
	w, hh := h.Widths[mip], h.Heights[mip]
	x0, y0, x1, y1 := screenRectToTexels(rect, w, hh)

	var stored float32
	first := true
	for y := y0; y <= y1 && y < hh; y++ {
		if y < 0 {
			continue
		}
		for x := x0; x <= x1 && x < w; x++ {
			if x < 0 {
				continue
			}
			v := h.Mips[mip][y*w+x]
			if first || v < stored {
				stored = v
				first = false
			}
		}
	}
	if first {
		return false // footprint maps to no texel we can test; treat as visible
	}
	return stored > rect.NearestDepth
}

func (h *HZBSampler) mipForFootprint(rect mathutil.ScreenRect) int {
	spanX, spanY := rect.MaxX-rect.MinX, rect.MaxY-rect.MinY
	span := spanX
	if spanY > span {
		span = spanY
	}
	mip := 0
	size := float32(1.0)
	for mip < len(h.Mips)-1 && size < span {
		size *= 2
		mip++
	}
	return mip
}

func screenRectToTexels(rect mathutil.ScreenRect, w, h int) (x0, y0, x1, y1 int) {
	toU := func(v float32) float32 { return (v + 1) / 2 }
	x0 = int(toU(rect.MinX) * float32(w))
	x1 = int(toU(rect.MaxX) * float32(w))
	y0 = int(toU(rect.MinY) * float32(h))
	y1 = int(toU(rect.MaxY) * float32(h))
	return
}
