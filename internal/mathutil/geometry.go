package mathutil

import "math"

// AABB is an axis-aligned bounding box in object or world space.
type AABB struct {
	Min, Max V3
}

// Sphere is the 4-vector LOD bounding sphere from the mesh blob format:
// centre (x, y, z) and radius.
type Sphere struct {
	Center V3
	Radius float32
}

// Camera is a transform plus the projection's half-extents at unit
// distance and the near-plane distance. The renderer always uses the
// reversed-infinite-Z projection.
type Camera struct {
	View    M4 // world-to-view transform
	HHalf   float32
	VHalf   float32
	Near    float32
	ScreenW float32
	ScreenH float32
}

// Proj returns the camera's reversed-infinite-Z projection matrix.
func (c *Camera) Proj() M4 {
	var p M4
	p.ReversedInfiniteProjection(c.HHalf, c.VHalf, c.Near)
	return p
}

// ScreenRect is an axis-aligned rectangle in normalized screen space
// ([-1, 1] on both axes), the output of ProjectAABB.
type ScreenRect struct {
	MinX, MinY, MaxX, MaxY float32
	// NearestDepth is the box's nearest corner's post-projective depth
	// (clip.z/clip.w, reversed-Z: 1 at the near plane, asymptotically 0
	// at infinity) — the maximum such value over the eight corners.
	// Comparable directly against an HZB texel's stored depth-min
	// value, unlike any world/view-space coordinate.
	NearestDepth float32
	// Behind reports that at least one projected corner had w < near,
	// the Zeux approximation's abort case: the caller must treat the
	// box as visible rather than trust MinX..MaxY/NearestDepth.
	Behind bool
}

// corners of a unit AABB, reused by ProjectAABB.
var aabbCornerSigns = [8][3]float32{
	{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1},
}

// ProjectAABB implements the Zeux AABB-to-screen approximation: project
// the eight corners of box through mvp, divide by w, and derive the
// screen-space min/max. A single corner with w < near aborts the test
// (the caller should treat the box as visible rather than occluded).
func ProjectAABB(box *AABB, mvp *M4, near float32) ScreenRect {
	var rect ScreenRect
	first := true
	for _, s := range aabbCornerSigns {
		corner := V4{
			lerp(box.Min[0], box.Max[0], s[0]),
			lerp(box.Min[1], box.Max[1], s[1]),
			lerp(box.Min[2], box.Max[2], s[2]),
			1,
		}
		var clip V4
		mvp.MulV4(&clip, &corner)
		if clip[3] < near {
			rect.Behind = true
			return rect
		}
		invW := 1 / clip[3]
		x, y := clip[0]*invW, clip[1]*invW
		depth := clip[2] * invW
		if first {
			rect.MinX, rect.MaxX = x, x
			rect.MinY, rect.MaxY = y, y
			rect.NearestDepth = depth
			first = false
			continue
		}
		if x < rect.MinX {
			rect.MinX = x
		}
		if x > rect.MaxX {
			rect.MaxX = x
		}
		if y < rect.MinY {
			rect.MinY = y
		}
		if y > rect.MaxY {
			rect.MaxY = y
		}
		if depth > rect.NearestDepth {
			rect.NearestDepth = depth
		}
	}
	return rect
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

// ProjectedError implements the Mara-McGuire screen-space error bound
// used by the cull engine's LOD decision: take the meshlet's LOD
// bounding sphere already in view space (the caller is responsible for
// that transform and for the conservative uniform-scale inflation of
// the sphere radius before calling this), then derive the silhouette's
// projected size and scale the node's stored group error by it.
//
// groupError is the node's world-space error metric; viewSphere is the
// bounding sphere already transformed into view space; vHalf is the
// camera's vertical half-extent at unit distance (so the result scales
// correctly with both resolution and field of view); screenHeight is
// the render target height in pixels.
func ProjectedError(groupError float32, viewSphere *Sphere, vHalf, screenHeight float32) float32 {
	d := viewSphere.Center.Len()
	if d <= viewSphere.Radius {
		// Camera is inside the sphere: the silhouette fills the
		// screen, so any positive error is perceptible.
		return math.MaxFloat32
	}
	// Mara-McGuire: projected radius of a sphere of radius r at
	// distance d, in projection-plane units, is r / sqrt(d^2 - r^2).
	projRadius := viewSphere.Radius / float32(math.Sqrt(float64(d*d-viewSphere.Radius*viewSphere.Radius)))
	pixelsPerUnit := screenHeight / (2 * vHalf)
	return groupError * projRadius * pixelsPerUnit
}

// InflateUniformScale grows a bounding sphere's radius to conservatively
// bound a uniform-scale transform's effect on it, before projecting the
// LOD bounding sphere into view space.
func InflateUniformScale(s Sphere, scale float32) Sphere {
	s.Radius *= scale
	return s
}
