package raster

import "math"

// Vertex is a screen-space vertex: X, Y in pixels, Z the reversed-Z
// depth value ([0,1], 1 at the near plane).
type Vertex struct {
	X, Y, Z float32
}

// Triangle is one triangle to rasterize, already projected to screen
// space, tagged with the meshlet pointer and triangle index that the
// visibility encoding needs.
type Triangle struct {
	V                [3]Vertex
	MeshletPointerID uint32
	TriangleIndex    uint8
}

// VisBuffer is a CPU-side stand-in for the GPU's r64u visibility
// image, used by the reference rasterizer and by tests checking
// visibility-resolution determinism.
type VisBuffer struct {
	Width, Height int
	Pixels        []uint64 // atomicMax target, row-major
}

// NewVisBuffer allocates a cleared (all-sentinel-zero) visibility
// buffer.
func NewVisBuffer(width, height int) *VisBuffer {
	return &VisBuffer{Width: width, Height: height, Pixels: make([]uint64, width*height)}
}

// edgeFunction computes the signed area of the parallelogram spanned by
// (c - a) and (b - a); sign gives winding, magnitude gives 2x triangle
// area. Grounded on edgeFunction in voodoo_vulkan.go, reused unchanged
// — the barycentric inside-test is general-purpose orientation
// machinery.
func edgeFunction(ax, ay, bx, by, cx, cy float32) float32 {
	return (cx-ax)*(by-ay) - (cy-ay)*(bx-ax)
}

// RasterizeSoftware runs the compute software-rasterizer path against a
// CPU visibility buffer: screen-space triangle setup, scan rows,
// atomicMax per covered pixel. The real GPU path picks per-triangle
// between a scanline and a bounding-box strategy by subgroup vote based
// on triangle width; that choice only affects dispatch efficiency, not
// coverage, so the reference always uses the straightforward
// bounding-box scan.
//
// Pixel-centre sampling uses a half-pixel-centre, top-left-adjacent
// rule (see DESIGN.md): a pixel is covered when its centre lies
// strictly inside the triangle, or lies exactly on a top or left edge.
func RasterizeSoftware(vb *VisBuffer, tris []Triangle) {
	for i := range tris {
		rasterizeOne(vb, &tris[i])
	}
}

func rasterizeOne(vb *VisBuffer, tri *Triangle) {
	v0, v1, v2 := tri.V[0], tri.V[1], tri.V[2]

	area := edgeFunction(v0.X, v0.Y, v1.X, v1.Y, v2.X, v2.Y)
	if area == 0 {
		return // degenerate
	}
	if area < 0 {
		v0, v2 = v2, v0
		area = -area
	}
	invArea := 1 / area

	minX := int(math.Floor(float64(min3(v0.X, v1.X, v2.X))))
	maxX := int(math.Ceil(float64(max3(v0.X, v1.X, v2.X))))
	minY := int(math.Floor(float64(min3(v0.Y, v1.Y, v2.Y))))
	maxY := int(math.Ceil(float64(max3(v0.Y, v1.Y, v2.Y))))
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX > vb.Width {
		maxX = vb.Width
	}
	if maxY > vb.Height {
		maxY = vb.Height
	}

	// Top-left fill-rule bias: an edge is "top" if horizontal and
	// points left-to-right-is-false (i.e. its y is constant and it
	// runs leftward), or "left" if it runs downward. A pixel lying
	// exactly on such an edge (edge function == 0) still counts as
	// covered; pixels on any other shared edge do not, which is what
	// keeps two adjacent triangles from double-covering or leaving a
	// gap on their shared boundary.
	bias := func(ax, ay, bx, by float32) float32 {
		isTop := ay == by && bx < ax
		isLeft := by > ay
		if isTop || isLeft {
			return 0
		}
		return -1e-6
	}
	b0 := bias(v1.X, v1.Y, v2.X, v2.Y)
	b1 := bias(v2.X, v2.Y, v0.X, v0.Y)
	b2 := bias(v0.X, v0.Y, v1.X, v1.Y)

	for y := minY; y < maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x < maxX; x++ {
			px := float32(x) + 0.5

			w0 := edgeFunction(v1.X, v1.Y, v2.X, v2.Y, px, py)
			w1 := edgeFunction(v2.X, v2.Y, v0.X, v0.Y, px, py)
			w2 := edgeFunction(v0.X, v0.Y, v1.X, v1.Y, px, py)

			if w0+b0 < 0 || w1+b1 < 0 || w2+b2 < 0 {
				continue
			}

			n0, n1, n2 := w0*invArea, w1*invArea, w2*invArea
			z := n0*v0.Z + n1*v1.Z + n2*v2.Z

			pixel := EncodePixel(z, tri.MeshletPointerID, tri.TriangleIndex)
			AtomicMax(&vb.Pixels[y*vb.Width+x], pixel)
		}
	}
}

func min3(a, b, c float32) float32 {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}

func max3(a, b, c float32) float32 {
	if a > b {
		if a > c {
			return a
		}
		return c
	}
	if b > c {
		return b
	}
	return c
}
