package raster

import "github.com/radiance-go/visibility/internal/graph"

// OverdrawPass declares the optional debug-overlay graph pass: both
// rasterizer paths additionally atomicAdd into a per-pixel counter
// image when overdraw debugging is enabled, and a classifier image
// records which path (hardware or software) most recently wrote each
// pixel. Neither image participates in the visibility encoding itself;
// they exist purely for the consumer-side overlay.
func OverdrawPass(counterImage, classifierImage graph.ResourceID) graph.Pass {
	return graph.Pass{
		Name: "overdraw-debug-clear",
		Kind: graph.KindCompute,
		Uses: []graph.ResourceUse{
			{Resource: counterImage, Access: graph.AccessWrite, Stage: graph.StageComputeShader, Layout: graph.LayoutGeneral},
			{Resource: classifierImage, Access: graph.AccessWrite, Stage: graph.StageComputeShader, Layout: graph.LayoutGeneral},
		},
	}
}

// PathClass distinguishes which rasterizer path produced a classifier
// image sample.
type PathClass uint32

const (
	PathClassNone PathClass = iota
	PathClassHardware
	PathClassSoftware
)

// OverdrawCounters is the CPU-side stand-in for the overdraw debug
// images, used to check the reference rasterizer's per-pixel write
// count and path attribution without a GPU.
type OverdrawCounters struct {
	Width, Height int
	Count         []uint32
	Class         []PathClass
}

// NewOverdrawCounters allocates zeroed counter and classifier images.
func NewOverdrawCounters(width, height int) *OverdrawCounters {
	return &OverdrawCounters{
		Width:  width,
		Height: height,
		Count:  make([]uint32, width*height),
		Class:  make([]PathClass, width*height),
	}
}

// RecordSoftware increments the per-pixel overdraw counter and tags the
// classifier image as software for every pixel a software-path triangle
// covers, mirroring what the compute shader's atomicAdd would do.
func RecordSoftware(oc *OverdrawCounters, vb *VisBuffer, tris []Triangle) {
	for i := range tris {
		recordOne(oc, vb, &tris[i], PathClassSoftware)
	}
}

// RecordHardware is the hardware-path counterpart of RecordSoftware,
// used by tests that simulate the mesh-shader fragment stage on the
// CPU.
func RecordHardware(oc *OverdrawCounters, vb *VisBuffer, tris []Triangle) {
	for i := range tris {
		recordOne(oc, vb, &tris[i], PathClassHardware)
	}
}

func recordOne(oc *OverdrawCounters, vb *VisBuffer, tri *Triangle, class PathClass) {
	v0, v1, v2 := tri.V[0], tri.V[1], tri.V[2]
	area := edgeFunction(v0.X, v0.Y, v1.X, v1.Y, v2.X, v2.Y)
	if area == 0 {
		return
	}
	if area < 0 {
		v0, v2 = v2, v0
		area = -area
	}

	minX, maxX := int(min3(v0.X, v1.X, v2.X)), int(max3(v0.X, v1.X, v2.X))+1
	minY, maxY := int(min3(v0.Y, v1.Y, v2.Y)), int(max3(v0.Y, v1.Y, v2.Y))+1
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

	for y := minY; y < maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x < maxX; x++ {
			px := float32(x) + 0.5
			w0 := edgeFunction(v1.X, v1.Y, v2.X, v2.Y, px, py)
			w1 := edgeFunction(v2.X, v2.Y, v0.X, v0.Y, px, py)
			w2 := edgeFunction(v0.X, v0.Y, v1.X, v1.Y, px, py)
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			idx := y*oc.Width + x
			oc.Count[idx]++
			oc.Class[idx] = class
		}
	}
}
