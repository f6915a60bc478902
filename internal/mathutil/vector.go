// Package mathutil implements the vector/matrix math the culling and
// rasterization packages need: camera projection, AABB transforms, and
// the LOD bounding-sphere projection used by the cull engine.
//
// The API shape (out-parameter methods: v.Add(l, r) sets v = l + r) is
// adapted from the linear algebra package found elsewhere in the
// retrieval pack (a column-major, allocation-free vector/matrix
// package for a Vulkan scene engine); the renderer's domain types
// (AABB, Sphere, Camera) are new.
package mathutil

import "math"

// V3 is a 3-component vector of float32.
type V3 [3]float32

// V4 is a 4-component vector of float32.
type V4 [4]float32

// Add sets v to contain l + r.
func (v *V3) Add(l, r *V3) {
	for i := range v {
		v[i] = l[i] + r[i]
	}
}

// Sub sets v to contain l - r.
func (v *V3) Sub(l, r *V3) {
	for i := range v {
		v[i] = l[i] - r[i]
	}
}

// Scale sets v to contain s * w.
func (v *V3) Scale(s float32, w *V3) {
	for i := range v {
		v[i] = s * w[i]
	}
}

// Dot returns v . w.
func (v *V3) Dot(w *V3) (d float32) {
	for i := range v {
		d += v[i] * w[i]
	}
	return
}

// Len returns the Euclidean length of v.
func (v *V3) Len() float32 { return float32(math.Sqrt(float64(v.Dot(v)))) }

// Min sets v to the component-wise minimum of l and r.
func (v *V3) Min(l, r *V3) {
	for i := range v {
		if l[i] < r[i] {
			v[i] = l[i]
		} else {
			v[i] = r[i]
		}
	}
}

// Max sets v to the component-wise maximum of l and r.
func (v *V3) Max(l, r *V3) {
	for i := range v {
		if l[i] > r[i] {
			v[i] = l[i]
		} else {
			v[i] = r[i]
		}
	}
}
