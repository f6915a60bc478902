// Package meshfmt parses the little-endian mesh blob format: a
// depth-first pre-order BVH, meshlet records, and the vertex/index
// streams the BVH leaves and meshlet records point into.
package meshfmt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// InnerNodeChildCount marks a BVH node as an inner node (its children
// are other BVH nodes) rather than a meshlet leaf.
const InnerNodeChildCount = 255

// BvhNode is one 8-wide BVH node: AABB(6 f32), lod_bounds(4 f32),
// parent_error(f32), child_offset(u32), child_count(u8).
type BvhNode struct {
	AABBMin, AABBMax [3]float32
	LodBounds        [4]float32
	ParentError      float32
	ChildOffset      uint32
	ChildCount       uint8
}

// IsInner reports whether this node's children are further BVH nodes
// rather than a leaf's meshlet run.
func (n BvhNode) IsInner() bool { return n.ChildCount == InnerNodeChildCount }

const bvhNodeSize = 6*4 + 4*4 + 4 + 4 + 1

// Meshlet is one meshlet record: AABB(6 f32), lod_bounds(4 f32),
// error(f32), vertex_offset(u32), index_offset(u32), vertex_count(u8),
// tri_count(u8), _pad(u16), max_edge_length(f32).
type Meshlet struct {
	AABBMin, AABBMax [3]float32
	LodBounds        [4]float32
	Error            float32
	VertexOffset     uint32
	IndexOffset      uint32
	VertexCount      uint8
	TriCount         uint8
	MaxEdgeLength    float32
}

const meshletSize = 6*4 + 4*4 + 4 + 4 + 4 + 1 + 1 + 2 + 4

// Vertex is position(3 f32), normal(3 f32), uv(2 f32).
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
}

const vertexSize = 3*4 + 3*4 + 2*4

// Blob is a fully parsed mesh blob.
type Blob struct {
	BvhNodes []BvhNode
	Meshlets []Meshlet
	Vertices []Vertex
	// Indices is the packed u8-triple index stream, one byte per
	// triangle corner index (3 per triangle); callers widen to whatever index type their
	// draw call needs.
	Indices []byte
}

var (
	errTruncated = errors.New("meshfmt: blob truncated")
)

// ParseHeader parses just the BVH node array from the start of a blob,
// given the number of nodes the container (e.g. a higher-level asset
// manifest) reports.
func ParseHeader(data []byte, nodeCount int) ([]BvhNode, int, error) {
	need := nodeCount * bvhNodeSize
	if len(data) < need {
		return nil, 0, fmt.Errorf("%w: BVH header needs %d bytes, have %d", errTruncated, need, len(data))
	}
	nodes := make([]BvhNode, nodeCount)
	off := 0
	for i := range nodes {
		nodes[i] = decodeBvhNode(data[off:])
		off += bvhNodeSize
	}
	return nodes, off, nil
}

func decodeBvhNode(b []byte) BvhNode {
	var n BvhNode
	off := 0
	for i := 0; i < 3; i++ {
		n.AABBMin[i] = readF32(b, &off)
	}
	for i := 0; i < 3; i++ {
		n.AABBMax[i] = readF32(b, &off)
	}
	for i := 0; i < 4; i++ {
		n.LodBounds[i] = readF32(b, &off)
	}
	n.ParentError = readF32(b, &off)
	n.ChildOffset = binary.LittleEndian.Uint32(b[off:])
	off += 4
	n.ChildCount = b[off]
	return n
}

// ParseMeshlets parses meshletCount meshlet records starting at data.
func ParseMeshlets(data []byte, meshletCount int) ([]Meshlet, int, error) {
	need := meshletCount * meshletSize
	if len(data) < need {
		return nil, 0, fmt.Errorf("%w: meshlet records need %d bytes, have %d", errTruncated, need, len(data))
	}
	out := make([]Meshlet, meshletCount)
	off := 0
	for i := range out {
		out[i] = decodeMeshlet(data[off:])
		off += meshletSize
	}
	return out, off, nil
}

func decodeMeshlet(b []byte) Meshlet {
	var m Meshlet
	off := 0
	for i := 0; i < 3; i++ {
		m.AABBMin[i] = readF32(b, &off)
	}
	for i := 0; i < 3; i++ {
		m.AABBMax[i] = readF32(b, &off)
	}
	for i := 0; i < 4; i++ {
		m.LodBounds[i] = readF32(b, &off)
	}
	m.Error = readF32(b, &off)
	m.VertexOffset = binary.LittleEndian.Uint32(b[off:])
	off += 4
	m.IndexOffset = binary.LittleEndian.Uint32(b[off:])
	off += 4
	m.VertexCount = b[off]
	off++
	m.TriCount = b[off]
	off++
	off += 2 // _pad
	m.MaxEdgeLength = readF32(b, &off)
	return m
}

// ParseVertices parses vertexCount vertex records starting at data.
func ParseVertices(data []byte, vertexCount int) ([]Vertex, int, error) {
	need := vertexCount * vertexSize
	if len(data) < need {
		return nil, 0, fmt.Errorf("%w: vertex stream needs %d bytes, have %d", errTruncated, need, len(data))
	}
	out := make([]Vertex, vertexCount)
	off := 0
	for i := range out {
		var v Vertex
		for j := 0; j < 3; j++ {
			v.Position[j] = readF32(data[off:], new(int))
			off += 4
		}
		for j := 0; j < 3; j++ {
			v.Normal[j] = readF32(data[off:], new(int))
			off += 4
		}
		for j := 0; j < 2; j++ {
			v.UV[j] = readF32(data[off:], new(int))
			off += 4
		}
		out[i] = v
	}
	return out, off, nil
}

// ParseIndices slices out the packed u8-triple index stream for
// triCount triangles.
func ParseIndices(data []byte, triCount int) ([]byte, int, error) {
	need := triCount * 3
	if len(data) < need {
		return nil, 0, fmt.Errorf("%w: index stream needs %d bytes, have %d", errTruncated, need, len(data))
	}
	out := make([]byte, need)
	copy(out, data[:need])
	return out, need, nil
}

func readF32(b []byte, off *int) float32 {
	v := math.Float32frombits(binary.LittleEndian.Uint32(b[*off:]))
	*off += 4
	return v
}
