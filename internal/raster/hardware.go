package raster

import "github.com/radiance-go/visibility/internal/graph"

// MeshShaderPipelineDesc describes the fixed-function state for the
// hardware mesh-shader path: one meshlet per workgroup of 128 threads,
// up to 124 emitted triangles, writing the visibility buffer via
// atomicMax in the fragment shader.
//
// This generalizes createPipelineVariant's shader-stage/vertex-input/
// rasterization/depth-stencil/blend assembly (voodoo_vulkan.go) from a
// fixed graphics pipeline with a vertex input stage to a mesh-shader
// pipeline with none (mesh shaders read meshlet vertex/index data from
// storage buffers via device address, not a vertex input binding).
type MeshShaderPipelineDesc struct {
	TaskShader, MeshShader, FragmentShader uint32 // opaque shader-bytecode handles
	WorkgroupThreads                      int     // 128
	MaxTrianglesPerWorkgroup               int     // 124
}

// DefaultMeshShaderPipeline returns the mandated pipeline shape.
func DefaultMeshShaderPipeline(task, mesh, frag uint32) MeshShaderPipelineDesc {
	return MeshShaderPipelineDesc{
		TaskShader:             task,
		MeshShader:             mesh,
		FragmentShader:         frag,
		WorkgroupThreads:       128,
		MaxTrianglesPerWorkgroup: 124,
	}
}

// HardwarePass declares the render-graph pass for the mesh-shader path:
// a graphics pass reading the hardware draw-queue's indirect count and
// writing the shared visibility image (and, when debug overlay is
// enabled, its overdraw/classifier aliases).
func HardwarePass(hwQueue, visImage graph.ResourceID, overdrawImage, classifierImage *graph.ResourceID) graph.Pass {
	uses := []graph.ResourceUse{
		{Resource: hwQueue, Access: graph.AccessRead, Stage: graph.StageMeshShader},
		{Resource: visImage, Access: graph.AccessReadWrite, Stage: graph.StageFragmentShader, Layout: graph.LayoutGeneral},
	}
	if overdrawImage != nil {
		uses = append(uses, graph.ResourceUse{Resource: *overdrawImage, Access: graph.AccessReadWrite, Stage: graph.StageFragmentShader, Layout: graph.LayoutGeneral})
	}
	if classifierImage != nil {
		uses = append(uses, graph.ResourceUse{Resource: *classifierImage, Access: graph.AccessReadWrite, Stage: graph.StageFragmentShader, Layout: graph.LayoutGeneral})
	}
	return graph.Pass{Name: "visibility-hardware-raster", Kind: graph.KindGraphics, Uses: uses}
}

// SoftwarePass declares the render-graph pass for the compute
// software-rasterizer path: a compute pass reading the software
// draw-queue and read-modify-writing the same visibility image. Both
// paths can coexist in one frame; because both passes read-modify-write
// that image, the render graph places a barrier between them.
func SoftwarePass(swQueue, visImage graph.ResourceID) graph.Pass {
	return graph.Pass{
		Name: "visibility-software-raster",
		Kind: graph.KindCompute,
		Uses: []graph.ResourceUse{
			{Resource: swQueue, Access: graph.AccessRead, Stage: graph.StageComputeShader},
			{Resource: visImage, Access: graph.AccessReadWrite, Stage: graph.StageComputeShader, Layout: graph.LayoutGeneral},
		},
	}
}
