package vkutil

// Extension identifies a Vulkan device extension this renderer may
// request. The enum-plus-name-switch shape is grounded on the
// extension-table pattern used for loading optional Vulkan entry
// points by a cgo-based Vulkan driver for a 3D scene engine elsewhere
// in the retrieval pack; this module only needs device extensions,
// since every required feature (64-bit image atomics, mesh shaders,
// inline ray queries, descriptor indexing, acceleration structures) is
// a device-level feature/extension pair.
type Extension int

const (
	ExtMeshShader Extension = iota
	ExtRayQuery
	ExtAccelerationStructure
	ExtDescriptorIndexing
	ExtBufferDeviceAddress
	ExtShaderImageAtomicInt64
	ExtSynchronization2

	extN int = iota
)

// Name returns the extension's Vulkan registry name.
func (e Extension) Name() string {
	switch e {
	case ExtMeshShader:
		return "VK_EXT_mesh_shader"
	case ExtRayQuery:
		return "VK_KHR_ray_query"
	case ExtAccelerationStructure:
		return "VK_KHR_acceleration_structure"
	case ExtDescriptorIndexing:
		return "VK_EXT_descriptor_indexing"
	case ExtBufferDeviceAddress:
		return "VK_KHR_buffer_device_address"
	case ExtShaderImageAtomicInt64:
		return "VK_EXT_shader_image_atomic_int64"
	case ExtSynchronization2:
		return "VK_KHR_synchronization2"
	}
	panic("vkutil: Extension.Name: unhandled extension value")
}

// RequiredExtensions is the full set this core's visibility pipeline
// needs: a GPU lacking any one of these is out of scope.
func RequiredExtensions() []Extension {
	return []Extension{
		ExtMeshShader,
		ExtRayQuery,
		ExtAccelerationStructure,
		ExtDescriptorIndexing,
		ExtBufferDeviceAddress,
		ExtShaderImageAtomicInt64,
		ExtSynchronization2,
	}
}
