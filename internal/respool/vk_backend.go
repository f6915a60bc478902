//go:build !headless

package respool

import (
	"fmt"
	"sync/atomic"

	vk "github.com/goki/vulkan"

	"github.com/radiance-go/visibility/internal/gputypes"
	"github.com/radiance-go/visibility/internal/vkutil"
)

// VkBackend is the production Backend, grounded directly on
// voodoo_vulkan.go's createOffscreenImages/createVertexBuffer/
// createStagingBuffer sequence: create the object, query its memory
// requirements, find a matching memory type via the device, allocate,
// and bind.
type VkBackend struct {
	dev    *vkutil.Device
	nextID atomic.Uint32
}

// NewVkBackend wraps a vkutil.Device as a respool.Backend.
func NewVkBackend(dev *vkutil.Device) *VkBackend {
	return &VkBackend{dev: dev}
}

func (b *VkBackend) allocHandle() gputypes.Handle {
	return gputypes.Handle(b.nextID.Add(1))
}

// AllocBuffer creates a VkBuffer and binds device or host-visible
// memory to it depending on hostVisible.
func (b *VkBackend) AllocBuffer(size uint64, hostVisible bool) (gputypes.GpuBuffer, error) {
	usage := vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit |
		vk.BufferUsageTransferDstBit | vk.BufferUsageTransferSrcBit |
		vk.BufferUsageShaderDeviceAddressBit)
	info := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeConcurrent,
	}

	var buf vk.Buffer
	if res := vk.CreateBuffer(b.dev.Handle, &info, nil, &buf); res != vk.Success {
		return gputypes.GpuBuffer{}, fmt.Errorf("vkCreateBuffer failed: %d", res)
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(b.dev.Handle, buf, &req)
	req.Deref()

	props := vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	if hostVisible {
		props = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	}
	typeIdx, err := b.dev.FindMemoryType(req.MemoryTypeBits, props)
	if err != nil {
		vk.DestroyBuffer(b.dev.Handle, buf, nil)
		return gputypes.GpuBuffer{}, err
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: typeIdx,
	}
	var mem vk.DeviceMemory
	if res := vk.AllocateMemory(b.dev.Handle, &allocInfo, nil, &mem); res != vk.Success {
		vk.DestroyBuffer(b.dev.Handle, buf, nil)
		return gputypes.GpuBuffer{}, fmt.Errorf("vkAllocateMemory failed: %d", res)
	}
	vk.BindBufferMemory(b.dev.Handle, buf, mem, 0)

	var addr uint64
	addrInfo := vk.BufferDeviceAddressInfo{
		SType:  vk.StructureTypeBufferDeviceAddressInfo,
		Buffer: buf,
	}
	addr = vk.GetBufferDeviceAddress(b.dev.Handle, &addrInfo)

	return gputypes.GpuBuffer{
		Handle:        b.allocHandle(),
		Size:          size,
		DeviceAddress: addr,
		HostVisible:   hostVisible,
	}, nil
}

// AllocImage creates a VkImage matching desc plus its backing memory;
// it creates no image views.
func (b *VkBackend) AllocImage(desc gputypes.GpuImage) (gputypes.GpuImage, error) {
	usage := vk.ImageUsageFlags(0)
	if desc.Sampled {
		usage |= vk.ImageUsageFlags(vk.ImageUsageSampledBit)
	}
	if desc.Storage {
		usage |= vk.ImageUsageFlags(vk.ImageUsageStorageBit)
	}
	usage |= vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageTransferSrcBit)

	info := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    toVkFormat(desc.Format),
		Extent: vk.Extent3D{
			Width:  desc.Width,
			Height: desc.Height,
			Depth:  max1(desc.Depth),
		},
		MipLevels:     max1(uint32(len(desc.Mips))),
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         usage,
		SharingMode:   vk.SharingModeConcurrent,
		InitialLayout: vk.ImageLayoutUndefined,
	}

	var img vk.Image
	if res := vk.CreateImage(b.dev.Handle, &info, nil, &img); res != vk.Success {
		return gputypes.GpuImage{}, fmt.Errorf("vkCreateImage failed: %d", res)
	}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(b.dev.Handle, img, &req)
	req.Deref()

	typeIdx, err := b.dev.FindMemoryType(req.MemoryTypeBits, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		vk.DestroyImage(b.dev.Handle, img, nil)
		return gputypes.GpuImage{}, err
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: typeIdx,
	}
	var mem vk.DeviceMemory
	if res := vk.AllocateMemory(b.dev.Handle, &allocInfo, nil, &mem); res != vk.Success {
		vk.DestroyImage(b.dev.Handle, img, nil)
		return gputypes.GpuImage{}, fmt.Errorf("vkAllocateMemory failed: %d", res)
	}
	vk.BindImageMemory(b.dev.Handle, img, mem, 0)

	out := desc
	out.Handle = b.allocHandle()
	return out, nil
}

func (b *VkBackend) FreeBuffer(gputypes.GpuBuffer) {}
func (b *VkBackend) FreeImage(gputypes.GpuImage)   {}

func max1(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	return v
}

func toVkFormat(f gputypes.Format) vk.Format {
	switch f {
	case gputypes.FormatR8G8B8A8Unorm:
		return vk.FormatR8g8b8a8Unorm
	case gputypes.FormatR32Sfloat:
		return vk.FormatR32Sfloat
	case gputypes.FormatR64Uint:
		return vk.FormatR64Uint
	case gputypes.FormatR32Uint:
		return vk.FormatR32Uint
	case gputypes.FormatD32Sfloat:
		return vk.FormatD32Sfloat
	default:
		return vk.FormatUndefined
	}
}
