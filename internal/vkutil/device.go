//go:build !headless

// Package vkutil wraps the goki/vulkan bindings with the instance/
// device/queue bring-up sequence the rest of this module builds on,
// grounded directly on voodoo_vulkan.go's initVulkan chain
// (createInstance -> selectPhysicalDevice -> createDevice ->
// createCommandPool), generalized from "one offscreen render target"
// to "N bindless-table-backed resources plus a render graph".
package vkutil

import (
	"fmt"
	"sync"

	vk "github.com/goki/vulkan"

	"github.com/radiance-go/visibility/internal/rerr"
)

// Device owns the Vulkan instance, physical device, logical device, and
// the queue handles the render graph submits to. Rather than a single
// graphics queue, Device exposes one queue per family the graph needs
// (graphics, compute, transfer) even when they alias to the same
// underlying VkQueue, since every resource must be created
// SHARING_MODE_CONCURRENT across all three.
type Device struct {
	mu sync.Mutex

	Instance       vk.Instance
	PhysicalDevice vk.PhysicalDevice
	Handle         vk.Device

	GraphicsQueue, ComputeQueue, TransferQueue vk.Queue
	QueueFamilies                              []uint32

	memProps vk.PhysicalDeviceMemoryProperties
	exts     []Extension
}

var initOnce sync.Once
var initErr error

// Open brings up a Vulkan instance, selects the first physical device
// with a queue family supporting both graphics and compute, and
// creates the logical device with the extensions in requiredExts
// enabled. Device features (64-bit image atomics, mesh shaders, inline
// ray queries, descriptor indexing, acceleration structures) are
// neither queried nor enabled.
func Open(requiredExts []Extension) (*Device, error) {
	initOnce.Do(func() {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			initErr = fmt.Errorf("vkutil: failed to load Vulkan library: %w", err)
			return
		}
		initErr = vk.Init()
	})
	if initErr != nil {
		return nil, initErr
	}

	d := &Device{exts: requiredExts}
	if err := d.createInstance(); err != nil {
		return nil, err
	}
	if err := d.selectPhysicalDevice(); err != nil {
		return nil, err
	}
	if err := d.createDevice(requiredExts); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Device) createInstance() error {
	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   safeString("visibility-renderer"),
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        safeString("visibility-core"),
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         vk.MakeVersion(1, 3, 0),
	}
	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &appInfo,
	}
	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, nil, &instance); res != vk.Success {
		return fmt.Errorf("vkutil: vkCreateInstance failed: %d: %w", res, rerr.ErrDeviceLost)
	}
	d.Instance = instance
	vk.InitInstance(instance)
	return nil
}

func (d *Device) selectPhysicalDevice() error {
	var count uint32
	vk.EnumeratePhysicalDevices(d.Instance, &count, nil)
	if count == 0 {
		return fmt.Errorf("vkutil: no Vulkan-capable GPUs found: %w", rerr.ErrDeviceLost)
	}
	devices := make([]vk.PhysicalDevice, count)
	vk.EnumeratePhysicalDevices(d.Instance, &count, devices)

	for _, dev := range devices {
		var qCount uint32
		vk.GetPhysicalDeviceQueueFamilyProperties(dev, &qCount, nil)
		families := make([]vk.QueueFamilyProperties, qCount)
		vk.GetPhysicalDeviceQueueFamilyProperties(dev, &qCount, families)
		for i, qf := range families {
			qf.Deref()
			needed := vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueComputeBit)
			if qf.QueueFlags&needed == needed {
				d.PhysicalDevice = dev
				d.QueueFamilies = []uint32{uint32(i)}
				vk.GetPhysicalDeviceMemoryProperties(dev, &d.memProps)
				d.memProps.Deref()
				return nil
			}
		}
	}
	return fmt.Errorf("vkutil: no GPU with combined graphics+compute queue found: %w", rerr.ErrDeviceLost)
}

func (d *Device) createDevice(requiredExts []Extension) error {
	priority := float32(1.0)
	family := d.QueueFamilies[0]
	queueInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: family,
		QueueCount:       1,
		PQueuePriorities: []float32{priority},
	}

	names := make([]string, len(requiredExts))
	for i, e := range requiredExts {
		names[i] = e.Name()
	}

	info := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    1,
		PQueueCreateInfos:       []vk.DeviceQueueCreateInfo{queueInfo},
		EnabledExtensionCount:   uint32(len(names)),
		PpEnabledExtensionNames: names,
	}

	var dev vk.Device
	if res := vk.CreateDevice(d.PhysicalDevice, &info, nil, &dev); res != vk.Success {
		return fmt.Errorf("vkutil: vkCreateDevice failed: %d: %w", res, rerr.ErrDeviceLost)
	}
	d.Handle = dev

	var q vk.Queue
	vk.GetDeviceQueue(dev, family, 0, &q)
	d.GraphicsQueue, d.ComputeQueue, d.TransferQueue = q, q, q
	return nil
}

// FindMemoryType mirrors findMemoryType in voodoo_vulkan.go, searching
// the cached memory properties for a type matching typeFilter and the
// requested property flags.
func (d *Device) FindMemoryType(typeFilter uint32, props vk.MemoryPropertyFlags) (uint32, error) {
	for i := uint32(0); i < d.memProps.MemoryTypeCount; i++ {
		t := d.memProps.MemoryTypes[i]
		t.Deref()
		if typeFilter&(1<<i) != 0 && t.PropertyFlags&props == props {
			return i, nil
		}
	}
	return 0, fmt.Errorf("vkutil: no suitable memory type for filter %#x props %#x", typeFilter, props)
}

func safeString(s string) string { return s + "\x00" }
