//go:build headless

package vkutil

import "fmt"

// Device is the headless stand-in used by tests and CI that cannot
// link against a real Vulkan loader. It mirrors voodoo_vulkan_headless.go's
// trick of reusing the same type name behind a build tag so the rest of
// the module compiles unchanged.
type Device struct {
	QueueFamilies []uint32
}

func Open(requiredExts []Extension) (*Device, error) {
	return &Device{QueueFamilies: []uint32{0}}, nil
}

func (d *Device) FindMemoryType(typeFilter uint32, props uint32) (uint32, error) {
	if typeFilter == 0 {
		return 0, fmt.Errorf("vkutil: headless device has no memory types")
	}
	return 0, nil
}
