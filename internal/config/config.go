// Package config holds the renderer's compiled-in defaults and the
// subset of them a caller may override, mirroring the approach of
// flag.* parsing in main.go layered over constants in
// voodoo_constants.go rather than a config file format.
package config

// Config bundles the tunables left to the implementation: frame-ring
// depth, HZB tile size, the hardware/software rasterization edge
// threshold, and initial cull queue capacities.
type Config struct {
	// FramesInFlight is how many frames the graph keeps in flight at
	// once; must be >= 2.
	FramesInFlight int

	// HZBTileSize is the workgroup tile size consumed per dispatch in
	// phase 1 of the HZB reduction (64x64 by default).
	HZBTileSize int

	// EdgePixelThreshold is the projected-longest-edge cutoff (in
	// pixels) used to route a meshlet to the hardware or software
	// rasterization queue (default 8).
	EdgePixelThreshold float32

	// BvhQueueCapacity and MeshletQueueCapacity size the ping-pong BVH
	// queue and the dual-cursor meshlet queue. Exceeding either sets
	// the queue's cull-overflow saturation flag.
	BvhQueueCapacity     uint32
	MeshletQueueCapacity uint32

	// OverdrawDebug enables the sibling overdraw-counter and
	// HW/SW-classifier image writes.
	OverdrawDebug bool
}

// Default returns the renderer's compiled-in defaults.
func Default() Config {
	return Config{
		FramesInFlight:       2,
		HZBTileSize:          64,
		EdgePixelThreshold:   8.0,
		BvhQueueCapacity:     1 << 20,
		MeshletQueueCapacity: 1 << 20,
		OverdrawDebug:        false,
	}
}

// Validate rejects configurations that would break a renderer
// invariant: at least two frames in flight, and a power-of-two HZB
// tile size.
func (c Config) Validate() error {
	if c.FramesInFlight < 2 {
		return errInvalidFrameCount
	}
	if c.HZBTileSize <= 0 || c.HZBTileSize&(c.HZBTileSize-1) != 0 {
		return errInvalidTileSize
	}
	return nil
}
