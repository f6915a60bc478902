// Command renderer wires the GPU-driven visibility pipeline's pieces
// (bindless table, resource pool, frame ring, render graph, cull
// engine, HZB builder, visibility rasterizer) into a runnable process,
// mirroring main.go's flag.*-over-constants bring-up in the teacher
// repository rather than introducing a config file format.
//
// Window/surface creation is out of this core's scope (§1 of the
// renderer's design: the UI pass and host/window loop are external
// collaborators), so this command renders to an in-process ring of
// offscreen images instead of a real OS swapchain — the same
// offscreen-target approach the teacher's Vulkan backend uses for its
// own render target.
package main

import (
	"flag"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/radiance-go/visibility/internal/bindless"
	"github.com/radiance-go/visibility/internal/config"
	"github.com/radiance-go/visibility/internal/frame"
	"github.com/radiance-go/visibility/internal/graph"
	"github.com/radiance-go/visibility/internal/gputypes"
	"github.com/radiance-go/visibility/internal/hzb"
	"github.com/radiance-go/visibility/internal/respool"
	"github.com/radiance-go/visibility/internal/rerr"
	"github.com/radiance-go/visibility/internal/rlog"
	"github.com/radiance-go/visibility/internal/scene"
	"github.com/radiance-go/visibility/internal/submit"
	"github.com/radiance-go/visibility/internal/vkutil"
)

func main() {
	cfg := config.Default()
	var (
		width   = flag.Uint("width", 1920, "render target width in pixels")
		height  = flag.Uint("height", 1080, "render target height in pixels")
		frames  = flag.Int("frames", 0, "number of frames to render then exit (0 = run until interrupted)")
		verbose = flag.Bool("debug", false, "enable debug-level logging")
	)
	flag.IntVar(&cfg.FramesInFlight, "frames-in-flight", cfg.FramesInFlight, "number of frames kept in flight")
	flag.IntVar(&cfg.HZBTileSize, "hzb-tile-size", cfg.HZBTileSize, "HZB phase-1 workgroup tile size (power of two)")
	var edgeThreshold = flag.Float64("edge-threshold-px", float64(cfg.EdgePixelThreshold), "hardware/software rasterizer routing threshold, in pixels")
	var bvhCap = flag.Uint64("bvh-queue-capacity", uint64(cfg.BvhQueueCapacity), "BVH ping-pong queue capacity, shared by the front and back sides")
	var meshletCap = flag.Uint64("meshlet-queue-capacity", uint64(cfg.MeshletQueueCapacity), "candidate-meshlet queue capacity, shared by both cursors")
	flag.BoolVar(&cfg.OverdrawDebug, "overdraw-debug", cfg.OverdrawDebug, "enable the overdraw-counter/classifier debug overlay")
	flag.Parse()

	cfg.EdgePixelThreshold = float32(*edgeThreshold)
	cfg.BvhQueueCapacity = uint32(*bvhCap)
	cfg.MeshletQueueCapacity = uint32(*meshletCap)

	if *verbose {
		rlog.SetLevel(rlog.Debug)
	}
	if err := cfg.Validate(); err != nil {
		rlog.Fatalf("invalid configuration: %v", err)
	}

	if err := run(cfg, uint32(*width), uint32(*height), *frames); err != nil {
		rlog.Fatalf("%v", err)
	}
}

func run(cfg config.Config, width, height uint32, frameLimit int) error {
	dev, err := vkutil.Open(vkutil.RequiredExtensions())
	if err != nil {
		return fmt.Errorf("renderer: opening device: %w", err)
	}

	table := bindless.New()
	pool := respool.New(respool.NewVkBackend(dev))

	resources, err := allocateResourceSet(pool, table, width, height)
	if err != nil {
		return fmt.Errorf("renderer: allocating resource set: %w", err)
	}

	surface, err := newOffscreenSurface(pool, cfg.FramesInFlight, width, height)
	if err != nil {
		return fmt.Errorf("renderer: creating offscreen render target ring: %w", err)
	}

	submitter, err := submit.New(dev, surface, cfg.FramesInFlight)
	if err != nil {
		return fmt.Errorf("renderer: creating submitter: %w", err)
	}

	ring := frame.NewRing(cfg.FramesInFlight, submitter)
	sceneState := scene.NewState()
	orch := frame.NewOrchestrator(ring, cfg, sceneState, resources)

	for i := 0; frameLimit == 0 || i < frameLimit; i++ {
		skipped, err := orch.RunFrame(nil)
		if err != nil {
			switch rerr.ClassOf(err) {
			case rerr.Fatal:
				return fmt.Errorf("renderer: frame %d: %w", i, err)
			case rerr.Recoverable:
				rlog.Warnf("frame %d: recoverable error, retrying next frame: %v", i, err)
				continue
			default:
				rlog.Warnf("frame %d: %v", i, err)
				continue
			}
		}
		if skipped {
			rlog.Infof("frame %d: skipped (stale swapchain)", i)
			continue
		}
		rlog.Debugf("frame %d: submitted", i)
	}
	return nil
}

// allocateResourceSet creates the persistent GPU resources (instance
// table, HZB ping-pong pair, visibility image) and declares the
// transient ones (mid-pyramid, cull queues, overdraw overlay) the
// orchestrator's per-frame graph references every frame. Transient
// resources are declared here only as graph.Resource descriptors
// (ResourceInternal) sized for the allocator's interval colouring;
// frame.Orchestrator.buildGraph re-declares them fresh every frame, so
// they are never backed by a respool allocation at this layer.
func allocateResourceSet(pool *respool.Pool, table *bindless.Table, width, height uint32) (frame.ResourceSet, error) {
	instanceTableBuf, err := pool.CreateBuffer(64*1<<20, false, respool.Persistent)
	if err != nil {
		return frame.ResourceSet{}, fmt.Errorf("instance table: %w", err)
	}

	mipCount := hzb.MipCount(width, height)
	mips := make([]gputypes.MipView, mipCount)
	mw, mh := width, height
	for i := range mips {
		mips[i] = gputypes.MipView{Width: mw, Height: mh}
		if mw > 1 {
			mw /= 2
		}
		if mh > 1 {
			mh /= 2
		}
	}
	hzbDesc := gputypes.GpuImage{
		Format:  gputypes.FormatR32Sfloat,
		Width:   width,
		Height:  height,
		Mips:    mips,
		Storage: true,
		Sampled: true,
	}
	prevHZBImg, err := pool.CreateImage(hzbDesc, respool.Persistent)
	if err != nil {
		return frame.ResourceSet{}, fmt.Errorf("hzb prev: %w", err)
	}
	curHZBImg, err := pool.CreateImage(hzbDesc, respool.Persistent)
	if err != nil {
		return frame.ResourceSet{}, fmt.Errorf("hzb cur: %w", err)
	}
	table.BindStorage(prevHZBImg)
	table.BindStorage(curHZBImg)

	visDesc := gputypes.GpuImage{
		Format:  gputypes.FormatR64Uint,
		Width:   width,
		Height:  height,
		Mips:    []gputypes.MipView{{Width: width, Height: height, AliasFormat: gputypes.FormatR32Uint}},
		Storage: true,
	}
	visImg, err := pool.CreateImage(visDesc, respool.Persistent)
	if err != nil {
		return frame.ResourceSet{}, fmt.Errorf("visibility image: %w", err)
	}
	table.BindStorage(visImg)

	imageBytes := uint64(width) * uint64(height) * 4
	var id graph.ResourceID
	next := func() graph.ResourceID { id++; return id }

	return frame.ResourceSet{
		InstanceTable: graph.Resource{ID: next(), Name: "instance-table", Kind: graph.ResourceExternal, Size: instanceTableBuf.Size},
		PrevHZB:       graph.Resource{ID: next(), Name: "hzb-prev", Kind: graph.ResourceExternal, IsImage: true, ByteExtent: imageBytes},
		CurHZB:        graph.Resource{ID: next(), Name: "hzb-cur", Kind: graph.ResourceExternal, IsImage: true, ByteExtent: imageBytes},
		MidPyramid:    graph.Resource{ID: next(), Name: "hzb-mid", Kind: graph.ResourceInternal, IsImage: true, ByteExtent: imageBytes},
		VisImage:      graph.Resource{ID: next(), Name: "vis-image", Kind: graph.ResourceExternal, IsImage: true, ByteExtent: imageBytes * 2},
		HwQueueEarly:  graph.Resource{ID: next(), Name: "hw-queue-early", Kind: graph.ResourceInternal, Size: 1 << 20},
		SwQueueEarly:  graph.Resource{ID: next(), Name: "sw-queue-early", Kind: graph.ResourceInternal, Size: 1 << 20},
		HwQueueLate:   graph.Resource{ID: next(), Name: "hw-queue-late", Kind: graph.ResourceInternal, Size: 1 << 20},
		SwQueueLate:   graph.Resource{ID: next(), Name: "sw-queue-late", Kind: graph.ResourceInternal, Size: 1 << 20},
		OverdrawCount: graph.Resource{ID: next(), Name: "overdraw-count", Kind: graph.ResourceInternal, IsImage: true, ByteExtent: imageBytes},
		Classifier:    graph.Resource{ID: next(), Name: "overdraw-class", Kind: graph.ResourceInternal, IsImage: true, ByteExtent: imageBytes},
	}, nil
}

// offscreenSurface implements submit.Surface by cycling through a
// small ring of pool-allocated color images rather than a real
// VkSwapchainKHR, grounded on voodoo_vulkan.go's createOffscreenImages
// / readbackFramebuffer pattern: the teacher's own Vulkan backend never
// presents to a window either.
type offscreenSurface struct {
	images []gputypes.GpuImage
	cursor int
}

// newOffscreenSurface allocates the ring's color images concurrently:
// each CreateImage call is independent (Pool serializes its own
// bookkeeping internally), so fanning them out across an errgroup
// shortens bring-up for larger frames-in-flight counts without needing
// any coordination beyond each goroutine writing its own slice slot.
func newOffscreenSurface(pool *respool.Pool, count int, width, height uint32) (*offscreenSurface, error) {
	s := &offscreenSurface{images: make([]gputypes.GpuImage, count)}
	var g errgroup.Group
	for i := range s.images {
		i := i
		g.Go(func() error {
			img, err := pool.CreateImage(gputypes.GpuImage{
				Format:  gputypes.FormatR8G8B8A8Unorm,
				Width:   width,
				Height:  height,
				Sampled: true,
			}, respool.Persistent)
			if err != nil {
				return err
			}
			s.images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *offscreenSurface) AcquireNextImage() (uint32, bool, error) {
	idx := uint32(s.cursor)
	s.cursor = (s.cursor + 1) % len(s.images)
	return idx, false, nil
}

func (s *offscreenSurface) Recreate() error { return nil }

func (s *offscreenSurface) Present(imageIndex uint32) error { return nil }
