package frame

import (
	"fmt"

	"github.com/radiance-go/visibility/internal/config"
	"github.com/radiance-go/visibility/internal/cull"
	"github.com/radiance-go/visibility/internal/graph"
	"github.com/radiance-go/visibility/internal/hzb"
	"github.com/radiance-go/visibility/internal/raster"
	"github.com/radiance-go/visibility/internal/rerr"
	"github.com/radiance-go/visibility/internal/scene"
)

// ResourceSet holds the full descriptor (not just the bare ID) for
// every resource one frame's graph references, so buildGraph can
// re-declare them into a fresh graph.Graph every frame: the instance
// table and the prev/cur HZB ping-pong pair are persistent across
// frames, everything else is transient and eligible for interval-
// colouring aliasing. PrevHZB and CurHZB are rotated by RunFrame at
// the end of every successful frame (see the swap there), so the
// fields name roles, not fixed physical images: whichever one was
// CurHZB (just rebuilt from this frame's visibility buffer) becomes
// next frame's PrevHZB, the early pass's occlusion input.
type ResourceSet struct {
	InstanceTable graph.Resource
	PrevHZB       graph.Resource
	CurHZB        graph.Resource
	MidPyramid    graph.Resource
	VisImage      graph.Resource
	HwQueueEarly  graph.Resource
	SwQueueEarly  graph.Resource
	HwQueueLate   graph.Resource
	SwQueueLate   graph.Resource
	OverdrawCount graph.Resource
	Classifier    graph.Resource
}

func (r ResourceSet) all() []graph.Resource {
	return []graph.Resource{
		r.InstanceTable, r.PrevHZB, r.CurHZB, r.MidPyramid, r.VisImage,
		r.HwQueueEarly, r.SwQueueEarly, r.HwQueueLate, r.SwQueueLate,
		r.OverdrawCount, r.Classifier,
	}
}

// compiledAdapter makes *graph.Compiled satisfy CompiledGraph without
// requiring internal/graph to know about internal/frame.
type compiledAdapter struct{ c *graph.Compiled }

func (a compiledAdapter) PassCount() int { return len(a.c.Passes) }

// Orchestrator wires one frame's dataflow — scene update apply, early
// cull, rasterize, HZB build, late cull, rasterize, handoff — into a
// single render-graph invocation and drives it through a Ring.
type Orchestrator struct {
	ring      *Ring
	cfg       config.Config
	scene     *scene.State
	resources ResourceSet
}

// NewOrchestrator builds an Orchestrator over an already-open Ring and
// resource set.
func NewOrchestrator(ring *Ring, cfg config.Config, sceneState *scene.State, resources ResourceSet) *Orchestrator {
	return &Orchestrator{ring: ring, cfg: cfg, scene: sceneState, resources: resources}
}

// RunFrame applies a scene update batch, then records and submits the
// full cull->rasterize->HZB->cull->rasterize dataflow as one compiled
// graph. It returns (skipped=true, nil) when the swapchain was stale
// this frame; the caller should simply call RunFrame again next tick.
func (o *Orchestrator) RunFrame(batch *scene.Batch) (skipped bool, err error) {
	if batch != nil {
		if err := o.scene.Validate(batch); err != nil {
			if rerr.ClassOf(err) != rerr.ProgrammerError {
				return false, fmt.Errorf("frame: validating scene update batch: %w", err)
			}
			// ProgrammerError: the batch is rejected and the telemetry
			// counter already incremented by Validate; proceed with an
			// empty update this frame rather than failing it.
			batch = &scene.Batch{}
		} else {
			o.scene.Apply(batch)
		}
	}

	imageIdx, skip, err := o.ring.AcquireSwapchainImage()
	if err != nil {
		return false, err
	}
	if skip {
		return true, nil
	}

	fc, err := o.ring.Acquire()
	if err != nil {
		return false, err
	}

	g := o.buildGraph()
	compiled := g.Compile()

	if err := o.ring.Submit(fc, compiledAdapter{compiled}); err != nil {
		return false, err
	}
	if err := o.ring.Present(imageIdx, fc.SubmittedValue); err != nil {
		return false, err
	}

	// The HZB just built this frame (CurHZB) becomes next frame's
	// early-pass input, and the image that served as this frame's
	// early-pass input is free to be overwritten as next frame's build
	// target: a classic temporal ping-pong, rotated only once the
	// frame's submission has actually gone out.
	o.resources.PrevHZB, o.resources.CurHZB = o.resources.CurHZB, o.resources.PrevHZB

	return false, nil
}

// Resources returns the orchestrator's current resource set, including
// whatever rotation RunFrame has applied to PrevHZB/CurHZB so far.
// Exposed for tests; buildGraph is the only other reader.
func (o *Orchestrator) Resources() ResourceSet { return o.resources }

// buildGraph declares every resource and pass for one frame: early
// cull against the previous frame's HZB, both rasterizer paths draining
// the early queues, the HZB build from the freshly rasterized
// visibility image, late cull against that fresh HZB to catch
// disocclusions, both rasterizer paths again draining the late queues,
// and finally the handoff (visibility image marked as the sink a
// consumer reads next).
func (o *Orchestrator) buildGraph() *graph.Graph {
	g := graph.New()
	r := o.resources
	for _, res := range r.all() {
		g.AddResource(res)
	}

	instanceTable, prevHZB, curHZB := r.InstanceTable.ID, r.PrevHZB.ID, r.CurHZB.ID
	visImage, midPyramid := r.VisImage.ID, r.MidPyramid.ID
	hwEarly, swEarly, hwLate, swLate := r.HwQueueEarly.ID, r.SwQueueEarly.ID, r.HwQueueLate.ID, r.SwQueueLate.ID
	overdrawCount, classifier := r.OverdrawCount.ID, r.Classifier.ID

	g.AddPass(cull.EarlyPass(instanceTable, prevHZB, hwEarly, swEarly))

	var overdrawPtr, classifierPtr *graph.ResourceID
	if o.cfg.OverdrawDebug {
		g.AddPass(raster.OverdrawPass(overdrawCount, classifier))
		overdrawPtr, classifierPtr = &overdrawCount, &classifier
	}

	g.AddPass(raster.HardwarePass(hwEarly, visImage, overdrawPtr, classifierPtr))
	g.AddPass(raster.SoftwarePass(swEarly, visImage))

	g.AddPass(hzb.DefaultPlan(visImage, midPyramid, curHZB).Pass())

	g.AddPass(cull.LatePass(instanceTable, curHZB, hwLate, swLate))
	g.AddPass(raster.HardwarePass(hwLate, visImage, overdrawPtr, classifierPtr))
	g.AddPass(raster.SoftwarePass(swLate, visImage))

	g.MarkSink(visImage)
	if o.cfg.OverdrawDebug {
		g.MarkSink(overdrawCount)
		g.MarkSink(classifier)
	}
	return g
}
