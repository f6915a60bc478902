// Package consumers describes, at the interface level only, the
// contract a downstream pass must satisfy to read the finished
// visibility buffer and the bindless table. None of these have a
// concrete implementation in this module: material shading, debug
// visualization, CPU picking, and offline path tracing are all out of
// scope beyond "the visibility buffer and G-buffer handoff is the only
// interface a consumer needs".
package consumers

import (
	"github.com/radiance-go/visibility/internal/bindless"
	"github.com/radiance-go/visibility/internal/gputypes"
)

// VisibilityView is what every consumer reads: the resolved visibility
// image plus the bindless table needed to resolve the handles it
// encodes (mesh/material data is addressed indirectly through the
// instance and meshlet tables, not duplicated here).
type VisibilityView struct {
	VisibilityImage gputypes.GpuImage
	Table           *bindless.Table
	Width, Height   uint32
}

// MaterialEvaluator shades the visibility buffer into a colour target:
// for each covered pixel, decode (meshlet_id, triangle_index), fetch
// the meshlet's material and interpolated attributes, and evaluate the
// material's shading model.
type MaterialEvaluator interface {
	EvaluateMaterials(view VisibilityView, target gputypes.GpuImage) error
}

// DebugOverlay renders the optional overdraw-counter and HW/SW
// classifier images (when the renderer was configured with
// Config.OverdrawDebug) as a visualization over the shaded frame.
type DebugOverlay interface {
	RenderOverlay(view VisibilityView, overdrawCounter, classifier gputypes.GpuImage, target gputypes.GpuImage) error
}

// MousePicker resolves a single screen-space coordinate to the
// instance and triangle the visibility buffer recorded there, without
// requiring a full material evaluation pass.
type MousePicker interface {
	PickAt(view VisibilityView, x, y uint32) (meshletPointerID uint32, triangleIndex uint8, ok bool, err error)
}

// PathTracer consumes the visibility buffer as a first-hit G-buffer to
// seed an offline or real-time path-tracing pass, avoiding a redundant
// primary-ray cast.
type PathTracer interface {
	TraceFromVisibility(view VisibilityView, target gputypes.GpuImage) error
}
