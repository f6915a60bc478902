package mathutil

import (
	"math"
	"testing"
)

func TestProjectAABBBehindNear(t *testing.T) {
	box := AABB{Min: V3{-1, -1, -1}, Max: V3{1, 1, 1}}
	var mvp M4
	mvp.I()
	// w == 1 for every corner under the identity; near above 1 forces
	// every corner to read as behind the near plane.
	rect := ProjectAABB(&box, &mvp, 2)
	if !rect.Behind {
		t.Fatalf("ProjectAABB: want Behind=true, have false")
	}
}

func TestProjectAABBIdentity(t *testing.T) {
	box := AABB{Min: V3{-1, -1, 0}, Max: V3{1, 1, 0}}
	var mvp M4
	mvp.I()
	rect := ProjectAABB(&box, &mvp, 0)
	if rect.Behind {
		t.Fatalf("ProjectAABB: unexpected Behind=true")
	}
	if rect.MinX != -1 || rect.MaxX != 1 || rect.MinY != -1 || rect.MaxY != 1 {
		t.Fatalf("ProjectAABB: have %+v, want [-1,-1,1,1]", rect)
	}
	if rect.NearestDepth != 0 {
		t.Fatalf("ProjectAABB: have NearestDepth=%v, want 0 (identity matrix, w=1, clip.z=0)", rect.NearestDepth)
	}
}

func TestProjectAABBNearestDepthIsReversedZAndComparableToHZB(t *testing.T) {
	var proj M4
	proj.ReversedInfiniteProjection(1, 1, 0.1)

	// A box spanning view-space z in [-6, -4] (camera looks down -z, so
	// both corners are in front of the near plane at 0.1); the nearer
	// face sits at z=-4.
	box := AABB{Min: V3{-1, -1, -6}, Max: V3{1, 1, -4}}
	rect := ProjectAABB(&box, &proj, 0.1)
	if rect.Behind {
		t.Fatalf("ProjectAABB: unexpected Behind=true")
	}

	wantNear := float32(0.1) / 4 // near / (-z) at the box's nearest corner
	if diff := rect.NearestDepth - wantNear; diff > 1e-5 || diff < -1e-5 {
		t.Fatalf("ProjectAABB: have NearestDepth=%v, want ~%v", rect.NearestDepth, wantNear)
	}
	if rect.NearestDepth <= 0 || rect.NearestDepth >= 1 {
		t.Fatalf("ProjectAABB: NearestDepth=%v should fall within the reversed-Z [0,1] range, not world-space units", rect.NearestDepth)
	}
}

func TestProjectedErrorMonotonicWithDistance(t *testing.T) {
	near := Sphere{Center: V3{0, 0, 5}, Radius: 1}
	far := Sphere{Center: V3{0, 0, 50}, Radius: 1}

	errNear := ProjectedError(1, &near, 1, 1080)
	errFar := ProjectedError(1, &far, 1, 1080)

	if !(errNear > errFar) {
		t.Fatalf("ProjectedError: expected closer sphere to project a larger error (near=%v far=%v)", errNear, errFar)
	}
}

func TestProjectedErrorInsideSphere(t *testing.T) {
	s := Sphere{Center: V3{0, 0, 0.5}, Radius: 1}
	if got := ProjectedError(1, &s, 1, 1080); got != math.MaxFloat32 {
		t.Fatalf("ProjectedError inside sphere: have %v, want max float32", got)
	}
}
