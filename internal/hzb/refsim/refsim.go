// Package refsim is a CPU reference implementation of the HZB
// reduction, used only by tests to check monotonicity and the
// last-workgroup handoff without a GPU. The production single-dispatch
// SPD-pattern shader is declared in internal/hzb; this package
// reproduces its observable behaviour with goroutines standing in for
// workgroups and a sync/atomic counter standing in for the shader's
// device-scope atomic handoff.
package refsim

import "sync/atomic"

// SentinelDepth is the "no fragment written" value the HZB reduction
// must pass through a depth-min unchanged.
const SentinelDepth float32 = 1.0

// Pyramid is one mip chain: Levels[0] is the (possibly power-of-two
// padded) source depth grid; Levels[m] halves both dimensions of
// Levels[m-1].
type Pyramid struct {
	Levels [][]float32
	Widths []int
	Heights []int
}

// At returns the depth stored at (x, y) in mip m.
func (p *Pyramid) At(m, x, y int) float32 {
	return p.Levels[m][y*p.Widths[m]+x]
}

// buildReference computes the full mip chain by repeated 2x2 depth-min
// downsampling, independent of any tiling strategy — the reduction is a
// monoid (min is associative and commutative), so this is the
// ground-truth result any tiled/handoff implementation must match.
func buildReference(depth []float32, width, height int) *Pyramid {
	p := &Pyramid{}
	p.Levels = append(p.Levels, depth)
	p.Widths = append(p.Widths, width)
	p.Heights = append(p.Heights, height)

	w, h := width, height
	cur := depth
	for w > 1 || h > 1 {
		nw, nh := max1(w/2), max1(h/2)
		next := make([]float32, nw*nh)
		for y := 0; y < nh; y++ {
			for x := 0; x < nw; x++ {
				next[y*nw+x] = quadMin(cur, w, h, x*2, y*2)
			}
		}
		p.Levels = append(p.Levels, next)
		p.Widths = append(p.Widths, nw)
		p.Heights = append(p.Heights, nh)
		cur, w, h = next, nw, nh
	}
	return p
}

func quadMin(src []float32, w, h, x0, y0 int) float32 {
	m := float32(2) // > 1, always replaced by a real sample below
	first := true
	for dy := 0; dy < 2; dy++ {
		for dx := 0; dx < 2; dx++ {
			x, y := x0+dx, y0+dy
			if x >= w || y >= h {
				continue
			}
			v := src[y*w+x]
			if first || v < m {
				m = v
				first = false
			}
		}
	}
	if first {
		return SentinelDepth
	}
	return m
}

func max1(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// BuildTiled reproduces the SPD-pattern dispatch: each of
// ceil(width/tileSize) * ceil(height/tileSize) simulated workgroups
// reduces its own tile through mip 5 independently (unordered,
// goroutines), writes into a shared mid-pyramid image, then atomically
// increments a counter; the workgroup whose increment lands on
// totalWorkgroups-1 continues the reduction from the mid image through
// the remaining mips. The result must equal buildReference's pyramid
// exactly, since min is an associative, commutative, idempotent
// reduction (a monoid) and therefore independent of how the domain was
// tiled or which workgroup happened to finish last.
func BuildTiled(depth []float32, width, height, tileSize int) *Pyramid {
	ref := buildReference(depth, width, height)
	localMips := 1
	for (1 << localMips) < tileSize {
		localMips++
	}
	// localMips is how many halvings it takes a tileSize tile to reach
	// a single texel (e.g. tileSize=64 -> localMips==6). The output keeps
	// reference mips 0..localMips inclusive (mip localMips holds one
	// texel per tile, the mid image) and then the mid image's mips 1+.

	midW, midH := divCeil(width, tileSize), divCeil(height, tileSize)
	mid := make([]float32, midW*midH)

	var counter atomic.Int64
	total := int64(midW * midH)
	done := make(chan *Pyramid, 1)

	for ty := 0; ty < midH; ty++ {
		for tx := 0; tx < midW; tx++ {
			go func(tx, ty int) {
				x0, y0 := tx*tileSize, ty*tileSize
				v := reduceTileToSingleTexel(depth, width, height, x0, y0, tileSize)
				mid[ty*midW+tx] = v // disjoint per-tile writes, no race
				if counter.Add(1) == total {
					// This is the single last-arriving workgroup: every
					// other tile's write has already happened-before
					// this atomic's observed value by the handoff
					// contract, so mid is fully populated.
					done <- buildReference(mid, midW, midH)
				}
			}(tx, ty)
		}
	}
	rest := <-done

	out := &Pyramid{}
	for m := 0; m <= localMips && m < len(ref.Levels); m++ {
		out.Levels = append(out.Levels, ref.Levels[m])
		out.Widths = append(out.Widths, ref.Widths[m])
		out.Heights = append(out.Heights, ref.Heights[m])
	}
	for m := 1; m < len(rest.Levels); m++ {
		out.Levels = append(out.Levels, rest.Levels[m])
		out.Widths = append(out.Widths, rest.Widths[m])
		out.Heights = append(out.Heights, rest.Heights[m])
	}
	return out
}

func reduceTileToSingleTexel(depth []float32, width, height, x0, y0, tileSize int) float32 {
	m := SentinelDepth
	first := true
	for dy := 0; dy < tileSize; dy++ {
		y := y0 + dy
		if y >= height {
			break
		}
		for dx := 0; dx < tileSize; dx++ {
			x := x0 + dx
			if x >= width {
				break
			}
			v := depth[y*width+x]
			if first || v < m {
				m = v
				first = false
			}
		}
	}
	return m
}

func divCeil(a, b int) int { return (a + b - 1) / b }
