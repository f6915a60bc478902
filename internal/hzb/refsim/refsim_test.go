package refsim

import (
	"math"
	"math/rand"
	"testing"
)

func TestHZBMonotonicity(t *testing.T) {
	const w, h = 256, 256
	depth := make([]float32, w*h)
	rng := rand.New(rand.NewSource(1))
	for i := range depth {
		depth[i] = rng.Float32()
	}
	p := BuildTiled(depth, w, h, 64)

	for m := 1; m < len(p.Levels); m++ {
		scale := 1 << m
		for ty := 0; ty < p.Heights[m]; ty++ {
			for tx := 0; tx < p.Widths[m]; tx++ {
				got := p.At(m, tx, ty)
				want := float32(math.MaxFloat32)
				any := false
				for dy := 0; dy < scale; dy++ {
					y := ty*scale + dy
					if y >= h {
						continue
					}
					for dx := 0; dx < scale; dx++ {
						x := tx*scale + dx
						if x >= w {
							continue
						}
						any = true
						v := depth[y*w+x]
						if v < want {
							want = v
						}
					}
				}
				if !any {
					continue
				}
				if got > want {
					t.Fatalf("mip %d texel (%d,%d): have %v, want <= %v (min of covered mip-0 texels)", m, tx, ty, got, want)
				}
			}
		}
	}
}

func TestLastWorkgroupHandoffReducesToGlobalMin(t *testing.T) {
	const w, h = 1024, 1024
	depth := make([]float32, w*h)
	rng := rand.New(rand.NewSource(2))
	globalMin := float32(math.MaxFloat32)
	for i := range depth {
		depth[i] = rng.Float32()
		if depth[i] < globalMin {
			globalMin = depth[i]
		}
	}
	p := BuildTiled(depth, w, h, 64)

	top := len(p.Levels) - 1
	if p.Widths[top] != 1 || p.Heights[top] != 1 {
		t.Fatalf("top mip: have %dx%d, want 1x1", p.Widths[top], p.Heights[top])
	}
	if p.At(top, 0, 0) != globalMin {
		t.Fatalf("top mip texel: have %v, want global min %v", p.At(top, 0, 0), globalMin)
	}
}

func TestSentinelDepthParticipatesInMinUnchanged(t *testing.T) {
	const w, h = 128, 128
	depth := make([]float32, w*h)
	for i := range depth {
		depth[i] = SentinelDepth
	}
	depth[0] = 0.3
	p := BuildTiled(depth, w, h, 64)
	top := len(p.Levels) - 1
	if p.At(top, 0, 0) != 0.3 {
		t.Fatalf("top mip with one real sample among sentinels: have %v, want 0.3", p.At(top, 0, 0))
	}
}
