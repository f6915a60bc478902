package graph

import "sort"

// Compiled is the output of Graph.Compile: the surviving pass list (in
// submission order) plus the barrier batch to emit before each pass.
type Compiled struct {
	Passes       []Pass
	BarriersFor  map[int][]Barrier // pass index -> barriers to emit before it
	Allocation   map[ResourceID]int64 // internal resources -> byte offset
	PoolSize     uint64
}

// Compile runs the four-step compilation algorithm: reachability
// pruning, barrier synthesis, interval-colouring allocation, and
// recording order.
func (g *Graph) Compile() *Compiled {
	passes := g.reachablePasses()
	barriers := g.synthesizeBarriers(passes)
	alloc, poolSize := g.colourAllocate(passes)
	return &Compiled{Passes: passes, BarriersFor: barriers, Allocation: alloc, PoolSize: poolSize}
}

// reachablePasses implements step 1: linearize in declared order and
// drop passes whose outputs are not reached, transitively, by a sink.
// A pass's outputs are the resources it writes or read-writes; a pass
// is kept if it writes a sink resource directly, or if a later kept
// pass reads a resource it wrote (transitive producer-of-a-consumer).
func (g *Graph) reachablePasses() []Pass {
	n := len(g.passes)
	keep := make([]bool, n)

	// A resource is "live" once some kept pass (working backward) still
	// needs it as an input. Seed liveness with every sink.
	live := make(map[ResourceID]bool, len(g.sinks))
	for r := range g.sinks {
		live[r] = true
	}

	for i := n - 1; i >= 0; i-- {
		p := g.passes[i]
		writesLive := false
		for _, u := range p.Uses {
			if (u.Access == AccessWrite || u.Access == AccessReadWrite) && live[u.Resource] {
				writesLive = true
			}
		}
		if !writesLive && p.Kind != KindHost && p.Kind != KindExternal {
			continue
		}
		keep[i] = true
		for _, u := range p.Uses {
			if u.Access == AccessRead || u.Access == AccessReadWrite {
				live[u.Resource] = true
			}
		}
	}

	out := make([]Pass, 0, n)
	for i, k := range keep {
		if k {
			out = append(out, g.passes[i])
		}
	}
	return out
}

// synthesizeBarriers implements step 2: per resource, walk the kept
// passes in order and emit at most one barrier between each pair of
// successive usages, collapsing consecutive pure-read usages with
// matching layout into a single usage interval.
func (g *Graph) synthesizeBarriers(passes []Pass) map[int][]Barrier {
	type usage struct {
		passIdx int
		use     ResourceUse
	}
	byResource := make(map[ResourceID][]usage)
	for i, p := range passes {
		for _, u := range p.Uses {
			byResource[u.Resource] = append(byResource[u.Resource], usage{i, u})
		}
	}

	out := make(map[int][]Barrier)
	for rid, uses := range byResource {
		res := g.resources[rid]
		// Collapse consecutive pure reads with matching layout.
		collapsed := uses[:0:0]
		for _, u := range uses {
			if n := len(collapsed); n > 0 {
				prev := collapsed[n-1]
				if prev.use.Access == AccessRead && u.use.Access == AccessRead &&
					prev.use.Layout == u.use.Layout {
					// Merge into the same usage interval: extend the
					// stage mask so the eventual barrier's dstStage
					// covers every reader, but don't emit a second
					// barrier between the two reads.
					collapsed[n-1].use.Stage |= u.use.Stage
					continue
				}
			}
			collapsed = append(collapsed, u)
		}

		for i := 1; i < len(collapsed); i++ {
			prev, cur := collapsed[i-1], collapsed[i]
			b := Barrier{
				Resource:  rid,
				SrcStage:  prev.use.Stage,
				DstStage:  cur.use.Stage,
				SrcAccess: prev.use.Access,
				DstAccess: cur.use.Access,
				OldLayout: prev.use.Layout,
				NewLayout: cur.use.Layout,
				IsImage:   res != nil && res.IsImage,
			}
			out[cur.passIdx] = append(out[cur.passIdx], b)
		}
	}
	return out
}

// interval is a resource's liveness span over kept-pass indices,
// inclusive, used by colourAllocate.
type interval struct {
	id         ResourceID
	start, end int
	size       uint64
}

// colourAllocate implements step 3: greedy interval colouring on
// memory offsets for internal resources whose liveness intervals are
// disjoint may alias the same bytes.
func (g *Graph) colourAllocate(passes []Pass) (map[ResourceID]int64, uint64) {
	spans := make(map[ResourceID]*interval)
	for i, p := range passes {
		for _, u := range p.Uses {
			res, ok := g.resources[u.Resource]
			if !ok || res.Kind != ResourceInternal {
				continue
			}
			iv, ok := spans[u.Resource]
			if !ok {
				size := res.Size
				if res.IsImage {
					size = res.ByteExtent
				}
				iv = &interval{id: u.Resource, start: i, end: i, size: size}
				spans[u.Resource] = iv
			}
			if i < iv.start {
				iv.start = i
			}
			if i > iv.end {
				iv.end = i
			}
		}
	}

	ivs := make([]*interval, 0, len(spans))
	for _, iv := range spans {
		ivs = append(ivs, iv)
	}
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].start < ivs[j].start })

	type placed struct {
		offset, size uint64
		end          int
	}
	var bands []placed
	alloc := make(map[ResourceID]int64)
	var poolSize uint64

	for _, iv := range ivs {
		placedOffset := uint64(0)
		bestIdx := -1
		for idx, b := range bands {
			if b.end < iv.start { // liveness disjoint: reuse this band
				bestIdx = idx
				placedOffset = b.offset
				break
			}
		}
		if bestIdx == -1 {
			// No free band: append at the end of the pool.
			for _, b := range bands {
				if b.offset+b.size > placedOffset {
					placedOffset = b.offset + b.size
				}
			}
			bands = append(bands, placed{offset: placedOffset, size: iv.size, end: iv.end})
		} else {
			bands[bestIdx].size = max64(bands[bestIdx].size, iv.size)
			bands[bestIdx].end = iv.end
		}
		alloc[iv.id] = int64(placedOffset)
		if placedOffset+iv.size > poolSize {
			poolSize = placedOffset + iv.size
		}
	}
	return alloc, poolSize
}

func max64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
