package graph

import "testing"

func TestUnreachablePassIsDropped(t *testing.T) {
	g := New()
	g.AddResource(Resource{ID: 1, Name: "visbuffer", Kind: ResourceExternal, IsImage: true})
	g.AddResource(Resource{ID: 2, Name: "scratch", Kind: ResourceInternal, Size: 1024})

	g.AddPass(Pass{Name: "dead-write", Kind: KindCompute, Uses: []ResourceUse{
		{Resource: 2, Access: AccessWrite, Stage: StageComputeShader},
	}})
	g.AddPass(Pass{Name: "visbuffer-write", Kind: KindCompute, Uses: []ResourceUse{
		{Resource: 1, Access: AccessWrite, Stage: StageComputeShader},
	}})
	g.MarkSink(1)

	c := g.Compile()
	if len(c.Passes) != 1 || c.Passes[0].Name != "visbuffer-write" {
		t.Fatalf("Compile: have %v, want only visbuffer-write kept", namesOf(c.Passes))
	}
}

func namesOf(passes []Pass) []string {
	out := make([]string, len(passes))
	for i, p := range passes {
		out[i] = p.Name
	}
	return out
}

// TestBarrierSufficiency checks: for any two passes P, Q with P
// producing and Q consuming resource R, the synthesized barrier's
// dstStage covers Q's stage and srcStage covers P's stage.
func TestBarrierSufficiency(t *testing.T) {
	g := New()
	g.AddResource(Resource{ID: 1, Name: "visbuffer", Kind: ResourceExternal, IsImage: true})
	g.AddResource(Resource{ID: 2, Name: "hzb", Kind: ResourceExternal, IsImage: true})
	g.AddPass(Pass{Name: "rasterize", Kind: KindCompute, Uses: []ResourceUse{
		{Resource: 1, Access: AccessWrite, Stage: StageComputeShader, Layout: LayoutGeneral},
	}})
	g.AddPass(Pass{Name: "hzb-build", Kind: KindCompute, Uses: []ResourceUse{
		{Resource: 1, Access: AccessRead, Stage: StageComputeShader, Layout: LayoutShaderReadOnly},
		{Resource: 2, Access: AccessWrite, Stage: StageComputeShader, Layout: LayoutGeneral},
	}})
	g.MarkSink(1)
	g.MarkSink(2)

	c := g.Compile()
	barriers := c.BarriersFor[1] // before hzb-build, index 1
	if len(barriers) != 1 {
		t.Fatalf("BarriersFor[1]: have %d barriers, want 1", len(barriers))
	}
	b := barriers[0]
	if b.SrcStage&StageComputeShader == 0 {
		t.Fatalf("Barrier.SrcStage: have %v, want to cover writer's stage", b.SrcStage)
	}
	if b.DstStage&StageComputeShader == 0 {
		t.Fatalf("Barrier.DstStage: have %v, want to cover reader's stage", b.DstStage)
	}
}

func TestConsecutiveReadsCollapseToOneBarrier(t *testing.T) {
	g := New()
	g.AddResource(Resource{ID: 1, Name: "instanceTable", Kind: ResourceExternal})
	g.AddResource(Resource{ID: 2, Name: "earlyQueue", Kind: ResourceExternal})
	g.AddResource(Resource{ID: 3, Name: "lateQueue", Kind: ResourceExternal})
	g.AddPass(Pass{Name: "update", Kind: KindCompute, Uses: []ResourceUse{
		{Resource: 1, Access: AccessWrite, Stage: StageComputeShader},
	}})
	g.AddPass(Pass{Name: "early-cull", Kind: KindCompute, Uses: []ResourceUse{
		{Resource: 1, Access: AccessRead, Stage: StageComputeShader, Layout: LayoutGeneral},
		{Resource: 2, Access: AccessWrite, Stage: StageComputeShader},
	}})
	g.AddPass(Pass{Name: "late-cull", Kind: KindCompute, Uses: []ResourceUse{
		{Resource: 1, Access: AccessRead, Stage: StageComputeShader, Layout: LayoutGeneral},
		{Resource: 3, Access: AccessWrite, Stage: StageComputeShader},
	}})
	g.MarkSink(1)
	g.MarkSink(2)
	g.MarkSink(3)

	c := g.Compile()
	total := len(c.BarriersFor[1]) + len(c.BarriersFor[2])
	if total != 1 {
		t.Fatalf("consecutive reads: have %d barriers across both readers, want 1", total)
	}
}

func TestDisjointIntervalsAlias(t *testing.T) {
	g := New()
	g.AddResource(Resource{ID: 1, Name: "a", Kind: ResourceInternal, Size: 4096})
	g.AddResource(Resource{ID: 2, Name: "b", Kind: ResourceInternal, Size: 4096})

	g.AddPass(Pass{Name: "write-a", Kind: KindCompute, Uses: []ResourceUse{{Resource: 1, Access: AccessWrite}}})
	g.AddPass(Pass{Name: "read-a", Kind: KindCompute, Uses: []ResourceUse{{Resource: 1, Access: AccessRead}}})
	g.AddPass(Pass{Name: "write-b", Kind: KindCompute, Uses: []ResourceUse{{Resource: 2, Access: AccessWrite}}})
	g.AddPass(Pass{Name: "read-b", Kind: KindCompute, Uses: []ResourceUse{{Resource: 2, Access: AccessRead}}})
	g.MarkSink(1)
	g.MarkSink(2)

	c := g.Compile()
	if c.Allocation[1] != c.Allocation[2] {
		t.Fatalf("colourAllocate: disjoint-lifetime resources a (%d) and b (%d) should alias the same offset",
			c.Allocation[1], c.Allocation[2])
	}
	if c.PoolSize != 4096 {
		t.Fatalf("PoolSize: have %d, want 4096 (aliased)", c.PoolSize)
	}
}

func TestOverlappingIntervalsDoNotAlias(t *testing.T) {
	g := New()
	g.AddResource(Resource{ID: 1, Name: "a", Kind: ResourceInternal, Size: 1024})
	g.AddResource(Resource{ID: 2, Name: "b", Kind: ResourceInternal, Size: 1024})

	g.AddPass(Pass{Name: "write-a", Kind: KindCompute, Uses: []ResourceUse{
		{Resource: 1, Access: AccessWrite}, {Resource: 2, Access: AccessWrite},
	}})
	g.AddPass(Pass{Name: "read-both", Kind: KindCompute, Uses: []ResourceUse{
		{Resource: 1, Access: AccessRead}, {Resource: 2, Access: AccessRead},
	}})
	g.MarkSink(1)
	g.MarkSink(2)

	c := g.Compile()
	if c.Allocation[1] == c.Allocation[2] {
		t.Fatalf("colourAllocate: overlapping-lifetime resources must not alias (both at %d)", c.Allocation[1])
	}
	if c.PoolSize != 2048 {
		t.Fatalf("PoolSize: have %d, want 2048 (no aliasing possible)", c.PoolSize)
	}
}
