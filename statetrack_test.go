package nvrhi

import "testing"

func mipArrayDesc(name string) TextureDesc {
	return TextureDesc{
		Width: 256, Height: 256,
		MipLevels: 4, ArraySize: 2,
		Format:           FormatRGBA8Unorm,
		DebugName:        name,
		IsRenderTarget:   true,
		IsShaderResource: true,
		InitialState:     ResourceStateShaderResource,
	}
}

func TestTransitionIntoCurrentStateIsNoOp(t *testing.T) {
	d, _, _ := newTestDevice(t)
	tex := mustTexture(t, d, mipArrayDesc("noop"))
	defer tex.Release()

	cl := openList(t, d)
	cl.SetTextureState(tex, AllSubresources, ResourceStateRenderTarget)
	if n := cl.PendingBarrierCount(); n != 1 {
		t.Fatalf("pending after first transition = %d, want 1", n)
	}

	// Same state again: no new record, table unchanged.
	cl.SetTextureState(tex, AllSubresources, ResourceStateRenderTarget)
	if n := cl.PendingBarrierCount(); n != 1 {
		t.Errorf("pending after repeat transition = %d, want 1", n)
	}
	if got := cl.GetTextureSubresourceState(tex, 0, 0); got != ResourceStateRenderTarget {
		t.Errorf("tracked state = %v, want RenderTarget", got)
	}
}

func TestWholeTextureStaysCompact(t *testing.T) {
	d, nb, _ := newTestDevice(t)
	tex := mustTexture(t, d, mipArrayDesc("compact"))
	defer tex.Release()

	cl := openList(t, d)
	// 4 mips x 2 slices, but a whole-resource transition must record a
	// single barrier covering the full set.
	cl.SetTextureState(tex, AllSubresources, ResourceStateRenderTarget)
	if err := cl.CommitBarriers(); err != nil {
		t.Fatalf("CommitBarriers: %v", err)
	}

	cb := nb.LastCommandBuffer()
	textures, _, _ := allBarriers(cb)
	if len(textures) != 1 {
		t.Fatalf("recorded %d texture barriers, want 1", len(textures))
	}
	tb := textures[0]
	if !tb.Subresources.IsEntireTexture(tex.Desc()) {
		t.Errorf("barrier covers %+v, want entire texture", tb.Subresources)
	}
	if tb.StateBefore != ResourceStateShaderResource || tb.StateAfter != ResourceStateRenderTarget {
		t.Errorf("barrier %v -> %v, want ShaderResource -> RenderTarget", tb.StateBefore, tb.StateAfter)
	}
}

func TestPartialTransitionMaterializes(t *testing.T) {
	d, _, _ := newTestDevice(t)
	tex := mustTexture(t, d, mipArrayDesc("partial"))
	defer tex.Release()

	cl := openList(t, d)
	cl.SetTextureState(tex, AllSubresources, ResourceStateShaderResource)

	// Transition mip 0 of slice 0 only.
	cl.SetTextureState(tex, TextureSubresourceSet{
		NumMipLevels: 1, NumArraySlices: 1,
	}, ResourceStateRenderTarget)

	if got := cl.GetTextureSubresourceState(tex, 0, 0); got != ResourceStateRenderTarget {
		t.Errorf("touched subresource = %v, want RenderTarget", got)
	}
	// Siblings keep their prior state.
	if got := cl.GetTextureSubresourceState(tex, 0, 1); got != ResourceStateShaderResource {
		t.Errorf("sibling mip = %v, want ShaderResource", got)
	}
	if got := cl.GetTextureSubresourceState(tex, 1, 0); got != ResourceStateShaderResource {
		t.Errorf("sibling slice = %v, want ShaderResource", got)
	}
}

func TestRecompactionAfterUniformity(t *testing.T) {
	d, nb, _ := newTestDevice(t)
	tex := mustTexture(t, d, mipArrayDesc("recompact"))
	defer tex.Release()

	cl := openList(t, d)
	// Split the texture: mip 0/slice 0 diverges.
	cl.SetTextureState(tex, TextureSubresourceSet{NumMipLevels: 1, NumArraySlices: 1}, ResourceStateRenderTarget)
	// Bring everything to RenderTarget: only the remaining 7 subresources
	// need records.
	cl.SetTextureState(tex, AllSubresources, ResourceStateRenderTarget)
	if err := cl.CommitBarriers(); err != nil {
		t.Fatalf("CommitBarriers: %v", err)
	}

	textures, _, _ := allBarriers(nb.LastCommandBuffer())
	if len(textures) != 1+7 {
		t.Fatalf("recorded %d texture barriers, want 8", len(textures))
	}

	// Uniform again: the next whole-resource transition is one record.
	cl.SetTextureState(tex, AllSubresources, ResourceStateShaderResource)
	if n := cl.PendingBarrierCount(); n != 1 {
		t.Errorf("pending after recompacted transition = %d, want 1", n)
	}
}

func TestPartialIntoCompactSameStateStaysCompact(t *testing.T) {
	d, _, _ := newTestDevice(t)
	tex := mustTexture(t, d, mipArrayDesc("samestate"))
	defer tex.Release()

	cl := openList(t, d)
	cl.SetTextureState(tex, AllSubresources, ResourceStateShaderResource)
	base := cl.PendingBarrierCount()

	// Partial request into the state the whole texture already holds must
	// not materialize or record anything.
	cl.SetTextureState(tex, TextureSubresourceSet{NumMipLevels: 1, NumArraySlices: 1}, ResourceStateShaderResource)
	if n := cl.PendingBarrierCount(); n != base {
		t.Errorf("pending changed from %d to %d on same-state partial", base, n)
	}
	// Whole-resource transition afterwards is still a single record.
	cl.SetTextureState(tex, AllSubresources, ResourceStateCopySource)
	if n := cl.PendingBarrierCount(); n != base+1 {
		t.Errorf("pending = %d, want %d", cl.PendingBarrierCount(), base+1)
	}
}

func TestKeepInitialStateRoundTrip(t *testing.T) {
	d, nb, _ := newTestDevice(t)
	tex := mustTexture(t, d, TextureDesc{
		Width: 64, Height: 64,
		Format:           FormatRGBA8Unorm,
		DebugName:        "roundtrip",
		IsRenderTarget:   true,
		IsShaderResource: true,
		InitialState:     ResourceStateShaderResource,
		KeepInitialState: true,
	})
	defer tex.Release()

	cl := openList(t, d)
	cl.SetTextureState(tex, AllSubresources, ResourceStateRenderTarget)
	if err := cl.CommitBarriers(); err != nil {
		t.Fatalf("CommitBarriers: %v", err)
	}
	if err := cl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Close appended the trailing transition back to the initial state.
	textures, _, _ := allBarriers(nb.LastCommandBuffer())
	last := textures[len(textures)-1]
	if last.StateBefore != ResourceStateRenderTarget || last.StateAfter != ResourceStateShaderResource {
		t.Errorf("trailing barrier %v -> %v, want RenderTarget -> ShaderResource", last.StateBefore, last.StateAfter)
	}

	// The next session starts from the declared initial state: using the
	// texture in that state needs no barrier.
	if err := cl.Open(); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := cl.GetTextureSubresourceState(tex, 0, 0); got != ResourceStateShaderResource {
		t.Errorf("state after reopen = %v, want ShaderResource", got)
	}
	cl.SetTextureState(tex, AllSubresources, ResourceStateShaderResource)
	if n := cl.PendingBarrierCount(); n != 0 {
		t.Errorf("pending after reopen same-state use = %d, want 0", n)
	}
}

func TestUntrackedTransitionReportsError(t *testing.T) {
	d, _, msgs := newTestDevice(t)
	// No InitialState declared and no BeginTracking call.
	tex := mustTexture(t, d, TextureDesc{
		Width: 32, Height: 32, Format: FormatRGBA8Unorm, DebugName: "untracked",
	})
	defer tex.Release()

	cl := openList(t, d)
	cl.SetTextureState(tex, AllSubresources, ResourceStateCopyDest)
	if msgs.count(SeverityError) == 0 {
		t.Error("transition from untracked state reported no error")
	}
	if !msgs.contains("untracked") {
		t.Error("report does not name the resource")
	}
}

func TestBeginTrackingSuppliesStateWithoutBarrier(t *testing.T) {
	d, _, msgs := newTestDevice(t)
	tex := mustTexture(t, d, TextureDesc{
		Width: 32, Height: 32, Format: FormatRGBA8Unorm, DebugName: "declared",
	})
	defer tex.Release()

	cl := openList(t, d)
	cl.BeginTrackingTextureState(tex, AllSubresources, ResourceStateCopySource)
	if n := cl.PendingBarrierCount(); n != 0 {
		t.Fatalf("BeginTracking recorded %d barriers", n)
	}

	cl.SetTextureState(tex, AllSubresources, ResourceStateShaderResource)
	if n := cl.PendingBarrierCount(); n != 1 {
		t.Fatalf("pending = %d, want 1", n)
	}
	if msgs.count(SeverityError) != 0 {
		t.Error("declared state still reported an error")
	}
}

func TestBufferUploadThenBindSequence(t *testing.T) {
	d, nb, _ := newTestDevice(t)
	buf := mustBuffer(t, d, BufferDesc{
		ByteSize:       1024,
		DebugName:      "vertices",
		IsVertexBuffer: true,
		InitialState:   ResourceStateCommon,
	})
	defer buf.Release()

	cl := openList(t, d)
	if err := cl.WriteBuffer(buf, make([]byte, 512), 0); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}
	if err := cl.CommitBarriers(); err != nil {
		t.Fatalf("CommitBarriers: %v", err)
	}
	if err := cl.SetGraphicsState(GraphicsState{
		VertexBuffers: []VertexBufferBinding{{Buffer: buf}},
	}); err != nil {
		t.Fatalf("SetGraphicsState: %v", err)
	}
	if err := cl.CommitBarriers(); err != nil {
		t.Fatalf("CommitBarriers: %v", err)
	}

	_, buffers, _ := allBarriers(nb.LastCommandBuffer())
	if len(buffers) != 2 {
		t.Fatalf("recorded %d buffer barriers, want 2", len(buffers))
	}
	if buffers[0].StateBefore != ResourceStateCommon || buffers[0].StateAfter != ResourceStateCopyDest {
		t.Errorf("upload barrier %v -> %v", buffers[0].StateBefore, buffers[0].StateAfter)
	}
	if buffers[1].StateBefore != ResourceStateCopyDest || buffers[1].StateAfter != ResourceStateVertexBuffer {
		t.Errorf("bind barrier %v -> %v", buffers[1].StateBefore, buffers[1].StateAfter)
	}
}

func TestUAVBarrierDedup(t *testing.T) {
	d, nb, _ := newTestDevice(t)
	buf := mustBuffer(t, d, BufferDesc{
		ByteSize:     256,
		DebugName:    "counter",
		CanHaveUAVs:  true,
		InitialState: ResourceStateCommon,
	})
	defer buf.Release()

	cl := openList(t, d)
	cl.SetBufferState(buf, ResourceStateUnorderedAccess)
	// Back-to-back UAV use: one UAV barrier, deduplicated in the batch.
	cl.SetBufferState(buf, ResourceStateUnorderedAccess)
	cl.SetBufferState(buf, ResourceStateUnorderedAccess)
	if err := cl.CommitBarriers(); err != nil {
		t.Fatalf("CommitBarriers: %v", err)
	}

	_, buffers, uavs := allBarriers(nb.LastCommandBuffer())
	if len(buffers) != 1 {
		t.Errorf("recorded %d transitions, want 1", len(buffers))
	}
	if len(uavs) != 1 {
		t.Errorf("recorded %d UAV barriers, want 1", len(uavs))
	}
}

func TestUAVBarrierOptOut(t *testing.T) {
	d, nb, _ := newTestDevice(t)
	buf := mustBuffer(t, d, BufferDesc{
		ByteSize:     256,
		DebugName:    "scratch",
		CanHaveUAVs:  true,
		InitialState: ResourceStateCommon,
	})
	defer buf.Release()

	cl := openList(t, d)
	cl.SetEnableUAVBarriersForBuffer(buf, false)
	cl.SetBufferState(buf, ResourceStateUnorderedAccess)
	cl.SetBufferState(buf, ResourceStateUnorderedAccess)
	if err := cl.CommitBarriers(); err != nil {
		t.Fatalf("CommitBarriers: %v", err)
	}

	_, _, uavs := allBarriers(nb.LastCommandBuffer())
	if len(uavs) != 0 {
		t.Errorf("recorded %d UAV barriers with opt-out, want 0", len(uavs))
	}
}

func TestPermanentStateExitsTracking(t *testing.T) {
	d, _, msgs := newTestDevice(t)
	tex := mustTexture(t, d, mipArrayDesc("permanent"))
	defer tex.Release()

	cl := openList(t, d)
	cl.SetPermanentTextureState(tex, ResourceStateShaderResource)
	if err := cl.CommitBarriers(); err != nil {
		t.Fatalf("CommitBarriers: %v", err)
	}

	// Further compatible uses are free and recorded nowhere.
	cl.SetTextureState(tex, AllSubresources, ResourceStateShaderResource)
	if n := cl.PendingBarrierCount(); n != 0 {
		t.Errorf("pending = %d after permanent-state use, want 0", n)
	}
	if got := cl.GetTextureSubresourceState(tex, 1, 2); got != ResourceStateShaderResource {
		t.Errorf("state = %v, want permanent ShaderResource", got)
	}

	// Conflicting use is an error report, not a transition.
	cl.SetTextureState(tex, AllSubresources, ResourceStateRenderTarget)
	if msgs.count(SeverityError) == 0 {
		t.Error("conflicting use of permanent state reported nothing")
	}
	if n := cl.PendingBarrierCount(); n != 0 {
		t.Errorf("conflicting use recorded %d barriers", n)
	}
}

func TestDisabledAutomaticBarriers(t *testing.T) {
	d, nb, _ := newTestDevice(t)
	src := mustBuffer(t, d, BufferDesc{ByteSize: 256, DebugName: "src", InitialState: ResourceStateCommon})
	dst := mustBuffer(t, d, BufferDesc{ByteSize: 256, DebugName: "dst", InitialState: ResourceStateCommon})
	defer src.Release()
	defer dst.Release()

	cl := openList(t, d)
	cl.SetEnableAutomaticBarriers(false)
	if err := cl.CopyBuffer(dst, 0, src, 0, 256); err != nil {
		t.Fatalf("CopyBuffer: %v", err)
	}
	if n := cl.PendingBarrierCount(); n != 0 {
		t.Fatalf("copy with automatic barriers off recorded %d barriers", n)
	}
	// States stay untouched; explicit management still works.
	if got := cl.GetBufferState(dst); got != ResourceStateUnknown {
		t.Errorf("dst state = %v, want Unknown", got)
	}
	cl.SetBufferState(dst, ResourceStateCopyDest)
	if n := cl.PendingBarrierCount(); n != 1 {
		t.Errorf("explicit transition recorded %d barriers, want 1", n)
	}
	if err := cl.CommitBarriers(); err != nil {
		t.Fatalf("CommitBarriers: %v", err)
	}
	cb := nb.LastCommandBuffer()
	if len(cb.Commands) != 1 || cb.Commands[0] != "CopyBuffer" {
		t.Errorf("recorded commands %v, want [CopyBuffer]", cb.Commands)
	}
}

func TestRenderThenSampleScenario(t *testing.T) {
	d, nb, msgs := newTestDevice(t)
	rt := mustTexture(t, d, TextureDesc{
		Width: 128, Height: 128,
		Format:           FormatRGBA8Unorm,
		DebugName:        "offscreen",
		IsRenderTarget:   true,
		IsShaderResource: true,
		InitialState:     ResourceStateShaderResource,
		KeepInitialState: true,
	})
	defer rt.Release()

	cl := openList(t, d)

	// Render pass: clear transitions into RenderTarget.
	if err := cl.ClearTextureFloat(rt, AllSubresources, Color{R: 0.1, A: 1}); err != nil {
		t.Fatalf("ClearTextureFloat: %v", err)
	}
	if err := cl.SetGraphicsState(GraphicsState{RenderTargets: []*Texture{rt}}); err != nil {
		t.Fatalf("SetGraphicsState: %v", err)
	}
	if err := cl.CommitBarriers(); err != nil {
		t.Fatalf("CommitBarriers: %v", err)
	}
	if err := cl.Draw(DrawArguments{VertexCount: 3}); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	// Sample pass: the texture moves to ShaderResource.
	cl.SetTextureState(rt, AllSubresources, ResourceStateShaderResource)
	if err := cl.CommitBarriers(); err != nil {
		t.Fatalf("CommitBarriers: %v", err)
	}
	if err := cl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	textures, _, _ := allBarriers(nb.LastCommandBuffer())
	// ShaderResource -> RenderTarget, RenderTarget -> ShaderResource; the
	// trailing keep-initial transition is a no-op and must not appear.
	if len(textures) != 2 {
		t.Fatalf("recorded %d texture barriers, want 2: %+v", len(textures), textures)
	}
	if textures[0].StateAfter != ResourceStateRenderTarget || textures[1].StateAfter != ResourceStateShaderResource {
		t.Errorf("barrier sequence %v, %v", textures[0].StateAfter, textures[1].StateAfter)
	}
	if msgs.count(SeverityError) != 0 {
		t.Errorf("scenario produced %d error reports", msgs.count(SeverityError))
	}
}

func TestAccelStructBuildTransitions(t *testing.T) {
	d, _, _ := newTestDevice(t)
	vb := mustBuffer(t, d, BufferDesc{
		ByteSize: 1 << 12, DebugName: "blas-verts",
		IsAccelStructBuildInput: true,
		InitialState:            ResourceStateCommon,
	})
	defer vb.Release()

	as, err := d.CreateAccelStruct(AccelStructDesc{
		BottomLevelGeometries: []Geometry{GeometryTriangles{VertexBuffer: vb, VertexStride: 12, VertexCount: 128}},
		DebugName:             "blas",
	})
	if err != nil {
		t.Fatalf("CreateAccelStruct: %v", err)
	}
	defer as.Release()

	cl := openList(t, d)
	if err := cl.BuildAccelStruct(as, as.Desc().BottomLevelGeometries); err != nil {
		t.Fatalf("BuildAccelStruct: %v", err)
	}
	// Build writes the structure and reads the geometry buffer.
	if got := cl.GetBufferState(vb); got != ResourceStateAccelStructBuildInput {
		t.Errorf("geometry buffer state = %v", got)
	}

	cl.SetAccelStructState(as, ResourceStateAccelStructRead)
	if n := cl.PendingBarrierCount(); n != 3 {
		t.Errorf("pending = %d, want 3 (struct write, input, struct read)", n)
	}
}

func TestSubresourceQueryOutOfRange(t *testing.T) {
	d, _, _ := newTestDevice(t)
	tex := mustTexture(t, d, mipArrayDesc("bounds"))
	defer tex.Release()

	cl := openList(t, d)

	// Compact entry: queries outside the texture report Unknown, not the
	// whole-resource state.
	cl.SetTextureState(tex, AllSubresources, ResourceStateCopyDest)
	if got := cl.GetTextureSubresourceState(tex, 9, 0); got != ResourceStateUnknown {
		t.Errorf("compact out-of-range slice = %v, want Unknown", got)
	}

	// Materialized entry: the same queries must not index past the table.
	cl.SetTextureState(tex, TextureSubresourceSet{
		NumMipLevels: 1, NumArraySlices: 1,
	}, ResourceStateRenderTarget)
	if got := cl.GetTextureSubresourceState(tex, 0, 9); got != ResourceStateUnknown {
		t.Errorf("materialized out-of-range mip = %v, want Unknown", got)
	}
	if got := cl.GetTextureSubresourceState(tex, 9, 9); got != ResourceStateUnknown {
		t.Errorf("materialized out-of-range query = %v, want Unknown", got)
	}
	if got := cl.GetTextureSubresourceState(tex, 0, 0); got != ResourceStateRenderTarget {
		t.Errorf("in-range query = %v, want RenderTarget", got)
	}
}
