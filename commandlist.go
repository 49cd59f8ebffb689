package nvrhi

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// Command list errors.
var (
	// ErrCommandListAlreadyOpen is returned by Open on an open list.
	ErrCommandListAlreadyOpen = errors.New("nvrhi: command list already open")

	// ErrCommandListNotOpen is returned by recording methods when the list
	// is not in the Open phase.
	ErrCommandListNotOpen = errors.New("nvrhi: command list not open")

	// ErrCommandListInFlight is returned by Open while a previous session
	// of the list is still executing.
	ErrCommandListInFlight = errors.New("nvrhi: command list still executing")

	// ErrNilResource is returned when an operation references a nil
	// texture or buffer.
	ErrNilResource = errors.New("nvrhi: resource is nil")

	// ErrCopyRangeOutOfBounds is returned when a copy exceeds buffer bounds.
	ErrCopyRangeOutOfBounds = errors.New("nvrhi: copy range out of bounds")

	// ErrNoGraphicsState is returned by draws issued before
	// SetGraphicsState.
	ErrNoGraphicsState = errors.New("nvrhi: no graphics state set")

	// ErrNoComputeState is returned by dispatches issued before
	// SetComputeState.
	ErrNoComputeState = errors.New("nvrhi: no compute state set")
)

// CommandListPhase is the lifecycle phase of a CommandList.
//
// State machine:
//
//	Initial   -> Open()                  -> Open
//	Open      -> Close()                 -> Closed
//	Closed    -> ExecuteCommandLists()   -> Executing
//	Closed    -> Open()                  -> Open (new session)
//	Executing -> (fence observed by GC)  -> Completed
//	Completed -> Open()                  -> Open (new session)
type CommandListPhase uint32

const (
	// PhaseInitial is a freshly created list, never opened.
	PhaseInitial CommandListPhase = iota
	// PhaseOpen is a list under recording.
	PhaseOpen
	// PhaseClosed is a finalized list awaiting submission.
	PhaseClosed
	// PhaseExecuting is a submitted list the GPU may still be running.
	PhaseExecuting
	// PhaseCompleted is a submitted list whose completion was confirmed.
	PhaseCompleted
)

// String returns the string representation of a CommandListPhase.
func (p CommandListPhase) String() string {
	switch p {
	case PhaseInitial:
		return "Initial"
	case PhaseOpen:
		return "Open"
	case PhaseClosed:
		return "Closed"
	case PhaseExecuting:
		return "Executing"
	case PhaseCompleted:
		return "Completed"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(p))
	}
}

// CommandListParameters configures a CommandList at creation.
type CommandListParameters struct {
	// Queue is the queue the list will be submitted to.
	Queue CommandQueue
	// DebugName labels the list in logs and misuse reports.
	DebugName string
}

// VertexBufferBinding binds one buffer to a vertex input slot.
type VertexBufferBinding struct {
	// Buffer is the vertex data.
	Buffer *Buffer
	// Slot is the input slot.
	Slot uint32
	// Offset is the byte offset of the first vertex.
	Offset uint64
}

// GraphicsState is the full graphics binding state for subsequent draws.
type GraphicsState struct {
	// Pipeline is the graphics pipeline.
	Pipeline *GraphicsPipeline
	// RenderTargets are the color targets, bound in RenderTarget state.
	RenderTargets []*Texture
	// DepthTarget is the depth-stencil target, if any.
	DepthTarget *Texture
	// DepthReadOnly binds DepthTarget in DepthRead instead of DepthWrite.
	DepthReadOnly bool
	// Bindings are the binding sets consumed by the pipeline.
	Bindings []*BindingSet
	// VertexBuffers are the vertex streams.
	VertexBuffers []VertexBufferBinding
	// IndexBuffer is the index stream, if any.
	IndexBuffer *Buffer
	// IndirectBuffer supplies arguments for indirect draws, if any.
	IndirectBuffer *Buffer
}

// ComputeState is the full compute binding state for subsequent dispatches.
type ComputeState struct {
	// Pipeline is the compute pipeline.
	Pipeline *ComputePipeline
	// Bindings are the binding sets consumed by the pipeline.
	Bindings []*BindingSet
	// IndirectBuffer supplies arguments for indirect dispatches, if any.
	IndirectBuffer *Buffer
}

// DrawArguments parameterizes a direct draw.
type DrawArguments struct {
	// VertexCount is the number of vertices (or indices for DrawIndexed).
	VertexCount uint32
	// InstanceCount is the number of instances. Defaults to 1 when zero.
	InstanceCount uint32
	// StartVertex is the first vertex.
	StartVertex uint32
	// StartIndex is the first index (DrawIndexed only).
	StartIndex uint32
	// StartInstance is the first instance.
	StartInstance uint32
}

// CommandList records GPU commands and tracks the resource states they
// imply.
//
// A CommandList is NOT safe for concurrent use: one goroutine opens,
// records, and closes it. Distinct lists may be recorded concurrently
// without locking because each owns an independent state tracker and
// barrier accumulator. Only the phase field is shared with the device's
// garbage collector, which moves Executing lists to Completed.
type CommandList struct {
	device   *Device
	params   CommandListParameters
	messages MessageCallback

	phase atomic.Uint32

	tracker *stateTracker

	// autoBarriers enables automatic state inference on binding and
	// transfer operations. On by default; turning it off makes state
	// management entirely the caller's job.
	autoBarriers bool

	native NativeCommandBuffer

	// referenced retains every resource touched this session until the
	// device confirms GPU completion.
	referenced map[resource]struct{}

	// submissionID is the per-queue instance this list was last submitted
	// as; zero before the first submission.
	submissionID uint64

	graphicsStateSet bool
	computeStateSet  bool

	// markerDepth is the nesting depth of open debug marker scopes.
	markerDepth int
}

// newCommandList is called by Device.CreateCommandList.
func newCommandList(device *Device, params CommandListParameters) *CommandList {
	cl := &CommandList{
		device:       device,
		params:       params,
		messages:     device.messages,
		tracker:      newStateTracker(device.messages),
		autoBarriers: true,
		referenced:   make(map[resource]struct{}),
	}
	cl.phase.Store(uint32(PhaseInitial))
	return cl
}

// Phase returns the current lifecycle phase.
func (cl *CommandList) Phase() CommandListPhase {
	return CommandListPhase(cl.phase.Load())
}

// Queue returns the queue the list submits to.
func (cl *CommandList) Queue() CommandQueue {
	return cl.params.Queue
}

// SubmissionID returns the per-queue submission instance of the last
// ExecuteCommandLists call that included this list, or zero.
func (cl *CommandList) SubmissionID() uint64 {
	return cl.submissionID
}

// misuse reports a usage error through the message callback and returns
// err for the Go-style caller.
func (cl *CommandList) misuse(err error, op string) error {
	cl.messages.Message(SeverityError, fmt.Sprintf(
		"nvrhi: %s on command list %q in phase %v", op, cl.params.DebugName, cl.Phase()))
	return err
}

// requireOpen verifies the list is recording.
func (cl *CommandList) requireOpen(op string) error {
	if cl.Phase() != PhaseOpen {
		return cl.misuse(ErrCommandListNotOpen, op)
	}
	return nil
}

// Open begins a new recording session.
//
// Per-session subresource tracking is reset: resources with
// KeepInitialState restart at their declared initial state, everything
// else at Unknown until touched or declared via BeginTracking calls.
// Opening an already-open or still-executing list is a usage error.
func (cl *CommandList) Open() error {
	switch cl.Phase() {
	case PhaseOpen:
		return cl.misuse(ErrCommandListAlreadyOpen, "Open")
	case PhaseExecuting:
		return cl.misuse(ErrCommandListInFlight, "Open")
	}

	native, err := cl.device.backend.OpenCommandBuffer(cl.params.Queue)
	if err != nil {
		return fmt.Errorf("open command buffer: %w", err)
	}

	cl.native = native
	cl.tracker.reset()
	// A closed session that was never submitted still holds its retained
	// references; they were never handed to ExecuteCommandLists, so they
	// are released here when the recording is discarded.
	for r := range cl.referenced {
		r.release()
	}
	clear(cl.referenced)
	cl.graphicsStateSet = false
	cl.computeStateSet = false
	cl.markerDepth = 0
	cl.phase.Store(uint32(PhaseOpen))
	return nil
}

// Close finalizes the recording session.
//
// For every KeepInitialState resource touched this session, Close emits
// trailing transitions back to the resource's declared initial state, so
// subsequent command lists (and presentation) observe a deterministic
// starting state regardless of recording order. Barriers left uncommitted
// by the caller are flushed together with the trailing transitions, with a
// warning: explicit CommitBarriers before dependent work remains the
// caller's contract.
func (cl *CommandList) Close() error {
	if err := cl.requireOpen("Close"); err != nil {
		return err
	}

	if cl.markerDepth > 0 {
		cl.messages.Message(SeverityWarning, fmt.Sprintf(
			"nvrhi: command list %q closed with %d open marker scopes", cl.params.DebugName, cl.markerDepth))
	}
	if n := cl.tracker.pendingCount(); n > 0 {
		cl.messages.Message(SeverityWarning, fmt.Sprintf(
			"nvrhi: command list %q closed with %d uncommitted barriers", cl.params.DebugName, n))
	}

	cl.tracker.keepInitialStateTransitions()
	if err := cl.CommitBarriers(); err != nil {
		return err
	}

	if err := cl.device.backend.CloseCommandBuffer(cl.native); err != nil {
		return fmt.Errorf("close command buffer: %w", err)
	}
	cl.phase.Store(uint32(PhaseClosed))
	return nil
}

// SetEnableAutomaticBarriers toggles automatic state inference.
//
// With automatic barriers off, binding and transfer operations perform no
// state lookups; the caller must issue SetTextureState/SetBufferState and
// CommitBarriers manually. The toggle exists because inference costs table
// lookups on every binding, which callers batching many draws with
// unchanging bindings may not want to pay.
func (cl *CommandList) SetEnableAutomaticBarriers(enable bool) {
	cl.autoBarriers = enable
}

// SetEnableUAVBarriersForTexture toggles automatic UAV barriers between
// back-to-back unordered-access uses of the texture. On by default;
// callers managing dispatch ordering themselves disable it to avoid
// redundant barriers.
func (cl *CommandList) SetEnableUAVBarriersForTexture(t *Texture, enable bool) {
	if t != nil {
		t.uavBarriers.Store(enable)
	}
}

// SetEnableUAVBarriersForBuffer toggles automatic UAV barriers for a
// buffer; see SetEnableUAVBarriersForTexture.
func (cl *CommandList) SetEnableUAVBarriersForBuffer(b *Buffer, enable bool) {
	if b != nil {
		b.uavBarriers.Store(enable)
	}
}

// retain keeps a resource alive until this session's submission is
// confirmed complete.
func (cl *CommandList) retain(res resource) {
	if _, ok := cl.referenced[res]; ok {
		return
	}
	res.addRef()
	cl.referenced[res] = struct{}{}
}

// BeginTrackingTextureState declares the texture's current state as left
// by a prior submission, without emitting a barrier. Use at the start of a
// session when another command list transitioned the resource.
func (cl *CommandList) BeginTrackingTextureState(t *Texture, set TextureSubresourceSet, state ResourceStates) {
	if cl.requireOpen("BeginTrackingTextureState") != nil || t == nil {
		return
	}
	cl.retain(t)
	cl.tracker.beginTrackingTexture(t, set, state)
}

// BeginTrackingBufferState declares the buffer's current state without
// emitting a barrier; see BeginTrackingTextureState.
func (cl *CommandList) BeginTrackingBufferState(b *Buffer, state ResourceStates) {
	if cl.requireOpen("BeginTrackingBufferState") != nil || b == nil {
		return
	}
	cl.retain(b)
	cl.tracker.beginTrackingBuffer(b, state)
}

// SetTextureState requests a transition of the given subresources into
// state. A request into the current state is a no-op. The state table
// reflects the post-transition state immediately; the barrier reaches the
// backend on the next CommitBarriers.
func (cl *CommandList) SetTextureState(t *Texture, set TextureSubresourceSet, state ResourceStates) {
	if cl.requireOpen("SetTextureState") != nil || t == nil {
		return
	}
	cl.retain(t)
	cl.tracker.requireTextureState(t, set, state)
}

// SetBufferState requests a transition of the buffer into state; see
// SetTextureState.
func (cl *CommandList) SetBufferState(b *Buffer, state ResourceStates) {
	if cl.requireOpen("SetBufferState") != nil || b == nil {
		return
	}
	cl.retain(b)
	cl.tracker.requireBufferState(b, state)
}

// SetAccelStructState requests a transition of the acceleration structure
// into state; see SetTextureState.
func (cl *CommandList) SetAccelStructState(a *AccelStruct, state ResourceStates) {
	if cl.requireOpen("SetAccelStructState") != nil || a == nil {
		return
	}
	cl.retain(a)
	cl.tracker.requireAccelStructState(a, state)
}

// SetPermanentTextureState transitions the texture into state and removes
// it from tracking entirely. The resource is assumed to stay in that state
// forever; violations are the caller's responsibility and are not
// detected.
func (cl *CommandList) SetPermanentTextureState(t *Texture, state ResourceStates) {
	if cl.requireOpen("SetPermanentTextureState") != nil || t == nil {
		return
	}
	cl.retain(t)
	cl.tracker.requireTextureState(t, AllSubresources, state)
	t.permanentState.Store(uint32(state))
}

// SetPermanentBufferState transitions the buffer into state and removes it
// from tracking; see SetPermanentTextureState.
func (cl *CommandList) SetPermanentBufferState(b *Buffer, state ResourceStates) {
	if cl.requireOpen("SetPermanentBufferState") != nil || b == nil {
		return
	}
	cl.retain(b)
	cl.tracker.requireBufferState(b, state)
	b.permanentState.Store(uint32(state))
}

// GetTextureSubresourceState returns the tracked state of one subresource
// within the current session, or Unknown if never touched.
func (cl *CommandList) GetTextureSubresourceState(t *Texture, arraySlice, mipLevel uint32) ResourceStates {
	if t == nil {
		return ResourceStateUnknown
	}
	return cl.tracker.getTextureSubresourceState(t, arraySlice, mipLevel)
}

// GetBufferState returns the tracked state of a buffer within the current
// session, or Unknown.
func (cl *CommandList) GetBufferState(b *Buffer) ResourceStates {
	if b == nil {
		return ResourceStateUnknown
	}
	return cl.tracker.getBufferState(b)
}

// PendingBarrierCount returns the number of transition records awaiting
// CommitBarriers.
func (cl *CommandList) PendingBarrierCount() int {
	return cl.tracker.pendingCount()
}

// CommitBarriers flushes the accumulated transitions to the backend's
// native barrier mechanism and clears the accumulator.
//
// Commit is never implicit on binding or dispatch: the caller batches
// transitions and commits once before the GPU work that depends on the new
// states, which lets multiple transitions collapse into one native barrier
// command.
func (cl *CommandList) CommitBarriers() error {
	if err := cl.requireOpen("CommitBarriers"); err != nil {
		return err
	}
	textures, buffers, uavs := cl.tracker.takePending()
	if len(textures) == 0 && len(buffers) == 0 && len(uavs) == 0 {
		return nil
	}
	Logger().Debug("nvrhi: committing barriers",
		"commandList", cl.params.DebugName,
		"textures", len(textures), "buffers", len(buffers), "uavs", len(uavs))
	if err := cl.device.backend.FlushBarriers(cl.native, textures, buffers, uavs); err != nil {
		return fmt.Errorf("flush barriers: %w", err)
	}
	return nil
}

// CopyTexture records a texture-to-texture copy. Under automatic barriers
// the destination is transitioned to CopyDest and the source to
// CopySource.
func (cl *CommandList) CopyTexture(dst *Texture, dstSet TextureSubresourceSet, src *Texture, srcSet TextureSubresourceSet) error {
	if err := cl.requireOpen("CopyTexture"); err != nil {
		return err
	}
	if dst == nil || src == nil {
		return ErrNilResource
	}
	cl.retain(dst)
	cl.retain(src)
	if cl.autoBarriers {
		cl.tracker.requireTextureState(dst, dstSet, ResourceStateCopyDest)
		cl.tracker.requireTextureState(src, srcSet, ResourceStateCopySource)
	}
	return cl.device.backend.CopyTexture(cl.native, dst.native, dstSet.Resolve(dst.desc), src.native, srcSet.Resolve(src.desc))
}

// CopyBuffer records a buffer-to-buffer copy. Under automatic barriers the
// destination is transitioned to CopyDest and the source to CopySource.
func (cl *CommandList) CopyBuffer(dst *Buffer, dstOffset uint64, src *Buffer, srcOffset, byteCount uint64) error {
	if err := cl.requireOpen("CopyBuffer"); err != nil {
		return err
	}
	if dst == nil || src == nil {
		return ErrNilResource
	}
	if dstOffset+byteCount > dst.desc.ByteSize || srcOffset+byteCount > src.desc.ByteSize {
		return ErrCopyRangeOutOfBounds
	}
	cl.retain(dst)
	cl.retain(src)
	if cl.autoBarriers {
		cl.tracker.requireBufferState(dst, ResourceStateCopyDest)
		cl.tracker.requireBufferState(src, ResourceStateCopySource)
	}
	return cl.device.backend.CopyBuffer(cl.native, dst.native, dstOffset, src.native, srcOffset, byteCount)
}

// WriteBuffer records a CPU-to-buffer upload. Under automatic barriers the
// buffer is transitioned to CopyDest.
func (cl *CommandList) WriteBuffer(b *Buffer, data []byte, dstOffset uint64) error {
	if err := cl.requireOpen("WriteBuffer"); err != nil {
		return err
	}
	if b == nil {
		return ErrNilResource
	}
	if dstOffset+uint64(len(data)) > b.desc.ByteSize {
		return ErrCopyRangeOutOfBounds
	}
	cl.retain(b)
	if cl.autoBarriers {
		cl.tracker.requireBufferState(b, ResourceStateCopyDest)
	}
	return cl.device.backend.WriteBuffer(cl.native, b.native, data, dstOffset)
}

// WriteTexture records a CPU-to-texture upload of one subresource set.
// Under automatic barriers the texture is transitioned to CopyDest.
func (cl *CommandList) WriteTexture(t *Texture, set TextureSubresourceSet, data []byte, layout TextureWriteLayout) error {
	if err := cl.requireOpen("WriteTexture"); err != nil {
		return err
	}
	if t == nil {
		return ErrNilResource
	}
	cl.retain(t)
	if cl.autoBarriers {
		cl.tracker.requireTextureState(t, set, ResourceStateCopyDest)
	}
	return cl.device.backend.WriteTexture(cl.native, t.native, set.Resolve(t.desc), data, layout)
}

// ClearTextureFloat records a clear. Under automatic barriers render
// targets are cleared in RenderTarget state and UAV textures in
// UnorderedAccess state.
func (cl *CommandList) ClearTextureFloat(t *Texture, set TextureSubresourceSet, color Color) error {
	if err := cl.requireOpen("ClearTextureFloat"); err != nil {
		return err
	}
	if t == nil {
		return ErrNilResource
	}
	cl.retain(t)
	if cl.autoBarriers {
		if t.desc.IsRenderTarget {
			cl.tracker.requireTextureState(t, set, ResourceStateRenderTarget)
		} else {
			cl.tracker.requireTextureState(t, set, ResourceStateUnorderedAccess)
		}
	}
	return cl.device.backend.ClearTexture(cl.native, t.native, set.Resolve(t.desc), color)
}

// SetGraphicsState binds the full graphics state for subsequent draws.
// Under automatic barriers every bound resource's required state is
// inferred from its binding point: render targets to RenderTarget, the
// depth target to DepthWrite or DepthRead, binding set items per their
// type, vertex/index buffers to their input-assembler states, the indirect
// buffer to IndirectArgument. The inferred transitions accumulate;
// CommitBarriers stays explicit.
func (cl *CommandList) SetGraphicsState(state GraphicsState) error {
	if err := cl.requireOpen("SetGraphicsState"); err != nil {
		return err
	}

	for _, rt := range state.RenderTargets {
		if rt == nil {
			continue
		}
		cl.retain(rt)
		if cl.autoBarriers {
			cl.tracker.requireTextureState(rt, AllSubresources, ResourceStateRenderTarget)
		}
	}
	if dt := state.DepthTarget; dt != nil {
		cl.retain(dt)
		if cl.autoBarriers {
			target := ResourceStateDepthWrite
			if state.DepthReadOnly {
				target = ResourceStateDepthRead
			}
			cl.tracker.requireTextureState(dt, AllSubresources, target)
		}
	}
	for _, set := range state.Bindings {
		cl.bindSet(set)
	}
	for _, vb := range state.VertexBuffers {
		if vb.Buffer == nil {
			continue
		}
		cl.retain(vb.Buffer)
		if cl.autoBarriers {
			cl.tracker.requireBufferState(vb.Buffer, ResourceStateVertexBuffer)
		}
	}
	if ib := state.IndexBuffer; ib != nil {
		cl.retain(ib)
		if cl.autoBarriers {
			cl.tracker.requireBufferState(ib, ResourceStateIndexBuffer)
		}
	}
	if ind := state.IndirectBuffer; ind != nil {
		cl.retain(ind)
		if cl.autoBarriers {
			cl.tracker.requireBufferState(ind, ResourceStateIndirectArgument)
		}
	}

	cl.graphicsStateSet = true
	return nil
}

// SetComputeState binds the full compute state for subsequent dispatches;
// state inference works as in SetGraphicsState.
func (cl *CommandList) SetComputeState(state ComputeState) error {
	if err := cl.requireOpen("SetComputeState"); err != nil {
		return err
	}
	for _, set := range state.Bindings {
		cl.bindSet(set)
	}
	if ind := state.IndirectBuffer; ind != nil {
		cl.retain(ind)
		if cl.autoBarriers {
			cl.tracker.requireBufferState(ind, ResourceStateIndirectArgument)
		}
	}
	cl.computeStateSet = true
	return nil
}

// bindSet retains a binding set's resources (when the set tracks liveness)
// and infers their states from the binding types.
func (cl *CommandList) bindSet(set *BindingSet) {
	if set == nil {
		return
	}
	for _, item := range set.desc.Items {
		var target ResourceStates
		switch item.Type {
		case BindingTextureSRV, BindingBufferSRV:
			target = ResourceStateShaderResource
		case BindingTextureUAV, BindingBufferUAV:
			target = ResourceStateUnorderedAccess
		case BindingConstantBuffer:
			target = ResourceStateConstantBuffer
		case BindingAccelStruct:
			target = ResourceStateAccelStructRead
		default:
			continue
		}

		switch {
		case item.Texture != nil:
			if !set.desc.DisableLivenessTracking {
				cl.retain(item.Texture)
			}
			if cl.autoBarriers {
				// Zero-value Subresources means the entire texture, as in
				// the view key.
				sub := item.Subresources
				if sub == (TextureSubresourceSet{}) {
					sub = AllSubresources
				}
				cl.tracker.requireTextureState(item.Texture, sub, target)
			}
		case item.Buffer != nil:
			if !set.desc.DisableLivenessTracking {
				cl.retain(item.Buffer)
			}
			if cl.autoBarriers {
				cl.tracker.requireBufferState(item.Buffer, target)
			}
		case item.AccelStruct != nil:
			if !set.desc.DisableLivenessTracking {
				cl.retain(item.AccelStruct)
			}
			if cl.autoBarriers {
				cl.tracker.requireAccelStructState(item.AccelStruct, target)
			}
		}
	}
}

// Draw issues a direct draw with the current graphics state.
func (cl *CommandList) Draw(args DrawArguments) error {
	if err := cl.requireOpen("Draw"); err != nil {
		return err
	}
	if !cl.graphicsStateSet {
		return cl.misuse(ErrNoGraphicsState, "Draw")
	}
	return nil
}

// DrawIndexed issues an indexed draw with the current graphics state.
func (cl *CommandList) DrawIndexed(args DrawArguments) error {
	if err := cl.requireOpen("DrawIndexed"); err != nil {
		return err
	}
	if !cl.graphicsStateSet {
		return cl.misuse(ErrNoGraphicsState, "DrawIndexed")
	}
	return nil
}

// Dispatch issues a compute dispatch with the current compute state.
func (cl *CommandList) Dispatch(groupsX, groupsY, groupsZ uint32) error {
	if err := cl.requireOpen("Dispatch"); err != nil {
		return err
	}
	if !cl.computeStateSet {
		return cl.misuse(ErrNoComputeState, "Dispatch")
	}
	return nil
}

// BeginMarker opens a labeled debug scope visible in GPU capture tools.
// The first occurrence of a label is also logged at debug level; repeats
// are not, so per-frame markers stay out of the log.
func (cl *CommandList) BeginMarker(label string) error {
	if err := cl.requireOpen("BeginMarker"); err != nil {
		return err
	}
	if !cl.device.markerNames.Seen(label) {
		Logger().Debug("nvrhi: marker", "commandList", cl.params.DebugName, "label", label)
	}
	cl.markerDepth++
	return cl.device.backend.BeginMarker(cl.native, label)
}

// EndMarker closes the innermost debug scope opened by BeginMarker.
func (cl *CommandList) EndMarker() error {
	if err := cl.requireOpen("EndMarker"); err != nil {
		return err
	}
	if cl.markerDepth == 0 {
		cl.messages.Message(SeverityWarning, fmt.Sprintf(
			"nvrhi: EndMarker without BeginMarker on command list %q", cl.params.DebugName))
		return nil
	}
	cl.markerDepth--
	return cl.device.backend.EndMarker(cl.native)
}

// BuildAccelStruct records an acceleration structure build. Under
// automatic barriers the structure is transitioned to AccelStructWrite and
// every geometry buffer to AccelStructBuildInput.
func (cl *CommandList) BuildAccelStruct(a *AccelStruct, geometries []Geometry) error {
	if err := cl.requireOpen("BuildAccelStruct"); err != nil {
		return err
	}
	if a == nil {
		return ErrNilResource
	}
	cl.retain(a)
	if cl.autoBarriers {
		cl.tracker.requireAccelStructState(a, ResourceStateAccelStructWrite)
	}
	for _, g := range geometries {
		switch geo := g.(type) {
		case GeometryTriangles:
			for _, b := range []*Buffer{geo.VertexBuffer, geo.IndexBuffer} {
				if b == nil {
					continue
				}
				cl.retain(b)
				if cl.autoBarriers {
					cl.tracker.requireBufferState(b, ResourceStateAccelStructBuildInput)
				}
			}
		case GeometryAABBs:
			if geo.Buffer != nil {
				cl.retain(geo.Buffer)
				if cl.autoBarriers {
					cl.tracker.requireBufferState(geo.Buffer, ResourceStateAccelStructBuildInput)
				}
			}
		}
	}
	return nil
}

// takeReferenced hands the session's retained resources to the device for
// liveness tracking on submission; the command list keeps none.
func (cl *CommandList) takeReferenced() []resource {
	refs := make([]resource, 0, len(cl.referenced))
	for r := range cl.referenced {
		refs = append(refs, r)
	}
	clear(cl.referenced)
	return refs
}
