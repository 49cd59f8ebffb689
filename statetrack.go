package nvrhi

import "fmt"

// TextureBarrier is one pending texture state transition. StateBefore is
// Unknown when the tracker had to assume the prior state (reported through
// the message callback); backends treat that as a full-sync transition.
type TextureBarrier struct {
	// Texture is the resource to transition.
	Texture *Texture
	// Subresources is the resolved subresource set the transition covers.
	Subresources TextureSubresourceSet
	// StateBefore is the state the GPU last used the subresources in.
	StateBefore ResourceStates
	// StateAfter is the state the next use requires.
	StateAfter ResourceStates
}

// BufferBarrier is one pending buffer or acceleration structure transition.
// Exactly one of Buffer and AccelStruct is non-nil.
type BufferBarrier struct {
	// Buffer is the buffer to transition, if any.
	Buffer *Buffer
	// AccelStruct is the acceleration structure to transition, if any.
	AccelStruct *AccelStruct
	// StateBefore is the state the GPU last used the resource in.
	StateBefore ResourceStates
	// StateAfter is the state the next use requires.
	StateAfter ResourceStates
}

// UAVBarrier orders back-to-back unordered-access work on one resource
// without a state change. Exactly one of Texture and Buffer is non-nil.
type UAVBarrier struct {
	// Texture is the UAV texture, if any.
	Texture *Texture
	// Buffer is the UAV buffer, if any.
	Buffer *Buffer
}

// textureTrackState is the per-session tracking entry for one texture.
//
// While every subresource shares one state, the entry stays compact: a
// single ResourceStates value, O(1) regardless of mip/slice count. The
// first write to a strict sub-range materializes per-subresource entries so
// that siblings keep their prior state.
type textureTrackState struct {
	compact    bool
	wholeState ResourceStates
	// subStates is indexed by subresourceIndex; valid when !compact.
	subStates []ResourceStates
}

// newTextureTrackState starts tracking with every subresource in state s
// (typically Unknown, or the declared initial state for keepInitialState
// resources).
func newTextureTrackState(s ResourceStates) *textureTrackState {
	return &textureTrackState{compact: true, wholeState: s}
}

// materialize expands the compact representation into per-subresource
// entries. No-op if already materialized.
func (ts *textureTrackState) materialize(desc TextureDesc) {
	if !ts.compact {
		return
	}
	n := desc.MipLevels * desc.ArraySize
	ts.subStates = make([]ResourceStates, n)
	for i := range ts.subStates {
		ts.subStates[i] = ts.wholeState
	}
	ts.compact = false
}

// get returns the tracked state of one subresource.
func (ts *textureTrackState) get(desc TextureDesc, mipLevel, arraySlice uint32) ResourceStates {
	if ts.compact {
		return ts.wholeState
	}
	return ts.subStates[subresourceIndex(mipLevel, arraySlice, desc.MipLevels)]
}

// uniformState reports whether every subresource in the resolved set shares
// one state, and returns it.
func (ts *textureTrackState) uniformState(desc TextureDesc, set TextureSubresourceSet) (ResourceStates, bool) {
	if ts.compact {
		return ts.wholeState, true
	}
	first := ts.get(desc, set.BaseMipLevel, set.BaseArraySlice)
	for slice := set.BaseArraySlice; slice < set.BaseArraySlice+set.NumArraySlices; slice++ {
		for mip := set.BaseMipLevel; mip < set.BaseMipLevel+set.NumMipLevels; mip++ {
			if ts.get(desc, mip, slice) != first {
				return ResourceStateUnknown, false
			}
		}
	}
	return first, true
}

// bufferTrackState is the per-session tracking entry for a buffer or
// acceleration structure: single-state, no subresource granularity.
type bufferTrackState struct {
	state ResourceStates
}

// stateTracker is the resource state table and barrier accumulator of one
// command list. It answers "what state is subresource X in", records
// required transitions, and keeps the table at the post-transition state so
// recording always sees what the GPU will see once the barriers execute in
// order.
//
// A tracker belongs to exactly one command list and is reset on Open; it
// needs no locking because recording is single-threaded per list.
type stateTracker struct {
	messages MessageCallback

	textureStates map[*Texture]*textureTrackState
	bufferStates  map[*Buffer]*bufferTrackState
	accelStates   map[*AccelStruct]*bufferTrackState

	pendingTextureBarriers []TextureBarrier
	pendingBufferBarriers  []BufferBarrier
	pendingUAVBarriers     []UAVBarrier
}

func newStateTracker(messages MessageCallback) *stateTracker {
	return &stateTracker{
		messages:      messages,
		textureStates: make(map[*Texture]*textureTrackState),
		bufferStates:  make(map[*Buffer]*bufferTrackState),
		accelStates:   make(map[*AccelStruct]*bufferTrackState),
	}
}

// reset drops all per-session tracking and pending barriers. Resources with
// KeepInitialState restart at their declared initial state on next touch;
// everything else restarts at Unknown.
func (st *stateTracker) reset() {
	clear(st.textureStates)
	clear(st.bufferStates)
	clear(st.accelStates)
	st.pendingTextureBarriers = st.pendingTextureBarriers[:0]
	st.pendingBufferBarriers = st.pendingBufferBarriers[:0]
	st.pendingUAVBarriers = st.pendingUAVBarriers[:0]
}

// textureEntry returns the tracking entry for t, creating it lazily on
// first touch. New entries start at the resource's declared initial state
// for keepInitialState resources and at Unknown otherwise.
func (st *stateTracker) textureEntry(t *Texture) *textureTrackState {
	ts, ok := st.textureStates[t]
	if !ok {
		start := ResourceStateUnknown
		if t.desc.KeepInitialState {
			start = t.desc.InitialState
		}
		ts = newTextureTrackState(start)
		st.textureStates[t] = ts
	}
	return ts
}

func (st *stateTracker) bufferEntry(b *Buffer) *bufferTrackState {
	bs, ok := st.bufferStates[b]
	if !ok {
		start := ResourceStateUnknown
		if b.desc.KeepInitialState {
			start = b.desc.InitialState
		}
		bs = &bufferTrackState{state: start}
		st.bufferStates[b] = bs
	}
	return bs
}

func (st *stateTracker) accelEntry(a *AccelStruct) *bufferTrackState {
	as, ok := st.accelStates[a]
	if !ok {
		as = &bufferTrackState{state: ResourceStateUnknown}
		st.accelStates[a] = as
	}
	return as
}

// getTextureSubresourceState returns the tracked state of one subresource.
// Untouched textures report their declared initial state when
// KeepInitialState is set (that is where every session starts them) and
// Unknown otherwise. Coordinates outside the texture report Unknown
// regardless of representation.
func (st *stateTracker) getTextureSubresourceState(t *Texture, arraySlice, mipLevel uint32) ResourceStates {
	if mipLevel >= t.desc.MipLevels || arraySlice >= t.desc.ArraySize {
		return ResourceStateUnknown
	}
	if ps := ResourceStates(t.permanentState.Load()); ps != ResourceStateUnknown {
		return ps
	}
	ts, ok := st.textureStates[t]
	if !ok {
		if t.desc.KeepInitialState {
			return t.desc.InitialState
		}
		return ResourceStateUnknown
	}
	return ts.get(t.desc, mipLevel, arraySlice)
}

// getBufferState returns the tracked state of a buffer; see
// getTextureSubresourceState for the untouched-resource rules.
func (st *stateTracker) getBufferState(b *Buffer) ResourceStates {
	if ps := ResourceStates(b.permanentState.Load()); ps != ResourceStateUnknown {
		return ps
	}
	bs, ok := st.bufferStates[b]
	if !ok {
		if b.desc.KeepInitialState {
			return b.desc.InitialState
		}
		return ResourceStateUnknown
	}
	return bs.state
}

// beginTrackingTexture declares the texture's actual current state, as left
// by a prior submission, without emitting a barrier. Cross-command-list
// state is not tracked automatically; this is the caller's declaration at a
// session boundary.
func (st *stateTracker) beginTrackingTexture(t *Texture, set TextureSubresourceSet, state ResourceStates) {
	set = set.Resolve(t.desc)
	ts := st.textureEntry(t)
	if set.IsEntireTexture(t.desc) {
		ts.compact = true
		ts.wholeState = state
		ts.subStates = nil
		return
	}
	ts.materialize(t.desc)
	for slice := set.BaseArraySlice; slice < set.BaseArraySlice+set.NumArraySlices; slice++ {
		for mip := set.BaseMipLevel; mip < set.BaseMipLevel+set.NumMipLevels; mip++ {
			ts.subStates[subresourceIndex(mip, slice, t.desc.MipLevels)] = state
		}
	}
}

// beginTrackingBuffer declares the buffer's actual current state without
// emitting a barrier.
func (st *stateTracker) beginTrackingBuffer(b *Buffer, state ResourceStates) {
	st.bufferEntry(b).state = state
}

// resolveUnknown decides the before-state for a transition out of Unknown:
// the resource's declared initial state when one exists, otherwise Unknown
// plus a usage-error report (the caller should have used a BeginTracking
// call).
func (st *stateTracker) resolveUnknown(declared ResourceStates, debugName string) ResourceStates {
	if declared != ResourceStateUnknown {
		return declared
	}
	st.messages.Message(SeverityError, fmt.Sprintf(
		"nvrhi: transition of %q from untracked state; call BeginTracking before use or declare InitialState", debugName))
	return ResourceStateUnknown
}

// requireTextureState records that the given subresources must be in
// newState. If they already are, nothing happens (the common, cheap path).
// Otherwise a transition is appended to the pending list and the table is
// updated to newState immediately.
func (st *stateTracker) requireTextureState(t *Texture, set TextureSubresourceSet, newState ResourceStates) {
	if ps := ResourceStates(t.permanentState.Load()); ps != ResourceStateUnknown {
		if ps != newState {
			st.messages.Message(SeverityError, fmt.Sprintf(
				"nvrhi: texture %q is in permanent state %v, conflicting use as %v",
				t.desc.DebugName, ps, newState))
		}
		return
	}

	set = set.Resolve(t.desc)
	ts := st.textureEntry(t)

	if set.IsEntireTexture(t.desc) {
		if cur, uniform := ts.uniformState(t.desc, set); uniform {
			// Whole resource in one state: single record, compact entry.
			st.transitionWholeTexture(t, ts, cur, newState)
			return
		}
		// Non-uniform implies the entry is already materialized; fall
		// through to the per-subresource loop.
	} else {
		if ts.compact && ts.wholeState == newState {
			// Partial set, but the whole texture already holds newState.
			st.maybeUAVBarrierTexture(t, newState, newState)
			return
		}
		// Partial update of a compact entry: materialize first so sibling
		// subresources keep their current state.
		ts.materialize(t.desc)
	}

	for slice := set.BaseArraySlice; slice < set.BaseArraySlice+set.NumArraySlices; slice++ {
		for mip := set.BaseMipLevel; mip < set.BaseMipLevel+set.NumMipLevels; mip++ {
			idx := subresourceIndex(mip, slice, t.desc.MipLevels)
			cur := ts.subStates[idx]
			if cur == newState {
				st.maybeUAVBarrierTexture(t, cur, newState)
				continue
			}
			before := cur
			if before == ResourceStateUnknown {
				before = st.resolveUnknown(t.desc.InitialState, t.desc.DebugName)
			}
			st.pendingTextureBarriers = append(st.pendingTextureBarriers, TextureBarrier{
				Texture: t,
				Subresources: TextureSubresourceSet{
					BaseMipLevel: mip, NumMipLevels: 1,
					BaseArraySlice: slice, NumArraySlices: 1,
				},
				StateBefore: before,
				StateAfter:  newState,
			})
			ts.subStates[idx] = newState
		}
	}

	// If the whole texture is now uniform again, collapse back to the
	// compact representation.
	if uniform, ok := ts.uniformState(t.desc, AllSubresources.Resolve(t.desc)); ok {
		ts.compact = true
		ts.wholeState = uniform
		ts.subStates = nil
	}
}

// transitionWholeTexture handles the compact fast path: one record for the
// entire resource.
func (st *stateTracker) transitionWholeTexture(t *Texture, ts *textureTrackState, cur, newState ResourceStates) {
	if cur == newState {
		st.maybeUAVBarrierTexture(t, cur, newState)
		return
	}
	before := cur
	if before == ResourceStateUnknown {
		before = st.resolveUnknown(t.desc.InitialState, t.desc.DebugName)
	}
	st.pendingTextureBarriers = append(st.pendingTextureBarriers, TextureBarrier{
		Texture:      t,
		Subresources: AllSubresources.Resolve(t.desc),
		StateBefore:  before,
		StateAfter:   newState,
	})
	ts.compact = true
	ts.wholeState = newState
	ts.subStates = nil
}

// requireBufferState records that the buffer must be in newState; see
// requireTextureState.
func (st *stateTracker) requireBufferState(b *Buffer, newState ResourceStates) {
	if ps := ResourceStates(b.permanentState.Load()); ps != ResourceStateUnknown {
		if ps != newState {
			st.messages.Message(SeverityError, fmt.Sprintf(
				"nvrhi: buffer %q is in permanent state %v, conflicting use as %v",
				b.desc.DebugName, ps, newState))
		}
		return
	}

	bs := st.bufferEntry(b)
	if bs.state == newState {
		if newState == ResourceStateUnorderedAccess && b.uavBarriers.Load() {
			st.addUAVBarrier(UAVBarrier{Buffer: b})
		}
		return
	}

	before := bs.state
	if before == ResourceStateUnknown {
		before = st.resolveUnknown(b.desc.InitialState, b.desc.DebugName)
	}
	st.pendingBufferBarriers = append(st.pendingBufferBarriers, BufferBarrier{
		Buffer:      b,
		StateBefore: before,
		StateAfter:  newState,
	})
	bs.state = newState
}

// requireAccelStructState records that the acceleration structure must be
// in newState. Accel structures have no declared initial state; the first
// use is assumed correct (builds write, everything else reads).
func (st *stateTracker) requireAccelStructState(a *AccelStruct, newState ResourceStates) {
	if ps := ResourceStates(a.permanentState.Load()); ps != ResourceStateUnknown {
		if ps != newState {
			st.messages.Message(SeverityError, fmt.Sprintf(
				"nvrhi: accel struct %q is in permanent state %v, conflicting use as %v",
				a.desc.DebugName, ps, newState))
		}
		return
	}

	as := st.accelEntry(a)
	if as.state == newState {
		return
	}
	st.pendingBufferBarriers = append(st.pendingBufferBarriers, BufferBarrier{
		AccelStruct: a,
		StateBefore: as.state,
		StateAfter:  newState,
	})
	as.state = newState
}

// maybeUAVBarrierTexture inserts a UAV barrier for a same-state
// UnorderedAccess→UnorderedAccess touch, unless the resource opted out.
func (st *stateTracker) maybeUAVBarrierTexture(t *Texture, cur, newState ResourceStates) {
	if cur == ResourceStateUnorderedAccess && newState == ResourceStateUnorderedAccess && t.uavBarriers.Load() {
		st.addUAVBarrier(UAVBarrier{Texture: t})
	}
}

// addUAVBarrier appends a UAV barrier, deduplicating per resource within
// the pending batch: one barrier between two dispatches is enough.
func (st *stateTracker) addUAVBarrier(b UAVBarrier) {
	for _, p := range st.pendingUAVBarriers {
		if p.Texture == b.Texture && p.Buffer == b.Buffer {
			return
		}
	}
	st.pendingUAVBarriers = append(st.pendingUAVBarriers, b)
}

// keepInitialStateTransitions appends the trailing transitions that return
// every KeepInitialState resource touched this session to its declared
// initial state. Called by CommandList.Close.
func (st *stateTracker) keepInitialStateTransitions() {
	for t := range st.textureStates {
		if t.desc.KeepInitialState && t.permanentState.Load() == 0 {
			st.requireTextureState(t, AllSubresources, t.desc.InitialState)
		}
	}
	for b := range st.bufferStates {
		if b.desc.KeepInitialState && b.permanentState.Load() == 0 {
			st.requireBufferState(b, b.desc.InitialState)
		}
	}
}

// takePending moves the pending barriers out of the accumulator, leaving it
// empty. The caller hands them to the backend.
func (st *stateTracker) takePending() (textures []TextureBarrier, buffers []BufferBarrier, uavs []UAVBarrier) {
	textures = append([]TextureBarrier(nil), st.pendingTextureBarriers...)
	buffers = append([]BufferBarrier(nil), st.pendingBufferBarriers...)
	uavs = append([]UAVBarrier(nil), st.pendingUAVBarriers...)
	st.pendingTextureBarriers = st.pendingTextureBarriers[:0]
	st.pendingBufferBarriers = st.pendingBufferBarriers[:0]
	st.pendingUAVBarriers = st.pendingUAVBarriers[:0]
	return textures, buffers, uavs
}

// pendingCount returns the number of pending transition records (UAV
// barriers excluded).
func (st *stateTracker) pendingCount() int {
	return len(st.pendingTextureBarriers) + len(st.pendingBufferBarriers)
}
