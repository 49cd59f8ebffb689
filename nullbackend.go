package nvrhi

import (
	"errors"
	"sync"
)

// Null backend errors.
var (
	// ErrNullNotInitialized is returned when using a closed or
	// uninitialized null backend.
	ErrNullNotInitialized = errors.New("nvrhi: null backend not initialized")

	// ErrNullBufferClosed is returned when recording into a command buffer
	// that was already closed.
	ErrNullBufferClosed = errors.New("nvrhi: command buffer already closed")
)

func init() {
	RegisterBackend(BackendNull, func() DeviceBackend { return NewNullBackend() })
}

// BarrierBatch is one FlushBarriers call recorded by the null backend.
type BarrierBatch struct {
	// Textures are the texture transitions of the batch.
	Textures []TextureBarrier
	// Buffers are the buffer and accel-struct transitions of the batch.
	Buffers []BufferBarrier
	// UAVs are the UAV barriers of the batch.
	UAVs []UAVBarrier
}

// nullResource is the native handle the null backend returns for every
// resource and view.
type nullResource struct {
	name string
}

// NullCommandBuffer records everything the core hands to the backend
// during one command list session, for inspection by tests.
type NullCommandBuffer struct {
	queue  CommandQueue
	closed bool

	// Batches are the recorded FlushBarriers calls in order.
	Batches []BarrierBatch
	// Commands are the recorded transfer/clear operations, as operation
	// names in order.
	Commands []string
}

// nullSubmission is one Submit call.
type nullSubmission struct {
	queue CommandQueue
	id    uint64
}

// NullBackend is the built-in no-hardware backend.
//
// It performs no GPU work: resources are bookkeeping entries, barrier
// batches are recorded verbatim, and submissions complete either
// immediately (the default) or when a test calls CompleteThrough. It is the
// reference implementation of the DeviceBackend contract and the substrate
// of the core test suite.
type NullBackend struct {
	mu          sync.Mutex
	initialized bool

	// autoComplete makes submissions finish as soon as they are submitted.
	autoComplete bool

	lastSubmitted [queueCount]uint64
	lastCompleted [queueCount]uint64
	submissions   []nullSubmission

	liveResources int
	liveViews     int

	lastOpened *NullCommandBuffer
}

// NewNullBackend creates a null backend with automatic submission
// completion enabled.
func NewNullBackend() *NullBackend {
	return &NullBackend{autoComplete: true}
}

// SetAutoComplete controls whether submissions complete immediately.
// Tests disable it to hold submissions in flight.
func (n *NullBackend) SetAutoComplete(v bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.autoComplete = v
}

// CompleteThrough marks every submission on queue up to and including id
// as finished, as a GPU signaling its fence would.
func (n *NullBackend) CompleteThrough(queue CommandQueue, id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if id > n.lastCompleted[queue] {
		n.lastCompleted[queue] = id
	}
}

// LiveResources returns the number of native resources not yet destroyed.
func (n *NullBackend) LiveResources() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.liveResources
}

// LiveViews returns the number of native views not yet destroyed.
func (n *NullBackend) LiveViews() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.liveViews
}

// Name implements DeviceBackend.
func (n *NullBackend) Name() string { return BackendNull }

// Init implements DeviceBackend.
func (n *NullBackend) Init() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.initialized = true
	return nil
}

// Close implements DeviceBackend.
func (n *NullBackend) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.initialized = false
}

func (n *NullBackend) newResource(name string) (NativeResource, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.initialized {
		return nil, ErrNullNotInitialized
	}
	n.liveResources++
	return &nullResource{name: name}, nil
}

// CreateTexture implements DeviceBackend.
func (n *NullBackend) CreateTexture(desc TextureDesc) (NativeResource, error) {
	return n.newResource(desc.DebugName)
}

// CreateBuffer implements DeviceBackend.
func (n *NullBackend) CreateBuffer(desc BufferDesc) (NativeResource, error) {
	return n.newResource(desc.DebugName)
}

// CreateAccelStruct implements DeviceBackend.
func (n *NullBackend) CreateAccelStruct(desc AccelStructDesc) (NativeResource, error) {
	return n.newResource(desc.DebugName)
}

// DestroyResource implements DeviceBackend.
func (n *NullBackend) DestroyResource(res NativeResource) {
	if res == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.liveResources--
}

// CreateTextureView implements DeviceBackend.
func (n *NullBackend) CreateTextureView(res NativeResource, desc TextureDesc, key TextureBindingKey) (NativeView, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.initialized {
		return nil, ErrNullNotInitialized
	}
	n.liveViews++
	return &nullResource{name: desc.DebugName + "/view"}, nil
}

// CreateBufferView implements DeviceBackend.
func (n *NullBackend) CreateBufferView(res NativeResource, desc BufferDesc, key BufferBindingKey) (NativeView, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.initialized {
		return nil, ErrNullNotInitialized
	}
	n.liveViews++
	return &nullResource{name: desc.DebugName + "/view"}, nil
}

// DestroyView implements DeviceBackend.
func (n *NullBackend) DestroyView(view NativeView) {
	if view == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.liveViews--
}

// OpenCommandBuffer implements DeviceBackend.
func (n *NullBackend) OpenCommandBuffer(queue CommandQueue) (NativeCommandBuffer, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.initialized {
		return nil, ErrNullNotInitialized
	}
	cb := &NullCommandBuffer{queue: queue}
	n.lastOpened = cb
	return cb, nil
}

// LastCommandBuffer returns the most recently opened command buffer, for
// inspection by tests after the owning command list closed.
func (n *NullBackend) LastCommandBuffer() *NullCommandBuffer {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastOpened
}

func nullCB(cb NativeCommandBuffer) (*NullCommandBuffer, error) {
	ncb, ok := cb.(*NullCommandBuffer)
	if !ok || ncb == nil {
		return nil, errors.New("nvrhi: not a null backend command buffer")
	}
	if ncb.closed {
		return nil, ErrNullBufferClosed
	}
	return ncb, nil
}

// FlushBarriers implements DeviceBackend.
func (n *NullBackend) FlushBarriers(cb NativeCommandBuffer, textures []TextureBarrier, buffers []BufferBarrier, uavs []UAVBarrier) error {
	ncb, err := nullCB(cb)
	if err != nil {
		return err
	}
	ncb.Batches = append(ncb.Batches, BarrierBatch{
		Textures: textures,
		Buffers:  buffers,
		UAVs:     uavs,
	})
	return nil
}

func (n *NullBackend) record(cb NativeCommandBuffer, op string) error {
	ncb, err := nullCB(cb)
	if err != nil {
		return err
	}
	ncb.Commands = append(ncb.Commands, op)
	return nil
}

// CopyBuffer implements DeviceBackend.
func (n *NullBackend) CopyBuffer(cb NativeCommandBuffer, dst NativeResource, dstOffset uint64, src NativeResource, srcOffset, byteCount uint64) error {
	return n.record(cb, "CopyBuffer")
}

// CopyTexture implements DeviceBackend.
func (n *NullBackend) CopyTexture(cb NativeCommandBuffer, dst NativeResource, dstSet TextureSubresourceSet, src NativeResource, srcSet TextureSubresourceSet) error {
	return n.record(cb, "CopyTexture")
}

// WriteBuffer implements DeviceBackend.
func (n *NullBackend) WriteBuffer(cb NativeCommandBuffer, dst NativeResource, data []byte, dstOffset uint64) error {
	return n.record(cb, "WriteBuffer")
}

// WriteTexture implements DeviceBackend.
func (n *NullBackend) WriteTexture(cb NativeCommandBuffer, dst NativeResource, set TextureSubresourceSet, data []byte, layout TextureWriteLayout) error {
	return n.record(cb, "WriteTexture")
}

// ClearTexture implements DeviceBackend.
func (n *NullBackend) ClearTexture(cb NativeCommandBuffer, res NativeResource, set TextureSubresourceSet, color Color) error {
	return n.record(cb, "ClearTexture")
}

// BeginMarker implements DeviceBackend.
func (n *NullBackend) BeginMarker(cb NativeCommandBuffer, label string) error {
	return n.record(cb, "BeginMarker:"+label)
}

// EndMarker implements DeviceBackend.
func (n *NullBackend) EndMarker(cb NativeCommandBuffer) error {
	return n.record(cb, "EndMarker")
}

// CloseCommandBuffer implements DeviceBackend.
func (n *NullBackend) CloseCommandBuffer(cb NativeCommandBuffer) error {
	ncb, err := nullCB(cb)
	if err != nil {
		return err
	}
	ncb.closed = true
	return nil
}

// Submit implements DeviceBackend.
func (n *NullBackend) Submit(queue CommandQueue, cbs []NativeCommandBuffer, submissionID uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.initialized {
		return ErrNullNotInitialized
	}
	n.lastSubmitted[queue] = submissionID
	n.submissions = append(n.submissions, nullSubmission{queue: queue, id: submissionID})
	if n.autoComplete {
		n.lastCompleted[queue] = submissionID
	}
	return nil
}

// SubmissionCompleted implements DeviceBackend.
func (n *NullBackend) SubmissionCompleted(queue CommandQueue, submissionID uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastCompleted[queue] >= submissionID
}

// WaitSubmission implements DeviceBackend. With no GPU there is nothing to
// wait for: the wait itself completes the submission.
func (n *NullBackend) WaitSubmission(queue CommandQueue, submissionID uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if submissionID > n.lastCompleted[queue] {
		n.lastCompleted[queue] = submissionID
	}
	return nil
}

// QueueWait implements DeviceBackend. The null backend executes in
// submission order, so the requested ordering already holds.
func (n *NullBackend) QueueWait(queue, waitFor CommandQueue, submissionID uint64) error {
	return nil
}

// WaitIdle implements DeviceBackend.
func (n *NullBackend) WaitIdle() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for q := range n.lastCompleted {
		n.lastCompleted[q] = n.lastSubmitted[q]
	}
	return nil
}
