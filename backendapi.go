package nvrhi

import "fmt"

// NativeResource is an opaque backend handle to a texture, buffer, or
// acceleration structure.
type NativeResource any

// NativeView is an opaque backend handle to a GPU-visible view.
type NativeView any

// NativeCommandBuffer is an opaque backend handle to a command buffer
// under recording or awaiting submission.
type NativeCommandBuffer any

// CommandQueue identifies one of the device's submission queues.
type CommandQueue uint8

const (
	// QueueGraphics is the graphics (direct) queue.
	QueueGraphics CommandQueue = iota
	// QueueCompute is the async compute queue.
	QueueCompute
	// QueueCopy is the copy (transfer) queue.
	QueueCopy

	// queueCount is the number of queues; must stay last.
	queueCount
)

// String returns the string representation of a CommandQueue.
func (q CommandQueue) String() string {
	switch q {
	case QueueGraphics:
		return "Graphics"
	case QueueCompute:
		return "Compute"
	case QueueCopy:
		return "Copy"
	default:
		return fmt.Sprintf("Unknown(%d)", int(q))
	}
}

// TextureWriteLayout describes the memory layout of data passed to
// WriteTexture.
type TextureWriteLayout struct {
	// RowPitch is the byte distance between rows.
	RowPitch uint64
	// DepthPitch is the byte distance between depth slices.
	DepthPitch uint64
}

// DeviceBackend is the native-API boundary of the library.
//
// The core hands the backend opaque work: resource creation, barrier
// batches from CommitBarriers, data transfers, and submissions identified
// by per-queue monotonically increasing instance counters. The mapping
// from ResourceStates to native barrier/transition enums is entirely the
// backend's concern.
//
// Implementations must be safe for concurrent use by distinct command
// lists; the core serializes nothing across lists.
type DeviceBackend interface {
	// Name returns the backend identifier.
	Name() string

	// Init acquires the native device. Called once by NewDevice.
	Init() error

	// Close releases the native device. The backend is unusable afterwards.
	Close()

	// CreateTexture creates the native texture for desc.
	CreateTexture(desc TextureDesc) (NativeResource, error)

	// CreateBuffer creates the native buffer for desc.
	CreateBuffer(desc BufferDesc) (NativeResource, error)

	// CreateAccelStruct creates the native acceleration structure for desc.
	CreateAccelStruct(desc AccelStructDesc) (NativeResource, error)

	// DestroyResource releases a native resource. Only called when no
	// in-flight submission references it.
	DestroyResource(res NativeResource)

	// CreateTextureView creates the native view identified by key.
	CreateTextureView(res NativeResource, desc TextureDesc, key TextureBindingKey) (NativeView, error)

	// CreateBufferView creates the native view identified by key.
	CreateBufferView(res NativeResource, desc BufferDesc, key BufferBindingKey) (NativeView, error)

	// DestroyView releases a native view.
	DestroyView(view NativeView)

	// OpenCommandBuffer starts native recording for one command list
	// session on the given queue.
	OpenCommandBuffer(queue CommandQueue) (NativeCommandBuffer, error)

	// FlushBarriers emits one batch of transitions into the command
	// buffer. Batches arrive in recording order; a batch may be empty of
	// one kind and not the other.
	FlushBarriers(cb NativeCommandBuffer, textures []TextureBarrier, buffers []BufferBarrier, uavs []UAVBarrier) error

	// CopyBuffer records a buffer-to-buffer copy.
	CopyBuffer(cb NativeCommandBuffer, dst NativeResource, dstOffset uint64, src NativeResource, srcOffset, byteCount uint64) error

	// CopyTexture records a texture-to-texture copy of one subresource set.
	CopyTexture(cb NativeCommandBuffer, dst NativeResource, dstSet TextureSubresourceSet, src NativeResource, srcSet TextureSubresourceSet) error

	// WriteBuffer records a CPU-to-buffer upload.
	WriteBuffer(cb NativeCommandBuffer, dst NativeResource, data []byte, dstOffset uint64) error

	// WriteTexture records a CPU-to-texture upload of one subresource.
	WriteTexture(cb NativeCommandBuffer, dst NativeResource, set TextureSubresourceSet, data []byte, layout TextureWriteLayout) error

	// ClearTexture records a clear of the given subresources.
	ClearTexture(cb NativeCommandBuffer, res NativeResource, set TextureSubresourceSet, color Color) error

	// BeginMarker opens a labeled debug scope in the command buffer.
	BeginMarker(cb NativeCommandBuffer, label string) error

	// EndMarker closes the innermost debug scope.
	EndMarker(cb NativeCommandBuffer) error

	// CloseCommandBuffer finalizes native recording.
	CloseCommandBuffer(cb NativeCommandBuffer) error

	// Submit hands finalized command buffers to a queue. submissionID is
	// the per-queue instance counter value the backend must signal when
	// the GPU finishes this work.
	Submit(queue CommandQueue, cbs []NativeCommandBuffer, submissionID uint64) error

	// SubmissionCompleted polls whether the queue has finished the given
	// instance. Never blocks.
	SubmissionCompleted(queue CommandQueue, submissionID uint64) bool

	// WaitSubmission blocks until the queue has finished the given
	// instance.
	WaitSubmission(queue CommandQueue, submissionID uint64) error

	// QueueWait makes future work on queue wait for the given instance of
	// waitFor before executing. Cross-queue ordering is only enforced when
	// requested through this call.
	QueueWait(queue, waitFor CommandQueue, submissionID uint64) error

	// WaitIdle blocks until every queue is drained.
	WaitIdle() error
}
