package nvrhi

import "sync/atomic"

// BufferDesc describes a buffer resource.
type BufferDesc struct {
	// ByteSize is the buffer size in bytes.
	ByteSize uint64

	// StructStride, when non-zero, marks the buffer as structured with the
	// given element stride. Structured buffers ignore Format.
	StructStride uint32

	// Format is the element format for typed buffer views.
	// FormatUnknown marks the buffer as raw (or structured, see StructStride).
	Format Format

	// DebugName labels the resource in logs and native debug layers.
	DebugName string

	// CanHaveUAVs allows binding through an unordered-access view.
	CanHaveUAVs bool
	// IsVertexBuffer allows binding as vertex data.
	IsVertexBuffer bool
	// IsIndexBuffer allows binding as index data.
	IsIndexBuffer bool
	// IsConstantBuffer allows binding as a constant buffer.
	IsConstantBuffer bool
	// IsDrawIndirectArgs allows use by indirect draw/dispatch commands.
	IsDrawIndirectArgs bool
	// IsAccelStructBuildInput allows use as acceleration structure geometry.
	IsAccelStructBuildInput bool

	// InitialState is the state the buffer is created in; see
	// TextureDesc.InitialState.
	InitialState ResourceStates

	// KeepInitialState makes every recording session begin and end with the
	// buffer in InitialState; see TextureDesc.KeepInitialState.
	KeepInitialState bool
}

// Buffer is a device-created buffer resource.
//
// Buffers are tracked as a single state (no intra-buffer granularity):
// they have no mip/array structure, so the whole-resource representation is
// used unconditionally. Reference counting works as for Texture.
type Buffer struct {
	desc   BufferDesc
	device *Device // non-owning back-reference
	native NativeResource
	id     uint64

	refs atomic.Int32

	// permanentState mirrors Texture.permanentState.
	permanentState atomic.Uint32

	// uavBarriers mirrors Texture.uavBarriers.
	uavBarriers atomic.Bool
}

// Desc returns the descriptor the buffer was created with.
func (b *Buffer) Desc() BufferDesc {
	return b.desc
}

// Native returns the opaque backend handle for the buffer.
func (b *Buffer) Native() NativeResource {
	return b.native
}

// Release drops the creator's reference; see Texture.Release.
func (b *Buffer) Release() {
	b.release()
}

func (b *Buffer) addRef() {
	b.refs.Add(1)
}

func (b *Buffer) release() {
	if b.refs.Add(-1) == 0 {
		b.device.destroyBuffer(b)
	}
}

// resourceID returns the device-unique id used in view cache keys.
func (b *Buffer) resourceID() uint64 { return b.id }

// resource is the common liveness surface of Texture, Buffer and
// AccelStruct: in-flight submissions retain resources through it.
type resource interface {
	addRef()
	release()
}
