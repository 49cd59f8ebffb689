package nvrhi

import "sync/atomic"

// GeometryKind discriminates the payload of a Geometry.
type GeometryKind uint8

const (
	// GeometryKindTriangles selects the GeometryTriangles payload.
	GeometryKindTriangles GeometryKind = iota
	// GeometryKindAABBs selects the GeometryAABBs payload.
	GeometryKindAABBs
)

// Geometry is one geometry entry of a bottom-level acceleration structure
// build. Exactly one payload interpretation is active, selected by Kind;
// this is a tagged sum, not shared storage.
type Geometry interface {
	// Kind identifies the active payload.
	Kind() GeometryKind
}

// GeometryTriangles is triangle geometry for an acceleration structure
// build. The referenced buffers are read in the AccelStructBuildInput state.
type GeometryTriangles struct {
	// VertexBuffer holds vertex positions.
	VertexBuffer *Buffer
	// VertexOffset is the byte offset of the first vertex.
	VertexOffset uint64
	// VertexStride is the byte distance between vertices.
	VertexStride uint32
	// VertexFormat is the position format.
	VertexFormat Format
	// VertexCount is the number of vertices.
	VertexCount uint32

	// IndexBuffer holds indices; nil for non-indexed geometry.
	IndexBuffer *Buffer
	// IndexOffset is the byte offset of the first index.
	IndexOffset uint64
	// IndexCount is the number of indices.
	IndexCount uint32
}

// Kind implements Geometry.
func (GeometryTriangles) Kind() GeometryKind { return GeometryKindTriangles }

// GeometryAABBs is procedural bounding-box geometry for an acceleration
// structure build.
type GeometryAABBs struct {
	// Buffer holds packed min/max AABB pairs.
	Buffer *Buffer
	// Offset is the byte offset of the first AABB.
	Offset uint64
	// Stride is the byte distance between AABBs.
	Stride uint32
	// Count is the number of AABBs.
	Count uint32
}

// Kind implements Geometry.
func (GeometryAABBs) Kind() GeometryKind { return GeometryKindAABBs }

// AccelStructDesc describes an acceleration structure.
type AccelStructDesc struct {
	// IsTopLevel selects a top-level (instance) structure; false builds a
	// bottom-level (geometry) structure.
	IsTopLevel bool
	// TopLevelMaxInstances bounds the instance count of a top-level
	// structure.
	TopLevelMaxInstances uint32
	// BottomLevelGeometries lists the geometry of a bottom-level structure.
	BottomLevelGeometries []Geometry
	// DebugName labels the resource in logs and native debug layers.
	DebugName string

	// DisableLivenessTracking skips per-submission references; see
	// BindingSetDesc.DisableLivenessTracking.
	DisableLivenessTracking bool
}

// AccelStruct is a device-created acceleration structure.
//
// Like buffers, acceleration structures are tracked as a single state: the
// structure has no subresources. Builds write it in AccelStructWrite;
// traversal reads it in AccelStructRead.
type AccelStruct struct {
	desc   AccelStructDesc
	device *Device // non-owning back-reference
	native NativeResource
	id     uint64

	refs atomic.Int32

	permanentState atomic.Uint32
}

// Desc returns the descriptor the structure was created with.
func (a *AccelStruct) Desc() AccelStructDesc {
	return a.desc
}

// Native returns the opaque backend handle for the structure.
func (a *AccelStruct) Native() NativeResource {
	return a.native
}

// Release drops the creator's reference; see Texture.Release.
func (a *AccelStruct) Release() {
	a.release()
}

func (a *AccelStruct) addRef() {
	a.refs.Add(1)
}

func (a *AccelStruct) release() {
	if a.refs.Add(-1) == 0 {
		a.device.destroyAccelStruct(a)
	}
}
