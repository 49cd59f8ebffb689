package nvrhi

import "strings"

// ResourceStates is a bitmask of GPU usage categories.
//
// Although the type is a bitmask (states combine for *declaring* what a
// resource may be used as), the state tracker maintains the invariant that a
// subresource holds exactly one ResourceStates value at any recording point.
// A combined value such as ResourceStateDepthRead|ResourceStateShaderResource
// is one state, not two concurrent ones.
type ResourceStates uint32

const (
	// ResourceStateUnknown is the sentinel for "not yet tracked". A
	// transition out of Unknown either needs a BeginTracking call supplying
	// the true current state, or is inferred from the resource's declared
	// initial state.
	ResourceStateUnknown ResourceStates = 0

	// ResourceStateCommon is the neutral state resources occupy between
	// queue ownership changes and at presentation boundaries.
	ResourceStateCommon ResourceStates = 1 << 0

	// ResourceStateConstantBuffer marks a buffer bound as a constant buffer.
	ResourceStateConstantBuffer ResourceStates = 1 << 1

	// ResourceStateVertexBuffer marks a buffer bound to the input assembler
	// as vertex data.
	ResourceStateVertexBuffer ResourceStates = 1 << 2

	// ResourceStateIndexBuffer marks a buffer bound to the input assembler
	// as index data.
	ResourceStateIndexBuffer ResourceStates = 1 << 3

	// ResourceStateIndirectArgument marks a buffer read by indirect
	// draw/dispatch commands.
	ResourceStateIndirectArgument ResourceStates = 1 << 4

	// ResourceStateShaderResource marks a resource read through a
	// shader-resource view.
	ResourceStateShaderResource ResourceStates = 1 << 5

	// ResourceStateUnorderedAccess marks a resource accessed through an
	// unordered-access view.
	ResourceStateUnorderedAccess ResourceStates = 1 << 6

	// ResourceStateRenderTarget marks a texture bound for color output.
	ResourceStateRenderTarget ResourceStates = 1 << 7

	// ResourceStateDepthWrite marks a texture bound as a writable
	// depth-stencil target.
	ResourceStateDepthWrite ResourceStates = 1 << 8

	// ResourceStateDepthRead marks a texture bound as a read-only
	// depth-stencil target.
	ResourceStateDepthRead ResourceStates = 1 << 9

	// ResourceStateStreamOut marks a buffer written by stream output.
	ResourceStateStreamOut ResourceStates = 1 << 10

	// ResourceStateCopyDest marks a resource written by a copy operation.
	ResourceStateCopyDest ResourceStates = 1 << 11

	// ResourceStateCopySource marks a resource read by a copy operation.
	ResourceStateCopySource ResourceStates = 1 << 12

	// ResourceStateResolveDest marks a texture written by an MSAA resolve.
	ResourceStateResolveDest ResourceStates = 1 << 13

	// ResourceStateResolveSource marks a texture read by an MSAA resolve.
	ResourceStateResolveSource ResourceStates = 1 << 14

	// ResourceStatePresent marks a texture ready for presentation.
	ResourceStatePresent ResourceStates = 1 << 15

	// ResourceStateAccelStructRead marks an acceleration structure read by
	// ray queries or traversal.
	ResourceStateAccelStructRead ResourceStates = 1 << 16

	// ResourceStateAccelStructWrite marks an acceleration structure written
	// by a build or update.
	ResourceStateAccelStructWrite ResourceStates = 1 << 17

	// ResourceStateAccelStructBuildInput marks a buffer read as geometry
	// input by an acceleration structure build.
	ResourceStateAccelStructBuildInput ResourceStates = 1 << 18

	// ResourceStateAccelStructBuildBlas marks a bottom-level structure read
	// while building a top-level structure.
	ResourceStateAccelStructBuildBlas ResourceStates = 1 << 19

	// ResourceStateShadingRateSurface marks a texture bound as a variable
	// shading-rate source.
	ResourceStateShadingRateSurface ResourceStates = 1 << 20
)

// resourceStateNames lists each single-bit state in bit order.
var resourceStateNames = []struct {
	bit  ResourceStates
	name string
}{
	{ResourceStateCommon, "Common"},
	{ResourceStateConstantBuffer, "ConstantBuffer"},
	{ResourceStateVertexBuffer, "VertexBuffer"},
	{ResourceStateIndexBuffer, "IndexBuffer"},
	{ResourceStateIndirectArgument, "IndirectArgument"},
	{ResourceStateShaderResource, "ShaderResource"},
	{ResourceStateUnorderedAccess, "UnorderedAccess"},
	{ResourceStateRenderTarget, "RenderTarget"},
	{ResourceStateDepthWrite, "DepthWrite"},
	{ResourceStateDepthRead, "DepthRead"},
	{ResourceStateStreamOut, "StreamOut"},
	{ResourceStateCopyDest, "CopyDest"},
	{ResourceStateCopySource, "CopySource"},
	{ResourceStateResolveDest, "ResolveDest"},
	{ResourceStateResolveSource, "ResolveSource"},
	{ResourceStatePresent, "Present"},
	{ResourceStateAccelStructRead, "AccelStructRead"},
	{ResourceStateAccelStructWrite, "AccelStructWrite"},
	{ResourceStateAccelStructBuildInput, "AccelStructBuildInput"},
	{ResourceStateAccelStructBuildBlas, "AccelStructBuildBlas"},
	{ResourceStateShadingRateSurface, "ShadingRateSurface"},
}

// String returns the string representation of a ResourceStates value.
// Combined values are joined with "|".
func (s ResourceStates) String() string {
	if s == ResourceStateUnknown {
		return "Unknown"
	}
	var parts []string
	for _, e := range resourceStateNames {
		if s&e.bit != 0 {
			parts = append(parts, e.name)
			s &^= e.bit
		}
	}
	if s != 0 {
		parts = append(parts, "Invalid")
	}
	return strings.Join(parts, "|")
}

// Contains reports whether every bit of other is set in s.
func (s ResourceStates) Contains(other ResourceStates) bool {
	return s&other == other
}

// readOnlyStates covers every state in which the GPU only reads the
// resource. Transitions between two read-only states still require a
// barrier (the invariant is one state per subresource, not "reads are
// interchangeable"), but the distinction matters for UAV barrier logic.
const readOnlyStates = ResourceStateConstantBuffer |
	ResourceStateVertexBuffer |
	ResourceStateIndexBuffer |
	ResourceStateIndirectArgument |
	ResourceStateShaderResource |
	ResourceStateDepthRead |
	ResourceStateCopySource |
	ResourceStateResolveSource |
	ResourceStateAccelStructRead |
	ResourceStateAccelStructBuildInput |
	ResourceStateAccelStructBuildBlas |
	ResourceStateShadingRateSurface

// IsReadOnly reports whether s consists solely of read-only usages.
func (s ResourceStates) IsReadOnly() bool {
	return s != ResourceStateUnknown && s&^readOnlyStates == 0
}
