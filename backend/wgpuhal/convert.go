package wgpuhal

import (
	"fmt"

	"github.com/gogpu/gputypes"

	nvrhi "github.com/NVIDIAGameWorks/nvrhi-sub002"
)

// formatToHAL maps the backend-neutral format enum to the wgpu format.
func formatToHAL(f nvrhi.Format) (gputypes.TextureFormat, error) {
	switch f {
	case nvrhi.FormatR8Unorm:
		return gputypes.TextureFormatR8Unorm, nil
	case nvrhi.FormatRG8Unorm:
		return gputypes.TextureFormatRG8Unorm, nil
	case nvrhi.FormatRGBA8Unorm:
		return gputypes.TextureFormatRGBA8Unorm, nil
	case nvrhi.FormatRGBA8UnormSRGB:
		return gputypes.TextureFormatRGBA8UnormSrgb, nil
	case nvrhi.FormatBGRA8Unorm:
		return gputypes.TextureFormatBGRA8Unorm, nil
	case nvrhi.FormatBGRA8UnormSRGB:
		return gputypes.TextureFormatBGRA8UnormSrgb, nil
	case nvrhi.FormatR16Float:
		return gputypes.TextureFormatR16Float, nil
	case nvrhi.FormatRG16Float:
		return gputypes.TextureFormatRG16Float, nil
	case nvrhi.FormatRGBA16Float:
		return gputypes.TextureFormatRGBA16Float, nil
	case nvrhi.FormatR32UInt:
		return gputypes.TextureFormatR32Uint, nil
	case nvrhi.FormatR32Float:
		return gputypes.TextureFormatR32Float, nil
	case nvrhi.FormatRG32Float:
		return gputypes.TextureFormatRG32Float, nil
	case nvrhi.FormatRGBA32Float:
		return gputypes.TextureFormatRGBA32Float, nil
	case nvrhi.FormatDepth32Float:
		return gputypes.TextureFormatDepth32Float, nil
	case nvrhi.FormatDepth24Stencil8:
		return gputypes.TextureFormatDepth24PlusStencil8, nil
	default:
		return gputypes.TextureFormatUndefined, fmt.Errorf("wgpuhal: no wgpu format for %v", f)
	}
}

// textureUsageForStates maps a resource state mask to the wgpu usage bits a
// texture must carry to be in those states.
func textureUsageForStates(states nvrhi.ResourceStates) gputypes.TextureUsage {
	var usage gputypes.TextureUsage
	if states.Contains(nvrhi.ResourceStateShaderResource) {
		usage |= gputypes.TextureUsageTextureBinding
	}
	if states.Contains(nvrhi.ResourceStateUnorderedAccess) {
		usage |= gputypes.TextureUsageStorageBinding
	}
	if states.Contains(nvrhi.ResourceStateRenderTarget) ||
		states.Contains(nvrhi.ResourceStateDepthWrite) ||
		states.Contains(nvrhi.ResourceStateDepthRead) ||
		states.Contains(nvrhi.ResourceStateResolveDest) ||
		states.Contains(nvrhi.ResourceStateResolveSource) ||
		states.Contains(nvrhi.ResourceStatePresent) {
		usage |= gputypes.TextureUsageRenderAttachment
	}
	if states.Contains(nvrhi.ResourceStateCopySource) {
		usage |= gputypes.TextureUsageCopySrc
	}
	if states.Contains(nvrhi.ResourceStateCopyDest) {
		usage |= gputypes.TextureUsageCopyDst
	}
	if usage == 0 {
		// Common and Unknown fall back to sampled usage, the least
		// restrictive layout the hal expresses.
		usage = gputypes.TextureUsageTextureBinding
	}
	return usage
}

// textureUsageForDesc derives the creation usage bits from the descriptor's
// binding flags. Copy usage is always included: state tracking assumes any
// resource can be a transfer source or destination.
func textureUsageForDesc(desc nvrhi.TextureDesc) gputypes.TextureUsage {
	usage := gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst
	if desc.IsShaderResource {
		usage |= gputypes.TextureUsageTextureBinding
	}
	if desc.IsRenderTarget {
		usage |= gputypes.TextureUsageRenderAttachment
	}
	if desc.IsUAV {
		usage |= gputypes.TextureUsageStorageBinding
	}
	return usage
}

// bufferUsageForDesc derives the creation usage bits from the descriptor's
// binding flags.
func bufferUsageForDesc(desc nvrhi.BufferDesc) gputypes.BufferUsage {
	usage := gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst
	if desc.IsVertexBuffer {
		usage |= gputypes.BufferUsageVertex
	}
	if desc.IsIndexBuffer {
		usage |= gputypes.BufferUsageIndex
	}
	if desc.IsConstantBuffer {
		usage |= gputypes.BufferUsageUniform
	}
	if desc.CanHaveUAVs || desc.StructStride != 0 || desc.IsAccelStructBuildInput {
		usage |= gputypes.BufferUsageStorage
	}
	if desc.IsDrawIndirectArgs {
		usage |= gputypes.BufferUsageIndirect
	}
	return usage
}

// dimensionToHAL maps the texture shape to the wgpu dimension.
func dimensionToHAL(d nvrhi.TextureDimension) gputypes.TextureDimension {
	if d == nvrhi.TextureDimension3D {
		return gputypes.TextureDimension3D
	}
	// 2D, 2DArray, and Cube are all 2D textures with array layers.
	return gputypes.TextureDimension2D
}
