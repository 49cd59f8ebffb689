package wgpuhal

import (
	"testing"

	"github.com/gogpu/gputypes"

	nvrhi "github.com/NVIDIAGameWorks/nvrhi-sub002"
)

func TestFormatMappingCoversEnum(t *testing.T) {
	// Every format except Unknown must map to a wgpu format.
	for f := nvrhi.FormatR8Unorm; f.Info().Format == f && f != nvrhi.FormatUnknown; f++ {
		if _, err := formatToHAL(f); err != nil {
			t.Errorf("formatToHAL(%v): %v", f, err)
		}
	}
	if _, err := formatToHAL(nvrhi.FormatUnknown); err == nil {
		t.Error("formatToHAL(Unknown) did not fail")
	}
}

func TestTextureUsageForStates(t *testing.T) {
	tests := []struct {
		states nvrhi.ResourceStates
		want   gputypes.TextureUsage
	}{
		{nvrhi.ResourceStateShaderResource, gputypes.TextureUsageTextureBinding},
		{nvrhi.ResourceStateUnorderedAccess, gputypes.TextureUsageStorageBinding},
		{nvrhi.ResourceStateRenderTarget, gputypes.TextureUsageRenderAttachment},
		{nvrhi.ResourceStateDepthWrite, gputypes.TextureUsageRenderAttachment},
		{nvrhi.ResourceStateCopySource, gputypes.TextureUsageCopySrc},
		{nvrhi.ResourceStateCopyDest, gputypes.TextureUsageCopyDst},
		{
			nvrhi.ResourceStateShaderResource | nvrhi.ResourceStateCopySource,
			gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopySrc,
		},
		// Common has no direct wgpu usage; sampled is the fallback.
		{nvrhi.ResourceStateCommon, gputypes.TextureUsageTextureBinding},
	}
	for _, tt := range tests {
		if got := textureUsageForStates(tt.states); got != tt.want {
			t.Errorf("textureUsageForStates(%v) = %v, want %v", tt.states, got, tt.want)
		}
	}
}

func TestBufferUsageForDesc(t *testing.T) {
	desc := nvrhi.BufferDesc{
		ByteSize:       1024,
		IsVertexBuffer: true,
		CanHaveUAVs:    true,
	}
	usage := bufferUsageForDesc(desc)
	for _, want := range []gputypes.BufferUsage{
		gputypes.BufferUsageVertex,
		gputypes.BufferUsageStorage,
		gputypes.BufferUsageCopySrc,
		gputypes.BufferUsageCopyDst,
	} {
		if usage&want == 0 {
			t.Errorf("usage %v missing %v", usage, want)
		}
	}
	if usage&gputypes.BufferUsageIndex != 0 {
		t.Errorf("usage %v carries index bit without IsIndexBuffer", usage)
	}
}

func TestDimensionMapping(t *testing.T) {
	if got := dimensionToHAL(nvrhi.TextureDimension3D); got != gputypes.TextureDimension3D {
		t.Errorf("3D mapped to %v", got)
	}
	for _, d := range []nvrhi.TextureDimension{
		nvrhi.TextureDimension2D, nvrhi.TextureDimension2DArray, nvrhi.TextureDimensionCube,
	} {
		if got := dimensionToHAL(d); got != gputypes.TextureDimension2D {
			t.Errorf("dimensionToHAL(%v) = %v, want 2D", d, got)
		}
	}
}
