package nvrhi

import "testing"

var subresDesc = TextureDesc{
	Width: 256, Height: 256,
	MipLevels: 4, ArraySize: 2,
	Format: FormatRGBA8Unorm,
}

func TestResolveSentinels(t *testing.T) {
	got := AllSubresources.Resolve(subresDesc)
	want := TextureSubresourceSet{
		BaseMipLevel: 0, NumMipLevels: 4,
		BaseArraySlice: 0, NumArraySlices: 2,
	}
	if got != want {
		t.Errorf("Resolve(AllSubresources) = %+v, want %+v", got, want)
	}
}

func TestResolveFixedPoint(t *testing.T) {
	sets := []TextureSubresourceSet{
		AllSubresources,
		{BaseMipLevel: 1, NumMipLevels: AllMipLevels},
		{BaseMipLevel: 2, NumMipLevels: 1, BaseArraySlice: 1, NumArraySlices: 1},
		{BaseMipLevel: 100, NumMipLevels: 100, BaseArraySlice: 100, NumArraySlices: 100},
	}
	for _, s := range sets {
		once := s.Resolve(subresDesc)
		twice := once.Resolve(subresDesc)
		if once != twice {
			t.Errorf("Resolve not a fixed point: %+v -> %+v -> %+v", s, once, twice)
		}
	}
}

func TestResolveClamps(t *testing.T) {
	got := TextureSubresourceSet{
		BaseMipLevel: 10, NumMipLevels: 5,
		BaseArraySlice: 10, NumArraySlices: 5,
	}.Resolve(subresDesc)
	want := TextureSubresourceSet{
		BaseMipLevel: 3, NumMipLevels: 1,
		BaseArraySlice: 1, NumArraySlices: 1,
	}
	if got != want {
		t.Errorf("clamped resolve = %+v, want %+v", got, want)
	}
}

func TestIsEntireTexture(t *testing.T) {
	if !AllSubresources.IsEntireTexture(subresDesc) {
		t.Error("AllSubresources.IsEntireTexture = false")
	}
	// Concrete spelling of the full grid is also the entire texture.
	full := TextureSubresourceSet{NumMipLevels: 4, NumArraySlices: 2}
	if !full.IsEntireTexture(subresDesc) {
		t.Error("concrete full set .IsEntireTexture = false")
	}
	partial := TextureSubresourceSet{NumMipLevels: 1, NumArraySlices: 2}
	if partial.IsEntireTexture(subresDesc) {
		t.Error("partial set .IsEntireTexture = true")
	}
}

func TestNumSubresources(t *testing.T) {
	if got := AllSubresources.Resolve(subresDesc).NumSubresources(); got != 8 {
		t.Errorf("NumSubresources = %d, want 8", got)
	}
}

func TestBufferRangeResolve(t *testing.T) {
	desc := BufferDesc{ByteSize: 1024}

	got := EntireBuffer.Resolve(desc)
	if got != (BufferRange{ByteOffset: 0, ByteSize: 1024}) {
		t.Errorf("Resolve(EntireBuffer) = %+v", got)
	}
	if !EntireBuffer.IsEntireBuffer(desc) {
		t.Error("EntireBuffer.IsEntireBuffer = false")
	}

	// Overhanging range is clamped; resolve stays a fixed point.
	r := BufferRange{ByteOffset: 512, ByteSize: 1024}
	once := r.Resolve(desc)
	if once != (BufferRange{ByteOffset: 512, ByteSize: 512}) {
		t.Errorf("clamped resolve = %+v", once)
	}
	if once.Resolve(desc) != once {
		t.Error("Resolve not a fixed point for clamped range")
	}
}
