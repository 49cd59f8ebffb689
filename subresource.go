package nvrhi

import "math"

// Sentinel values meaning "the rest of the dimension".
const (
	// AllMipLevels selects every mip level from BaseMipLevel onward.
	AllMipLevels uint32 = math.MaxUint32

	// AllArraySlices selects every array slice from BaseArraySlice onward.
	AllArraySlices uint32 = math.MaxUint32

	// WholeBuffer selects every byte from ByteOffset to the end of the buffer.
	WholeBuffer uint64 = math.MaxUint64
)

// TextureSubresourceSet selects a rectangular region of a texture's
// (mip level, array slice) grid.
//
// Sets built with the AllMipLevels/AllArraySlices sentinels must be resolved
// against a TextureDesc before use as state-table or binding keys, so that
// two descriptions of "the whole texture" compare equal.
type TextureSubresourceSet struct {
	// BaseMipLevel is the first selected mip level.
	BaseMipLevel uint32
	// NumMipLevels is the number of selected mip levels, or AllMipLevels.
	NumMipLevels uint32
	// BaseArraySlice is the first selected array slice.
	BaseArraySlice uint32
	// NumArraySlices is the number of selected slices, or AllArraySlices.
	NumArraySlices uint32
}

// AllSubresources selects every subresource of any texture.
var AllSubresources = TextureSubresourceSet{
	BaseMipLevel:   0,
	NumMipLevels:   AllMipLevels,
	BaseArraySlice: 0,
	NumArraySlices: AllArraySlices,
}

// Resolve replaces sentinel counts with concrete ones and clamps the set to
// the texture described by desc. Resolve is a fixed point: resolving an
// already-resolved set returns it unchanged.
func (s TextureSubresourceSet) Resolve(desc TextureDesc) TextureSubresourceSet {
	out := s

	if out.BaseMipLevel >= desc.MipLevels {
		out.BaseMipLevel = desc.MipLevels - 1
	}
	if out.NumMipLevels == AllMipLevels || out.BaseMipLevel+out.NumMipLevels > desc.MipLevels {
		out.NumMipLevels = desc.MipLevels - out.BaseMipLevel
	}

	if out.BaseArraySlice >= desc.ArraySize {
		out.BaseArraySlice = desc.ArraySize - 1
	}
	if out.NumArraySlices == AllArraySlices || out.BaseArraySlice+out.NumArraySlices > desc.ArraySize {
		out.NumArraySlices = desc.ArraySize - out.BaseArraySlice
	}

	return out
}

// IsEntireTexture reports whether the set, once resolved, covers every
// subresource of the texture described by desc.
func (s TextureSubresourceSet) IsEntireTexture(desc TextureDesc) bool {
	r := s.Resolve(desc)
	return r.BaseMipLevel == 0 && r.NumMipLevels == desc.MipLevels &&
		r.BaseArraySlice == 0 && r.NumArraySlices == desc.ArraySize
}

// NumSubresources returns the number of (mip, slice) pairs in the set.
// The set must be resolved.
func (s TextureSubresourceSet) NumSubresources() uint32 {
	return s.NumMipLevels * s.NumArraySlices
}

// subresourceIndex flattens a (mip, slice) pair into the per-texture state
// table index. Mips vary fastest, matching the view-addressing order the
// backends use.
func subresourceIndex(mipLevel, arraySlice, numMips uint32) uint32 {
	return mipLevel + arraySlice*numMips
}

// BufferRange selects a byte range of a buffer.
//
// A buffer is tracked as a single state regardless of range; ranges exist
// for binding keys, not for state granularity.
type BufferRange struct {
	// ByteOffset is the start of the range.
	ByteOffset uint64
	// ByteSize is the length of the range, or WholeBuffer.
	ByteSize uint64
}

// EntireBuffer selects every byte of any buffer.
var EntireBuffer = BufferRange{ByteOffset: 0, ByteSize: WholeBuffer}

// Resolve replaces the WholeBuffer sentinel with a concrete length and
// clamps the range to the buffer described by desc. Resolve is a fixed
// point, like TextureSubresourceSet.Resolve.
func (r BufferRange) Resolve(desc BufferDesc) BufferRange {
	out := r
	if out.ByteOffset > desc.ByteSize {
		out.ByteOffset = desc.ByteSize
	}
	if out.ByteSize == WholeBuffer || out.ByteOffset+out.ByteSize > desc.ByteSize {
		out.ByteSize = desc.ByteSize - out.ByteOffset
	}
	return out
}

// IsEntireBuffer reports whether the range, once resolved, covers the whole
// buffer described by desc.
func (r BufferRange) IsEntireBuffer(desc BufferDesc) bool {
	res := r.Resolve(desc)
	return res.ByteOffset == 0 && res.ByteSize == desc.ByteSize
}
