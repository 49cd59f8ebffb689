package nvrhi

// Binding keys canonicalize a (format, subresource-or-range, extra flag)
// tuple into a value with equality and a stable hash. The device's view
// cache is probed with these keys so that identical binding requests return
// the identical native view instead of allocating a new one.
//
// Invariant: two keys are equal iff they would produce indistinguishable
// GPU-visible views. Subresource sets and buffer ranges must therefore be
// resolved before key construction; unresolved sentinels would make "the
// whole texture" hash differently from its concrete spelling.

// fnv1aOffset and fnv1aPrime are the 64-bit FNV-1a parameters. The fields
// of a key are independent discriminators, so a non-cryptographic mix is
// sufficient; this matches the hasher the view cache shards with.
const (
	fnv1aOffset uint64 = 14695981039346656037
	fnv1aPrime  uint64 = 1099511628211
)

// hashCombine folds one 64-bit field into an FNV-1a running hash.
func hashCombine(h, v uint64) uint64 {
	for i := 0; i < 8; i++ {
		h ^= v & 0xff
		h *= fnv1aPrime
		v >>= 8
	}
	return h
}

// TextureBindingKey identifies one GPU-visible view of a texture.
type TextureBindingKey struct {
	// Subresources is the resolved subresource set the view covers.
	Subresources TextureSubresourceSet
	// Format is the view format (may reinterpret the resource format).
	Format Format
	// IsReadOnlyDSV distinguishes read-only depth-stencil views from
	// read-write views of identical subresources; backends expose them as
	// different native objects.
	IsReadOnlyDSV bool
}

// Hash returns a stable hash combining every field of the key.
func (k TextureBindingKey) Hash() uint64 {
	h := fnv1aOffset
	h = hashCombine(h, uint64(k.Subresources.BaseMipLevel))
	h = hashCombine(h, uint64(k.Subresources.NumMipLevels))
	h = hashCombine(h, uint64(k.Subresources.BaseArraySlice))
	h = hashCombine(h, uint64(k.Subresources.NumArraySlices))
	h = hashCombine(h, uint64(k.Format))
	if k.IsReadOnlyDSV {
		h = hashCombine(h, 1)
	}
	return h
}

// BufferViewType distinguishes the interpretations of a buffer view.
type BufferViewType uint8

const (
	// BufferViewTyped is a typed (formatted) view.
	BufferViewTyped BufferViewType = iota
	// BufferViewStructured is a structured view using the buffer's stride.
	BufferViewStructured
	// BufferViewRaw is a raw byte-address view.
	BufferViewRaw
)

// String returns the string representation of a BufferViewType.
func (t BufferViewType) String() string {
	switch t {
	case BufferViewTyped:
		return "Typed"
	case BufferViewStructured:
		return "Structured"
	case BufferViewRaw:
		return "Raw"
	default:
		return "Unknown"
	}
}

// BufferBindingKey identifies one GPU-visible view of a buffer.
type BufferBindingKey struct {
	// Range is the resolved byte range the view covers.
	Range BufferRange
	// Format is the element format for typed views.
	Format Format
	// Type is the view interpretation.
	Type BufferViewType
}

// Hash returns a stable hash combining every field of the key.
func (k BufferBindingKey) Hash() uint64 {
	h := fnv1aOffset
	h = hashCombine(h, k.Range.ByteOffset)
	h = hashCombine(h, k.Range.ByteSize)
	h = hashCombine(h, uint64(k.Format))
	h = hashCombine(h, uint64(k.Type))
	return h
}
