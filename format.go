package nvrhi

// Format specifies the data format of a texture or typed buffer view.
//
// The set is backend-neutral; each backend maps these to its native format
// enumeration. FormatUnknown is valid in descriptors that do not need a
// typed view (structured or raw buffers).
type Format uint32

const (
	// FormatUnknown means no typed format (raw or structured data).
	FormatUnknown Format = iota

	// FormatR8Unorm is 8-bit single-channel, normalized unsigned integer.
	FormatR8Unorm

	// FormatRG8Unorm is 8-bit two-channel, normalized unsigned integer.
	FormatRG8Unorm

	// FormatRGBA8Unorm is 8-bit RGBA, normalized unsigned integer.
	FormatRGBA8Unorm

	// FormatRGBA8UnormSRGB is 8-bit RGBA in sRGB color space.
	FormatRGBA8UnormSRGB

	// FormatBGRA8Unorm is 8-bit BGRA, normalized unsigned integer.
	FormatBGRA8Unorm

	// FormatBGRA8UnormSRGB is 8-bit BGRA in sRGB color space.
	FormatBGRA8UnormSRGB

	// FormatR16Float is 16-bit single-channel float.
	FormatR16Float

	// FormatRG16Float is 16-bit two-channel float.
	FormatRG16Float

	// FormatRGBA16Float is 16-bit RGBA float.
	FormatRGBA16Float

	// FormatR32UInt is 32-bit single-channel unsigned integer.
	FormatR32UInt

	// FormatR32Float is 32-bit single-channel float.
	FormatR32Float

	// FormatRG32Float is 32-bit two-channel float.
	FormatRG32Float

	// FormatRGBA32Float is 32-bit RGBA float.
	FormatRGBA32Float

	// FormatDepth32Float is a 32-bit float depth format.
	FormatDepth32Float

	// FormatDepth24Stencil8 is 24-bit depth with 8-bit stencil.
	FormatDepth24Stencil8

	// formatCount is the number of formats; must stay last.
	formatCount
)

// FormatInfo describes the static properties of a Format.
type FormatInfo struct {
	// Format is the format this entry describes. Present so table order
	// can be verified against the enum instead of relying on position.
	Format Format

	// Name is the human-readable format name.
	Name string

	// BytesPerPixel is the storage size of one pixel.
	BytesPerPixel uint8

	// HasDepth reports whether the format carries a depth aspect.
	HasDepth bool

	// HasStencil reports whether the format carries a stencil aspect.
	HasStencil bool
}

// formatInfos is the immutable format lookup table, indexed by Format
// ordinal. TestFormatTableOrder asserts that each entry's Format field
// matches its index.
var formatInfos = [formatCount]FormatInfo{
	{Format: FormatUnknown, Name: "Unknown", BytesPerPixel: 0},
	{Format: FormatR8Unorm, Name: "R8Unorm", BytesPerPixel: 1},
	{Format: FormatRG8Unorm, Name: "RG8Unorm", BytesPerPixel: 2},
	{Format: FormatRGBA8Unorm, Name: "RGBA8Unorm", BytesPerPixel: 4},
	{Format: FormatRGBA8UnormSRGB, Name: "RGBA8UnormSRGB", BytesPerPixel: 4},
	{Format: FormatBGRA8Unorm, Name: "BGRA8Unorm", BytesPerPixel: 4},
	{Format: FormatBGRA8UnormSRGB, Name: "BGRA8UnormSRGB", BytesPerPixel: 4},
	{Format: FormatR16Float, Name: "R16Float", BytesPerPixel: 2},
	{Format: FormatRG16Float, Name: "RG16Float", BytesPerPixel: 4},
	{Format: FormatRGBA16Float, Name: "RGBA16Float", BytesPerPixel: 8},
	{Format: FormatR32UInt, Name: "R32UInt", BytesPerPixel: 4},
	{Format: FormatR32Float, Name: "R32Float", BytesPerPixel: 4},
	{Format: FormatRG32Float, Name: "RG32Float", BytesPerPixel: 8},
	{Format: FormatRGBA32Float, Name: "RGBA32Float", BytesPerPixel: 16},
	{Format: FormatDepth32Float, Name: "Depth32Float", BytesPerPixel: 4, HasDepth: true},
	{Format: FormatDepth24Stencil8, Name: "Depth24Stencil8", BytesPerPixel: 4, HasDepth: true, HasStencil: true},
}

// Info returns the static properties of the format.
// Unrecognized values return the FormatUnknown entry.
func (f Format) Info() FormatInfo {
	if f >= formatCount {
		return formatInfos[FormatUnknown]
	}
	return formatInfos[f]
}

// String returns the format name.
func (f Format) String() string {
	return f.Info().Name
}
