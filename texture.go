package nvrhi

import (
	"fmt"
	"sync/atomic"
)

// TextureDimension specifies the shape of a texture resource.
type TextureDimension uint8

const (
	// TextureDimension2D is a single 2D image.
	TextureDimension2D TextureDimension = iota
	// TextureDimension2DArray is an array of 2D images.
	TextureDimension2DArray
	// TextureDimensionCube is a cube map (six array slices).
	TextureDimensionCube
	// TextureDimension3D is a volume texture.
	TextureDimension3D
)

// String returns the string representation of a TextureDimension.
func (d TextureDimension) String() string {
	switch d {
	case TextureDimension2D:
		return "2D"
	case TextureDimension2DArray:
		return "2DArray"
	case TextureDimensionCube:
		return "Cube"
	case TextureDimension3D:
		return "3D"
	default:
		return fmt.Sprintf("Unknown(%d)", int(d))
	}
}

// TextureDesc describes a texture resource.
//
// Zero values for Depth, ArraySize, MipLevels and SampleCount are treated
// as 1, so the minimal useful descriptor is {Width, Height, Format}.
type TextureDesc struct {
	// Width is the width in pixels.
	Width uint32
	// Height is the height in pixels.
	Height uint32
	// Depth is the depth for 3D textures. Defaults to 1.
	Depth uint32
	// ArraySize is the number of array slices. Defaults to 1.
	ArraySize uint32
	// MipLevels is the number of mip levels. Defaults to 1.
	MipLevels uint32
	// SampleCount is the MSAA sample count. Defaults to 1.
	SampleCount uint32

	// Dimension is the texture shape.
	Dimension TextureDimension
	// Format is the pixel format.
	Format Format
	// DebugName labels the resource in logs and native debug layers.
	DebugName string

	// IsRenderTarget allows binding as a color or depth-stencil target.
	IsRenderTarget bool
	// IsUAV allows binding through an unordered-access view.
	IsUAV bool
	// IsShaderResource allows binding through a shader-resource view.
	// Defaults to true when no other binding flag is set.
	IsShaderResource bool

	// InitialState is the state the resource is created in. Command lists
	// use it to infer the source of the first transition when the caller
	// did not call BeginTrackingTextureState.
	InitialState ResourceStates

	// KeepInitialState makes every recording session begin and end with the
	// resource in InitialState: Open resets tracking to it, Close emits a
	// trailing transition back to it. This guarantees a command
	// list-independent boundary state for the next submission.
	KeepInitialState bool
}

// withDefaults returns the descriptor with zero dimension fields replaced
// by 1.
func (d TextureDesc) withDefaults() TextureDesc {
	if d.Depth == 0 {
		d.Depth = 1
	}
	if d.ArraySize == 0 {
		d.ArraySize = 1
	}
	if d.MipLevels == 0 {
		d.MipLevels = 1
	}
	if d.SampleCount == 0 {
		d.SampleCount = 1
	}
	if !d.IsRenderTarget && !d.IsUAV {
		d.IsShaderResource = true
	}
	return d
}

// Texture is a device-created texture resource.
//
// State tracking is keyed by the *Texture pointer identity; the same
// native resource wrapped twice would be tracked as two resources, so the
// device never does that.
//
// Texture is reference counted: the device holds one reference on behalf of
// the creator, in-flight command lists hold additional references while the
// GPU may still read the resource. Release drops the creator's reference;
// the native resource is destroyed when the last reference is gone.
type Texture struct {
	desc   TextureDesc
	device *Device // non-owning back-reference: lookup only, never lifetime
	native NativeResource
	id     uint64

	refs atomic.Int32

	// permanentState holds the state set by SetPermanentTextureState, or
	// Unknown while the texture is still tracked. Once set the texture
	// exits tracking entirely; violations are the caller's responsibility.
	permanentState atomic.Uint32

	// uavBarriers gates automatic UAV barriers between back-to-back
	// dispatches that keep the texture in UnorderedAccess. On by default.
	uavBarriers atomic.Bool
}

// Desc returns the descriptor the texture was created with, with defaults
// applied.
func (t *Texture) Desc() TextureDesc {
	return t.desc
}

// Native returns the opaque backend handle for the texture.
func (t *Texture) Native() NativeResource {
	return t.native
}

// Release drops the creator's reference. The texture must not be used
// afterwards; the native resource is destroyed once no in-flight command
// list references it.
func (t *Texture) Release() {
	t.release()
}

func (t *Texture) addRef() {
	t.refs.Add(1)
}

func (t *Texture) release() {
	if t.refs.Add(-1) == 0 {
		t.device.destroyTexture(t)
	}
}

// resourceID returns the device-unique id used in view cache keys.
func (t *Texture) resourceID() uint64 { return t.id }

// Color is an RGBA clear value.
type Color struct {
	R, G, B, A float32
}
