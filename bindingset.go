package nvrhi

import (
	"errors"
	"fmt"

	"github.com/NVIDIAGameWorks/nvrhi-sub002/bitalloc"
)

// Binding errors.
var (
	// ErrLayoutTooLarge is returned when a layout exceeds
	// MaxBindingsPerLayout.
	ErrLayoutTooLarge = errors.New("nvrhi: binding layout exceeds capacity")

	// ErrLayoutSlotConflict is returned when two layout items claim the
	// same slot.
	ErrLayoutSlotConflict = errors.New("nvrhi: duplicate binding slot in layout")

	// ErrBindingMismatch is returned when a binding set does not match its
	// layout item for item.
	ErrBindingMismatch = errors.New("nvrhi: binding set does not match layout")
)

// MaxBindingsPerLayout bounds the item count of a single binding layout.
const MaxBindingsPerLayout = 128

// BindingResourceType is the kind of resource bound at a slot.
type BindingResourceType uint8

const (
	// BindingNone marks an unused slot.
	BindingNone BindingResourceType = iota
	// BindingTextureSRV is a read-only texture view.
	BindingTextureSRV
	// BindingTextureUAV is a read-write texture view.
	BindingTextureUAV
	// BindingBufferSRV is a read-only buffer view.
	BindingBufferSRV
	// BindingBufferUAV is a read-write buffer view.
	BindingBufferUAV
	// BindingConstantBuffer is a uniform buffer binding.
	BindingConstantBuffer
	// BindingAccelStruct is an acceleration structure binding for traversal.
	BindingAccelStruct
)

// String returns the string representation of a BindingResourceType.
func (t BindingResourceType) String() string {
	switch t {
	case BindingNone:
		return "None"
	case BindingTextureSRV:
		return "TextureSRV"
	case BindingTextureUAV:
		return "TextureUAV"
	case BindingBufferSRV:
		return "BufferSRV"
	case BindingBufferUAV:
		return "BufferUAV"
	case BindingConstantBuffer:
		return "ConstantBuffer"
	case BindingAccelStruct:
		return "AccelStruct"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// BindingLayoutItem declares one slot of a layout: what type of resource
// sets made from the layout must bind there.
type BindingLayoutItem struct {
	// Slot is the shader-visible register.
	Slot uint32
	// Type is the required resource type.
	Type BindingResourceType
}

// BindingLayoutDesc describes a binding layout.
type BindingLayoutDesc struct {
	// Items are the declared slots.
	Items []BindingLayoutItem
	// DebugName labels the layout in logs.
	DebugName string
}

// BindingLayout is a validated slot declaration shared by binding sets and
// pipelines. Layouts are immutable after creation.
type BindingLayout struct {
	desc BindingLayoutDesc
}

// Desc returns the descriptor the layout was created with.
func (l *BindingLayout) Desc() BindingLayoutDesc {
	return l.desc
}

// validateLayout checks capacity, slot range, and slot uniqueness.
func validateLayout(desc BindingLayoutDesc) error {
	if len(desc.Items) > MaxBindingsPerLayout {
		return fmt.Errorf("%w: %d items, max %d", ErrLayoutTooLarge, len(desc.Items), MaxBindingsPerLayout)
	}
	slots := bitalloc.New(MaxBindingsPerLayout)
	for _, item := range desc.Items {
		if item.Slot >= MaxBindingsPerLayout {
			return fmt.Errorf("%w: slot %d, max %d", ErrLayoutTooLarge, item.Slot, MaxBindingsPerLayout-1)
		}
		if !slots.AllocateAt(int(item.Slot)) {
			return fmt.Errorf("%w: slot %d", ErrLayoutSlotConflict, item.Slot)
		}
	}
	return nil
}

// BindingSetItem binds one resource to one slot.
//
// Exactly one of Texture, Buffer, or AccelStruct is non-nil, chosen to
// match Type. Subresources, Format, Range, and ViewType parameterize the
// view; together with the resource they form the binding key the device's
// view cache is probed with.
type BindingSetItem struct {
	// Slot is the shader-visible register, matching a layout item.
	Slot uint32
	// Type is the binding type, matching the layout item at Slot.
	Type BindingResourceType

	// Texture is the bound texture for texture bindings.
	Texture *Texture
	// Buffer is the bound buffer for buffer bindings.
	Buffer *Buffer
	// AccelStruct is the bound structure for BindingAccelStruct.
	AccelStruct *AccelStruct

	// Subresources selects the viewed subresources of a texture binding.
	// The zero value means the entire texture.
	Subresources TextureSubresourceSet
	// Format reinterprets the viewed format; FormatUnknown uses the
	// resource's own format.
	Format Format
	// Range selects the viewed bytes of a buffer binding. The zero value
	// means the entire buffer.
	Range BufferRange
	// ViewType is the buffer view interpretation.
	ViewType BufferViewType
}

// textureKey builds the resolved view key for a texture binding item.
func (item BindingSetItem) textureKey() TextureBindingKey {
	set := item.Subresources
	if set == (TextureSubresourceSet{}) {
		set = AllSubresources
	}
	format := item.Format
	if format == FormatUnknown {
		format = item.Texture.desc.Format
	}
	return TextureBindingKey{
		Subresources: set.Resolve(item.Texture.desc),
		Format:       format,
	}
}

// bufferKey builds the resolved view key for a buffer binding item.
func (item BindingSetItem) bufferKey() BufferBindingKey {
	r := item.Range
	if r == (BufferRange{}) {
		r = EntireBuffer
	}
	format := item.Format
	if format == FormatUnknown {
		format = item.Buffer.desc.Format
	}
	return BufferBindingKey{
		Range:  r.Resolve(item.Buffer.desc),
		Format: format,
		Type:   item.ViewType,
	}
}

// BindingSetDesc describes a binding set.
type BindingSetDesc struct {
	// Items are the bound resources, one per layout slot.
	Items []BindingSetItem
	// DisableLivenessTracking skips the per-submission references command
	// lists take on the bound resources. Liveness tracking is on by
	// default; callers binding transient resources they manage themselves
	// opt out to skip the reference traffic.
	DisableLivenessTracking bool
	// DebugName labels the set in logs.
	DebugName string
}

// BindingSet is an immutable group of resource bindings matching a layout.
//
// Creation resolves every item through the device's view cache, so two
// sets binding the same subresources of the same resources share the same
// native views. The set holds references on its resources for its own
// lifetime; per-submission liveness is handled by the command list.
type BindingSet struct {
	desc   BindingSetDesc
	layout *BindingLayout
	device *Device

	// views are the resolved native views, index-aligned with desc.Items.
	// Entries for constant buffer and accel struct bindings are nil: those
	// bind the resource itself.
	views []NativeView
}

// Desc returns the descriptor the set was created with.
func (s *BindingSet) Desc() BindingSetDesc {
	return s.desc
}

// Layout returns the layout the set was validated against.
func (s *BindingSet) Layout() *BindingLayout {
	return s.layout
}

// View returns the resolved native view of the item at index i, or nil
// for bindings without views.
func (s *BindingSet) View(i int) NativeView {
	return s.views[i]
}

// Release drops the set's references on its bound resources. The set must
// not be used afterwards. Views stay in the device cache; they are purged
// when their resource is destroyed.
func (s *BindingSet) Release() {
	for _, item := range s.desc.Items {
		switch {
		case item.Texture != nil:
			item.Texture.release()
		case item.Buffer != nil:
			item.Buffer.release()
		case item.AccelStruct != nil:
			item.AccelStruct.release()
		}
	}
	s.views = nil
}

// matchesLayout verifies the set's items line up with the layout's slots.
func matchesLayout(desc BindingSetDesc, layout *BindingLayout) error {
	if len(desc.Items) != len(layout.desc.Items) {
		return fmt.Errorf("%w: %d items for %d slots", ErrBindingMismatch, len(desc.Items), len(layout.desc.Items))
	}
	declared := make(map[uint32]BindingResourceType, len(layout.desc.Items))
	for _, li := range layout.desc.Items {
		declared[li.Slot] = li.Type
	}
	for _, item := range desc.Items {
		want, ok := declared[item.Slot]
		if !ok {
			return fmt.Errorf("%w: slot %d not in layout", ErrBindingMismatch, item.Slot)
		}
		if want != item.Type {
			return fmt.Errorf("%w: slot %d is %v, layout wants %v", ErrBindingMismatch, item.Slot, item.Type, want)
		}
		switch item.Type {
		case BindingTextureSRV, BindingTextureUAV:
			if item.Texture == nil {
				return fmt.Errorf("%w: slot %d has no texture", ErrBindingMismatch, item.Slot)
			}
		case BindingBufferSRV, BindingBufferUAV, BindingConstantBuffer:
			if item.Buffer == nil {
				return fmt.Errorf("%w: slot %d has no buffer", ErrBindingMismatch, item.Slot)
			}
		case BindingAccelStruct:
			if item.AccelStruct == nil {
				return fmt.Errorf("%w: slot %d has no acceleration structure", ErrBindingMismatch, item.Slot)
			}
		}
	}
	return nil
}
