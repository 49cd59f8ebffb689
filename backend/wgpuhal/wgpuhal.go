// Package wgpuhal implements the hardware backend on gogpu/wgpu's hal
// layer.
//
// Importing the package registers the backend under nvrhi.BackendWGPUHAL.
// The hal exposes a single hardware queue; the three logical queues all
// submit to it, each with its own timeline fence, so per-queue submission
// instances still complete independently and in order.
//
// The hal has no buffer memory barriers, no texture-to-texture copies, and
// no CPU texture uploads. Buffer and UAV barriers are absorbed (Vulkan
// submission ordering covers the single-queue case); the missing copy
// paths return errors.ErrUnsupported.
package wgpuhal

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	nvrhi "github.com/NVIDIAGameWorks/nvrhi-sub002"
)

func init() {
	nvrhi.RegisterBackend(nvrhi.BackendWGPUHAL, func() nvrhi.DeviceBackend { return New() })
}

// numQueues mirrors the logical queue count of the core.
const numQueues = 3

// waitSlice is the poll interval for blocking fence waits.
const waitSlice = 100 * time.Millisecond

// Backend errors.
var (
	// ErrNoAdapter is returned by Init when no usable GPU adapter exists.
	ErrNoAdapter = errors.New("wgpuhal: no GPU adapter found")

	// ErrNotInitialized is returned when using the backend before Init.
	ErrNotInitialized = errors.New("wgpuhal: backend not initialized")
)

// wgpuTexture is the native handle for textures.
type wgpuTexture struct {
	tex  hal.Texture
	view hal.TextureView // default whole-texture view, for clears
	desc nvrhi.TextureDesc
}

// wgpuBuffer is the native handle for buffers.
type wgpuBuffer struct {
	buf  hal.Buffer
	desc nvrhi.BufferDesc
}

// bufferView is the native view handle for buffer bindings. The hal binds
// buffers by (buffer, offset, size) rather than view objects, so the view
// is just the resolved binding parameters.
type bufferView struct {
	buf    hal.Buffer
	offset uint64
	size   uint64
}

// pendingSubmission holds command buffers awaiting completion so their
// native memory can be freed once the fence passes their value.
type pendingSubmission struct {
	queue nvrhi.CommandQueue
	id    uint64
	cmds  []hal.CommandBuffer
}

// Backend runs on a wgpu hal device.
type Backend struct {
	mu          sync.Mutex
	initialized bool

	instance    hal.Instance
	device      hal.Device
	queue       hal.Queue
	adapterName string

	fences        [numQueues]hal.Fence
	lastSubmitted [numQueues]uint64

	pending []pendingSubmission
}

// New creates an uninitialized backend. NewDevice calls Init.
func New() *Backend {
	return &Backend{}
}

// AdapterName returns the name of the opened adapter, or "" before Init.
func (b *Backend) AdapterName() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.adapterName
}

// Name implements nvrhi.DeviceBackend.
func (b *Backend) Name() string { return nvrhi.BackendWGPUHAL }

// Init implements nvrhi.DeviceBackend. It opens the first discrete or
// integrated Vulkan adapter and creates the per-queue timeline fences.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.initialized {
		return nil
	}

	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("wgpuhal: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("wgpuhal: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("wgpuhal: open device: %w", err)
	}

	b.instance = instance
	b.device = openDev.Device
	b.queue = openDev.Queue
	b.adapterName = selected.Info.Name

	for q := range b.fences {
		fence, err := b.device.CreateFence()
		if err != nil {
			b.destroyFencesLocked()
			b.device.Destroy()
			return fmt.Errorf("wgpuhal: create fence: %w", err)
		}
		b.fences[q] = fence
	}

	b.initialized = true
	return nil
}

func (b *Backend) destroyFencesLocked() {
	for q, fence := range b.fences {
		if fence != nil {
			b.device.DestroyFence(fence)
			b.fences[q] = nil
		}
	}
}

// Close implements nvrhi.DeviceBackend.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return
	}
	b.reapLocked(true)
	b.destroyFencesLocked()
	b.device.Destroy()
	b.initialized = false
}

func (b *Backend) checkInit() error {
	if !b.initialized {
		return ErrNotInitialized
	}
	return nil
}

// CreateTexture implements nvrhi.DeviceBackend.
func (b *Backend) CreateTexture(desc nvrhi.TextureDesc) (nvrhi.NativeResource, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkInit(); err != nil {
		return nil, err
	}

	format, err := formatToHAL(desc.Format)
	if err != nil {
		return nil, err
	}

	layers := desc.ArraySize
	if desc.Dimension == nvrhi.TextureDimension3D {
		layers = desc.Depth
	}
	tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.DebugName,
		Size:          hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: layers},
		MipLevelCount: desc.MipLevels,
		SampleCount:   desc.SampleCount,
		Dimension:     dimensionToHAL(desc.Dimension),
		Format:        format,
		Usage:         textureUsageForDesc(desc),
	})
	if err != nil {
		return nil, fmt.Errorf("wgpuhal: create texture %q: %w", desc.DebugName, err)
	}

	wt := &wgpuTexture{tex: tex, desc: desc}
	if desc.IsRenderTarget {
		view, err := b.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
			Label: desc.DebugName + "/rt",
		})
		if err != nil {
			b.device.DestroyTexture(tex)
			return nil, fmt.Errorf("wgpuhal: create render view %q: %w", desc.DebugName, err)
		}
		wt.view = view
	}
	return wt, nil
}

// CreateBuffer implements nvrhi.DeviceBackend.
func (b *Backend) CreateBuffer(desc nvrhi.BufferDesc) (nvrhi.NativeResource, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkInit(); err != nil {
		return nil, err
	}

	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.DebugName,
		Size:  desc.ByteSize,
		Usage: bufferUsageForDesc(desc),
	})
	if err != nil {
		return nil, fmt.Errorf("wgpuhal: create buffer %q: %w", desc.DebugName, err)
	}
	return &wgpuBuffer{buf: buf, desc: desc}, nil
}

// CreateAccelStruct implements nvrhi.DeviceBackend. The hal exposes no ray
// tracing objects.
func (b *Backend) CreateAccelStruct(desc nvrhi.AccelStructDesc) (nvrhi.NativeResource, error) {
	return nil, fmt.Errorf("wgpuhal: acceleration structures: %w", errors.ErrUnsupported)
}

// DestroyResource implements nvrhi.DeviceBackend.
func (b *Backend) DestroyResource(res nvrhi.NativeResource) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return
	}
	switch r := res.(type) {
	case *wgpuTexture:
		if r.view != nil {
			b.device.DestroyTextureView(r.view)
		}
		b.device.DestroyTexture(r.tex)
	case *wgpuBuffer:
		b.device.DestroyBuffer(r.buf)
	}
}

// CreateTextureView implements nvrhi.DeviceBackend.
func (b *Backend) CreateTextureView(res nvrhi.NativeResource, desc nvrhi.TextureDesc, key nvrhi.TextureBindingKey) (nvrhi.NativeView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkInit(); err != nil {
		return nil, err
	}
	wt, ok := res.(*wgpuTexture)
	if !ok {
		return nil, fmt.Errorf("wgpuhal: not a wgpuhal texture")
	}
	view, err := b.device.CreateTextureView(wt.tex, &hal.TextureViewDescriptor{
		Label: desc.DebugName + "/view",
	})
	if err != nil {
		return nil, fmt.Errorf("wgpuhal: create view of %q: %w", desc.DebugName, err)
	}
	return view, nil
}

// CreateBufferView implements nvrhi.DeviceBackend. The hal binds buffers
// by range, so the view carries the resolved range instead of a native
// object.
func (b *Backend) CreateBufferView(res nvrhi.NativeResource, desc nvrhi.BufferDesc, key nvrhi.BufferBindingKey) (nvrhi.NativeView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkInit(); err != nil {
		return nil, err
	}
	wb, ok := res.(*wgpuBuffer)
	if !ok {
		return nil, fmt.Errorf("wgpuhal: not a wgpuhal buffer")
	}
	return &bufferView{buf: wb.buf, offset: key.Range.ByteOffset, size: key.Range.ByteSize}, nil
}

// DestroyView implements nvrhi.DeviceBackend.
func (b *Backend) DestroyView(view nvrhi.NativeView) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return
	}
	if tv, ok := view.(hal.TextureView); ok {
		b.device.DestroyTextureView(tv)
	}
	// bufferView holds no native object.
}
