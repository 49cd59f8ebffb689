package nvrhi

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/NVIDIAGameWorks/nvrhi-sub002/cache"
	"github.com/NVIDIAGameWorks/nvrhi-sub002/markers"
)

// Device errors.
var (
	// ErrNoBackend is returned by NewDevice when no backend is available.
	ErrNoBackend = errors.New("nvrhi: no backend available")

	// ErrBackendNotFound is returned when the requested backend is not
	// registered.
	ErrBackendNotFound = errors.New("nvrhi: backend not found")

	// ErrDeviceClosed is returned by operations on a closed device.
	ErrDeviceClosed = errors.New("nvrhi: device closed")

	// ErrInvalidDesc is returned when a resource descriptor is malformed.
	ErrInvalidDesc = errors.New("nvrhi: invalid descriptor")

	// ErrWrongQueue is returned by ExecuteCommandLists when a list was
	// created for a different queue.
	ErrWrongQueue = errors.New("nvrhi: command list belongs to another queue")

	// ErrNotClosed is returned by ExecuteCommandLists when a list is not in
	// the Closed phase.
	ErrNotClosed = errors.New("nvrhi: command list not closed")

	// ErrNotSubmitted is returned by QueueWaitForCommandList for a list
	// that was never executed.
	ErrNotSubmitted = errors.New("nvrhi: command list never submitted")
)

// DeviceConfig configures device creation.
type DeviceConfig struct {
	// Backend selects a registered backend by name. Empty picks the best
	// available one (hardware backends before the null backend).
	Backend string

	// MessageCallback receives validation and tracking diagnostics. Nil
	// installs DefaultMessageCallback, which forwards to the package
	// logger.
	MessageCallback MessageCallback

	// ViewCacheCapacity is the per-shard capacity of the native view
	// caches. Zero uses the cache package default.
	ViewCacheCapacity int

	// AbortOnFatal turns SeverityFatal reports into panics. Off by
	// default: fatal reports go through the callback like any other.
	AbortOnFatal bool
}

// textureViewKey identifies one cached texture view device-wide.
type textureViewKey struct {
	resourceID uint64
	key        TextureBindingKey
}

// bufferViewKey identifies one cached buffer view device-wide.
type bufferViewKey struct {
	resourceID uint64
	key        BufferBindingKey
}

// inFlightSubmission is one ExecuteCommandLists batch whose GPU completion
// has not been observed yet.
type inFlightSubmission struct {
	queue CommandQueue
	id    uint64
	lists []*CommandList
	refs  []resource
}

// Device is the top-level object of the library.
//
// It owns the backend, hands out resources and command lists, deduplicates
// native views, and tracks submission liveness. Device methods are safe
// for concurrent use; command lists obtained from it are each
// single-goroutine.
type Device struct {
	backend  DeviceBackend
	messages MessageCallback

	closed atomic.Bool

	// nextResourceID feeds the view cache keys; never reused.
	nextResourceID atomic.Uint64

	textureViews *cache.ShardedCache[textureViewKey, NativeView]
	bufferViews  *cache.ShardedCache[bufferViewKey, NativeView]

	// markerNames dedups per-frame debug marker logging device-wide.
	markerNames *markers.Tracker

	// submitMu serializes submission numbering and the in-flight list.
	submitMu       sync.Mutex
	nextSubmission [queueCount]uint64
	inFlight       []inFlightSubmission
}

// NewDevice creates a device on the configured backend and initializes it.
func NewDevice(config DeviceConfig) (*Device, error) {
	var backend DeviceBackend
	if config.Backend != "" {
		backend = backendByName(config.Backend)
		if backend == nil {
			return nil, fmt.Errorf("%w: %q", ErrBackendNotFound, config.Backend)
		}
	} else {
		backend = defaultBackend()
		if backend == nil {
			return nil, ErrNoBackend
		}
	}
	return NewDeviceWithBackend(backend, config)
}

// NewDeviceWithBackend creates a device on an explicit backend instance,
// bypassing the registry. Tests use it to share a backend with their
// assertions.
func NewDeviceWithBackend(backend DeviceBackend, config DeviceConfig) (*Device, error) {
	messages := config.MessageCallback
	if messages == nil {
		messages = DefaultMessageCallback()
	}
	if config.AbortOnFatal {
		messages = abortCallback{inner: messages}
	}

	if err := backend.Init(); err != nil {
		return nil, fmt.Errorf("init backend %q: %w", backend.Name(), err)
	}

	d := &Device{
		backend:     backend,
		messages:    messages,
		markerNames: markers.NewTracker(0),
	}
	d.textureViews = cache.NewSharded[textureViewKey, NativeView](
		config.ViewCacheCapacity,
		func(k textureViewKey) uint64 { return hashCombine(k.key.Hash(), k.resourceID) },
	)
	d.bufferViews = cache.NewSharded[bufferViewKey, NativeView](
		config.ViewCacheCapacity,
		func(k bufferViewKey) uint64 { return hashCombine(k.key.Hash(), k.resourceID) },
	)
	// Views dropped by capacity pressure release their native objects.
	d.textureViews.SetEvictionHandler(func(_ textureViewKey, v NativeView) {
		d.backend.DestroyView(v)
	})
	d.bufferViews.SetEvictionHandler(func(_ bufferViewKey, v NativeView) {
		d.backend.DestroyView(v)
	})

	Logger().Info("nvrhi: device created", "backend", backend.Name())
	return d, nil
}

// Backend returns the name of the backend the device runs on.
func (d *Device) Backend() string {
	return d.backend.Name()
}

// MessageCallback returns the device's diagnostic sink.
func (d *Device) MessageCallback() MessageCallback {
	return d.messages
}

func (d *Device) checkOpen() error {
	if d.closed.Load() {
		return ErrDeviceClosed
	}
	return nil
}

// CreateTexture creates a texture resource. The returned texture carries
// one reference owned by the caller; Release it when done.
func (d *Device) CreateTexture(desc TextureDesc) (*Texture, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	desc = desc.withDefaults()
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: texture %q has zero extent", ErrInvalidDesc, desc.DebugName)
	}
	if desc.Format == FormatUnknown {
		return nil, fmt.Errorf("%w: texture %q has no format", ErrInvalidDesc, desc.DebugName)
	}
	if desc.KeepInitialState && desc.InitialState == ResourceStateUnknown {
		return nil, fmt.Errorf("%w: texture %q keeps an unknown initial state", ErrInvalidDesc, desc.DebugName)
	}

	native, err := d.backend.CreateTexture(desc)
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", desc.DebugName, err)
	}

	t := &Texture{
		desc:   desc,
		device: d,
		native: native,
		id:     d.nextResourceID.Add(1),
	}
	t.refs.Store(1)
	t.uavBarriers.Store(true)
	return t, nil
}

// CreateBuffer creates a buffer resource; lifetime works as for
// CreateTexture.
func (d *Device) CreateBuffer(desc BufferDesc) (*Buffer, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	if desc.ByteSize == 0 {
		return nil, fmt.Errorf("%w: buffer %q has zero size", ErrInvalidDesc, desc.DebugName)
	}
	if desc.KeepInitialState && desc.InitialState == ResourceStateUnknown {
		return nil, fmt.Errorf("%w: buffer %q keeps an unknown initial state", ErrInvalidDesc, desc.DebugName)
	}

	native, err := d.backend.CreateBuffer(desc)
	if err != nil {
		return nil, fmt.Errorf("create buffer %q: %w", desc.DebugName, err)
	}

	b := &Buffer{
		desc:   desc,
		device: d,
		native: native,
		id:     d.nextResourceID.Add(1),
	}
	b.refs.Store(1)
	b.uavBarriers.Store(true)
	return b, nil
}

// CreateAccelStruct creates an acceleration structure; lifetime works as
// for CreateTexture.
func (d *Device) CreateAccelStruct(desc AccelStructDesc) (*AccelStruct, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	if desc.IsTopLevel && desc.TopLevelMaxInstances == 0 {
		return nil, fmt.Errorf("%w: top-level structure %q allows zero instances", ErrInvalidDesc, desc.DebugName)
	}
	if !desc.IsTopLevel && len(desc.BottomLevelGeometries) == 0 {
		return nil, fmt.Errorf("%w: bottom-level structure %q has no geometry", ErrInvalidDesc, desc.DebugName)
	}

	native, err := d.backend.CreateAccelStruct(desc)
	if err != nil {
		return nil, fmt.Errorf("create accel struct %q: %w", desc.DebugName, err)
	}

	a := &AccelStruct{
		desc:   desc,
		device: d,
		native: native,
		id:     d.nextResourceID.Add(1),
	}
	a.refs.Store(1)
	return a, nil
}

// CreateCommandList creates a command list for recording.
func (d *Device) CreateCommandList(params CommandListParameters) (*CommandList, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	return newCommandList(d, params), nil
}

// CreateBindingLayout validates and creates a binding layout.
func (d *Device) CreateBindingLayout(desc BindingLayoutDesc) (*BindingLayout, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	if err := validateLayout(desc); err != nil {
		return nil, err
	}
	return &BindingLayout{desc: desc}, nil
}

// CreateBindingSet validates desc against layout and resolves every item
// through the view caches. Equal binding keys on the same resource resolve
// to the identical native view across all sets.
func (d *Device) CreateBindingSet(desc BindingSetDesc, layout *BindingLayout) (*BindingSet, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	if layout == nil {
		return nil, fmt.Errorf("%w: nil layout", ErrBindingMismatch)
	}
	if err := matchesLayout(desc, layout); err != nil {
		return nil, err
	}

	views := make([]NativeView, len(desc.Items))
	for i, item := range desc.Items {
		switch item.Type {
		case BindingTextureSRV, BindingTextureUAV:
			view, err := d.textureView(item.Texture, item.textureKey())
			if err != nil {
				return nil, fmt.Errorf("binding set %q slot %d: %w", desc.DebugName, item.Slot, err)
			}
			views[i] = view
		case BindingBufferSRV, BindingBufferUAV:
			view, err := d.bufferView(item.Buffer, item.bufferKey())
			if err != nil {
				return nil, fmt.Errorf("binding set %q slot %d: %w", desc.DebugName, item.Slot, err)
			}
			views[i] = view
		}
		// Constant buffers and accel structs bind the resource directly.
	}

	// The set itself keeps its resources alive until released.
	for _, item := range desc.Items {
		switch {
		case item.Texture != nil:
			item.Texture.addRef()
		case item.Buffer != nil:
			item.Buffer.addRef()
		case item.AccelStruct != nil:
			item.AccelStruct.addRef()
		}
	}

	return &BindingSet{
		desc:   desc,
		layout: layout,
		device: d,
		views:  views,
	}, nil
}

// CreateGraphicsPipeline creates a graphics pipeline.
func (d *Device) CreateGraphicsPipeline(desc GraphicsPipelineDesc) (*GraphicsPipeline, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	return &GraphicsPipeline{desc: desc}, nil
}

// CreateComputePipeline creates a compute pipeline.
func (d *Device) CreateComputePipeline(desc ComputePipelineDesc) (*ComputePipeline, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	return &ComputePipeline{desc: desc}, nil
}

// textureView resolves a texture binding key through the view cache.
func (d *Device) textureView(t *Texture, key TextureBindingKey) (NativeView, error) {
	return d.textureViews.GetOrCreate(textureViewKey{resourceID: t.id, key: key}, func() (NativeView, error) {
		return d.backend.CreateTextureView(t.native, t.desc, key)
	})
}

// bufferView resolves a buffer binding key through the view cache.
func (d *Device) bufferView(b *Buffer, key BufferBindingKey) (NativeView, error) {
	return d.bufferViews.GetOrCreate(bufferViewKey{resourceID: b.id, key: key}, func() (NativeView, error) {
		return d.backend.CreateBufferView(b.native, b.desc, key)
	})
}

// destroyTexture is called when the last reference on a texture drops: its
// cached views are purged and destroyed before the resource itself.
func (d *Device) destroyTexture(t *Texture) {
	views := d.textureViews.DeleteFunc(func(k textureViewKey, _ NativeView) bool {
		return k.resourceID == t.id
	})
	for _, v := range views {
		d.backend.DestroyView(v)
	}
	d.backend.DestroyResource(t.native)
}

// destroyBuffer mirrors destroyTexture.
func (d *Device) destroyBuffer(b *Buffer) {
	views := d.bufferViews.DeleteFunc(func(k bufferViewKey, _ NativeView) bool {
		return k.resourceID == b.id
	})
	for _, v := range views {
		d.backend.DestroyView(v)
	}
	d.backend.DestroyResource(b.native)
}

// destroyAccelStruct releases the native structure; there are no views.
func (d *Device) destroyAccelStruct(a *AccelStruct) {
	d.backend.DestroyResource(a.native)
}

// ExecuteCommandLists submits closed command lists to a queue as one
// batch and returns the batch's per-queue submission instance.
//
// Every list moves to the Executing phase and its referenced resources
// stay retained until RunGarbageCollection (or a wait) observes the
// submission's completion. Lists on the same queue execute in submission
// order; cross-queue ordering requires QueueWaitForCommandList.
func (d *Device) ExecuteCommandLists(queue CommandQueue, lists ...*CommandList) (uint64, error) {
	if err := d.checkOpen(); err != nil {
		return 0, err
	}
	if len(lists) == 0 {
		return 0, nil
	}

	natives := make([]NativeCommandBuffer, 0, len(lists))
	for _, cl := range lists {
		if cl.Phase() != PhaseClosed {
			return 0, cl.misuse(ErrNotClosed, "ExecuteCommandLists")
		}
		if cl.Queue() != queue {
			return 0, fmt.Errorf("%w: list %q is for %v, submitting to %v",
				ErrWrongQueue, cl.params.DebugName, cl.Queue(), queue)
		}
		natives = append(natives, cl.native)
	}

	d.submitMu.Lock()
	defer d.submitMu.Unlock()

	id := d.nextSubmission[queue] + 1
	if err := d.backend.Submit(queue, natives, id); err != nil {
		return 0, fmt.Errorf("submit to %v: %w", queue, err)
	}
	d.nextSubmission[queue] = id

	sub := inFlightSubmission{queue: queue, id: id, lists: lists}
	for _, cl := range lists {
		cl.submissionID = id
		cl.phase.Store(uint32(PhaseExecuting))
		sub.refs = append(sub.refs, cl.takeReferenced()...)
	}
	d.inFlight = append(d.inFlight, sub)

	Logger().Debug("nvrhi: submitted command lists",
		"queue", queue, "submission", id, "lists", len(lists))
	return id, nil
}

// ExecuteCommandList submits a single command list on its own queue.
func (d *Device) ExecuteCommandList(cl *CommandList) (uint64, error) {
	return d.ExecuteCommandLists(cl.Queue(), cl)
}

// RunGarbageCollection polls the backend for finished submissions. For
// each one it releases the submission's resource references and moves its
// command lists to the Completed phase. Call once per frame, or after
// waits, to bound resource lifetime.
func (d *Device) RunGarbageCollection() {
	d.submitMu.Lock()
	var done []inFlightSubmission
	remaining := d.inFlight[:0]
	for _, sub := range d.inFlight {
		if d.backend.SubmissionCompleted(sub.queue, sub.id) {
			done = append(done, sub)
		} else {
			remaining = append(remaining, sub)
		}
	}
	d.inFlight = remaining
	d.submitMu.Unlock()

	// Releases can call back into destroy paths; run them unlocked.
	for _, sub := range done {
		for _, cl := range sub.lists {
			cl.phase.CompareAndSwap(uint32(PhaseExecuting), uint32(PhaseCompleted))
		}
		for _, r := range sub.refs {
			r.release()
		}
	}
}

// WaitForSubmission blocks until the given submission instance finishes,
// then collects garbage.
func (d *Device) WaitForSubmission(queue CommandQueue, id uint64) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	if err := d.backend.WaitSubmission(queue, id); err != nil {
		return fmt.Errorf("wait submission %d on %v: %w", id, queue, err)
	}
	d.RunGarbageCollection()
	return nil
}

// WaitForIdle blocks until every queue drains, then collects garbage.
func (d *Device) WaitForIdle() error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	if err := d.backend.WaitIdle(); err != nil {
		return fmt.Errorf("wait idle: %w", err)
	}
	d.RunGarbageCollection()
	return nil
}

// QueueWaitForCommandList makes future work submitted to queue wait for
// the last submission of cl before executing.
func (d *Device) QueueWaitForCommandList(queue CommandQueue, cl *CommandList) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	if cl.SubmissionID() == 0 {
		return ErrNotSubmitted
	}
	return d.backend.QueueWait(queue, cl.Queue(), cl.SubmissionID())
}

// ViewCacheStats returns the texture and buffer view cache statistics.
func (d *Device) ViewCacheStats() (textures, buffers cache.Stats) {
	return d.textureViews.Stats(), d.bufferViews.Stats()
}

// Close drains the queues, destroys cached views, and shuts the backend
// down. The device and everything created from it are unusable afterwards.
func (d *Device) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	if err := d.backend.WaitIdle(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	d.RunGarbageCollection()
	d.textureViews.Clear()
	d.bufferViews.Clear()
	d.backend.Close()
	Logger().Info("nvrhi: device closed", "backend", d.backend.Name())
	return nil
}
