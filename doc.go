// Package nvrhi provides a graphics-API-agnostic resource binding and
// command-recording layer for GPU work.
//
// # Overview
//
// nvrhi lets client code describe GPU resources (textures, buffers, binding
// layouts, pipelines) and record commands once, against a backend-neutral
// interface. The recording layer maintains a model of every subresource's
// current usage state (render target, shader resource, copy source, ...) and
// inserts the synchronization barriers a backend needs when usages change.
//
// # Quick Start
//
//	device, err := nvrhi.NewDevice(nvrhi.DeviceConfig{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer device.Close()
//
//	tex, _ := device.CreateTexture(nvrhi.TextureDesc{
//		Width: 256, Height: 256,
//		Format:           nvrhi.FormatRGBA8Unorm,
//		IsRenderTarget:   true,
//		InitialState:     nvrhi.ResourceStateRenderTarget,
//		KeepInitialState: true,
//	})
//
//	cl, _ := device.CreateCommandList(nvrhi.CommandListParameters{Queue: nvrhi.QueueGraphics})
//	cl.Open()
//	cl.ClearTextureFloat(tex, nvrhi.AllSubresources, nvrhi.Color{})
//	cl.CommitBarriers()
//	cl.Close()
//	device.ExecuteCommandLists(nvrhi.QueueGraphics, cl)
//	device.RunGarbageCollection()
//
// # Architecture
//
// The library is organized into:
//   - Core: Device, CommandList, resource descriptors, binding keys
//   - State tracking: per-subresource usage states and the barrier accumulator
//   - Backends: wgpuhal (gogpu/wgpu) and a built-in null backend for tests
//   - Support: cache (view dedup), bitalloc (descriptor slots), markers
//
// # Concurrency
//
// Recording is single-threaded per command list. Distinct command lists may
// be recorded concurrently from distinct goroutines without locking; all
// device-level structures are safe for concurrent use.
package nvrhi

// Version information
const (
	// Version is the current version of the library
	Version = "0.2.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 2

	// VersionPatch is the patch version
	VersionPatch = 0
)
