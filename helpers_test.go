package nvrhi

import (
	"strings"
	"sync"
	"testing"
)

// testMessages collects reports for assertions.
type testMessages struct {
	mu      sync.Mutex
	entries []struct {
		severity Severity
		text     string
	}
}

func (m *testMessages) Message(severity Severity, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, struct {
		severity Severity
		text     string
	}{severity, text})
}

func (m *testMessages) count(severity Severity) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.severity == severity {
			n++
		}
	}
	return n
}

func (m *testMessages) contains(substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if strings.Contains(e.text, substr) {
			return true
		}
	}
	return false
}

// newTestDevice creates a device on a fresh null backend. The backend is
// returned for direct inspection.
func newTestDevice(t *testing.T) (*Device, *NullBackend, *testMessages) {
	t.Helper()
	nb := NewNullBackend()
	msgs := &testMessages{}
	d, err := NewDeviceWithBackend(nb, DeviceConfig{MessageCallback: msgs})
	if err != nil {
		t.Fatalf("NewDeviceWithBackend: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d, nb, msgs
}

// openList creates and opens a graphics command list.
func openList(t *testing.T, d *Device) *CommandList {
	t.Helper()
	cl, err := d.CreateCommandList(CommandListParameters{Queue: QueueGraphics, DebugName: t.Name()})
	if err != nil {
		t.Fatalf("CreateCommandList: %v", err)
	}
	if err := cl.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	return cl
}

// mustTexture creates a texture and registers cleanup.
func mustTexture(t *testing.T, d *Device, desc TextureDesc) *Texture {
	t.Helper()
	tex, err := d.CreateTexture(desc)
	if err != nil {
		t.Fatalf("CreateTexture(%q): %v", desc.DebugName, err)
	}
	return tex
}

// mustBuffer creates a buffer.
func mustBuffer(t *testing.T, d *Device, desc BufferDesc) *Buffer {
	t.Helper()
	buf, err := d.CreateBuffer(desc)
	if err != nil {
		t.Fatalf("CreateBuffer(%q): %v", desc.DebugName, err)
	}
	return buf
}

// allBarriers flattens every batch recorded on the command buffer.
func allBarriers(cb *NullCommandBuffer) ([]TextureBarrier, []BufferBarrier, []UAVBarrier) {
	var textures []TextureBarrier
	var buffers []BufferBarrier
	var uavs []UAVBarrier
	for _, batch := range cb.Batches {
		textures = append(textures, batch.Textures...)
		buffers = append(buffers, batch.Buffers...)
		uavs = append(uavs, batch.UAVs...)
	}
	return textures, buffers, uavs
}
