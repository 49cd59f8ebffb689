package nvrhi

import "sync"

// Backend identifiers for the built-in and bundled backends.
const (
	// BackendNull is the built-in no-hardware backend. It records barriers
	// and submissions in memory and completes them on demand; every core
	// test runs against it.
	BackendNull = "null"

	// BackendWGPUHAL is the gogpu/wgpu hal backend, registered by
	// importing backend/wgpuhal.
	BackendWGPUHAL = "wgpuhal"
)

// BackendFactory creates a new backend instance.
type BackendFactory func() DeviceBackend

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]BackendFactory)
	// Priority order for backend selection (first available wins).
	// Hardware first, the null backend as fallback.
	backendPriority = []string{BackendWGPUHAL, BackendNull}
)

// RegisterBackend registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it is replaced.
func RegisterBackend(name string, factory BackendFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// UnregisterBackend removes a backend from the registry.
// This is useful for testing.
func UnregisterBackend(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// AvailableBackends returns a list of registered backend names.
func AvailableBackends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	return names
}

// backendByName returns a backend instance by name.
// Returns nil if the backend is not registered.
func backendByName(name string) DeviceBackend {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := backends[name]
	if !ok {
		return nil
	}
	return factory()
}

// defaultBackend returns the best available backend based on priority.
// Returns nil if no backends are registered.
func defaultBackend() DeviceBackend {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range backendPriority {
		if factory, ok := backends[name]; ok {
			if b := factory(); b != nil {
				return b
			}
		}
	}

	// Fallback: return first available
	for _, factory := range backends {
		if b := factory(); b != nil {
			return b
		}
	}

	return nil
}
