package hooks

import (
	"sort"
	"sync"
)

// A Preset captures a reusable engine configuration under a name. A zero
// Qualifiers or a nil PromiseFactory keeps the builder's current value when
// the preset is applied; StrictMode always applies.
type Preset struct {
	Qualifiers     Qualifiers
	StrictMode     bool
	PromiseFactory PromiseFactory
}

// A PresetRegistry stores named presets. It is an explicit object with
// caller-controlled lifetime; there is no process-wide preset store.
type PresetRegistry struct {
	mu      sync.RWMutex
	presets map[string]Preset
}

// NewPresetRegistry creates an empty PresetRegistry.
func NewPresetRegistry() *PresetRegistry {
	return &PresetRegistry{
		presets: make(map[string]Preset),
	}
}

// Set stores a preset under the name, replacing any previous definition.
func (r *PresetRegistry) Set(name string, p Preset) {
	if name == "" {
		panic("preset name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.presets[name] = p
}

// Get returns the preset stored under the name.
func (r *PresetRegistry) Get(name string) (Preset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.presets[name]

	return p, ok
}

// Remove deletes the preset stored under the name. Unknown names are a
// no-op.
func (r *PresetRegistry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.presets, name)
}

// Names returns the defined preset names, sorted.
func (r *PresetRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.presets))
	for name := range r.presets {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
