package capability

import (
	"fmt"
	"sort"
	"sync"
)

// Lookup resolves a capability by name. It is the only view the
// orchestrator has of the catalogue.
type Lookup interface {
	Get(name string) (Capability, bool)
}

// Metadata describes a capability for discovery and planning.
type Metadata struct {
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// DependsOn lists capabilities whose outputs this one consumes. They are
	// merged into every submitted task for this capability.
	DependsOn []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	// Provides names the keys this capability contributes to dependents.
	Provides []string `json:"provides,omitempty" yaml:"provides,omitempty"`
}

// Descriptor is a registered capability's public description.
type Descriptor struct {
	Name string `json:"name" yaml:"name"`
	Metadata
}

type entry struct {
	cap  Capability
	meta Metadata
}

// Registry is a concurrency-safe catalogue of capabilities. It is populated
// at startup and read concurrently afterwards.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	wrap    Middleware
}

// NewRegistry creates an empty registry. Middlewares are applied to every
// capability at registration time.
func NewRegistry(middlewares ...Middleware) *Registry {
	return &Registry{
		entries: make(map[string]entry),
		wrap:    Chain(middlewares...),
	}
}

// Register adds a capability. Registering a name twice is an error.
func (r *Registry) Register(c Capability, meta ...Metadata) error {
	if c == nil {
		return fmt.Errorf("capability: nil capability")
	}
	name := c.Name()
	if name == "" {
		return fmt.Errorf("capability: empty name")
	}

	var m Metadata
	if len(meta) > 0 {
		m = meta[0]
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("capability %q already registered", name)
	}
	r.entries[name] = entry{cap: r.wrap(c), meta: m}
	return nil
}

// MustRegister is Register that panics on error, for startup wiring.
func (r *Registry) MustRegister(c Capability, meta ...Metadata) {
	if err := r.Register(c, meta...); err != nil {
		panic(err)
	}
}

// Get returns the capability registered under name.
func (r *Registry) Get(name string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.cap, ok
}

// Metadata returns the metadata registered with name.
func (r *Registry) Metadata(name string) (Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.meta, ok
}

// Names returns sorted names of all registered capabilities.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns descriptors of all registered capabilities sorted by name.
func (r *Registry) List() []Descriptor {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(names))
	for _, name := range names {
		e, ok := r.entries[name]
		if !ok {
			continue
		}
		out = append(out, Descriptor{Name: name, Metadata: e.meta})
	}
	return out
}

// Len returns the number of registered capabilities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Map is a plain name-to-capability table satisfying Lookup. It suits tests
// and callers that build their catalogue once and never change it.
type Map map[string]Capability

// Get implements Lookup.
func (m Map) Get(name string) (Capability, bool) {
	c, ok := m[name]
	return c, ok
}

// MetadataSource is implemented by catalogues that carry Metadata.
type MetadataSource interface {
	Metadata(name string) (Metadata, bool)
}

var (
	_ Lookup         = (*Registry)(nil)
	_ Lookup         = Map(nil)
	_ MetadataSource = (*Registry)(nil)
)
