// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"caregiver-matching/internal/engines"
)

var (
	ErrUnknownEngine   = errors.New("UNKNOWN_ENGINE")
	ErrDuplicateEngine = errors.New("DUPLICATE_ENGINE")
)

// LoadCatalog reads engine descriptors from a JSON file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cat Catalog
	err = json.Unmarshal(data, &cat)
	return &cat, err
}

// Entry is a registered engine with its descriptor.
type Entry struct {
	Engine     engines.MatchingEngine
	Descriptor Descriptor
	Default    bool
}

// Registry is the explicit engine table built at startup.
type Registry struct {
	mu          sync.RWMutex
	engines     map[string]engines.MatchingEngine
	descriptors map[string]Descriptor
	order       []string
	defaultName string
	catalog     *Catalog
}

// New creates an empty registry. catalog may be nil.
func New(defaultName string, catalog *Catalog) *Registry {
	return &Registry{
		engines:     make(map[string]engines.MatchingEngine),
		descriptors: make(map[string]Descriptor),
		defaultName: defaultName,
		catalog:     catalog,
	}
}

// Register adds an engine under its own name.
func (r *Registry) Register(e engines.MatchingEngine) error {
	name := e.Name()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.engines[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateEngine, name)
	}

	d, ok := r.catalog.Lookup(name)
	if !ok {
		d = Descriptor{Name: name, DisplayName: name}
	}

	r.engines[name] = e
	r.descriptors[name] = d
	r.order = append(r.order, name)
	return nil
}

// Resolve returns the engine called name, or the default engine when name is empty.
func (r *Registry) Resolve(name string) (engines.MatchingEngine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaultName
	}
	e, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, name)
	}
	return e, nil
}

// Names lists engine names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Default() string {
	return r.defaultName
}

// Entries lists registered engines in registration order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, Entry{
			Engine:     r.engines[name],
			Descriptor: r.descriptors[name],
			Default:    name == r.defaultName,
		})
	}
	return out
}

// Validate checks that the default engine is registered.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.engines[r.defaultName]; !ok {
		return fmt.Errorf("%w: default engine %s is not registered", ErrUnknownEngine, r.defaultName)
	}
	return nil
}
