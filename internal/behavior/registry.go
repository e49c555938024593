package behavior

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound reports a Create miss after the legacy-id fallback.
var ErrNotFound = errors.New("behavior not found")

// legacyPrefix is the identifier prefix older documents carry. Create
// bridges both directions so old content loads against new registrations
// and vice versa without a rename migration.
const legacyPrefix = "Task_"

// Registry maps behavior identifiers to task factories. It is constructed
// explicitly and injected into the engine and loader; registration happens
// at startup, before ticking begins, so lookups run without locking.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds a factory to an id. A later registration for the same id
// silently replaces the earlier one, which is what module hot-reload wants.
func (r *Registry) Register(id string, factory Factory) {
	if r == nil || id == "" || factory == nil {
		return
	}
	r.factories[id] = factory
}

// Create instantiates the task registered under the id, trying the exact
// form first and then the complementary legacy/short form.
func (r *Registry) Create(id string) (Task, error) {
	factory, ok := r.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return factory(), nil
}

// IsRegistered reports whether an id resolves, including via the legacy
// bridge.
func (r *Registry) IsRegistered(id string) bool {
	_, ok := r.lookup(id)
	return ok
}

func (r *Registry) lookup(id string) (Factory, bool) {
	if r == nil || id == "" {
		return nil, false
	}
	if factory, ok := r.factories[id]; ok {
		return factory, true
	}
	if alt, ok := strings.CutPrefix(id, legacyPrefix); ok {
		if factory, found := r.factories[alt]; found {
			return factory, true
		}
		return nil, false
	}
	factory, ok := r.factories[legacyPrefix+id]
	return factory, ok
}

// IDs returns every registered identifier in sorted order for editor
// enumeration.
func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
