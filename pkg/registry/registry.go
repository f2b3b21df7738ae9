// Package registry maps type names to blueprint definitions and model types.
package registry

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// Kind separates the two namespaces a Registry holds.
type Kind int

const (
	// Definitions are blueprint definition structs.
	Definitions Kind = iota
	// Models are the types blueprints build.
	Models
)

func (k Kind) String() string {
	if k == Models {
		return "model"
	}
	return "definition"
}

// Registry is a thread-safe registry of named types.
type Registry struct {
	mu    sync.RWMutex
	types [2]map[string]reflect.Type
	// short names that resolve to more than one qualified name
	ambiguous [2]map[string]bool
}

// NewRegistry creates a new Registry instance.
func NewRegistry() *Registry {
	r := &Registry{}
	r.reset()
	return r
}

func (r *Registry) reset() {
	for i := range r.types {
		r.types[i] = make(map[string]reflect.Type)
		r.ambiguous[i] = make(map[string]bool)
	}
}

// QualifiedName returns the import-path qualified name of t, e.g.
// "github.com/acme/app/fixtures.CarBlueprint".
func QualifiedName(t reflect.Type) string {
	t = indirect(t)
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// RegisterDefinition registers a blueprint definition type, given as a
// value, a pointer or a reflect.Type.
func (r *Registry) RegisterDefinition(def any) error {
	return r.register(Definitions, def)
}

// RegisterModel registers a model type, given as a value, a pointer or a
// reflect.Type.
func (r *Registry) RegisterModel(model any) error {
	return r.register(Models, model)
}

func (r *Registry) register(kind Kind, v any) error {
	t, ok := v.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(v)
	}
	t = indirect(t)
	if t == nil || t.Kind() != reflect.Struct {
		return fmt.Errorf("%s must be a struct, got %v", kind, t)
	}
	if t.Name() == "" {
		return fmt.Errorf("%s must be a named type", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	qualified := QualifiedName(t)
	r.types[kind][qualified] = t

	short := t.Name()
	if short == qualified {
		return nil
	}
	if existing, ok := r.types[kind][short]; ok && existing != t {
		delete(r.types[kind], short)
		r.ambiguous[kind][short] = true
		return nil
	}
	if !r.ambiguous[kind][short] {
		r.types[kind][short] = t
	}
	return nil
}

// Definition looks up a definition type by qualified or short name.
func (r *Registry) Definition(name string) (reflect.Type, error) {
	return r.lookup(Definitions, name)
}

// Model looks up a model type by qualified or short name.
func (r *Registry) Model(name string) (reflect.Type, error) {
	return r.lookup(Models, name)
}

func (r *Registry) lookup(kind Kind, name string) (reflect.Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if t, ok := r.types[kind][name]; ok {
		return t, nil
	}
	if r.ambiguous[kind][name] {
		return nil, fmt.Errorf("%s name %q is ambiguous, use the qualified name", kind, name)
	}
	return nil, fmt.Errorf("%s %q not registered", kind, name)
}

// Has checks if a name is registered in the given namespace.
func (r *Registry) Has(kind Kind, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[kind][name]
	return ok
}

// Definitions returns every registered definition type, sorted by
// qualified name.
func (r *Registry) Definitions() []reflect.Type {
	return r.all(Definitions)
}

// Models returns every registered model type, sorted by qualified name.
func (r *Registry) Models() []reflect.Type {
	return r.all(Models)
}

func (r *Registry) all(kind Kind) []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[reflect.Type]bool, len(r.types[kind]))
	out := make([]reflect.Type, 0, len(r.types[kind]))
	for _, t := range r.types[kind] {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b reflect.Type) int {
		qa, qb := QualifiedName(a), QualifiedName(b)
		switch {
		case qa < qb:
			return -1
		case qa > qb:
			return 1
		}
		return 0
	})
	return out
}

// Clear removes all registered types.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}

func indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// globalRegistry is the default global registry instance, populated by
// generated blueprints.gen.go files.
var globalRegistry = NewRegistry()

// Global returns the default registry.
func Global() *Registry {
	return globalRegistry
}

// RegisterDefinition registers a definition in the global registry.
func RegisterDefinition(def any) error {
	return globalRegistry.RegisterDefinition(def)
}

// RegisterModel registers a model in the global registry.
func RegisterModel(model any) error {
	return globalRegistry.RegisterModel(model)
}

// Definition looks up a definition in the global registry.
func Definition(name string) (reflect.Type, error) {
	return globalRegistry.Definition(name)
}

// Model looks up a model in the global registry.
func Model(name string) (reflect.Type, error) {
	return globalRegistry.Model(name)
}

// Clear clears the global registry.
func Clear() {
	globalRegistry.Clear()
}
