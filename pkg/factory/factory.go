// Package factory registers blueprints and builds populated model graphs
// from them.
//
//	f := factory.New()
//	if err := f.RegisterDefinition(CoolCarBlueprint{Make: "cool brand"}); err != nil {
//	    return err
//	}
//	car, err := factory.CreateAs[Car](f, "cool")
package factory

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/marshallshelly/modelcitizen/pkg/blueprint"
	"github.com/marshallshelly/modelcitizen/pkg/erector"
	"github.com/marshallshelly/modelcitizen/pkg/policy"
	"github.com/marshallshelly/modelcitizen/pkg/registry"
	"github.com/marshallshelly/modelcitizen/pkg/template"
)

// DefaultAlias is the alias used when none is given.
const DefaultAlias = blueprint.DefaultAlias

// DefaultMaxDepth bounds the nesting of a single build.
const DefaultMaxDepth = 64

// Key identifies an erector by alias and model type.
type Key struct {
	Alias  string
	Target reflect.Type
}

func (k Key) String() string {
	return fmt.Sprintf("(%s, %v)", k.Alias, k.Target)
}

type options struct {
	logger   *slog.Logger
	registry *registry.Registry
	maxDepth int
}

// Option configures a Factory.
type Option func(*options)

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRegistry sets the registry used to resolve definitions by name.
// Defaults to registry.Global().
func WithRegistry(r *registry.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithMaxDepth sets how deeply nested models may be built before a build
// fails with runtime.ErrRecursionLimit.
func WithMaxDepth(depth int) Option {
	return func(o *options) { o.maxDepth = depth }
}

// Factory holds the blueprint and policy registries and runs builds.
type Factory struct {
	mu                sync.RWMutex
	logger            *slog.Logger
	registry          *registry.Registry
	maxDepth          int
	blueprints        []*blueprint.Blueprint
	erectors          map[Key]*erector.Erector
	fieldPolicies     map[reflect.Type][]policy.FieldPolicy
	blueprintPolicies map[reflect.Type][]policy.BlueprintPolicy
}

// New creates an empty Factory.
func New(opts ...Option) *Factory {
	o := options{
		logger:   slog.New(slog.DiscardHandler),
		registry: registry.Global(),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	return &Factory{
		logger:            o.logger,
		registry:          o.registry,
		maxDepth:          o.maxDepth,
		erectors:          make(map[Key]*erector.Erector),
		fieldPolicies:     make(map[reflect.Type][]policy.FieldPolicy),
		blueprintPolicies: make(map[reflect.Type][]policy.BlueprintPolicy),
	}
}

// Blueprints returns every registered blueprint in registration order.
func (f *Factory) Blueprints() []*blueprint.Blueprint {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]*blueprint.Blueprint(nil), f.blueprints...)
}

// Erectors returns a copy of the (alias, type) → Erector registry.
func (f *Factory) Erectors() map[Key]*erector.Erector {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make(map[Key]*erector.Erector, len(f.erectors))
	for k, e := range f.erectors {
		out[k] = e
	}
	return out
}

// Erector returns the erector registered for (alias, t).
func (f *Factory) Erector(alias string, t reflect.Type) (*erector.Erector, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.erectors[Key{Alias: alias, Target: template.Indirect(t)}]
	return e, ok
}

// FieldPolicies returns a copy of the field policy registry.
func (f *Factory) FieldPolicies() map[reflect.Type][]policy.FieldPolicy {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make(map[reflect.Type][]policy.FieldPolicy, len(f.fieldPolicies))
	for t, ps := range f.fieldPolicies {
		out[t] = append([]policy.FieldPolicy(nil), ps...)
	}
	return out
}

// BlueprintPolicies returns a copy of the blueprint policy registry.
func (f *Factory) BlueprintPolicies() map[reflect.Type][]policy.BlueprintPolicy {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make(map[reflect.Type][]policy.BlueprintPolicy, len(f.blueprintPolicies))
	for t, ps := range f.blueprintPolicies {
		out[t] = append([]policy.BlueprintPolicy(nil), ps...)
	}
	return out
}

func (f *Factory) lookup(alias string, t reflect.Type) (*erector.Erector, []policy.BlueprintPolicy, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.erectors[Key{Alias: alias, Target: t}]
	return e, f.blueprintPolicies[t], ok
}

func (f *Factory) fieldPoliciesFor(t reflect.Type) []policy.FieldPolicy {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.fieldPolicies[template.Indirect(t)]
}
