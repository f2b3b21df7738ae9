// Package policy provides extension points that inspect a build in progress
// and emit per-field commands.
package policy

import (
	"reflect"

	"github.com/marshallshelly/modelcitizen/pkg/erector"
	"github.com/marshallshelly/modelcitizen/pkg/field"
)

// Creator is the build surface of the model factory available to policies.
type Creator interface {
	CreateAs(alias string, t reflect.Type, opts ...CreateOption) (any, error)
	CreateFromAs(alias string, reference any, opts ...CreateOption) (any, error)
}

// CreateOptions holds per-build settings.
type CreateOptions struct {
	WithPolicies bool
}

// CreateOption configures a single build.
type CreateOption func(*CreateOptions)

// Policy is scoped to a target type.
type Policy interface {
	Target() reflect.Type
}

// FieldPolicy runs once per field rule whose target type matches, before
// the field is resolved, and returns at most one command for that field.
type FieldPolicy interface {
	Policy
	ProcessField(c Creator, e *erector.Erector, rule field.Rule, model any) (field.Command, error)
}

// BlueprintPolicy runs once per build of its target model type, before any
// field is resolved.
type BlueprintPolicy interface {
	Policy
	ProcessBlueprint(c Creator, e *erector.Erector, model any) (map[field.Rule]field.Command, error)
}

// FieldFunc adapts a function to FieldPolicy.
type FieldFunc struct {
	Type reflect.Type
	Fn   func(c Creator, e *erector.Erector, rule field.Rule, model any) (field.Command, error)
}

// Target implements Policy.
func (p FieldFunc) Target() reflect.Type { return p.Type }

// ProcessField implements FieldPolicy.
func (p FieldFunc) ProcessField(c Creator, e *erector.Erector, rule field.Rule, model any) (field.Command, error) {
	return p.Fn(c, e, rule, model)
}

// BlueprintFunc adapts a function to BlueprintPolicy.
type BlueprintFunc struct {
	Type reflect.Type
	Fn   func(c Creator, e *erector.Erector, model any) (map[field.Rule]field.Command, error)
}

// Target implements Policy.
func (p BlueprintFunc) Target() reflect.Type { return p.Type }

// ProcessBlueprint implements BlueprintPolicy.
func (p BlueprintFunc) ProcessBlueprint(c Creator, e *erector.Erector, model any) (map[field.Rule]field.Command, error) {
	return p.Fn(c, e, model)
}

// SkipFields returns a blueprint policy for model type target that applies
// cmd to each named field.
func SkipFields(target reflect.Type, cmd field.Command, names ...string) BlueprintPolicy {
	return BlueprintFunc{
		Type: target,
		Fn: func(_ Creator, e *erector.Erector, _ any) (map[field.Rule]field.Command, error) {
			out := make(map[field.Rule]field.Command, len(names))
			for _, name := range names {
				if rule := e.Rule(name); rule != nil {
					out[rule] = cmd
				}
			}
			return out, nil
		},
	}
}
