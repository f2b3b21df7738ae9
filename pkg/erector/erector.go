// Package erector binds a blueprint to an (alias, type) pair and carries
// the state of a single build.
package erector

import (
	"fmt"
	"reflect"

	"github.com/marshallshelly/modelcitizen/pkg/blueprint"
	"github.com/marshallshelly/modelcitizen/pkg/field"
	"github.com/marshallshelly/modelcitizen/pkg/runtime"
	"github.com/marshallshelly/modelcitizen/pkg/template"
)

// AfterCreate is the callback group run once every field is populated.
const AfterCreate = "afterCreate"

// Erector is the resolved, reusable build context for one (alias, type).
// It is immutable once created; per-build state lives in Request.
type Erector struct {
	alias       string
	target      reflect.Type
	template    template.Template
	rules       []field.Rule
	constructor blueprint.ConstructFunc
	callbacks   map[string][]blueprint.Hook
	blueprint   *blueprint.Blueprint
}

// New creates an Erector for bp registered under alias.
func New(alias string, bp *blueprint.Blueprint) (*Erector, error) {
	if bp == nil {
		return nil, &runtime.RegistrationError{Message: "nil blueprint"}
	}
	if bp.Target == nil {
		return nil, &runtime.RegistrationError{Message: "blueprint has no target type"}
	}
	if alias == "" {
		alias = blueprint.DefaultAlias
	}

	tmpl := bp.Template
	if tmpl == nil {
		tmpl = template.Default
	}

	return &Erector{
		alias:       alias,
		target:      bp.Target,
		template:    tmpl,
		rules:       append([]field.Rule(nil), bp.Rules...),
		constructor: bp.Constructor,
		callbacks: map[string][]blueprint.Hook{
			AfterCreate: append([]blueprint.Hook(nil), bp.AfterCreate...),
		},
		blueprint: bp,
	}, nil
}

// Alias returns the alias the erector is registered under.
func (e *Erector) Alias() string { return e.alias }

// Target returns the model type the erector builds.
func (e *Erector) Target() reflect.Type { return e.target }

// Template returns the template used to construct and populate models.
func (e *Erector) Template() template.Template { return e.template }

// Blueprint returns the blueprint the erector was resolved from.
func (e *Erector) Blueprint() *blueprint.Blueprint { return e.blueprint }

// Rules returns the field rules in registration order.
func (e *Erector) Rules() []field.Rule {
	return append([]field.Rule(nil), e.rules...)
}

// Rule returns the rule for the named field, or nil.
func (e *Erector) Rule(name string) field.Rule {
	for _, r := range e.rules {
		if r.Name() == name {
			return r
		}
	}
	return nil
}

// Callbacks returns the hooks registered under name.
func (e *Erector) Callbacks(name string) []blueprint.Hook {
	return e.callbacks[name]
}

// NewInstance creates the empty model a build starts from, using the
// constructor hook when one was registered.
func (e *Erector) NewInstance() (any, error) {
	if e.constructor != nil {
		model, err := e.constructor()
		if err != nil {
			return nil, fmt.Errorf("constructor for %v: %w", e.target, err)
		}
		if template.IsAbsent(model) {
			return nil, fmt.Errorf("constructor for %v returned nil", e.target)
		}
		return model, nil
	}
	return e.template.Construct(e.target)
}

// String implements fmt.Stringer.
func (e *Erector) String() string {
	return fmt.Sprintf("Erector(%s, %v)", e.alias, e.target)
}

// Request is the state of one build through an Erector. A Request is
// created per build and never shared, so concurrent builds through the
// same Erector do not interfere.
type Request struct {
	erector   *Erector
	reference any
	commands  map[field.Rule]field.Command
	depth     int
}

// NewRequest starts a build against reference at the given nesting depth.
func (e *Erector) NewRequest(reference any, depth int) *Request {
	return &Request{
		erector:   e,
		reference: reference,
		commands:  make(map[field.Rule]field.Command),
		depth:     depth,
	}
}

// Erector returns the erector the request builds through.
func (r *Request) Erector() *Erector { return r.erector }

// Reference returns the object whose field values take precedence over
// blueprint literals.
func (r *Request) Reference() any { return r.reference }

// Depth returns the nesting depth of the build, 0 for a top-level build.
func (r *Request) Depth() int { return r.depth }

// AddCommand adds cmd to the command set of rule.
func (r *Request) AddCommand(rule field.Rule, cmd field.Command) {
	if cmd == field.None {
		return
	}
	r.commands[rule] = r.commands[rule].With(cmd)
}

// AddCommands merges a rule → command mapping into the request.
func (r *Request) AddCommands(cmds map[field.Rule]field.Command) {
	for rule, cmd := range cmds {
		r.AddCommand(rule, cmd)
	}
}

// Commands returns the command set of rule.
func (r *Request) Commands(rule field.Rule) field.Command {
	return r.commands[rule]
}
