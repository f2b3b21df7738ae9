package factory

import (
	"fmt"
	"reflect"

	"github.com/marshallshelly/modelcitizen/pkg/blueprint"
	"github.com/marshallshelly/modelcitizen/pkg/erector"
	"github.com/marshallshelly/modelcitizen/pkg/policy"
	"github.com/marshallshelly/modelcitizen/pkg/runtime"
	"github.com/marshallshelly/modelcitizen/pkg/template"
)

// Register registers bp under its own alias.
func (f *Factory) Register(bp *blueprint.Blueprint) error {
	if bp == nil {
		return &runtime.RegistrationError{Message: "nil blueprint"}
	}
	return f.RegisterAs(bp.Alias, bp)
}

// RegisterAs registers bp under alias. An existing registration for the
// same (alias, type) is replaced.
func (f *Factory) RegisterAs(alias string, bp *blueprint.Blueprint) error {
	if bp == nil {
		return &runtime.RegistrationError{Message: "nil blueprint"}
	}
	if alias == "" {
		alias = DefaultAlias
	}
	if alias != bp.Alias {
		bp = bp.WithAlias(alias)
	}

	e, err := erector.New(alias, bp)
	if err != nil {
		return err
	}

	key := Key{Alias: alias, Target: bp.Target}

	f.mu.Lock()
	_, replaced := f.erectors[key]
	f.blueprints = append(f.blueprints, bp)
	f.erectors[key] = e
	f.mu.Unlock()

	f.logger.Debug("Registered blueprint", "alias", alias, "target", bp.Target.String(), "rules", len(bp.Rules), "replaced", replaced)
	return nil
}

// RegisterDefinition scans a tagged definition struct and registers it
// under the alias named on its blueprint.Of marker.
func (f *Factory) RegisterDefinition(def any) error {
	bp, err := blueprint.Scan(def)
	if err != nil {
		return err
	}
	return f.RegisterAs(bp.Alias, bp)
}

// RegisterDefinitionAs scans a tagged definition struct and registers it
// under alias.
func (f *Factory) RegisterDefinitionAs(alias string, def any) error {
	bp, err := blueprint.Scan(def)
	if err != nil {
		return err
	}
	return f.RegisterAs(alias, bp)
}

// RegisterType allocates a definition of type t, lets it initialise itself
// through blueprint.Initializer, and registers it.
func (f *Factory) RegisterType(t reflect.Type) error {
	return f.RegisterTypeAs("", t)
}

// RegisterTypeAs is RegisterType under alias. An empty alias uses the
// alias named on the definition.
func (f *Factory) RegisterTypeAs(alias string, t reflect.Type) error {
	t = template.Indirect(t)
	if t == nil || t.Kind() != reflect.Struct {
		return &runtime.RegistrationError{
			Blueprint: fmt.Sprint(t),
			Message:   "definition type must be a struct",
		}
	}

	def := reflect.New(t).Interface()
	if init, ok := def.(blueprint.Initializer); ok {
		init.Init()
	}

	bp, err := blueprint.Scan(def)
	if err != nil {
		return err
	}
	if alias == "" {
		alias = bp.Alias
	}
	return f.RegisterAs(alias, bp)
}

// RegisterByName registers the definition registered in the factory's
// registry under name, qualified ("pkgpath.Name") or short.
func (f *Factory) RegisterByName(name string) error {
	return f.RegisterByNameAs("", name)
}

// RegisterByNameAs is RegisterByName under alias.
func (f *Factory) RegisterByNameAs(alias, name string) error {
	t, err := f.registry.Definition(name)
	if err != nil {
		return &runtime.RegistrationError{Blueprint: name, Err: err}
	}
	return f.RegisterTypeAs(alias, t)
}

// RegisterAll registers a mix of *blueprint.Blueprint values, definition
// structs, definition types (reflect.Type) and registered definition names.
// It stops at the first failure.
func (f *Factory) RegisterAll(items ...any) error {
	for _, item := range items {
		var err error
		switch v := item.(type) {
		case *blueprint.Blueprint:
			err = f.Register(v)
		case reflect.Type:
			err = f.RegisterType(v)
		case string:
			err = f.RegisterByName(v)
		default:
			err = f.RegisterDefinition(v)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// AddPolicy adds p for blueprints registered under the default alias.
func (f *Factory) AddPolicy(p policy.Policy) error {
	return f.AddPolicyAs(DefaultAlias, p)
}

// AddPolicyAs adds p, which must implement policy.BlueprintPolicy or
// policy.FieldPolicy. A blueprint must already be registered for
// (alias, p.Target()).
func (f *Factory) AddPolicyAs(alias string, p policy.Policy) error {
	if p == nil || p.Target() == nil {
		return &runtime.PolicyError{Alias: alias, Message: "policy has no target"}
	}
	target := template.Indirect(p.Target())

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.erectors[Key{Alias: alias, Target: target}]; !ok {
		return &runtime.PolicyError{
			Alias:   alias,
			Target:  target,
			Message: "blueprint does not exist for policy target",
		}
	}

	switch p := p.(type) {
	case policy.BlueprintPolicy:
		f.blueprintPolicies[target] = append(f.blueprintPolicies[target], p)
		f.logger.Info("Setting blueprint policy", "alias", alias, "target", target.String(), "policy", fmt.Sprintf("%T", p))
	case policy.FieldPolicy:
		f.fieldPolicies[target] = append(f.fieldPolicies[target], p)
		f.logger.Info("Setting field policy", "alias", alias, "target", target.String(), "policy", fmt.Sprintf("%T", p))
	default:
		return &runtime.PolicyError{
			Alias:   alias,
			Target:  target,
			Message: fmt.Sprintf("%T implements neither BlueprintPolicy nor FieldPolicy", p),
		}
	}
	return nil
}
