package factory

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/marshallshelly/modelcitizen/pkg/blueprint"
	"github.com/marshallshelly/modelcitizen/pkg/erector"
	"github.com/marshallshelly/modelcitizen/pkg/field"
	"github.com/marshallshelly/modelcitizen/pkg/policy"
	"github.com/marshallshelly/modelcitizen/pkg/runtime"
	"github.com/marshallshelly/modelcitizen/pkg/template"
)

// CreateOption configures a single build.
type CreateOption = policy.CreateOption

// WithoutPolicies disables blueprint and field policies for the build and
// every nested build it triggers.
func WithoutPolicies() CreateOption {
	return func(o *policy.CreateOptions) { o.WithPolicies = false }
}

func createOptions(opts []CreateOption) policy.CreateOptions {
	o := policy.CreateOptions{WithPolicies: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Create builds a model of type t from its default blueprint.
func (f *Factory) Create(t reflect.Type, opts ...CreateOption) (any, error) {
	return f.CreateAs(DefaultAlias, t, opts...)
}

// CreateAs builds a model of type t from the blueprint registered under alias.
func (f *Factory) CreateAs(alias string, t reflect.Type, opts ...CreateOption) (any, error) {
	return f.create(alias, template.Indirect(t), nil, createOptions(opts), 0)
}

// CreateFrom builds a model of the reference's type from its default
// blueprint. Values already set on reference take precedence over
// unforced blueprint values.
func (f *Factory) CreateFrom(reference any, opts ...CreateOption) (any, error) {
	return f.CreateFromAs(DefaultAlias, reference, opts...)
}

// CreateFromAs is CreateFrom using the blueprint registered under alias.
func (f *Factory) CreateFromAs(alias string, reference any, opts ...CreateOption) (any, error) {
	return f.createFrom(alias, reference, createOptions(opts), 0)
}

func (f *Factory) createFrom(alias string, reference any, o policy.CreateOptions, depth int) (any, error) {
	if reference == nil {
		return nil, &runtime.CreationError{Alias: alias, Err: errors.New("nil reference model")}
	}
	t := template.ModelType(reference)
	if v := reflect.ValueOf(reference); v.Kind() == reflect.Pointer && v.IsNil() {
		reference = nil
	}
	return f.create(alias, t, reference, o, depth)
}

// create runs one build: construct, apply policies, resolve every field
// rule in order, then run the after create hooks.
func (f *Factory) create(alias string, t reflect.Type, reference any, o policy.CreateOptions, depth int) (any, error) {
	fail := func(err error) (any, error) {
		var ce *runtime.CreationError
		if errors.Is(err, runtime.ErrRecursionLimit) && errors.As(err, &ce) {
			return nil, ce
		}
		return nil, &runtime.CreationError{Alias: alias, Target: t, Err: err}
	}

	if depth > f.maxDepth {
		return fail(fmt.Errorf("%w: exceeded depth %d", runtime.ErrRecursionLimit, f.maxDepth))
	}

	e, blueprintPolicies, ok := f.lookup(alias, t)
	if !ok {
		return fail(&runtime.LookupError{Alias: alias, Target: t})
	}

	model, err := e.NewInstance()
	if err != nil {
		return fail(err)
	}
	if reference == nil {
		reference = model
	}
	req := e.NewRequest(reference, depth)

	if o.WithPolicies && len(blueprintPolicies) > 0 {
		f.logger.Debug("Running blueprint policies", "alias", alias, "target", t.String())
		for _, p := range blueprintPolicies {
			f.logger.Info("Processing blueprint policy", "policy", fmt.Sprintf("%T", p))
			cmds, err := p.ProcessBlueprint(f, e, model)
			if err != nil {
				return fail(&runtime.PolicyError{Alias: alias, Target: t, Message: "blueprint policy failed", Err: err})
			}
			req.AddCommands(cmds)
		}
	}

	for _, rule := range e.Rules() {
		if o.WithPolicies {
			for _, p := range f.fieldPoliciesFor(rule.Target()) {
				f.logger.Info("Processing field policy", "policy", fmt.Sprintf("%T", p), "field", rule.Name())
				cmd, err := p.ProcessField(f, e, rule, model)
				if err != nil {
					return fail(&runtime.PolicyError{Alias: alias, Target: t, Message: "field policy failed for " + rule.Name(), Err: err})
				}
				req.AddCommand(rule, cmd)
			}
		}

		if cmds := req.Commands(rule); cmds != field.None {
			f.logger.Debug("Field commands", "field", rule.Name(), "commands", cmds.String())
		}

		model, err = f.resolve(req, rule, model, o)
		if err != nil {
			return fail(err)
		}
	}

	for i, hook := range e.Callbacks(erector.AfterCreate) {
		out, err := hook(model)
		if errors.Is(err, blueprint.ErrHookType) {
			f.logger.Warn("Invalid after create hook", "alias", alias, "target", t.String(), "index", i, "error", err)
			continue
		}
		if err != nil {
			return fail(fmt.Errorf("after create hook %d: %w", i, err))
		}
		if template.IsAbsent(out) {
			return fail(fmt.Errorf("after create hook %d returned no model", i))
		}
		model = out
	}

	return model, nil
}

// resolve applies one field rule to model and returns the possibly
// replaced model.
func (f *Factory) resolve(req *erector.Request, rule field.Rule, model any, o policy.CreateOptions) (any, error) {
	cmds := req.Commands(rule)
	if cmds.Has(field.SkipInjection) {
		return model, nil
	}

	tmpl := req.Erector().Template()
	reference := req.Reference()
	useReference := !cmds.Has(field.SkipReferenceInjection)
	useBlueprint := !cmds.Has(field.SkipBlueprintInjection)
	depth := req.Depth() + 1

	switch r := rule.(type) {
	case *field.Literal:
		var value any
		if useReference {
			v, err := tmpl.Get(reference, r.Field)
			if err != nil {
				return nil, err
			}
			value = v
		}

		if useBlueprint && (template.IsAbsent(value) || r.Force) {
			value = r.Value
		}

		if d, ok := value.(blueprint.Deferred); ok {
			v, err := d.Eval(reference)
			if err != nil {
				return nil, fmt.Errorf("evaluate %s: %w", r.Field, err)
			}
			value = v
		}

		return tmpl.Set(model, r.Field, value)

	case *field.Single:
		var value any
		if useReference {
			v, err := tmpl.Get(reference, r.Field)
			if err != nil {
				return nil, err
			}
			value = v
		}

		if useBlueprint && template.IsAbsent(value) && !r.Nullable {
			nested, err := f.create(DefaultAlias, r.Model, nil, o, depth)
			if err != nil {
				return nil, err
			}
			value = nested
		}

		return tmpl.Set(model, r.Field, value)

	case *field.List:
		out, err := tmpl.Construct(r.Collection)
		if err != nil {
			return nil, err
		}

		existing, err := tmpl.Get(reference, r.Field)
		if err != nil {
			return nil, err
		}

		if useBlueprint {
			elems, err := template.Elements(existing)
			if err != nil {
				return nil, err
			}

			if template.IsAbsent(existing) || r.Force || (len(elems) == 0 && !r.IgnoreEmpty) {
				for i := 0; i < r.Count; i++ {
					nested, err := f.create(r.Alias(i), r.Model, nil, o, depth)
					if err != nil {
						return nil, err
					}
					if out, err = template.Append(out, nested); err != nil {
						return nil, err
					}
				}
			} else {
				for i, elem := range elems {
					nested, err := f.createFrom(r.Alias(i), elem, o, depth)
					if err != nil {
						return nil, err
					}
					if out, err = template.Append(out, nested); err != nil {
						return nil, err
					}
				}
			}
		}

		return tmpl.Set(model, r.Field, out)

	case *field.Set:
		out, err := tmpl.Construct(r.Collection)
		if err != nil {
			return nil, err
		}

		existing, err := tmpl.Get(reference, r.Field)
		if err != nil {
			return nil, err
		}

		if useBlueprint {
			elems, err := template.Elements(existing)
			if err != nil {
				return nil, err
			}

			if template.IsAbsent(existing) || r.Force || (len(elems) == 0 && !r.IgnoreEmpty) {
				for i := 0; i < r.Count; i++ {
					nested, err := f.create(DefaultAlias, r.Model, nil, o, depth)
					if err != nil {
						return nil, err
					}
					if err := template.Insert(out, nested); err != nil {
						return nil, err
					}
				}
			} else {
				for _, elem := range elems {
					nested, err := f.createFrom(DefaultAlias, elem, o, depth)
					if err != nil {
						return nil, err
					}
					if err := template.Insert(out, nested); err != nil {
						return nil, err
					}
				}
			}
		}

		return tmpl.Set(model, r.Field, out)
	}

	return nil, fmt.Errorf("unsupported field rule %T", rule)
}

// Create builds a *T from its default blueprint.
func Create[T any](f *Factory, opts ...CreateOption) (*T, error) {
	return CreateAs[T](f, DefaultAlias, opts...)
}

// CreateAs builds a *T from the blueprint registered under alias.
func CreateAs[T any](f *Factory, alias string, opts ...CreateOption) (*T, error) {
	model, err := f.CreateAs(alias, reflect.TypeFor[T](), opts...)
	return as[T](alias, model, err)
}

// CreateFrom builds a *T using reference as the reference model.
func CreateFrom[T any](f *Factory, reference *T, opts ...CreateOption) (*T, error) {
	return CreateFromAs(f, DefaultAlias, reference, opts...)
}

// CreateFromAs builds a *T under alias using reference as the reference model.
func CreateFromAs[T any](f *Factory, alias string, reference *T, opts ...CreateOption) (*T, error) {
	model, err := f.CreateFromAs(alias, reference, opts...)
	return as[T](alias, model, err)
}

func as[T any](alias string, model any, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	out, ok := model.(*T)
	if !ok {
		return nil, &runtime.CreationError{
			Alias:  alias,
			Target: reflect.TypeFor[T](),
			Err:    fmt.Errorf("built %T, want %T", model, out),
		}
	}
	return out, nil
}
