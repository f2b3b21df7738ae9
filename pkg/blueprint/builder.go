package blueprint

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/marshallshelly/modelcitizen/pkg/field"
	"github.com/marshallshelly/modelcitizen/pkg/runtime"
	"github.com/marshallshelly/modelcitizen/pkg/template"
)

type ruleKind int

const (
	kindLiteral ruleKind = iota
	kindSingle
	kindList
	kindSet
)

// pendingRule is a field rule before its types are resolved against the model.
type pendingRule struct {
	kind  ruleKind
	name  string
	value any
	count int
	cfg   ruleConfig
}

type ruleConfig struct {
	force       bool
	nullable    bool
	ignoreEmpty bool
	model       reflect.Type
	collection  reflect.Type
	alias       string
	aliases     []string
}

// RuleOption configures a single field rule.
type RuleOption func(*ruleConfig)

// Force makes the blueprint value win over the reference object's value.
func Force() RuleOption {
	return func(c *ruleConfig) { c.force = true }
}

// Nullable leaves an absent nested model absent instead of building one.
func Nullable() RuleOption {
	return func(c *ruleConfig) { c.nullable = true }
}

// IgnoreEmpty controls whether an empty reference collection is kept empty
// (true, the default) or populated to the configured size (false).
func IgnoreEmpty(ignore bool) RuleOption {
	return func(c *ruleConfig) { c.ignoreEmpty = ignore }
}

// Model overrides the nested model type, which otherwise comes from the
// field's declared type.
func Model(t reflect.Type) RuleOption {
	return func(c *ruleConfig) { c.model = template.Indirect(t) }
}

// Collection overrides the slice or map type constructed for a list or set.
func Collection(t reflect.Type) RuleOption {
	return func(c *ruleConfig) { c.collection = t }
}

// ElementAlias builds every list element under alias.
func ElementAlias(alias string) RuleOption {
	return func(c *ruleConfig) { c.alias = alias }
}

type builder struct {
	alias       string
	rules       []pendingRule
	constructor ConstructFunc
	ctorType    reflect.Type
	hooks       []Hook
	hookTypes   []reflect.Type
	template    template.Template
	source      any
}

// Option configures a blueprint.
type Option func(*builder)

// Alias sets the alias the blueprint registers under.
func Alias(alias string) Option {
	return func(b *builder) { b.alias = alias }
}

// Default adds a literal rule. value may be a Deferred.
func Default(name string, value any, opts ...RuleOption) Option {
	return addRule(pendingRule{kind: kindLiteral, name: name, value: value}, opts)
}

// Mapped adds a nested single model rule.
func Mapped(name string, opts ...RuleOption) Option {
	return addRule(pendingRule{kind: kindSingle, name: name}, opts)
}

// MappedList adds a list rule of size nested models.
func MappedList(name string, size int, opts ...RuleOption) Option {
	return addRule(pendingRule{kind: kindList, name: name, count: size}, opts)
}

// MappedListByAliases adds a list rule with one nested model per alias.
func MappedListByAliases(name string, aliases []string, opts ...RuleOption) Option {
	opts = append(opts, func(c *ruleConfig) { c.aliases = append([]string(nil), aliases...) })
	return addRule(pendingRule{kind: kindList, name: name, count: len(aliases)}, opts)
}

// MappedSet adds a set rule of size nested models.
func MappedSet(name string, size int, opts ...RuleOption) Option {
	return addRule(pendingRule{kind: kindSet, name: name, count: size}, opts)
}

// Construct overrides how the empty instance is created.
func Construct[T any](fn func() (*T, error)) Option {
	return func(b *builder) {
		b.ctorType = typeOf[T]()
		if fn == nil {
			b.constructor = nil
			return
		}
		b.constructor = constructorOf(fn)
	}
}

// constructorOf adapts fn so that a nil *T comes back as an untyped nil.
func constructorOf[T any](fn func() (*T, error)) ConstructFunc {
	return func() (any, error) {
		m, err := fn()
		if err != nil || m == nil {
			return nil, err
		}
		return m, nil
	}
}

// AfterCreate appends a hook run once every field rule has been applied.
func AfterCreate[T any](fn func(*T) (*T, error)) Option {
	return func(b *builder) {
		b.hookTypes = append(b.hookTypes, typeOf[T]())
		if fn == nil {
			b.hooks = append(b.hooks, nil)
			return
		}
		b.hooks = append(b.hooks, func(model any) (any, error) {
			m, ok := model.(*T)
			if !ok {
				return nil, fmt.Errorf("%w: expects %T, got %T", ErrHookType, (*T)(nil), model)
			}
			return fn(m)
		})
	}
}

// WithTemplate sets the template used to construct and populate models.
func WithTemplate(t template.Template) Option {
	return func(b *builder) { b.template = t }
}

// WithSource records the definition a blueprint was built from.
func WithSource(src any) Option {
	return func(b *builder) { b.source = src }
}

func withHook(h Hook) Option {
	return func(b *builder) {
		b.hooks = append(b.hooks, h)
		b.hookTypes = append(b.hookTypes, nil)
	}
}

func withConstructor(c ConstructFunc) Option {
	return func(b *builder) { b.constructor = c }
}

func addRule(r pendingRule, opts []RuleOption) Option {
	return func(b *builder) {
		r.cfg.ignoreEmpty = true
		for _, opt := range opts {
			opt(&r.cfg)
		}
		b.rules = append(b.rules, r)
	}
}

// New builds a blueprint for model type T.
func New[T any](opts ...Option) (*Blueprint, error) {
	return Build(typeOf[T](), opts...)
}

// MustNew is like New but panics on error.
func MustNew[T any](opts ...Option) *Blueprint {
	bp, err := New[T](opts...)
	if err != nil {
		panic(err)
	}
	return bp
}

// Build builds a blueprint for the struct type target.
func Build(target reflect.Type, opts ...Option) (*Blueprint, error) {
	target = template.Indirect(target)
	if target == nil || target.Kind() != reflect.Struct {
		return nil, &runtime.RegistrationError{
			Blueprint: fmt.Sprint(target),
			Message:   "blueprint target must be a struct",
		}
	}

	b := &builder{alias: DefaultAlias}
	for _, opt := range opts {
		opt(b)
	}

	bp := &Blueprint{
		Target:   target,
		Alias:    b.alias,
		Rules:    make([]field.Rule, 0, len(b.rules)),
		Template: b.template,
		Source:   b.source,
	}
	if bp.Template == nil {
		bp.Template = template.Default
	}
	if bp.Alias == "" {
		bp.Alias = DefaultAlias
	}

	fail := func(name, format string, args ...any) error {
		return &runtime.RegistrationError{
			Blueprint: target.String(),
			Field:     name,
			Message:   fmt.Sprintf(format, args...),
		}
	}

	seen := make(map[string]bool, len(b.rules))
	for _, pr := range b.rules {
		if seen[pr.name] {
			return nil, fail(pr.name, "duplicate rule")
		}
		seen[pr.name] = true

		sf, ok := target.FieldByName(pr.name)
		if !ok || !sf.IsExported() {
			return nil, fail(pr.name, "no exported field on %v", target)
		}

		rule, err := resolve(pr, sf.Type)
		if err != nil {
			return nil, fail(pr.name, "%v", err)
		}
		bp.Rules = append(bp.Rules, rule)
	}

	if b.constructor != nil {
		if b.ctorType != nil && b.ctorType != target {
			return nil, fail("", "constructor builds %v", b.ctorType)
		}
		bp.Constructor = b.constructor
	}

	for i, h := range b.hooks {
		if h == nil {
			return nil, fail("", "nil after create hook")
		}
		if ht := b.hookTypes[i]; ht != nil && ht != target {
			return nil, fail("", "after create hook expects %v", ht)
		}
		bp.AfterCreate = append(bp.AfterCreate, h)
	}

	return bp, nil
}

// resolve turns a pending rule into a typed field rule for a model field
// of type ft.
func resolve(pr pendingRule, ft reflect.Type) (field.Rule, error) {
	cfg := pr.cfg

	switch pr.kind {
	case kindLiteral:
		if _, deferred := pr.value.(Deferred); !deferred {
			if _, err := template.Convert(pr.value, ft); err != nil {
				return nil, err
			}
		}
		return &field.Literal{Field: pr.name, FieldType: ft, Value: pr.value, Force: cfg.force}, nil

	case kindSingle:
		model := cfg.model
		if model == nil {
			model = template.Indirect(ft)
		}
		if model.Kind() != reflect.Struct {
			return nil, fmt.Errorf("mapped target %v is not a struct", model)
		}
		if !acceptsModel(ft, model) {
			return nil, fmt.Errorf("field type %v cannot hold %v", ft, model)
		}
		return &field.Single{Field: pr.name, Model: model, Nullable: cfg.nullable}, nil

	case kindList:
		collection := cfg.collection
		if collection == nil {
			collection = ft
		}
		if collection.Kind() != reflect.Slice {
			return nil, fmt.Errorf("list collection %v must be a slice", collection)
		}
		if !collection.AssignableTo(ft) {
			return nil, fmt.Errorf("list collection %v is not assignable to %v", collection, ft)
		}
		model := cfg.model
		if model == nil {
			model = template.Indirect(collection.Elem())
		}
		if model.Kind() != reflect.Struct {
			return nil, fmt.Errorf("list target %v is not a struct", model)
		}
		if !acceptsModel(collection.Elem(), model) {
			return nil, fmt.Errorf("list collection %v cannot hold %v", collection, model)
		}
		if pr.count < 0 {
			return nil, errors.New("negative list size")
		}

		aliases := cfg.aliases
		if aliases == nil {
			alias := cfg.alias
			if alias == "" {
				alias = DefaultAlias
			}
			aliases = make([]string, pr.count)
			for i := range aliases {
				aliases[i] = alias
			}
		}
		if len(aliases) != pr.count {
			return nil, fmt.Errorf("list size %d does not match %d aliases", pr.count, len(aliases))
		}

		return &field.List{
			Field:       pr.name,
			Model:       model,
			Collection:  collection,
			Count:       pr.count,
			Aliases:     aliases,
			Force:       cfg.force,
			IgnoreEmpty: cfg.ignoreEmpty,
		}, nil

	case kindSet:
		collection := cfg.collection
		if collection == nil {
			collection = ft
		}
		if collection.Kind() != reflect.Map {
			return nil, fmt.Errorf("set collection %v must be a map", collection)
		}
		if !collection.AssignableTo(ft) {
			return nil, fmt.Errorf("set collection %v is not assignable to %v", collection, ft)
		}
		if ek := collection.Elem(); ek.Kind() != reflect.Bool && !(ek.Kind() == reflect.Struct && ek.NumField() == 0) {
			return nil, fmt.Errorf("set collection %v must map to struct{} or bool", collection)
		}
		model := cfg.model
		if model == nil {
			model = template.Indirect(collection.Key())
		}
		if model.Kind() != reflect.Struct {
			return nil, fmt.Errorf("set target %v is not a struct", model)
		}
		if !acceptsModel(collection.Key(), model) {
			return nil, fmt.Errorf("set collection %v cannot hold %v", collection, model)
		}
		if pr.count < 0 {
			return nil, errors.New("negative set size")
		}

		return &field.Set{
			Field:       pr.name,
			Model:       model,
			Collection:  collection,
			Count:       pr.count,
			Force:       cfg.force,
			IgnoreEmpty: cfg.ignoreEmpty,
		}, nil
	}

	return nil, fmt.Errorf("unknown rule kind %d", pr.kind)
}

// acceptsModel reports whether a slot of type slot can hold a built model
// of type model, either as *model or model.
func acceptsModel(slot, model reflect.Type) bool {
	ptr := reflect.PointerTo(model)
	return ptr.AssignableTo(slot) || model.AssignableTo(slot)
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
