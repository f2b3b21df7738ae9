package blueprint

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/marshallshelly/modelcitizen/pkg/runtime"
)

const (
	// StructTagKey is the key used in definition struct tags (e.g., `mc:"..."`).
	StructTagKey = "mc"
)

// Of marks a definition struct as the blueprint for model type T. The
// alias may be set on the embedded field's tag:
//
//	type CoolCarBlueprint struct {
//	    blueprint.Of[Car] `mc:"alias(cool)"`
//	    Make   string       `mc:"default"`
//	    Wheels []*Wheel     `mc:"list,size(4),force"`
//	}
type Of[T any] struct{}

func (Of[T]) blueprintTarget() reflect.Type { return typeOf[T]() }

type targeter interface {
	blueprintTarget() reflect.Type
}

// NewFunc is a definition field that overrides construction of T. It is
// never inherited from an embedded base definition.
type NewFunc[T any] func() (*T, error)

func (f NewFunc[T]) construct() ConstructFunc {
	if f == nil {
		return nil
	}
	return constructorOf[T](f)
}

// AfterCreateFunc is a definition field run after the fields of T are populated.
type AfterCreateFunc[T any] func(*T) (*T, error)

func (f AfterCreateFunc[T]) hook() Hook {
	if f == nil {
		return nil
	}
	return func(model any) (any, error) {
		m, ok := model.(*T)
		if !ok {
			return nil, fmt.Errorf("%w: expects %T, got %T", ErrHookType, (*T)(nil), model)
		}
		return f(m)
	}
}

type constructorField interface {
	construct() ConstructFunc
}

type hookField interface {
	hook() Hook
}

var (
	targeterType    = reflect.TypeOf((*targeter)(nil)).Elem()
	constructorType = reflect.TypeOf((*constructorField)(nil)).Elem()
	hookType        = reflect.TypeOf((*hookField)(nil)).Elem()
)

// TagOptions represents parsed tag options.
type TagOptions struct {
	Kind    string            // Rule kind (first element)
	Options map[string]string // Other options
}

// Has checks if an option exists.
func (t *TagOptions) Has(key string) bool {
	_, ok := t.Options[key]
	return ok
}

// Get returns the value of an option.
func (t *TagOptions) Get(key string) string {
	return t.Options[key]
}

// ParseTag parses a struct tag value into TagOptions.
// Format: "kind,option1,option2(value),option3"
func ParseTag(tag string) (*TagOptions, error) {
	parts := splitTag(tag)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty tag value")
	}
	opts := &TagOptions{
		Kind:    parts[0],
		Options: make(map[string]string),
	}
	for i := 1; i < len(parts); i++ {
		opt := parts[i]
		// Check if option has a value: option(value) or option:value
		if idx := strings.Index(opt, "("); idx != -1 {
			if !strings.HasSuffix(opt, ")") {
				return nil, fmt.Errorf("invalid option format: %s", opt)
			}
			opts.Options[opt[:idx]] = opt[idx+1 : len(opt)-1]
		} else if idx := strings.Index(opt, ":"); idx != -1 {
			opts.Options[opt[:idx]] = opt[idx+1:]
		} else {
			opts.Options[opt] = ""
		}
	}
	return opts, nil
}

// splitTag splits a tag value by commas, handling nested parentheses.
func splitTag(tag string) []string {
	var parts []string
	var current strings.Builder
	depth := 0
	for _, ch := range tag {
		switch ch {
		case '(':
			depth++
			current.WriteRune(ch)
		case ')':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(current.String()))
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, strings.TrimSpace(current.String()))
	}
	return parts
}

// definitionField is a definition struct field visible after embedding is
// flattened.
type definitionField struct {
	sf    reflect.StructField
	value reflect.Value
}

// Scan builds a blueprint from a tagged definition struct (or pointer to one).
func Scan(def any) (*Blueprint, error) {
	v := reflect.ValueOf(def)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, &runtime.RegistrationError{Message: "nil blueprint definition"}
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, &runtime.RegistrationError{
			Blueprint: fmt.Sprintf("%T", def),
			Message:   "blueprint definition must be a struct",
		}
	}

	name := v.Type().String()
	target, alias, ok := findTarget(v.Type())
	if !ok {
		return nil, &runtime.RegistrationError{
			Blueprint: name,
			Message:   "definition does not embed blueprint.Of[T]",
		}
	}

	fields, err := collectFields(v, false)
	if err != nil {
		return nil, &runtime.RegistrationError{Blueprint: name, Err: err}
	}

	opts := []Option{Alias(alias), WithSource(def)}
	for _, df := range fields {
		ft := df.sf.Type

		if ft.Implements(constructorType) {
			ctor := df.value.Interface().(constructorField).construct()
			if ctor == nil {
				return nil, &runtime.RegistrationError{Blueprint: name, Field: df.sf.Name, Message: "nil constructor"}
			}
			opts = append(opts, withConstructor(ctor))
			continue
		}

		if ft.Implements(hookType) {
			h := df.value.Interface().(hookField).hook()
			if h == nil {
				return nil, &runtime.RegistrationError{Blueprint: name, Field: df.sf.Name, Message: "nil after create hook"}
			}
			opts = append(opts, withHook(h))
			continue
		}

		tag := df.sf.Tag.Get(StructTagKey)
		if tag == "" || tag == "-" {
			continue
		}

		opt, err := ruleFromTag(df, tag)
		if err != nil {
			return nil, &runtime.RegistrationError{Blueprint: name, Field: df.sf.Name, Err: err}
		}
		opts = append(opts, opt)
	}

	return Build(target, opts...)
}

// isMarker reports whether t is an Of[T] instantiation rather than a
// definition that embeds one.
func isMarker(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.NumField() == 0 && t.Implements(targeterType)
}

// findTarget locates the embedded Of[T] marker, preferring the shallowest.
func findTarget(t reflect.Type) (reflect.Type, string, bool) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous && isMarker(sf.Type) {
			alias := DefaultAlias
			if tag := sf.Tag.Get(StructTagKey); tag != "" {
				opts, err := ParseTag("of," + tag)
				if err == nil && opts.Get("alias") != "" {
					alias = opts.Get("alias")
				}
			}
			target := reflect.Zero(sf.Type).Interface().(targeter).blueprintTarget()
			return target, alias, true
		}
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if base, ok := baseType(sf); ok && sf.IsExported() {
			if target, alias, ok := findTarget(base); ok {
				return target, alias, ok
			}
		}
	}
	return nil, "", false
}

// baseType returns the struct type of an embedded field, following one
// level of pointer.
func baseType(sf reflect.StructField) (reflect.Type, bool) {
	if !sf.Anonymous {
		return nil, false
	}
	t := sf.Type
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t, t.Kind() == reflect.Struct
}

// hasRules reports whether struct type t carries anything Scan would read:
// a tagged field, a constructor, a hook or a nested base with any of those.
func hasRules(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		switch {
		case sf.Tag.Get(StructTagKey) != "",
			sf.Type.Implements(constructorType),
			sf.Type.Implements(hookType):
			return true
		}
		if base, ok := baseType(sf); ok && !isMarker(base) && hasRules(base) {
			return true
		}
	}
	return false
}

// collectFields flattens v into its definition fields. Embedded base
// definitions come first and are overridden by same-named outer fields;
// constructors are dropped from bases. A nil pointer base contributes its
// zero value. Unexported bases cannot be read and are rejected when they
// carry rules.
func collectFields(v reflect.Value, isParent bool) ([]definitionField, error) {
	var out []definitionField
	index := make(map[string]int)

	put := func(df definitionField) {
		if i, ok := index[df.sf.Name]; ok {
			out[i] = df
			return
		}
		index[df.sf.Name] = len(out)
		out = append(out, df)
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if base, ok := baseType(sf); ok && !isMarker(base) {
			if !sf.IsExported() {
				if hasRules(base) {
					return nil, fmt.Errorf("embedded base %s is unexported", sf.Name)
				}
				continue
			}

			bv := v.Field(i)
			if bv.Kind() == reflect.Pointer {
				if bv.IsNil() {
					bv = reflect.Zero(base)
				} else {
					bv = bv.Elem()
				}
			}
			fields, err := collectFields(bv, true)
			if err != nil {
				return nil, err
			}
			for _, df := range fields {
				put(df)
			}
			continue
		}
		if !sf.IsExported() || (sf.Anonymous && isMarker(sf.Type)) {
			continue
		}
		if isParent && sf.Type.Implements(constructorType) {
			continue
		}
		put(definitionField{sf: sf, value: v.Field(i)})
	}
	return out, nil
}

// ruleFromTag maps one tagged definition field onto a builder option.
func ruleFromTag(df definitionField, tag string) (Option, error) {
	opts, err := ParseTag(tag)
	if err != nil {
		return nil, err
	}

	var ruleOpts []RuleOption
	if opts.Has("force") {
		ruleOpts = append(ruleOpts, Force())
	}
	if opts.Has("fillEmpty") {
		ruleOpts = append(ruleOpts, IgnoreEmpty(false))
	}

	size := func() (int, error) {
		if !opts.Has("size") {
			return 0, fmt.Errorf("%s requires size(n)", opts.Kind)
		}
		n, err := strconv.Atoi(opts.Get("size"))
		if err != nil {
			return 0, fmt.Errorf("invalid size %q: %w", opts.Get("size"), err)
		}
		return n, nil
	}

	name := df.sf.Name
	switch opts.Kind {
	case "default":
		return Default(name, df.value.Interface(), ruleOpts...), nil

	case "mapped":
		if opts.Has("nullable") {
			ruleOpts = append(ruleOpts, Nullable())
		}
		return Mapped(name, ruleOpts...), nil

	case "list":
		if opts.Has("aliases") {
			aliases := strings.Split(opts.Get("aliases"), "|")
			for i := range aliases {
				aliases[i] = strings.TrimSpace(aliases[i])
			}
			if opts.Has("size") {
				n, err := size()
				if err != nil {
					return nil, err
				}
				if n != len(aliases) {
					return nil, fmt.Errorf("size(%d) does not match %d aliases", n, len(aliases))
				}
			}
			return MappedListByAliases(name, aliases, ruleOpts...), nil
		}
		n, err := size()
		if err != nil {
			return nil, err
		}
		if alias := opts.Get("alias"); alias != "" {
			ruleOpts = append(ruleOpts, ElementAlias(alias))
		}
		return MappedList(name, n, ruleOpts...), nil

	case "set":
		n, err := size()
		if err != nil {
			return nil, err
		}
		return MappedSet(name, n, ruleOpts...), nil
	}

	return nil, fmt.Errorf("unknown rule kind %q", opts.Kind)
}
