package hclblueprint

import (
	"fmt"
	"math/big"
	"reflect"
	"slices"

	"github.com/marshallshelly/modelcitizen/pkg/blueprint"
	"github.com/marshallshelly/modelcitizen/pkg/registry"
	"github.com/marshallshelly/modelcitizen/pkg/runtime"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Resolve converts decoded definitions into blueprints, looking up model
// types in models.
func Resolve(defs []*Definition, models *registry.Registry) ([]*blueprint.Blueprint, error) {
	out := make([]*blueprint.Blueprint, 0, len(defs))
	for _, def := range defs {
		bp, err := def.Blueprint(models)
		if err != nil {
			return nil, err
		}
		out = append(out, bp)
	}
	return out, nil
}

// Blueprint converts d into a blueprint for its registered model type.
func (d *Definition) Blueprint(models *registry.Registry) (*blueprint.Blueprint, error) {
	fail := func(field string, err error) error {
		return &runtime.RegistrationError{Blueprint: d.Model, Field: field, Err: err}
	}

	target, err := models.Model(d.Model)
	if err != nil {
		return nil, fail("", err)
	}

	modelOpt := func(name string) (blueprint.RuleOption, error) {
		if name == "" {
			return nil, nil
		}
		t, err := models.Model(name)
		if err != nil {
			return nil, err
		}
		return blueprint.Model(t), nil
	}

	rules := make(map[string]blueprint.Option)
	put := func(key, field string, opt blueprint.Option) error {
		if _, dup := rules[key]; dup {
			return fail(field, fmt.Errorf("duplicate rule"))
		}
		rules[key] = opt
		return nil
	}

	for _, b := range d.Defaults {
		sf, ok := target.FieldByName(b.Field)
		if !ok {
			return nil, fail(b.Field, fmt.Errorf("no field on %v", target))
		}
		value, err := FromCty(b.Value, sf.Type)
		if err != nil {
			return nil, fail(b.Field, err)
		}
		var opts []blueprint.RuleOption
		if b.Force {
			opts = append(opts, blueprint.Force())
		}
		if err := put("default."+b.Field, b.Field, blueprint.Default(b.Field, value, opts...)); err != nil {
			return nil, err
		}
	}

	for _, b := range d.Mapped {
		var opts []blueprint.RuleOption
		if b.Nullable {
			opts = append(opts, blueprint.Nullable())
		}
		m, err := modelOpt(b.Model)
		if err != nil {
			return nil, fail(b.Field, err)
		}
		if m != nil {
			opts = append(opts, m)
		}
		if err := put("mapped."+b.Field, b.Field, blueprint.Mapped(b.Field, opts...)); err != nil {
			return nil, err
		}
	}

	for _, b := range d.Lists {
		opts := []blueprint.RuleOption{blueprint.IgnoreEmpty(!b.FillEmpty)}
		if b.Force {
			opts = append(opts, blueprint.Force())
		}
		m, err := modelOpt(b.Model)
		if err != nil {
			return nil, fail(b.Field, err)
		}
		if m != nil {
			opts = append(opts, m)
		}

		switch {
		case len(b.Aliases) > 0:
			if b.Size != nil && *b.Size != len(b.Aliases) {
				return nil, fail(b.Field, fmt.Errorf("size %d does not match %d aliases", *b.Size, len(b.Aliases)))
			}
			if err := put("list."+b.Field, b.Field, blueprint.MappedListByAliases(b.Field, b.Aliases, opts...)); err != nil {
				return nil, err
			}
		case b.Size != nil:
			if b.Alias != "" {
				opts = append(opts, blueprint.ElementAlias(b.Alias))
			}
			if err := put("list."+b.Field, b.Field, blueprint.MappedList(b.Field, *b.Size, opts...)); err != nil {
				return nil, err
			}
		default:
			return nil, fail(b.Field, fmt.Errorf("list needs size or aliases"))
		}
	}

	for _, b := range d.Sets {
		opts := []blueprint.RuleOption{blueprint.IgnoreEmpty(!b.FillEmpty)}
		if b.Force {
			opts = append(opts, blueprint.Force())
		}
		m, err := modelOpt(b.Model)
		if err != nil {
			return nil, fail(b.Field, err)
		}
		if m != nil {
			opts = append(opts, m)
		}
		if err := put("set."+b.Field, b.Field, blueprint.MappedSet(b.Field, b.Size, opts...)); err != nil {
			return nil, err
		}
	}

	opts := []blueprint.Option{blueprint.Alias(d.Alias), blueprint.WithSource(d)}
	for _, key := range ruleOrder(d.Order, rules) {
		opts = append(opts, rules[key])
	}
	return blueprint.Build(target, opts...)
}

// ruleOrder returns the keys of rules in source order, followed by any
// rule missing from order in sorted order.
func ruleOrder(order []string, rules map[string]blueprint.Option) []string {
	keys := make([]string, 0, len(rules))
	for _, key := range order {
		if _, ok := rules[key]; ok && !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}

	var rest []string
	for key := range rules {
		if !slices.Contains(keys, key) {
			rest = append(rest, key)
		}
	}
	slices.Sort(rest)
	return append(keys, rest...)
}

// FromCty converts v into a Go value of type t. A null value yields nil.
func FromCty(v cty.Value, t reflect.Type) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("value must be known")
	}

	if t.Kind() == reflect.Interface {
		return ctyToAny(v)
	}

	ptr := reflect.New(t)
	if err := gocty.FromCtyValue(v, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("convert to %v: %w", t, err)
	}
	return ptr.Elem().Interface(), nil
}

// ctyToAny converts primitive values for fields declared as interfaces.
func ctyToAny(v cty.Value) (any, error) {
	switch v.Type() {
	case cty.String:
		return v.AsString(), nil
	case cty.Bool:
		return v.True(), nil
	case cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	}
	return nil, fmt.Errorf("cannot convert %s into an interface field", v.Type().FriendlyName())
}
