// Package blueprint defines how a model type is populated under an alias.
//
// A Blueprint is usually built with New:
//
//	bp, err := blueprint.New[Car](
//	    blueprint.Alias("cool"),
//	    blueprint.Default("Make", "cool brand"),
//	    blueprint.Mapped("Driver"),
//	    blueprint.MappedList("Wheels", 4, blueprint.Force()),
//	)
//
// or scanned from a tagged definition struct with Scan.
package blueprint

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/marshallshelly/modelcitizen/pkg/field"
	"github.com/marshallshelly/modelcitizen/pkg/template"
)

// DefaultAlias is the alias a blueprint is registered under when none is given.
const DefaultAlias = field.DefaultAlias

// ConstructFunc creates the empty instance a build starts from.
type ConstructFunc func() (any, error)

// Hook runs after every field rule and may replace the built model.
type Hook func(model any) (any, error)

// ErrHookType is returned by a hook handed a model of the wrong type. The
// factory logs and skips such hooks instead of failing the build.
var ErrHookType = errors.New("after create hook type mismatch")

// Blueprint is the resolved definition of how to build one model type.
type Blueprint struct {
	Target      reflect.Type
	Alias       string
	Rules       []field.Rule
	Constructor ConstructFunc
	AfterCreate []Hook
	Template    template.Template

	// Source is the value the blueprint was built from: a tagged definition
	// struct, an HCL definition, or nil for the builder API.
	Source any
}

// Rule returns the rule for the named field, or nil.
func (b *Blueprint) Rule(name string) field.Rule {
	for _, r := range b.Rules {
		if r.Name() == name {
			return r
		}
	}
	return nil
}

// WithAlias returns a shallow copy of b registered under alias.
func (b *Blueprint) WithAlias(alias string) *Blueprint {
	cp := *b
	cp.Alias = alias
	return &cp
}

// String implements fmt.Stringer.
func (b *Blueprint) String() string {
	names := make([]string, 0, len(b.Rules))
	for _, r := range b.Rules {
		names = append(names, field.Kind(r)+":"+r.Name())
	}
	return fmt.Sprintf("Blueprint(%v, %q)[%s]", b.Target, b.Alias, strings.Join(names, ", "))
}

// Initializer is implemented by definition structs that fill their own
// literal values after being allocated by type.
type Initializer interface {
	Init()
}
