// Package field defines the per-field generation rules of a blueprint.
//
// A Rule is one of four kinds:
//
//	*Literal  assign a value unless the reference object already carries one
//	*Single   a nested model built from its own blueprint
//	*List     an ordered slice of nested models, one alias per position
//	*Set      an unordered, unique collection of nested models
//
// The set of kinds is closed; consumers switch on the concrete type.
package field

import (
	"fmt"
	"reflect"
)

// DefaultAlias is the alias used when none is given.
const DefaultAlias = "default"

// Rule describes how one field of a model is populated.
type Rule interface {
	// Name is the Go field name on the model.
	Name() string

	// Target is the type a field policy is scoped to: the field type for
	// literals, the nested model type for references.
	Target() reflect.Type

	rule()
}

// Literal assigns Value unless a present reference value exists and Force is false.
type Literal struct {
	Field     string
	FieldType reflect.Type
	Value     any
	Force     bool
}

func (l *Literal) Name() string         { return l.Field }
func (l *Literal) Target() reflect.Type { return l.FieldType }
func (*Literal) rule()                  {}

// Single holds exactly one nested model of Model.
type Single struct {
	Field    string
	Model    reflect.Type
	Nullable bool
}

func (s *Single) Name() string         { return s.Field }
func (s *Single) Target() reflect.Type { return s.Model }
func (*Single) rule()                  {}

// List holds an ordered slice of nested models.
type List struct {
	Field       string
	Model       reflect.Type
	Collection  reflect.Type
	Count       int
	Aliases     []string
	Force       bool
	IgnoreEmpty bool
}

func (l *List) Name() string         { return l.Field }
func (l *List) Target() reflect.Type { return l.Model }
func (*List) rule()                  {}

// Alias returns the alias configured for position i. Positions beyond the
// configured aliases use DefaultAlias.
func (l *List) Alias(i int) string {
	if i >= 0 && i < len(l.Aliases) {
		return l.Aliases[i]
	}
	return DefaultAlias
}

// Set holds an unordered collection of unique nested models.
type Set struct {
	Field       string
	Model       reflect.Type
	Collection  reflect.Type
	Count       int
	Force       bool
	IgnoreEmpty bool
}

func (s *Set) Name() string         { return s.Field }
func (s *Set) Target() reflect.Type { return s.Model }
func (*Set) rule()                  {}

// Kind returns a short name for the rule's kind.
func Kind(r Rule) string {
	switch r.(type) {
	case *Literal:
		return "default"
	case *Single:
		return "mapped"
	case *List:
		return "list"
	case *Set:
		return "set"
	default:
		return fmt.Sprintf("%T", r)
	}
}
