// Package template provides the construct/get/set primitives the model
// factory uses to build model instances.
package template

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/marshallshelly/modelcitizen/pkg/runtime"
)

// Template constructs models and reads and writes their fields.
type Template interface {
	// Construct returns a new empty instance of t. Struct types construct
	// to a pointer, slice and map types to an empty non-nil collection.
	Construct(t reflect.Type) (any, error)

	// Get reads the named field from model.
	Get(model any, field string) (any, error)

	// Set writes value into the named field of model and returns the model.
	Set(model any, field string, value any) (any, error)
}

// StructTemplate is a Template over exported struct fields using reflection.
type StructTemplate struct {
	mu     sync.RWMutex
	fields map[reflect.Type]map[string][]int
}

// NewStructTemplate creates a new StructTemplate instance.
func NewStructTemplate() *StructTemplate {
	return &StructTemplate{
		fields: make(map[reflect.Type]map[string][]int),
	}
}

// Default is the template used by blueprints that do not name one.
var Default Template = NewStructTemplate()

// Construct implements Template.
func (s *StructTemplate) Construct(t reflect.Type) (any, error) {
	if t == nil {
		return nil, &runtime.TemplateError{Op: "construct", Err: errors.New("nil type")}
	}

	switch t.Kind() {
	case reflect.Struct:
		return reflect.New(t).Interface(), nil
	case reflect.Pointer:
		if t.Elem().Kind() == reflect.Struct {
			return reflect.New(t.Elem()).Interface(), nil
		}
	case reflect.Slice:
		return reflect.MakeSlice(t, 0, 0).Interface(), nil
	case reflect.Map:
		return reflect.MakeMap(t).Interface(), nil
	}

	return nil, &runtime.TemplateError{
		Op:     "construct",
		Target: t,
		Err:    fmt.Errorf("unsupported kind %s", t.Kind()),
	}
}

// Get implements Template.
func (s *StructTemplate) Get(model any, name string) (any, error) {
	v, err := structValue(model)
	if err != nil {
		return nil, &runtime.TemplateError{Op: "get", Target: reflect.TypeOf(model), Field: name, Err: err}
	}

	fv, err := s.field(v, name, false)
	if err != nil {
		return nil, &runtime.TemplateError{Op: "get", Target: v.Type(), Field: name, Err: err}
	}

	return fv.Interface(), nil
}

// Set implements Template.
func (s *StructTemplate) Set(model any, name string, value any) (any, error) {
	rv := reflect.ValueOf(model)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, &runtime.TemplateError{
			Op:     "set",
			Target: reflect.TypeOf(model),
			Field:  name,
			Err:    errors.New("model must be a non-nil pointer to a struct"),
		}
	}

	fv, err := s.field(rv.Elem(), name, true)
	if err != nil {
		return nil, &runtime.TemplateError{Op: "set", Target: rv.Elem().Type(), Field: name, Err: err}
	}

	if err := assign(fv, value); err != nil {
		return nil, &runtime.TemplateError{Op: "set", Target: rv.Elem().Type(), Field: name, Err: err}
	}

	return model, nil
}

// field walks the index path of name on v. A nil embedded pointer on the
// way is allocated when alloc is set; otherwise the zero value of the
// field is returned.
func (s *StructTemplate) field(v reflect.Value, name string, alloc bool) (reflect.Value, error) {
	index, err := s.index(v.Type(), name)
	if err != nil {
		return reflect.Value{}, err
	}

	fv := v
	for i, x := range index {
		if i > 0 && fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				if !alloc {
					return reflect.Zero(v.Type().FieldByIndex(index).Type), nil
				}
				if !fv.CanSet() {
					return reflect.Value{}, fmt.Errorf("cannot allocate embedded %v", fv.Type())
				}
				fv.Set(reflect.New(fv.Type().Elem()))
			}
			fv = fv.Elem()
		}
		fv = fv.Field(x)
	}
	return fv, nil
}

// index resolves and caches the field index path of name on t.
func (s *StructTemplate) index(t reflect.Type, name string) ([]int, error) {
	s.mu.RLock()
	byName, ok := s.fields[t]
	s.mu.RUnlock()

	if !ok {
		byName = make(map[string][]int)
		for _, f := range reflect.VisibleFields(t) {
			if f.IsExported() {
				byName[f.Name] = f.Index
			}
		}

		s.mu.Lock()
		s.fields[t] = byName
		s.mu.Unlock()
	}

	index, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("no exported field %s", name)
	}
	return index, nil
}

// structValue dereferences model down to its struct value.
func structValue(model any) (reflect.Value, error) {
	v := reflect.ValueOf(model)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, errors.New("nil model")
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("model must be a struct, got %s", v.Kind())
	}
	return v, nil
}

// Indirect dereferences pointer types.
func Indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// ModelType returns the struct type behind model.
func ModelType(model any) reflect.Type {
	return Indirect(reflect.TypeOf(model))
}

// IsAbsent reports whether v counts as "no value": nil, a nil pointer,
// slice, map or interface, or the zero value of a scalar or struct. An
// empty but non-nil slice or map is present.
func IsAbsent(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return rv.IsNil()
	default:
		return rv.IsZero()
	}
}
