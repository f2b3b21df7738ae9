package template

import (
	"fmt"
	"math"
	"reflect"
)

// assign writes value into dst, adapting between T and *T and across
// numeric kinds.
func assign(dst reflect.Value, value any) error {
	if !dst.CanSet() {
		return fmt.Errorf("field of type %v is not settable", dst.Type())
	}

	converted, err := Convert(value, dst.Type())
	if err != nil {
		return err
	}
	dst.Set(converted)
	return nil
}

// Convert adapts value to type t. A nil value becomes the zero value of t.
func Convert(value any, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}

	src := reflect.ValueOf(value)
	st := src.Type()

	switch {
	case st.AssignableTo(t):
		return src, nil

	// *T into a T field
	case st.Kind() == reflect.Pointer && st.Elem().AssignableTo(t):
		if src.IsNil() {
			return reflect.Zero(t), nil
		}
		return src.Elem(), nil

	// T into a *T field
	case t.Kind() == reflect.Pointer && st.AssignableTo(t.Elem()):
		p := reflect.New(t.Elem())
		p.Elem().Set(src)
		return p, nil

	case isNumber(st.Kind()) && isNumber(t.Kind()):
		if err := checkNumber(src, t); err != nil {
			return reflect.Value{}, err
		}
		return src.Convert(t), nil

	case st.Kind() == reflect.String && t.Kind() == reflect.String:
		return src.Convert(t), nil

	case st.Kind() == reflect.Bool && t.Kind() == reflect.Bool:
		return src.Convert(t), nil
	}

	return reflect.Value{}, fmt.Errorf("cannot assign %v to %v", st, t)
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uint64
}

// checkNumber rejects numeric conversions of src to t that would lose the
// integer part of the value: overflow, sign loss or a dropped fraction.
func checkNumber(src reflect.Value, t reflect.Type) error {
	zero := reflect.Zero(t)
	sk := src.Kind()

	switch {
	case isInt(sk):
		n := src.Int()
		switch {
		case isInt(t.Kind()) && zero.OverflowInt(n),
			isUint(t.Kind()) && (n < 0 || zero.OverflowUint(uint64(n))):
			return fmt.Errorf("%d overflows %v", n, t)
		}

	case isUint(sk):
		n := src.Uint()
		switch {
		case isInt(t.Kind()) && (n > math.MaxInt64 || zero.OverflowInt(int64(n))),
			isUint(t.Kind()) && zero.OverflowUint(n):
			return fmt.Errorf("%d overflows %v", n, t)
		}

	default:
		f := src.Float()
		switch {
		case math.IsNaN(f) || math.IsInf(f, 0):
			if t.Kind() != reflect.Float32 && t.Kind() != reflect.Float64 {
				return fmt.Errorf("%v is not representable as %v", f, t)
			}
		case t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64:
			if zero.OverflowFloat(f) {
				return fmt.Errorf("%v overflows %v", f, t)
			}
		case f != math.Trunc(f):
			return fmt.Errorf("%v has a fractional part and cannot be stored in %v", f, t)
		case isInt(t.Kind()):
			if f < math.MinInt64 || f >= math.MaxInt64 || zero.OverflowInt(int64(f)) {
				return fmt.Errorf("%v overflows %v", f, t)
			}
		default:
			if f < 0 || f >= math.MaxUint64 || zero.OverflowUint(uint64(f)) {
				return fmt.Errorf("%v overflows %v", f, t)
			}
		}
	}
	return nil
}

// Append appends elem to the slice collection and returns the new slice.
func Append(collection any, elem any) (any, error) {
	v := reflect.ValueOf(collection)
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("collection must be a slice, got %T", collection)
	}

	e, err := Convert(elem, v.Type().Elem())
	if err != nil {
		return nil, err
	}
	return reflect.Append(v, e).Interface(), nil
}

// Insert adds elem as a key of the map-backed set collection.
func Insert(collection any, elem any) error {
	v := reflect.ValueOf(collection)
	if v.Kind() != reflect.Map || v.IsNil() {
		return fmt.Errorf("collection must be a non-nil map, got %T", collection)
	}

	key, err := Convert(elem, v.Type().Key())
	if err != nil {
		return err
	}

	member := reflect.Zero(v.Type().Elem())
	if v.Type().Elem().Kind() == reflect.Bool {
		member = reflect.ValueOf(true).Convert(v.Type().Elem())
	}
	v.SetMapIndex(key, member)
	return nil
}

// Elements returns the members of a slice, array or map-backed set. A nil
// collection yields nil.
func Elements(collection any) ([]any, error) {
	if collection == nil {
		return nil, nil
	}

	v := reflect.ValueOf(collection)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil, nil
		}
		out := make([]any, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			out = append(out, v.Index(i).Interface())
		}
		return out, nil
	case reflect.Map:
		if v.IsNil() {
			return nil, nil
		}
		out := make([]any, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out = append(out, iter.Key().Interface())
		}
		return out, nil
	}

	return nil, fmt.Errorf("not a collection: %T", collection)
}
