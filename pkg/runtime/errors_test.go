package runtime

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

type car struct{}

func TestErrorSentinels(t *testing.T) {
	cause := errors.New("boom")
	carType := reflect.TypeOf(car{})

	tests := []struct {
		name     string
		err      error
		sentinel error
		contains string
	}{
		{"registration", &RegistrationError{Blueprint: "Car", Field: "Make", Message: "duplicate rule"}, ErrRegistration, "field Make: duplicate rule"},
		{"policy", &PolicyError{Alias: "cool", Target: carType, Err: cause}, ErrPolicy, "(cool, runtime.car): boom"},
		{"lookup", &LookupError{Alias: "cool", Target: carType}, ErrLookup, "unregistered alias 'cool'"},
		{"template", &TemplateError{Op: "set", Target: carType, Field: "Make", Err: cause}, ErrTemplate, "template set runtime.car.Make: boom"},
		{"creation", &CreationError{Alias: "default", Target: carType, Err: cause}, ErrCreation, "create model (default, runtime.car)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.sentinel)
			}
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Error("sentinel lost through wrapping")
			}
			if !strings.Contains(tt.err.Error(), tt.contains) {
				t.Errorf("Error() = %q, want it to contain %q", tt.err.Error(), tt.contains)
			}
		})
	}
}

func TestCreationError_Chain(t *testing.T) {
	inner := &CreationError{Alias: "default", Target: reflect.TypeOf(car{}), Err: ErrRecursionLimit}
	err := &CreationError{Alias: "cool", Target: reflect.TypeOf(car{}), Err: &LookupError{Alias: "x"}}

	if !errors.Is(inner, ErrRecursionLimit) {
		t.Error("recursion limit should be reachable through Unwrap")
	}
	if !errors.Is(err, ErrLookup) {
		t.Error("lookup error should be reachable through Unwrap")
	}
	if errors.Is(err, ErrRegistration) {
		t.Error("unrelated sentinel matched")
	}

	var lookup *LookupError
	if !errors.As(err, &lookup) || lookup.Alias != "x" {
		t.Errorf("errors.As failed: %v", lookup)
	}
}
