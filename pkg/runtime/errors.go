// Package runtime provides the error taxonomy shared by the model factory.
package runtime

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrRegistration is returned when a blueprint definition cannot be registered.
	ErrRegistration = errors.New("blueprint registration failed")

	// ErrPolicy is returned when a policy cannot be attached or fails while processing.
	ErrPolicy = errors.New("policy failed")

	// ErrLookup is returned when no erector exists for an (alias, type) pair.
	ErrLookup = errors.New("blueprint not registered")

	// ErrTemplate is returned when a template cannot construct, read or write a model.
	ErrTemplate = errors.New("template failed")

	// ErrCreation is returned to callers of Create when a build fails.
	ErrCreation = errors.New("model creation failed")

	// ErrRecursionLimit is returned when nested builds exceed the configured depth.
	ErrRecursionLimit = errors.New("recursion limit exceeded")
)

// RegistrationError represents malformed blueprint metadata.
type RegistrationError struct {
	Blueprint string
	Field     string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *RegistrationError) Error() string {
	msg := "registration error"
	if e.Blueprint != "" {
		msg += " for " + e.Blueprint
	}
	if e.Field != "" {
		msg += " field " + e.Field
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrRegistration.
func (e *RegistrationError) Is(target error) bool {
	return target == ErrRegistration
}

// PolicyError represents a policy that could not be attached or that failed.
type PolicyError struct {
	Alias   string
	Target  reflect.Type
	Message string
	Err     error
}

// Error implements the error interface.
func (e *PolicyError) Error() string {
	msg := fmt.Sprintf("policy error for (%s, %v)", e.Alias, e.Target)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *PolicyError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrPolicy.
func (e *PolicyError) Is(target error) bool {
	return target == ErrPolicy
}

// LookupError represents a missing (alias, type) erector.
type LookupError struct {
	Alias  string
	Target reflect.Type
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	return fmt.Sprintf("unregistered alias '%s' for type %v", e.Alias, e.Target)
}

// Is reports whether target is ErrLookup.
func (e *LookupError) Is(target error) bool {
	return target == ErrLookup
}

// TemplateError represents a construct/get/set failure against a model.
type TemplateError struct {
	Op     string
	Target reflect.Type
	Field  string
	Err    error
}

// Error implements the error interface.
func (e *TemplateError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("template %s %v.%s: %v", e.Op, e.Target, e.Field, e.Err)
	}
	return fmt.Sprintf("template %s %v: %v", e.Op, e.Target, e.Err)
}

// Unwrap returns the underlying error.
func (e *TemplateError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrTemplate.
func (e *TemplateError) Is(target error) bool {
	return target == ErrTemplate
}

// CreationError is the umbrella error surfaced by a failed build.
type CreationError struct {
	Alias  string
	Target reflect.Type
	Err    error
}

// Error implements the error interface.
func (e *CreationError) Error() string {
	return fmt.Sprintf("create model (%s, %v): %v", e.Alias, e.Target, e.Err)
}

// Unwrap returns the underlying error.
func (e *CreationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrCreation.
func (e *CreationError) Is(target error) bool {
	return target == ErrCreation
}
