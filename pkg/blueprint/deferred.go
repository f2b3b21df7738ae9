package blueprint

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Deferred is a literal whose value is computed at build time against the
// reference object.
type Deferred interface {
	Eval(reference any) (any, error)
}

// DeferredFunc adapts a function to Deferred.
type DeferredFunc func(reference any) (any, error)

// Eval implements Deferred.
func (f DeferredFunc) Eval(reference any) (any, error) {
	return f(reference)
}

// UUID returns a literal producing a new random UUID string per build.
func UUID() Deferred {
	return DeferredFunc(func(any) (any, error) {
		id, err := uuid.NewRandom()
		if err != nil {
			return nil, fmt.Errorf("generate uuid: %w", err)
		}
		return id.String(), nil
	})
}

// Sequence returns a literal producing format rendered with an increasing
// counter starting at 1, e.g. Sequence("user%d@example.com").
func Sequence(format string) Deferred {
	var n atomic.Int64
	return DeferredFunc(func(any) (any, error) {
		return fmt.Sprintf(format, n.Add(1)), nil
	})
}
