package field

import "strings"

// Command is a set of per-field override flags emitted by policies.
type Command uint8

const (
	// SkipInjection leaves the field untouched.
	SkipInjection Command = 1 << iota

	// SkipReferenceInjection ignores the reference object's value.
	SkipReferenceInjection

	// SkipBlueprintInjection ignores the blueprint's default or nested construction.
	SkipBlueprintInjection
)

// None is the empty command set.
const None Command = 0

// Has reports whether every flag in flag is set.
func (c Command) Has(flag Command) bool {
	return flag != 0 && c&flag == flag
}

// With returns the union of c and other.
func (c Command) With(other Command) Command {
	return c | other
}

// String implements fmt.Stringer.
func (c Command) String() string {
	if c == None {
		return "none"
	}
	var parts []string
	if c.Has(SkipInjection) {
		parts = append(parts, "skipInjection")
	}
	if c.Has(SkipReferenceInjection) {
		parts = append(parts, "skipReferenceInjection")
	}
	if c.Has(SkipBlueprintInjection) {
		parts = append(parts, "skipBlueprintInjection")
	}
	return strings.Join(parts, "|")
}
