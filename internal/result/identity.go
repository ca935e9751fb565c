package result

import (
	"reflect"
	"regexp"

	"github.com/bgricker/testbridge/internal/framework"
)

// casePattern matches the framework's "name(class)" rendering, with an
// optional "[n]" index on the name for parameterized cases.
var casePattern = regexp.MustCompile(`^(\w*(?:\[\d+\])?)\(([\w./-]*)\)`)

// ClassProvider is implemented by tests that know which fixture type they run.
type ClassProvider interface {
	TestClass() reflect.Type
}

// Namer is implemented by tests with a plain name.
type Namer interface {
	Name() string
}

// Identity is the aggregation key of a test. An empty Class means the test
// is tracked as a standalone leaf keyed by Case.
type Identity struct {
	Class string
	Case  string
}

// Key returns the top-level store key.
func (id Identity) Key() string {
	if id.Class != "" {
		return id.Class
	}
	return id.Case
}

// IsCase reports whether id names a case distinct from its class.
func (id Identity) IsCase() bool {
	return id.Class != "" && id.Case != id.Class
}

// Resolve determines the class and case identity of an opaque test.
func Resolve(t framework.Test) Identity {
	if cp, ok := t.(ClassProvider); ok {
		if typ := cp.TestClass(); typ != nil {
			name := framework.QualifiedName(typ)
			return Identity{Class: name, Case: name}
		}
	}
	if m := casePattern.FindStringSubmatch(t.String()); m != nil {
		return Identity{Class: m[2], Case: m[1]}
	}
	if n, ok := t.(Namer); ok && n.Name() != "" {
		return Identity{Case: n.Name()}
	}
	return Identity{Case: t.String()}
}
