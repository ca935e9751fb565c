package framework

import (
	"fmt"
	"reflect"
	"sort"
)

// WarningCaseName names the placeholder case added to a fixture suite that
// has no test methods.
const WarningCaseName = "warning"

// Suite is an ordered collection of tests.
type Suite struct {
	name  string
	tests []Test
}

// NewSuite returns an empty suite.
func NewSuite(name string) *Suite {
	return &Suite{name: name}
}

// NewSuiteFromFixture builds a suite with one case per Test* method of
// fixture. A fixture without test methods yields a suite holding a single
// failing placeholder case.
func NewSuiteFromFixture(fixture any) *Suite {
	typ := reflect.TypeOf(fixture)
	class := QualifiedName(typ)
	s := NewSuite(class)
	for _, method := range TestMethods(typ) {
		c, err := NewCase(fixture, method)
		if err != nil {
			s.AddTest(warningCase(class, err.Error()))
			continue
		}
		s.AddTest(c)
	}
	if len(s.tests) == 0 {
		s.AddTest(warningCase(class, fmt.Sprintf("No tests found in %s", class)))
	}
	return s
}

func warningCase(class, msg string) *Case {
	return NewFuncCase(class, WarningCaseName, func() error { return Fail(msg) })
}

// AddTest appends t.
func (s *Suite) AddTest(t Test) {
	s.tests = append(s.tests, t)
}

// Tests returns the contained tests in order.
func (s *Suite) Tests() []Test {
	return append([]Test(nil), s.tests...)
}

// Name returns the suite name.
func (s *Suite) Name() string { return s.name }

// CountTestCases sums the cases of every contained test.
func (s *Suite) CountTestCases() int {
	total := 0
	for _, t := range s.tests {
		total += t.CountTestCases()
	}
	return total
}

// Run runs each contained test in order on result.
func (s *Suite) Run(result *Result) {
	for _, t := range s.tests {
		t.Run(result)
	}
}

func (s *Suite) String() string {
	if s.name == "" {
		return fmt.Sprintf("suite(%d tests)", len(s.tests))
	}
	return s.name
}

// SuiteProvider is implemented by fixtures that assemble their own suite.
type SuiteProvider interface {
	Suite() Test
}

// Registry maps fixture names to fixtures, standing in for loading a test
// class by name.
type Registry struct {
	fixtures map[string]any
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{fixtures: make(map[string]any)}
}

// Register adds fixture under its qualified type name and returns that name.
func (r *Registry) Register(fixture any) string {
	name := QualifiedName(reflect.TypeOf(fixture))
	r.fixtures[name] = fixture
	return name
}

// Lookup returns the fixture registered under name. Short type names are
// accepted when they are unambiguous.
func (r *Registry) Lookup(name string) (any, error) {
	if f, ok := r.fixtures[name]; ok {
		return f, nil
	}
	var match []string
	for full := range r.fixtures {
		if reflect.TypeOf(r.fixtures[full]).String() == name || shortName(full) == name {
			match = append(match, full)
		}
	}
	switch len(match) {
	case 1:
		return r.fixtures[match[0]], nil
	case 0:
		return nil, fmt.Errorf("test class %q is not registered", name)
	default:
		sort.Strings(match)
		return nil, fmt.Errorf("test class %q is ambiguous: %v", name, match)
	}
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fixtures))
	for name := range r.fixtures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func shortName(full string) string {
	for i := len(full) - 1; i >= 0; i-- {
		if full[i] == '/' {
			return full[i+1:]
		}
	}
	return full
}

// Default is the process registry that fixture packages register into
// from their init functions.
var Default = NewRegistry()
