package framework

import (
	"fmt"
	"reflect"
	"strings"
)

// TestMethodPrefix marks fixture methods that are test cases.
const TestMethodPrefix = "Test"

// SetUpper is implemented by fixtures that prepare state before each case.
type SetUpper interface {
	SetUp() error
}

// TearDowner is implemented by fixtures that release state after each case.
type TearDowner interface {
	TearDown() error
}

// Case is one test method of a fixture.
type Case struct {
	name    string
	class   string
	fixture any
	body    func() error
}

// NewCase binds the named method of fixture. The method must take no
// arguments and return either nothing or an error.
func NewCase(fixture any, method string) (*Case, error) {
	v := reflect.ValueOf(fixture)
	m := v.MethodByName(method)
	if !m.IsValid() {
		return nil, fmt.Errorf("method %q not found on %s", method, QualifiedName(v.Type()))
	}
	body, ok := methodBody(m)
	if !ok {
		return nil, fmt.Errorf("method %q on %s has an unsupported signature %s", method, QualifiedName(v.Type()), m.Type())
	}
	return &Case{name: method, class: QualifiedName(v.Type()), fixture: fixture, body: body}, nil
}

// NewFuncCase builds a case from a plain function under the given class name.
func NewFuncCase(class, name string, body func() error) *Case {
	return &Case{name: name, class: class, body: body}
}

func methodBody(m reflect.Value) (func() error, bool) {
	switch fn := m.Interface().(type) {
	case func() error:
		return fn, true
	case func():
		return func() error { fn(); return nil }, true
	default:
		return nil, false
	}
}

// Name returns the method name.
func (c *Case) Name() string { return c.name }

// ClassName returns the fully-qualified fixture name.
func (c *Case) ClassName() string { return c.class }

// CountTestCases implements Test.
func (c *Case) CountTestCases() int { return 1 }

// CreateResult returns a fresh sink for running this case on its own.
func (c *Case) CreateResult() *Result { return NewResult() }

// SetUp runs the fixture's SetUp, if any.
func (c *Case) SetUp() error {
	if s, ok := c.fixture.(SetUpper); ok {
		return s.SetUp()
	}
	return nil
}

// TearDown runs the fixture's TearDown, if any.
func (c *Case) TearDown() error {
	if td, ok := c.fixture.(TearDowner); ok {
		return td.TearDown()
	}
	return nil
}

// RunBare runs set up, the test body and tear down. Tear down runs whenever
// set up succeeded; the first error wins. Result.RunCase reports each phase
// separately, so a body failure there does not hide a tear down error.
func (c *Case) RunBare() (err error) {
	if err := c.SetUp(); err != nil {
		return err
	}
	defer func() {
		tdErr := Protect(c.TearDown)
		if err == nil {
			err = tdErr
		}
	}()
	return Protect(c.body)
}

// Run implements Test.
func (c *Case) Run(result *Result) {
	result.RunCase(c)
}

// String renders the conventional "name(class)" identity.
func (c *Case) String() string {
	return fmt.Sprintf("%s(%s)", c.name, c.class)
}

// TestMethods lists the Test* methods of t in method-set order.
func TestMethods(t reflect.Type) []string {
	var names []string
	for i := 0; i < t.NumMethod(); i++ {
		name := t.Method(i).Name
		if strings.HasPrefix(name, TestMethodPrefix) {
			names = append(names, name)
		}
	}
	return names
}
