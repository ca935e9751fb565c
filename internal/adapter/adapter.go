// Package adapter wraps the different kinds of test artifacts as units the
// framework can run under one shared listener.
package adapter

import (
	"context"
	"fmt"
	"reflect"

	"github.com/bgricker/testbridge/internal/failure"
	"github.com/bgricker/testbridge/internal/framework"
	"github.com/bgricker/testbridge/internal/result"
	"github.com/bgricker/testbridge/internal/script"
)

// Unit is one runnable, nameable test artifact.
type Unit interface {
	framework.Test
	Name() string
	SetUp() error
	TearDown() error
}

var (
	_ Unit = (*ScriptTest)(nil)
	_ Unit = (*WrappedCase)(nil)
	_ Unit = (*WrappedSuite)(nil)
)

// ScriptTest runs one script as a single test case.
type ScriptTest struct {
	ref      script.Ref
	resolver script.Resolver
	listener framework.Listener
	// ctx is handed to the script's phases; framework tests run without one.
	ctx context.Context
}

// NewScriptTest wraps the script at ref. listener, when non-nil, is
// registered on the sink the unit runs in.
func NewScriptTest(ctx context.Context, ref script.Ref, resolver script.Resolver, listener framework.Listener) *ScriptTest {
	if ctx == nil {
		ctx = context.Background()
	}
	if resolver == nil {
		resolver = script.Default
	}
	return &ScriptTest{ref: ref, resolver: resolver, listener: listener, ctx: ctx}
}

// Name is the script's module identity.
func (s *ScriptTest) Name() string { return s.ref.Module }

// Ref returns the script location.
func (s *ScriptTest) Ref() script.Ref { return s.ref }

func (s *ScriptTest) String() string { return s.ref.Module }

// CountTestCases implements framework.Test. A script is one case.
func (s *ScriptTest) CountTestCases() int { return 1 }

// SetUp implements Unit; scripts carry their own hooks.
func (s *ScriptTest) SetUp() error { return nil }

// TearDown implements Unit.
func (s *ScriptTest) TearDown() error { return nil }

// Run resolves and loads the script, then calls its optional hooks. Each
// phase recovers on its own and turns what it raised into an error event.
// Tear down only runs once the script loaded. A nil res runs the script in
// a throwaway sink, as Execute does.
func (s *ScriptTest) Run(res *framework.Result) {
	if res == nil {
		res = framework.NewResult()
	}
	attach(res, s.listener)
	res.StartTest(s)
	defer res.EndTest(s)

	a := script.NewAsserter(s, res)
	sc, err := s.resolver.Resolve(s.ref)
	if err != nil {
		s.report(res, err)
		return
	}
	if err := framework.Protect(func() error { return sc.Load(s.ctx, a) }); err != nil {
		s.report(res, err)
		return
	}
	if h, ok := sc.(script.SetUpper); ok {
		s.report(res, framework.Protect(func() error { return h.SetUp(s.ctx, a) }))
	}
	if h, ok := sc.(script.RunTester); ok {
		s.report(res, framework.Protect(func() error { return h.RunTest(s.ctx, a) }))
	}
	if h, ok := sc.(script.TearDowner); ok {
		s.report(res, framework.Protect(func() error { return h.TearDown(s.ctx, a) }))
	}
}

// report routes every raised value through AddError; assertion-kind
// values become failures at the collector.
func (s *ScriptTest) report(res *framework.Result, err error) {
	if err == nil {
		return
	}
	if framework.IsAssertion(err) {
		res.AddError(s, err)
		return
	}
	var pcs []uintptr
	if pe, ok := err.(*framework.PanicError); ok {
		pcs = pe.PCs
		if inner := pe.Unwrap(); inner != nil {
			err = inner
		}
	}
	res.AddError(s, failure.NewScriptError(err, pcs, 1))
}

// WrappedCase adapts a host framework test so the shared listener observes
// it, including events it emits on its own.
type WrappedCase struct {
	test     framework.Test
	listener framework.Listener
	class    reflect.Type
}

// NewWrappedCase wraps test.
func NewWrappedCase(test framework.Test, listener framework.Listener) *WrappedCase {
	return &WrappedCase{test: test, listener: listener}
}

// Test returns the wrapped delegate.
func (w *WrappedCase) Test() framework.Test { return w.test }

// Name is the delegate's name.
func (w *WrappedCase) Name() string {
	if n, ok := w.test.(result.Namer); ok {
		return n.Name()
	}
	return w.test.String()
}

// String is the fixture class for wrapped suites and the delegate's own
// rendering otherwise, so both aggregate where the delegate's cases do.
func (w *WrappedCase) String() string {
	if w.class != nil {
		return framework.QualifiedName(w.class)
	}
	return w.test.String()
}

// TestClass implements result.ClassProvider when the delegate is a
// fixture suite, so its cases aggregate under the fixture's class.
func (w *WrappedCase) TestClass() reflect.Type { return w.class }

// CountTestCases implements framework.Test.
func (w *WrappedCase) CountTestCases() int { return w.test.CountTestCases() }

// SetUp implements Unit; the delegate handles its own fixture hooks.
func (w *WrappedCase) SetUp() error { return nil }

// TearDown implements Unit.
func (w *WrappedCase) TearDown() error { return nil }

// Run registers the shared listener exactly once, then runs the delegate
// between start and end events of its own. A panic escaping the delegate
// is reported instead of aborting the batch.
func (w *WrappedCase) Run(res *framework.Result) {
	if res == nil {
		res = framework.NewResult()
	}
	attach(res, w.listener)
	res.StartTest(w)
	defer res.EndTest(w)

	v := recoverRun(w.test, res)
	if v == nil {
		return
	}
	var target framework.Test = w
	if w.class != nil {
		target = framework.NewFuncCase(framework.QualifiedName(w.class), MainCase, nil)
		res.StartTest(target)
		defer res.EndTest(target)
	}
	if framework.IsAssertion(v) {
		res.AddFailure(target, framework.Fail(v.Error()))
		return
	}
	res.AddError(target, v)
}

// MainCase names the case a panic escaping a fixture suite is recorded
// under. Events addressed to the fixture class itself reach no case.
const MainCase = "main"

func recoverRun(t framework.Test, res *framework.Result) (err *framework.PanicError) {
	defer func() {
		if v := recover(); v != nil {
			err = framework.Recovered(v)
		}
	}()
	t.Run(res)
	return nil
}

// WrappedSuite holds a fixture suite together with the fixture type.
type WrappedSuite struct {
	suite *framework.Suite
	class reflect.Type
}

// NewWrappedSuite builds the suite of fixture's Test* methods.
func NewWrappedSuite(fixture any) *WrappedSuite {
	return &WrappedSuite{suite: framework.NewSuiteFromFixture(fixture), class: reflect.TypeOf(fixture)}
}

// Name is the suite name.
func (w *WrappedSuite) Name() string { return w.suite.Name() }

func (w *WrappedSuite) String() string { return w.suite.Name() }

// TestClass implements result.ClassProvider.
func (w *WrappedSuite) TestClass() reflect.Type { return w.class }

// HostSuite returns the underlying host suite.
func (w *WrappedSuite) HostSuite() *framework.Suite { return w.suite }

// CountTestCases counts Test* methods of the fixture type. The placeholder
// case of an empty fixture is not counted.
func (w *WrappedSuite) CountTestCases() int {
	return len(framework.TestMethods(w.class))
}

// SetUp implements Unit.
func (w *WrappedSuite) SetUp() error { return nil }

// TearDown implements Unit.
func (w *WrappedSuite) TearDown() error { return nil }

// Run runs the suite's cases directly on res. Most callers want MakeTest,
// which also attaches the shared listener.
func (w *WrappedSuite) Run(res *framework.Result) { w.suite.Run(res) }

// MakeTest builds the runnable unit for a registered fixture. Fixtures
// that provide their own suite are used as is; others get one case per
// Test* method.
func MakeTest(fixture any, listener framework.Listener) (Unit, error) {
	if fixture == nil {
		return nil, fmt.Errorf("make test: nil fixture")
	}
	if p, ok := fixture.(framework.SuiteProvider); ok {
		t := p.Suite()
		if t == nil {
			return nil, fmt.Errorf("make test %s: Suite returned nil", framework.QualifiedName(reflect.TypeOf(fixture)))
		}
		wc := NewWrappedCase(t, listener)
		wc.class = reflect.TypeOf(fixture)
		return wc, nil
	}
	ws := NewWrappedSuite(fixture)
	wc := NewWrappedCase(ws, listener)
	wc.class = ws.class
	return wc, nil
}

// Execute runs u in a sink of its own with a private collector and returns
// the unit's completed record.
func Execute(u Unit) (result.Record, error) {
	collector := result.NewCollector(result.Options{})
	res := framework.NewResult()
	res.AddListener(collector)
	u.Run(res)
	rec, ok := collector.Lookup(u)
	if !ok {
		return nil, fmt.Errorf("execute %s: no record produced", u)
	}
	return rec, nil
}

func attach(res *framework.Result, l framework.Listener) {
	if l == nil {
		return
	}
	res.RemoveListener(l)
	res.AddListener(l)
}
