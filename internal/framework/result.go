package framework

import (
	"fmt"
	"runtime"
)

// TestFailure pairs a failed test with the error it raised.
type TestFailure struct {
	Test Test
	Err  error
}

func (f TestFailure) String() string {
	return fmt.Sprintf("%s: %v", f.Test, f.Err)
}

// Result is the sink a test reports into. It keeps its own tallies and
// forwards every event to the registered listeners in registration order.
type Result struct {
	failures  []TestFailure
	errors    []TestFailure
	listeners []Listener
	runTests  int
}

// NewResult returns an empty sink.
func NewResult() *Result {
	return &Result{}
}

// AddListener registers l. Registering the same listener twice delivers
// every event twice; callers that need exactly one registration remove first.
func (r *Result) AddListener(l Listener) {
	if l == nil {
		return
	}
	r.listeners = append(r.listeners, l)
}

// RemoveListener drops every registration of l.
func (r *Result) RemoveListener(l Listener) {
	kept := r.listeners[:0]
	for _, existing := range r.listeners {
		if existing != l {
			kept = append(kept, existing)
		}
	}
	r.listeners = kept
}

// Listeners returns a copy of the registered listeners.
func (r *Result) Listeners() []Listener {
	return append([]Listener(nil), r.listeners...)
}

// StartTest notifies listeners that t is starting.
func (r *Result) StartTest(t Test) {
	r.runTests += t.CountTestCases()
	for _, l := range r.listeners {
		l.StartTest(t)
	}
}

// EndTest notifies listeners that t has finished.
func (r *Result) EndTest(t Test) {
	for _, l := range r.listeners {
		l.EndTest(t)
	}
}

// AddFailure records an assertion failure for t.
func (r *Result) AddFailure(t Test, err error) {
	r.failures = append(r.failures, TestFailure{Test: t, Err: err})
	for _, l := range r.listeners {
		l.AddFailure(t, err)
	}
}

// AddError records an unexpected error for t.
func (r *Result) AddError(t Test, err error) {
	r.errors = append(r.errors, TestFailure{Test: t, Err: err})
	for _, l := range r.listeners {
		l.AddError(t, err)
	}
}

// Report routes err to AddFailure or AddError depending on its kind.
func (r *Result) Report(t Test, err error) {
	if err == nil {
		return
	}
	if IsAssertion(err) {
		r.AddFailure(t, err)
		return
	}
	r.AddError(t, err)
}

// RunCase runs c between start and end events, converting every error or
// panic raised by the case into a reported event. Tear down runs whenever
// set up succeeded, and its error is reported after any body failure.
func (r *Result) RunCase(c *Case) {
	r.StartTest(c)
	defer r.EndTest(c)
	if err := Protect(c.SetUp); err != nil {
		r.Report(c, err)
		return
	}
	r.Report(c, Protect(c.body))
	r.Report(c, Protect(c.TearDown))
}

// Protect calls fn and turns a panic into a *PanicError.
func Protect(fn func() error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = Recovered(v)
		}
	}()
	return fn()
}

// Recovered wraps a recovered panic value. It must be called from the
// deferred function that recovered, so the panicking frames are still on
// the stack.
func Recovered(v any) *PanicError {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(3, pcs)
	return &PanicError{Value: v, PCs: pcs[:n]}
}

// FailureCount returns the number of recorded failures.
func (r *Result) FailureCount() int { return len(r.failures) }

// ErrorCount returns the number of recorded errors.
func (r *Result) ErrorCount() int { return len(r.errors) }

// RunCount returns the number of test cases started through this sink.
func (r *Result) RunCount() int { return r.runTests }

// Failures returns the recorded failures in order.
func (r *Result) Failures() []TestFailure { return append([]TestFailure(nil), r.failures...) }

// Errors returns the recorded errors in order.
func (r *Result) Errors() []TestFailure { return append([]TestFailure(nil), r.errors...) }

// WasSuccessful reports whether no failures or errors were recorded.
func (r *Result) WasSuccessful() bool {
	return len(r.failures) == 0 && len(r.errors) == 0
}
