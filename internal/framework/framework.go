// Package framework is the host three-tier test framework: suites contain
// cases, cases report into a Result sink, and listeners registered on the
// sink observe every event.
package framework

import (
	"errors"
	"fmt"
	"reflect"
)

// Test is anything the framework can count and run.
type Test interface {
	CountTestCases() int
	Run(result *Result)
	String() string
}

// Listener observes test events emitted through a Result.
type Listener interface {
	StartTest(t Test)
	EndTest(t Test)
	AddFailure(t Test, err error)
	AddError(t Test, err error)
}

// AssertionError is implemented by errors that represent a failed
// expectation rather than a defect in the code under test.
type AssertionError interface {
	error
	IsAssertion() bool
}

// IsAssertion reports whether err, or any error it wraps, is assertion-kind.
func IsAssertion(err error) bool {
	var ae AssertionError
	return errors.As(err, &ae) && ae.IsAssertion()
}

// AssertionFailedError is the plain assertion failure of the framework.
type AssertionFailedError struct {
	Message string
}

func (e *AssertionFailedError) Error() string { return e.Message }

// IsAssertion implements AssertionError.
func (e *AssertionFailedError) IsAssertion() bool { return true }

// ComparisonFailure reports a mismatch between an expected and actual value.
type ComparisonFailure struct {
	Message  string
	Expected string
	Actual   string
}

func (e *ComparisonFailure) Error() string {
	return FormatComparison(e.Message, e.Expected, e.Actual)
}

// IsAssertion implements AssertionError.
func (e *ComparisonFailure) IsAssertion() bool { return true }

// FormatComparison renders "msg expected:<e> but was:<a>".
func FormatComparison(msg, expected, actual string) string {
	if msg != "" {
		msg += " "
	}
	return fmt.Sprintf("%sexpected:<%s> but was:<%s>", msg, expected, actual)
}

// Fail returns an assertion failure with the given message.
func Fail(msg string) error {
	return &AssertionFailedError{Message: msg}
}

// AssertEquals returns a ComparisonFailure when expected and actual differ.
func AssertEquals(msg string, expected, actual any) error {
	if reflect.DeepEqual(expected, actual) {
		return nil
	}
	return &ComparisonFailure{Message: msg, Expected: fmt.Sprint(expected), Actual: fmt.Sprint(actual)}
}

// AssertTrue returns an assertion failure when cond is false.
func AssertTrue(msg string, cond bool) error {
	if cond {
		return nil
	}
	return Fail(msg)
}

// PanicError wraps a value recovered from a panicking test together with
// the program counters of the panicking goroutine.
type PanicError struct {
	Value any
	PCs   []uintptr
}

func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(e.Value)
}

// Unwrap exposes a panicked error value so assertion panics stay classifiable.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// StackPCs implements the stack-carrier contract used by the failure renderer.
func (e *PanicError) StackPCs() []uintptr { return e.PCs }

// QualifiedName returns the fully-qualified name of a fixture type.
func QualifiedName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}
