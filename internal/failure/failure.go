// Package failure holds the failure and error values raised by test
// scripts. Each value snapshots the call stack when it is constructed, so
// the renderer can point at the assertion site rather than wherever the
// value was eventually reported.
package failure

import (
	"fmt"
	"strings"

	"github.com/bgricker/testbridge/internal/framework"
)

// Framed is implemented by values that carry a captured stack.
type Framed interface {
	StackFrames() []Frame
}

// Assertion is a failed expectation without expected/actual values.
type Assertion struct {
	Message string
	Frames  []Frame
}

// NewAssertion captures the caller's stack. skip counts additional frames
// to drop above the caller.
func NewAssertion(msg string, skip int) *Assertion {
	return &Assertion{Message: msg, Frames: Capture(skip + 1)}
}

func (a *Assertion) Error() string { return a.Message }

// IsAssertion implements framework.AssertionError.
func (a *Assertion) IsAssertion() bool { return true }

// StackFrames implements Framed.
func (a *Assertion) StackFrames() []Frame { return a.Frames }

// Comparison is an expected-vs-actual mismatch.
type Comparison struct {
	Message  string
	Expected string
	Actual   string
	Frames   []Frame
}

// NewComparison captures the caller's stack.
func NewComparison(msg, expected, actual string, skip int) *Comparison {
	return &Comparison{Message: msg, Expected: expected, Actual: actual, Frames: Capture(skip + 1)}
}

// Error returns a diff of the two values when either spans several lines,
// and the framework's compact comparison message otherwise.
func (c *Comparison) Error() string {
	if lineCount(c.Expected) > 1 || lineCount(c.Actual) > 1 {
		msg := c.Message
		if msg == "" {
			msg = "Actual result did not match expected"
		}
		return msg + " - diff output:\n" + Diff(c.Expected, c.Actual)
	}
	return framework.FormatComparison(c.Message, c.Expected, c.Actual)
}

// IsAssertion implements framework.AssertionError.
func (c *Comparison) IsAssertion() bool { return true }

// StackFrames implements Framed.
func (c *Comparison) StackFrames() []Frame { return c.Frames }

// ScriptError wraps an unexpected error raised while running a script.
type ScriptError struct {
	Type   string
	Err    error
	Frames []Frame
}

// NewScriptError wraps err. When pcs is empty the caller's stack is
// captured instead.
func NewScriptError(err error, pcs []uintptr, skip int) *ScriptError {
	frames := FramesFromPCs(pcs)
	if len(frames) == 0 {
		frames = Capture(skip + 1)
	}
	return &ScriptError{Type: TypeName(err), Err: err, Frames: frames}
}

func (e *ScriptError) Error() string {
	if e.Err == nil {
		return e.Type
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Err.Error())
}

// Unwrap returns the wrapped error.
func (e *ScriptError) Unwrap() error { return e.Err }

// StackFrames implements Framed.
func (e *ScriptError) StackFrames() []Frame { return e.Frames }

// TypeName names the dynamic type of err the way reports show it.
func TypeName(err error) string {
	if err == nil {
		return "<nil>"
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
}

func lineCount(s string) int {
	return len(splitLines(s))
}
