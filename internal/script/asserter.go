package script

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"

	"github.com/bgricker/testbridge/internal/failure"
	"github.com/bgricker/testbridge/internal/framework"
)

// AssertCounter is implemented by listeners that tally assertions.
type AssertCounter interface {
	AssertCalled(t framework.Test)
}

// OutputRecorder is implemented by listeners that keep script output.
type OutputRecorder interface {
	AddOutput(t framework.Test, text string)
}

// Asserter carries the assertion functions available to a script. Every
// check notifies assertion-counting listeners, and a failed check is
// reported on the sink without stopping the script. Arguments follow
// actual-then-expected order.
type Asserter struct {
	unit   framework.Test
	result *framework.Result
}

// NewAsserter binds assertions to unit, reporting into result.
func NewAsserter(unit framework.Test, result *framework.Result) *Asserter {
	return &Asserter{unit: unit, result: result}
}

// Unit returns the test the asserter reports for.
func (a *Asserter) Unit() framework.Test { return a.unit }

func (a *Asserter) called() {
	for _, l := range a.result.Listeners() {
		if c, ok := l.(AssertCounter); ok {
			c.AssertCalled(a.unit)
		}
	}
}

// Output forwards text printed by the script to output-recording listeners.
func (a *Asserter) Output(text string) {
	if text == "" {
		return
	}
	for _, l := range a.result.Listeners() {
		if r, ok := l.(OutputRecorder); ok {
			r.AddOutput(a.unit, text)
		}
	}
}

func message(msg []string, fallback string) string {
	if len(msg) > 0 && msg[0] != "" {
		return msg[0]
	}
	return fallback
}

// Equals checks that actual and expected are deeply equal.
func (a *Asserter) Equals(actual, expected any, msg ...string) bool {
	a.called()
	if reflect.DeepEqual(actual, expected) {
		return true
	}
	a.result.AddFailure(a.unit, failure.NewComparison(message(msg, "Values are not equal"), fmt.Sprint(expected), fmt.Sprint(actual), 1))
	return false
}

// EqualsWithin checks that two numbers differ by no more than delta.
func (a *Asserter) EqualsWithin(actual, expected, delta float64, msg ...string) bool {
	a.called()
	if math.Abs(actual-expected) <= delta {
		return true
	}
	a.result.AddFailure(a.unit, failure.NewComparison(message(msg, "Values are not equal (within allowed delta)"), fmt.Sprint(expected), fmt.Sprint(actual), 1))
	return false
}

// NotEquals checks that actual and expected differ.
func (a *Asserter) NotEquals(actual, expected any, msg ...string) bool {
	a.called()
	if !reflect.DeepEqual(actual, expected) {
		return true
	}
	a.result.AddFailure(a.unit, failure.NewComparison(message(msg, "Values are equal, but expected not"), fmt.Sprint(expected), fmt.Sprint(actual), 1))
	return false
}

// MoreThan checks that actual orders strictly after expected. Values must
// both be numbers or both be strings.
func (a *Asserter) MoreThan(actual, expected any, msg ...string) bool {
	a.called()
	if cmp, ok := order(actual, expected); ok && cmp > 0 {
		return true
	}
	a.result.AddFailure(a.unit, failure.NewComparison(message(msg, "Value is less than expected"), fmt.Sprint(expected), fmt.Sprint(actual), 1))
	return false
}

// LessThan checks that actual orders strictly before expected.
func (a *Asserter) LessThan(actual, expected any, msg ...string) bool {
	a.called()
	if cmp, ok := order(actual, expected); ok && cmp < 0 {
		return true
	}
	a.result.AddFailure(a.unit, failure.NewComparison(message(msg, "Value is more than expected"), fmt.Sprint(expected), fmt.Sprint(actual), 1))
	return false
}

// True checks that cond holds.
func (a *Asserter) True(cond bool, msg ...string) bool {
	a.called()
	if cond {
		return true
	}
	a.result.AddFailure(a.unit, failure.NewAssertion(message(msg, "Expected condition to be true, but was false"), 1))
	return false
}

// False checks that cond does not hold.
func (a *Asserter) False(cond bool, msg ...string) bool {
	a.called()
	if !cond {
		return true
	}
	a.result.AddFailure(a.unit, failure.NewAssertion(message(msg, "Expected false value, but condition was true"), 1))
	return false
}

// Matches checks that pattern matches at the start of actual.
func (a *Asserter) Matches(actual, pattern string, msg ...string) bool {
	a.called()
	matched, err := matchPrefix(pattern, actual)
	if err != nil {
		a.result.AddError(a.unit, failure.NewScriptError(err, nil, 1))
		return false
	}
	if matched {
		return true
	}
	a.result.AddFailure(a.unit, failure.NewComparison(message(msg, "Value doesn't match regex"), pattern, actual, 1))
	return false
}

// NotMatches checks that pattern does not match at the start of actual.
func (a *Asserter) NotMatches(actual, pattern string, msg ...string) bool {
	a.called()
	matched, err := matchPrefix(pattern, actual)
	if err != nil {
		a.result.AddError(a.unit, failure.NewScriptError(err, nil, 1))
		return false
	}
	if !matched {
		return true
	}
	a.result.AddFailure(a.unit, failure.NewComparison(message(msg, "Value matches regex, but shouldn't"), pattern, actual, 1))
	return false
}

// NotNull checks that v is not nil.
func (a *Asserter) NotNull(v any, msg ...string) bool {
	a.called()
	if !isNil(v) {
		return true
	}
	a.result.AddFailure(a.unit, failure.NewAssertion(message(msg, "Object was null, but expected non-null"), 1))
	return false
}

// Null checks that v is nil.
func (a *Asserter) Null(v any, msg ...string) bool {
	a.called()
	if isNil(v) {
		return true
	}
	a.result.AddFailure(a.unit, failure.NewAssertion(message(msg, "Object was not null, but expected null reference"), 1))
	return false
}

// NotSame checks that actual and expected do not reference the same object.
func (a *Asserter) NotSame(actual, expected any, msg ...string) bool {
	a.called()
	if !same(actual, expected) {
		return true
	}
	a.result.AddFailure(a.unit, failure.NewComparison(message(msg, "Object references should be different instances"), fmt.Sprint(expected), fmt.Sprint(actual), 1))
	return false
}

// Except checks that fn fails. A nil target accepts any returned error or
// panic; otherwise the error must match target with errors.Is.
func (a *Asserter) Except(fn func() error, target error, msg ...string) bool {
	a.called()
	if fn == nil {
		a.result.AddFailure(a.unit, failure.NewAssertion("Function <nil> not callable", 1))
		return false
	}
	err := framework.Protect(fn)
	switch {
	case err == nil:
		a.result.AddFailure(a.unit, failure.NewAssertion(message(msg, fmt.Sprintf("Expected %s calling function", describe(target))), 1))
		return false
	case target == nil || errors.Is(err, target):
		return true
	default:
		a.result.AddFailure(a.unit, failure.NewAssertion(message(msg, fmt.Sprintf("Unexpected error %s calling function", err)), 1))
		return false
	}
}

// Fail reports an unconditional failure.
func (a *Asserter) Fail(msg ...string) {
	a.result.AddFailure(a.unit, failure.NewAssertion(message(msg, "Test failed"), 1))
}

// Error reports err. Assertion-kind values are reported as they are;
// other errors are wrapped with the caller's stack.
func (a *Asserter) Error(err error) {
	if err == nil {
		return
	}
	if framework.IsAssertion(err) {
		a.result.AddError(a.unit, err)
		return
	}
	a.result.AddError(a.unit, failure.NewScriptError(err, nil, 1))
}

func describe(target error) string {
	if target == nil {
		return "an error"
	}
	return target.Error()
}

func matchPrefix(pattern, s string) (bool, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return false, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	return re.MatchString(s), nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func same(x, y any) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	vx, vy := reflect.ValueOf(x), reflect.ValueOf(y)
	if vx.Type() != vy.Type() {
		return false
	}
	switch vx.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return vx.Pointer() == vy.Pointer()
	case reflect.Slice:
		return vx.Pointer() == vy.Pointer() && vx.Len() == vy.Len()
	}
	return vx.Comparable() && vx.Equal(vy)
}

// order compares two numbers or two strings.
func order(x, y any) (int, bool) {
	if sx, ok := x.(string); ok {
		sy, ok := y.(string)
		if !ok {
			return 0, false
		}
		switch {
		case sx < sy:
			return -1, true
		case sx > sy:
			return 1, true
		}
		return 0, true
	}
	fx, ok := number(x)
	if !ok {
		return 0, false
	}
	fy, ok := number(y)
	if !ok {
		return 0, false
	}
	switch {
	case fx < fy:
		return -1, true
	case fx > fy:
		return 1, true
	}
	return 0, true
}

func number(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
