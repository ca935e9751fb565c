package result

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgricker/testbridge/internal/framework"
)

// stubTest is a test with a fixed string rendering and optional class.
type stubTest struct {
	repr  string
	name  string
	class reflect.Type
}

func (s stubTest) CountTestCases() int     { return 1 }
func (s stubTest) Run(*framework.Result)   {}
func (s stubTest) String() string          { return s.repr }
func (s stubTest) Name() string            { return s.name }
func (s stubTest) TestClass() reflect.Type { return s.class }

type tickClock struct {
	now time.Time
}

func (c *tickClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestCollector() (*Collector, *tickClock) {
	clock := &tickClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	return NewCollector(Options{Now: clock.Now, Host: "builder"}), clock
}

func TestResolve(t *testing.T) {
	type fixture struct{}
	cases := []struct {
		name string
		test framework.Test
		want Identity
	}{
		{"class handle", stubTest{repr: "TestX(other.Thing)", class: reflect.TypeOf(fixture{})}, Identity{Class: framework.QualifiedName(reflect.TypeOf(fixture{})), Case: framework.QualifiedName(reflect.TypeOf(fixture{}))}},
		{"conventional", stubTest{repr: "TestAdd(calc.Checks)"}, Identity{Class: "calc.Checks", Case: "TestAdd"}},
		{"indexed", stubTest{repr: "TestRow[3](example.com/calc-x.Rows)"}, Identity{Class: "example.com/calc-x.Rows", Case: "TestRow[3]"}},
		{"named", stubTest{repr: "calc script", name: "test_calc"}, Identity{Case: "test_calc"}},
		{"string only", stubTest{repr: "calc script"}, Identity{Case: "calc script"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Resolve(tc.test))
		})
	}
}

func TestResolveIsStable(t *testing.T) {
	test := stubTest{repr: "TestAdd(calc.Checks)"}
	assert.Equal(t, Resolve(test), Resolve(test))
}

func TestLeafFirstStartLastEnd(t *testing.T) {
	c, _ := newTestCollector()
	test := stubTest{repr: "script", name: "test_script"}

	c.StartTest(test) // 1s
	c.StartTest(test) // 2s
	c.EndTest(test)   // 3s
	c.EndTest(test)   // 4s

	rec, ok := c.Lookup(test)
	require.True(t, ok)
	leaf := rec.(*Leaf)
	assert.Equal(t, 2, leaf.Runs)
	assert.Equal(t, 3*time.Second, leaf.TotalTime())
	assert.Equal(t, 3*time.Second, c.TotalRunTime())
}

func TestGroupAggregatesCases(t *testing.T) {
	c, _ := newTestCollector()
	add := stubTest{repr: "TestAdd(calc.Checks)"}
	sub := stubTest{repr: "TestSub(calc.Checks)"}

	for _, test := range []framework.Test{add, sub, add} {
		c.StartTest(test)
		c.AssertCalled(test)
		c.EndTest(test)
	}
	c.AddFailure(sub, framework.Fail("off by one"))

	require.Equal(t, 1, c.TotalRunCount())
	rec, ok := c.Lookup(add)
	require.True(t, ok)
	group := rec.(*Group)
	assert.Equal(t, 2, group.TestCount())
	assert.Equal(t, 3, group.Runs())
	assert.Equal(t, 3, group.AssertCount())
	assert.Equal(t, 1, group.FailureCount())
	assert.False(t, group.Passed())

	leaf, ok := group.Case("TestAdd")
	require.True(t, ok)
	assert.True(t, leaf.Passed())
	assert.Equal(t, 2, leaf.Runs)

	names := []string{}
	for _, l := range group.Cases() {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"TestAdd", "TestSub"}, names)
}

func TestEmptyGroupPasses(t *testing.T) {
	type fixture struct{}
	c, _ := newTestCollector()
	test := stubTest{repr: "suite", class: reflect.TypeOf(fixture{})}

	c.StartTest(test)
	c.AssertCalled(test)
	c.AddFailure(test, framework.Fail("dropped"))
	c.EndTest(test)

	rec, ok := c.Lookup(test)
	require.True(t, ok)
	assert.True(t, rec.Passed())
	assert.Equal(t, 0, rec.TestCount())
	assert.Equal(t, 1, rec.AssertCount())
	assert.Equal(t, 1, c.TotalErrors())
}

func TestAssertionErrorsBecomeFailures(t *testing.T) {
	c, _ := newTestCollector()
	test := stubTest{repr: "script", name: "test_script"}

	c.StartTest(test)
	c.AddError(test, framework.Fail("expected"))
	c.AddError(test, errors.New("exploded"))
	c.EndTest(test)

	rec, _ := c.Lookup(test)
	assert.Equal(t, 1, rec.FailureCount())
	assert.Equal(t, 1, rec.ErrorCount())
	assert.Equal(t, 2, c.TotalErrors())
	assert.False(t, c.RunPassed())
}

func TestSplitResultsSorted(t *testing.T) {
	c, _ := newTestCollector()
	tests := []stubTest{
		{repr: "z", name: "test_zeta"},
		{repr: "a", name: "test_alpha"},
		{repr: "m", name: "test_mid"},
		{repr: "b", name: "test_beta"},
	}
	for _, test := range tests {
		c.StartTest(test)
		c.EndTest(test)
	}
	c.AddFailure(tests[0], framework.Fail("z"))
	c.AddFailure(tests[2], framework.Fail("m"))

	passed, failed := c.SplitResults()
	ids := func(recs []Record) []string {
		var out []string
		for _, r := range recs {
			out = append(out, r.Identity())
		}
		return out
	}
	assert.Equal(t, []string{"test_alpha", "test_beta"}, ids(passed))
	assert.Equal(t, []string{"test_mid", "test_zeta"}, ids(failed))
	assert.Equal(t, 4, c.TotalRunCount())
}

func TestOutputIsCaptured(t *testing.T) {
	c, _ := newTestCollector()
	test := stubTest{repr: "script", name: "test_script"}
	c.StartTest(test)
	c.AddOutput(test, "hello\n")
	c.AddOutput(test, "world\n")
	c.EndTest(test)

	rec, _ := c.Lookup(test)
	assert.Equal(t, "hello\nworld\n", rec.(*Leaf).Output())
	assert.Equal(t, "builder", c.Host())
	assert.NotEmpty(t, c.RunID())
}
