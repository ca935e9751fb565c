package framework

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingListener struct {
	events []string
}

func (l *recordingListener) StartTest(t Test)             { l.events = append(l.events, "start "+t.String()) }
func (l *recordingListener) EndTest(t Test)               { l.events = append(l.events, "end "+t.String()) }
func (l *recordingListener) AddFailure(t Test, err error) { l.events = append(l.events, "failure "+err.Error()) }
func (l *recordingListener) AddError(t Test, err error)   { l.events = append(l.events, "error "+err.Error()) }

type calcFixture struct {
	setUps    int
	tearDowns int
}

func (f *calcFixture) SetUp() error    { f.setUps++; return nil }
func (f *calcFixture) TearDown() error { f.tearDowns++; return nil }

func (f *calcFixture) TestAdd() error    { return AssertEquals("sum", 4, 2+2) }
func (f *calcFixture) TestBroken() error { return AssertEquals("sum", 5, 2+2) }
func (f *calcFixture) TestPanics()       { panic("boom") }
func (f *calcFixture) Helper() error     { return errors.New("not a test") }

type emptyFixture struct{}

func TestSuiteFromFixture(t *testing.T) {
	fixture := &calcFixture{}
	suite := NewSuiteFromFixture(fixture)

	assert.Equal(t, 3, suite.CountTestCases())
	assert.Equal(t, QualifiedName(reflect.TypeOf(fixture)), suite.Name())

	listener := &recordingListener{}
	result := NewResult()
	result.AddListener(listener)
	suite.Run(result)

	assert.Equal(t, 1, result.FailureCount())
	assert.Equal(t, 1, result.ErrorCount())
	assert.Equal(t, 3, result.RunCount())
	assert.Equal(t, 3, fixture.setUps)
	assert.Equal(t, 3, fixture.tearDowns)
	assert.Contains(t, listener.events, "failure sum expected:<5> but was:<4>")
	assert.Contains(t, listener.events, "error boom")
}

func TestEmptyFixtureGetsWarningCase(t *testing.T) {
	suite := NewSuiteFromFixture(&emptyFixture{})
	require.Len(t, suite.Tests(), 1)

	result := NewResult()
	suite.Run(result)
	require.Equal(t, 1, result.FailureCount())
	assert.Contains(t, result.Failures()[0].Err.Error(), "No tests found in")
	assert.Equal(t, WarningCaseName, result.Failures()[0].Test.(*Case).Name())
}

func TestCaseString(t *testing.T) {
	c, err := NewCase(&calcFixture{}, "TestAdd")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("TestAdd(%s)", QualifiedName(reflect.TypeOf(&calcFixture{}))), c.String())

	_, err = NewCase(&calcFixture{}, "TestMissing")
	assert.Error(t, err)
}

func TestRemoveListenerDropsAllRegistrations(t *testing.T) {
	l := &recordingListener{}
	result := NewResult()
	result.AddListener(l)
	result.AddListener(l)
	result.RemoveListener(l)
	result.AddListener(l)

	result.StartTest(NewFuncCase("pkg.Class", "TestX", nil))
	assert.Equal(t, []string{"start TestX(pkg.Class)"}, l.events)
}

func TestIsAssertion(t *testing.T) {
	assert.True(t, IsAssertion(Fail("nope")))
	assert.True(t, IsAssertion(fmt.Errorf("wrapped: %w", Fail("nope"))))
	assert.True(t, IsAssertion(&PanicError{Value: Fail("nope")}))
	assert.False(t, IsAssertion(errors.New("plain")))
	assert.False(t, IsAssertion(&PanicError{Value: "text"}))
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	full := reg.Register(&calcFixture{})

	f, err := reg.Lookup(full)
	require.NoError(t, err)
	assert.IsType(t, &calcFixture{}, f)

	_, err = reg.Lookup("framework.calcFixture")
	require.NoError(t, err)

	_, err = reg.Lookup("nope.Missing")
	assert.Error(t, err)
	assert.Equal(t, []string{full}, reg.Names())
}

type leakyFixture struct{}

func (leakyFixture) TearDown() error   { return errors.New("cleanup failed") }
func (leakyFixture) TestBroken() error { return Fail("broken") }

func TestRunCaseReportsTearDownAfterFailure(t *testing.T) {
	c, err := NewCase(leakyFixture{}, "TestBroken")
	require.NoError(t, err)

	listener := &recordingListener{}
	result := NewResult()
	result.AddListener(listener)
	c.Run(result)

	assert.Equal(t, 1, result.FailureCount())
	assert.Equal(t, 1, result.ErrorCount())
	assert.Equal(t, []string{
		"start " + c.String(),
		"failure broken",
		"error cleanup failed",
		"end " + c.String(),
	}, listener.events)

	assert.EqualError(t, c.RunBare(), "broken")
}
