// Package result aggregates test events into a per-run store of leaf and
// group records.
package result

import (
	"sort"
	"strings"
	"time"

	"github.com/bgricker/testbridge/internal/framework"
)

// Event is one failure or error reported for a test.
type Event struct {
	Test framework.Test
	Err  error
}

// Record is the bookkeeping for one top-level store entry.
type Record interface {
	// Identity is the string the record is sorted and reported by.
	Identity() string
	Passed() bool
	FailureCount() int
	ErrorCount() int
	TestCount() int
	AssertCount() int
	StartTime() time.Time
	TotalTime() time.Duration
}

// Leaf tracks a single test case.
type Leaf struct {
	Name     string
	Start    time.Time
	End      time.Time
	Elapsed  time.Duration
	Failures []Event
	Errors   []Event
	Asserts  int
	Runs     int
	output   strings.Builder
}

var (
	_ Record = (*Leaf)(nil)
	_ Record = (*Group)(nil)
)

func newLeaf(name string) *Leaf {
	return &Leaf{Name: name}
}

func (l *Leaf) start(now time.Time) {
	if l.Start.IsZero() {
		l.Start = now
	}
	l.Runs++
}

func (l *Leaf) end(now time.Time) {
	l.End = now
	if !l.Start.IsZero() {
		l.Elapsed = l.End.Sub(l.Start)
	}
}

// Identity implements Record.
func (l *Leaf) Identity() string { return l.Name }

// Passed reports whether no failures or errors were recorded.
func (l *Leaf) Passed() bool { return len(l.Failures) == 0 && len(l.Errors) == 0 }

// FailureCount implements Record.
func (l *Leaf) FailureCount() int { return len(l.Failures) }

// ErrorCount implements Record.
func (l *Leaf) ErrorCount() int { return len(l.Errors) }

// TestCount is the number of times the case was started.
func (l *Leaf) TestCount() int { return l.Runs }

// AssertCount implements Record.
func (l *Leaf) AssertCount() int { return l.Asserts }

// StartTime implements Record.
func (l *Leaf) StartTime() time.Time { return l.Start }

// TotalTime implements Record.
func (l *Leaf) TotalTime() time.Duration { return l.Elapsed }

// Output returns text captured while the case ran.
func (l *Leaf) Output() string { return l.output.String() }

// Group tracks a test class and its named cases.
type Group struct {
	Class string
	// own holds the timing and counters of events addressed to the class
	// itself rather than to one of its cases.
	own   Leaf
	cases map[string]*Leaf
}

func newGroup(class string) *Group {
	return &Group{Class: class, own: Leaf{Name: class}, cases: make(map[string]*Leaf)}
}

// caseFor returns the child for id, creating it on first use. Events
// addressed to the class itself have no child.
func (g *Group) caseFor(id Identity) *Leaf {
	if !id.IsCase() {
		return nil
	}
	c, ok := g.cases[id.Case]
	if !ok {
		c = newLeaf(id.Case)
		g.cases[id.Case] = c
	}
	return c
}

// Identity implements Record.
func (g *Group) Identity() string { return g.Class }

// Passed reports whether every case passed. An empty group passes.
func (g *Group) Passed() bool {
	for _, c := range g.cases {
		if !c.Passed() {
			return false
		}
	}
	return true
}

// FailureCount sums case failures.
func (g *Group) FailureCount() int {
	total := 0
	for _, c := range g.cases {
		total += c.FailureCount()
	}
	return total
}

// ErrorCount sums case errors.
func (g *Group) ErrorCount() int {
	total := 0
	for _, c := range g.cases {
		total += c.ErrorCount()
	}
	return total
}

// TestCount is the number of distinct cases ever started.
func (g *Group) TestCount() int { return len(g.cases) }

// AssertCount sums assertions made by the class and its cases.
func (g *Group) AssertCount() int {
	total := g.own.Asserts
	for _, c := range g.cases {
		total += c.Asserts
	}
	return total
}

// StartTime is the first start observed for the class or any case.
func (g *Group) StartTime() time.Time { return g.own.Start }

// TotalTime spans the first start to the last end of the class.
func (g *Group) TotalTime() time.Duration { return g.own.Elapsed }

// Runs is the number of start events addressed to the class or its cases.
func (g *Group) Runs() int { return g.own.Runs }

// Case returns the named case, if any.
func (g *Group) Case(name string) (*Leaf, bool) {
	c, ok := g.cases[name]
	return c, ok
}

// Cases returns every case sorted by name.
func (g *Group) Cases() []*Leaf {
	out := make([]*Leaf, 0, len(g.cases))
	for _, c := range g.cases {
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
