package result

import (
	"os"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/bgricker/testbridge/internal/framework"
)

var _ framework.Listener = (*Collector)(nil)

// Options configure a Collector.
type Options struct {
	Log  log.Logger
	Now  func() time.Time
	Host string
}

// Collector is the result store of one run. It listens to every test
// event and keys records by class identity, or by bare name for tests with
// no class.
//
// A Collector is not safe for concurrent use: identity resolution and the
// record update it feeds are not atomic, and tests are expected to run one
// at a time.
type Collector struct {
	records     map[string]Record
	totalErrors int
	runStart    time.Time
	runStop     time.Time
	runID       string
	host        string
	now         func() time.Time
	log         log.Logger
}

// NewCollector creates an empty store for one run.
func NewCollector(opts Options) *Collector {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = log.New()
	}
	if opts.Host == "" {
		opts.Host, _ = os.Hostname()
	}
	return &Collector{
		records: make(map[string]Record),
		runID:   uuid.NewString(),
		host:    opts.Host,
		now:     opts.Now,
		log:     opts.Log.New("component", "collector"),
	}
}

// StartTest records a start on the test's record; the first start wins.
func (c *Collector) StartTest(t framework.Test) {
	now := c.now()
	if c.runStart.IsZero() {
		c.runStart = now
	}
	id := Resolve(t)
	c.log.Trace("Start test", "class", id.Class, "case", id.Case)
	switch rec := c.recordFor(id).(type) {
	case *Leaf:
		rec.start(now)
	case *Group:
		rec.own.start(now)
		if leaf := rec.caseFor(id); leaf != nil {
			leaf.start(now)
		}
	}
}

// EndTest records an end on the test's record; the last end wins.
func (c *Collector) EndTest(t framework.Test) {
	now := c.now()
	c.runStop = now
	id := Resolve(t)
	switch rec := c.recordFor(id).(type) {
	case *Leaf:
		rec.end(now)
	case *Group:
		rec.own.end(now)
		if leaf := rec.caseFor(id); leaf != nil {
			leaf.end(now)
		}
	}
}

// AddFailure appends a failure event and counts it in the run tally.
func (c *Collector) AddFailure(t framework.Test, err error) {
	if leaf := c.leafFor(t); leaf != nil {
		leaf.Failures = append(leaf.Failures, Event{Test: t, Err: err})
	}
	c.totalErrors++
}

// AddError appends an error event. Assertion-kind errors are recorded as
// failures.
func (c *Collector) AddError(t framework.Test, err error) {
	if framework.IsAssertion(err) {
		c.AddFailure(t, err)
		return
	}
	if leaf := c.leafFor(t); leaf != nil {
		leaf.Errors = append(leaf.Errors, Event{Test: t, Err: err})
	}
	c.totalErrors++
}

// AssertCalled counts one assertion made by t.
func (c *Collector) AssertCalled(t framework.Test) {
	id := Resolve(t)
	switch rec := c.recordFor(id).(type) {
	case *Leaf:
		rec.Asserts++
	case *Group:
		if leaf := rec.caseFor(id); leaf != nil {
			leaf.Asserts++
			return
		}
		rec.own.Asserts++
	}
}

// AddOutput appends text produced by t while it ran.
func (c *Collector) AddOutput(t framework.Test, text string) {
	if leaf := c.leafFor(t); leaf != nil {
		leaf.output.WriteString(text)
	}
}

// leafFor returns the leaf events for t are attached to. Events addressed
// to a class rather than one of its cases have nowhere to go.
func (c *Collector) leafFor(t framework.Test) *Leaf {
	id := Resolve(t)
	switch rec := c.recordFor(id).(type) {
	case *Leaf:
		return rec
	case *Group:
		leaf := rec.caseFor(id)
		if leaf == nil {
			c.log.Debug("Dropping class-level event", "class", id.Class)
		}
		return leaf
	}
	return nil
}

func (c *Collector) recordFor(id Identity) Record {
	key := id.Key()
	if rec, ok := c.records[key]; ok {
		return rec
	}
	var rec Record
	if id.Class != "" {
		rec = newGroup(id.Class)
	} else {
		rec = newLeaf(id.Case)
	}
	c.records[key] = rec
	return rec
}

// Lookup returns the record stored for t, if any.
func (c *Collector) Lookup(t framework.Test) (Record, bool) {
	rec, ok := c.records[Resolve(t).Key()]
	return rec, ok
}

// Records returns every top-level record sorted by identity.
func (c *Collector) Records() []Record {
	out := make([]Record, 0, len(c.records))
	for _, rec := range c.records {
		out = append(out, rec)
	}
	sortRecords(out)
	return out
}

// SplitResults partitions the records into passed and failed, each sorted
// by identity.
func (c *Collector) SplitResults() (passed, failed []Record) {
	for _, rec := range c.Records() {
		if rec.Passed() {
			passed = append(passed, rec)
		} else {
			failed = append(failed, rec)
		}
	}
	return passed, failed
}

// RunPassed reports whether no record failed.
func (c *Collector) RunPassed() bool {
	_, failed := c.SplitResults()
	return len(failed) == 0
}

// TotalRunCount is the number of top-level records.
func (c *Collector) TotalRunCount() int { return len(c.records) }

// TotalRunTime spans the first start to the last end of the run.
func (c *Collector) TotalRunTime() time.Duration {
	if c.runStart.IsZero() || c.runStop.IsZero() {
		return 0
	}
	return c.runStop.Sub(c.runStart)
}

// TotalErrors counts every failure and error reported during the run.
func (c *Collector) TotalErrors() int { return c.totalErrors }

// RunStart is the time the first test started.
func (c *Collector) RunStart() time.Time { return c.runStart }

// RunID identifies this run in reports.
func (c *Collector) RunID() string { return c.runID }

// Host is the machine the run executed on.
func (c *Collector) Host() string { return c.host }

func sortRecords(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Identity() < recs[j].Identity()
	})
}
