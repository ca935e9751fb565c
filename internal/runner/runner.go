// Package runner drives one test run: it turns discovered scripts and
// registered fixtures into units, runs them one after another under the
// shared collector and logs progress.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/bgricker/testbridge/internal/adapter"
	"github.com/bgricker/testbridge/internal/framework"
	"github.com/bgricker/testbridge/internal/result"
	"github.com/bgricker/testbridge/internal/script"
)

// Options configure a run.
type Options struct {
	Log      log.Logger
	Now      func() time.Time
	Host     string
	Resolver script.Resolver
	Registry *framework.Registry
	// Listeners observe the run alongside the collector.
	Listeners []framework.Listener
}

// Runner executes units sequentially. It owns the collector of the run.
type Runner struct {
	opts      Options
	collector *result.Collector
	log       log.Logger
}

// New creates a runner with the supplied options.
func New(opts Options) *Runner {
	if opts.Log == nil {
		opts.Log = log.New()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Resolver == nil {
		opts.Resolver = script.Default
	}
	if opts.Registry == nil {
		opts.Registry = framework.Default
	}
	collector := result.NewCollector(result.Options{Log: opts.Log, Now: opts.Now, Host: opts.Host})
	return &Runner{opts: opts, collector: collector, log: opts.Log.New("component", "runner")}
}

// Collector returns the result store the runner reports into.
func (r *Runner) Collector() *result.Collector { return r.collector }

// ScriptUnits wraps each ref as a script test.
func (r *Runner) ScriptUnits(ctx context.Context, refs []script.Ref) []adapter.Unit {
	units := make([]adapter.Unit, 0, len(refs))
	for _, ref := range refs {
		units = append(units, adapter.NewScriptTest(ctx, ref, r.opts.Resolver, r.collector))
	}
	return units
}

// SuiteUnits looks up each named fixture in the registry and wraps it.
func (r *Runner) SuiteUnits(names []string) ([]adapter.Unit, error) {
	units := make([]adapter.Unit, 0, len(names))
	for _, name := range names {
		fixture, err := r.opts.Registry.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("load suite: %w", err)
		}
		u, err := adapter.MakeTest(fixture, r.collector)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}

// Load assembles the units of a run into one suite. Units without test
// cases are left out.
func (r *Runner) Load(units []adapter.Unit) *framework.Suite {
	suite := framework.NewSuite("testbridge")
	for _, u := range units {
		n := u.CountTestCases()
		if n == 0 {
			r.log.Debug("No tests to run, skipping", "unit", u.Name())
			continue
		}
		r.log.Debug("Loaded unit", "unit", u.Name(), "cases", n)
		suite.AddTest(u)
	}
	r.log.Debug(fmt.Sprintf("Found %d test cases", suite.CountTestCases()))
	return suite
}

// Run loads units and runs them on a fresh sink. The returned collector
// holds the outcome of every test started during the run.
func (r *Runner) Run(units []adapter.Unit) *result.Collector {
	suite := r.Load(units)

	res := framework.NewResult()
	res.AddListener(r.collector)
	res.AddListener(&progress{log: r.log})
	for _, l := range r.opts.Listeners {
		res.AddListener(l)
	}

	suite.Run(res)

	passed, failed := r.collector.SplitResults()
	r.log.Info("Run complete",
		"run_id", r.collector.RunID(),
		"records", r.collector.TotalRunCount(),
		"passed", len(passed),
		"failed", len(failed),
		"errors", r.collector.TotalErrors(),
		"duration", r.collector.TotalRunTime(),
	)
	return r.collector
}

// progress logs test events as they happen.
type progress struct {
	log log.Logger
}

func (p *progress) StartTest(t framework.Test) {
	p.log.Debug("Running test", "test", t.String())
}

func (p *progress) EndTest(t framework.Test) {
	p.log.Trace("Finished test", "test", t.String())
}

func (p *progress) AddFailure(t framework.Test, err error) {
	p.log.Debug("Test failed", "test", t.String(), "err", err)
}

func (p *progress) AddError(t framework.Test, err error) {
	p.log.Debug("Test errored", "test", t.String(), "err", err)
}
