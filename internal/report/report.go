package report

import (
	"strings"
	"time"

	"github.com/bgricker/testbridge/internal/failure"
	"github.com/bgricker/testbridge/internal/result"
)

// Status values used across reports.
const (
	StatusPassed = "passed"
	StatusFailed = "failed"
)

// Problem is one rendered failure or error event.
type Problem struct {
	Kind    string `json:"kind"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Trace   string `json:"trace,omitempty"`
}

// CaseResult captures the outcome of a single test case.
type CaseResult struct {
	Name       string        `json:"name"`
	Status     string        `json:"status"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
	Runs       int           `json:"runs"`
	Assertions int           `json:"assertions"`
	Problems   []Problem     `json:"problems,omitempty"`
	Output     string        `json:"output,omitempty"`
}

// RecordResult captures one top-level record: a standalone test or a
// test class with its cases.
type RecordResult struct {
	Identity   string        `json:"identity"`
	Kind       string        `json:"kind"`
	Status     string        `json:"status"`
	Tests      int           `json:"tests"`
	Failures   int           `json:"failures"`
	Errors     int           `json:"errors"`
	Assertions int           `json:"assertions"`
	Start      time.Time     `json:"start"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
	Cases      []CaseResult  `json:"cases"`
}

// Summary aggregates the results of one run.
type Summary struct {
	RunID       string         `json:"run_id"`
	Product     string         `json:"product,omitempty"`
	Host        string         `json:"host"`
	Generated   time.Time      `json:"generated"`
	TotalTests  int            `json:"total_tests"`
	Passed      int            `json:"passed"`
	Failed      int            `json:"failed"`
	TotalErrors int            `json:"total_errors"`
	Duration    time.Duration  `json:"-"`
	DurationMS  int64          `json:"duration_ms"`
	ExitCode    int            `json:"exit_code"`
	Records     []RecordResult `json:"records"`
}

// Options control how a Summary is built.
type Options struct {
	Product  string
	Renderer failure.Renderer
	Now      func() time.Time
}

// Build traverses the collector into a serializable summary.
func Build(c *result.Collector, opts Options) Summary {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	passed, failed := c.SplitResults()
	s := Summary{
		RunID:       c.RunID(),
		Product:     opts.Product,
		Host:        c.Host(),
		Generated:   opts.Now(),
		TotalTests:  c.TotalRunCount(),
		Passed:      len(passed),
		Failed:      len(failed),
		TotalErrors: c.TotalErrors(),
		Duration:    c.TotalRunTime(),
		DurationMS:  c.TotalRunTime().Milliseconds(),
	}
	if len(failed) > 0 {
		s.ExitCode = 1
	}
	for _, rec := range c.Records() {
		s.Records = append(s.Records, buildRecord(rec, opts.Renderer))
	}
	return s
}

func buildRecord(rec result.Record, r failure.Renderer) RecordResult {
	out := RecordResult{
		Identity:   rec.Identity(),
		Status:     status(rec.Passed()),
		Tests:      rec.TestCount(),
		Failures:   rec.FailureCount(),
		Errors:     rec.ErrorCount(),
		Assertions: rec.AssertCount(),
		Start:      rec.StartTime(),
		Duration:   rec.TotalTime(),
		DurationMS: rec.TotalTime().Milliseconds(),
	}
	switch rec := rec.(type) {
	case *result.Leaf:
		out.Kind = "leaf"
		out.Cases = []CaseResult{buildCase(rec, r)}
	case *result.Group:
		out.Kind = "group"
		for _, leaf := range rec.Cases() {
			out.Cases = append(out.Cases, buildCase(leaf, r))
		}
	}
	return out
}

func buildCase(leaf *result.Leaf, r failure.Renderer) CaseResult {
	c := CaseResult{
		Name:       leaf.Name,
		Status:     status(leaf.Passed()),
		Duration:   leaf.Elapsed,
		DurationMS: leaf.Elapsed.Milliseconds(),
		Runs:       leaf.Runs,
		Assertions: leaf.Asserts,
		Output:     leaf.Output(),
	}
	for _, ev := range leaf.Failures {
		c.Problems = append(c.Problems, Render("failure", ev.Err, r))
	}
	for _, ev := range leaf.Errors {
		c.Problems = append(c.Problems, Render("error", ev.Err, r))
	}
	return c
}

// Render describes err with its trace. Failures get the abbreviated trace
// and errors the full one.
func Render(kind string, err error, r failure.Renderer) Problem {
	var b strings.Builder
	if kind == "failure" {
		r.PrintFailure(&b, err)
	} else {
		r.PrintError(&b, err)
	}
	return Problem{Kind: kind, Type: failure.TypeName(err), Message: err.Error(), Trace: b.String()}
}

func status(passed bool) string {
	if passed {
		return StatusPassed
	}
	return StatusFailed
}
