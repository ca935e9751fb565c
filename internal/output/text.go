package output

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bgricker/testbridge/internal/failure"
	"github.com/bgricker/testbridge/internal/result"
)

// DateLayout is the layout of the "Generated" header line.
const DateLayout = "Mon Jan 02 15:04:05 MST 2006"

var rule = strings.Repeat("-", 50)

// TextOptions configure the plain-text report.
type TextOptions struct {
	Product  string
	Renderer failure.Renderer
	Now      func() time.Time
}

// TextRenderer prints the plain-text report: a header with run totals,
// failed and passed summaries, then failure details.
type TextRenderer struct {
	out  io.Writer
	opts TextOptions
}

// NewText creates a text renderer writing to out.
func NewText(out io.Writer, opts TextOptions) *TextRenderer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Renderer.Indent == "" {
		opts.Renderer.Indent = strings.Repeat(" ", 8)
	}
	return &TextRenderer{out: out, opts: opts}
}

// Render writes the full report for c.
func (t *TextRenderer) Render(c *result.Collector) error {
	var buf bytes.Buffer
	passed, failed := c.SplitResults()
	t.header(&buf, c, passed, failed)
	t.summary(&buf, passed, failed)
	if len(failed) > 0 {
		buf.WriteString("DETAILS: \n")
		buf.WriteString(rule + "\n")
		for _, rec := range failed {
			t.details(&buf, rec)
		}
	}
	_, err := buf.WriteTo(t.out)
	return err
}

func (t *TextRenderer) header(w io.Writer, c *result.Collector, passed, failed []result.Record) {
	if t.opts.Product != "" {
		fmt.Fprintf(w, "Product: %s\n", t.opts.Product)
	}
	fmt.Fprintf(w, "Run: %d,  Passed: %d,  Failed: %d\n", c.TotalRunCount(), len(passed), len(failed))
	fmt.Fprintf(w, "Generated %s\n", t.opts.Now().Format(DateLayout))
	fmt.Fprintf(w, "Run Time: %d sec\n\n", seconds(c.TotalRunTime()))
}

func (t *TextRenderer) summary(w io.Writer, passed, failed []result.Record) {
	if len(failed) > 0 {
		fmt.Fprintf(w, "FAILED: \n%s\n", rule)
		for _, rec := range failed {
			fmt.Fprintf(w, "%-60s    %4d sec;  %s  %3d failures  %3d errors\n",
				label(rec), seconds(rec.TotalTime()), countText(rec), rec.FailureCount(), rec.ErrorCount())
		}
		fmt.Fprintln(w)
	}
	if len(passed) > 0 {
		fmt.Fprintf(w, "SUCCESSFUL:  \n%s\n", rule)
		for _, rec := range passed {
			fmt.Fprintf(w, "%-60s    %4d sec; %s\n", label(rec), seconds(rec.TotalTime()), countText(rec))
		}
		fmt.Fprintln(w)
	}
}

func (t *TextRenderer) details(w io.Writer, rec result.Record) {
	fmt.Fprintf(w, "%-40s \t  %4d sec;    %s  %3d failures  %3d errors\n",
		label(rec), seconds(rec.TotalTime()), countText(rec), rec.FailureCount(), rec.ErrorCount())
	switch rec := rec.(type) {
	case *result.Group:
		for _, leaf := range rec.Cases() {
			if leaf.Passed() {
				continue
			}
			fmt.Fprintf(w, "( %s ) \n", leaf.Name)
			t.problems(w, leaf)
			fmt.Fprintln(w)
		}
	case *result.Leaf:
		t.problems(w, rec)
	}
	fmt.Fprintln(w)
}

func (t *TextRenderer) problems(w io.Writer, leaf *result.Leaf) {
	if len(leaf.Failures) > 0 {
		fmt.Fprintln(w, "    Failures:")
		for i, ev := range leaf.Failures {
			fmt.Fprintf(w, "    %d. ", i+1)
			t.opts.Renderer.PrintFailure(w, ev.Err)
		}
	}
	if len(leaf.Errors) > 0 {
		fmt.Fprintln(w, "    Errors:")
		for i, ev := range leaf.Errors {
			fmt.Fprintf(w, "    %d. ", i+1)
			t.opts.Renderer.PrintError(w, ev.Err)
		}
	}
}

func label(rec result.Record) string {
	return "[ " + rec.Identity() + " ]:"
}

// countText describes how many cases and assertions a record ran.
func countText(rec result.Record) string {
	var b strings.Builder
	if _, ok := rec.(*result.Group); ok {
		fmt.Fprintf(&b, "%3d tests     ", rec.TestCount())
	}
	if n := rec.AssertCount(); n > 0 {
		if b.Len() > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%3d assertions", n)
	}
	return b.String()
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}
