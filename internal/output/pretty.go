package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Unit describes a discovered test unit for list output.
type Unit struct {
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Source string `json:"source,omitempty"`
	Cases  int    `json:"cases"`
}

// PrettyRenderer renders unit listings and run verdicts in a human-friendly
// format.
type PrettyRenderer struct {
	out io.Writer
}

// NewPretty creates a PrettyRenderer writing to the provided writer.
func NewPretty(out io.Writer) *PrettyRenderer {
	return &PrettyRenderer{out: out}
}

// RenderList renders units grouped by kind.
func (p *PrettyRenderer) RenderList(units []Unit) error {
	var kind string
	for _, u := range units {
		if u.Kind != kind {
			kind = u.Kind
			if _, err := fmt.Fprintf(p.out, "%s\n", kindTitle(kind)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(p.out, "  • %s\n", decorateName(u.Name, u.Source, u.Cases)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(p.out, "%d units\n", len(units))
	return err
}

// RenderVerdict prints a one-line outcome of the run. Color is applied by
// fatih/color, which disables itself when the output is not a terminal.
func (p *PrettyRenderer) RenderVerdict(passed, failed, totalErrors int, elapsed time.Duration) error {
	status := "passed"
	paint := color.New(color.FgGreen, color.Bold)
	if failed > 0 {
		status = "failed"
		paint = color.New(color.FgRed, color.Bold)
	}
	line := fmt.Sprintf("%s %s: %d passed, %d failed, %d errors (%s)",
		statusGlyph(status), strings.ToUpper(status), passed, failed, totalErrors, formatDuration(elapsed))
	_, err := paint.Fprintln(p.out, line)
	return err
}

func kindTitle(kind string) string {
	switch kind {
	case "script":
		return "Scripts"
	case "suite":
		return "Suites"
	default:
		return kind
	}
}

func decorateName(name, source string, cases int) string {
	label := name
	if source != "" && source != name {
		label = fmt.Sprintf("%s (%s)", name, source)
	}
	if cases != 1 {
		label = fmt.Sprintf("%s [%d cases]", label, cases)
	}
	return label
}

func statusGlyph(status string) string {
	switch status {
	case "passed":
		return "✓"
	case "failed":
		return "✗"
	default:
		return "?"
	}
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Truncate(time.Millisecond).String()
}
