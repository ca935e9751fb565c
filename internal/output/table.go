package output

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/bgricker/testbridge/internal/report"
)

// TableRenderer prints the run summary as a table of records and cases.
type TableRenderer struct {
	out io.Writer
}

// NewTable creates a table renderer writing to out.
func NewTable(out io.Writer) *TableRenderer {
	return &TableRenderer{out: out}
}

// Render writes one row per record, followed by a row per case of each
// test class.
func (r *TableRenderer) Render(s report.Summary) error {
	var buf bytes.Buffer
	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	title := "Test Run"
	if s.Product != "" {
		title = s.Product + " " + title
	}
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Status", "Test", "Tests", "Assertions", "Failures", "Errors", "Duration"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Test", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Assertions", Align: text.AlignRight},
		{Name: "Failures", Align: text.AlignRight},
		{Name: "Errors", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
	})

	for _, rec := range s.Records {
		t.AppendRow(table.Row{
			statusGlyph(rec.Status), rec.Identity, rec.Tests, rec.Assertions,
			rec.Failures, rec.Errors, formatDuration(rec.Duration),
		})
		if rec.Kind != "group" {
			continue
		}
		for i, c := range rec.Cases {
			prefix := "├── "
			if i == len(rec.Cases)-1 {
				prefix = "└── "
			}
			t.AppendRow(table.Row{
				statusGlyph(c.Status), prefix + c.Name, "", c.Assertions,
				countKind(c.Problems, "failure"), countKind(c.Problems, "error"), formatDuration(c.Duration),
			})
		}
	}

	t.AppendFooter(table.Row{
		"", fmt.Sprintf("%d passed, %d failed", s.Passed, s.Failed), s.TotalTests, "", "", s.TotalErrors, formatDuration(s.Duration),
	})
	style := table.StyleColoredBlackOnGreenWhite
	if s.Failed > 0 {
		style = table.StyleColoredBlackOnRedWhite
	}
	style.Format.Footer = text.FormatDefault
	t.SetStyle(style)
	t.Render()
	_, err := buf.WriteTo(r.out)
	return err
}

func countKind(problems []report.Problem, kind string) int {
	n := 0
	for _, p := range problems {
		if p.Kind == kind {
			n++
		}
	}
	return n
}
