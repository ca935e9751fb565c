package output

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
}

func TestTextRenderSections(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewText(buf, TextOptions{Product: "calc", Now: fixedNow})
	if err := r.Render(sampleCollector()); err != nil {
		t.Fatalf("render text: %v", err)
	}
	out := buf.String()

	header := "Product: calc\nRun: 3,  Passed: 1,  Failed: 2\nGenerated Wed Mar 04 09:00:00 UTC 2026\nRun Time: 14 sec\n\n"
	if !strings.HasPrefix(out, header) {
		t.Fatalf("unexpected header:\n%s", out)
	}

	failedAt := strings.Index(out, "FAILED: \n")
	passedAt := strings.Index(out, "SUCCESSFUL:  \n")
	detailsAt := strings.Index(out, "DETAILS: \n")
	if failedAt < 0 || passedAt < failedAt || detailsAt < passedAt {
		t.Fatalf("sections out of order:\n%s", out)
	}

	passRow := "[ calc.test_pass ]:" + strings.Repeat(" ", 60-len("[ calc.test_pass ]:")) + "       2 sec;   1 assertions\n"
	if !strings.Contains(out, passRow) {
		t.Fatalf("missing passed row %q in:\n%s", passRow, out)
	}
	if !strings.Contains(out, "  2 tests     ") {
		t.Fatalf("expected test count for class:\n%s", out)
	}
	if !strings.Contains(out, "    1 failures    0 errors\n") {
		t.Fatalf("expected failure counts:\n%s", out)
	}
}

func TestTextRenderDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewText(buf, TextOptions{Now: fixedNow}).Render(sampleCollector()); err != nil {
		t.Fatalf("render text: %v", err)
	}
	details := buf.String()[strings.Index(buf.String(), "DETAILS: \n"):]

	want := []string{
		"    Failures:\n    1. ComparisonFailure: Values are not equal expected:<1> but was:<2>\nat:\n",
		"( TestDiv ) \n    Errors:\n    1. framework.PanicError: divide by zero\n",
	}
	for _, w := range want {
		if !strings.Contains(details, w) {
			t.Fatalf("expected %q in details:\n%s", w, details)
		}
	}
	if strings.Contains(details, "( TestAdd )") {
		t.Fatalf("passing case should not be detailed:\n%s", details)
	}
	if strings.Contains(buf.String(), "Product:") {
		t.Fatalf("product line without product:\n%s", buf.String())
	}
}
