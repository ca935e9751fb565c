package failure

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Lines replaced one-for-one whose similarity reaches this ratio get an
// intraline "?" hint line.
const hintRatio = 0.75

// Diff compares expected and actual line by line and returns only the
// differing neighbourhoods: every run of changed lines is numbered and
// preceded by one unchanged line of context.
func Diff(expected, actual string) string {
	var b strings.Builder
	b.WriteString("--- EXPECTED\n+++ ACTUAL\n")

	var last string
	inChange := false
	blocks := 0
	for _, line := range Compare(splitLines(expected), splitLines(actual)) {
		if line == "" {
			continue
		}
		switch line[0] {
		case '-', '+', '?':
			if !inChange {
				blocks++
				fmt.Fprintf(&b, "\nDiff %d:\n%s", blocks, last)
			}
			b.WriteString(line)
			inChange = true
		default:
			if inChange {
				b.WriteString(line)
				inChange = false
			}
		}
		last = line
	}
	return b.String()
}

// Compare produces ndiff-style lines: "  " unchanged, "- " only in a,
// "+ " only in b and "? " intraline hints. Every returned line ends in a
// newline.
func Compare(a, b []string) []string {
	var out []string
	for _, op := range difflib.NewMatcher(a, b).GetOpCodes() {
		switch op.Tag {
		case 'e':
			out = appendPrefixed(out, "  ", a[op.I1:op.I2])
		case 'd':
			out = appendPrefixed(out, "- ", a[op.I1:op.I2])
		case 'i':
			out = appendPrefixed(out, "+ ", b[op.J1:op.J2])
		case 'r':
			out = append(out, replaceLines(a[op.I1:op.I2], b[op.J1:op.J2])...)
		}
	}
	return out
}

func replaceLines(a, b []string) []string {
	if len(a) != len(b) {
		out := appendPrefixed(nil, "- ", a)
		return appendPrefixed(out, "+ ", b)
	}
	var out []string
	for i := range a {
		aHint, bHint, similar := intraline(a[i], b[i])
		if !similar {
			out = append(out, terminate("- "+a[i]), terminate("+ "+b[i]))
			continue
		}
		out = append(out, terminate("- "+a[i]))
		if aHint != "" {
			out = append(out, "? "+aHint+"\n")
		}
		out = append(out, terminate("+ "+b[i]))
		if bHint != "" {
			out = append(out, "? "+bHint+"\n")
		}
	}
	return out
}

// intraline marks replaced (^), deleted (-) and inserted (+) characters of
// two similar lines.
func intraline(a, b string) (string, string, bool) {
	ac := strings.Split(strings.TrimRight(a, "\n"), "")
	bc := strings.Split(strings.TrimRight(b, "\n"), "")
	m := difflib.NewMatcher(ac, bc)
	if m.Ratio() < hintRatio {
		return "", "", false
	}
	var ah, bh strings.Builder
	for _, op := range m.GetOpCodes() {
		la, lb := op.I2-op.I1, op.J2-op.J1
		switch op.Tag {
		case 'e':
			ah.WriteString(strings.Repeat(" ", la))
			bh.WriteString(strings.Repeat(" ", lb))
		case 'r':
			ah.WriteString(strings.Repeat("^", la))
			bh.WriteString(strings.Repeat("^", lb))
		case 'd':
			ah.WriteString(strings.Repeat("-", la))
		case 'i':
			bh.WriteString(strings.Repeat("+", lb))
		}
	}
	return strings.TrimRight(ah.String(), " "), strings.TrimRight(bh.String(), " "), true
}

func appendPrefixed(out []string, prefix string, lines []string) []string {
	for _, l := range lines {
		out = append(out, terminate(prefix+l))
	}
	return out
}

func terminate(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// splitLines splits s after each newline, keeping the terminators.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
