package failure

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultMaxDepth bounds the frames printed for assertion failures.
const DefaultMaxDepth = 5

var (
	// EngineFiles matches source files of the bridge itself. Their frames are
	// dropped from failure traces.
	EngineFiles = regexp.MustCompile(`/internal/(adapter|failure|framework|result|runner|script)/[^/]+\.go$|/src/(runtime|testing|reflect)/`)

	// InternalFrames matches functions of the host framework's reflection and
	// dispatch plumbing. Consecutive runs collapse to "...".
	InternalFrames = regexp.MustCompile(`^(runtime\.|reflect\.|testing\.|github\.com/bgricker/testbridge/internal/(framework|adapter|result)\.)`)
)

// StackCarrier is implemented by ordinary errors that carry raw program
// counters, such as recovered panics.
type StackCarrier interface {
	StackPCs() []uintptr
}

// Renderer prints failures and errors for reports.
type Renderer struct {
	// TestRoot is trimmed from printed file paths.
	TestRoot string
	// MaxDepth bounds assertion failure traces; zero means DefaultMaxDepth.
	MaxDepth int
	// Indent prefixes collapsed-frame markers of ordinary errors.
	Indent string
	// Engine and Internal default to EngineFiles and InternalFrames.
	Engine   *regexp.Regexp
	Internal *regexp.Regexp
}

func (r Renderer) maxDepth() int {
	if r.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return r.MaxDepth
}

func (r Renderer) engine() *regexp.Regexp {
	if r.Engine == nil {
		return EngineFiles
	}
	return r.Engine
}

func (r Renderer) internal() *regexp.Regexp {
	if r.Internal == nil {
		return InternalFrames
	}
	return r.Internal
}

// PrintFailure prints the abbreviated trace used for assertion failures.
func (r Renderer) PrintFailure(w io.Writer, err error) {
	var a *Assertion
	var c *Comparison
	var s *ScriptError
	switch {
	case errors.As(err, &c):
		fmt.Fprintf(w, "ComparisonFailure: %s\n", c.Error())
		r.printFiltered(w, c.Frames)
	case errors.As(err, &a):
		fmt.Fprintf(w, "AssertionFailureError: %s\n", a.Message)
		r.printFiltered(w, a.Frames)
	case errors.As(err, &s):
		r.printScriptError(w, s)
	default:
		r.printCollapsed(w, err)
	}
}

// PrintError prints the full trace used for unexpected errors.
func (r Renderer) PrintError(w io.Writer, err error) {
	var s *ScriptError
	if errors.As(err, &s) {
		r.printScriptError(w, s)
		return
	}
	var f Framed
	if errors.As(err, &f) {
		fmt.Fprintf(w, "%s: %s\n", TypeName(err), err.Error())
		r.printFrames(w, f.StackFrames())
		return
	}
	r.printCollapsed(w, err)
}

// printFiltered drops engine frames and stops after MaxDepth frames.
func (r Renderer) printFiltered(w io.Writer, frames []Frame) {
	io.WriteString(w, "at:")
	printed := 0
	for _, f := range frames {
		if r.engine().MatchString(f.File) && !strings.HasSuffix(f.File, "_test.go") {
			continue
		}
		if printed >= r.maxDepth() {
			break
		}
		r.printFrame(w, f)
		printed++
	}
	io.WriteString(w, "\n")
}

// printFrames prints every frame.
func (r Renderer) printFrames(w io.Writer, frames []Frame) {
	io.WriteString(w, "at:")
	for _, f := range frames {
		r.printFrame(w, f)
	}
	io.WriteString(w, "\n")
}

func (r Renderer) printScriptError(w io.Writer, s *ScriptError) {
	fmt.Fprintf(w, "Script error: %s\n", s.Error())
	if len(s.Frames) > 0 {
		r.printFrames(w, s.Frames)
	}
}

func (r Renderer) printFrame(w io.Writer, f Frame) {
	fmt.Fprintf(w, "\t%s:%s[%d]\n\t...%s\n", r.relative(f.File), f.Function, f.Line, f.Source)
}

// printCollapsed prints an ordinary error with every non-internal frame it
// carries; each run of internal frames becomes a single "..." line.
func (r Renderer) printCollapsed(w io.Writer, err error) {
	fmt.Fprintf(w, "%s: %s\n", TypeName(err), err.Error())
	var sc StackCarrier
	if !errors.As(err, &sc) {
		return
	}
	r.WriteCollapsed(w, FramesFromPCs(sc.StackPCs()))
}

// WriteCollapsed prints frames, replacing each run of internal frames with
// one "..." marker.
func (r Renderer) WriteCollapsed(w io.Writer, frames []Frame) {
	skipping := false
	for _, f := range frames {
		if r.internal().MatchString(f.Function) {
			if !skipping {
				skipping = true
				fmt.Fprintf(w, "%s    ...\n", r.Indent)
			}
			continue
		}
		skipping = false
		fmt.Fprintf(w, "%s at %s(%s:%d)\n", r.Indent, f.Function, r.relative(f.File), f.Line)
	}
}

func (r Renderer) relative(file string) string {
	if r.TestRoot == "" {
		return file
	}
	root := filepath.ToSlash(filepath.Clean(r.TestRoot)) + "/"
	return strings.TrimPrefix(filepath.ToSlash(file), root)
}
