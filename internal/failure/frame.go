package failure

import (
	"bufio"
	"os"
	"runtime"
	"strings"
	"sync"
)

const maxCapturedFrames = 64

// Frame is one entry of a captured call stack.
type Frame struct {
	File     string
	Function string
	Line     int
	Source   string
}

// Capture snapshots the caller's stack, innermost frame first. skip counts
// frames above the caller of Capture, so Capture(0) starts at the function
// that called Capture.
func Capture(skip int) []Frame {
	pcs := make([]uintptr, maxCapturedFrames)
	n := runtime.Callers(skip+2, pcs)
	return FramesFromPCs(pcs[:n])
}

// FramesFromPCs resolves program counters into frames with source text.
func FramesFromPCs(pcs []uintptr) []Frame {
	if len(pcs) == 0 {
		return nil
	}
	frames := runtime.CallersFrames(pcs)
	var out []Frame
	for {
		f, more := frames.Next()
		if f.Function != "" || f.File != "" {
			out = append(out, Frame{
				File:     f.File,
				Function: f.Function,
				Line:     f.Line,
				Source:   sourceLine(f.File, f.Line),
			})
		}
		if !more {
			break
		}
	}
	return out
}

var sources = struct {
	sync.Mutex
	files map[string][]string
}{files: make(map[string][]string)}

func sourceLine(file string, line int) string {
	if file == "" || line <= 0 {
		return ""
	}
	sources.Lock()
	defer sources.Unlock()
	lines, ok := sources.files[file]
	if !ok {
		lines = readLines(file)
		sources.files[file] = lines
	}
	if line > len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[line-1])
}

func readLines(file string) []string {
	f, err := os.Open(file)
	if err != nil {
		return nil
	}
	defer f.Close()
	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}
