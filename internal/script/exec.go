package script

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/log"
)

// Directives an executable script prints on stdout to talk to the bridge.
const (
	AssertDirective = "::assert::"
	FailDirective   = "::fail::"
)

// ExecOptions configure how executable scripts run.
type ExecOptions struct {
	Root      string
	Stdout    io.Writer
	Stderr    io.Writer
	Verbose   bool
	TailLines int
	Env       []string
	Log       log.Logger
}

// ExecResolver resolves refs to executable files on disk.
type ExecResolver struct {
	opts ExecOptions
}

// NewExecResolver creates a resolver with the supplied options.
func NewExecResolver(opts ExecOptions) *ExecResolver {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.TailLines <= 0 {
		opts.TailLines = 20
	}
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	if opts.Log == nil {
		opts.Log = log.New()
	}
	return &ExecResolver{opts: opts}
}

// Resolve implements Resolver.
func (r *ExecResolver) Resolve(ref Ref) (Script, error) {
	if ref.Path == "" {
		return nil, fmt.Errorf("module %q has no file: %w", ref.Module, ErrNotFound)
	}
	path := ref.Path
	if !filepath.IsAbs(path) && r.opts.Root != "" {
		path = filepath.Join(r.opts.Root, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("script %q: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("stat script %q: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("script %q is a directory", path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &execScript{module: ref.Module, path: path, opts: r.opts}, nil
}

// ExitError reports a script process that exited unsuccessfully.
type ExitError struct {
	Path   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", filepath.Base(e.Path), e.Code)
	if e.Stderr != "" {
		msg += ":\n" + e.Stderr
	}
	return msg
}

type execScript struct {
	module string
	path   string
	opts   ExecOptions
}

// Load runs the script process. Everything it prints on stdout is kept as
// the unit's output; directive lines are turned into assertions.
func (s *execScript) Load(ctx context.Context, a *Asserter) error {
	args := commandArgs(s.path)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = filepath.Dir(s.path)
	cmd.Env = mergeEnv(s.opts.Env, map[string]string{
		"TESTBRIDGE_MODULE": s.module,
		"TESTBRIDGE_ROOT":   s.opts.Root,
	})

	var stdoutBuf, stderrBuf strings.Builder
	if s.opts.Verbose {
		cmd.Stdout = io.MultiWriter(s.opts.Stdout, &stdoutBuf)
		cmd.Stderr = io.MultiWriter(s.opts.Stderr, &stderrBuf)
	} else {
		cmd.Stdout = &stdoutBuf
		cmd.Stderr = &stderrBuf
	}

	s.opts.Log.Debug("Executing script", "module", s.module, "cmd", strings.Join(args, " "))
	err := cmd.Run()
	a.Output(stdoutBuf.String())
	applyDirectives(a, stdoutBuf.String())

	if err != nil {
		return &ExitError{Path: s.path, Code: exitCode(err), Stderr: tailLines(stderrBuf.String(), s.opts.TailLines)}
	}
	return nil
}

func applyDirectives(a *Asserter, stdout string) {
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == AssertDirective:
			a.called()
		case strings.HasPrefix(line, FailDirective):
			a.called()
			a.Fail(strings.TrimSpace(strings.TrimPrefix(line, FailDirective)))
		}
	}
}

// commandArgs picks an interpreter from the file extension; anything else
// is executed directly.
func commandArgs(path string) []string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sh":
		return []string{"sh", path}
	case ".bash":
		return []string{"bash", path}
	case ".py":
		return []string{"python3", path}
	case ".rb":
		return []string{"ruby", path}
	case ".js", ".mjs":
		return []string{"node", path}
	case ".ps1":
		return []string{"pwsh", "-File", path}
	case ".bat", ".cmd":
		if runtime.GOOS == "windows" {
			return []string{"cmd", "/C", path}
		}
	}
	return []string{path}
}

// Extensions lists the file extensions commandArgs knows an interpreter for.
func Extensions() []string {
	return []string{".sh", ".bash", ".py", ".rb", ".js", ".mjs", ".ps1", ".bat", ".cmd"}
}

func mergeEnv(base []string, overlays ...map[string]string) []string {
	envMap := make(map[string]string, len(base)+len(overlays)*2)
	for _, kv := range base {
		if idx := strings.Index(kv, "="); idx != -1 {
			envMap[kv[:idx]] = kv[idx+1:]
		}
	}
	for _, overlay := range overlays {
		for k, v := range overlay {
			envMap[k] = v
		}
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 127
}

func tailLines(input string, maxLines int) string {
	if input == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(input, "\n"), "\n")
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n")
}
