package version

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
)

// Info captures a language version installed on the system.
type Info struct {
	Name    string
	Version string
}

// CommandFunc runs a command and returns its trimmed combined output.
type CommandFunc func(name string, args ...string) (string, error)

type interpreter struct {
	name  string
	bin   string
	args  []string
	regex *regexp.Regexp
}

var interpreters = []interpreter{
	{name: "python", bin: "python3", args: []string{"--version"}, regex: regexp.MustCompile(`(?i)python\s+(\d+\.\d+(?:\.\d+)?)`)},
	{name: "ruby", bin: "ruby", args: []string{"-v"}, regex: regexp.MustCompile(`(?i)ruby\s+(\d+\.\d+(?:\.\d+)?)`)},
	{name: "node", bin: "node", args: []string{"-v"}, regex: regexp.MustCompile(`(?i)v?(\d+\.\d+(?:\.\d+)?)`)},
}

// Interpreters lists the names of the interpreters Detect knows.
func Interpreters() []string {
	names := make([]string, 0, len(interpreters))
	for _, in := range interpreters {
		names = append(names, in.name)
	}
	return names
}

// Detect returns the version of the named interpreter by asking its
// executable. run defaults to executing the command.
func Detect(name string, run CommandFunc) (Info, error) {
	if run == nil {
		run = runCommand
	}
	for _, in := range interpreters {
		if in.name != name {
			continue
		}
		out, err := run(in.bin, in.args...)
		if err != nil {
			return Info{}, err
		}
		match := in.regex.FindStringSubmatch(out)
		if len(match) < 2 {
			return Info{}, fmt.Errorf("unable to parse %s version from %q", name, out)
		}
		return Info{Name: name, Version: match[1]}, nil
	}
	return Info{}, fmt.Errorf("unknown interpreter %q", name)
}

// DetectPython returns the system Python version by calling `python3 --version`.
func DetectPython() (Info, error) { return Detect("python", nil) }

// DetectRuby returns the system Ruby version by calling `ruby -v`.
func DetectRuby() (Info, error) { return Detect("ruby", nil) }

// DetectNode returns the system Node.js version by calling `node -v`.
func DetectNode() (Info, error) { return Detect("node", nil) }

// Properties describes the environment tests run in: the Go toolchain,
// the platform and every interpreter that could be detected.
func Properties(run CommandFunc) map[string]string {
	props := map[string]string{
		"go.version": runtime.Version(),
		"os.name":    runtime.GOOS,
		"os.arch":    runtime.GOARCH,
	}
	for _, name := range Interpreters() {
		info, err := Detect(name, run)
		if err != nil {
			continue
		}
		props[name+".version"] = info.Version
	}
	return props
}

func runCommand(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = nil
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// CompareMajorMinor compares major.minor portions of two semver-like versions.
func CompareMajorMinor(desired, actual string) bool {
	d := semverPrefix(desired)
	a := semverPrefix(actual)
	if d == "" || a == "" {
		return false
	}
	return strings.EqualFold(d, a)
}

func semverPrefix(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) < 2 {
		return ""
	}
	return fmt.Sprintf("%s.%s", parts[0], parts[1])
}

// Missing reports whether executing the command returns a not-found error.
func Missing(cmdErr error) bool {
	return errors.Is(cmdErr, exec.ErrNotFound)
}
