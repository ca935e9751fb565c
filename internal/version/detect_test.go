package version

import (
	"errors"
	"os/exec"
	"runtime"
	"testing"
)

func fakeCommands(outputs map[string]string) CommandFunc {
	return func(name string, args ...string) (string, error) {
		out, ok := outputs[name]
		if !ok {
			return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
		}
		return out, nil
	}
}

func TestSemverPrefix(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2.6.9", "2.6"},
		{"14.17.0", "14.17"},
		{"", ""},
		{"1", ""},
	}
	for _, c := range cases {
		if got := semverPrefix(c.in); got != c.want {
			t.Fatalf("semverPrefix(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCompareMajorMinor(t *testing.T) {
	tests := []struct {
		desired string
		actual  string
		match   bool
	}{
		{"2.6.9", "2.6.3", true},
		{"2.6", "2.6.3", true},
		{"14.17", "14.18.1", false},
		{"", "14.18.1", false},
		{"3.12", "", false},
	}
	for _, tt := range tests {
		if got := CompareMajorMinor(tt.desired, tt.actual); got != tt.match {
			t.Fatalf("CompareMajorMinor(%q,%q)=%v want %v", tt.desired, tt.actual, got, tt.match)
		}
	}
}

func TestDetect(t *testing.T) {
	run := fakeCommands(map[string]string{
		"python3": "Python 3.12.4",
		"node":    "v20.11.1",
		"ruby":    "no version here",
	})

	info, err := Detect("python", run)
	if err != nil || info.Version != "3.12.4" {
		t.Fatalf("python: got %+v, %v", info, err)
	}
	info, err = Detect("node", run)
	if err != nil || info.Version != "20.11.1" {
		t.Fatalf("node: got %+v, %v", info, err)
	}
	if _, err := Detect("ruby", run); err == nil {
		t.Fatalf("expected parse error for ruby")
	}
	if _, err := Detect("perl", run); err == nil {
		t.Fatalf("expected error for unknown interpreter")
	}
}

func TestMissing(t *testing.T) {
	_, err := Detect("ruby", fakeCommands(nil))
	if !Missing(err) {
		t.Fatalf("expected missing executable, got %v", err)
	}
	if Missing(errors.New("exit status 1")) {
		t.Fatalf("plain error reported as missing")
	}
}

func TestProperties(t *testing.T) {
	props := Properties(fakeCommands(map[string]string{"python3": "Python 3.11.2"}))
	if props["go.version"] != runtime.Version() || props["os.name"] != runtime.GOOS || props["os.arch"] != runtime.GOARCH {
		t.Fatalf("unexpected platform properties: %v", props)
	}
	if props["python.version"] != "3.11.2" {
		t.Fatalf("expected python version, got %v", props)
	}
	if _, ok := props["node.version"]; ok {
		t.Fatalf("undetected interpreter should be absent: %v", props)
	}
}
