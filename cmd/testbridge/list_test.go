package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bgricker/testbridge/internal/output"
)

func TestListCommandBasic(t *testing.T) {
	root := scriptTree(t)
	chdir(t, root)

	out, _, err := execute(t, "list", "--dir", "tests")
	if err != nil {
		t.Fatalf("command execute: %v", err)
	}

	want := "Scripts\n" +
		"  • calc.test_fail (" + filepath.Join("tests", "calc", "test_fail.sh") + ")\n" +
		"  • test_crash (" + filepath.Join("tests", "test_crash.sh") + ")\n" +
		"  • test_ok (" + filepath.Join("tests", "test_ok.sh") + ")\n" +
		"3 units\n"
	if !strings.HasPrefix(out, want) {
		t.Fatalf("unexpected output:\n%s", diffStrings(want, out))
	}
	if !strings.Contains(out, "registered suites: ") || !strings.Contains(out, "mathChecks") {
		t.Fatalf("expected registered suites hint:\n%s", out)
	}
}

func TestListCommandFilters(t *testing.T) {
	root := scriptTree(t)
	chdir(t, root)

	out, _, err := execute(t, "list", "--dir", "tests", "--only", "/^test_/", "--skip", "crash")
	if err != nil {
		t.Fatalf("command execute: %v", err)
	}
	if !strings.Contains(out, "  • test_ok (") || strings.Contains(out, "test_crash") || strings.Contains(out, "calc.test_fail") {
		t.Fatalf("unexpected filtered output:\n%s", out)
	}
	if !strings.Contains(out, "1 units\n") {
		t.Fatalf("expected one unit:\n%s", out)
	}
}

func TestListCommandSuite(t *testing.T) {
	root := t.TempDir()
	chdir(t, root)

	out, _, err := execute(t, "list", "--suite", "main.mathChecks")
	if err != nil {
		t.Fatalf("command execute: %v", err)
	}
	if !strings.HasPrefix(out, "Suites\n") || !strings.Contains(out, "mathChecks [2 cases]\n") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "registered suites") {
		t.Fatalf("hint should be omitted when suites are selected:\n%s", out)
	}
}

func TestListCommandJSON(t *testing.T) {
	root := scriptTree(t)
	chdir(t, root)

	out, _, err := execute(t, "list", "--dir", "tests", "--format", "json")
	if err != nil {
		t.Fatalf("command execute: %v", err)
	}

	var rep output.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if rep.Summary != nil {
		t.Fatalf("list should not carry a run summary")
	}
	if len(rep.Units) != 3 || rep.Units[2].Kind != "script" || rep.Units[2].Cases != 1 {
		t.Fatalf("unexpected units: %+v", rep.Units)
	}
}

func TestListCommandNoMatches(t *testing.T) {
	root := scriptTree(t)
	chdir(t, root)

	out, _, err := execute(t, "list", "--dir", "tests", "--only", "nothing-matches")
	if err != nil {
		t.Fatalf("command execute: %v", err)
	}
	if out != "No matching tests\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestListCommandRejectsBadConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".testbridge.yml"), "workflows: [ci.yml]\n", 0o644)
	chdir(t, root)

	if _, _, err := execute(t, "list"); err == nil || !strings.Contains(err.Error(), "validate config") {
		t.Fatalf("expected config validation error, got %v", err)
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)

	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errBuf)

	err := cmd.Execute()
	return out.String(), errBuf.String(), err
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %q: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore dir: %v", err)
		}
	})
}

func writeFile(t *testing.T, path, body string, mode os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %q: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(body), mode); err != nil {
		t.Fatalf("write file %q: %v", path, err)
	}
}

func diffStrings(want, got string) string {
	if want == got {
		return ""
	}
	return "--- want\n" + want + "\n--- got\n" + got
}
