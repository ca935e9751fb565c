package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/bgricker/testbridge/internal/framework"
	"github.com/bgricker/testbridge/internal/output"
)

type mathChecks struct{}

func (mathChecks) TestAdd() error { return framework.AssertEquals("sum", 4, 2+2) }
func (mathChecks) TestMul() error { return framework.AssertEquals("product", 6, 2*3) }

func init() {
	framework.Default.Register(mathChecks{})
}

func TestRunCommandText(t *testing.T) {
	root := scriptTree(t)
	chdir(t, root)

	out, _, err := execute(t, "run", "--dir", "tests")
	if err == nil || err.Error() != "one or more tests failed" {
		t.Fatalf("expected failed run, got %v", err)
	}

	for _, want := range []string{
		"Run: 3,  Passed: 1,  Failed: 2\n",
		"[ calc.test_fail ]:",
		"AssertionFailureError: bad sum",
		"ERROR COUNT: 2\n",
		"FAILED: 1 passed, 2 failed, 2 errors",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "helper") {
		t.Fatalf("helper script should not run:\n%s", out)
	}
}

func TestRunCommandSuiteAndFiles(t *testing.T) {
	root := scriptTree(t)
	chdir(t, root)

	out, _, err := execute(t, "run", "--dir", "tests", "--suite", "main.mathChecks", "tests/test_ok.sh")
	if err != nil {
		t.Fatalf("command execute: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Run: 2,  Passed: 2,  Failed: 0\n") {
		t.Fatalf("unexpected header:\n%s", out)
	}
	if !strings.Contains(out, "mathChecks ]:") || !strings.Contains(out, "2 tests") {
		t.Fatalf("expected the suite record with two tests:\n%s", out)
	}
	if !strings.Contains(out, "PASSED: 2 passed, 0 failed, 0 errors") {
		t.Fatalf("expected passing verdict:\n%s", out)
	}
}

func TestRunCommandJSON(t *testing.T) {
	root := scriptTree(t)
	chdir(t, root)

	out, _, err := execute(t, "run", "--dir", "tests", "--format", "json", "--product", "calc")
	if err == nil {
		t.Fatalf("expected failed run")
	}

	var rep output.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if rep.Summary == nil || rep.Summary.TotalTests != 3 || rep.Summary.Product != "calc" || rep.Summary.ExitCode != 1 {
		t.Fatalf("unexpected summary: %+v", rep.Summary)
	}
	if len(rep.Units) != 3 || rep.Units[0].Name != "calc.test_fail" {
		t.Fatalf("unexpected units: %+v", rep.Units)
	}
}

func TestRunCommandArtifacts(t *testing.T) {
	root := scriptTree(t)
	chdir(t, root)

	out, _, err := execute(t, "run", "--dir", "tests", "tests/test_ok.sh",
		"--xml-dir", "reports", "--metrics-file", "out/run.prom", "--output", "out/report.txt")
	if err != nil {
		t.Fatalf("command execute: %v\n%s", err, out)
	}

	report, err := os.ReadFile(filepath.Join(root, "out", "report.txt"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(report), "[ test_ok ]:") {
		t.Fatalf("unexpected report file:\n%s", report)
	}
	if strings.Contains(out, "Run: 1") {
		t.Fatalf("report should not be on stdout:\n%s", out)
	}

	xmlData, err := os.ReadFile(filepath.Join(root, "reports", "TEST-test_ok.xml"))
	if err != nil {
		t.Fatalf("read xml: %v", err)
	}
	if !strings.Contains(string(xmlData), `name="go.version"`) || !strings.Contains(string(xmlData), "hello") {
		t.Fatalf("unexpected xml:\n%s", xmlData)
	}

	prom, err := os.ReadFile(filepath.Join(root, "out", "run.prom"))
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(prom), "testbridge_records_passed") {
		t.Fatalf("unexpected metrics:\n%s", prom)
	}
}

func TestRunCommandConfig(t *testing.T) {
	root := scriptTree(t)
	writeFile(t, filepath.Join(root, ".testbridge.yml"), "directory: tests\nonly:\n  - calc\nformat: table\n", 0o644)
	chdir(t, root)

	out, _, err := execute(t, "run")
	if err == nil {
		t.Fatalf("expected failed run")
	}
	if !strings.Contains(out, "calc.test_fail") || strings.Contains(out, "test_ok") {
		t.Fatalf("expected only calc tests in table:\n%s", out)
	}
	if !strings.Contains(out, "0 passed, 1 failed") {
		t.Fatalf("unexpected table footer:\n%s", out)
	}
}

func TestRunCommandListFromStdin(t *testing.T) {
	root := scriptTree(t)
	chdir(t, root)

	cmd := newRootCmd()
	cmd.SetArgs([]string{"run", "--dir", "tests", "--file", "-"})
	cmd.SetIn(strings.NewReader("# smoke\ntests/test_ok.sh\n"))
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("command execute: %v\n%s", err, buf.String())
	}
	if !strings.Contains(buf.String(), "Run: 1,  Passed: 1,  Failed: 0\n") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func TestRunCommandErrors(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	chdir(t, root)

	if _, _, err := execute(t, "run", "--dir", "empty"); err == nil || !strings.Contains(err.Error(), "no tests found") {
		t.Fatalf("expected no tests error, got %v", err)
	}
	if _, _, err := execute(t, "run", "--format", "html"); err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Fatalf("expected format error, got %v", err)
	}
	if _, _, err := execute(t, "run", "--suite", "main.noSuchSuite"); err == nil {
		t.Fatalf("expected unknown suite error")
	}
}

// scriptTree lays out a test directory with one passing, one failing and
// one crashing script, plus a helper that is not a test.
func scriptTree(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts need a POSIX sh")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tests", "test_ok.sh"), "echo '::assert::'\necho hello\n", 0o644)
	writeFile(t, filepath.Join(root, "tests", "calc", "test_fail.sh"), "echo '::fail:: bad sum'\n", 0o644)
	writeFile(t, filepath.Join(root, "tests", "test_crash.sh"), "echo oops >&2\nexit 3\n", 0o644)
	writeFile(t, filepath.Join(root, "tests", "helper.sh"), "echo helper\n", 0o644)
	return root
}
