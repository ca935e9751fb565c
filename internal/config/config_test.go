package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, root, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root, FileName), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Directory != "." || cfg.Format != FormatText || cfg.MaxTraceDepth != DefaultMaxTraceDepth {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadMergesFile(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `directory: tests
suites:
  - calc.Checks
format: table
product: calc
xml_dir: reports
max_trace_depth: 8
debug: true
only:
  - /math/
properties:
  build: "42"
`)

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Directory != "tests" || cfg.Format != FormatTable || cfg.Product != "calc" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.XMLDir != "reports" || cfg.MaxTraceDepth != 8 || !cfg.Debug || cfg.Verbose {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.Suites) != 1 || cfg.Suites[0] != "calc.Checks" || len(cfg.Only) != 1 {
		t.Fatalf("unexpected lists: %+v", cfg)
	}
	if cfg.Properties["build"] != "42" {
		t.Fatalf("expected properties, got %v", cfg.Properties)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "")
	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Format != FormatText {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "directory: tests\nworkflows:\n  - ci.yml\n")
	_, err := Load(root)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "validate config") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsBadFormat(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "format: html\n")
	if _, err := Load(root); err == nil {
		t.Fatalf("expected validation error for unknown format")
	}
}

func TestValidateTypes(t *testing.T) {
	cases := []struct {
		name string
		body string
		ok   bool
	}{
		{"valid", "verbose: true\nfiles: [a.sh]\n", true},
		{"bool as string", "verbose: \"yes\"\n", false},
		{"depth zero", "max_trace_depth: 0\n", false},
		{"list as scalar", "skip: calc\n", false},
		{"not a mapping", "- a\n- b\n", false},
	}
	for _, tc := range cases {
		err := Validate([]byte(tc.body))
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestApplyFlagsOverrides(t *testing.T) {
	cfg := Default()
	cfg.Only = []string{"from-file"}
	ApplyFlags(&cfg, FlagValues{
		Directory: StringFlag{Value: "scripts", Set: true},
		Format:    StringFlag{Value: FormatJSON, Set: true},
		Files:     SliceFlag{Values: []string{"test_a.sh"}},
		Verbose:   BoolFlag{Value: true, Set: true},
		Product:   StringFlag{Value: "", Set: false},
	})
	if cfg.Directory != "scripts" || cfg.Format != FormatJSON || !cfg.Verbose {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if len(cfg.Files) != 1 || cfg.Files[0] != "test_a.sh" {
		t.Fatalf("files not applied: %v", cfg.Files)
	}
	if len(cfg.Only) != 1 || cfg.Only[0] != "from-file" {
		t.Fatalf("unset flag should keep file value: %v", cfg.Only)
	}
}
