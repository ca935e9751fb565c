package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/cobra"

	"github.com/bgricker/testbridge/internal/adapter"
	"github.com/bgricker/testbridge/internal/config"
	"github.com/bgricker/testbridge/internal/discovery"
	"github.com/bgricker/testbridge/internal/filter"
	"github.com/bgricker/testbridge/internal/logging"
	"github.com/bgricker/testbridge/internal/output"
	"github.com/bgricker/testbridge/internal/runner"
	"github.com/bgricker/testbridge/internal/script"
	"github.com/bgricker/testbridge/internal/version"
)

// pipelineData bundles the units of a run with warnings and metadata.
type pipelineData struct {
	workdir  string
	testDir  string
	runner   *runner.Runner
	units    []adapter.Unit
	warnings []string
}

func loadPipeline(ctx context.Context, cmd *cobra.Command, cfg config.Config, workdir string) (pipelineData, error) {
	logger := logging.New(cmd.ErrOrStderr(), cfg.Verbose, cfg.Debug)

	testDir := absFrom(workdir, cfg.Directory)
	resolver := script.Chain{
		script.Default,
		script.NewExecResolver(script.ExecOptions{
			Root:    testDir,
			Stdout:  cmd.OutOrStdout(),
			Stderr:  cmd.ErrOrStderr(),
			Verbose: cfg.Verbose,
			Log:     logger,
		}),
	}
	r := runner.New(runner.Options{Log: logger, Resolver: resolver})

	refs, err := scriptRefs(cmd, cfg, workdir, testDir, logger)
	if err != nil {
		return pipelineData{}, err
	}
	units := r.ScriptUnits(ctx, refs)

	suites, err := r.SuiteUnits(cfg.Suites)
	if err != nil {
		return pipelineData{}, err
	}
	units = append(units, suites...)

	data := pipelineData{
		workdir:  workdir,
		testDir:  testDir,
		runner:   r,
		units:    units,
		warnings: detectVersionWarnings(workdir),
	}
	return data, nil
}

func scriptRefs(cmd *cobra.Command, cfg config.Config, workdir, testDir string, logger log.Logger) ([]script.Ref, error) {
	var explicit []string
	if cfg.FileList != "" {
		listPath := cfg.FileList
		if listPath != "-" {
			listPath = absFrom(workdir, listPath)
		}
		listed, err := discovery.ReadListFile(listPath, cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		explicit = append(explicit, listed...)
	}
	explicit = append(explicit, cfg.Files...)
	for i, p := range explicit {
		explicit[i] = absFrom(workdir, p)
	}

	// Named suites on their own run without walking the test directory.
	if len(explicit) == 0 && cfg.FileList == "" && len(cfg.Suites) > 0 {
		return nil, nil
	}

	paths, err := discovery.Scripts(testDir, explicit, cfg.AllFiles)
	if err != nil {
		if errors.Is(err, discovery.ErrNoTests) {
			if len(cfg.Suites) > 0 {
				return nil, nil
			}
			return nil, fmt.Errorf("no tests found in %s; pass files or --suite to select tests", cfg.Directory)
		}
		return nil, err
	}
	logger.Debug("Discovered scripts", "dir", testDir, "count", len(paths))

	refs := make([]script.Ref, 0, len(paths))
	for _, p := range paths {
		refs = append(refs, script.NewRef(testDir, absFrom(testDir, p)))
	}
	return refs, nil
}

func applyFilters(data pipelineData, cfg config.Config) (pipelineData, error) {
	onlyPatterns, err := filter.Compile(cfg.Only)
	if err != nil {
		return pipelineData{}, err
	}
	skipPatterns, err := filter.Compile(cfg.Skip)
	if err != nil {
		return pipelineData{}, err
	}

	filtered := data
	filtered.units = filter.Units(data.units, onlyPatterns, skipPatterns)
	return filtered, nil
}

// listing describes units for list output and the JSON report.
func listing(data pipelineData) []output.Unit {
	units := make([]output.Unit, 0, len(data.units))
	for _, u := range data.units {
		entry := output.Unit{Kind: "suite", Name: u.String(), Cases: u.CountTestCases()}
		if st, ok := u.(*adapter.ScriptTest); ok {
			entry.Kind = "script"
			entry.Name = st.Name()
			entry.Source = relOrSame(data.workdir, st.Ref().Path)
		}
		units = append(units, entry)
	}
	return units
}

func detectVersionWarnings(root string) []string {
	var warnings []string
	for _, name := range version.Interpreters() {
		file := "." + name + "-version"
		contents, err := os.ReadFile(filepath.Join(root, file))
		if err != nil {
			continue
		}
		required := strings.TrimSpace(string(contents))
		if required == "" {
			continue
		}
		info, detectErr := version.Detect(name, nil)
		if warn := buildVersionWarning(name, required, info.Version, detectErr); warn != "" {
			warnings = append(warnings, fmt.Sprintf("%s: %s", file, warn))
		}
	}
	return warnings
}

func buildVersionWarning(name, required, actual string, detectErr error) string {
	if detectErr != nil {
		if version.Missing(detectErr) {
			return fmt.Sprintf("%s executable not found; required %s", name, required)
		}
		return fmt.Sprintf("unable to detect %s version: %v", name, detectErr)
	}
	if !version.CompareMajorMinor(required, actual) {
		return fmt.Sprintf("%s version mismatch: required %s (from .%s-version) but found %s", name, required, name, actual)
	}
	return ""
}

func absFrom(base, path string) string {
	if path == "" {
		return base
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}

func relOrSame(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
