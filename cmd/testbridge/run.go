package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bgricker/testbridge/internal/config"
	"github.com/bgricker/testbridge/internal/failure"
	"github.com/bgricker/testbridge/internal/metrics"
	"github.com/bgricker/testbridge/internal/output"
	"github.com/bgricker/testbridge/internal/report"
	"github.com/bgricker/testbridge/internal/result"
	"github.com/bgricker/testbridge/internal/version"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [files...]",
		Short: "Run test scripts and suites and report the results",
		RunE:  runExecute,
	}
	flags := cmd.Flags()
	flags.StringP("output", "o", "", "write the report to a file instead of stdout")
	flags.String("xml-dir", "", "directory for per-record XML reports")
	flags.StringP("product", "p", "", "product name shown in the report header")
	flags.String("metrics-file", "", "write run metrics in Prometheus text format")
	return cmd
}

func runExecute(cmd *cobra.Command, args []string) error {
	cfg, workdir, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	data, err := loadPipeline(context.Background(), cmd, cfg, workdir)
	if err != nil {
		return err
	}

	filtered, err := applyFilters(data, cfg)
	if err != nil {
		return err
	}

	if len(filtered.units) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching tests")
		return nil
	}

	collector := filtered.runner.Run(filtered.units)

	renderer := failure.Renderer{TestRoot: cfg.TestRoot, MaxDepth: cfg.MaxTraceDepth}
	if renderer.TestRoot == "" {
		renderer.TestRoot = filtered.testDir
	}
	summary := report.Build(collector, report.Options{Product: cfg.Product, Renderer: renderer})

	if err := writeReport(cmd, cfg, filtered, collector, summary, renderer); err != nil {
		return err
	}

	if cfg.XMLDir != "" {
		props := version.Properties(nil)
		for k, v := range cfg.Properties {
			props[k] = v
		}
		xmlRenderer := output.NewXML(output.XMLOptions{
			Dir:        absFrom(workdir, cfg.XMLDir),
			Properties: props,
			Renderer:   renderer,
		})
		if _, err := xmlRenderer.Render(collector); err != nil {
			return err
		}
	}

	if cfg.MetricsFile != "" {
		recorder := metrics.New(nil)
		recorder.Record(summary)
		if err := recorder.WriteTextfile(absFrom(workdir, cfg.MetricsFile)); err != nil {
			return err
		}
	}

	if strings.ToLower(cfg.Format) != config.FormatJSON {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ERROR COUNT: %d\n", collector.TotalErrors())
		if err := output.NewPretty(out).RenderVerdict(summary.Passed, summary.Failed, summary.TotalErrors, summary.Duration); err != nil {
			return err
		}
		for _, msg := range filtered.warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", msg)
		}
	}

	if !collector.RunPassed() {
		return fmt.Errorf("one or more tests failed")
	}

	return nil
}

func writeReport(cmd *cobra.Command, cfg config.Config, data pipelineData, c *result.Collector, summary report.Summary, renderer failure.Renderer) error {
	var out io.Writer = cmd.OutOrStdout()
	if cfg.Output != "" {
		path := absFrom(data.workdir, cfg.Output)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create report %q: %w", path, err)
		}
		defer f.Close()
		out = f
	}

	switch strings.ToLower(cfg.Format) {
	case config.FormatText:
		r := output.NewText(out, output.TextOptions{Product: cfg.Product, Renderer: renderer})
		return r.Render(c)
	case config.FormatTable:
		return output.NewTable(out).Render(summary)
	case config.FormatJSON:
		rep := output.Report{
			Units:    listing(data),
			Summary:  &summary,
			Warnings: data.warnings,
		}
		return output.NewJSON(out).Render(rep)
	default:
		return fmt.Errorf("unsupported format %q", cfg.Format)
	}
}
