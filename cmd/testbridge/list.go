package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bgricker/testbridge/internal/config"
	"github.com/bgricker/testbridge/internal/framework"
	"github.com/bgricker/testbridge/internal/output"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [files...]",
		Short: "List the test scripts and suites a run would execute",
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
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

	return renderList(cmd, cfg, filtered)
}

func renderList(cmd *cobra.Command, cfg config.Config, data pipelineData) error {
	if len(data.units) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching tests")
		return nil
	}

	units := listing(data)

	switch strings.ToLower(cfg.Format) {
	case config.FormatText, config.FormatTable:
		renderer := output.NewPretty(cmd.OutOrStdout())
		if err := renderer.RenderList(units); err != nil {
			return err
		}
		if available := framework.Default.Names(); len(available) > 0 && len(cfg.Suites) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "registered suites: %s\n", strings.Join(available, ", "))
		}
		for _, msg := range data.warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", msg)
		}
	case config.FormatJSON:
		rep := output.Report{
			Units:    units,
			Warnings: data.warnings,
		}
		if err := output.NewJSON(cmd.OutOrStdout()).Render(rep); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q", cfg.Format)
	}

	return nil
}

func loadConfig(cmd *cobra.Command, args []string) (config.Config, string, error) {
	root, err := os.Getwd()
	if err != nil {
		return config.Config{}, "", fmt.Errorf("determine working directory: %w", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return config.Config{}, "", err
	}

	flags, err := gatherFlags(cmd, args)
	if err != nil {
		return config.Config{}, "", err
	}
	config.ApplyFlags(&cfg, flags)

	switch strings.ToLower(cfg.Format) {
	case config.FormatText, config.FormatTable, config.FormatJSON:
	default:
		return config.Config{}, "", fmt.Errorf("unsupported format %q", cfg.Format)
	}

	return cfg, root, nil
}
