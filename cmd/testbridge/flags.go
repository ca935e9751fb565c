package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bgricker/testbridge/internal/config"
)

func gatherFlags(cmd *cobra.Command, args []string) (config.FlagValues, error) {
	flags := cmd.Flags()
	var values config.FlagValues

	for name, dst := range map[string]*config.StringFlag{
		"dir":          &values.Directory,
		"file":         &values.FileList,
		"format":       &values.Format,
		"output":       &values.Output,
		"xml-dir":      &values.XMLDir,
		"product":      &values.Product,
		"metrics-file": &values.MetricsFile,
	} {
		if err := stringFlag(flags, name, dst); err != nil {
			return values, err
		}
	}

	for name, dst := range map[string]*config.SliceFlag{
		"suite": &values.Suites,
		"only":  &values.Only,
		"skip":  &values.Skip,
	} {
		if err := sliceFlag(flags, name, dst); err != nil {
			return values, err
		}
	}

	for name, dst := range map[string]*config.BoolFlag{
		"all-files": &values.AllFiles,
		"verbose":   &values.Verbose,
		"debug":     &values.Debug,
	} {
		if err := boolFlag(flags, name, dst); err != nil {
			return values, err
		}
	}

	if len(args) > 0 {
		values.Files = config.SliceFlag{Values: append([]string{}, args...)}
	}

	return values, nil
}

func stringFlag(flags *pflag.FlagSet, name string, dst *config.StringFlag) error {
	if !flags.Changed(name) {
		return nil
	}
	v, err := flags.GetString(name)
	if err != nil {
		return fmt.Errorf("parse --%s: %w", name, err)
	}
	*dst = config.StringFlag{Value: v, Set: true}
	return nil
}

func sliceFlag(flags *pflag.FlagSet, name string, dst *config.SliceFlag) error {
	if !flags.Changed(name) {
		return nil
	}
	v, err := flags.GetStringArray(name)
	if err != nil {
		return fmt.Errorf("parse --%s: %w", name, err)
	}
	*dst = config.SliceFlag{Values: append([]string{}, v...)}
	return nil
}

func boolFlag(flags *pflag.FlagSet, name string, dst *config.BoolFlag) error {
	if !flags.Changed(name) {
		return nil
	}
	v, err := flags.GetBool(name)
	if err != nil {
		return fmt.Errorf("parse --%s: %w", name, err)
	}
	*dst = config.BoolFlag{Value: v, Set: true}
	return nil
}
