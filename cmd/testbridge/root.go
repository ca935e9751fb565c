package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "testbridge",
		Short:         "Testbridge runs test scripts and framework suites under one report",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	persistent := cmd.PersistentFlags()
	persistent.StringP("dir", "d", "", "directory to search for test scripts")
	persistent.StringP("file", "f", "", "file listing the tests to run (- reads stdin)")
	persistent.StringArrayP("suite", "s", nil, "registered test suite to run (repeatable)")
	persistent.StringArray("only", nil, "include only matching tests")
	persistent.StringArray("skip", nil, "exclude matching tests")
	persistent.Bool("all-files", false, "treat every visible file as a test script")
	persistent.BoolP("verbose", "v", false, "stream script output in real time")
	persistent.Bool("debug", false, "log discovery and per-test progress")
	persistent.String("format", "text", "output format (text|table|json)")

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newRunCmd())

	return cmd
}
