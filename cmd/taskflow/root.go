package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	envFile    string
	noColor    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "taskflow",
		Short: "Plan and run batches of capability calls",
		Long: `taskflow turns a flat list of named, parameterized capability calls into
ordered batches by their declared dependencies, runs each batch concurrently
with a per-task deadline, and feeds every task the outputs of the tasks it
depends on.

Every submitted task gets exactly one entry in the result: its output, or an
inline error (CAPABILITY_NOT_FOUND, CAPABILITY_FAILED, TIMEOUT, CANCELED).`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default: ./cmd/taskflow/config.yml, ./config/config.yml, ./config.yml)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", ".env file to load before binding environment variables")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		newServeCmd(opts),
		newRunCmd(opts),
		newPlanCmd(opts),
		newCapabilitiesCmd(opts),
		newTokenCmd(opts),
		newVersionCmd(),
	)
	return cmd
}
