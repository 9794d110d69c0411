package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/taskflow/version"
)

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			v := info.String()
			if short {
				v = info.Short()
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), v)
			return err
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print only version and commit")
	return cmd
}
