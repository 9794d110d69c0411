package main

import (
	"github.com/spf13/cobra"
)

func newCapabilitiesCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:     "capabilities",
		Aliases: []string{"caps"},
		Short:   "List registered capabilities",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(output, formatTable, formatJSON, formatYAML); err != nil {
				return err
			}
			cfg, err := loadConfig(opts, true)
			if err != nil {
				return err
			}
			reg, err := newCatalog(cfg)
			if err != nil {
				return err
			}
			return writeCapabilities(cmd.OutOrStdout(), reg.List(), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "output format: table, json, yaml")
	return cmd
}
