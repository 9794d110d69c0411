package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/taskflow/bootstrap"
	"github.com/kbukum/taskflow/orchestrator"
)

type batchFlags struct {
	file        string
	timeout     time.Duration
	independent bool
	output      string
}

func (f *batchFlags) register(cmd *cobra.Command, outputs string) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", `task file (YAML or JSON); "-" reads stdin`)
	cmd.Flags().BoolVar(&f.independent, "independent", false, "run every task in one batch, ignoring dependencies")
	cmd.Flags().StringVarP(&f.output, "output", "o", "table", "output format: "+outputs)
	_ = cmd.MarkFlagRequired("file")
}

// load reads the batch and applies flag overrides.
func (f *batchFlags) load(stdin io.Reader) (orchestrator.Batch, error) {
	var (
		b   *orchestrator.Batch
		err error
	)
	if f.file == "-" {
		b, err = orchestrator.ReadBatch(stdin)
	} else {
		b, err = orchestrator.LoadBatchFile(f.file)
	}
	if err != nil {
		return orchestrator.Batch{}, err
	}
	if f.timeout > 0 {
		b.Timeout = f.timeout.String()
	}
	if f.independent {
		b.Independent = true
	}
	return *b, nil
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	flags := &batchFlags{}
	var strict bool

	cmd := &cobra.Command{
		Use:   "run -f tasks.yaml",
		Short: "Run a batch of tasks once and print the result",
		Example: `  taskflow run -f tasks.yaml
  taskflow run -f tasks.json --timeout 5s -o json
  cat tasks.yaml | taskflow run -f - --strict`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(flags.output, formatTable, formatJSON, formatYAML); err != nil {
				return err
			}
			batch, err := flags.load(cmd.InOrStdin())
			if err != nil {
				return err
			}
			cfg, err := loadConfig(opts, true)
			if err != nil {
				return err
			}
			rt, err := newRuntime(cfg, bootstrap.WithoutSummary())
			if err != nil {
				return err
			}

			return rt.app.RunTask(cmd.Context(), func(ctx context.Context) error {
				res, err := rt.orch.Run(ctx, batch)
				if err != nil {
					return err
				}
				if err := writeResult(cmd.OutOrStdout(), res, flags.output); err != nil {
					return err
				}
				if failed := len(res.Errors()); strict && failed > 0 {
					return fmt.Errorf("%d of %d task(s) failed", failed, len(res.Values))
				}
				return nil
			})
		},
	}
	flags.register(cmd, "table, json, yaml")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "per-task deadline, overrides the file and config")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any task fails")
	return cmd
}

func newPlanCmd(opts *rootOptions) *cobra.Command {
	flags := &batchFlags{}

	cmd := &cobra.Command{
		Use:   "plan -f tasks.yaml",
		Short: "Show the batches a task file would run in, without running it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(flags.output, formatTable, formatJSON, formatYAML); err != nil {
				return err
			}
			batch, err := flags.load(cmd.InOrStdin())
			if err != nil {
				return err
			}
			cfg, err := loadConfig(opts, true)
			if err != nil {
				return err
			}
			rt, err := newRuntime(cfg, bootstrap.WithoutSummary())
			if err != nil {
				return err
			}
			plan, err := rt.orch.PlanBatch(batch)
			if err != nil {
				return err
			}
			return writePlan(cmd.OutOrStdout(), plan, flags.output)
		},
	}
	flags.register(cmd, "table, json, yaml")
	return cmd
}
