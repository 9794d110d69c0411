package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/taskflow/logger"
	"github.com/kbukum/taskflow/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the orchestrator over HTTP",
		Long: `Start the HTTP API:

  POST /v1/execute       run a batch
  POST /v1/plan          show the batches a submission would run in
  GET  /v1/capabilities  list registered capabilities

plus /health, /alive, /ready and /version. Stops on SIGINT/SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, false)
			if err != nil {
				return err
			}
			rt, err := newRuntime(cfg)
			if err != nil {
				return err
			}

			log := logger.Get("server")
			srv := server.New(cfg.Server, log)
			srv.ApplyMiddleware()
			srv.RegisterDefaultEndpoints(cfg.Name, rt.app.Components.HealthAll)
			server.NewHandler(rt.orch, rt.registry, log).Register(srv.APIGroup())
			if err := rt.app.RegisterComponent(server.NewComponent(srv)); err != nil {
				return err
			}
			return rt.app.Run(cmd.Context())
		},
	}
}
