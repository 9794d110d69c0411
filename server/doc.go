// Package server exposes the orchestrator over HTTP using Gin, served with
// h2c so HTTP/2 clients need no TLS.
//
// Routes:
//
//	POST /v1/execute       run a batch, respond with the per-task result
//	POST /v1/plan          dry run, respond with the batches
//	GET  /v1/capabilities  registered capabilities and their metadata
//	GET  /health /alive /ready /version
//
// Every route passes through recovery, request ID, CORS, body-size limit
// and request logging (server/middleware). The /v1 group additionally
// takes HS256 bearer tokens and a per-caller rate limit when configured.
//
//	srv := server.New(cfg.Server, log)
//	srv.ApplyMiddleware()
//	srv.RegisterDefaultEndpoints(cfg.Name, app.Components.HealthAll)
//	server.NewHandler(orch, registry, log).Register(srv.APIGroup())
//	app.RegisterComponent(server.NewComponent(srv))
package server
