// Package bootstrap runs the lifecycle of a taskflow process: typed
// configuration, logger setup, component start and stop, hooks, and a
// startup summary.
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    return err
//	}
//	_ = app.RegisterComponent(telemetry)
//	_ = app.RegisterComponent(httpServer)
//	return app.Run(ctx)
//
// Run blocks until SIGINT/SIGTERM or context cancellation. RunTask runs a
// finite function with the same startup and shutdown, for CLI commands.
package bootstrap
