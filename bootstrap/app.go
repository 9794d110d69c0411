package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kbukum/taskflow/component"
	"github.com/kbukum/taskflow/logger"
)

const defaultGracefulTimeout = 15 * time.Second

// shutdownSignals end Run and cancel RunTask.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// App is a taskflow process with uniform lifecycle management. C is the
// config type; any struct embedding config.ServiceConfig satisfies Config.
//
//	app, err := bootstrap.NewApp(cfg)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*AppConfig]) error {
//	    return nil
//	})
//	app.Run(ctx)
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Components *component.Registry
	Logger     *logger.Logger
	Summary    *Summary

	gracefulTimeout time.Duration
	quiet           bool
	onConfigure     []func(ctx context.Context, app *App[C]) error

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// NewApp applies defaults to cfg, validates it and initializes the global
// logger from its logging section unless WithLogger is given.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	base := cfg.GetServiceConfig()
	o := resolveOptions(opts)

	log := o.logger
	if log == nil {
		logger.Init(&base.Logging)
		log = logger.GetGlobalLogger()
	}

	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		Logger:          log,
		Components:      component.NewRegistry(),
		Summary:         NewSummary(base.Name, base.Version),
		gracefulTimeout: defaultGracefulTimeout,
		quiet:           o.quiet,
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	if o.summaryOut != nil {
		app.Summary.SetOutput(o.summaryOut)
	}
	return app, nil
}

// RegisterComponent adds a component to the application's registry.
func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// OnConfigure registers a callback that runs after components are started.
func (a *App[C]) OnConfigure(fn func(ctx context.Context, app *App[C]) error) {
	a.onConfigure = append(a.onConfigure, fn)
}

// ReadyCheck reports every component that is not healthy.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	var issues []string
	for _, h := range a.Components.HealthAll(ctx) {
		if h.Status == component.StatusHealthy {
			continue
		}
		issue := h.Name + "=" + string(h.Status)
		if h.Message != "" {
			issue += "(" + h.Message + ")"
		}
		issues = append(issues, issue)
	}
	if len(issues) > 0 {
		return fmt.Errorf("unhealthy components: [%s]", strings.Join(issues, " "))
	}
	return nil
}

// Run starts the service, blocks until a shutdown signal or ctx ends, then
// stops it.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.startup(ctx); err != nil {
		return err
	}
	a.Logger.Info("application ready, waiting for shutdown signal")
	a.WaitForSignal(ctx)
	return a.stop()
}

// RunTask starts the application, runs one finite task and stops. A
// shutdown signal cancels the task's context. The task's error wins over
// a shutdown error.
//
//	app.RunTask(ctx, func(ctx context.Context) error {
//	    res, err := orch.Run(ctx, batch)
//	    ...
//	})
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.startup(ctx); err != nil {
		return err
	}

	taskCtx, stop := signal.NotifyContext(ctx, shutdownSignals...)
	taskErr := task(taskCtx)
	if taskCtx.Err() != nil && ctx.Err() == nil {
		a.Logger.Info("task canceled by signal")
	}
	stop()

	return errors.Join(taskErr, a.stopQuietly(taskErr != nil))
}

type phase struct {
	name string
	run  func(ctx context.Context) error
}

// startup runs the phases shared by Run and RunTask. A failing phase aborts
// startup; a failed ready check only warns.
func (a *App[C]) startup(ctx context.Context) error {
	start := time.Now()
	a.Logger.Info("starting application", logger.Fields("name", a.Name, "version", a.Version))

	phases := []phase{
		{"initialization", a.initialize},
		{"onStart hook", func(ctx context.Context) error { return runHooks(ctx, a.onStart) }},
		{"configuration", a.configure},
		{"ready check", func(ctx context.Context) error {
			if err := a.ReadyCheck(ctx); err != nil {
				a.Logger.Warn("ready check reported issues", logger.Fields(logger.FieldError, err.Error()))
			}
			return nil
		}},
		{"onReady hook", func(ctx context.Context) error { return runHooks(ctx, a.onReady) }},
	}
	for _, p := range phases {
		if err := p.run(ctx); err != nil {
			return fmt.Errorf("%s failed: %w", p.name, err)
		}
	}

	a.Summary.SetStartupDuration(time.Since(start))
	if !a.quiet {
		a.DisplaySummary()
	}
	return nil
}

func (a *App[C]) initialize(ctx context.Context) error {
	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start components: %w", err)
	}
	a.Logger.Debug("components started", logger.Fields("count", len(a.Components.All())))
	return nil
}

func (a *App[C]) configure(ctx context.Context) error {
	for _, fn := range a.onConfigure {
		if err := fn(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// DisplaySummary prints the startup summary built from the registry.
func (a *App[C]) DisplaySummary() {
	a.Summary.DisplaySummary(context.Background(), a.Components)
}

// WaitForSignal blocks until a shutdown signal arrives or ctx ends. It
// returns nil on context cancellation.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("received shutdown signal", logger.Fields("signal", sig.String()))
		return sig
	case <-ctx.Done():
		a.Logger.Info("context canceled, shutting down")
		return nil
	}
}

// Shutdown runs OnStop hooks and stops components. Use it when managing
// the lifecycle outside Run.
func (a *App[C]) Shutdown(ctx context.Context) error {
	return a.stop()
}

func (a *App[C]) stop() error {
	return a.stopQuietly(false)
}

// stopQuietly stops within the graceful timeout. When taskFailed is set,
// shutdown errors are logged but not returned.
func (a *App[C]) stopQuietly(taskFailed bool) error {
	a.Logger.Info("shutting down application", logger.Fields("timeout", a.gracefulTimeout.String()))

	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	err := errors.Join(runHooks(ctx, a.onStop), a.Components.StopAll(ctx))
	if err != nil {
		a.Logger.Error("shutdown completed with errors", logger.Fields(logger.FieldError, err.Error()))
		if taskFailed {
			return nil
		}
		return err
	}
	a.Logger.Info("application shutdown complete")
	return nil
}
