package main

import (
	"fmt"
	"strings"

	"github.com/kbukum/taskflow/bootstrap"
	"github.com/kbukum/taskflow/builtin"
	"github.com/kbukum/taskflow/capability"
	"github.com/kbukum/taskflow/capability/remote"
	"github.com/kbukum/taskflow/logger"
	"github.com/kbukum/taskflow/observability"
	"github.com/kbukum/taskflow/orchestrator"
)

// runtime is the wired process: lifecycle, catalogue and orchestrator.
type runtime struct {
	app      *bootstrap.App[*AppConfig]
	registry *capability.Registry
	orch     *orchestrator.Orchestrator
}

func newRuntime(cfg *AppConfig, opts ...bootstrap.Option) (*runtime, error) {
	app, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}

	reg, err := newCatalog(cfg)
	if err != nil {
		return nil, err
	}
	metrics, err := observability.NewMetrics(observability.Meter(serviceName))
	if err != nil {
		return nil, err
	}
	orch := orchestrator.New(reg,
		orchestrator.WithConfig(cfg.Orchestrator),
		orchestrator.WithLogger(logger.Get("orchestrator")),
		orchestrator.WithMetrics(metrics),
	)

	if err := app.RegisterComponent(observability.NewComponent(cfg.Telemetry)); err != nil {
		return nil, err
	}
	if err := app.RegisterComponent(capability.NewCatalogComponent(reg)); err != nil {
		return nil, err
	}
	app.Summary.TrackInfrastructure("Orchestrator", "core", describeOrchestrator(orch.Config()), 0)
	app.Summary.TrackCapabilities(reg.Names()...)

	return &runtime{app: app, registry: reg, orch: orch}, nil
}

// newCatalog builds the registry of builtin and configured remote
// capabilities, traced and logged.
func newCatalog(cfg *AppConfig) (*capability.Registry, error) {
	reg := capability.NewRegistry(
		capability.WithTracing("capability"),
		capability.WithLogging(logger.Get("capability")),
	)
	if err := builtin.Register(reg); err != nil {
		return nil, fmt.Errorf("register builtin capabilities: %w", err)
	}
	if err := remote.Register(reg, cfg.Capabilities.Remote, nil); err != nil {
		return nil, fmt.Errorf("register remote capabilities: %w", err)
	}
	return reg, nil
}

func describeOrchestrator(cfg orchestrator.Config) string {
	parallel := "unlimited"
	if cfg.MaxParallel > 0 {
		parallel = fmt.Sprint(cfg.MaxParallel)
	}
	fast := "off"
	if !cfg.FastPath.Disabled {
		fast = strings.Join(append(append([]string{}, cfg.FastPath.Names...), cfg.FastPath.Substrings...), ",")
	}
	return fmt.Sprintf("timeout=%s parallel=%s fast_path=%s", cfg.Timeout, parallel, fast)
}
