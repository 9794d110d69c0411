package observability

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/taskflow/component"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component installs the OTLP providers on Start and flushes them on Stop.
type Component struct {
	cfg Config

	mu       sync.Mutex
	shutdown func(context.Context) error
}

// NewComponent creates a telemetry component. Defaults are applied to cfg.
func NewComponent(cfg Config) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg}
}

func (c *Component) Name() string { return "telemetry" }

func (c *Component) Start(ctx context.Context) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	shutdown, err := Init(ctx, c.cfg)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	c.mu.Lock()
	c.shutdown = shutdown
	c.mu.Unlock()
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	shutdown := c.shutdown
	c.shutdown = nil
	c.mu.Unlock()
	if shutdown == nil {
		return nil
	}
	return shutdown(ctx)
}

// Health is degraded while export is configured but not running.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if !c.cfg.Enabled {
		h.Message = "disabled"
		return h
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shutdown == nil {
		h.Status = component.StatusDegraded
		h.Message = "exporters not running"
	}
	return h
}

func (c *Component) Describe() component.Description {
	details := "disabled"
	if c.cfg.Enabled {
		details = fmt.Sprintf("otlp %s sample=%.2f", c.cfg.Endpoint, c.cfg.SampleRate)
	}
	return component.Description{Name: "Telemetry", Type: "telemetry", Details: details}
}
