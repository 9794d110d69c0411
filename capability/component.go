package capability

import (
	"context"
	"fmt"

	"github.com/kbukum/taskflow/component"
	"github.com/kbukum/taskflow/logger"
)

var (
	_ component.Component   = (*CatalogComponent)(nil)
	_ component.Describable = (*CatalogComponent)(nil)
)

// CatalogComponent reports a Registry in the process lifecycle. An empty
// catalogue is degraded: every task would come back CAPABILITY_NOT_FOUND.
type CatalogComponent struct {
	reg *Registry
	log *logger.Logger
}

// NewCatalogComponent wraps reg.
func NewCatalogComponent(reg *Registry) *CatalogComponent {
	return &CatalogComponent{reg: reg, log: logger.Get("capability")}
}

func (c *CatalogComponent) Name() string { return "capabilities" }

func (c *CatalogComponent) Start(ctx context.Context) error {
	c.log.Info("capability catalogue loaded", map[string]interface{}{
		"count": c.reg.Len(),
		"names": c.reg.Names(),
	})
	return nil
}

func (c *CatalogComponent) Stop(ctx context.Context) error { return nil }

func (c *CatalogComponent) Health(ctx context.Context) component.Health {
	if c.reg.Len() == 0 {
		return component.Health{Name: c.Name(), Status: component.StatusDegraded, Message: "no capabilities registered"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

func (c *CatalogComponent) Describe() component.Description {
	return component.Description{
		Name:    "Capabilities",
		Type:    "catalogue",
		Details: fmt.Sprintf("%d registered", c.reg.Len()),
	}
}
