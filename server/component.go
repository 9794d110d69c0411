package server

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kbukum/taskflow/component"
)

const componentName = "http-server"

var (
	_ component.Component     = (*Component)(nil)
	_ component.Describable   = (*Component)(nil)
	_ component.RouteProvider = (*Component)(nil)
)

// systemPaths are listed after the API routes in the startup summary.
var systemPaths = map[string]bool{
	"/health":  true,
	"/alive":   true,
	"/ready":   true,
	"/version": true,
}

// Component adapts Server to the bootstrap lifecycle.
type Component struct {
	server *Server
}

// NewComponent returns a component backed by s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

func (sc *Component) Name() string { return componentName }

func (sc *Component) Start(ctx context.Context) error { return sc.server.Start(ctx) }

func (sc *Component) Stop(ctx context.Context) error { return sc.server.Stop(ctx) }

// Health is healthy while the listener is serving.
func (sc *Component) Health(ctx context.Context) component.Health {
	if sc.server.Running() {
		return component.Health{Name: componentName, Status: component.StatusHealthy}
	}
	return component.Health{
		Name:    componentName,
		Status:  component.StatusUnhealthy,
		Message: "not serving",
	}
}

// Describe returns the summary line for the server.
func (sc *Component) Describe() component.Description {
	cfg := sc.server.config
	details := sc.server.Addr() + " h2c"
	if cfg.Auth.Enabled {
		details += " jwt"
	}
	if cfg.RateLimit > 0 {
		details += fmt.Sprintf(" %d req/min", cfg.RateLimit)
	}
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: details,
		Port:    cfg.Port,
	}
}

// Routes lists the registered Gin routes, API routes first.
func (sc *Component) Routes() []component.Route {
	ginRoutes := sc.server.engine.Routes()
	sort.Slice(ginRoutes, func(i, j int) bool {
		iSys, jSys := systemPaths[ginRoutes[i].Path], systemPaths[ginRoutes[j].Path]
		if iSys != jSys {
			return !iSys
		}
		if ginRoutes[i].Path != ginRoutes[j].Path {
			return ginRoutes[i].Path < ginRoutes[j].Path
		}
		return ginRoutes[i].Method < ginRoutes[j].Method
	})

	routes := make([]component.Route, 0, len(ginRoutes))
	for _, r := range ginRoutes {
		routes = append(routes, component.Route{
			Method:  r.Method,
			Path:    r.Path,
			Handler: handlerName(r.Handler),
		})
	}
	return routes
}

// handlerName shortens Gin's handler path:
//
//	github.com/kbukum/taskflow/server.(*Handler).Execute-fm -> Handler.Execute
//	github.com/kbukum/taskflow/server/endpoint.Health.func1 -> endpoint.Health
func handlerName(full string) string {
	name := strings.TrimSuffix(full, "-fm")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.NewReplacer("(*", "", ")", "").Replace(name)

	parts := strings.Split(name, ".")
	for len(parts) > 1 && strings.HasPrefix(parts[len(parts)-1], "func") {
		parts = parts[:len(parts)-1]
	}
	if len(parts) > 2 {
		parts = parts[len(parts)-2:]
	}
	if len(parts) == 2 && parts[0] == "server" {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}
