package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kbukum/taskflow/component"
)

// InfrastructureInfo holds one infrastructure line of the summary.
type InfrastructureInfo struct {
	Name    string
	Type    string // "server", "telemetry", "catalogue"
	Details string
	Port    int
}

// RouteInfo represents a registered HTTP route.
type RouteInfo struct {
	Method  string
	Path    string
	Handler string
}

// Summary tracks and displays the application startup.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	infrastructure  []InfrastructureInfo
	capabilities    []string
	routes          []RouteInfo
	out             io.Writer
}

// NewSummary creates a new startup summary tracker writing to stdout.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{
		serviceName: serviceName,
		version:     version,
		out:         os.Stdout,
	}
}

// SetOutput redirects the summary.
func (s *Summary) SetOutput(w io.Writer) {
	s.out = w
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackInfrastructure adds an infrastructure line.
func (s *Summary) TrackInfrastructure(name, componentType, details string, port int) {
	s.infrastructure = append(s.infrastructure, InfrastructureInfo{
		Name:    name,
		Type:    componentType,
		Details: details,
		Port:    port,
	})
}

// TrackCapabilities records the capability names served by this process.
func (s *Summary) TrackCapabilities(names ...string) {
	s.capabilities = append(s.capabilities, names...)
}

// TrackRoute records an HTTP route.
func (s *Summary) TrackRoute(method, path, handler string) {
	s.routes = append(s.routes, RouteInfo{Method: method, Path: path, Handler: handler})
}

// collect pulls descriptions and routes from components that provide them.
func (s *Summary) collect(registry *component.Registry) ([]InfrastructureInfo, []RouteInfo) {
	infra := append([]InfrastructureInfo(nil), s.infrastructure...)
	routes := append([]RouteInfo(nil), s.routes...)
	if registry == nil {
		return infra, routes
	}
	for _, c := range registry.All() {
		if d, ok := c.(component.Describable); ok {
			desc := d.Describe()
			name := desc.Name
			if name == "" {
				name = c.Name()
			}
			infra = append(infra, InfrastructureInfo{Name: name, Type: desc.Type, Details: desc.Details, Port: desc.Port})
		}
		if rp, ok := c.(component.RouteProvider); ok {
			for _, r := range rp.Routes() {
				routes = append(routes, RouteInfo{Method: r.Method, Path: r.Path, Handler: r.Handler})
			}
		}
	}
	return infra, routes
}

// DisplaySummary writes the startup summary including live health from the registry.
func (s *Summary) DisplaySummary(ctx context.Context, registry *component.Registry) {
	w := s.out
	infra, routes := s.collect(registry)

	fmt.Fprintf(w, "\n🚀 %s v%s started in %.2fs\n\n", s.serviceName, s.version, s.startupDuration.Seconds())

	if len(infra) > 0 {
		fmt.Fprintf(w, "📊 Infrastructure\n")
		for i, inf := range infra {
			details := inf.Details
			if inf.Port > 0 {
				details = fmt.Sprintf("%s (:%d)", details, inf.Port)
			}
			fmt.Fprintf(w, "   %s %s [%s]: %s\n", treePrefix(i, len(infra)), inf.Name, inf.Type, details)
		}
		fmt.Fprintf(w, "\n")
	}

	if len(s.capabilities) > 0 {
		fmt.Fprintf(w, "🧰 Capabilities (%d)\n", len(s.capabilities))
		for i, name := range s.capabilities {
			fmt.Fprintf(w, "   %s %s\n", treePrefix(i, len(s.capabilities)), name)
		}
		fmt.Fprintf(w, "\n")
	}

	if len(routes) > 0 {
		fmt.Fprintf(w, "🌐 Routes (%d)\n", len(routes))
		for i, r := range routes {
			fmt.Fprintf(w, "   %s %-7s %s → %s\n", treePrefix(i, len(routes)), r.Method, r.Path, r.Handler)
		}
		fmt.Fprintf(w, "\n")
	}

	if registry != nil {
		results := registry.HealthAll(ctx)
		if len(results) > 0 {
			fmt.Fprintf(w, "🏥 Health Check\n")
			for i, h := range results {
				msg := ""
				if h.Message != "" {
					msg = " (" + h.Message + ")"
				}
				fmt.Fprintf(w, "   %s %s %s: %s%s\n", treePrefix(i, len(results)), healthStatusIcon(h.Status), h.Name, strings.ToLower(string(h.Status)), msg)
			}
			fmt.Fprintf(w, "\n")
		}
	}
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
