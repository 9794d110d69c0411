// Package capability defines the invokable units the orchestrator runs.
//
// A Capability has a single context-aware Invoke method taking a parameter
// map. Implementations are registered once at startup into a Registry; the
// orchestrator only ever sees the Lookup interface.
//
// Three constructors cover the usual shapes:
//
//	capability.New("weather.lookup", func(ctx context.Context, p map[string]any) (any, error) { ... })
//	capability.Sync("time.now", func(p map[string]any) (any, error) { ... })
//	capability.Typed("route.plan", func(ctx context.Context, in RouteRequest) (Route, error) { ... })
//
// Sync adapts a blocking function once, at construction. Typed decodes the
// parameter map into a struct and encodes struct outputs back into a map so
// downstream tasks can consume its fields.
//
// Middleware wraps capabilities with cross-cutting behavior:
//
//	wrapped := capability.Chain(
//	    capability.WithLogging(log),
//	    capability.WithTracing("taskflow"),
//	)(raw)
package capability
