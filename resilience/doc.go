// Package resilience provides the concurrency limiter the orchestrator uses
// to cap how many capability invocations of one call run at the same time.
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "exec", MaxConcurrent: 4})
//	err := bh.Execute(ctx, func() error { return invoke(ctx) })
//
// A task waiting for a slot consumes its own deadline: when ctx expires
// first, Execute returns an error wrapping ctx.Err() without running fn.
package resilience
