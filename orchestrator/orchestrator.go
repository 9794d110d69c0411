package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/taskflow/capability"
	"github.com/kbukum/taskflow/logger"
	"github.com/kbukum/taskflow/observability"
	"github.com/kbukum/taskflow/resilience"
)

// Orchestrator plans and runs task submissions against a capability
// catalogue. It holds no per-call state, so one instance may serve
// concurrent calls.
type Orchestrator struct {
	caps    capability.Lookup
	meta    capability.MetadataSource
	cfg     Config
	log     *logger.Logger
	metrics *observability.Metrics
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConfig sets timeout, parallelism and fast-path settings.
func WithConfig(cfg Config) Option {
	return func(o *Orchestrator) { o.cfg = cfg }
}

// WithLogger sets the logger. Defaults to the global logger tagged
// with component "orchestrator".
func WithLogger(log *logger.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithMetrics records execution metrics on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithMetadata sets the source of declared capability dependencies. When
// caps itself implements capability.MetadataSource it is used by default;
// pass nil to ignore registry metadata.
func WithMetadata(src capability.MetadataSource) Option {
	return func(o *Orchestrator) { o.meta = src }
}

// New creates an Orchestrator over caps.
func New(caps capability.Lookup, opts ...Option) *Orchestrator {
	o := &Orchestrator{caps: caps}
	if src, ok := caps.(capability.MetadataSource); ok {
		o.meta = src
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.Get("orchestrator")
	}
	o.cfg.ApplyDefaults()
	return o
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config { return o.cfg }

// RunIndependent runs every task in a single batch with the default
// timeout. Dependencies are ignored and nothing is propagated.
func (o *Orchestrator) RunIndependent(ctx context.Context, tasks []Task) *Result {
	return o.execute(ctx, tasks, o.cfg.Timeout, true)
}

// RunWithDependencies plans tasks by their dependencies and runs the
// batches in order with the default timeout.
func (o *Orchestrator) RunWithDependencies(ctx context.Context, tasks []Task) *Result {
	return o.execute(ctx, tasks, o.cfg.Timeout, false)
}

// Execute plans tasks and runs them batch by batch. Every task gets its own
// deadline of timeout; a non-positive timeout uses the configured default.
//
// Execute never fails: unknown capabilities, capability errors, panics,
// missed deadlines and caller cancellation all become *TaskError values in
// the result, one entry per submitted name.
func (o *Orchestrator) Execute(ctx context.Context, tasks []Task, timeout time.Duration) *Result {
	if timeout <= 0 {
		timeout = o.cfg.Timeout
	}
	return o.execute(ctx, tasks, timeout, false)
}

// Plan builds the plan Execute would follow, without running anything.
func (o *Orchestrator) Plan(tasks []Task) *Plan {
	return o.plan(tasks, o.log, false)
}

// Run validates a submitted batch and executes it in the mode it asks for.
// The returned error is only ever a validation error; task failures stay
// inside the result.
func (o *Orchestrator) Run(ctx context.Context, b Batch) (*Result, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	timeout, _ := b.TimeoutDuration()
	if timeout <= 0 {
		timeout = o.cfg.Timeout
	}
	return o.execute(ctx, b.Tasks, timeout, b.Independent), nil
}

// PlanBatch validates a submitted batch and returns the plan Run would
// follow.
func (o *Orchestrator) PlanBatch(b Batch) (*Plan, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return o.plan(b.Tasks, o.log, b.Independent), nil
}

func (o *Orchestrator) plan(tasks []Task, log *logger.Logger, independent bool) *Plan {
	rs := NewRecordSet()
	for _, t := range tasks {
		if independent {
			rs.Register(t.Name, nil, t.Provides)
			continue
		}
		rs.Register(t.Name, t.DependsOn, t.Provides)
		if o.meta == nil {
			continue
		}
		if meta, ok := o.meta.Metadata(t.Name); ok {
			rs.Register(t.Name, meta.DependsOn, meta.Provides)
		}
	}
	return NewPlanner(o.cfg.FastPath, log).Build(rs)
}

func (o *Orchestrator) execute(ctx context.Context, tasks []Task, timeout time.Duration, independent bool) *Result {
	start := time.Now()
	executionID := uuid.NewString()

	ctx = logger.ContextWithExecutionID(ctx, executionID)
	ctx, span := observability.StartSpan(ctx, observability.SpanExecute)
	defer span.End()
	log := o.log.WithContext(ctx)

	plan := o.plan(tasks, log, independent)
	params := submittedParams(tasks)
	result := newResult(executionID, plan, len(params))

	observability.SetSpanAttribute(ctx, observability.AttrExecutionID, executionID)
	observability.SetSpanAttribute(ctx, observability.AttrBatchCount, len(plan.Batches))
	if len(plan.Forced) > 0 {
		observability.SetSpanAttribute(ctx, observability.AttrForced, plan.Forced)
	}
	log.Debug("execution planned", map[string]interface{}{
		"tasks":   len(params),
		"batches": plan.Batches,
		"forced":  plan.Forced,
	})

	ex := &executor{
		caps:    o.caps,
		plan:    plan,
		params:  params,
		result:  result,
		timeout: timeout,
		log:     log,
		metrics: o.metrics,
	}
	if o.cfg.MaxParallel > 0 {
		ex.bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          "execution-" + executionID,
			MaxConcurrent: o.cfg.MaxParallel,
		})
	}
	for i, batch := range plan.Batches {
		ex.runBatch(ctx, i, batch)
	}

	result.finish(time.Since(start))
	o.metrics.RecordExecution(ctx, len(plan.Batches))
	o.metrics.RecordForced(ctx, len(plan.Forced))
	log.Debug("execution finished", map[string]interface{}{
		"tasks":              len(params),
		"failed":             len(result.Errors()),
		logger.FieldDuration: result.Duration.Milliseconds(),
	})
	return result
}

// submittedParams maps each submitted name to its params. The last
// submission of a name wins.
func submittedParams(tasks []Task) map[string]map[string]any {
	params := make(map[string]map[string]any, len(tasks))
	for _, t := range tasks {
		params[t.Name] = t.Params
	}
	return params
}
