package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/kbukum/taskflow/capability"
	"github.com/kbukum/taskflow/errors"
	"github.com/kbukum/taskflow/logger"
	"github.com/kbukum/taskflow/observability"
	"github.com/kbukum/taskflow/resilience"
)

// executor runs the batches of one plan. Its plan records and result maps
// are written only by the goroutine calling runBatch, after each task's
// outcome has been received, so they need no locking.
type executor struct {
	caps    capability.Lookup
	plan    *Plan
	params  map[string]map[string]any
	result  *Result
	timeout time.Duration
	// bulkhead is shared by every batch of the call; nil means unlimited.
	bulkhead *resilience.Bulkhead
	log      *logger.Logger
	metrics  *observability.Metrics
}

type invocation struct {
	name  string
	cap   capability.Capability
	input map[string]any
}

type outcome struct {
	name     string
	status   Status
	output   any
	err      *errors.AppError
	duration time.Duration
}

type reply struct {
	output any
	err    error
}

func (e *executor) runBatch(ctx context.Context, index int, batch []string) {
	ctx, span := observability.StartSpan(ctx, observability.SpanBatch)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrBatchIndex, index)
	observability.SetSpanAttribute(ctx, observability.AttrBatchSize, len(batch))

	calls := make([]invocation, 0, len(batch))
	for _, name := range batch {
		params, submitted := e.params[name]
		if !submitted {
			// placeholder for a dependency nobody asked to run
			continue
		}
		if ctx.Err() != nil {
			e.resolve(ctx, index, abandoned(ctx, name))
			continue
		}
		c, ok := e.caps.Get(name)
		if !ok {
			e.resolve(ctx, index, outcome{name: name, status: StatusSkipped, err: errors.CapabilityNotFound(name)})
			continue
		}
		calls = append(calls, invocation{
			name:  name,
			cap:   c,
			input: mergeInputs(e.plan.InputsFor(name), params),
		})
	}
	if len(calls) == 0 {
		return
	}

	e.log.Debug("batch started", map[string]interface{}{
		logger.FieldBatch: index,
		"tasks":           len(calls),
	})

	outcomes := make(chan outcome, len(calls))
	for _, call := range calls {
		go func(call invocation) {
			outcomes <- e.run(ctx, call)
		}(call)
	}
	for range calls {
		e.resolve(ctx, index, <-outcomes)
	}
}

// run invokes one capability under its own deadline, which starts before
// any wait for a bulkhead slot. A capability that ignores its context keeps
// running after the deadline; its late reply goes into a buffered channel
// nobody reads.
func (e *executor) run(ctx context.Context, call invocation) outcome {
	ctx, span := observability.StartSpan(ctx, observability.SpanTask)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrTaskName, call.name)

	taskCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	replies := make(chan reply, 1)
	go e.invoke(taskCtx, call, replies)

	var oc outcome
	select {
	case r := <-replies:
		oc = e.classify(ctx, taskCtx, call.name, r)
	case <-taskCtx.Done():
		oc = expired(ctx, call.name)
	}
	oc.duration = time.Since(start)

	observability.SetSpanAttribute(ctx, observability.AttrTaskStatus, string(oc.status))
	if oc.err != nil {
		observability.SetSpanError(ctx, oc.err)
	}
	return oc
}

// invoke sends exactly one reply. Under a bulkhead the slot is held until
// the capability returns, so a capability running past its deadline still
// counts against MaxParallel.
func (e *executor) invoke(ctx context.Context, call invocation, replies chan<- reply) {
	fn := func() error {
		defer func() {
			if r := recover(); r != nil {
				replies <- reply{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		output, err := call.cap.Invoke(ctx, call.input)
		replies <- reply{output: output, err: err}
		return nil
	}
	if e.bulkhead == nil {
		_ = fn()
		return
	}
	if err := e.bulkhead.Execute(ctx, fn); err != nil {
		replies <- reply{err: err}
	}
}

func (e *executor) classify(ctx, taskCtx context.Context, name string, r reply) outcome {
	switch {
	case r.err == nil:
		return outcome{name: name, status: StatusDone, output: r.output}
	case taskCtx.Err() != nil && (stderrors.Is(r.err, context.DeadlineExceeded) || stderrors.Is(r.err, context.Canceled)):
		return expired(ctx, name)
	default:
		return outcome{name: name, status: StatusFailed, err: errors.CapabilityFailed(name, r.err)}
	}
}

// resolve records one outcome. Only the batch goroutine calls it.
func (e *executor) resolve(ctx context.Context, index int, oc outcome) {
	fields := map[string]interface{}{
		logger.FieldTask:     oc.name,
		logger.FieldBatch:    index,
		logger.FieldStatus:   string(oc.status),
		logger.FieldDuration: oc.duration.Milliseconds(),
	}

	if oc.err == nil {
		e.result.succeed(oc.name, index, oc.output, oc.duration)
		if r, ok := e.plan.Records[oc.name]; ok {
			r.capture(oc.output)
		}
		e.log.Debug("task completed", fields)
	} else {
		e.result.fail(oc.name, index, oc.status, oc.err, oc.duration)
		fields[logger.FieldError] = oc.err.Message
		fields["code"] = string(oc.err.Code)
		e.log.Warn("task failed", fields)
	}
	e.metrics.RecordTask(ctx, oc.name, string(oc.status), oc.duration)
}

// expired reports a task whose deadline passed, distinguishing a caller
// that went away from the task's own timeout.
func expired(ctx context.Context, name string) outcome {
	if ctx.Err() != nil {
		return abandoned(ctx, name)
	}
	return outcome{name: name, status: StatusTimedOut, err: errors.Timeout(name)}
}

// abandoned reports a task that could not run to completion because the
// caller's context ended.
func abandoned(ctx context.Context, name string) outcome {
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return outcome{name: name, status: StatusTimedOut, err: errors.Timeout(name)}
	}
	return outcome{name: name, status: StatusCanceled, err: errors.Canceled(name)}
}
