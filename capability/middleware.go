package capability

import (
	"context"
	"time"

	"github.com/kbukum/taskflow/logger"
	"github.com/kbukum/taskflow/observability"
)

// Middleware transforms a Capability by wrapping it.
type Middleware func(Capability) Capability

// Chain composes middlewares into one. The first middleware is outermost.
//
// Chain(a, b, c)(cap) is equivalent to a(b(c(cap))).
func Chain(middlewares ...Middleware) Middleware {
	return func(inner Capability) Capability {
		for i := len(middlewares) - 1; i >= 0; i-- {
			inner = middlewares[i](inner)
		}
		return inner
	}
}

// WithLogging logs every invocation with its duration. Failures are logged at
// error level, successes at debug.
func WithLogging(log *logger.Logger) Middleware {
	return func(inner Capability) Capability {
		return &loggingCapability{inner: inner, log: log}
	}
}

type loggingCapability struct {
	inner Capability
	log   *logger.Logger
}

func (l *loggingCapability) Name() string { return l.inner.Name() }

func (l *loggingCapability) Invoke(ctx context.Context, params map[string]any) (any, error) {
	start := time.Now()
	output, err := l.inner.Invoke(ctx, params)

	fields := map[string]interface{}{
		"capability":         l.inner.Name(),
		logger.FieldDuration: time.Since(start).Milliseconds(),
	}
	log := l.log.WithContext(ctx)
	if err != nil {
		fields[logger.FieldError] = err.Error()
		log.Error("capability invoke failed", fields)
	} else {
		log.Debug("capability invoke ok", fields)
	}
	return output, err
}

// WithTracing wraps every invocation in a span named "{prefix}.{capability}".
func WithTracing(prefix string) Middleware {
	return func(inner Capability) Capability {
		return &tracingCapability{inner: inner, prefix: prefix}
	}
}

type tracingCapability struct {
	inner  Capability
	prefix string
}

func (t *tracingCapability) Name() string { return t.inner.Name() }

func (t *tracingCapability) Invoke(ctx context.Context, params map[string]any) (any, error) {
	ctx, span := observability.StartSpan(ctx, t.prefix+"."+t.inner.Name())
	defer span.End()

	observability.SetSpanAttribute(ctx, observability.AttrTaskName, t.inner.Name())

	output, err := t.inner.Invoke(ctx, params)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return output, err
}
