package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/taskflow/logger"
)

const (
	defaultStopTimeout   = 10 * time.Second
	defaultHealthTimeout = 2 * time.Second
)

type entry struct {
	c       Component
	started bool
}

// Registry starts components in registration order and stops them in
// reverse. A failed start stops whatever already started.
type Registry struct {
	mu      sync.RWMutex
	entries []*entry
	byName  map[string]*entry
	log     *logger.Logger

	stopTimeout   time.Duration
	healthTimeout time.Duration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:        make(map[string]*entry),
		log:           logger.Get("component"),
		stopTimeout:   defaultStopTimeout,
		healthTimeout: defaultHealthTimeout,
	}
}

// Register adds a component. Register dependencies first.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("component %s already registered", name)
	}
	e := &entry{c: c}
	r.entries = append(r.entries, e)
	r.byName[name] = e
	return nil
}

// StartAll starts every component in registration order. On failure the
// components started so far are stopped in reverse before returning.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		name := e.c.Name()
		if err := e.c.Start(ctx); err != nil {
			r.log.Error("component start failed", logger.Fields(logger.FieldComponent, name, logger.FieldError, err.Error()))
			if rbErr := r.stopStarted(context.WithoutCancel(ctx)); rbErr != nil {
				r.log.Warn("rollback after failed start", logger.Fields(logger.FieldError, rbErr.Error()))
			}
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		e.started = true
		r.log.Debug("component started", logger.Fields(logger.FieldComponent, name))
	}
	return nil
}

// StopAll stops started components in reverse registration order, giving
// each its own timeout. Errors are joined.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopStarted(ctx)
}

func (r *Registry) stopStarted(ctx context.Context) error {
	var errs []error
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if !e.started {
			continue
		}
		name := e.c.Name()
		stopCtx, cancel := context.WithTimeout(ctx, r.stopTimeout)
		err := e.c.Stop(stopCtx)
		cancel()
		e.started = false

		if err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", name, err))
			r.log.Error("component stop failed", logger.Fields(logger.FieldComponent, name, logger.FieldError, err.Error()))
			continue
		}
		r.log.Debug("component stopped", logger.Fields(logger.FieldComponent, name))
	}
	return errors.Join(errs...)
}

// HealthAll checks every component concurrently, in registration order.
// A check that outlives the health timeout reports unhealthy.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	components := r.All()
	results := make([]Health, len(components))

	var wg sync.WaitGroup
	for i, c := range components {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = r.check(ctx, c)
		}()
	}
	wg.Wait()
	return results
}

func (r *Registry) check(ctx context.Context, c Component) Health {
	ctx, cancel := context.WithTimeout(ctx, r.healthTimeout)
	defer cancel()

	done := make(chan Health, 1)
	go func() { done <- c.Health(ctx) }()

	select {
	case h := <-done:
		if h.Name == "" {
			h.Name = c.Name()
		}
		return h
	case <-ctx.Done():
		return Health{Name: c.Name(), Status: StatusUnhealthy, Message: "health check timed out"}
	}
}

// Get returns a registered component by name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.byName[name]; ok {
		return e.c
	}
	return nil
}

// All returns the components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Component, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.c
	}
	return out
}
