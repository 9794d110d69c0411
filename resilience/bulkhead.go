package resilience

import (
	"context"
	"fmt"
)

// BulkheadConfig configures a bulkhead.
type BulkheadConfig struct {
	// Name identifies this bulkhead in errors.
	Name string
	// MaxConcurrent is the maximum number of concurrent calls.
	MaxConcurrent int
}

// Bulkhead limits concurrent calls with a counting semaphore.
type Bulkhead struct {
	name string
	sem  chan struct{}
}

// NewBulkhead creates a new bulkhead. MaxConcurrent <= 0 defaults to 10.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}
	return &Bulkhead{
		name: config.Name,
		sem:  make(chan struct{}, config.MaxConcurrent),
	}
}

// Execute waits for a slot until ctx is done, then runs fn holding the
// slot until fn returns. Without a slot it returns an error wrapping
// ctx.Err() and fn does not run.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	if err := b.acquire(ctx); err != nil {
		return err
	}
	defer b.release()
	return fn()
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("bulkhead %s: %w", b.name, err)
	}
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("bulkhead %s: %w", b.name, ctx.Err())
	}
}

func (b *Bulkhead) release() {
	<-b.sem
}
