package capability

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Capability is a named unit of work accepting a parameter map.
type Capability interface {
	Name() string
	Invoke(ctx context.Context, params map[string]any) (any, error)
}

// Func is the signature of a context-aware capability implementation.
type Func func(ctx context.Context, params map[string]any) (any, error)

// New wraps a context-aware function as a Capability.
func New(name string, fn Func) Capability {
	return &funcCapability{name: name, fn: fn}
}

type funcCapability struct {
	name string
	fn   Func
}

func (c *funcCapability) Name() string { return c.name }

func (c *funcCapability) Invoke(ctx context.Context, params map[string]any) (any, error) {
	return c.fn(ctx, params)
}

// Sync adapts a blocking function that knows nothing about contexts.
// The orchestrator runs every invocation on its own goroutine, so a slow
// Sync capability delays only itself; once its deadline passes the result
// is discarded.
func Sync(name string, fn func(params map[string]any) (any, error)) Capability {
	return &funcCapability{
		name: name,
		fn: func(_ context.Context, params map[string]any) (any, error) {
			return fn(params)
		},
	}
}

// Typed bridges a function with struct input/output into a Capability.
// Params are decoded into I with weak typing, so a JSON number reaches an
// int field. A struct or map output is encoded back into map[string]any;
// other outputs are returned unchanged.
func Typed[I, O any](name string, fn func(ctx context.Context, input I) (O, error)) Capability {
	return &funcCapability{
		name: name,
		fn: func(ctx context.Context, params map[string]any) (any, error) {
			var input I
			if err := decode(params, &input); err != nil {
				return nil, fmt.Errorf("%s: decode params: %w", name, err)
			}
			output, err := fn(ctx, input)
			if err != nil {
				return nil, err
			}
			return toMap(output)
		},
	}
}

func decode(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "json",
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(params)
}

func toMap(v any) (any, error) {
	switch v.(type) {
	case nil, map[string]any:
		return v, nil
	}
	var m map[string]any
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &m,
		TagName: "json",
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(v); err != nil {
		// scalars and slices are valid outputs; they just do not propagate
		return v, nil
	}
	return m, nil
}
