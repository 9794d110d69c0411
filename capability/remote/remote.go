package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/kbukum/taskflow/capability"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// ErrResponseTooLarge is returned when a successful response body exceeds
// maxResponseBytes.
var ErrResponseTooLarge = fmt.Errorf("remote: response too large (limit %d bytes)", maxResponseBytes)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("remote: HTTP %d: %s", e.StatusCode, e.Body)
}

type httpCapability struct {
	cfg    Config
	client *http.Client
}

// New builds a capability calling cfg.URL. A nil client uses a client
// with cfg.Timeout.
func New(cfg Config, client *http.Client) (capability.Capability, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &httpCapability{cfg: cfg, client: client}, nil
}

func (c *httpCapability) Name() string { return c.cfg.Name }

func (c *httpCapability) Invoke(ctx context.Context, params map[string]any) (any, error) {
	if params == nil {
		params = map[string]any{}
	}
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("remote: encode params: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, c.cfg.Method, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	if c.cfg.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("remote: %s %s: %w", c.cfg.Method, c.cfg.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("remote: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(bytes.TrimSpace(data)), 200)}
	}
	if len(data) > maxResponseBytes {
		return nil, ErrResponseTooLarge
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}

	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("remote: decode response: %w", err)
	}
	return out, nil
}

// Register adds one capability per config to reg, with its metadata.
func Register(reg *capability.Registry, cfgs []Config, client *http.Client) error {
	var errs []error
	for _, cfg := range cfgs {
		c, err := New(cfg, client)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := reg.Register(c, capability.Metadata{
			Description: cfg.Description,
			DependsOn:   cfg.DependsOn,
			Provides:    cfg.Provides,
		}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
