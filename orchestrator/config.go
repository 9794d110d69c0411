package orchestrator

import (
	"fmt"
	"time"
)

const (
	// DefaultTimeout bounds each task when no timeout is given.
	DefaultTimeout = 30 * time.Second
	// DefaultFastPathName always runs in the first batch.
	DefaultFastPathName = "navigation.navigate"
	// DefaultFastPathSubstring marks navigation-like tasks for the first batch.
	DefaultFastPathSubstring = "navigat"
)

// Config configures an Orchestrator.
type Config struct {
	// Timeout is the per-task deadline.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// MaxParallel caps concurrent capability invocations across one call
	// (0 = unlimited). A slot is held until the capability returns, even
	// past its deadline, and time spent waiting for a slot counts against
	// the task's deadline.
	MaxParallel int            `yaml:"max_parallel" mapstructure:"max_parallel"`
	FastPath    FastPathConfig `yaml:"fast_path" mapstructure:"fast_path"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if !c.FastPath.Disabled && len(c.FastPath.Names) == 0 && len(c.FastPath.Substrings) == 0 {
		c.FastPath.Names = []string{DefaultFastPathName}
		c.FastPath.Substrings = []string{DefaultFastPathSubstring}
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("orchestrator.timeout must not be negative (got: %s)", c.Timeout)
	}
	if c.MaxParallel < 0 {
		return fmt.Errorf("orchestrator.max_parallel must not be negative (got: %d)", c.MaxParallel)
	}
	return nil
}
