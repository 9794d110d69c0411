package main

import (
	"fmt"
	"strings"

	"github.com/kbukum/taskflow/capability/remote"
	"github.com/kbukum/taskflow/config"
	"github.com/kbukum/taskflow/observability"
	"github.com/kbukum/taskflow/orchestrator"
	"github.com/kbukum/taskflow/server"
	"github.com/kbukum/taskflow/version"
)

const serviceName = "taskflow"

// AppConfig is the full configuration of the taskflow binary.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Orchestrator orchestrator.Config  `yaml:"orchestrator" mapstructure:"orchestrator"`
	Server       server.Config        `yaml:"server" mapstructure:"server"`
	Telemetry    observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
	Capabilities CapabilitiesConfig   `yaml:"capabilities" mapstructure:"capabilities"`
}

// CapabilitiesConfig declares capabilities registered next to the builtins.
type CapabilitiesConfig struct {
	Remote []remote.Config `yaml:"remote" mapstructure:"remote"`
}

func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Short()
	}
	c.ServiceConfig.ApplyDefaults()
	c.Orchestrator.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
	c.Telemetry.ServiceName = c.Name
	c.Telemetry.ServiceVersion = c.Version
	c.Telemetry.Environment = c.Environment
	for i := range c.Capabilities.Remote {
		c.Capabilities.Remote[i].ApplyDefaults()
	}
}

func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Orchestrator.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	for i := range c.Capabilities.Remote {
		if err := c.Capabilities.Remote[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// loadConfig reads the config file, .env and environment. One-shot
// commands pass quiet so logs go to stderr and stdout carries only results.
func loadConfig(opts *rootOptions, quiet bool) (*AppConfig, error) {
	var lo []config.LoaderOption
	if opts.configFile != "" {
		lo = append(lo, config.WithConfigFile(opts.configFile))
	}
	if opts.envFile != "" {
		lo = append(lo, config.WithEnvFile(opts.envFile))
	}

	cfg := &AppConfig{}
	if err := config.LoadConfig(serviceName, cfg, lo...); err != nil {
		return nil, err
	}
	if quiet && (cfg.Logging.Output == "" || strings.EqualFold(cfg.Logging.Output, "stdout")) {
		cfg.Logging.Output = "stderr"
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
