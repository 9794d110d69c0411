package bootstrap

import (
	"github.com/kbukum/taskflow/config"
)

// Config is the constraint for application configuration types. Any struct
// embedding config.ServiceConfig satisfies it via promoted methods, as long
// as it does not shadow ApplyDefaults or Validate without calling through.
//
//	type AppConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Orchestrator orchestrator.Config `yaml:"orchestrator" mapstructure:"orchestrator"`
//	}
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
