// Package config loads taskflow service configuration.
//
// It uses Viper to read a YAML file and environment variables, and godotenv
// to load an optional .env file before env binding. Service configs embed
// ServiceConfig and add their own sections:
//
//	type AppConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Orchestrator orchestrator.Config `yaml:"orchestrator" mapstructure:"orchestrator"`
//	}
//
// Environment variables override file values: ORCHESTRATOR_TIMEOUT maps to
// orchestrator.timeout.
package config
