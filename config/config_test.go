package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type testOrchestrator struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxParallel int           `mapstructure:"max_parallel"`
}

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Orchestrator  testOrchestrator `mapstructure:"orchestrator"`
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "taskflow"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.ServiceName != "taskflow" {
			t.Errorf("expected logging service name, got %q", cfg.Logging.ServiceName)
		}
	})

	t.Run("production keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "taskflow", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "staging"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "qa"}, "config.environment must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: taskflow
environment: staging
orchestrator:
  timeout: 5s
  max_parallel: 4
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg testConfig
	if err := LoadConfig("taskflow", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "taskflow" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config %+v", cfg.ServiceConfig)
	}
	if cfg.Orchestrator.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.Orchestrator.Timeout)
	}
	if cfg.Orchestrator.MaxParallel != 4 {
		t.Errorf("expected max_parallel 4, got %d", cfg.Orchestrator.MaxParallel)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("name: taskflow\norchestrator:\n  timeout: 5s\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("ORCHESTRATOR_TIMEOUT", "2s")
	t.Setenv("ORCHESTRATOR_MAX_PARALLEL", "8")

	var cfg testConfig
	if err := LoadConfig("taskflow", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Orchestrator.Timeout != 2*time.Second {
		t.Errorf("expected env override 2s, got %v", cfg.Orchestrator.Timeout)
	}
	if cfg.Orchestrator.MaxParallel != 8 {
		t.Errorf("expected env override 8, got %d", cfg.Orchestrator.MaxParallel)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("nonexistent-service", &cfg, WithConfigFile("/nonexistent/path.yml"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool   { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestResolverSearchOrder(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/taskflow/config.yml": true,
		"./config.yml":              true,
		"./.env":                    true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("taskflow", LoaderConfig{})
	if files.ConfigFile != "./cmd/taskflow/config.yml" {
		t.Errorf("expected cmd config first, got %q", files.ConfigFile)
	}
	if files.EnvFile != "./.env" {
		t.Errorf("expected root .env, got %q", files.EnvFile)
	}
}

func TestResolverExplicitPaths(t *testing.T) {
	resolver := &Resolver{FileSystem: &mockFS{}}
	files := resolver.ResolveFiles("taskflow", LoaderConfig{ConfigFile: "/etc/tf.yml", EnvFile: "/etc/tf.env"})
	if files.ConfigFile != "/etc/tf.yml" || files.EnvFile != "/etc/tf.env" {
		t.Errorf("expected explicit paths, got %+v", files)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	variants := envKeyVariants("ORCHESTRATOR_MAX_PARALLEL")
	want := map[string]bool{
		"orchestrator_max_parallel": true,
		"orchestrator.max.parallel": true,
		"orchestrator.max_parallel": true,
	}
	if len(variants) != len(want) {
		t.Fatalf("expected %d variants, got %v", len(want), variants)
	}
	for _, v := range variants {
		if !want[v] {
			t.Errorf("unexpected variant %q", v)
		}
	}
}

func TestKnownPrefix(t *testing.T) {
	if !knownPrefix("orchestrator.timeout") || !knownPrefix("debug") {
		t.Error("expected configured keys to be bindable")
	}
	if knownPrefix("path") || knownPrefix("debug.level") {
		t.Error("expected unrelated keys to be ignored")
	}
}
