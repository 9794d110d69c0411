package remote

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout = 30 * time.Second
	defaultMethod  = http.MethodPost
)

// Config declares one remote capability.
type Config struct {
	Name   string `yaml:"name" mapstructure:"name"`
	URL    string `yaml:"url" mapstructure:"url"`
	Method string `yaml:"method" mapstructure:"method"`
	// Timeout bounds the HTTP exchange. The task deadline still applies.
	Timeout     time.Duration     `yaml:"timeout" mapstructure:"timeout"`
	Headers     map[string]string `yaml:"headers" mapstructure:"headers"`
	BearerToken string            `yaml:"bearer_token" mapstructure:"bearer_token"`

	Description string   `yaml:"description" mapstructure:"description"`
	DependsOn   []string `yaml:"depends_on" mapstructure:"depends_on"`
	Provides    []string `yaml:"provides" mapstructure:"provides"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Method == "" {
		c.Method = defaultMethod
	}
	c.Method = strings.ToUpper(c.Method)
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("remote capability: name is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("remote capability %s: url must be an absolute http(s) URL (got: %q)", c.Name, c.URL)
	}
	switch c.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return fmt.Errorf("remote capability %s: method must be POST, PUT or PATCH (got: %s)", c.Name, c.Method)
	}
	return nil
}
