// Package config provides configuration loading and management for contentgraph.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Config represents the complete contentgraph configuration
type Config struct {
	Rules   RulesConfig   `yaml:"rules"`
	Export  ExportConfig  `yaml:"export"`
	Publish PublishConfig `yaml:"publish"`
	Watch   WatchConfig   `yaml:"watch"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// RulesConfig selects the mapping rules
type RulesConfig struct {
	// Path is a rules YAML file (empty = embedded default rules)
	Path string `yaml:"path"`
}

// ExportConfig configures RDF serialization
type ExportConfig struct {
	// Format is turtle, ntriples or jsonld
	Format string `yaml:"format"`
	// Profile is minimal, bfo or cco
	Profile string `yaml:"profile"`
	// Output is the destination file (empty = stdout)
	Output string `yaml:"output"`
}

// PublishConfig configures the JetStream hand-off
type PublishConfig struct {
	// URL is the NATS server URL (empty = do not publish)
	URL string `yaml:"url"`
	// Stream is the JetStream stream receiving resources
	Stream string `yaml:"stream"`
	// Subject is the subject resources are published on
	Subject string `yaml:"subject"`
	// Timeout bounds the whole publish step
	Timeout time.Duration `yaml:"timeout"`
}

// WatchConfig configures regeneration on file changes
type WatchConfig struct {
	// Debounce is the quiet period before regenerating
	Debounce time.Duration `yaml:"debounce"`
	// ExcludeDirs are directory names never watched
	ExcludeDirs []string `yaml:"exclude_dirs"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	// Addr is the listen address for /metrics (empty = disabled)
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Rules: RulesConfig{
			Path:     "", // Embedded defaults
		},
		Export: ExportConfig{
			Format:  "turtle",
			Profile: "minimal",
		},
		Publish: PublishConfig{
			Stream:  "GRAPH",
			Subject: "graph.ingest.entity",
			Timeout: 30 * time.Second,
		},
		Watch: WatchConfig{
			Debounce:    500 * time.Millisecond,
			ExcludeDirs: []string{".git", "node_modules", "vendor"},
		},
	}
}

var (
	validFormats  = map[string]bool{"turtle": true, "ntriples": true, "jsonld": true}
	validProfiles = map[string]bool{"minimal": true, "bfo": true, "cco": true}
)

// Validate checks that the configuration is valid. Every problem found is
// reported, not only the first.
func (c *Config) Validate() error {
	var result *multierror.Error
	if !validFormats[c.Export.Format] {
		result = multierror.Append(result, fmt.Errorf("export.format %q must be one of turtle, ntriples, jsonld", c.Export.Format))
	}
	if !validProfiles[c.Export.Profile] {
		result = multierror.Append(result, fmt.Errorf("export.profile %q must be one of minimal, bfo, cco", c.Export.Profile))
	}
	if c.Publish.URL != "" {
		if c.Publish.Stream == "" {
			result = multierror.Append(result, errors.New("publish.stream is required when publish.url is set"))
		}
		if c.Publish.Subject == "" {
			result = multierror.Append(result, errors.New("publish.subject is required when publish.url is set"))
		}
	}
	if c.Publish.Timeout <= 0 {
		result = multierror.Append(result, errors.New("publish.timeout must be positive"))
	}
	if c.Watch.Debounce < 0 {
		result = multierror.Append(result, errors.New("watch.debounce must not be negative"))
	}
	return result.ErrorOrNil()
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Rules
	if other.Rules.Path != "" {
		c.Rules.Path = other.Rules.Path
	}

	// Export
	if other.Export.Format != "" {
		c.Export.Format = other.Export.Format
	}
	if other.Export.Profile != "" {
		c.Export.Profile = other.Export.Profile
	}
	if other.Export.Output != "" {
		c.Export.Output = other.Export.Output
	}

	// Publish
	if other.Publish.URL != "" {
		c.Publish.URL = other.Publish.URL
	}
	if other.Publish.Stream != "" {
		c.Publish.Stream = other.Publish.Stream
	}
	if other.Publish.Subject != "" {
		c.Publish.Subject = other.Publish.Subject
	}
	if other.Publish.Timeout != 0 {
		c.Publish.Timeout = other.Publish.Timeout
	}

	// Watch
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if len(other.Watch.ExcludeDirs) > 0 {
		c.Watch.ExcludeDirs = other.Watch.ExcludeDirs
	}

	// Metrics
	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
	}
}
