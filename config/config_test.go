package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Export.Format != "turtle" {
		t.Errorf("expected default format turtle, got %s", cfg.Export.Format)
	}
	if cfg.Export.Profile != "minimal" {
		t.Errorf("expected default profile minimal, got %s", cfg.Export.Profile)
	}
	if cfg.Publish.Subject != "graph.ingest.entity" {
		t.Errorf("expected default subject graph.ingest.entity, got %s", cfg.Publish.Subject)
	}
	if cfg.Publish.URL != "" {
		t.Error("expected publishing disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "unknown format",
			modify:  func(c *Config) { c.Export.Format = "rdfxml" },
			wantErr: true,
		},
		{
			name:    "unknown profile",
			modify:  func(c *Config) { c.Export.Profile = "owl" },
			wantErr: true,
		},
		{
			name: "publish without stream",
			modify: func(c *Config) {
				c.Publish.URL = "nats://localhost:4222"
				c.Publish.Stream = ""
			},
			wantErr: true,
		},
		{
			name:    "stream may be empty when not publishing",
			modify:  func(c *Config) { c.Publish.Stream = "" },
			wantErr: false,
		},
		{
			name:    "zero publish timeout",
			modify:  func(c *Config) { c.Publish.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "negative debounce",
			modify:  func(c *Config) { c.Watch.Debounce = -time.Second },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidate_ReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Export.Format = "xml"
	cfg.Export.Profile = "owl"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "export.format") || !strings.Contains(err.Error(), "export.profile") {
		t.Errorf("expected both problems reported, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
rules:
  path: "rules.yaml"
export:
  format: "jsonld"
publish:
  url: "nats://test:4222"
  timeout: 5s
watch:
  exclude_dirs: ["build"]
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Rules.Path != "rules.yaml" {
		t.Errorf("expected rules path rules.yaml, got %s", cfg.Rules.Path)
	}
	if cfg.Export.Format != "jsonld" {
		t.Errorf("expected format jsonld, got %s", cfg.Export.Format)
	}
	if cfg.Publish.URL != "nats://test:4222" {
		t.Errorf("expected url nats://test:4222, got %s", cfg.Publish.URL)
	}
	if cfg.Publish.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.Publish.Timeout)
	}
	if len(cfg.Watch.ExcludeDirs) != 1 || cfg.Watch.ExcludeDirs[0] != "build" {
		t.Errorf("expected exclude_dirs [build], got %v", cfg.Watch.ExcludeDirs)
	}
}

func TestLoadFromFile_NotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	other := &Config{
		Export: ExportConfig{
			Profile: "cco",
		},
		Publish: PublishConfig{
			URL: "nats://remote:4222",
		},
	}

	base.Merge(other)

	if base.Export.Profile != "cco" {
		t.Errorf("expected merged profile cco, got %s", base.Export.Profile)
	}
	if base.Export.Format != "turtle" {
		t.Errorf("expected unchanged format turtle, got %s", base.Export.Format)
	}
	if base.Publish.URL != "nats://remote:4222" {
		t.Errorf("expected merged url, got %s", base.Publish.URL)
	}
	if base.Publish.Stream != "GRAPH" {
		t.Errorf("expected unchanged stream GRAPH, got %s", base.Publish.Stream)
	}

	base.Merge(nil)
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Export.Profile = "bfo"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if loaded.Export.Profile != "bfo" {
		t.Errorf("expected saved profile bfo, got %s", loaded.Export.Profile)
	}
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvNATSURL, "")
	t.Setenv(EnvRules, "")
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	return home
}

func TestLoader_Precedence(t *testing.T) {
	home := isolateHome(t)

	user := DefaultConfig()
	user.Export.Profile = "bfo"
	user.Export.Format = "ntriples"
	if err := user.SaveToFile(filepath.Join(home, ".config", "contentgraph", UserConfigFile)); err != nil {
		t.Fatal(err)
	}

	project := t.TempDir()
	nested := filepath.Join(project, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(project, ProjectConfigFile), []byte("export:\n  profile: cco\nrules:\n  path: ~/rules.yaml\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvNATSURL, "nats://env:4222")

	cfg, err := NewLoader(nil).WithSearchDir(nested).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Export.Format != "ntriples" {
		t.Errorf("user config should set format, got %s", cfg.Export.Format)
	}
	if cfg.Export.Profile != "cco" {
		t.Errorf("project config should override user profile, got %s", cfg.Export.Profile)
	}
	if cfg.Publish.URL != "nats://env:4222" {
		t.Errorf("environment should set url, got %s", cfg.Publish.URL)
	}
	if cfg.Rules.Path != filepath.Join(home, "rules.yaml") {
		t.Errorf("rules path should expand ~, got %s", cfg.Rules.Path)
	}
}

func TestLoader_InvalidResult(t *testing.T) {
	isolateHome(t)
	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, ProjectConfigFile), []byte("export:\n  format: xml\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewLoader(nil).WithSearchDir(project).Load(); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoader_EnsureUserConfig(t *testing.T) {
	home := isolateHome(t)

	l := NewLoader(nil)
	if err := l.EnsureUserConfig(); err != nil {
		t.Fatalf("EnsureUserConfig() error = %v", err)
	}
	path := filepath.Join(home, ".config", "contentgraph", UserConfigFile)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("user config not created: %v", err)
	}
	// Second call leaves the file alone
	if err := l.EnsureUserConfig(); err != nil {
		t.Fatalf("EnsureUserConfig() second call error = %v", err)
	}
}
