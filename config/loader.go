package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "contentgraph.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = "~/.config/contentgraph"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"

	// EnvNATSURL overrides publish.url
	EnvNATSURL = "CONTENTGRAPH_NATS_URL"
	// EnvRules overrides rules.path
	EnvRules = "CONTENTGRAPH_RULES"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
	dir    string
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// WithSearchDir sets the directory the project config search starts from. The
// working directory is used otherwise.
func (l *Loader) WithSearchDir(dir string) *Loader {
	l.dir = dir
	return l
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/contentgraph/config.yaml)
// 3. Project config (contentgraph.yaml in the search directory or its parents)
// 4. Environment variables
func (l *Loader) Load() (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// Load user config
	if userConfigPath := l.userConfigPath(); userConfigPath != "" {
		if userConfig, err := LoadFromFile(userConfigPath); err == nil {
			l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
			config.Merge(userConfig)
		} else if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
		}
	}

	// Load project config
	projectConfigPath := l.findProjectConfig()
	if projectConfigPath != "" {
		if projectConfig, err := LoadFromFile(projectConfigPath); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
			config.Merge(projectConfig)
		} else {
			l.logger.Warn("Failed to load project config", slog.String("path", projectConfigPath), slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("No project config found")
	}

	l.applyEnv(config)

	if config.Rules.Path != "" {
		expanded, err := homedir.Expand(config.Rules.Path)
		if err != nil {
			return nil, err
		}
		config.Rules.Path = expanded
	}

	// Validate final config
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (l *Loader) applyEnv(config *Config) {
	if url := os.Getenv(EnvNATSURL); url != "" {
		config.Publish.URL = url
		l.logger.Debug("NATS URL from environment", slog.String("var", EnvNATSURL))
	}
	if rules := os.Getenv(EnvRules); rules != "" {
		config.Rules.Path = rules
		l.logger.Debug("Rules path from environment", slog.String("var", EnvRules))
	}
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() error {
	userConfigPath := l.userConfigPath()

	// Check if it already exists
	if _, err := os.Stat(userConfigPath); err == nil {
		return nil // Already exists
	}

	// Create default config
	config := DefaultConfig()
	if err := config.SaveToFile(userConfigPath); err != nil {
		return err
	}

	l.logger.Info("Created default user config", slog.String("path", userConfigPath))
	return nil
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	dir, err := homedir.Expand(UserConfigDir)
	if err != nil {
		return ""
	}
	return filepath.Join(dir, UserConfigFile)
}

// findProjectConfig searches for contentgraph.yaml in the search directory and its parents
func (l *Loader) findProjectConfig() string {
	dir := l.dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return ""
		}
		dir = cwd
	}

	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return ""
}
