// Package main provides the contentgraph binary entry point.
// contentgraph walks a content tree, classifies every file and directory with an
// ordered rule set, and emits the resulting packaging resource graph as RDF or
// publishes it to the knowledge graph over NATS JetStream.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/contentgraph/config"
	"github.com/c360studio/contentgraph/engine"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "contentgraph"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var engErr *engine.Error
		if errors.As(err, &engErr) && engErr.HasResolution() {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", engErr.Resolution)
		}
		os.Exit(1)
	}
}

// globalOptions are shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Map a content tree to a packaging resource graph",
		Long: `contentgraph walks a directory tree once and classifies every file and
directory with an ordered, first-match rule set. Included entities become
resources (Project, Collection, DataItem, DataFile, MetadataFile) with
properties and relationships; excluded directories are skipped together
with everything below them.

The graph is written as Turtle, N-Triples or JSON-LD, and can be published
to the knowledge graph over NATS JetStream.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(generateCmd(opts))
	cmd.AddCommand(watchCmd(opts))
	cmd.AddCommand(rulesCmd(opts))

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

// newLogger configures logging on stderr.
func newLogger(w io.Writer, logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// loadConfig loads an explicit config file over the defaults, or runs the layered
// loader when no file is given.
func loadConfig(configPath string, logger *slog.Logger) (*config.Config, error) {
	if configPath == "" {
		return config.NewLoader(logger).Load()
	}
	fileCfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg := config.DefaultConfig()
	cfg.Merge(fileCfg)
	return cfg, nil
}

// resolveRoot makes the content root absolute. The engine itself reports roots
// that do not exist or cannot be read.
func resolveRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root path: %w", err)
	}
	return abs, nil
}
