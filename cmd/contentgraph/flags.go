package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/contentgraph/config"
)

// outputFlags override the export, rules and publish config sections.
type outputFlags struct {
	rules   string
	format  string
	profile string
	output  string
	natsURL string
	stream  string
	subject string
	timeout time.Duration
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.rules, "rules", "r", "", "Rules file (default: embedded rules)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format (turtle, ntriples, jsonld)")
	cmd.Flags().StringVarP(&f.profile, "profile", "p", "", "Ontology profile (minimal, bfo, cco)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&f.natsURL, "nats-url", "", "Publish resources to this NATS server")
	cmd.Flags().StringVar(&f.stream, "stream", "", "JetStream stream for published resources")
	cmd.Flags().StringVar(&f.subject, "subject", "", "Subject for published resources")
	cmd.Flags().DurationVar(&f.timeout, "publish-timeout", 0, "Timeout for publishing one graph")
}

// apply copies explicitly set flags over cfg.
func (f *outputFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("rules") {
		cfg.Rules.Path = f.rules
	}
	if changed("format") {
		cfg.Export.Format = f.format
	}
	if changed("profile") {
		cfg.Export.Profile = f.profile
	}
	if changed("output") {
		cfg.Export.Output = f.output
	}
	if changed("nats-url") {
		cfg.Publish.URL = f.natsURL
	}
	if changed("stream") {
		cfg.Publish.Stream = f.stream
	}
	if changed("subject") {
		cfg.Publish.Subject = f.subject
	}
	if changed("publish-timeout") {
		cfg.Publish.Timeout = f.timeout
	}
}

// prepare loads config, applies flags and validates the result.
func prepare(cmd *cobra.Command, opts *globalOptions, flags *outputFlags) (*config.Config, *slog.Logger, error) {
	logger := newLogger(cmd.ErrOrStderr(), opts.logLevel)
	cfg, err := loadConfig(opts.configPath, logger)
	if err != nil {
		return nil, nil, err
	}
	flags.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
