package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/opencontainers/go-digest"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/contentgraph/config"
	"github.com/c360studio/contentgraph/engine"
	"github.com/c360studio/contentgraph/export"
	"github.com/c360studio/contentgraph/graph"
	"github.com/c360studio/contentgraph/rules"
	"github.com/c360studio/contentgraph/rulespec"
	"github.com/c360studio/contentgraph/storage"
	"github.com/c360studio/contentgraph/watch"
)

// Result summarizes one generation.
type Result struct {
	Resources int
	Published int
	Digest    digest.Digest
	RunID     string
}

// App is the main application that wires together all components.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer

	engine   *engine.Engine
	exporter *export.RDFExporter
	format   export.Format
	registry *prometheus.Registry
	metrics  *engine.Metrics

	// NATS
	natsConn *nats.Conn
	natsOpts []nats.Option
	js       jetstream.JetStream

	// Storage
	store *storage.Store
}

// NewApp creates a new application instance. Output goes to out unless the config
// names an output file.
func NewApp(cfg *config.Config, logger *slog.Logger, out io.Writer) (*App, error) {
	rs, err := loadRules(cfg.Rules.Path)
	if err != nil {
		return nil, err
	}
	format, err := export.ParseFormat(cfg.Export.Format)
	if err != nil {
		return nil, err
	}
	profile, err := export.ParseProfile(cfg.Export.Profile)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	metrics := engine.NewMetrics(registry)
	eng := engine.New(rs,
		engine.WithLogger(logger),
		engine.WithMetrics(metrics))

	return &App{
		cfg:      cfg,
		logger:   logger,
		out:      out,
		engine:   eng,
		exporter: export.NewRDFExporter(profile),
		format:   format,
		registry: registry,
		metrics:  metrics,
	}, nil
}

func loadRules(path string) (*rules.RuleSet, error) {
	if path == "" {
		return rulespec.Default()
	}
	return rulespec.LoadFile(path)
}

func (a *App) rulesName() string {
	if a.cfg.Rules.Path == "" {
		return "default"
	}
	return a.cfg.Rules.Path
}

// Start connects to NATS when publishing is configured, ensures the ingest stream
// exists and opens the run store. A failed Start leaves no connection open.
func (a *App) Start(ctx context.Context) (err error) {
	if a.cfg.Publish.URL == "" {
		return nil
	}

	a.logger.Info("Connecting to NATS", slog.String("url", a.cfg.Publish.URL))
	opts := append([]nats.Option{nats.Name(appName)}, a.natsOpts...)
	conn, err := nats.Connect(a.cfg.Publish.URL, opts...)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	a.natsConn = conn
	defer func() {
		if err != nil {
			a.Shutdown()
		}
	}()

	// Get JetStream context
	js, err := jetstream.New(conn)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}
	a.js = js

	if err := graph.EnsureStream(ctx, js, a.cfg.Publish.Stream, a.cfg.Publish.Subject); err != nil {
		return err
	}

	store, err := storage.NewStore(ctx, js)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	a.store = store
	return nil
}

// Shutdown closes the NATS connection. Publishing and run records stop with it.
func (a *App) Shutdown() {
	if a.natsConn != nil {
		if err := a.natsConn.Drain(); err != nil {
			a.logger.Warn("NATS drain failed", slog.String("error", err.Error()))
		}
		a.natsConn = nil
	}
	a.js = nil
	a.store = nil
}

// Generate builds the graph of root, writes its serialization and publishes it
// when a JetStream connection is open.
func (a *App) Generate(ctx context.Context, root string, changes []watch.Change) (*Result, error) {
	var run *storage.Run
	if a.store != nil {
		paths := make([]string, len(changes))
		for i, c := range changes {
			paths[i] = c.Path
		}
		r, err := a.store.StartRun(ctx, root, a.rulesName(), paths)
		if err != nil {
			a.logger.Warn("Failed to record run", slog.String("error", err.Error()))
		}
		run = r
	}

	res, err := a.generate(ctx, root)
	if run != nil {
		if res != nil {
			run.Resources = res.Resources
			run.Published = res.Published
			run.Digest = res.Digest.String()
			res.RunID = run.ID
		}
		if cerr := a.store.CompleteRun(ctx, run, err); cerr != nil {
			a.logger.Warn("Failed to complete run record", slog.String("error", cerr.Error()))
		}
	}
	return res, err
}

func (a *App) generate(ctx context.Context, root string) (*Result, error) {
	start := time.Now()
	g, err := a.engine.GenerateGraph(ctx, root)
	if err != nil {
		return nil, err
	}

	serialized, err := a.exporter.Export(g, a.format)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Resources: g.Len(),
		Digest:    digest.FromString(serialized),
	}
	if err := a.writeOutput(serialized); err != nil {
		return res, err
	}

	if a.js != nil {
		pubCtx, cancel := context.WithTimeout(ctx, a.cfg.Publish.Timeout)
		defer cancel()
		n, err := graph.Publish(pubCtx, a.js, a.cfg.Publish.Subject, g, a.engine.SourceTag())
		res.Published = n
		if err != nil {
			return res, err
		}
	}

	a.logger.Info("Graph generated",
		slog.String("root", root),
		slog.Int("resources", res.Resources),
		slog.Int("published", res.Published),
		slog.String("digest", res.Digest.String()),
		slog.Duration("duration", time.Since(start)))
	return res, nil
}

// writeOutput replaces the output file through a rename so readers never see a
// partial graph.
func (a *App) writeOutput(serialized string) error {
	path := a.cfg.Export.Output
	if path == "" {
		_, err := io.WriteString(a.out, serialized)
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if _, err := tmp.WriteString(serialized); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace output file: %w", err)
	}
	return nil
}
