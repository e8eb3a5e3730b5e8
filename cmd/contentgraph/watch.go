package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/c360studio/contentgraph/watch"
)

func watchCmd(opts *globalOptions) *cobra.Command {
	flags := &outputFlags{}
	var (
		debounce    time.Duration
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "watch [root]",
		Short: "Regenerate the resource graph whenever the content tree changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := prepare(cmd, opts, flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("debounce") {
				cfg.Watch.Debounce = debounce
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.Metrics.Addr = metricsAddr
			}
			root, err := resolveRoot(args)
			if err != nil {
				return err
			}

			app, err := NewApp(cfg, logger, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			// Setup signal handling
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := app.Start(ctx); err != nil {
				return err
			}
			defer app.Shutdown()

			if cfg.Metrics.Addr != "" {
				srv := &http.Server{
					Addr:              cfg.Metrics.Addr,
					Handler:           metricsHandler(app),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("Metrics server failed", slog.String("error", err.Error()))
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
				logger.Info("Serving metrics", slog.String("addr", cfg.Metrics.Addr))
			}

			w, err := watch.New(root, watch.Config{
				Debounce:    cfg.Watch.Debounce,
				ExcludeDirs: cfg.Watch.ExcludeDirs,
			}, func(ctx context.Context, changes []watch.Change) error {
				_, err := app.Generate(ctx, root, changes)
				return err
			}, logger)
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "Quiet period before regenerating")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	return cmd
}

func metricsHandler(app *App) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))
	return mux
}
