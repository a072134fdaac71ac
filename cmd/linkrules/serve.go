package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/liamcoop/linkrules/internal/logger"
	"github.com/liamcoop/linkrules/rules"
	"github.com/liamcoop/linkrules/ruleset"
)

type serveOptions struct {
	addr            string
	watch           bool
	debounce        time.Duration
	schedule        string
	scheduleSubject string
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the rule evaluation HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, root, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.addr, "addr", ":"+envOr("PORT", "8080"), "Listen address")
	flags.BoolVar(&opts.watch, "watch", false, "Reload the rule definition when the file changes")
	flags.DurationVar(&opts.debounce, "debounce", ruleset.DefaultDebounce, "Quiet period before a watched change is reloaded")
	flags.StringVar(&opts.schedule, "schedule", "", "Cron schedule for background runs, e.g. \"*/5 * * * *\"")
	flags.StringVar(&opts.scheduleSubject, "schedule-subject", "", "Subject evaluated by scheduled runs")
	return cmd
}

// newMetricsRegistry holds runtime, process and log counters; rule metrics
// are added by ruleset.NewMetrics.
func newMetricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	registry.MustRegister(logger.Collectors()...)
	return registry
}

func serve(ctx context.Context, root *rootOptions, opts *serveOptions) error {
	log := logger.With("component", "server")

	registry := newMetricsRegistry()

	m, err := ruleset.NewManager(root.rulesPath, ruleset.Options{
		Logger:  logger.Logger,
		Metrics: ruleset.NewMetrics(registry),
	})
	if err != nil {
		return err
	}

	backend, err := openFacts(ctx, root.facts)
	if err != nil {
		return err
	}
	defer backend.close()

	if opts.watch {
		go func() {
			if err := m.Watch(ctx, opts.debounce); err != nil {
				log.Error("rule watcher failed", "error", err)
			}
		}()
	}

	if opts.schedule != "" {
		scheduler := ruleset.NewScheduler(m, func(ctx context.Context) (rules.FactSource, error) {
			return backend.source(ctx, opts.scheduleSubject)
		})
		if err := scheduler.Start(ctx, opts.schedule); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	httpServer := &http.Server{
		Addr:         opts.addr,
		Handler:      NewServer(m, backend, registry),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", opts.addr, "rules", m.Path(), "facts", backend.kind)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}
