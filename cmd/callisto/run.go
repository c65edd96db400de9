package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/exposition"
	"mercator-hq/callisto/pkg/hub"
	"mercator-hq/callisto/pkg/maintenance"
	"mercator-hq/callisto/pkg/metrics/storage"
	"mercator-hq/callisto/pkg/query"
	"mercator-hq/callisto/pkg/server"
	"mercator-hq/callisto/pkg/telemetry/logging"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Callisto telemetry hub",
	Long: `Start the telemetry hub with the specified configuration.

The hub listens on the configured address, persists every ingested
sample to the SQLite time series, fans samples out to live stream
subscribers and serves the scrape exposition endpoint.

Examples:
  # Start with default config
  callisto run

  # Start with custom config
  callisto run --config /etc/callisto/config.yaml

  # Override listen address
  callisto run --listen 0.0.0.0:9090

  # Validate config without starting the hub
  callisto run --dry-run`,
	RunE: runHub,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the hub")
}

// thresholdRenderer is implemented by both renderers; it lets the
// config watcher adjust the freshness window at runtime.
type thresholdRenderer interface {
	exposition.Renderer
	SetUpThreshold(time.Duration)
}

func runHub(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	if _, err := logging.Setup(cfg.Logging); err != nil {
		return err
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	slog.Info("starting callisto",
		"version", Version,
		"store", cfg.Store.Path,
		"exposition_format", cfg.Exposition.Format,
	)

	store, err := storage.Open(&storage.Config{
		Path:        cfg.Store.Path,
		Driver:      cfg.Store.Driver,
		BusyTimeout: cfg.Store.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	// Exposition renderer: prometheus by default, plain text fallback.
	// The hub's own operational metrics ride along on the prometheus
	// registry; the plain format has no place for them.
	var (
		renderer   thresholdRenderer
		hubMetrics *hub.Metrics
	)
	switch cfg.Exposition.Format {
	case "plain":
		renderer = exposition.NewPlainRenderer(store, cfg.Exposition.Namespace, cfg.Exposition.UpThreshold)
	default:
		promRenderer := exposition.NewPrometheusRenderer(store, cfg.Exposition.Namespace, cfg.Exposition.UpThreshold)
		hubMetrics = hub.NewMetrics(cfg.Exposition.Namespace, promRenderer.Registry())
		renderer = promRenderer
	}

	registry := hub.NewRegistry(cfg.Hub.SubscriberBuffer, hubMetrics)
	pipeline := hub.NewPipeline(store, registry, hubMetrics)
	querySvc := query.NewService(store)

	srv := server.NewServer(cfg.Server, pipeline, registry, querySvc, renderer, cfg.Hub.KeepaliveInterval)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	scheduler := maintenance.NewScheduler(maintenance.NewCheckpointer(store), cfg.Maintenance.CheckpointSchedule)
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start maintenance scheduler: %w", err)
	}

	if cfg.WatchConfig {
		watcher, err := config.NewWatcher(cfgFile, func(next *config.Config) {
			renderer.SetUpThreshold(next.Exposition.UpThreshold)
			srv.SetKeepaliveInterval(next.Hub.KeepaliveInterval)
		})
		if err != nil {
			slog.Warn("config watcher unavailable", "error", err)
		} else {
			watcher.Start()
			defer watcher.Stop()
		}
	}

	return srv.Start(ctx)
}
