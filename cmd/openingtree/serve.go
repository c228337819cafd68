package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vytor/openingtree/internal/api"
	"github.com/vytor/openingtree/internal/logger"
	"github.com/vytor/openingtree/internal/repository/sqlite"
	"github.com/vytor/openingtree/internal/services"
	"github.com/vytor/openingtree/internal/stats"
	promstats "github.com/vytor/openingtree/internal/stats/prometheus"
	"github.com/vytor/openingtree/internal/tree"
	"github.com/vytor/openingtree/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Start the HTTP API. Builds are queued and run one at a time; finished
trees are kept in memory for navigation.

Endpoints:
  POST   /api/games/import        PGN body (plain or zstd)
  GET    /api/players             ?q=carl&limit=10
  POST   /api/trees               {"player_name", "side", "start_date", "end_date", "opponent"}
  GET    /api/trees/{id}          status, progress, summary
  DELETE /api/trees/{id}          cancel
  GET    /api/trees/{id}/node     ?path=e4,c5&games=true
  GET    /api/health, /api/ready, /metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	log := logger.Default()

	log.Info("openingtree server starting")
	log.Debug("addr=%s db_path=%s max_plies=%d build_queue_size=%d tree_cache_size=%d build_rate_per_minute=%d metrics=%v",
		cfg.Addr, cfg.DBPath, cfg.MaxPlies, cfg.BuildQueueSize, cfg.TreeCacheSize, cfg.BuildRatePerMinute, cfg.Metrics())

	database, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	var (
		metrics        stats.Collector = stats.Noop{}
		metricsHandler http.Handler
	)
	if cfg.Metrics() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = promstats.New(reg)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	repo := sqlite.NewGameRepository(database.DB)
	// One worker: builds are serialized.
	buildPool := worker.NewPool(1, cfg.BuildQueueSize)
	trees, err := services.NewTreeService(
		tree.NewBuilder(repo, tree.WithMaxPlies(cfg.MaxPlies)),
		buildPool, metrics, cfg.TreeCacheSize,
	)
	if err != nil {
		return err
	}

	srv := &api.Server{
		Trees:           trees,
		Imports:         services.NewImportService(repo, metrics),
		Players:         services.NewPlayerService(repo),
		DB:              database.DB,
		Metrics:         metricsHandler,
		BuildsPerMinute: cfg.BuildRatePerMinute,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	// Builds outlive the signal so the HTTP drain can still report them.
	buildPool.Start(cmd.Context())

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server error: %v", err)
			buildPool.Stop()
			trees.Close()
			return err
		}
	case <-ctx.Done():
		log.Info("received shutdown signal, initiating graceful shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}
	log.Debug("stopping build pool")
	buildPool.Stop()
	trees.Close()

	log.Info("openingtree server stopped")
	return nil
}
