package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alertmesh/correlation-engine/internal/api"
	"github.com/alertmesh/correlation-engine/internal/cache"
	"github.com/alertmesh/correlation-engine/internal/config"
	"github.com/alertmesh/correlation-engine/internal/engine"
	"github.com/alertmesh/correlation-engine/internal/metrics"
	"github.com/alertmesh/correlation-engine/internal/repo"
	"github.com/alertmesh/correlation-engine/internal/service"
	"github.com/alertmesh/correlation-engine/internal/similarity"
	"github.com/alertmesh/correlation-engine/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting correlation-engine", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	var cacheProvider cache.Provider = cache.NoopProvider{}
	var valkeyCloser cache.Provider
	if cfg.Cache.Enabled && cfg.Cache.Addr != "" {
		provider, err := cache.NewValkeyProvider(cache.ValkeyConfig{
			Addr:         cfg.Cache.Addr,
			Username:     cfg.Cache.Username,
			Password:     cfg.Cache.Password,
			DB:           cfg.Cache.DB,
			DialTimeout:  cfg.Cache.DialTimeout,
			ReadTimeout:  cfg.Cache.ReadTimeout,
			WriteTimeout: cfg.Cache.WriteTimeout,
			MaxRetries:   cfg.Cache.MaxRetries,
			TLS:          cfg.Cache.TLS,
		})
		if err != nil {
			logger.Warn("valkey cache unavailable", slog.Any("error", err))
		} else {
			cacheProvider = provider
			valkeyCloser = provider
		}
	}
	if valkeyCloser != nil {
		defer valkeyCloser.Close()
	}

	eng := engine.New(engine.Config{
		AlertCapacity:   cfg.Engine.AlertCapacity,
		MicroQueueSize:  cfg.Engine.MicroQueueSize,
		StrategyTimeout: cfg.Engine.StrategyTimeout,
		DefaultWindow:   cfg.Engine.DefaultWindow,
		TemporalGap:     cfg.Engine.TemporalGap,
		MicroLookback:   cfg.Engine.MicroLookback,
	}, logger, &similarity.TFIDFClusterer{})

	rules, err := engine.LoadRulePack(cfg.Rules.Path)
	if err != nil {
		logger.Error("failed to load rule pack", slog.Any("error", err))
		os.Exit(1)
	}
	for _, rule := range rules {
		eng.RegisterRule(rule)
	}

	var topologyClient *repo.TopologyClient
	if cfg.Topology.BaseURL != "" {
		topologyClient = repo.NewTopologyClient(
			cfg.Topology.BaseURL,
			cfg.Topology.GraphPath,
			cfg.Topology.Timeout,
			cacheProvider,
			cfg.Cache.TopologyTTL,
			logger,
		)
	}

	correlationService := service.New(logger, eng, topologyClient, service.Options{
		PatternInterval: cfg.Engine.PatternInterval,
		PatternLookback: cfg.Engine.PatternLookback,
		TopologyRefresh: cfg.Topology.Refresh,
		Cache:           cacheProvider,
	})

	handler := api.NewHandler(correlationService, logger)
	server, err := api.NewServer(cfg.Server, handler)
	if err != nil {
		logger.Error("failed to create HTTP server", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go correlationService.Run(ctx)

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("HTTP server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("correlation-engine stopped")
}
