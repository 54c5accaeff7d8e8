package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Tyrowin/exchange-chat/internal/audit"
	"github.com/Tyrowin/exchange-chat/internal/config"
	"github.com/Tyrowin/exchange-chat/internal/exchange"
	"github.com/Tyrowin/exchange-chat/internal/logger"
	"github.com/Tyrowin/exchange-chat/internal/metrics"
	"github.com/Tyrowin/exchange-chat/internal/server"
)

func main() {
	cfg := config.MustLoad()

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer func() {
		_ = log.Sync()
	}()
	log.Info("Starting exchange chat server", zap.String("env", cfg.Env))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	var fetcher exchange.Fetcher = exchange.NewHTTPFetcher(
		cfg.Exchange.APIURL, cfg.Exchange.RequestTimeout, m, log.Named("fetcher"))

	if cfg.Redis.Addr != "" {
		cache, err := exchange.NewRedisCache(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("Redis unavailable, historical rate cache disabled", zap.Error(err))
		} else {
			defer func() {
				_ = cache.Close()
			}()
			fetcher = exchange.NewCachingFetcher(fetcher, cache, cfg.Exchange.CacheTTL, m, log.Named("cache"))
			log.Info("Historical rate cache enabled", zap.String("redis", cfg.Redis.Addr))
		}
	}

	aggregator := exchange.NewAggregator(fetcher, exchange.WithLogger(log.Named("exchange")))

	recorder, err := audit.NewFileRecorder(cfg.Audit.Path)
	if err != nil {
		log.Fatal("Failed to open audit log", zap.Error(err))
	}
	defer func() {
		_ = recorder.Close()
	}()

	hub := server.NewHub(server.NewRandomNamer(), m, log.Named("hub"))
	router := server.NewRouter(hub, aggregator, recorder, m, log.Named("router"))
	srv := server.New(cfg.Server, hub, router, registry, log.Named("http"))

	httpServer := server.CreateServer(cfg.Server.Port, server.SetupRoutes(srv))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.StartServer(httpServer, log)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server failed", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	if err := server.ShutdownServer(httpServer, cfg.Server.ShutdownTimeout, log); err != nil {
		log.Warn("HTTP server did not shut down cleanly", zap.Error(err))
	}
	if err := hub.Shutdown(cfg.Server.ShutdownTimeout); err != nil {
		log.Warn("Hub did not shut down cleanly", zap.Error(err))
	}
}
