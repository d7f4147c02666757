package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/marketbrain/research-engine/internal/bots"
	"github.com/marketbrain/research-engine/internal/cache"
	"github.com/marketbrain/research-engine/internal/clients/alphavantage"
	"github.com/marketbrain/research-engine/internal/clients/edgar"
	"github.com/marketbrain/research-engine/internal/clients/fmp"
	"github.com/marketbrain/research-engine/internal/clients/fred"
	"github.com/marketbrain/research-engine/internal/clients/gnews"
	"github.com/marketbrain/research-engine/internal/clients/polygon"
	"github.com/marketbrain/research-engine/internal/clients/yahoo"
	"github.com/marketbrain/research-engine/internal/config"
	"github.com/marketbrain/research-engine/internal/metrics"
	"github.com/marketbrain/research-engine/internal/ratelimit"
	"github.com/marketbrain/research-engine/internal/scheduler"
	"github.com/marketbrain/research-engine/internal/server"
	"github.com/marketbrain/research-engine/internal/sweeper"
	"github.com/marketbrain/research-engine/internal/tiers"
	"github.com/marketbrain/research-engine/internal/universe"
	"github.com/marketbrain/research-engine/pkg/logger"
)

func main() {
	// Load configuration first to get the log level
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting Market Brain research engine")

	// Cache: Redis in production, in-memory when Redis is unreachable
	// (keyless development still works, it just forgets on restart).
	var cacheClient cache.Client
	redisClient, err := cache.NewRedis(cfg.RedisURL, log)
	if err == nil {
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = redisClient.Ping(pingCtx)
		cancel()
	}
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, using in-memory cache")
		cacheClient = cache.NewMemory()
	} else {
		cacheClient = redisClient
		log.Info().Msg("Redis connected")
	}

	engineMetrics := metrics.New(prometheus.DefaultRegisterer)
	limiter := ratelimit.New(ratelimit.DefaultConfigs(), log)
	tierManager := tiers.NewManager(log)
	universeLoader := universe.NewLoader(cacheClient, log)

	// Provider clients: missing API keys degrade the owning bot
	registry := bots.NewRegistry(
		bots.NewNewsBot(gnews.NewClient(cfg.GNewsKey, log), log),
		bots.NewEarningsBot(fmp.NewClient(cfg.FMPKey, log), yahoo.NewClient(log), alphavantage.NewClient(cfg.AlphaVantageKey, log), log),
		bots.NewMacroBot(fred.NewClient(cfg.FREDKey, log), yahoo.NewClient(log), log),
		bots.NewInsiderBot(edgar.NewClient(log), log),
		bots.NewFundamentalsBot(fmp.NewClient(cfg.FMPKey, log), yahoo.NewClient(log), log),
		bots.NewTechnicalLevelsBot(polygon.NewClient(cfg.PolygonKey, log), yahoo.NewClient(log), log),
		bots.NewAnalystBot(fmp.NewClient(cfg.FMPKey, log), yahoo.NewClient(log), log),
	)

	runner := bots.NewRunner(limiter, engineMetrics, 90*time.Second, log)
	sweepEngine := sweeper.New(sweeper.Config{
		Cache:     cacheClient,
		Registry:  registry,
		Runner:    runner,
		Gate:      ratelimit.NewSweepGate(cfg.MaxConcurrentSweeps),
		Metrics:   engineMetrics,
		ResultTTL: cfg.ResultTTL,
		Log:       log,
	})

	sched, err := scheduler.New(scheduler.Config{
		Sweeper:  sweepEngine,
		Tiers:    tierManager,
		Universe: universeLoader,
		Pause:    cfg.InterAssetPause,
		Log:      log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build scheduler")
	}
	sched.Start()
	defer sched.Stop()

	// Seed the tiers from any persisted watchlist before traffic lands
	startupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if watchlist := universeLoader.Watchlist(startupCtx); len(watchlist) > 0 {
		tierManager.SetWatchlist(watchlist)
		log.Info().Int("symbols", len(watchlist)).Msg("Watchlist restored")
	}
	cancel()

	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		Cache:     cacheClient,
		Sweeper:   sweepEngine,
		Scheduler: sched,
		Tiers:     tierManager,
		Universe:  universeLoader,
		Metrics:   engineMetrics,
		ResultTTL: cfg.ResultTTL,
		DevMode:   cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Engine started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	// Graceful shutdown: stop accepting reads, then let running sweeps
	// drain inside the grace window.
	ctx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Engine stopped")
}
