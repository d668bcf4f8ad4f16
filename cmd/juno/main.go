package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fortuna/juno/internal/api/mcpserver"
	"github.com/fortuna/juno/internal/api/rest"
	"github.com/fortuna/juno/internal/api/websocket"
	"github.com/fortuna/juno/internal/cache"
	"github.com/fortuna/juno/internal/config"
	"github.com/fortuna/juno/internal/ingest/espn"
	"github.com/fortuna/juno/internal/league"
	"github.com/fortuna/juno/internal/logger"
	"github.com/fortuna/juno/internal/publisher"
	"github.com/fortuna/juno/internal/refresh"
	"github.com/fortuna/juno/internal/scheduler"
	"github.com/fortuna/juno/internal/service"
	"github.com/fortuna/juno/internal/store"
	"github.com/fortuna/juno/internal/store/repository"
	"github.com/sirupsen/logrus"
)

const (
	serviceName    = "juno"
	serviceVersion = "1.0.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	log.Infof("Starting %s v%s - Fantasy category analytics", serviceName, serviceVersion)
	ctx := context.Background()

	periods, err := league.ParsePeriods(strings.Join(cfg.RefreshPeriods, ","))
	if err != nil {
		log.Fatalf("Invalid REFRESH_PERIODS: %v", err)
	}

	// Initialize database connection
	db, err := store.NewDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Info("✓ Connected to database")

	if err := db.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}
	log.Info("✓ Database migrations applied")

	redisCache := connectRedis(ctx, log, cfg.RedisURL, cfg.SnapshotTTL)
	defer redisCache.Close()
	log.Info("✓ Connected to Redis")

	streams := publisher.NewRedisStreamPublisher(redisCache.Client())

	client := espn.NewClient(espn.ClientConfig{
		BaseURL:   cfg.ESPNAPIBase,
		LeagueID:  cfg.LeagueID,
		Season:    cfg.Season,
		ESPNS2:    cfg.ESPNS2,
		SWID:      cfg.SWID,
		RateLimit: cfg.ESPNRateLimit,
	})
	provider := espn.NewProvider(client)

	snapshots := repository.NewSnapshotRepository(db)
	source := service.NewSnapshotSource(provider, cfg.LeagueID, cfg.Season,
		service.WithCache(redisCache),
		service.WithStore(snapshots),
		service.WithPublisher(streams),
		service.WithMaxAge(cfg.SnapshotMaxAge),
	)

	analytics := service.NewAnalyticsService(source)
	simulations := service.NewSimulationService(source, cfg.RosterCap)
	trades := service.NewTradeService(source, repository.NewTradeRepository(db), streams)

	// WebSocket clients follow refresh progress
	wsServer := websocket.NewServer(cfg.CorsOrigins)

	runner := refresh.NewRunner(provider, source, cfg.LeagueID, cfg.Season)
	refreshService := refresh.NewService(refresh.NewRepository(db), runner, cfg.LeagueID)
	refreshService.Subscribe(wsServer.BroadcastRefresh)
	refreshService.Start()
	log.Info("✓ Refresh service started")

	deps := rest.Dependencies{
		Analytics:      analytics,
		Simulations:    simulations,
		Trades:         trades,
		Refresh:        refreshService,
		RefreshPeriods: periods,
		Snapshots:      snapshots,
		LeagueID:       cfg.LeagueID,
		HealthChecks: map[string]rest.HealthChecker{
			"postgres": db,
			"redis":    redisCache,
		},
		CorsOrigins: cfg.CorsOrigins,
		MCPPath:     cfg.MCPPath,
	}

	var sched *scheduler.Orchestrator
	if cfg.EnableScheduler {
		schedulerConfig := scheduler.DefaultConfig(cfg.Season)
		schedulerConfig.Schedule = cfg.RefreshSchedule
		schedulerConfig.Periods = periods
		schedulerConfig.PruneSchedule = cfg.PruneSchedule
		schedulerConfig.PruneKeep = cfg.SnapshotKeep

		sched, err = scheduler.NewOrchestrator(refreshService, schedulerConfig)
		if err != nil {
			log.Fatalf("Failed to create scheduler: %v", err)
		}
		sched.SetPruner(snapshots, cfg.LeagueID)
		if err := sched.Start(); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		deps.Scheduler = sched
	}

	if cfg.MCPPath != "" {
		mcp := mcpserver.NewServer(mcpserver.Services{
			Analytics:   analytics,
			Simulations: simulations,
			Trades:      trades,
		})
		deps.MCP = mcpserver.Handler(mcp, cfg.MCPAPIKey)
		if cfg.MCPAPIKey == "" {
			log.Warn("⚠️  MCP_API_KEY not set, MCP endpoint is unauthenticated")
		}
	}

	// Initialize REST API server
	restServer := rest.NewServer(cfg.RESTPort, deps)
	go func() {
		log.Infof("Starting REST API server on port %s", cfg.RESTPort)
		if err := restServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("REST server error")
		}
	}()

	go func() {
		if err := wsServer.Start(cfg.WSPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("WebSocket server error")
		}
	}()

	log.Infof("✓ Juno v%s started successfully", serviceVersion)
	log.Infof("  REST API: http://0.0.0.0:%s", cfg.RESTPort)
	log.Infof("  WebSocket: ws://0.0.0.0:%s/ws/league", cfg.WSPort)
	if cfg.MCPPath != "" {
		log.Infof("  MCP: http://0.0.0.0:%s%s", cfg.RESTPort, cfg.MCPPath)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down Juno gracefully...")

	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("REST API server shutdown error")
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("WebSocket server shutdown error")
	}
	if err := refreshService.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Refresh service shutdown error")
	}

	log.Info("Juno stopped")
}

// connectRedis retries while Redis starts alongside the service.
func connectRedis(ctx context.Context, log *logrus.Logger, url string, ttl time.Duration) *cache.RedisCache {
	const (
		maxRetries = 30
		retryDelay = 2 * time.Second
	)

	log.Info("Connecting to Redis...")
	for i := 1; ; i++ {
		rc, err := cache.NewRedisCache(ctx, url, ttl)
		if err == nil {
			return rc
		}
		if i == maxRetries {
			log.Fatalf("Failed to connect to Redis after %d attempts: %v", maxRetries, err)
		}
		log.Warnf("Redis connection attempt %d/%d failed: %v (retrying in %v)", i, maxRetries, err, retryDelay)
		time.Sleep(retryDelay)
	}
}
