package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"hotelintel/pricewatcher/config"
	"hotelintel/pricewatcher/internal/batch"
	"hotelintel/pricewatcher/internal/browser"
	"hotelintel/pricewatcher/internal/scrape"
	"hotelintel/pricewatcher/internal/store"
	"hotelintel/pricewatcher/logger"
	"hotelintel/pricewatcher/services/cache"
	"hotelintel/pricewatcher/services/monitor"
	"hotelintel/pricewatcher/services/publisher"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("backend", cfg.Backend).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, &cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	scraper := scrape.NewService(
		newLauncher(&cfg),
		services.Store,
		services.Cache,
		services.Publisher,
		cfg,
	)
	orchestrator := batch.NewOrchestrator(scraper, services.Store, cfg)

	// URL arguments mean a one-shot batch; otherwise run the monitor loop
	if urls := os.Args[1:]; len(urls) > 0 {
		summary := orchestrator.Scrape(ctx, urls)
		log.Info().
			Int("total", summary.Total).
			Int("succeeded", summary.Succeeded).
			Int("failed", summary.Failed).
			Msg("Batch complete")
		for _, result := range summary.Results {
			if !result.Success {
				log.Warn().Str("url", result.URL).Str("error", result.Error).Msg("Failed item")
			}
		}
		if summary.Failed > 0 {
			os.Exit(1)
		}
		return
	}

	m := monitor.NewMonitor(orchestrator, services.Store, services.Publisher, cfg.MonitorInterval)

	monitorDone := make(chan struct{})
	go func() {
		log.Info().Dur("interval", cfg.MonitorInterval).Msg("Starting price monitor")
		m.Start(ctx)
		close(monitorDone)
	}()

	// Wait for shutdown signal
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
		<-monitorDone
	case <-monitorDone:
	}

	log.Info().Msg("Shutting down gracefully...")
}

// newLauncher picks the browser backend from configuration.
func newLauncher(cfg *config.Config) browser.Launcher {
	if cfg.Backend == config.BackendStatic {
		return browser.NewStaticLauncher()
	}
	return browser.NewChromeLauncher(*cfg)
}

// Services holds all the initialized services
type Services struct {
	Store     store.PriceStore
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Store != nil {
		s.Store.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Initialize the price store; fall back to memory when no DSN is set
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		services.Store = pg
		logger.Info("Connected to Postgres")
	} else {
		services.Store = store.NewMemoryStore()
		logger.Warn("DATABASE_URL not set, using in-memory store")
	}

	// Initialize cache service
	services.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)
	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)

	// Initialize publisher
	services.Publisher = publisher.NewRedisPublisher(
		ctx,
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		cfg.RedisStreamCount,
		cfg.RedisStreamMaxLength,
	)
	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
		cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	return services, nil
}
