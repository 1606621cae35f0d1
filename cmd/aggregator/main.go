package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/modhaven/mh-aggregator/internal/adapter"
	"github.com/modhaven/mh-aggregator/internal/config"
	"github.com/modhaven/mh-aggregator/internal/counter"
	"github.com/modhaven/mh-aggregator/internal/engine"
	"github.com/modhaven/mh-aggregator/internal/logger"
	"github.com/modhaven/mh-aggregator/internal/queue"
	"github.com/modhaven/mh-aggregator/internal/search"
	"github.com/modhaven/mh-aggregator/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAggregatorConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "aggregator",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Aggregator")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	dataStore := store.NewPGStore(db)
	logger.InfoCtx(ctx, "Connected to database")

	// Connect to Redis
	redisClient := adapter.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer func() { _ = redisClient.Close() }()
	if err := redisClient.Ping(ctx); err != nil {
		logger.FatalCtx(ctx, "Failed to connect to Redis", zap.Error(err), zap.String("addr", cfg.Redis.Addr))
	}
	logger.InfoCtx(ctx, "Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// Shared queue state
	jsonAdapter := adapter.NewJSON()
	clock := adapter.NewClock()
	eventQueue := queue.NewEventQueue(redisClient, jsonAdapter)
	history := queue.NewHistoryLedger(redisClient, jsonAdapter)
	gate := queue.NewProcessingGate(redisClient, cfg.Counter.GateTTL)
	syncQueue := queue.NewSyncQueue(redisClient)

	// Search index
	searchIndex := adapter.NewMeiliIndex(cfg.Meilisearch.Host, cfg.Meilisearch.APIKey, cfg.Meilisearch.IndexUID)
	formatter := search.NewDocumentFormatter(dataStore, clock, cfg.Search.RecentWindow)
	waiter := search.NewTaskWaiter(searchIndex, clock)

	// Engines
	counterEngine := counter.NewEngine(&counter.Config{
		CycleInterval: cfg.Counter.CycleInterval,
		FlushWorkers:  cfg.Counter.FlushWorkers,
	}, dataStore, eventQueue, history, gate, syncQueue, clock)

	searchEngine := search.NewEngine(&search.Config{
		SyncInterval:       cfg.Search.SyncInterval,
		FullResyncInterval: cfg.Search.FullResyncInterval,
		BatchSize:          cfg.Search.BatchSize,
		RecentWindow:       cfg.Search.RecentWindow,
	}, dataStore, syncQueue, searchIndex, formatter, waiter, clock)

	janitor := counter.NewHistoryJanitor(cfg.Counter.HistoryWindow, history, clock)

	supervisor := engine.NewSupervisor(counterEngine, searchEngine, janitor)
	if err := supervisor.Start(ctx); err != nil {
		logger.FatalCtx(ctx, "Failed to start engines", zap.Error(err))
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := supervisor.Stop(stopCtx); err != nil {
		logger.ErrorCtx(ctx, err)
	}
	cancel()

	logger.InfoCtx(ctx, "Aggregator stopped")
}
