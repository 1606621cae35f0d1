// Command drain is a one-shot utility for graceful shutdown of the counter
// pipeline: it waits for any in-flight cycle's processing gate to clear,
// then forces one final synchronous cycle so queued downloads are not lost
// on deploy.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/modhaven/mh-aggregator/internal/adapter"
	"github.com/modhaven/mh-aggregator/internal/config"
	"github.com/modhaven/mh-aggregator/internal/counter"
	"github.com/modhaven/mh-aggregator/internal/logger"
	"github.com/modhaven/mh-aggregator/internal/queue"
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
	cfg, err := config.LoadDrainConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "drain",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting final download drain")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	dataStore := store.NewPGStore(db)

	// Connect to Redis
	redisClient := adapter.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer func() { _ = redisClient.Close() }()
	if err := redisClient.Ping(ctx); err != nil {
		logger.FatalCtx(ctx, "Failed to connect to Redis", zap.Error(err), zap.String("addr", cfg.Redis.Addr))
	}

	jsonAdapter := adapter.NewJSON()
	clock := adapter.NewClock()
	eventQueue := queue.NewEventQueue(redisClient, jsonAdapter)
	history := queue.NewHistoryLedger(redisClient, jsonAdapter)
	gate := queue.NewProcessingGate(redisClient, cfg.Counter.GateTTL)
	syncQueue := queue.NewSyncQueue(redisClient)

	// Block until any in-flight cycle's gate clears
	deadline := clock.Now().Add(cfg.GateWait)
	for {
		held, err := gate.Held(ctx)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to read processing gate", zap.Error(err))
		}
		if !held {
			break
		}
		if !clock.Now().Before(deadline) {
			logger.FatalCtx(ctx, "Timed out waiting for in-flight cycle to finish",
				zap.Duration("gate_wait", cfg.GateWait),
			)
		}
		logger.InfoCtx(ctx, "Processing gate held, waiting for in-flight cycle")
		clock.Sleep(time.Second)
	}

	// Force one final synchronous cycle
	engine := counter.NewEngine(&counter.Config{
		FlushWorkers: cfg.Counter.FlushWorkers,
	}, dataStore, eventQueue, history, gate, syncQueue, clock)

	if err := engine.ProcessDownloads(ctx); err != nil {
		logger.ErrorCtx(ctx, err)
		os.Exit(1)
	}

	logger.InfoCtx(ctx, "Final download drain completed")
}
