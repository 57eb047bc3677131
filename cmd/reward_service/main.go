package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"owatch_service/internal/reward/api/handlers"
	"owatch_service/internal/reward/api/router"
	"owatch_service/internal/reward/app"
	"owatch_service/internal/reward/repository"
	"owatch_service/pkg/config"
	"owatch_service/pkg/database"
	"owatch_service/pkg/logger"
	testtool "owatch_service/pkg/test_tool"
	"owatch_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.RewardService, config.EnvConfig.RewardServiceLogPath)
	defer logger.Log.Sync()

	cfg, err := config.LoadConfig[config.RewardService](config.EnvConfig.RewardService, config.EnvConfig.RewardServiceYAMLPath)
	if err != nil {
		logger.Log.Fatal("load config failed", zap.Error(err))
	}
	if config.EnvConfig.RewardServicePort != "" {
		cfg.Port = config.EnvConfig.RewardServicePort
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		logger.Log.Fatal("invalid config", zap.Error(err))
	}
	token.SetSecret(cfg.JWTSecret)

	// 1. balance store
	kv, err := newBalanceKV(cfg.Balance)
	if err != nil {
		logger.Log.Fatal("balance store init failed", zap.String("driver", cfg.Balance.Driver), zap.Error(err))
	}
	defer kv.Close()
	balances := repository.NewBalanceRepository(kv, cfg.Balance.KeyPrefix)

	// 2. claim ledger (PostgreSQL)
	ledger := repository.NewNopLedger()
	if cfg.Ledger.Enabled {
		pg := cfg.Ledger.PostgreSQL
		db, err := database.NewPGConnection(database.Connection{
			ConnectStr:    database.PostgresDSN(pg.Host, pg.Port, pg.User, pg.Password, pg.Database),
			RetryCount:    pg.RetryCount,
			RetryInterval: time.Duration(pg.RetryInterval),
		})
		if err != nil {
			logger.Log.Fatal("Unable to connect to postgreSQL database after retries",
				zap.String("address", fmt.Sprintf("[%s:%d]", pg.Host, pg.Port)), zap.Error(err))
		}
		ledger = repository.NewClaimLedger(db)
		if err := ledger.AutoMigrate(); err != nil {
			logger.Log.Fatal("資料表遷移失敗", zap.Error(err))
		}
	}

	// 3. claim events (Kafka)
	events := repository.NewNopPublisher()
	if cfg.Events.Enabled {
		w, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
			Brokers:       cfg.Events.Brokers,
			Topic:         cfg.Events.Topic,
			RetryCount:    cfg.Events.RetryCount,
			RetryInterval: time.Duration(cfg.Events.RetryInterval),
		})
		if err != nil {
			logger.Log.Fatal("kafka writer init failed", zap.Error(err))
		}
		events = repository.NewKafkaPublisher(w)
	}
	defer events.Close()

	sessions := app.NewSessionManager(app.ManagerConfig{
		Balances: balances,
		Ledger:   ledger,
		Events:   events,
		Flow: app.Options{
			TickInterval:    cfg.Watch.TickInterval,
			EligiblePercent: cfg.Watch.EligiblePercent,
			LoopOnComplete:  cfg.Watch.LoopOnComplete,
		},
		IdleTTL:    cfg.Watch.SessionIdleTTL,
		Connectors: cfg.Wallet.Connectors,
		NoticeTTL:  cfg.Wallet.NoticeTTL,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go sessions.RunJanitor(ctx, time.Minute)

	testtool.StartPprof("localhost:6060")

	// 创建 Fiber 应用
	r := fiber.New()
	r.Use(recover.New())

	if err := os.MkdirAll(config.EnvConfig.RewardServiceLogPath, 0755); err != nil {
		logger.Log.Fatal("create log dir failed", zap.Error(err))
	}
	file, err := os.OpenFile(filepath.Join(config.EnvConfig.RewardServiceLogPath, "access.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		logger.Log.Fatal("Failed to open log file", zap.Error(err))
	}
	defer file.Close()
	r.Use(fiber_log.New(fiber_log.Config{
		Output: file, // 将日志输出到文件
	}))

	router.RegisterRoutes(r,
		handlers.NewRewardHandler(sessions, config.EnvConfig.RewardService),
		handlers.NewSnapshotWebsocket(sessions))

	go func() {
		<-ctx.Done()
		logger.Log.Info("shutting down")
		if err := r.ShutdownWithTimeout(5 * time.Second); err != nil {
			logger.Log.Warn("fiber shutdown", zap.Error(err))
		}
	}()

	logger.Log.Info("reward service listening", zap.String("port", cfg.Port), zap.String("balance_driver", cfg.Balance.Driver))
	if err := r.Listen(cfg.IP + ":" + cfg.Port); err != nil {
		logger.Log.Error("Server failed to start", zap.Error(err))
	}
	sessions.CloseAll()
}

// newBalanceKV 依 driver 建立 KVStore
func newBalanceKV(c config.BalanceConfig) (database.KVStore, error) {
	switch c.Driver {
	case "memory":
		return database.NewMemoryKV(), nil
	case "redis":
		masterName, sentinels := config.GetRedisSetting()
		client, err := database.NewRedisClient(database.RedisConnection{
			Addr:          c.Redis.Addr,
			Password:      c.Redis.Password,
			DB:            c.Redis.RedisDB,
			MasterName:    masterName,
			SentinelAddrs: sentinels,
		})
		if err != nil {
			return nil, err
		}
		return database.NewRedisKV(client), nil
	case "sqlite":
		return database.NewSQLiteKV(c.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown balance driver %q", c.Driver)
	}
}
