package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/config"
	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/pattern"
	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/protocol"
	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/push_client"
	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/repository"
	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/reward"
	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/scheduler"
	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/server"
	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/sms_client"
)

func main() {
	// Load configuration
	cfgPath := "configs/config.yml"
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	// Database connection
	db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	repository.MigrateDB(db, logger)

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Redis backs the dispatch in-flight guard. It is optional: without it
	// the notification log's unique index remains the only dedup guard.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, continuing without in-flight guard", zap.Error(err))
			redisClient = nil
		}
	}

	// Initialize repositories
	protocolRepo := repository.NewProtocolRepository(db, logger)
	completionRepo := repository.NewCompletionRepository(db, logger)
	notificationRepo := repository.NewNotificationRepository(db, logger)
	contactRepo := repository.NewContactRepository(db, logger)

	// Initialize transport clients
	pushClient := push_client.NewClient(cfg.PushService.URL, logger)
	smsClient := sms_client.NewClient(cfg.SMSService.URL, logger)

	// Domain components
	classifier := pattern.NewKeywordClassifier()
	weights := reward.Weights{
		Standard:     cfg.Reward.StandardWeight,
		BonusInsight: cfg.Reward.BonusWeight,
		Breakthrough: cfg.Reward.BreakthroughWeight,
	}
	rewardEngine := reward.NewEngine(weights, nil, logger)
	snapshots := scheduler.NewSnapshotBuilder(completionRepo, notificationRepo, classifier)
	inflight := scheduler.NewInflightGuard(nil, logger)
	if redisClient != nil {
		inflight = scheduler.NewInflightGuard(redisClient, logger)
	}

	resolver := scheduler.NewResolver(protocolRepo, completionRepo, notificationRepo, logger)
	dispatcher := scheduler.NewDispatcher(contactRepo, notificationRepo, pushClient, smsClient, rewardEngine, snapshots, inflight, logger)
	runner := scheduler.NewRunner(resolver, dispatcher, logger)
	machine := protocol.NewMachine(protocolRepo, logger)

	// Initialize and run the server
	srv := server.NewServer(runner, machine, logger)
	go srv.Run(cfg.Server.Port)

	<-ctx.Done()
	logger.Info("Application stopped.")
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
