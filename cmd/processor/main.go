package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ethanlane1234/financial-literacy/cmd/processor/internal/processor"
	"github.com/ethanlane1234/financial-literacy/pkg/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    cfg.Kafka.Topic,
		GroupID:  cfg.Kafka.GroupID,
		MinBytes: 200,
		MaxBytes: 10e6,
		MaxWait:  200 * time.Millisecond,
		// Rebalancing: 3s heartbeat, 10s session timeout for responsive scaling
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    10 * time.Second,
	})

	proc := processor.NewProcessor(processor.Config{
		NumWorkers: cfg.Processor.NumWorkers,
		TTL:        cfg.Cache.TTL,
	}, logger, rdb, reader)

	if err := proc.Run(ctx); err != nil {
		logger.Error("Processor stopped with error", zap.Error(err))
	}

	logger.Info("Closing Kafka Reader...")
	if err := reader.Close(); err != nil {
		logger.Error("Error closing reader", zap.Error(err))
	}

	logger.Info("Closing Redis...")
	rdb.Close()

	logger.Info("Processor exited cleanly")
}
