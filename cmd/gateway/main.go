package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gobwas/ws"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ethanlane1234/financial-literacy/cmd/gateway/internal/api"
	"github.com/ethanlane1234/financial-literacy/cmd/gateway/internal/gateway"
	"github.com/ethanlane1234/financial-literacy/cmd/gateway/internal/hub"
	"github.com/ethanlane1234/financial-literacy/cmd/gateway/internal/players"
	"github.com/ethanlane1234/financial-literacy/cmd/gateway/internal/poller"
	"github.com/ethanlane1234/financial-literacy/cmd/gateway/internal/subscription"
	"github.com/ethanlane1234/financial-literacy/pkg/config"
	"github.com/ethanlane1234/financial-literacy/pkg/feed"
	"github.com/ethanlane1234/financial-literacy/pkg/quotes"
	"github.com/ethanlane1234/financial-literacy/pkg/quotes/financego"
	"github.com/ethanlane1234/financial-literacy/pkg/quotes/yahoo"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		zap.NewExample().Fatal("Failed to load config", zap.Error(err))
	}
	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The poller and the on-demand paths (snapshots, /api/quote) get separate
	// buckets; on-demand calls are skipped rather than queued when limited.
	upstream := newSource(cfg)
	pollSource := quotes.NewThrottled(upstream, cfg.Quotes.RatePerSec, cfg.Quotes.Burst)
	source := quotes.NewThrottled(upstream, cfg.Quotes.RatePerSec, cfg.Quotes.Burst, quotes.SkipWhenLimited())

	cache, closeCache := newCache(ctx, cfg, logger)
	defer closeCache()

	subs := subscription.NewRegistry()
	roster := players.NewRegistry()

	// Dependency Injection: Hub depends on the registries and the quote source
	wsHub := hub.NewHub(hub.Config{SnapshotTimeout: cfg.Hub.SnapshotTimeout}, subs, roster, source, logger)

	var pollerOpts []poller.Option
	if cfg.Kafka.Enabled {
		feed.NewTopicCreator(logger, feed.NewRealKafkaDialer(), feed.RealClock{}).Create(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		publisher := feed.NewPublisher(feed.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), feed.RealClock{}, logger)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("Error closing Kafka writer", zap.Error(err))
			}
		}()
		pollerOpts = append(pollerOpts, poller.WithPublisher(publisher))
	}

	quotePoller := poller.New(poller.Config{Interval: cfg.Poller.Interval, Timeout: cfg.Poller.Timeout},
		pollSource, cache, subs, wsHub, logger, pollerOpts...)
	leaderboard := players.NewBroadcaster(roster, wsHub, cfg.Leaderboard.Interval, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			logger.Debug("Websocket upgrade failed", zap.Error(err))
			return
		}

		client := gateway.NewClient(conn, wsHub, logger, gateway.WithSendBuffer(cfg.Hub.SendBuffer))
		client.Start()
	})
	api.NewHandler(source, cache, wsHub, logger).Register(mux)
	mux.Handle("/", http.FileServer(http.Dir(cfg.App.StaticDir)))

	srv := &http.Server{Addr: cfg.App.ListenAddr(), Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server Started", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return quotePoller.Run(gctx) })
	g.Go(func() error { return leaderboard.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		wsHub.Shutdown()
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("Gateway stopped with error", zap.Error(err))
	}
	logger.Info("Shutdown Complete")
}

func newSource(cfg *config.Config) quotes.Source {
	if cfg.Quotes.Backend == "financego" {
		return financego.NewSource()
	}
	return yahoo.NewClient(
		yahoo.WithBaseURL(cfg.Quotes.BaseURL),
		yahoo.WithHTTPClient(&http.Client{Timeout: cfg.Quotes.Timeout}),
	)
}

func newCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (quotes.Cache, func()) {
	if cfg.Cache.Backend != "redis" {
		return quotes.NewMemoryCache(), func() {}
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("Redis unreachable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	logger.Info("Using Redis quote cache", zap.String("addr", cfg.Redis.Addr))

	cache := quotes.NewRedisCache(rdb, cfg.Cache.TTL)
	return cache, func() {
		if err := cache.Close(); err != nil {
			logger.Error("Error closing Redis client", zap.Error(err))
		}
	}
}
