package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ethanlane1234/financial-literacy/cmd/generator/internal/generator"
	"github.com/ethanlane1234/financial-literacy/pkg/config"
)

var basePrices = map[string]float64{
	"AAPL": 190.0, "MSFT": 410.0, "GOOG": 140.0, "TSLA": 250.0,
	"AMZN": 180.0, "NVDA": 880.0, "SPY": 510.0,
}

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		zap.NewExample().Fatal("Failed to load config", zap.Error(err))
	}

	// 2. Initialize Zap Logger
	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// 3. Setup Shutdown Hook
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen := generator.NewStockGenerator(logger, cfg.Generator.Tickers, basePrices, cfg.Generator.Interval,
		generator.NewRealRand(), generator.RealClock{})

	mux := http.NewServeMux()
	generator.NewHandler(gen, cfg.Generator.FailureRate, logger).Register(mux)
	srv := &http.Server{Addr: cfg.Generator.ListenAddr(), Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		gen.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("Synthetic quote server started", zap.String("addr", srv.Addr), zap.Float64("failure_rate", cfg.Generator.FailureRate))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Generator stopped with error", zap.Error(err))
	}
	logger.Info("Shutdown Complete")
}
