// Package poller refreshes quotes for every symbol some connection watches
// and fans the results out on a fixed interval.
package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ethanlane1234/financial-literacy/cmd/gateway/internal/mood"
	"github.com/ethanlane1234/financial-literacy/pkg/models"
	"github.com/ethanlane1234/financial-literacy/pkg/quotes"
)

// Demand reports the symbols currently watched by at least one connection.
type Demand interface {
	SymbolsInDemand() []models.Symbol
}

// Dispatcher delivers a cycle's results to connected clients.
type Dispatcher interface {
	DeliverQuotes(map[models.Symbol]models.Quote)
	BroadcastMood(mood.Summary)
}

// Publisher receives every successful cycle, e.g. a Kafka feed.
type Publisher interface {
	PublishQuotes(ctx context.Context, batch map[models.Symbol]models.Quote) error
}

type Config struct {
	Interval time.Duration // Poll interval (default: 5s)
	Timeout  time.Duration // Per-cycle fetch timeout (default: 4s)
}

func DefaultConfig() Config {
	return Config{
		Interval: 5 * time.Second,
		Timeout:  4 * time.Second,
	}
}

type Option func(*Poller)

// WithPublisher forwards each successful cycle to pub.
func WithPublisher(pub Publisher) Option {
	return func(p *Poller) { p.publisher = pub }
}

type Poller struct {
	cfg        Config
	source     quotes.Source
	cache      quotes.Cache
	demand     Demand
	dispatcher Dispatcher
	publisher  Publisher
	logger     *zap.Logger

	wg sync.WaitGroup
}

func New(cfg Config, source quotes.Source, cache quotes.Cache, demand Demand, dispatcher Dispatcher, logger *zap.Logger, opts ...Option) *Poller {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	p := &Poller{
		cfg:        cfg,
		source:     source,
		cache:      cache,
		demand:     demand,
		dispatcher: dispatcher,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run starts one cycle per tick until ctx is cancelled. A slow cycle does
// not delay the next tick, so cycles may overlap. Run waits for in-flight
// cycles before returning.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.logger.Info("Quote poller started", zap.Duration("interval", p.cfg.Interval))
	defer p.logger.Info("Quote poller stopped")

	for {
		select {
		case <-ctx.Done():
			p.wg.Wait()
			return nil
		case <-ticker.C:
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				p.PollOnce(ctx)
			}()
		}
	}
}

// PollOnce runs a single cycle synchronously.
func (p *Poller) PollOnce(ctx context.Context) {
	symbols := p.demand.SymbolsInDemand()
	if len(symbols) == 0 {
		return
	}
	start := time.Now()

	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	got, err := quotes.Lookup(fetchCtx, p.source, symbols)
	cancel()

	if err != nil && len(got) == 0 {
		p.logger.Warn("Quote fetch failed, skipping cycle", zap.Int("symbols", len(symbols)), zap.Error(err))
		return
	}
	if err != nil {
		p.logger.Warn("Partial quote fetch", zap.Int("requested", len(symbols)), zap.Int("received", len(got)), zap.Error(err))
	}
	if len(got) == 0 {
		p.logger.Debug("Provider returned no quotes", zap.Strings("symbols", models.Strings(symbols)))
		return
	}

	for _, q := range got {
		if err := p.cache.Put(ctx, q); err != nil {
			p.logger.Error("Failed to cache quote", zap.String("symbol", string(q.Symbol)), zap.Error(err))
		}
	}

	summary := mood.Compute(got)
	p.dispatcher.DeliverQuotes(got)
	p.dispatcher.BroadcastMood(summary)

	if p.publisher != nil {
		if err := p.publisher.PublishQuotes(ctx, got); err != nil {
			p.logger.Error("Failed to publish quotes", zap.Error(err))
		}
	}

	p.logger.Debug("Poll cycle complete",
		zap.Int("symbols", len(symbols)),
		zap.Int("quotes", len(got)),
		zap.String("mood", string(summary.State)),
		zap.Duration("duration", time.Since(start)),
	)
}
