// Package generator runs a synthetic quote market and serves it in the
// Yahoo v7 response shape, so the gateway can be played offline.
package generator

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ethanlane1234/financial-literacy/pkg/models"
	"github.com/ethanlane1234/financial-literacy/pkg/quotes"
)

const (
	defaultBasePrice = 100.0
	maxStepPct       = 0.25 // largest move per step, in percent
)

// eastern ignores daylight saving; close enough for session boundaries.
var eastern = time.FixedZone("ET", -5*60*60)

type ticker struct {
	prevClose float64
	regular   float64
	extended  float64
}

type StockGenerator struct {
	logger   *zap.Logger
	interval time.Duration
	rand     Rand
	clock    Clock

	mu      sync.Mutex
	tickers map[models.Symbol]*ticker
	order   []models.Symbol
}

func NewStockGenerator(
	logger *zap.Logger,
	tickers []string,
	basePrices map[string]float64,
	interval time.Duration,
	rnd Rand,
	clock Clock,
) *StockGenerator {
	sg := &StockGenerator{
		logger:   logger,
		interval: interval,
		rand:     rnd,
		clock:    clock,
		tickers:  make(map[models.Symbol]*ticker),
	}
	for _, sym := range models.ParseSymbols(tickers) {
		base, ok := basePrices[string(sym)]
		if !ok {
			base = defaultBasePrice
		}
		sg.tickers[sym] = &ticker{prevClose: base, regular: base, extended: base}
		sg.order = append(sg.order, sym)
	}
	return sg
}

func (sg *StockGenerator) Run(ctx context.Context) {
	sg.logger.Info("Generator Started", zap.Strings("tickers", models.Strings(sg.order)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			sg.Step()
			sg.clock.Sleep(sg.interval)
		}
	}
}

// Step moves every ticker by a small random percentage. Regular prices only
// move during the regular session; outside it the extended price walks.
func (sg *StockGenerator) Step() {
	sg.mu.Lock()
	defer sg.mu.Unlock()

	state := SessionAt(sg.clock.Now())
	for _, sym := range sg.order {
		t := sg.tickers[sym]
		move := 1 + ((sg.rand.Float64()*2)-1)*maxStepPct/100
		switch state {
		case models.MarketRegular:
			t.regular = round2(t.regular * move)
			t.extended = t.regular
		case models.MarketPre, models.MarketPost:
			t.extended = round2(t.extended * move)
		}
	}
}

// Roll reports whether a request should fail, given a failure rate in [0,1].
func (sg *StockGenerator) Roll(failureRate float64) bool {
	if failureRate <= 0 {
		return false
	}
	sg.mu.Lock()
	defer sg.mu.Unlock()
	return sg.rand.Float64() < failureRate
}

// Quotes returns records for the known symbols among syms. Unknown symbols
// are left out, as the real endpoint does.
func (sg *StockGenerator) Quotes(syms []models.Symbol) []quotes.RawQuote {
	sg.mu.Lock()
	defer sg.mu.Unlock()

	state := SessionAt(sg.clock.Now())
	out := make([]quotes.RawQuote, 0, len(syms))
	for _, sym := range syms {
		t, ok := sg.tickers[sym]
		if !ok {
			continue
		}
		change := round2(t.regular - t.prevClose)
		raw := quotes.RawQuote{
			Symbol:                     string(sym),
			ShortName:                  displayName(sym),
			Currency:                   "USD",
			MarketState:                string(state),
			RegularMarketPrice:         quotes.Float(t.regular),
			RegularMarketChange:        quotes.Float(change),
			RegularMarketChangePercent: quotes.Float(change / t.prevClose * 100),
			RegularMarketPreviousClose: quotes.Float(t.prevClose),
		}
		switch state {
		case models.MarketPre:
			raw.PreMarketPrice = quotes.Float(t.extended)
		case models.MarketPost:
			raw.PostMarketPrice = quotes.Float(t.extended)
		}
		out = append(out, raw)
	}
	return out
}

// SessionAt maps a wall-clock time onto the US equity trading sessions.
func SessionAt(now time.Time) models.MarketState {
	et := now.In(eastern)
	if wd := et.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return models.MarketClosed
	}
	minute := et.Hour()*60 + et.Minute()
	switch {
	case minute >= 4*60 && minute < 9*60+30:
		return models.MarketPre
	case minute >= 9*60+30 && minute < 16*60:
		return models.MarketRegular
	case minute >= 16*60 && minute < 20*60:
		return models.MarketPost
	default:
		return models.MarketClosed
	}
}

func displayName(sym models.Symbol) string {
	return string(sym) + " Synthetic Inc."
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
