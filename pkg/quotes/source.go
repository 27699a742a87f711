package quotes

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/ethanlane1234/financial-literacy/pkg/models"
)

// Source is the upstream quote lookup. Implementations return whatever
// records the provider produced; missing symbols are simply absent.
type Source interface {
	Fetch(ctx context.Context, symbols []models.Symbol) ([]RawQuote, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, symbols []models.Symbol) ([]RawQuote, error)

func (f SourceFunc) Fetch(ctx context.Context, symbols []models.Symbol) ([]RawQuote, error) {
	return f(ctx, symbols)
}

// Lookup fetches and normalizes quotes for symbols. An empty symbol list
// never reaches the provider. Records returned alongside an error are kept.
func Lookup(ctx context.Context, src Source, symbols []models.Symbol) (map[models.Symbol]models.Quote, error) {
	if len(symbols) == 0 {
		return map[models.Symbol]models.Quote{}, nil
	}
	raws, err := src.Fetch(ctx, symbols)
	out := NormalizeAll(raws)
	if err != nil {
		return out, fmt.Errorf("fetch %d symbols: %w", len(symbols), err)
	}
	return out, nil
}

// ErrThrottled is returned by a skipping Throttled when no token is free.
var ErrThrottled = errors.New("quotes: rate limited")

// Throttled gates a Source behind a token bucket so bursts of snapshot
// requests stay within the provider's rate limit. With Skip set, calls fail
// fast with ErrThrottled instead of queueing for a token.
type Throttled struct {
	Source  Source
	Limiter *rate.Limiter
	Skip    bool
}

type ThrottleOption func(*Throttled)

// SkipWhenLimited makes Fetch drop calls that find the bucket empty.
func SkipWhenLimited() ThrottleOption {
	return func(t *Throttled) { t.Skip = true }
}

// NewThrottled allows perSecond calls with the given burst.
func NewThrottled(src Source, perSecond float64, burst int, opts ...ThrottleOption) *Throttled {
	if burst <= 0 {
		burst = 1
	}
	t := &Throttled{Source: src, Limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Throttled) Fetch(ctx context.Context, symbols []models.Symbol) ([]RawQuote, error) {
	if t.Limiter != nil && t.Skip {
		if !t.Limiter.Allow() {
			return nil, ErrThrottled
		}
	} else if t.Limiter != nil {
		if err := t.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	return t.Source.Fetch(ctx, symbols)
}
