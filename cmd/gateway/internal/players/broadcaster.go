package players

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sink receives the full leaderboard every tick.
type Sink interface {
	BroadcastLeaderboard(standings []Standing)
}

// Broadcaster pushes the leaderboard on a fixed interval whether or not it
// changed.
type Broadcaster struct {
	registry *Registry
	sink     Sink
	interval time.Duration
	logger   *zap.Logger
}

func NewBroadcaster(registry *Registry, sink Sink, interval time.Duration, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{registry: registry, sink: sink, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.logger.Info("Leaderboard broadcaster started", zap.Duration("interval", b.interval))
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Leaderboard broadcaster stopped")
			return nil
		case <-ticker.C:
			b.Tick()
		}
	}
}

// Tick sends one leaderboard snapshot.
func (b *Broadcaster) Tick() {
	standings := b.registry.Leaderboard()
	b.sink.BroadcastLeaderboard(standings)
	b.logger.Debug("Leaderboard broadcast", zap.Int("players", len(standings)))
}
