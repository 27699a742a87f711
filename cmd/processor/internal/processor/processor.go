// Package processor materializes the gateway's Kafka quote feed into Redis
// so other readers can see the latest quote per symbol without polling the
// provider themselves.
package processor

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ethanlane1234/financial-literacy/pkg/models"
	"github.com/ethanlane1234/financial-literacy/pkg/quotes"
)

type Config struct {
	NumWorkers int
	TTL        time.Duration
}

type Processor struct {
	cfg    Config
	logger Logger
	rdb    RedisClient
	reader KafkaReader
}

func NewProcessor(cfg Config, logger Logger, rdb RedisClient, reader KafkaReader) *Processor {
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 1
	}
	return &Processor{
		cfg:    cfg,
		logger: logger,
		rdb:    rdb,
		reader: reader,
	}
}

// Run reads until ctx is done or the reader fails for good, then lets the
// workers drain what was already queued.
func (p *Processor) Run(ctx context.Context) error {
	workerChans := make([]chan []byte, p.cfg.NumWorkers)
	var wg sync.WaitGroup

	for i := range workerChans {
		workerChans[i] = make(chan []byte, 100)
		wg.Add(1)
		go p.worker(i, workerChans[i], &wg)
	}

	p.logger.Info("Processor Started", zap.Int("workers", p.cfg.NumWorkers))
	p.consume(ctx, workerChans)

	for _, ch := range workerChans {
		close(ch)
	}
	p.logger.Info("Waiting for workers to drain...")
	wg.Wait()

	return nil
}

func (p *Processor) consume(ctx context.Context, workerChans []chan []byte) {
	for {
		m, err := p.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return
			}
			p.logger.Error("Kafka Read Error", zap.Error(err))
			continue
		}

		// Deterministic Sharding: Same symbol always goes to same worker
		workerID := getWorkerID(m.Key, len(workerChans))

		select {
		case workerChans[workerID] <- m.Value:
		case <-ctx.Done():
			return
		default:
			// Only the latest quote matters; a newer one will follow.
			p.logger.Warn("Dropping slow packet", zap.String("key", string(m.Key)), zap.Int("worker_id", workerID))
		}
	}
}

func (p *Processor) worker(id int, msgs <-chan []byte, wg *sync.WaitGroup) {
	defer wg.Done()
	ctx := context.Background()

	// Local state for deduplication (only works because of deterministic sharding)
	lastFetched := make(map[models.Symbol]time.Time)

	for payload := range msgs {
		var entry models.CacheEntry
		if err := json.Unmarshal(payload, &entry); err != nil {
			p.logger.Error("JSON Unmarshal Error", zap.Error(err))
			continue
		}
		sym, ok := models.ParseSymbol(string(entry.Quote.Symbol))
		if !ok {
			p.logger.Warn("Skipping entry with invalid symbol", zap.String("symbol", string(entry.Quote.Symbol)))
			continue
		}

		if last, seen := lastFetched[sym]; seen && !entry.FetchedAt.After(last) {
			p.logger.Debug("Skipping stale entry", zap.String("symbol", string(sym)), zap.Time("fetched_at", entry.FetchedAt))
			continue
		}

		// Atomic Update via Pipeline
		pipe := p.rdb.Pipeline()
		pipe.Set(ctx, quotes.CacheKey(sym), payload, p.cfg.TTL)
		pipe.Publish(ctx, quotes.PriceChannel(sym), payload)

		if _, err := pipe.Exec(ctx); err != nil {
			p.logger.Error("Redis Pipeline Error", zap.Error(err), zap.String("symbol", string(sym)))
			continue
		}
		p.logger.Debug("Processed", zap.String("symbol", string(sym)), zap.Int("worker_id", id))
		lastFetched[sym] = entry.FetchedAt
	}
}

func getWorkerID(key []byte, numWorkers int) int {
	h := fnv.New32a()
	h.Write(key)
	return int(h.Sum32() % uint32(numWorkers))
}
