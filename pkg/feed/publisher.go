// Package feed publishes each completed poll cycle to Kafka so other systems
// can follow the game's prices without talking to the quote provider.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ethanlane1234/financial-literacy/pkg/models"
)

type Publisher struct {
	writer KafkaWriter
	clock  Clock
	logger *zap.Logger
}

func NewPublisher(writer KafkaWriter, clock Clock, logger *zap.Logger) *Publisher {
	return &Publisher{writer: writer, clock: clock, logger: logger}
}

// NewKafkaWriter returns a batching async writer keyed by symbol.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // same symbol, same partition
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
	}
}

// PublishQuotes writes one message per quote, keyed by symbol.
func (p *Publisher) PublishQuotes(ctx context.Context, quotes map[models.Symbol]models.Quote) error {
	if len(quotes) == 0 {
		return nil
	}

	syms := make([]string, 0, len(quotes))
	for sym := range quotes {
		syms = append(syms, string(sym))
	}
	sort.Strings(syms)

	fetchedAt := p.clock.Now()
	msgs := make([]kafka.Message, 0, len(syms))
	for _, sym := range syms {
		payload, err := json.Marshal(models.CacheEntry{Quote: quotes[models.Symbol(sym)], FetchedAt: fetchedAt})
		if err != nil {
			p.logger.Error("JSON Marshal Error", zap.String("symbol", sym), zap.Error(err))
			continue
		}
		msgs = append(msgs, kafka.Message{Key: []byte(sym), Value: payload, Time: fetchedAt})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d quote messages: %w", len(msgs), err)
	}
	p.logger.Debug("Published quotes", zap.Int("count", len(msgs)))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
