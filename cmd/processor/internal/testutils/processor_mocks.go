package testutils

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/ethanlane1234/financial-literacy/pkg/models"
)

type MockKafkaReader struct {
	Messages []kafka.Message
	Index    int
	Mu       sync.Mutex
	// Closed simulates a closed connection or end of stream
	Closed bool
}

func (m *MockKafkaReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if m.Closed {
		return kafka.Message{}, io.EOF
	}

	if m.Index >= len(m.Messages) {
		// Returning DeadlineExceeded is a clean way to stop the processor loop in tests
		return kafka.Message{}, context.DeadlineExceeded
	}

	msg := m.Messages[m.Index]
	m.Index++
	return msg, nil
}

func (m *MockKafkaReader) Close() error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
	return nil
}

type MockPipeline struct {
	redis.Pipeliner // Embed interface to satisfy missing methods like ACLCat, etc.

	ExecCount    int
	ExecErr      error
	FailExecs    int // ExecErr is returned for this many executions
	RecordedCmds []string
	Mu           sync.Mutex
}

func (m *MockPipeline) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.RecordedCmds = append(m.RecordedCmds, "SET "+key)
	return redis.NewStatusCmd(ctx)
}

func (m *MockPipeline) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.RecordedCmds = append(m.RecordedCmds, "PUBLISH "+channel)
	return redis.NewIntCmd(ctx)
}

func (m *MockPipeline) Exec(ctx context.Context) ([]redis.Cmder, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.ExecCount++
	if m.FailExecs > 0 {
		m.FailExecs--
		return nil, m.ExecErr
	}
	return nil, nil
}

type MockRedisClient struct {
	PipelineSpy *MockPipeline
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{PipelineSpy: &MockPipeline{}}
}

func (m *MockRedisClient) Pipeline() redis.Pipeliner {
	return m.PipelineSpy
}

// FeedMessage builds a feed record the way the gateway publishes it.
func FeedMessage(sym string, price float64, fetchedAt time.Time) kafka.Message {
	val, _ := json.Marshal(models.CacheEntry{
		Quote:     models.Quote{Symbol: models.Symbol(sym), Price: &price, Currency: "USD"},
		FetchedAt: fetchedAt,
	})
	return kafka.Message{Key: []byte(sym), Value: val}
}
