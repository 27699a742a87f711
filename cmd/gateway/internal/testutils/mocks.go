package testutils

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethanlane1234/financial-literacy/pkg/models"
	"github.com/ethanlane1234/financial-literacy/pkg/quotes"
)

// Message is a decoded server frame.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// MockClient simulates a connected websocket client
type MockClient struct {
	IDVal    models.ConnID
	Messages []Message // Stores decoded JSON messages
	RawBytes []string  // Stores raw bytes
	Closed   bool
	Mu       sync.Mutex
}

func NewMockClient(id string) *MockClient {
	return &MockClient{IDVal: models.ConnID(id), Messages: make([]Message, 0)}
}

func (m *MockClient) ID() models.ConnID { return m.IDVal }

func (m *MockClient) Close() {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
}

func (m *MockClient) SendBytes(b []byte) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.RawBytes = append(m.RawBytes, string(b))

	var msg Message
	if err := json.Unmarshal(b, &msg); err == nil {
		m.Messages = append(m.Messages, msg)
	}
}

// Events returns the messages received for one event name.
func (m *MockClient) Events(event string) []Message {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	var out []Message
	for _, msg := range m.Messages {
		if msg.Event == event {
			out = append(out, msg)
		}
	}
	return out
}

// Prices decodes every price message received so far.
func (m *MockClient) Prices() []models.Quote {
	var out []models.Quote
	for _, msg := range m.Events("price") {
		var q models.Quote
		if err := json.Unmarshal(msg.Data, &q); err == nil {
			out = append(out, q)
		}
	}
	return out
}

func (m *MockClient) IsClosed() bool {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.Closed
}

// MockSource simulates the quote provider. Quotes maps symbols to the
// record it will return; unknown symbols are omitted from results.
type MockSource struct {
	Quotes map[models.Symbol]quotes.RawQuote
	Err    error
	Calls  [][]models.Symbol
	Block  chan struct{} // when set, Fetch waits for it to close
	Mu     sync.Mutex
}

func NewMockSource() *MockSource {
	return &MockSource{Quotes: make(map[models.Symbol]quotes.RawQuote)}
}

// SetPrice registers a regular-session quote for sym.
func (m *MockSource) SetPrice(sym string, price, changePct float64) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Quotes[models.Symbol(sym)] = quotes.RawQuote{
		Symbol:                     sym,
		MarketState:                "REGULAR",
		RegularMarketPrice:         quotes.Float(price),
		RegularMarketChangePercent: quotes.Float(changePct),
	}
}

func (m *MockSource) Fail(err error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Err = err
}

func (m *MockSource) Fetch(ctx context.Context, symbols []models.Symbol) ([]quotes.RawQuote, error) {
	m.Mu.Lock()
	m.Calls = append(m.Calls, append([]models.Symbol(nil), symbols...))
	block := m.Block
	m.Mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []quotes.RawQuote
	for _, s := range symbols {
		if q, ok := m.Quotes[s]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *MockSource) CallCount() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return len(m.Calls)
}

var ErrProviderDown = errors.New("provider down")

// WaitFor polls cond until it holds or the timeout expires.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting: %s", msg)
}
