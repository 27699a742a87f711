package hub

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ethanlane1234/financial-literacy/cmd/gateway/internal/mood"
	"github.com/ethanlane1234/financial-literacy/cmd/gateway/internal/players"
	"github.com/ethanlane1234/financial-literacy/cmd/gateway/internal/protocol"
	"github.com/ethanlane1234/financial-literacy/cmd/gateway/internal/subscription"
	"github.com/ethanlane1234/financial-literacy/pkg/models"
	"github.com/ethanlane1234/financial-literacy/pkg/quotes"
)

type ClientInterface interface {
	ID() models.ConnID
	SendBytes(b []byte)
	Close()
}

type Config struct {
	// SnapshotTimeout bounds the one-off fetch made when a client subscribes.
	SnapshotTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{SnapshotTimeout: 4 * time.Second}
}

// Stats is a point-in-time view for health checks.
type Stats struct {
	Connections int `json:"connections"`
	Players     int `json:"players"`
	Symbols     int `json:"symbols"`
}

// Hub owns the live connections. It routes client events into the
// subscription and player registries and fans server events back out.
type Hub struct {
	clients map[models.ConnID]ClientInterface

	subs    *subscription.Registry
	roster  *players.Registry
	source  quotes.Source
	cfg     Config
	logger  *zap.Logger
	mu      sync.RWMutex
	closing bool
	pending sync.WaitGroup
}

func NewHub(cfg Config, subs *subscription.Registry, roster *players.Registry, source quotes.Source, logger *zap.Logger) *Hub {
	if cfg.SnapshotTimeout <= 0 {
		cfg.SnapshotTimeout = DefaultConfig().SnapshotTimeout
	}
	return &Hub{
		clients: make(map[models.ConnID]ClientInterface),
		subs:    subs,
		roster:  roster,
		source:  source,
		cfg:     cfg,
		logger:  logger,
	}
}

func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID()] = client
	h.logger.Debug("Client connected", zap.String("conn", string(client.ID())), zap.Int("clients", len(h.clients)))
}

// Unregister forgets the client, its subscriptions and its player in one
// step. Safe to call more than once.
func (h *Hub) Unregister(client ClientInterface) {
	id := client.ID()

	h.mu.Lock()
	if current, ok := h.clients[id]; ok && current == client {
		delete(h.clients, id)
		h.subs.DropConnection(id)
		h.roster.Remove(id)
		h.logger.Debug("Client disconnected", zap.String("conn", string(id)), zap.Int("clients", len(h.clients)))
	}
	h.mu.Unlock()

	client.Close()
}

func (h *Hub) HandleEvent(client ClientInterface, env protocol.Envelope) {
	id := client.ID()

	h.mu.RLock()
	if current, ok := h.clients[id]; !ok || current != client || h.closing {
		h.mu.RUnlock()
		return
	}

	var snapshot []models.Symbol
	switch env.Event {
	case protocol.EventRegister:
		h.roster.Register(id, protocol.DisplayName(env.Data))
	case protocol.EventUpdateNetWorth:
		h.roster.ReportNetWorth(id, protocol.NetWorth(env.Data))
	case protocol.EventSubscribeTickers:
		snapshot = protocol.Symbols(env.Data)
		h.subs.Subscribe(id, snapshot)
		if len(snapshot) > 0 {
			// Counted under the lock so Shutdown cannot start waiting first.
			h.pending.Add(1)
		}
	case protocol.EventUnsubscribeTickers:
		h.subs.Unsubscribe(id, protocol.Symbols(env.Data))
	default:
		h.logger.Debug("Ignoring unknown event", zap.String("conn", string(id)), zap.String("event", env.Event))
	}
	h.mu.RUnlock()

	if len(snapshot) > 0 {
		h.sendSnapshot(id, snapshot)
	}
}

// sendSnapshot fetches the named symbols once and answers only the asking
// connection, so a new subscriber sees prices before the next poll. The
// caller has already counted it in pending.
func (h *Hub) sendSnapshot(id models.ConnID, symbols []models.Symbol) {
	go func() {
		defer h.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), h.cfg.SnapshotTimeout)
		defer cancel()

		got, err := quotes.Lookup(ctx, h.source, symbols)
		if err != nil {
			h.logger.Warn("Snapshot fetch failed", zap.String("conn", string(id)), zap.Strings("symbols", models.Strings(symbols)), zap.Error(err))
		}
		for _, sym := range symbols {
			q, ok := got[sym]
			if !ok {
				continue
			}
			if msg, ok := h.encode(protocol.EventPrice, q); ok {
				h.sendTo(id, msg)
			}
		}
	}()
}

// DeliverQuotes sends each quote to the connections subscribed to its symbol.
func (h *Hub) DeliverQuotes(batch map[models.Symbol]models.Quote) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sym, q := range batch {
		targets := h.subs.SubscribersOf(sym)
		if len(targets) == 0 {
			continue
		}
		msg, ok := h.encode(protocol.EventPrice, q)
		if !ok {
			continue
		}
		for _, id := range targets {
			if c, ok := h.clients[id]; ok {
				c.SendBytes(msg)
				delivered++
			}
		}
	}
	h.logger.Debug("Quotes delivered", zap.Int("symbols", len(batch)), zap.Int("messages", delivered))
}

func (h *Hub) BroadcastMood(summary mood.Summary) {
	h.broadcast(protocol.EventMarketGuess, summary)
}

func (h *Hub) BroadcastLeaderboard(standings []players.Standing) {
	h.broadcast(protocol.EventLeaderboard, standings)
}

func (h *Hub) broadcast(event string, data any) {
	msg, ok := h.encode(event, data)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.SendBytes(msg)
	}
}

// sendTo drops the message if id is no longer connected.
func (h *Hub) sendTo(id models.ConnID, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.clients[id]; ok {
		c.SendBytes(msg)
	}
}

func (h *Hub) encode(event string, data any) ([]byte, bool) {
	msg, err := protocol.Encode(event, data)
	if err != nil {
		h.logger.Error("Failed to encode event", zap.String("event", event), zap.Error(err))
		return nil, false
	}
	return msg, true
}

func (h *Hub) Stats() Stats {
	h.mu.RLock()
	conns := len(h.clients)
	h.mu.RUnlock()
	return Stats{
		Connections: conns,
		Players:     h.roster.Len(),
		Symbols:     len(h.subs.SymbolsInDemand()),
	}
}

// Shutdown closes every client and waits for in-flight snapshots. Events
// arriving afterwards are ignored.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closing = true
	clients := make([]ClientInterface, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.Unregister(c)
	}
	h.pending.Wait()
}
