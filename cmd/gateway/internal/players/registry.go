package players

import (
	"sort"
	"sync"

	"github.com/ethanlane1234/financial-literacy/pkg/models"
)

// StartingNetWorth is what every player is (re)registered with.
const StartingNetWorth = 10000.0

type Player struct {
	ConnID   models.ConnID
	Name     string
	NetWorth float64

	joined uint64
}

// Standing is one leaderboard row as sent to clients.
type Standing struct {
	Name     string  `json:"name"`
	NetWorth float64 `json:"netWorth"`
}

// Registry holds at most one player per connection.
type Registry struct {
	mu      sync.RWMutex
	players map[models.ConnID]*Player
	seq     uint64
}

func NewRegistry() *Registry {
	return &Registry{players: make(map[models.ConnID]*Player)}
}

// Register creates or replaces the player for id with a fresh net worth.
// A replaced player keeps its place among equal scores.
func (r *Registry) Register(id models.ConnID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	joined := r.seq
	if p, ok := r.players[id]; ok {
		joined = p.joined
	} else {
		r.seq++
	}
	r.players[id] = &Player{ConnID: id, Name: name, NetWorth: StartingNetWorth, joined: joined}
}

// ReportNetWorth overwrites the net worth of a registered player.
// It returns false when id has not registered.
func (r *Registry) ReportNetWorth(id models.ConnID, value float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		return false
	}
	p.NetWorth = value
	return true
}

func (r *Registry) Remove(id models.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, id)
}

func (r *Registry) Get(id models.ConnID) (Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// Leaderboard snapshots every player, richest first. Equal net worths keep
// registration order.
func (r *Registry) Leaderboard() []Standing {
	r.mu.RLock()
	snapshot := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		snapshot = append(snapshot, *p)
	}
	r.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].joined < snapshot[j].joined })
	sort.SliceStable(snapshot, func(i, j int) bool { return snapshot[i].NetWorth > snapshot[j].NetWorth })

	out := make([]Standing, len(snapshot))
	for i, p := range snapshot {
		out[i] = Standing{Name: p.Name, NetWorth: p.NetWorth}
	}
	return out
}
