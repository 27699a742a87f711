package subscription

import (
	"sort"
	"sync"

	"github.com/ethanlane1234/financial-literacy/pkg/models"
)

// Registry stores (connection, symbol) edges in both directions under one
// lock. A symbol is present in bySymbol only while someone holds it.
type Registry struct {
	mu       sync.RWMutex
	bySymbol map[models.Symbol]map[models.ConnID]struct{}
	byConn   map[models.ConnID]map[models.Symbol]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		bySymbol: make(map[models.Symbol]map[models.ConnID]struct{}),
		byConn:   make(map[models.ConnID]map[models.Symbol]struct{}),
	}
}

// Subscribe adds edges and returns the symbols that were not already held.
func (r *Registry) Subscribe(id models.ConnID, symbols []models.Symbol) []models.Symbol {
	r.mu.Lock()
	defer r.mu.Unlock()

	var added []models.Symbol
	for _, sym := range symbols {
		held := r.byConn[id]
		if _, ok := held[sym]; ok {
			continue
		}
		if held == nil {
			held = make(map[models.Symbol]struct{})
			r.byConn[id] = held
		}
		held[sym] = struct{}{}

		conns := r.bySymbol[sym]
		if conns == nil {
			conns = make(map[models.ConnID]struct{})
			r.bySymbol[sym] = conns
		}
		conns[id] = struct{}{}
		added = append(added, sym)
	}
	return added
}

func (r *Registry) Unsubscribe(id models.ConnID, symbols []models.Symbol) {
	r.mu.Lock()
	defer r.mu.Unlock()

	held, ok := r.byConn[id]
	if !ok {
		return
	}
	for _, sym := range symbols {
		if _, ok := held[sym]; !ok {
			continue
		}
		delete(held, sym)
		r.removeEdgeLocked(id, sym)
	}
	if len(held) == 0 {
		delete(r.byConn, id)
	}
}

// DropConnection removes every edge held by id. Unknown ids are a no-op.
func (r *Registry) DropConnection(id models.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for sym := range r.byConn[id] {
		r.removeEdgeLocked(id, sym)
	}
	delete(r.byConn, id)
}

// removeEdgeLocked removes the symbol side of an edge, caller must hold write lock
func (r *Registry) removeEdgeLocked(id models.ConnID, sym models.Symbol) {
	conns := r.bySymbol[sym]
	delete(conns, id)
	if len(conns) == 0 {
		delete(r.bySymbol, sym)
	}
}

// SymbolsInDemand is a sorted snapshot of every symbol with a subscriber.
func (r *Registry) SymbolsInDemand() []models.Symbol {
	r.mu.RLock()
	out := make([]models.Symbol, 0, len(r.bySymbol))
	for sym := range r.bySymbol {
		out = append(out, sym)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SubscribersOf is a snapshot of the connections holding sym. Never nil.
func (r *Registry) SubscribersOf(sym models.Symbol) []models.ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.bySymbol[sym]
	out := make([]models.ConnID, 0, len(conns))
	for id := range conns {
		out = append(out, id)
	}
	return out
}

// SymbolsOf is a sorted snapshot of what id is subscribed to.
func (r *Registry) SymbolsOf(id models.ConnID) []models.Symbol {
	r.mu.RLock()
	held := r.byConn[id]
	out := make([]models.Symbol, 0, len(held))
	for sym := range held {
		out = append(out, sym)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
