package quotes

import (
	"context"
	"sync"
	"time"

	"github.com/ethanlane1234/financial-literacy/pkg/models"
)

// Cache holds the most recent quote per symbol. Put replaces the entry
// wholesale; the last completed write wins.
type Cache interface {
	Get(ctx context.Context, sym models.Symbol) (models.CacheEntry, bool, error)
	GetMany(ctx context.Context, syms []models.Symbol) (map[models.Symbol]models.CacheEntry, error)
	Put(ctx context.Context, q models.Quote) error
}

var _ Cache = (*MemoryCache)(nil)

type MemoryCache struct {
	mu      sync.RWMutex
	entries map[models.Symbol]models.CacheEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[models.Symbol]models.CacheEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, sym models.Symbol) (models.CacheEntry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[sym]
	return e, ok, nil
}

func (c *MemoryCache) GetMany(_ context.Context, syms []models.Symbol) (map[models.Symbol]models.CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[models.Symbol]models.CacheEntry, len(syms))
	for _, s := range syms {
		if e, ok := c.entries[s]; ok {
			out[s] = e
		}
	}
	return out, nil
}

func (c *MemoryCache) Put(_ context.Context, q models.Quote) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[q.Symbol] = models.CacheEntry{Quote: q, FetchedAt: c.now()}
	return nil
}

// Len reports how many symbols have a cached quote.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
