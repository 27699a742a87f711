package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ethanlane1234/financial-literacy/pkg/models"
)

const (
	keyPrefix     = "stock:"
	channelPrefix = "prices."
)

// CacheKey is the Redis key holding the latest entry for sym.
func CacheKey(sym models.Symbol) string { return keyPrefix + string(sym) }

// PriceChannel is the pub/sub channel carrying updates for sym.
func PriceChannel(sym models.Symbol) string { return channelPrefix + string(sym) }

// Compile-time check to ensure RedisCache implements Cache
var _ Cache = (*RedisCache)(nil)

// RedisCache keeps the latest entry per symbol under stock:<SYMBOL>.
// Entries expire after ttl so a stopped game does not leave stale prices behind.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, now: time.Now}
}

func (r *RedisCache) Put(ctx context.Context, q models.Quote) error {
	payload, err := json.Marshal(models.CacheEntry{Quote: q, FetchedAt: r.now()})
	if err != nil {
		return fmt.Errorf("encode %s: %w", q.Symbol, err)
	}
	if err := r.client.Set(ctx, CacheKey(q.Symbol), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", q.Symbol, err)
	}
	return nil
}

func (r *RedisCache) Get(ctx context.Context, sym models.Symbol) (models.CacheEntry, bool, error) {
	val, err := r.client.Get(ctx, CacheKey(sym)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.CacheEntry{}, false, nil
	}
	if err != nil {
		return models.CacheEntry{}, false, fmt.Errorf("get %s: %w", sym, err)
	}
	var e models.CacheEntry
	if err := json.Unmarshal(val, &e); err != nil {
		return models.CacheEntry{}, false, fmt.Errorf("decode %s: %w", sym, err)
	}
	return e, true, nil
}

// GetMany fetches the latest entries for a list of symbols (MGET)
func (r *RedisCache) GetMany(ctx context.Context, syms []models.Symbol) (map[models.Symbol]models.CacheEntry, error) {
	out := make(map[models.Symbol]models.CacheEntry, len(syms))
	if len(syms) == 0 {
		return out, nil
	}

	keys := make([]string, len(syms))
	for i, s := range syms {
		keys[i] = CacheKey(s)
	}

	results, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget: %w", err)
	}

	for i, val := range results {
		payload, ok := val.(string)
		if !ok || payload == "" {
			continue
		}
		var e models.CacheEntry
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			continue
		}
		out[syms[i]] = e
	}
	return out, nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
