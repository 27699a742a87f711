package quotes_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ethanlane1234/financial-literacy/pkg/models"
	"github.com/ethanlane1234/financial-literacy/pkg/quotes"
)

func TestMemoryCache_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	c := quotes.NewMemoryCache()

	_, ok, err := c.Get(ctx, "AAPL")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Put(ctx, models.Quote{Symbol: "AAPL", Price: quotes.Float(100), Name: "Apple"}))
	require.NoError(t, c.Put(ctx, models.Quote{Symbol: "AAPL", Price: quotes.Float(101)}))

	e, ok, err := c.Get(ctx, "AAPL")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 101.0, *e.Quote.Price)
	require.Empty(t, e.Quote.Name, "entries are replaced wholesale, never patched")
	require.False(t, e.FetchedAt.IsZero())
	require.Equal(t, 1, c.Len())
}

func TestMemoryCache_GetMany(t *testing.T) {
	ctx := context.Background()
	c := quotes.NewMemoryCache()
	require.NoError(t, c.Put(ctx, models.Quote{Symbol: "AAPL"}))

	got, err := c.GetMany(ctx, []models.Symbol{"AAPL", "MSFT"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Contains(t, got, models.Symbol("AAPL"))
}

func TestRedisCache_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := quotes.NewRedisCache(rdb, time.Minute)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Put(ctx, models.Quote{Symbol: "TSLA", Price: quotes.Float(700), Currency: "USD"}))

	require.True(t, mr.Exists("stock:TSLA"))
	require.Equal(t, time.Minute, mr.TTL("stock:TSLA"))

	e, ok, err := c.Get(ctx, "TSLA")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 700.0, *e.Quote.Price)
	require.Nil(t, e.Quote.PostPrice)

	_, ok, err = c.Get(ctx, "GOOG")
	require.NoError(t, err)
	require.False(t, ok)

	many, err := c.GetMany(ctx, []models.Symbol{"GOOG", "TSLA"})
	require.NoError(t, err)
	require.Len(t, many, 1)
	require.Equal(t, models.Symbol("TSLA"), many["TSLA"].Quote.Symbol)
}

func TestRedisCache_Expiry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := quotes.NewRedisCache(rdb, time.Second)

	ctx := context.Background()
	require.NoError(t, c.Put(ctx, models.Quote{Symbol: "TSLA"}))
	mr.FastForward(2 * time.Second)

	_, ok, err := c.Get(ctx, "TSLA")
	require.NoError(t, err)
	require.False(t, ok)
}
