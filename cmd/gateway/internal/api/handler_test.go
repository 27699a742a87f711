package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ethanlane1234/financial-literacy/cmd/gateway/internal/api"
	"github.com/ethanlane1234/financial-literacy/cmd/gateway/internal/hub"
	"github.com/ethanlane1234/financial-literacy/cmd/gateway/internal/testutils"
	"github.com/ethanlane1234/financial-literacy/pkg/models"
	"github.com/ethanlane1234/financial-literacy/pkg/quotes"
)

type fixedStats hub.Stats

func (s fixedStats) Stats() hub.Stats { return hub.Stats(s) }

func newServer(t *testing.T, src quotes.Source, cache quotes.Cache) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	api.NewHandler(src, cache, fixedStats{Connections: 2, Players: 1, Symbols: 3}, zap.NewNop()).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func TestQuote_ReturnsNormalizedQuotes(t *testing.T) {
	src := testutils.NewMockSource()
	src.SetPrice("AAPL", 190.25, 0.4)
	cache := quotes.NewMemoryCache()
	srv := newServer(t, src, cache)

	var got map[string]models.Quote
	status := getJSON(t, srv.URL+"/api/quote?symbols=aapl,%20msft,,AAPL", &got)

	require.Equal(t, http.StatusOK, status)
	require.Len(t, got, 1)
	require.Equal(t, 190.25, *got["AAPL"].Price)
	require.Equal(t, "USD", got["AAPL"].Currency)
	require.Equal(t, [][]models.Symbol{{"AAPL", "MSFT"}}, src.Calls)
	require.Zero(t, cache.Len(), "direct lookups do not touch the cache")
}

func TestQuote_ProviderFailureYieldsEmptyObject(t *testing.T) {
	src := testutils.NewMockSource()
	src.Fail(testutils.ErrProviderDown)
	srv := newServer(t, src, quotes.NewMemoryCache())

	var got map[string]any
	status := getJSON(t, srv.URL+"/api/quote?symbols=AAPL", &got)

	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestQuote_NoSymbolsSkipsProvider(t *testing.T) {
	src := testutils.NewMockSource()
	srv := newServer(t, src, quotes.NewMemoryCache())

	var got map[string]any
	getJSON(t, srv.URL+"/api/quote", &got)

	require.Empty(t, got)
	require.Zero(t, src.CallCount())
}

func TestCache_ReturnsStoredEntries(t *testing.T) {
	cache := quotes.NewMemoryCache()
	require.NoError(t, cache.Put(context.Background(), models.Quote{Symbol: "TSLA", Price: quotes.Float(250)}))
	srv := newServer(t, testutils.NewMockSource(), cache)

	var got map[string]models.CacheEntry
	status := getJSON(t, srv.URL+"/api/cache?symbols=TSLA,GOOG", &got)

	require.Equal(t, http.StatusOK, status)
	require.Len(t, got, 1)
	require.Equal(t, 250.0, *got["TSLA"].Quote.Price)
	require.False(t, got["TSLA"].FetchedAt.IsZero())
}

func TestHealthz(t *testing.T) {
	srv := newServer(t, testutils.NewMockSource(), quotes.NewMemoryCache())

	var got map[string]any
	status := getJSON(t, srv.URL+"/healthz", &got)

	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok", got["status"])
	require.EqualValues(t, 2, got["connections"])
	require.EqualValues(t, 1, got["players"])
	require.EqualValues(t, 3, got["symbols"])
}
