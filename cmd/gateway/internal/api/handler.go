// Package api serves the gateway's plain HTTP endpoints.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ethanlane1234/financial-literacy/cmd/gateway/internal/hub"
	"github.com/ethanlane1234/financial-literacy/pkg/models"
	"github.com/ethanlane1234/financial-literacy/pkg/quotes"
)

// StatsProvider reports live gateway counters.
type StatsProvider interface {
	Stats() hub.Stats
}

type Handler struct {
	source quotes.Source
	cache  quotes.Cache
	stats  StatsProvider
	logger *zap.Logger
}

func NewHandler(source quotes.Source, cache quotes.Cache, stats StatsProvider, logger *zap.Logger) *Handler {
	return &Handler{source: source, cache: cache, stats: stats, logger: logger}
}

// Register mounts the endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/quote", h.handleQuote)
	mux.HandleFunc("GET /api/cache", h.handleCache)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// handleQuote looks the symbols up directly at the provider. A provider
// failure answers with whatever was fetched, possibly nothing.
func (h *Handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbols := symbolsParam(r)
	got, err := quotes.Lookup(r.Context(), h.source, symbols)
	if err != nil {
		h.logger.Warn("Quote lookup failed", zap.Strings("symbols", models.Strings(symbols)), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, got)
}

func (h *Handler) handleCache(w http.ResponseWriter, r *http.Request) {
	entries, err := h.cache.GetMany(r.Context(), symbolsParam(r))
	if err != nil {
		h.logger.Error("Cache read failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "cache unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s := h.stats.Stats()
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		hub.Stats
	}{Status: "ok", Stats: s})
}

func symbolsParam(r *http.Request) []models.Symbol {
	return models.ParseSymbols(strings.Split(r.URL.Query().Get("symbols"), ","))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
