package generator

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ethanlane1234/financial-literacy/pkg/models"
	"github.com/ethanlane1234/financial-literacy/pkg/quotes"
)

const QuotePath = "/v7/finance/quote"

// Handler serves the generator's market over HTTP. FailureRate is the
// fraction of requests answered with 503, to exercise provider outages.
type Handler struct {
	gen         *StockGenerator
	failureRate float64
	logger      *zap.Logger
}

func NewHandler(gen *StockGenerator, failureRate float64, logger *zap.Logger) *Handler {
	return &Handler{gen: gen, failureRate: failureRate, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+QuotePath, h.handleQuote)
}

func (h *Handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	var resp quotes.QuoteResponse

	if h.gen.Roll(h.failureRate) {
		h.logger.Debug("Injected failure")
		resp.QuoteResponse.Error = &quotes.ResponseError{Code: "Service Unavailable", Description: "injected failure"}
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	syms := models.ParseSymbols(strings.Split(r.URL.Query().Get("symbols"), ","))
	if len(syms) == 0 {
		resp.QuoteResponse.Error = &quotes.ResponseError{Code: "Bad Request", Description: "Missing value for the \"symbols\" argument"}
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	resp.QuoteResponse.Result = h.gen.Quotes(syms)
	h.logger.Debug("Served quotes", zap.Int("requested", len(syms)), zap.Int("returned", len(resp.QuoteResponse.Result)))
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
