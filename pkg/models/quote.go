package models

import (
	"strings"
	"time"
)

// Long enough for OCC option symbols such as AAPL250117C00150000.
const maxSymbolLen = 32

// Symbol is an upper-cased ticker. Build one with ParseSymbol.
type Symbol string

// ConnID identifies a live client connection.
type ConnID string

type MarketState string

const (
	MarketPre     MarketState = "PRE"
	MarketRegular MarketState = "REGULAR"
	MarketPost    MarketState = "POST"
	MarketClosed  MarketState = "CLOSED"
	MarketUnknown MarketState = "UNKNOWN"
)

// ParseMarketState maps a provider market state onto the states the game knows about.
func ParseMarketState(s string) MarketState {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PRE", "PREPRE":
		return MarketPre
	case "REGULAR":
		return MarketRegular
	case "POST", "POSTPOST":
		return MarketPost
	case "CLOSED":
		return MarketClosed
	default:
		return MarketUnknown
	}
}

// Quote is a normalized market snapshot for one symbol.
// Nil numbers mean the provider did not report the value.
type Quote struct {
	Symbol        Symbol      `json:"symbol"`
	Price         *float64    `json:"price"`
	Change        *float64    `json:"change"`
	ChangePct     *float64    `json:"changePct"`
	Currency      string      `json:"currency"`
	Name          string      `json:"name"`
	PreviousClose *float64    `json:"previousClose"`
	PostPrice     *float64    `json:"postPrice"`
	PrePrice      *float64    `json:"prePrice"`
	MarketState   MarketState `json:"marketState"`
}

// CacheEntry is the latest quote for a symbol and when its fetch completed.
type CacheEntry struct {
	Quote     Quote     `json:"quote"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// ParseSymbol trims and upper-cases s. It rejects empty input, overlong input and
// characters that never appear in tickers.
func ParseSymbol(s string) (Symbol, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || len(s) > maxSymbolLen {
		return "", false
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '-', r == '^', r == '=':
		default:
			return "", false
		}
	}
	return Symbol(s), true
}

// ParseSymbols parses every entry, dropping invalid ones and duplicates.
// First-seen order is kept.
func ParseSymbols(raw []string) []Symbol {
	out := make([]Symbol, 0, len(raw))
	seen := make(map[Symbol]struct{}, len(raw))
	for _, r := range raw {
		sym, ok := ParseSymbol(r)
		if !ok {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}

// Strings converts symbols back to plain strings for provider calls.
func Strings(syms []Symbol) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = string(s)
	}
	return out
}
