package protocol

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ethanlane1234/financial-literacy/pkg/models"
)

// Client -> server events.
const (
	EventRegister           = "register"
	EventUpdateNetWorth     = "updateNetWorth"
	EventSubscribeTickers   = "subscribeTickers"
	EventUnsubscribeTickers = "unsubscribeTickers"
)

// Server -> client events.
const (
	EventPrice       = "price"
	EventMarketGuess = "marketGuess"
	EventLeaderboard = "leaderboard"
)

const (
	DefaultPlayerName = "Player"
	maxNameRunes      = 32
)

// Envelope is the frame sent in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Outbound is the server side of an Envelope, built from a typed payload.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Encode marshals an outbound event.
func Encode(event string, data any) ([]byte, error) {
	return json.Marshal(Outbound{Event: event, Data: data})
}

// Symbols reads a ticker list. A bare string counts as a one-element list;
// non-string entries and invalid tickers are dropped.
func Symbols(data json.RawMessage) []models.Symbol {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}

	var raw []string
	switch t := v.(type) {
	case string:
		raw = []string{t}
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	}
	return models.ParseSymbols(raw)
}

// NetWorth reads a reported net worth. Numbers and numeric strings are
// accepted; anything else, including NaN and infinities, becomes 0.
func NetWorth(data json.RawMessage) float64 {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return 0
	}

	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if t {
			f = 1
		}
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// DisplayName reads a player name, falling back to DefaultPlayerName.
func DisplayName(data json.RawMessage) string {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return DefaultPlayerName
	}

	var name string
	switch t := v.(type) {
	case string:
		name = t
	case float64:
		name = strconv.FormatFloat(t, 'f', -1, 64)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultPlayerName
	}
	if utf8.RuneCountInString(name) > maxNameRunes {
		name = string([]rune(name)[:maxNameRunes])
	}
	return name
}
