// Package mood turns one poll cycle's quotes into a coarse market direction.
package mood

import (
	"sort"

	"github.com/ethanlane1234/financial-literacy/pkg/models"
)

type State string

const (
	DownHard State = "down-hard"
	Down     State = "down"
	Flat     State = "flat"
	Up       State = "up"
	UpStrong State = "up-strong"
	Unknown  State = "unknown"
)

// scoreScale is the median move, in percent, that saturates the score.
const scoreScale = 1.5

type Summary struct {
	State     State   `json:"state"`
	Score     float64 `json:"score"`
	MedianPct float64 `json:"medianPct"`
}

// PercentMove picks the most relevant percent move for q. Regular-session
// change wins while the market is open, then extended-hours prices against
// the previous close, then whatever change percent the provider sent.
func PercentMove(q models.Quote) (float64, bool) {
	if q.MarketState == models.MarketRegular && q.ChangePct != nil {
		return *q.ChangePct, true
	}
	if q.PreviousClose != nil && *q.PreviousClose > 0 {
		prev := *q.PreviousClose
		if q.PostPrice != nil {
			return (*q.PostPrice - prev) / prev * 100, true
		}
		if q.PrePrice != nil {
			return (*q.PrePrice - prev) / prev * 100, true
		}
	}
	if q.ChangePct != nil {
		return *q.ChangePct, true
	}
	return 0, false
}

// Compute summarizes the quotes of a single cycle.
func Compute(quotes map[models.Symbol]models.Quote) Summary {
	moves := make([]float64, 0, len(quotes))
	for _, q := range quotes {
		if pct, ok := PercentMove(q); ok {
			moves = append(moves, pct)
		}
	}
	if len(moves) == 0 {
		return Summary{State: Unknown}
	}

	m := median(moves)
	return Summary{State: Classify(m), Score: clamp(m/scoreScale, -1, 1), MedianPct: m}
}

func Classify(medianPct float64) State {
	switch {
	case medianPct <= -0.8:
		return DownHard
	case medianPct <= -0.3:
		return Down
	case medianPct < 0.3:
		return Flat
	case medianPct < 0.8:
		return Up
	default:
		return UpStrong
	}
}

func median(xs []float64) float64 {
	sort.Float64s(xs)
	n := len(xs)
	if n%2 == 1 {
		return xs[n/2]
	}
	return (xs[n/2-1] + xs[n/2]) / 2
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
