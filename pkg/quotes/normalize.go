package quotes

import (
	"github.com/ethanlane1234/financial-literacy/pkg/models"
)

const defaultCurrency = "USD"

// Normalize converts a provider record into a Quote. Records without a
// usable symbol are rejected.
func Normalize(raw RawQuote) (models.Quote, bool) {
	sym, ok := models.ParseSymbol(raw.Symbol)
	if !ok {
		return models.Quote{}, false
	}

	q := models.Quote{
		Symbol:        sym,
		Price:         firstPresent(raw.RegularMarketPrice, raw.PostMarketPrice, raw.PreMarketPrice, raw.Ask, raw.Bid),
		Change:        raw.RegularMarketChange,
		ChangePct:     raw.RegularMarketChangePercent,
		Currency:      raw.Currency,
		Name:          firstNonEmpty(raw.ShortName, raw.LongName, string(sym)),
		PreviousClose: raw.RegularMarketPreviousClose,
		PostPrice:     raw.PostMarketPrice,
		PrePrice:      raw.PreMarketPrice,
		MarketState:   models.ParseMarketState(raw.MarketState),
	}
	if q.Currency == "" {
		q.Currency = defaultCurrency
	}
	return q, true
}

// NormalizeAll indexes normalized quotes by symbol. A later record for the
// same symbol replaces an earlier one.
func NormalizeAll(raws []RawQuote) map[models.Symbol]models.Quote {
	out := make(map[models.Symbol]models.Quote, len(raws))
	for _, raw := range raws {
		if q, ok := Normalize(raw); ok {
			out[q.Symbol] = q
		}
	}
	return out
}

func firstPresent(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			p := *v
			return &p
		}
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
