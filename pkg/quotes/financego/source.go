// Package financego serves quotes through github.com/piquette/finance-go.
//
// finance-go decodes numbers into plain float64 fields, so a zero there is
// read as "not reported". The change percent is only kept when the regular
// session price is present.
package financego

import (
	"context"
	"fmt"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"

	"github.com/ethanlane1234/financial-literacy/pkg/models"
	"github.com/ethanlane1234/financial-literacy/pkg/quotes"
)

// ListFunc matches quote.List.
type ListFunc func(symbols []string) *quote.Iter

type Source struct {
	list ListFunc
}

var _ quotes.Source = (*Source)(nil)

func NewSource() *Source {
	return &Source{list: quote.List}
}

// Fetch runs the finance-go iterator. The library does not take a context,
// so cancellation is only observed between records.
func (s *Source) Fetch(ctx context.Context, symbols []models.Symbol) ([]quotes.RawQuote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	iter := s.list(models.Strings(symbols))
	out := make([]quotes.RawQuote, 0, len(symbols))
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if q := iter.Quote(); q != nil {
			out = append(out, FromFinance(q))
		}
	}
	if err := iter.Err(); err != nil {
		return out, fmt.Errorf("finance-go list: %w", err)
	}
	return out, nil
}

// FromFinance converts a finance-go quote into a provider record.
func FromFinance(q *finance.Quote) quotes.RawQuote {
	raw := quotes.RawQuote{
		Symbol:                     q.Symbol,
		ShortName:                  q.ShortName,
		Currency:                   q.CurrencyID,
		MarketState:                string(q.MarketState),
		RegularMarketPrice:         reported(q.RegularMarketPrice),
		RegularMarketPreviousClose: reported(q.RegularMarketPreviousClose),
		PostMarketPrice:            reported(q.PostMarketPrice),
		PreMarketPrice:             reported(q.PreMarketPrice),
		Ask:                        reported(q.Ask),
		Bid:                        reported(q.Bid),
	}
	if raw.RegularMarketPrice != nil {
		raw.RegularMarketChange = quotes.Float(q.RegularMarketChange)
		raw.RegularMarketChangePercent = quotes.Float(q.RegularMarketChangePercent)
	}
	return raw
}

func reported(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return quotes.Float(v)
}
