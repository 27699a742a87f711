package quotes_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethanlane1234/financial-literacy/pkg/models"
	"github.com/ethanlane1234/financial-literacy/pkg/quotes"
)

func TestNormalize_PricePrecedence(t *testing.T) {
	cases := []struct {
		name string
		raw  quotes.RawQuote
		want *float64
	}{
		{"regular wins over post", quotes.RawQuote{Symbol: "AAPL", RegularMarketPrice: quotes.Float(150), PostMarketPrice: quotes.Float(151)}, quotes.Float(150)},
		{"post wins over pre", quotes.RawQuote{Symbol: "AAPL", PostMarketPrice: quotes.Float(151), PreMarketPrice: quotes.Float(149)}, quotes.Float(151)},
		{"pre wins over ask", quotes.RawQuote{Symbol: "AAPL", PreMarketPrice: quotes.Float(149), Ask: quotes.Float(148)}, quotes.Float(149)},
		{"ask wins over bid", quotes.RawQuote{Symbol: "AAPL", Ask: quotes.Float(148), Bid: quotes.Float(147)}, quotes.Float(148)},
		{"bid last", quotes.RawQuote{Symbol: "AAPL", Bid: quotes.Float(147)}, quotes.Float(147)},
		{"zero is a price", quotes.RawQuote{Symbol: "AAPL", RegularMarketPrice: quotes.Float(0), PostMarketPrice: quotes.Float(3)}, quotes.Float(0)},
		{"nothing is absent", quotes.RawQuote{Symbol: "AAPL"}, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			q, ok := quotes.Normalize(c.raw)
			require.True(t, ok)
			if c.want == nil {
				require.Nil(t, q.Price)
				return
			}
			require.NotNil(t, q.Price)
			require.Equal(t, *c.want, *q.Price)
		})
	}
}

func TestNormalize_Defaults(t *testing.T) {
	q, ok := quotes.Normalize(quotes.RawQuote{Symbol: "msft", MarketState: "REGULAR"})
	require.True(t, ok)
	require.Equal(t, models.Symbol("MSFT"), q.Symbol)
	require.Equal(t, "USD", q.Currency)
	require.Equal(t, "MSFT", q.Name)
	require.Equal(t, models.MarketRegular, q.MarketState)

	q, _ = quotes.Normalize(quotes.RawQuote{Symbol: "MSFT", LongName: "Microsoft Corporation", Currency: "EUR"})
	require.Equal(t, "Microsoft Corporation", q.Name)
	require.Equal(t, "EUR", q.Currency)

	q, _ = quotes.Normalize(quotes.RawQuote{Symbol: "MSFT", ShortName: "Microsoft", LongName: "Microsoft Corporation"})
	require.Equal(t, "Microsoft", q.Name)
	require.Equal(t, models.MarketUnknown, q.MarketState)
}

func TestNormalize_RejectsMissingSymbol(t *testing.T) {
	_, ok := quotes.Normalize(quotes.RawQuote{RegularMarketPrice: quotes.Float(1)})
	require.False(t, ok)
}

func TestNormalize_DoesNotAliasProviderRecord(t *testing.T) {
	raw := quotes.RawQuote{Symbol: "AAPL", RegularMarketPrice: quotes.Float(150)}
	q, _ := quotes.Normalize(raw)
	*raw.RegularMarketPrice = 1
	require.Equal(t, 150.0, *q.Price)
}

func TestNormalizeAll_UpperCasesKeys(t *testing.T) {
	out := quotes.NormalizeAll([]quotes.RawQuote{
		{Symbol: "aapl", RegularMarketPrice: quotes.Float(100)},
		{Symbol: ""},
		{Symbol: "Tsla", Bid: quotes.Float(200)},
	})
	require.Len(t, out, 2)
	require.Contains(t, out, models.Symbol("AAPL"))
	require.Contains(t, out, models.Symbol("TSLA"))
}
