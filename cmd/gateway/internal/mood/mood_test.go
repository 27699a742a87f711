package mood_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethanlane1234/financial-literacy/cmd/gateway/internal/mood"
	"github.com/ethanlane1234/financial-literacy/pkg/models"
	"github.com/ethanlane1234/financial-literacy/pkg/quotes"
)

func regular(pcts ...float64) map[models.Symbol]models.Quote {
	out := make(map[models.Symbol]models.Quote, len(pcts))
	for i, p := range pcts {
		sym := models.Symbol(fmt.Sprintf("S%d", i))
		out[sym] = models.Quote{Symbol: sym, MarketState: models.MarketRegular, ChangePct: quotes.Float(p)}
	}
	return out
}

func TestCompute_FlatMedian(t *testing.T) {
	got := mood.Compute(regular(-2, -1, 0, 1, 2))
	require.Equal(t, mood.Flat, got.State)
	require.Equal(t, 0.0, got.MedianPct)
	require.Equal(t, 0.0, got.Score)
}

func TestCompute_SingleSymbolDownHard(t *testing.T) {
	got := mood.Compute(regular(-1.0))
	require.Equal(t, mood.DownHard, got.State)
	require.Equal(t, -1.0, got.MedianPct)
	require.InDelta(t, -0.667, got.Score, 0.001)
}

func TestCompute_EvenCountAveragesMiddle(t *testing.T) {
	got := mood.Compute(regular(0.2, 0.6, 1.0, -3))
	require.InDelta(t, 0.4, got.MedianPct, 1e-9)
	require.Equal(t, mood.Up, got.State)
}

func TestCompute_ScoreClamps(t *testing.T) {
	require.Equal(t, 1.0, mood.Compute(regular(5)).Score)
	require.Equal(t, -1.0, mood.Compute(regular(-9)).Score)
}

func TestCompute_UnknownWhenNothingContributes(t *testing.T) {
	got := mood.Compute(map[models.Symbol]models.Quote{
		"AAPL": {Symbol: "AAPL", Price: quotes.Float(100)},
	})
	require.Equal(t, mood.Summary{State: mood.Unknown}, got)

	require.Equal(t, mood.Unknown, mood.Compute(nil).State)
}

func TestClassify_Boundaries(t *testing.T) {
	cases := map[float64]mood.State{
		-0.8:  mood.DownHard,
		-0.79: mood.Down,
		-0.3:  mood.Down,
		-0.29: mood.Flat,
		0.29:  mood.Flat,
		0.3:   mood.Up,
		0.79:  mood.Up,
		0.8:   mood.UpStrong,
	}
	for in, want := range cases {
		require.Equal(t, want, mood.Classify(in), "median %v", in)
	}
}

func TestPercentMove_Precedence(t *testing.T) {
	cases := []struct {
		name string
		q    models.Quote
		want float64
		ok   bool
	}{
		{
			name: "regular session uses live change",
			q:    models.Quote{MarketState: models.MarketRegular, ChangePct: quotes.Float(1.2), PreviousClose: quotes.Float(100), PostPrice: quotes.Float(110)},
			want: 1.2, ok: true,
		},
		{
			name: "post market against previous close",
			q:    models.Quote{MarketState: models.MarketPost, ChangePct: quotes.Float(1.2), PreviousClose: quotes.Float(100), PostPrice: quotes.Float(102), PrePrice: quotes.Float(90)},
			want: 2, ok: true,
		},
		{
			name: "pre market against previous close",
			q:    models.Quote{MarketState: models.MarketPre, PreviousClose: quotes.Float(200), PrePrice: quotes.Float(199)},
			want: -0.5, ok: true,
		},
		{
			name: "zero previous close falls back to raw change",
			q:    models.Quote{MarketState: models.MarketClosed, ChangePct: quotes.Float(-0.4), PreviousClose: quotes.Float(0), PostPrice: quotes.Float(5)},
			want: -0.4, ok: true,
		},
		{
			name: "regular without change uses extended prices",
			q:    models.Quote{MarketState: models.MarketRegular, PreviousClose: quotes.Float(100), PostPrice: quotes.Float(101)},
			want: 1, ok: true,
		},
		{
			name: "nothing usable",
			q:    models.Quote{MarketState: models.MarketClosed, Price: quotes.Float(10)},
			ok:   false,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := mood.PercentMove(c.q)
			require.Equal(t, c.ok, ok)
			if ok {
				require.InDelta(t, c.want, got, 1e-9)
			}
		})
	}
}
