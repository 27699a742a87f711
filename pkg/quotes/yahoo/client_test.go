package yahoo_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ethanlane1234/financial-literacy/pkg/models"
	"github.com/ethanlane1234/financial-literacy/pkg/quotes"
	"github.com/ethanlane1234/financial-literacy/pkg/quotes/yahoo"
)

func jsonResponse(t *testing.T, status int, v any) *http.Response {
	t.Helper()
	buffer := &bytes.Buffer{}
	require.NoError(t, json.NewEncoder(buffer).Encode(v))
	return &http.Response{StatusCode: status, Body: io.NopCloser(buffer)}
}

func TestFetch_BuildsBatchedRequest(t *testing.T) {
	t.Parallel()

	// Arrange: a mock client that inspects the outgoing request.
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "https://example.test/v7/finance/quote", req.URL.Scheme+"://"+req.URL.Host+req.URL.Path)
			require.Equal(t, "AAPL,MSFT", req.URL.Query().Get("symbols"))
			require.Equal(t, "application/json", req.Header.Get("Accept"))
			require.Equal(t, "yes", req.Header.Get("X-Test"))

			var body quotes.QuoteResponse
			body.QuoteResponse.Result = []quotes.RawQuote{
				{Symbol: "AAPL", RegularMarketPrice: quotes.Float(150), MarketState: "REGULAR"},
			}
			return jsonResponse(t, http.StatusOK, body), nil
		}).
		Times(1)

	client := yahoo.NewClient(
		yahoo.WithBaseURL("https://example.test/"),
		yahoo.WithHTTPClient(httpClient),
		yahoo.WithHeader(http.Header{"X-Test": []string{"yes"}}),
	)

	// Act
	got, err := client.Fetch(t.Context(), []models.Symbol{"AAPL", "MSFT"})

	// Assert: the provider omitted MSFT, which is not an error.
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "AAPL", got[0].Symbol)
	require.Equal(t, 150.0, *got[0].RegularMarketPrice)
	require.Nil(t, got[0].PostMarketPrice)
}

func TestFetch_EmptySymbolsSkipsRequest(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).Times(0)

	client := yahoo.NewClient(yahoo.WithHTTPClient(httpClient))
	got, err := client.Fetch(t.Context(), nil)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestFetch_Non2xxIsUpstreamError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(&http.Response{StatusCode: http.StatusTooManyRequests, Body: io.NopCloser(strings.NewReader("slow down"))}, nil)

	client := yahoo.NewClient(yahoo.WithHTTPClient(httpClient))
	_, err := client.Fetch(t.Context(), []models.Symbol{"AAPL"})
	require.ErrorIs(t, err, yahoo.ErrUpstream)
}

func TestFetch_TransportError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).Return(nil, errors.New("connection refused"))

	client := yahoo.NewClient(yahoo.WithHTTPClient(httpClient))
	_, err := client.Fetch(t.Context(), []models.Symbol{"AAPL"})
	require.Error(t, err)
}

func TestFetch_ErrorEnvelope(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"quoteResponse":{"result":[],"error":{"code":"Unauthorized","description":"Invalid Crumb"}}}`)
	}))
	defer srv.Close()

	client := yahoo.NewClient(yahoo.WithBaseURL(srv.URL), yahoo.WithHTTPClient(srv.Client()))
	_, err := client.Fetch(t.Context(), []models.Symbol{"AAPL"})
	require.ErrorIs(t, err, yahoo.ErrUpstream)
	require.Contains(t, err.Error(), "Invalid Crumb")
}

func TestFetch_MalformedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"quoteResponse":`)
	}))
	defer srv.Close()

	client := yahoo.NewClient(yahoo.WithBaseURL(srv.URL), yahoo.WithHTTPClient(srv.Client()))
	_, err := client.Fetch(t.Context(), []models.Symbol{"AAPL"})
	require.Error(t, err)
}
