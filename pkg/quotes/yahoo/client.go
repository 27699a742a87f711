package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ethanlane1234/financial-literacy/pkg/models"
	"github.com/ethanlane1234/financial-literacy/pkg/quotes"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com"
	quotePath      = "/v7/finance/quote"
	userAgent      = "networth-game/1.0"
	maxBodyBytes   = 4 << 20
)

// ErrUpstream is returned when the provider answers with a non-2xx status or
// an error envelope.
var ErrUpstream = errors.New("yahoo: upstream error")

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=yahoo_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a quotes.Source for the Yahoo Finance v7 quote endpoint.
type Client struct {
	// baseURL is the scheme and host the quote path is appended to.
	baseURL string
	// httpClient performs the requests.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
}

var _ quotes.Source = (*Client)(nil)

// Option is a configuration option for the client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

func NewClient(options ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	c.header.Set("User-Agent", userAgent)
	c.header.Set("Accept", "application/json")
	for _, option := range options {
		option(c)
	}
	return c
}

// Fetch asks for every symbol in one batched request.
func (c *Client) Fetch(ctx context.Context, symbols []models.Symbol) ([]quotes.RawQuote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	q := url.Values{}
	q.Set("symbols", strings.Join(models.Strings(symbols), ","))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+quotePath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, values := range c.header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var out quotes.QuoteResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode quote response: %w", err)
	}
	if e := out.QuoteResponse.Error; e != nil {
		return out.QuoteResponse.Result, fmt.Errorf("%w: %s: %s", ErrUpstream, e.Code, e.Description)
	}
	return out.QuoteResponse.Result, nil
}
