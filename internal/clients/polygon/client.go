// Package polygon is a client for the Polygon.io aggregates endpoint.
// Used for US tickers only; free tier allows 5 requests/minute.
package polygon

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/marketbrain/research-engine/internal/clients/httputil"
)

const baseURL = "https://api.polygon.io/v2"

// Bar is one daily OHLCV aggregate
type Bar struct {
	Close  float64 `json:"c"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Open   float64 `json:"o"`
	Volume float64 `json:"v"`
}

type aggsResponse struct {
	Results []Bar `json:"results"`
}

// Client is a Polygon API client
type Client struct {
	apiKey string
	client *http.Client
	log    zerolog.Logger
}

// NewClient creates a new Polygon client
func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		client: &http.Client{Timeout: 12 * time.Second},
		log:    log.With().Str("client", "polygon").Logger(),
	}
}

// Configured reports whether an API key is present
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// DailyBars fetches adjusted daily aggregates for a ticker between the
// two dates (inclusive), oldest first, capped at one year of bars.
func (c *Client) DailyBars(ctx context.Context, ticker string, from, to time.Time) ([]Bar, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("POLYGON_KEY not set")
	}

	path := fmt.Sprintf("%s/aggs/ticker/%s/range/1/day/%s/%s",
		baseURL, url.PathEscape(ticker),
		from.Format("2006-01-02"), to.Format("2006-01-02"))

	params := url.Values{}
	params.Set("adjusted", "true")
	params.Set("sort", "asc")
	params.Set("limit", "365")
	params.Set("apiKey", c.apiKey)

	var resp aggsResponse
	if err := httputil.GetJSON(ctx, c.client, path, params, nil, &resp, c.log); err != nil {
		return nil, fmt.Errorf("polygon aggs %s: %w", ticker, err)
	}
	return resp.Results, nil
}
