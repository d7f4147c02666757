// Package alphavantage is a minimal Alpha Vantage client. The free
// tier allows 25 requests/day, so this is strictly a last-resort
// earnings fallback behind the alpha_vantage bucket.
package alphavantage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/marketbrain/research-engine/internal/clients/httputil"
)

const baseURL = "https://www.alphavantage.co/query"

// Client is an Alpha Vantage API client
type Client struct {
	apiKey string
	client *http.Client
	log    zerolog.Logger
}

// NewClient creates a new Alpha Vantage client
func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		client: &http.Client{Timeout: 12 * time.Second},
		log:    log.With().Str("client", "alphavantage").Logger(),
	}
}

// Configured reports whether an API key is present
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type earningsResponse struct {
	QuarterlyEarnings []struct {
		SurprisePercentage string `json:"surprisePercentage"`
	} `json:"quarterlyEarnings"`
}

// QuarterlySurprises returns recent quarterly EPS surprise percentages,
// newest first. Unparseable rows are skipped.
func (c *Client) QuarterlySurprises(ctx context.Context, symbol string, limit int) ([]float64, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("ALPHA_VANTAGE_KEY not set")
	}

	params := url.Values{}
	params.Set("function", "EARNINGS")
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)

	var resp earningsResponse
	if err := httputil.GetJSON(ctx, c.client, baseURL, params, nil, &resp, c.log); err != nil {
		return nil, fmt.Errorf("alphavantage earnings %s: %w", symbol, err)
	}

	var surprises []float64
	for _, q := range resp.QuarterlyEarnings {
		if len(surprises) >= limit {
			break
		}
		v, err := strconv.ParseFloat(q.SurprisePercentage, 64)
		if err != nil {
			continue
		}
		surprises = append(surprises, v)
	}
	return surprises, nil
}
