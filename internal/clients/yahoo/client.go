// Package yahoo is a client for the unofficial Yahoo Finance v8 chart
// and v10 quoteSummary endpoints. Yahoo is the workhorse fallback for
// nearly every bot, so callers sit behind the yahoo rate bucket and a
// browser-looking User-Agent keeps the endpoints friendly.
package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/marketbrain/research-engine/internal/clients/httputil"
)

const (
	chartURL   = "https://query1.finance.yahoo.com/v8/finance/chart/"
	summaryURL = "https://query2.finance.yahoo.com/v10/finance/quoteSummary/"
)

var headers = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	"Accept":     "application/json",
}

// Client is a Yahoo Finance API client
type Client struct {
	client *http.Client
	log    zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		client: &http.Client{Timeout: 12 * time.Second},
		log:    log.With().Str("client", "yahoo").Logger(),
	}
}

// SetTransport overrides the HTTP transport. Tests use this to point
// the client at a local server.
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.client.Transport = rt
}

// Chart fetches daily OHLCV history for a symbol over the given range
// (e.g. "10d", "1y"). Null bars are dropped.
func (c *Client) Chart(ctx context.Context, symbol, dataRange string) (*OHLCV, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", dataRange)

	var resp chartResponse
	if err := httputil.GetJSON(ctx, c.client, chartURL+url.PathEscape(symbol), params, headers, &resp, c.log); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: no data returned", symbol)
	}

	result := resp.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	out := &OHLCV{
		FiftyTwoWeekHigh: result.Meta.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  result.Meta.FiftyTwoWeekLow,
	}
	for i := range quote.Close {
		if quote.Close[i] == nil {
			continue
		}
		out.Closes = append(out.Closes, *quote.Close[i])
		if i < len(quote.High) && quote.High[i] != nil {
			out.Highs = append(out.Highs, *quote.High[i])
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			out.Lows = append(out.Lows, *quote.Low[i])
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			out.Volumes = append(out.Volumes, *quote.Volume[i])
		}
	}
	return out, nil
}

// QuoteSummary fetches the requested quoteSummary modules for a symbol
func (c *Client) QuoteSummary(ctx context.Context, symbol string, modules []string) (*Summary, error) {
	params := url.Values{}
	params.Set("modules", strings.Join(modules, ","))

	var resp summaryResponse
	if err := httputil.GetJSON(ctx, c.client, summaryURL+url.PathEscape(symbol), params, headers, &resp, c.log); err != nil {
		return nil, fmt.Errorf("yahoo quoteSummary %s: %w", symbol, err)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("yahoo quoteSummary %s: no data returned", symbol)
	}
	return &resp.QuoteSummary.Result[0], nil
}
