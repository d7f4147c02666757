// Package fred is a client for FRED series observations: the real
// Federal Reserve economic data behind the macro bot.
package fred

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

const baseURL = "https://api.stlouisfed.org/fred/series/observations"

// Series identifiers the macro bot tracks
const (
	SeriesFedFunds     = "FEDFUNDS"
	SeriesCPI          = "CPIAUCSL"
	SeriesGDP          = "GDP"
	SeriesUnemployment = "UNRATE"
	SeriesTreasury10Y  = "DGS10"
)

type observationsResponse struct {
	Observations []struct {
		Value string `json:"value"`
	} `json:"observations"`
}

// Client is a FRED API client
type Client struct {
	apiKey string
	client *http.Client
	log    zerolog.Logger
}

// NewClient creates a new FRED client
func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log.With().Str("client", "fred").Logger(),
	}
}

// Configured reports whether an API key is present
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Observations fetches the last N numeric observations for a series,
// newest first. FRED publishes "." for missing values; those rows are
// skipped.
func (c *Client) Observations(ctx context.Context, seriesID string, limit int) ([]float64, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("FRED_KEY not set")
	}

	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")
	params.Set("sort_order", "desc")
	params.Set("limit", fmt.Sprint(limit))
	params.Set("observation_start", "2020-01-01")

	var resp observationsResponse
	if err := httputil.GetJSON(ctx, c.client, baseURL, params, nil, &resp, c.log); err != nil {
		return nil, fmt.Errorf("fred %s: %w", seriesID, err)
	}

	var values []float64
	for _, obs := range resp.Observations {
		v, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("fred %s: no numeric observations", seriesID)
	}
	return values, nil
}
