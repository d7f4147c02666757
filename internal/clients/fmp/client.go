// Package fmp is a client for Financial Modeling Prep. FMP has the
// best LSE coverage of the free providers, so UK tickers route here
// first for earnings and fundamentals.
package fmp

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

const baseURL = "https://financialmodelingprep.com/api/v3"

// Client is an FMP API client
type Client struct {
	apiKey string
	client *http.Client
	log    zerolog.Logger
}

// NewClient creates a new FMP client
func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		client: &http.Client{Timeout: 12 * time.Second},
		log:    log.With().Str("client", "fmp").Logger(),
	}
}

// Configured reports whether an API key is present
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Symbol converts an internal ticker to FMP's symbology (LSE listings
// use the .LSE suffix instead of Yahoo's .L / .IL).
func Symbol(ticker string) string {
	t := strings.TrimSuffix(ticker, ".IL")
	t = strings.TrimSuffix(t, ".L")
	if t != ticker {
		return t + ".LSE"
	}
	return ticker
}

func (c *Client) get(ctx context.Context, path string, extra url.Values, dest interface{}) error {
	if c.apiKey == "" {
		return fmt.Errorf("FMP_KEY not set")
	}
	params := url.Values{}
	for k, vs := range extra {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	params.Set("apikey", c.apiKey)
	if err := httputil.GetJSON(ctx, c.client, baseURL+path, params, nil, dest, c.log); err != nil {
		return fmt.Errorf("fmp %s: %w", path, err)
	}
	return nil
}

// CalendarEvent is one scheduled earnings release
type CalendarEvent struct {
	Date string `json:"date"`
}

// EarningsCalendar lists upcoming (and recent) earnings dates
func (c *Client) EarningsCalendar(ctx context.Context, ticker string) ([]CalendarEvent, error) {
	var events []CalendarEvent
	params := url.Values{"symbol": {Symbol(ticker)}}
	if err := c.get(ctx, "/earning_calendar", params, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Surprise is one quarter's EPS result against the street estimate
type Surprise struct {
	Date      string   `json:"date"`
	Actual    *float64 `json:"actualEarningResult"`
	Estimated *float64 `json:"estimatedEarning"`
}

// EarningsSurprises lists recent quarterly EPS surprises, newest first
func (c *Client) EarningsSurprises(ctx context.Context, ticker string) ([]Surprise, error) {
	var out []Surprise
	if err := c.get(ctx, "/earnings-surprises/"+Symbol(ticker), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// KeyMetrics is the trailing-twelve-month metric block
type KeyMetrics struct {
	RevenueGrowth *float64 `json:"revenueGrowthTTM"`
	GrossMargin   *float64 `json:"grossProfitMarginTTM"`
	NetMargin     *float64 `json:"netProfitMarginTTM"`
	DebtToEquity  *float64 `json:"debtToEquityTTM"`
	ShortRatio    *float64 `json:"shortRatioTTM"`
	PERatio       *float64 `json:"peRatioTTM"`
	ROE           *float64 `json:"roeTTM"`
	CurrentRatio  *float64 `json:"currentRatioTTM"`
}

// KeyMetricsTTM fetches the TTM key-metrics row for a ticker
func (c *Client) KeyMetricsTTM(ctx context.Context, ticker string) (*KeyMetrics, error) {
	var rows []KeyMetrics
	if err := c.get(ctx, "/key-metrics-ttm/"+Symbol(ticker), nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Growth is one period of the financial-growth statement
type Growth struct {
	RevenueGrowth *float64 `json:"revenueGrowth"`
}

// FinancialGrowth fetches the most recent growth rows
func (c *Client) FinancialGrowth(ctx context.Context, ticker string, limit int) ([]Growth, error) {
	var rows []Growth
	params := url.Values{"limit": {fmt.Sprint(limit)}}
	if err := c.get(ctx, "/financial-growth/"+Symbol(ticker), params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Recommendation aggregates analyst ratings for one month
type Recommendation struct {
	StrongBuy  int `json:"analystRatingsStrongBuy"`
	Buy        int `json:"analystRatingsBuy"`
	Hold       int `json:"analystRatingsHold"`
	Sell       int `json:"analystRatingsSell"`
	StrongSell int `json:"analystRatingsStrongSell"`
}

// Recommendations fetches recent analyst recommendation rows
func (c *Client) Recommendations(ctx context.Context, ticker string, limit int) ([]Recommendation, error) {
	var rows []Recommendation
	params := url.Values{"limit": {fmt.Sprint(limit)}}
	if err := c.get(ctx, "/analyst-stock-recommendations/"+Symbol(ticker), params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// PriceTarget is one published analyst price target
type PriceTarget struct {
	PriceTarget *float64 `json:"priceTarget"`
}

// PriceTargets fetches recent analyst price targets
func (c *Client) PriceTargets(ctx context.Context, ticker string) ([]PriceTarget, error) {
	var rows []PriceTarget
	if err := c.get(ctx, "/price-target/"+Symbol(ticker), nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GradeAction is one upgrade/downgrade event
type GradeAction struct {
	Action         string `json:"action"`
	GradingCompany string `json:"gradingCompany"`
}

// UpgradesDowngrades fetches recent rating changes
func (c *Client) UpgradesDowngrades(ctx context.Context, ticker string, limit int) ([]GradeAction, error) {
	var rows []GradeAction
	params := url.Values{"limit": {fmt.Sprint(limit)}}
	if err := c.get(ctx, "/upgrades-downgrades/"+Symbol(ticker), params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
