// Package edgar searches SEC EDGAR full-text filing index for Form 4
// insider transactions. No API key required; the SEC asks for a
// descriptive User-Agent and ~10 req/s max.
package edgar

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/marketbrain/research-engine/internal/clients/httputil"
)

const searchURL = "https://efts.sec.gov/LATEST/search-index"

var headers = map[string]string{
	"User-Agent": "MarketBrain Research Engine contact@marketbrain.app",
	"Accept":     "application/json",
}

// Filing is one Form 4 hit from the full-text search
type Filing struct {
	Description    string
	DisplayNames   []string
	PeriodOfReport string
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source struct {
				FileDescription string   `json:"file_description"`
				DisplayNames    []string `json:"display_names"`
				PeriodOfReport  string   `json:"period_of_report"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Client is an SEC EDGAR search client
type Client struct {
	client *http.Client
	log    zerolog.Logger
}

// NewClient creates a new EDGAR client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		client: &http.Client{Timeout: 12 * time.Second},
		log:    log.With().Str("client", "edgar").Logger(),
	}
}

// SearchForm4 returns Form 4 filings mentioning the ticker filed in
// the [start, end] window, most relevant first.
func (c *Client) SearchForm4(ctx context.Context, ticker string, start, end time.Time) ([]Filing, error) {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("%q", ticker))
	params.Set("dateRange", "custom")
	params.Set("startdt", start.Format("2006-01-02"))
	params.Set("enddt", end.Format("2006-01-02"))
	params.Set("forms", "4")

	var resp searchResponse
	if err := httputil.GetJSON(ctx, c.client, searchURL, params, headers, &resp, c.log); err != nil {
		return nil, fmt.Errorf("edgar search %s: %w", ticker, err)
	}

	filings := make([]Filing, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		filings = append(filings, Filing{
			Description:    hit.Source.FileDescription,
			DisplayNames:   hit.Source.DisplayNames,
			PeriodOfReport: hit.Source.PeriodOfReport,
		})
	}
	return filings, nil
}
