// Package gnews is a thin client for the GNews search API.
// Free tier allows 100 requests/day: callers are expected to sit
// behind the gnews rate-limit bucket.
package gnews

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/marketbrain/research-engine/internal/clients/httputil"
)

const baseURL = "https://gnews.io/api/v4/search"

// Article is one headline returned by the search API
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PublishedAt string `json:"publishedAt"`
}

type searchResponse struct {
	Articles []Article `json:"articles"`
}

// Client is a GNews API client
type Client struct {
	apiKey string
	client *http.Client
	log    zerolog.Logger
}

// NewClient creates a new GNews client
func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log.With().Str("client", "gnews").Logger(),
	}
}

// Configured reports whether an API key is present
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Search returns up to max recent English articles for the query,
// newest first.
func (c *Client) Search(ctx context.Context, query string, max int) ([]Article, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("GNEWS_KEY not set")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("token", c.apiKey) // GNews uses 'token' not 'apiKey'
	params.Set("lang", "en")
	params.Set("sortby", "publishedAt")
	params.Set("max", fmt.Sprint(max))

	var resp searchResponse
	if err := httputil.GetJSON(ctx, c.client, baseURL, params, nil, &resp, c.log); err != nil {
		return nil, fmt.Errorf("gnews search: %w", err)
	}
	return resp.Articles, nil
}
