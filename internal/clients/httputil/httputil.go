// Package httputil carries the shared HTTP plumbing for provider
// clients: JSON GETs with bounded retries and linear back-off.
package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

const maxRetries = 3

// backoffBase is a variable so tests can shrink the retry delays
var backoffBase = 2 * time.Second

// RequestError carries the HTTP status of a failed provider call so
// callers can distinguish quota blocks from transient faults.
type RequestError struct {
	URL        string
	StatusCode int
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request %s returned status %d", e.URL, e.StatusCode)
}

// IsAuthOrQuota reports whether the error is a 401/403 auth or quota
// block: these are never retried.
func IsAuthOrQuota(err error) bool {
	re, ok := err.(*RequestError)
	return ok && (re.StatusCode == http.StatusUnauthorized || re.StatusCode == http.StatusForbidden)
}

// GetJSON fetches a URL with query params and decodes the JSON body
// into dest. Transient failures (5xx, timeouts, 429) retry up to three
// times with linear back-off; a 429 doubles the wait. 401/403 fail
// immediately.
func GetJSON(ctx context.Context, client *http.Client, rawURL string, params url.Values, headers map[string]string, dest interface{}, log zerolog.Logger) error {
	reqURL := rawURL
	if len(params) > 0 {
		reqURL = rawURL + "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * backoffBase
			if re, ok := lastErr.(*RequestError); ok && re.StatusCode == http.StatusTooManyRequests {
				wait *= 2
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		err := doOnce(ctx, client, reqURL, headers, dest)
		if err == nil {
			return nil
		}
		if IsAuthOrQuota(err) || ctx.Err() != nil {
			return err
		}
		lastErr = err
		log.Debug().Err(err).Int("attempt", attempt+1).Msg("Request failed, will retry")
	}
	return fmt.Errorf("failed after %d attempts: %w", maxRetries+1, lastErr)
}

func doOnce(ctx context.Context, client *http.Client, reqURL string, headers map[string]string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &RequestError{URL: req.URL.Path, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
