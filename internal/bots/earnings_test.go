package bots

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbrain/research-engine/internal/clients/yahoo"
)

func TestEarningsBotSkipsNonStocks(t *testing.T) {
	bot := NewEarningsBot(nil, nil, nil, zerolog.Nop())

	for _, ticker := range []string{"BTC-USD", "EURUSD=X"} {
		result, err := bot.Fetch(context.Background(), ticker, metaFor(ticker))
		require.NoError(t, err)
		assert.Empty(t, result.SignalInputs, ticker)
		assert.Contains(t, result.Summary, "not applicable", ticker)
	}
}

// yahooSummaryServer serves a canned quoteSummary response and rewires
// a yahoo.Client at it via a proxying transport.
func yahooSummaryServer(t *testing.T, payload map[string]interface{}) *yahoo.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"quoteSummary": map[string]interface{}{
				"result": []interface{}{payload},
			},
		})
	}))
	t.Cleanup(srv.Close)

	client := yahoo.NewClient(zerolog.Nop())
	client.SetTransport(rewriteTransport{target: srv})
	return client
}

// rewriteTransport sends every request to the test server regardless
// of the original host.
type rewriteTransport struct {
	target *httptest.Server
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	req.URL.Host = strings.TrimPrefix(rt.target.URL, "http://")
	return http.DefaultTransport.RoundTrip(req)
}

func TestEarningsBotScoresYahooData(t *testing.T) {
	// Earnings in 10 days, 3 beats and 1 miss averaging +4.5%
	future := time.Now().UTC().Add(10*24*time.Hour + time.Hour)
	client := yahooSummaryServer(t, map[string]interface{}{
		"calendarEvents": map[string]interface{}{
			"earnings": map[string]interface{}{
				"earningsDate": []interface{}{map[string]interface{}{"raw": float64(future.Unix())}},
			},
		},
		"earningsHistory": map[string]interface{}{
			"history": []interface{}{
				map[string]interface{}{
					"epsActual":   map[string]interface{}{"raw": 1.10},
					"epsEstimate": map[string]interface{}{"raw": 1.00},
				},
				map[string]interface{}{
					"epsActual":   map[string]interface{}{"raw": 0.95},
					"epsEstimate": map[string]interface{}{"raw": 1.00},
				},
				map[string]interface{}{
					"epsActual":   map[string]interface{}{"raw": 1.05},
					"epsEstimate": map[string]interface{}{"raw": 1.00},
				},
				map[string]interface{}{
					"epsActual":   map[string]interface{}{"raw": 1.08},
					"epsEstimate": map[string]interface{}{"raw": 1.00},
				},
			},
		},
		"defaultKeyStatistics": map[string]interface{}{
			"shortRatio": map[string]interface{}{"raw": 1.5},
		},
	})

	bot := NewEarningsBot(nil, client, nil, zerolog.Nop())
	result, err := bot.Fetch(context.Background(), "NVDA", metaFor("NVDA"))
	require.NoError(t, err)
	require.False(t, result.Failed())

	assert.InDelta(t, 10, result.SignalInputs["daysToEarnings"], 1)
	assert.InDelta(t, 4.5, result.SignalInputs["earningsBeat"], 0.2)
	assert.InDelta(t, 0.85, result.Confidence, 0.001)
	assert.Equal(t, "Yahoo Finance", result.Source)

	// Low short ratio lands in the bull column
	joined := strings.Join(result.BullFactors, " | ")
	assert.Contains(t, joined, "low short interest")
}

func TestDaysToEarningsClampedAt90(t *testing.T) {
	future := time.Now().UTC().Add(200 * 24 * time.Hour)
	client := yahooSummaryServer(t, map[string]interface{}{
		"calendarEvents": map[string]interface{}{
			"earnings": map[string]interface{}{
				"earningsDate": []interface{}{map[string]interface{}{"raw": float64(future.Unix())}},
			},
		},
	})

	bot := NewEarningsBot(nil, client, nil, zerolog.Nop())
	result, err := bot.Fetch(context.Background(), "NVDA", metaFor("NVDA"))
	require.NoError(t, err)
	assert.Equal(t, 90.0, result.SignalInputs["daysToEarnings"])
}
