// Package universe reads the asset metadata published by the external
// ingestion pipeline and the persisted user watchlist.
package universe

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/marketbrain/research-engine/internal/cache"
	"github.com/marketbrain/research-engine/internal/domain"
	"github.com/marketbrain/research-engine/internal/tiers"
)

// Loader reads universe state from the cache
type Loader struct {
	cache cache.Client
	log   zerolog.Logger
}

// NewLoader creates a universe loader
func NewLoader(c cache.Client, log zerolog.Logger) *Loader {
	return &Loader{cache: c, log: log.With().Str("component", "universe").Logger()}
}

// Assets returns the published universe keyed by ticker. When the
// ingestion feed has not published yet, the static tier-1 seeds stand
// in so scheduled sweeps still have something to work on.
func (l *Loader) Assets(ctx context.Context) map[string]domain.AssetMeta {
	var assets []domain.AssetMeta
	found, err := l.cache.Get(ctx, cache.UniverseKey, &assets)
	if err != nil {
		l.log.Warn().Err(err).Msg("Universe load failed")
	}

	out := make(map[string]domain.AssetMeta)
	if found {
		for _, a := range assets {
			if a.Ticker == "" {
				continue
			}
			out[strings.ToUpper(a.Ticker)] = a
		}
	}
	if len(out) > 0 {
		return out
	}

	// Fallback: static tier-1 seeds with placeholder metadata
	for _, s := range tiers.Tier1Static {
		out[s] = FallbackMeta(s)
	}
	return out
}

// Watchlist returns the persisted watchlist symbols, or nil when none
// is stored or the cache is unreachable.
func (l *Loader) Watchlist(ctx context.Context) []string {
	var symbols []string
	found, err := l.cache.Get(ctx, cache.WatchlistKey, &symbols)
	if err != nil {
		l.log.Warn().Err(err).Msg("Watchlist load failed")
		return nil
	}
	if !found {
		return nil
	}
	return symbols
}

// FallbackMeta builds placeholder metadata for a symbol the universe
// feed does not know about.
func FallbackMeta(symbol string) domain.AssetMeta {
	return domain.AssetMeta{
		Ticker:    strings.ToUpper(symbol),
		Sector:    "Unknown",
		QuoteType: domain.QuoteEquity,
	}
}
