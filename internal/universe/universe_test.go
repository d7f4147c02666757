package universe

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbrain/research-engine/internal/cache"
	"github.com/marketbrain/research-engine/internal/domain"
)

func TestAssetsFromPublishedUniverse(t *testing.T) {
	c := cache.NewMemory()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, cache.UniverseKey, []domain.AssetMeta{
		{Ticker: "nvda", Sector: "Technology", QuoteType: "EQUITY"},
		{Ticker: "BTC-USD", QuoteType: "CRYPTOCURRENCY"},
		{Ticker: ""}, // junk rows are skipped
	}, 0))

	loader := NewLoader(c, zerolog.Nop())
	assets := loader.Assets(ctx)

	assert.Len(t, assets, 2)
	assert.Equal(t, "Technology", assets["NVDA"].Sector)
	assert.Equal(t, domain.AssetCrypto, assets["BTC-USD"].AssetType())
}

func TestAssetsFallsBackToStaticSeeds(t *testing.T) {
	loader := NewLoader(cache.NewMemory(), zerolog.Nop())
	assets := loader.Assets(context.Background())

	assert.NotEmpty(t, assets)
	meta, ok := assets["NVDA"]
	require.True(t, ok)
	assert.Equal(t, "Unknown", meta.Sector)
}

func TestWatchlist(t *testing.T) {
	c := cache.NewMemory()
	ctx := context.Background()
	loader := NewLoader(c, zerolog.Nop())

	assert.Nil(t, loader.Watchlist(ctx))

	require.NoError(t, c.Set(ctx, cache.WatchlistKey, []string{"NVDA", "GME"}, 0))
	assert.Equal(t, []string{"NVDA", "GME"}, loader.Watchlist(ctx))
}
