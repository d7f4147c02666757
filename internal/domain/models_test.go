package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssetType(t *testing.T) {
	tests := []struct {
		name string
		meta AssetMeta
		want string
	}{
		{
			name: "equity quote type",
			meta: AssetMeta{Ticker: "AAPL", QuoteType: QuoteEquity},
			want: AssetStock,
		},
		{
			name: "crypto quote type",
			meta: AssetMeta{Ticker: "BTC", QuoteType: QuoteCrypto},
			want: AssetCrypto,
		},
		{
			name: "crypto ticker suffix without quote type",
			meta: AssetMeta{Ticker: "ETH-USD"},
			want: AssetCrypto,
		},
		{
			name: "forex pair",
			meta: AssetMeta{Ticker: "GBPUSD=X", QuoteType: QuoteForex},
			want: AssetForex,
		},
		{
			name: "forex ticker shape only",
			meta: AssetMeta{Ticker: "EURUSD=X"},
			want: AssetForex,
		},
		{
			name: "etf",
			meta: AssetMeta{Ticker: "SPY", QuoteType: QuoteETF},
			want: AssetETF,
		},
		{
			name: "future quote type",
			meta: AssetMeta{Ticker: "GC", QuoteType: QuoteFuture},
			want: AssetCommodity,
		},
		{
			name: "future ticker shape",
			meta: AssetMeta{Ticker: "CL=F"},
			want: AssetCommodity,
		},
		{
			name: "crypto sector fallback",
			meta: AssetMeta{Ticker: "COIN2", Sector: "Crypto"},
			want: AssetCrypto,
		},
		{
			name: "forex sector fallback",
			meta: AssetMeta{Ticker: "FX1", Sector: "Forex"},
			want: AssetForex,
		},
		{
			name: "unknown defaults to stock",
			meta: AssetMeta{Ticker: "SHEL.L"},
			want: AssetStock,
		},
		{
			name: "crypto wins over etf",
			meta: AssetMeta{Ticker: "BTC-USD", QuoteType: QuoteETF},
			want: AssetCrypto,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.meta.AssetType())
		})
	}
}

func TestIsUS(t *testing.T) {
	assert.True(t, IsUS("AAPL"))
	assert.True(t, IsUS("BRK.B"))
	assert.False(t, IsUS("SHEL.L"))
	assert.False(t, IsUS("AIR.PA"))
	assert.False(t, IsUS("SAP.DE"))
	assert.False(t, IsUS("ASML.AS"))
	assert.False(t, IsUS("SHOP.TO"))
	assert.False(t, IsUS("BHP.AX"))
	assert.False(t, IsUS("GBPUSD=X"))
	assert.False(t, IsUS("BTC-USD"))
}

func TestIsUK(t *testing.T) {
	assert.True(t, IsUK("SHEL.L"))
	assert.True(t, IsUK("AZN.IL"))
	assert.False(t, IsUK("AAPL"))
	assert.False(t, IsUK("SAP.DE"))
}
