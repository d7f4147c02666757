package bots

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderUnitNormalisation(t *testing.T) {
	// FMP reports growth as a decimal fraction, Yahoo sometimes as a
	// scaled percentage: both must land as percentages.
	assert.Equal(t, 15.0, asPct(0.15, 5))
	assert.Equal(t, 15.0, asPct(15.0, 5))
	assert.Equal(t, -12.0, asPct(-0.12, 5))

	// Yahoo reports debt-to-equity as a percentage (85 meaning 0.85)
	assert.Equal(t, 0.85, asRatio(85))
	assert.Equal(t, 0.85, asRatio(0.85))

	// Short interest fractions scale to percent of float
	assert.InDelta(t, 4.2, asPctOfFloat(0.042), 0.001)
	assert.Equal(t, 4.2, asPctOfFloat(4.2))
}

func TestMergeFundamentalsFillsGapsOnly(t *testing.T) {
	rev := 0.2
	margin := 0.1
	otherRev := 0.9

	dst := &fundamentalsData{revGrowth: &rev, source: "FMP"}
	src := &fundamentalsData{revGrowth: &otherRev, profitMargins: &margin}
	mergeFundamentals(dst, src)

	assert.Equal(t, 0.2, *dst.revGrowth, "existing values are kept")
	assert.Equal(t, 0.1, *dst.profitMargins, "gaps are filled")
	assert.Equal(t, "FMP", dst.source)
}

func TestFundamentalsBotSkipsCryptoAndForex(t *testing.T) {
	bot := NewFundamentalsBot(nil, nil, zerolog.Nop())

	for _, ticker := range []string{"BTC-USD", "EURUSD=X"} {
		result, err := bot.Fetch(context.Background(), ticker, metaFor(ticker))
		require.NoError(t, err)
		assert.Empty(t, result.SignalInputs, ticker)
		assert.False(t, result.Failed())
	}
}

func TestSectorPETableIsPositive(t *testing.T) {
	for sector, pe := range sectorPE {
		assert.Greater(t, pe, 0.0, sector)
	}
}
