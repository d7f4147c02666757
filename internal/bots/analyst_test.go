package bots

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsensusLabel(t *testing.T) {
	tests := []struct {
		score  float64
		label  string
		signal float64
	}{
		{1.0, "Strong Buy", 1.0},
		{1.4, "Strong Buy", 1.0},
		{1.7, "Buy", 0.75},
		{2.2, "Moderate Buy", 0.6},
		{2.8, "Hold", 0.5},
		{3.2, "Moderate Sell", 0.4},
		{4.5, "Sell", 0.2},
	}

	for _, tt := range tests {
		label, signal := consensusLabel(tt.score)
		assert.Equal(t, tt.label, label, "score %.1f", tt.score)
		assert.Equal(t, tt.signal, signal, "score %.1f", tt.score)
	}
}

func TestAnalystBotSkipsCryptoAndForex(t *testing.T) {
	bot := NewAnalystBot(nil, nil, zerolog.Nop())

	meta := metaFor("BTC-USD")
	result, err := bot.Fetch(context.Background(), "BTC-USD", meta)
	require.NoError(t, err)
	assert.Empty(t, result.SignalInputs)
	assert.Contains(t, result.Summary, "not applicable")
	assert.False(t, result.Failed())
}

func TestSentimentScalingStaysMild(t *testing.T) {
	// A unanimous strong-buy consensus maps to +0.3, a sell to -0.18 -
	// analyst sentiment never overwhelms news sentiment.
	_, buySignal := consensusLabel(1.0)
	_, sellSignal := consensusLabel(4.0)
	assert.InDelta(t, 0.3, (buySignal-0.5)*0.6, 0.001)
	assert.InDelta(t, -0.18, (sellSignal-0.5)*0.6, 0.001)
}
