package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanAndStdDev(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
	assert.Equal(t, 0.0, StdDev(nil))
	assert.InDelta(t, 1.0, StdDev([]float64{1, 2, 3}), 0.001)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(3.7, -1, 1))
	assert.Equal(t, -1.0, Clamp(-5, -1, 1))
	assert.Equal(t, 0.25, Clamp(0.25, -1, 1))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.123, Round(0.12345, 3))
	assert.Equal(t, -0.123, Round(-0.12345, 3))
	assert.Equal(t, 4.5, Round(4.5, 1))
}

func TestSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	v := SMA(closes, 5)
	require.NotNil(t, v)
	assert.Equal(t, 3.0, *v)

	assert.Nil(t, SMA(closes, 6), "insufficient history returns nil")
}

func TestBollinger(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i%5) // gentle oscillation
	}
	upper, middle, lower := Bollinger(closes, 20)
	require.NotNil(t, upper)
	require.NotNil(t, middle)
	require.NotNil(t, lower)
	assert.Greater(t, *upper, *middle)
	assert.Greater(t, *middle, *lower)

	u, m, l := Bollinger(closes[:10], 20)
	assert.Nil(t, u)
	assert.Nil(t, m)
	assert.Nil(t, l)
}

func TestRSIBounds(t *testing.T) {
	rising := make([]float64, 30)
	for i := range rising {
		rising[i] = float64(100 + i)
	}
	v := RSI(rising, 14)
	require.NotNil(t, v)
	assert.Greater(t, *v, 70.0, "monotonic rise is overbought")

	falling := make([]float64, 30)
	for i := range falling {
		falling[i] = float64(100 - i)
	}
	v = RSI(falling, 14)
	require.NotNil(t, v)
	assert.Less(t, *v, 30.0, "monotonic fall is oversold")

	assert.Nil(t, RSI(rising[:10], 14))
}

func TestPivots(t *testing.T) {
	// A clean double-top/bottom shape
	highs := []float64{10, 11, 12, 15, 12, 11, 10, 11, 12, 16, 12, 11, 10, 9, 10, 11, 10}
	lows := []float64{5, 5, 5, 6, 5, 5, 4, 5, 5, 6, 5, 5, 3, 2, 3, 4, 4}

	resistance, support := Pivots(highs, lows, 3)
	assert.Contains(t, resistance, 15.0)
	assert.Contains(t, resistance, 16.0)
	assert.Contains(t, support, 2.0)
	assert.LessOrEqual(t, len(resistance), 3)
	assert.LessOrEqual(t, len(support), 3)
}

func TestATR(t *testing.T) {
	highs := make([]float64, 20)
	lows := make([]float64, 20)
	for i := range highs {
		highs[i] = 105
		lows[i] = 100
	}
	v := ATR(highs, lows, 14)
	require.NotNil(t, v)
	assert.InDelta(t, 5.0, *v, 0.001)

	assert.Nil(t, ATR(highs[:5], lows[:5], 14))
}
