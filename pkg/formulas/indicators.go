package formulas

import (
	"github.com/markcheno/go-talib"
)

// SMA returns the simple moving average over the last `period` closes,
// or nil when there is not enough history.
func SMA(closes []float64, period int) *float64 {
	if len(closes) < period {
		return nil
	}
	out := talib.Sma(closes, period)
	v := out[len(out)-1]
	if isNaN(v) {
		return nil
	}
	return &v
}

// Bollinger returns the (upper, middle, lower) Bollinger Bands for the
// final bar using a 2-sigma envelope. Returns nils with insufficient data.
func Bollinger(closes []float64, period int) (upper, middle, lower *float64) {
	if len(closes) < period {
		return nil, nil, nil
	}
	u, m, l := talib.BBands(closes, period, 2.0, 2.0, talib.SMA)
	uv, mv, lv := u[len(u)-1], m[len(m)-1], l[len(l)-1]
	if isNaN(uv) || isNaN(mv) || isNaN(lv) {
		return nil, nil, nil
	}
	return &uv, &mv, &lv
}

// RSI calculates the Relative Strength Index for the final bar.
//
// RSI Formula:
//
//	RSI = 100 - (100 / (1 + RS))
//	where RS = Average Gain / Average Loss over N periods
func RSI(closes []float64, length int) *float64 {
	if len(closes) < length+1 {
		return nil
	}
	rsi := talib.Rsi(closes, length)
	if len(rsi) > 0 && !isNaN(rsi[len(rsi)-1]) {
		result := rsi[len(rsi)-1]
		return &result
	}
	return nil
}

// ATR returns a simple average true range over the trailing `period`
// bars, approximated as the mean high-low span of that window.
func ATR(highs, lows []float64, period int) *float64 {
	if len(highs) < period || len(lows) < period {
		return nil
	}
	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += highs[len(highs)-i] - lows[len(lows)-i]
	}
	v := sum / float64(period)
	return &v
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
