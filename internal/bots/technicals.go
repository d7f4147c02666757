package bots

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/marketbrain/research-engine/internal/clients/polygon"
	"github.com/marketbrain/research-engine/internal/clients/yahoo"
	"github.com/marketbrain/research-engine/internal/domain"
	"github.com/marketbrain/research-engine/internal/ratelimit"
	"github.com/marketbrain/research-engine/internal/research"
	"github.com/marketbrain/research-engine/pkg/formulas"
)

// priceHistory is the normalised OHLCV view shared by both providers
type priceHistory struct {
	closes   []float64
	highs    []float64
	lows     []float64
	yearHigh *float64
	yearLow  *float64
	source   string
}

// TechnicalLevelsBot computes moving averages, Bollinger position,
// 52-week placement, pivot levels and cross signals. Polygon serves US
// tickers, Yahoo everything else. Purely factor-producing: it emits
// no signal inputs.
type TechnicalLevelsBot struct {
	polygon *polygon.Client
	yahoo   *yahoo.Client
	now     func() time.Time
	log     zerolog.Logger
}

// NewTechnicalLevelsBot creates the technical levels bot
func NewTechnicalLevelsBot(polygonClient *polygon.Client, yahooClient *yahoo.Client, log zerolog.Logger) *TechnicalLevelsBot {
	return &TechnicalLevelsBot{
		polygon: polygonClient,
		yahoo:   yahooClient,
		now:     time.Now,
		log:     log.With().Str("bot", NameTechnicalLevels).Logger(),
	}
}

func (b *TechnicalLevelsBot) Name() string            { return NameTechnicalLevels }
func (b *TechnicalLevelsBot) Section() string         { return research.SectionTechnicals }
func (b *TechnicalLevelsBot) CacheTTL() time.Duration { return time.Hour }
func (b *TechnicalLevelsBot) Providers() []string {
	return []string{ratelimit.ProviderPolygon, ratelimit.ProviderYahoo}
}

func (b *TechnicalLevelsBot) Fetch(ctx context.Context, symbol string, meta domain.AssetMeta) (*Result, error) {
	var history *priceHistory
	if domain.IsUS(symbol) && b.polygon.Configured() {
		history = b.fetchPolygon(ctx, symbol)
	}
	if history == nil {
		history = b.fetchYahoo(ctx, symbol)
	}
	if history == nil {
		return emptyResult(NameTechnicalLevels, symbol, "Price history unavailable"), nil
	}

	return b.analyse(symbol, history), nil
}

// analyse runs the indicator battery over a price history. Split from
// Fetch so tests can feed synthetic series.
func (b *TechnicalLevelsBot) analyse(symbol string, history *priceHistory) *Result {
	closes, highs, lows := history.closes, history.highs, history.lows
	current := closes[len(closes)-1]

	ma20 := formulas.SMA(closes, 20)
	ma50 := formulas.SMA(closes, 50)
	ma200 := formulas.SMA(closes, 200)
	bbUpper, _, bbLower := formulas.Bollinger(closes, 20)
	rsi := formulas.RSI(closes, 14)

	// 52-week range position
	yearHigh := maxTail(highs, 252)
	yearLow := minTail(lows, 252)
	if history.yearHigh != nil {
		yearHigh = *history.yearHigh
	}
	if history.yearLow != nil {
		yearLow = *history.yearLow
	}
	yearPos := 50.0
	if yearRange := yearHigh - yearLow; yearRange > 0 {
		yearPos = (current - yearLow) / yearRange * 100
	}

	// Pivot support/resistance over a 5-bar window
	resistanceLevels, supportLevels := formulas.Pivots(highs, lows, 5)
	nearestSupport := yearLow
	for _, s := range supportLevels {
		if s < current && s > nearestSupport {
			nearestSupport = s
		}
	}
	nearestResistance := yearHigh
	for i := len(resistanceLevels) - 1; i >= 0; i-- {
		if r := resistanceLevels[i]; r > current && r < nearestResistance {
			nearestResistance = r
		}
	}
	supportPct := (current - nearestSupport) / current * 100
	resistancePct := (nearestResistance - current) / current * 100

	// Golden/death cross: MA50 crossing MA200 between the last two bars
	goldenCross, deathCross := false, false
	if ma50 != nil && ma200 != nil && len(closes) > 200 {
		prev := closes[:len(closes)-1]
		prevMA50 := formulas.SMA(prev, 50)
		prevMA200 := formulas.SMA(prev, 200)
		if prevMA50 != nil && prevMA200 != nil {
			if *prevMA50 < *prevMA200 && *ma50 > *ma200 {
				goldenCross = true
			} else if *prevMA50 > *prevMA200 && *ma50 < *ma200 {
				deathCross = true
			}
		}
	}

	var bullFactors, bearFactors []string

	switch {
	case yearPos >= 90:
		bullFactors = append(bullFactors, fmt.Sprintf("Near 52-week high (%.0fth percentile) — strong momentum", yearPos))
	case yearPos >= 70:
		bullFactors = append(bullFactors, fmt.Sprintf("Upper range of 52-week channel (%.0fth percentile)", yearPos))
	case yearPos <= 15:
		bearFactors = append(bearFactors, fmt.Sprintf("Near 52-week low (%.0fth percentile) — potential value or falling knife", yearPos))
	case yearPos <= 35:
		bearFactors = append(bearFactors, fmt.Sprintf("Lower 52-week range (%.0fth percentile)", yearPos))
	}

	if ma50 != nil {
		pct := (current - *ma50) / *ma50 * 100
		if pct > 0 {
			bullFactors = append(bullFactors, fmt.Sprintf("Trading %.1f%% above MA50 — uptrend confirmed", pct))
		} else {
			bearFactors = append(bearFactors, fmt.Sprintf("Trading %.1f%% below MA50 — downtrend", -pct))
		}
	}

	if ma200 != nil {
		if current > *ma200 {
			bullFactors = append(bullFactors, "Above 200-day MA — long-term uptrend intact")
		} else {
			bearFactors = append(bearFactors, "Below 200-day MA — long-term downtrend")
		}
	}

	if goldenCross {
		bullFactors = append(bullFactors, "Golden cross (MA50 > MA200) — strong technical buy signal")
	}
	if deathCross {
		bearFactors = append(bearFactors, "Death cross (MA50 < MA200) — strong technical sell signal")
	}

	if supportPct < 3 {
		bullFactors = append(bullFactors, fmt.Sprintf("Near support at %.2f — potential bounce zone", nearestSupport))
	}
	if resistancePct < 3 {
		bearFactors = append(bearFactors, fmt.Sprintf("Near resistance at %.2f — potential ceiling", nearestResistance))
	} else if resistancePct > 15 {
		bullFactors = append(bullFactors, fmt.Sprintf("Clear runway to resistance at %.2f (+%.1f%%)", nearestResistance, resistancePct))
	}

	if bbUpper != nil && bbLower != nil {
		if current > *bbUpper {
			bearFactors = append(bearFactors, "Above upper Bollinger Band — overbought, mean reversion risk")
		} else if current < *bbLower {
			bullFactors = append(bullFactors, "Below lower Bollinger Band — oversold, mean reversion potential")
		}
	}

	if rsi != nil {
		if *rsi >= 75 {
			bearFactors = append(bearFactors, fmt.Sprintf("RSI %.0f — overbought territory", *rsi))
		} else if *rsi <= 25 {
			bullFactors = append(bullFactors, fmt.Sprintf("RSI %.0f — oversold territory", *rsi))
		}
	}

	if len(bullFactors) == 0 {
		bullFactors = append(bullFactors, "No major technical resistance nearby")
	}
	if len(bearFactors) == 0 {
		bearFactors = append(bearFactors, fmt.Sprintf("Support at %.2f (%.1f%% downside)", nearestSupport, supportPct))
	}

	trend := "downtrend"
	if ma50 != nil && current > *ma50 {
		trend = "uptrend"
	}
	summary := fmt.Sprintf("%.0fth percentile 52wk · %s · %s", yearPos, trend, history.source)
	if goldenCross {
		summary += " · golden cross"
	}
	if deathCross {
		summary += " · death cross"
	}

	raw := map[string]interface{}{
		"current":            formulas.Round(current, 2),
		"year_high":          formulas.Round(yearHigh, 2),
		"year_low":           formulas.Round(yearLow, 2),
		"year_position_pct":  formulas.Round(yearPos, 1),
		"nearest_support":    formulas.Round(nearestSupport, 2),
		"nearest_resistance": formulas.Round(nearestResistance, 2),
		"golden_cross":       goldenCross,
		"death_cross":        deathCross,
	}
	if ma20 != nil {
		raw["ma20"] = formulas.Round(*ma20, 2)
	}
	if ma50 != nil {
		raw["ma50"] = formulas.Round(*ma50, 2)
	}
	if ma200 != nil {
		raw["ma200"] = formulas.Round(*ma200, 2)
	}
	if rsi != nil {
		raw["rsi"] = formulas.Round(*rsi, 1)
	}

	return &Result{
		BotName:      NameTechnicalLevels,
		Ticker:       symbol,
		SignalInputs: map[string]float64{},
		BullFactors:  capFactors(bullFactors, 4),
		BearFactors:  capFactors(bearFactors, 4),
		Summary:      summary,
		Confidence:   0.8,
		Source:       history.source,
		Raw:          raw,
	}
}

func (b *TechnicalLevelsBot) fetchPolygon(ctx context.Context, symbol string) *priceHistory {
	end := b.now()
	start := end.AddDate(0, 0, -400)
	bars, err := b.polygon.DailyBars(ctx, symbol, start, end)
	if err != nil || len(bars) < 50 {
		return nil
	}
	history := &priceHistory{source: "Polygon"}
	for _, bar := range bars {
		history.closes = append(history.closes, bar.Close)
		history.highs = append(history.highs, bar.High)
		history.lows = append(history.lows, bar.Low)
	}
	return history
}

func (b *TechnicalLevelsBot) fetchYahoo(ctx context.Context, symbol string) *priceHistory {
	ohlcv, err := b.yahoo.Chart(ctx, symbol, "1y")
	if err != nil || len(ohlcv.Closes) < 50 {
		return nil
	}
	return &priceHistory{
		closes:   ohlcv.Closes,
		highs:    ohlcv.Highs,
		lows:     ohlcv.Lows,
		yearHigh: ohlcv.FiftyTwoWeekHigh,
		yearLow:  ohlcv.FiftyTwoWeekLow,
		source:   "Yahoo Finance",
	}
}

func maxTail(vals []float64, n int) float64 {
	if len(vals) == 0 {
		return 0
	}
	if len(vals) > n {
		vals = vals[len(vals)-n:]
	}
	out := vals[0]
	for _, v := range vals[1:] {
		if v > out {
			out = v
		}
	}
	return out
}

func minTail(vals []float64, n int) float64 {
	if len(vals) == 0 {
		return 0
	}
	if len(vals) > n {
		vals = vals[len(vals)-n:]
	}
	out := vals[0]
	for _, v := range vals[1:] {
		if v < out {
			out = v
		}
	}
	return out
}
