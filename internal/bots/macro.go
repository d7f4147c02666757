package bots

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/marketbrain/research-engine/internal/clients/fred"
	"github.com/marketbrain/research-engine/internal/clients/yahoo"
	"github.com/marketbrain/research-engine/internal/domain"
	"github.com/marketbrain/research-engine/internal/ratelimit"
	"github.com/marketbrain/research-engine/internal/research"
	"github.com/marketbrain/research-engine/pkg/formulas"
)

// sectorETF maps normalised sectors to their proxy ETF for the Yahoo
// momentum fallback.
var sectorETF = map[string]string{
	"Technology":  "XLK",
	"Finance":     "XLF",
	"Healthcare":  "XLV",
	"Energy":      "XLE",
	"Consumer":    "XLY",
	"Industrials": "XLI",
	"Metals":      "XLB",
	"Minerals":    "XLB",
	"Agriculture": "MOO",
	"Real Estate": "XLRE",
	"Utilities":   "XLU",
	"Crypto":      "COIN",
	"Forex":       "UUP",
	"Space":       "XLI",
}

// sectorSensitivity weights each macro signal per sector, in the order
// [rate_env, inflation, growth, unemployment, yields]. Positive means
// the signal rising is bullish for the sector.
var sectorSensitivity = map[string][5]float64{
	"Technology":  {-0.6, -0.2, 0.7, -0.3, -0.5},
	"Finance":     {0.7, 0.2, 0.5, -0.2, 0.6},
	"Healthcare":  {-0.1, -0.1, 0.3, -0.1, -0.1},
	"Energy":      {-0.2, 0.7, 0.4, -0.1, 0.1},
	"Consumer":    {-0.4, -0.6, 0.6, -0.5, -0.3},
	"Industrials": {-0.3, 0.1, 0.8, -0.4, -0.2},
	"Metals":      {-0.3, 0.6, 0.5, -0.2, 0.0},
	"Real Estate": {-0.8, -0.2, 0.3, -0.3, -0.7},
	"Utilities":   {-0.5, 0.0, 0.2, -0.1, -0.6},
	"Crypto":      {-0.4, 0.3, 0.5, -0.2, -0.3},
	"Forex":       {0.3, -0.3, 0.2, 0.0, 0.4},
}

// MacroBot combines FRED macro series with sector-ETF momentum into a
// single sectorFlow signal.
type MacroBot struct {
	fred  *fred.Client
	yahoo *yahoo.Client
	log   zerolog.Logger
}

// NewMacroBot creates the macro bot
func NewMacroBot(fredClient *fred.Client, yahooClient *yahoo.Client, log zerolog.Logger) *MacroBot {
	return &MacroBot{fred: fredClient, yahoo: yahooClient, log: log.With().Str("bot", NameMacro).Logger()}
}

func (b *MacroBot) Name() string            { return NameMacro }
func (b *MacroBot) Section() string         { return research.SectionMacro }
func (b *MacroBot) CacheTTL() time.Duration { return 30 * 24 * time.Hour }
func (b *MacroBot) Providers() []string {
	return []string{ratelimit.ProviderFRED, ratelimit.ProviderYahoo}
}

func (b *MacroBot) Fetch(ctx context.Context, symbol string, meta domain.AssetMeta) (*Result, error) {
	sector := meta.Sector

	// Fetch the five FRED series concurrently; a missing key or a
	// failed series just leaves its slot nil.
	series := []string{
		fred.SeriesFedFunds, fred.SeriesCPI, fred.SeriesGDP,
		fred.SeriesUnemployment, fred.SeriesTreasury10Y,
	}
	values := make([][]float64, len(series))
	if b.fred.Configured() {
		g, gctx := errgroup.WithContext(ctx)
		for i, id := range series {
			i, id := i, id
			g.Go(func() error {
				obs, err := b.fred.Observations(gctx, id, 2)
				if err != nil {
					b.log.Debug().Err(err).Str("series", id).Msg("FRED series unavailable")
					return nil
				}
				values[i] = obs
				return nil
			})
		}
		_ = g.Wait()
	}
	fedRate, cpi, gdp, unemployment, yield10y := values[0], values[1], values[2], values[3], values[4]

	etf := sectorETF[sector]
	var etfMomentum, spyMomentum *float64
	if etf != "" {
		etfMomentum = b.fetchMomentum(ctx, etf)
	}
	spyMomentum = b.fetchMomentum(ctx, "SPY")

	macroSignals := map[string]float64{}
	var bullFactors, bearFactors []string
	fredAvailable := false

	// Interest rate environment: rising = tightening
	if len(fedRate) >= 2 {
		fredAvailable = true
		change := fedRate[0] - fedRate[1]
		rateEnv := formulas.Clamp(change/0.5, -1, 1)
		macroSignals["rate_env"] = rateEnv
		switch {
		case rateEnv > 0.1:
			bearFactors = append(bearFactors, fmt.Sprintf("Fed funds rate rising (%.2f%% → %.2f%%) — tightening environment", fedRate[1], fedRate[0]))
		case rateEnv < -0.1:
			bullFactors = append(bullFactors, fmt.Sprintf("Fed funds rate falling (%.2f%% → %.2f%%) — easing environment", fedRate[1], fedRate[0]))
		default:
			bullFactors = append(bullFactors, fmt.Sprintf("Fed funds rate stable at %.2f%% — neutral monetary policy", fedRate[0]))
		}
	}

	// Inflation: rising erodes consumers, helps commodities
	if len(cpi) >= 2 && cpi[1] != 0 {
		fredAvailable = true
		change := (cpi[0] - cpi[1]) / cpi[1] * 100
		macroSignals["inflation"] = formulas.Clamp(change/0.3, -1, 1)
		if change > 0.2 {
			bearFactors = append(bearFactors, fmt.Sprintf("CPI inflation rising (%+.2f%% MoM) — eroding purchasing power", change))
		} else if change < -0.1 {
			bullFactors = append(bullFactors, fmt.Sprintf("CPI inflation easing (%+.2f%% MoM) — price pressure reducing", change))
		}
	}

	// GDP growth: broadly bullish when expanding
	if len(gdp) >= 2 && gdp[1] != 0 {
		fredAvailable = true
		change := (gdp[0] - gdp[1]) / gdp[1] * 100
		macroSignals["growth"] = formulas.Clamp(change/1.0, -1, 1)
		if change > 0.5 {
			bullFactors = append(bullFactors, fmt.Sprintf("GDP growth positive (%+.1f%%) — expanding economy", change))
		} else if change < -0.5 {
			bearFactors = append(bearFactors, fmt.Sprintf("GDP contracting (%+.1f%%) — recession risk", change))
		}
	}

	// Unemployment: rising hurts consumer spending
	if len(unemployment) >= 2 {
		fredAvailable = true
		change := unemployment[0] - unemployment[1]
		macroSignals["unemployment"] = formulas.Clamp(-change/0.3, -1, 1)
		if change > 0.2 {
			bearFactors = append(bearFactors, fmt.Sprintf("Unemployment rising (%.1f%% → %.1f%%) — labour market weakening", unemployment[1], unemployment[0]))
		} else if change < -0.2 {
			bullFactors = append(bullFactors, fmt.Sprintf("Unemployment falling (%.1f%% → %.1f%%) — strong labour market", unemployment[1], unemployment[0]))
		}
	}

	// 10yr yield: rising pressures growth stocks
	if len(yield10y) >= 2 {
		fredAvailable = true
		change := yield10y[0] - yield10y[1]
		macroSignals["yields"] = formulas.Clamp(change/0.25, -1, 1)
		if change > 0.1 {
			bearFactors = append(bearFactors, fmt.Sprintf("10yr Treasury yield rising (%.2f%%) — discount rate headwind", yield10y[0]))
		} else if change < -0.1 {
			bullFactors = append(bullFactors, fmt.Sprintf("10yr Treasury yield falling (%.2f%%) — risk appetite improving", yield10y[0]))
		}
	}

	macroScore := sectorScore(sector, macroSignals)

	// ETF momentum relative to the SPY risk baseline
	relativeETF := 0.0
	if etfMomentum != nil && spyMomentum != nil {
		relativeETF = formulas.Clamp(*etfMomentum-*spyMomentum*0.5, -1, 1)
	} else if etfMomentum != nil {
		relativeETF = *etfMomentum
	}

	// 60/40 blend when FRED contributed, pure ETF otherwise
	var sectorFlow, confidence float64
	var source string
	if fredAvailable && macroScore != 0 {
		sectorFlow = formulas.Round(macroScore*0.6+relativeETF*0.4, 3)
		source = fmt.Sprintf("FRED + Yahoo (%s)", orDefault(etf, "ETF"))
		confidence = 0.85
	} else {
		sectorFlow = formulas.Round(relativeETF, 3)
		source = fmt.Sprintf("Yahoo Finance (%s vs SPY)", orDefault(etf, "ETF"))
		confidence = 0.65
	}
	sectorFlow = formulas.Clamp(sectorFlow, -1, 1)

	if etf != "" && etfMomentum != nil {
		etfPct := *etfMomentum * 5
		if *etfMomentum > 0.2 {
			bullFactors = append(bullFactors, fmt.Sprintf("%s sector ETF +%.1f%% 5-day — capital flowing in", etf, etfPct))
		} else if *etfMomentum < -0.2 {
			bearFactors = append(bearFactors, fmt.Sprintf("%s sector ETF %.1f%% 5-day — capital flowing out", etf, etfPct))
		}
	}

	if len(bullFactors) == 0 {
		bullFactors = append(bullFactors, fmt.Sprintf("Macro environment neutral for %s", orDefault(sector, "this sector")))
	}
	if len(bearFactors) == 0 {
		bearFactors = append(bearFactors, "No strong macro headwinds detected currently")
	}

	dataSource := "ETF momentum data"
	if fredAvailable {
		dataSource = "FRED + ETF data"
	}
	var summary string
	switch {
	case sectorFlow > 0.2:
		summary = fmt.Sprintf("Macro tailwind for %s — %s", sector, dataSource)
	case sectorFlow < -0.2:
		summary = fmt.Sprintf("Macro headwind for %s — %s", sector, dataSource)
	default:
		summary = fmt.Sprintf("Macro environment neutral for %s — %s", sector, dataSource)
	}

	raw := map[string]interface{}{
		"sector":         sector,
		"etf":            etf,
		"macro_score":    formulas.Round(macroScore, 3),
		"sector_flow":    sectorFlow,
		"fred_available": fredAvailable,
		"macro_signals":  macroSignals,
	}
	if etfMomentum != nil {
		raw["etf_momentum"] = *etfMomentum
	}
	if spyMomentum != nil {
		raw["spy_momentum"] = *spyMomentum
	}

	return &Result{
		BotName:      NameMacro,
		Ticker:       symbol,
		SignalInputs: map[string]float64{"sectorFlow": sectorFlow},
		BullFactors:  capFactors(bullFactors, 3),
		BearFactors:  capFactors(bearFactors, 3),
		Summary:      summary,
		Confidence:   confidence,
		Source:       source,
		Raw:          raw,
	}, nil
}

// sectorScore folds the macro signals through the sector sensitivity
// matrix, normalised by total absolute weight and clamped to [-1, 1].
// Unknown sectors and empty signal sets score zero.
func sectorScore(sector string, signals map[string]float64) float64 {
	weights, ok := sectorSensitivity[sector]
	if !ok || len(signals) == 0 {
		return 0
	}
	signalValues := [5]float64{
		signals["rate_env"], signals["inflation"], signals["growth"],
		signals["unemployment"], signals["yields"],
	}
	weighted, totalW := 0.0, 0.0
	for i := range weights {
		weighted += signalValues[i] * weights[i]
		totalW += abs(weights[i])
	}
	if totalW == 0 {
		return 0
	}
	return formulas.Clamp(weighted/totalW, -1, 1)
}

// fetchMomentum computes normalised 5-day momentum for an ETF from the
// Yahoo chart endpoint. A ±5% five-day move saturates the signal.
func (b *MacroBot) fetchMomentum(ctx context.Context, etf string) *float64 {
	ohlcv, err := b.yahoo.Chart(ctx, etf, "10d")
	if err != nil {
		b.log.Debug().Err(err).Str("etf", etf).Msg("ETF momentum unavailable")
		return nil
	}
	closes := ohlcv.Closes
	if len(closes) < 5 || closes[len(closes)-5] == 0 {
		return nil
	}
	momentumPct := (closes[len(closes)-1] - closes[len(closes)-5]) / closes[len(closes)-5] * 100
	v := formulas.Round(formulas.Clamp(momentumPct/5.0, -1, 1), 3)
	return &v
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
