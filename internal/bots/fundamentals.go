package bots

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/marketbrain/research-engine/internal/clients/fmp"
	"github.com/marketbrain/research-engine/internal/clients/yahoo"
	"github.com/marketbrain/research-engine/internal/domain"
	"github.com/marketbrain/research-engine/internal/ratelimit"
	"github.com/marketbrain/research-engine/internal/research"
	"github.com/marketbrain/research-engine/pkg/formulas"
)

// sectorPE is the rough sector-average trailing P/E used to frame a
// ticker's valuation.
var sectorPE = map[string]float64{
	"Technology":  28.0,
	"Healthcare":  22.0,
	"Finance":     14.0,
	"Energy":      12.0,
	"Consumer":    20.0,
	"Industrials": 18.0,
	"Utilities":   16.0,
	"Real Estate": 30.0,
	"Materials":   16.0,
}

// fundamentalsData is the provider-neutral metric set the bot scores.
// All fields optional: providers fill what they cover.
type fundamentalsData struct {
	revGrowth     *float64
	profitMargins *float64
	debtToEquity  *float64
	shortPct      *float64
	trailingPE    *float64
	forwardPE     *float64
	roe           *float64
	currentRatio  *float64
	source        string
}

// FundamentalsBot fetches growth, margin, leverage and short-interest
// metrics. FMP leads, Yahoo fills the gaps.
type FundamentalsBot struct {
	fmp   *fmp.Client
	yahoo *yahoo.Client
	log   zerolog.Logger
}

// NewFundamentalsBot creates the fundamentals bot
func NewFundamentalsBot(fmpClient *fmp.Client, yahooClient *yahoo.Client, log zerolog.Logger) *FundamentalsBot {
	return &FundamentalsBot{fmp: fmpClient, yahoo: yahooClient, log: log.With().Str("bot", NameFundamentals).Logger()}
}

func (b *FundamentalsBot) Name() string            { return NameFundamentals }
func (b *FundamentalsBot) Section() string         { return research.SectionFundamentals }
func (b *FundamentalsBot) CacheTTL() time.Duration { return 4 * time.Hour }
func (b *FundamentalsBot) Providers() []string {
	return []string{ratelimit.ProviderFMP, ratelimit.ProviderYahoo}
}

func (b *FundamentalsBot) Fetch(ctx context.Context, symbol string, meta domain.AssetMeta) (*Result, error) {
	assetType := meta.AssetType()
	if assetType == domain.AssetCrypto || assetType == domain.AssetForex {
		return emptyResult(NameFundamentals, symbol, "Fundamentals not applicable for "+assetType), nil
	}

	data := b.fetchFMP(ctx, symbol)
	if data == nil || data.revGrowth == nil {
		if yd := b.fetchYahoo(ctx, symbol); yd != nil {
			if data == nil {
				data = yd
			} else {
				mergeFundamentals(data, yd)
			}
		}
	}
	if data == nil {
		return emptyResult(NameFundamentals, symbol, "No fundamental data available"), nil
	}

	signalInputs := map[string]float64{}
	if data.revGrowth != nil {
		signalInputs["revGrowth"] = formulas.Round(asPct(*data.revGrowth, 5), 1)
	}
	if data.debtToEquity != nil {
		signalInputs["debtRatio"] = formulas.Round(asRatio(*data.debtToEquity), 2)
	}
	if data.shortPct != nil {
		signalInputs["shortInt"] = formulas.Round(asPctOfFloat(*data.shortPct), 1)
	}

	var bullFactors, bearFactors []string

	if data.revGrowth != nil {
		rg := asPct(*data.revGrowth, 5)
		switch {
		case rg > 20:
			bullFactors = append(bullFactors, fmt.Sprintf("Strong revenue growth +%.1f%% YoY", rg))
		case rg > 8:
			bullFactors = append(bullFactors, fmt.Sprintf("Solid revenue growth +%.1f%% YoY", rg))
		case rg > 0:
			bullFactors = append(bullFactors, fmt.Sprintf("Modest revenue growth +%.1f%% YoY", rg))
		case rg < -10:
			bearFactors = append(bearFactors, fmt.Sprintf("Revenue declining %.1f%% YoY", rg))
		default:
			bearFactors = append(bearFactors, fmt.Sprintf("Flat/declining revenue %+.1f%% YoY", rg))
		}
	}

	if data.profitMargins != nil {
		pm := asPct(*data.profitMargins, 2)
		switch {
		case pm > 20:
			bullFactors = append(bullFactors, fmt.Sprintf("High profit margin %.1f%% — strong pricing power", pm))
		case pm > 10:
			bullFactors = append(bullFactors, fmt.Sprintf("Healthy profit margin %.1f%%", pm))
		case pm < 0:
			bearFactors = append(bearFactors, fmt.Sprintf("Negative profit margin %.1f%% — not yet profitable", pm))
		case pm < 5:
			bearFactors = append(bearFactors, fmt.Sprintf("Thin profit margin %.1f%% — limited buffer", pm))
		}
	}

	if data.debtToEquity != nil {
		de := asRatio(*data.debtToEquity)
		switch {
		case de > 2.0:
			bearFactors = append(bearFactors, fmt.Sprintf("High debt-to-equity %.2f — leverage risk", de))
		case de > 1.0:
			bearFactors = append(bearFactors, fmt.Sprintf("Elevated debt-to-equity %.2f", de))
		case de < 0.3:
			bullFactors = append(bullFactors, fmt.Sprintf("Low debt-to-equity %.2f — strong balance sheet", de))
		}
	}

	if data.shortPct != nil {
		sp := asPctOfFloat(*data.shortPct)
		switch {
		case sp > 20:
			bearFactors = append(bearFactors, fmt.Sprintf("Very high short interest %.1f%% of float", sp))
		case sp > 10:
			bearFactors = append(bearFactors, fmt.Sprintf("Elevated short interest %.1f%% of float", sp))
		case sp < 3:
			bullFactors = append(bullFactors, fmt.Sprintf("Low short interest %.1f%% — little bearish conviction", sp))
		}
	}

	if data.trailingPE != nil {
		if avg, ok := sectorPE[meta.Sector]; ok {
			pe := *data.trailingPE
			if pe < avg*0.7 {
				bullFactors = append(bullFactors, fmt.Sprintf("P/E %.1fx — discount to %s avg (%.0fx)", pe, meta.Sector, avg))
			} else if pe > avg*1.5 {
				bearFactors = append(bearFactors, fmt.Sprintf("P/E %.1fx — premium vs %s avg (%.0fx)", pe, meta.Sector, avg))
			}
		}
	}

	if data.roe != nil {
		roe := asPct(*data.roe, 2)
		if roe > 20 {
			bullFactors = append(bullFactors, fmt.Sprintf("High ROE %.1f%% — excellent capital efficiency", roe))
		} else if roe < 0 {
			bearFactors = append(bearFactors, fmt.Sprintf("Negative ROE %.1f%%", roe))
		}
	}

	if data.currentRatio != nil {
		if *data.currentRatio < 1.0 {
			bearFactors = append(bearFactors, fmt.Sprintf("Current ratio %.2f — short-term liquidity pressure", *data.currentRatio))
		}
	}

	if len(bullFactors) == 0 {
		bullFactors = append(bullFactors, "No major fundamental red flags detected")
	}
	if len(bearFactors) == 0 {
		bearFactors = append(bearFactors, "Valuation may be stretched relative to growth")
	}

	var parts []string
	if data.revGrowth != nil {
		parts = append(parts, fmt.Sprintf("Rev %+.1f%%", asPct(*data.revGrowth, 5)))
	}
	if data.profitMargins != nil {
		parts = append(parts, fmt.Sprintf("Margin %.1f%%", asPct(*data.profitMargins, 2)))
	}
	if data.shortPct != nil {
		parts = append(parts, fmt.Sprintf("Short %.1f%%", asPctOfFloat(*data.shortPct)))
	}
	summary := fmt.Sprintf("Fundamentals retrieved (%s)", data.source)
	if len(parts) > 0 {
		summary = strings.Join(parts, " · ") + fmt.Sprintf(" (%s)", data.source)
	}

	confidence := 0.5
	if data.revGrowth != nil {
		confidence = 0.85
	}

	raw := map[string]interface{}{}
	putFloat(raw, "rev_growth", data.revGrowth)
	putFloat(raw, "profit_margins", data.profitMargins)
	putFloat(raw, "debt_to_equity", data.debtToEquity)
	putFloat(raw, "short_pct", data.shortPct)
	putFloat(raw, "trailing_pe", data.trailingPE)
	putFloat(raw, "forward_pe", data.forwardPE)
	putFloat(raw, "roe", data.roe)
	putFloat(raw, "current_ratio", data.currentRatio)

	return &Result{
		BotName:      NameFundamentals,
		Ticker:       symbol,
		SignalInputs: signalInputs,
		BullFactors:  capFactors(bullFactors, 3),
		BearFactors:  capFactors(bearFactors, 3),
		Summary:      summary,
		Confidence:   confidence,
		Source:       data.source,
		Raw:          raw,
	}, nil
}

func (b *FundamentalsBot) fetchFMP(ctx context.Context, symbol string) *fundamentalsData {
	km, kmErr := b.fmp.KeyMetricsTTM(ctx, symbol)
	growth, grErr := b.fmp.FinancialGrowth(ctx, symbol, 2)
	if kmErr != nil && grErr != nil {
		return nil
	}
	if km == nil && len(growth) == 0 {
		return nil
	}

	data := &fundamentalsData{source: "FMP"}
	if len(growth) > 0 {
		data.revGrowth = growth[0].RevenueGrowth
	}
	if km != nil {
		if data.revGrowth == nil {
			data.revGrowth = km.RevenueGrowth
		}
		data.profitMargins = km.NetMargin
		data.debtToEquity = km.DebtToEquity
		data.shortPct = km.ShortRatio
		data.trailingPE = km.PERatio
		data.roe = km.ROE
		data.currentRatio = km.CurrentRatio
	}
	return data
}

func (b *FundamentalsBot) fetchYahoo(ctx context.Context, symbol string) *fundamentalsData {
	summary, err := b.yahoo.QuoteSummary(ctx, symbol,
		[]string{"financialData", "defaultKeyStatistics", "summaryDetail"})
	if err != nil {
		return nil
	}

	data := &fundamentalsData{source: "Yahoo Finance"}
	if fin := summary.FinancialData; fin != nil {
		data.revGrowth = fin.RevenueGrowth.Float()
		data.profitMargins = fin.ProfitMargins.Float()
		data.debtToEquity = fin.DebtToEquity.Float()
		data.roe = fin.ReturnOnEquity.Float()
		data.currentRatio = fin.CurrentRatio.Float()
	}
	if stats := summary.DefaultKeyStatistics; stats != nil {
		data.shortPct = stats.ShortPercentOfFloat.Float()
	}
	if detail := summary.SummaryDetail; detail != nil {
		data.trailingPE = detail.TrailingPE.Float()
		data.forwardPE = detail.ForwardPE.Float()
	}
	return data
}

// mergeFundamentals fills nil fields of dst from src
func mergeFundamentals(dst, src *fundamentalsData) {
	if dst.revGrowth == nil {
		dst.revGrowth = src.revGrowth
	}
	if dst.profitMargins == nil {
		dst.profitMargins = src.profitMargins
	}
	if dst.debtToEquity == nil {
		dst.debtToEquity = src.debtToEquity
	}
	if dst.shortPct == nil {
		dst.shortPct = src.shortPct
	}
	if dst.trailingPE == nil {
		dst.trailingPE = src.trailingPE
	}
	if dst.forwardPE == nil {
		dst.forwardPE = src.forwardPE
	}
	if dst.roe == nil {
		dst.roe = src.roe
	}
	if dst.currentRatio == nil {
		dst.currentRatio = src.currentRatio
	}
}

// asPct normalises a value that may arrive as a decimal fraction
// (0.15) or an already-scaled percentage (15.0).
func asPct(v, decimalCutoff float64) float64 {
	if abs(v) < decimalCutoff {
		return v * 100
	}
	return v
}

// asRatio normalises debt-to-equity that some providers report as a
// percentage (e.g. Yahoo's 85.0 meaning 0.85).
func asRatio(v float64) float64 {
	if v > 5 {
		return v / 100
	}
	return v
}

// asPctOfFloat normalises short interest reported as a fraction
func asPctOfFloat(v float64) float64 {
	if v < 1 {
		return v * 100
	}
	return v
}

func putFloat(m map[string]interface{}, key string, v *float64) {
	if v != nil {
		m[key] = *v
	}
}
