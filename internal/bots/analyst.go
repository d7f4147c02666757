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

// consensusLabel maps a mean recommendation score (1.0 strong buy …
// 5.0 sell) to a label and a 0-1 consensus signal.
func consensusLabel(score float64) (string, float64) {
	switch {
	case score < 1.5:
		return "Strong Buy", 1.0
	case score < 2.0:
		return "Buy", 0.75
	case score < 2.5:
		return "Moderate Buy", 0.6
	case score < 3.0:
		return "Hold", 0.5
	case score < 3.5:
		return "Moderate Sell", 0.4
	default:
		return "Sell", 0.2
	}
}

// analystData is the provider-neutral consensus view
type analystData struct {
	buy          int
	hold         int
	sell         int
	total        int
	targetMean   *float64
	currentPrice *float64
	upgrades     []string
	downgrades   []string
	trailingPE   *float64
	forwardPE    *float64
	source       string
}

// AnalystBot derives consensus ratings and price-target upside. FMP
// leads (it carries upgrade/downgrade history), Yahoo is the fallback.
type AnalystBot struct {
	fmp   *fmp.Client
	yahoo *yahoo.Client
	log   zerolog.Logger
}

// NewAnalystBot creates the analyst bot
func NewAnalystBot(fmpClient *fmp.Client, yahooClient *yahoo.Client, log zerolog.Logger) *AnalystBot {
	return &AnalystBot{fmp: fmpClient, yahoo: yahooClient, log: log.With().Str("bot", NameAnalyst).Logger()}
}

func (b *AnalystBot) Name() string            { return NameAnalyst }
func (b *AnalystBot) Section() string         { return research.SectionAnalyst }
func (b *AnalystBot) CacheTTL() time.Duration { return 4 * time.Hour }
func (b *AnalystBot) Providers() []string {
	return []string{ratelimit.ProviderFMP, ratelimit.ProviderYahoo}
}

func (b *AnalystBot) Fetch(ctx context.Context, symbol string, meta domain.AssetMeta) (*Result, error) {
	assetType := meta.AssetType()
	if assetType == domain.AssetCrypto || assetType == domain.AssetForex {
		return emptyResult(NameAnalyst, symbol, "Analyst ratings not applicable for "+assetType), nil
	}

	data := b.fetchFMP(ctx, symbol)
	if data == nil || data.total == 0 {
		data = b.fetchYahoo(ctx, symbol)
	}
	if data == nil {
		return emptyResult(NameAnalyst, symbol, "No analyst data available"), nil
	}

	label, signal := "Hold", 0.5
	if data.total > 0 {
		meanScore := (float64(data.buy)*1.5 + float64(data.hold)*3 + float64(data.sell)*4.5) / float64(data.total)
		label, signal = consensusLabel(meanScore)
	}

	var upsidePct *float64
	if data.currentPrice != nil && data.targetMean != nil && *data.currentPrice > 0 {
		v := (*data.targetMean - *data.currentPrice) / *data.currentPrice * 100
		upsidePct = &v
	}

	var bullFactors, bearFactors []string

	if data.total > 0 {
		switch label {
		case "Strong Buy", "Buy", "Moderate Buy":
			bullFactors = append(bullFactors, fmt.Sprintf("Analyst consensus: %s (%d/%d analysts bullish)", label, data.buy, data.total))
		case "Sell", "Moderate Sell":
			bearFactors = append(bearFactors, fmt.Sprintf("Analyst consensus: %s (%d/%d bearish)", label, data.sell, data.total))
		default:
			bullFactors = append(bullFactors, fmt.Sprintf("Analyst consensus: %s — %d analysts covering", label, data.total))
		}
	}

	if upsidePct != nil {
		switch {
		case *upsidePct > 25:
			bullFactors = append(bullFactors, fmt.Sprintf("Analyst avg target %.2f — %.1f%% upside", *data.targetMean, *upsidePct))
		case *upsidePct > 10:
			bullFactors = append(bullFactors, fmt.Sprintf("Analyst avg target implies %.1f%% upside potential", *upsidePct))
		case *upsidePct < -10:
			bearFactors = append(bearFactors, fmt.Sprintf("Analyst avg target %.2f — %.1f%% downside implied", *data.targetMean, -*upsidePct))
		}
	}

	if len(data.upgrades) > 0 {
		bullFactors = append(bullFactors, "Recent upgrade(s): "+strings.Join(data.upgrades, ", "))
	}
	if len(data.downgrades) > 0 {
		bearFactors = append(bearFactors, "Recent downgrade(s): "+strings.Join(data.downgrades, ", "))
	}

	if data.trailingPE != nil && data.forwardPE != nil {
		trailing, forward := *data.trailingPE, *data.forwardPE
		if forward < trailing*0.85 {
			bullFactors = append(bullFactors, fmt.Sprintf("Forward P/E %.1fx below trailing %.1fx — earnings growth expected", forward, trailing))
		} else if forward > trailing*1.15 {
			bearFactors = append(bearFactors, fmt.Sprintf("Forward P/E %.1fx above trailing — earnings expected to decline", forward))
		}
	}

	if len(bullFactors) == 0 {
		bullFactors = append(bullFactors, fmt.Sprintf("No dominant sell ratings — %d analysts covering", data.total))
	}
	if len(bearFactors) == 0 {
		bearFactors = append(bearFactors, "Price target upside may be limited at current levels")
	}

	var summary string
	switch {
	case upsidePct != nil:
		summary = fmt.Sprintf("%s consensus, %+.1f%% price target (%s)", label, *upsidePct, data.source)
	case data.total > 0:
		summary = fmt.Sprintf("%s — %d analysts (%s)", label, data.total, data.source)
	default:
		summary = "No analyst coverage found"
	}

	// Sentiment only carries weight with real coverage, and is kept
	// mild relative to the news signal.
	signalInputs := map[string]float64{}
	if data.total >= 3 {
		signalInputs["sentiment"] = formulas.Round((signal-0.5)*0.6, 3)
	}

	confidence := 0.4
	if data.total >= 3 {
		confidence = 0.8
	}

	raw := map[string]interface{}{
		"consensus": label,
		"total":     data.total,
		"buy":       data.buy,
		"hold":      data.hold,
		"sell":      data.sell,
	}
	putFloat(raw, "target_mean", data.targetMean)
	if upsidePct != nil {
		raw["upside_pct"] = formulas.Round(*upsidePct, 1)
	}

	return &Result{
		BotName:      NameAnalyst,
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

func (b *AnalystBot) fetchFMP(ctx context.Context, symbol string) *analystData {
	recs, recErr := b.fmp.Recommendations(ctx, symbol, 10)
	targets, ptErr := b.fmp.PriceTargets(ctx, symbol)
	actions, _ := b.fmp.UpgradesDowngrades(ctx, symbol, 5)
	if recErr != nil && ptErr != nil {
		return nil
	}
	if len(recs) == 0 && len(targets) == 0 {
		return nil
	}

	data := &analystData{source: "FMP"}
	for _, rec := range recs {
		data.buy += rec.StrongBuy + rec.Buy
		data.hold += rec.Hold
		data.sell += rec.Sell + rec.StrongSell
	}
	data.total = data.buy + data.hold + data.sell

	var sum float64
	var n int
	for i, pt := range targets {
		if i >= 5 || pt.PriceTarget == nil {
			continue
		}
		sum += *pt.PriceTarget
		n++
	}
	if n > 0 {
		mean := sum / float64(n)
		data.targetMean = &mean
	}

	for _, action := range actions {
		firm := action.GradingCompany
		if firm == "" {
			firm = "Analyst"
		}
		lower := strings.ToLower(action.Action)
		if strings.Contains(lower, "upgrade") && len(data.upgrades) < 2 {
			data.upgrades = append(data.upgrades, firm)
		} else if strings.Contains(lower, "downgrade") && len(data.downgrades) < 2 {
			data.downgrades = append(data.downgrades, firm)
		}
	}
	return data
}

func (b *AnalystBot) fetchYahoo(ctx context.Context, symbol string) *analystData {
	summary, err := b.yahoo.QuoteSummary(ctx, symbol,
		[]string{"financialData", "recommendationTrend", "defaultKeyStatistics", "summaryDetail"})
	if err != nil {
		return nil
	}

	data := &analystData{source: "Yahoo Finance"}
	if rec := summary.RecommendationTrend; rec != nil && len(rec.Trend) > 0 {
		current := rec.Trend[0]
		data.buy = current.StrongBuy + current.Buy
		data.hold = current.Hold
		data.sell = current.Sell + current.StrongSell
		data.total = data.buy + data.hold + data.sell
	}
	if fin := summary.FinancialData; fin != nil {
		data.targetMean = fin.TargetMeanPrice.Float()
		data.currentPrice = fin.CurrentPrice.Float()
	}
	if detail := summary.SummaryDetail; detail != nil {
		data.trailingPE = detail.TrailingPE.Float()
		data.forwardPE = detail.ForwardPE.Float()
	}
	return data
}
