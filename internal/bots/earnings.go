package bots

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/marketbrain/research-engine/internal/clients/alphavantage"
	"github.com/marketbrain/research-engine/internal/clients/fmp"
	"github.com/marketbrain/research-engine/internal/clients/yahoo"
	"github.com/marketbrain/research-engine/internal/domain"
	"github.com/marketbrain/research-engine/internal/ratelimit"
	"github.com/marketbrain/research-engine/internal/research"
	"github.com/marketbrain/research-engine/pkg/formulas"
)

// earningsData is the provider-neutral view the bot scores from
type earningsData struct {
	daysToEarnings *int
	earningsDate   string
	epsSurprises   []float64
	shortRatio     *float64
	source         string
}

// EarningsBot fetches earnings dates and EPS surprise history. FMP
// leads for UK tickers, Yahoo for US, Alpha Vantage is the fallback
// of last resort.
type EarningsBot struct {
	fmp   *fmp.Client
	yahoo *yahoo.Client
	av    *alphavantage.Client
	now   func() time.Time
	log   zerolog.Logger
}

// NewEarningsBot creates the earnings bot
func NewEarningsBot(fmpClient *fmp.Client, yahooClient *yahoo.Client, avClient *alphavantage.Client, log zerolog.Logger) *EarningsBot {
	return &EarningsBot{
		fmp:   fmpClient,
		yahoo: yahooClient,
		av:    avClient,
		now:   time.Now,
		log:   log.With().Str("bot", NameEarnings).Logger(),
	}
}

func (b *EarningsBot) Name() string            { return NameEarnings }
func (b *EarningsBot) Section() string         { return research.SectionEarnings }
func (b *EarningsBot) CacheTTL() time.Duration { return 4 * time.Hour }
func (b *EarningsBot) Providers() []string {
	return []string{ratelimit.ProviderFMP, ratelimit.ProviderYahoo, ratelimit.ProviderAlphaVantage}
}

func (b *EarningsBot) Fetch(ctx context.Context, symbol string, meta domain.AssetMeta) (*Result, error) {
	assetType := meta.AssetType()
	if assetType != domain.AssetStock {
		return emptyResult(NameEarnings, symbol, "Earnings not applicable for "+assetType), nil
	}

	var data *earningsData
	if domain.IsUK(symbol) {
		data = b.fetchFMP(ctx, symbol)
		if data == nil {
			data = b.fetchYahoo(ctx, symbol)
		}
	} else {
		data = b.fetchYahoo(ctx, symbol)
		if data == nil || len(data.epsSurprises) == 0 {
			if surprises := b.fetchAlphaVantage(ctx, symbol); len(surprises) > 0 {
				if data != nil {
					data.epsSurprises = surprises
					data.source = "Yahoo + Alpha Vantage"
				} else {
					data = &earningsData{epsSurprises: surprises, source: "Alpha Vantage"}
				}
			}
		}
	}

	if data == nil {
		return emptyResult(NameEarnings, symbol, "No earnings data available from any source"), nil
	}

	signalInputs := map[string]float64{}
	if data.daysToEarnings != nil {
		days := *data.daysToEarnings
		if days > 90 {
			days = 90
		}
		signalInputs["daysToEarnings"] = float64(days)
	}
	var avgSurprise float64
	if len(data.epsSurprises) > 0 {
		avgSurprise = formulas.Mean(data.epsSurprises)
		signalInputs["earningsBeat"] = formulas.Round(formulas.Clamp(avgSurprise, -25, 40), 1)
	}

	var bullFactors, bearFactors []string

	if data.daysToEarnings != nil {
		days := *data.daysToEarnings
		switch {
		case days <= 7:
			bullFactors = append(bullFactors, fmt.Sprintf("Earnings in %d days — high catalyst potential", days))
		case days <= 14:
			bullFactors = append(bullFactors, fmt.Sprintf("Earnings approaching in %d days (%s)", days, data.earningsDate))
		case days <= 30:
			bullFactors = append(bullFactors, fmt.Sprintf("Earnings in %d days — monitoring period", days))
		default:
			bearFactors = append(bearFactors, fmt.Sprintf("Earnings %d days away — no near-term catalyst", days))
		}
	}

	if n := len(data.epsSurprises); n > 0 {
		beats := 0
		for _, s := range data.epsSurprises {
			if s > 0 {
				beats++
			}
		}
		switch {
		case beats == n:
			bullFactors = append(bullFactors, fmt.Sprintf("Beat estimates all %d/%d recent quarters (avg +%.1f%%)", n, n, avgSurprise))
		case float64(beats) >= float64(n)*0.75:
			bullFactors = append(bullFactors, fmt.Sprintf("Beat estimates %d/%d recent quarters (avg %+.1f%%)", beats, n, avgSurprise))
		case float64(beats) <= float64(n)*0.25:
			bearFactors = append(bearFactors, fmt.Sprintf("Missed estimates %d/%d recent quarters (avg %+.1f%%)", n-beats, n, avgSurprise))
		}
		// Streak reversal heuristics on the two most recent quarters
		// (epsSurprises is held oldest first)
		if n >= 2 {
			last, prev := data.epsSurprises[n-1], data.epsSurprises[n-2]
			if last < 0 && prev > 0 {
				bearFactors = append(bearFactors, "Recent miss after prior beat — trend reversal risk")
			} else if last > 0 && prev < 0 {
				bullFactors = append(bullFactors, "Returned to beat after prior miss — positive recovery")
			}
		}
	}

	if data.shortRatio != nil {
		switch {
		case *data.shortRatio > 8:
			bearFactors = append(bearFactors, fmt.Sprintf("Short ratio %.1f — elevated short interest", *data.shortRatio))
		case *data.shortRatio < 2:
			bullFactors = append(bullFactors, fmt.Sprintf("Short ratio %.1f — low short interest", *data.shortRatio))
		}
	}

	if len(bullFactors) == 0 {
		bullFactors = append(bullFactors, "No negative earnings surprises in recent history")
	}
	if len(bearFactors) == 0 {
		bearFactors = append(bearFactors, "Earnings catalyst timing uncertain")
	}

	var summary string
	switch {
	case data.daysToEarnings != nil && *data.daysToEarnings <= 14:
		summary = fmt.Sprintf("Earnings in %d days (%s)", *data.daysToEarnings, data.source)
	case len(data.epsSurprises) > 0:
		beats := 0
		for _, s := range data.epsSurprises {
			if s > 0 {
				beats++
			}
		}
		summary = fmt.Sprintf("Beat %d/%d recent quarters (%s)", beats, len(data.epsSurprises), data.source)
	default:
		summary = fmt.Sprintf("Earnings data retrieved (%s)", data.source)
	}

	confidence := 0.5
	if len(data.epsSurprises) > 0 {
		confidence = 0.85
	}

	raw := map[string]interface{}{
		"eps_surprises": data.epsSurprises,
	}
	if data.daysToEarnings != nil {
		raw["days_to_earnings"] = *data.daysToEarnings
	}
	if data.earningsDate != "" {
		raw["earnings_date"] = data.earningsDate
	}
	if data.shortRatio != nil {
		raw["short_ratio"] = *data.shortRatio
	}

	return &Result{
		BotName:      NameEarnings,
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

// fetchFMP pulls calendar + surprises from FMP. Nil when unusable.
func (b *EarningsBot) fetchFMP(ctx context.Context, symbol string) *earningsData {
	events, calErr := b.fmp.EarningsCalendar(ctx, symbol)
	surprises, histErr := b.fmp.EarningsSurprises(ctx, symbol)
	if calErr != nil && histErr != nil {
		return nil
	}
	if len(events) == 0 && len(surprises) == 0 {
		return nil
	}

	data := &earningsData{source: "FMP"}
	now := b.now().UTC()

	// Earliest future calendar entry
	var nextDate *time.Time
	for _, event := range events {
		dt, err := time.Parse("2006-01-02", event.Date)
		if err != nil {
			continue
		}
		if dt.Before(now.Truncate(24 * time.Hour)) {
			continue
		}
		if nextDate == nil || dt.Before(*nextDate) {
			d := dt
			nextDate = &d
		}
	}
	if nextDate != nil {
		days := int(nextDate.Sub(now).Hours() / 24)
		if days < 0 {
			days = 0
		}
		data.daysToEarnings = &days
		data.earningsDate = nextDate.Format("02 Jan 2006")
	}

	for i, q := range surprises {
		if i >= 4 {
			break
		}
		if q.Actual == nil || q.Estimated == nil || *q.Estimated == 0 {
			continue
		}
		pct := (*q.Actual - *q.Estimated) / abs(*q.Estimated) * 100
		// FMP lists newest first; prepend to keep oldest first
		data.epsSurprises = append([]float64{formulas.Round(pct, 1)}, data.epsSurprises...)
	}
	return data
}

// fetchYahoo pulls the calendar, surprise history and short ratio from
// Yahoo quoteSummary. Nil when unusable.
func (b *EarningsBot) fetchYahoo(ctx context.Context, symbol string) *earningsData {
	summary, err := b.yahoo.QuoteSummary(ctx, symbol,
		[]string{"calendarEvents", "earningsHistory", "defaultKeyStatistics"})
	if err != nil {
		return nil
	}

	data := &earningsData{source: "Yahoo Finance"}
	now := b.now().UTC()

	if summary.CalendarEvents != nil && len(summary.CalendarEvents.Earnings.EarningsDate) > 0 {
		if ts := summary.CalendarEvents.Earnings.EarningsDate[0].Float(); ts != nil {
			dt := time.Unix(int64(*ts), 0).UTC()
			days := int(dt.Sub(now).Hours() / 24)
			if days < 0 {
				days = 0
			}
			data.daysToEarnings = &days
			data.earningsDate = dt.Format("02 Jan 2006")
		}
	}

	if summary.EarningsHistory != nil {
		history := summary.EarningsHistory.History
		if len(history) > 4 {
			history = history[len(history)-4:]
		}
		for _, q := range history {
			actual, estimate := q.EpsActual.Float(), q.EpsEstimate.Float()
			if actual == nil || estimate == nil || *estimate == 0 {
				continue
			}
			pct := (*actual - *estimate) / abs(*estimate) * 100
			data.epsSurprises = append(data.epsSurprises, formulas.Round(pct, 1))
		}
	}

	if summary.DefaultKeyStatistics != nil {
		data.shortRatio = summary.DefaultKeyStatistics.ShortRatio.Float()
	}
	return data
}

func (b *EarningsBot) fetchAlphaVantage(ctx context.Context, symbol string) []float64 {
	surprises, err := b.av.QuarterlySurprises(ctx, symbol, 4)
	if err != nil {
		return nil
	}
	// The client returns newest first; the bot keeps oldest first
	for i, j := 0, len(surprises)-1; i < j; i, j = i+1, j-1 {
		surprises[i], surprises[j] = surprises[j], surprises[i]
	}
	return surprises
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
