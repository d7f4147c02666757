package bots

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/marketbrain/research-engine/internal/clients/edgar"
	"github.com/marketbrain/research-engine/internal/domain"
	"github.com/marketbrain/research-engine/internal/ratelimit"
	"github.com/marketbrain/research-engine/internal/research"
	"github.com/marketbrain/research-engine/pkg/formulas"
)

// roleWeights make C-suite transactions count more than VP-level ones
var roleWeights = []struct {
	role   string
	weight float64
}{
	{"ceo", 2.0},
	{"cfo", 1.8},
	{"chairman", 1.8},
	{"coo", 1.6},
	{"president", 1.6},
	{"director", 1.4},
	{"evp", 1.3},
	{"svp", 1.2},
	{"vp", 1.0},
	{"officer", 1.0},
}

// roleWeight scores a filer title; unknown titles weigh 1.0
func roleWeight(title string) float64 {
	lower := strings.ToLower(title)
	for _, rw := range roleWeights {
		if strings.Contains(lower, rw.role) {
			return rw.weight
		}
	}
	return 1.0
}

// recencyWeight discounts older transactions: last 30 days full
// weight, 30-60 days 0.7, 60-90 days 0.4.
func recencyWeight(daysAgo int) float64 {
	switch {
	case daysAgo <= 30:
		return 1.0
	case daysAgo <= 60:
		return 0.7
	default:
		return 0.4
	}
}

var buyKeywords = []string{"purchase", "acquired", "bought"}
var sellKeywords = []string{"sale", "sold", "disposed"}

// InsiderBot scores SEC Form 4 insider transaction flow
type InsiderBot struct {
	edgar *edgar.Client
	now   func() time.Time
	log   zerolog.Logger
}

// NewInsiderBot creates the insider bot
func NewInsiderBot(edgarClient *edgar.Client, log zerolog.Logger) *InsiderBot {
	return &InsiderBot{
		edgar: edgarClient,
		now:   time.Now,
		log:   log.With().Str("bot", NameInsider).Logger(),
	}
}

func (b *InsiderBot) Name() string            { return NameInsider }
func (b *InsiderBot) Section() string         { return research.SectionInsider }
func (b *InsiderBot) CacheTTL() time.Duration { return 6 * time.Hour }
func (b *InsiderBot) Providers() []string     { return []string{ratelimit.ProviderEDGAR} }

func (b *InsiderBot) Fetch(ctx context.Context, symbol string, meta domain.AssetMeta) (*Result, error) {
	// EDGAR only covers US listings: non-US tickers score neutral
	if !domain.IsUS(symbol) {
		r := emptyResult(NameInsider, symbol, "Insider data only available for US-listed stocks")
		r.SignalInputs = map[string]float64{"insiderBuy": 0.5}
		r.Confidence = 0.3
		return r, nil
	}

	assetType := meta.AssetType()
	if assetType == domain.AssetCrypto || assetType == domain.AssetForex || assetType == domain.AssetETF {
		return emptyResult(NameInsider, symbol, "Insider data not applicable for "+assetType), nil
	}

	end := b.now().UTC()
	start := end.AddDate(0, 0, -90)

	filings, err := b.edgar.SearchForm4(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	if len(filings) == 0 {
		return &Result{
			BotName:      NameInsider,
			Ticker:       symbol,
			SignalInputs: map[string]float64{"insiderBuy": 0.5}, // neutral
			BullFactors:  []string{"No insider selling detected in last 90 days"},
			BearFactors:  []string{"No insider buying activity detected in last 90 days"},
			Summary:      "No insider transactions in last 90 days",
			Confidence:   0.4,
			Source:       "SEC EDGAR",
		}, nil
	}

	var buyScore, sellScore float64
	var buyers, sellers []insiderTxn

	if len(filings) > 20 {
		filings = filings[:20]
	}
	for _, filing := range filings {
		description := strings.ToLower(filing.Description)
		isBuy := containsAny(description, buyKeywords)
		isSell := containsAny(description, sellKeywords)
		if !isBuy && !isSell {
			continue
		}

		filerName := "Insider"
		if len(filing.DisplayNames) > 0 {
			filerName = filing.DisplayNames[0]
		}

		daysAgo := 45
		weight := 0.6 // unknown filing date gets a middling discount
		if filed, err := time.Parse("2006-01-02", filing.PeriodOfReport); err == nil {
			daysAgo = int(end.Sub(filed).Hours() / 24)
			weight = recencyWeight(daysAgo)
		}
		weighted := roleWeight(filerName) * weight

		if isBuy {
			buyScore += weighted
			buyers = append(buyers, insiderTxn{filerName, daysAgo})
		} else {
			sellScore += weighted
			sellers = append(sellers, insiderTxn{filerName, daysAgo})
		}
	}

	insiderScore := 0.5
	if total := buyScore + sellScore; total > 0 {
		insiderScore = formulas.Round(buyScore/total, 3)
	}
	// Cluster bonus: 3+ distinct buyers is a conviction signal
	distinctBuyers := map[string]bool{}
	for _, t := range buyers {
		distinctBuyers[t.name] = true
	}
	if len(distinctBuyers) >= 3 {
		insiderScore = formulas.Clamp(insiderScore+0.15, 0, 1)
	}

	var bullFactors, bearFactors []string

	if len(buyers) > 0 {
		if names := recentNames(buyers); names != "" {
			bullFactors = append(bullFactors, "Insider buying last 30 days: "+names)
		}
		if len(distinctBuyers) >= 3 {
			bullFactors = append(bullFactors, fmt.Sprintf("Cluster buy signal — %d insiders buying in 90 days", len(distinctBuyers)))
		} else {
			bullFactors = append(bullFactors, fmt.Sprintf("%d insider purchase(s) in last 90 days", len(buyers)))
		}
	}
	if len(sellers) > 0 {
		if names := recentNames(sellers); names != "" {
			bearFactors = append(bearFactors, "Insider selling last 30 days: "+names)
		}
		if len(sellers) >= 3 {
			bearFactors = append(bearFactors, fmt.Sprintf("Multiple insiders selling — %d transactions in 90 days", len(sellers)))
		}
	}

	if len(bullFactors) == 0 {
		bullFactors = append(bullFactors, "No insider selling pressure detected")
	}
	if len(bearFactors) == 0 {
		bearFactors = append(bearFactors, "No cluster buying signal — insider conviction unclear")
	}

	var summary string
	switch {
	case len(buyers) > 0 && len(sellers) == 0:
		summary = fmt.Sprintf("Net insider buying — %d purchase(s) in 90 days, no sales", len(buyers))
	case len(sellers) > 0 && len(buyers) == 0:
		summary = fmt.Sprintf("Net insider selling — %d sale(s) in 90 days, no purchases", len(sellers))
	case len(buyers) > 0 && len(sellers) > 0:
		summary = fmt.Sprintf("Mixed insider activity — %d buys, %d sells in 90 days", len(buyers), len(sellers))
	default:
		summary = "Minimal insider transaction activity"
	}

	return &Result{
		BotName:      NameInsider,
		Ticker:       symbol,
		SignalInputs: map[string]float64{"insiderBuy": insiderScore},
		BullFactors:  capFactors(bullFactors, 3),
		BearFactors:  capFactors(bearFactors, 3),
		Summary:      summary,
		Confidence:   0.8,
		Source:       "SEC EDGAR Form 4",
		Raw: map[string]interface{}{
			"buy_score":  buyScore,
			"sell_score": sellScore,
			"buyers":     len(buyers),
			"sellers":    len(sellers),
			"filings":    len(filings),
		},
	}, nil
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// insiderTxn is one weighted Form 4 transaction
type insiderTxn struct {
	name    string
	daysAgo int
}

// recentNames joins the distinct filer names (sans CIK parenthetical)
// transacting in the last 30 days, up to three.
func recentNames(txns []insiderTxn) string {
	seen := map[string]bool{}
	var names []string
	for _, t := range txns {
		if t.daysAgo > 30 || len(names) >= 3 {
			continue
		}
		name := strings.TrimSpace(strings.Split(t.name, "(")[0])
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}
