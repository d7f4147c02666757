package bots

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/marketbrain/research-engine/internal/clients/gnews"
	"github.com/marketbrain/research-engine/internal/domain"
	"github.com/marketbrain/research-engine/internal/ratelimit"
	"github.com/marketbrain/research-engine/internal/research"
	"github.com/marketbrain/research-engine/pkg/formulas"
)

// Sentiment word lists
var positiveWords = []string{
	"beat", "beats", "surges", "jumps", "rises", "gains", "rallies", "soars",
	"upgrade", "upgraded", "buy", "outperform", "overweight", "bullish",
	"partnership", "contract", "approval", "approved", "wins", "awarded",
	"buyback", "dividend", "record", "breakthrough", "launch", "strong",
	"exceeds", "top", "profit", "revenue growth", "raised guidance",
	"acquisition", "merger", "deal", "positive", "recovery", "rebound",
}

var negativeWords = []string{
	"miss", "misses", "falls", "drops", "tumbles", "plunges", "declines",
	"downgrade", "downgraded", "sell", "underperform", "underweight", "bearish",
	"lawsuit", "sued", "investigation", "probe", "recall", "warning",
	"cut guidance", "lowers guidance", "layoffs", "restructuring", "loss",
	"deficit", "missed", "below", "concern", "risk", "volatile", "weak",
	"disappoints", "disappointing", "breach", "hack", "fine", "penalty",
}

// High-impact catalyst phrases
var catalystPositive = []string{
	"earnings beat", "raised guidance", "fda approval", "fda approved",
	"contract awarded", "major contract", "partnership", "acquisition",
	"buyback", "share repurchase", "dividend increase", "analyst upgrade",
	"price target raised", "record revenue", "record earnings",
}

var catalystNegative = []string{
	"earnings miss", "missed estimates", "cut guidance", "lowered guidance",
	"fda rejection", "class action", "sec investigation", "doj probe",
	"ceo resign", "ceo departure", "recall", "data breach", "analyst downgrade",
	"price target cut", "going concern", "bankruptcy",
}

// scoreText scores a piece of text -1.0 to 1.0 by keyword matching
func scoreText(text string) float64 {
	lower := strings.ToLower(text)
	pos, neg := 0, 0
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}
	total := pos + neg
	if total == 0 {
		return 0
	}
	return formulas.Round(float64(pos-neg)/float64(total), 3)
}

// detectCatalyst returns the matched catalyst phrase and its direction
// (+1 bullish, -1 bearish), or ("", 0) when none matched.
func detectCatalyst(text string) (string, float64) {
	lower := strings.ToLower(text)
	for _, cat := range catalystPositive {
		if strings.Contains(lower, cat) {
			return cat, 1.0
		}
	}
	for _, cat := range catalystNegative {
		if strings.Contains(lower, cat) {
			return cat, -1.0
		}
	}
	return "", 0
}

// NewsBot fetches and scores recent headlines via GNews
type NewsBot struct {
	client *gnews.Client
	log    zerolog.Logger
}

// NewNewsBot creates the news bot
func NewNewsBot(client *gnews.Client, log zerolog.Logger) *NewsBot {
	return &NewsBot{client: client, log: log.With().Str("bot", NameNews).Logger()}
}

func (b *NewsBot) Name() string            { return NameNews }
func (b *NewsBot) Section() string         { return research.SectionNews }
func (b *NewsBot) CacheTTL() time.Duration { return 2 * time.Hour }
func (b *NewsBot) Providers() []string     { return []string{ratelimit.ProviderGNews} }

func (b *NewsBot) Fetch(ctx context.Context, symbol string, meta domain.AssetMeta) (*Result, error) {
	if !b.client.Configured() {
		return emptyResult(NameNews, symbol, "GNEWS_KEY not set"), nil
	}

	// Company name searches better than a raw ticker; strip exchange
	// suffixes when we have to fall back.
	cleanTicker := strings.NewReplacer(".L", "", ".PA", "", "=X", "").Replace(symbol)
	query := cleanTicker
	if len(meta.Name) > 3 {
		query = meta.Name
	}

	articles, err := b.client.Search(ctx, query, 10)
	if err != nil {
		return nil, err
	}

	if len(articles) == 0 {
		return &Result{
			BotName: NameNews, Ticker: symbol,
			SignalInputs: map[string]float64{"sentiment": 0, "catalystNews": 0},
			Summary:      "No recent news found",
			Confidence:   0.3,
			Source:       "GNews",
		}, nil
	}

	var scores, catalysts []float64
	var bullFactors, bearFactors []string

	for _, article := range articles {
		combined := article.Title + " " + article.Description
		score := scoreText(combined)
		scores = append(scores, score)

		if phrase, direction := detectCatalyst(combined); phrase != "" {
			catalysts = append(catalysts, direction)
			if direction > 0 {
				bullFactors = append(bullFactors, fmt.Sprintf("Catalyst: %s detected in recent news", titleCase(phrase)))
			} else {
				bearFactors = append(bearFactors, fmt.Sprintf("Risk: %s detected in recent news", titleCase(phrase)))
			}
		} else if score > 0.3 && len(bullFactors) < 3 {
			bullFactors = append(bullFactors, "Positive coverage: "+truncate(article.Title, 80))
		} else if score < -0.3 && len(bearFactors) < 3 {
			bearFactors = append(bearFactors, "Negative coverage: "+truncate(article.Title, 80))
		}
	}

	avgSentiment := formulas.Mean(scores)
	catalystSignal := avgSentiment * 0.5
	avgCatalyst := 0.0
	if len(catalysts) > 0 {
		avgCatalyst = formulas.Mean(catalysts)
		catalystSignal = avgCatalyst
	}

	// Confidence scales with coverage volume
	confidence := formulas.Clamp(0.3+float64(len(articles))/20*0.6, 0, 0.9)

	var summary string
	switch {
	case avgSentiment > 0.2:
		summary = fmt.Sprintf("Predominantly positive news sentiment (%d articles)", len(articles))
	case avgSentiment < -0.2:
		summary = fmt.Sprintf("Predominantly negative news sentiment (%d articles)", len(articles))
	default:
		summary = fmt.Sprintf("Mixed news sentiment (%d articles)", len(articles))
	}
	if len(catalysts) > 0 {
		direction := "positive"
		if avgCatalyst < 0 {
			direction = "negative"
		}
		summary += fmt.Sprintf(" — %d %s catalyst(s) detected", len(catalysts), direction)
	}

	if len(bullFactors) == 0 {
		bullFactors = append(bullFactors, fmt.Sprintf("No strongly negative headlines in recent %d articles", len(articles)))
	}
	if len(bearFactors) == 0 {
		bearFactors = append(bearFactors, "No strong positive catalysts confirmed yet")
	}

	return &Result{
		BotName: NameNews,
		Ticker:  symbol,
		SignalInputs: map[string]float64{
			"sentiment":    formulas.Round(formulas.Clamp(avgSentiment, -1, 1), 3),
			"catalystNews": formulas.Round(formulas.Clamp(catalystSignal, -1, 1), 3),
		},
		BullFactors: capFactors(bullFactors, 3),
		BearFactors: capFactors(bearFactors, 3),
		Summary:     summary,
		Confidence:  confidence,
		Source:      "GNews",
		Raw: map[string]interface{}{
			"article_count": len(articles),
			"avg_sentiment": avgSentiment,
		},
	}, nil
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func capFactors(factors []string, n int) []string {
	if len(factors) > n {
		return factors[:n]
	}
	return factors
}
