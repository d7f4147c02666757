// Package bots contains the research bot framework and the seven
// data-source adapters. Every bot implements the same contract; the
// runner wraps fetches with rate-limit acquisition and error capture
// so a misbehaving provider can never break a sweep.
package bots

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/marketbrain/research-engine/internal/domain"
	"github.com/marketbrain/research-engine/internal/metrics"
	"github.com/marketbrain/research-engine/internal/ratelimit"
)

// Bot names: the fixed registry keys
const (
	NameNews            = "NewsBot"
	NameEarnings        = "EarningsBot"
	NameMacro           = "MacroBot"
	NameInsider         = "InsiderBot"
	NameFundamentals    = "FundamentalsBot"
	NameTechnicalLevels = "TechnicalLevelsBot"
	NameAnalyst         = "AnalystBot"
)

// Result is what one bot invocation produces
type Result struct {
	BotName      string                 `json:"bot"`
	Ticker       string                 `json:"ticker"`
	SignalInputs map[string]float64     `json:"signal_inputs"`
	BullFactors  []string               `json:"bull_factors"`
	BearFactors  []string               `json:"bear_factors"`
	Summary      string                 `json:"summary"`
	Confidence   float64                `json:"confidence"`
	Source       string                 `json:"source"`
	Raw          map[string]interface{} `json:"raw,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

// Failed reports whether the result marks a bot failure
func (r *Result) Failed() bool {
	return r == nil || r.Error != ""
}

// Bot is the uniform contract every data-source adapter implements
type Bot interface {
	// Name is the registry key and the per-bot cache key component
	Name() string
	// Section is the envelope data section this bot populates
	Section() string
	// CacheTTL is how long a fetched section stays reusable
	CacheTTL() time.Duration
	// Providers lists the rate-limit buckets to acquire before fetching
	Providers() []string
	// Fetch pulls and normalises data for one symbol
	Fetch(ctx context.Context, symbol string, meta domain.AssetMeta) (*Result, error)
}

// ForAssetType returns the bot names that apply to an asset type, in
// registry order.
func ForAssetType(assetType string) []string {
	switch assetType {
	case domain.AssetETF, domain.AssetCrypto:
		return []string{NameMacro, NameNews, NameTechnicalLevels}
	case domain.AssetForex, domain.AssetCommodity:
		return []string{NameMacro, NameTechnicalLevels}
	default:
		return []string{
			NameMacro, NameFundamentals, NameAnalyst, NameEarnings,
			NameNews, NameTechnicalLevels, NameInsider,
		}
	}
}

// Registry maps bot names to implementations
type Registry map[string]Bot

// NewRegistry indexes the given bots by name
func NewRegistry(all ...Bot) Registry {
	reg := make(Registry, len(all))
	for _, b := range all {
		reg[b.Name()] = b
	}
	return reg
}

// Runner executes bots behind the provider rate limiter
type Runner struct {
	limiter *ratelimit.Limiter
	metrics *metrics.Metrics
	timeout time.Duration
	log     zerolog.Logger
}

// NewRunner creates a bot runner. Timeout bounds one bot invocation
// including its rate-limit waits.
func NewRunner(limiter *ratelimit.Limiter, m *metrics.Metrics, timeout time.Duration, log zerolog.Logger) *Runner {
	return &Runner{
		limiter: limiter,
		metrics: m,
		timeout: timeout,
		log:     log.With().Str("component", "bot_runner").Logger(),
	}
}

// Run acquires the bot's provider tokens, invokes Fetch, and converts
// any failure into a well-formed error result. It never returns nil.
func (r *Runner) Run(ctx context.Context, bot Bot, symbol string, meta domain.AssetMeta) *Result {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	for _, provider := range bot.Providers() {
		if err := r.limiter.Acquire(ctx, provider, 1); err != nil {
			r.metrics.BotRunsTotal.WithLabelValues(bot.Name(), "failed").Inc()
			return errorResult(bot.Name(), symbol, err)
		}
		r.metrics.ProviderRequests.WithLabelValues(provider).Inc()
	}

	result, err := bot.Fetch(ctx, symbol, meta)
	if err != nil {
		r.log.Warn().Err(err).
			Str("bot", bot.Name()).
			Str("symbol", symbol).
			Msg("Bot fetch failed")
		r.metrics.BotRunsTotal.WithLabelValues(bot.Name(), "failed").Inc()
		return errorResult(bot.Name(), symbol, err)
	}

	r.metrics.BotRunsTotal.WithLabelValues(bot.Name(), "success").Inc()
	return result
}

func errorResult(botName, ticker string, err error) *Result {
	return &Result{
		BotName:      botName,
		Ticker:       ticker,
		SignalInputs: map[string]float64{},
		Summary:      botName + " unavailable",
		Confidence:   0,
		Source:       "error",
		Error:        err.Error(),
	}
}

// emptyResult marks a bot as gracefully inapplicable or data-less -
// not a failure, just nothing to contribute.
func emptyResult(botName, ticker, reason string) *Result {
	return &Result{
		BotName:      botName,
		Ticker:       ticker,
		SignalInputs: map[string]float64{},
		Summary:      reason,
		Confidence:   0,
		Source:       botName,
	}
}
