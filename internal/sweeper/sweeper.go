// Package sweeper performs the per-asset research sweep: bot
// selection, rate-limited fan-out, per-bot cache reuse, signal
// merging, delta detection and the envelope write.
//
// This is the only place the engine makes external API calls. The read
// endpoint only ever reads what the sweeper wrote.
package sweeper

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/marketbrain/research-engine/internal/bots"
	"github.com/marketbrain/research-engine/internal/cache"
	"github.com/marketbrain/research-engine/internal/domain"
	"github.com/marketbrain/research-engine/internal/metrics"
	"github.com/marketbrain/research-engine/internal/ratelimit"
	"github.com/marketbrain/research-engine/internal/research"
	"github.com/marketbrain/research-engine/pkg/formulas"
)

// Bot statuses recorded in envelope meta
const (
	StatusSuccess = "success"
	StatusCached  = "cached"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Options tune one sweep invocation
type Options struct {
	// Force bypasses the per-bot cache and re-runs every selected bot
	Force bool
	// Cycle names the scheduled job that dispatched this sweep; empty
	// means on-demand and the cycle is inferred from the clock
	Cycle string
	// PriorityBots run first; the remaining relevant bots follow
	PriorityBots []string
	// BotsOverride restricts the sweep to exactly these bots and
	// implies Force
	BotsOverride []string
}

// Sweeper orchestrates research sweeps
type Sweeper struct {
	cache     cache.Client
	registry  bots.Registry
	runner    *bots.Runner
	gate      *ratelimit.SweepGate
	metrics   *metrics.Metrics
	resultTTL time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// Config wires a Sweeper
type Config struct {
	Cache     cache.Client
	Registry  bots.Registry
	Runner    *bots.Runner
	Gate      *ratelimit.SweepGate
	Metrics   *metrics.Metrics
	ResultTTL time.Duration
	Log       zerolog.Logger
}

// New creates a sweeper
func New(cfg Config) *Sweeper {
	ttl := cfg.ResultTTL
	if ttl <= 0 {
		ttl = research.DefaultResultTTL
	}
	return &Sweeper{
		cache:     cfg.Cache,
		registry:  cfg.Registry,
		runner:    cfg.Runner,
		gate:      cfg.Gate,
		metrics:   cfg.Metrics,
		resultTTL: ttl,
		now:       time.Now,
		log:       cfg.Log.With().Str("component", "sweeper").Logger(),
	}
}

// Sweep refreshes the research envelope for one asset. The envelope is
// written even when every bot fails, so readers stop seeing "pending".
func (s *Sweeper) Sweep(ctx context.Context, symbol string, meta domain.AssetMeta, opts Options) (*research.Payload, error) {
	symbol = strings.ToUpper(symbol)
	start := s.now()

	if err := s.gate.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.gate.Release()

	return s.doSweep(ctx, symbol, meta, opts, start)
}

func (s *Sweeper) doSweep(ctx context.Context, symbol string, meta domain.AssetMeta, opts Options, start time.Time) (*research.Payload, error) {
	assetType := meta.AssetType()
	relevant := bots.ForAssetType(assetType)
	force := opts.Force

	s.log.Info().
		Str("symbol", symbol).
		Str("asset_type", assetType).
		Str("cycle", opts.Cycle).
		Bool("force", force).
		Msg("Sweeping asset")

	statuses := map[string]string{}

	// bots_override restricts to exactly these bots and bypasses the
	// per-bot cache; anything filtered out is recorded as skipped.
	if len(opts.BotsOverride) > 0 {
		allowed := map[string]bool{}
		for _, name := range opts.BotsOverride {
			allowed[name] = true
		}
		var selected []string
		for _, name := range relevant {
			if allowed[name] {
				selected = append(selected, name)
			} else {
				statuses[name] = StatusSkipped
			}
		}
		relevant = selected
		force = true
	} else if len(opts.PriorityBots) > 0 {
		relevant = reorder(relevant, opts.PriorityBots)
	}

	// Previous envelope, for delta detection
	var prev research.Payload
	prevFound, err := s.cache.Get(ctx, cache.ResearchKey(symbol), &prev)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Previous envelope unreadable")
		prevFound = false
	}

	// Partition into cached sections and bots that must run
	cachedSections := map[string]map[string]interface{}{}
	var toRun []string
	for _, name := range relevant {
		bot := s.registry[name]
		if bot == nil {
			statuses[name] = StatusSkipped
			continue
		}
		if !force {
			var section map[string]interface{}
			found, err := s.cache.Get(ctx, cache.BotKey(symbol, name), &section)
			if err == nil && found {
				cachedSections[name] = section
				s.metrics.CacheHitsTotal.WithLabelValues("hit").Inc()
				continue
			}
		}
		s.metrics.CacheHitsTotal.WithLabelValues("miss").Inc()
		toRun = append(toRun, name)
	}

	s.log.Debug().
		Str("symbol", symbol).
		Int("to_run", len(toRun)).
		Int("cached", len(cachedSections)).
		Msg("Bot partition")

	// Fan out the bots that need running; the rate limiter provides
	// the back-pressure, the sweep gate already bounds asset-level
	// concurrency.
	type botOutcome struct {
		name   string
		result *bots.Result
	}
	outcomes := make([]botOutcome, len(toRun))
	var wg sync.WaitGroup
	for i, name := range toRun {
		i, name := i, name
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = botOutcome{name, s.runner.Run(ctx, s.registry[name], symbol, meta)}
		}()
	}
	wg.Wait()

	// Assemble the envelope
	nowISO := s.now().UTC().Format(time.RFC3339)
	data := map[string]map[string]interface{}{}
	signalContribs := map[string][]signalContribution{}
	var bullFactors, bearFactors []string
	botsRun := 0
	dataPoints := 0

	for _, outcome := range outcomes {
		bot := s.registry[outcome.name]
		result := outcome.result
		if result.Failed() {
			statuses[outcome.name] = StatusFailed
			continue
		}
		statuses[outcome.name] = StatusSuccess
		botsRun++

		section := make(map[string]interface{}, len(result.Raw)+2)
		for k, v := range result.Raw {
			section[k] = v
		}
		section[research.FieldFetchedAt] = nowISO
		section[research.FieldSource] = result.Source
		data[bot.Section()] = section

		bullFactors = append(bullFactors, result.BullFactors...)
		bearFactors = append(bearFactors, result.BearFactors...)
		for key, value := range result.SignalInputs {
			signalContribs[key] = append(signalContribs[key], signalContribution{value, result.Confidence})
			dataPoints++
		}

		// Persist the fresh section for later sweeps to reuse
		if err := s.cache.Set(ctx, cache.BotKey(symbol, outcome.name), section, bot.CacheTTL()); err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Str("bot", outcome.name).Msg("Per-bot cache write failed")
		}
	}

	for name, section := range cachedSections {
		statuses[name] = StatusCached
		data[s.registry[name].Section()] = section
		for k := range section {
			if !strings.HasPrefix(k, "_") {
				dataPoints++
			}
		}
	}

	// Delta against the previous envelope's data block
	var prevData map[string]interface{}
	if prevFound {
		prevData = toGeneric(prev.Data)
	}
	delta := research.DetectDelta(prevData, toGeneric(data))

	bullFactors = dedupFactors(bullFactors, 6)
	bearFactors = dedupFactors(bearFactors, 6)
	if len(bullFactors) == 0 {
		bullFactors = []string{"Research bots loading — signals stabilising"}
	}
	if len(bearFactors) == 0 {
		bearFactors = []string{"Monitor for emerging risk factors"}
	}

	freshness := map[string]string{}
	for section := range data {
		if ttl, ok := research.SectionTTL[section]; ok {
			freshness[section] = research.FmtAge(ttl)
		}
	}

	cycle := opts.Cycle
	if cycle == "" {
		cycle = inferCycle(s.now().UTC())
	}
	duration := s.now().Sub(start).Seconds()

	payload := &research.Payload{
		Symbol:       symbol,
		Data:         data,
		BullFactors:  bullFactors,
		BearFactors:  bearFactors,
		SignalInputs: mergeSignals(signalContribs),
		Meta: &research.Meta{
			Symbol:         symbol,
			LastUpdated:    nowISO,
			SweepCycle:     cycle,
			Freshness:      freshness,
			Bots:           statuses,
			DeltaDetected:  delta,
			StaleFields:    []string{},
			DataPoints:     dataPoints,
			BotsRun:        botsRun,
			SweepDurationS: formulas.Round(duration, 2),
		},
	}

	// The envelope is written whether or not a delta was detected, so
	// freshness metadata never goes stale in the cache.
	if err := s.cache.Set(ctx, cache.ResearchKey(symbol), payload, s.resultTTL); err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Envelope write failed")
	}

	s.metrics.SweepsTotal.WithLabelValues(cycle, boolLabel(delta)).Inc()
	s.metrics.SweepDuration.Observe(duration)

	s.log.Info().
		Str("symbol", symbol).
		Bool("delta", delta).
		Int("bots_run", botsRun).
		Float64("duration_s", duration).
		Msg("Sweep complete")

	return payload, nil
}

// reorder puts the priority bots first, preserving relative order of
// the rest. Priority names outside the relevant set are dropped.
func reorder(relevant, priority []string) []string {
	inRelevant := map[string]bool{}
	for _, name := range relevant {
		inRelevant[name] = true
	}
	prioritised := map[string]bool{}
	out := make([]string, 0, len(relevant))
	for _, name := range priority {
		if inRelevant[name] {
			out = append(out, name)
			prioritised[name] = true
		}
	}
	for _, name := range relevant {
		if !prioritised[name] {
			out = append(out, name)
		}
	}
	return out
}

// inferCycle buckets an on-demand sweep into the nearest named cycle
func inferCycle(now time.Time) string {
	switch hour := now.Hour(); {
	case hour >= 6 && hour < 11:
		return "morning"
	case hour >= 11 && hour < 16:
		return "afternoon"
	case hour >= 16 && hour < 22:
		return "evening"
	default:
		return "overnight"
	}
}

// toGeneric widens the typed data block for the delta detector
func toGeneric(data map[string]map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for section, fields := range data {
		inner := make(map[string]interface{}, len(fields))
		for k, v := range fields {
			inner[k] = v
		}
		out[section] = inner
	}
	return out
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
