package sweeper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbrain/research-engine/internal/bots"
	"github.com/marketbrain/research-engine/internal/cache"
	"github.com/marketbrain/research-engine/internal/domain"
	"github.com/marketbrain/research-engine/internal/metrics"
	"github.com/marketbrain/research-engine/internal/ratelimit"
	"github.com/marketbrain/research-engine/internal/research"
)

// fakeBot is a scriptable bot for sweeper tests
type fakeBot struct {
	name    string
	section string
	result  *bots.Result
	err     error
	calls   int
}

func (f *fakeBot) Name() string            { return f.name }
func (f *fakeBot) Section() string         { return f.section }
func (f *fakeBot) CacheTTL() time.Duration { return time.Hour }
func (f *fakeBot) Providers() []string     { return nil }
func (f *fakeBot) Fetch(_ context.Context, symbol string, _ domain.AssetMeta) (*bots.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	r := *f.result
	r.Ticker = symbol
	return &r, nil
}

func okResult(name string, signals map[string]float64, confidence float64) *bots.Result {
	return &bots.Result{
		BotName:      name,
		SignalInputs: signals,
		BullFactors:  []string{name + " bullish factor"},
		BearFactors:  []string{name + " bearish factor"},
		Summary:      name + " ok",
		Confidence:   confidence,
		Source:       "test",
		Raw:          map[string]interface{}{"value": 1.0},
	}
}

// fullRegistry builds fakes for all seven bots
func fullRegistry() (bots.Registry, map[string]*fakeBot) {
	specs := []struct {
		name    string
		section string
	}{
		{bots.NameMacro, research.SectionMacro},
		{bots.NameFundamentals, research.SectionFundamentals},
		{bots.NameAnalyst, research.SectionAnalyst},
		{bots.NameEarnings, research.SectionEarnings},
		{bots.NameNews, research.SectionNews},
		{bots.NameTechnicalLevels, research.SectionTechnicals},
		{bots.NameInsider, research.SectionInsider},
	}
	fakes := map[string]*fakeBot{}
	var all []bots.Bot
	for _, spec := range specs {
		f := &fakeBot{
			name:    spec.name,
			section: spec.section,
			result:  okResult(spec.name, map[string]float64{}, 0.8),
		}
		fakes[spec.name] = f
		all = append(all, f)
	}
	return bots.NewRegistry(all...), fakes
}

func newTestSweeper(registry bots.Registry, c cache.Client) *Sweeper {
	limiter := ratelimit.New(ratelimit.DefaultConfigs(), zerolog.Nop())
	runner := bots.NewRunner(limiter, metrics.NewNop(), 5*time.Second, zerolog.Nop())
	return New(Config{
		Cache:    c,
		Registry: registry,
		Runner:   runner,
		Gate:     ratelimit.NewSweepGate(3),
		Metrics:  metrics.NewNop(),
		Log:      zerolog.Nop(),
	})
}

func stockMeta(ticker string) domain.AssetMeta {
	return domain.AssetMeta{Ticker: ticker, QuoteType: domain.QuoteEquity, Sector: "Technology"}
}

func TestSweepRunsAllBotsForStock(t *testing.T) {
	registry, fakes := fullRegistry()
	c := cache.NewMemory()
	s := newTestSweeper(registry, c)
	ctx := context.Background()

	payload, err := s.Sweep(ctx, "nvda", stockMeta("NVDA"), Options{Cycle: "us_premarket"})
	require.NoError(t, err)

	assert.Equal(t, "NVDA", payload.Symbol)
	assert.Len(t, payload.Meta.Bots, 7)
	assert.Equal(t, 7, payload.Meta.BotsRun)
	assert.Equal(t, "us_premarket", payload.Meta.SweepCycle)
	for name, fake := range fakes {
		assert.Equal(t, 1, fake.calls, "bot %s should run once", name)
		assert.Equal(t, StatusSuccess, payload.Meta.Bots[name])
	}

	// Envelope landed in the cache
	var stored research.Payload
	found, err := c.Get(ctx, cache.ResearchKey("NVDA"), &stored)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload.Meta.LastUpdated, stored.Meta.LastUpdated)

	// Sections carry their bookkeeping fields
	section := stored.Data[research.SectionNews]
	require.NotNil(t, section)
	assert.Equal(t, "test", section[research.FieldSource])
	assert.NotEmpty(t, section[research.FieldFetchedAt])
}

func TestSweepRoutesCryptoToFastBots(t *testing.T) {
	registry, fakes := fullRegistry()
	s := newTestSweeper(registry, cache.NewMemory())

	meta := domain.AssetMeta{Ticker: "BTC-USD", QuoteType: domain.QuoteCrypto}
	payload, err := s.Sweep(context.Background(), "BTC-USD", meta, Options{})
	require.NoError(t, err)

	expected := map[string]bool{
		bots.NameMacro: true, bots.NameNews: true, bots.NameTechnicalLevels: true,
	}
	for name := range payload.Meta.Bots {
		assert.True(t, expected[name], "unexpected bot %s for crypto", name)
	}
	assert.Len(t, payload.Meta.Bots, 3)
	assert.Zero(t, fakes[bots.NameFundamentals].calls)
	assert.Zero(t, fakes[bots.NameInsider].calls)
}

func TestSweepSurvivesTotalBotFailure(t *testing.T) {
	registry, fakes := fullRegistry()
	for _, fake := range fakes {
		fake.err = fmt.Errorf("provider outage")
	}
	c := cache.NewMemory()
	s := newTestSweeper(registry, c)
	ctx := context.Background()

	payload, err := s.Sweep(ctx, "AAPL", stockMeta("AAPL"), Options{})
	require.NoError(t, err)

	assert.Empty(t, payload.Data)
	assert.Equal(t, 0, payload.Meta.BotsRun)
	assert.Equal(t, []string{"Research bots loading — signals stabilising"}, payload.BullFactors)
	assert.Equal(t, []string{"Monitor for emerging risk factors"}, payload.BearFactors)
	for name, status := range payload.Meta.Bots {
		assert.Equal(t, StatusFailed, status, name)
	}
	assert.NotEmpty(t, payload.Meta.LastUpdated)

	// The empty envelope is still written so reads stop pending
	found, err := c.Exists(ctx, cache.ResearchKey("AAPL"))
	require.NoError(t, err)
	assert.True(t, found)
}

func TestRepeatSweepSuppressesDeltaButRefreshesEnvelope(t *testing.T) {
	registry, _ := fullRegistry()
	c := cache.NewMemory()
	s := newTestSweeper(registry, c)
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	first, err := s.Sweep(ctx, "MSFT", stockMeta("MSFT"), Options{Force: true})
	require.NoError(t, err)
	assert.True(t, first.Meta.DeltaDetected, "first sweep is always a delta")

	// Identical provider responses one hour later
	s.now = func() time.Time { return base.Add(time.Hour) }
	second, err := s.Sweep(ctx, "MSFT", stockMeta("MSFT"), Options{Force: true})
	require.NoError(t, err)

	assert.False(t, second.Meta.DeltaDetected)
	assert.NotEqual(t, first.Meta.LastUpdated, second.Meta.LastUpdated)
	assert.True(t, second.Meta.LastUpdated > first.Meta.LastUpdated)
}

func TestSweepReusesPerBotCache(t *testing.T) {
	registry, fakes := fullRegistry()
	c := cache.NewMemory()
	s := newTestSweeper(registry, c)
	ctx := context.Background()

	_, err := s.Sweep(ctx, "NVDA", stockMeta("NVDA"), Options{})
	require.NoError(t, err)

	payload, err := s.Sweep(ctx, "NVDA", stockMeta("NVDA"), Options{})
	require.NoError(t, err)

	for name, fake := range fakes {
		assert.Equal(t, 1, fake.calls, "bot %s should not re-run while cached", name)
		assert.Equal(t, StatusCached, payload.Meta.Bots[name])
	}
	assert.Equal(t, 0, payload.Meta.BotsRun)
	// Cached sections still populate the data block
	assert.Len(t, payload.Data, 7)
}

func TestBotsOverrideRestrictsAndForces(t *testing.T) {
	registry, fakes := fullRegistry()
	c := cache.NewMemory()
	s := newTestSweeper(registry, c)
	ctx := context.Background()

	// Seed the per-bot cache, then override: cache must be bypassed
	_, err := s.Sweep(ctx, "NVDA", stockMeta("NVDA"), Options{})
	require.NoError(t, err)

	payload, err := s.Sweep(ctx, "NVDA", stockMeta("NVDA"), Options{
		BotsOverride: []string{bots.NameNews, bots.NameTechnicalLevels},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, fakes[bots.NameNews].calls)
	assert.Equal(t, 2, fakes[bots.NameTechnicalLevels].calls)
	assert.Equal(t, 1, fakes[bots.NameFundamentals].calls, "non-override bots must not run")

	assert.Equal(t, StatusSuccess, payload.Meta.Bots[bots.NameNews])
	assert.Equal(t, StatusSkipped, payload.Meta.Bots[bots.NameFundamentals])
}

func TestSignalInputsMergeConfidenceWeighted(t *testing.T) {
	registry, fakes := fullRegistry()
	fakes[bots.NameNews].result = okResult(bots.NameNews, map[string]float64{"sentiment": 0.8}, 0.9)
	fakes[bots.NameAnalyst].result = okResult(bots.NameAnalyst, map[string]float64{"sentiment": 0.2}, 0.3)
	s := newTestSweeper(registry, cache.NewMemory())

	payload, err := s.Sweep(context.Background(), "NVDA", stockMeta("NVDA"), Options{})
	require.NoError(t, err)

	// (0.8*0.9 + 0.2*0.3) / 1.2 = 0.65
	assert.InDelta(t, 0.65, payload.SignalInputs["sentiment"], 0.001)
}

func TestFactorsAreDedupedAndCapped(t *testing.T) {
	registry, fakes := fullRegistry()
	for _, fake := range fakes {
		fake.result.BullFactors = []string{
			"Strong revenue growth continues into the new fiscal year",
			"STRONG REVENUE GROWTH CONTINUES into the new fiscal year again",
		}
	}
	s := newTestSweeper(registry, cache.NewMemory())

	payload, err := s.Sweep(context.Background(), "NVDA", stockMeta("NVDA"), Options{})
	require.NoError(t, err)

	// Case-folded 40-char prefixes collapse the duplicates to one
	assert.Len(t, payload.BullFactors, 1)
	assert.LessOrEqual(t, len(payload.BearFactors), 6)
}

func TestReorderPutsPriorityFirst(t *testing.T) {
	relevant := []string{"A", "B", "C", "D"}
	assert.Equal(t, []string{"C", "A", "B", "D"}, reorder(relevant, []string{"C", "Z"}))
}

func TestInferCycle(t *testing.T) {
	assert.Equal(t, "morning", inferCycle(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, "afternoon", inferCycle(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, "evening", inferCycle(time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)))
	assert.Equal(t, "overnight", inferCycle(time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC)))
}

func TestMergeSignalsZeroConfidenceFallsBackToFirst(t *testing.T) {
	merged := mergeSignals(map[string][]signalContribution{
		"insiderBuy": {{0.5, 0}, {0.9, 0}},
	})
	assert.Equal(t, 0.5, merged["insiderBuy"])
}

func TestDedupFactorsPrefix(t *testing.T) {
	factors := []string{
		"Near 52-week high (95th percentile) — strong momentum",
		"near 52-week high (95th percentile) — strong momentum but different tail",
		"Completely different factor",
	}
	out := dedupFactors(factors, 6)
	assert.Len(t, out, 2)

	many := make([]string, 10)
	for i := range many {
		many[i] = fmt.Sprintf("Factor number %d with unique text padding it beyond forty chars", i)
	}
	assert.Len(t, dedupFactors(many, 6), 6)
}
