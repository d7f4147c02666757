package scheduler

import (
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbrain/research-engine/internal/bots"
	"github.com/marketbrain/research-engine/internal/cache"
	"github.com/marketbrain/research-engine/internal/metrics"
	"github.com/marketbrain/research-engine/internal/ratelimit"
	"github.com/marketbrain/research-engine/internal/sweeper"
	"github.com/marketbrain/research-engine/internal/tiers"
	"github.com/marketbrain/research-engine/internal/universe"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	c := cache.NewMemory()
	limiter := ratelimit.New(ratelimit.DefaultConfigs(), zerolog.Nop())
	runner := bots.NewRunner(limiter, metrics.NewNop(), time.Second, zerolog.Nop())
	sw := sweeper.New(sweeper.Config{
		Cache:    c,
		Registry: bots.NewRegistry(),
		Runner:   runner,
		Gate:     ratelimit.NewSweepGate(3),
		Metrics:  metrics.NewNop(),
		Log:      zerolog.Nop(),
	})
	s, err := New(Config{
		Sweeper:  sw,
		Tiers:    tiers.NewManager(zerolog.Nop()),
		Universe: universe.NewLoader(c, zerolog.Nop()),
		Pause:    0,
		Log:      zerolog.Nop(),
	})
	require.NoError(t, err)
	return s
}

func TestJobTableRegistersAllJobs(t *testing.T) {
	table := jobTable()
	assert.Len(t, table, 12)

	ids := map[string]bool{}
	for _, job := range table {
		assert.NotEmpty(t, job.id)
		assert.NotEmpty(t, job.spec)
		assert.NotNil(t, job.targets)
		assert.False(t, ids[job.id], "duplicate job id %s", job.id)
		ids[job.id] = true

		_, err := cron.ParseStandard(job.spec)
		assert.NoError(t, err, "job %s has invalid spec %q", job.id, job.spec)
	}

	for _, id := range []string{
		"overnight", "uk_premarket", "uk_open", "uk_midsession",
		"us_premarket", "us_open", "uk_close", "us_midsession",
		"us_close", "post_market", "weekend_prep", "tier3_weekly",
	} {
		assert.True(t, ids[id], "missing job %s", id)
	}
}

func TestStatusListsEveryJobWithNextRun(t *testing.T) {
	s := newTestScheduler(t)
	s.Start()
	defer s.Stop()

	running, jobs := s.Status()
	assert.True(t, running)
	assert.Len(t, jobs, 12)
	for _, job := range jobs {
		assert.NotEmpty(t, job.NextRun, "job %s has no next run", job.ID)
	}
}

func TestJobTargetsNonEmptyOnSyntheticUniverse(t *testing.T) {
	manager := tiers.NewManager(zerolog.Nop())
	manager.LoadUniverse([]string{"TINY1", "TINY2"})

	t1, t2, t3 := manager.Tier1(), manager.Tier2(), manager.Tier3()
	for _, job := range jobTable() {
		targets := job.targets(t1, t2, t3)
		if job.id == "tier3_weekly" {
			assert.ElementsMatch(t, []string{"TINY1", "TINY2"}, targets)
			continue
		}
		assert.NotEmpty(t, targets, "job %s selected no assets", job.id)
	}
}

func TestTier3WeeklyEmptyWhenNoTier3(t *testing.T) {
	manager := tiers.NewManager(zerolog.Nop())
	for _, job := range jobTable() {
		if job.id == "tier3_weekly" {
			assert.Empty(t, job.targets(manager.Tier1(), manager.Tier2(), manager.Tier3()))
		}
	}
}

func TestLondonZoneHandlesSpringForward(t *testing.T) {
	// Europe/London springs forward 2026-03-29: 01:00 GMT -> 02:00 BST.
	// A 07:00 civil-time job fires at 07:00 UTC before the change and
	// 06:00 UTC after: 23 elapsed hours across the transition day.
	location, err := time.LoadLocation(TimeZone)
	require.NoError(t, err)

	sched, err := cron.ParseStandard("0 7 * * *")
	require.NoError(t, err)

	before := time.Date(2026, 3, 28, 3, 0, 0, 0, location)
	first := sched.Next(before)
	second := sched.Next(first)

	assert.Equal(t, 7, first.Hour())
	assert.Equal(t, 7, second.Hour())
	assert.Equal(t, 23*time.Hour, second.Sub(first))

	// And the autumn fall-back day stretches to 25 hours
	autumn := time.Date(2026, 10, 24, 3, 0, 0, 0, location)
	firstAutumn := sched.Next(autumn)
	secondAutumn := sched.Next(firstAutumn)
	assert.Equal(t, 25*time.Hour, secondAutumn.Sub(firstAutumn))
}

func TestTriggerSweepNowCounts(t *testing.T) {
	s := newTestScheduler(t)

	count, cycle := s.TriggerSweepNow(1, "manual-test")
	assert.Equal(t, len(s.tiers.Tier1()), count)
	assert.Equal(t, "manual-test", cycle)

	count2, _ := s.TriggerSweepNow(2, "manual-test-2")
	assert.Greater(t, count2, count)
}

func TestFilters(t *testing.T) {
	assert.True(t, isUS("NVDA"))
	assert.False(t, isUS("SHEL.L"))
	assert.False(t, isUS("BTC-USD"))
	assert.True(t, isUKEU("AIR.PA"))
	assert.True(t, isCrypto("ETH-USD"))
	assert.True(t, isCommodityForex("GBPUSD=X"))
	assert.True(t, isCommodityForex("GLD"))
	assert.True(t, isAsianADR("BABA"))
	assert.False(t, isAsianADR("NVDA"))
}

func TestPickDropDedup(t *testing.T) {
	symbols := []string{"NVDA", "SHEL.L", "BTC-USD", "NVDA"}
	assert.Equal(t, []string{"NVDA"}, pick(symbols, isUS))
	assert.Equal(t, []string{"NVDA", "BTC-USD", "NVDA"}, drop(symbols, isUKEU))
	assert.Equal(t, []string{"NVDA", "SHEL.L", "BTC-USD"}, dedup(symbols))
	assert.Equal(t, []string{"NVDA", "SHEL.L", "BTC-USD"}, pick(symbols, isUS, isUKEU, isCrypto))
}
