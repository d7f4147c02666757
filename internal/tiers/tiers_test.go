package tiers

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newManager() *Manager {
	return NewManager(zerolog.Nop())
}

func TestStaticSeedsLoad(t *testing.T) {
	m := newManager()
	assert.Equal(t, 1, m.Tier("NVDA"))
	assert.Equal(t, 1, m.Tier("BTC-USD"))
	assert.Equal(t, 2, m.Tier("JNJ"))
	assert.Equal(t, 3, m.Tier("OBSCURE"))
}

func TestSymbolAppearsInExactlyOneTier(t *testing.T) {
	m := newManager()
	m.LoadUniverse([]string{"NVDA", "JNJ", "OBSCURE"})

	membership := map[string]int{}
	for _, s := range m.Tier1() {
		membership[s]++
	}
	for _, s := range m.Tier2() {
		membership[s]++
	}
	for _, s := range m.Tier3() {
		membership[s]++
	}
	for sym, count := range membership {
		assert.Equal(t, 1, count, "symbol %s enumerated in %d tiers", sym, count)
	}
}

func TestSeedOverlapResolvesToTier1(t *testing.T) {
	// PLTR is seeded in both static lists; tier 1 membership is
	// authoritative and tier 2 enumeration must omit it.
	m := newManager()
	assert.Equal(t, 1, m.Tier("PLTR"))
	assert.NotContains(t, m.Tier2(), "PLTR")
	assert.Contains(t, m.Tier1(), "PLTR")
}

func TestWatchlistAlwaysTier1(t *testing.T) {
	m := newManager()
	m.LoadUniverse([]string{"NEWCO"})
	assert.Equal(t, 3, m.Tier("NEWCO"))

	m.SetWatchlist([]string{"newco", "JNJ"})
	assert.Equal(t, 1, m.Tier("NEWCO"))
	assert.Equal(t, 1, m.Tier("JNJ"))
	assert.NotContains(t, m.Tier2(), "JNJ")
	assert.NotContains(t, m.Tier3(), "NEWCO")
}

func TestViewCountPromotion(t *testing.T) {
	m := newManager()
	m.LoadUniverse([]string{"VIEWED"})

	m.RecordView("VIEWED")
	assert.Equal(t, 2, m.Tier("VIEWED"), "one view promotes to tier 2")

	m.RecordView("VIEWED")
	assert.Equal(t, 2, m.Tier("VIEWED"), "two views stay in tier 2")

	m.RecordView("VIEWED")
	assert.Equal(t, 1, m.Tier("VIEWED"), "three views promote to tier 1")
}

func TestViewsNeverDemoteTier1(t *testing.T) {
	m := newManager()
	m.RecordView("NVDA")
	assert.Equal(t, 1, m.Tier("NVDA"))
}

func TestLoadUniverseDoesNotTouchExistingTiers(t *testing.T) {
	m := newManager()
	m.LoadUniverse([]string{"NVDA", "JNJ", "TINY1", "TINY2"})

	assert.Equal(t, 1, m.Tier("NVDA"))
	assert.Equal(t, 2, m.Tier("JNJ"))
	assert.ElementsMatch(t, []string{"TINY1", "TINY2"}, m.Tier3())
}

func TestAllOrderedPutsTier1First(t *testing.T) {
	m := newManager()
	m.LoadUniverse([]string{"ZZZZ"})
	all := m.AllOrdered()

	assert.Equal(t, all[len(all)-1], "ZZZZ")
	seen := map[string]bool{}
	for _, s := range all {
		assert.False(t, seen[s], "duplicate %s in ordered enumeration", s)
		seen[s] = true
	}
}

func TestSummary(t *testing.T) {
	m := newManager()
	m.SetWatchlist([]string{"NVDA", "NEWCO"})
	m.LoadUniverse([]string{"TINY"})

	summary := m.Summary()
	assert.Equal(t, 2, summary["watchlist_in_tier1"])
	assert.Equal(t, 1, summary["tier3"])
	assert.Greater(t, summary["tier1"], 50)
}
