// Package tiers classifies assets into sweep-frequency tiers.
//
// Tier 1 sweeps most often (watchlist, majors), Tier 2 daily, Tier 3
// weekly or on demand. Membership is process-resident state rebuilt on
// restart from the static seeds plus the persisted watchlist.
package tiers

import (
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Manager holds tier membership. A symbol lives in at most one tier on
// enumeration: tier 1 beats tier 2 beats tier 3.
type Manager struct {
	mu         sync.Mutex
	tier1      map[string]bool
	tier2      map[string]bool
	tier3      map[string]bool
	viewCounts map[string]int
	watchlist  map[string]bool
	log        zerolog.Logger
}

// NewManager seeds a manager from the static tier lists
func NewManager(log zerolog.Logger) *Manager {
	m := &Manager{
		tier1:      make(map[string]bool),
		tier2:      make(map[string]bool),
		tier3:      make(map[string]bool),
		viewCounts: make(map[string]int),
		watchlist:  make(map[string]bool),
		log:        log.With().Str("component", "priority_tiers").Logger(),
	}
	for _, s := range Tier1Static {
		m.tier1[s] = true
	}
	for _, s := range Tier2Static {
		m.tier2[s] = true
	}
	return m
}

// Promote moves a symbol to a higher tier. Promoting to tier 1 removes
// it from 2 and 3; promoting to tier 2 is a no-op for tier-1 symbols.
func (m *Manager) Promote(symbol string, toTier int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promoteLocked(strings.ToUpper(symbol), toTier)
}

func (m *Manager) promoteLocked(sym string, toTier int) {
	switch toTier {
	case 1:
		m.tier1[sym] = true
		delete(m.tier2, sym)
		delete(m.tier3, sym)
	case 2:
		if !m.tier1[sym] {
			m.tier2[sym] = true
			delete(m.tier3, sym)
		}
	}
}

// SetWatchlist replaces the watchlist; every entry joins tier 1
func (m *Manager) SetWatchlist(symbols []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchlist = make(map[string]bool, len(symbols))
	for _, s := range symbols {
		sym := strings.ToUpper(s)
		m.watchlist[sym] = true
		m.promoteLocked(sym, 1)
	}
}

// RecordView counts a user view. Three or more views promote to
// tier 1, any view at all to tier 2.
func (m *Manager) RecordView(symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sym := strings.ToUpper(symbol)
	m.viewCounts[sym]++
	if m.viewCounts[sym] >= 3 {
		m.promoteLocked(sym, 1)
	} else {
		m.promoteLocked(sym, 2)
	}
}

// LoadUniverse assigns any not-yet-tiered universe symbols to tier 3
func (m *Manager) LoadUniverse(symbols []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range symbols {
		sym := strings.ToUpper(s)
		if !m.tier1[sym] && !m.tier2[sym] {
			m.tier3[sym] = true
		}
	}
}

// Tier reports which tier a symbol currently belongs to
func (m *Manager) Tier(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	sym := strings.ToUpper(symbol)
	switch {
	case m.tier1[sym]:
		return 1
	case m.tier2[sym]:
		return 2
	default:
		return 3
	}
}

// Tier1 returns the tier-1 symbols, sorted
func (m *Manager) Tier1() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedKeys(m.tier1)
}

// Tier2 returns the tier-2 symbols minus any tier-1 members, sorted
func (m *Manager) Tier2() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.tier2))
	for s := range m.tier2 {
		if !m.tier1[s] {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// Tier3 returns the tier-3 symbols minus higher-tier members, sorted
func (m *Manager) Tier3() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.tier3))
	for s := range m.tier3 {
		if !m.tier1[s] && !m.tier2[s] {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// AllOrdered returns every tiered symbol, tier 1 first
func (m *Manager) AllOrdered() []string {
	out := m.Tier1()
	out = append(out, m.Tier2()...)
	return append(out, m.Tier3()...)
}

// Summary reports tier sizes for the admin surface
func (m *Manager) Summary() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	tier2 := 0
	for s := range m.tier2 {
		if !m.tier1[s] {
			tier2++
		}
	}
	tier3 := 0
	for s := range m.tier3 {
		if !m.tier1[s] && !m.tier2[s] {
			tier3++
		}
	}
	watchlistInTier1 := 0
	for s := range m.watchlist {
		if m.tier1[s] {
			watchlistInTier1++
		}
	}
	return map[string]int{
		"tier1":              len(m.tier1),
		"tier2":              tier2,
		"tier3":              tier3,
		"watchlist_in_tier1": watchlistInTier1,
	}
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
