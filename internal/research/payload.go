// Package research defines the canonical envelope stored under
// research:<SYMBOL> and the freshness rules applied to it.
package research

import (
	"fmt"
	"sort"
	"time"
)

// Section names. The data block of an envelope maps these to the raw
// detail each bot produced.
const (
	SectionNews         = "news"
	SectionPrice        = "price"
	SectionTechnicals   = "technicals"
	SectionFundamentals = "fundamentals"
	SectionAnalyst      = "analyst"
	SectionEarnings     = "earnings"
	SectionMacro        = "macro"
	SectionInsider      = "insider"
)

// SectionTTL is the per-section freshness horizon, keyed by how fast
// the underlying data actually changes. Read-time staleness and the
// freshness labels in meta both derive from this table.
var SectionTTL = map[string]time.Duration{
	SectionPrice:        4 * time.Hour,
	SectionNews:         2 * time.Hour,
	SectionTechnicals:   4 * time.Hour,
	SectionFundamentals: 24 * time.Hour,
	SectionAnalyst:      24 * time.Hour,
	SectionEarnings:     24 * time.Hour,
	SectionMacro:        30 * 24 * time.Hour,
	SectionInsider:      6 * time.Hour,
}

// DefaultResultTTL is the envelope's expiry: the shortest component
// horizon, so a stored result never outlives its most volatile section.
const DefaultResultTTL = 2 * time.Hour

// Keys every section carries alongside its provider detail
const (
	FieldFetchedAt = "_fetched_at"
	FieldSource    = "_source"
)

// Meta is the sweep bookkeeping attached to every envelope
type Meta struct {
	Symbol         string            `json:"symbol"`
	LastUpdated    string            `json:"last_updated"`
	SweepCycle     string            `json:"sweep_cycle"`
	Freshness      map[string]string `json:"freshness"`
	Bots           map[string]string `json:"bots"`
	DeltaDetected  bool              `json:"delta_detected"`
	StaleFields    []string          `json:"stale_fields"`
	DataPoints     int               `json:"data_points"`
	BotsRun        int               `json:"bots_run"`
	SweepDurationS float64           `json:"sweep_duration_s"`
}

// Payload is the complete research result for one asset: what the
// sweeper writes and the read endpoint serves.
type Payload struct {
	Symbol       string                            `json:"symbol"`
	Data         map[string]map[string]interface{} `json:"data"`
	Meta         *Meta                             `json:"meta"`
	BullFactors  []string                          `json:"bull_factors"`
	BearFactors  []string                          `json:"bear_factors"`
	SignalInputs map[string]float64                `json:"signal_inputs"`
}

// AgeSeconds reports how old the payload is, relative to now
func (p *Payload) AgeSeconds(now time.Time) int {
	if p.Meta == nil || p.Meta.LastUpdated == "" {
		return 999999
	}
	ts, err := time.Parse(time.RFC3339, p.Meta.LastUpdated)
	if err != nil {
		return 999999
	}
	return int(now.Sub(ts).Seconds())
}

// StaleFields returns the sections whose _fetched_at has outlived the
// section TTL at the given instant. Computed at read time so writers
// never have to anticipate reader clocks.
func (p *Payload) StaleFields(now time.Time) []string {
	stale := []string{}
	for section, ttl := range SectionTTL {
		data, ok := p.Data[section]
		if !ok || len(data) == 0 {
			continue
		}
		fetchedAt, _ := data[FieldFetchedAt].(string)
		if fetchedAt == "" && p.Meta != nil {
			fetchedAt = p.Meta.LastUpdated
		}
		if fetchedAt == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, fetchedAt)
		if err != nil {
			continue
		}
		if now.Sub(ts) > ttl {
			stale = append(stale, section)
		}
	}
	sort.Strings(stale)
	return stale
}

// FmtAge renders a duration as the compact age label used in freshness
// maps and log lines ("45m", "2h", "30d").
func FmtAge(d time.Duration) string {
	s := int(d.Seconds())
	switch {
	case s < 3600:
		return fmt.Sprintf("%dm", s/60)
	case s < 86400:
		return fmt.Sprintf("%dh", s/3600)
	default:
		return fmt.Sprintf("%dd", s/86400)
	}
}
