package sweeper

import (
	"strings"

	"github.com/marketbrain/research-engine/pkg/formulas"
)

// signalContribution is one bot's value for one signal-input key
type signalContribution struct {
	value      float64
	confidence float64
}

// mergeSignals folds per-bot signal inputs into one map using
// confidence-weighted averaging. With zero total confidence the first
// contribution wins. Values round to three decimals on write.
func mergeSignals(contributions map[string][]signalContribution) map[string]float64 {
	merged := make(map[string]float64, len(contributions))
	for key, entries := range contributions {
		if len(entries) == 0 {
			continue
		}
		totalConf := 0.0
		for _, e := range entries {
			totalConf += e.confidence
		}
		if totalConf == 0 {
			merged[key] = formulas.Round(entries[0].value, 3)
			continue
		}
		weighted := 0.0
		for _, e := range entries {
			weighted += e.value * e.confidence
		}
		merged[key] = formulas.Round(weighted/totalConf, 3)
	}
	return merged
}

// dedupFactors removes entries whose case-folded 40-character prefix
// was already seen and caps the list at max.
func dedupFactors(factors []string, max int) []string {
	seen := make(map[string]bool, len(factors))
	out := make([]string, 0, len(factors))
	for _, f := range factors {
		key := strings.ToLower(f)
		if len(key) > 40 {
			key = key[:40]
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
		if len(out) == max {
			break
		}
	}
	return out
}
