package research

import "fmt"

// numericThreshold is the relative change below which a numeric field
// is treated as noise.
const numericThreshold = 0.02

// alwaysSignificant fields register a delta on any change at all
var alwaysSignificant = map[string]bool{
	"earnings_date": true,
	"consensus":     true,
	"golden_cross":  true,
	"death_cross":   true,
}

// ignoreFields never count towards a delta. Fetch timestamps are
// bookkeeping, not data: without ignoring them two sweeps over
// identical provider responses would always differ.
var ignoreFields = map[string]bool{
	"_ts":         true,
	"_source":     true,
	"_fetched_at": true,
	"data_age_s":  true,
}

// DetectDelta reports whether newData differs meaningfully from
// oldData. A nil oldData (first sweep) is always a delta. The result
// is observability only: the envelope is written either way.
func DetectDelta(oldData, newData map[string]interface{}) bool {
	if oldData == nil {
		return true
	}

	keys := map[string]bool{}
	for k := range oldData {
		keys[k] = true
	}
	for k := range newData {
		keys[k] = true
	}

	for key := range keys {
		if ignoreFields[key] {
			continue
		}
		if isSignificantChange(oldData[key], newData[key], key) {
			return true
		}
	}
	return false
}

func isSignificantChange(oldVal, newVal interface{}, key string) bool {
	if ignoreFields[key] {
		return false
	}
	if alwaysSignificant[key] {
		return fmt.Sprint(oldVal) != fmt.Sprint(newVal)
	}
	if oldVal == nil && newVal == nil {
		return false
	}
	if oldVal == nil || newVal == nil {
		return true // appeared or disappeared
	}

	// Numeric: relative change against the 2% threshold
	if oldF, ok := asFloat(oldVal); ok {
		if newF, ok := asFloat(newVal); ok {
			if oldF == 0 {
				return newF != 0
			}
			rel := (newF - oldF) / oldF
			if rel < 0 {
				rel = -rel
			}
			return rel >= numericThreshold
		}
	}

	// Lists compare as sets of strings, order ignored
	if oldList, ok := oldVal.([]interface{}); ok {
		if newList, ok := newVal.([]interface{}); ok {
			return !sameStringSet(oldList, newList)
		}
	}

	// Nested sections recurse
	if oldMap, ok := oldVal.(map[string]interface{}); ok {
		if newMap, ok := newVal.(map[string]interface{}); ok {
			return DetectDelta(oldMap, newMap)
		}
	}

	return fmt.Sprint(oldVal) != fmt.Sprint(newVal)
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func sameStringSet(a, b []interface{}) bool {
	as := map[string]bool{}
	for _, v := range a {
		as[fmt.Sprint(v)] = true
	}
	bs := map[string]bool{}
	for _, v := range b {
		bs[fmt.Sprint(v)] = true
	}
	if len(as) != len(bs) {
		return false
	}
	for v := range as {
		if !bs[v] {
			return false
		}
	}
	return true
}
