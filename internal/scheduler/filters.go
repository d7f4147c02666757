package scheduler

import "strings"

// Suffix sets used by the per-job asset filters. These are coarser
// than the domain package's routing rules on purpose: a job filter
// answers "which session does this symbol trade in", not "which bots
// apply to it".
var nonUSSuffixes = []string{".L", ".PA", ".DE", ".AS", ".MI", ".MC", ".TO", ".AX", "=X"}
var ukEUSuffixes = []string{".L", ".PA", ".DE", ".AS", ".MI", ".MC"}

var asianADRs = map[string]bool{
	"BABA": true, "BIDU": true, "NIO": true, "JD": true, "PDD": true,
	"SE": true, "TSM": true, "TCEHY": true, "SONY": true,
	"HDB": true, "INFY": true, "WIT": true, "TTM": true, "RDY": true,
	"VALE": true, "PBR": true, "ITUB": true, "GRAB": true,
	"NVO": true, "ASML": true, "SAP": true, "DESP": true, "XPEV": true,
}

var commodityForexETFs = map[string]bool{
	"GLD": true, "SLV": true, "USO": true, "DBC": true,
	"WEAT": true, "CORN": true, "PDBC": true,
}

func isUS(ticker string) bool {
	for _, suffix := range nonUSSuffixes {
		if strings.HasSuffix(ticker, suffix) {
			return false
		}
	}
	return !strings.Contains(ticker, "-USD")
}

func isUKEU(ticker string) bool {
	for _, suffix := range ukEUSuffixes {
		if strings.HasSuffix(ticker, suffix) {
			return true
		}
	}
	return false
}

func isCrypto(ticker string) bool {
	return strings.Contains(ticker, "-USD")
}

func isCommodityForex(ticker string) bool {
	return strings.Contains(ticker, "=X") || commodityForexETFs[ticker]
}

func isAsianADR(ticker string) bool {
	return asianADRs[ticker]
}

// pick returns symbols matching any predicate, order preserved,
// deduped.
func pick(symbols []string, predicates ...func(string) bool) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range symbols {
		if seen[s] {
			continue
		}
		for _, p := range predicates {
			if p(s) {
				out = append(out, s)
				seen[s] = true
				break
			}
		}
	}
	return out
}

// drop returns symbols matching none of the predicates
func drop(symbols []string, predicates ...func(string) bool) []string {
	var out []string
	for _, s := range symbols {
		matched := false
		for _, p := range predicates {
			if p(s) {
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, s)
		}
	}
	return out
}

// dedup keeps first occurrences, order preserved
func dedup(symbols []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range symbols {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
