// Package domain holds the core asset model shared by the sweeper, the
// bots and the scheduler. Types here have no infrastructure dependencies.
package domain

import "strings"

// Quote types as published by the universe ingestion feed.
const (
	QuoteEquity = "EQUITY"
	QuoteETF    = "ETF"
	QuoteCrypto = "CRYPTOCURRENCY"
	QuoteForex  = "FOREX"
	QuoteFuture = "FUTURE"
	QuoteIndex  = "INDEX"
)

// Asset types derived at sweep time. Never stored: always recomputed
// from quote type and ticker shape.
const (
	AssetStock     = "stock"
	AssetETF       = "etf"
	AssetCrypto    = "crypto"
	AssetForex     = "forex"
	AssetCommodity = "commodity"
)

// AssetMeta describes one tradeable asset in the research universe
type AssetMeta struct {
	Ticker    string `json:"ticker"`
	Name      string `json:"name,omitempty"`
	Sector    string `json:"sector,omitempty"`
	Industry  string `json:"industry,omitempty"`
	Exchange  string `json:"exchange,omitempty"`
	Country   string `json:"country,omitempty"`
	Currency  string `json:"currency,omitempty"`
	QuoteType string `json:"quote_type,omitempty"`
}

// nonUSSuffixes mark tickers outside SEC/Polygon coverage
var nonUSSuffixes = []string{".L", ".PA", ".DE", ".AS", ".TO", ".AX", "=X", "-USD"}

// AssetType derives the internal asset type from quote type, ticker
// shape and sector. Rules are evaluated top to bottom; the first match
// wins, and equities are the fallback.
func (a AssetMeta) AssetType() string {
	quoteType := strings.ToUpper(a.QuoteType)
	sector := strings.ToLower(a.Sector)
	ticker := strings.ToUpper(a.Ticker)

	switch {
	case quoteType == QuoteCrypto || strings.Contains(ticker, "-USD"):
		return AssetCrypto
	case quoteType == QuoteForex || strings.Contains(ticker, "=X"):
		return AssetForex
	case quoteType == QuoteETF:
		return AssetETF
	case quoteType == QuoteFuture || strings.Contains(ticker, "=F"):
		return AssetCommodity
	case sector == "crypto":
		return AssetCrypto
	case sector == "forex":
		return AssetForex
	}
	return AssetStock
}

// IsUS reports whether the ticker looks US-listed. SEC EDGAR and
// Polygon only cover US listings, so bots route on this.
func IsUS(ticker string) bool {
	for _, suffix := range nonUSSuffixes {
		if strings.HasSuffix(ticker, suffix) {
			return false
		}
	}
	return true
}

// IsUK reports whether the ticker trades on the LSE
func IsUK(ticker string) bool {
	return strings.HasSuffix(ticker, ".L") || strings.HasSuffix(ticker, ".IL")
}
