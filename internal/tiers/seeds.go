package tiers

// Tier1Static is the always-on high-value set: watchlist staples,
// crypto majors, index trackers and volatile retail favourites. Sized
// to stay inside the daily provider budgets.
var Tier1Static = []string{
	// US mega cap
	"NVDA", "AAPL", "MSFT", "GOOGL", "META", "AMZN", "TSLA", "AMD",
	// US finance
	"JPM", "BAC", "GS", "MS",
	// US high growth
	"CRWD", "DDOG", "PLTR", "SOFI", "COIN", "HOOD", "MSTR",
	// UK/EU blue chips
	"SHEL.L", "AZN.L", "HSBA.L", "BP.L", "RIO.L", "GSK.L", "BAE.L",
	// European ADRs
	"ASML", "NVO", "SAP", "TSM",
	// Crypto majors
	"BTC-USD", "ETH-USD", "SOL-USD", "XRP-USD", "BNB-USD",
	"DOGE-USD", "ADA-USD", "AVAX-USD", "MATIC-USD", "DOT-USD",
	// Indices / ETFs
	"SPY", "QQQ", "GLD",
	// Volatile retail favourites
	"SOUN", "ASTS", "IONQ", "RIVN", "UPST", "GME", "AMC",
}

// Tier2Static is the broader daily-sweep coverage
var Tier2Static = []string{
	// S&P 500 blue chips
	"JNJ", "PG", "KO", "PEP", "WMT", "COST", "HD", "LOW",
	"CVX", "XOM", "COP", "SLB", "HAL",
	"UNH", "LLY", "MRK", "PFE", "ABBV", "BMY", "AMGN",
	"V", "MA", "PYPL", "SQ", "AFRM",
	"NFLX", "DIS", "CMCSA", "T", "VZ",
	"ORCL", "CRM", "ADBE", "INTU", "NOW", "SNOW", "PLTR",
	"INTC", "AVGO", "QCOM", "MU", "TXN", "AMAT", "KLAC", "LRCX",
	"LMT", "RTX", "NOC", "GD", "BA",
	"CAT", "DE", "HON", "EMR", "ETN",
	"SHOP", "UBER", "LYFT", "ABNB", "BKNG", "EXPE",
	// More crypto
	"LTC-USD", "LINK-USD", "UNI-USD", "AAVE-USD",
	// More UK
	"ULVR.L", "DGE.L", "BATS.L", "VOD.L", "LLOY.L", "BARC.L",
	"BT.L", "MKS.L", "TSCO.L", "RR.L",
	// Asian ADRs and emerging markets
	"BABA", "TCEHY", "NIO", "BIDU", "JD", "PDD", "SE",
	"HDB", "INFY", "VALE", "PBR",
	// ETFs
	"IWM", "VTI", "ARKK", "XLF", "XLE", "XLK", "XLV",
	"SOXX", "IBIT", "FBTC",
}
