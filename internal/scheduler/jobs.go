package scheduler

import "github.com/marketbrain/research-engine/internal/bots"

// Bot bundles, chosen per market moment.
//
// Fast moments get only time-sensitive bots: at an open, price and
// news ARE the signal, and fundamentals haven't changed in 15 minutes.
var (
	// botsFast covers open sweeps: zero FMP/AV quota spend
	botsFast = []string{bots.NameTechnicalLevels, bots.NameNews}

	// botsPremarket is the full daily intelligence reset, news and
	// earnings first: they are the most likely to be stale overnight
	botsPremarket = []string{
		bots.NameNews, bots.NameEarnings, bots.NameAnalyst,
		bots.NameFundamentals, bots.NameMacro, bots.NameTechnicalLevels,
	}

	// botsClose locks in the closing print first, then everything
	botsClose = []string{
		bots.NameTechnicalLevels, bots.NameNews, bots.NameEarnings,
		bots.NameFundamentals, bots.NameAnalyst, bots.NameMacro,
	}

	// botsOvernight: only news, earnings announcements and price moves
	// matter at 02:00 or 23:00
	botsOvernight = []string{bots.NameNews, bots.NameEarnings, bots.NameTechnicalLevels}

	// botsIntraday is the lightweight mid-session signal check
	botsIntraday = []string{bots.NameTechnicalLevels, bots.NameNews, bots.NameMacro}

	// botsUKPremarket: UK macro data drops at 07:00 sharp, so Macro leads
	botsUKPremarket = []string{bots.NameMacro, bots.NameNews, bots.NameTechnicalLevels}
)

// jobDef is one scheduled sweep: when it fires, which symbols it
// covers and with which bot policy.
type jobDef struct {
	id   string
	name string
	// spec is a standard cron expression resolved in Europe/London,
	// so BST/GMT transitions are handled by the tz database.
	spec string
	// targets selects symbols from the tier enumerations
	targets func(t1, t2, t3 []string) []string
	// override runs ONLY these bots, ignoring per-bot TTLs
	override []string
	// priority runs these bots first, the rest in normal order
	priority []string
}

// jobTable is the fixed sweep schedule. All times are UK civil time.
func jobTable() []jobDef {
	return []jobDef{
		{
			// Asia mid-session, US post-market winding down. After-hours
			// earnings and overnight macro events land here.
			id: "overnight", name: "02:00 UK  Overnight — Asia/Crypto/Post-market",
			spec: "0 2 * * *",
			targets: func(t1, _, _ []string) []string {
				return pick(t1, isUS, isCrypto, isAsianADR)
			},
			override: botsOvernight,
		},
		{
			// UK macro data drops at 07:00 GMT; LSE opens at 08:00.
			id: "uk_premarket", name: "07:00 UK  UK Pre-Market — macro data + EU prep",
			spec: "0 7 * * *",
			targets: func(t1, t2, _ []string) []string {
				return dedup(append(pick(t1, isUKEU, isCommodityForex), pick(t2, isUKEU)...))
			},
			priority: botsUKPremarket,
		},
		{
			// LSE open 15 minutes in; the 07:00 sweep already refreshed
			// fundamentals, so fast bots only.
			id: "uk_open", name: "08:15 UK  London Open — fast (Technicals+News)",
			spec: "15 8 * * 1-5",
			targets: func(t1, t2, _ []string) []string {
				return dedup(append(pick(t1, isUKEU), pick(t2, isUKEU)...))
			},
			override: botsFast,
		},
		{
			// UK mid-session; US pre-market direction forming. All Tier-1
			// because sector rotation crosses asset types here.
			id: "uk_midsession", name: "11:30 UK  UK Mid-Session",
			spec: "30 11 * * 1-5",
			targets: func(t1, _, _ []string) []string {
				return t1
			},
			priority: botsIntraday,
		},
		{
			// The most important sweep of the day: full intelligence
			// reset before NYSE opens.
			id: "us_premarket", name: "12:00 UK  US Pre-Market — full sweep",
			spec: "0 12 * * *",
			targets: func(t1, t2, _ []string) []string {
				return dedup(append(append(pick(t1, isUS), pick(t2, isUS)...), pick(t1, isCrypto)...))
			},
			priority: botsPremarket,
		},
		{
			// NYSE opened 15 minutes ago; the 12:00 sweep is fresh.
			id: "us_open", name: "14:45 UK  NYSE Open — fast (Technicals+News)",
			spec: "45 14 * * 1-5",
			targets: func(t1, _, _ []string) []string {
				return dedup(append(pick(t1, isUS), pick(t1, isCrypto)...))
			},
			override: botsFast,
		},
		{
			// LSE closed 15 minutes ago: the definitive EU daily record.
			id: "uk_close", name: "16:45 UK  London Close — full EU snapshot",
			spec: "45 16 * * 1-5",
			targets: func(t1, t2, _ []string) []string {
				return dedup(append(pick(t1, isUKEU), pick(t2, isUKEU)...))
			},
			priority: botsClose,
		},
		{
			// US 2.5 hours in, London closed. Intraday upgrades happen.
			id: "us_midsession", name: "17:00 UK  US Mid-Session",
			spec: "0 17 * * 1-5",
			targets: func(t1, _, _ []string) []string {
				return pick(t1, isUS)
			},
			priority: []string{bots.NameTechnicalLevels, bots.NameNews, bots.NameAnalyst},
		},
		{
			// NYSE closed 15 minutes ago. UK/EU excluded: their snapshot
			// was captured at 16:45 and re-running FMP duplicates calls.
			id: "us_close", name: "21:15 UK  US Close — full snapshot",
			spec: "15 21 * * 1-5",
			targets: func(t1, t2, _ []string) []string {
				return dedup(append(drop(t1, isUKEU), drop(t2, isUKEU)...))
			},
			priority: botsClose,
		},
		{
			// Post-market two hours in; most after-close earnings are out.
			id: "post_market", name: "23:00 UK  Post-Market — earnings + crypto",
			spec: "0 23 * * 1-5",
			targets: func(t1, _, _ []string) []string {
				return dedup(append(pick(t1, isUS), pick(t1, isCrypto)...))
			},
			override: botsOvernight,
		},
		{
			// Futures reopen Sunday 23:00 UTC: full reset so Monday
			// morning builds on a clean base.
			id: "weekend_prep", name: "Sun 23:30 UK  Weekend Prep — full reset",
			spec: "30 23 * * 0",
			targets: func(t1, t2, _ []string) []string {
				return dedup(append(t1, t2...))
			},
			priority: botsPremarket,
		},
		{
			// Quietest window of the week: weekly refresh for the
			// illiquid and rarely-viewed tail.
			id: "tier3_weekly", name: "Sun 02:00 UK  Tier-3 Weekly Deep Sweep",
			spec: "0 2 * * 0",
			targets: func(_, _, t3 []string) []string {
				return t3
			},
		},
	}
}
