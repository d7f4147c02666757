// Package scheduler drives the market-aware sweep schedule. Jobs are
// cron entries in Europe/London civil time; each enumerates its asset
// set from the priority tiers and walks it sequentially, letting the
// rate limiter set the pace.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/marketbrain/research-engine/internal/domain"
	"github.com/marketbrain/research-engine/internal/sweeper"
	"github.com/marketbrain/research-engine/internal/tiers"
	"github.com/marketbrain/research-engine/internal/universe"
)

// TimeZone anchors every job's civil fire time
const TimeZone = "Europe/London"

// Scheduler owns the cron runner and the job registry
type Scheduler struct {
	cron     *cron.Cron
	jobs     []jobDef
	entries  map[string]cron.EntryID
	sweeper  *sweeper.Sweeper
	tiers    *tiers.Manager
	universe *universe.Loader
	pause    time.Duration
	log      zerolog.Logger
}

// Config wires a Scheduler
type Config struct {
	Sweeper  *sweeper.Sweeper
	Tiers    *tiers.Manager
	Universe *universe.Loader
	// Pause is the gentle inter-asset delay within one job
	Pause time.Duration
	Log   zerolog.Logger
}

// New creates a scheduler with the fixed job table registered but not
// yet started.
func New(cfg Config) (*Scheduler, error) {
	location, err := time.LoadLocation(TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", TimeZone, err)
	}

	log := cfg.Log.With().Str("component", "scheduler").Logger()
	cronLog := cronLogger{log: log}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(location),
			// One running instance per job; a job that overruns its
			// next fire time skips that fire rather than stacking.
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		jobs:     jobTable(),
		entries:  make(map[string]cron.EntryID),
		sweeper:  cfg.Sweeper,
		tiers:    cfg.Tiers,
		universe: cfg.Universe,
		pause:    cfg.Pause,
		log:      log,
	}

	for _, job := range s.jobs {
		job := job
		entryID, err := s.cron.AddFunc(job.spec, func() { s.runJob(job) })
		if err != nil {
			return nil, fmt.Errorf("register job %s: %w", job.id, err)
		}
		s.entries[job.id] = entryID
		log.Info().
			Str("job", job.id).
			Str("spec", job.spec).
			Msg("Job registered")
	}
	return s, nil
}

// Start begins dispatching jobs. Missed runs are not back-filled.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.jobs)).Msg("Scheduler started")
}

// Stop halts dispatch and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// runJob executes one scheduled sweep batch
func (s *Scheduler) runJob(job jobDef) {
	ctx := context.Background()
	log := s.log.With().Str("job", job.id).Logger()

	// Watchlist promotions happen before enumeration so a freshly
	// watched symbol is swept on this very cycle.
	if watchlist := s.universe.Watchlist(ctx); len(watchlist) > 0 {
		s.tiers.SetWatchlist(watchlist)
	}
	assets := s.universe.Assets(ctx)
	s.tiers.LoadUniverse(symbolsOf(assets))

	targets := job.targets(s.tiers.Tier1(), s.tiers.Tier2(), s.tiers.Tier3())
	if len(targets) == 0 {
		log.Info().Msg("No symbols — skipped")
		return
	}

	log.Info().
		Int("assets", len(targets)).
		Strs("override", job.override).
		Msg("Job starting")

	start := time.Now()
	ok, failed := 0, 0
	for _, symbol := range targets {
		meta, found := assets[symbol]
		if !found {
			meta = universe.FallbackMeta(symbol)
		}
		_, err := s.sweeper.Sweep(ctx, symbol, meta, sweeper.Options{
			Force:        len(job.override) > 0,
			Cycle:        job.id,
			PriorityBots: job.priority,
			BotsOverride: job.override,
		})
		if err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("Sweep failed")
			failed++
		} else {
			ok++
		}
		time.Sleep(s.pause)
	}

	log.Info().
		Int("ok", ok).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("Job done")
}

// JobStatus describes one registered job for the admin surface
type JobStatus struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	NextRun string `json:"next_run"`
}

// Status reports the scheduler state and per-job next fire times
func (s *Scheduler) Status() (running bool, jobs []JobStatus) {
	for _, job := range s.jobs {
		entry := s.cron.Entry(s.entries[job.id])
		next := ""
		if !entry.Next.IsZero() {
			next = entry.Next.Format(time.RFC3339)
			running = true
		}
		jobs = append(jobs, JobStatus{ID: job.id, Name: job.name, NextRun: next})
	}
	sort.Slice(jobs, func(i, j int) bool {
		a, b := jobs[i].NextRun, jobs[j].NextRun
		if a == "" {
			a = "9999"
		}
		if b == "" {
			b = "9999"
		}
		return a < b
	})
	return running, jobs
}

// TriggerSweepNow schedules an out-of-band sweep of the given tier
// without blocking the caller. Tier 2 includes tier 1; anything else
// sweeps the whole ordered universe.
func (s *Scheduler) TriggerSweepNow(tier int, cycle string) (int, string) {
	var symbols []string
	switch tier {
	case 1:
		symbols = s.tiers.Tier1()
	case 2:
		symbols = append(s.tiers.Tier1(), s.tiers.Tier2()...)
	default:
		symbols = s.tiers.AllOrdered()
	}
	if cycle == "" {
		cycle = "manual-" + uuid.NewString()[:8]
	}

	go s.runJob(jobDef{
		id:   cycle,
		name: "manual sweep",
		targets: func(_, _, _ []string) []string {
			return symbols
		},
		priority: botsPremarket,
	})
	return len(symbols), cycle
}

func symbolsOf(assets map[string]domain.AssetMeta) []string {
	out := make([]string, 0, len(assets))
	for symbol := range assets {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}

// cronLogger adapts zerolog to the cron.Logger interface
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Interface("kv", keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Interface("kv", keysAndValues).Msg(msg)
}
