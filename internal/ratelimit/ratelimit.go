// Package ratelimit implements the two load gates the engine runs
// behind: a token bucket per external data provider and a weighted
// semaphore capping simultaneous asset sweeps.
//
// The buckets are deliberately hand-rolled as a small state machine
// under a mutex: waiters compute their own deficit and sleep it off,
// which keeps acquisition fair across concurrent callers of the same
// provider.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Provider labels used across the engine
const (
	ProviderGNews        = "gnews"
	ProviderFMP          = "fmp"
	ProviderAlphaVantage = "alpha_vantage"
	ProviderPolygon      = "polygon"
	ProviderFRED         = "fred"
	ProviderYahoo        = "yahoo"
	ProviderEDGAR        = "edgar"
)

// BucketConfig parameterises one provider bucket. Capacity is the
// burst allowance; Rate is sustained tokens per second sized against
// the provider's strictest daily quota.
type BucketConfig struct {
	Capacity float64
	Rate     float64
}

// DefaultConfigs mirror the free-tier quotas of each provider:
//
//	gnews          100/day  -> 1 per 864s, burst 3
//	fmp            300/day  -> 1 per 288s, burst 5
//	alpha_vantage   25/day  -> 1 per 3456s, burst 2
//	polygon        5/min    -> 1 per 12s, burst 5
//	fred           generous -> 1 per 2s, burst 10
//	yahoo          unofficial, be gentle -> 1 per 3s, burst 5
//	edgar          10/s documented -> 1 per 0.5s, burst 5
func DefaultConfigs() map[string]BucketConfig {
	return map[string]BucketConfig{
		ProviderGNews:        {Capacity: 3, Rate: 1.0 / 864},
		ProviderFMP:          {Capacity: 5, Rate: 1.0 / 288},
		ProviderAlphaVantage: {Capacity: 2, Rate: 1.0 / 3456},
		ProviderPolygon:      {Capacity: 5, Rate: 1.0 / 12},
		ProviderFRED:         {Capacity: 10, Rate: 0.5},
		ProviderYahoo:        {Capacity: 5, Rate: 1.0 / 3},
		ProviderEDGAR:        {Capacity: 5, Rate: 2},
	}
}

// bucket refills on every acquire based on the wall-clock delta since
// it was last touched. Refill and deduction happen under one lock.
type bucket struct {
	mu       sync.Mutex
	capacity float64
	rate     float64
	tokens   float64
	last     time.Time
}

// reserve refills the bucket and either deducts immediately or books
// the deficit and returns how long the caller must wait.
func (b *bucket) reserve(tokens float64, now time.Time) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens = minFloat(b.capacity, b.tokens+elapsed*b.rate)
	}
	b.last = now

	if b.tokens >= tokens {
		b.tokens -= tokens
		return 0
	}

	// The balance goes negative so later callers queue behind this one
	wait := time.Duration((tokens - b.tokens) / b.rate * float64(time.Second))
	b.tokens -= tokens
	return wait
}

// Limiter owns one bucket per provider. Unknown providers get a
// conservative default of one request per minute.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	configs map[string]BucketConfig
	sleep   func(ctx context.Context, d time.Duration) error
	now     func() time.Time
	log     zerolog.Logger
}

// New creates a Limiter with the given per-provider configs
func New(configs map[string]BucketConfig, log zerolog.Logger) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		configs: configs,
		sleep:   sleepCtx,
		now:     time.Now,
		log:     log.With().Str("component", "rate_limiter").Logger(),
	}
}

func (l *Limiter) getBucket(provider string) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[provider]
	if !ok {
		cfg, ok := l.configs[provider]
		if !ok {
			cfg = BucketConfig{Capacity: 5, Rate: 1.0 / 60}
		}
		b = &bucket{capacity: cfg.Capacity, rate: cfg.Rate, tokens: cfg.Capacity, last: l.now()}
		l.buckets[provider] = b
	}
	return b
}

// Acquire blocks until n tokens are available for the provider, then
// deducts them. Returns early with the context's error on cancel.
func (l *Limiter) Acquire(ctx context.Context, provider string, n float64) error {
	wait := l.getBucket(provider).reserve(n, l.now())
	if wait <= 0 {
		return nil
	}
	l.log.Debug().
		Str("provider", provider).
		Dur("wait", wait).
		Msg("Rate limit reached, waiting")
	return l.sleep(ctx, wait)
}

// Reserve deducts like Acquire but returns the wait instead of
// sleeping. Used by tests to observe bucket state.
func (l *Limiter) Reserve(provider string, n float64) time.Duration {
	return l.getBucket(provider).reserve(n, l.now())
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// SweepGate caps how many assets sweep in parallel across the whole
// process. Individual bots inside one sweep still fan out freely.
type SweepGate struct {
	sem *semaphore.Weighted
}

// NewSweepGate creates a gate admitting maxConcurrent sweeps
func NewSweepGate(maxConcurrent int) *SweepGate {
	return &SweepGate{sem: semaphore.NewWeighted(int64(maxConcurrent))}
}

// Acquire blocks until a sweep slot frees up
func (g *SweepGate) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

// Release returns the slot
func (g *SweepGate) Release() {
	g.sem.Release(1)
}
