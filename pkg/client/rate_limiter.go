package client

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"climate-analyzer/pkg/backoff"
	"climate-analyzer/pkg/logger"
)

// Quota allows at most Limit requests in any sliding Window.
type Quota struct {
	Limit  int
	Window time.Duration
}

func (q Quota) String() string {
	return fmt.Sprintf("%d/%s", q.Limit, q.Window)
}

// OpenMeteoQuotas are the published limits for non-commercial use.
func OpenMeteoQuotas() []Quota {
	return []Quota{
		{Limit: 600, Window: time.Minute},
		{Limit: 5000, Window: time.Hour},
		{Limit: 10000, Window: 24 * time.Hour},
	}
}

type RateLimiterConfig struct {
	Quotas                   []Quota
	MinInterval              time.Duration
	ConsecutiveFailThreshold int
	BackoffInitial           time.Duration
	BackoffMax               time.Duration
}

func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Quotas:                   OpenMeteoQuotas(),
		MinInterval:              100 * time.Millisecond,
		ConsecutiveFailThreshold: 3,
		BackoffInitial:           1 * time.Second,
		BackoffMax:               5 * time.Minute,
	}
}

// RateLimiter keeps requests within the archive API quotas and backs off
// globally when the server pushes back with 429/503 or requests keep
// failing.
type RateLimiter struct {
	mu sync.Mutex

	quotas           []Quota
	minInterval      time.Duration
	failThreshold    int
	sent             []time.Time // send times within the longest quota window
	lastSent         time.Time
	consecutiveFails int

	strategy     *backoff.Strategy
	retry        *backoff.Retry
	backoffUntil time.Time

	total   int64
	success int64
	failed  int64

	rand *rand.Rand
}

func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	def := DefaultRateLimiterConfig()
	var quotas []Quota
	for _, q := range cfg.Quotas {
		if q.Limit > 0 && q.Window > 0 {
			quotas = append(quotas, q)
		}
	}
	if len(quotas) == 0 {
		quotas = def.Quotas
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	if cfg.ConsecutiveFailThreshold <= 0 {
		cfg.ConsecutiveFailThreshold = def.ConsecutiveFailThreshold
	}
	if cfg.BackoffInitial <= 0 {
		cfg.BackoffInitial = def.BackoffInitial
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = def.BackoffMax
	}

	strategy := backoff.NewStrategy(
		backoff.WithInitialInterval(cfg.BackoffInitial),
		backoff.WithMaxInterval(cfg.BackoffMax),
		backoff.WithMultiplier(2.0),
		backoff.WithRandomizationFactor(0.3),
		backoff.WithMaxElapsedTime(0),
	)

	return &RateLimiter{
		quotas:        quotas,
		minInterval:   cfg.MinInterval,
		failThreshold: cfg.ConsecutiveFailThreshold,
		strategy:      strategy,
		retry:         strategy.NewRetry(),
		rand:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Wait blocks until a request may be sent and records it as sent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		now := time.Now()
		wait, reason := r.delay(now)
		if wait <= 0 {
			r.lastSent = now
			r.sent = append(r.sent, now)
			r.total++
			r.mu.Unlock()
			return nil
		}
		r.mu.Unlock()

		if reason != "" {
			logger.Infof("%s, waiting %s...", reason, formatDuration(wait))
		}
		if err := sleepCtx(ctx, wait); err != nil {
			return err
		}
	}
}

// delay returns how long the next request must wait and, for waits worth
// reporting, why. Caller holds r.mu.
func (r *RateLimiter) delay(now time.Time) (time.Duration, string) {
	if remaining := r.backoffUntil.Sub(now); remaining > 0 {
		return remaining, "Rate limited"
	}

	r.prune(now)
	var wait time.Duration
	var reason string
	for _, q := range r.quotas {
		cutoff := now.Add(-q.Window)
		inWindow := 0
		for i := len(r.sent) - 1; i >= 0 && r.sent[i].After(cutoff); i-- {
			inWindow++
		}
		if inWindow < q.Limit {
			continue
		}
		// the oldest request still counted must leave the window
		oldest := r.sent[len(r.sent)-inWindow]
		if d := oldest.Add(q.Window).Sub(now); d > wait {
			wait = d
			reason = "Quota " + q.String() + " reached"
		}
	}
	if wait > 0 {
		return wait, reason
	}

	if !r.lastSent.IsZero() && now.Sub(r.lastSent) < r.minInterval {
		return r.jitter(r.minInterval-now.Sub(r.lastSent), 0.2), ""
	}
	return 0, ""
}

func (r *RateLimiter) jitter(d time.Duration, factor float64) time.Duration {
	delta := float64(d) * factor
	return time.Duration(float64(d) + (r.rand.Float64()*2-1)*delta)
}

// prune drops send times older than the longest quota window.
func (r *RateLimiter) prune(now time.Time) {
	var longest time.Duration
	for _, q := range r.quotas {
		if q.Window > longest {
			longest = q.Window
		}
	}
	cutoff := now.Add(-longest)
	idx := 0
	for idx < len(r.sent) && !r.sent[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		r.sent = r.sent[idx:]
	}
}

func (r *RateLimiter) IsInBackoff() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Until(r.backoffUntil) > 0
}

func (r *RateLimiter) RecordSuccess() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.success++
	r.consecutiveFails = 0
	if r.retry.Attempt() > 0 {
		r.retry = r.strategy.NewRetry()
	}
}

// RecordFailure notes a failed request. statusCode is zero for transport
// errors; retryAfter is the server-requested pause, if any.
func (r *RateLimiter) RecordFailure(statusCode int, retryAfter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failed++

	rateLimited := statusCode == 429 || statusCode == 503
	clientError := statusCode >= 400 && statusCode < 500 && statusCode != 429
	if !clientError {
		r.consecutiveFails++
	}
	if !rateLimited && (clientError || r.consecutiveFails < r.failThreshold) {
		return
	}

	interval, ok := r.retry.NextInterval()
	if !ok {
		r.retry = r.strategy.NewRetry()
		interval, _ = r.retry.NextInterval()
	}
	if retryAfter > interval {
		interval = retryAfter
	}
	r.backoffUntil = time.Now().Add(interval)

	if rateLimited {
		logger.Warnf("Rate limited by server (HTTP %d), backing off for %s",
			statusCode, formatDuration(interval))
	} else {
		logger.Warnf("Request failures: %d consecutive, backing off for %s",
			r.consecutiveFails, formatDuration(interval))
	}
}

func (r *RateLimiter) GetStats() (total, success, failed int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total, r.success, r.failed
}

func (r *RateLimiter) PrintStats() {
	total, success, failed := r.GetStats()
	if total > 0 {
		logger.Infof("Archive requests: %d sent, %d succeeded, %d failed",
			total, success, failed)
	}
}
