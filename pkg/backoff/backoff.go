package backoff

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Strategy describes how long to wait between attempts of a request.
type Strategy struct {
	initialInterval     time.Duration
	maxInterval         time.Duration
	multiplier          float64
	randomizationFactor float64
	maxElapsedTime      time.Duration
	maxRetries          int
	immediateFirst      bool
}

type Option func(*Strategy)

func WithInitialInterval(d time.Duration) Option {
	return func(s *Strategy) { s.initialInterval = d }
}

func WithMaxInterval(d time.Duration) Option {
	return func(s *Strategy) { s.maxInterval = d }
}

func WithMultiplier(m float64) Option {
	return func(s *Strategy) { s.multiplier = m }
}

func WithRandomizationFactor(f float64) Option {
	return func(s *Strategy) { s.randomizationFactor = f }
}

func WithMaxElapsedTime(d time.Duration) Option {
	return func(s *Strategy) { s.maxElapsedTime = d }
}

// WithMaxRetries caps the number of retries after the first attempt.
// Zero or negative means unlimited (bounded by max elapsed time only).
func WithMaxRetries(n int) Option {
	return func(s *Strategy) { s.maxRetries = n }
}

// WithFactor retries the first failure at once, then sleeps
// factor*2^(n-1) seconds where n counts the failures so far, without jitter.
func WithFactor(factor float64) Option {
	return func(s *Strategy) {
		s.initialInterval = time.Duration(2 * factor * float64(time.Second))
		s.multiplier = 2.0
		s.randomizationFactor = 0
		s.immediateFirst = true
	}
}

func NewStrategy(opts ...Option) *Strategy {
	s := &Strategy{
		initialInterval:     1 * time.Second,
		maxInterval:         30 * time.Second,
		multiplier:          2.0,
		randomizationFactor: 0.5,
		maxElapsedTime:      5 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Strategy) MaxRetries() int {
	return s.maxRetries
}

func (s *Strategy) NewRetry() *Retry {
	return &Retry{
		strategy: s,
		next:     s.initialInterval,
		started:  time.Now(),
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Retry tracks one sequence of attempts. It is not safe for concurrent use.
type Retry struct {
	strategy *Strategy
	next     time.Duration
	started  time.Time
	attempt  int
	rand     *rand.Rand
}

// NextInterval returns the wait before the next retry, or false once the
// strategy gives up.
func (r *Retry) NextInterval() (time.Duration, bool) {
	s := r.strategy
	if s.maxRetries > 0 && r.attempt >= s.maxRetries {
		return 0, false
	}
	if s.maxElapsedTime > 0 && time.Since(r.started) > s.maxElapsedTime {
		return 0, false
	}

	if s.immediateFirst && r.attempt == 0 {
		r.attempt++
		return 0, true
	}

	wait := r.next
	if s.randomizationFactor > 0 {
		delta := float64(wait) * s.randomizationFactor
		wait = time.Duration(float64(wait) + (r.rand.Float64()*2-1)*delta)
	}

	r.next = time.Duration(float64(r.next) * s.multiplier)
	if s.maxInterval > 0 && r.next > s.maxInterval {
		r.next = s.maxInterval
	}
	r.attempt++
	return wait, true
}

func (r *Retry) Attempt() int {
	return r.attempt
}

// Notify is called before each retry with the error that caused it, the
// retry number (from 1) and the wait about to happen.
type Notify func(err error, retry int, wait time.Duration)

// Do calls fn until it succeeds, returns a permanent error, the strategy
// gives up or ctx is done. The last error is returned wrapped in a
// *BackoffError once retries are exhausted.
func Do(ctx context.Context, strategy *Strategy, fn func() error) error {
	return DoNotify(ctx, strategy, fn, nil)
}

// DoNotify is Do with a callback before every retry. A *RetryAfterError
// from fn stretches the wait to the server-requested delay.
func DoNotify(ctx context.Context, strategy *Strategy, fn func() error, notify Notify) error {
	retry := strategy.NewRetry()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}

		var perm *PermanentError
		if errors.As(err, &perm) {
			return perm.Err
		}

		wait, ok := retry.NextInterval()
		if !ok {
			return &BackoffError{Err: err, Attempt: retry.Attempt()}
		}
		var ra *RetryAfterError
		if errors.As(err, &ra) && ra.After > wait {
			wait = ra.After
		}
		if notify != nil {
			notify(err, retry.Attempt(), wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

type BackoffError struct {
	Err     error
	Attempt int
}

func (e *BackoffError) Error() string {
	return e.Err.Error()
}

func (e *BackoffError) Unwrap() error {
	return e.Err
}

type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// RetryAfterError carries a server-requested minimum wait, usually from a
// Retry-After header.
type RetryAfterError struct {
	Err   error
	After time.Duration
}

func (e *RetryAfterError) Error() string {
	return e.Err.Error()
}

func (e *RetryAfterError) Unwrap() error {
	return e.Err
}

// RetryAfter asks for at least d before the next attempt. A non-positive d
// returns err unchanged.
func RetryAfter(err error, d time.Duration) error {
	if err == nil || d <= 0 {
		return err
	}
	return &RetryAfterError{Err: err, After: d}
}
