package providers

import (
	"context"
	"math/rand"
	"time"
)

const (
	// DefaultMaxRetries is the rate-limit retry ceiling for HTTP adapters.
	DefaultMaxRetries = 5

	// DefaultBaseDelay is multiplied by 2^attempt to get the backoff delay.
	DefaultBaseDelay = time.Second

	// DefaultMaxJitter bounds the random delay added to every backoff.
	DefaultMaxJitter = 1000 * time.Millisecond
)

// SleepFunc waits for d or until ctx is done, whichever comes first.
type SleepFunc func(ctx context.Context, d time.Duration) error

// JitterFunc returns a random duration in [0, max).
type JitterFunc func(max time.Duration) time.Duration

// RetryPolicy parameterizes the exponential backoff used for throttled requests.
type RetryPolicy struct {
	// MaxRetries is how many retries are allowed after the first attempt
	MaxRetries int

	// BaseDelay is the unit of the exponential delay
	BaseDelay time.Duration

	// MaxJitter is the exclusive upper bound of the random jitter
	MaxJitter time.Duration
}

// DefaultRetryPolicy returns 5 retries with 2^n second delays and up to 1s of jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxJitter:  DefaultMaxJitter,
	}
}

// Delay returns the delay before the given retry, without jitter.
// attempt is 1-based: the first retry waits 2 * BaseDelay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.BaseDelay << uint(attempt)
}

// NewBackoff starts a fresh retry sequence under this policy.
// A nil jitter function uses a uniform random source.
func (p RetryPolicy) NewBackoff(jitter JitterFunc) *Backoff {
	if jitter == nil {
		jitter = RandomJitter
	}
	return &Backoff{policy: p, jitter: jitter}
}

// Backoff is the per-request retry state: how many retries have been spent.
// It is not safe for concurrent use; every request owns its own Backoff.
type Backoff struct {
	policy  RetryPolicy
	jitter  JitterFunc
	attempt int
}

// Next records a retry and returns how long to wait before sending it.
// It returns false once the retry ceiling is exceeded.
func (b *Backoff) Next() (time.Duration, bool) {
	b.attempt++
	if b.attempt > b.policy.MaxRetries {
		return 0, false
	}
	return b.policy.Delay(b.attempt) + b.jitter(b.policy.MaxJitter), true
}

// Attempt returns the number of retries recorded so far.
func (b *Backoff) Attempt() int {
	return b.attempt
}

// RandomJitter draws uniformly from [0, max).
func RandomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max)))
}

// SleepContext waits for d, returning ctx.Err() if the context ends first.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
