package guard

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/kvguard/rpc/client"
	"github.com/bjaus/retry"
	"math"
	"time"
)

const (
	// maxDelayMs is the largest backoff in milliseconds that fits into a time.Duration
	maxDelayMs = math.MaxInt64 / int64(time.Millisecond)
	// unlimited is the retry budget used when Config.MaxElapsed is 0
	unlimited = time.Duration(math.MaxInt64)
)

// Clock is the time source of the retry loop. Sleep waits for d or until ctx is done.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// RetryPolicy decides how often and how long to wait before a timed out operation is retried
type RetryPolicy struct {
	// Count is the maximum number of retries after the first attempt
	Count int
	// Backoff is the base in milliseconds; the delay before retry k is Backoff^k ms
	Backoff int
}

// Delay returns the backoff before the given retry (1-indexed).
// The result saturates instead of overflowing.
func (p RetryPolicy) Delay(retry int) time.Duration {
	if retry < 1 || p.Backoff <= 0 {
		return 0
	}

	base := int64(p.Backoff)
	ms := int64(1)
	for i := 0; i < retry; i++ {
		if ms > maxDelayMs/base {
			return time.Duration(maxDelayMs) * time.Millisecond
		}
		ms *= base
	}
	return time.Duration(ms) * time.Millisecond
}

// CallOption overrides the retry policy of a single call
type CallOption func(p *RetryPolicy)

// WithRetryCount overrides the retry count. A negative value keeps the configured default.
func WithRetryCount(count int) CallOption {
	return func(p *RetryPolicy) {
		if count >= 0 {
			p.Count = count
		}
	}
}

// WithRetryBackoff overrides the backoff base in milliseconds.
// A negative value keeps the configured default.
func WithRetryBackoff(backoff int) CallOption {
	return func(p *RetryPolicy) {
		if backoff >= 0 {
			p.Backoff = backoff
		}
	}
}

// Execute runs op against the live handle of the guard.
//
// Each attempt holds one permit of the guard's pool for its whole duration. An attempt that
// fails with a timeout (see Classify) is retried after Backoff^retry milliseconds until the
// retry count is used up, any other error is returned at once. Operations issued while the
// guard is not connected fail with ErrNotConnected without being attempted.
//
// Cancelling ctx aborts a pending permit wait or backoff sleep, an attempt that is already
// running is bounded by the driver's request timeout only.
func Execute[T any](ctx context.Context, g *Guard, op func(h client.IRemoteStore) (T, error), opts ...CallOption) (T, error) {
	var zero T

	policy := g.policy
	for _, opt := range opts {
		opt(&policy)
	}

	now := time.Now
	if g.clock != nil {
		now = g.clock.Now
	}
	start := now()

	var (
		result      T
		attempts    int
		lastTimeout error
	)

	// the delay before retry k is Backoff^k, k being the number of attempts made so far
	maxAttempts := retry.WithMaxAttempts(policy.Count + 1)
	backoff := retry.WithBackoff(retry.BackoffFunc(func(int) time.Duration {
		return policy.Delay(attempts)
	}))
	budget := retry.WithMaxDuration(unlimited)
	if g.config.MaxElapsed > 0 {
		budget = retry.WithMaxDuration(g.config.MaxElapsed)
	}
	retrier := retry.New(maxAttempts, backoff, budget)
	if g.clock != nil {
		retrier = retry.New(maxAttempts, backoff, budget, retry.WithClock(g.clock))
	}

	err := retrier.Do(ctx, func(ctx context.Context) error {
		attempts++
		value, err := attempt(ctx, g, op)
		if err == nil {
			result = value
			return nil
		}
		if !IsTimeout(err) {
			return err
		}
		g.metrics.timeouts.Inc()
		lastTimeout = err

		if limit := g.config.MaxElapsed; limit > 0 && attempts <= policy.Count {
			if delay := policy.Delay(attempts); now().Sub(start)+delay > limit {
				Logger.Warningf("Store operation timed out, not retrying since %s would exceed the budget of %s", delay, limit)
				return retry.Stop(err)
			}
		}
		return err
	},
		retry.If(IsTimeout),
		retry.OnRetry(func(_ context.Context, _ int, _ error, delay time.Duration) {
			Logger.Warningf("Store operation timed out, trying again in %s (retry %d of %d)", delay, attempts, policy.Count)
			g.metrics.retries.Inc()
		}),
		retry.OnExhausted(func(_ context.Context, _ int, err error) {
			if policy.Count > 0 && IsTimeout(err) {
				Logger.Warningf("Store operation timed out after %d retries: %v", policy.Count, err)
			}
		}),
	)

	if err = abortCause(ctx, err, lastTimeout); err != nil {
		g.metrics.failures.Inc()
		return zero, err
	}
	g.metrics.success.Inc()
	return result, nil
}

// abortCause makes sure a call that ended while waiting for a retry reports the last
// timeout: with ctx.Err() when the caller gave up, or alone when the retry budget ran out.
func abortCause(ctx context.Context, err, lastTimeout error) error {
	if err == nil || lastTimeout == nil {
		return err
	}
	if cause := ctx.Err(); cause != nil {
		if errors.Is(err, cause) && errors.Is(err, lastTimeout) {
			return err
		}
		return fmt.Errorf("guard: retry aborted: %w (last error: %w)", cause, lastTimeout)
	}
	if !errors.Is(err, lastTimeout) && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
		return lastTimeout
	}
	return err
}

// Do is Execute for operations without a result
func (g *Guard) Do(ctx context.Context, op func(h client.IRemoteStore) error, opts ...CallOption) error {
	_, err := Execute(ctx, g, func(h client.IRemoteStore) (struct{}, error) {
		return struct{}{}, op(h)
	}, opts...)
	return err
}

// attempt runs op once while holding a permit. The permit is released on every exit path.
func attempt[T any](ctx context.Context, g *Guard, op func(h client.IRemoteStore) (T, error)) (T, error) {
	var zero T

	if _, err := g.conn.live(); err != nil {
		return zero, err
	}

	if err := g.permits.Acquire(ctx); err != nil {
		return zero, fmt.Errorf("guard: waiting for permit: %w", err)
	}
	defer g.permits.Release()

	// the connection may have been lost while waiting for the permit
	handle, err := g.conn.live()
	if err != nil {
		return zero, err
	}

	g.metrics.attempts.Inc()
	defer g.metrics.duration.UpdateDuration(time.Now())

	return op(handle)
}
