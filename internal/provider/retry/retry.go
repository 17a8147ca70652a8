// Package retry re-runs model calls that failed because the provider was
// overloaded or out of quota.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	provider "github.com/Cyclone1070/q/internal/provider/models"
	"github.com/Cyclone1070/q/internal/provider/ratelimit"
)

// Policy configures the backoff schedule.
type Policy struct {
	// Attempts is the total number of calls, including the first.
	Attempts      int
	InitialDelay  time.Duration
	BackoffFactor float64
	JitterMin     time.Duration
	JitterMax     time.Duration
}

// DefaultPolicy returns five attempts starting at one second, doubling,
// with up to one second of jitter.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:      5,
		InitialDelay:  time.Second,
		BackoffFactor: 2,
		JitterMin:     0,
		JitterMax:     time.Second,
	}
}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Cause    error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Cause)
}
func (e *ExhaustedError) Unwrap() error { return e.Cause }

// Retrier runs an operation until it succeeds, fails with a non-retryable
// error, or runs out of attempts.
type Retrier struct {
	policy    Policy
	sleep     ratelimit.SleepFunc
	rand      func() float64
	retryable func(error) bool
	logger    *slog.Logger
}

// New creates a Retrier that retries provider.IsOverloaded errors.
func New(policy Policy, logger *slog.Logger) *Retrier {
	return NewWithClock(policy, ratelimit.Sleep, rand.Float64, logger)
}

// NewWithClock creates a Retrier with injected sleep and jitter source.
// rnd must return values in [0, 1).
func NewWithClock(policy Policy, sleep ratelimit.SleepFunc, rnd func() float64, logger *slog.Logger) *Retrier {
	if sleep == nil {
		panic("sleep is required")
	}
	if rnd == nil {
		panic("rand is required")
	}
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	if policy.BackoffFactor < 1 {
		policy.BackoffFactor = 1
	}
	if policy.JitterMax < policy.JitterMin {
		policy.JitterMax = policy.JitterMin
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrier{
		policy:    policy,
		sleep:     sleep,
		rand:      rnd,
		retryable: provider.IsOverloaded,
		logger:    logger,
	}
}

// Delay returns the pause before retry n (0 for the first retry).
func (r *Retrier) Delay(n int) time.Duration {
	base := float64(r.policy.InitialDelay) * math.Pow(r.policy.BackoffFactor, float64(n))
	jitter := float64(r.policy.JitterMin) + r.rand()*float64(r.policy.JitterMax-r.policy.JitterMin)
	return time.Duration(base + jitter)
}

// Do calls op until it succeeds. Only overloaded and quota failures are
// retried; anything else is returned at once.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < r.policy.Attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = op(ctx)
		if err == nil {
			return nil
		}
		if !r.retryable(err) {
			r.logger.ErrorContext(ctx, "non-retryable error", "error", err)
			return err
		}
		if attempt == r.policy.Attempts-1 {
			break
		}

		delay := r.Delay(attempt)
		if after := provider.GetRetryAfter(err); after != nil && *after > delay {
			delay = *after
		}
		r.logger.WarnContext(ctx, "provider overloaded, will retry",
			"attempt", attempt+1, "delay", delay, "error", err)
		if sleepErr := r.sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
	}
	return &ExhaustedError{Attempts: r.policy.Attempts, Cause: err}
}
