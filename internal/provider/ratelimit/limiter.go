// Package ratelimit throttles model calls to a tokens-per-minute budget.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Window is the span over which usage is summed.
const Window = time.Minute

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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

type sample struct {
	at     time.Time
	tokens int
}

// Limiter keeps the token usage of the last minute and blocks callers that
// would push it over budget. A budget <= 0 disables limiting.
type Limiter struct {
	mu           sync.Mutex
	tokensPerMin int
	samples      []sample
	now          func() time.Time
	sleep        SleepFunc
	logger       *slog.Logger
}

// NewLimiter creates a Limiter using the wall clock.
func NewLimiter(tokensPerMin int, logger *slog.Logger) *Limiter {
	return NewLimiterWithClock(tokensPerMin, time.Now, Sleep, logger)
}

// NewLimiterWithClock creates a Limiter with an injected clock (for testing).
func NewLimiterWithClock(tokensPerMin int, now func() time.Time, sleep SleepFunc, logger *slog.Logger) *Limiter {
	if now == nil {
		panic("now is required")
	}
	if sleep == nil {
		panic("sleep is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{tokensPerMin: tokensPerMin, now: now, sleep: sleep, logger: logger}
}

// SetTokensPerMin changes the budget.
func (l *Limiter) SetTokensPerMin(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokensPerMin = n
}

// Record adds a usage sample at the current time.
func (l *Limiter) Record(tokens int) {
	if tokens <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.samples = append(l.samples, sample{at: l.now(), tokens: tokens})
	l.purge()
}

// Usage returns the tokens used within the window.
func (l *Limiter) Usage() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.purge()
	return l.sum()
}

// Wait blocks until upcoming tokens fit in the budget and returns the time
// slept. It waits for the fewest oldest samples to expire that free enough
// tokens; when no samples can free enough it waits proportionally to the
// overshoot.
func (l *Limiter) Wait(ctx context.Context, upcoming int) (time.Duration, error) {
	l.mu.Lock()
	wait, need := l.plan(upcoming)
	tpm := l.tokensPerMin
	l.mu.Unlock()

	if wait <= 0 {
		return 0, nil
	}

	l.logger.InfoContext(ctx, "rate limit approaching, waiting",
		"wait", wait, "tokens_needed", need, "tokens_per_min", tpm)
	if err := l.sleep(ctx, wait); err != nil {
		return 0, err
	}

	l.mu.Lock()
	l.purge()
	l.mu.Unlock()
	return wait, nil
}

// plan computes the wait for upcoming tokens. Callers hold mu.
func (l *Limiter) plan(upcoming int) (time.Duration, int) {
	if l.tokensPerMin <= 0 {
		return 0, 0
	}
	l.purge()
	used := l.sum()
	if used+upcoming <= l.tokensPerMin {
		return 0, 0
	}
	need := used + upcoming - l.tokensPerMin

	now := l.now()
	freed := 0
	for _, s := range l.samples {
		freed += s.tokens
		if freed >= need {
			if wait := s.at.Add(Window).Sub(now); wait > 0 {
				return wait, need
			}
			break
		}
	}

	fallback := time.Duration(float64(need) / float64(l.tokensPerMin) * float64(Window))
	return fallback, need
}

// purge drops samples that have left the window. Callers hold mu.
func (l *Limiter) purge() {
	cutoff := l.now().Add(-Window)
	i := 0
	for i < len(l.samples) && !l.samples[i].at.After(cutoff) {
		i++
	}
	if i > 0 {
		l.samples = append(l.samples[:0], l.samples[i:]...)
	}
}

func (l *Limiter) sum() int {
	total := 0
	for _, s := range l.samples {
		total += s.tokens
	}
	return total
}
