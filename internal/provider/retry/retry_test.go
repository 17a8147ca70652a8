package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	provider "github.com/Cyclone1070/q/internal/provider/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSleep struct {
	slept []time.Duration
	err   error
}

func (s *recordingSleep) Sleep(ctx context.Context, d time.Duration) error {
	if s.err != nil {
		return s.err
	}
	s.slept = append(s.slept, d)
	return nil
}

func fixedRand(v float64) func() float64 { return func() float64 { return v } }

func testPolicy() Policy {
	return Policy{
		Attempts:      4,
		InitialDelay:  time.Second,
		BackoffFactor: 2,
		JitterMin:     100 * time.Millisecond,
		JitterMax:     300 * time.Millisecond,
	}
}

var overloaded = &provider.ProviderError{Code: provider.ErrorCodeOverloaded, Message: "busy", Retryable: true}

func TestDo_SucceedsAfterOverload(t *testing.T) {
	sleeper := &recordingSleep{}
	r := NewWithClock(testPolicy(), sleeper.Sleep, fixedRand(0.5), nil)
	calls := 0

	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return overloaded
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{1200 * time.Millisecond, 2200 * time.Millisecond}, sleeper.slept)
}

func TestDo_NonRetryableReturnedImmediately(t *testing.T) {
	sleeper := &recordingSleep{}
	r := NewWithClock(testPolicy(), sleeper.Sleep, fixedRand(0), nil)
	authErr := &provider.ProviderError{Code: provider.ErrorCodeAuth, Message: "bad key"}
	calls := 0

	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return authErr
	})

	assert.Same(t, authErr, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeper.slept)
}

func TestDo_RetryableButNotOverloaded_IsNotRetried(t *testing.T) {
	sleeper := &recordingSleep{}
	r := NewWithClock(testPolicy(), sleeper.Sleep, fixedRand(0), nil)
	calls := 0

	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return &provider.ProviderError{Code: provider.ErrorCodeNetwork, Message: "reset", Retryable: true}
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_Exhausted(t *testing.T) {
	sleeper := &recordingSleep{}
	r := NewWithClock(testPolicy(), sleeper.Sleep, fixedRand(0), nil)
	calls := 0

	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("529 overloaded_error")
	})

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 4, exhausted.Attempts)
	assert.Equal(t, 4, calls)
	assert.Len(t, sleeper.slept, 3)
	assert.Contains(t, err.Error(), "overloaded_error")
}

func TestDo_HonorsRetryAfter(t *testing.T) {
	sleeper := &recordingSleep{}
	r := NewWithClock(testPolicy(), sleeper.Sleep, fixedRand(0), nil)
	after := 30 * time.Second
	calls := 0

	_ = r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return &provider.ProviderError{Code: provider.ErrorCodeRateLimit, Retryable: true, RetryAfter: &after}
		}
		return nil
	})

	assert.Equal(t, []time.Duration{30 * time.Second}, sleeper.slept)
}

func TestDo_ContextCancelledDuringSleep(t *testing.T) {
	sleeper := &recordingSleep{err: context.Canceled}
	r := NewWithClock(testPolicy(), sleeper.Sleep, fixedRand(0), nil)
	calls := 0

	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return overloaded
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextAlreadyCancelled(t *testing.T) {
	r := NewWithClock(testPolicy(), (&recordingSleep{}).Sleep, fixedRand(0), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Do(ctx, func(ctx context.Context) error {
		t.Fatal("op must not run")
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestDelay(t *testing.T) {
	r := NewWithClock(testPolicy(), (&recordingSleep{}).Sleep, fixedRand(0), nil)
	assert.Equal(t, 1100*time.Millisecond, r.Delay(0))
	assert.Equal(t, 2100*time.Millisecond, r.Delay(1))
	assert.Equal(t, 8100*time.Millisecond, r.Delay(3))

	high := NewWithClock(testPolicy(), (&recordingSleep{}).Sleep, fixedRand(0.999), nil)
	d := high.Delay(0)
	assert.GreaterOrEqual(t, d, 1100*time.Millisecond)
	assert.Less(t, d, 1300*time.Millisecond)
}

func TestNewWithClock_Normalizes(t *testing.T) {
	r := NewWithClock(Policy{Attempts: 0, BackoffFactor: 0}, (&recordingSleep{}).Sleep, fixedRand(0), nil)
	calls := 0

	_ = r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return overloaded
	})

	assert.Equal(t, 1, calls)
	assert.Panics(t, func() { NewWithClock(Policy{}, nil, fixedRand(0), nil) })
	assert.Panics(t, func() { NewWithClock(Policy{}, (&recordingSleep{}).Sleep, nil, nil) })
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 5, p.Attempts)
	assert.Equal(t, time.Second, p.InitialDelay)
}
