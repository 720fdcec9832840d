package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpBackoff(t *testing.T) {
	backoff := ExpBackoff(time.Second, 5*time.Second)

	assert.Equal(t, 1*time.Second, backoff(1))
	assert.Equal(t, 2*time.Second, backoff(2))
	assert.Equal(t, 4*time.Second, backoff(3))
	assert.Equal(t, 5*time.Second, backoff(4)) // capped
	assert.Equal(t, 5*time.Second, backoff(10))
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 3}, nil, "op", func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRecoversAfterFailures(t *testing.T) {
	p := Policy{MaxAttempts: 3, Backoff: ExpBackoff(time.Millisecond, 5*time.Millisecond)}
	calls := 0
	err := Do(context.Background(), p, nil, "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustionReturnsLastError(t *testing.T) {
	p := Policy{MaxAttempts: 3, Backoff: ExpBackoff(time.Millisecond, 5*time.Millisecond)}
	calls := 0
	boom := errors.New("still down")
	err := Do(context.Background(), p, nil, "op", func(context.Context) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 5, Backoff: func(int) time.Duration { return time.Minute }}
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := Do(ctx, p, nil, "op", func(context.Context) error {
		calls++
		return errors.New("down")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoBackoffScheduleIsObserved(t *testing.T) {
	var waits []time.Duration
	p := Policy{
		MaxAttempts: 3,
		Backoff: func(attempt int) time.Duration {
			d := ExpBackoff(time.Millisecond, 5*time.Millisecond)(attempt)
			waits = append(waits, d)
			return d
		},
	}
	start := time.Now()
	_ = Do(context.Background(), p, nil, "op", func(context.Context) error {
		return errors.New("down")
	})
	elapsed := time.Since(start)

	// Two waits between three attempts, none after the last.
	require.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, waits)
	assert.GreaterOrEqual(t, elapsed, 3*time.Millisecond)
}
