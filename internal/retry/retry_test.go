package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noSleep replaces the backoff sleep and records requested delays.
func noSleep(delays *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	var delays []time.Duration
	p := DefaultPolicy()
	p.sleep = noSleep(&delays)

	calls := 0
	err := p.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestDo_RetriesThenSucceeds(t *testing.T) {
	var delays []time.Duration
	p := DefaultPolicy()
	p.sleep = noSleep(&delays)

	calls := 0
	err := p.Do(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, delays, 2)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	var delays []time.Duration
	p := DefaultPolicy()
	p.sleep = noSleep(&delays)

	wantErr := errors.New("still down")
	calls := 0
	err := p.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return wantErr
	})

	require.ErrorIs(t, err, wantErr)
	assert.Equal(t, DefaultMaxAttempts, calls)
}

func TestDo_BackoffScheduleGrows(t *testing.T) {
	var delays []time.Duration
	p := Policy{
		MaxAttempts:    4,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     250 * time.Millisecond,
		Multiplier:     2.0,
		sleep:          nil,
	}
	p.sleep = noSleep(&delays)

	_ = p.Do(context.Background(), "op", func(context.Context) error {
		return errors.New("transient")
	})

	require.Len(t, delays, 3)
	assert.Equal(t, 100*time.Millisecond, delays[0])
	assert.Equal(t, 200*time.Millisecond, delays[1])
	// Capped at MaxBackoff.
	assert.Equal(t, 250*time.Millisecond, delays[2])
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	var delays []time.Duration
	p := DefaultPolicy()
	p.sleep = noSleep(&delays)

	wantErr := errors.New("bad input")
	calls := 0
	err := p.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return Permanent(wantErr)
	})

	require.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := DefaultPolicy()
	err := p.Do(ctx, "op", func(context.Context) error {
		t.Fatal("fn should not run after cancellation")
		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
}
