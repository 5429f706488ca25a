package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinear_Sequence(t *testing.T) {
	l := &Linear{Step: 5 * time.Second}

	assert.Equal(t, 5*time.Second, l.NextBackOff())
	assert.Equal(t, 10*time.Second, l.NextBackOff())
	assert.Equal(t, 15*time.Second, l.NextBackOff())

	l.Reset()
	assert.Equal(t, 5*time.Second, l.NextBackOff())
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	var waits []time.Duration

	err := Do(context.Background(), time.Millisecond, 3, func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, func(_ error, wait time.Duration) {
		waits = append(waits, wait)
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, waits)
}

func TestDo_GivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	boom := errors.New("boom")

	err := Do(context.Background(), time.Millisecond, 3, func() error {
		calls++
		return boom
	}, nil)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 4, calls) // first attempt + 3 retries
}

func TestDo_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := Do(ctx, time.Hour, 3, func() error {
		calls++
		cancel()
		return errors.New("fail")
	}, nil)

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
