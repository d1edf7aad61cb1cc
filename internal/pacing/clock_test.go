package pacing_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
	"github.com/jonesrussell/north-cloud/enrichment/internal/pacing"
)

const testInterval = 20 * time.Millisecond

func TestClock_EnforcesMinimumSpacingAcrossGoroutines(t *testing.T) {
	t.Parallel()

	const callers = 6
	clock := pacing.NewClock("fetch", testInterval, logger.NewNop())

	start := time.Now()
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, clock.Wait(context.Background()))
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, time.Since(start), (callers-1)*testInterval)
}

func TestClock_ZeroIntervalDoesNotBlock(t *testing.T) {
	t.Parallel()

	clock := pacing.NewClock("ai", 0, nil)

	start := time.Now()
	for range 100 {
		require.NoError(t, clock.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "ai", clock.Name())
}

func TestClock_WaitHonorsCancellation(t *testing.T) {
	t.Parallel()

	clock := pacing.NewClock("fetch", time.Hour, logger.NewNop())
	require.NoError(t, clock.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := clock.Wait(ctx)
	require.Error(t, err)
}

func TestUnpaced(t *testing.T) {
	t.Parallel()

	require.NoError(t, pacing.Unpaced{}.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, pacing.Unpaced{}.Wait(ctx), context.Canceled)
}
