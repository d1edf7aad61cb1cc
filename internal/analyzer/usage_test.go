package analyzer_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/enrichment/internal/analyzer"
)

func TestUsageTracker_Record(t *testing.T) {
	t.Parallel()

	tracker := analyzer.NewUsageTracker(nil)

	u := tracker.Record("claude-3-5-haiku-20241022", 1_000_000, 1_000_000)
	assert.InDelta(t, 4.80, u.Cost, 1e-9)

	unknown := tracker.Record("local-model", 500, 500)
	assert.Zero(t, unknown.Cost)

	summary := tracker.Summary()
	assert.Equal(t, 2, summary.Calls)
	assert.Equal(t, int64(1_000_500), summary.InputTokens)
	assert.Equal(t, int64(2_001_000), summary.TotalTokens)
	assert.InDelta(t, 4.80, summary.EstimatedCost, 1e-9)
	assert.InDelta(t, 2.40, summary.AverageCostPerCall, 1e-9)
	assert.InDelta(t, 1_000_500.0, summary.AverageTokensPerCall, 1e-9)
}

func TestUsageTracker_LongestPrefixWins(t *testing.T) {
	t.Parallel()

	tracker := analyzer.NewUsageTracker(map[string]analyzer.Price{
		"model":       {InputPerMillion: 1},
		"model-large": {InputPerMillion: 10},
	})

	assert.InDelta(t, 10.0, tracker.Record("model-large-v2", 1_000_000, 0).Cost, 1e-9)
	assert.InDelta(t, 1.0, tracker.Record("model-small", 1_000_000, 0).Cost, 1e-9)
}

func TestUsageTracker_Concurrent(t *testing.T) {
	t.Parallel()

	tracker := analyzer.NewUsageTracker(nil)
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Record("claude-3-5-haiku-latest", 10, 2)
		}()
	}
	wg.Wait()

	summary := tracker.Summary()
	assert.Equal(t, 50, summary.Calls)
	assert.Equal(t, int64(600), summary.TotalTokens)
}

func TestUsageTracker_EmptySummary(t *testing.T) {
	t.Parallel()

	assert.Equal(t, analyzer.UsageSummary{}, analyzer.NewUsageTracker(nil).Summary())
}

func TestUsageTracker_Observers(t *testing.T) {
	t.Parallel()

	var seen []analyzer.Usage
	tracker := analyzer.NewUsageTracker(nil, func(u analyzer.Usage) { seen = append(seen, u) })

	tracker.Record("claude-3-5-haiku-latest", 100, 20)

	if assert.Len(t, seen, 1) {
		assert.Equal(t, "claude-3-5-haiku-latest", seen[0].Model)
		assert.Equal(t, int64(100), seen[0].InputTokens)
		assert.Equal(t, int64(20), seen[0].OutputTokens)
		assert.Greater(t, seen[0].Cost, 0.0)
	}
}
