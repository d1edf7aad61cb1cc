package analyzer

import (
	"strings"
	"sync"
)

// Price is the per-million-token price of a model in USD.
type Price struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// DefaultPricing lists published prices by model name prefix.
var DefaultPricing = map[string]Price{
	"claude-3-haiku":    {InputPerMillion: 0.25, OutputPerMillion: 1.25},
	"claude-3-5-haiku":  {InputPerMillion: 0.80, OutputPerMillion: 4.00},
	"claude-haiku-4":    {InputPerMillion: 1.00, OutputPerMillion: 5.00},
	"claude-3-5-sonnet": {InputPerMillion: 3.00, OutputPerMillion: 15.00},
	"claude-3-7-sonnet": {InputPerMillion: 3.00, OutputPerMillion: 15.00},
	"claude-sonnet-4":   {InputPerMillion: 3.00, OutputPerMillion: 15.00},
	"claude-opus-4":     {InputPerMillion: 15.00, OutputPerMillion: 75.00},
}

const tokensPerMillion = 1_000_000

// Usage is the token accounting of one completion.
type Usage struct {
	Model        string  `json:"model"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	Cost         float64 `json:"cost"`
}

// UsageSummary aggregates every recorded completion.
type UsageSummary struct {
	Calls                int     `json:"calls"`
	InputTokens          int64   `json:"input_tokens"`
	OutputTokens         int64   `json:"output_tokens"`
	TotalTokens          int64   `json:"total_tokens"`
	EstimatedCost        float64 `json:"estimated_cost"`
	AverageCostPerCall   float64 `json:"average_cost_per_call"`
	AverageTokensPerCall float64 `json:"average_tokens_per_call"`
}

// UsageTracker accumulates token usage across concurrent analyses.
type UsageTracker struct {
	mu        sync.Mutex
	pricing   map[string]Price
	summary   UsageSummary
	observers []func(Usage)
}

// NewUsageTracker creates a tracker. A nil pricing table selects
// DefaultPricing. Observers are called after every Record.
func NewUsageTracker(pricing map[string]Price, observers ...func(Usage)) *UsageTracker {
	if pricing == nil {
		pricing = DefaultPricing
	}
	return &UsageTracker{pricing: pricing, observers: observers}
}

// Record adds one completion and returns its priced usage. Unknown models cost zero.
func (t *UsageTracker) Record(model string, inputTokens, outputTokens int64) Usage {
	u := Usage{Model: model, InputTokens: inputTokens, OutputTokens: outputTokens}
	if price, ok := t.priceFor(model); ok {
		u.Cost = float64(inputTokens)*price.InputPerMillion/tokensPerMillion +
			float64(outputTokens)*price.OutputPerMillion/tokensPerMillion
	}

	t.mu.Lock()
	t.summary.Calls++
	t.summary.InputTokens += inputTokens
	t.summary.OutputTokens += outputTokens
	t.summary.TotalTokens += inputTokens + outputTokens
	t.summary.EstimatedCost += u.Cost
	t.mu.Unlock()

	for _, observe := range t.observers {
		observe(u)
	}
	return u
}

// Summary returns a snapshot of the totals.
func (t *UsageTracker) Summary() UsageSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.summary
	if s.Calls > 0 {
		s.AverageCostPerCall = s.EstimatedCost / float64(s.Calls)
		s.AverageTokensPerCall = float64(s.TotalTokens) / float64(s.Calls)
	}
	return s
}

// priceFor matches the longest pricing prefix of model.
func (t *UsageTracker) priceFor(model string) (Price, bool) {
	var best string
	for prefix := range t.pricing {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return Price{}, false
	}
	return t.pricing[best], true
}
