// Package analyzer classifies a business from its website content using an
// external text-generation service.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
	"github.com/jonesrussell/north-cloud/enrichment/internal/pacing"
)

const backoffRandomization = 0.5

const systemPrompt = `You are a business analyst. You read website content for a single business ` +
	`and answer with one JSON object only, no prose and no code fences.`

const promptTemplate = `Analyze the business described below and classify it.

Respond with exactly this JSON object and no other keys:
{
  "business_type": "short category, e.g. plumbing contractor",
  "main_offerings": ["the most important products or services"],
  "target_audience": "who the business serves",
  "unique_selling_points": ["what sets the business apart"],
  "price_range": "budget, mid-range, premium, or unknown",
  "business_model": "e.g. B2C retail, B2B services, subscription"
}
business_type and main_offerings are required.

%s`

// Analyzer produces a BusinessAnalysis for one business at a time. It is safe
// for concurrent use; calls are spaced by the shared AI pacer.
type Analyzer struct {
	cfg       Config
	completer Completer
	pacer     pacing.Pacer
	usage     *UsageTracker
	logger    logger.Logger
}

// New creates an analyzer. A nil pacer means unpaced, a nil tracker a private one.
func New(cfg Config, completer Completer, pacer pacing.Pacer, usage *UsageTracker, log logger.Logger) *Analyzer {
	if pacer == nil {
		pacer = pacing.Unpaced{}
	}
	if usage == nil {
		usage = NewUsageTracker(nil)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Analyzer{
		cfg:       cfg.WithDefaults(),
		completer: completer,
		pacer:     pacer,
		usage:     usage,
		logger:    log,
	}
}

// Usage returns the tracker that receives token accounting.
func (a *Analyzer) Usage() *UsageTracker {
	return a.usage
}

// Analyze builds the context for in, asks the service for a classification
// and validates the answer. Failures are returned as ErrorEntry values with
// a nil analysis; they never carry partial guesses.
func (a *Analyzer) Analyze(ctx context.Context, in ContextInput) (*domain.BusinessAnalysis, []domain.ErrorEntry) {
	log := a.logger.With(logger.String("business", in.Business.Name))
	req := Request{
		Model:     a.cfg.Model,
		System:    systemPrompt,
		Prompt:    fmt.Sprintf(promptTemplate, BuildContext(in, a.cfg.MaxContextChars)),
		MaxTokens: a.cfg.MaxTokens,
	}

	resp, attempts, err := a.complete(ctx, req, log)
	if err != nil {
		log.Warn("Business analysis unavailable",
			logger.Int("attempts", attempts),
			logger.Error(err),
		)
		return nil, []domain.ErrorEntry{domain.NewError(domain.StageAnalyze, domain.KindAIUnavailable,
			"analysis failed after %d attempt(s): %v", attempts, err)}
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}
	usage := a.usage.Record(model, resp.InputTokens, resp.OutputTokens)
	log.Debug("Analysis completed",
		logger.String("model", model),
		logger.Int64("input_tokens", usage.InputTokens),
		logger.Int64("output_tokens", usage.OutputTokens),
		logger.Float64("cost", usage.Cost),
	)

	analysis, err := DecodeAnalysis(resp.Text)
	if err != nil {
		log.Warn("Analysis response rejected", logger.Error(err))
		return nil, []domain.ErrorEntry{domain.NewError(domain.StageAnalyze, domain.KindAISchemaMismatch, "%v", err)}
	}
	return analysis, nil
}

func (a *Analyzer) complete(ctx context.Context, req Request, log logger.Logger) (*Response, int, error) {
	if a.completer == nil {
		return nil, 0, errors.New("no completer configured")
	}

	var resp *Response
	attempts := 0
	operation := func() error {
		attempts++
		if err := a.pacer.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		r, err := a.completer.Complete(ctx, req)
		if err != nil {
			if ctx.Err() != nil || !IsTransient(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		resp = r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		log.Debug("Completion failed, retrying",
			logger.Int("attempt", attempts),
			logger.Duration("backoff", wait),
			logger.Error(err),
		)
	}

	err := backoff.RetryNotify(operation, a.retryPolicy(ctx), notify)
	return resp, attempts, err
}

func (a *Analyzer) retryPolicy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.cfg.BackoffInitial
	b.MaxInterval = a.cfg.BackoffMax
	b.RandomizationFactor = backoffRandomization
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(a.cfg.MaxAttempts-1)), ctx)
}
