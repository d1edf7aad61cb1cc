// Package orchestrator processes batches of businesses concurrently and
// guarantees one record per input, in input order.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonesrussell/north-cloud/enrichment/internal/aggregator"
	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
	"github.com/jonesrussell/north-cloud/enrichment/internal/metrics"
)

//go:generate mockgen -destination=../../testutils/mocks/orchestrator/pipeline.go -package=orchestrator github.com/jonesrussell/north-cloud/enrichment/internal/orchestrator Pipeline

// Default orchestrator settings.
const (
	DefaultConcurrency     = 4
	DefaultPipelineTimeout = 3 * time.Minute
)

// Config holds orchestrator settings.
type Config struct {
	Concurrency     int           `env:"ORCHESTRATOR_CONCURRENCY"      yaml:"concurrency"`
	PipelineTimeout time.Duration `env:"ORCHESTRATOR_PIPELINE_TIMEOUT" yaml:"pipeline_timeout"`
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.PipelineTimeout <= 0 {
		c.PipelineTimeout = DefaultPipelineTimeout
	}
	return c
}

// Pipeline runs every stage for the business held by a builder. Run returns
// ctx's error when it stopped because ctx was done.
type Pipeline interface {
	Run(ctx context.Context, b *aggregator.Builder) error
}

// RecordFunc receives each record as soon as it is finished. Calls are
// serialized but arrive in completion order.
type RecordFunc func(index int, rec domain.BusinessRecord)

// Orchestrator fans businesses out to a bounded number of pipelines.
type Orchestrator struct {
	cfg      Config
	pipeline Pipeline
	logger   logger.Logger
	metrics  *metrics.Metrics
	onRecord RecordFunc
	newID    func() string
	now      func() time.Time
	mu       sync.Mutex
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithOnRecord streams finished records to fn.
func WithOnRecord(fn RecordFunc) Option {
	return func(o *Orchestrator) { o.onRecord = fn }
}

// WithMetrics records per-business metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithIDFunc overrides record ID generation.
func WithIDFunc(fn func() string) Option {
	return func(o *Orchestrator) { o.newID = fn }
}

// WithClock overrides the crawl timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator.
func New(cfg Config, p Pipeline, log logger.Logger, opts ...Option) *Orchestrator {
	if log == nil {
		log = logger.NewNop()
	}
	o := &Orchestrator{
		cfg:      cfg.WithDefaults(),
		pipeline: p,
		logger:   log,
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ProcessMany enriches inputs with at most Concurrency businesses in flight.
// The result has one record per input, in input order, whatever happens to
// the individual pipelines.
func (o *Orchestrator) ProcessMany(ctx context.Context, inputs []domain.BusinessInput) []domain.BusinessRecord {
	records := make([]domain.BusinessRecord, len(inputs))
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(o.cfg.Concurrency)
	for i, in := range inputs {
		g.Go(func() error {
			rec := o.ProcessOne(ctx, in)
			records[i] = rec
			if o.onRecord != nil {
				o.mu.Lock()
				o.onRecord(i, rec)
				o.mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	o.logger.Info("Batch complete",
		logger.Int("businesses", len(inputs)),
		logger.Int("concurrency", o.cfg.Concurrency),
		logger.Duration("duration", time.Since(start)),
	)
	return records
}

// ProcessOne runs the pipeline for in under its own timeout. A panic becomes a
// pipeline_fatal entry. On timeout or cancellation the record keeps whatever
// the pipeline had produced and names the stage that was in flight.
func (o *Orchestrator) ProcessOne(ctx context.Context, in domain.BusinessInput) domain.BusinessRecord {
	start := time.Now()
	if o.metrics != nil {
		o.metrics.InFlight.Inc()
		defer o.metrics.InFlight.Dec()
	}

	b := aggregator.NewBuilder(o.newID(), in, o.now())
	pctx, cancel := context.WithTimeout(ctx, o.cfg.PipelineTimeout)
	defer cancel()

	done := make(chan struct{})
	var runErr error
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				stage := b.Stage()
				o.logger.Error("Pipeline panicked",
					logger.String("business", in.Name),
					logger.String("stage", string(stage)),
					logger.Any("panic", r),
					logger.String("stack", string(debug.Stack())),
				)
				b.AddErrors(domain.NewError(domain.StagePipeline, domain.KindPipelineFatal,
					"panic during %s stage: %v", stage, r))
			}
		}()
		runErr = o.pipeline.Run(pctx, b)
	}()

	var rec domain.BusinessRecord
	select {
	case <-done:
		rec = o.finish(b, in, runErr)
	case <-pctx.Done():
		select {
		case <-done:
			rec = o.finish(b, in, runErr)
		default:
			rec = o.abandon(b, in, pctx.Err())
		}
	}

	o.metrics.ObserveRecord(rec, time.Since(start))
	return rec
}

// finish builds the record once the pipeline has returned. A pipeline that
// stopped on a done context is treated like an abandoned one.
func (o *Orchestrator) finish(b *aggregator.Builder, in domain.BusinessInput, runErr error) domain.BusinessRecord {
	if runErr == nil {
		return b.Build()
	}
	return o.abandon(b, in, runErr)
}

func (o *Orchestrator) abandon(b *aggregator.Builder, in domain.BusinessInput, err error) domain.BusinessRecord {
	stage := b.Stage()
	o.logger.Warn("Pipeline abandoned",
		logger.String("business", in.Name),
		logger.String("stage", string(stage)),
		logger.Error(err),
	)
	return b.Abandon(o.abandonEntry(stage, err))
}

func (o *Orchestrator) abandonEntry(stage domain.Stage, err error) domain.ErrorEntry {
	reason := "cancelled"
	if errors.Is(err, context.DeadlineExceeded) {
		reason = fmt.Sprintf("timed out after %s", o.cfg.PipelineTimeout)
	}
	if stage == domain.StageFetch && errors.Is(err, context.DeadlineExceeded) {
		return domain.NewError(domain.StageFetch, domain.KindFetchTimeout, "pipeline %s during fetch", reason)
	}
	return domain.NewError(domain.StagePipeline, domain.KindPipelineFatal, "pipeline %s during %s stage", reason, stage)
}
