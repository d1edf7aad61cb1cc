// Package pipeline runs every enrichment stage for a single business.
package pipeline

import (
	"context"
	"net/url"

	"github.com/jonesrussell/north-cloud/enrichment/internal/aggregator"
	"github.com/jonesrussell/north-cloud/enrichment/internal/analyzer"
	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
	"github.com/jonesrussell/north-cloud/enrichment/internal/extractor"
	"github.com/jonesrussell/north-cloud/enrichment/internal/fetcher"
	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
	"github.com/jonesrussell/north-cloud/enrichment/internal/offering"
	"github.com/jonesrussell/north-cloud/enrichment/internal/parser"
)

// Analyzer classifies a business from its condensed website content.
type Analyzer interface {
	Analyze(ctx context.Context, in analyzer.ContextInput) (*domain.BusinessAnalysis, []domain.ErrorEntry)
}

// Pipeline wires the stages together. Stage outputs flow into an
// aggregator.Builder as soon as they are available.
type Pipeline struct {
	fetcher    *fetcher.Fetcher
	extractors extractor.Set
	detector   *offering.Detector
	analyzer   Analyzer
	logger     logger.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithAnalyzer enables the AI analysis stage.
func WithAnalyzer(a Analyzer) Option {
	return func(p *Pipeline) { p.analyzer = a }
}

// WithExtractors replaces the default extractor set.
func WithExtractors(set extractor.Set) Option {
	return func(p *Pipeline) { p.extractors = set }
}

// New creates a pipeline. A nil detector selects the default taxonomy.
func New(f *fetcher.Fetcher, detector *offering.Detector, log logger.Logger, opts ...Option) *Pipeline {
	if detector == nil {
		detector = offering.NewDetector(offering.Config{}, nil)
	}
	if log == nil {
		log = logger.NewNop()
	}
	p := &Pipeline{
		fetcher:    f,
		extractors: extractor.Default(),
		detector:   detector,
		logger:     log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes the business held by b. It stops early when the business has
// no website or the fetch fails, and returns ctx's error when it stopped
// because ctx was done. Whatever was produced stays in b.
func (p *Pipeline) Run(ctx context.Context, b *aggregator.Builder) error {
	in := b.Input()
	log := p.logger.With(logger.String("business", in.Name))

	site := in.Website()
	if site == nil {
		msg := "business has no website url"
		if in.WebsiteURL != "" {
			msg = "website url is not an absolute http(s) url: " + in.WebsiteURL
		}
		b.AddErrors(domain.NewError(domain.StageInput, domain.KindNoWebsite, "%s", msg))
		log.Debug("Skipping business without website")
		return nil
	}

	b.Enter(domain.StageFetch)
	session := p.fetcher.NewSession()
	primary := session.Fetch(ctx, site.String())
	b.SetFetch(primary)
	if !primary.OK() {
		b.SetPages(session.Pages())
		b.AddErrors(*primary.Error)
		return ctx.Err()
	}
	var subpages []domain.FetchResult
	if base, err := url.Parse(primary.FinalURL); err == nil {
		subpages = session.FetchSubpages(ctx, base)
	}
	b.SetPages(session.Pages())
	if err := ctx.Err(); err != nil {
		return err
	}

	b.Enter(domain.StageParse)
	doc, diags := parser.Parse(primary.RawHTML, primary.FinalURL)
	b.AddErrors(diags...)
	for _, sub := range subpages {
		if !sub.OK() {
			continue
		}
		subDoc, subDiags := parser.Parse(sub.RawHTML, sub.FinalURL)
		b.AddErrors(subDiags...)
		doc = parser.Merge(doc, subDoc)
	}

	b.Enter(domain.StageExtract)
	signals, meta, errs := p.extractors.Extract(doc)
	b.SetContact(signals, meta)
	b.AddErrors(errs...)

	b.Enter(domain.StageOfferings)
	offerings, errs := p.detector.Detect(doc)
	b.SetOfferings(offerings)
	b.AddErrors(errs...)

	if p.analyzer == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	b.Enter(domain.StageAnalyze)
	analysis, errs := p.analyzer.Analyze(ctx, analyzer.ContextInput{
		Business:  in,
		Doc:       doc,
		Offerings: offerings,
		Meta:      meta,
	})
	b.SetAnalysis(analysis)
	b.AddErrors(errs...)

	log.Debug("Business processed",
		logger.Int("emails", len(signals.Emails)),
		logger.Int("phones", len(signals.Phones)),
		logger.Int("products", len(offerings.Products)),
		logger.Int("services", len(offerings.Services)),
		logger.Bool("analyzed", analysis != nil),
	)
	return nil
}
