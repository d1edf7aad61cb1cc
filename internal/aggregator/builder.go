package aggregator

import (
	"sync"
	"time"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
)

// Builder collects stage outputs while a pipeline runs. It is safe for
// concurrent use so a supervisor can snapshot a record while the pipeline
// is still working. Once sealed, further writes are ignored.
type Builder struct {
	mu     sync.Mutex
	parts  Parts
	stage  domain.Stage
	sealed bool
}

// NewBuilder starts a record for in.
func NewBuilder(id string, in domain.BusinessInput, crawledAt time.Time) *Builder {
	return &Builder{
		parts: Parts{ID: id, Input: in, CrawledAt: crawledAt},
		stage: domain.StageInput,
	}
}

// Input returns the business being processed.
func (b *Builder) Input() domain.BusinessInput {
	return b.parts.Input
}

// Enter marks stage as in flight.
func (b *Builder) Enter(stage domain.Stage) {
	b.update(func(*Parts) { b.stage = stage })
}

// Stage returns the stage currently in flight.
func (b *Builder) Stage() domain.Stage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stage
}

// SetFetch records the primary page fetch.
func (b *Builder) SetFetch(r domain.FetchResult) {
	b.update(func(p *Parts) { p.Fetch = &r })
}

// SetPages records every page request made for the business.
func (b *Builder) SetPages(pages []domain.PageCheck) {
	b.update(func(p *Parts) { p.Pages = pages })
}

// SetContact records extractor output.
func (b *Builder) SetContact(c domain.ContactSignals, meta domain.MetaInfo) {
	b.update(func(p *Parts) {
		p.Contact = &c
		p.Meta = &meta
	})
}

// SetOfferings records detector output.
func (b *Builder) SetOfferings(o domain.OfferingSet) {
	b.update(func(p *Parts) { p.Offerings = &o })
}

// SetAnalysis records the AI classification. A nil analysis is ignored.
func (b *Builder) SetAnalysis(a *domain.BusinessAnalysis) {
	if a == nil {
		return
	}
	b.update(func(p *Parts) { p.Analysis = a })
}

// AddErrors appends diagnostics.
func (b *Builder) AddErrors(errs ...domain.ErrorEntry) {
	if len(errs) == 0 {
		return
	}
	b.update(func(p *Parts) { p.Errors = append(p.Errors, errs...) })
}

// Build seals the builder and returns the aggregated record.
func (b *Builder) Build() domain.BusinessRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sealed = true
	return Aggregate(b.parts)
}

// Abandon seals the builder with entry appended, unless an entry of the same
// kind is already present, and returns whatever was collected so far.
func (b *Builder) Abandon(entry domain.ErrorEntry) domain.BusinessRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.sealed && !domain.ErrorReport(b.parts.Errors).Has(entry.Kind) {
		b.parts.Errors = append(b.parts.Errors, entry)
	}
	b.sealed = true
	return Aggregate(b.parts)
}

func (b *Builder) update(fn func(p *Parts)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed {
		return
	}
	fn(&b.parts)
}
