// Package aggregator merges per-stage outputs into one BusinessRecord.
package aggregator

import (
	"slices"
	"time"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
)

// Parts are the outputs collected for one business. Any stage output may be
// missing when the stage never ran.
type Parts struct {
	ID        string
	Input     domain.BusinessInput
	Fetch     *domain.FetchResult
	Pages     []domain.PageCheck
	Contact   *domain.ContactSignals
	Meta      *domain.MetaInfo
	Offerings *domain.OfferingSet
	Analysis  *domain.BusinessAnalysis
	Errors    []domain.ErrorEntry
	CrawledAt time.Time
}

var stageOrder = map[domain.Stage]int{
	domain.StageInput:     0,
	domain.StageFetch:     1,
	domain.StageParse:     2,
	domain.StageExtract:   3,
	domain.StageOfferings: 4,
	domain.StageAnalyze:   5,
	domain.StagePipeline:  6,
}

// Aggregate builds the record for p. Input fields are copied unchanged, every
// container is non-nil, and diagnostics are ordered by stage.
func Aggregate(p Parts) domain.BusinessRecord {
	rec := domain.BusinessRecord{
		ID:          p.ID,
		Name:        p.Input.Name,
		Address:     p.Input.Address,
		PhoneNumber: p.Input.PhoneNumber,
		WebsiteURL:  p.Input.WebsiteURL,
		Extra:       slices.Clone(p.Input.Extra),
		Contact:     domain.NewContactSignals(),
		Offerings:   domain.NewOfferingSet(),
		Analysis:    p.Analysis,
	}
	if rec.Extra == nil {
		rec.Extra = []domain.Field{}
	}
	if !p.CrawledAt.IsZero() {
		rec.CrawlTimestamp = p.CrawledAt.UTC().Format(time.RFC3339)
	}

	if p.Fetch != nil {
		rec.StatusCode = p.Fetch.StatusCode
		rec.FinalURL = p.Fetch.FinalURL
		rec.LastModified = p.Fetch.LastModified
	}
	rec.PagesChecked = slices.Clone(p.Pages)
	if rec.PagesChecked == nil {
		rec.PagesChecked = []domain.PageCheck{}
	}

	if p.Contact != nil {
		rec.Contact = contactWithDefaults(*p.Contact)
	}
	if p.Meta != nil {
		rec.MetaInfo = *p.Meta
	}
	if p.Offerings != nil {
		rec.Offerings = offeringsWithDefaults(*p.Offerings)
	}
	if p.Analysis != nil {
		rec.BusinessType = p.Analysis.BusinessType
	}

	rec.Errors = orderedErrors(p.Errors)
	rec.Status = status(p, rec.Errors)
	return rec
}

func status(p Parts, errs domain.ErrorReport) domain.RecordStatus {
	switch {
	case errs.Has(domain.KindNoWebsite):
		return domain.StatusSkipped
	case p.Fetch == nil || !p.Fetch.OK():
		return domain.StatusFailed
	case len(errs) > 0:
		return domain.StatusPartial
	default:
		return domain.StatusOK
	}
}

func orderedErrors(errs []domain.ErrorEntry) domain.ErrorReport {
	out := make(domain.ErrorReport, len(errs))
	copy(out, errs)
	slices.SortStableFunc(out, func(a, b domain.ErrorEntry) int {
		return stageOrder[a.Stage] - stageOrder[b.Stage]
	})
	return out
}

func contactWithDefaults(c domain.ContactSignals) domain.ContactSignals {
	out := domain.NewContactSignals()
	out.BusinessHours = c.BusinessHours
	if c.Emails != nil {
		out.Emails = slices.Clone(c.Emails)
	}
	if c.Phones != nil {
		out.Phones = slices.Clone(c.Phones)
	}
	for k, v := range c.SocialLinks {
		out.SocialLinks[k] = v
	}
	return out
}

func offeringsWithDefaults(o domain.OfferingSet) domain.OfferingSet {
	out := domain.NewOfferingSet()
	for _, pair := range []struct{ dst, src *[]string }{
		{&out.Products, &o.Products},
		{&out.Services, &o.Services},
		{&out.Categories, &o.Categories},
		{&out.FeaturedItems, &o.FeaturedItems},
		{&out.PriceRanges, &o.PriceRanges},
	} {
		if *pair.src != nil {
			*pair.dst = slices.Clone(*pair.src)
		}
	}
	return out
}
