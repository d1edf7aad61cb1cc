// Package extractor derives contact signals and page metadata from a parsed
// business website. Each extractor is independent; one failing never
// prevents the others from producing output.
package extractor

import (
	"fmt"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
)

// Set bundles the extractors run for every document. Fields are swappable so
// callers can substitute individual extractors.
type Set struct {
	Emails        func(*domain.ParsedDocument) []string
	Phones        func(*domain.ParsedDocument) []string
	SocialLinks   func(*domain.ParsedDocument) map[string]string
	BusinessHours func(*domain.ParsedDocument) string
	Meta          func(*domain.ParsedDocument) domain.MetaInfo
}

// Default returns the standard extractor set.
func Default() Set {
	return Set{
		Emails:        Emails,
		Phones:        Phones,
		SocialLinks:   SocialLinks,
		BusinessHours: BusinessHours,
		Meta:          Meta,
	}
}

// Extract runs every extractor against doc. A panicking extractor contributes
// its empty value and an extractor_warning entry.
func (s Set) Extract(doc *domain.ParsedDocument) (domain.ContactSignals, domain.MetaInfo, []domain.ErrorEntry) {
	signals := domain.NewContactSignals()
	var meta domain.MetaInfo
	var errs []domain.ErrorEntry

	note := func(err *domain.ErrorEntry) {
		if err != nil {
			errs = append(errs, *err)
		}
	}

	if emails, err := guard("emails", s.Emails, doc); emails != nil {
		signals.Emails = emails
	} else {
		note(err)
	}
	if phones, err := guard("phones", s.Phones, doc); phones != nil {
		signals.Phones = phones
	} else {
		note(err)
	}
	if links, err := guard("social_links", s.SocialLinks, doc); links != nil {
		signals.SocialLinks = links
	} else {
		note(err)
	}
	hours, err := guard("business_hours", s.BusinessHours, doc)
	signals.BusinessHours = hours
	note(err)
	meta, err = guard("meta_info", s.Meta, doc)
	note(err)

	return signals, meta, errs
}

// guard runs fn and converts a panic into an extractor_warning.
func guard[T any](name string, fn func(*domain.ParsedDocument) T, doc *domain.ParsedDocument) (out T, entry *domain.ErrorEntry) {
	if fn == nil {
		return out, nil
	}
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out = zero
			e := domain.NewError(domain.StageExtract, domain.KindExtractorWarning, "%s extractor: %s", name, fmt.Sprint(r))
			entry = &e
		}
	}()
	return fn(doc), nil
}
