// Package offering detects the products, services and categories a business
// website presents.
package offering

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
)

// DefaultMaxFeatured caps FeaturedItems when Config.MaxFeatured is unset.
const DefaultMaxFeatured = 5

// Config tunes the detector.
type Config struct {
	MaxFeatured int `env:"OFFERING_MAX_FEATURED" yaml:"max_featured"`
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.MaxFeatured <= 0 {
		c.MaxFeatured = DefaultMaxFeatured
	}
	return c
}

var featuredMarker = regexp.MustCompile(`(?i)\b(?:featured|popular|best[\s-]?sellers?|signature|staff pick)\b`)

// Detector turns a parsed document into an OfferingSet.
type Detector struct {
	taxonomy    *Taxonomy
	maxFeatured int
}

// NewDetector creates a detector. A nil taxonomy selects DefaultCategories.
func NewDetector(cfg Config, taxonomy *Taxonomy) *Detector {
	if taxonomy == nil {
		taxonomy = NewTaxonomy(DefaultCategories)
	}
	cfg = cfg.WithDefaults()
	return &Detector{taxonomy: taxonomy, maxFeatured: cfg.MaxFeatured}
}

// item is one detected product or service.
type item struct {
	name     string
	service  bool
	featured bool
}

// Detect derives offerings from doc. Structured product and service entries
// are used when present; the markup heuristic runs only when they are not.
// A panic inside detection yields an empty set and a warning.
func (d *Detector) Detect(doc *domain.ParsedDocument) (set domain.OfferingSet, errs []domain.ErrorEntry) {
	set = domain.NewOfferingSet()
	defer func() {
		if r := recover(); r != nil {
			set = domain.NewOfferingSet()
			errs = []domain.ErrorEntry{domain.NewError(domain.StageOfferings, domain.KindExtractorWarning,
				"offering detection: %s", fmt.Sprint(r))}
		}
	}()

	found := structuredOfferings(doc)
	if len(found.items) == 0 {
		heuristic := heuristicOfferings(doc)
		found.items = heuristic.items
		found.prices = append(found.prices, heuristic.prices...)
	}

	products, services := newFoldSet(), newFoldSet()
	for _, it := range found.items {
		if it.service {
			services.add(it.name)
		} else {
			products.add(it.name)
		}
	}
	set.Products = products.items
	set.Services = services.items
	set.FeaturedItems = d.featured(found.items)

	prices := newFoldSet()
	for _, p := range found.prices {
		prices.add(p)
	}
	set.PriceRanges = prices.items

	categories := newFoldSet()
	for _, c := range found.categories {
		categories.add(c)
	}
	texts := make([]string, 0, len(found.items)+3)
	for _, it := range found.items {
		texts = append(texts, it.name)
	}
	texts = append(texts, pageTitle(doc), doc.MetaTags["description"], doc.MetaTags["keywords"])
	for _, c := range d.taxonomy.Match(texts...) {
		categories.add(c)
	}
	set.Categories = categories.items

	return set, nil
}

// featured returns marked items first, then the rest in document order, capped.
func (d *Detector) featured(items []item) []string {
	out := newFoldSet()
	for _, it := range items {
		if it.featured && len(out.items) < d.maxFeatured {
			out.add(it.name)
		}
	}
	for _, it := range items {
		if len(out.items) >= d.maxFeatured {
			break
		}
		out.add(it.name)
	}
	return out.items
}

func pageTitle(doc *domain.ParsedDocument) string {
	if doc.Doc == nil {
		return ""
	}
	return strings.TrimSpace(doc.Doc.Find("title").First().Text())
}

// foldSet keeps first-seen order and drops case-insensitive duplicates.
type foldSet struct {
	fold  cases.Caser
	seen  map[string]bool
	items []string
}

func newFoldSet() *foldSet {
	return &foldSet{fold: cases.Fold(), seen: map[string]bool{}, items: []string{}}
}

func (s *foldSet) add(v string) {
	v = strings.Join(strings.Fields(v), " ")
	if v == "" {
		return
	}
	key := s.fold.String(v)
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.items = append(s.items, v)
}
