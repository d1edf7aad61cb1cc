// Package domain holds the types that flow through the enrichment pipeline.
package domain

import (
	"net/url"
	"strings"
)

// BusinessInput is one caller-supplied business to enrich.
type BusinessInput struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phone_number"`
	WebsiteURL  string `json:"website_url"`
	// Extra holds passthrough columns, copied verbatim into the record.
	Extra []Field `json:"extra,omitempty"`
}

// Field is an ordered key/value passthrough pair.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Website returns the parsed website URL, or nil when the input has no
// usable absolute http(s) URL.
func (b BusinessInput) Website() *url.URL {
	raw := strings.TrimSpace(b.WebsiteURL)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil
	}
	return u
}

// ContactSignals are the contact and social signals found on a site.
type ContactSignals struct {
	Emails        []string          `json:"emails"`
	Phones        []string          `json:"phones"`
	SocialLinks   map[string]string `json:"social_links"`
	BusinessHours string            `json:"business_hours"`
}

// NewContactSignals returns signals with every container initialized.
func NewContactSignals() ContactSignals {
	return ContactSignals{
		Emails:      []string{},
		Phones:      []string{},
		SocialLinks: map[string]string{},
	}
}

// OfferingSet lists the products and services detected on a site.
type OfferingSet struct {
	Products      []string `json:"products"`
	Services      []string `json:"services"`
	Categories    []string `json:"categories"`
	FeaturedItems []string `json:"featured_items"`
	PriceRanges   []string `json:"price_ranges"`
}

// NewOfferingSet returns an offering set with every slice initialized.
func NewOfferingSet() OfferingSet {
	return OfferingSet{
		Products:      []string{},
		Services:      []string{},
		Categories:    []string{},
		FeaturedItems: []string{},
		PriceRanges:   []string{},
	}
}

// IsEmpty reports whether nothing was detected.
func (o OfferingSet) IsEmpty() bool {
	return len(o.Products) == 0 && len(o.Services) == 0 && len(o.Categories) == 0
}

// BusinessAnalysis is the AI-assisted classification of a business.
type BusinessAnalysis struct {
	BusinessType        string   `json:"business_type"`
	MainOfferings       []string `json:"main_offerings"`
	TargetAudience      string   `json:"target_audience"`
	UniqueSellingPoints []string `json:"unique_selling_points"`
	PriceRange          string   `json:"price_range"`
	BusinessModel       string   `json:"business_model"`
}

// MetaInfo holds document head metadata. Missing tags are empty strings.
type MetaInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
}

// PageCheck records one page request made for a business.
type PageCheck struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
	Error      string `json:"error,omitempty"`
}

// RecordStatus summarizes how far processing got.
type RecordStatus string

// Record statuses.
const (
	StatusOK      RecordStatus = "ok"
	StatusPartial RecordStatus = "partial"
	StatusFailed  RecordStatus = "failed"
	StatusSkipped RecordStatus = "skipped"
)

// BusinessRecord is the final enriched output for one BusinessInput.
// Every field is always present when serialized.
type BusinessRecord struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	PhoneNumber string  `json:"phone_number"`
	WebsiteURL  string  `json:"website_url"`
	Extra       []Field `json:"extra"`

	Status         RecordStatus `json:"status"`
	StatusCode     int          `json:"status_code"`
	FinalURL       string       `json:"final_url"`
	LastModified   string       `json:"last_modified"`
	PagesChecked   []PageCheck  `json:"pages_checked"`
	CrawlTimestamp string       `json:"crawl_timestamp"`

	Contact      ContactSignals    `json:"contact"`
	Offerings    OfferingSet       `json:"offerings"`
	MetaInfo     MetaInfo          `json:"meta_info"`
	Analysis     *BusinessAnalysis `json:"business_analysis"`
	BusinessType string            `json:"business_type"`

	Errors ErrorReport `json:"errors"`
}
