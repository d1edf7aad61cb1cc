package domain

import (
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// FetchResult is the outcome of fetching one URL, retries included.
type FetchResult struct {
	RequestedURL string
	FinalURL     string
	StatusCode   int
	RawHTML      string
	ContentType  string
	LastModified string
	Duration     time.Duration
	Attempts     int
	// Error is set when every attempt failed; RawHTML is empty in that case.
	Error *ErrorEntry
}

// OK reports whether the fetch produced a usable body.
func (r FetchResult) OK() bool {
	return r.Error == nil
}

// Structured data syntaxes recognized by the parser.
const (
	SyntaxJSONLD    = "json-ld"
	SyntaxMicrodata = "microdata"
	SyntaxOpenGraph = "opengraph"
)

// StructuredBlock is one embedded structured-data tree, kept as parsed.
type StructuredBlock struct {
	Syntax string         `json:"syntax"`
	Data   map[string]any `json:"data"`
}

// ParsedDocument is the navigable result of parsing one or more pages of a site.
type ParsedDocument struct {
	// Doc is never nil; it is an empty document when parsing degraded.
	Doc            *goquery.Document
	BaseURL        *url.URL
	StructuredData []StructuredBlock
	MetaTags       map[string]string
	Text           string
	// HTML is the raw markup of the primary page, kept for context building.
	HTML string
	// Subpages are further pages of the same site fetched in the same session.
	Subpages []*goquery.Document
}

// Documents returns the primary document followed by any subpages.
func (d *ParsedDocument) Documents() []*goquery.Document {
	docs := make([]*goquery.Document, 0, 1+len(d.Subpages))
	if d.Doc != nil {
		docs = append(docs, d.Doc)
	}
	return append(docs, d.Subpages...)
}
