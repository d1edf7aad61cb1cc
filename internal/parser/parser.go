// Package parser turns fetched HTML into a navigable document plus the
// structured-data blocks embedded in it.
package parser

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/charmap"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
)

// invisibleElements are dropped from the text view of a page.
var invisibleElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "svg": true, "iframe": true,
}

// blockElements force a line break in the text view so adjacent blocks never run together.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "section": true, "table": true, "td": true, "th": true, "tr": true, "ul": true,
}

// Parse builds a ParsedDocument from raw markup. It never fails: unusable
// input yields an empty document and a parse_degraded entry.
func Parse(rawHTML, pageURL string) (*domain.ParsedDocument, []domain.ErrorEntry) {
	doc := Empty(pageURL)

	if strings.TrimSpace(rawHTML) == "" {
		return doc, []domain.ErrorEntry{
			domain.NewError(domain.StageParse, domain.KindParseDegraded, "empty document"),
		}
	}
	if !looksLikeText(rawHTML) {
		return doc, []domain.ErrorEntry{
			domain.NewError(domain.StageParse, domain.KindParseDegraded, "document is not text"),
		}
	}
	rawHTML = toUTF8(rawHTML)

	gq, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return doc, []domain.ErrorEntry{
			domain.NewError(domain.StageParse, domain.KindParseDegraded, "parse html: %v", err),
		}
	}
	if doc.BaseURL != nil {
		gq.Url = doc.BaseURL
		if href, ok := gq.Find("base[href]").First().Attr("href"); ok {
			if ref, refErr := url.Parse(strings.TrimSpace(href)); refErr == nil {
				doc.BaseURL = doc.BaseURL.ResolveReference(ref)
			}
		}
	}

	var diags []domain.ErrorEntry
	doc.Doc = gq
	doc.HTML = rawHTML
	doc.MetaTags = metaTags(gq)
	doc.Text = VisibleText(gq.Selection)

	jsonld, jsonldDiags := jsonLDBlocks(gq)
	diags = append(diags, jsonldDiags...)
	doc.StructuredData = append(doc.StructuredData, jsonld...)
	doc.StructuredData = append(doc.StructuredData, microdataBlocks(gq)...)
	if og := openGraphBlock(doc.MetaTags); og != nil {
		doc.StructuredData = append(doc.StructuredData, *og)
	}

	return doc, diags
}

// Empty returns a document with no content, usable by every downstream stage.
func Empty(pageURL string) *domain.ParsedDocument {
	gq, _ := goquery.NewDocumentFromReader(strings.NewReader(""))
	doc := &domain.ParsedDocument{
		Doc:            gq,
		StructuredData: []domain.StructuredBlock{},
		MetaTags:       map[string]string{},
	}
	if u, err := url.Parse(pageURL); err == nil && u.IsAbs() {
		doc.BaseURL = u
	}
	return doc
}

// Merge folds subpage documents into primary. Structured data and text are
// appended in page order; head metadata stays the primary page's.
func Merge(primary *domain.ParsedDocument, subpages ...*domain.ParsedDocument) *domain.ParsedDocument {
	for _, sub := range subpages {
		if sub == nil || sub.Doc == nil {
			continue
		}
		primary.Subpages = append(primary.Subpages, sub.Doc)
		primary.StructuredData = append(primary.StructuredData, sub.StructuredData...)
		if sub.Text != "" {
			primary.Text = strings.TrimSpace(primary.Text + "\n" + sub.Text)
		}
	}
	return primary
}

// sniffLen is how much of a page charset detection looks at.
const sniffLen = 1024

func looksLikeText(s string) bool {
	return strings.IndexByte(s, 0) < 0
}

// toUTF8 returns s as valid UTF-8. A page whose BOM or <meta> names a
// charset other than UTF-8 or Windows-1252 is decoded with it; otherwise
// each stray byte is read as Windows-1252 and valid sequences are kept.
func toUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	head := s
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	enc, name, _ := charset.DetermineEncoding([]byte(head), "")
	if name != "utf-8" && name != "windows-1252" {
		if decoded, err := enc.NewDecoder().String(s); err == nil {
			return decoded
		}
	}

	var b strings.Builder
	b.Grow(len(s) + len(s)/8)
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			r = charmap.Windows1252.DecodeByte(s[0])
		}
		b.WriteRune(r)
		s = s[size:]
	}
	return b.String()
}

// metaTags collects <meta name|property content> pairs, lowercased keys, first occurrence wins.
func metaTags(doc *goquery.Document) map[string]string {
	tags := map[string]string{}
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content, ok := s.Attr("content")
		if !ok {
			return
		}
		for _, attr := range []string{"name", "property", "itemprop", "http-equiv"} {
			key, has := s.Attr(attr)
			key = strings.ToLower(strings.TrimSpace(key))
			if !has || key == "" {
				continue
			}
			if _, seen := tags[key]; !seen {
				tags[key] = strings.TrimSpace(content)
			}
			return
		}
	})
	return tags
}

// VisibleText renders the human-visible text of sel, one block per line.
func VisibleText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		writeText(&b, n)
	}

	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if invisibleElements[n.Data] {
			return
		}
		if n.Data == "title" || n.Data == "head" {
			return
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if block {
		b.WriteByte('\n')
	}
}
