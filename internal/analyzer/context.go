package analyzer

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
	"github.com/jonesrussell/north-cloud/enrichment/internal/parser"
)

// ContextInput is everything the analyzer may show the model about a business.
type ContextInput struct {
	Business  domain.BusinessInput
	Doc       *domain.ParsedDocument
	Offerings domain.OfferingSet
	Meta      domain.MetaInfo
}

const boilerplateSelector = "nav, header, footer, aside, form, [role='navigation'], [class*='cookie'], [id*='cookie']"

// minTrimmedBody is the shortest body excerpt worth keeping once trimming starts.
const minTrimmedBody = 200

// BuildContext renders a bounded, plain-text context for in. When the full
// context exceeds maxChars, sections are removed in a fixed order: page
// boilerplate first, then the body text is cut, then the offerings list.
func BuildContext(in ContextInput, maxChars int) string {
	header := businessSection(in)
	offerings := offeringsSection(in.Offerings)
	body, boilerplate := bodySections(in.Doc)

	render := func() string {
		var parts []string
		for _, p := range []string{header, offerings, body, boilerplate} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		return strings.Join(parts, "\n\n")
	}

	out := render()
	if maxChars <= 0 || len(out) <= maxChars {
		return out
	}

	boilerplate = ""
	if out = render(); len(out) <= maxChars {
		return out
	}

	if budget := maxChars - (len(out) - len(body)); budget >= minTrimmedBody {
		body = truncate(body, budget)
		return render()
	}
	body = ""
	if out = render(); len(out) <= maxChars {
		return out
	}

	offerings = ""
	return truncate(render(), maxChars)
}

func businessSection(in ContextInput) string {
	var b strings.Builder
	b.WriteString("Business:\n")
	writeLine(&b, "Name", in.Business.Name)
	writeLine(&b, "Address", in.Business.Address)
	writeLine(&b, "Website", in.Business.WebsiteURL)
	writeLine(&b, "Page title", in.Meta.Title)
	writeLine(&b, "Description", in.Meta.Description)
	writeLine(&b, "Keywords", in.Meta.Keywords)
	return strings.TrimRight(b.String(), "\n")
}

func offeringsSection(o domain.OfferingSet) string {
	if o.IsEmpty() && len(o.PriceRanges) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Detected offerings:\n")
	writeLine(&b, "Products", strings.Join(o.Products, ", "))
	writeLine(&b, "Services", strings.Join(o.Services, ", "))
	writeLine(&b, "Categories", strings.Join(o.Categories, ", "))
	writeLine(&b, "Featured", strings.Join(o.FeaturedItems, ", "))
	writeLine(&b, "Prices", strings.Join(o.PriceRanges, ", "))
	return strings.TrimRight(b.String(), "\n")
}

func writeLine(b *strings.Builder, label, value string) {
	if value = strings.TrimSpace(value); value != "" {
		fmt.Fprintf(b, "%s: %s\n", label, value)
	}
}

// bodySections returns the condensed main text and the boilerplate text of
// the primary page. Readability is tried first, then a markdown rendering of
// the page with boilerplate removed, then the parser's visible text.
func bodySections(doc *domain.ParsedDocument) (body, boilerplate string) {
	if doc == nil || doc.Doc == nil {
		return "", ""
	}
	boilerplate = dedupeLines(parser.VisibleText(doc.Doc.Find(boilerplateSelector)))

	text := readableText(doc)
	if text == "" {
		text = markdownText(doc)
	}
	if text == "" {
		text = doc.Text
	}
	text = dedupeLines(text)
	if text != "" {
		text = "Website content:\n" + text
	}
	if boilerplate != "" {
		boilerplate = "Navigation and footer:\n" + boilerplate
	}
	return text, boilerplate
}

func readableText(doc *domain.ParsedDocument) string {
	if strings.TrimSpace(doc.HTML) == "" {
		return ""
	}
	pageURL := doc.BaseURL
	if pageURL == nil {
		pageURL = &url.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(doc.HTML), pageURL)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}

func markdownText(doc *domain.ParsedDocument) string {
	clone := goquery.CloneDocument(doc.Doc)
	clone.Find(boilerplateSelector + ", script, style, noscript, svg").Remove()
	html, err := clone.Find("body").Html()
	if err != nil || strings.TrimSpace(html) == "" {
		return ""
	}
	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(markdown)
}

// dedupeLines drops blank and repeated lines, keeping first occurrences.
func dedupeLines(text string) string {
	seen := map[string]bool{}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// truncate cuts s to at most n bytes on a rune boundary, preferring a line break.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 0 {
		return ""
	}
	cut := s[:n]
	for len(cut) > 0 && !utf8.RuneStart(s[len(cut)]) {
		cut = cut[:len(cut)-1]
	}
	if i := strings.LastIndexByte(cut, '\n'); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " \n")
}
