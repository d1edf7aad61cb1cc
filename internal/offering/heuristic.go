package offering

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
	"github.com/jonesrussell/north-cloud/enrichment/internal/parser"
)

const (
	candidateSelector = "h2, h3, h4, h5, h6, li, dt, [class*='title'], [class*='name']"
	excludedAncestors = "nav, header, footer, form, [role='navigation']"
	headingSelector   = "h1, h2, h3, h4, h5, h6"
	minNameLen        = 3
	maxNameLen        = 80
	maxNameWords      = 8
	contextLevels     = 3
)

var (
	priceAmount = regexp.MustCompile(`[$€£¥]\s?\d[\d,]*(?:\.\d{1,2})?(?:\s?(?:-|–|to)\s?[$€£¥]?\d[\d,]*(?:\.\d{1,2})?)?`)
	priceMarker = regexp.MustCompile(`(?i)(?:[$€£¥]\s?\d|\d\s?(?:usd|cad|eur|gbp)\b|\bfrom\s+[$€£¥]|\bper\s+(?:hour|hr|session|visit|month)\b|/\s?(?:hr|hour)\b)`)
	catalogWord = regexp.MustCompile(`(?i)product|service|menu|item|card|pricing|catalog`)
	serviceWord = regexp.MustCompile(`(?i)\b(?:services?|repairs?|installations?|install|consulting|consultations?|cleaning|maintenance|inspections?|design|delivery|removal|training|lessons?|treatments?|therapy|massages?|haircuts?|appointments?|classes|tutoring|planning|support)\b`)
	nameSeparators = " \t-–—:|·•"
)

// heuristicOfferings scans markup for item-like headings and list entries that
// sit next to a price or inside a catalog-like container.
func heuristicOfferings(doc *domain.ParsedDocument) detection {
	var out detection
	for _, d := range doc.Documents() {
		d.Find(candidateSelector).Each(func(_ int, s *goquery.Selection) {
			if s.Closest(excludedAncestors).Length() > 0 {
				return
			}
			if goquery.NodeName(s) == "li" && s.Find(headingSelector).Length() > 0 {
				return
			}

			container := nearbyContainer(s)
			if container != s && container.Find(headingSelector).Length() > 1 {
				return
			}
			nearby := parser.VisibleText(container)
			hasPrice := priceMarker.MatchString(nearby)
			if !hasPrice && !catalogContext(s) {
				return
			}

			name := itemName(parser.VisibleText(s))
			if name == "" {
				return
			}
			out.items = append(out.items, item{
				name:     name,
				service:  serviceWord.MatchString(name),
				featured: featuredMarker.MatchString(nearby) || featuredMarker.MatchString(classChain(s)),
			})
			if hasPrice {
				out.prices = append(out.prices, priceAmount.FindAllString(nearby, -1)...)
			}
		})
	}
	return out
}

// itemName strips any trailing price from a candidate's text and rejects
// text that is too long to be an item name.
func itemName(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if loc := priceMarker.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	text = strings.Trim(text, nameSeparators)
	if strings.HasSuffix(strings.ToLower(text), " from") {
		text = strings.TrimSpace(text[:len(text)-len(" from")])
	}
	if len(text) < minNameLen || len(text) > maxNameLen || len(strings.Fields(text)) > maxNameWords {
		return ""
	}
	if priceMarker.MatchString(text) || strings.ContainsAny(text, "@") {
		return ""
	}
	return text
}

// nearbyContainer is the element whose text counts as "nearby" for s:
// list entries stand alone, headings and titles share their card.
func nearbyContainer(s *goquery.Selection) *goquery.Selection {
	switch goquery.NodeName(s) {
	case "li", "dt":
		return s
	}
	container := s.Parent()
	if container.Length() == 0 || goquery.NodeName(container) == "body" {
		return s
	}
	return container
}

func catalogContext(s *goquery.Selection) bool {
	return catalogWord.MatchString(classChain(s))
}

// classChain joins the class and id attributes of s and its closest ancestors.
func classChain(s *goquery.Selection) string {
	var b strings.Builder
	cur := s
	for i := 0; i < contextLevels && cur.Length() > 0; i++ {
		if goquery.NodeName(cur) == "body" {
			break
		}
		class, _ := cur.Attr("class")
		id, _ := cur.Attr("id")
		b.WriteString(class)
		b.WriteByte(' ')
		b.WriteString(id)
		b.WriteByte(' ')
		cur = cur.Parent()
	}
	return b.String()
}
