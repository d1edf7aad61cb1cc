package extractor

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
	"github.com/jonesrussell/north-cloud/enrichment/internal/structdata"
)

var (
	// North American: (555) 123-4567, 555.123.4567, +1 555-123-4567, 1-555-123-4567
	nanpPhone = regexp.MustCompile(`(?:\+1[\s.-]?|\b1[\s.-])?(?:\(\d{3}\)\s?|\b\d{3}[\s.-])\d{3}[\s.-]\d{4}\b`)
	// International with country code: +44 20 7946 0958, +33.1.23.45.67.89
	intlPhone = regexp.MustCompile(`\+[2-9]\d{0,2}(?:[\s.-]\(?\d{1,4}\)?){2,5}\b`)
)

var phoneSeparators = regexp.MustCompile(`[\s.()\-/]+`)

const (
	nanpDigits      = 10
	localDigits     = 7
	minIntlDigits   = 8
	maxIntlDigits   = 15
	nanpCountryCode = '1'
)

// Phones finds phone numbers in structured data, tel: links and page text,
// normalized to dash-separated form and deduplicated after normalization.
func Phones(doc *domain.ParsedDocument) []string {
	seen := map[string]bool{}
	out := []string{}
	add := func(candidate string) {
		phone, ok := NormalizePhone(candidate)
		if !ok || seen[phone] {
			return
		}
		seen[phone] = true
		out = append(out, phone)
	}

	structdata.Walk(doc.StructuredData, func(node map[string]any) {
		for _, v := range structdata.Strings(node["telephone"]) {
			add(v)
		}
	})
	for _, d := range doc.Documents() {
		d.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			href = strings.TrimSpace(href)
			if len(href) > len("tel:") && strings.EqualFold(href[:len("tel:")], "tel:") {
				add(href[len("tel:"):])
			}
		})
	}
	for _, m := range textPhones(doc.Text) {
		add(m)
	}
	return out
}

// textPhones returns phone-like runs of text in page order. International
// numbers are matched first, and North American matches inside them are
// dropped so "+44 207 946 0958" never also yields "+1-207-946-0958".
func textPhones(text string) []string {
	spans := intlPhone.FindAllStringIndex(text, -1)
	intl := len(spans)
	for _, loc := range nanpPhone.FindAllStringIndex(text, -1) {
		inside := slices.ContainsFunc(spans[:intl], func(s []int) bool {
			return loc[0] < s[1] && s[0] < loc[1]
		})
		if !inside {
			spans = append(spans, loc)
		}
	}
	slices.SortFunc(spans, func(a, b []int) int { return cmp.Compare(a[0], b[0]) })

	out := make([]string, 0, len(spans))
	for _, s := range spans {
		out = append(out, text[s[0]:s[1]])
	}
	return out
}

// NormalizePhone converts a raw number to the canonical style:
// "+1-NPA-NXX-XXXX" for North American numbers, "NXX-XXXX" for bare local
// numbers, and "+CC-..." with the original grouping for other countries.
func NormalizePhone(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	plus := strings.HasPrefix(raw, "+")
	digits := onlyDigits(raw)

	switch {
	case len(digits) == nanpDigits+1 && digits[0] == nanpCountryCode:
		return "+1-" + digits[1:4] + "-" + digits[4:7] + "-" + digits[7:], true
	case len(digits) == nanpDigits && !plus:
		return "+1-" + digits[0:3] + "-" + digits[3:6] + "-" + digits[6:], true
	case plus && len(digits) == localDigits+1 && digits[0] == nanpCountryCode:
		return "+1-" + digits[1:4] + "-" + digits[4:], true
	case len(digits) == localDigits && !plus:
		return digits[:3] + "-" + digits[3:], true
	case plus && len(digits) >= minIntlDigits && len(digits) <= maxIntlDigits:
		grouped := strings.Trim(phoneSeparators.ReplaceAllString(raw[1:], "-"), "-")
		return "+" + grouped, true
	default:
		return "", false
	}
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
