package extractor

import (
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
	"github.com/jonesrussell/north-cloud/enrichment/internal/structdata"
)

var (
	emailPattern = regexp.MustCompile(`\b[a-zA-Z0-9](?:[a-zA-Z0-9._%+-]*[a-zA-Z0-9])?@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`)
	validEmail   = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9._%+-]*[a-zA-Z0-9])?@[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?)*\.[a-zA-Z]{2,}$`)
	// escapedPrefix matches JSON unicode escapes glued to an address, e.g. "u003einfo@...".
	escapedPrefix = regexp.MustCompile(`^(?:u00[0-9a-fA-F]{2})+`)
	hexToken      = regexp.MustCompile(`^[0-9a-f]{24,}$`)
)

// assetSuffixes are file extensions that look like TLDs in "logo@2x.png" style filenames.
var assetSuffixes = []string{
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".avif", ".bmp", ".ico", ".tif", ".tiff",
	".css", ".js", ".json", ".mp4", ".webm", ".woff", ".woff2", ".pdf",
}

var placeholderDomains = map[string]bool{
	"example.com": true, "example.org": true, "example.net": true,
	"domain.com": true, "email.com": true, "yourdomain.com": true, "yoursite.com": true,
	"website.com": true, "company.com": true, "mysite.com": true,
	"sentry.io": true, "wixpress.com": true, "sentry.wixpress.com": true, "sentry-next.wixpress.com": true,
}

var placeholderLocals = map[string]bool{
	"name": true, "yourname": true, "your.name": true, "youremail": true, "your.email": true,
	"email": true, "user": true, "username": true, "firstname": true, "firstname.lastname": true,
	"first.last": true, "john.doe": true, "jane.doe": true, "johndoe": true, "someone": true,
	"test": true,
}

// Emails finds contact addresses in mailto links, structured data and page text.
// The result is deduplicated and sorted.
func Emails(doc *domain.ParsedDocument) []string {
	seen := map[string]bool{}
	out := []string{}
	add := func(candidate string) {
		email, ok := CleanEmail(candidate)
		if !ok || seen[email] {
			return
		}
		seen[email] = true
		out = append(out, email)
	}

	for _, d := range doc.Documents() {
		d.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			if strings.HasPrefix(strings.ToLower(strings.TrimSpace(href)), "mailto:") {
				add(href)
			}
		})
	}
	structdata.Walk(doc.StructuredData, func(node map[string]any) {
		for _, v := range structdata.Strings(node["email"]) {
			add(v)
		}
	})
	for _, m := range emailPattern.FindAllString(doc.Text, -1) {
		add(m)
	}
	slices.Sort(out)
	return out
}

// CleanEmail normalizes a raw candidate and rejects false positives.
// Only the domain part is lowercased.
func CleanEmail(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if len(s) >= len("mailto:") && strings.EqualFold(s[:len("mailto:")], "mailto:") {
		s = s[len("mailto:"):]
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	if unescaped, err := url.PathUnescape(s); err == nil {
		s = unescaped
	}
	s = strings.Trim(strings.TrimSpace(s), `.,;:'"<>()[]{}`)

	at := strings.LastIndexByte(s, '@')
	if at <= 0 {
		return "", false
	}
	local := escapedPrefix.ReplaceAllString(s[:at], "")
	host := strings.ToLower(s[at+1:])
	email := local + "@" + host

	if !validEmail.MatchString(email) {
		return "", false
	}
	for _, suffix := range assetSuffixes {
		if strings.HasSuffix(host, suffix) {
			return "", false
		}
	}
	if placeholderDomains[host] || placeholderLocals[strings.ToLower(local)] {
		return "", false
	}
	if hexToken.MatchString(strings.ToLower(local)) {
		return "", false
	}
	return email, true
}
