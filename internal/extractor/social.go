package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
	"github.com/jonesrussell/north-cloud/enrichment/internal/structdata"
)

// Platform is a social network recognized by its domains.
type Platform struct {
	Name    string
	Domains []string
}

// Platforms is the fixed set of recognized social networks.
var Platforms = []Platform{
	{Name: "facebook", Domains: []string{"facebook.com", "fb.com", "fb.me"}},
	{Name: "twitter", Domains: []string{"twitter.com", "x.com"}},
	{Name: "instagram", Domains: []string{"instagram.com"}},
	{Name: "linkedin", Domains: []string{"linkedin.com"}},
	{Name: "youtube", Domains: []string{"youtube.com", "youtu.be"}},
	{Name: "tiktok", Domains: []string{"tiktok.com"}},
	{Name: "pinterest", Domains: []string{"pinterest.com"}},
}

// sharePaths mark "share this page" widgets rather than the business's own profile.
var sharePaths = []string{"/sharer", "/share", "/intent/", "/sharearticle", "/pin/create", "/dialog/"}

// SocialLinks maps each platform to the first profile link found in document
// order. Structured sameAs links only fill platforms no anchor matched.
func SocialLinks(doc *domain.ParsedDocument) map[string]string {
	links := map[string]string{}
	add := func(href string) {
		u := resolve(doc.BaseURL, href)
		if u == nil {
			return
		}
		platform := PlatformOf(u)
		if platform == "" {
			return
		}
		if _, taken := links[platform]; !taken {
			links[platform] = u.String()
		}
	}

	for _, d := range doc.Documents() {
		d.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			add(href)
		})
	}

	structdata.Walk(doc.StructuredData, func(node map[string]any) {
		for _, href := range structdata.Strings(node["sameAs"]) {
			add(href)
		}
	})
	return links
}

// PlatformOf returns the platform name for a profile URL, or "" when u is not
// a recognized social profile.
func PlatformOf(u *url.URL) string {
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	path := strings.ToLower(u.Path)
	for _, share := range sharePaths {
		if strings.HasPrefix(path, share) {
			return ""
		}
	}
	for _, p := range Platforms {
		for _, d := range p.Domains {
			if host == d || strings.HasSuffix(host, "."+d) {
				return p.Name
			}
		}
	}
	return ""
}

func resolve(base *url.URL, href string) *url.URL {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return nil
	}
	u, err := url.Parse(href)
	if err != nil {
		return nil
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if !u.IsAbs() {
		return nil
	}
	return u
}
