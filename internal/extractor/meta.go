package extractor

import (
	"strings"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
)

// Meta reads title, description and keywords from the primary page's head.
// Missing values are empty strings.
func Meta(doc *domain.ParsedDocument) domain.MetaInfo {
	info := domain.MetaInfo{
		Description: firstNonEmpty(doc.MetaTags["description"], doc.MetaTags["og:description"]),
		Keywords:    doc.MetaTags["keywords"],
	}
	if doc.Doc != nil {
		info.Title = strings.Join(strings.Fields(doc.Doc.Find("title").First().Text()), " ")
	}
	if info.Title == "" {
		info.Title = doc.MetaTags["og:title"]
	}
	return info
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
