package parser

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kaptinlin/jsonrepair"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
)

// jsonLDBlocks decodes every linked-data script. Top-level arrays and @graph
// containers are flattened to one block per node; everything else keeps its nesting.
func jsonLDBlocks(doc *goquery.Document) ([]domain.StructuredBlock, []domain.ErrorEntry) {
	var blocks []domain.StructuredBlock
	var diags []domain.ErrorEntry

	doc.Find("script").Each(func(i int, s *goquery.Selection) {
		typ, _ := s.Attr("type")
		if !strings.Contains(strings.ToLower(typ), "ld+json") {
			return
		}
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}

		data, err := decodeLenient(raw)
		if err != nil {
			diags = append(diags, domain.NewError(domain.StageParse, domain.KindParseDegraded,
				"json-ld block %d: %v", i, err))
			return
		}
		nodes := flattenJSONLD(data)
		if len(nodes) == 0 {
			diags = append(diags, domain.NewError(domain.StageParse, domain.KindParseDegraded,
				"json-ld block %d: no objects", i))
			return
		}
		for _, node := range nodes {
			blocks = append(blocks, domain.StructuredBlock{Syntax: domain.SyntaxJSONLD, Data: node})
		}
	})

	return blocks, diags
}

// decodeLenient decodes JSON, falling back to a repaired copy for the
// trailing commas and unquoted keys that hand-written markup often contains.
func decodeLenient(raw string) (any, error) {
	var data any
	err := json.Unmarshal([]byte(raw), &data)
	if err == nil {
		return data, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(raw)
	if repairErr != nil {
		return nil, err
	}
	if retryErr := json.Unmarshal([]byte(repaired), &data); retryErr != nil {
		return nil, err
	}
	return data, nil
}

func flattenJSONLD(data any) []map[string]any {
	switch v := data.(type) {
	case []any:
		var out []map[string]any
		for _, item := range v {
			out = append(out, flattenJSONLD(item)...)
		}
		return out
	case map[string]any:
		if graph, ok := v["@graph"].([]any); ok {
			return flattenJSONLD(graph)
		}
		return []map[string]any{v}
	default:
		return nil
	}
}

// microdataBlocks converts each top-level itemscope into a nested key/value tree.
// "@type" carries the raw itemtype attribute.
func microdataBlocks(doc *goquery.Document) []domain.StructuredBlock {
	var blocks []domain.StructuredBlock
	doc.Find("[itemscope]").Each(func(_ int, s *goquery.Selection) {
		if s.Parent().Closest("[itemscope]").Length() > 0 {
			return
		}
		blocks = append(blocks, domain.StructuredBlock{
			Syntax: domain.SyntaxMicrodata,
			Data:   microdataItem(s),
		})
	})
	return blocks
}

func microdataItem(scope *goquery.Selection) map[string]any {
	item := map[string]any{}
	if typ, ok := scope.Attr("itemtype"); ok {
		item["@type"] = strings.TrimSpace(typ)
	}

	scopeNode := scope.Get(0)
	scope.Find("[itemprop]").Each(func(_ int, prop *goquery.Selection) {
		owner := prop.Parent().Closest("[itemscope]")
		if owner.Length() == 0 || owner.Get(0) != scopeNode {
			return
		}

		var value any
		if _, nested := prop.Attr("itemscope"); nested {
			value = microdataItem(prop)
		} else {
			value = microdataValue(prop)
		}

		names, _ := prop.Attr("itemprop")
		for _, name := range strings.Fields(names) {
			addValue(item, name, value)
		}
	})
	return item
}

func microdataValue(prop *goquery.Selection) string {
	attrByTag := map[string]string{
		"meta": "content", "a": "href", "link": "href", "area": "href",
		"img": "src", "audio": "src", "video": "src", "source": "src", "embed": "src",
		"object": "data", "time": "datetime", "data": "value", "meter": "value",
	}
	if v, ok := prop.Attr("content"); ok {
		return strings.TrimSpace(v)
	}
	if attr, ok := attrByTag[goquery.NodeName(prop)]; ok {
		if v, has := prop.Attr(attr); has {
			return strings.TrimSpace(v)
		}
	}
	return strings.Join(strings.Fields(prop.Text()), " ")
}

// addValue stores v under key, turning repeated properties into a list.
func addValue(item map[string]any, key string, v any) {
	existing, ok := item[key]
	if !ok {
		item[key] = v
		return
	}
	if list, isList := existing.([]any); isList {
		item[key] = append(list, v)
		return
	}
	item[key] = []any{existing, v}
}

// openGraphBlock groups og:* properties into a single block.
func openGraphBlock(meta map[string]string) *domain.StructuredBlock {
	data := map[string]any{}
	for k, v := range meta {
		if strings.HasPrefix(k, "og:") {
			data[k] = v
		}
	}
	if len(data) == 0 {
		return nil
	}
	return &domain.StructuredBlock{Syntax: domain.SyntaxOpenGraph, Data: data}
}
