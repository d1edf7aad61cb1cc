package offering

import (
	"strings"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
	"github.com/jonesrussell/north-cloud/enrichment/internal/structdata"
)

type detection struct {
	items      []item
	categories []string
	prices     []string
}

var (
	productTypes = []string{"Product", "MenuItem", "Offer", "IndividualProduct", "ProductModel", "Vehicle", "Book"}
	serviceTypes = []string{"Service", "FoodService", "FinancialProduct", "ProfessionalService"}
	listTypes    = []string{"ItemList", "BreadcrumbList", "OfferCatalog"}
)

// structuredOfferings reads products, services, list categories and prices
// from embedded structured data.
func structuredOfferings(doc *domain.ParsedDocument) detection {
	var out detection
	structdata.Walk(doc.StructuredData, func(node map[string]any) {
		out.prices = append(out.prices, nodePrices(node)...)

		switch {
		case structdata.HasType(node, serviceTypes...):
			if name := structdata.First(node, "name"); name != "" {
				out.items = append(out.items, item{name: name, service: true, featured: nodeFeatured(node)})
			}
		case structdata.HasType(node, "Offer"):
			// An Offer's itemOffered is visited on its own; only a named Offer counts.
			if name := structdata.First(node, "name"); name != "" {
				out.items = append(out.items, item{name: name, featured: nodeFeatured(node)})
			}
		case structdata.HasType(node, productTypes...):
			if name := structdata.First(node, "name"); name != "" {
				out.items = append(out.items, item{name: name, featured: nodeFeatured(node)})
			}
		case structdata.HasType(node, listTypes...):
			if structdata.HasType(node, "OfferCatalog") {
				if name := structdata.First(node, "name"); name != "" {
					out.categories = append(out.categories, name)
				}
				return
			}
			out.categories = append(out.categories, listCategories(node)...)
		}
	})
	return out
}

// listCategories returns the names of untyped or ListItem elements.
// Typed entries such as Product are visited separately.
func listCategories(list map[string]any) []string {
	var names []string
	elements, _ := list["itemListElement"].([]any)
	if el, ok := list["itemListElement"].(map[string]any); ok {
		elements = []any{el}
	}
	for _, raw := range elements {
		switch el := raw.(type) {
		case string:
			names = append(names, el)
		case map[string]any:
			if len(structdata.TypeNames(el)) > 0 && !structdata.HasType(el, "ListItem") {
				continue
			}
			name := structdata.First(el, "name")
			if name == "" {
				if inner, ok := el["item"].(map[string]any); ok {
					name = structdata.First(inner, "name")
				}
			}
			if name != "" && !strings.EqualFold(name, "home") {
				names = append(names, name)
			}
		}
	}
	return names
}

func nodePrices(node map[string]any) []string {
	currency := structdata.First(node, "priceCurrency")
	var out []string
	if price := structdata.First(node, "price"); price != "" {
		out = append(out, joinPrice(price, currency))
	}
	low, high := structdata.First(node, "lowPrice"), structdata.First(node, "highPrice")
	if low != "" && high != "" {
		out = append(out, joinPrice(low+"-"+high, currency))
	}
	if r := structdata.First(node, "priceRange"); r != "" {
		out = append(out, r)
	}
	return out
}

func joinPrice(amount, currency string) string {
	return strings.TrimSpace(amount + " " + currency)
}

func nodeFeatured(node map[string]any) bool {
	for _, key := range []string{"description", "category", "keywords", "additionalType"} {
		for _, v := range structdata.Strings(node[key]) {
			if featuredMarker.MatchString(v) {
				return true
			}
		}
	}
	return false
}
