// Package structdata provides read helpers over the loosely typed
// structured-data trees produced by the parser.
package structdata

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
)

// Walk visits every object in blocks depth-first. Blocks are visited in
// document order; keys within an object in sorted order.
func Walk(blocks []domain.StructuredBlock, visit func(node map[string]any)) {
	for _, b := range blocks {
		walk(b.Data, visit)
	}
}

func walk(v any, visit func(map[string]any)) {
	switch t := v.(type) {
	case map[string]any:
		visit(t)
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			walk(t[k], visit)
		}
	case []any:
		for _, item := range t {
			walk(item, visit)
		}
	}
}

// TypeNames returns the type names of node with any vocabulary prefix
// removed, so "https://schema.org/Product" becomes "Product".
func TypeNames(node map[string]any) []string {
	var names []string
	for _, raw := range Strings(node["@type"]) {
		raw = strings.TrimRight(raw, "/")
		if i := strings.LastIndexAny(raw, "/#"); i >= 0 {
			raw = raw[i+1:]
		}
		if raw != "" {
			names = append(names, raw)
		}
	}
	return names
}

// HasType reports whether node carries any of types, case-insensitively.
func HasType(node map[string]any, types ...string) bool {
	for _, name := range TypeNames(node) {
		for _, t := range types {
			if strings.EqualFold(name, t) {
				return true
			}
		}
	}
	return false
}

// Strings flattens a scalar or list value into trimmed, non-empty strings.
// Objects contribute their "name" (or a lone "@id").
func Strings(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case float64, bool:
		return []string{fmt.Sprint(t)}
	case []any:
		var out []string
		for _, item := range t {
			out = append(out, Strings(item)...)
		}
		return out
	case map[string]any:
		if name, ok := t["name"]; ok {
			return Strings(name)
		}
		if id, ok := t["@id"].(string); ok && len(t) == 1 {
			return Strings(id)
		}
	}
	return nil
}

// First returns the first string value of key in node, or "".
func First(node map[string]any, key string) string {
	if vals := Strings(node[key]); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
