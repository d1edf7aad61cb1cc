package structdata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
	"github.com/jonesrussell/north-cloud/enrichment/internal/structdata"
)

func TestTypeNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		node map[string]any
		want []string
	}{
		{name: "plain", node: map[string]any{"@type": "Product"}, want: []string{"Product"}},
		{name: "url", node: map[string]any{"@type": "https://schema.org/LocalBusiness"}, want: []string{"LocalBusiness"}},
		{name: "list", node: map[string]any{"@type": []any{"Store", "http://schema.org/Bakery"}}, want: []string{"Store", "Bakery"}},
		{name: "missing", node: map[string]any{}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, structdata.TypeNames(tt.node))
		})
	}
}

func TestWalk_VisitsNestedNodesInOrder(t *testing.T) {
	t.Parallel()

	blocks := []domain.StructuredBlock{
		{Data: map[string]any{"@type": "Organization", "department": []any{
			map[string]any{"@type": "Store"},
			map[string]any{"@type": "Bakery"},
		}}},
		{Data: map[string]any{"@type": "WebSite"}},
	}

	var seen []string
	structdata.Walk(blocks, func(node map[string]any) {
		seen = append(seen, structdata.TypeNames(node)...)
	})

	assert.Equal(t, []string{"Organization", "Store", "Bakery", "WebSite"}, seen)
}

func TestStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b"}, structdata.Strings([]any{" a ", "", "b"}))
	assert.Equal(t, []string{"12.5"}, structdata.Strings(12.5))
	assert.Equal(t, []string{"Widgets"}, structdata.Strings(map[string]any{"name": "Widgets", "url": "/w"}))
	assert.Nil(t, structdata.Strings(nil))
	assert.True(t, structdata.HasType(map[string]any{"@type": "product"}, "Product"))
	assert.Equal(t, "x", structdata.First(map[string]any{"k": []any{"x", "y"}}, "k"))
}
