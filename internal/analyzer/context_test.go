package analyzer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/enrichment/internal/analyzer"
	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
	"github.com/jonesrussell/north-cloud/enrichment/internal/parser"
)

func contextInput(t *testing.T) analyzer.ContextInput {
	t.Helper()

	body := strings.Repeat("Acme Plumbing has repaired pipes across Springfield for thirty years. ", 20)
	nav := strings.Repeat("Home About Services Contact Careers Blog Locations ", 6)
	page := `<html><head><title>Acme Plumbing</title></head><body>
<nav>` + nav + `</nav>
<main><article><h1>About Acme</h1><p>` + body + `</p></article></main>
<footer>Copyright Acme Plumbing. All rights reserved. Privacy policy. Terms of service.</footer>
</body></html>`

	doc, diags := parser.Parse(page, "https://acme.example/")
	require.Empty(t, diags)

	return analyzer.ContextInput{
		Business: domain.BusinessInput{Name: "Acme Plumbing", Address: "1 Main St", WebsiteURL: "https://acme.example"},
		Doc:      doc,
		Offerings: domain.OfferingSet{
			Products: []string{"Water Heater"},
			Services: []string{"Drain Cleaning"},
		},
		Meta: domain.MetaInfo{Title: "Acme Plumbing"},
	}
}

func TestBuildContext_Unbounded(t *testing.T) {
	t.Parallel()

	got := analyzer.BuildContext(contextInput(t), 0)

	assert.Contains(t, got, "Name: Acme Plumbing")
	assert.Contains(t, got, "Products: Water Heater")
	assert.Contains(t, got, "Website content:")
	assert.Contains(t, got, "Navigation and footer:")
	assert.Less(t, strings.Index(got, "Detected offerings:"), strings.Index(got, "Website content:"))
}

func TestBuildContext_DropsBoilerplateFirst(t *testing.T) {
	t.Parallel()

	in := contextInput(t)
	full := analyzer.BuildContext(in, 0)

	got := analyzer.BuildContext(in, len(full)-1)

	assert.LessOrEqual(t, len(got), len(full)-1)
	assert.NotContains(t, got, "Navigation and footer:")
	assert.Contains(t, got, "Website content:")
	assert.Contains(t, got, "Products: Water Heater")
}

func TestBuildContext_CutsBodyBeforeOfferings(t *testing.T) {
	t.Parallel()

	got := analyzer.BuildContext(contextInput(t), 400)

	assert.LessOrEqual(t, len(got), 400)
	assert.Contains(t, got, "Services: Drain Cleaning")
	assert.Contains(t, got, "Website content:")
	assert.NotContains(t, got, "Navigation and footer:")
}

func TestBuildContext_DropsOfferingsLast(t *testing.T) {
	t.Parallel()

	got := analyzer.BuildContext(contextInput(t), 120)

	assert.LessOrEqual(t, len(got), 120)
	assert.Contains(t, got, "Name: Acme Plumbing")
	assert.NotContains(t, got, "Website content:")
	assert.NotContains(t, got, "Detected offerings:")
}

func TestBuildContext_NoDocument(t *testing.T) {
	t.Parallel()

	got := analyzer.BuildContext(analyzer.ContextInput{
		Business: domain.BusinessInput{Name: "Bella Cafe"},
		Offerings: domain.NewOfferingSet(),
	}, 4000)

	assert.Equal(t, "Business:\nName: Bella Cafe", got)
}
