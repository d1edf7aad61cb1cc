package extractor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
	"github.com/jonesrussell/north-cloud/enrichment/internal/extractor"
	"github.com/jonesrussell/north-cloud/enrichment/internal/parser"
)

func parse(t *testing.T, page string) *domain.ParsedDocument {
	t.Helper()

	doc, diags := parser.Parse(page, "https://acme.example/")
	require.Empty(t, diags)
	return doc
}

const acmeHome = `<html><head><title>Acme Plumbing</title>
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"LocalBusiness","name":"Acme","telephone":"+1-555-0100"}
</script></head>
<body><p>Write to <a href="mailto:sales@acme.example">sales@acme.example</a></p></body></html>`

func TestExtract_AcmeContacts(t *testing.T) {
	t.Parallel()

	signals, meta, errs := extractor.Default().Extract(parse(t, acmeHome))

	assert.Empty(t, errs)
	assert.Equal(t, []string{"sales@acme.example"}, signals.Emails)
	assert.Equal(t, []string{"+1-555-0100"}, signals.Phones)
	assert.Empty(t, signals.SocialLinks)
	assert.Equal(t, "Acme Plumbing", meta.Title)
}

func TestEmails_Idempotent(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<body>
<a href="mailto:info@ACME.example?subject=hi">mail</a>
<p>Contact info@acme.example or billing@acme.example.</p></body>`)

	first := extractor.Emails(doc)
	second := extractor.Emails(doc)

	assert.Equal(t, []string{"billing@acme.example", "info@acme.example"}, first)
	assert.Equal(t, first, second)
	for _, email := range first {
		again, ok := extractor.CleanEmail(email)
		require.True(t, ok)
		assert.Equal(t, email, again)
	}
}

func TestCleanEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "mailto with query", raw: "mailto:sales@acme.example?subject=Quote", want: "sales@acme.example"},
		{name: "percent encoded", raw: "mailto:sales%40acme.example", want: "sales@acme.example"},
		{name: "domain lowercased", raw: "Sales@ACME.Example", want: "Sales@acme.example"},
		{name: "trailing punctuation", raw: "(sales@acme.example).", want: "sales@acme.example"},
		{name: "json escape prefix", raw: "u003esales@acme.example", want: "sales@acme.example"},
		{name: "retina image", raw: "logo@2x.png", want: ""},
		{name: "asset path", raw: "icon@3x.webp", want: ""},
		{name: "placeholder domain", raw: "owner@example.com", want: ""},
		{name: "placeholder local", raw: "yourname@acme.example", want: ""},
		{name: "test local", raw: "test@acme.example", want: ""},
		{name: "tracking hash", raw: "5f2b8c9d0e1f2a3b4c5d6e7f8a9b@errors.acme.example", want: ""},
		{name: "no at sign", raw: "sales.acme.example", want: ""},
		{name: "no tld", raw: "sales@localhost", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := extractor.CleanEmail(tt.raw)
			if tt.want == "" {
				assert.False(t, ok, "got %q", got)
				return
			}
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{raw: "(555) 123-4567", want: "+1-555-123-4567"},
		{raw: "555.123.4567", want: "+1-555-123-4567"},
		{raw: "+1 555 123 4567", want: "+1-555-123-4567"},
		{raw: "1-555-123-4567", want: "+1-555-123-4567"},
		{raw: "+1-555-0100", want: "+1-555-0100"},
		{raw: "123-4567", want: "123-4567"},
		{raw: "+44 20 7946 0958", want: "+44-20-7946-0958"},
		{raw: "+33.1.23.45.67.89", want: "+33-1-23-45-67-89"},
		{raw: "12345", want: ""},
		{raw: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			got, ok := extractor.NormalizePhone(tt.raw)
			assert.Equal(t, tt.want != "", ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPhones_DeduplicatesAcrossSources(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<html><head><script type="application/ld+json">
{"@type":"LocalBusiness","telephone":"(555) 123-4567"}</script></head>
<body><a href="tel:+15551234567">Call</a>
<p>Office: 555-123-4567</p><p>Fax: 555.987.6543</p>
<p>Invoice 2024-01-15 ref 12345</p></body></html>`)

	assert.Equal(t, []string{"+1-555-123-4567", "+1-555-987-6543"}, extractor.Phones(doc))
}

func TestPhones_InternationalTailIsNotNorthAmerican(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<html><body>
<p>London office: +44 207 946 0958</p>
<p>Toronto office: (416) 555-0199</p>
<p>Paris: +33.1.23.45.67.89</p></body></html>`)

	assert.Equal(t, []string{"+44-207-946-0958", "+1-416-555-0199", "+33-1-23-45-67-89"}, extractor.Phones(doc))
}

func TestExtract_RepairedEncodingKeepsContacts(t *testing.T) {
	t.Parallel()

	doc := parse(t, "<html><head><title>Caf\xe9 Acme</title></head><body>"+
		"<a href=\"mailto:sales@acme.example\">Email</a><p>Call (555) 123-4567</p></body></html>")
	signals, meta, _ := extractor.Default().Extract(doc)

	assert.Equal(t, []string{"sales@acme.example"}, signals.Emails)
	assert.Equal(t, []string{"+1-555-123-4567"}, signals.Phones)
	assert.Equal(t, "Café Acme", meta.Title)
}

func TestSocialLinks_FirstSeenWins(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<html><head><script type="application/ld+json">
{"@type":"Organization","sameAs":["https://www.facebook.com/other","https://www.linkedin.com/company/acme"]}
</script></head><body>
<a href="https://www.facebook.com/sharer/sharer.php?u=acme">share</a>
<a href="https://www.facebook.com/acme">fb</a>
<a href="https://facebook.com/acme-duplicate">fb again</a>
<a href="https://x.com/acme">x</a>
<a href="https://youtu.be/abc">video</a>
<a href="/about">about</a>
<a href="https://notfacebook.com/acme">lookalike</a>
</body></html>`)

	links := extractor.SocialLinks(doc)

	assert.Equal(t, map[string]string{
		"facebook": "https://www.facebook.com/acme",
		"twitter":  "https://x.com/acme",
		"youtube":  "https://youtu.be/abc",
		"linkedin": "https://www.linkedin.com/company/acme",
	}, links)
}

func TestBusinessHours(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		page string
		want string
	}{
		{
			name: "structured opening hours win over text",
			page: `<html><head><script type="application/ld+json">
{"@type":"LocalBusiness","openingHours":["Mo-Fr 09:00-17:00","Sa 10:00-14:00"]}</script></head>
<body><p>Monday - Friday 8am - 6pm</p></body></html>`,
			want: "Mo-Fr 09:00-17:00; Sa 10:00-14:00",
		},
		{
			name: "opening hours specification",
			page: `<html><head><script type="application/ld+json">
{"@type":"LocalBusiness","openingHoursSpecification":[
 {"@type":"OpeningHoursSpecification","dayOfWeek":["Monday","Tuesday"],"opens":"09:00","closes":"17:00"},
 {"@type":"OpeningHoursSpecification","dayOfWeek":"https://schema.org/Saturday","opens":"10:00","closes":"14:00"}]}
</script></head><body></body></html>`,
			want: "Monday, Tuesday 09:00-17:00; Saturday 10:00-14:00",
		},
		{
			name: "text heuristic",
			page: `<body><h2>Hours</h2><p>Mon-Fri 9am-5pm</p><p>Sat 10am - 2pm</p>
<p>Sun Closed</p><p>Call Monday for a quote</p></body>`,
			want: "Mon-Fri 9am-5pm; Sat 10am - 2pm; Sun Closed",
		},
		{
			name: "always open",
			page: `<body><p>We are open 24/7 for emergencies.</p></body>`,
			want: "Open 24 hours",
		},
		{
			name: "nothing found",
			page: `<body><p>Family owned since 1990.</p></body>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, extractor.BusinessHours(parse(t, tt.page)))
		})
	}
}

func TestMeta(t *testing.T) {
	t.Parallel()

	t.Run("missing tags are empty strings", func(t *testing.T) {
		t.Parallel()

		meta := extractor.Meta(parse(t, `<html><body><p>hi</p></body></html>`))
		assert.Equal(t, domain.MetaInfo{}, meta)
	})

	t.Run("open graph fallback", func(t *testing.T) {
		t.Parallel()

		meta := extractor.Meta(parse(t, `<html><head>
<meta property="og:title" content="Acme OG">
<meta property="og:description" content="Pipes fixed fast">
<meta name="keywords" content="plumbing, drains">
</head></html>`))
		assert.Equal(t, domain.MetaInfo{
			Title:       "Acme OG",
			Description: "Pipes fixed fast",
			Keywords:    "plumbing, drains",
		}, meta)
	})
}

func TestExtract_PanickingExtractorIsIsolated(t *testing.T) {
	t.Parallel()

	set := extractor.Default()
	set.Phones = func(*domain.ParsedDocument) []string {
		panic("phone parser exploded")
	}

	signals, meta, errs := set.Extract(parse(t, acmeHome))

	require.Len(t, errs, 1)
	assert.Equal(t, domain.StageExtract, errs[0].Stage)
	assert.Equal(t, domain.KindExtractorWarning, errs[0].Kind)
	assert.Contains(t, errs[0].Message, "phones")
	assert.Empty(t, signals.Phones)
	assert.NotNil(t, signals.Phones)
	assert.Equal(t, []string{"sales@acme.example"}, signals.Emails)
	assert.Equal(t, "Acme Plumbing", meta.Title)
}
