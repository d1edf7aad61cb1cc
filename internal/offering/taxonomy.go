package offering

import (
	"strings"
	"sync"
	"unicode"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// Category is one entry of the business-category taxonomy.
type Category struct {
	Name     string
	Keywords []string
}

// DefaultCategories is the fixed business-category taxonomy.
var DefaultCategories = []Category{
	{Name: "restaurant", Keywords: []string{"restaurant", "menu", "dining", "cuisine", "takeout", "bistro", "pizza", "brunch", "catering"}},
	{Name: "cafe", Keywords: []string{"cafe", "coffee", "espresso", "bakery", "pastries"}},
	{Name: "plumbing", Keywords: []string{"plumbing", "plumber", "drain", "drains", "water heater", "water heaters", "sewer", "pipes"}},
	{Name: "electrical", Keywords: []string{"electrician", "electrical", "wiring", "lighting installation"}},
	{Name: "hvac", Keywords: []string{"hvac", "heating", "air conditioning", "furnace", "heat pump"}},
	{Name: "construction", Keywords: []string{"contractor", "construction", "renovation", "remodeling", "roofing", "carpentry"}},
	{Name: "cleaning", Keywords: []string{"cleaning", "janitorial", "maid", "carpet cleaning", "pressure washing"}},
	{Name: "landscaping", Keywords: []string{"landscaping", "lawn", "gardening", "tree removal", "snow removal"}},
	{Name: "automotive", Keywords: []string{"auto repair", "mechanic", "oil change", "tires", "collision", "car wash", "dealership"}},
	{Name: "healthcare", Keywords: []string{"clinic", "physician", "medical", "physiotherapy", "chiropractic", "pharmacy", "optometrist"}},
	{Name: "dental", Keywords: []string{"dental", "dentist", "orthodontics", "teeth whitening"}},
	{Name: "beauty", Keywords: []string{"salon", "haircut", "barber", "spa", "manicure", "esthetics", "massage"}},
	{Name: "fitness", Keywords: []string{"gym", "fitness", "yoga", "pilates", "personal training", "crossfit"}},
	{Name: "legal", Keywords: []string{"lawyer", "attorney", "law firm", "legal services", "notary"}},
	{Name: "financial", Keywords: []string{"accounting", "bookkeeping", "tax preparation", "financial planning", "insurance", "mortgage"}},
	{Name: "real_estate", Keywords: []string{"real estate", "realtor", "property management", "listings", "rentals"}},
	{Name: "retail", Keywords: []string{"shop", "store", "boutique", "shop online", "add to cart", "free shipping"}},
	{Name: "hospitality", Keywords: []string{"hotel", "motel", "lodging", "bed and breakfast", "resort"}},
	{Name: "education", Keywords: []string{"tutoring", "lessons", "courses", "academy", "school", "training"}},
	{Name: "technology", Keywords: []string{"software", "web design", "it support", "app development", "cloud", "saas"}},
	{Name: "marketing", Keywords: []string{"marketing", "seo", "advertising", "branding", "social media management"}},
	{Name: "pet_services", Keywords: []string{"veterinary", "veterinarian", "pet grooming", "dog walking", "kennel"}},
	{Name: "photography", Keywords: []string{"photography", "photographer", "photo studio", "wedding photos"}},
	{Name: "events", Keywords: []string{"wedding", "event planning", "venue", "party rentals", "dj"}},
}

// Taxonomy matches free text against category keywords in a single pass.
// It is safe for concurrent use.
type Taxonomy struct {
	// mu serializes Match; the automaton keeps per-call hit counters.
	mu         sync.Mutex
	categories []Category
	keywords   []string
	owners     [][]int
	matcher    *ahocorasick.Matcher
}

// NewTaxonomy builds the keyword automaton for categories.
func NewTaxonomy(categories []Category) *Taxonomy {
	t := &Taxonomy{categories: categories}
	index := map[string]int{}
	for ci, c := range categories {
		for _, kw := range c.Keywords {
			normalized := normalizeKeyword(kw)
			if normalized == "" {
				continue
			}
			ki, ok := index[normalized]
			if !ok {
				ki = len(t.keywords)
				index[normalized] = ki
				t.keywords = append(t.keywords, normalized)
				t.owners = append(t.owners, nil)
			}
			t.owners[ki] = append(t.owners[ki], ci)
		}
	}
	if len(t.keywords) > 0 {
		t.matcher = ahocorasick.NewStringMatcher(t.keywords)
	}
	return t
}

// Match returns the names of every category whose keywords appear in texts,
// in taxonomy order. Keywords match on whole words only.
func (t *Taxonomy) Match(texts ...string) []string {
	if t.matcher == nil {
		return nil
	}
	text := []byte(normalizeText(strings.Join(texts, " ")))
	t.mu.Lock()
	hits := t.matcher.Match(text)
	t.mu.Unlock()

	hit := make([]bool, len(t.categories))
	for _, idx := range hits {
		if idx < len(t.owners) {
			for _, ci := range t.owners[idx] {
				hit[ci] = true
			}
		}
	}
	var names []string
	for ci, ok := range hit {
		if ok {
			names = append(names, t.categories[ci].Name)
		}
	}
	return names
}

// normalizeKeyword pads the keyword so that it only matches whole words of
// text produced by normalizeText.
func normalizeKeyword(kw string) string {
	kw = strings.TrimSpace(normalizeText(kw))
	if kw == "" {
		return ""
	}
	return " " + strings.Join(strings.Fields(kw), " ") + " "
}

func normalizeText(text string) string {
	text = strings.ToLower(text)

	var result strings.Builder
	result.Grow(len(text) + 2)
	result.WriteByte(' ')
	space := true
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
			space = false
			continue
		}
		if !space {
			result.WriteByte(' ')
			space = true
		}
	}
	if !space {
		result.WriteByte(' ')
	}
	return result.String()
}
