package sink

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
)

// Columns is the CSV header. Nested values are JSON-encoded into one cell.
var Columns = []string{
	"id", "name", "address", "phone_number", "website_url",
	"status", "status_code", "final_url", "last_modified", "crawl_timestamp",
	"business_type", "emails", "phones", "social_links", "business_hours",
	"products", "services", "categories", "featured_items", "price_ranges",
	"meta_title", "meta_description", "meta_keywords",
	"business_analysis", "pages_checked", "errors", "extra",
}

// CSV flattens records into rows.
type CSV struct {
	mu          sync.Mutex
	w           *csv.Writer
	wroteHeader bool
}

// NewCSV creates a CSV sink over w. The header is written with the first record.
func NewCSV(w io.Writer) *CSV {
	return &CSV{w: csv.NewWriter(w)}
}

// Write implements Sink.
func (c *CSV) Write(_ context.Context, rec domain.BusinessRecord) error {
	row, err := Row(rec)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.wroteHeader {
		if err := c.w.Write(Columns); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
		c.wroteHeader = true
	}
	if err := c.w.Write(row); err != nil {
		return fmt.Errorf("write csv row %s: %w", rec.ID, err)
	}
	c.w.Flush()
	return c.w.Error()
}

// Close flushes buffered rows. The underlying writer is owned by the caller.
func (c *CSV) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.w.Flush()
	return c.w.Error()
}

// Row flattens rec in Columns order.
func Row(rec domain.BusinessRecord) ([]string, error) {
	nested := []any{
		rec.Contact.Emails, rec.Contact.Phones, rec.Contact.SocialLinks,
		rec.Offerings.Products, rec.Offerings.Services, rec.Offerings.Categories,
		rec.Offerings.FeaturedItems, rec.Offerings.PriceRanges,
		rec.Analysis, rec.PagesChecked, rec.Errors, rec.Extra,
	}
	cells := make([]string, len(nested))
	for i, v := range nested {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode csv cell for %s: %w", rec.ID, err)
		}
		cells[i] = string(b)
	}

	return []string{
		rec.ID, rec.Name, rec.Address, rec.PhoneNumber, rec.WebsiteURL,
		string(rec.Status), strconv.Itoa(rec.StatusCode), rec.FinalURL, rec.LastModified, rec.CrawlTimestamp,
		rec.BusinessType, cells[0], cells[1], cells[2], rec.Contact.BusinessHours,
		cells[3], cells[4], cells[5], cells[6], cells[7],
		rec.MetaInfo.Title, rec.MetaInfo.Description, rec.MetaInfo.Keywords,
		cells[8], cells[9], cells[10], cells[11],
	}, nil
}
